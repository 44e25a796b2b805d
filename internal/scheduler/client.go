// Package scheduler runs the background jobs of the lead lifecycle: the
// nurture sweep and periodic re-analysis of stale scores. Jobs are queued
// through asynq on Redis so the API process and the worker process can be
// deployed separately.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leadflow_backend/platform/config"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

const defaultQueue = "default"

// Config combines the settings the scheduler reads.
type Config interface {
	config.RedisConfig
	config.SchedulerConfig
}

type Client struct {
	client *asynq.Client
	queue  string
}

func NewClient(cfg Config) (*Client, error) {
	opt, err := redisClientOpt(cfg.GetRedisURL())
	if err != nil {
		return nil, err
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  defaultQueue,
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueAnalyzeLead queues a single re-analysis. Unique keeps overlapping
// sweeps from queueing the same lead twice within the hour.
func (c *Client) EnqueueAnalyzeLead(ctx context.Context, leadID uuid.UUID) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewAnalyzeLeadTask(AnalyzeLeadPayload{LeadID: leadID.String()})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue), asynq.MaxRetry(3), asynq.Unique(time.Hour))
	if err != nil && !errors.Is(err, asynq.ErrDuplicateTask) {
		return err
	}
	return nil
}

func redisClientOpt(redisURL string) (asynq.RedisClientOpt, error) {
	if redisURL == "" {
		return asynq.RedisClientOpt{}, fmt.Errorf("redis url not configured")
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}, nil
}
