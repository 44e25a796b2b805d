package scheduler

import (
	"context"
	"errors"
	"fmt"

	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/internal/leads/service"
	"leadflow_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// analysisSweepBatch caps how many stale leads a single sweep fans out.
// The next sweep picks up the rest.
const analysisSweepBatch = 100

type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
	svc       *service.Service
	client    *Client
	log       *logger.Logger
}

func NewWorker(cfg Config, svc *service.Service, client *Client, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL)
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetSchedulerConcurrency()
	if concurrency < 1 {
		concurrency = 5
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			defaultQueue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		svc:    svc,
		client: client,
		log:    log,
	}

	mux.HandleFunc(TaskNurtureSweep, w.handleNurtureSweep)
	mux.HandleFunc(TaskAnalysisSweep, w.handleAnalysisSweep)
	mux.HandleFunc(TaskAnalyzeLead, w.handleAnalyzeLead)

	sched := asynq.NewScheduler(opt, nil)
	if _, err := sched.Register(cfg.GetNurtureSweepInterval(), NewNurtureSweepTask(), asynq.Queue(defaultQueue)); err != nil {
		return nil, fmt.Errorf("register nurture sweep: %w", err)
	}
	if _, err := sched.Register(cfg.GetAnalysisSweepInterval(), NewAnalysisSweepTask(), asynq.Queue(defaultQueue)); err != nil {
		return nil, fmt.Errorf("register analysis sweep: %w", err)
	}
	w.scheduler = sched

	return w, nil
}

func (w *Worker) handleNurtureSweep(ctx context.Context, _ *asynq.Task) error {
	flagged, err := w.svc.NurtureSweep(ctx)
	if err != nil {
		return err
	}

	w.log.Info("nurture sweep finished", "flagged", flagged)
	return nil
}

func (w *Worker) handleAnalysisSweep(ctx context.Context, _ *asynq.Task) error {
	candidates, err := w.svc.StaleAnalysisCandidates(ctx, analysisSweepBatch)
	if err != nil {
		return err
	}

	enqueued := 0
	for _, id := range candidates {
		if err := w.client.EnqueueAnalyzeLead(ctx, id); err != nil {
			w.log.Error("enqueue lead analysis failed", "lead_id", id, "error", err)
			continue
		}
		enqueued++
	}

	w.log.Info("analysis sweep finished", "candidates", len(candidates), "enqueued", enqueued)
	return nil
}

func (w *Worker) handleAnalyzeLead(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseAnalyzeLeadPayload(task)
	if err != nil {
		return fmt.Errorf("analyze payload: %w: %w", err, asynq.SkipRetry)
	}

	leadID, err := uuid.Parse(payload.LeadID)
	if err != nil {
		return fmt.Errorf("analyze payload lead id: %w: %w", err, asynq.SkipRetry)
	}

	_, err = w.svc.Analyze(ctx, leadID, false)
	if err == nil {
		return nil
	}

	if errors.Is(err, service.ErrLeadNotFound) {
		// Deleted between the sweep and this run.
		return nil
	}

	var quotaErr *domain.QuotaExceededError
	if errors.As(err, &quotaErr) {
		// Retrying before the window resets would burn the queue for nothing.
		w.log.Warn("analysis quota exhausted, dropping task", "lead_id", leadID)
		return fmt.Errorf("analysis quota: %w: %w", err, asynq.SkipRetry)
	}

	return err
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		if w.scheduler != nil {
			w.scheduler.Shutdown()
		}
		w.server.Shutdown()
	}()

	if w.scheduler != nil {
		if err := w.scheduler.Start(); err != nil {
			w.log.Error("periodic task scheduler failed to start", "error", err)
		}
	}

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
