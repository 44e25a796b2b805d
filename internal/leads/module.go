// Package leads provides the lead lifecycle bounded context module.
// This file defines the module that encapsulates all leads setup and route registration.
package leads

import (
	"context"
	"fmt"

	"leadflow_backend/internal/adapters/storage"
	"leadflow_backend/internal/events"
	apphttp "leadflow_backend/internal/http"
	"leadflow_backend/internal/leads/advisor"
	"leadflow_backend/internal/leads/handler"
	"leadflow_backend/internal/leads/repository"
	"leadflow_backend/internal/leads/service"
	"leadflow_backend/platform/ai/scorer"
	"leadflow_backend/platform/config"
	"leadflow_backend/platform/logger"
	"leadflow_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler     *handler.Handler
	attachments *handler.AttachmentsHandler
	intake      *handler.IntakeHandler
	service     *service.Service
}

// NewModule creates and initializes the leads module with all its dependencies.
// storageSvc may be nil; attachment routes are only mounted when it is set.
func NewModule(ctx context.Context, pool *pgxpool.Pool, rdb *redis.Client, storageSvc storage.StorageService, eventBus events.Bus, val *validator.Validator, cfg *config.Config, log *logger.Logger) (*Module, error) {
	repo := repository.New(pool)

	primary, err := buildScorer(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	adv := advisor.New(repo, primary, rdb, advisor.Config{
		CacheTTL:   cfg.GetAnalysisCacheTTL(),
		DailyQuota: cfg.GetAnalysisDailyQuota(),
	}, log)

	svc := service.New(repo, adv, storageSvc, eventBus, service.Config{
		TransferThreshold:  cfg.GetTransferThreshold(),
		MaxActiveLeads:     cfg.GetMaxActiveLeads(),
		TransitionRate:     cfg.GetTransitionRate(),
		TransitionBurst:    cfg.GetTransitionBurst(),
		NurtureAfter:       cfg.GetNurtureAfter(),
		AnalysisStaleAfter: cfg.GetAnalysisStaleAfter(),
		AttachmentsBucket:  cfg.GetMinioBucketLeadAttachments(),
	}, log)

	// Every new lead gets a first advisory score without blocking intake.
	eventBus.Subscribe(events.LeadCreated{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		e, ok := event.(events.LeadCreated)
		if !ok {
			return nil
		}

		go func() {
			if _, err := svc.Analyze(context.Background(), e.LeadID, false); err != nil {
				log.Error("initial lead analysis failed", "error", err, "leadId", e.LeadID)
			}
		}()

		return nil
	}))

	m := &Module{
		handler: handler.New(svc, val),
		intake:  handler.NewIntakeHandler(svc, val),
		service: svc,
	}
	if storageSvc != nil {
		m.attachments = handler.NewAttachmentsHandler(svc, val)
	}

	return m, nil
}

// buildScorer picks the configured scorer provider. A disabled scorer returns
// nil, which routes every analysis to the rule-based fallback.
func buildScorer(ctx context.Context, cfg config.ScorerConfig, log *logger.Logger) (scorer.Scorer, error) {
	if !cfg.IsScorerEnabled() {
		log.Warn("scorer disabled, analyses run on the rule-based fallback", "provider", cfg.GetScorerProvider())
		return nil, nil
	}

	switch cfg.GetScorerProvider() {
	case "gemini":
		s, err := scorer.NewGeminiScorer(ctx, scorer.GeminiConfig{
			APIKey:  cfg.GetGeminiAPIKey(),
			Model:   cfg.GetScorerModel(),
			Timeout: cfg.GetScorerTimeout(),
		})
		if err != nil {
			return nil, fmt.Errorf("init gemini scorer: %w", err)
		}
		return s, nil
	case "kimi":
		return scorer.NewKimiScorer(scorer.KimiConfig{
			APIKey:  cfg.GetMoonshotAPIKey(),
			Model:   cfg.GetScorerModel(),
			Timeout: cfg.GetScorerTimeout(),
		}), nil
	default:
		return nil, fmt.Errorf("unknown scorer provider %q", cfg.GetScorerProvider())
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the lead lifecycle facade for external use (scheduler, tests).
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts leads routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	leadsGroup := ctx.Protected.Group("/leads")
	m.handler.RegisterRoutes(leadsGroup)
	if m.attachments != nil {
		m.attachments.RegisterRoutes(leadsGroup.Group("/:id/attachments"))
	}

	salesGroup := ctx.Protected.Group("/sales")
	m.handler.RegisterSaleRoutes(salesGroup)

	// Unauthenticated intake for scanner bots and partner feeds.
	m.intake.RegisterRoutes(ctx.Public.Group("/leads"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
