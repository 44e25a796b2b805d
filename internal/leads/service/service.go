package service

import (
	"context"
	"errors"
	"time"

	"leadflow_backend/internal/adapters/storage"
	"leadflow_backend/internal/events"
	"leadflow_backend/internal/leads/advisor"
	"leadflow_backend/internal/leads/assign"
	"leadflow_backend/internal/leads/dedupe"
	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/internal/leads/lifecycle"
	"leadflow_backend/internal/leads/repository"
	"leadflow_backend/internal/leads/transfer"
	"leadflow_backend/internal/leads/transport"
	"leadflow_backend/platform/logger"
	"leadflow_backend/platform/phone"
	"leadflow_backend/platform/sanitize"

	"github.com/google/uuid"
)

var (
	ErrLeadNotFound       = errors.New("lead not found")
	ErrSaleNotFound       = errors.New("sale not found")
	ErrAttachmentNotFound = errors.New("attachment not found")
	ErrInvalidName        = errors.New("full name must not be empty")
	ErrStorageDisabled    = errors.New("object storage is not configured")

	// ErrConcurrentUpdate is returned when a transition lost the race twice
	// in a row. The caller should re-read and retry.
	ErrConcurrentUpdate = errors.New("entity was modified concurrently")
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	defaultListLimit = 50
	maxListLimit     = 200

	nurtureBatchSize = 100
)

// Config carries the facade's tunables. Values come from platform/config.
type Config struct {
	TransferThreshold  float64
	MaxActiveLeads     int
	TransitionRate     float64
	TransitionBurst    int
	NurtureAfter       time.Duration
	AnalysisStaleAfter time.Duration
	AttachmentsBucket  string
}

// Service is the lifecycle facade: the single entry point for transport and
// background jobs. It owns orchestration order (guards before transactions,
// events after commits); the repository owns the transactions themselves.
type Service struct {
	repo    *repository.Repository
	machine *lifecycle.StageMachine
	detect  *dedupe.Detector
	guard   *assign.Guard
	advisor *advisor.Advisor
	gate    *transfer.Gate
	storage storage.StorageService // nil when object storage is not configured
	bus     events.Bus
	log     *logger.Logger
	cfg     Config

	limiters *transitionLimiters
}

func New(repo *repository.Repository, adv *advisor.Advisor, store storage.StorageService, bus events.Bus, cfg Config, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		machine:  lifecycle.NewStageMachine(),
		detect:   dedupe.NewDetector(repo),
		guard:    assign.NewGuard(repo, cfg.MaxActiveLeads),
		advisor:  adv,
		gate:     transfer.NewGate(cfg.TransferThreshold),
		storage:  store,
		bus:      bus,
		log:      log,
		cfg:      cfg,
		limiters: newTransitionLimiters(cfg.TransitionRate, cfg.TransitionBurst),
	}
}

func (s *Service) Create(ctx context.Context, req transport.CreateLeadRequest) (transport.LeadResponse, error) {
	fullName := sanitize.Text(req.FullName)
	if fullName == "" {
		return transport.LeadResponse{}, ErrInvalidName
	}
	phoneNumber := phone.NormalizeE164(req.Phone)

	match, err := s.detect.Check(ctx, req.Email, phoneNumber)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	if match != nil {
		return transport.LeadResponse{}, &domain.DuplicateLeadError{ExistingID: match.ExistingID, Field: match.Field}
	}

	lead, err := s.repo.CreateLead(ctx, repository.CreateLeadParams{
		FullName:       fullName,
		Email:          req.Email,
		Phone:          phoneNumber,
		Source:         req.Source,
		BusinessDomain: sanitize.Text(req.BusinessDomain),
	})
	if err != nil {
		// A matching lead can land between the check and the insert; the
		// partial unique indexes catch that. Re-resolve so the caller gets
		// the winner's id.
		if errors.Is(err, repository.ErrDuplicateEmail) || errors.Is(err, repository.ErrDuplicatePhone) {
			if match, checkErr := s.detect.Check(ctx, req.Email, phoneNumber); checkErr == nil && match != nil {
				return transport.LeadResponse{}, &domain.DuplicateLeadError{ExistingID: match.ExistingID, Field: match.Field}
			}
		}
		return transport.LeadResponse{}, err
	}

	s.log.LeadCreated(lead.ID, lead.Source)
	s.bus.Publish(ctx, events.LeadCreated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		FullName:  lead.FullName,
		Email:     lead.Email,
		Phone:     lead.Phone,
		Source:    lead.Source,
	})

	return toLeadResponse(lead), nil
}

// CheckDuplicate reports whether a contact already belongs to a lead.
// Intake channels use it as a pre-flight before submitting.
func (s *Service) CheckDuplicate(ctx context.Context, email, phoneNumber string) (transport.DuplicateCheckResponse, error) {
	match, err := s.detect.Check(ctx, email, phoneNumber)
	if err != nil {
		return transport.DuplicateCheckResponse{}, err
	}
	if match == nil {
		return transport.DuplicateCheckResponse{}, nil
	}
	existing := match.ExistingID
	return transport.DuplicateCheckResponse{Duplicate: true, ExistingID: &existing, Field: match.Field}, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (transport.LeadResponse, error) {
	lead, err := s.repo.GetLeadByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadResponse{}, ErrLeadNotFound
		}
		return transport.LeadResponse{}, err
	}
	return toLeadResponse(lead), nil
}

func (s *Service) List(ctx context.Context, req transport.ListLeadsRequest) (transport.LeadListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		req.PageSize = defaultPageSize
	}
	if req.PageSize > maxPageSize {
		req.PageSize = maxPageSize
	}

	params := repository.ListLeadsParams{
		Stage:       req.Stage,
		Source:      req.Source,
		QualityTier: req.QualityTier,
		AssignedTo:  req.AssignedTo,
		Search:      req.Search,
		SortBy:      mapSortKey(req.SortBy),
		SortOrder:   req.SortOrder,
		Limit:       req.PageSize,
		Offset:      (req.Page - 1) * req.PageSize,
	}

	leads, total, err := s.repo.ListLeads(ctx, params)
	if err != nil {
		return transport.LeadListResponse{}, err
	}

	items := make([]transport.LeadResponse, len(leads))
	for i, lead := range leads {
		items[i] = toLeadResponse(lead)
	}

	totalPages := (total + req.PageSize - 1) / req.PageSize

	return transport.LeadListResponse{
		Items:      items,
		Total:      total,
		Page:       req.Page,
		PageSize:   req.PageSize,
		TotalPages: totalPages,
	}, nil
}

// RecordMessages adds to the lead's message counter, the main activity
// signal the advisor's staleness checks and the fallback scorer read.
func (s *Service) RecordMessages(ctx context.Context, id uuid.UUID, req transport.RecordMessagesRequest) (transport.LeadResponse, error) {
	lead, err := s.repo.RecordMessages(ctx, id, req.Count)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadResponse{}, ErrLeadNotFound
		}
		return transport.LeadResponse{}, err
	}
	return toLeadResponse(lead), nil
}

func (s *Service) Assign(ctx context.Context, id uuid.UUID, req transport.AssignLeadRequest) (transport.LeadResponse, error) {
	lead, err := s.repo.GetLeadByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadResponse{}, ErrLeadNotFound
		}
		return transport.LeadResponse{}, err
	}

	// Re-assigning to the current owner is a no-op, not a capacity event.
	if lead.AssignedTo != nil && *lead.AssignedTo == req.AssigneeID {
		return toLeadResponse(lead), nil
	}

	actor := actorOrSystem(req.Actor)
	updated, err := s.guard.Assign(ctx, id, req.AssigneeID, actor)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadResponse{}, ErrLeadNotFound
		}
		return transport.LeadResponse{}, err
	}

	s.bus.Publish(ctx, events.LeadAssigned{
		BaseEvent:     events.NewBaseEvent(),
		LeadID:        id,
		PreviousOwner: lead.AssignedTo,
		NewOwner:      req.AssigneeID,
		Actor:         actor,
	})

	return toLeadResponse(updated), nil
}

// Delete soft-deletes a lead. Every read path excludes flagged rows; the
// data stays for restore and audit.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SoftDeleteLead(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrLeadNotFound
		}
		return err
	}
	return nil
}

func (s *Service) Restore(ctx context.Context, id uuid.UUID) (transport.LeadResponse, error) {
	lead, err := s.repo.RestoreLead(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadResponse{}, ErrLeadNotFound
		}
		return transport.LeadResponse{}, err
	}
	return toLeadResponse(lead), nil
}

// History returns the audit trail for one lead or sale, newest first.
func (s *Service) History(ctx context.Context, entityType string, entityID uuid.UUID, limit, offset int) (transport.HistoryListResponse, error) {
	entries, err := s.repo.ListHistory(ctx, entityType, entityID, clampLimit(limit), clampOffset(offset))
	if err != nil {
		return transport.HistoryListResponse{}, err
	}

	items := make([]transport.HistoryEntryResponse, len(entries))
	for i, entry := range entries {
		items[i] = transport.HistoryEntryResponse{
			ID:         entry.ID,
			EntityType: entry.EntityType,
			EntityID:   entry.EntityID,
			EventKind:  entry.EventKind,
			OldValue:   entry.OldValue,
			NewValue:   entry.NewValue,
			Actor:      entry.Actor,
			Reason:     entry.Reason,
			CreatedAt:  entry.CreatedAt,
		}
	}
	return transport.HistoryListResponse{Items: items}, nil
}

func actorOrSystem(raw string) string {
	if cleaned := sanitize.Text(raw); cleaned != "" {
		return cleaned
	}
	return domain.ActorSystem
}

func mapSortKey(sortBy string) string {
	switch sortBy {
	case "updatedAt":
		return "updated_at"
	case "aiScore":
		return "ai_score"
	case "messageCount":
		return "message_count"
	default:
		return "created_at"
	}
}

func clampLimit(limit int) int {
	if limit < 1 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

func clampOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

func toLeadResponse(lead domain.Lead) transport.LeadResponse {
	return transport.LeadResponse{
		ID:               lead.ID,
		FullName:         lead.FullName,
		Email:            lead.Email,
		Phone:            lead.Phone,
		Source:           lead.Source,
		Stage:            lead.Stage,
		BusinessDomain:   lead.BusinessDomain,
		MessageCount:     lead.MessageCount,
		AIScore:          lead.AIScore,
		AIRecommendation: lead.AIRecommendation,
		AIReason:         lead.AIReason,
		LastAIAnalysisAt: lead.LastAIAnalysisAt,
		QualityTier:      lead.QualityTier,
		LostReason:       lead.LostReason,
		AssignedTo:       lead.AssignedTo,
		Version:          lead.Version,
		CreatedAt:        lead.CreatedAt,
		UpdatedAt:        lead.UpdatedAt,
	}
}

func toSaleResponse(sale domain.Sale) transport.SaleResponse {
	return transport.SaleResponse{
		ID:           sale.ID,
		LeadID:       sale.LeadID,
		Stage:        sale.Stage,
		AmountCents:  sale.AmountCents,
		LostReason:   sale.LostReason,
		ClosedAt:     sale.ClosedAt,
		DurationDays: sale.DurationDays,
		Version:      sale.Version,
		CreatedAt:    sale.CreatedAt,
		UpdatedAt:    sale.UpdatedAt,
	}
}
