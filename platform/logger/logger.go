// Package logger wraps slog and gives the recurring operational events a
// typed helper each, so field names stay consistent across call sites.
package logger

import (
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// HTTPRequest logs an HTTP request
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// LeadCreated logs a new lead entering the funnel.
func (l *Logger) LeadCreated(leadID uuid.UUID, source string) {
	l.Info("lead_created",
		slog.String("lead_id", leadID.String()),
		slog.String("source", source),
	)
}

// StageChanged logs an accepted stage transition.
func (l *Logger) StageChanged(entityType string, entityID uuid.UUID, oldStage, newStage, actor string) {
	l.Info("stage_changed",
		slog.String("entity_type", entityType),
		slog.String("entity_id", entityID.String()),
		slog.String("old_stage", oldStage),
		slog.String("new_stage", newStage),
		slog.String("actor", actor),
	)
}

// AnalysisCompleted logs a finished advisory run.
func (l *Logger) AnalysisCompleted(leadID uuid.UUID, score float64, recommendation string, fallback bool, latencyMs int64) {
	l.Info("analysis_completed",
		slog.String("lead_id", leadID.String()),
		slog.Float64("score", score),
		slog.String("recommendation", recommendation),
		slog.Bool("fallback", fallback),
		slog.Int64("latency_ms", latencyMs),
	)
}

// ScorerUnavailable logs a primary scorer failure that triggered the fallback path.
func (l *Logger) ScorerUnavailable(leadID uuid.UUID, err error) {
	l.Warn("scorer_unavailable",
		slog.String("lead_id", leadID.String()),
		slog.String("error", err.Error()),
	)
}

// QuotaExhausted logs a rejected analysis due to the daily ceiling.
func (l *Logger) QuotaExhausted(leadID uuid.UUID, used, ceiling int) {
	l.Warn("quota_exhausted",
		slog.String("lead_id", leadID.String()),
		slog.Int("used", used),
		slog.Int("ceiling", ceiling),
	)
}

// FeatureValidationFailed logs an enum drift defect. These indicate a bug, not a user error.
func (l *Logger) FeatureValidationFailed(leadID uuid.UUID, field, value string) {
	l.Error("feature_validation_failed",
		slog.String("lead_id", leadID.String()),
		slog.String("field", field),
		slog.String("value", value),
	)
}

// DatabaseError logs database errors
func (l *Logger) DatabaseError(operation string, err error) {
	l.Error("database_error",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// RateLimitExceeded logs rate limit events
func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}
