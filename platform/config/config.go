// Package config loads application settings from the environment, with
// narrow per-concern interfaces so consumers declare only what they read.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Per-Concern Config Interfaces
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// RedisConfig provides Redis connection settings.
type RedisConfig interface {
	GetRedisURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
	IsAuthEnabled() bool
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// ScorerConfig provides settings for the external lead scorer.
type ScorerConfig interface {
	GetScorerProvider() string
	GetScorerModel() string
	GetScorerTimeout() time.Duration
	GetMoonshotAPIKey() string
	GetGeminiAPIKey() string
	IsScorerEnabled() bool
}

// EmailConfig provides settings for email sending.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	GetSalesAlertAddress() string
}

// SchedulerConfig provides settings for background job processing.
type SchedulerConfig interface {
	GetNurtureAfter() time.Duration
	GetNurtureSweepInterval() string
	GetAnalysisSweepInterval() string
	GetSchedulerConcurrency() int
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                        string
	HTTPAddr                   string
	DatabaseURL                string
	RedisURL                   string
	JWTAccessSecret            string
	CORSAllowAll               bool
	CORSOrigins                []string
	CORSAllowCreds             bool
	AppBaseURL                 string
	ScorerProvider             string
	ScorerModel                string
	ScorerTimeout              time.Duration
	MoonshotAPIKey             string
	GeminiAPIKey               string
	AnalysisCacheTTL           time.Duration
	AnalysisDailyQuota         int
	AnalysisStaleAfter         time.Duration
	TransferThreshold          float64
	MaxActiveLeads             int
	TransitionRate             float64
	TransitionBurst            int
	NurtureAfter               time.Duration
	NurtureSweepInterval       string
	AnalysisSweepInterval      string
	SchedulerConcurrency       int
	EmailEnabled               bool
	SMTPHost                   string
	SMTPPort                   int
	SMTPUsername               string
	SMTPPassword               string
	EmailFromName              string
	EmailFromAddress           string
	SalesAlertAddress          string
	MinIOEndpoint              string
	MinIOAccessKey             string
	MinIOSecretKey             string
	MinIOUseSSL                bool
	MinIOMaxFileSize           int64
	MinioBucketLeadAttachments string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// RedisConfig implementation
func (c *Config) GetRedisURL() string { return c.RedisURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }
func (c *Config) IsAuthEnabled() bool        { return c.JWTAccessSecret != "" }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// ScorerConfig implementation
func (c *Config) GetScorerProvider() string       { return c.ScorerProvider }
func (c *Config) GetScorerModel() string          { return c.ScorerModel }
func (c *Config) GetScorerTimeout() time.Duration { return c.ScorerTimeout }
func (c *Config) GetMoonshotAPIKey() string       { return c.MoonshotAPIKey }
func (c *Config) GetGeminiAPIKey() string         { return c.GeminiAPIKey }
func (c *Config) IsScorerEnabled() bool {
	switch c.ScorerProvider {
	case "gemini":
		return c.GeminiAPIKey != ""
	default:
		return c.MoonshotAPIKey != ""
	}
}

// Advisor cache, quota, and transfer gate settings
func (c *Config) GetAnalysisCacheTTL() time.Duration   { return c.AnalysisCacheTTL }
func (c *Config) GetAnalysisDailyQuota() int           { return c.AnalysisDailyQuota }
func (c *Config) GetAnalysisStaleAfter() time.Duration { return c.AnalysisStaleAfter }
func (c *Config) GetTransferThreshold() float64        { return c.TransferThreshold }

// Assignment capacity
func (c *Config) GetMaxActiveLeads() int { return c.MaxActiveLeads }

// Transition throttling
func (c *Config) GetTransitionRate() float64 { return c.TransitionRate }
func (c *Config) GetTransitionBurst() int    { return c.TransitionBurst }

// EmailConfig implementation
func (c *Config) GetEmailEnabled() bool        { return c.EmailEnabled }
func (c *Config) GetSMTPHost() string          { return c.SMTPHost }
func (c *Config) GetSMTPPort() int             { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string      { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string      { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string     { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string  { return c.EmailFromAddress }
func (c *Config) GetSalesAlertAddress() string { return c.SalesAlertAddress }

// notification.Config implementation
func (c *Config) GetAppBaseURL() string { return c.AppBaseURL }

// storage.Config implementation, plus the bucket name main resolves
func (c *Config) GetMinIOEndpoint() string   { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string  { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string  { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool       { return c.MinIOUseSSL }
func (c *Config) GetMinIOMaxFileSize() int64 { return c.MinIOMaxFileSize }
func (c *Config) GetMinioBucketLeadAttachments() string {
	return c.MinioBucketLeadAttachments
}
func (c *Config) IsMinIOEnabled() bool { return c.MinIOEndpoint != "" }

// SchedulerConfig implementation
func (c *Config) GetNurtureAfter() time.Duration   { return c.NurtureAfter }
func (c *Config) GetNurtureSweepInterval() string  { return c.NurtureSweepInterval }
func (c *Config) GetAnalysisSweepInterval() string { return c.AnalysisSweepInterval }
func (c *Config) GetSchedulerConcurrency() int     { return c.SchedulerConcurrency }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	smtpHost := getEnv("SMTP_HOST", "")
	emailEnabled := strings.EqualFold(getEnv("EMAIL_ENABLED", "true"), "true")

	cfg := &Config{
		Env:                        getEnv("APP_ENV", "development"),
		HTTPAddr:                   getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:                getEnv("DATABASE_URL", ""),
		RedisURL:                   getEnv("REDIS_URL", "redis://localhost:6379/0"),
		JWTAccessSecret:            getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:               corsAllowAll,
		CORSOrigins:                corsOrigins,
		CORSAllowCreds:             strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		AppBaseURL:                 getEnv("APP_BASE_URL", "http://localhost:4200"),
		ScorerProvider:             strings.ToLower(getEnv("SCORER_PROVIDER", "kimi")),
		ScorerModel:                getEnv("SCORER_MODEL", ""),
		ScorerTimeout:              mustDuration(getEnv("SCORER_TIMEOUT", "30s")),
		MoonshotAPIKey:             getEnv("MOONSHOT_API_KEY", ""),
		GeminiAPIKey:               getEnv("GEMINI_API_KEY", ""),
		AnalysisCacheTTL:           mustDuration(getEnv("ANALYSIS_CACHE_TTL", "1h")),
		AnalysisDailyQuota:         mustInt(getEnv("ANALYSIS_DAILY_QUOTA", "500")),
		AnalysisStaleAfter:         mustDuration(getEnv("ANALYSIS_STALE_AFTER", "168h")),
		TransferThreshold:          mustFloat(getEnv("TRANSFER_MIN_SCORE", "0.6")),
		MaxActiveLeads:             mustInt(getEnv("MAX_ACTIVE_LEADS", "50")),
		TransitionRate:             mustFloat(getEnv("TRANSITION_RATE", "1")),
		TransitionBurst:            mustInt(getEnv("TRANSITION_BURST", "5")),
		NurtureAfter:               mustDuration(getEnv("NURTURE_AFTER", "168h")),
		NurtureSweepInterval:       getEnv("NURTURE_SWEEP_CRON", "@every 1h"),
		AnalysisSweepInterval:      getEnv("ANALYSIS_SWEEP_CRON", "@every 6h"),
		SchedulerConcurrency:       mustInt(getEnv("SCHEDULER_CONCURRENCY", "5")),
		EmailEnabled:               emailEnabled && smtpHost != "",
		SMTPHost:                   smtpHost,
		SMTPPort:                   mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:               getEnv("SMTP_USERNAME", ""),
		SMTPPassword:               getEnv("SMTP_PASSWORD", ""),
		EmailFromName:              getEnv("EMAIL_FROM_NAME", "Leadflow"),
		EmailFromAddress:           getEnv("EMAIL_FROM_ADDRESS", ""),
		SalesAlertAddress:          getEnv("SALES_ALERT_ADDRESS", ""),
		MinIOEndpoint:              getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:             getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:             getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:                strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIOMaxFileSize:           mustInt64(getEnv("MINIO_MAX_FILE_SIZE", "104857600")),
		MinioBucketLeadAttachments: getEnv("MINIO_BUCKET_LEAD_ATTACHMENTS", "lead-attachments"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}
	if cfg.ScorerProvider != "kimi" && cfg.ScorerProvider != "gemini" {
		return nil, fmt.Errorf("SCORER_PROVIDER must be kimi or gemini, got %q", cfg.ScorerProvider)
	}
	if cfg.TransferThreshold < 0 || cfg.TransferThreshold > 1 {
		return nil, fmt.Errorf("TRANSFER_MIN_SCORE must be between 0 and 1")
	}
	if cfg.AnalysisDailyQuota <= 0 {
		return nil, fmt.Errorf("ANALYSIS_DAILY_QUOTA must be positive")
	}
	if cfg.MaxActiveLeads <= 0 {
		return nil, fmt.Errorf("MAX_ACTIVE_LEADS must be positive")
	}
	if cfg.EmailEnabled && cfg.EmailFromAddress == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when email is enabled")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
