// Package http wires domain modules into the shared HTTP server. The
// composition root fills an App; the router mounts every module on it.
package http

import (
	"context"

	"leadflow_backend/platform/config"
	"leadflow_backend/platform/logger"
)

// RouterConfig is the slice of configuration the router itself reads.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker answers the readiness probe, backed by a database ping.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App carries the initialized dependencies from main to the router.
type App struct {
	Config  RouterConfig
	Logger  *logger.Logger
	Health  HealthChecker
	Modules []Module
}
