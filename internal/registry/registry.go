// Package registry exposes the identity attestation registry: one record per
// principal, registered once by its owner and attested permissionlessly by
// any principal, latest attestation wins.
package registry

import (
	"log/slog"

	platformmetrics "attestry/internal/platform/metrics"
	"attestry/internal/platform/middleware"
	"attestry/internal/platform/ratelimit"
	"attestry/internal/registry/handler"
	"attestry/internal/registry/service"
	"attestry/internal/registry/store"
)

// Service orchestrates registration, attestation, and lookup.
type Service = service.Service

// Handler wires HTTP endpoints to the registry service.
type Handler = handler.Handler

// Store is the persistence contract shared by all backends.
type Store = store.Store

// NewService constructs the registry service with the given store and options.
func NewService(st store.Store, opts ...service.Option) *Service {
	return service.New(st, opts...)
}

// NewHandler constructs an HTTP handler for the registry routes.
func NewHandler(
	s *Service,
	logger *slog.Logger,
	metrics *platformmetrics.Metrics,
	validator middleware.TokenValidator,
	limiter *ratelimit.Limiter,
) *Handler {
	return handler.New(s, logger, metrics, validator, limiter)
}
