// Package service implements the registry's three operations over a Store.
// All business rules live here; stores only provide atomic primitives and
// handlers only translate transport.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	registrymetrics "attestry/internal/registry/metrics"
	"attestry/internal/registry/models"
	"attestry/internal/registry/store"
	id "attestry/pkg/domain"
	dErrors "attestry/pkg/domain-errors"
	"attestry/pkg/platform/sentinel"
)

// Clock supplies attestation timestamps. Implementations must be
// non-decreasing across calls.
type Clock interface {
	Now() time.Time
}

// Service orchestrates registration, attestation, and lookup.
type Service struct {
	store   store.Store
	clock   Clock
	emitter *eventEmitter
	metrics *registrymetrics.Metrics
	tracer  trace.Tracer
}

type serviceConfig struct {
	clock     Clock
	publisher EventPublisher
	metrics   *registrymetrics.Metrics
	logger    *slog.Logger
}

// Option configures optional service dependencies.
type Option func(*serviceConfig)

// WithClock injects the attestation timestamp source.
func WithClock(c Clock) Option {
	return func(cfg *serviceConfig) { cfg.clock = c }
}

// WithEvents injects the event feed publisher.
func WithEvents(p EventPublisher) Option {
	return func(cfg *serviceConfig) { cfg.publisher = p }
}

// WithMetrics injects the registry metrics.
func WithMetrics(m *registrymetrics.Metrics) Option {
	return func(cfg *serviceConfig) { cfg.metrics = m }
}

// WithLogger injects the logger used for event feed failures.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *serviceConfig) { cfg.logger = l }
}

// New constructs the registry service. The clock defaults to a systemClock
// only through cmd wiring; tests inject a fake via WithClock.
func New(st store.Store, opts ...Option) *Service {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Service{
		store:   st,
		clock:   cfg.clock,
		emitter: newEventEmitter(cfg.logger, cfg.publisher),
		metrics: cfg.metrics,
		tracer:  otel.Tracer("attestry/registry"),
	}
}

// Register creates the caller's identity record. At most one registration per
// principal ever succeeds; the name is fixed at creation and never validated
// for format (empty is legal).
func (s *Service) Register(ctx context.Context, caller id.PrincipalID, name string) (*models.IdentityRecord, error) {
	if err := requirePrincipal(caller, "caller"); err != nil {
		return nil, err
	}
	ctx, span := s.tracer.Start(ctx, "registry.Register",
		trace.WithAttributes(attribute.String("registry.principal", caller.String())))
	defer span.End()

	record := &models.IdentityRecord{
		Principal:  caller,
		Name:       name,
		Verified:   false,
		AttestedAt: 0,
		AttestedBy: id.SentinelAttester,
	}

	start := time.Now()
	err := s.store.Create(ctx, record)
	s.metrics.ObserveOperation("create", time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			s.metrics.RecordRegistration("conflict")
			return nil, dErrors.New(dErrors.CodeConflict, "identity already registered")
		}
		span.RecordError(err)
		s.metrics.RecordRegistration("error")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register identity")
	}

	s.metrics.RecordRegistration("success")
	s.emitter.emitRegistered(ctx, caller)
	return record, nil
}

// Attest marks the target's record as verified by the caller. Attestation is
// permissionless: any caller, including the target itself, may attest, and
// repeated attestations simply replace the previous attester and timestamp.
func (s *Service) Attest(ctx context.Context, caller, target id.PrincipalID) error {
	if err := requirePrincipal(caller, "caller"); err != nil {
		return err
	}
	if err := requirePrincipal(target, "target"); err != nil {
		return err
	}
	ctx, span := s.tracer.Start(ctx, "registry.Attest",
		trace.WithAttributes(
			attribute.String("registry.principal", target.String()),
			attribute.String("registry.attester", caller.String()),
		))
	defer span.End()

	attestedAt, err := s.timestamp()
	if err != nil {
		span.RecordError(err)
		s.metrics.RecordAttestation("error")
		return err
	}

	start := time.Now()
	err = s.store.Attest(ctx, target, models.Attestation{
		AttestedAt: attestedAt,
		AttestedBy: caller,
	})
	s.metrics.ObserveOperation("attest", time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.metrics.RecordAttestation("not_found")
			return dErrors.New(dErrors.CodeNotFound, "identity is not registered")
		}
		span.RecordError(err)
		s.metrics.RecordAttestation("error")
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to attest identity")
	}

	s.metrics.RecordAttestation("success")
	s.emitter.emitAttested(ctx, target, caller, attestedAt)
	return nil
}

// Lookup returns the current record for the target.
func (s *Service) Lookup(ctx context.Context, target id.PrincipalID) (*models.IdentityRecord, error) {
	if err := requirePrincipal(target, "target"); err != nil {
		return nil, err
	}
	ctx, span := s.tracer.Start(ctx, "registry.Lookup",
		trace.WithAttributes(attribute.String("registry.principal", target.String())))
	defer span.End()

	start := time.Now()
	record, err := s.store.Find(ctx, target)
	s.metrics.ObserveOperation("find", time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.metrics.RecordLookup("not_found")
			return nil, dErrors.New(dErrors.CodeNotFound, "identity is not registered")
		}
		span.RecordError(err)
		s.metrics.RecordLookup("error")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up identity")
	}

	s.metrics.RecordLookup("success")
	return record, nil
}

// timestamp reads the attestation clock. A missing or unusable timestamp is
// fatal to the attest operation: no attestation is written without one.
func (s *Service) timestamp() (int64, error) {
	if s.clock == nil {
		return 0, dErrors.New(dErrors.CodeInternal, "attestation clock is not configured")
	}
	now := s.clock.Now().Unix()
	if now <= 0 {
		return 0, dErrors.New(dErrors.CodeInternal, "attestation timestamp unavailable")
	}
	return now, nil
}

func requirePrincipal(principal id.PrincipalID, role string) error {
	if principal.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, role+" principal is required")
	}
	return nil
}
