package service

import (
	"context"
	"log/slog"
	"time"

	"attestry/internal/registry/events"
	id "attestry/pkg/domain"
	"attestry/pkg/requestcontext"
)

// EventPublisher is the sink for the registry's append-only event feed.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// eventEmitter wraps an optional EventPublisher. The feed is best-effort:
// by the time an event is emitted the store mutation has already committed,
// so publish failures are logged and never surfaced to the caller.
type eventEmitter struct {
	logger    *slog.Logger
	publisher EventPublisher
}

func newEventEmitter(logger *slog.Logger, publisher EventPublisher) *eventEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &eventEmitter{logger: logger, publisher: publisher}
}

func (e *eventEmitter) emitRegistered(ctx context.Context, principal id.PrincipalID) {
	e.emit(ctx, events.Event{
		Type:      events.TypeIdentityRegistered,
		Principal: principal.String(),
	})
}

func (e *eventEmitter) emitAttested(ctx context.Context, principal, attester id.PrincipalID, attestedAt int64) {
	e.emit(ctx, events.Event{
		Type:       events.TypeIdentityAttested,
		Principal:  principal.String(),
		Attester:   attester.String(),
		AttestedAt: attestedAt,
	})
}

func (e *eventEmitter) emit(ctx context.Context, event events.Event) {
	if e.publisher == nil {
		return
	}
	event.OccurredAt = time.Now().UTC()
	event.RequestID = requestcontext.RequestID(ctx)
	event.ClientIP = requestcontext.ClientIP(ctx)
	event.UserAgent = requestcontext.UserAgent(ctx)

	if err := e.publisher.Publish(ctx, event); err != nil {
		e.logger.ErrorContext(ctx, "failed to publish registry event",
			"type", string(event.Type),
			"principal", event.Principal,
			"error", err,
		)
	}
}
