// Package handler is the registry's HTTP layer. It binds the caller identity,
// parses transport shapes, and maps domain errors to HTTP without altering
// their kind. No business rules live here.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	platformmetrics "attestry/internal/platform/metrics"
	"attestry/internal/platform/middleware"
	"attestry/internal/platform/ratelimit"
	"attestry/internal/registry/models"
	id "attestry/pkg/domain"
	dErrors "attestry/pkg/domain-errors"
	"attestry/pkg/platform/httputil"
	"attestry/pkg/requestcontext"
)

// Service defines the registry operations the handler exposes.
type Service interface {
	Register(ctx context.Context, caller id.PrincipalID, name string) (*models.IdentityRecord, error)
	Attest(ctx context.Context, caller, target id.PrincipalID) error
	Lookup(ctx context.Context, target id.PrincipalID) (*models.IdentityRecord, error)
}

// Handler handles registry endpoints.
type Handler struct {
	logger    *slog.Logger
	registry  Service
	metrics   *platformmetrics.Metrics
	validator middleware.TokenValidator
	limiter   *ratelimit.Limiter
}

// New creates a registry Handler.
func New(
	registry Service,
	logger *slog.Logger,
	metrics *platformmetrics.Metrics,
	validator middleware.TokenValidator,
	limiter *ratelimit.Limiter,
) *Handler {
	return &Handler{
		logger:    logger,
		registry:  registry,
		metrics:   metrics,
		validator: validator,
		limiter:   limiter,
	}
}

// Register mounts the registry routes with their middleware chain.
func (h *Handler) Register(r chi.Router) {
	registryRouter := chi.NewRouter()
	registryRouter.Use(middleware.Recovery(h.logger))
	registryRouter.Use(middleware.RequestID)
	registryRouter.Use(middleware.Logger(h.logger))
	registryRouter.Use(middleware.Timeout(30 * time.Second))
	registryRouter.Use(middleware.ContentTypeJSON)
	registryRouter.Use(middleware.Latency(h.metrics))
	registryRouter.Use(middleware.ClientMetadata)
	registryRouter.Use(middleware.RequireAuth(h.validator, h.logger))
	if h.limiter != nil {
		registryRouter.Use(h.limiter.Middleware)
	}
	registryRouter.Post("/identities", h.handleRegister)
	registryRouter.Post("/identities/{principal}/attest", h.handleAttest)
	registryRouter.Get("/identities/{principal}", h.handleLookup)

	r.Mount("/registry", registryRouter)
}

// handleRegister creates the caller's identity record.
func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid register request",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	record, err := h.registry.Register(ctx, caller, req.Name)
	if err != nil {
		h.writeServiceError(w, r, "register", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, models.ToResponse(record))
}

// handleAttest records the caller's attestation of the target record.
func (h *Handler) handleAttest(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	target, ok := h.targetParam(w, r)
	if !ok {
		return
	}

	if err := h.registry.Attest(r.Context(), caller, target); err != nil {
		h.writeServiceError(w, r, "attest", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleLookup returns the target's current record.
func (h *Handler) handleLookup(w http.ResponseWriter, r *http.Request) {
	target, ok := h.targetParam(w, r)
	if !ok {
		return
	}

	record, err := h.registry.Lookup(r.Context(), target)
	if err != nil {
		h.writeServiceError(w, r, "lookup", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.ToResponse(record))
}

// caller reads the authenticated principal bound by RequireAuth.
func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (id.PrincipalID, bool) {
	ctx := r.Context()
	caller := requestcontext.CallerID(ctx)
	if caller.IsZero() {
		// Should never happen when RequireAuth is configured on the router.
		h.logger.ErrorContext(ctx, "caller missing from context despite auth middleware",
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return id.PrincipalID{}, false
	}
	return caller, true
}

func (h *Handler) targetParam(w http.ResponseWriter, r *http.Request) (id.PrincipalID, bool) {
	target, err := id.ParsePrincipalID(chi.URLParam(r, "principal"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.PrincipalID{}, false
	}
	return target, true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	if dErrors.HasCode(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(ctx, "registry operation failed",
			"operation", op,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}
