// Package admin carries the one-time administrative surface. Bootstrap
// creates the registry instance (for PostgreSQL, its schema); none of the
// registry operations are defined before it has run.
package admin

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"attestry/internal/platform/middleware"
	dErrors "attestry/pkg/domain-errors"
	"attestry/pkg/platform/httputil"
	"attestry/pkg/requestcontext"
)

// Bootstrapper initializes the registry's backing store.
type Bootstrapper interface {
	Bootstrap(ctx context.Context) error
}

// BootstrapFunc adapts a function to Bootstrapper.
type BootstrapFunc func(ctx context.Context) error

func (f BootstrapFunc) Bootstrap(ctx context.Context) error { return f(ctx) }

// NoopBootstrapper is used for backends that need no initialization beyond
// construction (memory, redis).
var NoopBootstrapper = BootstrapFunc(func(context.Context) error { return nil })

// Handler handles admin endpoints.
type Handler struct {
	logger       *slog.Logger
	bootstrapper Bootstrapper
	// tokenHash is the bcrypt hash of the admin token. Empty disables the
	// whole admin surface.
	tokenHash string
}

// New creates an admin Handler.
func New(bootstrapper Bootstrapper, tokenHash string, logger *slog.Logger) *Handler {
	return &Handler{
		logger:       logger,
		bootstrapper: bootstrapper,
		tokenHash:    tokenHash,
	}
}

// Register mounts the admin routes.
func (h *Handler) Register(r chi.Router) {
	adminRouter := chi.NewRouter()
	adminRouter.Use(middleware.Recovery(h.logger))
	adminRouter.Use(middleware.RequestID)
	adminRouter.Use(middleware.Logger(h.logger))
	adminRouter.Use(middleware.Timeout(time.Minute))
	adminRouter.Post("/registry/bootstrap", h.handleBootstrap)

	r.Mount("/admin", adminRouter)
}

func (h *Handler) handleBootstrap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.authorize(r) {
		h.logger.WarnContext(ctx, "rejected admin bootstrap",
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid admin token"))
		return
	}

	if err := h.bootstrapper.Bootstrap(ctx); err != nil {
		h.logger.ErrorContext(ctx, "bootstrap failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "bootstrap failed"))
		return
	}

	h.logger.InfoContext(ctx, "registry bootstrapped",
		"request_id", requestcontext.RequestID(ctx),
	)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) authorize(r *http.Request) bool {
	if h.tokenHash == "" {
		return false
	}
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(h.tokenHash), []byte(token)) == nil
}
