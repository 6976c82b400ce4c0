// Package handler wires the public verification endpoints. These routes are
// unauthenticated: anyone holding a printed code may verify a product.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"agritrace/internal/domain"
	"agritrace/pkg/platform/httputil"
	"agritrace/pkg/requestcontext"
)

// Service defines the verification operations the handler exposes.
type Service interface {
	Verify(ctx context.Context, identifier string) (*domain.VerificationResult, error)
	ListRecent(ctx context.Context) ([]domain.RecentLookupEntry, error)
}

// Handler wires verification endpoints to the provenance service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a verification handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts verification endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/verify/{identifier}", h.HandleVerify)
	r.Get("/recent", h.HandleListRecent)
}

// HandleVerify handles GET /verify/{identifier} requests.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	identifier := chi.URLParam(r, "identifier")

	result, err := h.service.Verify(ctx, identifier)
	if err != nil {
		h.logger.ErrorContext(ctx, "verification lookup failed",
			"request_id", requestID,
			"identifier", identifier,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "verification lookup completed",
		"request_id", requestID,
		"product_id", result.ProductID,
		"verified", result.Verified,
		"source_store", result.Sources.Store,
		"source_ledger", result.Sources.Ledger,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleListRecent handles GET /recent requests.
func (h *Handler) HandleListRecent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entries, err := h.service.ListRecent(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "recent lookups unavailable",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, RecentResponse{Lookups: entries})
}

// RecentResponse wraps the recent-lookup list so the shape can grow without
// breaking clients.
type RecentResponse struct {
	Lookups []domain.RecentLookupEntry `json:"lookups"`
}
