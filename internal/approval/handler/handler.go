// Package handler wires the admin approval endpoints. Every route runs
// behind the admin auth middleware; the resolved identity is passed
// explicitly into the service so permission guards stay deterministic.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"agritrace/internal/domain"
	"agritrace/internal/platform/middleware"
	dErrors "agritrace/pkg/domain-errors"
	"agritrace/pkg/platform/httputil"
	"agritrace/pkg/requestcontext"
)

// Service defines the lifecycle transitions the handler exposes.
type Service interface {
	ApproveActor(ctx context.Context, actorKey string, admin domain.Admin) (*domain.Actor, error)
	RejectActor(ctx context.Context, actorKey, reason string, admin domain.Admin) (*domain.Actor, error)
	ToggleActorSuspension(ctx context.Context, actorKey string, admin domain.Admin) (*domain.Actor, error)
	ValidateProduct(ctx context.Context, productID string, admin domain.Admin) (*domain.Product, error)
	RejectProduct(ctx context.Context, productID, reason string, admin domain.Admin) (*domain.Product, error)
}

// Handler wires approval endpoints to the approval service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an approval handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts approval endpoints on the router. The caller is expected
// to have applied the admin auth middleware to r already.
func (h *Handler) Register(r chi.Router) {
	r.Post("/actors/{key}/approve", h.HandleApproveActor)
	r.Post("/actors/{key}/reject", h.HandleRejectActor)
	r.Post("/actors/{key}/suspension", h.HandleToggleSuspension)
	r.Post("/products/{id}/validate", h.HandleValidateProduct)
	r.Post("/products/{id}/reject", h.HandleRejectProduct)
}

// rejectRequest carries the mandatory human-readable reason.
type rejectRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) HandleApproveActor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	admin, ok := middleware.AdminFrom(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodePermissionDenied, "admin identity required"))
		return
	}

	actorKey := chi.URLParam(r, "key")
	actor, err := h.service.ApproveActor(ctx, actorKey, admin)
	if err != nil {
		h.logFailure(ctx, "actor approval failed", "actor_key", actorKey, err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "actor approved",
		"request_id", requestcontext.RequestID(ctx),
		"actor_key", actor.Key,
		"admin_id", admin.ID,
	)
	httputil.WriteJSON(w, http.StatusOK, actor)
}

func (h *Handler) HandleRejectActor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	admin, ok := middleware.AdminFrom(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodePermissionDenied, "admin identity required"))
		return
	}

	req, err := httputil.Decode[rejectRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	actorKey := chi.URLParam(r, "key")
	actor, err := h.service.RejectActor(ctx, actorKey, req.Reason, admin)
	if err != nil {
		h.logFailure(ctx, "actor rejection failed", "actor_key", actorKey, err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, actor)
}

func (h *Handler) HandleToggleSuspension(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	admin, ok := middleware.AdminFrom(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodePermissionDenied, "admin identity required"))
		return
	}

	actorKey := chi.URLParam(r, "key")
	actor, err := h.service.ToggleActorSuspension(ctx, actorKey, admin)
	if err != nil {
		h.logFailure(ctx, "suspension toggle failed", "actor_key", actorKey, err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, actor)
}

func (h *Handler) HandleValidateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	admin, ok := middleware.AdminFrom(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodePermissionDenied, "admin identity required"))
		return
	}

	productID := chi.URLParam(r, "id")
	product, err := h.service.ValidateProduct(ctx, productID, admin)
	if err != nil {
		h.logFailure(ctx, "product validation failed", "product_id", productID, err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "product validated",
		"request_id", requestcontext.RequestID(ctx),
		"product_id", product.ID,
		"admin_id", admin.ID,
		"attested", product.Attested,
	)
	httputil.WriteJSON(w, http.StatusOK, product)
}

func (h *Handler) HandleRejectProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	admin, ok := middleware.AdminFrom(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodePermissionDenied, "admin identity required"))
		return
	}

	req, err := httputil.Decode[rejectRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	productID := chi.URLParam(r, "id")
	product, err := h.service.RejectProduct(ctx, productID, req.Reason, admin)
	if err != nil {
		h.logFailure(ctx, "product rejection failed", "product_id", productID, err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, product)
}

func (h *Handler) logFailure(ctx context.Context, msg, idKey, idValue string, err error) {
	h.logger.ErrorContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		idKey, idValue,
		"error", err,
	)
}
