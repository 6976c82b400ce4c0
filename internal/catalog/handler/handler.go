// Package handler wires the catalog endpoints: public registration routes
// and the admin review/cleanup routes.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"agritrace/internal/catalog"
	"agritrace/internal/domain"
	"agritrace/internal/platform/middleware"
	dErrors "agritrace/pkg/domain-errors"
	"agritrace/pkg/platform/httputil"
	"agritrace/pkg/requestcontext"
)

// Service defines the catalog operations the handler exposes.
type Service interface {
	RegisterActor(ctx context.Context, req catalog.RegisterActorRequest) (*domain.Actor, error)
	RegisterProduct(ctx context.Context, req catalog.RegisterProductRequest) (*domain.Product, error)
	CreateShipment(ctx context.Context, req catalog.CreateShipmentRequest) (*domain.Shipment, error)
	UpdateShipmentStatus(ctx context.Context, code string, next domain.ShipmentStatus) (*domain.Shipment, error)
	DeleteProduct(ctx context.Context, productID string, admin domain.Admin) error
	ListPendingProducts(ctx context.Context) ([]*domain.Product, error)
	ListPendingActors(ctx context.Context) ([]*domain.Actor, error)
}

// Handler wires catalog endpoints to the catalog service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a catalog handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the public registration endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Post("/actors", h.HandleRegisterActor)
	r.Post("/products", h.HandleRegisterProduct)
	r.Post("/shipments", h.HandleCreateShipment)
	r.Post("/shipments/{code}/status", h.HandleUpdateShipmentStatus)
}

// RegisterAdmin mounts the review and cleanup endpoints. The caller applies
// the admin auth middleware.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/products/pending", h.HandleListPendingProducts)
	r.Get("/actors/pending", h.HandleListPendingActors)
	r.Delete("/products/{id}", h.HandleDeleteProduct)
}

func (h *Handler) HandleRegisterActor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := httputil.Decode[catalog.RegisterActorRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	actor, err := h.service.RegisterActor(ctx, req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "actor registered",
		"request_id", requestcontext.RequestID(ctx),
		"actor_key", actor.Key,
		"role", actor.Role,
	)
	httputil.WriteJSON(w, http.StatusCreated, actor)
}

func (h *Handler) HandleRegisterProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := httputil.Decode[catalog.RegisterProductRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	product, err := h.service.RegisterProduct(ctx, req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "product registered",
		"request_id", requestcontext.RequestID(ctx),
		"product_id", product.ID,
		"grower_id", product.GrowerID,
	)
	httputil.WriteJSON(w, http.StatusCreated, product)
}

func (h *Handler) HandleCreateShipment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := httputil.Decode[catalog.CreateShipmentRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	shipment, err := h.service.CreateShipment(ctx, req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "shipment created",
		"request_id", requestcontext.RequestID(ctx),
		"shipment_code", shipment.Code,
		"products", len(shipment.ProductIDs),
	)
	httputil.WriteJSON(w, http.StatusCreated, shipment)
}

type shipmentStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) HandleUpdateShipmentStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := httputil.Decode[shipmentStatusRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	code := chi.URLParam(r, "code")
	shipment, err := h.service.UpdateShipmentStatus(ctx, code, domain.ShipmentStatus(req.Status))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, shipment)
}

func (h *Handler) HandleListPendingProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListPendingProducts(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, products)
}

func (h *Handler) HandleListPendingActors(w http.ResponseWriter, r *http.Request) {
	actors, err := h.service.ListPendingActors(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, actors)
}

func (h *Handler) HandleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	admin, ok := middleware.AdminFrom(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodePermissionDenied, "admin identity required"))
		return
	}

	productID := chi.URLParam(r, "id")
	if err := h.service.DeleteProduct(ctx, productID, admin); err != nil {
		h.logger.ErrorContext(ctx, "product deletion failed",
			"request_id", requestcontext.RequestID(ctx),
			"product_id", productID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
