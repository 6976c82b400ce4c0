// Package catalog handles registration of the primary records: actors,
// products, and shipments. Everything it creates starts life pending; only
// the approval state machine moves records forward.
package catalog

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"agritrace/internal/audit"
	"agritrace/internal/domain"
	"agritrace/internal/permission"
	"agritrace/internal/store"
	dErrors "agritrace/pkg/domain-errors"
	"agritrace/pkg/platform/sentinel"
	"agritrace/pkg/requestcontext"
)

// Service owns catalog writes.
type Service struct {
	products  store.ProductStore
	actors    store.ActorStore
	shipments store.ShipmentStore
	auditor   *audit.Recorder
	logger    *slog.Logger
}

// New constructs the catalog service. auditor and logger may be nil.
func New(
	products store.ProductStore,
	actors store.ActorStore,
	shipments store.ShipmentStore,
	auditor *audit.Recorder,
	logger *slog.Logger,
) *Service {
	return &Service{
		products:  products,
		actors:    actors,
		shipments: shipments,
		auditor:   auditor,
		logger:    logger,
	}
}

// RegisterActorRequest carries a new registration. Admins are provisioned
// out of band; only growers and distributors register here.
type RegisterActorRequest struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
	Role    string `json:"role"`
}

// RegisterActor creates a pending actor awaiting approval.
func (s *Service) RegisterActor(ctx context.Context, req RegisterActorRequest) (*domain.Actor, error) {
	role := domain.ActorRole(req.Role)
	if role != domain.RoleGrower && role != domain.RoleDistributor {
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "role must be grower or distributor, got %q", req.Role)
	}

	actor, err := domain.NewActor(uuid.New().String(), req.Name, req.Contact, role, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.actors.Insert(ctx, actor); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "registering actor failed")
	}
	return actor, nil
}

// RegisterProductRequest carries a grower's new product.
type RegisterProductRequest struct {
	Name           string   `json:"name"`
	Category       string   `json:"category"`
	Origin         string   `json:"origin"`
	HarvestDate    string   `json:"harvest_date"`
	BatchNumber    string   `json:"batch_number"`
	QualityGrade   string   `json:"quality_grade"`
	Certifications []string `json:"certifications"`
	GrowerID       string   `json:"grower_id"`
}

// RegisterProduct creates a pending product owned by an active grower. The
// public identifier is generated here and printed on labels; it never
// changes afterwards.
func (s *Service) RegisterProduct(ctx context.Context, req RegisterProductRequest) (*domain.Product, error) {
	grower, err := s.findActiveActor(ctx, req.GrowerID, domain.RoleGrower)
	if err != nil {
		return nil, err
	}

	key := uuid.New().String()
	product, err := domain.NewProduct(key, publicID("PROD", key), req.Name, grower.Key, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	product.Category = req.Category
	product.Origin = req.Origin
	product.HarvestDate = req.HarvestDate
	product.BatchNumber = req.BatchNumber
	product.QualityGrade = req.QualityGrade
	product.Certifications = req.Certifications

	if err := s.products.Insert(ctx, product); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "registering product failed")
	}
	return product, nil
}

// CreateShipmentRequest groups products for transport.
type CreateShipmentRequest struct {
	Name          string   `json:"name"`
	ProductIDs    []string `json:"product_ids"`
	Origin        string   `json:"origin"`
	Destination   string   `json:"destination"`
	Carrier       string   `json:"carrier"`
	DepartureDate string   `json:"departure_date"`
	DistributorID string   `json:"distributor_id"`
}

// CreateShipment creates a shipment and writes the back-reference onto each
// referenced product in the same logical operation. There is no transaction
// across the two writes; a product update failure after the shipment insert
// is logged and left for the next back-reference write to repair, since the
// shipment's own product list is the authoritative side of the link. When a
// product accumulates several shipments over its life, the most recently
// created shipment's code wins the back-reference.
func (s *Service) CreateShipment(ctx context.Context, req CreateShipmentRequest) (*domain.Shipment, error) {
	distributor, err := s.findActiveActor(ctx, req.DistributorID, domain.RoleDistributor)
	if err != nil {
		return nil, err
	}

	// Resolve every referenced product before writing anything.
	referenced := make([]*domain.Product, 0, len(req.ProductIDs))
	for _, id := range req.ProductIDs {
		product, err := s.products.FindByID(ctx, id)
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeBadRequest, "product %s not found", id)
		}
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "product lookup failed")
		}
		referenced = append(referenced, product)
	}

	key := uuid.New().String()
	now := requestcontext.Now(ctx)
	shipment, err := domain.NewShipment(key, publicID("SHIP", key), req.Name, distributor.Key, req.ProductIDs, now)
	if err != nil {
		return nil, err
	}
	shipment.Origin = req.Origin
	shipment.Destination = req.Destination
	shipment.Carrier = req.Carrier
	shipment.DepartureDate = req.DepartureDate

	if err := s.shipments.Insert(ctx, shipment); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "creating shipment failed")
	}

	for _, product := range referenced {
		product.ShipmentID = shipment.Code
		product.UpdatedAt = now
		if err := s.products.Update(ctx, product); err != nil && s.logger != nil {
			s.logger.ErrorContext(ctx, "writing shipment back-reference failed",
				"product_id", product.ID,
				"shipment_code", shipment.Code,
				"error", err,
			)
		}
	}
	return shipment, nil
}

// UpdateShipmentStatus advances a shipment's logistics lifecycle.
func (s *Service) UpdateShipmentStatus(ctx context.Context, code string, next domain.ShipmentStatus) (*domain.Shipment, error) {
	shipment, err := s.shipments.FindByCode(ctx, code)
	if errors.Is(err, sentinel.ErrNotFound) {
		shipment, err = s.shipments.FindByKey(ctx, code)
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "shipment %s not found", code)
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "shipment lookup failed")
	}

	if err := shipment.AdvanceStatus(next, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.shipments.Update(ctx, shipment); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "updating shipment failed")
	}
	return shipment, nil
}

// DeleteProduct removes a product record entirely. This is administrative
// cleanup, not part of the normal lifecycle, and requires the manage-users
// permission.
func (s *Service) DeleteProduct(ctx context.Context, productID string, admin domain.Admin) error {
	if !permission.Can(admin, permission.ActionManageUsers) {
		return dErrors.Newf(dErrors.CodePermissionDenied, "admin %s may not delete products", admin.ID)
	}

	product, err := s.products.FindByID(ctx, productID)
	if errors.Is(err, sentinel.ErrNotFound) {
		product, err = s.products.FindByKey(ctx, productID)
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Newf(dErrors.CodeNotFound, "product %s not found", productID)
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "product lookup failed")
	}

	if err := s.products.Delete(ctx, product.Key); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "deleting product failed")
	}

	s.auditor.Record(ctx, audit.EventProductDeleted, admin.ID, product.ID, map[string]string{
		"name": product.Name,
	})
	return nil
}

// ListPendingProducts returns products awaiting validation, for the admin
// review queue.
func (s *Service) ListPendingProducts(ctx context.Context) ([]*domain.Product, error) {
	products, err := s.products.ListByStatus(ctx, domain.ProductStatusPending)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "listing products failed")
	}
	return products, nil
}

// ListPendingActors returns actors awaiting approval.
func (s *Service) ListPendingActors(ctx context.Context) ([]*domain.Actor, error) {
	actors, err := s.actors.ListByStatus(ctx, domain.ActorStatusPending)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "listing actors failed")
	}
	return actors, nil
}

func (s *Service) findActiveActor(ctx context.Context, key string, role domain.ActorRole) (*domain.Actor, error) {
	if strings.TrimSpace(key) == "" {
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "%s id is required", role)
	}
	actor, err := s.actors.FindByKey(ctx, key)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "%s %s not found", role, key)
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "actor lookup failed")
	}
	if actor.Role != role {
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "actor %s is not a %s", key, role)
	}
	if actor.Status != domain.ActorStatusActive {
		return nil, dErrors.Newf(dErrors.CodeInvalidState, "%s %s is not active", role, key)
	}
	return actor, nil
}

// publicID derives the printed identifier from a storage key. Uppercase and
// short enough for a label, unique enough through the key's entropy.
func publicID(prefix, key string) string {
	compact := strings.ReplaceAll(key, "-", "")
	if len(compact) > 10 {
		compact = compact[:10]
	}
	return prefix + "-" + strings.ToUpper(compact)
}
