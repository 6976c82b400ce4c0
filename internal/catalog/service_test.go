package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"agritrace/internal/audit"
	"agritrace/internal/domain"
	"agritrace/internal/store"
	dErrors "agritrace/pkg/domain-errors"
	"agritrace/pkg/platform/sentinel"
	"agritrace/pkg/requestcontext"
)

type CatalogSuite struct {
	suite.Suite

	products  *store.InMemoryProductStore
	actors    *store.InMemoryActorStore
	shipments *store.InMemoryShipmentStore
	events    *audit.InMemoryEventStore
	svc       *Service
	ctx       context.Context
}

func TestCatalogSuite(t *testing.T) {
	suite.Run(t, new(CatalogSuite))
}

func (s *CatalogSuite) SetupTest() {
	s.products = store.NewInMemoryProductStore()
	s.actors = store.NewInMemoryActorStore()
	s.shipments = store.NewInMemoryShipmentStore()
	s.events = audit.NewInMemoryEventStore()
	s.svc = New(s.products, s.actors, s.shipments, audit.NewRecorder(s.events, nil, nil), nil)
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC))
}

func (s *CatalogSuite) seedActiveActor(key string, role domain.ActorRole) {
	s.Require().NoError(s.actors.Insert(s.ctx, &domain.Actor{
		Key:    key,
		Name:   "Actor " + key,
		Role:   role,
		Status: domain.ActorStatusActive,
	}))
}

func (s *CatalogSuite) registerProduct(growerKey string) *domain.Product {
	product, err := s.svc.RegisterProduct(s.ctx, RegisterProductRequest{
		Name:     "Arabica Coffee",
		Category: "Coffee",
		Origin:   "Huila, Colombia",
		GrowerID: growerKey,
	})
	s.Require().NoError(err)
	return product
}

func (s *CatalogSuite) TestRegisterActorStartsPending() {
	actor, err := s.svc.RegisterActor(s.ctx, RegisterActorRequest{
		Name:    "Finca Aurora",
		Contact: "aurora@example.com",
		Role:    "grower",
	})
	s.Require().NoError(err)

	s.Equal(domain.ActorStatusPending, actor.Status)
	s.NotEmpty(actor.Key)
}

func (s *CatalogSuite) TestRegisterActorRejectsAdminRole() {
	_, err := s.svc.RegisterActor(s.ctx, RegisterActorRequest{Name: "Eve", Role: "admin"})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *CatalogSuite) TestRegisterProduct() {
	s.seedActiveActor("grower-1", domain.RoleGrower)

	product := s.registerProduct("grower-1")

	s.Equal(domain.ProductStatusPending, product.Status)
	s.NotEmpty(product.Key)
	s.Contains(product.ID, "PROD-")
	s.NotEqual(product.Key, product.ID)

	found, err := s.products.FindByID(s.ctx, product.ID)
	s.Require().NoError(err)
	s.Equal(product.Key, found.Key)
}

func (s *CatalogSuite) TestRegisterProductRequiresActiveGrower() {
	s.Require().NoError(s.actors.Insert(s.ctx, &domain.Actor{
		Key:    "grower-pending",
		Name:   "Not Yet",
		Role:   domain.RoleGrower,
		Status: domain.ActorStatusPending,
	}))

	_, err := s.svc.RegisterProduct(s.ctx, RegisterProductRequest{
		Name:     "Arabica Coffee",
		GrowerID: "grower-pending",
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))

	_, err = s.svc.RegisterProduct(s.ctx, RegisterProductRequest{
		Name:     "Arabica Coffee",
		GrowerID: "nobody",
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *CatalogSuite) TestCreateShipmentWritesBackReferences() {
	s.seedActiveActor("grower-1", domain.RoleGrower)
	s.seedActiveActor("dist-1", domain.RoleDistributor)
	p1 := s.registerProduct("grower-1")
	p2 := s.registerProduct("grower-1")

	shipment, err := s.svc.CreateShipment(s.ctx, CreateShipmentRequest{
		Name:          "Export lot 12",
		ProductIDs:    []string{p1.ID, p2.ID},
		Origin:        "Huila",
		Destination:   "Rotterdam",
		Carrier:       "Oceanic",
		DepartureDate: "2026-06-10",
		DistributorID: "dist-1",
	})
	s.Require().NoError(err)
	s.Equal(domain.ShipmentStatusPending, shipment.Status)
	s.True(shipment.References(p1.ID))
	s.True(shipment.References(p2.ID))

	for _, id := range []string{p1.ID, p2.ID} {
		stored, err := s.products.FindByID(s.ctx, id)
		s.Require().NoError(err)
		s.Equal(shipment.Code, stored.ShipmentID)
	}
}

func (s *CatalogSuite) TestCreateShipmentLatestWinsBackReference() {
	s.seedActiveActor("grower-1", domain.RoleGrower)
	s.seedActiveActor("dist-1", domain.RoleDistributor)
	p := s.registerProduct("grower-1")

	first, err := s.svc.CreateShipment(s.ctx, CreateShipmentRequest{
		Name: "Leg one", ProductIDs: []string{p.ID}, DistributorID: "dist-1",
	})
	s.Require().NoError(err)
	second, err := s.svc.CreateShipment(s.ctx, CreateShipmentRequest{
		Name: "Leg two", ProductIDs: []string{p.ID}, DistributorID: "dist-1",
	})
	s.Require().NoError(err)
	s.NotEqual(first.Code, second.Code)

	stored, err := s.products.FindByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(second.Code, stored.ShipmentID)

	// Both shipments keep referencing the product.
	all, err := s.shipments.ListByProductID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Len(all, 2)
}

func (s *CatalogSuite) TestCreateShipmentUnknownProductAbortsBeforeWrite() {
	s.seedActiveActor("dist-1", domain.RoleDistributor)

	_, err := s.svc.CreateShipment(s.ctx, CreateShipmentRequest{
		Name:          "Ghost lot",
		ProductIDs:    []string{"PROD-NOPE"},
		DistributorID: "dist-1",
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))

	shipments, lerr := s.shipments.ListByProductID(s.ctx, "PROD-NOPE")
	s.Require().NoError(lerr)
	s.Empty(shipments)
}

func (s *CatalogSuite) TestUpdateShipmentStatusFollowsLifecycle() {
	s.seedActiveActor("grower-1", domain.RoleGrower)
	s.seedActiveActor("dist-1", domain.RoleDistributor)
	p := s.registerProduct("grower-1")

	shipment, err := s.svc.CreateShipment(s.ctx, CreateShipmentRequest{
		Name: "Lot", ProductIDs: []string{p.ID}, DistributorID: "dist-1",
	})
	s.Require().NoError(err)

	updated, err := s.svc.UpdateShipmentStatus(s.ctx, shipment.Code, domain.ShipmentStatusInTransit)
	s.Require().NoError(err)
	s.Equal(domain.ShipmentStatusInTransit, updated.Status)

	_, err = s.svc.UpdateShipmentStatus(s.ctx, shipment.Code, domain.ShipmentStatusPending)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func (s *CatalogSuite) TestDeleteProductRequiresManageUsers() {
	s.seedActiveActor("grower-1", domain.RoleGrower)
	p := s.registerProduct("grower-1")

	plain := domain.Admin{ID: "admin-1", Level: domain.AdminLevelStandard}
	err := s.svc.DeleteProduct(s.ctx, p.ID, plain)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodePermissionDenied))

	manager := domain.Admin{
		ID:          "admin-2",
		Level:       domain.AdminLevelStandard,
		Permissions: domain.Permissions{CanManageUsers: true},
	}
	s.Require().NoError(s.svc.DeleteProduct(s.ctx, p.ID, manager))

	_, err = s.products.FindByID(s.ctx, p.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	events, _ := s.events.List(s.ctx, 0)
	s.Require().Len(events, 1)
	s.Equal(audit.EventProductDeleted, events[0].Name)
}
