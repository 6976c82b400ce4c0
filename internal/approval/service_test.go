package approval

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"agritrace/internal/audit"
	"agritrace/internal/domain"
	"agritrace/internal/ledger"
	"agritrace/internal/store"
	dErrors "agritrace/pkg/domain-errors"
	"agritrace/pkg/requestcontext"
)

type ApprovalSuite struct {
	suite.Suite

	products *store.InMemoryProductStore
	actors   *store.InMemoryActorStore
	events   *audit.InMemoryEventStore
	ctx      context.Context
	now      time.Time
}

func TestApprovalSuite(t *testing.T) {
	suite.Run(t, new(ApprovalSuite))
}

func (s *ApprovalSuite) SetupTest() {
	s.products = store.NewInMemoryProductStore()
	s.actors = store.NewInMemoryActorStore()
	s.events = audit.NewInMemoryEventStore()
	s.now = time.Date(2026, 5, 2, 14, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func (s *ApprovalSuite) newService(gw ledger.Gateway) *Service {
	auditor := audit.NewRecorder(s.events, nil, nil)
	return New(s.products, s.actors, gw, auditor, nil, nil)
}

func (s *ApprovalSuite) seedPendingGrower() *domain.Actor {
	actor := &domain.Actor{
		Key:    "grower-1",
		Name:   "Finca Aurora",
		Role:   domain.RoleGrower,
		Status: domain.ActorStatusPending,
	}
	s.Require().NoError(s.actors.Insert(s.ctx, actor))
	return actor
}

func (s *ApprovalSuite) seedPendingProduct() *domain.Product {
	product := &domain.Product{
		Key:      "key-001",
		ID:       "PROD-001",
		Name:     "Arabica Coffee",
		Origin:   "Huila, Colombia",
		GrowerID: "grower-1",
		Status:   domain.ProductStatusPending,
	}
	s.Require().NoError(s.products.Insert(s.ctx, product))
	return product
}

func validator() domain.Admin {
	return domain.Admin{
		ID:    "admin-1",
		Name:  "Dana",
		Level: domain.AdminLevelStandard,
		Permissions: domain.Permissions{
			CanValidateProducts: true,
		},
	}
}

func approver() domain.Admin {
	return domain.Admin{
		ID:    "admin-2",
		Name:  "Luis",
		Level: domain.AdminLevelStandard,
		Permissions: domain.Permissions{
			CanApproveFarmers:   true,
			CanApproveExporters: true,
		},
	}
}

func (s *ApprovalSuite) TestApproveActor() {
	s.seedPendingGrower()
	svc := s.newService(ledger.NewSimulated())

	actor, err := svc.ApproveActor(s.ctx, "grower-1", approver())
	s.Require().NoError(err)

	s.Equal(domain.ActorStatusActive, actor.Status)
	s.Equal("admin-2", actor.ApprovedBy)
	s.Equal(s.now, actor.ApprovedAt)

	events, _ := s.events.List(s.ctx, 0)
	s.Require().Len(events, 1)
	s.Equal(audit.EventActorApproved, events[0].Name)
}

func (s *ApprovalSuite) TestApproveActorPermissionDeniedLeavesStateUntouched() {
	s.seedPendingGrower()
	svc := s.newService(ledger.NewSimulated())

	noFarmers := domain.Admin{ID: "admin-3", Level: domain.AdminLevelStandard}
	_, err := svc.ApproveActor(s.ctx, "grower-1", noFarmers)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodePermissionDenied))

	stored, serr := s.actors.FindByKey(s.ctx, "grower-1")
	s.Require().NoError(serr)
	s.Equal(domain.ActorStatusPending, stored.Status)

	events, _ := s.events.List(s.ctx, 0)
	s.Empty(events)
}

func (s *ApprovalSuite) TestApproveActorSuperBypassesFlags() {
	s.seedPendingGrower()
	svc := s.newService(ledger.NewSimulated())

	super := domain.Admin{ID: "root", Level: domain.AdminLevelSuper}
	actor, err := svc.ApproveActor(s.ctx, "grower-1", super)
	s.Require().NoError(err)
	s.Equal(domain.ActorStatusActive, actor.Status)
}

func (s *ApprovalSuite) TestApproveActorAlreadyActiveIsInvalidState() {
	actor := s.seedPendingGrower()
	actor.Status = domain.ActorStatusActive
	s.Require().NoError(s.actors.Update(s.ctx, actor))

	svc := s.newService(ledger.NewSimulated())
	_, err := svc.ApproveActor(s.ctx, "grower-1", approver())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func (s *ApprovalSuite) TestRejectActorRequiresReason() {
	s.seedPendingGrower()
	svc := s.newService(ledger.NewSimulated())

	_, err := svc.RejectActor(s.ctx, "grower-1", "   ", approver())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))

	stored, serr := s.actors.FindByKey(s.ctx, "grower-1")
	s.Require().NoError(serr)
	s.Equal(domain.ActorStatusPending, stored.Status)
}

func (s *ApprovalSuite) TestRejectActor() {
	s.seedPendingGrower()
	svc := s.newService(ledger.NewSimulated())

	actor, err := svc.RejectActor(s.ctx, "grower-1", "incomplete documentation", approver())
	s.Require().NoError(err)

	s.Equal(domain.ActorStatusRejected, actor.Status)
	s.Equal("incomplete documentation", actor.RejectionReason)
}

func (s *ApprovalSuite) TestToggleSuspensionFlipsActiveAndSuspended() {
	actor := s.seedPendingGrower()
	actor.Status = domain.ActorStatusActive
	s.Require().NoError(s.actors.Update(s.ctx, actor))

	svc := s.newService(ledger.NewSimulated())
	manager := domain.Admin{
		ID:          "admin-4",
		Level:       domain.AdminLevelStandard,
		Permissions: domain.Permissions{CanManageUsers: true},
	}

	suspended, err := svc.ToggleActorSuspension(s.ctx, "grower-1", manager)
	s.Require().NoError(err)
	s.Equal(domain.ActorStatusSuspended, suspended.Status)

	reinstated, err := svc.ToggleActorSuspension(s.ctx, "grower-1", manager)
	s.Require().NoError(err)
	s.Equal(domain.ActorStatusActive, reinstated.Status)

	events, _ := s.events.List(s.ctx, 0)
	s.Require().Len(events, 2)
	s.Equal(audit.EventActorReinstated, events[0].Name)
	s.Equal(audit.EventActorSuspended, events[1].Name)
}

func (s *ApprovalSuite) TestToggleSuspensionOnPendingActorIsInvalidState() {
	s.seedPendingGrower()
	svc := s.newService(ledger.NewSimulated())

	manager := domain.Admin{
		ID:          "admin-4",
		Level:       domain.AdminLevelStandard,
		Permissions: domain.Permissions{CanManageUsers: true},
	}
	_, err := svc.ToggleActorSuspension(s.ctx, "grower-1", manager)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func (s *ApprovalSuite) TestValidateProductWithReachableLedger() {
	s.seedPendingProduct()
	svc := s.newService(ledger.NewSimulated(ledger.WithSeed(7)))

	product, err := svc.ValidateProduct(s.ctx, "PROD-001", validator())
	s.Require().NoError(err)

	s.Equal(domain.ProductStatusVerified, product.Status)
	s.Equal("admin-1", product.VerifiedBy)
	s.True(product.Attested)
	s.NotEmpty(product.AttestationID)
	s.Empty(product.AttestationError)
}

func (s *ApprovalSuite) TestValidateProductDegradedSuccessWhenLedgerDown() {
	s.seedPendingProduct()
	svc := s.newService(ledger.NewSimulated(ledger.WithDisconnected()))

	product, err := svc.ValidateProduct(s.ctx, "PROD-001", validator())
	s.Require().NoError(err)

	// The validation itself stands; only the attestation sub-step failed.
	s.Equal(domain.ProductStatusVerified, product.Status)
	s.False(product.Attested)
	s.Empty(product.AttestationID)
	s.NotEmpty(product.AttestationError)

	stored, serr := s.products.FindByKey(s.ctx, "key-001")
	s.Require().NoError(serr)
	s.Equal(domain.ProductStatusVerified, stored.Status)
	s.NotEmpty(stored.AttestationError)
}

func (s *ApprovalSuite) TestValidateProductPermissionDeniedNoMutation() {
	s.seedPendingProduct()
	svc := s.newService(ledger.NewSimulated())

	noValidate := domain.Admin{ID: "admin-5", Level: domain.AdminLevelStandard}
	_, err := svc.ValidateProduct(s.ctx, "PROD-001", noValidate)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodePermissionDenied))

	stored, serr := s.products.FindByKey(s.ctx, "key-001")
	s.Require().NoError(serr)
	s.Equal(domain.ProductStatusPending, stored.Status)
}

func (s *ApprovalSuite) TestValidateProductUnknownIDIsNotFound() {
	svc := s.newService(ledger.NewSimulated())

	_, err := svc.ValidateProduct(s.ctx, "PROD-404", validator())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ApprovalSuite) TestValidateProductTwiceIsInvalidState() {
	s.seedPendingProduct()
	svc := s.newService(ledger.NewSimulated())

	_, err := svc.ValidateProduct(s.ctx, "PROD-001", validator())
	s.Require().NoError(err)

	_, err = svc.ValidateProduct(s.ctx, "PROD-001", validator())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func (s *ApprovalSuite) TestRejectProduct() {
	s.seedPendingProduct()
	svc := s.newService(ledger.NewSimulated())

	product, err := svc.RejectProduct(s.ctx, "PROD-001", "failed quality check", validator())
	s.Require().NoError(err)
	s.Equal(domain.ProductStatusRejected, product.Status)
	s.Equal("failed quality check", product.RejectionReason)
}

func (s *ApprovalSuite) TestReconcilerRepairsUnattestedVerifiedProducts() {
	s.seedPendingProduct()

	// Validate while the ledger is down, leaving the known inconsistency
	// window: verified but unattested.
	down := ledger.NewSimulated(ledger.WithDisconnected())
	_, err := s.newService(down).ValidateProduct(s.ctx, "PROD-001", validator())
	s.Require().NoError(err)

	svc := s.newService(ledger.NewSimulated(ledger.WithSeed(11)))
	rec := NewReconciler(svc, time.Minute, nil)
	s.Require().NoError(rec.RunOnce(s.ctx))

	stored, serr := s.products.FindByKey(s.ctx, "key-001")
	s.Require().NoError(serr)
	s.True(stored.Attested)
	s.NotEmpty(stored.AttestationID)
	s.Empty(stored.AttestationError)

	// A second pass finds nothing to repair.
	s.Require().NoError(rec.RunOnce(s.ctx))
}

func (s *ApprovalSuite) TestReconcilerKeepsFailureRecordedWhenLedgerStillDown() {
	s.seedPendingProduct()

	down := ledger.NewSimulated(ledger.WithDisconnected())
	_, err := s.newService(down).ValidateProduct(s.ctx, "PROD-001", validator())
	s.Require().NoError(err)

	rec := NewReconciler(s.newService(down), time.Minute, nil)
	s.Require().NoError(rec.RunOnce(s.ctx))

	stored, serr := s.products.FindByKey(s.ctx, "key-001")
	s.Require().NoError(serr)
	s.False(stored.Attested)
	s.NotEmpty(stored.AttestationError)
}
