// Package approval is the validation state machine: admins move actors from
// pending to active and products from pending to verified. Every transition
// is guarded by the acting admin's permission set before any write, and
// product validation carries a best-effort ledger attestation side effect.
package approval

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"agritrace/internal/audit"
	"agritrace/internal/domain"
	"agritrace/internal/ledger"
	"agritrace/internal/permission"
	"agritrace/internal/platform/metrics"
	"agritrace/internal/store"
	dErrors "agritrace/pkg/domain-errors"
	"agritrace/pkg/platform/sentinel"
	"agritrace/pkg/requestcontext"
)

// DefaultAttestTimeout bounds the ledger attestation step. The store write
// is already committed by then, so a slow ledger only delays the advisory
// part of the response.
const DefaultAttestTimeout = 5 * time.Second

// Service drives actor and product lifecycle transitions.
type Service struct {
	products store.ProductStore
	actors   store.ActorStore
	ledger   ledger.Gateway
	auditor  *audit.Recorder

	attestTimeout time.Duration
	logger        *slog.Logger
	metrics       *metrics.Metrics
}

// New constructs the approval service. auditor, logger, and metrics may be
// nil.
func New(
	products store.ProductStore,
	actors store.ActorStore,
	gw ledger.Gateway,
	auditor *audit.Recorder,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		products:      products,
		actors:        actors,
		ledger:        gw,
		auditor:       auditor,
		attestTimeout: DefaultAttestTimeout,
		logger:        logger,
		metrics:       m,
	}
}

// WithAttestTimeout overrides the bound on ledger attestation calls.
func (s *Service) WithAttestTimeout(d time.Duration) *Service {
	s.attestTimeout = d
	return s
}

// ApproveActor moves a pending actor to active. The guard depends on the
// actor's role: growers need can_approve_farmers, distributors
// can_approve_exporters.
func (s *Service) ApproveActor(ctx context.Context, actorKey string, admin domain.Admin) (*domain.Actor, error) {
	actor, err := s.findActor(ctx, actorKey)
	if err != nil {
		return nil, err
	}

	if err := s.guardApproval(actor, admin); err != nil {
		return nil, err
	}
	if err := actor.CanApprove(); err != nil {
		return nil, err
	}

	actor.ApplyApproval(admin.ID, requestcontext.Now(ctx))
	if err := s.actors.Update(ctx, actor); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "updating actor failed")
	}

	s.metrics.ObserveTransition("approve_actor")
	s.auditor.Record(ctx, audit.EventActorApproved, admin.ID, actor.Key, map[string]string{
		"role": string(actor.Role),
	})
	return actor, nil
}

// RejectActor moves a pending actor to rejected. A human-readable reason is
// required and checked before any read or write.
func (s *Service) RejectActor(ctx context.Context, actorKey, reason string, admin domain.Admin) (*domain.Actor, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "rejection reason is required")
	}

	actor, err := s.findActor(ctx, actorKey)
	if err != nil {
		return nil, err
	}

	if err := s.guardApproval(actor, admin); err != nil {
		return nil, err
	}
	if err := actor.CanReject(); err != nil {
		return nil, err
	}

	actor.ApplyRejection(admin.ID, reason, requestcontext.Now(ctx))
	if err := s.actors.Update(ctx, actor); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "updating actor failed")
	}

	s.metrics.ObserveTransition("reject_actor")
	s.auditor.Record(ctx, audit.EventActorRejected, admin.ID, actor.Key, map[string]string{
		"role":   string(actor.Role),
		"reason": reason,
	})
	return actor, nil
}

// ToggleActorSuspension flips an actor between active and suspended. Pending
// and rejected actors are in an invalid state for the toggle.
func (s *Service) ToggleActorSuspension(ctx context.Context, actorKey string, admin domain.Admin) (*domain.Actor, error) {
	actor, err := s.findActor(ctx, actorKey)
	if err != nil {
		return nil, err
	}

	if err := s.guard(admin, permission.ActionManageUsers); err != nil {
		return nil, err
	}

	target, err := actor.SuspensionTarget()
	if err != nil {
		return nil, err
	}

	actor.ApplySuspensionToggle(target, admin.ID, requestcontext.Now(ctx))
	if err := s.actors.Update(ctx, actor); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "updating actor failed")
	}

	event := audit.EventActorSuspended
	action := "suspend_actor"
	if target == domain.ActorStatusActive {
		event = audit.EventActorReinstated
		action = "reinstate_actor"
	}
	s.metrics.ObserveTransition(action)
	s.auditor.Record(ctx, event, admin.ID, actor.Key, nil)
	return actor, nil
}

// ValidateProduct moves a pending product to verified and then attempts a
// ledger attestation. The store write is authoritative; the attestation is
// advisory. An attestation failure is recorded on the product and the
// validation still succeeds, so callers must inspect Attested rather than
// the error to learn the ledger outcome.
func (s *Service) ValidateProduct(ctx context.Context, productID string, admin domain.Admin) (*domain.Product, error) {
	if err := s.guard(admin, permission.ActionValidateProduct); err != nil {
		return nil, err
	}

	product, err := s.findProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := product.CanValidate(); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	product.ApplyValidation(admin.ID, now)
	if err := s.products.Update(ctx, product); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "updating product failed")
	}

	// Re-read before attesting: the write may be eventually consistent
	// with the backing store.
	product, err = s.findProduct(ctx, product.Key)
	if err != nil {
		return nil, err
	}

	s.attest(ctx, product, now)

	if err := s.products.Update(ctx, product); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "updating product failed")
	}

	s.metrics.ObserveTransition("validate_product")
	detail := map[string]string{"attested": boolString(product.Attested)}
	if product.AttestationError != "" {
		detail["attestation_error"] = product.AttestationError
	}
	s.auditor.Record(ctx, audit.EventProductValidated, admin.ID, product.ID, detail)
	return product, nil
}

// RejectProduct moves a pending product to rejected. Like actor rejection it
// requires a reason up front.
func (s *Service) RejectProduct(ctx context.Context, productID, reason string, admin domain.Admin) (*domain.Product, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "rejection reason is required")
	}

	if err := s.guard(admin, permission.ActionValidateProduct); err != nil {
		return nil, err
	}

	product, err := s.findProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := product.CanReject(); err != nil {
		return nil, err
	}

	product.ApplyRejection(admin.ID, reason, requestcontext.Now(ctx))
	if err := s.products.Update(ctx, product); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "updating product failed")
	}

	s.metrics.ObserveTransition("reject_product")
	s.auditor.Record(ctx, audit.EventProductRejected, admin.ID, product.ID, map[string]string{
		"reason": reason,
	})
	return product, nil
}

// attest submits the product summary to the ledger and records the outcome
// on the product, success or failure. It never returns an error.
func (s *Service) attest(ctx context.Context, product *domain.Product, now time.Time) {
	ctx, cancel := context.WithTimeout(ctx, s.attestTimeout)
	defer cancel()

	receipt, err := s.ledger.Attest(ctx, ledger.Summary{
		Identifier: product.ID,
		ActorName:  s.growerName(ctx, product),
		Location:   product.Origin,
		Timestamp:  now,
	})
	if err != nil {
		s.metrics.ObserveAttestation("failed")
		if s.logger != nil {
			s.logger.WarnContext(ctx, "ledger attestation failed",
				"product_id", product.ID,
				"error", err,
			)
		}
		product.ApplyAttestationFailure(err.Error(), now)
		return
	}

	s.metrics.ObserveAttestation("ok")
	product.ApplyAttestation(receipt.AttestationID, receipt.Timestamp)
}

func (s *Service) growerName(ctx context.Context, product *domain.Product) string {
	if product.GrowerID == "" {
		return ""
	}
	grower, err := s.actors.FindByKey(ctx, product.GrowerID)
	if err != nil {
		return ""
	}
	return grower.Name
}

// guard enforces fail-closed permission checks. It performs no writes, so a
// denial leaves every entity untouched.
func (s *Service) guard(admin domain.Admin, action permission.Action) error {
	if !permission.Can(admin, action) {
		s.metrics.ObservePermissionDenial()
		return dErrors.Newf(dErrors.CodePermissionDenied, "admin %s may not %s", admin.ID, action)
	}
	return nil
}

func (s *Service) guardApproval(actor *domain.Actor, admin domain.Admin) error {
	action, ok := permission.ApprovalActionFor(actor.Role)
	if !ok {
		return dErrors.Newf(dErrors.CodeInvalidState, "actors with role %q are not approved through this flow", actor.Role)
	}
	return s.guard(admin, action)
}

func (s *Service) findActor(ctx context.Context, key string) (*domain.Actor, error) {
	actor, err := s.actors.FindByKey(ctx, key)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "actor %s not found", key)
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "actor lookup failed")
	}
	return actor, nil
}

// findProduct resolves by public ID first, then by storage key, matching the
// verification entry points.
func (s *Service) findProduct(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		product, err = s.products.FindByKey(ctx, id)
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "product %s not found", id)
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "product lookup failed")
	}
	return product, nil
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
