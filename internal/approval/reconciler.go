package approval

import (
	"context"
	"log/slog"
	"time"

	"agritrace/internal/audit"
)

// systemActor identifies reconciler-driven mutations in the audit trail.
const systemActor = "system"

// Reconciler closes the inconsistency window left by degraded-success
// validation: products that are verified but carry no attestation, because
// the ledger was down or the process died between the two writes. Each pass
// re-attempts attestation for every such product; the repair is idempotent,
// so overlapping or repeated passes are safe.
type Reconciler struct {
	service  *Service
	interval time.Duration
	logger   *slog.Logger
}

func NewReconciler(service *Service, interval time.Duration, logger *slog.Logger) *Reconciler {
	return &Reconciler{service: service, interval: interval, logger: logger}
}

// Run executes reconciliation passes on the configured interval until ctx is
// cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.RunOnce(ctx); err != nil && r.logger != nil {
				r.logger.ErrorContext(ctx, "reconciliation pass failed", "error", err)
			}
		}
	}
}

// RunOnce attempts attestation for every verified-but-unattested product.
// Individual attestation failures are recorded on the product and do not
// stop the pass; only a store listing failure aborts.
func (r *Reconciler) RunOnce(ctx context.Context) error {
	s := r.service

	products, err := s.products.ListUnattestedVerified(ctx)
	if err != nil {
		return err
	}

	for _, product := range products {
		now := time.Now()
		s.attest(ctx, product, now)
		if err := s.products.Update(ctx, product); err != nil {
			if r.logger != nil {
				r.logger.ErrorContext(ctx, "persisting reconciled product failed",
					"product_id", product.ID,
					"error", err,
				)
			}
			continue
		}

		if product.Attested {
			s.metrics.ObserveReconcilerRepair()
			s.auditor.Record(ctx, audit.EventProductRepaired, systemActor, product.ID, map[string]string{
				"attestation_id": product.AttestationID,
			})
			if r.logger != nil {
				r.logger.InfoContext(ctx, "repaired missing attestation",
					"product_id", product.ID,
					"attestation_id", product.AttestationID,
				)
			}
		}
	}
	return nil
}
