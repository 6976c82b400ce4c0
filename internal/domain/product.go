package domain

import (
	"strings"
	"time"

	dErrors "agritrace/pkg/domain-errors"
)

// ProductStatus is the validation lifecycle of a registered product.
type ProductStatus string

const (
	ProductStatusPending  ProductStatus = "pending"
	ProductStatusVerified ProductStatus = "verified"
	ProductStatusRejected ProductStatus = "rejected"
)

// productTransitions holds the allowed lifecycle moves. Verified and rejected
// are both terminal; only an explicit admin transition leaves pending.
var productTransitions = map[ProductStatus][]ProductStatus{
	ProductStatusPending: {ProductStatusVerified, ProductStatusRejected},
}

// CanTransitionTo reports whether the status may move to next.
func (s ProductStatus) CanTransitionTo(next ProductStatus) bool {
	for _, allowed := range productTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Product is a registered agricultural good.
//
// Key is the storage key; ID is the stable human-readable identifier printed
// on labels and QR codes. Both resolve the product during verification.
//
// Invariants:
//   - Status becomes verified only through an explicit admin validation
//     transition, never as a side effect of a read-only lookup.
//   - Attested=true implies a non-empty AttestationID. Attested=false with a
//     populated AttestationError means attestation was attempted and failed,
//     which is distinct from never attempted (both fields empty).
type Product struct {
	Key            string        `json:"key"`
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Category       string        `json:"category"`
	Origin         string        `json:"origin"`
	HarvestDate    string        `json:"harvest_date"`
	BatchNumber    string        `json:"batch_number"`
	QualityGrade   string        `json:"quality_grade"`
	Certifications []string      `json:"certifications"`
	GrowerID       string        `json:"grower_id"`
	ShipmentID     string        `json:"shipment_id,omitempty"`
	Status         ProductStatus `json:"status"`

	Attested             bool      `json:"attested"`
	AttestationID        string    `json:"attestation_id,omitempty"`
	AttestationError     string    `json:"attestation_error,omitempty"`
	AttestationTimestamp time.Time `json:"attestation_timestamp,omitzero"`

	VerifiedBy string    `json:"verified_by,omitempty"`
	VerifiedAt time.Time `json:"verified_at,omitzero"`

	RejectedBy      string    `json:"rejected_by,omitempty"`
	RejectedAt      time.Time `json:"rejected_at,omitzero"`
	RejectionReason string    `json:"rejection_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewProduct constructs a pending product owned by the given grower.
func NewProduct(key, id, name, growerID string, now time.Time) (*Product, error) {
	if strings.TrimSpace(name) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "product name is required")
	}
	if strings.TrimSpace(growerID) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "grower id is required")
	}
	return &Product{
		Key:       key,
		ID:        id,
		Name:      name,
		GrowerID:  growerID,
		Status:    ProductStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// CanValidate checks the pending → verified transition.
func (p *Product) CanValidate() error {
	if !p.Status.CanTransitionTo(ProductStatusVerified) {
		return dErrors.Newf(dErrors.CodeInvalidState, "product %s cannot be validated from status %q", p.ID, p.Status)
	}
	return nil
}

// ApplyValidation marks the product verified. Call CanValidate first.
func (p *Product) ApplyValidation(adminID string, now time.Time) {
	p.Status = ProductStatusVerified
	p.VerifiedBy = adminID
	p.VerifiedAt = now
	p.UpdatedAt = now
}

// CanReject checks the pending → rejected transition.
func (p *Product) CanReject() error {
	if !p.Status.CanTransitionTo(ProductStatusRejected) {
		return dErrors.Newf(dErrors.CodeInvalidState, "product %s cannot be rejected from status %q", p.ID, p.Status)
	}
	return nil
}

// ApplyRejection marks the product rejected. Call CanReject first.
func (p *Product) ApplyRejection(adminID, reason string, now time.Time) {
	p.Status = ProductStatusRejected
	p.RejectedBy = adminID
	p.RejectedAt = now
	p.RejectionReason = reason
	p.UpdatedAt = now
}

// ApplyAttestation records a successful ledger attestation.
func (p *Product) ApplyAttestation(attestationID string, now time.Time) {
	p.Attested = true
	p.AttestationID = attestationID
	p.AttestationError = ""
	p.AttestationTimestamp = now
	p.UpdatedAt = now
}

// ApplyAttestationFailure records an attempted-but-failed attestation. The
// validation itself stands; only the advisory ledger step is marked failed.
func (p *Product) ApplyAttestationFailure(reason string, now time.Time) {
	p.Attested = false
	p.AttestationID = ""
	p.AttestationError = reason
	p.UpdatedAt = now
}

// NeedsAttestation reports whether the product is verified but carries no
// successful attestation, the inconsistency window the reconciler closes.
func (p *Product) NeedsAttestation() bool {
	return p.Status == ProductStatusVerified && !p.Attested
}
