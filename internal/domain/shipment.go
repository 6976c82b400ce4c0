package domain

import (
	"strings"
	"time"

	dErrors "agritrace/pkg/domain-errors"
)

// ShipmentStatus is the logistics lifecycle of a shipment.
type ShipmentStatus string

const (
	ShipmentStatusPending   ShipmentStatus = "pending"
	ShipmentStatusInTransit ShipmentStatus = "in_transit"
	ShipmentStatusDelivered ShipmentStatus = "delivered"
	ShipmentStatusCancelled ShipmentStatus = "cancelled"
)

var shipmentTransitions = map[ShipmentStatus][]ShipmentStatus{
	ShipmentStatusPending:   {ShipmentStatusInTransit, ShipmentStatusCancelled},
	ShipmentStatusInTransit: {ShipmentStatusDelivered, ShipmentStatusCancelled},
}

// CanTransitionTo reports whether the status may move to next.
func (s ShipmentStatus) CanTransitionTo(next ShipmentStatus) bool {
	for _, allowed := range shipmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Shipment groups products for transport. It references products by their
// public IDs; each referenced product carries the shipment's Code as a
// back-reference, written in the same catalog operation that creates the
// shipment.
type Shipment struct {
	Key           string         `json:"key"`
	Code          string         `json:"code"`
	Name          string         `json:"name"`
	ProductIDs    []string       `json:"product_ids"`
	Origin        string         `json:"origin"`
	Destination   string         `json:"destination"`
	Carrier       string         `json:"carrier"`
	DepartureDate string         `json:"departure_date"`
	DistributorID string         `json:"distributor_id"`
	Status        ShipmentStatus `json:"status"`

	Attested             bool      `json:"attested"`
	AttestationID        string    `json:"attestation_id,omitempty"`
	AttestationError     string    `json:"attestation_error,omitempty"`
	AttestationTimestamp time.Time `json:"attestation_timestamp,omitzero"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewShipment constructs a pending shipment for the given distributor.
func NewShipment(key, code, name, distributorID string, productIDs []string, now time.Time) (*Shipment, error) {
	if strings.TrimSpace(name) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "shipment name is required")
	}
	if strings.TrimSpace(distributorID) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "distributor id is required")
	}
	if len(productIDs) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "shipment must reference at least one product")
	}
	return &Shipment{
		Key:           key,
		Code:          code,
		Name:          name,
		ProductIDs:    productIDs,
		DistributorID: distributorID,
		Status:        ShipmentStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// AdvanceStatus validates and applies a lifecycle move.
func (s *Shipment) AdvanceStatus(next ShipmentStatus, now time.Time) error {
	if !s.Status.CanTransitionTo(next) {
		return dErrors.Newf(dErrors.CodeInvalidState, "shipment %s cannot move from %q to %q", s.Code, s.Status, next)
	}
	s.Status = next
	s.UpdatedAt = now
	return nil
}

// References reports whether the shipment's product list contains productID.
func (s *Shipment) References(productID string) bool {
	for _, id := range s.ProductIDs {
		if id == productID {
			return true
		}
	}
	return false
}
