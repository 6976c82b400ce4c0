package domain

import (
	"strings"
	"time"

	dErrors "agritrace/pkg/domain-errors"
)

// ActorRole tags a registered participant in the supply chain.
type ActorRole string

const (
	RoleGrower      ActorRole = "grower"
	RoleDistributor ActorRole = "distributor"
	RoleAdmin       ActorRole = "admin"
)

// ActorStatus is the approval lifecycle of a registered actor.
type ActorStatus string

const (
	ActorStatusPending   ActorStatus = "pending"
	ActorStatusActive    ActorStatus = "active"
	ActorStatusSuspended ActorStatus = "suspended"
	ActorStatusRejected  ActorStatus = "rejected"
)

// actorTransitions: pending → active|rejected, active ⇄ suspended.
// Rejected is terminal here; re-registration happens outside this subsystem.
var actorTransitions = map[ActorStatus][]ActorStatus{
	ActorStatusPending:   {ActorStatusActive, ActorStatusRejected},
	ActorStatusActive:    {ActorStatusSuspended},
	ActorStatusSuspended: {ActorStatusActive},
}

// CanTransitionTo reports whether the status may move to next.
func (s ActorStatus) CanTransitionTo(next ActorStatus) bool {
	for _, allowed := range actorTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Actor is a registered participant: a grower, distributor, or admin.
// Status is mutated only by the approval state machine.
type Actor struct {
	Key     string      `json:"key"`
	Name    string      `json:"name"`
	Contact string      `json:"contact"`
	Role    ActorRole   `json:"role"`
	Status  ActorStatus `json:"status"`

	ApprovedBy string    `json:"approved_by,omitempty"`
	ApprovedAt time.Time `json:"approved_at,omitzero"`

	RejectedBy      string    `json:"rejected_by,omitempty"`
	RejectedAt      time.Time `json:"rejected_at,omitzero"`
	RejectionReason string    `json:"rejection_reason,omitempty"`

	StatusUpdatedBy string    `json:"status_updated_by,omitempty"`
	StatusUpdatedAt time.Time `json:"status_updated_at,omitzero"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewActor constructs a pending actor awaiting admin approval.
func NewActor(key, name, contact string, role ActorRole, now time.Time) (*Actor, error) {
	if strings.TrimSpace(name) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "actor name is required")
	}
	switch role {
	case RoleGrower, RoleDistributor, RoleAdmin:
	default:
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "unknown actor role %q", role)
	}
	return &Actor{
		Key:       key,
		Name:      name,
		Contact:   contact,
		Role:      role,
		Status:    ActorStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// CanApprove checks the pending → active transition.
func (a *Actor) CanApprove() error {
	if a.Status != ActorStatusPending {
		return dErrors.Newf(dErrors.CodeInvalidState, "actor %s cannot be approved from status %q", a.Key, a.Status)
	}
	return nil
}

// ApplyApproval activates the actor. Call CanApprove first.
func (a *Actor) ApplyApproval(adminID string, now time.Time) {
	a.Status = ActorStatusActive
	a.ApprovedBy = adminID
	a.ApprovedAt = now
	a.UpdatedAt = now
}

// CanReject checks the pending → rejected transition.
func (a *Actor) CanReject() error {
	if !a.Status.CanTransitionTo(ActorStatusRejected) {
		return dErrors.Newf(dErrors.CodeInvalidState, "actor %s cannot be rejected from status %q", a.Key, a.Status)
	}
	return nil
}

// ApplyRejection rejects the actor. Call CanReject first.
func (a *Actor) ApplyRejection(adminID, reason string, now time.Time) {
	a.Status = ActorStatusRejected
	a.RejectedBy = adminID
	a.RejectedAt = now
	a.RejectionReason = reason
	a.UpdatedAt = now
}

// SuspensionTarget returns the status a suspension toggle would move the
// actor to. Toggling flips active ⇄ suspended only; a pending or rejected
// actor is in an invalid state for the toggle.
func (a *Actor) SuspensionTarget() (ActorStatus, error) {
	switch a.Status {
	case ActorStatusActive:
		return ActorStatusSuspended, nil
	case ActorStatusSuspended:
		return ActorStatusActive, nil
	default:
		return "", dErrors.Newf(dErrors.CodeInvalidState, "actor %s cannot toggle suspension from status %q", a.Key, a.Status)
	}
}

// ApplySuspensionToggle flips between active and suspended. Call
// SuspensionTarget first to validate.
func (a *Actor) ApplySuspensionToggle(target ActorStatus, adminID string, now time.Time) {
	a.Status = target
	a.StatusUpdatedBy = adminID
	a.StatusUpdatedAt = now
	a.UpdatedAt = now
}
