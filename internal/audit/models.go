// Package audit records administrative actions as an append-only event
// trail, stored locally and optionally published to Kafka.
package audit

import "time"

// Event names. One per privileged mutation.
const (
	EventActorApproved    = "actor_approved"
	EventActorRejected    = "actor_rejected"
	EventActorSuspended   = "actor_suspended"
	EventActorReinstated  = "actor_reinstated"
	EventProductValidated = "product_validated"
	EventProductRejected  = "product_rejected"
	EventProductDeleted   = "product_deleted"
	EventProductRepaired  = "product_repaired"
)

// Event is a single audit trail entry. Detail carries event-specific
// context such as the attestation ID or a failure reason.
type Event struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	AdminID   string            `json:"adminId"`
	SubjectID string            `json:"subjectId"`
	Detail    map[string]string `json:"detail,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}
