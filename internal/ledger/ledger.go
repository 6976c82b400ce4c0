// Package ledger is the gateway to the distributed-ledger attestation
// service. The ledger corroborates records; it is never the source of truth.
// Callers must treat every response as possibly stale or simulated, and no
// ordering is guaranteed across calls.
package ledger

import (
	"context"
	"time"

	"agritrace/internal/domain"
)

// Summary is the product digest submitted for attestation.
type Summary struct {
	Identifier string    `json:"identifier"`
	ActorName  string    `json:"actor_name"`
	Location   string    `json:"location"`
	Timestamp  time.Time `json:"timestamp"`
}

// Receipt confirms a successful attestation.
type Receipt struct {
	AttestationID string    `json:"attestation_id"`
	BlockRef      string    `json:"block_ref"`
	Timestamp     time.Time `json:"timestamp"`
}

// Gateway is the ledger contract. Attest failures surface as errors and are
// always recoverable for callers (degraded success, never rollback). Lookup
// returns sentinel.ErrNotFound when the ledger has no record, and any other
// error when the ledger is unreachable; callers downgrade the latter rather
// than failing a lookup that can succeed from the store alone.
type Gateway interface {
	Attest(ctx context.Context, summary Summary) (Receipt, error)
	Lookup(ctx context.Context, identifier string) (*domain.Attestation, error)
}
