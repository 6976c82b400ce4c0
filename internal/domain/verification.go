package domain

import "time"

// Placeholder values used when neither source carries a field. The field
// stays in the result shape rather than being dropped.
const (
	PlaceholderUnknown      = "Unknown"
	PlaceholderNotSpecified = "Not specified"
)

// JourneySource tags where a journey step came from.
type JourneySource string

const (
	JourneySourceStore  JourneySource = "store"
	JourneySourceLedger JourneySource = "ledger"
)

// JourneyStep is one handling event in a product's merged history.
type JourneyStep struct {
	Step      string        `json:"step"`
	Location  string        `json:"location,omitempty"`
	Handler   string        `json:"handler,omitempty"`
	Timestamp time.Time     `json:"timestamp,omitzero"`
	Source    JourneySource `json:"source"`
}

// HistoryStep is a raw ledger-side history entry.
type HistoryStep struct {
	Step      string    `json:"step"`
	Location  string    `json:"location,omitempty"`
	Timestamp time.Time `json:"timestamp,omitzero"`
}

// Attestation is the ledger's corroboration record for a product. Read-only
// from this subsystem's point of view, and possibly simulated upstream.
type Attestation struct {
	ID        string        `json:"id"`
	BlockRef  string        `json:"block_ref,omitempty"`
	Timestamp time.Time     `json:"timestamp,omitzero"`
	History   []HistoryStep `json:"history,omitempty"`
}

// VerificationSources records which independent sources contributed to a
// verification result. Either alone is sufficient for Verified.
type VerificationSources struct {
	Store  bool `json:"store"`
	Ledger bool `json:"ledger"`
}

// ProductDetail is the merged product view shown to a verifier. Fields
// default to placeholders rather than disappearing when no source has them.
type ProductDetail struct {
	Name           string   `json:"name"`
	Category       string   `json:"category"`
	Origin         string   `json:"origin"`
	HarvestDate    string   `json:"harvest_date"`
	GrowerName     string   `json:"grower_name"`
	Certifications []string `json:"certifications,omitempty"`
	Status         string   `json:"status,omitempty"`
}

// VerificationResult is the one-shot projection a lookup produces. It is
// cached for the recent-activity view but never persisted as an entity.
type VerificationResult struct {
	ProductID   string              `json:"product_id"`
	Verified    bool                `json:"verified"`
	Sources     VerificationSources `json:"sources"`
	Detail      ProductDetail       `json:"detail"`
	Journey     []JourneyStep       `json:"journey"`
	Attestation *Attestation        `json:"attestation,omitempty"`
	LookedUpAt  time.Time           `json:"looked_up_at"`
}

// RecentLookupBound caps the recent-lookup list.
const RecentLookupBound = 10

// RecentLookupEntry is a denormalized summary of one past lookup, found or
// not. Entries are immutable after insertion.
type RecentLookupEntry struct {
	ProductID  string    `json:"product_id"`
	Name       string    `json:"name"`
	Verified   bool      `json:"verified"`
	GrowerName string    `json:"grower_name,omitempty"`
	Origin     string    `json:"origin,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
