package ledger

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"agritrace/internal/domain"
	"agritrace/pkg/platform/sentinel"
)

// Simulated is an in-process ledger. It generates fake transaction hashes
// and block numbers, honoring the Gateway contract with deterministic,
// inspectable behavior for development and tests.
//
// Attested summaries become visible to subsequent Lookup calls, which lets
// the validate-then-verify flow exercise both sources end to end.
type Simulated struct {
	mu        sync.Mutex
	rng       *rand.Rand
	records   map[string]*domain.Attestation
	latency   time.Duration
	connected bool
}

// SimulatedOption configures a Simulated ledger.
type SimulatedOption func(*Simulated)

// WithRecords seeds attestations visible to Lookup from the start.
func WithRecords(records map[string]*domain.Attestation) SimulatedOption {
	return func(s *Simulated) {
		for id, att := range records {
			s.records[id] = att
		}
	}
}

// WithLatency adds an artificial delay to every call.
func WithLatency(d time.Duration) SimulatedOption {
	return func(s *Simulated) { s.latency = d }
}

// WithDisconnected makes every call fail with sentinel.ErrUnavailable,
// emulating a wallet-not-connected ledger.
func WithDisconnected() SimulatedOption {
	return func(s *Simulated) { s.connected = false }
}

// WithSeed fixes the random source for reproducible identifiers.
func WithSeed(seed int64) SimulatedOption {
	return func(s *Simulated) { s.rng = rand.New(rand.NewSource(seed)) }
}

func NewSimulated(opts ...SimulatedOption) *Simulated {
	s := &Simulated{
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		records:   make(map[string]*domain.Attestation),
		connected: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulated) Attest(ctx context.Context, summary Summary) (Receipt, error) {
	if err := s.wait(ctx); err != nil {
		return Receipt{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return Receipt{}, fmt.Errorf("ledger not connected: %w", sentinel.ErrUnavailable)
	}

	ts := summary.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	receipt := Receipt{
		AttestationID: fmt.Sprintf("0x%016x%016x", s.rng.Uint64(), s.rng.Uint64()),
		BlockRef:      fmt.Sprintf("%d", 2_000_000+s.rng.Intn(1_000_000)),
		Timestamp:     ts,
	}
	s.records[summary.Identifier] = &domain.Attestation{
		ID:        receipt.AttestationID,
		BlockRef:  receipt.BlockRef,
		Timestamp: receipt.Timestamp,
		History: []domain.HistoryStep{
			{Step: "Recorded", Location: summary.Location, Timestamp: receipt.Timestamp},
		},
	}
	return receipt, nil
}

func (s *Simulated) Lookup(ctx context.Context, identifier string) (*domain.Attestation, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return nil, fmt.Errorf("ledger not connected: %w", sentinel.ErrUnavailable)
	}
	att, ok := s.records[identifier]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *att
	copied.History = append([]domain.HistoryStep(nil), att.History...)
	return &copied, nil
}

func (s *Simulated) wait(ctx context.Context) error {
	if s.latency == 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.latency):
		return nil
	}
}
