package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"agritrace/internal/domain"
	"agritrace/pkg/platform/sentinel"
)

func TestSimulatedAttestThenLookup(t *testing.T) {
	ctx := context.Background()
	sim := NewSimulated(WithSeed(42))

	receipt, err := sim.Attest(ctx, Summary{
		Identifier: "PROD-001",
		ActorName:  "Azeb Yirga",
		Location:   "Gonder, Ethiopia",
		Timestamp:  time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.NotEmpty(t, receipt.AttestationID)
	require.NotEmpty(t, receipt.BlockRef)

	att, err := sim.Lookup(ctx, "PROD-001")
	require.NoError(t, err)
	require.Equal(t, receipt.AttestationID, att.ID)
	require.Len(t, att.History, 1)
	require.Equal(t, "Recorded", att.History[0].Step)
}

func TestSimulatedLookupUnknown(t *testing.T) {
	sim := NewSimulated(WithSeed(1))
	_, err := sim.Lookup(context.Background(), "DOES-NOT-EXIST")
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestSimulatedSeededRecords(t *testing.T) {
	seeded := &domain.Attestation{
		ID:        "0xseeded",
		BlockRef:  "1234567",
		Timestamp: time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC),
		History: []domain.HistoryStep{
			{Step: "Harvested", Location: "Gonder, Ethiopia"},
			{Step: "Processed", Location: "Processing Facility"},
		},
	}
	sim := NewSimulated(WithRecords(map[string]*domain.Attestation{"PROD-002": seeded}))

	att, err := sim.Lookup(context.Background(), "PROD-002")
	require.NoError(t, err)
	require.Equal(t, "0xseeded", att.ID)
	require.Len(t, att.History, 2)

	// Returned history is a copy, not shared state.
	att.History[0].Step = "mutated"
	again, err := sim.Lookup(context.Background(), "PROD-002")
	require.NoError(t, err)
	require.Equal(t, "Harvested", again.History[0].Step)
}

func TestSimulatedDisconnected(t *testing.T) {
	sim := NewSimulated(WithDisconnected())

	_, err := sim.Attest(context.Background(), Summary{Identifier: "PROD-003"})
	require.ErrorIs(t, err, sentinel.ErrUnavailable)

	_, err = sim.Lookup(context.Background(), "PROD-003")
	require.ErrorIs(t, err, sentinel.ErrUnavailable)
}

func TestSimulatedHonorsContextCancellation(t *testing.T) {
	sim := NewSimulated(WithLatency(time.Second))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sim.Lookup(ctx, "PROD-004")
	require.ErrorIs(t, err, context.Canceled)
}
