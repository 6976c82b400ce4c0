package recent

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"agritrace/internal/domain"
)

func TestMemoryOrdersMostRecentFirst(t *testing.T) {
	ctx := context.Background()
	cache := NewMemory()

	for i := 0; i < 3; i++ {
		err := cache.Record(ctx, domain.RecentLookupEntry{
			ProductID: fmt.Sprintf("PROD-%03d", i),
			Timestamp: time.Now(),
		})
		require.NoError(t, err)
	}

	entries, err := cache.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, "PROD-002", entries[0].ProductID)
	require.Equal(t, "PROD-001", entries[1].ProductID)
	require.Equal(t, "PROD-000", entries[2].ProductID)
}

func TestMemoryNeverExceedsBound(t *testing.T) {
	ctx := context.Background()
	cache := NewMemory()

	for i := 0; i < domain.RecentLookupBound*3; i++ {
		err := cache.Record(ctx, domain.RecentLookupEntry{ProductID: fmt.Sprintf("PROD-%03d", i)})
		require.NoError(t, err)
	}

	entries, err := cache.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, domain.RecentLookupBound)
	// Newest insertion survives the trim; the oldest ones fall off.
	require.Equal(t, "PROD-029", entries[0].ProductID)
	require.Equal(t, "PROD-020", entries[domain.RecentLookupBound-1].ProductID)
}

func TestMemoryListReturnsCopy(t *testing.T) {
	ctx := context.Background()
	cache := NewMemory()
	require.NoError(t, cache.Record(ctx, domain.RecentLookupEntry{ProductID: "PROD-A"}))

	entries, err := cache.List(ctx)
	require.NoError(t, err)
	entries[0].ProductID = "mutated"

	again, err := cache.List(ctx)
	require.NoError(t, err)
	require.Equal(t, "PROD-A", again[0].ProductID)
}

func TestMemoryKeepsFailedLookups(t *testing.T) {
	ctx := context.Background()
	cache := NewMemory()
	require.NoError(t, cache.Record(ctx, domain.RecentLookupEntry{
		ProductID: "DOES-NOT-EXIST",
		Verified:  false,
	}))

	entries, err := cache.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.False(t, entries[0].Verified)
}
