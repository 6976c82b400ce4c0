//go:build integration

package recent

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"agritrace/internal/domain"
	"agritrace/pkg/testutil/containers"
)

func TestRedisCacheBoundAndOrder(t *testing.T) {
	ctx := context.Background()
	rc := containers.NewRedisContainer(t)
	require.NoError(t, rc.FlushAll(ctx))

	cache := NewRedis(rc.Client)

	for i := 0; i < domain.RecentLookupBound+5; i++ {
		err := cache.Record(ctx, domain.RecentLookupEntry{
			ProductID: fmt.Sprintf("PROD-%03d", i),
			Verified:  i%2 == 0,
		})
		require.NoError(t, err)
	}

	entries, err := cache.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, domain.RecentLookupBound)
	require.Equal(t, fmt.Sprintf("PROD-%03d", domain.RecentLookupBound+4), entries[0].ProductID)
}
