package redis

import (
	"context"
	"os"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/mysa/internal/domain"
)

// newTestStore connects to MYSA_TEST_REDIS_ADDR, skipping when it is unset.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	addr := os.Getenv("MYSA_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("MYSA_TEST_REDIS_ADDR not set, skipping redis store test")
	}

	client := goredis.NewClient(&goredis.Options{Addr: addr})
	s := NewStore(client, "mysa-test:"+t.Name()+":")
	t.Cleanup(func() {
		ctx := context.Background()
		_ = s.Save(ctx, nil)
		_ = s.Close()
	})
	return s
}

func TestStoreRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	entries := []domain.Entry{
		{ID: "1", Ref: domain.URL("http://example.com"), IntervalMinutes: 0},
		{ID: "2", Ref: domain.FilePath("/tmp/report.pdf"), IntervalMinutes: 5},
	}
	require.NoError(t, s.Save(ctx, entries))

	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, entries, got)
}

func TestStoreSaveDropsRemovedEntries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, []domain.Entry{
		{ID: "1", Ref: domain.URL("http://a"), IntervalMinutes: 1},
		{ID: "2", Ref: domain.URL("http://b"), IntervalMinutes: 2},
	}))
	require.NoError(t, s.Save(ctx, []domain.Entry{
		{ID: "2", Ref: domain.URL("http://b"), IntervalMinutes: 3},
	}))

	exists, err := s.client.Exists(ctx, s.keys.Entry("1")).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].IntervalMinutes)
}
