package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/nexconsult/fgts-api/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T, ttl time.Duration) (*RedisCorrelationStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisCorrelationStore(client, ttl, testLogger), mr
}

func TestRedisCorrelationStore_ResolvePending(t *testing.T) {
	store, mr := newRedisStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.MarkPending(ctx, "11144477735"))
	assert.Equal(t, time.Hour, mr.TTL("consulta:11144477735"))

	entry, err := store.Get(ctx, "11144477735")
	require.NoError(t, err)
	assert.Equal(t, models.ConsultationPending, entry.Status)

	mr.FastForward(10 * time.Minute)

	matched, err := store.Resolve(ctx, "11144477735", map[string]interface{}{"balance": json.Number("100.50")})
	require.NoError(t, err)
	assert.True(t, matched)

	// resolving keeps the remaining TTL of the pending entry
	assert.Equal(t, 50*time.Minute, mr.TTL("consulta:11144477735"))

	entry, err = store.Get(ctx, "11144477735")
	require.NoError(t, err)
	assert.True(t, entry.IsFinished())
	assert.Equal(t, json.Number("100.50"), entry.Result["balance"])
}

func TestRedisCorrelationStore_UnknownDocumentDropped(t *testing.T) {
	store, mr := newRedisStore(t, time.Hour)
	ctx := context.Background()

	matched, err := store.Resolve(ctx, "99999999999", map[string]interface{}{"balance": 10})
	require.NoError(t, err)
	assert.False(t, matched)
	assert.False(t, mr.Exists("consulta:99999999999"))

	_, err = store.Get(ctx, "99999999999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisCorrelationStore_ExpiredEntryNotResolved(t *testing.T) {
	store, mr := newRedisStore(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.MarkPending(ctx, "52998224725"))
	mr.FastForward(2 * time.Minute)

	matched, err := store.Resolve(ctx, "52998224725", map[string]interface{}{"balance": "1.00"})
	require.NoError(t, err)
	assert.False(t, matched)
	assert.False(t, mr.Exists("consulta:52998224725"))
}

func TestRedisCorrelationStore_Stats(t *testing.T) {
	store, mr := newRedisStore(t, time.Hour)
	ctx := context.Background()

	for _, doc := range []string{"11144477735", "52998224725", "39053344705"} {
		require.NoError(t, store.MarkPending(ctx, doc))
	}
	_, err := store.Resolve(ctx, "52998224725", map[string]interface{}{"balance": "1.00"})
	require.NoError(t, err)
	require.NoError(t, mr.Set("unrelated", "x"))

	stats := store.Stats(ctx)
	assert.Equal(t, "redis", stats["backend"])
	assert.Equal(t, 3, stats["size"])
	assert.Equal(t, 2, stats["pending"])
	assert.NotContains(t, stats, "error")

	assert.Equal(t, "healthy", store.Health()["status"])
}
