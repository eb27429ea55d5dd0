package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorage_PutGet(t *testing.T) {
	store := NewMemoryStorage()
	ctx := context.Background()

	data := []byte("workbook")
	require.NoError(t, store.Put(ctx, "user/lote/resultado.xlsx", data, "application/octet-stream"))

	// mutating the caller's slice must not change the stored object
	data[0] = 'W'

	got, err := store.Get(ctx, "user/lote/resultado.xlsx")
	require.NoError(t, err)
	assert.Equal(t, []byte("workbook"), got)
}

func TestMemoryStorage_GetMissing(t *testing.T) {
	store := NewMemoryStorage()

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStorage_Health(t *testing.T) {
	store := NewMemoryStorage()
	require.NoError(t, store.Put(context.Background(), "a", []byte("1"), ""))

	health := store.Health(context.Background())
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, 1, health["objects"])
}
