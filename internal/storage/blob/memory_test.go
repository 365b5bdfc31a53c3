package blob_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courtbridge/internal/storage/blob"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemoryStore()

	t.Run("round trips an object", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "uploads/case-1/doc.pdf", []byte("%PDF-1.4")))

		content, err := store.Get(ctx, "uploads/case-1/doc.pdf")
		require.NoError(t, err)
		assert.Equal(t, []byte("%PDF-1.4"), content)
	})

	t.Run("returned content is a copy", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "k", []byte("abc")))

		first, err := store.Get(ctx, "k")
		require.NoError(t, err)
		first[0] = 'x'

		second, err := store.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("abc"), second)
	})

	t.Run("missing key errors", func(t *testing.T) {
		_, err := store.Get(ctx, "missing")
		assert.Error(t, err)
	})

	t.Run("delete removes the object", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "gone", []byte("x")))
		require.NoError(t, store.Delete(ctx, "gone"))

		_, err := store.Get(ctx, "gone")
		assert.Error(t, err)
	})
}
