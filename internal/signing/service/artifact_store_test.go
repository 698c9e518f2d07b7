package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob/memblob"
)

func TestBlobArtifactStore(t *testing.T) {
	ctx := context.Background()
	bucket := memblob.OpenBucket(nil)
	defer bucket.Close()

	store := NewBlobArtifactStore(bucket)

	documentID := uuid.Must(uuid.NewV7())
	signerID := uuid.Must(uuid.NewV7())
	image := []byte("png-bytes")

	t.Run("save and read back", func(t *testing.T) {
		key, err := store.SaveSignature(ctx, documentID, signerID, image, "image/png")
		require.NoError(t, err)
		assert.Contains(t, key, documentID.String())
		assert.Contains(t, key, signerID.String())

		data, err := store.GetSignature(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, image, data)
	})

	t.Run("re-capture overwrites", func(t *testing.T) {
		first, err := store.SaveSignature(ctx, documentID, signerID, []byte("first"), "image/png")
		require.NoError(t, err)

		second, err := store.SaveSignature(ctx, documentID, signerID, []byte("second"), "image/png")
		require.NoError(t, err)
		assert.Equal(t, first, second, "same signer keeps a single artifact key")

		data, err := store.GetSignature(ctx, second)
		require.NoError(t, err)
		assert.Equal(t, []byte("second"), data)
	})

	t.Run("delete", func(t *testing.T) {
		key, err := store.SaveSignature(ctx, documentID, signerID, image, "image/png")
		require.NoError(t, err)

		require.NoError(t, store.DeleteSignature(ctx, key))

		_, err = store.GetSignature(ctx, key)
		assert.Error(t, err)
	})
}
