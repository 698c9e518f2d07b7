package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gocloud.dev/blob"

	"github.com/gsPatrick/garimponos-sign/internal/errors"
)

// ArtifactStore persists captured signature images.
type ArtifactStore interface {
	// SaveSignature stores a signature image and returns its storage key.
	SaveSignature(ctx context.Context, documentID, signerID uuid.UUID, data []byte, contentType string) (string, error)
	// GetSignature retrieves a previously stored signature image.
	GetSignature(ctx context.Context, key string) ([]byte, error)
	// DeleteSignature removes a stored signature image.
	DeleteSignature(ctx context.Context, key string) error
}

// blobArtifactStore implements ArtifactStore on top of a gocloud blob bucket,
// so local disk, in-memory, and cloud object storage share one code path.
type blobArtifactStore struct {
	bucket *blob.Bucket
}

// SaveSignature stores the image under a key derived from document and signer.
// Re-capturing overwrites the previous image for the same signer.
func (b *blobArtifactStore) SaveSignature(
	ctx context.Context,
	documentID, signerID uuid.UUID,
	data []byte,
	contentType string,
) (string, error) {
	key := fmt.Sprintf("documents/%s/signers/%s/signature", documentID, signerID)

	opts := &blob.WriterOptions{ContentType: contentType}
	if err := b.bucket.WriteAll(ctx, key, data, opts); err != nil {
		return "", errors.Wrap(err, "failed to store signature artifact")
	}

	return key, nil
}

// GetSignature retrieves a stored signature image by key.
func (b *blobArtifactStore) GetSignature(ctx context.Context, key string) ([]byte, error) {
	data, err := b.bucket.ReadAll(ctx, key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read signature artifact")
	}
	return data, nil
}

// DeleteSignature removes a stored signature image by key.
func (b *blobArtifactStore) DeleteSignature(ctx context.Context, key string) error {
	if err := b.bucket.Delete(ctx, key); err != nil {
		return errors.Wrap(err, "failed to delete signature artifact")
	}
	return nil
}

// NewBlobArtifactStore creates an artifact store backed by the given bucket.
func NewBlobArtifactStore(bucket *blob.Bucket) ArtifactStore {
	return &blobArtifactStore{bucket: bucket}
}
