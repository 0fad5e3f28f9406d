// Package storage provides the blob store behind the upload pipeline.
package storage

import "context"

// BlobStore persists uploaded files and resolves their public URLs.
type BlobStore interface {
	// Put writes data under folder/name. A *portal.CollisionError is returned
	// when the name is already taken; the caller decides whether to retry.
	Put(ctx context.Context, folder, name string, data []byte, contentType string) error

	// PublicURL resolves the durable URL for a stored object. Resolution
	// failure after a successful write is still an upload failure.
	PublicURL(folder, name string) (string, error)
}
