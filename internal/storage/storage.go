package storage

import (
	"context"
	"io"
)

// Blob is an opened archived payload. Callers must Close it.
type Blob struct {
	rc   io.ReadCloser
	size int64
}

func NewBlob(rc io.ReadCloser, size int64) *Blob {
	return &Blob{rc: rc, size: size}
}

func (b *Blob) Read(p []byte) (int, error) { return b.rc.Read(p) }
func (b *Blob) Close() error               { return b.rc.Close() }
func (b *Blob) Size() int64                { return b.size }

// BlobStorage archives raw upload bytes content-addressed by sha256.
// The database copy of a file stays canonical; the archive is a recovery
// belt, so both local-disk and S3-compatible backends implement this.
type BlobStorage interface {
	// Put writes data from r, returning the sha256 digest, byte count, and
	// a backend key for later retrieval.
	Put(ctx context.Context, r io.Reader) (digest string, size int64, key string, err error)

	// Open retrieves a previously archived blob by its key.
	Open(ctx context.Context, key string) (*Blob, error)
}
