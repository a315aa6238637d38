package domain

import (
	"context"
	"io"
)

// BlobWriter uploads objects to blob storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}

// Archiver exports settled markets to long-term storage.
type Archiver interface {
	ArchiveSettled(ctx context.Context) (int, error)
}
