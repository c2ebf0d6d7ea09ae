package store

import (
	"context"
	"io"
)

// FileDescriptor is the stable reference returned by a FileStore after the
// bytes of an upload have been durably written.
type FileDescriptor struct {
	// FileName is the original file name as uploaded.
	FileName string

	// FilePath is the storage path/key of the written bytes.
	FilePath string

	// ContentType is the declared content type of the upload.
	ContentType string
}

// FileStore persists uploaded attachment bytes to durable storage.
//
// This is intentionally separate from TaskStore: relational attachment rows
// and their backing byte blobs live in different storage systems, and the
// ordering between the two (bytes first, rows second) is owned by the
// service layer.
type FileStore interface {
	// Save writes the full content stream to a freshly generated storage key
	// and returns its descriptor. Zero-length content is silently skipped:
	// Save returns (nil, nil) and nothing is stored. A write failure is
	// returned as an error and must abort the enclosing operation.
	Save(ctx context.Context, fileName, contentType string, content io.Reader) (*FileDescriptor, error)

	// Remove deletes the stored bytes at filePath. Removing an absent file is
	// not an error.
	Remove(ctx context.Context, filePath string) error
}
