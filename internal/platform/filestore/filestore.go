// Package filestore persists uploaded attachment bytes on the local
// filesystem, implementing the store.FileStore interface.
//
// Each upload is written under a collision-resistant UUID key plus the
// original file extension, so distinct uploads of the same file name never
// overwrite each other. The bytes are written before any relational row
// referencing them is committed; that ordering is owned by the service layer.
package filestore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/jcarver/taskhive/internal/platform/logger"
	"github.com/jcarver/taskhive/internal/store"
)

// dirPerm is the mode for created upload directories.
const dirPerm = 0o755

// LocalFileStore implements store.FileStore over a local directory root.
type LocalFileStore struct {
	root   string
	logger *slog.Logger
}

// NewLocalFileStore creates a file store rooted at root.
// If logger is nil, a default logger will be used.
func NewLocalFileStore(root string, logger *slog.Logger) *LocalFileStore {
	if root == "" {
		panic("root cannot be empty")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &LocalFileStore{
		root:   root,
		logger: logger.With(slog.String("component", "file_store")),
	}
}

// Ensure LocalFileStore implements store.FileStore interface
var _ store.FileStore = (*LocalFileStore)(nil)

// Save implements store.FileStore.Save
// It writes the full content stream under a fresh UUID-based key and returns
// the descriptor. Zero-length content is silently skipped: nothing is stored
// and (nil, nil) is returned.
func (s *LocalFileStore) Save(
	ctx context.Context,
	fileName, contentType string,
	content io.Reader,
) (*store.FileDescriptor, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	data, err := io.ReadAll(content)
	if err != nil {
		log.Error("failed to read upload content",
			slog.String("error", err.Error()),
			slog.String("file_name", fileName))
		return nil, fmt.Errorf("failed to read upload content: %w", err)
	}

	if len(data) == 0 {
		log.Debug("skipping zero-length upload",
			slog.String("file_name", fileName))
		return nil, nil
	}

	if err := os.MkdirAll(s.root, dirPerm); err != nil {
		log.Error("failed to create upload directory",
			slog.String("error", err.Error()),
			slog.String("dir", s.root))
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	key := uuid.New().String() + filepath.Ext(fileName)
	path := filepath.Join(s.root, key)

	// A fresh UUID per upload makes a path collision negligible; the write
	// replaces whatever would be at that exact path.
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Error("failed to write upload",
			slog.String("error", err.Error()),
			slog.String("path", path))
		return nil, fmt.Errorf("failed to write upload: %w", err)
	}

	log.Info("attachment stored",
		slog.String("file_name", fileName),
		slog.String("path", path),
		slog.Int("bytes", len(data)))

	return &store.FileDescriptor{
		FileName:    fileName,
		FilePath:    path,
		ContentType: contentType,
	}, nil
}

// Remove implements store.FileStore.Remove
// Removing an absent file is not an error.
func (s *LocalFileStore) Remove(ctx context.Context, filePath string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := os.Remove(filePath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		log.Error("failed to remove stored file",
			slog.String("error", err.Error()),
			slog.String("path", filePath))
		return fmt.Errorf("failed to remove stored file: %w", err)
	}

	log.Debug("stored file removed", slog.String("path", filePath))
	return nil
}
