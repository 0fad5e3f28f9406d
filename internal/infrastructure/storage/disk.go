package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kirtipatel215/IMS-sub000/internal/domain/portal"
	"github.com/kirtipatel215/IMS-sub000/internal/infrastructure/observability/logging"
)

// DiskStore writes blobs under a media root served by the reverse proxy.
type DiskStore struct {
	root    string
	baseURL string
	logger  *logging.ChanneledLogger
}

// NewDiskStore creates a disk-backed blob store.
func NewDiskStore(root, baseURL string, logger *logging.ChanneledLogger) *DiskStore {
	return &DiskStore{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// Put writes data to root/folder/name. The exclusive-create flag is the
// collision check; an existing file is never overwritten.
func (s *DiskStore) Put(ctx context.Context, folder, name string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	targetDir := filepath.Join(s.root, folder)
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	fullPath := filepath.Join(targetDir, name)
	file, err := os.OpenFile(fullPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsExist(err) {
			return &portal.CollisionError{Name: name}
		}
		return fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(fullPath)
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(fullPath)
		return fmt.Errorf("failed to close file: %w", err)
	}

	s.logger.Storage().Info("Blob stored", "folder", folder, "name", name, "bytes", len(data))

	// Thumbnails are best effort; the original upload stands either way.
	if strings.HasPrefix(contentType, "image/") && contentType != "image/svg+xml" {
		if thumbs, err := s.generateThumbnails(fullPath, name); err != nil {
			s.logger.Storage().Warn("Thumbnail generation failed", "name", name, "error", err.Error())
		} else {
			s.logger.Storage().Debug("Thumbnails generated", "name", name, "count", len(thumbs))
		}
	}

	return nil
}

// PublicURL resolves the serving URL for a stored object, verifying the
// object actually exists on disk first.
func (s *DiskStore) PublicURL(folder, name string) (string, error) {
	fullPath := filepath.Join(s.root, folder, name)
	if _, err := os.Stat(fullPath); err != nil {
		return "", fmt.Errorf("stored object not resolvable: %w", err)
	}

	url := fmt.Sprintf("%s/%s/%s", s.baseURL, folder, name)
	return strings.ReplaceAll(url, "\\", "/"), nil
}
