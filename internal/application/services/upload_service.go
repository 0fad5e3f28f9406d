package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/kirtipatel215/IMS-sub000/internal/domain/portal"
	"github.com/kirtipatel215/IMS-sub000/internal/infrastructure/observability/logging"
	"github.com/kirtipatel215/IMS-sub000/internal/infrastructure/security"
	"github.com/kirtipatel215/IMS-sub000/internal/infrastructure/storage"
)

// UploadRequest is one file heading for the blob store.
type UploadRequest struct {
	FileName    string
	Folder      string
	Data        []byte
	ContentType string // sniffed from the payload when empty
}

// UploadResult reports the stored name and its durable public URL.
type UploadResult struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// UploadConfig carries the validation and latency budgets.
type UploadConfig struct {
	MinSizeBytes int
	MaxSizeBytes int
	AllowedTypes []string
	Timeout      time.Duration
	RetryTimeout time.Duration
}

// UploadService runs the upload pipeline: local validation, a store write
// raced against a timeout, exactly one retry on a name collision, and public
// URL resolution. Every call ends in exactly one terminal outcome.
type UploadService struct {
	store  storage.BlobStore
	logger *logging.ChanneledLogger

	minSize      int
	maxSize      int
	allowedTypes map[string]bool
	timeout      time.Duration
	retryTimeout time.Duration

	now func() time.Time
}

// NewUploadService wires the upload pipeline.
func NewUploadService(store storage.BlobStore, logger *logging.ChanneledLogger, cfg UploadConfig) *UploadService {
	allowed := make(map[string]bool, len(cfg.AllowedTypes))
	for _, t := range cfg.AllowedTypes {
		allowed[strings.ToLower(t)] = true
	}
	return &UploadService{
		store:        store,
		logger:       logger,
		minSize:      cfg.MinSizeBytes,
		maxSize:      cfg.MaxSizeBytes,
		allowedTypes: allowed,
		timeout:      cfg.Timeout,
		retryTimeout: cfg.RetryTimeout,
		now:          time.Now,
	}
}

// Upload pushes one file through the pipeline.
func (s *UploadService) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	contentType, err := s.validate(req)
	if err != nil {
		return nil, err
	}

	name := s.deriveName(req.FileName)
	start := s.now()

	err = s.putWithTimeout(ctx, req.Folder, name, req.Data, contentType, s.timeout)

	var collision *portal.CollisionError
	if errors.As(err, &collision) {
		// One retry under a randomized name and a tighter budget. A second
		// collision is terminal.
		retryName := s.collisionName(req.FileName)
		s.logger.Storage().Warn("Upload name collision, retrying",
			"name", name, "retryName", retryName)
		name = retryName
		err = s.putWithTimeout(ctx, req.Folder, name, req.Data, contentType, s.retryTimeout)
	}
	if err != nil {
		s.logger.LogError(logging.ChannelStorage, "upload", err,
			map[string]any{"name": name, "bytes": len(req.Data)})
		return nil, err
	}

	url, err := s.store.PublicURL(req.Folder, name)
	if err != nil {
		// The bytes landed but nothing can reach them; that is a failed
		// upload, not a success with a caveat.
		s.logger.LogError(logging.ChannelStorage, "resolve-url", err, map[string]any{"name": name})
		return nil, &portal.NetworkError{Op: "resolve upload URL", Err: err}
	}

	s.logger.Storage().Info("Upload completed",
		"name", name, "bytes", len(req.Data), "duration", time.Since(start))
	return &UploadResult{Name: name, URL: url}, nil
}

// validate runs every local check before any store activity. It returns the
// effective content type on success.
func (s *UploadService) validate(req UploadRequest) (string, error) {
	if len(req.Data) == 0 {
		return "", &portal.ValidationError{Field: "file", Reason: "no file supplied"}
	}
	if len(req.Data) < s.minSize {
		return "", &portal.ValidationError{Field: "file",
			Reason: fmt.Sprintf("file is smaller than the %d byte minimum", s.minSize)}
	}
	if len(req.Data) > s.maxSize {
		return "", &portal.ValidationError{Field: "file",
			Reason: fmt.Sprintf("file exceeds the %d byte limit", s.maxSize)}
	}
	if req.Folder == "" || strings.Contains(req.Folder, "..") {
		return "", &portal.ValidationError{Field: "folder", Reason: "invalid target folder"}
	}

	contentType := strings.ToLower(strings.TrimSpace(req.ContentType))
	if contentType == "" {
		contentType = http.DetectContentType(req.Data)
		if i := strings.Index(contentType, ";"); i >= 0 {
			contentType = contentType[:i]
		}
	}
	if !s.allowedTypes[contentType] {
		return "", &portal.ValidationError{Field: "file",
			Reason: fmt.Sprintf("content type %s is not accepted", contentType)}
	}

	return contentType, nil
}

// putWithTimeout races the store write against the budget. A late result is
// drained by the buffered channel and ignored; it is never double-applied.
func (s *UploadService) putWithTimeout(ctx context.Context, folder, name string, data []byte, contentType string, budget time.Duration) error {
	done := make(chan error, 1)
	go func() {
		done <- s.store.Put(ctx, folder, name, data, contentType)
	}()

	timer := time.NewTimer(budget)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return &portal.TimeoutError{Op: "upload", Budget: budget.String()}
	case <-ctx.Done():
		return ctx.Err()
	}
}

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// deriveName builds "<unix-millis>-<sanitized original>".
func (s *UploadService) deriveName(original string) string {
	return fmt.Sprintf("%d-%s", s.now().UnixMilli(), sanitizeFileName(original))
}

// collisionName appends a ULID so the retry cannot hit the same slot.
func (s *UploadService) collisionName(original string) string {
	return fmt.Sprintf("%d-%s-%s", s.now().UnixMilli(),
		strings.ToLower(security.GenerateULID()), sanitizeFileName(original))
}

func sanitizeFileName(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "." || base == string(filepath.Separator) || base == "" {
		base = "upload"
	}
	cleaned := unsafeNameChars.ReplaceAllString(base, "-")
	cleaned = strings.Trim(cleaned, "-.")
	if cleaned == "" {
		cleaned = "upload"
	}
	return cleaned
}
