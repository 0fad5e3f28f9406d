package services

import (
	"context"
	"time"

	"github.com/kirtipatel215/IMS-sub000/internal/domain/portal"
	"github.com/kirtipatel215/IMS-sub000/internal/domain/user"
	"github.com/kirtipatel215/IMS-sub000/internal/infrastructure/caching"
	"github.com/kirtipatel215/IMS-sub000/internal/infrastructure/fallback"
	"github.com/kirtipatel215/IMS-sub000/internal/infrastructure/messaging"
	"github.com/kirtipatel215/IMS-sub000/internal/infrastructure/observability/logging"
	"github.com/kirtipatel215/IMS-sub000/internal/infrastructure/security"
)

// IssueCertificateInput describes a completion record to be issued.
type IssueCertificateInput struct {
	StudentID   string `json:"studentId"`
	RequestID   string `json:"requestId"`
	Title       string `json:"title"`
	CompanyName string `json:"companyName"`
	FileURL     string `json:"fileUrl"`
}

// CertificateService handles completion certificates.
type CertificateService struct {
	repo        portal.CertificateRepository // nil in degraded mode
	cache       *caching.Cache
	fallback    *fallback.Provider
	broadcaster *messaging.InvalidationBroadcaster
	logger      *logging.ChanneledLogger

	ttl          time.Duration
	queryTimeout time.Duration
}

// NewCertificateService wires the certificate read and write paths.
func NewCertificateService(repo portal.CertificateRepository, cache *caching.Cache, fb *fallback.Provider, broadcaster *messaging.InvalidationBroadcaster, logger *logging.ChanneledLogger, ttl, queryTimeout time.Duration) *CertificateService {
	return &CertificateService{
		repo:         repo,
		cache:        cache,
		fallback:     fb,
		broadcaster:  broadcaster,
		logger:       logger,
		ttl:          ttl,
		queryTimeout: queryTimeout,
	}
}

// ForStudent returns a student's certificates, newest first.
func (s *CertificateService) ForStudent(ctx context.Context, studentID string) portal.Result[[]*portal.Certificate] {
	if s.repo == nil {
		return portal.Fallback(s.fallback.Certificates(studentID), portal.ErrBackendAbsent)
	}

	key := caching.Key(caching.ResourceCertificates, studentID)
	certs, hit, err := caching.Fetch(ctx, s.cache, key, s.ttl,
		func(ctx context.Context) ([]*portal.Certificate, error) {
			ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
			defer cancel()
			return s.repo.FindByStudent(ctx, studentID)
		})
	if err != nil {
		s.logger.LogError(logging.ChannelFallback, "certificates", err,
			map[string]any{"studentId": studentID})
		return portal.Fallback(s.fallback.Certificates(studentID), &portal.DatabaseError{Op: "certificates", Err: err})
	}

	if hit {
		return portal.Cached(certs)
	}
	return portal.Live(certs)
}

// Issue creates a certificate for a student. Placement officers and admins
// only; the handler enforces the role, this enforces the shape.
func (s *CertificateService) Issue(ctx context.Context, actor *user.Principal, input IssueCertificateInput) (*portal.Certificate, error) {
	if input.StudentID == "" {
		return nil, &portal.ValidationError{Field: "studentId", Reason: "student is required"}
	}
	if input.Title == "" {
		return nil, &portal.ValidationError{Field: "title", Reason: "title is required"}
	}
	if input.CompanyName == "" {
		return nil, &portal.ValidationError{Field: "companyName", Reason: "company name is required"}
	}

	cert := &portal.Certificate{
		ID:          security.GenerateULID(),
		StudentID:   input.StudentID,
		RequestID:   input.RequestID,
		Title:       input.Title,
		CompanyName: input.CompanyName,
		FileURL:     input.FileURL,
		IssuedBy:    actor.ID,
		IssuedAt:    time.Now().UTC(),
	}

	if s.repo == nil {
		s.logger.Fallback().Info("Certificate issue simulated, store absent", "id", cert.ID)
		return cert, nil
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	if err := s.repo.Store(storeCtx, cert); err != nil {
		return nil, &portal.DatabaseError{Op: "issue certificate", Err: err}
	}

	s.cache.Invalidate(caching.Key(caching.ResourceCertificates, input.StudentID))
	// The issued-certificates counter sits on every dashboard.
	s.cache.InvalidatePrefix(caching.KeyPrefix(caching.ResourceDashboard))
	s.broadcaster.BroadcastInvalidation(caching.ResourceCertificates, input.StudentID)
	return cert, nil
}
