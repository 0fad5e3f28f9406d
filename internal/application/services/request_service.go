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

// SubmitRequestInput is a student's new internship application.
type SubmitRequestInput struct {
	MentorID       string `json:"mentorId"`
	CompanyName    string `json:"companyName"`
	RoleTitle      string `json:"roleTitle"`
	Stipend        int    `json:"stipend"`
	DurationWeeks  int    `json:"durationWeeks"`
	OfferLetterURL string `json:"offerLetterUrl"`
}

// RequestService handles internship requests. Reads degrade to the fallback
// dataset; writes either persist and invalidate, or simulate success when the
// store is absent.
type RequestService struct {
	repo        portal.RequestRepository // nil in degraded mode
	cache       *caching.Cache
	fallback    *fallback.Provider
	broadcaster *messaging.InvalidationBroadcaster
	logger      *logging.ChanneledLogger

	ttl          time.Duration
	queryTimeout time.Duration
}

// NewRequestService wires the request read and write paths.
func NewRequestService(repo portal.RequestRepository, cache *caching.Cache, fb *fallback.Provider, broadcaster *messaging.InvalidationBroadcaster, logger *logging.ChanneledLogger, ttl, queryTimeout time.Duration) *RequestService {
	return &RequestService{
		repo:         repo,
		cache:        cache,
		fallback:     fb,
		broadcaster:  broadcaster,
		logger:       logger,
		ttl:          ttl,
		queryTimeout: queryTimeout,
	}
}

// ForStudent returns a student's requests, newest first.
func (s *RequestService) ForStudent(ctx context.Context, studentID string) portal.Result[[]*portal.InternshipRequest] {
	if s.repo == nil {
		return portal.Fallback(s.fallback.Requests(studentID), portal.ErrBackendAbsent)
	}

	key := caching.Key(caching.ResourceRequests, studentID)
	requests, hit, err := caching.Fetch(ctx, s.cache, key, s.ttl,
		func(ctx context.Context) ([]*portal.InternshipRequest, error) {
			ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
			defer cancel()
			return s.repo.FindByStudent(ctx, studentID)
		})
	if err != nil {
		s.logger.LogError(logging.ChannelFallback, "requests for student", err,
			map[string]any{"studentId": studentID})
		return portal.Fallback(s.fallback.Requests(studentID), &portal.DatabaseError{Op: "requests", Err: err})
	}

	if hit {
		return portal.Cached(requests)
	}
	return portal.Live(requests)
}

// PendingForMentor returns a mentor's review queue. An empty live queue is a
// real answer; only store failures degrade.
func (s *RequestService) PendingForMentor(ctx context.Context, mentorID string) portal.Result[[]*portal.InternshipRequest] {
	if s.repo == nil {
		return portal.Fallback(s.fallback.PendingReviews(mentorID), portal.ErrBackendAbsent)
	}

	key := caching.Key(caching.ResourceRequests, "mentor:"+mentorID)
	requests, hit, err := caching.Fetch(ctx, s.cache, key, s.ttl,
		func(ctx context.Context) ([]*portal.InternshipRequest, error) {
			ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
			defer cancel()
			return s.repo.FindPendingForMentor(ctx, mentorID)
		})
	if err != nil {
		s.logger.LogError(logging.ChannelFallback, "pending requests", err,
			map[string]any{"mentorId": mentorID})
		return portal.Fallback(s.fallback.PendingReviews(mentorID), &portal.DatabaseError{Op: "pending requests", Err: err})
	}

	if hit {
		return portal.Cached(requests)
	}
	return portal.Live(requests)
}

// Submit files a new request for the student. With the store absent the
// write is simulated: the echo carries a generated ID and nothing persists.
func (s *RequestService) Submit(ctx context.Context, actor *user.Principal, input SubmitRequestInput) (*portal.InternshipRequest, error) {
	if input.CompanyName == "" {
		return nil, &portal.ValidationError{Field: "companyName", Reason: "company name is required"}
	}
	if input.RoleTitle == "" {
		return nil, &portal.ValidationError{Field: "roleTitle", Reason: "role title is required"}
	}
	if input.DurationWeeks <= 0 {
		return nil, &portal.ValidationError{Field: "durationWeeks", Reason: "duration must be positive"}
	}

	now := time.Now().UTC()
	req := &portal.InternshipRequest{
		ID:             security.GenerateULID(),
		StudentID:      actor.ID,
		MentorID:       input.MentorID,
		CompanyName:    input.CompanyName,
		RoleTitle:      input.RoleTitle,
		Stipend:        input.Stipend,
		DurationWeeks:  input.DurationWeeks,
		OfferLetterURL: input.OfferLetterURL,
		Status:         portal.RequestPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if s.repo == nil {
		s.logger.Fallback().Info("Request submission simulated, store absent", "id", req.ID)
		return req, nil
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	if err := s.repo.Store(storeCtx, req); err != nil {
		return nil, &portal.DatabaseError{Op: "submit request", Err: err}
	}

	s.invalidateFor(actor.ID, input.MentorID)
	return req, nil
}

// Withdraw pulls a pending request back. Only the owning student may do it.
func (s *RequestService) Withdraw(ctx context.Context, actor *user.Principal, requestID string) error {
	if s.repo == nil {
		s.logger.Fallback().Info("Request withdrawal simulated, store absent", "id", requestID)
		return nil
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	req, err := s.repo.FindByID(storeCtx, requestID)
	if err != nil {
		return &portal.DatabaseError{Op: "withdraw lookup", Err: err}
	}
	if req == nil {
		return &portal.ValidationError{Field: "requestId", Reason: "request not found"}
	}
	if req.StudentID != actor.ID && !actor.HasRole(user.RoleAdmin) {
		return &portal.AuthError{Reason: "request belongs to another student"}
	}
	if req.Status != portal.RequestPending {
		return &portal.ValidationError{Field: "status", Reason: "only pending requests can be withdrawn"}
	}

	if err := s.repo.UpdateStatus(storeCtx, requestID, portal.RequestWithdrawn, ""); err != nil {
		return &portal.DatabaseError{Op: "withdraw", Err: err}
	}

	s.invalidateFor(req.StudentID, req.MentorID)
	return nil
}

// Review lets a mentor approve or reject a pending request.
func (s *RequestService) Review(ctx context.Context, actor *user.Principal, requestID string, approve bool, note string) error {
	if s.repo == nil {
		s.logger.Fallback().Info("Request review simulated, store absent", "id", requestID)
		return nil
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	req, err := s.repo.FindByID(storeCtx, requestID)
	if err != nil {
		return &portal.DatabaseError{Op: "review lookup", Err: err}
	}
	if req == nil {
		return &portal.ValidationError{Field: "requestId", Reason: "request not found"}
	}
	if req.MentorID != actor.ID && !actor.HasRole(user.RoleAdmin) {
		return &portal.AuthError{Reason: "request is assigned to another mentor"}
	}
	if req.Status != portal.RequestPending {
		return &portal.ValidationError{Field: "status", Reason: "request is no longer pending"}
	}

	status := portal.RequestRejected
	if approve {
		status = portal.RequestApproved
	}
	if err := s.repo.UpdateStatus(storeCtx, requestID, status, note); err != nil {
		return &portal.DatabaseError{Op: "review", Err: err}
	}

	s.invalidateFor(req.StudentID, req.MentorID)
	return nil
}

// invalidateFor evicts every cached view a request write can stale and
// pushes hints so open dashboards refetch.
func (s *RequestService) invalidateFor(studentID, mentorID string) {
	s.cache.Invalidate(caching.Key(caching.ResourceRequests, studentID))
	// Aggregate counters change for every viewer, not just the actor.
	s.cache.InvalidatePrefix(caching.KeyPrefix(caching.ResourceDashboard))
	s.broadcaster.BroadcastInvalidation(caching.ResourceRequests, studentID)

	if mentorID != "" {
		s.cache.Invalidate(caching.Key(caching.ResourceRequests, "mentor:"+mentorID))
		s.broadcaster.BroadcastInvalidation(caching.ResourceRequests, mentorID)
	}
}
