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

// Opportunities are one shared board, so their cache entries live under a
// single pseudo-actor rather than per-user keys.
const opportunityScope = "board"

// PostOpportunityInput is a new listing from the placement cell.
type PostOpportunityInput struct {
	CompanyName   string    `json:"companyName"`
	RoleTitle     string    `json:"roleTitle"`
	Description   string    `json:"description"`
	Location      string    `json:"location"`
	StipendMin    int       `json:"stipendMin"`
	StipendMax    int       `json:"stipendMax"`
	Deadline      time.Time `json:"deadline"`
	EligibleDepts []string  `json:"eligibleDepts"`
}

// OpportunityService handles the internship listings board.
type OpportunityService struct {
	repo        portal.OpportunityRepository // nil in degraded mode
	cache       *caching.Cache
	fallback    *fallback.Provider
	broadcaster *messaging.InvalidationBroadcaster
	logger      *logging.ChanneledLogger

	ttl          time.Duration
	queryTimeout time.Duration
}

// NewOpportunityService wires the listings read and write paths.
func NewOpportunityService(repo portal.OpportunityRepository, cache *caching.Cache, fb *fallback.Provider, broadcaster *messaging.InvalidationBroadcaster, logger *logging.ChanneledLogger, ttl, queryTimeout time.Duration) *OpportunityService {
	return &OpportunityService{
		repo:         repo,
		cache:        cache,
		fallback:     fb,
		broadcaster:  broadcaster,
		logger:       logger,
		ttl:          ttl,
		queryTimeout: queryTimeout,
	}
}

// Active returns the open listings, nearest deadline first.
func (s *OpportunityService) Active(ctx context.Context) portal.Result[[]*portal.Opportunity] {
	if s.repo == nil {
		return portal.Fallback(s.fallback.Opportunities(), portal.ErrBackendAbsent)
	}

	key := caching.Key(caching.ResourceOpportunities, opportunityScope)
	opps, hit, err := caching.Fetch(ctx, s.cache, key, s.ttl,
		func(ctx context.Context) ([]*portal.Opportunity, error) {
			ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
			defer cancel()
			return s.repo.FindActive(ctx)
		})
	if err != nil {
		s.logger.LogError(logging.ChannelFallback, "opportunities", err, nil)
		return portal.Fallback(s.fallback.Opportunities(), &portal.DatabaseError{Op: "opportunities", Err: err})
	}

	if hit {
		return portal.Cached(opps)
	}
	return portal.Live(opps)
}

// Post publishes a new listing.
func (s *OpportunityService) Post(ctx context.Context, actor *user.Principal, input PostOpportunityInput) (*portal.Opportunity, error) {
	if input.CompanyName == "" {
		return nil, &portal.ValidationError{Field: "companyName", Reason: "company name is required"}
	}
	if input.RoleTitle == "" {
		return nil, &portal.ValidationError{Field: "roleTitle", Reason: "role title is required"}
	}
	if input.Deadline.Before(time.Now()) {
		return nil, &portal.ValidationError{Field: "deadline", Reason: "deadline is in the past"}
	}
	if input.StipendMax > 0 && input.StipendMax < input.StipendMin {
		return nil, &portal.ValidationError{Field: "stipendMax", Reason: "stipend range is inverted"}
	}

	opp := &portal.Opportunity{
		ID:            security.GenerateULID(),
		PostedBy:      actor.ID,
		CompanyName:   input.CompanyName,
		RoleTitle:     input.RoleTitle,
		Description:   input.Description,
		Location:      input.Location,
		StipendMin:    input.StipendMin,
		StipendMax:    input.StipendMax,
		Deadline:      input.Deadline.UTC(),
		EligibleDepts: input.EligibleDepts,
		Active:        true,
		CreatedAt:     time.Now().UTC(),
	}

	if s.repo == nil {
		s.logger.Fallback().Info("Opportunity post simulated, store absent", "id", opp.ID)
		return opp, nil
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	if err := s.repo.Store(storeCtx, opp); err != nil {
		return nil, &portal.DatabaseError{Op: "post opportunity", Err: err}
	}

	s.invalidateBoard()
	return opp, nil
}

// Close deactivates a listing.
func (s *OpportunityService) Close(ctx context.Context, actor *user.Principal, id string) error {
	if s.repo == nil {
		s.logger.Fallback().Info("Opportunity close simulated, store absent", "id", id)
		return nil
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	opp, err := s.repo.FindByID(storeCtx, id)
	if err != nil {
		return &portal.DatabaseError{Op: "close lookup", Err: err}
	}
	if opp == nil {
		return &portal.ValidationError{Field: "id", Reason: "opportunity not found"}
	}
	if opp.PostedBy != actor.ID && !actor.HasRole(user.RoleAdmin) {
		return &portal.AuthError{Reason: "listing was posted by someone else"}
	}

	if err := s.repo.Deactivate(storeCtx, id); err != nil {
		return &portal.DatabaseError{Op: "close opportunity", Err: err}
	}

	s.invalidateBoard()
	return nil
}

func (s *OpportunityService) invalidateBoard() {
	s.cache.Invalidate(caching.Key(caching.ResourceOpportunities, opportunityScope))
	// The open-listings counter sits on every dashboard.
	s.cache.InvalidatePrefix(caching.KeyPrefix(caching.ResourceDashboard))
	s.broadcaster.BroadcastInvalidation(caching.ResourceOpportunities, opportunityScope)
}
