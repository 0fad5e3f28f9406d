// Package services provides application-level orchestration services:
// session resolution, cached reads with fallback, writes with invalidation,
// and the upload pipeline.
package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/kirtipatel215/IMS-sub000/internal/domain/portal"
	"github.com/kirtipatel215/IMS-sub000/internal/domain/user"
	"github.com/kirtipatel215/IMS-sub000/internal/infrastructure/caching"
	"github.com/kirtipatel215/IMS-sub000/internal/infrastructure/email"
	"github.com/kirtipatel215/IMS-sub000/internal/infrastructure/observability/logging"
	"github.com/kirtipatel215/IMS-sub000/internal/infrastructure/security"
)

// Auth events forwarded from the identity provider.
const (
	AuthEventSignedIn       = "signed-in"
	AuthEventSignedOut      = "signed-out"
	AuthEventTokenRefreshed = "token-refreshed"
	AuthEventInitialSession = "initial-session"
)

// SessionService resolves bearer tokens into portal principals. Resolution
// is cached and coalesced: a burst of concurrent calls costs one store
// round-trip. Read-path resolution never returns an error; a principal that
// cannot be established for any reason is simply anonymous (nil).
type SessionService struct {
	users  user.Repository // nil in degraded mode
	policy *user.Policy
	mailer email.Service
	logger *logging.ChanneledLogger

	// sessions is dedicated to principals; business data lives in dataCache.
	// Sign-out clears both.
	sessions  *caching.Cache
	dataCache *caching.Cache

	jwtSecret         string
	sessionTTL        time.Duration
	queryTimeout      time.Duration
	adminEmail        string
	adminPasswordHash string

	mu          sync.Mutex
	lastSubject string
}

// SessionConfig carries the knobs for NewSessionService.
type SessionConfig struct {
	JWTSecret         string
	SessionTTL        time.Duration
	QueryTimeout      time.Duration
	AdminEmail        string
	AdminPasswordHash string
}

// NewSessionService wires the session resolver. users may be nil when the
// backing store is absent; principals are then derived from the email policy
// alone and never persisted.
func NewSessionService(
	users user.Repository,
	policy *user.Policy,
	sessions, dataCache *caching.Cache,
	mailer email.Service,
	logger *logging.ChanneledLogger,
	cfg SessionConfig,
) *SessionService {
	return &SessionService{
		users:             users,
		policy:            policy,
		sessions:          sessions,
		dataCache:         dataCache,
		mailer:            mailer,
		logger:            logger,
		jwtSecret:         cfg.JWTSecret,
		sessionTTL:        cfg.SessionTTL,
		queryTimeout:      cfg.QueryTimeout,
		adminEmail:        cfg.AdminEmail,
		adminPasswordHash: cfg.AdminPasswordHash,
	}
}

// Resolve turns a bearer token into the current principal. It never returns
// an error: no token, a bad token, a missing or unprovisionable profile, a
// deactivated account, and a store failure all resolve to nil.
func (s *SessionService) Resolve(ctx context.Context, token string) *user.Principal {
	if token == "" {
		return nil
	}

	claims, err := security.VerifyIdentityToken(token, s.jwtSecret)
	if err != nil {
		s.logger.Auth().Debug("Token rejected", "error", err.Error())
		return nil
	}

	key := caching.Key(caching.ResourceSession, claims.Subject)
	principal, _, err := caching.Fetch(ctx, s.sessions, key, s.sessionTTL,
		func(ctx context.Context) (*user.Principal, error) {
			return s.resolvePrincipal(ctx, claims)
		})
	if err != nil {
		s.logger.LogAuthOperation("resolve", claims.Subject, false,
			map[string]any{"error": err.Error()})
		return nil
	}

	return principal
}

// resolvePrincipal loads or lazily provisions the profile behind a verified
// token. A (nil, nil) return is a stable anonymous outcome and gets cached;
// errors are transient and do not.
func (s *SessionService) resolvePrincipal(ctx context.Context, claims *security.IdentityClaims) (*user.Principal, error) {
	if s.users == nil {
		// Degraded mode: derive an ephemeral principal from the address.
		principal, err := s.policy.Provision(claims.Subject, claims.Email, claims.Name)
		if err != nil {
			s.logger.Auth().Debug("Ephemeral provisioning refused", "error", err.Error())
			return nil, nil
		}
		s.logger.Fallback().Info("Ephemeral principal resolved, store absent",
			"subject", claims.Subject, "role", string(principal.Role))
		return principal, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	principal, err := s.users.FindByID(ctx, claims.Subject)
	if err != nil {
		return nil, &portal.DatabaseError{Op: "session lookup", Err: err}
	}

	if principal == nil {
		principal, err = s.provision(ctx, claims)
		if err != nil {
			return nil, err
		}
		if principal == nil {
			return nil, nil
		}
	} else {
		if err := s.users.TouchLastLogin(ctx, principal.ID); err != nil {
			s.logger.Auth().Warn("Last-login stamp failed", "id", principal.ID, "error", err.Error())
		}
	}

	if !principal.IsActive {
		s.logger.LogAuthOperation("resolve", principal.ID, false,
			map[string]any{"reason": "inactive account"})
		return nil, nil
	}

	s.logger.LogAuthOperation("resolve", principal.ID, true,
		map[string]any{"role": string(principal.Role)})
	return principal, nil
}

// provision creates the profile on first login. Two concurrent first logins
// race on the unique constraint; the loser re-fetches the winner's row.
func (s *SessionService) provision(ctx context.Context, claims *security.IdentityClaims) (*user.Principal, error) {
	principal, err := s.policy.Provision(claims.Subject, claims.Email, claims.Name)
	if err != nil {
		s.logger.Auth().Info("Profile cannot be provisioned", "subject", claims.Subject, "error", err.Error())
		return nil, nil
	}

	if err := s.users.Store(ctx, principal); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			s.logger.Auth().Debug("Concurrent provisioning detected, re-fetching", "subject", claims.Subject)
			existing, ferr := s.users.FindByID(ctx, claims.Subject)
			if ferr != nil {
				return nil, &portal.DatabaseError{Op: "provision re-fetch", Err: ferr}
			}
			if existing == nil {
				return nil, &portal.ProfileMissingError{Subject: claims.Subject}
			}
			return existing, nil
		}
		return nil, &portal.DatabaseError{Op: "provision", Err: err}
	}

	s.logger.LogAuthOperation("provision", principal.ID, true,
		map[string]any{"role": string(principal.Role)})

	go func(p user.Principal) {
		if err := s.mailer.SendWelcome(&p); err != nil {
			s.logger.Email().Warn("Welcome mail not delivered", "to", p.Email)
		}
	}(*principal)

	return principal, nil
}

// UpdateProfileInput carries the mutable profile fields. Email, role, and
// the roll or employee number are fixed by the provisioning policy.
type UpdateProfileInput struct {
	Name       string `json:"name"`
	Department string `json:"department"`
	AvatarURL  string `json:"avatarUrl"`
}

// UpdateProfile persists the actor's mutable profile fields and evicts the
// cached session so the next resolve sees the new values. With the store
// absent the change applies to the returned copy only and nothing persists.
func (s *SessionService) UpdateProfile(ctx context.Context, actor *user.Principal, input UpdateProfileInput) (*user.Principal, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, &portal.ValidationError{Field: "name", Reason: "name is required"}
	}

	updated := *actor
	updated.Name = strings.TrimSpace(input.Name)
	updated.Department = input.Department
	updated.AvatarURL = input.AvatarURL

	if s.users == nil {
		s.logger.Fallback().Info("Profile update simulated, store absent", "id", actor.ID)
		return &updated, nil
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	if err := s.users.UpdateProfile(storeCtx, &updated); err != nil {
		return nil, &portal.DatabaseError{Op: "update profile", Err: err}
	}

	s.sessions.Invalidate(caching.Key(caching.ResourceSession, actor.ID))
	s.dataCache.Invalidate(caching.Key(caching.ResourceDashboard, actor.ID))
	s.logger.LogAuthOperation("update-profile", actor.ID, true, nil)
	return &updated, nil
}

// RequireRole is the throwing guard for protected operations. It returns the
// principal when the session holds any of the given roles, and a typed
// AuthError otherwise.
func (s *SessionService) RequireRole(ctx context.Context, token string, roles ...user.Role) (*user.Principal, error) {
	principal := s.Resolve(ctx, token)
	if principal == nil {
		return nil, &portal.AuthError{Reason: "no active session"}
	}
	if len(roles) > 0 && !principal.HasRole(roles...) {
		s.logger.LogAuthOperation("authorize", principal.ID, false,
			map[string]any{"required": roles, "held": string(principal.Role)})
		return nil, &portal.AuthError{Reason: "insufficient role"}
	}
	return principal, nil
}

// HandleAuthEvent reacts to identity-provider notifications. Redundant
// events for the already-resolved subject are suppressed; a subject change
// or sign-out clears both the session and business caches.
func (s *SessionService) HandleAuthEvent(ctx context.Context, event, token string) {
	switch event {
	case AuthEventSignedOut:
		s.mu.Lock()
		s.lastSubject = ""
		s.mu.Unlock()
		s.sessions.InvalidateAll()
		s.dataCache.InvalidateAll()
		s.logger.Auth().Info("Signed out, caches cleared")

	case AuthEventSignedIn, AuthEventInitialSession, AuthEventTokenRefreshed:
		claims, err := security.VerifyIdentityToken(token, s.jwtSecret)
		if err != nil {
			s.logger.Auth().Debug("Auth event carried invalid token", "event", event)
			return
		}

		s.mu.Lock()
		previous := s.lastSubject
		s.lastSubject = claims.Subject
		s.mu.Unlock()

		if previous == claims.Subject {
			// Token refreshes and duplicate notifications for the current
			// subject change nothing.
			return
		}

		if previous != "" {
			s.sessions.Invalidate(caching.Key(caching.ResourceSession, previous))
			s.dataCache.InvalidateAll()
		}
		s.Resolve(ctx, token)

	default:
		s.logger.Auth().Debug("Unknown auth event ignored", "event", event)
	}
}

// AuthenticateAdmin is the break-glass login for operators when the identity
// provider is unreachable. It checks the configured bcrypt hash and mints a
// short-lived local token. When the store holds a profile for the configured
// admin address the token is minted for that row, so it resolves to the real
// account; otherwise a synthetic subject is provisioned on first resolve.
func (s *SessionService) AuthenticateAdmin(ctx context.Context, password string) (string, error) {
	if s.adminPasswordHash == "" {
		return "", &portal.AuthError{Reason: "break-glass login not configured"}
	}
	if !security.CheckPassword(s.adminPasswordHash, password) {
		s.logger.LogAuthOperation("break-glass", "admin", false, nil)
		return "", &portal.AuthError{Reason: "invalid credentials"}
	}

	subject, name := "local-admin", "Administrator"
	if s.users != nil {
		lookupCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
		defer cancel()
		if existing, err := s.users.FindByEmail(lookupCtx, s.adminEmail); err == nil && existing != nil {
			subject, name = existing.ID, existing.Name
		}
	}

	token, err := security.GenerateIdentityToken(subject, s.adminEmail, name, s.jwtSecret, 12*time.Hour)
	if err != nil {
		return "", err
	}

	s.logger.LogAuthOperation("break-glass", "admin", true, nil)
	return token, nil
}
