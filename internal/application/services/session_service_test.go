package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirtipatel215/IMS-sub000/internal/domain/portal"
	"github.com/kirtipatel215/IMS-sub000/internal/domain/user"
	"github.com/kirtipatel215/IMS-sub000/internal/infrastructure/caching"
	"github.com/kirtipatel215/IMS-sub000/internal/infrastructure/security"
)

const testSecret = "test-secret"

func newSessionFixture(t *testing.T, repo user.Repository) (*SessionService, *fakeMailer) {
	t.Helper()
	svc, _, mailer := newSessionFixtureWithData(t, repo)
	return svc, mailer
}

// newSessionFixtureWithData also hands back the business-data cache so tests
// can watch auth events clear it.
func newSessionFixtureWithData(t *testing.T, repo user.Repository) (*SessionService, *caching.Cache, *fakeMailer) {
	t.Helper()
	logger := newTestLogger(t)
	mailer := &fakeMailer{}
	dataCache := caching.NewCache(nil)
	policy := user.NewPolicy("charusat.edu.in", "charusat.ac.in", []string{"admin@charusat.ac.in"})

	svc := NewSessionService(
		repo,
		policy,
		caching.NewCache(nil),
		dataCache,
		mailer,
		logger,
		SessionConfig{
			JWTSecret:    testSecret,
			SessionTTL:   time.Minute,
			QueryTimeout: time.Second,
			AdminEmail:   "admin@charusat.ac.in",
		},
	)
	return svc, dataCache, mailer
}

func studentToken(t *testing.T, subject string) string {
	t.Helper()
	token, err := security.GenerateIdentityToken(subject, "21bce042@charusat.edu.in", "", testSecret, time.Hour)
	require.NoError(t, err)
	return token
}

func TestResolveWithoutTokenIsAnonymous(t *testing.T) {
	svc, _ := newSessionFixture(t, newFakeUserRepo())
	assert.Nil(t, svc.Resolve(context.Background(), ""))
	assert.Nil(t, svc.Resolve(context.Background(), "not-a-jwt"))
}

func TestResolveExpiredTokenIsAnonymous(t *testing.T) {
	svc, _ := newSessionFixture(t, newFakeUserRepo())
	expired, err := security.GenerateIdentityToken("u1", "21bce042@charusat.edu.in", "", testSecret, -time.Minute)
	require.NoError(t, err)
	assert.Nil(t, svc.Resolve(context.Background(), expired))
}

func TestResolveProvisionsFirstLogin(t *testing.T) {
	repo := newFakeUserRepo()
	svc, mailer := newSessionFixture(t, repo)

	principal := svc.Resolve(context.Background(), studentToken(t, "u1"))
	require.NotNil(t, principal)
	assert.Equal(t, user.RoleStudent, principal.Role)
	assert.Equal(t, "21BCE042", principal.RollNumber)
	assert.Equal(t, "Computer Engineering", principal.Department)
	assert.True(t, principal.IsActive)

	stored, err := repo.FindByID(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, stored)

	// The welcome mail goes out asynchronously.
	require.Eventually(t, func() bool { return mailer.sent() == 1 },
		time.Second, 10*time.Millisecond)
}

func TestResolveInactiveAccountIsAnonymous(t *testing.T) {
	repo := newFakeUserRepo()
	repo.put(&user.Principal{
		ID: "u1", Email: "21bce042@charusat.edu.in", Name: "X",
		Role: user.RoleStudent, IsActive: false,
	})
	svc, _ := newSessionFixture(t, repo)

	assert.Nil(t, svc.Resolve(context.Background(), studentToken(t, "u1")))
}

func TestResolveStoreFailureIsAnonymousNotError(t *testing.T) {
	repo := newFakeUserRepo()
	repo.findErr = errors.New("connection refused")
	svc, _ := newSessionFixture(t, repo)

	// Must not panic and must not surface the error.
	assert.Nil(t, svc.Resolve(context.Background(), studentToken(t, "u1")))
}

func TestResolveUsesSessionCache(t *testing.T) {
	repo := newFakeUserRepo()
	repo.put(&user.Principal{
		ID: "u1", Email: "21bce042@charusat.edu.in", Name: "X",
		Role: user.RoleStudent, IsActive: true,
	})
	svc, _ := newSessionFixture(t, repo)
	token := studentToken(t, "u1")

	require.NotNil(t, svc.Resolve(context.Background(), token))
	require.NotNil(t, svc.Resolve(context.Background(), token))
	assert.Equal(t, 1, repo.lookups(), "second resolve within ttl must come from cache")
}

func TestProvisioningRaceReFetchesWinner(t *testing.T) {
	repo := newFakeUserRepo()
	// The first lookup misses, the insert loses the race, and the winner's
	// row is there when the service re-fetches.
	repo.missFinds = 1
	repo.storeErrs = []error{errors.New("UNIQUE constraint failed: users.id")}
	repo.put(&user.Principal{
		ID: "u1", Email: "21bce042@charusat.edu.in", Name: "Winner",
		Role: user.RoleStudent, IsActive: true,
	})
	svc, _ := newSessionFixture(t, repo)

	principal := svc.Resolve(context.Background(), studentToken(t, "u1"))
	require.NotNil(t, principal)
	assert.Equal(t, "Winner", principal.Name)
}

func TestDegradedModeResolvesEphemeralPrincipal(t *testing.T) {
	svc, _ := newSessionFixture(t, nil)

	principal := svc.Resolve(context.Background(), studentToken(t, "u1"))
	require.NotNil(t, principal)
	assert.Equal(t, user.RoleStudent, principal.Role)
	assert.Equal(t, "21BCE042", principal.RollNumber)
}

func TestRequireRole(t *testing.T) {
	repo := newFakeUserRepo()
	repo.put(&user.Principal{
		ID: "u1", Email: "21bce042@charusat.edu.in", Name: "X",
		Role: user.RoleStudent, IsActive: true,
	})
	svc, _ := newSessionFixture(t, repo)
	token := studentToken(t, "u1")

	_, err := svc.RequireRole(context.Background(), "", user.RoleStudent)
	var authErr *portal.AuthError
	require.ErrorAs(t, err, &authErr)

	p, err := svc.RequireRole(context.Background(), token, user.RoleStudent)
	require.NoError(t, err)
	assert.Equal(t, "u1", p.ID)

	_, err = svc.RequireRole(context.Background(), token, user.RoleTeacher)
	require.ErrorAs(t, err, &authErr)
}

func TestAdminPassesEveryRoleCheck(t *testing.T) {
	repo := newFakeUserRepo()
	repo.put(&user.Principal{
		ID: "a1", Email: "admin@charusat.ac.in", Name: "Admin",
		Role: user.RoleAdmin, IsActive: true,
	})
	svc, _ := newSessionFixture(t, repo)
	token, err := security.GenerateIdentityToken("a1", "admin@charusat.ac.in", "Admin", testSecret, time.Hour)
	require.NoError(t, err)

	p, err := svc.RequireRole(context.Background(), token, user.RolePlacementOfficer)
	require.NoError(t, err)
	assert.Equal(t, user.RoleAdmin, p.Role)
}

func TestSignOutClearsSession(t *testing.T) {
	repo := newFakeUserRepo()
	repo.put(&user.Principal{
		ID: "u1", Email: "21bce042@charusat.edu.in", Name: "X",
		Role: user.RoleStudent, IsActive: true,
	})
	svc, _ := newSessionFixture(t, repo)
	token := studentToken(t, "u1")

	svc.HandleAuthEvent(context.Background(), AuthEventSignedIn, token)
	before := repo.lookups()

	svc.HandleAuthEvent(context.Background(), AuthEventSignedOut, "")

	require.NotNil(t, svc.Resolve(context.Background(), token))
	assert.Greater(t, repo.lookups(), before, "resolve after sign-out must hit the store again")
}

func TestRedundantAuthEventsAreSuppressed(t *testing.T) {
	repo := newFakeUserRepo()
	repo.put(&user.Principal{
		ID: "u1", Email: "21bce042@charusat.edu.in", Name: "X",
		Role: user.RoleStudent, IsActive: true,
	})
	svc, _ := newSessionFixture(t, repo)
	token := studentToken(t, "u1")

	svc.HandleAuthEvent(context.Background(), AuthEventSignedIn, token)
	after := repo.lookups()

	svc.HandleAuthEvent(context.Background(), AuthEventTokenRefreshed, token)
	svc.HandleAuthEvent(context.Background(), AuthEventInitialSession, token)
	assert.Equal(t, after, repo.lookups(), "same-subject events must not re-resolve")
}

func TestSubjectChangeClearsPreviousSession(t *testing.T) {
	repo := newFakeUserRepo()
	repo.put(&user.Principal{
		ID: "u1", Email: "21bce042@charusat.edu.in", Name: "First",
		Role: user.RoleStudent, IsActive: true,
	})
	repo.put(&user.Principal{
		ID: "u2", Email: "21bce043@charusat.edu.in", Name: "Second",
		Role: user.RoleStudent, IsActive: true,
	})
	svc, dataCache, _ := newSessionFixtureWithData(t, repo)

	tokenA := studentToken(t, "u1")
	tokenB, err := security.GenerateIdentityToken("u2", "21bce043@charusat.edu.in", "", testSecret, time.Hour)
	require.NoError(t, err)

	svc.HandleAuthEvent(context.Background(), AuthEventSignedIn, tokenA)
	afterA := repo.lookups()

	// Park a business-data entry belonging to the first user.
	_, _, err = dataCache.GetOrFetch(context.Background(), caching.Key(caching.ResourceRequests, "u1"),
		time.Minute, func(ctx context.Context) (any, error) { return "stale", nil })
	require.NoError(t, err)
	require.Equal(t, 1, dataCache.Len())

	svc.HandleAuthEvent(context.Background(), AuthEventSignedIn, tokenB)

	assert.Equal(t, 0, dataCache.Len(), "a subject change must drop the previous user's data")
	assert.Greater(t, repo.lookups(), afterA, "the new subject must be resolved against the store")

	resolved := svc.Resolve(context.Background(), tokenA)
	require.NotNil(t, resolved)
	assert.Equal(t, "First", resolved.Name)
	assert.Greater(t, repo.lookups(), afterA+1, "the previous subject's session entry must be gone")
}

func TestUpdateProfilePersistsAndRefreshesSession(t *testing.T) {
	repo := newFakeUserRepo()
	repo.put(&user.Principal{
		ID: "u1", Email: "21bce042@charusat.edu.in", Name: "Old Name",
		Role: user.RoleStudent, IsActive: true,
	})
	svc, _ := newSessionFixture(t, repo)
	token := studentToken(t, "u1")

	actor := svc.Resolve(context.Background(), token)
	require.NotNil(t, actor)
	before := repo.lookups()

	updated, err := svc.UpdateProfile(context.Background(), actor, UpdateProfileInput{
		Name:       "New Name",
		Department: "Information Technology",
	})
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)

	stored, err := repo.FindByID(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "New Name", stored.Name)
	assert.Equal(t, "Information Technology", stored.Department)

	resolved := svc.Resolve(context.Background(), token)
	require.NotNil(t, resolved)
	assert.Equal(t, "New Name", resolved.Name)
	assert.Greater(t, repo.lookups(), before+1, "update must evict the cached session")
}

func TestUpdateProfileRequiresName(t *testing.T) {
	repo := newFakeUserRepo()
	repo.put(&user.Principal{
		ID: "u1", Email: "21bce042@charusat.edu.in", Name: "X",
		Role: user.RoleStudent, IsActive: true,
	})
	svc, _ := newSessionFixture(t, repo)

	actor := svc.Resolve(context.Background(), studentToken(t, "u1"))
	require.NotNil(t, actor)

	_, err := svc.UpdateProfile(context.Background(), actor, UpdateProfileInput{Name: "   "})
	var valErr *portal.ValidationError
	require.ErrorAs(t, err, &valErr)
}

func TestUpdateProfileSimulatedWithoutStore(t *testing.T) {
	svc, _ := newSessionFixture(t, nil)

	actor := svc.Resolve(context.Background(), studentToken(t, "u1"))
	require.NotNil(t, actor)

	updated, err := svc.UpdateProfile(context.Background(), actor, UpdateProfileInput{Name: "Ephemeral"})
	require.NoError(t, err)
	assert.Equal(t, "Ephemeral", updated.Name)
}

func TestAuthenticateAdminBreakGlass(t *testing.T) {
	repo := newFakeUserRepo()
	logger := newTestLogger(t)
	policy := user.NewPolicy("charusat.edu.in", "charusat.ac.in", []string{"admin@charusat.ac.in"})

	hash, err := security.HashPassword("hunter2")
	require.NoError(t, err)

	svc := NewSessionService(repo, policy, caching.NewCache(nil), caching.NewCache(nil),
		&fakeMailer{}, logger, SessionConfig{
			JWTSecret:         testSecret,
			SessionTTL:        time.Minute,
			QueryTimeout:      time.Second,
			AdminEmail:        "admin@charusat.ac.in",
			AdminPasswordHash: hash,
		})

	_, err = svc.AuthenticateAdmin(context.Background(), "wrong")
	var authErr *portal.AuthError
	require.ErrorAs(t, err, &authErr)

	token, err := svc.AuthenticateAdmin(context.Background(), "hunter2")
	require.NoError(t, err)

	p, err := svc.RequireRole(context.Background(), token, user.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, user.RoleAdmin, p.Role)
}

func TestAuthenticateAdminUsesStoredProfile(t *testing.T) {
	repo := newFakeUserRepo()
	repo.put(&user.Principal{
		ID: "a1", Email: "admin@charusat.ac.in", Name: "Registrar",
		Role: user.RoleAdmin, IsActive: true,
	})
	logger := newTestLogger(t)
	policy := user.NewPolicy("charusat.edu.in", "charusat.ac.in", []string{"admin@charusat.ac.in"})

	hash, err := security.HashPassword("hunter2")
	require.NoError(t, err)

	svc := NewSessionService(repo, policy, caching.NewCache(nil), caching.NewCache(nil),
		&fakeMailer{}, logger, SessionConfig{
			JWTSecret:         testSecret,
			SessionTTL:        time.Minute,
			QueryTimeout:      time.Second,
			AdminEmail:        "admin@charusat.ac.in",
			AdminPasswordHash: hash,
		})

	token, err := svc.AuthenticateAdmin(context.Background(), "hunter2")
	require.NoError(t, err)

	p, err := svc.RequireRole(context.Background(), token, user.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "a1", p.ID, "the token must carry the stored admin's subject")
	assert.Equal(t, "Registrar", p.Name)
}
