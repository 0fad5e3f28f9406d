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
	"github.com/kirtipatel215/IMS-sub000/internal/infrastructure/fallback"
	"github.com/kirtipatel215/IMS-sub000/internal/infrastructure/messaging"
)

func newRequestFixture(t *testing.T, repo portal.RequestRepository) *RequestService {
	t.Helper()
	svc, _ := newRequestFixtureWithCache(t, repo)
	return svc
}

func newRequestFixtureWithCache(t *testing.T, repo portal.RequestRepository) (*RequestService, *caching.Cache) {
	t.Helper()
	logger := newTestLogger(t)
	cache := caching.NewCache(nil)
	return NewRequestService(repo, cache, fallback.NewProvider(),
		messaging.NewInvalidationBroadcaster(logger), logger,
		time.Minute, time.Second), cache
}

func studentActor(id string) *user.Principal {
	return &user.Principal{ID: id, Role: user.RoleStudent, IsActive: true}
}

func mentorActor(id string) *user.Principal {
	return &user.Principal{ID: id, Role: user.RoleTeacher, IsActive: true}
}

func seedRequest(t *testing.T, repo *fakeRequestRepo, id, studentID, mentorID string, status portal.RequestStatus) {
	t.Helper()
	now := time.Now().UTC()
	err := repo.Store(context.Background(), &portal.InternshipRequest{
		ID: id, StudentID: studentID, MentorID: mentorID,
		CompanyName: "Infocorp", RoleTitle: "Backend Intern",
		DurationWeeks: 12, Status: status,
		CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
}

func TestForStudentLiveThenCached(t *testing.T) {
	repo := newFakeRequestRepo()
	seedRequest(t, repo, "r1", "stu-1", "men-1", portal.RequestPending)
	svc := newRequestFixture(t, repo)

	first := svc.ForStudent(context.Background(), "stu-1")
	assert.Equal(t, portal.SourceLive, first.Source)
	require.Len(t, first.Value, 1)

	second := svc.ForStudent(context.Background(), "stu-1")
	assert.Equal(t, portal.SourceCache, second.Source)
	assert.Equal(t, 1, repo.lists(), "second read must be served from cache")
}

func TestForStudentFallsBackOnStoreFailure(t *testing.T) {
	repo := newFakeRequestRepo()
	repo.listErr = errors.New("connection reset")
	svc := newRequestFixture(t, repo)

	res := svc.ForStudent(context.Background(), "stu-1")
	assert.Equal(t, portal.SourceFallback, res.Source)
	assert.True(t, res.Degraded())
	require.NotEmpty(t, res.Value, "fallback dataset must carry sample rows")
	for _, req := range res.Value {
		assert.Equal(t, "stu-1", req.StudentID)
	}
}

func TestForStudentDegradedWithoutStore(t *testing.T) {
	svc := newRequestFixture(t, nil)

	res := svc.ForStudent(context.Background(), "stu-1")
	assert.Equal(t, portal.SourceFallback, res.Source)
	assert.ErrorIs(t, res.Reason, portal.ErrBackendAbsent)
	require.NotEmpty(t, res.Value)
}

func TestFallbackResponsesAreNotCached(t *testing.T) {
	repo := newFakeRequestRepo()
	repo.listErr = errors.New("connection reset")
	svc := newRequestFixture(t, repo)

	require.Equal(t, portal.SourceFallback, svc.ForStudent(context.Background(), "stu-1").Source)

	// Store recovers; the next read must go live instead of replaying the
	// degraded answer.
	repo.mu.Lock()
	repo.listErr = nil
	repo.mu.Unlock()

	res := svc.ForStudent(context.Background(), "stu-1")
	assert.Equal(t, portal.SourceLive, res.Source)
}

func TestSubmitValidation(t *testing.T) {
	svc := newRequestFixture(t, newFakeRequestRepo())
	actor := studentActor("stu-1")

	var vErr *portal.ValidationError

	_, err := svc.Submit(context.Background(), actor, SubmitRequestInput{RoleTitle: "x", DurationWeeks: 1})
	require.ErrorAs(t, err, &vErr)

	_, err = svc.Submit(context.Background(), actor, SubmitRequestInput{CompanyName: "x", DurationWeeks: 1})
	require.ErrorAs(t, err, &vErr)

	_, err = svc.Submit(context.Background(), actor, SubmitRequestInput{CompanyName: "x", RoleTitle: "y"})
	require.ErrorAs(t, err, &vErr)
}

func TestSubmitPersistsAndInvalidates(t *testing.T) {
	repo := newFakeRequestRepo()
	svc := newRequestFixture(t, repo)
	actor := studentActor("stu-1")

	// Prime the cache with the empty list.
	require.Equal(t, portal.SourceLive, svc.ForStudent(context.Background(), "stu-1").Source)

	req, err := svc.Submit(context.Background(), actor, SubmitRequestInput{
		MentorID: "men-1", CompanyName: "Infocorp", RoleTitle: "Backend Intern", DurationWeeks: 12,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, req.ID)
	assert.Equal(t, portal.RequestPending, req.Status)

	// The write evicted the cached list, so this read goes back to the store
	// and sees the new row.
	res := svc.ForStudent(context.Background(), "stu-1")
	assert.Equal(t, portal.SourceLive, res.Source)
	require.Len(t, res.Value, 1)
	assert.Equal(t, req.ID, res.Value[0].ID)
}

func TestSubmitSimulatedWithoutStore(t *testing.T) {
	svc := newRequestFixture(t, nil)

	req, err := svc.Submit(context.Background(), studentActor("stu-1"), SubmitRequestInput{
		CompanyName: "Infocorp", RoleTitle: "Backend Intern", DurationWeeks: 12,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, req.ID, "simulated write still echoes a generated id")
	assert.Equal(t, "stu-1", req.StudentID)
}

func TestWithdrawOwnershipAndState(t *testing.T) {
	repo := newFakeRequestRepo()
	seedRequest(t, repo, "r1", "stu-1", "men-1", portal.RequestPending)
	seedRequest(t, repo, "r2", "stu-1", "men-1", portal.RequestApproved)
	svc := newRequestFixture(t, repo)

	var authErr *portal.AuthError
	require.ErrorAs(t, svc.Withdraw(context.Background(), studentActor("stu-2"), "r1"), &authErr)

	var vErr *portal.ValidationError
	require.ErrorAs(t, svc.Withdraw(context.Background(), studentActor("stu-1"), "r2"), &vErr)
	require.ErrorAs(t, svc.Withdraw(context.Background(), studentActor("stu-1"), "missing"), &vErr)

	require.NoError(t, svc.Withdraw(context.Background(), studentActor("stu-1"), "r1"))
	got, err := repo.FindByID(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, portal.RequestWithdrawn, got.Status)
}

func TestReviewRequiresAssignedMentor(t *testing.T) {
	repo := newFakeRequestRepo()
	seedRequest(t, repo, "r1", "stu-1", "men-1", portal.RequestPending)
	svc := newRequestFixture(t, repo)

	var authErr *portal.AuthError
	require.ErrorAs(t,
		svc.Review(context.Background(), mentorActor("men-2"), "r1", true, ""), &authErr)

	require.NoError(t, svc.Review(context.Background(), mentorActor("men-1"), "r1", true, "looks solid"))
	got, err := repo.FindByID(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, portal.RequestApproved, got.Status)
	assert.Equal(t, "looks solid", got.ReviewNote)

	// Already reviewed; a second pass is rejected.
	var vErr *portal.ValidationError
	require.ErrorAs(t,
		svc.Review(context.Background(), mentorActor("men-1"), "r1", false, ""), &vErr)
}

func TestAdminOverridesOwnership(t *testing.T) {
	repo := newFakeRequestRepo()
	seedRequest(t, repo, "r1", "stu-1", "men-1", portal.RequestPending)
	svc := newRequestFixture(t, repo)

	admin := &user.Principal{ID: "adm-1", Role: user.RoleAdmin, IsActive: true}
	require.NoError(t, svc.Review(context.Background(), admin, "r1", false, "policy violation"))

	got, err := repo.FindByID(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, portal.RequestRejected, got.Status)
}

func TestPendingForMentorReadsQueue(t *testing.T) {
	repo := newFakeRequestRepo()
	seedRequest(t, repo, "r1", "stu-1", "men-1", portal.RequestPending)
	seedRequest(t, repo, "r2", "stu-2", "men-1", portal.RequestApproved)
	seedRequest(t, repo, "r3", "stu-3", "men-2", portal.RequestPending)
	svc := newRequestFixture(t, repo)

	res := svc.PendingForMentor(context.Background(), "men-1")
	assert.Equal(t, portal.SourceLive, res.Source)
	require.Len(t, res.Value, 1)
	assert.Equal(t, "r1", res.Value[0].ID)
}

func TestPendingForMentorDegradedServesFallback(t *testing.T) {
	svc := newRequestFixture(t, nil)

	res := svc.PendingForMentor(context.Background(), "men-1")
	assert.True(t, res.Degraded())
	assert.ErrorIs(t, res.Reason, portal.ErrBackendAbsent)
	require.NotEmpty(t, res.Value, "a degraded queue still renders content")
	for _, req := range res.Value {
		assert.Equal(t, "men-1", req.MentorID)
	}
}

func TestSubmitDropsEveryDashboardView(t *testing.T) {
	repo := newFakeRequestRepo()
	svc, cache := newRequestFixtureWithCache(t, repo)

	// Another actor's dashboard aggregates are already cached.
	otherKey := caching.Key(caching.ResourceDashboard, "stu-other")
	_, _, err := cache.GetOrFetch(context.Background(), otherKey, time.Minute,
		func(ctx context.Context) (any, error) { return "counters", nil })
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), studentActor("stu-1"), SubmitRequestInput{
		CompanyName: "Infocorp", RoleTitle: "Backend Intern", DurationWeeks: 12,
	})
	require.NoError(t, err)

	_, hit, err := cache.GetOrFetch(context.Background(), otherKey, time.Minute,
		func(ctx context.Context) (any, error) { return "fresh", nil })
	require.NoError(t, err)
	assert.False(t, hit, "a submitted request stales the counters on every dashboard")
}
