package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/kirtipatel215/IMS-sub000/internal/domain/portal"
	"github.com/kirtipatel215/IMS-sub000/internal/domain/user"
	"github.com/kirtipatel215/IMS-sub000/internal/infrastructure/observability/logging"
)

func newTestLogger(t *testing.T) *logging.ChanneledLogger {
	t.Helper()
	logger, err := logging.NewChanneledLogger(&logging.LoggerConfig{
		OutputToFile:    false,
		OutputToConsole: false,
		DefaultLevel:    slog.LevelError + 4,
		ChannelLevels:   map[logging.Channel]slog.Level{},
	})
	if err != nil {
		t.Fatalf("test logger: %v", err)
	}
	return logger
}

// fakeUserRepo is an in-memory user.Repository with error injection.
type fakeUserRepo struct {
	mu        sync.Mutex
	users     map[string]*user.Principal
	findCalls int
	findErr   error
	missFinds int     // leading FindByID calls that report no row
	storeErrs []error // popped per Store call
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*user.Principal)}
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id string) (*user.Principal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findCalls++
	if r.findErr != nil {
		return nil, r.findErr
	}
	if r.missFinds > 0 {
		r.missFinds--
		return nil, nil
	}
	p, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*user.Principal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.users {
		if p.Email == email {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) Store(ctx context.Context, p *user.Principal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.storeErrs) > 0 {
		err := r.storeErrs[0]
		r.storeErrs = r.storeErrs[1:]
		if err != nil {
			return err
		}
	}
	cp := *p
	r.users[p.ID] = &cp
	return nil
}

func (r *fakeUserRepo) UpdateProfile(ctx context.Context, p *user.Principal) error {
	return r.Store(ctx, p)
}

func (r *fakeUserRepo) TouchLastLogin(ctx context.Context, id string) error { return nil }

func (r *fakeUserRepo) put(p *user.Principal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[p.ID] = p
}

func (r *fakeUserRepo) lookups() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findCalls
}

// fakeMailer counts welcome sends.
type fakeMailer struct {
	mu    sync.Mutex
	sends int
}

func (m *fakeMailer) SendWelcome(p *user.Principal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sends++
	return nil
}

func (m *fakeMailer) sent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sends
}

// fakeBlobStore records Put calls and can simulate slowness and collisions.
type fakeBlobStore struct {
	mu         sync.Mutex
	puts       []string
	delay      time.Duration
	collisions int // number of leading Put calls that collide
	putErr     error
	urlErr     error
}

func (s *fakeBlobStore) Put(ctx context.Context, folder, name string, data []byte, contentType string) error {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts = append(s.puts, name)
	if s.collisions > 0 {
		s.collisions--
		return &portal.CollisionError{Name: name}
	}
	return s.putErr
}

func (s *fakeBlobStore) PublicURL(folder, name string) (string, error) {
	if s.urlErr != nil {
		return "", s.urlErr
	}
	return "/media/" + folder + "/" + name, nil
}

func (s *fakeBlobStore) putCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.puts)
}

func (s *fakeBlobStore) putNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.puts...)
}

// fakeRequestRepo is an in-memory portal.RequestRepository.
type fakeRequestRepo struct {
	mu        sync.Mutex
	requests  map[string]*portal.InternshipRequest
	listCalls int
	listErr   error
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{requests: make(map[string]*portal.InternshipRequest)}
}

func (r *fakeRequestRepo) FindByID(ctx context.Context, id string) (*portal.InternshipRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, nil
	}
	cp := *req
	return &cp, nil
}

func (r *fakeRequestRepo) FindByStudent(ctx context.Context, studentID string) ([]*portal.InternshipRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []*portal.InternshipRequest
	for _, req := range r.requests {
		if req.StudentID == studentID {
			cp := *req
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeRequestRepo) FindPendingForMentor(ctx context.Context, mentorID string) ([]*portal.InternshipRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*portal.InternshipRequest
	for _, req := range r.requests {
		if req.MentorID == mentorID && req.Status == portal.RequestPending {
			cp := *req
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeRequestRepo) Store(ctx context.Context, req *portal.InternshipRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *req
	r.requests[req.ID] = &cp
	return nil
}

func (r *fakeRequestRepo) UpdateStatus(ctx context.Context, id string, status portal.RequestStatus, note string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return errors.New("no such request")
	}
	req.Status = status
	req.ReviewNote = note
	return nil
}

func (r *fakeRequestRepo) lists() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listCalls
}
