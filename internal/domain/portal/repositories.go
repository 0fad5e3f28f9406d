package portal

import "context"

// Repository interfaces abstract the backing store so services stay decoupled
// from SQL and so tests can substitute fakes.

// RequestRepository defines the operations for persisting InternshipRequest
// entities.
type RequestRepository interface {
	FindByID(ctx context.Context, id string) (*InternshipRequest, error)
	FindByStudent(ctx context.Context, studentID string) ([]*InternshipRequest, error)
	FindPendingForMentor(ctx context.Context, mentorID string) ([]*InternshipRequest, error)
	Store(ctx context.Context, req *InternshipRequest) error
	UpdateStatus(ctx context.Context, id string, status RequestStatus, reviewNote string) error
}

// CertificateRepository defines the operations for persisting Certificate
// entities.
type CertificateRepository interface {
	FindByStudent(ctx context.Context, studentID string) ([]*Certificate, error)
	Store(ctx context.Context, cert *Certificate) error
}

// OpportunityRepository defines the operations for persisting Opportunity
// entities.
type OpportunityRepository interface {
	FindActive(ctx context.Context) ([]*Opportunity, error)
	FindByID(ctx context.Context, id string) (*Opportunity, error)
	Store(ctx context.Context, opp *Opportunity) error
	Deactivate(ctx context.Context, id string) error
}

// StatsRepository computes dashboard aggregates from the backing store.
type StatsRepository interface {
	DashboardStats(ctx context.Context) (*DashboardStats, error)
}
