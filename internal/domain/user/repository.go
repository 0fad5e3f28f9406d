package user

import "context"

// Repository defines the operations for persisting Principal profiles.
type Repository interface {
	FindByID(ctx context.Context, id string) (*Principal, error)
	FindByEmail(ctx context.Context, email string) (*Principal, error)
	Store(ctx context.Context, p *Principal) error
	UpdateProfile(ctx context.Context, p *Principal) error
	TouchLastLogin(ctx context.Context, id string) error
}
