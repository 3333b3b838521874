package rides

import (
	"context"

	"github.com/google/uuid"
)

// Reader is the passenger-side view of the ride store. It has no write
// methods.
type Reader interface {
	GetRide(ctx context.Context, id uuid.UUID) (*Ride, error)
}

// Store is the driver-side view of the ride store
type Store interface {
	Reader
	UpdateRide(ctx context.Context, id uuid.UUID, patch Patch) (*Ride, error)
}

// RepositoryInterface is implemented by *Repository
type RepositoryInterface interface {
	Store
	CreateRide(ctx context.Context, in NewRide) (*Ride, error)
}
