package rides

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/richxcame/ridemeter/pkg/common"
	"github.com/richxcame/ridemeter/pkg/logger"
	"go.uber.org/zap"
)

// Service enforces the ride lifecycle on top of the repository. It
// implements Store for in-process driver sessions.
type Service struct {
	repo RepositoryInterface
}

// NewService creates a new rides service
func NewService(repo RepositoryInterface) *Service {
	return &Service{repo: repo}
}

// CreateRide stores a pending ride
func (s *Service) CreateRide(ctx context.Context, in NewRide) (*Ride, error) {
	if in.EstimatedPrice < 0 {
		return nil, common.NewBadRequestError("estimated price must not be negative", nil)
	}
	ride, err := s.repo.CreateRide(ctx, in)
	if err != nil {
		return nil, common.NewInternalServerError("failed to create ride", err)
	}
	logger.WithContext(ctx).Info("ride created",
		zap.String("ride_id", ride.ID.String()),
		zap.String("category", string(ride.VehicleCategory)),
		zap.Float64("estimated_price", ride.EstimatedPrice),
		zap.String("currency", ride.Currency),
	)
	return ride, nil
}

// GetRide loads a ride
func (s *Service) GetRide(ctx context.Context, id uuid.UUID) (*Ride, error) {
	return s.repo.GetRide(ctx, id)
}

// UpdateRide validates patch against the current ride and applies it
func (s *Service) UpdateRide(ctx context.Context, id uuid.UUID, patch Patch) (*Ride, error) {
	current, err := s.repo.GetRide(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := checkPatch(current, patch); err != nil {
		return nil, err
	}
	if current.Status.IsTerminal() {
		return current, nil
	}

	updated, err := s.repo.UpdateRide(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	log := logger.WithContext(ctx).With(zap.String("ride_id", id.String()))
	if patch.BillingStartTime != nil && updated.BillingStartTime != nil && !updated.BillingStartTime.Equal(*patch.BillingStartTime) {
		log.Warn("billing already started, keeping first start time",
			zap.Time("stored", *updated.BillingStartTime),
			zap.Time("ignored", *patch.BillingStartTime),
		)
	}
	if patch.Status != nil && *patch.Status != current.Status {
		log.Info("ride status changed", zap.String("from", string(current.Status)), zap.String("to", string(updated.Status)))
	}
	return updated, nil
}

func checkPatch(current *Ride, patch Patch) error {
	if current.Status.IsTerminal() {
		// only a repeat of the terminal status is accepted, and it writes nothing
		resend := patch.Status != nil && *patch.Status == current.Status
		if resend {
			patch.Status = nil
		}
		if !patch.IsEmpty() || !resend {
			return common.NewConflictError(fmt.Sprintf("ride is already %s", current.Status), nil)
		}
		return nil
	}

	status := current.Status
	if patch.Status != nil {
		if !CanTransition(current.Status, *patch.Status) {
			return common.NewConflictError(fmt.Sprintf("ride cannot move from %s to %s", current.Status, *patch.Status), nil)
		}
		status = *patch.Status
	}

	if patch.BillingStartTime != nil && status != StatusInProgress && status != StatusCompleted {
		return common.NewConflictError("billing can only start on a ride in progress", nil)
	}
	if patch.FinalPrice != nil && status != StatusCompleted {
		return common.NewConflictError("final price can only be set on completion", nil)
	}
	return nil
}
