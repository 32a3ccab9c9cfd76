package ride

import (
	"context"
	"time"

	"campool/internal/modules/penalty"
	"campool/internal/types"
)

// Role tags which cancellation branch handled the request.
type Role string

const (
	RoleDriver      Role = "driver"
	RoleParticipant Role = "participant"
)

type CancelCommand struct {
	RideID types.ID
	UserID types.ID
}

type CancelResult struct {
	Role        Role
	Penalty     float64     // credibility points deducted
	LateFee     types.Money // informational, participant branch only
	Transferred bool        // driver branch: a participant was promoted
	NewDriverID types.ID    // set when Transferred
}

// cancelCase is the tagged resolution of who is cancelling, decided once with
// the ride row locked.
type cancelCase struct {
	role        Role
	participant *Participant
}

// Cancel handles both driver and participant cancellations.
//
// A cancelling driver hands the ride to the earliest-booked participant when
// one exists (their participant record is deleted and the ride reopens);
// otherwise the ride is cancelled. A cancelling participant keeps their record
// with status cancelled, and the ride reopens when no booked riders remain.
// Either way the cancellation is logged and the caller's credibility pays the
// time-tiered penalty, all in one transaction.
func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) (*CancelResult, error) {
	if cmd.RideID == "" || cmd.UserID == "" {
		return nil, ErrBadRequest
	}

	var result *CancelResult
	err := s.store.WithTx(ctx, func(tx *Tx) error {
		r, err := tx.GetRideForUpdate(ctx, cmd.RideID)
		if err != nil {
			return err
		}
		if !CanTransition(r.Status, StatusCancelled) {
			return ErrInvalidState
		}

		c, err := resolveCanceller(ctx, tx, r, cmd.UserID)
		if err != nil {
			return err
		}

		now := time.Now()
		hoursToStart := r.StartAt.Sub(now).Hours()

		if err := tx.InsertCancellation(ctx, r.ID, cmd.UserID, now); err != nil {
			return err
		}

		switch c.role {
		case RoleDriver:
			result, err = cancelAsDriver(ctx, tx, r, hoursToStart)
		case RoleParticipant:
			result, err = cancelAsParticipant(ctx, tx, r, c.participant, hoursToStart)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.ridesChanged(ctx, cmd.RideID)
	return result, nil
}

func resolveCanceller(ctx context.Context, tx *Tx, r *Ride, userID types.ID) (cancelCase, error) {
	if r.DriverID == userID {
		return cancelCase{role: RoleDriver}, nil
	}
	p, err := tx.GetParticipant(ctx, r.ID, userID)
	if err != nil {
		return cancelCase{}, err
	}
	if p == nil || p.Status != ParticipantBooked {
		return cancelCase{}, ErrNotRideOwner
	}
	return cancelCase{role: RoleParticipant, participant: p}, nil
}

func cancelAsDriver(ctx context.Context, tx *Tx, r *Ride, hoursToStart float64) (*CancelResult, error) {
	points := penalty.Driver(hoursToStart)
	if err := tx.ApplyPenalty(ctx, r.DriverID, points); err != nil {
		return nil, err
	}

	next, err := tx.EarliestBooked(ctx, r.ID)
	if err != nil {
		return nil, err
	}
	if next == nil {
		if err := tx.SetStatus(ctx, r.ID, StatusCancelled); err != nil {
			return nil, err
		}
		return &CancelResult{Role: RoleDriver, Penalty: points}, nil
	}

	// Succession: the earliest-booked rider takes over as driver and stops
	// being a participant, and the ride stays bookable.
	if err := tx.DeleteParticipant(ctx, r.ID, next.UserID); err != nil {
		return nil, err
	}
	if err := tx.SetDriver(ctx, r.ID, next.UserID); err != nil {
		return nil, err
	}
	if err := tx.SetStatus(ctx, r.ID, StatusOpen); err != nil {
		return nil, err
	}
	return &CancelResult{
		Role:        RoleDriver,
		Penalty:     points,
		Transferred: true,
		NewDriverID: next.UserID,
	}, nil
}

func cancelAsParticipant(ctx context.Context, tx *Tx, r *Ride, p *Participant, hoursToStart float64) (*CancelResult, error) {
	points, lateFee := penalty.Rider(hoursToStart, p.ShareFare)

	if err := tx.CancelParticipant(ctx, r.ID, p.UserID); err != nil {
		return nil, err
	}
	booked, err := tx.CountBooked(ctx, r.ID)
	if err != nil {
		return nil, err
	}
	if booked == 0 && r.Status != StatusOpen {
		if err := tx.SetStatus(ctx, r.ID, StatusOpen); err != nil {
			return nil, err
		}
	}
	if err := tx.ApplyPenalty(ctx, p.UserID, points); err != nil {
		return nil, err
	}
	return &CancelResult{Role: RoleParticipant, Penalty: points, LateFee: lateFee}, nil
}
