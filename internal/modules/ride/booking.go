package ride

import (
	"context"
	"time"

	"campool/internal/modules/fare"
	"campool/internal/types"
)

type JoinCommand struct {
	RideID types.ID
	UserID types.ID
}

// Join books a seat on an open ride. The eligibility checks, the capacity
// check and the participant write all happen with the ride row locked, so
// concurrent joins at the capacity boundary admit exactly one rider.
//
// The share is computed from the headcount at this moment (booked riders +
// host + the joiner) and frozen; earlier riders keep the share they agreed to.
func (s *Service) Join(ctx context.Context, cmd JoinCommand) (*Participant, error) {
	if cmd.RideID == "" || cmd.UserID == "" {
		return nil, ErrBadRequest
	}

	var joined *Participant
	err := s.store.WithTx(ctx, func(tx *Tx) error {
		r, err := tx.GetRideForUpdate(ctx, cmd.RideID)
		if err != nil {
			return err
		}
		if r.Status != StatusOpen {
			return ErrRideNotOpen
		}
		if r.DriverID == cmd.UserID {
			return ErrOwnRide
		}

		if err := tx.EnsureUser(ctx, cmd.UserID); err != nil {
			return err
		}
		if err := tx.LockUser(ctx, cmd.UserID); err != nil {
			return err
		}
		other, err := tx.HasOtherActiveBooking(ctx, cmd.UserID, cmd.RideID)
		if err != nil {
			return err
		}
		if other {
			return ErrActiveRide
		}

		booked, err := tx.CountBooked(ctx, cmd.RideID)
		if err != nil {
			return err
		}
		// Headcount with the joiner is booked + host + 1.
		if booked+1 >= r.MaxPassengers {
			return ErrRideFull
		}

		existing, err := tx.GetParticipant(ctx, cmd.RideID, cmd.UserID)
		if err != nil {
			return err
		}
		if existing != nil && existing.Status == ParticipantBooked {
			return ErrAlreadyBooked
		}

		p := &Participant{
			RideID:      cmd.RideID,
			UserID:      cmd.UserID,
			Status:      ParticipantBooked,
			ShareFare:   fare.Split(r.TotalFare, booked+2),
			BookingTime: time.Now(),
		}
		if existing != nil {
			err = tx.RebookParticipant(ctx, p)
		} else {
			err = tx.InsertParticipant(ctx, p)
		}
		if err != nil {
			return err
		}
		joined = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.ridesChanged(ctx, cmd.RideID)
	return joined, nil
}
