// Ride service implements the lifecycle engines over the transactional store.
package ride

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"campool/internal/modules/fare"
	"campool/internal/types"
)

const currency = fare.Currency

var (
	ErrBadRequest    = errors.New("bad request")
	ErrRideNotFound  = errors.New("ride not found")
	ErrRideNotOpen   = errors.New("ride not open")
	ErrOwnRide       = errors.New("cannot book own ride")
	ErrActiveRide    = errors.New("already in an active ride")
	ErrRideFull      = errors.New("ride full")
	ErrAlreadyBooked = errors.New("already booked")
	ErrNotRideOwner  = errors.New("not the ride owner")
	ErrInvalidState  = errors.New("invalid ride state")
	ErrTooEarly      = errors.New("ride start time not reached")
	ErrTxConflict    = errors.New("store conflict, retry")
)

// Notifier emits fire-and-forget "rides changed" signals for external
// consumers. Failures must never fail the operation that triggered them.
type Notifier interface {
	RidesChanged(ctx context.Context, rideID types.ID)
}

type Service struct {
	store    *Store
	notifier Notifier
}

func NewService(store *Store, notifier Notifier) *Service {
	return &Service{store: store, notifier: notifier}
}

type CreateCommand struct {
	HostID        types.ID
	StartLocation string
	EndLocation   string
	StartDate     string // 2006-01-02
	StartTime     string // 15:04
	TotalFare     int64
	VehicleType   VehicleType
	MaxPassengers int
}

// Create validates the command, upserts the host's vehicle and opens the ride.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Ride, error) {
	if cmd.HostID == "" || cmd.StartLocation == "" || cmd.EndLocation == "" {
		return nil, ErrBadRequest
	}
	if cmd.TotalFare <= 0 {
		return nil, ErrBadRequest
	}
	if !cmd.VehicleType.Valid() {
		return nil, ErrBadRequest
	}
	if cmd.MaxPassengers < 1 || cmd.MaxPassengers > 6 || cmd.MaxPassengers > cmd.VehicleType.SeatCap() {
		return nil, ErrBadRequest
	}
	// The date and time fields are combined exactly once; everything downstream
	// works with the single stored instant.
	startAt, err := combineStart(cmd.StartDate, cmd.StartTime)
	if err != nil {
		return nil, ErrBadRequest
	}

	r := &Ride{
		ID:            newID(),
		DriverID:      cmd.HostID,
		StartLocation: cmd.StartLocation,
		EndLocation:   cmd.EndLocation,
		StartAt:       startAt,
		TotalFare:     types.Money{Amount: cmd.TotalFare, Currency: currency},
		MaxPassengers: cmd.MaxPassengers,
		Status:        StatusOpen,
		CreatedAt:     time.Now(),
	}

	err = s.store.WithTx(ctx, func(tx *Tx) error {
		if err := tx.EnsureUser(ctx, cmd.HostID); err != nil {
			return err
		}
		vehicleID, err := tx.UpsertVehicle(ctx, cmd.HostID, cmd.VehicleType)
		if err != nil {
			return err
		}
		r.VehicleID = vehicleID
		return tx.InsertRide(ctx, r)
	})
	if err != nil {
		return nil, err
	}

	s.ridesChanged(ctx, r.ID)
	return r, nil
}

type StartCommand struct {
	RideID types.ID
	UserID types.ID
}

// Start moves an open ride to active. Only the current driver may start, and
// only once the wall clock has reached the scheduled departure.
func (s *Service) Start(ctx context.Context, cmd StartCommand) (*Ride, error) {
	var started *Ride
	err := s.store.WithTx(ctx, func(tx *Tx) error {
		r, err := tx.GetRideForUpdate(ctx, cmd.RideID)
		if err != nil {
			return err
		}
		if !CanTransition(r.Status, StatusActive) {
			return ErrInvalidState
		}
		if r.DriverID != cmd.UserID {
			return ErrNotRideOwner
		}
		if time.Now().Before(r.StartAt) {
			return ErrTooEarly
		}
		if err := tx.SetStatus(ctx, r.ID, StatusActive); err != nil {
			return err
		}
		r.Status = StatusActive
		started = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return started, nil
}

type CompleteCommand struct {
	RideID types.ID
	UserID types.ID
}

// Complete moves an active ride to its terminal completed state.
func (s *Service) Complete(ctx context.Context, cmd CompleteCommand) (*Ride, error) {
	var completed *Ride
	err := s.store.WithTx(ctx, func(tx *Tx) error {
		r, err := tx.GetRideForUpdate(ctx, cmd.RideID)
		if err != nil {
			return err
		}
		if !CanTransition(r.Status, StatusCompleted) {
			return ErrInvalidState
		}
		if r.DriverID != cmd.UserID {
			return ErrNotRideOwner
		}
		if err := tx.SetStatus(ctx, r.ID, StatusCompleted); err != nil {
			return err
		}
		r.Status = StatusCompleted
		completed = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return completed, nil
}

func (s *Service) ridesChanged(ctx context.Context, rideID types.ID) {
	if s.notifier != nil {
		s.notifier.RidesChanged(ctx, rideID)
	}
}

func newID() types.ID {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return types.ID(hex.EncodeToString(b[:]))
}

func combineStart(date, clock string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04", date+" "+clock, time.Local)
}
