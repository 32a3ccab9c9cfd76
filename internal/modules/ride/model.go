// Ride aggregate, participant records and status definitions.
package ride

import (
	"time"

	"campool/internal/types"
)

type Status string

const (
	StatusOpen      Status = "open"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// AllowedTransitions represents the ride state flow as code. Completed and
// cancelled are terminal. active → open happens when a cancellation leaves the
// ride without its driver or without any booked riders.
var AllowedTransitions = map[Status][]Status{
	StatusOpen:   {StatusActive, StatusCancelled},
	StatusActive: {StatusCompleted, StatusCancelled, StatusOpen},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

type VehicleType string

const (
	VehicleCar  VehicleType = "car"
	VehicleSUV  VehicleType = "suv"
	VehicleAuto VehicleType = "auto"
)

// seatCaps bounds max_passengers per vehicle type, host seat included.
var seatCaps = map[VehicleType]int{
	VehicleCar:  4,
	VehicleSUV:  6,
	VehicleAuto: 3,
}

func (v VehicleType) Valid() bool {
	_, ok := seatCaps[v]
	return ok
}

func (v VehicleType) SeatCap() int {
	return seatCaps[v]
}

type Ride struct {
	ID            types.ID
	DriverID      types.ID
	VehicleID     int64
	StartLocation string
	EndLocation   string
	StartAt       time.Time
	TotalFare     types.Money
	MaxPassengers int
	Status        Status
	CreatedAt     time.Time
}

type ParticipantStatus string

const (
	ParticipantBooked    ParticipantStatus = "booked"
	ParticipantCancelled ParticipantStatus = "cancelled"
)

type Participant struct {
	RideID      types.ID
	UserID      types.ID
	Status      ParticipantStatus
	ShareFare   types.Money
	BookingTime time.Time
}

// User mirrors the identity subsystem's record; only the credibility fields
// are mutated here, and only by the cancellation engine.
type User struct {
	ID                types.ID
	CredibilityScore  float64
	CancellationCount int
}

type Vehicle struct {
	ID     int64
	UserID types.ID
	Type   VehicleType
}

// Cancellation is an append-only audit log entry.
type Cancellation struct {
	ID          int64
	RideID      types.ID
	UserID      types.ID
	CancelledAt time.Time
}
