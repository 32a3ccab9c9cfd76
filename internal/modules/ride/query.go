package ride

import (
	"context"
	"time"

	"campool/internal/types"
)

type SearchQuery struct {
	Start string
	End   string
	Date  string // 2006-01-02, optional
}

// Search lists open future rides, optionally filtered by case-insensitive
// location substrings and a calendar date, ordered by departure time.
func (s *Service) Search(ctx context.Context, q SearchQuery) ([]Ride, error) {
	var date *time.Time
	if q.Date != "" {
		d, err := time.ParseInLocation("2006-01-02", q.Date, time.Local)
		if err != nil {
			return nil, ErrBadRequest
		}
		date = &d
	}
	return s.store.SearchRides(ctx, q.Start, q.End, date)
}

type MyRides struct {
	Hosted []Ride
	Joined []JoinedRide
}

// Mine returns the rides the user hosts (except cancelled ones) and the
// future rides they hold a booked seat on.
func (s *Service) Mine(ctx context.Context, userID types.ID) (*MyRides, error) {
	if userID == "" {
		return nil, ErrBadRequest
	}
	hosted, err := s.store.HostedByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	joined, err := s.store.JoinedByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &MyRides{Hosted: hosted, Joined: joined}, nil
}

type Detail struct {
	Ride         Ride
	Participants []Participant
}

// Get fetches a single ride with its participant list.
func (s *Service) Get(ctx context.Context, id types.ID) (*Detail, error) {
	if id == "" {
		return nil, ErrBadRequest
	}
	r, err := s.store.GetRide(ctx, id)
	if err != nil {
		return nil, err
	}
	parts, err := s.store.Participants(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Detail{Ride: *r, Participants: parts}, nil
}
