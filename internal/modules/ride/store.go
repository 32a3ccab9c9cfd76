// Ride store backed by PostgreSQL. Mutations run inside transactions started
// with WithTx; reads go straight to the pool.
package ride

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"campool/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Tx exposes the store operations that must share one transaction.
type Tx struct {
	tx pgx.Tx
}

// WithTx runs fn in a single transaction. Serialization failures, deadlocks
// and duplicate-participant races are mapped to their domain errors so callers
// can tell retryable store conflicts from state conflicts.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	err := pgx.BeginTxFunc(ctx, s.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return fn(&Tx{tx: tx})
	})
	return mapPgError(err)
}

func mapPgError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return ErrTxConflict
		case "23505": // unique_violation: two concurrent joins by the same user
			return ErrAlreadyBooked
		}
	}
	return err
}

const rideColumns = `id, driver_id, vehicle_id, start_location, end_location,
       start_at, total_fare, max_passengers, status, created_at`

func scanRide(row pgx.Row) (*Ride, error) {
	var r Ride
	err := row.Scan(
		&r.ID, &r.DriverID, &r.VehicleID, &r.StartLocation, &r.EndLocation,
		&r.StartAt, &r.TotalFare.Amount, &r.MaxPassengers, &r.Status, &r.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRideNotFound
	}
	if err != nil {
		return nil, err
	}
	r.TotalFare.Currency = currency
	return &r, nil
}

// GetRideForUpdate locks the ride row for the rest of the transaction,
// serializing concurrent joins, cancels and lifecycle transitions per ride.
func (t *Tx) GetRideForUpdate(ctx context.Context, id types.ID) (*Ride, error) {
	row := t.tx.QueryRow(ctx, `
        SELECT `+rideColumns+`
        FROM rides
        WHERE id = $1
        FOR UPDATE`, string(id),
	)
	return scanRide(row)
}

// EnsureUser mirrors an identity-subsystem user on first touch.
func (t *Tx) EnsureUser(ctx context.Context, id types.ID) error {
	_, err := t.tx.Exec(ctx, `
        INSERT INTO users (id) VALUES ($1)
        ON CONFLICT (id) DO NOTHING`, string(id),
	)
	return err
}

// LockUser takes the user row lock; the single-active-booking check and its
// insert must be observed as one unit. Lock order is always ride then user.
func (t *Tx) LockUser(ctx context.Context, id types.ID) error {
	_, err := t.tx.Exec(ctx, `SELECT 1 FROM users WHERE id = $1 FOR UPDATE`, string(id))
	return err
}

func (t *Tx) UpsertVehicle(ctx context.Context, userID types.ID, vt VehicleType) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
        INSERT INTO vehicles (user_id, vehicle_type)
        VALUES ($1, $2)
        ON CONFLICT (user_id) DO UPDATE
        SET vehicle_type = EXCLUDED.vehicle_type, updated_at = NOW()
        RETURNING id`,
		string(userID), string(vt),
	).Scan(&id)
	return id, err
}

func (t *Tx) InsertRide(ctx context.Context, r *Ride) error {
	_, err := t.tx.Exec(ctx, `
        INSERT INTO rides (
            id, driver_id, vehicle_id, start_location, end_location,
            start_at, total_fare, max_passengers, status, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		string(r.ID), string(r.DriverID), r.VehicleID, r.StartLocation, r.EndLocation,
		r.StartAt, r.TotalFare.Amount, r.MaxPassengers, string(r.Status), r.CreatedAt,
	)
	return err
}

func (t *Tx) SetStatus(ctx context.Context, id types.ID, status Status) error {
	_, err := t.tx.Exec(ctx, `UPDATE rides SET status = $1 WHERE id = $2`,
		string(status), string(id))
	return err
}

func (t *Tx) SetDriver(ctx context.Context, id, driverID types.ID) error {
	_, err := t.tx.Exec(ctx, `UPDATE rides SET driver_id = $1 WHERE id = $2`,
		string(driverID), string(id))
	return err
}

func (t *Tx) CountBooked(ctx context.Context, rideID types.ID) (int, error) {
	var n int
	err := t.tx.QueryRow(ctx, `
        SELECT COUNT(*) FROM ride_participants
        WHERE ride_id = $1 AND status = 'booked'`, string(rideID),
	).Scan(&n)
	return n, err
}

// GetParticipant returns nil without error when no record exists.
func (t *Tx) GetParticipant(ctx context.Context, rideID, userID types.ID) (*Participant, error) {
	var p Participant
	err := t.tx.QueryRow(ctx, `
        SELECT ride_id, user_id, status, share_fare, booking_time
        FROM ride_participants
        WHERE ride_id = $1 AND user_id = $2`,
		string(rideID), string(userID),
	).Scan(&p.RideID, &p.UserID, &p.Status, &p.ShareFare.Amount, &p.BookingTime)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.ShareFare.Currency = currency
	return &p, nil
}

// HasOtherActiveBooking reports whether the user holds a booked seat on any
// other open or active ride with a future start.
func (t *Tx) HasOtherActiveBooking(ctx context.Context, userID, excludeRideID types.ID) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1
            FROM ride_participants p
            JOIN rides r ON r.id = p.ride_id
            WHERE p.user_id = $1
              AND p.status = 'booked'
              AND p.ride_id <> $2
              AND r.status IN ('open', 'active')
              AND r.start_at > NOW()
        )`, string(userID), string(excludeRideID),
	).Scan(&exists)
	return exists, err
}

func (t *Tx) InsertParticipant(ctx context.Context, p *Participant) error {
	_, err := t.tx.Exec(ctx, `
        INSERT INTO ride_participants (ride_id, user_id, status, share_fare, booking_time)
        VALUES ($1, $2, $3, $4, $5)`,
		string(p.RideID), string(p.UserID), string(p.Status), p.ShareFare.Amount, p.BookingTime,
	)
	return err
}

// RebookParticipant flips a previously cancelled record back to booked with a
// fresh share and booking time.
func (t *Tx) RebookParticipant(ctx context.Context, p *Participant) error {
	_, err := t.tx.Exec(ctx, `
        UPDATE ride_participants
        SET status = 'booked', share_fare = $3, booking_time = $4
        WHERE ride_id = $1 AND user_id = $2`,
		string(p.RideID), string(p.UserID), p.ShareFare.Amount, p.BookingTime,
	)
	return err
}

func (t *Tx) CancelParticipant(ctx context.Context, rideID, userID types.ID) error {
	_, err := t.tx.Exec(ctx, `
        UPDATE ride_participants
        SET status = 'cancelled'
        WHERE ride_id = $1 AND user_id = $2`,
		string(rideID), string(userID),
	)
	return err
}

// DeleteParticipant removes a record entirely; only used when a participant is
// promoted to driver.
func (t *Tx) DeleteParticipant(ctx context.Context, rideID, userID types.ID) error {
	_, err := t.tx.Exec(ctx, `
        DELETE FROM ride_participants
        WHERE ride_id = $1 AND user_id = $2`,
		string(rideID), string(userID),
	)
	return err
}

// EarliestBooked returns the booked participant with the oldest booking time,
// or nil when the ride has none. Ties break on user id for determinism.
func (t *Tx) EarliestBooked(ctx context.Context, rideID types.ID) (*Participant, error) {
	var p Participant
	err := t.tx.QueryRow(ctx, `
        SELECT ride_id, user_id, status, share_fare, booking_time
        FROM ride_participants
        WHERE ride_id = $1 AND status = 'booked'
        ORDER BY booking_time ASC, user_id ASC
        LIMIT 1`, string(rideID),
	).Scan(&p.RideID, &p.UserID, &p.Status, &p.ShareFare.Amount, &p.BookingTime)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.ShareFare.Currency = currency
	return &p, nil
}

func (t *Tx) InsertCancellation(ctx context.Context, rideID, userID types.ID, at time.Time) error {
	_, err := t.tx.Exec(ctx, `
        INSERT INTO ride_cancellations (ride_id, user_id, cancelled_at)
        VALUES ($1, $2, $3)`,
		string(rideID), string(userID), at,
	)
	return err
}

// ApplyPenalty decrements credibility and bumps the cancellation counter.
func (t *Tx) ApplyPenalty(ctx context.Context, userID types.ID, points float64) error {
	_, err := t.tx.Exec(ctx, `
        UPDATE users
        SET credibility_score = credibility_score - $2,
            cancellation_count = cancellation_count + 1
        WHERE id = $1`,
		string(userID), points,
	)
	return err
}

// Read side.

func (s *Store) GetRide(ctx context.Context, id types.ID) (*Ride, error) {
	row := s.db.QueryRow(ctx, `
        SELECT `+rideColumns+`
        FROM rides
        WHERE id = $1`, string(id),
	)
	return scanRide(row)
}

func (s *Store) GetUser(ctx context.Context, id types.ID) (*User, error) {
	var u User
	err := s.db.QueryRow(ctx, `
        SELECT id, credibility_score, cancellation_count
        FROM users
        WHERE id = $1`, string(id),
	).Scan(&u.ID, &u.CredibilityScore, &u.CancellationCount)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) Participants(ctx context.Context, rideID types.ID) ([]Participant, error) {
	rows, err := s.db.Query(ctx, `
        SELECT ride_id, user_id, status, share_fare, booking_time
        FROM ride_participants
        WHERE ride_id = $1
        ORDER BY booking_time ASC, user_id ASC`, string(rideID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Participant
	for rows.Next() {
		var p Participant
		if err := rows.Scan(&p.RideID, &p.UserID, &p.Status, &p.ShareFare.Amount, &p.BookingTime); err != nil {
			return nil, err
		}
		p.ShareFare.Currency = currency
		out = append(out, p)
	}
	return out, rows.Err()
}

// Cancellations lists the append-only audit entries for a ride.
func (s *Store) Cancellations(ctx context.Context, rideID types.ID) ([]Cancellation, error) {
	rows, err := s.db.Query(ctx, `
        SELECT id, ride_id, user_id, cancelled_at
        FROM ride_cancellations
        WHERE ride_id = $1
        ORDER BY id ASC`, string(rideID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Cancellation
	for rows.Next() {
		var c Cancellation
		if err := rows.Scan(&c.ID, &c.RideID, &c.UserID, &c.CancelledAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) SearchRides(ctx context.Context, start, end string, date *time.Time) ([]Ride, error) {
	rows, err := s.db.Query(ctx, `
        SELECT `+rideColumns+`
        FROM rides
        WHERE status = 'open'
          AND start_at > NOW()
          AND ($1 = '' OR start_location ILIKE '%' || $1 || '%')
          AND ($2 = '' OR end_location ILIKE '%' || $2 || '%')
          AND ($3::timestamptz IS NULL OR (start_at >= $3 AND start_at < $3 + INTERVAL '1 day'))
        ORDER BY start_at ASC`,
		start, end, date,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRides(rows)
}

func (s *Store) HostedByUser(ctx context.Context, userID types.ID) ([]Ride, error) {
	rows, err := s.db.Query(ctx, `
        SELECT `+rideColumns+`
        FROM rides
        WHERE driver_id = $1 AND status <> 'cancelled'
        ORDER BY start_at ASC`, string(userID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRides(rows)
}

// JoinedRide annotates a ride with the caller's participation record.
type JoinedRide struct {
	Ride
	Participation Participant
}

func (s *Store) JoinedByUser(ctx context.Context, userID types.ID) ([]JoinedRide, error) {
	rows, err := s.db.Query(ctx, `
        SELECT r.id, r.driver_id, r.vehicle_id, r.start_location, r.end_location,
               r.start_at, r.total_fare, r.max_passengers, r.status, r.created_at,
               p.status, p.share_fare, p.booking_time
        FROM ride_participants p
        JOIN rides r ON r.id = p.ride_id
        WHERE p.user_id = $1
          AND p.status = 'booked'
          AND r.status <> 'cancelled'
          AND r.start_at > NOW()
        ORDER BY r.start_at ASC`, string(userID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []JoinedRide
	for rows.Next() {
		var j JoinedRide
		err := rows.Scan(
			&j.Ride.ID, &j.Ride.DriverID, &j.Ride.VehicleID, &j.Ride.StartLocation, &j.Ride.EndLocation,
			&j.Ride.StartAt, &j.Ride.TotalFare.Amount, &j.Ride.MaxPassengers, &j.Ride.Status, &j.Ride.CreatedAt,
			&j.Participation.Status, &j.Participation.ShareFare.Amount, &j.Participation.BookingTime,
		)
		if err != nil {
			return nil, err
		}
		j.Ride.TotalFare.Currency = currency
		j.Participation.RideID = j.Ride.ID
		j.Participation.UserID = userID
		j.Participation.ShareFare.Currency = currency
		out = append(out, j)
	}
	return out, rows.Err()
}

func collectRides(rows pgx.Rows) ([]Ride, error) {
	var out []Ride
	for rows.Next() {
		var r Ride
		err := rows.Scan(
			&r.ID, &r.DriverID, &r.VehicleID, &r.StartLocation, &r.EndLocation,
			&r.StartAt, &r.TotalFare.Amount, &r.MaxPassengers, &r.Status, &r.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		r.TotalFare.Currency = currency
		out = append(out, r)
	}
	return out, rows.Err()
}
