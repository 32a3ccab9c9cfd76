package ride

import (
	"context"
	"testing"
	"time"
)

func TestJoinShareSequence(t *testing.T) {
	svc, store := setupTestService(t)
	ctx := context.Background()

	r := mustCreateRide(t, svc, "host_share", 4*time.Hour, 300, 4, VehicleCar)

	// First rider splits with the host: 300 / 2.
	p1 := mustJoin(t, svc, r.ID, "rider_a")
	if p1.ShareFare.Amount != 150 {
		t.Fatalf("first share = %d, want 150", p1.ShareFare.Amount)
	}

	// Second rider splits three ways; rider_a keeps the share they agreed to.
	p2 := mustJoin(t, svc, r.ID, "rider_b")
	if p2.ShareFare.Amount != 100 {
		t.Fatalf("second share = %d, want 100", p2.ShareFare.Amount)
	}

	parts, err := store.Participants(ctx, r.ID)
	if err != nil {
		t.Fatalf("participants: %v", err)
	}
	for _, p := range parts {
		if p.UserID == "rider_a" && p.ShareFare.Amount != 150 {
			t.Fatalf("rider_a share after second join = %d, want frozen 150", p.ShareFare.Amount)
		}
	}
}

func TestJoinOwnRide(t *testing.T) {
	svc, _ := setupTestService(t)

	r := mustCreateRide(t, svc, "host_self", 4*time.Hour, 300, 4, VehicleCar)
	if _, err := svc.Join(context.Background(), JoinCommand{RideID: r.ID, UserID: "host_self"}); err != ErrOwnRide {
		t.Fatalf("expected ErrOwnRide, got %v", err)
	}
}

func TestJoinNonOpenRide(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	r := mustCreateRide(t, svc, "host_closed", -time.Hour, 300, 4, VehicleCar)
	if _, err := svc.Start(ctx, StartCommand{RideID: r.ID, UserID: "host_closed"}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := svc.Join(ctx, JoinCommand{RideID: r.ID, UserID: "rider"}); err != ErrRideNotOpen {
		t.Fatalf("expected ErrRideNotOpen, got %v", err)
	}
}

func TestJoinWithActiveBooking(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	r1 := mustCreateRide(t, svc, "host_one", 4*time.Hour, 300, 4, VehicleCar)
	r2 := mustCreateRide(t, svc, "host_two", 5*time.Hour, 300, 4, VehicleCar)

	mustJoin(t, svc, r1.ID, "busy_rider")
	if _, err := svc.Join(ctx, JoinCommand{RideID: r2.ID, UserID: "busy_rider"}); err != ErrActiveRide {
		t.Fatalf("expected ErrActiveRide, got %v", err)
	}
}

func TestJoinFullRide(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	// Auto seats 3 in total, so the host plus two riders fills it.
	r := mustCreateRide(t, svc, "host_full", 4*time.Hour, 300, 3, VehicleAuto)
	mustJoin(t, svc, r.ID, "rider_a")
	mustJoin(t, svc, r.ID, "rider_b")

	if _, err := svc.Join(ctx, JoinCommand{RideID: r.ID, UserID: "rider_c"}); err != ErrRideFull {
		t.Fatalf("expected ErrRideFull, got %v", err)
	}
}

func TestJoinTwice(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	r := mustCreateRide(t, svc, "host_dup", 4*time.Hour, 300, 4, VehicleCar)
	mustJoin(t, svc, r.ID, "rider")
	if _, err := svc.Join(ctx, JoinCommand{RideID: r.ID, UserID: "rider"}); err != ErrAlreadyBooked {
		t.Fatalf("expected ErrAlreadyBooked, got %v", err)
	}
}

func TestRejoinAfterCancel(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	r := mustCreateRide(t, svc, "host_rejoin", 4*time.Hour, 300, 4, VehicleCar)
	mustJoin(t, svc, r.ID, "rider_a")
	mustJoin(t, svc, r.ID, "rider_b")

	if _, err := svc.Cancel(ctx, CancelCommand{RideID: r.ID, UserID: "rider_a"}); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	// Rebooking recomputes the share from the current headcount: rider_b is
	// still booked, so rider_a comes back at a three-way split.
	p, err := svc.Join(ctx, JoinCommand{RideID: r.ID, UserID: "rider_a"})
	if err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	if p.Status != ParticipantBooked {
		t.Fatalf("rejoined status = %s, want booked", p.Status)
	}
	if p.ShareFare.Amount != 100 {
		t.Fatalf("rejoined share = %d, want 100", p.ShareFare.Amount)
	}
}

func TestJoinMissingRide(t *testing.T) {
	svc, _ := setupTestService(t)
	if _, err := svc.Join(context.Background(), JoinCommand{RideID: "missing", UserID: "rider"}); err != ErrRideNotFound {
		t.Fatalf("expected ErrRideNotFound, got %v", err)
	}
}
