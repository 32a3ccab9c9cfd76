// Shared helpers for the DB-backed ride tests.
package ride

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"campool/internal/types"
)

func setupTestService(t *testing.T) (*Service, *Store) {
	t.Helper()
	store := setupTestStore(t)
	return NewService(store, nil), store
}

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv("CAMPOOL_TEST_DSN")
	if dsn == "" {
		t.Skip("CAMPOOL_TEST_DSN not set; skipping DB-backed tests")
	}

	ctx := context.Background()
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := applyMigration(ctx, db); err != nil {
		t.Fatalf("apply migration: %v", err)
	}

	if _, err := db.Exec(ctx, "TRUNCATE TABLE ride_cancellations, ride_participants, rides, vehicles, users CASCADE"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}

	return NewStore(db)
}

// mustCreateRide creates an open ride departing startIn from now.
func mustCreateRide(t *testing.T, svc *Service, host types.ID, startIn time.Duration, totalFare int64, maxPassengers int, vt VehicleType) *Ride {
	t.Helper()
	at := time.Now().Add(startIn)
	r, err := svc.Create(context.Background(), CreateCommand{
		HostID:        host,
		StartLocation: "North Campus Gate",
		EndLocation:   "City Railway Station",
		StartDate:     at.Format("2006-01-02"),
		StartTime:     at.Format("15:04"),
		TotalFare:     totalFare,
		VehicleType:   vt,
		MaxPassengers: maxPassengers,
	})
	if err != nil {
		t.Fatalf("create ride: %v", err)
	}
	return r
}

func mustJoin(t *testing.T, svc *Service, rideID, userID types.ID) *Participant {
	t.Helper()
	p, err := svc.Join(context.Background(), JoinCommand{RideID: rideID, UserID: userID})
	if err != nil {
		t.Fatalf("join ride: %v", err)
	}
	return p
}

func assertRideStatus(t *testing.T, store *Store, rideID types.ID, want Status) {
	t.Helper()
	r, err := store.GetRide(context.Background(), rideID)
	if err != nil {
		t.Fatalf("get ride: %v", err)
	}
	if r.Status != want {
		t.Fatalf("expected status %s, got %s", want, r.Status)
	}
}

func assertCredibility(t *testing.T, store *Store, userID types.ID, want float64) {
	t.Helper()
	u, err := store.GetUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if u.CredibilityScore != want {
		t.Fatalf("expected credibility %.1f, got %.1f", want, u.CredibilityScore)
	}
}

func applyMigration(ctx context.Context, db *pgxpool.Pool) error {
	root, err := repoRoot()
	if err != nil {
		return err
	}
	path := filepath.Join(root, "migrations", "0001_init.sql")
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	cleaned := stripSQLComments(string(content))
	for _, stmt := range splitSQL(cleaned) {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for i := 0; i < 6; i++ {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

func stripSQLComments(input string) string {
	var b strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(input))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		b.WriteString(scanner.Text())
		b.WriteString("\n")
	}
	return b.String()
}

func splitSQL(input string) []string {
	parts := strings.Split(input, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		stmt := strings.TrimSpace(p)
		if stmt == "" {
			continue
		}
		out = append(out, stmt)
	}
	return out
}
