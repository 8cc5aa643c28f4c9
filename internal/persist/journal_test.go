package persist

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/cubefield/server/internal/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Set CUBEFIELD_TEST_DSN to a scratch database to run these.
func testDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("CUBEFIELD_TEST_DSN")
	if dsn == "" {
		t.Skip("CUBEFIELD_TEST_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := config.Defaults().Database
	cfg.DSN = dsn
	db, err := NewDB(ctx, cfg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(db.Close)
	if err := RunMigrations(ctx, db.Pool, zap.NewNop()); err != nil {
		t.Fatal(err)
	}
	return db
}

func TestJournalWriteAndCount(t *testing.T) {
	db := testDB(t)
	repo := NewJournalRepo(db, uuid.New())
	ctx := context.Background()

	err := repo.Write(ctx, []JournalEntry{
		{Tick: 1, Kind: KindState, Screen: "Menu"},
		{Tick: 9, Kind: KindSpawn, EntityID: 4, JobID: 1, Screen: "Menu", Pos: [3]float32{1, 2, 3}},
		{Tick: 12, Kind: KindSpawn, EntityID: 5, JobID: 2, Screen: "Menu", Orphan: true},
	})
	if err != nil {
		t.Fatal(err)
	}
	n, err := repo.CountSession(ctx, KindSpawn)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("spawn rows = %d, want 2", n)
	}
	if err := repo.Write(ctx, nil); err != nil {
		t.Fatalf("empty write: %v", err)
	}
}
