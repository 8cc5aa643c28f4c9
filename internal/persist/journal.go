package persist

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Journal entry kinds.
const (
	KindSpawn   = "spawn"
	KindDespawn = "despawn"
	KindState   = "state"
)

// JournalEntry records one observable world change. Jobs themselves are
// never persisted.
type JournalEntry struct {
	Tick     uint64
	Kind     string
	EntityID uint64
	JobID    uint64
	Screen   string
	Pos      [3]float32
	Orphan   bool
}

type JournalRepo struct {
	db      *DB
	session uuid.UUID
}

// NewJournalRepo writes entries stamped with session.
func NewJournalRepo(db *DB, session uuid.UUID) *JournalRepo {
	return &JournalRepo{db: db, session: session}
}

// Write inserts a batch of entries in a single round trip and transaction.
func (r *JournalRepo) Write(ctx context.Context, entries []JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("journal begin: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(
			`INSERT INTO spawn_journal (session_id, tick, kind, entity_id, job_id, screen, pos_x, pos_y, pos_z, orphan)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			r.session, int64(e.Tick), e.Kind, int64(e.EntityID), int64(e.JobID), e.Screen,
			e.Pos[0], e.Pos[1], e.Pos[2], e.Orphan,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("journal insert: %w", err)
	}
	return tx.Commit(ctx)
}

// CountSession returns how many entries of kind were written for this session.
func (r *JournalRepo) CountSession(ctx context.Context, kind string) (int64, error) {
	var n int64
	err := r.db.Pool.QueryRow(ctx,
		`SELECT count(*) FROM spawn_journal WHERE session_id = $1 AND kind = $2`,
		r.session, kind,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("journal count: %w", err)
	}
	return n, nil
}
