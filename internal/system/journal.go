package system

import (
	"context"
	"time"

	"github.com/cubefield/server/internal/core/event"
	coresys "github.com/cubefield/server/internal/core/system"
	"github.com/cubefield/server/internal/persist"
	"go.uber.org/zap"
)

// JournalWriter stores journal entries. Implemented by persist.JournalRepo.
type JournalWriter interface {
	Write(ctx context.Context, entries []persist.JournalEntry) error
}

// JournalSystem buffers spawn, despawn and screen events and writes them
// every interval ticks. Phase 5 (Persist).
type JournalSystem struct {
	out      JournalWriter
	log      *zap.Logger
	buf      []persist.JournalEntry
	tick     uint64
	sinceRun int
	interval int
	timeout  time.Duration
}

func NewJournalSystem(bus *event.Bus, out JournalWriter, log *zap.Logger, intervalTicks int) *JournalSystem {
	s := &JournalSystem{out: out, log: log, interval: intervalTicks, timeout: 5 * time.Second}
	event.Subscribe(bus, func(e event.EntitySpawned) {
		s.buf = append(s.buf, persist.JournalEntry{
			Tick:     s.tick,
			Kind:     persist.KindSpawn,
			EntityID: uint64(e.Entity),
			JobID:    e.JobID,
			Screen:   e.Screen,
			Pos:      [3]float32{e.Position.X, e.Position.Y, e.Position.Z},
			Orphan:   e.Orphan,
		})
	})
	event.Subscribe(bus, func(e event.EntityDespawned) {
		s.buf = append(s.buf, persist.JournalEntry{Tick: s.tick, Kind: persist.KindDespawn, EntityID: uint64(e.Entity)})
	})
	event.Subscribe(bus, func(e event.StateChanged) {
		s.buf = append(s.buf, persist.JournalEntry{Tick: s.tick, Kind: persist.KindState, Screen: e.To})
	})
	return s
}

func (s *JournalSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *JournalSystem) Update(_ time.Duration) {
	s.tick++
	s.sinceRun++
	if s.sinceRun < s.interval {
		return
	}
	s.sinceRun = 0
	s.write()
}

// Flush writes whatever is buffered. Called on shutdown.
func (s *JournalSystem) Flush() {
	s.write()
}

// Buffered returns the number of entries waiting for the next write.
func (s *JournalSystem) Buffered() int { return len(s.buf) }

func (s *JournalSystem) write() {
	if len(s.buf) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.out.Write(ctx, s.buf); err != nil {
		// Keep the entries; the next interval retries them.
		s.log.Error("journal write failed", zap.Int("entries", len(s.buf)), zap.Error(err))
		return
	}
	s.log.Debug("journal written", zap.Int("entries", len(s.buf)))
	s.buf = s.buf[:0]
}
