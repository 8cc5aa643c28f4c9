package system

import (
	"time"

	"github.com/cubefield/server/internal/core/event"
	coresys "github.com/cubefield/server/internal/core/system"
	"github.com/cubefield/server/internal/display"
	"go.uber.org/zap"
)

// Publisher receives encoded display messages. Implemented by display.Hub.
type Publisher interface {
	Publish(msg []byte)
}

// DisplaySystem forwards world changes to connected renderers. Events are
// collected by bus handlers during dispatch and published in one pass.
// Phase 4 (Output).
type DisplaySystem struct {
	out     Publisher
	log     *zap.Logger
	pending []display.Message
}

func NewDisplaySystem(bus *event.Bus, out Publisher, log *zap.Logger) *DisplaySystem {
	s := &DisplaySystem{out: out, log: log}
	event.Subscribe(bus, func(e event.EntitySpawned) {
		pos := [3]float32{e.Position.X, e.Position.Y, e.Position.Z}
		s.pending = append(s.pending, display.Message{
			Type:     display.TypeSpawn,
			Entity:   uint64(e.Entity),
			Job:      e.JobID,
			Position: &pos,
			Mesh:     e.Mesh,
			Material: e.Material,
			Screen:   e.Screen,
			Orphan:   e.Orphan,
		})
	})
	event.Subscribe(bus, func(e event.EntityDespawned) {
		s.pending = append(s.pending, display.Message{Type: display.TypeDespawn, Entity: uint64(e.Entity)})
	})
	event.Subscribe(bus, func(e event.StateChanged) {
		s.pending = append(s.pending, display.Message{Type: display.TypeState, From: e.From, To: e.To})
	})
	return s
}

func (s *DisplaySystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *DisplaySystem) Update(_ time.Duration) {
	for _, m := range s.pending {
		b, err := m.Encode()
		if err != nil {
			s.log.Error("encode display message", zap.String("type", m.Type), zap.Error(err))
			continue
		}
		s.out.Publish(b)
	}
	clear(s.pending)
	s.pending = s.pending[:0]
}
