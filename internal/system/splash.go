package system

import (
	"time"

	coresys "github.com/cubefield/server/internal/core/system"
	"github.com/cubefield/server/internal/state"
)

// Navigator is the part of the state machine screen timers need.
type Navigator interface {
	Current() state.GameState
	Set(next state.GameState)
}

// SplashSystem leaves the splash screen for the menu once it has been
// shown for the configured duration. Phase 2 (Update).
type SplashSystem struct {
	nav      Navigator
	duration time.Duration
	elapsed  time.Duration
}

func NewSplashSystem(nav Navigator, duration time.Duration) *SplashSystem {
	return &SplashSystem{nav: nav, duration: duration}
}

func (s *SplashSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *SplashSystem) Update(dt time.Duration) {
	if s.nav.Current() != state.Splash {
		s.elapsed = 0
		return
	}
	s.elapsed += dt
	if s.elapsed >= s.duration {
		s.nav.Set(state.Menu)
		s.elapsed = 0
	}
}
