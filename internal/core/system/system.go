package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseTransition Phase = iota // 0: apply requested state change, run exit/enter hooks
	PhasePreUpdate               // 1: swap + dispatch last tick's events
	PhaseUpdate                  // 2: poll background jobs, screen timers
	PhaseApply                   // 3: apply the deferred mutation queue
	PhaseOutput                  // 4: publish to display clients
	PhasePersist                 // 5: journal flush
	PhaseCleanup                 // 6: destroy queued entities
)

func (p Phase) String() string {
	switch p {
	case PhaseTransition:
		return "transition"
	case PhasePreUpdate:
		return "pre-update"
	case PhaseUpdate:
		return "update"
	case PhaseApply:
		return "apply"
	case PhaseOutput:
		return "output"
	case PhasePersist:
		return "persist"
	case PhaseCleanup:
		return "cleanup"
	}
	return "unknown"
}

// System is the interface every ECS system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
