package system

import (
	"testing"
	"time"
)

type recorder struct {
	name  string
	phase Phase
	log   *[]string
}

func (r *recorder) Phase() Phase           { return r.phase }
func (r *recorder) Update(_ time.Duration) { *r.log = append(*r.log, r.name) }

func TestRunnerOrdersByPhaseThenRegistration(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(&recorder{name: "cleanup", phase: PhaseCleanup, log: &log})
	r.Register(&recorder{name: "poll", phase: PhaseUpdate, log: &log})
	r.Register(&recorder{name: "apply", phase: PhaseApply, log: &log})
	r.Register(&recorder{name: "splash", phase: PhaseUpdate, log: &log})
	r.Register(&recorder{name: "transition", phase: PhaseTransition, log: &log})

	r.Tick(time.Millisecond)

	want := []string{"transition", "poll", "splash", "apply", "cleanup"}
	if len(log) != len(want) {
		t.Fatalf("ran %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("ran %v, want %v", log, want)
		}
	}
	if r.Ticks() != 1 {
		t.Fatalf("ticks = %d, want 1", r.Ticks())
	}
}

func TestRunnerTickPhase(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(&recorder{name: "poll", phase: PhaseUpdate, log: &log})
	r.Register(&recorder{name: "apply", phase: PhaseApply, log: &log})

	r.TickPhase(PhaseApply, 0)
	if len(log) != 1 || log[0] != "apply" {
		t.Fatalf("ran %v", log)
	}
	if r.Ticks() != 0 {
		t.Fatal("TickPhase must not count as a full tick")
	}
}
