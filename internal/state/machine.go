package state

import "go.uber.org/zap"

// Hook runs on a screen transition with the dependencies the screen needs.
type Hook[D any] func(d D)

// Machine holds the active state and the per-state hooks. Transitions are
// requested with Set and take effect on the next Apply, so hooks always run
// at the same point of a tick. Tick-loop only.
type Machine[D any] struct {
	current GameState
	next    GameState
	pending bool
	started bool

	onEnter map[GameState][]Hook[D]
	onExit  map[GameState][]Hook[D]

	log *zap.Logger
}

func NewMachine[D any](initial GameState, log *zap.Logger) *Machine[D] {
	if log == nil {
		log = zap.NewNop()
	}
	return &Machine[D]{
		current: initial,
		onEnter: make(map[GameState][]Hook[D]),
		onExit:  make(map[GameState][]Hook[D]),
		log:     log,
	}
}

// OnEnter appends hooks run, in order, when s becomes active.
func (m *Machine[D]) OnEnter(s GameState, hooks ...Hook[D]) {
	m.onEnter[s] = append(m.onEnter[s], hooks...)
}

// OnExit appends hooks run, in order, when s stops being active.
func (m *Machine[D]) OnExit(s GameState, hooks ...Hook[D]) {
	m.onExit[s] = append(m.onExit[s], hooks...)
}

func (m *Machine[D]) Current() GameState { return m.current }

// Started reports whether the initial state's enter hooks have run.
func (m *Machine[D]) Started() bool { return m.started }

// Set requests a transition. The last request before Apply wins.
func (m *Machine[D]) Set(next GameState) {
	m.next = next
	m.pending = true
}

// Start runs the initial state's enter hooks. Later calls do nothing.
func (m *Machine[D]) Start(d D) {
	if m.started {
		return
	}
	m.started = true
	m.log.Info("entering initial state", zap.Stringer("state", m.current))
	m.run(m.onEnter[m.current], d)
}

// Apply performs the pending transition, if any: exit hooks of the current
// state, then enter hooks of the next. Requesting the active state is a no-op.
func (m *Machine[D]) Apply(d D) (from, to GameState, changed bool) {
	if !m.started {
		m.Start(d)
	}
	if !m.pending {
		return m.current, m.current, false
	}
	m.pending = false
	if m.next == m.current {
		return m.current, m.current, false
	}

	from, to = m.current, m.next
	m.log.Info("state transition", zap.Stringer("from", from), zap.Stringer("to", to))
	m.run(m.onExit[from], d)
	m.current = to
	m.run(m.onEnter[to], d)
	return from, to, true
}

func (m *Machine[D]) run(hooks []Hook[D], d D) {
	for _, h := range hooks {
		h(d)
	}
}
