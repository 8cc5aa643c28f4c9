package command

// Batch is the ordered set of operations produced by exactly one job.
type Batch struct {
	JobID uint64
	Ops   []Op
}

func (b Batch) Len() int { return len(b.Ops) }

// Queue accumulates batches during a tick. Owned by the tick loop.
type Queue struct {
	batches []Batch
	applied uint64
}

func NewQueue() *Queue {
	return &Queue{batches: make([]Batch, 0, 32)}
}

// Append adds a batch behind everything already queued. Empty batches are
// dropped.
func (q *Queue) Append(b Batch) {
	if len(b.Ops) == 0 {
		return
	}
	q.batches = append(q.batches, b)
}

// Len returns the number of queued batches.
func (q *Queue) Len() int { return len(q.batches) }

// Apply runs every queued batch, in append order and each in full, then
// clears the queue. Returns the number of batches and ops applied.
func (q *Queue) Apply(ctx *Context) (batches, ops int) {
	if len(q.batches) == 0 {
		return 0, 0
	}
	for _, b := range q.batches {
		for _, op := range b.Ops {
			op.Apply(ctx)
			ops++
		}
		batches++
	}
	clear(q.batches) // drop handle references held by applied ops
	q.batches = q.batches[:0]
	q.applied += uint64(batches)
	return batches, ops
}

// Applied returns the total number of batches applied so far.
func (q *Queue) Applied() uint64 { return q.applied }
