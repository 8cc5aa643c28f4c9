package job

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/cubefield/server/internal/command"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// ErrPoolStopped is returned by Submit after Stop was called.
var ErrPoolStopped = errors.New("job: pool stopped")

// Stats is a point-in-time view of pool activity.
type Stats struct {
	Submitted int64
	InFlight  int64
	Completed int64
	Failed    int64
}

// Pool executes jobs off the tick loop. Every job gets its own goroutine for
// the Wait phase; Compute phases are limited to Workers at a time. The number
// of outstanding jobs is not bounded.
type Pool struct {
	workers int
	sem     *semaphore.Weighted
	log     *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	stopped bool

	submitted atomic.Int64
	inFlight  atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithWorkers sets how many jobs may be in their Compute phase at once.
func WithWorkers(n int) PoolOption {
	return func(p *Pool) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithLogger sets the pool logger.
func WithLogger(log *zap.Logger) PoolOption {
	return func(p *Pool) { p.log = log }
}

func NewPool(opts ...PoolOption) *Pool {
	p := &Pool{
		workers: 4,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.sem = semaphore.NewWeighted(int64(p.workers))
	p.ctx, p.cancel = context.WithCancel(context.Background())
	return p
}

func (p *Pool) Workers() int { return p.workers }

// Submit starts j in the background and returns its future. It never blocks
// on the job.
func (p *Pool) Submit(id uint64, j Job) (*Task, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return nil, ErrPoolStopped
	}
	t := newTask(id)
	p.submitted.Add(1)
	p.inFlight.Add(1)
	p.wg.Add(1)
	go p.run(t, j)
	return t, nil
}

// Stop cancels every job still waiting or computing and waits for their
// goroutines to exit, or for ctx to expire. Cancelled jobs never resolve.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	p.mu.Unlock()

	p.log.Info("job pool stopping", zap.Int64("in_flight", p.inFlight.Load()))
	p.cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.log.Info("job pool stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stop job pool: %w", ctx.Err())
	}
}

func (p *Pool) Stats() Stats {
	return Stats{
		Submitted: p.submitted.Load(),
		InFlight:  p.inFlight.Load(),
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
	}
}

func (p *Pool) run(t *Task, j Job) {
	defer p.wg.Done()
	defer p.inFlight.Add(-1)
	defer func() {
		if r := recover(); r != nil {
			p.failed.Add(1)
			p.log.Error("job panicked, it will not complete",
				zap.Uint64("job", t.id),
				zap.Any("panic", r),
				zap.String("stack", string(debug.Stack())),
			)
		}
	}()

	if err := j.Wait(p.ctx); err != nil {
		p.fail(t, "wait", err)
		return
	}
	b, err := p.compute(j)
	if err != nil {
		p.fail(t, "compute", err)
		return
	}
	t.resolve(b)
	p.completed.Add(1)
}

func (p *Pool) compute(j Job) (b command.Batch, err error) {
	if err := p.sem.Acquire(p.ctx, 1); err != nil {
		return b, err
	}
	defer p.sem.Release(1)
	return j.Compute(p.ctx)
}

func (p *Pool) fail(t *Task, stage string, err error) {
	if errors.Is(err, context.Canceled) && p.ctx.Err() != nil {
		return // pool shutdown
	}
	p.failed.Add(1)
	p.log.Warn("job failed, it will not complete",
		zap.Uint64("job", t.id), zap.String("stage", stage), zap.Error(err))
}
