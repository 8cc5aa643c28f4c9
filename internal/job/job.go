// Package job runs background work off the tick loop. A job sleeps for a
// simulated cost, computes a pure result and hands back a command.Batch; it
// never touches world state itself.
package job

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/cubefield/server/internal/asset"
	"github.com/cubefield/server/internal/command"
	"github.com/cubefield/server/internal/component"
	"github.com/cubefield/server/internal/core/ecs"
)

// Job is a unit of background work executed by a Pool.
type Job interface {
	// Wait is the suspension phase. It must return early with ctx.Err()
	// when ctx is cancelled.
	Wait(ctx context.Context) error
	// Compute builds the batch. It runs under the pool's worker limit.
	Compute(ctx context.Context) (command.Batch, error)
}

// DelayRange is a uniform interval a job samples its simulated cost from.
type DelayRange struct {
	Min time.Duration
	Max time.Duration
}

// Sample returns a duration in [Min, Max). Max <= Min always yields Min.
func (d DelayRange) Sample(r *rand.Rand) time.Duration {
	span := int64(d.Max - d.Min)
	if span <= 0 {
		return d.Min
	}
	if r == nil {
		return d.Min + time.Duration(rand.Int64N(span))
	}
	return d.Min + time.Duration(r.Int64N(span))
}

// Placement is the computed value of a spawn job before it is packaged.
type Placement struct {
	Cell     component.Cell
	Position component.Vec3
}

// Placer turns a grid cell into a world position. Implementations must be
// safe for concurrent use.
type Placer interface {
	Place(ctx context.Context, cell component.Cell) (Placement, error)
}

// GridPlacer maps cell (x,y,z) to Origin + (x,y,z)*Spacing.
type GridPlacer struct {
	Origin  component.Vec3
	Spacing float32
}

func (g GridPlacer) Place(_ context.Context, cell component.Cell) (Placement, error) {
	s := g.Spacing
	if s == 0 {
		s = 1
	}
	pos := component.Vec3{X: float32(cell.X), Y: float32(cell.Y), Z: float32(cell.Z)}
	return Placement{Cell: cell, Position: g.Origin.Add(pos.Scale(s))}, nil
}

// SpawnJob computes where one cube goes and packages the batch that
// materializes it on Slot.
type SpawnJob struct {
	ID       uint64
	Slot     ecs.EntityID
	Cell     component.Cell
	Mesh     asset.Handle[asset.Mesh]
	Material asset.Handle[asset.Material]
	Tag      component.ScreenTag
	Delay    DelayRange
	Rand     *rand.Rand // owned by this job only
	Placer   Placer
}

func (j *SpawnJob) Wait(ctx context.Context) error {
	d := j.Delay.Sample(j.Rand)
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (j *SpawnJob) Compute(ctx context.Context) (command.Batch, error) {
	placer := j.Placer
	if placer == nil {
		placer = GridPlacer{Spacing: 1}
	}
	p, err := placer.Place(ctx, j.Cell)
	if err != nil {
		return command.Batch{}, fmt.Errorf("place cell %v: %w", j.Cell, err)
	}
	return command.Batch{
		JobID: j.ID,
		Ops: []command.Op{
			command.SpawnRenderable{
				Slot:     j.Slot,
				JobID:    j.ID,
				Position: p.Position,
				Mesh:     j.Mesh,
				Material: j.Material,
				Tag:      j.Tag,
			},
			command.ClearComputeTask{Slot: j.Slot},
		},
	}, nil
}
