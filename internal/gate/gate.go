// Package gate bounds how many report generations may run at the same time.
package gate

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// DefaultCapacity serializes report generation.
const DefaultCapacity = 1

// Gate is a counting semaphore with FIFO hand-off. A slot released while callers
// are waiting goes to the caller that has been waiting the longest.
//
// Every successful Acquire must be paired with exactly one Release, normally in a
// defer right after Acquire returns nil.
type Gate struct {
	sem      *semaphore.Weighted
	capacity int64
	inUse    atomic.Int64
	waiting  atomic.Int64
}

// New creates a gate with the given number of slots.
func New(capacity int) (*Gate, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("gate capacity must be at least 1, got: %d", capacity)
	}
	return &Gate{
		sem:      semaphore.NewWeighted(int64(capacity)),
		capacity: int64(capacity),
	}, nil
}

// Acquire blocks until a slot is available or ctx is done. On error no slot is
// held and Release must not be called. Callers that get a free slot right away
// are never counted as waiting.
func (g *Gate) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to acquire report slot: %w", err)
	}
	if g.TryAcquire() {
		return nil
	}

	g.waiting.Add(1)
	err := g.sem.Acquire(ctx, 1)
	g.waiting.Add(-1)
	if err != nil {
		return fmt.Errorf("failed to acquire report slot: %w", err)
	}
	g.inUse.Add(1)
	return nil
}

// TryAcquire reserves a slot only if one is free right now.
func (g *Gate) TryAcquire() bool {
	if !g.sem.TryAcquire(1) {
		return false
	}
	g.inUse.Add(1)
	return true
}

// Release frees one slot. Releasing more slots than are held panics.
func (g *Gate) Release() {
	if g.inUse.Add(-1) < 0 {
		g.inUse.Add(1)
		panic("gate: release without matching acquire")
	}
	g.sem.Release(1)
}

// Capacity returns the configured number of slots.
func (g *Gate) Capacity() int {
	return int(g.capacity)
}

// InUse returns the number of slots currently held.
func (g *Gate) InUse() int {
	return int(g.inUse.Load())
}

// Waiting returns the number of callers blocked in Acquire.
func (g *Gate) Waiting() int {
	return int(g.waiting.Load())
}
