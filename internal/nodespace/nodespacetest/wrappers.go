// Package nodespacetest provides Accessor wrappers for tests.
package nodespacetest

import (
	"context"
	"math/rand/v2"
	"sync"
	"sync/atomic"

	"github.com/agentic-research/pubsubconf/internal/nodespace"
)

// Shuffled answers Read batches in a random order, as a server may.
type Shuffled struct {
	nodespace.Accessor

	mu  sync.Mutex
	rng *rand.Rand
}

func NewShuffled(a nodespace.Accessor, seed uint64) *Shuffled {
	return &Shuffled{Accessor: a, rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *Shuffled) Read(ctx context.Context, reqs []nodespace.ReadRequest) ([]nodespace.ReadResult, error) {
	out, err := s.Accessor.Read(ctx, reqs)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	s.mu.Unlock()
	return out, nil
}

// Counting records how many times each primitive was called.
type Counting struct {
	nodespace.Accessor

	Browses    atomic.Int64
	Reads      atomic.Int64
	Translates atomic.Int64
}

func NewCounting(a nodespace.Accessor) *Counting {
	return &Counting{Accessor: a}
}

func (c *Counting) Browse(ctx context.Context, id nodespace.NodeID) ([]nodespace.Reference, error) {
	c.Browses.Add(1)
	return c.Accessor.Browse(ctx, id)
}

func (c *Counting) Read(ctx context.Context, reqs []nodespace.ReadRequest) ([]nodespace.ReadResult, error) {
	c.Reads.Add(1)
	return c.Accessor.Read(ctx, reqs)
}

func (c *Counting) TranslatePath(ctx context.Context, start nodespace.NodeID, path []nodespace.QualifiedName) ([]nodespace.NodeID, error) {
	c.Translates.Add(1)
	return c.Accessor.TranslatePath(ctx, start, path)
}

// CancelAfter cancels a context once n Browse calls have been served. The
// wrapped accessor then sees the cancelled context on every later call.
type CancelAfter struct {
	nodespace.Accessor

	n      int64
	calls  atomic.Int64
	cancel context.CancelFunc
}

func NewCancelAfter(a nodespace.Accessor, n int64, cancel context.CancelFunc) *CancelAfter {
	return &CancelAfter{Accessor: a, n: n, cancel: cancel}
}

func (c *CancelAfter) Browse(ctx context.Context, id nodespace.NodeID) ([]nodespace.Reference, error) {
	if c.calls.Add(1) > c.n {
		c.cancel()
	}
	return c.Accessor.Browse(ctx, id)
}
