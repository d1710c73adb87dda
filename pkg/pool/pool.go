package pool

import (
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// parallelizeAlone calculates the result of f count times, on the current goroutine.
func parallelizeAlone(count int, f func(int) error) []error {
	results := make([]error, count)
	for i := 0; i < len(results); i++ {
		results[i] = f(i)
	}
	return results
}

// Pool represents a bounded set of workers, used for parallelizing functions.
//
// Functions needing a *Pool will work with a nil receiver, doing the equivalent
// work on the current goroutine instead.
type Pool struct {
	workerCount int
	closed      atomic.Bool
}

// NewPool creates a new pool, with a certain number of workers.
//
// If count <= 0, this will use the number of available CPUs instead.
func NewPool(count int) *Pool {
	if count <= 0 {
		count = runtime.NumCPU()
	}
	return &Pool{workerCount: count}
}

// TearDown releases the pool. Later calls run on the calling goroutine.
func (p *Pool) TearDown() {
	if p == nil {
		return
	}
	p.closed.Store(true)
}

// Workers returns the maximum number of functions run concurrently.
func (p *Pool) Workers() int {
	if p == nil || p.closed.Load() {
		return 1
	}
	return p.workerCount
}

// Parallelize calls a function count times, passing in indices from 0..count-1.
//
// The result will be a slice containing [f(0), f(1), ..., f(count - 1)].
// Every call is made, even when some of them fail.
func (p *Pool) Parallelize(count int, f func(int) error) []error {
	if p == nil || p.closed.Load() || count <= 1 {
		return parallelizeAlone(count, f)
	}

	results := make([]error, count)
	var g errgroup.Group
	g.SetLimit(p.workerCount)
	for i := 0; i < count; i++ {
		i := i
		g.Go(func() error {
			results[i] = f(i)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// FirstError returns the index and value of the first non nil error in errs,
// or (-1, nil) if there are none.
func FirstError(errs []error) (int, error) {
	for i, err := range errs {
		if err != nil {
			return i, err
		}
	}
	return -1, nil
}
