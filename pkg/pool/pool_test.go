package pool

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParallelize(t *testing.T) {
	errOdd := errors.New("odd")
	f := func(i int) error {
		if i%2 == 1 {
			return errOdd
		}
		return nil
	}

	for _, pl := range []*Pool{nil, NewPool(0), NewPool(3)} {
		results := pl.Parallelize(10, f)
		assert.Len(t, results, 10)
		for i, err := range results {
			if i%2 == 1 {
				assert.ErrorIs(t, err, errOdd)
			} else {
				assert.NoError(t, err)
			}
		}
		i, err := FirstError(results)
		assert.Equal(t, 1, i)
		assert.ErrorIs(t, err, errOdd)
		pl.TearDown()
	}
}

func TestParallelizeCallsEveryIndex(t *testing.T) {
	pl := NewPool(4)
	defer pl.TearDown()

	var calls atomic.Int64
	pl.Parallelize(100, func(int) error {
		calls.Add(1)
		return nil
	})
	assert.EqualValues(t, 100, calls.Load())
}

func TestTearDown(t *testing.T) {
	pl := NewPool(4)
	assert.Equal(t, 4, pl.Workers())
	pl.TearDown()
	assert.Equal(t, 1, pl.Workers())
	assert.Len(t, pl.Parallelize(3, func(int) error { return nil }), 3)

	var nilPool *Pool
	assert.Equal(t, 1, nilPool.Workers())

	i, err := FirstError([]error{nil, nil})
	assert.Equal(t, -1, i)
	assert.NoError(t, err)
}
