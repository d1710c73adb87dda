package hash

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/cronokirby/saferith"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/musig/pkg/math/curve"
	"github.com/taurusgroup/musig/pkg/math/sample"
)

func TestHash_WriteAny(t *testing.T) {
	var err error

	testFunc := func(vs ...interface{}) error {
		h := New()
		for _, v := range vs {
			err = h.WriteAny(v)
			if err != nil {
				return err
			}
		}
		return nil
	}

	group := curve.Secp256k1{}
	assert.NoError(t, testFunc(new(saferith.Nat).SetUint64(35)))
	assert.NoError(t, testFunc(sample.Scalar(rand.Reader, group)))
	assert.NoError(t, testFunc(sample.Scalar(rand.Reader, group).ActOnBase()))
	assert.NoError(t, testFunc([]byte{1, 4, 6}))
	assert.NoError(t, testFunc(uint64(7)))

	var i *saferith.Nat
	assert.Error(t, testFunc(i))

	// the identity cannot be encoded
	assert.Error(t, testFunc(group.NewPoint()))

	assert.Panics(t, func() { _ = testFunc("unsupported") })
}

func TestHash_DomainSeparation(t *testing.T) {
	sum := func(vs ...interface{}) []byte {
		h := New()
		require.NoError(t, h.WriteAny(vs...))
		return h.Sum()
	}

	// moving a byte from one write to the next must change the output
	assert.NotEqual(t, sum([]byte{1, 2}, []byte{3}), sum([]byte{1}, []byte{2, 3}))
	// same bytes under different domains
	assert.NotEqual(t,
		sum(&BytesWithDomain{"a", []byte{1}}),
		sum(&BytesWithDomain{"b", []byte{1}}))
	assert.Equal(t, sum([]byte("x"), uint64(3)), sum([]byte("x"), uint64(3)))
}

func TestHash_Clone(t *testing.T) {
	h := New(&BytesWithDomain{"init", []byte("data")})
	c := h.Clone()
	assert.True(t, bytes.Equal(h.Sum(), c.Sum()))

	require.NoError(t, c.WriteAny([]byte{1}))
	assert.False(t, bytes.Equal(h.Sum(), c.Sum()))

	assert.Len(t, h.Sum(), DigestLengthBytes)
}
