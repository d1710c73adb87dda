package transcript

import (
	"bytes"
	"crypto/rand"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/musig/pkg/math/curve"
	"github.com/taurusgroup/musig/pkg/math/sample"
)

func TestTranscript_Deterministic(t *testing.T) {
	group := curve.Edwards25519{}
	P := sample.Scalar(rand.Reader, group).ActOnBase()

	run := func() *Transcript {
		tr := New("test")
		tr.AppendMessage("m", []byte("hello"))
		tr.AppendUint64("n", 3)
		require.NoError(t, tr.AppendPoint("P", P))
		return tr
	}

	a, b := run(), run()
	assert.Equal(t, a.ChallengeBytes("c", 32), b.ChallengeBytes("c", 32))
	assert.True(t, a.ChallengeScalar("s", group).Equal(b.ChallengeScalar("s", group)))
}

func TestTranscript_OrderSensitive(t *testing.T) {
	a := New("test")
	a.AppendMessage("x", []byte{1})
	a.AppendMessage("y", []byte{2})

	b := New("test")
	b.AppendMessage("y", []byte{2})
	b.AppendMessage("x", []byte{1})

	assert.NotEqual(t, a.ChallengeBytes("c", 32), b.ChallengeBytes("c", 32))

	c, d := New("one"), New("two")
	assert.NotEqual(t, c.ChallengeBytes("c", 32), d.ChallengeBytes("c", 32))
}

func TestTranscript_ChallengeRatchets(t *testing.T) {
	tr := New("test")
	first := tr.ChallengeBytes("c", 32)
	second := tr.ChallengeBytes("c", 32)
	assert.NotEqual(t, first, second)
}

func TestTranscript_AppendPointMatchesMessage(t *testing.T) {
	group := curve.Secp256k1{}
	P := sample.Scalar(rand.Reader, group).ActOnBase()
	data, err := P.MarshalBinary()
	require.NoError(t, err)

	a, b := New("test"), New("test")
	require.NoError(t, a.AppendPoint("P", P))
	b.AppendMessage("P", data)
	assert.Equal(t, a.ChallengeBytes("c", 32), b.ChallengeBytes("c", 32))

	assert.Error(t, a.AppendPoint("O", group.NewPoint()))
}

func TestTranscript_Clone(t *testing.T) {
	a := New("test")
	a.AppendMessage("m", []byte("msg"))
	b := a.Clone()
	b.AppendMessage("extra", nil)
	assert.NotEqual(t, a.Clone().ChallengeBytes("c", 32), b.ChallengeBytes("c", 32))

	c := a.Clone()
	assert.Equal(t, a.ChallengeBytes("c", 32), c.ChallengeBytes("c", 32))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("no entropy") }

func TestTranscript_BuildRNG(t *testing.T) {
	tr := New("test")
	before := tr.Clone().ChallengeBytes("c", 32)

	seed := bytes.Repeat([]byte{7}, 32)
	read := func(tr *Transcript, witness []byte) []byte {
		rng, err := tr.BuildRNG("x", witness, bytes.NewReader(seed))
		require.NoError(t, err)
		out := make([]byte, 32)
		_, err = io.ReadFull(rng, out)
		require.NoError(t, err)
		return out
	}

	// the transcript is not modified
	w := read(tr, []byte("witness"))
	assert.Equal(t, before, tr.Clone().ChallengeBytes("c", 32))

	// bound to the witness
	assert.NotEqual(t, w, read(tr, []byte("other witness")))

	// bound to the transcript, even with the same randomness
	other := New("test")
	other.AppendMessage("m", []byte("different message"))
	assert.NotEqual(t, w, read(other, []byte("witness")))

	// fresh randomness gives fresh output
	rng1, err := tr.BuildRNG("x", []byte("witness"), rand.Reader)
	require.NoError(t, err)
	rng2, err := tr.BuildRNG("x", []byte("witness"), rand.Reader)
	require.NoError(t, err)
	out1, out2 := make([]byte, 32), make([]byte, 32)
	_, _ = io.ReadFull(rng1, out1)
	_, _ = io.ReadFull(rng2, out2)
	assert.NotEqual(t, out1, out2)

	_, err = tr.BuildRNG("x", nil, failingReader{})
	assert.Error(t, err)
}
