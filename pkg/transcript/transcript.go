// Package transcript implements a Fiat-Shamir transcript on top of pkg/hash.
//
// Every value is appended under a label, and the pair is length framed, so that
// two transcripts derive the same challenges exactly when they were fed the same
// sequence of labels and values.
package transcript

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/musig/internal/params"
	"github.com/taurusgroup/musig/pkg/hash"
	"github.com/taurusgroup/musig/pkg/math/curve"
)

const domainSeparatorLabel = "dom-sep"

// Transcript is a stateful, order sensitive record of a protocol execution.
//
// A Transcript is not safe for concurrent use, use Clone to hand out copies.
type Transcript struct {
	h *hash.Hash
}

// New returns a Transcript initialized with a protocol label.
func New(label string) *Transcript {
	t := &Transcript{h: hash.New()}
	t.AppendMessage(domainSeparatorLabel, []byte(label))
	return t
}

// AppendMessage commits message to the transcript under label.
func (t *Transcript) AppendMessage(label string, message []byte) {
	// writing BytesWithDomain to a blake3 state cannot fail
	_ = t.h.WriteAny(&hash.BytesWithDomain{TheDomain: label, Bytes: message})
}

// AppendUint64 commits x to the transcript under label, as 8 little-endian bytes.
func (t *Transcript) AppendUint64(label string, x uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], x)
	t.AppendMessage(label, buf[:])
}

// AppendPoint commits the compressed encoding of p under label.
//
// It is equivalent to calling AppendMessage with the output of p.MarshalBinary().
func (t *Transcript) AppendPoint(label string, p curve.Point) error {
	data, err := p.MarshalBinary()
	if err != nil {
		return fmt.Errorf("transcript.AppendPoint: %w", err)
	}
	t.AppendMessage(label, data)
	return nil
}

// ChallengeBytes returns n bytes derived from the current state.
//
// The request itself is appended to the transcript, so that subsequent challenges
// depend on this one having been drawn.
func (t *Transcript) ChallengeBytes(label string, n int) []byte {
	t.AppendUint64(label, uint64(n))
	out := make([]byte, n)
	if _, err := io.ReadFull(t.h.Digest(), out); err != nil {
		panic(fmt.Sprintf("transcript.ChallengeBytes: internal hash failure: %v", err))
	}
	return out
}

// ChallengeScalar returns a uniformly distributed scalar of the given group, derived from the current state.
func (t *Transcript) ChallengeScalar(label string, group curve.Curve) curve.Scalar {
	data := t.ChallengeBytes(label, group.SafeScalarBytes())
	return group.NewScalar().SetNat(new(saferith.Nat).SetBytes(data))
}

// BuildRNG returns a stream of bytes bound to the current state of the transcript,
// to the secret witness, and to fresh randomness drawn from rand.
//
// The transcript itself is left untouched.
// Even if rand is faulty, two different transcripts give two different streams for the same witness,
// and even if witness and transcript repeat, good randomness yields a fresh stream.
func (t *Transcript) BuildRNG(label string, witness []byte, rand io.Reader) (io.Reader, error) {
	h := t.h.Clone()
	if err := h.WriteAny(&hash.BytesWithDomain{TheDomain: label, Bytes: witness}); err != nil {
		return nil, fmt.Errorf("transcript.BuildRNG: %w", err)
	}
	entropy := make([]byte, params.SecBytes)
	if _, err := io.ReadFull(rand, entropy); err != nil {
		return nil, fmt.Errorf("transcript.BuildRNG: failed to read randomness: %w", err)
	}
	if err := h.WriteAny(&hash.BytesWithDomain{TheDomain: "rng", Bytes: entropy}); err != nil {
		return nil, fmt.Errorf("transcript.BuildRNG: %w", err)
	}
	return h.Digest(), nil
}

// Clone returns an independent copy of the transcript in its current state.
func (t *Transcript) Clone() *Transcript {
	return &Transcript{h: t.h.Clone()}
}
