package sample

import (
	"fmt"
	"io"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/musig/pkg/math/curve"
)

const maxIterations = 255

var ErrMaxIterations = fmt.Errorf("sample: failed to generate after %d iterations", maxIterations)

func mustReadBits(rand io.Reader, buf []byte) {
	for i := 0; i < maxIterations; i++ {
		if _, err := io.ReadFull(rand, buf); err == nil {
			return
		}
	}
	panic(ErrMaxIterations)
}

// Scalar returns a new uniformly random Scalar of the given group.
//
// Twice as many bytes as the size of the group order are read, so that the bias
// introduced by the reduction is negligible.
func Scalar(rand io.Reader, group curve.Curve) curve.Scalar {
	buf := make([]byte, group.SafeScalarBytes())
	mustReadBits(rand, buf)
	out := new(saferith.Nat).SetBytes(buf)
	return group.NewScalar().SetNat(out)
}

// ScalarUnit returns a new uniformly random non-zero Scalar.
func ScalarUnit(rand io.Reader, group curve.Curve) curve.Scalar {
	for i := 0; i < maxIterations; i++ {
		s := Scalar(rand, group)
		if !s.IsZero() {
			return s
		}
	}
	panic(ErrMaxIterations)
}

// ScalarPointPair returns a new non-zero Scalar x, along with X = x•G.
func ScalarPointPair(rand io.Reader, group curve.Curve) (curve.Scalar, curve.Point) {
	s := ScalarUnit(rand, group)
	return s, s.ActOnBase()
}
