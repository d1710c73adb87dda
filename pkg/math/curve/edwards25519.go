package curve

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/cronokirby/saferith"
	"go.dedis.ch/kyber/v4"
	"go.dedis.ch/kyber/v4/group/edwards25519"
)

var ed25519Group kyber.Group = edwards25519.NewBlakeSHA256Ed25519()

var (
	ed25519Order *saferith.Modulus
	// ed25519OrderMinusOne = ℓ - 1, used to check that a point lies in the prime order subgroup.
	ed25519OrderMinusOne kyber.Scalar
)

func init() {
	l, _ := hex.DecodeString("1000000000000000000000000000000014def9dea2f79cd65812631a5cf5d3ed")
	ed25519Order = saferith.ModulusFromBytes(l)
	ed25519OrderMinusOne = ed25519Group.Scalar().Neg(ed25519Group.Scalar().One())
}

const ed25519ElementBytes = 32

// Edwards25519 is the prime order subgroup of the twisted Edwards form of Curve25519.
//
// Scalars and compressed points are both encoded on 32 bytes, little-endian.
type Edwards25519 struct{}

func (Edwards25519) NewPoint() Point {
	return &Edwards25519Point{value: ed25519Group.Point().Null()}
}

func (Edwards25519) NewBasePoint() Point {
	return &Edwards25519Point{value: ed25519Group.Point().Base()}
}

func (Edwards25519) NewScalar() Scalar {
	return &Edwards25519Scalar{value: ed25519Group.Scalar().Zero()}
}

func (Edwards25519) Name() string {
	return "edwards25519"
}

func (Edwards25519) ScalarBits() int {
	return 253
}

func (Edwards25519) SafeScalarBytes() int {
	return 2 * ed25519ElementBytes
}

func (Edwards25519) Order() *saferith.Modulus {
	return ed25519Order
}

// Edwards25519Scalar is an integer modulo ℓ = 2²⁵² + 27742317777372353535851937790883648493.
type Edwards25519Scalar struct {
	value kyber.Scalar
}

func ed25519CastScalar(generic Scalar) *Edwards25519Scalar {
	out, ok := generic.(*Edwards25519Scalar)
	if !ok {
		panic(fmt.Sprintf("failed to convert to edwards25519Scalar: %v", generic))
	}
	return out
}

func (s *Edwards25519Scalar) scalar() kyber.Scalar {
	if s.value == nil {
		s.value = ed25519Group.Scalar().Zero()
	}
	return s.value
}

func (*Edwards25519Scalar) Curve() Curve {
	return Edwards25519{}
}

// MarshalBinary implements encoding.BinaryMarshaler, using 32 little-endian bytes.
func (s *Edwards25519Scalar) MarshalBinary() ([]byte, error) {
	return s.scalar().MarshalBinary()
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
//
// Only canonical encodings, strictly smaller than ℓ, are accepted.
func (s *Edwards25519Scalar) UnmarshalBinary(data []byte) error {
	if len(data) != ed25519ElementBytes {
		return fmt.Errorf("invalid length for edwards25519 scalar: %d", len(data))
	}
	reduced := ed25519Group.Scalar().SetBytes(data)
	canonical, err := reduced.MarshalBinary()
	if err != nil {
		return fmt.Errorf("edwards25519Scalar.UnmarshalBinary: %w", err)
	}
	if !bytes.Equal(canonical, data) {
		return errors.New("invalid bytes for edwards25519 scalar: value >= order")
	}
	s.value = reduced
	return nil
}

func (s *Edwards25519Scalar) Add(that Scalar) Scalar {
	other := ed25519CastScalar(that)

	s.value = ed25519Group.Scalar().Add(s.scalar(), other.scalar())
	return s
}

func (s *Edwards25519Scalar) Sub(that Scalar) Scalar {
	other := ed25519CastScalar(that)

	s.value = ed25519Group.Scalar().Sub(s.scalar(), other.scalar())
	return s
}

func (s *Edwards25519Scalar) Mul(that Scalar) Scalar {
	other := ed25519CastScalar(that)

	s.value = ed25519Group.Scalar().Mul(s.scalar(), other.scalar())
	return s
}

func (s *Edwards25519Scalar) Negate() Scalar {
	s.value = ed25519Group.Scalar().Neg(s.scalar())
	return s
}

func (s *Edwards25519Scalar) Invert() Scalar {
	s.value = ed25519Group.Scalar().Inv(s.scalar())
	return s
}

func (s *Edwards25519Scalar) Equal(that Scalar) bool {
	other, ok := that.(*Edwards25519Scalar)
	if !ok {
		return false
	}
	return s.scalar().Equal(other.scalar())
}

func (s *Edwards25519Scalar) IsZero() bool {
	return s.scalar().Equal(ed25519Group.Scalar().Zero())
}

func (s *Edwards25519Scalar) Set(that Scalar) Scalar {
	other := ed25519CastScalar(that)

	s.value = ed25519Group.Scalar().Set(other.scalar())
	return s
}

func (s *Edwards25519Scalar) SetNat(x *saferith.Nat) Scalar {
	reduced := new(saferith.Nat).Mod(x, ed25519Order)
	// saferith produces big-endian bytes, kyber expects little-endian
	be := reduced.Bytes()
	le := make([]byte, len(be))
	for i := range be {
		le[len(be)-1-i] = be[i]
	}
	s.value = ed25519Group.Scalar().SetBytes(le)
	return s
}

func (s *Edwards25519Scalar) Act(that Point) Point {
	other := ed25519CastPoint(that)
	return &Edwards25519Point{value: ed25519Group.Point().Mul(s.scalar(), other.point())}
}

func (s *Edwards25519Scalar) ActOnBase() Point {
	return &Edwards25519Point{value: ed25519Group.Point().Mul(s.scalar(), nil)}
}

// Edwards25519Point is an element of the prime order subgroup of edwards25519.
type Edwards25519Point struct {
	value kyber.Point
}

func ed25519CastPoint(generic Point) *Edwards25519Point {
	out, ok := generic.(*Edwards25519Point)
	if !ok {
		panic(fmt.Sprintf("failed to convert to edwards25519Point: %v", generic))
	}
	return out
}

func (p *Edwards25519Point) point() kyber.Point {
	if p.value == nil {
		p.value = ed25519Group.Point().Null()
	}
	return p.value
}

func (*Edwards25519Point) Curve() Curve {
	return Edwards25519{}
}

// MarshalBinary implements encoding.BinaryMarshaler, using the 32 byte compressed format.
//
// Like secp256k1, the identity is refused.
func (p *Edwards25519Point) MarshalBinary() ([]byte, error) {
	if p.IsIdentity() {
		return nil, errors.New("edwards25519Point.MarshalBinary: tried to marshal identity")
	}
	return p.point().MarshalBinary()
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
//
// The encoding must be canonical, and the point must be a non-identity element
// of the prime order subgroup.
func (p *Edwards25519Point) UnmarshalBinary(data []byte) error {
	if len(data) != ed25519ElementBytes {
		return fmt.Errorf("invalid length for edwards25519Point: %d", len(data))
	}
	decoded := ed25519Group.Point()
	if err := decoded.UnmarshalBinary(data); err != nil {
		return fmt.Errorf("edwards25519Point.UnmarshalBinary: %w", err)
	}
	canonical, err := decoded.MarshalBinary()
	if err != nil || !bytes.Equal(canonical, data) {
		return errors.New("edwards25519Point.UnmarshalBinary: non canonical encoding")
	}
	if decoded.Equal(ed25519Group.Point().Null()) {
		return errors.New("edwards25519Point.UnmarshalBinary: point is the identity")
	}
	// (ℓ - 1)⋅P + P = ℓ⋅P must be the identity, which rules out any torsion component.
	lP := ed25519Group.Point().Mul(ed25519OrderMinusOne, decoded)
	lP = ed25519Group.Point().Add(lP, decoded)
	if !lP.Equal(ed25519Group.Point().Null()) {
		return errors.New("edwards25519Point.UnmarshalBinary: point is not in the prime order subgroup")
	}
	p.value = decoded
	return nil
}

func (p *Edwards25519Point) Add(that Point) Point {
	other := ed25519CastPoint(that)

	return &Edwards25519Point{value: ed25519Group.Point().Add(p.point(), other.point())}
}

func (p *Edwards25519Point) Sub(that Point) Point {
	other := ed25519CastPoint(that)

	return &Edwards25519Point{value: ed25519Group.Point().Sub(p.point(), other.point())}
}

func (p *Edwards25519Point) Negate() Point {
	return &Edwards25519Point{value: ed25519Group.Point().Neg(p.point())}
}

func (p *Edwards25519Point) Set(that Point) Point {
	other := ed25519CastPoint(that)

	p.value = ed25519Group.Point().Set(other.point())
	return p
}

func (p *Edwards25519Point) Equal(that Point) bool {
	other, ok := that.(*Edwards25519Point)
	if !ok {
		return false
	}
	return p.point().Equal(other.point())
}

func (p *Edwards25519Point) IsIdentity() bool {
	return p.point().Equal(ed25519Group.Point().Null())
}
