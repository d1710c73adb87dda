package curve

import (
	"encoding"

	"github.com/cronokirby/saferith"
)

// Curve represents the prime order group used by a protocol.
//
// Points and Scalars are always created through a Curve, so that an implementation
// can never be mixed with the values of another group by accident.
type Curve interface {
	// NewPoint returns the identity element of the group.
	NewPoint() Point
	// NewBasePoint returns the standard generator of the group.
	NewBasePoint() Point
	// NewScalar returns the scalar 0.
	NewScalar() Scalar
	// Name returns a human readable name for the group, also used for domain separation.
	Name() string
	// ScalarBits returns the number of significant bits in a scalar.
	ScalarBits() int
	// SafeScalarBytes returns the number of random bytes needed to sample a scalar
	// with negligible bias.
	SafeScalarBytes() int
	// Order returns the order of the group, as a Modulus.
	Order() *saferith.Modulus
}

// Scalar represents an integer modulo the order of a group.
//
// Arithmetic methods modify the receiver and return it, which allows chaining:
//
//	s.Set(a).Mul(b).Add(c)
type Scalar interface {
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
	// Curve returns the group this scalar belongs to.
	Curve() Curve
	// Add sets s = s + t, and returns s.
	Add(Scalar) Scalar
	// Sub sets s = s - t, and returns s.
	Sub(Scalar) Scalar
	// Mul sets s = s * t, and returns s.
	Mul(Scalar) Scalar
	// Negate sets s = -s, and returns s.
	Negate() Scalar
	// Invert sets s = 1/s, and returns s.
	//
	// The result is undefined if s = 0.
	Invert() Scalar
	// Equal returns true if s and t represent the same integer.
	Equal(Scalar) bool
	// IsZero returns true if s = 0.
	IsZero() bool
	// Set sets s = t, and returns s.
	Set(Scalar) Scalar
	// SetNat sets s to the reduction of x modulo the group order, and returns s.
	SetNat(*saferith.Nat) Scalar
	// Act returns s * P.
	Act(Point) Point
	// ActOnBase returns s * G.
	ActOnBase() Point
}

// Point represents an element of a group.
//
// Unlike Scalar, arithmetic methods return a new Point, and leave the receiver untouched.
type Point interface {
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
	// Curve returns the group this point belongs to.
	Curve() Curve
	// Add returns P + Q.
	Add(Point) Point
	// Sub returns P - Q.
	Sub(Point) Point
	// Negate returns -P.
	Negate() Point
	// Set sets P = Q, and returns P.
	Set(Point) Point
	// Equal returns true if P and Q are the same group element.
	Equal(Point) bool
	// IsIdentity returns true if P is the identity element.
	IsIdentity() bool
}

// FromHash converts a hash value to a Scalar.
//
// There is some disagreement about how this should be done.
// [NSA] suggests that this is done in the obvious
// manner, but [SECG] truncates the hash to the bit-length of the curve order
// first. We follow [SECG] because that's what OpenSSL does. Additionally,
// OpenSSL right shifts excess bits from the number if the hash is too large
// and we mirror that too.
//
// Taken from crypto/ecdsa.
func FromHash(group Curve, h []byte) Scalar {
	order := group.Order()
	orderBits := order.BitLen()
	orderBytes := (orderBits + 7) / 8
	if len(h) > orderBytes {
		h = h[:orderBytes]
	}
	s := new(saferith.Nat).SetBytes(h)
	excess := len(h)*8 - orderBits
	if excess > 0 {
		s.Rsh(s, uint(excess), -1)
	}
	return group.NewScalar().SetNat(s)
}

// ScalarFromUint32 returns the scalar x in the given group.
func ScalarFromUint32(group Curve, x uint32) Scalar {
	return group.NewScalar().SetNat(new(saferith.Nat).SetUint64(uint64(x)))
}
