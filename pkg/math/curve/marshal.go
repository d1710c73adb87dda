package curve

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// FromName returns the group registered under name, as returned by Curve.Name().
func FromName(name string) (Curve, error) {
	switch name {
	case Secp256k1{}.Name():
		return Secp256k1{}, nil
	case Edwards25519{}.Name():
		return Edwards25519{}, nil
	default:
		return nil, fmt.Errorf("curve: unknown group %q", name)
	}
}

// MarshallableScalar wraps a Scalar so that it can be serialized without knowing its group in advance.
//
// The encoding carries the name of the group alongside the scalar.
type MarshallableScalar struct {
	Scalar Scalar
}

// NewMarshallableScalar wraps s.
func NewMarshallableScalar(s Scalar) *MarshallableScalar {
	return &MarshallableScalar{s}
}

type elementWithName struct {
	_    struct{} `cbor:",toarray"`
	Name string
	Data []byte
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (m *MarshallableScalar) MarshalBinary() ([]byte, error) {
	data, err := m.Scalar.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return cbor.Marshal(&elementWithName{Name: m.Scalar.Curve().Name(), Data: data})
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (m *MarshallableScalar) UnmarshalBinary(data []byte) error {
	var x elementWithName
	if err := cbor.Unmarshal(data, &x); err != nil {
		return err
	}
	group, err := FromName(x.Name)
	if err != nil {
		return err
	}
	m.Scalar = group.NewScalar()
	return m.Scalar.UnmarshalBinary(x.Data)
}

// MarshallablePoint wraps a Point so that it can be serialized without knowing its group in advance.
type MarshallablePoint struct {
	Point Point
}

// NewMarshallablePoint wraps p.
func NewMarshallablePoint(p Point) *MarshallablePoint {
	return &MarshallablePoint{p}
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (m *MarshallablePoint) MarshalBinary() ([]byte, error) {
	data, err := m.Point.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return cbor.Marshal(&elementWithName{Name: m.Point.Curve().Name(), Data: data})
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (m *MarshallablePoint) UnmarshalBinary(data []byte) error {
	var x elementWithName
	if err := cbor.Unmarshal(data, &x); err != nil {
		return err
	}
	group, err := FromName(x.Name)
	if err != nil {
		return err
	}
	m.Point = group.NewPoint()
	return m.Point.UnmarshalBinary(x.Data)
}
