package musig

import (
	"bytes"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/taurusgroup/musig/pkg/math/curve"
)

// VerificationKey is the compressed public key of a signer, or an aggregated key.
//
// The bytes are only decoded when the key is used, through Point.
type VerificationKey struct {
	group curve.Curve
	data  []byte
}

// NewVerificationKey wraps a compressed point of the given group.
// No validation is performed until the key is used.
func NewVerificationKey(group curve.Curve, data []byte) VerificationKey {
	return VerificationKey{
		group: group,
		data:  append([]byte(nil), data...),
	}
}

// VerificationKeyFromPoint compresses p.
func VerificationKeyFromPoint(p curve.Point) (VerificationKey, error) {
	data, err := p.MarshalBinary()
	if err != nil {
		return VerificationKey{}, fmt.Errorf("%w: %v", ErrInvalidPoint, err)
	}
	return VerificationKey{group: p.Curve(), data: data}, nil
}

// Group returns the group of the key, or nil for the zero value.
func (k VerificationKey) Group() curve.Curve {
	return k.group
}

// Bytes returns a copy of the compressed encoding.
func (k VerificationKey) Bytes() []byte {
	return append([]byte(nil), k.data...)
}

// Point decompresses the key.
func (k VerificationKey) Point() (curve.Point, error) {
	if k.group == nil {
		return nil, fmt.Errorf("%w: key has no group", ErrInvalidPoint)
	}
	p := k.group.NewPoint()
	if err := p.UnmarshalBinary(k.data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPoint, err)
	}
	return p, nil
}

// Equal returns true if both keys have the same group and the same encoding.
func (k VerificationKey) Equal(other VerificationKey) bool {
	if k.group == nil || other.group == nil {
		return k.group == nil && other.group == nil && bytes.Equal(k.data, other.data)
	}
	return k.group.Name() == other.group.Name() && bytes.Equal(k.data, other.data)
}

func (k VerificationKey) String() string {
	return fmt.Sprintf("%x", k.data)
}

// WriteTo implements io.WriterTo.
func (k VerificationKey) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(k.data)
	return int64(n), err
}

// Domain implements hash.WriterToWithDomain.
func (VerificationKey) Domain() string {
	return "MuSig.VerificationKey"
}

type verificationKeyMarshal struct {
	_     struct{} `cbor:",toarray"`
	Group string
	Data  []byte
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (k VerificationKey) MarshalBinary() ([]byte, error) {
	if k.group == nil {
		return nil, fmt.Errorf("musig: marshal verification key: %w", ErrInvalidPoint)
	}
	return cbor.Marshal(&verificationKeyMarshal{Group: k.group.Name(), Data: k.data})
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
//
// The group is restored by name, the point itself is not decoded.
func (k *VerificationKey) UnmarshalBinary(data []byte) error {
	var m verificationKeyMarshal
	if err := cbor.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("musig: unmarshal verification key: %w", err)
	}
	group, err := curve.FromName(m.Group)
	if err != nil {
		return fmt.Errorf("musig: unmarshal verification key: %w", err)
	}
	k.group = group
	k.data = m.Data
	return nil
}
