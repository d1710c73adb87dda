package curve_test

import (
	"crypto/rand"
	"testing"

	"github.com/cronokirby/saferith"
	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/musig/pkg/math/curve"
	"github.com/taurusgroup/musig/pkg/math/sample"
)

var groups = []curve.Curve{curve.Secp256k1{}, curve.Edwards25519{}}

func TestScalarArithmetic(t *testing.T) {
	for _, group := range groups {
		t.Run(group.Name(), func(t *testing.T) {
			a := sample.Scalar(rand.Reader, group)
			b := sample.Scalar(rand.Reader, group)

			// (a + b) - b = a
			sum := group.NewScalar().Set(a).Add(b).Sub(b)
			assert.True(t, sum.Equal(a))

			// a * a⁻¹ = 1
			one := curve.ScalarFromUint32(group, 1)
			inv := group.NewScalar().Set(a).Invert()
			assert.True(t, group.NewScalar().Set(a).Mul(inv).Equal(one))

			// a + (-a) = 0
			neg := group.NewScalar().Set(a).Negate()
			assert.True(t, neg.Add(a).IsZero())
		})
	}
}

func TestPointArithmetic(t *testing.T) {
	for _, group := range groups {
		t.Run(group.Name(), func(t *testing.T) {
			a := sample.Scalar(rand.Reader, group)
			b := sample.Scalar(rand.Reader, group)

			// aG + bG = (a + b)G
			A, B := a.ActOnBase(), b.ActOnBase()
			AB := group.NewScalar().Set(a).Add(b).ActOnBase()
			assert.True(t, A.Add(B).Equal(AB))

			// aG - aG = 0
			assert.True(t, A.Sub(A).IsIdentity())
			assert.True(t, A.Add(A.Negate()).IsIdentity())

			// a(bG) = b(aG)
			assert.True(t, a.Act(B).Equal(b.Act(A)))

			// 1G = G
			assert.True(t, curve.ScalarFromUint32(group, 1).ActOnBase().Equal(group.NewBasePoint()))

			assert.True(t, group.NewPoint().IsIdentity())
			assert.False(t, A.Equal(group.NewPoint()))
		})
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	for _, group := range groups {
		t.Run(group.Name(), func(t *testing.T) {
			s, P := sample.ScalarPointPair(rand.Reader, group)

			sData, err := s.MarshalBinary()
			require.NoError(t, err)
			s2 := group.NewScalar()
			require.NoError(t, s2.UnmarshalBinary(sData))
			assert.True(t, s.Equal(s2))

			pData, err := P.MarshalBinary()
			require.NoError(t, err)
			P2 := group.NewPoint()
			require.NoError(t, P2.UnmarshalBinary(pData))
			assert.True(t, P.Equal(P2))
		})
	}
}

func TestMarshalIdentityFails(t *testing.T) {
	for _, group := range groups {
		_, err := group.NewPoint().MarshalBinary()
		assert.Error(t, err, group.Name())
	}
}

func TestUnmarshalInvalid(t *testing.T) {
	for _, group := range groups {
		t.Run(group.Name(), func(t *testing.T) {
			P := sample.Scalar(rand.Reader, group).ActOnBase()
			data, err := P.MarshalBinary()
			require.NoError(t, err)

			assert.Error(t, group.NewPoint().UnmarshalBinary(nil))
			assert.Error(t, group.NewPoint().UnmarshalBinary(data[:len(data)-1]))
			assert.Error(t, group.NewPoint().UnmarshalBinary(append(data, 0)))

			// all 0xff is never a canonical encoding: x ≥ p for secp256k1,
			// y ≥ p for edwards25519
			ff := make([]byte, len(data))
			for i := range ff {
				ff[i] = 0xff
			}
			assert.Error(t, group.NewPoint().UnmarshalBinary(ff))
			assert.Error(t, group.NewScalar().UnmarshalBinary(ff[:32]))
		})
	}
}

func TestSecp256k1InvalidFormatByte(t *testing.T) {
	P := sample.Scalar(rand.Reader, curve.Secp256k1{}).ActOnBase()
	data, err := P.MarshalBinary()
	require.NoError(t, err)
	data[0] = 0x04
	assert.Error(t, curve.Secp256k1{}.NewPoint().UnmarshalBinary(data))
}

func TestEdwards25519RejectsSmallOrder(t *testing.T) {
	// Encoding of the point of order 2, (0, -1).
	order2 := make([]byte, 32)
	order2[0] = 0xec
	for i := 1; i < 31; i++ {
		order2[i] = 0xff
	}
	order2[31] = 0x7f
	assert.Error(t, curve.Edwards25519{}.NewPoint().UnmarshalBinary(order2))

	// Identity (0, 1).
	identity := make([]byte, 32)
	identity[0] = 1
	assert.Error(t, curve.Edwards25519{}.NewPoint().UnmarshalBinary(identity))
}

func TestSetNatReduces(t *testing.T) {
	for _, group := range groups {
		order := group.Order().Nat()
		one := new(saferith.Nat).SetUint64(1)
		orderPlusOne := new(saferith.Nat).Add(order, one, -1)
		s := group.NewScalar().SetNat(orderPlusOne)
		assert.True(t, s.Equal(curve.ScalarFromUint32(group, 1)), group.Name())
		assert.True(t, group.NewScalar().SetNat(order).IsZero(), group.Name())
	}
}

type marshalTester struct {
	S *curve.MarshallableScalar
	P *curve.MarshallablePoint
}

func TestMarshallable(t *testing.T) {
	for _, group := range groups {
		s, P := sample.ScalarPointPair(rand.Reader, group)
		in := marshalTester{
			S: curve.NewMarshallableScalar(s),
			P: curve.NewMarshallablePoint(P),
		}
		data, err := cbor.Marshal(in)
		require.NoError(t, err)
		var out marshalTester
		require.NoError(t, cbor.Unmarshal(data, &out))
		assert.True(t, s.Equal(out.S.Scalar))
		assert.True(t, P.Equal(out.P.Point))
	}
}

func TestFromName(t *testing.T) {
	for _, group := range groups {
		g, err := curve.FromName(group.Name())
		require.NoError(t, err)
		assert.Equal(t, group.Name(), g.Name())
	}
	_, err := curve.FromName("p256")
	assert.Error(t, err)
}
