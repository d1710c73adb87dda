package musig

import (
	"fmt"

	"github.com/taurusgroup/musig/internal/params"
	"github.com/taurusgroup/musig/pkg/math/curve"
	"github.com/taurusgroup/musig/pkg/transcript"
)

const (
	multikeyLabel    = "MuSig.multikey"
	coefficientLabel = "MuSig.aggregation-coefficient"
)

// Multikey is the aggregation of an ordered list of verification keys.
//
// Each key Xᵢ is weighted by a coefficient aᵢ = H(L, i, Xᵢ), where L = H(n, X₁, …, Xₙ)
// binds the whole list, and the aggregated key is X = ∑ᵢ aᵢ⋅Xᵢ.
// A Multikey is immutable, and can be shared between parties.
type Multikey struct {
	group        curve.Curve
	keys         []VerificationKey
	points       []curve.Point
	bindingValue []byte
	coefficients []curve.Scalar
	aggregated   VerificationKey
	aggregatedX  curve.Point
}

// NewMultikey aggregates keys, in the given order.
//
// It fails with ErrEmptyKeySet if keys is empty. Every key must decode to a point of the same group
// (ErrInvalidPoint, ErrGroupMismatch), and appear only once (ErrDuplicateKey).
// A failing key is reported as a *PartyError with its position.
func NewMultikey(keys []VerificationKey) (*Multikey, error) {
	if len(keys) == 0 {
		return nil, ErrEmptyKeySet
	}
	group := keys[0].Group()
	if group == nil {
		return nil, partyError(0, ErrInvalidPoint)
	}

	m := &Multikey{
		group:  group,
		keys:   make([]VerificationKey, len(keys)),
		points: make([]curve.Point, len(keys)),
	}
	seen := make(map[string]int, len(keys))
	for i, key := range keys {
		if key.Group() == nil || key.Group().Name() != group.Name() {
			return nil, partyError(i, ErrGroupMismatch)
		}
		if _, ok := seen[string(key.data)]; ok {
			return nil, partyError(i, ErrDuplicateKey)
		}
		seen[string(key.data)] = i

		p, err := key.Point()
		if err != nil {
			return nil, partyError(i, err)
		}
		m.keys[i] = NewVerificationKey(group, key.data)
		m.points[i] = p
	}

	m.bindingValue = bindingValue(group, m.keys)
	m.coefficients = make([]curve.Scalar, len(keys))
	if len(keys) == 1 {
		// a single signer is a plain Schnorr signer, and keeps its own key
		m.coefficients[0] = curve.ScalarFromUint32(group, 1)
	} else {
		for i := range m.keys {
			m.coefficients[i] = aggregationCoefficient(group, m.bindingValue, i, m.keys[i])
		}
	}

	X := group.NewPoint()
	for i := range m.points {
		X = X.Add(m.coefficients[i].Act(m.points[i]))
	}
	aggregated, err := VerificationKeyFromPoint(X)
	if err != nil {
		return nil, fmt.Errorf("musig: aggregated key: %w", err)
	}
	m.aggregated = aggregated
	m.aggregatedX = X
	return m, nil
}

// bindingValue computes L = H(n, X₁, …, Xₙ).
func bindingValue(group curve.Curve, keys []VerificationKey) []byte {
	t := transcript.New(multikeyLabel)
	t.AppendMessage("group", []byte(group.Name()))
	t.AppendUint64("n", uint64(len(keys)))
	for _, key := range keys {
		t.AppendMessage("X", key.data)
	}
	return t.ChallengeBytes("L", params.SecBytes)
}

// aggregationCoefficient computes aᵢ = H(L, i, Xᵢ).
func aggregationCoefficient(group curve.Curve, L []byte, i int, key VerificationKey) curve.Scalar {
	t := transcript.New(coefficientLabel)
	t.AppendMessage("L", L)
	t.AppendUint64("i", uint64(i))
	t.AppendMessage("X_i", key.data)
	return t.ChallengeScalar("a_i", group)
}

// AggregatedKey returns X = ∑ᵢ aᵢ⋅Xᵢ.
func (m *Multikey) AggregatedKey() VerificationKey {
	return m.aggregated
}

// Coefficient returns a copy of the aggregation coefficient aᵢ of the i-th key.
func (m *Multikey) Coefficient(i int) curve.Scalar {
	return m.group.NewScalar().Set(m.coefficients[i])
}

// BindingValue returns a copy of L.
func (m *Multikey) BindingValue() []byte {
	return append([]byte(nil), m.bindingValue...)
}

// Keys returns a copy of the ordered list of keys.
func (m *Multikey) Keys() []VerificationKey {
	out := make([]VerificationKey, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of keys.
func (m *Multikey) Len() int {
	return len(m.keys)
}

// IndexOf returns the position of key in the list, or -1.
func (m *Multikey) IndexOf(key VerificationKey) int {
	for i, k := range m.keys {
		if k.Equal(key) {
			return i
		}
	}
	return -1
}

// Group returns the group all keys belong to.
func (m *Multikey) Group() curve.Curve {
	return m.group
}

// point returns the decoded i-th key.
func (m *Multikey) point(i int) curve.Point {
	return m.points[i]
}
