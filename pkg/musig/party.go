package musig

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"

	"github.com/taurusgroup/musig/pkg/math/curve"
	"github.com/taurusgroup/musig/pkg/math/sample"
	"github.com/taurusgroup/musig/pkg/pool"
	"github.com/taurusgroup/musig/pkg/transcript"
)

// signer holds the local state of one signer across all rounds.
type signer struct {
	group      curve.Curve
	transcript *transcript.Transcript
	multikey   *Multikey
	// index is the position of our key in the Multikey.
	index int
	// x_i is our private key.
	x_i curve.Scalar
	// r_i is our secret nonce, set to nil once it has been used.
	r_i curve.Scalar
	// R_i = rᵢ⋅G
	R_i Commitment

	precommitments []Precommitment
	// R[j] = Rⱼ
	R []curve.Point
	// RAgg = ∑ⱼ Rⱼ, compressed.
	RAgg []byte
	// c = H(X, R, m)
	c curve.Scalar
}

// wipe erases the secret nonce.
func (s *signer) wipe() {
	if s.r_i != nil {
		s.r_i.Set(s.group.NewScalar())
		s.r_i = nil
	}
}

// handle gives single use access to a signer.
type handle struct {
	mu     sync.Mutex
	signer *signer
}

func (h *handle) take() (*signer, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.signer == nil {
		return nil, ErrPartyConsumed
	}
	s := h.signer
	h.signer = nil
	return s, nil
}

// PartyAwaitingPrecommitments is a signer which has sent its Precommitment.
type PartyAwaitingPrecommitments struct{ handle }

// PartyAwaitingCommitments is a signer which has sent its Commitment.
type PartyAwaitingCommitments struct{ handle }

// PartyAwaitingShares is a signer which has sent its Share.
type PartyAwaitingShares struct{ handle }

// NewParty starts a signing session for the owner of privateKey.
//
// t must already contain the message to sign, it is cloned and not modified.
// keys must be the ordered list multikey was created from, and contain the public key of privateKey.
//
// A fresh nonce is derived from t, privateKey and crypto/rand,
// and the returned Precommitment must be sent to every other signer.
func NewParty(t *transcript.Transcript, privateKey curve.Scalar, multikey *Multikey, keys []VerificationKey) (*PartyAwaitingPrecommitments, Precommitment, error) {
	return newParty(t, rand.Reader, privateKey, multikey, keys)
}

func newParty(t *transcript.Transcript, rand io.Reader, privateKey curve.Scalar, multikey *Multikey, keys []VerificationKey) (*PartyAwaitingPrecommitments, Precommitment, error) {
	if privateKey == nil || privateKey.IsZero() {
		return nil, nil, ErrInvalidPrivateKey
	}
	if t == nil || multikey == nil {
		return nil, nil, ErrKeySetMismatch
	}
	group := multikey.Group()
	if privateKey.Curve().Name() != group.Name() {
		return nil, nil, ErrGroupMismatch
	}
	if len(keys) != multikey.Len() {
		return nil, nil, ErrKeySetMismatch
	}
	for i, key := range keys {
		if !key.Equal(multikey.keys[i]) {
			return nil, nil, ErrKeySetMismatch
		}
	}

	publicKey, err := VerificationKeyFromPoint(privateKey.ActOnBase())
	if err != nil {
		return nil, nil, err
	}
	index := multikey.IndexOf(publicKey)
	if index < 0 {
		return nil, nil, ErrNotASigner
	}

	t = t.Clone()
	witness, err := privateKey.MarshalBinary()
	if err != nil {
		return nil, nil, fmt.Errorf("musig.NewParty: %w", err)
	}
	rng, err := t.BuildRNG("x_i", witness, rand)
	if err != nil {
		return nil, nil, fmt.Errorf("musig.NewParty: %w", err)
	}
	r_i := sample.ScalarUnit(rng, group)
	R_i, err := r_i.ActOnBase().MarshalBinary()
	if err != nil {
		return nil, nil, fmt.Errorf("musig.NewParty: %w", err)
	}

	s := &signer{
		group:      group,
		transcript: t,
		multikey:   multikey,
		index:      index,
		x_i:        group.NewScalar().Set(privateKey),
		r_i:        r_i,
		R_i:        R_i,
	}
	p := &PartyAwaitingPrecommitments{}
	p.signer = s
	return p, precommit(R_i), nil
}

// ReceivePrecommitments takes the precommitments of all signers, in the order of the keys,
// including our own.
//
// It returns our Commitment, to be sent to every other signer.
func (p *PartyAwaitingPrecommitments) ReceivePrecommitments(precommitments []Precommitment) (*PartyAwaitingCommitments, Commitment, error) {
	s, err := p.take()
	if err != nil {
		return nil, nil, err
	}
	if len(precommitments) != s.multikey.Len() {
		s.wipe()
		return nil, nil, fmt.Errorf("%w: got %d precommitments, expected %d", ErrMessageCount, len(precommitments), s.multikey.Len())
	}
	if !precommitments[s.index].Matches(s.R_i) {
		s.wipe()
		return nil, nil, partyError(s.index, ErrPrecommitmentMismatch)
	}

	s.precommitments = make([]Precommitment, len(precommitments))
	for j := range precommitments {
		s.precommitments[j] = append(Precommitment(nil), precommitments[j]...)
	}

	next := &PartyAwaitingCommitments{}
	next.signer = s
	return next, append(Commitment(nil), s.R_i...), nil
}

// ReceiveCommitments takes the nonces of all signers, in the order of the keys,
// including our own.
//
// Every nonce is checked against its precommitment before our share is computed.
// It returns our Share, to be sent to every other signer.
func (p *PartyAwaitingCommitments) ReceiveCommitments(commitments []Commitment) (*PartyAwaitingShares, Share, error) {
	s, err := p.take()
	if err != nil {
		return nil, nil, err
	}
	defer s.wipe()

	if len(commitments) != s.multikey.Len() {
		return nil, nil, fmt.Errorf("%w: got %d commitments, expected %d", ErrMessageCount, len(commitments), s.multikey.Len())
	}

	s.R = make([]curve.Point, len(commitments))
	RAgg := s.group.NewPoint()
	for j, commitment := range commitments {
		R_j := s.group.NewPoint()
		if err := R_j.UnmarshalBinary(commitment); err != nil {
			return nil, nil, partyError(j, fmt.Errorf("%w: %v", ErrInvalidPoint, err))
		}
		if !s.precommitments[j].Matches(commitment) {
			return nil, nil, partyError(j, ErrPrecommitmentMismatch)
		}
		s.R[j] = R_j
		RAgg = RAgg.Add(R_j)
	}
	s.RAgg, err = RAgg.MarshalBinary()
	if err != nil {
		return nil, nil, fmt.Errorf("musig: aggregated nonce: %w", ErrInvalidPoint)
	}

	// c = H(X, R, m), m is already part of the transcript
	s.c = challenge(s.transcript, s.group, s.multikey.AggregatedKey().data, s.RAgg)

	// sᵢ = rᵢ + c⋅aᵢ⋅xᵢ
	s_i := s.group.NewScalar().Set(s.c).Mul(s.multikey.coefficients[s.index]).Mul(s.x_i)
	s_i.Add(s.r_i)
	share, err := s_i.MarshalBinary()
	if err != nil {
		return nil, nil, fmt.Errorf("musig: share: %w", err)
	}

	next := &PartyAwaitingShares{}
	next.signer = s
	return next, share, nil
}

// ReceiveShares takes the shares of all signers, in the order of the keys,
// including our own, and returns the aggregated signature.
//
// Each share is checked individually, the first invalid one is reported as a *PartyError.
func (p *PartyAwaitingShares) ReceiveShares(shares []Share) (*Signature, error) {
	return p.ReceiveSharesWithPool(nil, shares)
}

// ReceiveSharesWithPool is like ReceiveShares, but checks the shares in parallel using pl.
func (p *PartyAwaitingShares) ReceiveSharesWithPool(pl *pool.Pool, shares []Share) (*Signature, error) {
	s, err := p.take()
	if err != nil {
		return nil, err
	}
	defer s.wipe()

	if len(shares) != s.multikey.Len() {
		return nil, fmt.Errorf("%w: got %d shares, expected %d", ErrMessageCount, len(shares), s.multikey.Len())
	}

	decoded := make([]curve.Scalar, len(shares))
	errs := pl.Parallelize(len(shares), func(j int) error {
		s_j := s.group.NewScalar()
		if err := s_j.UnmarshalBinary(shares[j]); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidShare, err)
		}
		if !s.verifyShare(j, s_j) {
			return ErrInvalidShare
		}
		decoded[j] = s_j
		return nil
	})
	if j, err := pool.FirstError(errs); err != nil {
		return nil, partyError(j, err)
	}

	sum := s.group.NewScalar()
	for _, s_j := range decoded {
		sum.Add(s_j)
	}
	return &Signature{
		S: sum,
		R: append([]byte(nil), s.RAgg...),
	}, nil
}

// verifyShare checks sⱼ⋅G = Rⱼ + c⋅aⱼ⋅Xⱼ.
func (s *signer) verifyShare(j int, s_j curve.Scalar) bool {
	ca := s.group.NewScalar().Set(s.c).Mul(s.multikey.coefficients[j])
	expected := s.R[j].Add(ca.Act(s.multikey.point(j)))
	return s_j.ActOnBase().Equal(expected)
}
