package musig

import (
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/taurusgroup/musig/pkg/math/curve"
	"github.com/taurusgroup/musig/pkg/math/sample"
	"github.com/taurusgroup/musig/pkg/transcript"
)

const signingLabel = "MuSig.signing"

// Signature is a Schnorr signature (s, R), satisfying
//
//	s⋅G = R + H(X, R, m)⋅X
//
// for a (possibly aggregated) key X.
type Signature struct {
	// S is the response scalar.
	S curve.Scalar
	// R is the compressed nonce.
	R []byte
}

// EmptySignature returns a Signature of the given group, ready to be unmarshalled into.
func EmptySignature(group curve.Curve) *Signature {
	return &Signature{S: group.NewScalar()}
}

// SigningTranscript returns a transcript committing to message, as used by the round based protocol.
func SigningTranscript(message []byte) *transcript.Transcript {
	t := transcript.New(signingLabel)
	t.AppendMessage("message", message)
	return t
}

// challenge derives c = H(X, R) from t, which already holds the message.
func challenge(t *transcript.Transcript, group curve.Curve, X, R []byte) curve.Scalar {
	t.AppendMessage("X", X)
	t.AppendMessage("R", R)
	return t.ChallengeScalar("c", group)
}

// Verify checks the signature against X, using a copy of t.
//
// t must contain the same data, in the same order, as the transcript used while signing.
func (sig *Signature) Verify(t *transcript.Transcript, X VerificationKey) error {
	group := X.Group()
	if group == nil {
		return fmt.Errorf("%w: key has no group", ErrInvalidPoint)
	}
	if sig.S == nil {
		return fmt.Errorf("%w: missing response", ErrVerificationFailed)
	}
	if sig.S.Curve().Name() != group.Name() {
		return fmt.Errorf("%w: %w", ErrVerificationFailed, ErrGroupMismatch)
	}

	c := challenge(t.Clone(), group, X.data, sig.R)

	XPoint, err := X.Point()
	if err != nil {
		return err
	}
	R := group.NewPoint()
	if err := R.UnmarshalBinary(sig.R); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPoint, err)
	}

	// s⋅G = R + c⋅X
	expected := R.Add(c.Act(XPoint))
	if !sig.S.ActOnBase().Equal(expected) {
		return ErrVerificationFailed
	}
	return nil
}

// Sign creates a single signer signature with privateKey, verifying against its own public key.
func Sign(t *transcript.Transcript, privateKey curve.Scalar) (*Signature, error) {
	if privateKey == nil || privateKey.IsZero() {
		return nil, ErrInvalidPrivateKey
	}
	group := privateKey.Curve()
	X, err := privateKey.ActOnBase().MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("musig.Sign: %w", err)
	}
	witness, err := privateKey.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("musig.Sign: %w", err)
	}
	rng, err := t.BuildRNG("x", witness, rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("musig.Sign: %w", err)
	}
	r := sample.ScalarUnit(rng, group)
	R, err := r.ActOnBase().MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("musig.Sign: %w", err)
	}

	c := challenge(t.Clone(), group, X, R)
	s := group.NewScalar().Set(c).Mul(privateKey).Add(r)
	r.Set(group.NewScalar())
	return &Signature{S: s, R: R}, nil
}

// Group returns the group of the signature, or nil if it is empty.
func (sig *Signature) Group() curve.Curve {
	if sig.S == nil {
		return nil
	}
	return sig.S.Curve()
}

// MarshalBinary implements encoding.BinaryMarshaler, encoding s ‖ R.
func (sig *Signature) MarshalBinary() ([]byte, error) {
	if sig.S == nil {
		return nil, errors.New("musig: marshal empty signature")
	}
	s, err := sig.S.MarshalBinary()
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(s)+len(sig.R))
	out = append(out, s...)
	return append(out, sig.R...), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
//
// The signature must have been created with EmptySignature, so that its group is known.
// R is not decoded, an invalid nonce is reported by Verify.
func (sig *Signature) UnmarshalBinary(data []byte) error {
	if sig.S == nil {
		return errors.New("musig: unmarshal into signature without group, use EmptySignature")
	}
	group := sig.S.Curve()
	zero, _ := group.NewScalar().MarshalBinary()
	scalarLength := len(zero)
	if len(data) <= scalarLength {
		return fmt.Errorf("musig: invalid signature length %d", len(data))
	}
	s := group.NewScalar()
	if err := s.UnmarshalBinary(data[:scalarLength]); err != nil {
		return fmt.Errorf("musig: unmarshal signature: %w", err)
	}
	sig.S = s
	sig.R = append([]byte(nil), data[scalarLength:]...)
	return nil
}
