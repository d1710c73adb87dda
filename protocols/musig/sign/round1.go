package sign

import (
	"github.com/taurusgroup/musig/internal/round"
	"github.com/taurusgroup/musig/pkg/math/curve"
	"github.com/taurusgroup/musig/pkg/musig"
	"github.com/taurusgroup/musig/pkg/party"
	"github.com/taurusgroup/musig/pkg/transcript"
)

var _ round.Round = (*round1)(nil)

type round1 struct {
	*round.Helper

	// transcript contains the message, and is only read by the party.
	transcript *transcript.Transcript
	// privateKey = xᵢ
	privateKey curve.Scalar
	multikey   *musig.Multikey
	// keys are the public keys of the signers, in the order of PartyIDs.
	keys []musig.VerificationKey
}

// VerifyMessage implements round.Round.
func (round1) VerifyMessage(round.Message) error { return nil }

// StoreMessage implements round.Round.
func (round1) StoreMessage(round.Message) error { return nil }

// Finalize implements round.Round
//
// - sample the nonce rᵢ, and broadcast the precommitment H(Rᵢ).
func (r *round1) Finalize(out chan<- *round.Message) (round.Session, error) {
	signer, precommitment, err := musig.NewParty(r.transcript, r.privateKey, r.multikey, r.keys)
	if err != nil {
		return r, err
	}
	// the party holds its own copy from now on
	r.privateKey.Set(r.Group().NewScalar())

	if err = r.BroadcastMessage(out, &broadcast2{Precommitment: precommitment}); err != nil {
		return r, err
	}

	return &round2{
		round1:         r,
		party:          signer,
		precommitments: map[party.ID]musig.Precommitment{r.SelfID(): precommitment},
	}, nil
}

// MessageContent implements round.Round.
func (round1) MessageContent() round.Content { return nil }

// Number implements round.Round.
func (round1) Number() round.Number { return 1 }
