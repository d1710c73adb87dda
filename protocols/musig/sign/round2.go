package sign

import (
	"fmt"

	"github.com/taurusgroup/musig/internal/round"
	"github.com/taurusgroup/musig/pkg/musig"
	"github.com/taurusgroup/musig/pkg/party"
)

var _ round.BroadcastRound = (*round2)(nil)

type round2 struct {
	*round1
	party *musig.PartyAwaitingPrecommitments
	// precommitments[j] = H(Rⱼ), ourselves included.
	precommitments map[party.ID]musig.Precommitment
}

type broadcast2 struct {
	round.ReliableBroadcastContent
	// Precommitment = H(Rᵢ)
	Precommitment musig.Precommitment
}

// StoreBroadcastMessage implements round.BroadcastRound.
//
// - save H(Rⱼ).
func (r *round2) StoreBroadcastMessage(msg round.Message) error {
	body, ok := msg.Content.(*broadcast2)
	if !ok || body == nil {
		return round.ErrInvalidContent
	}
	if len(body.Precommitment) != musig.PrecommitmentLength {
		return fmt.Errorf("precommitment has length %d", len(body.Precommitment))
	}
	r.precommitments[msg.From] = body.Precommitment
	return nil
}

// VerifyMessage implements round.Round.
func (round2) VerifyMessage(round.Message) error { return nil }

// StoreMessage implements round.Round.
func (round2) StoreMessage(round.Message) error { return nil }

// Finalize implements round.Round
//
// - broadcast the nonce commitment Rᵢ, now that all precommitments are fixed.
func (r *round2) Finalize(out chan<- *round.Message) (round.Session, error) {
	precommitments := make([]musig.Precommitment, 0, r.N())
	for _, j := range r.PartyIDs() {
		precommitments = append(precommitments, r.precommitments[j])
	}

	signer, commitment, err := r.party.ReceivePrecommitments(precommitments)
	if err != nil {
		return abort(r.Helper, r, err)
	}

	if err = r.BroadcastMessage(out, &broadcast3{Commitment: commitment}); err != nil {
		return r, err
	}

	return &round3{
		round2:      r,
		party:       signer,
		commitments: map[party.ID]musig.Commitment{r.SelfID(): commitment},
	}, nil
}

// RoundNumber implements round.Content.
func (broadcast2) RoundNumber() round.Number { return 2 }

// BroadcastContent implements round.BroadcastRound.
func (round2) BroadcastContent() round.BroadcastContent { return &broadcast2{} }

// MessageContent implements round.Round.
func (round2) MessageContent() round.Content { return nil }

// Number implements round.Round.
func (round2) Number() round.Number { return 2 }
