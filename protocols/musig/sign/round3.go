package sign

import (
	"errors"

	"github.com/taurusgroup/musig/internal/round"
	"github.com/taurusgroup/musig/pkg/musig"
	"github.com/taurusgroup/musig/pkg/party"
)

var _ round.BroadcastRound = (*round3)(nil)

type round3 struct {
	*round2
	party *musig.PartyAwaitingCommitments
	// commitments[j] = Rⱼ, ourselves included.
	commitments map[party.ID]musig.Commitment
}

type broadcast3 struct {
	round.ReliableBroadcastContent
	// Commitment = Rᵢ
	Commitment musig.Commitment
}

// StoreBroadcastMessage implements round.BroadcastRound.
//
// - save Rⱼ, it is checked against H(Rⱼ) in Finalize.
func (r *round3) StoreBroadcastMessage(msg round.Message) error {
	body, ok := msg.Content.(*broadcast3)
	if !ok || body == nil {
		return round.ErrInvalidContent
	}
	if len(body.Commitment) == 0 {
		return errors.New("empty commitment")
	}
	r.commitments[msg.From] = body.Commitment
	return nil
}

// VerifyMessage implements round.Round.
func (round3) VerifyMessage(round.Message) error { return nil }

// StoreMessage implements round.Round.
func (round3) StoreMessage(round.Message) error { return nil }

// Finalize implements round.Round
//
// - check every Rⱼ against its precommitment,
// - compute R = ∑ⱼ Rⱼ and c = H(X, R, m),
// - broadcast sᵢ = rᵢ + c⋅aᵢ⋅xᵢ.
func (r *round3) Finalize(out chan<- *round.Message) (round.Session, error) {
	commitments := make([]musig.Commitment, 0, r.N())
	for _, j := range r.PartyIDs() {
		commitments = append(commitments, r.commitments[j])
	}

	signer, share, err := r.party.ReceiveCommitments(commitments)
	if err != nil {
		return abort(r.Helper, r, err)
	}

	if err = r.BroadcastMessage(out, &broadcast4{Share: share}); err != nil {
		return r, err
	}

	return &round4{
		round3: r,
		party:  signer,
		shares: map[party.ID]musig.Share{r.SelfID(): share},
	}, nil
}

// RoundNumber implements round.Content.
func (broadcast3) RoundNumber() round.Number { return 3 }

// BroadcastContent implements round.BroadcastRound.
func (round3) BroadcastContent() round.BroadcastContent { return &broadcast3{} }

// MessageContent implements round.Round.
func (round3) MessageContent() round.Content { return nil }

// Number implements round.Round.
func (round3) Number() round.Number { return 3 }
