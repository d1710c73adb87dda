package sign

import (
	"errors"
	"fmt"

	"github.com/taurusgroup/musig/internal/round"
	"github.com/taurusgroup/musig/pkg/musig"
	"github.com/taurusgroup/musig/pkg/party"
)

var _ round.BroadcastRound = (*round4)(nil)

type round4 struct {
	*round3
	party *musig.PartyAwaitingShares
	// shares[j] = sⱼ, ourselves included.
	shares map[party.ID]musig.Share
}

type broadcast4 struct {
	round.ReliableBroadcastContent
	// Share = sᵢ
	Share musig.Share
}

// StoreBroadcastMessage implements round.BroadcastRound.
func (r *round4) StoreBroadcastMessage(msg round.Message) error {
	body, ok := msg.Content.(*broadcast4)
	if !ok || body == nil {
		return round.ErrInvalidContent
	}
	if len(body.Share) == 0 {
		return errors.New("empty share")
	}
	r.shares[msg.From] = body.Share
	return nil
}

// VerifyMessage implements round.Round.
func (round4) VerifyMessage(round.Message) error { return nil }

// StoreMessage implements round.Round.
func (round4) StoreMessage(round.Message) error { return nil }

// Finalize implements round.Round
//
// - check every sⱼ, and output (s, R) with s = ∑ⱼ sⱼ.
func (r *round4) Finalize(chan<- *round.Message) (round.Session, error) {
	shares := make([]musig.Share, 0, r.N())
	for _, j := range r.PartyIDs() {
		shares = append(shares, r.shares[j])
	}

	sig, err := r.party.ReceiveSharesWithPool(r.Pool, shares)
	if err != nil {
		return abort(r.Helper, r, err)
	}

	// all shares were valid, so this only fails on a bug
	if err = sig.Verify(r.transcript, r.multikey.AggregatedKey()); err != nil {
		return r.AbortRound(fmt.Errorf("aggregated signature: %w", err)), nil
	}
	return r.ResultRound(sig), nil
}

// RoundNumber implements round.Content.
func (broadcast4) RoundNumber() round.Number { return 4 }

// BroadcastContent implements round.BroadcastRound.
func (round4) BroadcastContent() round.BroadcastContent { return &broadcast4{} }

// MessageContent implements round.Round.
func (round4) MessageContent() round.Content { return nil }

// Number implements round.Round.
func (round4) Number() round.Number { return 4 }
