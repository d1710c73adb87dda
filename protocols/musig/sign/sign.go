package sign

import (
	"errors"
	"fmt"

	"github.com/taurusgroup/musig/internal/params"
	"github.com/taurusgroup/musig/internal/round"
	"github.com/taurusgroup/musig/pkg/hash"
	"github.com/taurusgroup/musig/pkg/musig"
	"github.com/taurusgroup/musig/pkg/party"
	"github.com/taurusgroup/musig/pkg/pool"
	"github.com/taurusgroup/musig/pkg/protocol"
	"github.com/taurusgroup/musig/pkg/transcript"
	"github.com/taurusgroup/musig/protocols/musig/config"
)

const (
	// MuSig signing.
	protocolID = "musig/sign"
	// This protocol has 4 concrete rounds.
	protocolRounds round.Number = 4
)

// StartSign initiates the MuSig signing protocol, where t already contains the message to be signed.
//
// signers is the list of all participants generating a signature together, including
// this participant. Each of them must have a public key in c.
func StartSign(c *config.Config, signers []party.ID, t *transcript.Transcript, pl *pool.Pool) protocol.StartFunc {
	return func(sessionID []byte) (round.Session, error) {
		if t == nil {
			return nil, fmt.Errorf("sign.StartSign: no transcript")
		}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("sign.StartSign: %w", err)
		}
		multikey, keys, err := c.Multikey(signers)
		if err != nil {
			return nil, fmt.Errorf("sign.StartSign: %w", err)
		}

		info := round.Info{
			ProtocolID:       protocolID,
			FinalRoundNumber: protocolRounds,
			SelfID:           c.ID,
			PartyIDs:         signers,
			Group:            c.Group,
		}

		// bind the session to the aggregated key and the transcript state
		tr := t.Clone()
		helper, err := round.NewSession(info, sessionID, pl,
			multikey.AggregatedKey(),
			&hash.BytesWithDomain{
				TheDomain: "Transcript",
				Bytes:     tr.Clone().ChallengeBytes("session", params.SecBytes),
			},
		)
		if err != nil {
			return nil, fmt.Errorf("sign.StartSign: %w", err)
		}

		return &round1{
			Helper:     helper,
			transcript: tr,
			privateKey: c.Group.NewScalar().Set(c.PrivateKey),
			multikey:   multikey,
			keys:       keys,
		}, nil
	}
}

// culprit maps an error returned by a musig.Party to the ID of the party at fault.
func culprit(ids party.IDSlice, err error) (party.ID, bool) {
	var partyErr *musig.PartyError
	if !errors.As(err, &partyErr) || partyErr.Index < 0 || partyErr.Index >= len(ids) {
		return "", false
	}
	return ids[partyErr.Index], true
}

// abort ends the protocol after a failure of the local party.
// Peer faults are attributed, anything else is returned as an error.
func abort(h *round.Helper, r round.Session, err error) (round.Session, error) {
	if id, ok := culprit(h.PartyIDs(), err); ok {
		return h.AbortRound(err, id), nil
	}
	return r, err
}
