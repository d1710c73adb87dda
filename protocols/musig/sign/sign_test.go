package sign

import (
	"crypto/rand"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/musig/internal/round"
	"github.com/taurusgroup/musig/internal/test"
	"github.com/taurusgroup/musig/pkg/math/curve"
	"github.com/taurusgroup/musig/pkg/math/sample"
	"github.com/taurusgroup/musig/pkg/musig"
	"github.com/taurusgroup/musig/pkg/party"
	"github.com/taurusgroup/musig/pkg/pool"
	"github.com/taurusgroup/musig/protocols/musig/config"
)

var groups = []curve.Curve{curve.Secp256k1{}, curve.Edwards25519{}}

var message = []byte("message to sign")

func startRounds(t *testing.T, group curve.Curve, N int, pl *pool.Pool) ([]round.Session, map[party.ID]*config.Config, party.IDSlice) {
	configs, partyIDs := test.GenerateConfig(group, N, rand.Reader)
	rounds := make([]round.Session, 0, N)
	for _, id := range partyIDs {
		r, err := StartSign(configs[id], partyIDs, musig.SigningTranscript(message), pl)(nil)
		require.NoError(t, err, "round creation should not result in an error")
		rounds = append(rounds, r)
	}
	return rounds, configs, partyIDs
}

func run(t *testing.T, rounds []round.Session, rule test.Rule) {
	for {
		err, done := test.Rounds(rounds, rule)
		require.NoError(t, err, "failed to process round")
		if done {
			return
		}
	}
}

func checkOutput(t *testing.T, rounds []round.Session, public musig.VerificationKey) {
	var first []byte
	for _, r := range rounds {
		require.IsType(t, &round.Output{}, r, "expected result round")
		resultRound := r.(*round.Output)
		require.IsType(t, &musig.Signature{}, resultRound.Result, "expected signature result")
		sig := resultRound.Result.(*musig.Signature)
		assert.NoError(t, sig.Verify(musig.SigningTranscript(message), public))

		data, err := sig.MarshalBinary()
		require.NoError(t, err)
		if first == nil {
			first = data
		}
		assert.Equal(t, first, data, "all parties should output the same signature")
	}
}

func TestSign(t *testing.T) {
	pl := pool.NewPool(0)
	defer pl.TearDown()

	for _, group := range groups {
		for _, N := range []int{1, 2, 5} {
			rounds, configs, partyIDs := startRounds(t, group, N, pl)
			run(t, rounds, nil)

			multikey, _, err := configs[partyIDs[0]].Multikey(partyIDs)
			require.NoError(t, err)
			checkOutput(t, rounds, multikey.AggregatedKey())
		}
	}
}

func TestSignSubset(t *testing.T) {
	group := curve.Secp256k1{}
	configs, partyIDs := test.GenerateConfig(group, 5, rand.Reader)
	signers := partyIDs[1:4]

	rounds := make([]round.Session, 0, len(signers))
	for _, id := range signers {
		r, err := StartSign(configs[id], signers, musig.SigningTranscript(message), nil)(nil)
		require.NoError(t, err)
		rounds = append(rounds, r)
	}
	run(t, rounds, nil)

	multikey, _, err := configs[signers[0]].Multikey(signers)
	require.NoError(t, err)
	checkOutput(t, rounds, multikey.AggregatedKey())

	all, _, err := configs[signers[0]].Multikey(partyIDs)
	require.NoError(t, err)
	sig := rounds[0].(*round.Output).Result.(*musig.Signature)
	assert.ErrorIs(t, sig.Verify(musig.SigningTranscript(message), all.AggregatedKey()), musig.ErrVerificationFailed)
}

func TestStartSignErrors(t *testing.T) {
	group := curve.Secp256k1{}
	configs, partyIDs := test.GenerateConfig(group, 3, rand.Reader)
	c := configs[partyIDs[0]]
	tr := musig.SigningTranscript(message)

	// not a signer
	_, err := StartSign(c, partyIDs[1:], tr, nil)(nil)
	assert.ErrorIs(t, err, musig.ErrNotASigner)

	// unknown party
	_, err = StartSign(c, append(partyIDs.Copy(), "unknown"), tr, nil)(nil)
	assert.Error(t, err)

	// duplicate signer
	_, err = StartSign(c, []party.ID{partyIDs[0], partyIDs[0]}, tr, nil)(nil)
	assert.Error(t, err)

	_, err = StartSign(c, partyIDs, nil, nil)(nil)
	assert.Error(t, err)

	invalid := *c
	invalid.PrivateKey = sample.Scalar(rand.Reader, group)
	_, err = StartSign(&invalid, partyIDs, tr, nil)(nil)
	assert.Error(t, err)
}

func TestSessionID(t *testing.T) {
	group := curve.Edwards25519{}
	configs, partyIDs := test.GenerateConfig(group, 2, rand.Reader)
	c := configs[partyIDs[0]]

	a, err := StartSign(c, partyIDs, musig.SigningTranscript(message), nil)(nil)
	require.NoError(t, err)
	b, err := StartSign(c, partyIDs, musig.SigningTranscript(message), nil)(nil)
	require.NoError(t, err)
	assert.Equal(t, a.SSID(), b.SSID())

	other, err := StartSign(c, partyIDs, musig.SigningTranscript([]byte("other message")), nil)(nil)
	require.NoError(t, err)
	assert.NotEqual(t, a.SSID(), other.SSID())

	withID, err := StartSign(c, partyIDs, musig.SigningTranscript(message), nil)([]byte("session"))
	require.NoError(t, err)
	assert.NotEqual(t, a.SSID(), withID.SSID())
}

// cheater replaces the content broadcast by culprit in a given round.
type cheater struct {
	culprit party.ID
	modify  func(group curve.Curve, content round.Content)
}

func (cheater) ModifyBefore(round.Session) {}
func (cheater) ModifyAfter(round.Session)  {}
func (c cheater) ModifyContent(rNext round.Session, _ party.ID, content round.Content) {
	if rNext.SelfID() == c.culprit {
		c.modify(rNext.Group(), content)
	}
}

func checkAbort(t *testing.T, rounds []round.Session, culprit party.ID, target error) {
	aborted := 0
	for _, r := range rounds {
		if r.SelfID() == culprit {
			continue
		}
		require.IsType(t, &round.Abort{}, r, "honest parties should abort")
		abort := r.(*round.Abort)
		assert.Equal(t, []party.ID{culprit}, abort.Culprits)
		assert.True(t, errors.Is(abort.Err, target), "unexpected error %v", abort.Err)
		aborted++
	}
	assert.Equal(t, len(rounds)-1, aborted)
}

func TestSignWrongCommitment(t *testing.T) {
	for _, group := range groups {
		rounds, _, partyIDs := startRounds(t, group, 4, nil)
		culprit := partyIDs[2]

		run(t, rounds, cheater{
			culprit: culprit,
			modify: func(group curve.Curve, content round.Content) {
				body, ok := content.(*broadcast3)
				if !ok {
					return
				}
				R, err := sample.Scalar(rand.Reader, group).ActOnBase().MarshalBinary()
				require.NoError(t, err)
				body.Commitment = R
			},
		})
		checkAbort(t, rounds, culprit, musig.ErrPrecommitmentMismatch)
	}
}

func TestSignInvalidCommitment(t *testing.T) {
	group := curve.Secp256k1{}
	rounds, _, partyIDs := startRounds(t, group, 3, nil)
	culprit := partyIDs[0]

	run(t, rounds, cheater{
		culprit: culprit,
		modify: func(group curve.Curve, content round.Content) {
			if body, ok := content.(*broadcast3); ok {
				body.Commitment = make([]byte, len(body.Commitment))
			}
		},
	})
	checkAbort(t, rounds, culprit, musig.ErrInvalidPoint)
}

func TestSignWrongShare(t *testing.T) {
	for _, group := range groups {
		rounds, _, partyIDs := startRounds(t, group, 3, nil)
		culprit := partyIDs[1]

		run(t, rounds, cheater{
			culprit: culprit,
			modify: func(group curve.Curve, content round.Content) {
				body, ok := content.(*broadcast4)
				if !ok {
					return
				}
				s, err := sample.Scalar(rand.Reader, group).MarshalBinary()
				require.NoError(t, err)
				body.Share = s
			},
		})
		checkAbort(t, rounds, culprit, musig.ErrInvalidShare)
	}
}
