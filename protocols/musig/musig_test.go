package musig

import (
	"crypto/rand"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/musig/internal/test"
	"github.com/taurusgroup/musig/pkg/math/curve"
	"github.com/taurusgroup/musig/pkg/musig"
	"github.com/taurusgroup/musig/pkg/party"
	"github.com/taurusgroup/musig/pkg/pool"
	"github.com/taurusgroup/musig/pkg/protocol"
	"golang.org/x/sync/errgroup"
)

func do(id party.ID, ids []party.ID, c *Config, message []byte, pl *pool.Pool, n *test.Network) (*Signature, error) {
	h, err := protocol.NewMultiHandler(Sign(c, ids, message, pl), nil)
	if err != nil {
		return nil, err
	}
	test.HandlerLoop(id, h, n)
	r, err := h.Result()
	if err != nil {
		return nil, err
	}
	sig, ok := r.(*Signature)
	if !ok {
		return nil, errors.New("result is not a signature")
	}
	return sig, nil
}

func TestMuSig(t *testing.T) {
	message := []byte("hello")

	pl := pool.NewPool(0)
	defer pl.TearDown()

	for _, group := range []curve.Curve{curve.Secp256k1{}, curve.Edwards25519{}} {
		N := 5
		configs, partyIDs := test.GenerateConfig(group, N, rand.Reader)
		n := test.NewNetwork(partyIDs)

		signatures := make([]*Signature, N)
		var eg errgroup.Group
		for i, id := range partyIDs {
			i, id := i, id
			eg.Go(func() error {
				sig, err := do(id, partyIDs, configs[id], message, pl, n)
				signatures[i] = sig
				return err
			})
		}
		require.NoError(t, eg.Wait())

		public, err := AggregatedKey(configs[partyIDs[0]], partyIDs)
		require.NoError(t, err)
		expected, err := signatures[0].MarshalBinary()
		require.NoError(t, err)
		for _, sig := range signatures {
			assert.NoError(t, sig.Verify(musig.SigningTranscript(message), public))
			data, err := sig.MarshalBinary()
			require.NoError(t, err)
			assert.Equal(t, expected, data)
		}
	}
}

func TestMuSigTranscript(t *testing.T) {
	group := curve.Edwards25519{}
	configs, partyIDs := test.GenerateConfig(group, 3, rand.Reader)
	n := test.NewNetwork(partyIDs)

	tr := musig.SigningTranscript([]byte("payload"))
	tr.AppendMessage("context", []byte("test"))

	signatures := make([]*Signature, len(partyIDs))
	var eg errgroup.Group
	for i, id := range partyIDs {
		i, id := i, id
		eg.Go(func() error {
			h, err := protocol.NewMultiHandler(SignTranscript(configs[id], partyIDs, tr.Clone(), nil), []byte("session"))
			if err != nil {
				return err
			}
			test.HandlerLoop(id, h, n)
			r, err := h.Result()
			if err != nil {
				return err
			}
			signatures[i] = r.(*Signature)
			return nil
		})
	}
	require.NoError(t, eg.Wait())

	public, err := AggregatedKey(configs[partyIDs[0]], partyIDs)
	require.NoError(t, err)
	assert.NoError(t, signatures[0].Verify(tr, public))
	assert.ErrorIs(t, signatures[0].Verify(musig.SigningTranscript([]byte("payload")), public), musig.ErrVerificationFailed)
}

// TestMuSigCheater tampers with the nonce commitment of one party on the wire,
// every honest party must abort.
func TestMuSigCheater(t *testing.T) {
	message := []byte("hello")
	group := curve.Secp256k1{}
	N := 4
	configs, partyIDs := test.GenerateConfig(group, N, rand.Reader)
	culprit := partyIDs[1]

	n := test.NewNetwork(partyIDs)
	n.Intercept(func(msg *protocol.Message) *protocol.Message {
		if msg.From != culprit || msg.RoundNumber != 3 || !msg.Broadcast {
			return msg
		}
		tampered := *msg
		tampered.Data = append([]byte(nil), msg.Data...)
		tampered.Data[len(tampered.Data)-1] ^= 1
		return &tampered
	})

	errs := make([]error, N)
	var eg errgroup.Group
	for i, id := range partyIDs {
		i, id := i, id
		eg.Go(func() error {
			_, errs[i] = do(id, partyIDs, configs[id], message, nil, n)
			return nil
		})
	}
	require.NoError(t, eg.Wait())

	blamed := 0
	for i, id := range partyIDs {
		require.Error(t, errs[i], "party %s should not produce a signature", id)
		if id == culprit {
			continue
		}
		var protocolErr protocol.Error
		require.True(t, errors.As(errs[i], &protocolErr), "party %s: %v", id, errs[i])
		// an honest party either detected the cheater, or was told to abort by a party which did
		for _, c := range protocolErr.Culprits {
			assert.Equal(t, culprit, c)
		}
		if len(protocolErr.Culprits) > 0 {
			blamed++
		} else {
			assert.ErrorIs(t, errs[i], protocol.ErrAbortedByPeer)
		}
	}
	assert.Positive(t, blamed)
}
