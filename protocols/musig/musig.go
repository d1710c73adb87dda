// Package musig runs the MuSig signing protocol between parties connected through a protocol.Handler.
package musig

import (
	"github.com/taurusgroup/musig/pkg/musig"
	"github.com/taurusgroup/musig/pkg/party"
	"github.com/taurusgroup/musig/pkg/pool"
	"github.com/taurusgroup/musig/pkg/protocol"
	"github.com/taurusgroup/musig/pkg/transcript"
	"github.com/taurusgroup/musig/protocols/musig/config"
	"github.com/taurusgroup/musig/protocols/musig/sign"
)

type (
	Config    = config.Config
	Signature = musig.Signature
)

// EmptyConfig creates an empty Config with a fixed group, ready for unmarshalling.
var EmptyConfig = config.EmptyConfig

// Sign generates a MuSig signature on message, for the aggregated key of signers.
//
// config holds the private key of this participant, and the public keys of all signers.
//
// signers is the list of all participants generating a signature together, including
// this participant. The keys are aggregated in the order of the sorted IDs.
//
// The result of the protocol is a *Signature, which verifies with
//   sig.Verify(musig.SigningTranscript(message), aggregatedKey)
func Sign(config *Config, signers []party.ID, message []byte, pl *pool.Pool) protocol.StartFunc {
	return sign.StartSign(config, signers, musig.SigningTranscript(message), pl)
}

// SignTranscript is like Sign, but the message is already contained in t.
//
// t is not modified.
func SignTranscript(config *Config, signers []party.ID, t *transcript.Transcript, pl *pool.Pool) protocol.StartFunc {
	return sign.StartSign(config, signers, t, pl)
}

// AggregatedKey returns the key that signatures produced by signers verify against.
func AggregatedKey(config *Config, signers []party.ID) (musig.VerificationKey, error) {
	multikey, _, err := config.Multikey(signers)
	if err != nil {
		return musig.VerificationKey{}, err
	}
	return multikey.AggregatedKey(), nil
}
