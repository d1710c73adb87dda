package musig

import (
	"io"

	"github.com/taurusgroup/musig/internal/params"
	"github.com/taurusgroup/musig/pkg/hash"
)

const precommitLabel = "MuSig.nonce-precommit"

// PrecommitmentLength is the size in bytes of a Precommitment.
const PrecommitmentLength = params.SecBytes

// Precommitment is a binding commitment H(Rᵢ) to the nonce of a signer, sent in the first round.
type Precommitment []byte

// Commitment is the compressed nonce Rᵢ of a signer, sent in the second round.
type Commitment []byte

// Share is the encoded partial signature sᵢ of a signer, sent in the third round.
type Share []byte

// precommit computes H(R).
func precommit(R Commitment) Precommitment {
	h := hash.New(&hash.BytesWithDomain{TheDomain: precommitLabel, Bytes: R})
	out := make([]byte, PrecommitmentLength)
	_, _ = io.ReadFull(h.Digest(), out)
	return out
}

// Matches returns true if c is the nonce p commits to.
func (p Precommitment) Matches(c Commitment) bool {
	return hash.Equal(p, precommit(c))
}
