package test

import (
	"io"

	"github.com/taurusgroup/musig/pkg/math/curve"
	"github.com/taurusgroup/musig/pkg/math/sample"
	"github.com/taurusgroup/musig/pkg/musig"
	"github.com/taurusgroup/musig/pkg/party"
	"github.com/taurusgroup/musig/protocols/musig/config"
)

// GenerateConfig creates a random private key for each of N parties over the group,
// and a Config per party sharing all public keys.
func GenerateConfig(group curve.Curve, N int, source io.Reader) (map[party.ID]*config.Config, party.IDSlice) {
	partyIDs := PartyIDs(N)
	configs := make(map[party.ID]*config.Config, N)
	public := make(map[party.ID]musig.VerificationKey, N)

	for _, pid := range partyIDs {
		x, X := sample.ScalarPointPair(source, group)
		key, err := musig.VerificationKeyFromPoint(X)
		if err != nil {
			panic(err)
		}
		public[pid] = key
		configs[pid] = &config.Config{
			ID:         pid,
			Group:      group,
			PrivateKey: x,
			PublicKeys: public,
		}
	}
	return configs, partyIDs
}
