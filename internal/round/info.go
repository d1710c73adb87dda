package round

import (
	"github.com/taurusgroup/musig/pkg/math/curve"
	"github.com/taurusgroup/musig/pkg/party"
)

// Info is the static description of a protocol execution, given to NewSession.
type Info struct {
	// ProtocolID is an identifier for this protocol
	ProtocolID string
	// FinalRoundNumber is the number of rounds before the output round.
	FinalRoundNumber Number
	// SelfID is this party's ID.
	SelfID party.ID
	// PartyIDs is a slice of participating parties in this protocol.
	PartyIDs []party.ID
	// Group returns the group used for this protocol execution.
	Group curve.Curve
}
