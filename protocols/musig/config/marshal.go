package config

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/taurusgroup/musig/pkg/math/curve"
	"github.com/taurusgroup/musig/pkg/musig"
	"github.com/taurusgroup/musig/pkg/party"
)

// EmptyConfig creates an empty Config with a fixed group, ready for unmarshalling.
//
// This needs to be used for unmarshalling, otherwise the private key can't
// be decoded.
func EmptyConfig(group curve.Curve) *Config {
	return &Config{
		Group: group,
	}
}

type configMarshal struct {
	ID         party.ID
	PrivateKey curve.Scalar
	Public     []cbor.RawMessage
}

type publicMarshal struct {
	ID  party.ID
	Key musig.VerificationKey
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (c *Config) MarshalBinary() ([]byte, error) {
	ps := make([]cbor.RawMessage, 0, len(c.PublicKeys))
	for _, id := range c.PartyIDs() {
		data, err := cbor.Marshal(&publicMarshal{
			ID:  id,
			Key: c.PublicKeys[id],
		})
		if err != nil {
			return nil, fmt.Errorf("config: party %s: %w", id, err)
		}
		ps = append(ps, data)
	}
	return cbor.Marshal(&configMarshal{
		ID:         c.ID,
		PrivateKey: c.PrivateKey,
		Public:     ps,
	})
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
//
// The resulting Config is validated.
func (c *Config) UnmarshalBinary(data []byte) error {
	if c.Group == nil {
		return errors.New("config must be initialized using EmptyConfig")
	}
	cm := &configMarshal{
		PrivateKey: c.Group.NewScalar(),
	}
	if err := cbor.Unmarshal(data, cm); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ps := make(map[party.ID]musig.VerificationKey, len(cm.Public))
	for _, pm := range cm.Public {
		var p publicMarshal
		if err := cbor.Unmarshal(pm, &p); err != nil {
			return fmt.Errorf("config: party %s: %w", p.ID, err)
		}
		if _, ok := ps[p.ID]; ok {
			return fmt.Errorf("config: party %s: duplicate entry", p.ID)
		}
		ps[p.ID] = p.Key
	}

	*c = Config{
		ID:         cm.ID,
		Group:      c.Group,
		PrivateKey: cm.PrivateKey,
		PublicKeys: ps,
	}
	return c.Validate()
}
