package config

import (
	"errors"
	"fmt"

	"github.com/taurusgroup/musig/pkg/math/curve"
	"github.com/taurusgroup/musig/pkg/musig"
	"github.com/taurusgroup/musig/pkg/party"
)

// Config holds the long term key material of a signer, and the public keys of the parties it may sign with.
type Config struct {
	// ID of the signer holding this config.
	ID party.ID

	Group curve.Curve

	// PrivateKey is the signer's secret key xᵢ.
	PrivateKey curve.Scalar

	// PublicKeys maps every known party, ourselves included, to its public key Xⱼ = xⱼ⋅G.
	PublicKeys map[party.ID]musig.VerificationKey
}

// PublicKey returns the public key associated to ID.
func (c *Config) PublicKey() musig.VerificationKey {
	return c.PublicKeys[c.ID]
}

// PartyIDs returns a sorted slice of all parties with a known public key.
func (c *Config) PartyIDs() party.IDSlice {
	ids := make([]party.ID, 0, len(c.PublicKeys))
	for j := range c.PublicKeys {
		ids = append(ids, j)
	}
	return party.NewIDSlice(ids)
}

// Validate ensures that the data is consistent. In particular it verifies:
// - the private key is not zero, and belongs to Group,
// - our own public key is present and matches the private key,
// - every public key decodes to a point of Group, and no key appears twice.
func (c *Config) Validate() error {
	if c.Group == nil {
		return errors.New("config: no group")
	}
	if c.PrivateKey == nil || c.PrivateKey.IsZero() {
		return errors.New("config: private key is zero")
	}
	if c.PrivateKey.Curve().Name() != c.Group.Name() {
		return fmt.Errorf("config: private key: %w", musig.ErrGroupMismatch)
	}

	own, ok := c.PublicKeys[c.ID]
	if !ok {
		return fmt.Errorf("config: no public key for %s", c.ID)
	}
	expected, err := musig.VerificationKeyFromPoint(c.PrivateKey.ActOnBase())
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if !own.Equal(expected) {
		return fmt.Errorf("config: public key of %s does not match private key", c.ID)
	}

	seen := make(map[string]party.ID, len(c.PublicKeys))
	for _, j := range c.PartyIDs() {
		key := c.PublicKeys[j]
		if key.Group() == nil || key.Group().Name() != c.Group.Name() {
			return fmt.Errorf("config: party %s: %w", j, musig.ErrGroupMismatch)
		}
		if _, err = key.Point(); err != nil {
			return fmt.Errorf("config: party %s: %w", j, err)
		}
		if other, ok := seen[string(key.Bytes())]; ok {
			return fmt.Errorf("config: parties %s and %s: %w", other, j, musig.ErrDuplicateKey)
		}
		seen[string(key.Bytes())] = j
	}
	return nil
}

// Multikey returns the keys of signers in sorted ID order, and the Multikey they aggregate to.
//
// Every party in signers must have a known public key, and signers must include ID.
func (c *Config) Multikey(signers []party.ID) (*musig.Multikey, []musig.VerificationKey, error) {
	ids := party.NewIDSlice(signers)
	if !ids.Valid() {
		return nil, nil, errors.New("config: invalid signers")
	}
	if !ids.Contains(c.ID) {
		return nil, nil, fmt.Errorf("config: %s: %w", c.ID, musig.ErrNotASigner)
	}
	keys := make([]musig.VerificationKey, 0, len(ids))
	for _, j := range ids {
		key, ok := c.PublicKeys[j]
		if !ok {
			return nil, nil, fmt.Errorf("config: no public key for %s", j)
		}
		keys = append(keys, key)
	}
	multikey, err := musig.NewMultikey(keys)
	if err != nil {
		var partyErr *musig.PartyError
		if errors.As(err, &partyErr) {
			return nil, nil, fmt.Errorf("config: party %s: %w", ids[partyErr.Index], err)
		}
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	return multikey, keys, nil
}
