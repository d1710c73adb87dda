package musig

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPoint is returned when an encoding does not decode to a valid group element.
	ErrInvalidPoint = errors.New("musig: invalid point")
	// ErrPrecommitmentMismatch is returned when a revealed nonce does not match the precommitment of its sender.
	ErrPrecommitmentMismatch = errors.New("musig: nonce does not match precommitment")
	// ErrInvalidShare is returned when a signature share fails its individual check.
	ErrInvalidShare = errors.New("musig: invalid signature share")
	// ErrVerificationFailed is returned when a signature does not satisfy the verification equation.
	ErrVerificationFailed = errors.New("musig: signature verification failed")
	// ErrEmptyKeySet is returned when creating a Multikey without any key.
	ErrEmptyKeySet = errors.New("musig: empty key set")

	ErrMessageCount      = errors.New("musig: wrong number of messages")
	ErrKeySetMismatch    = errors.New("musig: keys do not match the multikey")
	ErrNotASigner        = errors.New("musig: private key does not belong to the key set")
	ErrDuplicateKey      = errors.New("musig: duplicate key")
	ErrGroupMismatch     = errors.New("musig: keys belong to different groups")
	ErrInvalidPrivateKey = errors.New("musig: invalid private key")
	ErrPartyConsumed     = errors.New("musig: party state was already used")
)

// PartyError identifies the participant responsible for a failure,
// by its index in the ordered list of keys.
type PartyError struct {
	Index int
	Err   error
}

func (e *PartyError) Error() string {
	return fmt.Sprintf("party %d: %v", e.Index, e.Err)
}

func (e *PartyError) Unwrap() error {
	return e.Err
}

func partyError(i int, err error) error {
	return &PartyError{Index: i, Err: err}
}
