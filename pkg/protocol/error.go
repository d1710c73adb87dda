package protocol

import (
	"errors"
	"fmt"

	"github.com/taurusgroup/musig/internal/round"
	"github.com/taurusgroup/musig/pkg/party"
)

var (
	// ErrAbortedByPeer is wrapped by the error of a handler which received an abort message from another party.
	ErrAbortedByPeer = errors.New("protocol: aborted by other party")
	// ErrAbortedByUser is the error of a handler on which Stop was called.
	ErrAbortedByUser = errors.New("protocol: aborted by user")
	// ErrBroadcastVerification indicates that some party did not receive the same broadcast messages as us.
	ErrBroadcastVerification = errors.New("protocol: broadcast verification failed")
	// ErrDuplicateMessage indicates that a party sent two messages for the same round.
	ErrDuplicateMessage = errors.New("protocol: duplicate message")
)

// Error is a custom error for protocols which contains information about the responsible round in which it occurred,
// and the parties responsible.
type Error struct {
	// RoundNumber where the error occurred
	RoundNumber round.Number
	// Culprits is empty if the identity of the misbehaving party cannot be known.
	Culprits []party.ID
	// Err is the underlying error.
	Err error
}

// Error implements error.
func (e Error) Error() string {
	if len(e.Culprits) == 0 {
		return fmt.Sprintf("round %d: %s", e.RoundNumber, e.Err)
	}
	return fmt.Sprintf("round %d: culprits: %v: %s", e.RoundNumber, e.Culprits, e.Err)
}

// Unwrap implement errors.Wrapper.
func (e Error) Unwrap() error {
	return e.Err
}
