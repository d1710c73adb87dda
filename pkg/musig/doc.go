// Package musig implements MuSig multi-party Schnorr signatures.
//
// N signers aggregate their public keys into a single Multikey, and then run a three round
// protocol, each signer driving its own Party:
//
//	party, precommitment, err := NewParty(t, x, multikey, keys)
//	// broadcast precommitment, collect all of them
//	party2, commitment, err := party.ReceivePrecommitments(precommitments)
//	// broadcast commitment, collect all of them
//	party3, share, err := party2.ReceiveCommitments(commitments)
//	// broadcast share, collect all of them
//	sig, err := party3.ReceiveShares(shares)
//
// Every state can be advanced only once, and a failed transition discards the nonce,
// so that a nonce is never used for two different signatures.
//
// The resulting Signature verifies against Multikey.AggregatedKey() like a plain Schnorr signature.
//
// Delivering messages, and making sure that every signer uses the same ordered list of keys,
// is the responsibility of the caller.
package musig
