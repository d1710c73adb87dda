package hash

import (
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/musig/internal/params"
	"github.com/taurusgroup/musig/pkg/math/curve"
	"github.com/zeebo/blake3"
)

const DigestLengthBytes = params.HashBytes // 64

// Hash is the hash function we use for deriving challenges, committing to nonces, and identifying sessions.
//
// Internally, this is a wrapper around blake3, but any hash function with
// an easily extendable output would work as well.
type Hash struct {
	h *blake3.Hasher
}

// New creates a Hash struct, and writes the initial data with domain separation.
func New(initialData ...WriterToWithDomain) *Hash {
	hash := &Hash{h: blake3.New()}
	for _, d := range initialData {
		_ = hash.WriteAny(d)
	}
	return hash
}

// Digest returns a reader for the current output of the function.
//
// This finalizes the current state of the hash, and returns what's
// essentially a stream of random bytes.
func (hash *Hash) Digest() io.Reader {
	return hash.h.Digest()
}

// Sum returns a slice of length DigestLengthBytes resulting from the current hash state.
// If a different length is required, use io.ReadFull(hash.Digest(), out) instead.
func (hash *Hash) Sum() []byte {
	out := make([]byte, DigestLengthBytes)
	if _, err := io.ReadFull(hash.Digest(), out); err != nil {
		panic(fmt.Sprintf("hash.Sum: internal hash failure: %v", err))
	}
	return out
}

// WriteAny takes many different data types and writes them to the hash state.
//
// Currently supported types:
//
//   - []byte
//   - uint64
//   - *saferith.Nat
//   - curve.Scalar
//   - curve.Point
//   - hash.WriterToWithDomain
//
// This function will apply its own domain separation for the first types.
// The last type already suggests which domain to use, and this function respects it.
func (hash *Hash) WriteAny(data ...interface{}) error {
	var toBeWritten WriterToWithDomain
	for _, d := range data {
		switch t := d.(type) {
		case []byte:
			toBeWritten = &BytesWithDomain{"[]byte", t}
		case uint64:
			buf := make([]byte, 8)
			binary.BigEndian.PutUint64(buf, t)
			toBeWritten = &BytesWithDomain{"uint64", buf}
		case *saferith.Nat:
			if t == nil {
				return errors.New("hash.Hash: write *saferith.Nat: nil")
			}
			toBeWritten = &BytesWithDomain{"saferith.Nat", t.Bytes()}
		case curve.Scalar:
			bytes, err := t.MarshalBinary()
			if err != nil {
				return fmt.Errorf("hash.Hash: write curve.Scalar: %w", err)
			}
			toBeWritten = &BytesWithDomain{"curve.Scalar", bytes}
		case curve.Point:
			bytes, err := t.MarshalBinary()
			if err != nil {
				return fmt.Errorf("hash.Hash: write curve.Point: %w", err)
			}
			toBeWritten = &BytesWithDomain{"curve.Point", bytes}
		case WriterToWithDomain:
			toBeWritten = t
		default:
			panic(fmt.Sprintf("hash.Hash: unsupported type %T", d))
		}

		if err := writeWithDomain(hash.h, toBeWritten); err != nil {
			return fmt.Errorf("hash.Hash: write %s: %w", toBeWritten.Domain(), err)
		}
	}
	return nil
}

// Clone returns a copy of the Hash in its current state.
func (hash *Hash) Clone() *Hash {
	return &Hash{h: hash.h.Clone()}
}

// Equal compares two digests in constant time.
func Equal(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
