package party

import (
	"encoding/binary"
	"io"
	"math/rand"
	"sort"
)

// IDSlice is a sorted list of party IDs, which defines the order in which parties
// appear in a protocol.
type IDSlice []ID

// NewIDSlice returns a sorted copy of partyIDs.
func NewIDSlice(partyIDs []ID) IDSlice {
	ids := IDSlice(partyIDs).Copy()
	ids.sort()
	return ids
}

func (partyIDs IDSlice) Len() int           { return len(partyIDs) }
func (partyIDs IDSlice) Less(i, j int) bool { return partyIDs[i] < partyIDs[j] }
func (partyIDs IDSlice) Swap(i, j int)      { partyIDs[i], partyIDs[j] = partyIDs[j], partyIDs[i] }

func (partyIDs IDSlice) sort() { sort.Sort(partyIDs) }

// Contains returns true if partyIDs contains all ids.
func (partyIDs IDSlice) Contains(ids ...ID) bool {
	for _, id := range ids {
		if _, ok := partyIDs.search(id); !ok {
			return false
		}
	}
	return true
}

// Valid returns true if the IDSlice is sorted, does not contain duplicates,
// and has no empty ID.
func (partyIDs IDSlice) Valid() bool {
	n := len(partyIDs)
	for i := 0; i < n; i++ {
		if partyIDs[i] == "" {
			return false
		}
		if i > 0 && partyIDs[i-1] >= partyIDs[i] {
			return false
		}
	}
	return true
}

// GetIndex returns the index of id in partyIDs.
// If no index was found, return -1.
func (partyIDs IDSlice) GetIndex(id ID) int {
	if idx, ok := partyIDs.search(id); ok {
		return idx
	}
	return -1
}

func (partyIDs IDSlice) search(x ID) (int, bool) {
	index := sort.Search(len(partyIDs), func(i int) bool { return partyIDs[i] >= x })
	if index >= 0 && index < len(partyIDs) && partyIDs[index] == x {
		return index, true
	}
	return 0, false
}

// Copy returns an identical copy of the received.
func (partyIDs IDSlice) Copy() IDSlice {
	a := make(IDSlice, len(partyIDs))
	copy(a, partyIDs)
	return a
}

// Remove finds id in partyIDs and returns a copy of the slice if it was found.
func (partyIDs IDSlice) Remove(id ID) IDSlice {
	newPartyIDs := make(IDSlice, 0, len(partyIDs))
	for _, partyID := range partyIDs {
		if partyID != id {
			newPartyIDs = append(newPartyIDs, partyID)
		}
	}
	return newPartyIDs
}

// Equal returns true if both slices contain the same IDs in the same order.
func (partyIDs IDSlice) Equal(other IDSlice) bool {
	if len(partyIDs) != len(other) {
		return false
	}
	for i := range partyIDs {
		if partyIDs[i] != other[i] {
			return false
		}
	}
	return true
}

// RandomIDs returns a slice of random IDs with 20 alphanumeric characters.
func RandomIDs(n int) IDSlice {
	const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

	partyIDs := make(IDSlice, n)
	for i := range partyIDs {
		b := make([]byte, 20)
		for j := range b {
			b[j] = letters[rand.Intn(len(letters))]
		}
		partyIDs[i] = ID(b)
	}
	partyIDs.sort()
	return partyIDs
}

// WriteTo implements io.WriterTo and should be used within the hash.Hash function.
// Each ID is prefixed by its length.
func (partyIDs IDSlice) WriteTo(w io.Writer) (int64, error) {
	if partyIDs == nil {
		return 0, io.ErrUnexpectedEOF
	}
	var nAll int64
	if err := binary.Write(w, binary.BigEndian, uint32(len(partyIDs))); err != nil {
		return nAll, err
	}
	nAll += 4
	for _, id := range partyIDs {
		if err := binary.Write(w, binary.BigEndian, uint32(len(id))); err != nil {
			return nAll, err
		}
		nAll += 4
		n, err := id.WriteTo(w)
		nAll += n
		if err != nil {
			return nAll, err
		}
	}
	return nAll, nil
}

// Domain implements hash.WriterToWithDomain, and separates this type within hash.Hash.
func (IDSlice) Domain() string {
	return "IDSlice"
}
