package hash

import (
	"encoding/binary"
	"io"
)

// WriterToWithDomain represents a type writing itself, and knowing its domain.
//
// Providing a domain string lets us distinguish the output of different types
// implementing this same interface.
type WriterToWithDomain interface {
	io.WriterTo

	// Domain returns a context string, which should be unique for each implementor
	Domain() string
}

// writeWithDomain writes out a piece of data, using its domain.
//
// The domain and the data are each prefixed by their length, so that
// two different sequences of writes can never produce the same stream.
func writeWithDomain(w io.Writer, object WriterToWithDomain) error {
	domain := []byte(object.Domain())
	if err := writeLength(w, len(domain)); err != nil {
		return err
	}
	if _, err := w.Write(domain); err != nil {
		return err
	}

	// the length of the data is only known once it is written
	var buf lengthBuffer
	if _, err := object.WriteTo(&buf); err != nil {
		return err
	}
	if err := writeLength(w, len(buf)); err != nil {
		return err
	}
	_, err := w.Write(buf)
	return err
}

func writeLength(w io.Writer, n int) error {
	var lengthBytes [8]byte
	binary.BigEndian.PutUint64(lengthBytes[:], uint64(n))
	_, err := w.Write(lengthBytes[:])
	return err
}

type lengthBuffer []byte

func (b *lengthBuffer) Write(p []byte) (int, error) {
	*b = append(*b, p...)
	return len(p), nil
}

// BytesWithDomain is a useful wrapper to annotate some chunk of data with a domain.
//
// The intention is to wrap some data using this struct, and then call WriteWithDomain,
// or use this struct as a WriterToWithDomain somewhere else.
type BytesWithDomain struct {
	TheDomain string
	Bytes     []byte
}

// WriteTo implements io.WriterTo.
func (b BytesWithDomain) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(b.Bytes)
	return int64(n), err
}

// Domain implements WriterToWithDomain.
func (b BytesWithDomain) Domain() string {
	return b.TheDomain
}
