package params

const (
	SecParam = 256
	SecBytes = SecParam / 8

	// HashBytes is the length of the digests produced by pkg/hash.
	HashBytes = 2 * SecBytes
)
