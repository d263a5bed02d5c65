package blindmark

import (
	"crypto/sha256"
	"encoding/binary"
)

// Seed derives the codec seed from a password: SHA-256, first 8 bytes
// as a big-endian unsigned integer, reduced modulo 2³¹−1. The same
// password always yields the same seed; the seed parameterizes both the
// carrier keying and the payload permutation.
func Seed(password string) int64 {
	sum := sha256.Sum256([]byte(password))
	v := binary.BigEndian.Uint64(sum[:8])
	return int64(v % (1<<31 - 1))
}
