package project

import (
	"crypto/sha256"
	"encoding/binary"
)

// Digest is a sha256 sum; sb3.Source.Digest has the same shape.
type Digest [32]byte

// CacheKey derives the IR cache key of a project document: H(content || salt...).
// Salts carry everything that changes the compiled output for the same
// input, such as the compiler version and the cache schema.
func CacheKey(content Digest, salts ...string) Digest {
	h := sha256.New()
	_, _ = h.Write(content[:])
	for _, s := range salts {
		// длина перед строкой, чтобы "ab"+"c" != "a"+"bc"
		var n [8]byte
		binary.LittleEndian.PutUint64(n[:], uint64(len(s)))
		_, _ = h.Write(n[:])
		_, _ = h.Write([]byte(s))
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}
