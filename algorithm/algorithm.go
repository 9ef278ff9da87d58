// Package algorithm wires concrete hash functions into the
// hash.Algorithm (new/update/finalize) contract the forestry core is
// parameterised over. The core itself never imports a concrete hash
// implementation; it only ever sees hash.Algorithm.
package algorithm

import (
	"crypto/sha512"

	"golang.org/x/crypto/blake2s"
	"golang.org/x/crypto/sha3"
	"lukechampine.com/blake3"

	"github.com/minio/blake2b-simd"
	sha256simd "github.com/minio/sha256-simd"

	"github.com/nibblelabs/forestry-go/hash"
)

// Blake2b256 constructs a Blake2b hasher truncated to 256 bits.
func Blake2b256() hash.Hasher {
	h, err := blake2b.New(&blake2b.Config{Size: hash.Size})
	if err != nil {
		// New only fails on a malformed Config, and this one is fixed and valid.
		panic(err)
	}
	return h
}

// Blake2s256 constructs a Blake2s-256 hasher.
func Blake2s256() hash.Hasher {
	h, err := blake2s.New256(nil)
	if err != nil {
		panic(err)
	}
	return h
}

// Blake3 constructs a Blake3 hasher with a 256-bit output.
func Blake3() hash.Hasher {
	return blake3.New(hash.Size, nil)
}

// SHA256 constructs a SHA-256 hasher using the SIMD-accelerated
// implementation rather than the standard library's.
func SHA256() hash.Hasher {
	return sha256simd.New()
}

// SHA512Truncated constructs a SHA-512 hasher whose Sum output is
// truncated to the leading 32 bytes, per the spec's rule for digests
// wider than 32 bytes.
func SHA512Truncated() hash.Hasher {
	return &truncated{inner: sha512.New()}
}

// SHA3_256 constructs a SHA3-256 hasher.
func SHA3_256() hash.Hasher { //nolint:revive,stylecheck
	return sha3.New256()
}

// SHA3_512Truncated constructs a SHA3-512 hasher whose Sum output is
// truncated to the leading 32 bytes.
func SHA3_512Truncated() hash.Hasher { //nolint:revive,stylecheck
	return &truncated{inner: sha3.New512()}
}

// truncated wraps a wider hasher, exposing only the leading hash.Size
// bytes of its digest. Reset/Write pass straight through.
type truncated struct {
	inner hash.Hasher
}

func (t *truncated) Write(p []byte) (int, error) { return t.inner.Write(p) }
func (t *truncated) Reset()                      { t.inner.Reset() }
func (t *truncated) Size() int                    { return hash.Size }

func (t *truncated) Sum(b []byte) []byte {
	full := t.inner.Sum(nil)
	return append(b, full[:hash.Size]...)
}
