// Package neighbor implements the Neighbor triple referenced by Fork
// steps: the nibble distinguishing a sibling branch, the (possibly
// empty) skipped path prefix leading to it, and the Merkle root
// summarizing everything beneath it.
package neighbor

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/nibblelabs/forestry-go/hash"
)

// ErrInvalidLength is returned when decoding bytes whose length is not
// exactly nibble(1) + the given prefix length + root(32).
var ErrInvalidLength = errors.New("neighbor: invalid length")

// Neighbor describes the sole sibling recorded by a Fork step.
type Neighbor struct {
	// Nibble is the 0-15 index this neighbor occupies among its
	// parent's sixteen potential children.
	Nibble byte

	// Prefix is the path segment skipped between the parent and this
	// neighbor's own first branching point. A nil Prefix and an
	// empty, non-nil Prefix are equivalent.
	Prefix []byte

	// Root summarizes everything below this neighbor.
	Root hash.Hash
}

// New constructs a Neighbor. prefix may be nil.
func New(nibble byte, prefix []byte, root hash.Hash) Neighbor {
	return Neighbor{Nibble: nibble, Prefix: prefix, Root: root}
}

// Equal reports whether n and other describe the same neighbor. A nil
// Prefix compares equal to a zero-length, non-nil Prefix, matching the
// nil-vs-empty-slice equivalence the rest of this codebase observes
// for optional byte slices.
func (n Neighbor) Equal(other Neighbor) bool {
	if n.Nibble != other.Nibble {
		return false
	}
	if n.Root != other.Root {
		return false
	}
	return bytes.Equal(n.Prefix, other.Prefix)
}

// ToBytes encodes n as nibble(1) || prefix || root(32). The encoding
// carries no length field, so it is only unambiguous when the caller
// already knows the prefix length (a Step recovers it from the total
// length of its frame); FromBytes therefore takes it explicitly.
func (n Neighbor) ToBytes() []byte {
	out := make([]byte, 0, 1+len(n.Prefix)+hash.Size)
	out = append(out, n.Nibble)
	out = append(out, n.Prefix...)
	out = append(out, n.Root.Bytes()...)
	return out
}

// FromBytes decodes a Neighbor out of b, where prefixLen gives the
// number of prefix bytes to read between the leading nibble and the
// trailing root.
func FromBytes(b []byte, prefixLen int) (Neighbor, error) {
	want := 1 + prefixLen + hash.Size
	if len(b) != want {
		return Neighbor{}, fmt.Errorf("neighbor: decoding %d bytes, want %d: %w", len(b), want, ErrInvalidLength)
	}

	nibble := b[0]
	var prefix []byte
	if prefixLen > 0 {
		prefix = append(prefix, b[1:1+prefixLen]...)
	}

	root, err := hash.FromBytes(b[1+prefixLen:])
	if err != nil {
		return Neighbor{}, fmt.Errorf("neighbor: decoding root: %w", err)
	}

	return Neighbor{Nibble: nibble, Prefix: prefix, Root: root}, nil
}

// Compare orders neighbors first by Nibble, then by Prefix
// lexicographically, then by Root, matching the ordering the encoded
// Fork step inherits from its single Neighbor field.
func (n Neighbor) Compare(other Neighbor) int {
	if n.Nibble != other.Nibble {
		if n.Nibble < other.Nibble {
			return -1
		}
		return 1
	}
	if c := bytes.Compare(n.Prefix, other.Prefix); c != 0 {
		return c
	}
	return n.Root.Compare(other.Root)
}
