// Package step implements the Step type: the tagged union of Branch,
// Fork and Leaf variants that together make up a Proof. Go has no
// native sum type, so Step is a single struct tagged by a Kind field
// instead of an interface hierarchy.
package step

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/nibblelabs/forestry-go/hash"
	"github.com/nibblelabs/forestry-go/neighbor"
)

// Kind identifies which of the three Step variants a value holds.
type Kind byte

const (
	// KindBranch summarizes a node's sixteen children with four hashes.
	KindBranch Kind = iota
	// KindFork records a single occupied sibling explicitly.
	KindFork
	// KindLeaf terminates a path with a key/value pair.
	KindLeaf
)

// String renders the Kind's name, matching the teacher's Kind.String
// convention.
func (k Kind) String() string {
	switch k {
	case KindBranch:
		return "Branch"
	case KindFork:
		return "Fork"
	case KindLeaf:
		return "Leaf"
	default:
		return "Unknown"
	}
}

// wire tags, distinct from Kind's own ordinal values so the on-disk
// encoding stays stable even if Kind's declaration order ever changes.
const (
	tagBranch byte = 0
	tagFork   byte = 1
	tagLeaf   byte = 2
)

// ErrDeserialization is returned by FromBytes when b does not encode a
// well-formed Step.
var ErrDeserialization = errors.New("step: deserialization error")

// Step is one element of a Proof's path from the root down to (or
// past) a single key. Only the fields relevant to Kind are meaningful;
// the rest are left at their zero value.
type Step struct {
	Kind Kind

	// Skip is the number of nibbles elided between this step and its
	// parent by path compression. It is never fed into the canonical
	// hash: it exists purely to reconstruct display/traversal paths.
	Skip uint64

	// Neighbors holds a Branch's four hashes: the authentication path
	// through the 4-level binary Merkle tree over its sixteen children.
	// A zero Hash marks an empty subtree.
	Neighbors [4]hash.Hash

	// Neighbor holds a Fork's single explicit sibling.
	Neighbor neighbor.Neighbor

	// Key and Value hold a Leaf's key/value digests.
	Key   hash.Hash
	Value hash.Hash
}

// NewBranch constructs a Branch step.
func NewBranch(skip uint64, neighbors [4]hash.Hash) Step {
	return Step{Kind: KindBranch, Skip: skip, Neighbors: neighbors}
}

// NewFork constructs a Fork step.
func NewFork(skip uint64, n neighbor.Neighbor) Step {
	return Step{Kind: KindFork, Skip: skip, Neighbor: n}
}

// NewLeaf constructs a Leaf step.
func NewLeaf(skip uint64, key, value hash.Hash) Step {
	return Step{Kind: KindLeaf, Skip: skip, Key: key, Value: value}
}

// IsBranch reports whether s is a Branch step.
func (s Step) IsBranch() bool { return s.Kind == KindBranch }

// IsFork reports whether s is a Fork step.
func (s Step) IsFork() bool { return s.Kind == KindFork }

// IsLeaf reports whether s is a Leaf step.
func (s Step) IsLeaf() bool { return s.Kind == KindLeaf }

// NonZeroNeighbors returns a Branch step's non-zero Neighbors entries,
// in array order. It panics if s is not a Branch; callers are
// expected to check IsBranch first, matching the teacher's convention
// of panicking on programmer error rather than threading an error
// return through an invariant that should never trip in practice.
func (s Step) NonZeroNeighbors() []hash.Hash {
	if !s.IsBranch() {
		panic("step: NonZeroNeighbors called on a non-Branch step")
	}
	out := make([]hash.Hash, 0, 4)
	for _, n := range s.Neighbors {
		if !n.IsZero() {
			out = append(out, n)
		}
	}
	return out
}

// HashBytes returns the canonical framing fed to the hash function
// when summarizing this step, per the variant-specific rules:
//
//	Branch: count(1) || nonzero-neighbors-in-array-order
//	Fork:   0xFF || nibble(1) || prefix || root(32)
//	Leaf:   0x00 || key(32) || value(32)
//
// Skip is never part of this framing.
func (s Step) HashBytes() []byte {
	switch s.Kind {
	case KindBranch:
		nz := s.NonZeroNeighbors()
		out := make([]byte, 0, 1+len(nz)*hash.Size)
		out = append(out, byte(len(nz)))
		for _, n := range nz {
			out = append(out, n.Bytes()...)
		}
		return out
	case KindFork:
		out := make([]byte, 0, 2+len(s.Neighbor.Prefix)+hash.Size)
		out = append(out, 0xFF, s.Neighbor.Nibble)
		out = append(out, s.Neighbor.Prefix...)
		out = append(out, s.Neighbor.Root.Bytes()...)
		return out
	case KindLeaf:
		out := make([]byte, 0, 1+2*hash.Size)
		out = append(out, 0x00)
		out = append(out, s.Key.Bytes()...)
		out = append(out, s.Value.Bytes()...)
		return out
	default:
		panic(fmt.Sprintf("step: unknown kind %d", s.Kind))
	}
}

// Hash summarizes s under algo, applying HashBytes' canonical framing.
func (s Step) Hash(algo hash.Algorithm) hash.Hash {
	return hash.Digest(algo, s.HashBytes())
}

// ToBytes encodes the full wire representation of s: tag(1) ||
// skip(8, big-endian) || payload. Unlike HashBytes, this is a lossless
// round-trippable encoding used for storage and transmission, not for
// hashing.
func (s Step) ToBytes() []byte {
	var skipBuf [8]byte
	binary.BigEndian.PutUint64(skipBuf[:], s.Skip)

	switch s.Kind {
	case KindBranch:
		out := make([]byte, 0, 9+4*hash.Size)
		out = append(out, tagBranch)
		out = append(out, skipBuf[:]...)
		for _, n := range s.Neighbors {
			out = append(out, n.Bytes()...)
		}
		return out
	case KindFork:
		out := make([]byte, 0, 9+1+len(s.Neighbor.Prefix)+hash.Size)
		out = append(out, tagFork)
		out = append(out, skipBuf[:]...)
		out = append(out, s.Neighbor.ToBytes()...)
		return out
	case KindLeaf:
		out := make([]byte, 0, 9+2*hash.Size)
		out = append(out, tagLeaf)
		out = append(out, skipBuf[:]...)
		out = append(out, s.Key.Bytes()...)
		out = append(out, s.Value.Bytes()...)
		return out
	default:
		panic(fmt.Sprintf("step: unknown kind %d", s.Kind))
	}
}

// FromBytes decodes a Step out of its ToBytes wire representation. The
// Fork case needs the prefix length, which the encoding does not carry
// explicitly; since a Fork's Neighbor payload runs from byte 9 to the
// end minus the fixed 1+32-byte nibble+root suffix, the prefix length
// is recovered from the overall slice length.
func FromBytes(b []byte) (Step, error) {
	const headerLen = 9 // tag + 8-byte skip
	if len(b) < headerLen {
		return Step{}, fmt.Errorf("step: decoding %d bytes: %w", len(b), ErrDeserialization)
	}

	tag := b[0]
	skip := binary.BigEndian.Uint64(b[1:headerLen])
	payload := b[headerLen:]

	switch tag {
	case tagBranch:
		if len(payload) != 4*hash.Size {
			return Step{}, fmt.Errorf("step: invalid length %d for Branch: %w", len(b), ErrDeserialization)
		}
		var neighbors [4]hash.Hash
		for i := range neighbors {
			n, err := hash.FromBytes(payload[i*hash.Size : (i+1)*hash.Size])
			if err != nil {
				return Step{}, fmt.Errorf("step: decoding Branch neighbor %d: %w", i, err)
			}
			neighbors[i] = n
		}
		return NewBranch(skip, neighbors), nil

	case tagFork:
		if len(payload) < 1+hash.Size {
			return Step{}, fmt.Errorf("step: invalid length %d for Fork: %w", len(b), ErrDeserialization)
		}
		prefixLen := len(payload) - 1 - hash.Size
		n, err := neighbor.FromBytes(payload, prefixLen)
		if err != nil {
			return Step{}, fmt.Errorf("step: decoding Fork neighbor: %w", err)
		}
		return NewFork(skip, n), nil

	case tagLeaf:
		if len(payload) != 2*hash.Size {
			return Step{}, fmt.Errorf("step: invalid length %d for Leaf: %w", len(b), ErrDeserialization)
		}
		key, err := hash.FromBytes(payload[:hash.Size])
		if err != nil {
			return Step{}, fmt.Errorf("step: decoding Leaf key: %w", err)
		}
		value, err := hash.FromBytes(payload[hash.Size:])
		if err != nil {
			return Step{}, fmt.Errorf("step: decoding Leaf value: %w", err)
		}
		return NewLeaf(skip, key, value), nil

	default:
		return Step{}, fmt.Errorf("step: unknown tag %d: %w", tag, ErrDeserialization)
	}
}

// Equal reports whether s and other are the same Step, field for
// field.
func (s Step) Equal(other Step) bool {
	if s.Kind != other.Kind || s.Skip != other.Skip {
		return false
	}
	switch s.Kind {
	case KindBranch:
		return s.Neighbors == other.Neighbors
	case KindFork:
		return s.Neighbor.Equal(other.Neighbor)
	case KindLeaf:
		return s.Key == other.Key && s.Value == other.Value
	default:
		return false
	}
}

// Compare orders steps for the ordering-law tests: Branch < Fork <
// Leaf across variants, and by Skip then payload within a variant.
func (s Step) Compare(other Step) int {
	if s.Kind != other.Kind {
		if s.Kind < other.Kind {
			return -1
		}
		return 1
	}
	if s.Skip != other.Skip {
		if s.Skip < other.Skip {
			return -1
		}
		return 1
	}
	switch s.Kind {
	case KindBranch:
		for i := range s.Neighbors {
			if c := s.Neighbors[i].Compare(other.Neighbors[i]); c != 0 {
				return c
			}
		}
		return 0
	case KindFork:
		return s.Neighbor.Compare(other.Neighbor)
	case KindLeaf:
		if c := s.Key.Compare(other.Key); c != 0 {
			return c
		}
		return s.Value.Compare(other.Value)
	default:
		return 0
	}
}

// Less reports whether s sorts strictly before other.
func (s Step) Less(other Step) bool {
	return s.Compare(other) < 0
}
