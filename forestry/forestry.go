// Package forestry implements the authenticated, append-only
// key/value map described by this module: a Forestry carries a Proof
// as its entire state, and that same Proof is both the thing that gets
// replicated and the witness handed to a verifier.
package forestry

import (
	"errors"
	"fmt"

	"github.com/nibblelabs/forestry-go/hash"
	"github.com/nibblelabs/forestry-go/proof"
	"github.com/nibblelabs/forestry-go/step"
)

// ErrEmptyKeyOrValue is returned by Insert when key is empty. An empty
// value is permitted.
var ErrEmptyKeyOrValue = errors.New("forestry: empty key")

// ErrInvalidLength is returned by FromRoot when the supplied root is
// not exactly hash.Size bytes.
var ErrInvalidLength = errors.New("forestry: invalid length")

// Reserved error kinds. No operation in this module returns them; they
// are declared so that higher-level callers share one error surface.
var (
	ErrSerialization    = errors.New("forestry: serialization error")
	ErrInvalidProof     = errors.New("forestry: invalid proof")
	ErrInvalidOperation = errors.New("forestry: invalid operation")
	ErrInvalidState     = errors.New("forestry: invalid state")
	ErrElementExists    = errors.New("forestry: element exists")
	ErrElementNotExists = errors.New("forestry: element does not exist")
)

// Forestry is a Merkle-Patricia Forestry: a Proof together with the
// root hash it resolves to and the algorithm used to compute digests.
// A Forestry owns no persistent tree structure of its own — the proof
// is the state.
type Forestry struct {
	proof     *proof.Proof
	root      hash.Hash
	algorithm hash.Algorithm

	// dirty tracks whether root needs recomputing from proof before
	// the next read: mutating operations mark the cache stale, and
	// Root brings it back in sync from proof.
	dirty bool
}

// Empty constructs a Forestry with no entries.
func Empty(algo hash.Algorithm) *Forestry {
	return &Forestry{
		proof:     proof.New(),
		root:      hash.Zero(),
		algorithm: algo,
	}
}

// FromRoot constructs a Forestry that knows only its root, with an
// empty proof. Such a Forestry can neither Verify nor Insert
// meaningfully until merged with a Proof that actually resolves to
// root; it exists to let a party hold a commitment without the data
// behind it.
func FromRoot(algo hash.Algorithm, root []byte) (*Forestry, error) {
	h, err := hash.FromBytes(root)
	if err != nil {
		return nil, fmt.Errorf("forestry: %w: %w", ErrInvalidLength, err)
	}
	return &Forestry{
		proof:     proof.New(),
		root:      h,
		algorithm: algo,
	}, nil
}

// FromProof constructs a Forestry from an existing Proof, computing
// its root immediately.
func FromProof(algo hash.Algorithm, p *proof.Proof) *Forestry {
	return &Forestry{
		proof:     p,
		root:      CalculateRoot(algo, p),
		algorithm: algo,
	}
}

// IsEmpty reports whether f carries no proof steps.
func (f *Forestry) IsEmpty() bool {
	return f.proof.IsEmpty()
}

// Root returns the Forestry's current root hash, recomputing it from
// the proof first if a prior mutation left the cache stale.
func (f *Forestry) Root() hash.Hash {
	if f.dirty {
		f.root = CalculateRoot(f.algorithm, f.proof)
		f.dirty = false
	}
	return f.root
}

// Proof returns the Forestry's underlying Proof. The returned value
// aliases the Forestry's storage and must not be mutated directly;
// use Insert, Merge or Apply instead.
func (f *Forestry) Proof() *proof.Proof {
	return f.proof
}

// Verify reports whether key maps to value under f's current proof
// and root: the proof must contain a matching Leaf step, and
// recomputing the root from the proof must match the root f claims.
func (f *Forestry) Verify(key, value []byte) bool {
	if f.IsEmpty() {
		return false
	}

	keyHash := hash.Digest(f.algorithm, key)
	valueHash := hash.Digest(f.algorithm, value)

	if !containsLeaf(f.proof, keyHash, valueHash) {
		return false
	}

	return CalculateRoot(f.algorithm, f.proof) == f.Root()
}

// VerifyProof reports whether the given Proof contains a Leaf step
// binding key to value, without reference to any Forestry's own
// state. It does not check that p resolves to any particular root;
// callers that need that guarantee compare CalculateRoot(algo, p)
// against a trusted root themselves (p.Root() is only the final
// step's structural hash, not the proof's digest).
func VerifyProof(key, value hash.Hash, p *proof.Proof) bool {
	if p.IsEmpty() {
		return false
	}
	return containsLeaf(p, key, value)
}

func containsLeaf(p *proof.Proof, key, value hash.Hash) bool {
	for _, s := range p.Steps() {
		if s.IsLeaf() && s.Key == key && s.Value == value {
			return true
		}
	}
	return false
}

// Insert adds or replaces the value bound to key, returning the hash
// of the stored value. key must be non-empty; value may be empty.
func (f *Forestry) Insert(key, value []byte) (hash.Hash, error) {
	if len(key) == 0 {
		return hash.Hash{}, ErrEmptyKeyOrValue
	}

	keyHash := hash.Digest(f.algorithm, key)
	valueHash := hash.Digest(f.algorithm, value)

	f.proof = insertToProof(f.proof, keyHash, valueHash)
	f.dirty = true
	f.Root() // eagerly resolve, matching the reference semantics of
	// keeping root always in sync with the stored proof.

	return valueHash, nil
}

// insertToProof returns a new Proof with any existing Leaf for key
// replaced by a fresh Leaf for (key, value), then path-compressed.
func insertToProof(p *proof.Proof, key, value hash.Hash) *proof.Proof {
	next := p.Clone()
	next.Retain(func(s step.Step) bool {
		return !(s.IsLeaf() && s.Key == key)
	})
	next.Push(step.NewLeaf(0, key, value))
	compressPath(next)
	return next
}

// compressPath merges adjacent Branch steps that each summarize
// exactly one occupied child into a single Branch step whose skip
// accounts for both, in one left-to-right pass. This is the only
// optimization this implementation performs over the raw appended
// proof. Each Branch step contributes its own frame to CalculateRoot,
// so a merge drops the left step's frame from the hashed stream: the
// root of a compressed proof differs from that of the same proof
// uncompressed. Insert computes the root after compression.
func compressPath(p *proof.Proof) {
	i := 0
	for i < p.Len()-1 {
		a, _ := p.Get(i)
		b, _ := p.Get(i + 1)

		if a.IsBranch() && b.IsBranch() && len(a.NonZeroNeighbors()) == 1 && len(b.NonZeroNeighbors()) == 1 {
			merged := step.NewBranch(a.Skip+b.Skip+1, b.Neighbors)
			p.Set(i, merged)
			p.Remove(i + 1)
			continue
		}
		i++
	}
}

// CalculateRoot computes the Merkle root a Proof resolves to under
// algo, folding each step's canonical hash framing into a single
// running digest from first step to last.
func CalculateRoot(algo hash.Algorithm, p *proof.Proof) hash.Hash {
	h := algo()
	for _, s := range p.Steps() {
		h.Write(s.HashBytes())
	}
	return hash.FromSlice(h.Sum(nil))
}

// Merge implements CvRDT convergence: it folds in every step of other
// that f does not already have, by structural equality, then
// recomputes the root. Because step union is commutative, associative
// and idempotent, so is Merge.
func (f *Forestry) Merge(other *Forestry) error {
	merged := f.proof.Clone()
	for _, s := range other.proof.Steps() {
		if !containsStep(merged, s) {
			merged.Push(s)
		}
	}
	f.proof = merged
	f.dirty = true
	f.Root()
	return nil
}

func containsStep(p *proof.Proof, s step.Step) bool {
	for _, existing := range p.Steps() {
		if existing.Equal(s) {
			return true
		}
	}
	return false
}

// Apply implements CmRDT delivery: it builds a transient Forestry from
// op and merges it into f. Because Merge is commutative and
// idempotent, applying the same op twice, or two ops in either order,
// converges to the same state.
func (f *Forestry) Apply(op *proof.Proof) error {
	transient := FromProof(f.algorithm, op)
	return f.Merge(transient)
}

// Algorithm returns the hash algorithm f was constructed with.
func (f *Forestry) Algorithm() hash.Algorithm {
	return f.algorithm
}
