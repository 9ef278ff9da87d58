// Package proof implements Proof: an ordered sequence of Step values
// that is simultaneously the authenticated state of a forestry and the
// witness a verifier checks a key/value pair against.
package proof

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/qdm12/gotree"

	"github.com/nibblelabs/forestry-go/hash"
	"github.com/nibblelabs/forestry-go/step"
)

// ErrDeserialization is returned by FromBytes on malformed input.
var ErrDeserialization = errors.New("proof: deserialization error")

// Proof is an ordered list of Step values, from the leaf end (or
// insertion point) back up to the root.
type Proof struct {
	steps []step.Step
}

// New constructs an empty Proof.
func New() *Proof {
	return &Proof{}
}

// FromSteps wraps an existing slice of steps as a Proof.
func FromSteps(steps []step.Step) *Proof {
	return &Proof{steps: steps}
}

// Steps returns the proof's underlying steps. The returned slice
// aliases the Proof's storage and must not be mutated by the caller.
func (p *Proof) Steps() []step.Step {
	return p.steps
}

// Len reports the number of steps in the proof.
func (p *Proof) Len() int {
	return len(p.steps)
}

// IsEmpty reports whether the proof holds no steps.
func (p *Proof) IsEmpty() bool {
	return len(p.steps) == 0
}

// Root returns a structural hash of the proof: the zero hash if the
// proof is empty, otherwise the headline hash of its final step
// (Neighbors[0] for a Branch, the neighbor root for a Fork, the value
// for a Leaf). It is not the proof's digest; forestry.CalculateRoot
// computes that.
func (p *Proof) Root() hash.Hash {
	if p.IsEmpty() {
		return hash.Zero()
	}
	last := p.steps[len(p.steps)-1]
	switch last.Kind {
	case step.KindBranch:
		return last.Neighbors[0]
	case step.KindFork:
		return last.Neighbor.Root
	case step.KindLeaf:
		return last.Value
	default:
		return hash.Zero()
	}
}

// Get returns the step at index, and whether index was in bounds.
func (p *Proof) Get(index int) (step.Step, bool) {
	if index < 0 || index >= len(p.steps) {
		return step.Step{}, false
	}
	return p.steps[index], true
}

// Set overwrites the step at index. It panics if index is out of
// bounds, matching the teacher's direct-index-assignment style.
func (p *Proof) Set(index int, s step.Step) {
	p.steps[index] = s
}

// Push appends a step to the end of the proof.
func (p *Proof) Push(s step.Step) {
	p.steps = append(p.steps, s)
}

// Remove deletes and returns the step at index, and whether index was
// in bounds.
func (p *Proof) Remove(index int) (step.Step, bool) {
	if index < 0 || index >= len(p.steps) {
		return step.Step{}, false
	}
	s := p.steps[index]
	p.steps = append(p.steps[:index], p.steps[index+1:]...)
	return s, true
}

// Retain keeps only the steps for which keep returns true.
func (p *Proof) Retain(keep func(step.Step) bool) {
	out := p.steps[:0]
	for _, s := range p.steps {
		if keep(s) {
			out = append(out, s)
		}
	}
	p.steps = out
}

// Extend appends the given steps to the proof.
func (p *Proof) Extend(steps []step.Step) {
	p.steps = append(p.steps, steps...)
}

// Clone returns a deep copy of p.
func (p *Proof) Clone() *Proof {
	out := make([]step.Step, len(p.steps))
	copy(out, p.steps)
	for i := range out {
		if out[i].Neighbor.Prefix != nil {
			out[i].Neighbor.Prefix = append([]byte(nil), out[i].Neighbor.Prefix...)
		}
	}
	return &Proof{steps: out}
}

// Equal reports whether p and other hold the same steps in the same
// order.
func (p *Proof) Equal(other *Proof) bool {
	if len(p.steps) != len(other.steps) {
		return false
	}
	for i, s := range p.steps {
		if !s.Equal(other.steps[i]) {
			return false
		}
	}
	return true
}

// Compare orders proofs first by length, then lexicographically by
// step, using step.Step.Compare.
func (p *Proof) Compare(other *Proof) int {
	if len(p.steps) != len(other.steps) {
		if len(p.steps) < len(other.steps) {
			return -1
		}
		return 1
	}
	for i, s := range p.steps {
		if c := s.Compare(other.steps[i]); c != 0 {
			return c
		}
	}
	return 0
}

// ToBytes encodes the proof as a length-prefixed sequence of
// length-prefixed steps: count(4, BE) || (len(4, BE) || step.ToBytes())*.
// The wire format is not dictated by anything outside this
// implementation, so this envelope is a deliberate, documented choice
// rather than a derivation from an external reference.
func (p *Proof) ToBytes() []byte {
	out := make([]byte, 4)
	binary.BigEndian.PutUint32(out, uint32(len(p.steps)))
	for _, s := range p.steps {
		sb := s.ToBytes()
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(sb)))
		out = append(out, lenBuf[:]...)
		out = append(out, sb...)
	}
	return out
}

// FromBytes decodes a Proof out of its ToBytes encoding.
func FromBytes(b []byte) (*Proof, error) {
	if len(b) < 4 {
		return nil, fmt.Errorf("proof: decoding %d bytes: %w", len(b), ErrDeserialization)
	}
	count := binary.BigEndian.Uint32(b[:4])
	rest := b[4:]

	steps := make([]step.Step, 0, count)
	for i := uint32(0); i < count; i++ {
		if len(rest) < 4 {
			return nil, fmt.Errorf("proof: truncated step length header: %w", ErrDeserialization)
		}
		stepLen := binary.BigEndian.Uint32(rest[:4])
		rest = rest[4:]
		if uint32(len(rest)) < stepLen {
			return nil, fmt.Errorf("proof: truncated step payload: %w", ErrDeserialization)
		}
		s, err := step.FromBytes(rest[:stepLen])
		if err != nil {
			return nil, fmt.Errorf("proof: decoding step %d: %w: %w", i, ErrDeserialization, err)
		}
		steps = append(steps, s)
		rest = rest[stepLen:]
	}
	return &Proof{steps: steps}, nil
}

// Tree renders the proof as a human-readable step tree, root first.
func (p *Proof) Tree() gotree.Tree {
	root := gotree.New(fmt.Sprintf("Proof (%d steps, root %s)", len(p.steps), p.Root().Hex()))
	for i := len(p.steps) - 1; i >= 0; i-- {
		s := p.steps[i]
		root.Add(fmt.Sprintf("[%d] %s skip=%d", i, s.Kind, s.Skip))
	}
	return root
}

// SizeReport returns a human-readable summary of the proof's
// serialized size, e.g. "3 steps, 412 B".
func (p *Proof) SizeReport() string {
	size := len(p.ToBytes())
	return fmt.Sprintf("%d steps, %s", len(p.steps), humanize.Bytes(uint64(size)))
}
