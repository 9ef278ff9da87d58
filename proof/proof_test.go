package proof

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nibblelabs/forestry-go/hash"
	"github.com/nibblelabs/forestry-go/neighbor"
	"github.com/nibblelabs/forestry-go/step"
)

func Test_Proof_New_IsEmpty(t *testing.T) {
	t.Parallel()

	p := New()
	assert.True(t, p.IsEmpty())
	assert.Equal(t, 0, p.Len())
	assert.Equal(t, hash.Zero(), p.Root())
}

func Test_Proof_Push_Remove(t *testing.T) {
	t.Parallel()

	p := New()
	s := step.NewLeaf(0, hash.Hash{1}, hash.Hash{2})

	originalLen := p.Len()
	p.Push(s)

	assert.Equal(t, originalLen+1, p.Len())
	got, ok := p.Get(p.Len() - 1)
	require.True(t, ok)
	assert.True(t, s.Equal(got))

	popped, ok := p.Remove(p.Len() - 1)
	require.True(t, ok)
	assert.True(t, s.Equal(popped))
	assert.Equal(t, originalLen, p.Len())
}

func Test_Proof_Extend_Retain(t *testing.T) {
	t.Parallel()

	p := New()
	p.Push(step.NewBranch(0, [4]hash.Hash{}))

	additional := []step.Step{
		step.NewLeaf(0, hash.Hash{1}, hash.Hash{2}),
		step.NewLeaf(0, hash.Hash{3}, hash.Hash{4}),
	}
	originalLen := p.Len()
	p.Extend(additional)
	assert.Equal(t, originalLen+len(additional), p.Len())

	p.Retain(func(s step.Step) bool { return s.IsLeaf() })
	for _, s := range p.Steps() {
		assert.True(t, s.IsLeaf())
	}
}

func Test_Proof_Root(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		last step.Step
		want hash.Hash
	}{
		"branch": {
			last: step.NewBranch(0, [4]hash.Hash{{9}, {}, {}, {}}),
			want: hash.Hash{9},
		},
		"fork": {
			last: step.NewFork(0, neighbor.New(0, nil, hash.Hash{7})),
			want: hash.Hash{7},
		},
		"leaf": {
			last: step.NewLeaf(0, hash.Hash{1}, hash.Hash{5}),
			want: hash.Hash{5},
		},
	}

	for name, testCase := range testCases {
		testCase := testCase
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			p := New()
			p.Push(testCase.last)
			assert.Equal(t, testCase.want, p.Root())
		})
	}
}

func Test_Proof_ToBytes_FromBytes_RoundTrip(t *testing.T) {
	t.Parallel()

	p := New()
	p.Push(step.NewBranch(1, [4]hash.Hash{{1}, {}, {2}, {}}))
	p.Push(step.NewLeaf(0, hash.Hash{9}, hash.Hash{8}))

	encoded := p.ToBytes()
	decoded, err := FromBytes(encoded)
	require.NoError(t, err)

	assert.True(t, p.Equal(decoded))
}

func Test_Proof_ToBytesPooled_MatchesToBytes(t *testing.T) {
	t.Parallel()

	p := New()
	p.Push(step.NewBranch(2, [4]hash.Hash{{1}, {}, {3}, {}}))
	p.Push(step.NewLeaf(0, hash.Hash{5}, hash.Hash{6}))

	assert.Equal(t, p.ToBytes(), p.ToBytesPooled())
}

func Test_FromBytes_Errors(t *testing.T) {
	t.Parallel()

	_, err := FromBytes([]byte{0, 0})
	assert.ErrorIs(t, err, ErrDeserialization)
}

func Test_Proof_Compare(t *testing.T) {
	t.Parallel()

	short := New()
	long := New()
	long.Push(step.NewLeaf(0, hash.Hash{1}, hash.Hash{2}))

	assert.Equal(t, -1, short.Compare(long))
	assert.Equal(t, 1, long.Compare(short))
	assert.Equal(t, 0, long.Compare(long.Clone()))
}

func Test_Proof_SizeReport(t *testing.T) {
	t.Parallel()

	p := New()
	p.Push(step.NewLeaf(0, hash.Hash{1}, hash.Hash{2}))

	report := p.SizeReport()
	assert.Contains(t, report, "1 steps")
}
