package crdt

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nibblelabs/forestry-go/forestry"
	"github.com/nibblelabs/forestry-go/hash"
	"github.com/nibblelabs/forestry-go/proof"
)

func sha256Algo() hash.Hasher {
	return sha256.New()
}

// Test_Forestry_SatisfiesCvRDT confirms *forestry.Forestry implements
// CvRDT[*forestry.Forestry] without forestry needing to import this
// package: Go's structural interface satisfaction lets the contract
// and the implementation stay decoupled.
func Test_Forestry_SatisfiesCvRDT(t *testing.T) {
	t.Parallel()

	var _ CvRDT[*forestry.Forestry] = (*forestry.Forestry)(nil)
}

// Test_Forestry_SatisfiesCmRDT confirms *forestry.Forestry implements
// CmRDT[*proof.Proof].
func Test_Forestry_SatisfiesCmRDT(t *testing.T) {
	t.Parallel()

	var _ CmRDT[*proof.Proof] = (*forestry.Forestry)(nil)
}

// Test_CvRDT_Merge_IsCommutative checks the convergence law directly
// against the generic CvRDT contract: merging b into a and merging a
// into b must converge to equal states, regardless of order.
func Test_CvRDT_Merge_IsCommutative(t *testing.T) {
	t.Parallel()

	a := forestry.Empty(sha256Algo)
	_, err := a.Insert([]byte("k1"), []byte("v1"))
	require.NoError(t, err)

	b := forestry.Empty(sha256Algo)
	_, err = b.Insert([]byte("k2"), []byte("v2"))
	require.NoError(t, err)

	aMergedWithB := forestry.FromProof(sha256Algo, a.Proof().Clone())
	var cv CvRDT[*forestry.Forestry] = aMergedWithB
	require.NoError(t, cv.Merge(b))

	bMergedWithA := forestry.FromProof(sha256Algo, b.Proof().Clone())
	var cv2 CvRDT[*forestry.Forestry] = bMergedWithA
	require.NoError(t, cv2.Merge(a))

	assert.Equal(t, aMergedWithB.Root(), bMergedWithA.Root())
}

// Test_CmRDT_Apply_IsIdempotent checks that applying the same
// operation twice through the generic CmRDT contract converges to the
// same state as applying it once.
func Test_CmRDT_Apply_IsIdempotent(t *testing.T) {
	t.Parallel()

	source := forestry.Empty(sha256Algo)
	_, err := source.Insert([]byte("k"), []byte("v"))
	require.NoError(t, err)
	op := source.Proof().Clone()

	replica := forestry.Empty(sha256Algo)
	var cm CmRDT[*proof.Proof] = replica

	require.NoError(t, cm.Apply(op))
	rootAfterFirst := replica.Root()

	require.NoError(t, cm.Apply(op))
	assert.Equal(t, rootAfterFirst, replica.Root())
}
