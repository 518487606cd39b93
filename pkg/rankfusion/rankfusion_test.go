package rankfusion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	ID   string
	Body string
}

func docKey(d doc) string { return d.ID }

func TestFuseAccumulatesAcrossLists(t *testing.T) {
	lists := [][]doc{
		{{ID: "a"}, {ID: "b"}},
		{{ID: "b"}, {ID: "c"}},
	}

	fused, err := Fuse(lists, 10, nil, docKey)
	require.NoError(t, err)

	// b appears in both lists (rank 2 + rank 1) and outranks a (single rank 1).
	require.Len(t, fused, 3)
	assert.Equal(t, "b", fused[0].ID)
	assert.Equal(t, "a", fused[1].ID)
	assert.Equal(t, "c", fused[2].ID)
}

func TestFuseWeightsBiasEarlierLists(t *testing.T) {
	lists := [][]doc{
		{{ID: "exact"}},
		{{ID: "fuzzy"}},
	}

	fused, err := Fuse(lists, 10, []float64{2.0, 1.0}, docKey)
	require.NoError(t, err)

	require.Len(t, fused, 2)
	assert.Equal(t, "exact", fused[0].ID)
	assert.Equal(t, "fuzzy", fused[1].ID)
}

func TestFuseTieBreaksByFirstAppearance(t *testing.T) {
	// Same rank in symmetric lists yields identical scores.
	lists := [][]doc{
		{{ID: "first"}},
		{{ID: "second"}},
	}

	fused, err := Fuse(lists, 10, nil, docKey)
	require.NoError(t, err)

	require.Len(t, fused, 2)
	assert.Equal(t, "first", fused[0].ID)
	assert.Equal(t, "second", fused[1].ID)
}

func TestFuseFirstOccurrenceSuppliesPayload(t *testing.T) {
	lists := [][]doc{
		{{ID: "a", Body: "kept"}},
		{{ID: "a", Body: "ignored"}},
	}

	fused, err := Fuse(lists, 10, nil, docKey)
	require.NoError(t, err)

	require.Len(t, fused, 1)
	assert.Equal(t, "kept", fused[0].Body)
}

func TestFuseTruncatesToLimit(t *testing.T) {
	lists := [][]doc{
		{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}},
	}

	fused, err := Fuse(lists, 2, nil, docKey)
	require.NoError(t, err)

	require.Len(t, fused, 2)
	assert.Equal(t, "a", fused[0].ID)
	assert.Equal(t, "b", fused[1].ID)
}

func TestFuseHandlesEmptyInput(t *testing.T) {
	fused, err := Fuse(nil, 10, nil, docKey)
	require.NoError(t, err)
	assert.Empty(t, fused)

	fused, err = Fuse([][]doc{{}, {}}, 10, []float64{2.0, 1.0}, docKey)
	require.NoError(t, err)
	assert.Empty(t, fused)
}

func TestFuseRejectsMismatchedWeights(t *testing.T) {
	_, err := Fuse([][]doc{{{ID: "a"}}}, 10, []float64{1.0, 1.0}, docKey)
	assert.Error(t, err)
}

func TestFuseLimitLargerThanResults(t *testing.T) {
	fused, err := Fuse([][]doc{{{ID: "a"}}}, 100, nil, docKey)
	require.NoError(t, err)
	assert.Len(t, fused, 1)
}
