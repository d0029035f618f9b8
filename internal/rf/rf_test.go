package rf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnsemble_PlaceholderTrees(t *testing.T) {
	ens, err := LoadEnsemble("../../testdata/trees")
	require.NoError(t, err)
	assert.Len(t, ens.Trees, 2)
}

func TestTree_Execute_WalksToLeaf(t *testing.T) {
	tree := Tree{
		{FeatureID: 0, Threshold: 1.0, Left: 1, Right: 2},
		{FeatureID: -1, Threshold: 3.6, Left: -1, Right: -1},
		{FeatureID: -1, Threshold: 2.2, Left: -1, Right: -1},
	}
	features := make([]float64, 1)

	features[0] = 0.5
	assert.Equal(t, 3.6, tree.Execute(features))

	features[0] = 1.5
	assert.Equal(t, 2.2, tree.Execute(features))
}

func TestScaleMoses_ConstantTrackStaysConstant(t *testing.T) {
	track := []float64{4, 4, 4, 4, 4, 4}
	samples := ScaleMoses(track, 3)
	require.Len(t, samples, 3)
	for _, s := range samples {
		assert.InDelta(t, 4.0, s, 1e-9)
	}
}

func TestGetRebufStats_NoStalling(t *testing.T) {
	stats := GetRebufStats(nil, nil, 60)
	assert.Equal(t, 60.0, stats.TimeOfLastRebuf)
	assert.Equal(t, 0.0, stats.NumRebuf)
}

func TestGetRebufStats_WithEvents(t *testing.T) {
	stats := GetRebufStats([]float64{0, 10, 30}, []float64{2, 3, 4}, 60)
	assert.Equal(t, 2.0, stats.NumRebuf)
	assert.Equal(t, 7.0, stats.LenRebuf)
	assert.Equal(t, 30.0, stats.TimeOfLastRebuf)
}

func TestCalculate_ProducesScoreWithinMOSRange(t *testing.T) {
	ens, err := LoadEnsemble("../../testdata/trees")
	require.NoError(t, err)

	o21 := make([]float64, 30)
	o22 := make([]float64, 30)
	for i := range o21 {
		o21[i] = 3.8
		o22[i] = 3.5
	}

	score := Calculate(ens, o21, o22, nil, nil, 30)
	assert.GreaterOrEqual(t, score, 1.0)
	assert.LessOrEqual(t, score, 5.0)
}
