package integration

import (
	"testing"

	"github.com/qualitylab/p1203go/internal/rf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constantTrack(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestCalculate_NoStalling_HighQuality(t *testing.T) {
	ens, err := rf.LoadEnsemble("../../testdata/trees")
	require.NoError(t, err)

	m := New(constantTrack(30, 4.5), constantTrack(30, 4.5), nil, nil, "pc")
	m.Ensemble = ens

	res, err := m.Calculate()
	require.NoError(t, err)
	assert.InDelta(t, 5.0, res.O23, 1e-6)
	assert.GreaterOrEqual(t, res.O46, 1.0)
	assert.LessOrEqual(t, res.O46, 5.0)
	assert.Len(t, res.O34, 30)
}

func TestCalculate_MissingVideoIsSchemaError(t *testing.T) {
	m := New(constantTrack(10, 4.0), nil, nil, nil, "pc")
	_, err := m.Calculate()
	require.Error(t, err)
}

func TestCalculate_MissingAudioAssumesHighQuality(t *testing.T) {
	ens, err := rf.LoadEnsemble("../../testdata/trees")
	require.NoError(t, err)

	m := New(nil, constantTrack(20, 4.0), nil, nil, "pc")
	m.Ensemble = ens

	res, err := m.Calculate()
	require.NoError(t, err)
	assert.Len(t, res.O34, 20)
}

func TestCalculate_StallingReducesO23(t *testing.T) {
	ens, err := rf.LoadEnsemble("../../testdata/trees")
	require.NoError(t, err)

	withoutStall := New(constantTrack(30, 4.5), constantTrack(30, 4.5), nil, nil, "pc")
	withoutStall.Ensemble = ens
	resNoStall, err := withoutStall.Calculate()
	require.NoError(t, err)

	withStall := New(constantTrack(30, 4.5), constantTrack(30, 4.5), []float64{5}, []float64{10}, "pc")
	withStall.Ensemble = ens
	resStall, err := withStall.Calculate()
	require.NoError(t, err)

	assert.Less(t, resStall.O23, resNoStall.O23)
}
