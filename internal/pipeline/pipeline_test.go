package pipeline

import (
	"context"
	"testing"

	"github.com/qualitylab/p1203go/internal/report"
	"github.com/qualitylab/p1203go/internal/rf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadEnsemble(t *testing.T) *rf.Ensemble {
	t.Helper()
	ens, err := rf.LoadEnsemble("../../testdata/trees")
	require.NoError(t, err)
	return ens
}

func videoSegments(n int) []report.VideoSegment {
	return []report.VideoSegment{
		{Codec: "h264", Start: 0, Duration: float64(n), Bitrate: 4000, FPS: 30, Resolution: "1920x1080"},
	}
}

func audioSegments(n int) []report.AudioSegment {
	return []report.AudioSegment{
		{Codec: "aaclc", Start: 0, Duration: float64(n), Bitrate: 128},
	}
}

func TestPipeline_Run_PrecomputedScores(t *testing.T) {
	p := New(Config{Ensemble: loadEnsemble(t)})

	o21 := make([]float64, 10)
	o22 := make([]float64, 10)
	for i := range o21 {
		o21[i] = 4.5
		o22[i] = 4.2
	}

	result, err := p.Run(context.Background(), report.InputReport{O21: o21, O22: o22})
	require.NoError(t, err)
	assert.Equal(t, -1, result.Mode)
	assert.Len(t, result.O34, 10)
	assert.GreaterOrEqual(t, result.O46, 1.0)
}

func TestPipeline_Run_FullSegments(t *testing.T) {
	p := New(Config{Ensemble: loadEnsemble(t)})

	ir := report.InputReport{
		IGen: report.IGen{DisplaySize: "1920x1080", Device: "pc"},
		I11:  &report.I11{Segments: audioSegments(20)},
		I13:  &report.I13{Segments: videoSegments(20)},
	}

	result, err := p.Run(context.Background(), ir)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Mode)
	assert.Len(t, result.O21, 20)
	assert.Len(t, result.O22, 20)
}

func TestSession_OutOfOrderCallsAreUsageErrors(t *testing.T) {
	p := New(Config{Ensemble: loadEnsemble(t)})
	s := p.NewSession(report.InputReport{O21: []float64{4.5}, O22: []float64{4.2}})

	_, err := s.CalculatePv()
	require.Error(t, err)

	_, err = s.CalculateIntegration()
	require.Error(t, err)
}

func TestPipeline_Run_MissingVideoIsSchemaError(t *testing.T) {
	p := New(Config{Ensemble: loadEnsemble(t)})
	_, err := p.Run(context.Background(), report.InputReport{O21: []float64{4.5}})
	require.Error(t, err)
}
