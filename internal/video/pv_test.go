package video

import (
	"testing"

	"github.com/qualitylab/p1203go/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelFunctionMode0_Range(t *testing.T) {
	score := ModelFunctionMode0(1920*1080, 1920*1080, 4000, 30)
	assert.GreaterOrEqual(t, score, 1.0)
	assert.LessOrEqual(t, score, 5.0)
}

func TestModel_Mode0_FullSession(t *testing.T) {
	m := New(0, "1920x1080", []report.VideoSegment{
		{Codec: "h264", Start: 0, Duration: 15, Bitrate: 4000, FPS: 30, Resolution: "1920x1080"},
	})
	require.NoError(t, m.Calculate())
	assert.Equal(t, Mode0, m.Mode)
	assert.Len(t, m.O22, 15)
}

func TestModel_Mode3_FullSession(t *testing.T) {
	frames := make([]report.VideoFrame, 30)
	for i := range frames {
		ft := "P"
		if i == 0 {
			ft = "I"
		}
		frames[i] = report.VideoFrame{FrameType: ft, FrameSize: 1000, QPValues: []float64{25, 26}}
	}
	m := New(0, "1920x1080", []report.VideoSegment{
		{Codec: "h264", Start: 0, Duration: 1, Bitrate: 4000, FPS: 30, Resolution: "1920x1080", Frames: frames},
	})
	require.NoError(t, m.Calculate())
	assert.Equal(t, Mode3, m.Mode)
	assert.NotEmpty(t, m.O22)
}

func TestDetermineMode_NoFramesIsMode0(t *testing.T) {
	mode := determineMode([]Segment{{Duration: 1, FPS: 30}})
	assert.Equal(t, Mode0, mode)
}

func TestDetermineMode_MissingQPFallsBackToMode1(t *testing.T) {
	mode := determineMode([]Segment{
		{Frames: []report.VideoFrame{{FrameType: "I", FrameSize: 100}}},
	})
	assert.Equal(t, Mode1, mode)
}

func TestModel_UnsupportedCodec(t *testing.T) {
	m := New(0, "1920x1080", []report.VideoSegment{
		{Codec: "av1", Start: 0, Duration: 1, Bitrate: 4000, FPS: 30, Resolution: "1920x1080"},
	})
	err := m.Calculate()
	require.Error(t, err)
}

func TestModel_NonH264NonMode0Rejected(t *testing.T) {
	frames := make([]report.VideoFrame, 30)
	for i := range frames {
		ft := "P"
		if i == 0 {
			ft = "I"
		}
		frames[i] = report.VideoFrame{FrameType: ft, FrameSize: 1000, QPValues: []float64{25}}
	}
	m := New(0, "1920x1080", []report.VideoSegment{
		{Codec: "vp9", Start: 0, Duration: 1, Bitrate: 4000, FPS: 30, Resolution: "1920x1080", Frames: frames},
	})
	err := m.Calculate()
	require.Error(t, err)
}
