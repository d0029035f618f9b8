package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolvedIGen_DefaultsBothFields(t *testing.T) {
	g := ResolvedIGen(IGen{})
	assert.Equal(t, "1920x1080", g.DisplaySize)
	assert.Equal(t, "pc", g.Device)
}

func TestResolvedIGen_PreservesSetFields(t *testing.T) {
	g := ResolvedIGen(IGen{DisplaySize: "640x480", Device: "mobile"})
	assert.Equal(t, "640x480", g.DisplaySize)
	assert.Equal(t, "mobile", g.Device)
}

func TestCheckSegmentContinuity_DoesNotPanicOnGap(t *testing.T) {
	assert.NotPanics(t, func() {
		CheckSegmentContinuity([]float64{0, 5}, []float64{4, 5}, "video")
	})
}

func TestResolveStalling_NoShiftWhenFirstEventSentinel(t *testing.T) {
	// The documented [0,0] idiom: first event already at position 0, so
	// later events keep their raw media positions.
	events := [][2]float64{
		{0, 0},
		{5, 2},
	}
	pBuff, lBuff := ResolveStalling(events, 10)
	assert.Equal(t, []float64{0, 5}, pBuff)
	assert.Equal(t, []float64{0, 2}, lBuff)
}

func TestResolveStalling_RebasesToZero(t *testing.T) {
	events := [][2]float64{
		{5, 1},
		{7, 2},
	}
	pBuff, lBuff := ResolveStalling(events, 10)
	assert.Equal(t, []float64{0, 2}, pBuff)
	assert.Equal(t, []float64{1, 2}, lBuff)
}

func TestResolveStalling_NoEventsYieldsNilBuffers(t *testing.T) {
	pBuff, lBuff := ResolveStalling(nil, 10)
	assert.Nil(t, pBuff)
	assert.Nil(t, lBuff)
}

func TestResolveStalling_OutOfRangeAndNonPositiveSurviveForIntegrationToFilter(t *testing.T) {
	// ResolveStalling no longer filters; integration.New re-applies
	// p>maxDuration/l==0 filtering once the real session duration is known.
	events := [][2]float64{
		{-1, 2},
		{5, 0},
		{3, 1},
		{100, 1},
	}
	pBuff, lBuff := ResolveStalling(events, 10)
	assert.Equal(t, []float64{0, 6, 4, 101}, pBuff)
	assert.Equal(t, []float64{2, 0, 1, 1}, lBuff)
}
