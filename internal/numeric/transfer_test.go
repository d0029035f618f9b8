package numeric

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMOSFromR_Bounds(t *testing.T) {
	assert.InDelta(t, MOSMin, MOSFromR(0), 1e-9)
	assert.InDelta(t, MOSMax, MOSFromR(100), 1e-6)
}

func TestMOSFromR_Monotonic(t *testing.T) {
	prev := MOSFromR(0)
	for q := 1.0; q <= 100; q++ {
		cur := MOSFromR(q)
		assert.GreaterOrEqual(t, cur, prev)
		prev = cur
	}
}

func TestRFromMOS_StaysWithinRRange(t *testing.T) {
	for _, mos := range []float64{1.05, 2.5, 3.6, 4.9} {
		r := RFromMOS(mos)
		assert.GreaterOrEqual(t, r, 0.0)
		assert.LessOrEqual(t, r, 100.0)
	}
}

func TestRFromMOS_ClampsOutOfRangeInput(t *testing.T) {
	assert.Equal(t, RFromMOS(1.05), RFromMOS(0.5))
	assert.Equal(t, RFromMOS(4.9), RFromMOS(10.0))
}

func TestConstrain(t *testing.T) {
	assert.Equal(t, 1.0, Constrain(-5, 1, 5))
	assert.Equal(t, 5.0, Constrain(50, 1, 5))
	assert.Equal(t, 3.0, Constrain(3, 1, 5))
}

func TestExponential_AnchorsAtC(t *testing.T) {
	got := Exponential(10, 2, 0, 5, 0)
	assert.InDelta(t, 10.0, got, 1e-9)
}

func TestSigmoid_MidpointIsAverage(t *testing.T) {
	got := Sigmoid(0, 10, -1, 1, 0)
	assert.InDelta(t, 5.0, got, 1e-9)
}

func TestCompensatedFrameSize(t *testing.T) {
	assert.Equal(t, 200, CompensatedFrameSize("I", 1000, 0))
	assert.Equal(t, 945, CompensatedFrameSize("I", 1000, 1))
	assert.Equal(t, 989, CompensatedFrameSize("P", 1000, 1))
	assert.Equal(t, 0, CompensatedFrameSize("P", 5, 1))
}

func TestResolutionToPixels(t *testing.T) {
	px, err := ResolutionToPixels("1920x1080")
	assert.NoError(t, err)
	assert.Equal(t, 1920*1080, px)

	_, err = ResolutionToPixels("bogus")
	assert.Error(t, err)

	_, err = ResolutionToPixels("1920xNaN")
	assert.Error(t, err)
}

func TestPercentile(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5}
	assert.InDelta(t, 1.0, Percentile(data, 0), 1e-9)
	assert.InDelta(t, 5.0, Percentile(data, 100), 1e-9)
	assert.InDelta(t, 3.0, Percentile(data, 50), 1e-9)
}

func TestPercentile_SingleValue(t *testing.T) {
	assert.Equal(t, 7.0, Percentile([]float64{7}, 50))
}

func TestPercentile_Empty(t *testing.T) {
	assert.True(t, math.IsNaN(Percentile(nil, 50)) || Percentile(nil, 50) == 0)
}
