package window

import (
	"testing"

	"github.com/qualitylab/p1203go/internal/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feed(t *testing.T, w *Window, n int, dur float64) {
	t.Helper()
	for i := 0; i < n; i++ {
		f := frame.Frame{
			Duration: dur,
			DTS:      float64(i) * dur,
			Bitrate:  1000,
			Codec:    "aaclc",
		}
		require.NoError(t, w.AddFrame(f))
	}
}

func TestWindow_EmitsAfterWarmup(t *testing.T) {
	var outputs []int
	w := New(frame.Audio, func(ts int, frames []frame.Frame) error {
		outputs = append(outputs, ts)
		return nil
	})

	// 11 one-second frames should trigger exactly the t=1 emission.
	feed(t, w, 11, 1.0)
	assert.Equal(t, []int{1}, outputs)

	feed(t, w, 9, 1.0)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, outputs)
}

func TestWindow_RejectsZeroDuration(t *testing.T) {
	w := New(frame.Audio, func(int, []frame.Frame) error { return nil })
	err := w.AddFrame(frame.Frame{Duration: 0})
	require.Error(t, err)
}

func TestWindow_FinishFlushesRemainder(t *testing.T) {
	var outputs []int
	w := New(frame.Audio, func(ts int, frames []frame.Frame) error {
		outputs = append(outputs, ts)
		return nil
	})

	feed(t, w, 20, 1.0)
	require.NoError(t, w.Finish())
	assert.Equal(t, 20, outputs[len(outputs)-1])
}

func TestWindow_FinishAppliesCeilQuirk(t *testing.T) {
	var outputs []int
	w := New(frame.Audio, func(ts int, frames []frame.Frame) error {
		outputs = append(outputs, ts)
		return nil
	})

	// 12 frames of 0.999917s each sum to 11.999, just over the 0.99
	// fractional threshold that triggers the ceil compensation.
	for i := 0; i < 12; i++ {
		require.NoError(t, w.AddFrame(frame.Frame{Duration: 0.999917, DTS: float64(i) * 0.999917, Bitrate: 1000, Codec: "aaclc"}))
	}
	require.NoError(t, w.Finish())
	require.NotEmpty(t, outputs)
	assert.Equal(t, 12, outputs[len(outputs)-1])
}
