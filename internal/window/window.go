// Package window implements the P.1203 measurement window: a time-bounded
// sliding queue of synthetic frames that emits one score per presentation
// second over an 11-second leading buffer and 10-second trailing history
// (spec.md §4.2).
package window

import (
	"math"

	"github.com/qualitylab/p1203go/internal/frame"
	"github.com/qualitylab/p1203go/internal/log"
	"github.com/qualitylab/p1203go/internal/perror"
)

// Callback is invoked once per output second with the current 20-second
// window of frames. It is responsible for selecting the sub-range relevant
// to its output timestamp. Errors abort the session.
type Callback func(outputTimestamp int, frames []frame.Frame) error

const (
	maxSize        = 20.0
	halfWindowSize = maxSize / 2
)

// Window is a sliding measurement window. It is single-use: construct one
// per session, stream frames through AddFrame, and call Finish once.
type Window struct {
	kind frame.Kind

	frames []frame.Frame

	accFrameDur float64 // accumulated duration of frames currently held, <= maxSize
	accPVSDur   float64 // accumulated duration across the whole session so far
	lastEmitAt  int
	callback    Callback
}

// New constructs an empty measurement window. kind determines how a
// frame's representation is computed on ingress.
func New(kind frame.Kind, callback Callback) *Window {
	return &Window{kind: kind, callback: callback}
}

// AddFrame appends a frame to the window, evicting the oldest frames (FIFO)
// if necessary to stay within the 20-second cap, then checks whether a
// score should be emitted.
func (w *Window) AddFrame(f frame.Frame) error {
	if f.Duration == 0 {
		return perror.New(perror.KindSchema, "frame added to measurement window had no duration")
	}

	for w.accFrameDur+f.Duration > maxSize && len(w.frames) > 0 {
		evicted := w.frames[0]
		w.frames = w.frames[1:]
		w.accFrameDur -= evicted.Duration
	}

	f.Representation = frame.Hash(f, w.kind)
	w.frames = append(w.frames, f)
	w.accFrameDur += f.Duration
	w.accPVSDur += f.Duration

	return w.maybeEmit()
}

func (w *Window) maybeEmit() error {
	if w.lastEmitAt == 0 && round5(w.accPVSDur) < halfWindowSize+1 {
		return nil
	}

	for w.accPVSDur-halfWindowSize >= float64(w.lastEmitAt+1) {
		next := w.lastEmitAt + 1
		log.L().Debug().
			Float64("window_start_dts", w.frames[0].DTS).
			Float64("window_end_dts", w.frames[len(w.frames)-1].DTS).
			Int("output_timestamp", next).
			Msg("measurement window boundaries")
		if err := w.callback(next, w.frames); err != nil {
			return err
		}
		w.lastEmitAt = next
	}
	return nil
}

// Finish flushes the window, emitting remaining scores from lastEmitAt+1
// through floor(accPVSDur) (ceil if the fractional remainder exceeds 0.99,
// a documented compensation for mode-0 rounding). No frames may be added
// after Finish returns.
func (w *Window) Finish() error {
	final := int(math.Floor(w.accPVSDur))
	if w.accPVSDur-float64(final) > 0.99 {
		final = int(math.Ceil(w.accPVSDur))
	}

	for t := w.lastEmitAt + 1; t <= final; t++ {
		for len(w.frames) > 0 && round5(w.frames[0].DTS) < float64(t)-halfWindowSize {
			evicted := w.frames[0]
			w.frames = w.frames[1:]
			w.accFrameDur -= evicted.Duration
		}
		if err := w.callback(t, w.frames); err != nil {
			return err
		}
	}
	return nil
}

func round5(x float64) float64 {
	return math.Round(x*1e5) / 1e5
}
