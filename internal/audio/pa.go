// Package audio implements Pa, the short-term audio quality estimation
// model (spec.md §4.3), mapping codec and bitrate to a per-second MOS
// track O21.
package audio

import (
	"math"

	"github.com/qualitylab/p1203go/internal/frame"
	"github.com/qualitylab/p1203go/internal/log"
	"github.com/qualitylab/p1203go/internal/numeric"
	"github.com/qualitylab/p1203go/internal/perror"
	"github.com/qualitylab/p1203go/internal/report"
	"github.com/qualitylab/p1203go/internal/window"
)

const sampleRate = 100 // synthetic frames per second fed to the measurement window

var coeffA1 = map[string]float64{"mp2": 100.00, "ac3": 100.00, "aaclc": 100.00, "heaac": 100.00}
var coeffA2 = map[string]float64{"mp2": -0.02, "ac3": -0.03, "aaclc": -0.05, "heaac": -0.11}
var coeffA3 = map[string]float64{"mp2": 15.48, "ac3": 15.70, "aaclc": 14.60, "heaac": 20.06}

// ValidCodecs lists the audio codecs Pa has coefficients for.
var ValidCodecs = []string{"mp2", "ac3", "aaclc", "heaac"}

// Segment is one codec/bitrate-homogeneous audio segment of the input report.
type Segment struct {
	Codec          string
	Start          float64
	Duration       float64
	Bitrate        float64
	Representation string
}

// Model computes O21, the per-second audio MOS track.
type Model struct {
	StreamID int
	Segments []Segment

	O21 []float64
}

// New builds a Model from the validated I11 input report segments.
func New(streamID int, segments []report.AudioSegment) *Model {
	out := make([]Segment, len(segments))
	for i, s := range segments {
		out[i] = Segment{
			Codec:          s.Codec,
			Start:          s.Start,
			Duration:       s.Duration,
			Bitrate:        s.Bitrate,
			Representation: s.Representation,
		}
	}
	return &Model{StreamID: streamID, Segments: out}
}

// Scores returns O21, valid only after Calculate has returned successfully.
func (m *Model) Scores() []float64 {
	return m.O21
}

// ScoreFunction returns the MOS for a codec/bitrate pair, the basic
// building block both the fast and measurement-window modes call.
func ScoreFunction(codec string, bitrate float64) (float64, error) {
	a1, ok := coeffA1[codec]
	if !ok {
		return 0, perror.New(perror.KindUnsupportedAudioCodec, "unsupported audio codec %q, use any of %v", codec, ValidCodecs)
	}
	qCod := a1*math.Exp(coeffA2[codec]*bitrate) + coeffA3[codec]
	qa := 100 - qCod
	return numeric.MOSFromR(qa), nil
}

// Calculate runs Pa and populates O21. fastMode trades second-level
// precision for speed: one score per segment, repeated floor(duration) times,
// instead of streaming synthetic frames through the measurement window.
func (m *Model) Calculate(fastMode bool) error {
	segs := make([]float64, len(m.Segments))
	durs := make([]float64, len(m.Segments))
	for i, s := range m.Segments {
		segs[i] = s.Start
		durs[i] = s.Duration
	}
	report.CheckSegmentContinuity(segs, durs, "audio")

	if fastMode {
		log.L().Warn().Msg("using fast mode of the audio model, results may not be accurate to the second")
		return m.calculateFastMode()
	}
	return m.calculateWithWindow()
}

func (m *Model) calculateFastMode() error {
	for _, s := range m.Segments {
		// Unlike calculateWithWindow, fast mode does not normalize "aac" to
		// "aaclc" here; it is rejected as an unsupported codec, matching
		// the reference's fast-mode path.
		score, err := ScoreFunction(s.Codec, s.Bitrate)
		if err != nil {
			return err
		}
		n := int(math.Floor(s.Duration))
		for i := 0; i < n; i++ {
			m.O21 = append(m.O21, score)
		}
	}
	return nil
}

func (m *Model) calculateWithWindow() error {
	w := window.New(frame.Audio, func(outputTimestamp int, frames []frame.Frame) error {
		idx := frame.LastBefore(frames, float64(outputTimestamp))
		chunk := frame.Chunk(frames, idx, frame.Audio, true)
		first := chunk[0]
		score, err := ScoreFunction(first.Codec, first.Bitrate)
		if err != nil {
			return err
		}
		log.L().Debug().Int("timestamp", outputTimestamp).Float64("o21", score).Msg("computed per-second audio MOS")
		m.O21 = append(m.O21, score)
		return nil
	})

	dts := 0.0
	warningShown := false
	for _, s := range m.Segments {
		codec := s.Codec
		if codec == "aac" {
			if !warningShown {
				log.L().Warn().Msg("assumed that 'aac' means 'aaclc'; please fix your input file")
				warningShown = true
			}
			codec = "aaclc"
		}

		numFrames := int(s.Duration * sampleRate)
		frameDuration := 1.0 / sampleRate
		for i := 0; i < numFrames; i++ {
			f := frame.Frame{
				Duration:       frameDuration,
				DTS:            dts,
				Bitrate:        s.Bitrate,
				Codec:          codec,
				Representation: s.Representation,
			}
			if err := w.AddFrame(f); err != nil {
				return err
			}
			dts += frameDuration
		}
	}
	return w.Finish()
}
