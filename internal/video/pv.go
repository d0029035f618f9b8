// Package video implements Pv, the short-term video quality estimation
// model (spec.md §4.4) in its three modes (0: bitstream-agnostic, 1:
// frame-size aware, 3: full QP-aware), mapping coding parameters to a
// per-second MOS track O22.
package video

import (
	"math"
	"sort"

	"github.com/qualitylab/p1203go/internal/frame"
	"github.com/qualitylab/p1203go/internal/log"
	"github.com/qualitylab/p1203go/internal/numeric"
	"github.com/qualitylab/p1203go/internal/perror"
	"github.com/qualitylab/p1203go/internal/report"
	"github.com/qualitylab/p1203go/internal/window"
)

// Mode identifies which of the three Pv bitstream-awareness levels is run.
type Mode int

const (
	Mode0 Mode = 0
	Mode1 Mode = 1
	Mode3 Mode = 3
)

var videoCoeffs = [6]float64{4.66, -0.07, 4.06, 0.642, -2.293, 0.186}

var coeffsVP9 = [4]float64{-0.04129014, 0.30953836, 0.32314399, 0.5284358}
var coeffsH265 = [4]float64{-0.05196039, 0.39430046, 0.17486221, 0.50008018}

// Segment mirrors report.VideoSegment with the frame-level data Pv needs.
type Segment struct {
	Codec          string
	Start          float64
	Duration       float64
	Bitrate        float64
	FPS            float64
	Resolution     string
	Representation string
	Frames         []report.VideoFrame
}

// Model computes O22, the per-second video MOS track.
type Model struct {
	Segments   []Segment
	DisplayRes string
	StreamID   int

	Mode Mode
	O22  []float64
}

// New builds a Model from the validated I13 input report segments.
func New(streamID int, displayRes string, segments []report.VideoSegment) *Model {
	out := make([]Segment, len(segments))
	for i, s := range segments {
		out[i] = Segment{
			Codec:          s.Codec,
			Start:          s.Start,
			Duration:       s.Duration,
			Bitrate:        s.Bitrate,
			FPS:            s.FPS,
			Resolution:     s.Resolution,
			Representation: s.Representation,
			Frames:         s.Frames,
		}
	}
	if displayRes == "" {
		displayRes = "1920x1080"
	}
	return &Model{StreamID: streamID, DisplayRes: displayRes, Segments: out}
}

// Scores returns O22, valid only after Calculate has returned successfully.
func (m *Model) Scores() []float64 {
	return m.O22
}

// ModeUsed returns the mode Calculate determined and ran, valid only
// after Calculate has returned successfully.
func (m *Model) ModeUsed() int {
	return int(m.Mode)
}

func degradationDueToUpscaling(codingRes, displayRes float64) float64 {
	scaleFactor := displayRes / codingRes
	if scaleFactor < 1 {
		scaleFactor = 1
	}
	const u1, u2 = 72.61, 0.32
	deg := u1 * math.Log10(u2*(scaleFactor-1.0)+1.0)
	return numeric.Constrain(deg, 0.0, 100.0)
}

func degradationDueToFrameRateReduction(degCod, degScal, framerate float64) float64 {
	const t1, t2, t3 = 30.98, 1.29, 64.65
	var deg float64
	if framerate < 24 {
		deg = (100 - degCod - degScal) * (t1 - t2*framerate) / (t3 + framerate)
	}
	return numeric.Constrain(deg, 0.0, 100.0)
}

func degradationIntegration(degCod, degScal, degFrameRate float64) float64 {
	degAll := numeric.Constrain(degCod+degScal+degFrameRate, 0.0, 100.0)
	qv := 100 - degAll
	return numeric.MOSFromR(qv)
}

// ModelFunctionMode0 is the bitstream-agnostic model: codec parameters,
// average bitrate, resolution and frame rate only.
func ModelFunctionMode0(codingRes, displayRes, bitrateKbps, framerate float64) float64 {
	const a1, a2, a3, a4 = 11.9983519, -2.99991847, 41.2475074001, 0.13183165961
	const q1, q2, q3 = 4.66, -0.07, 4.06

	quant := a1 + a2*math.Log(a3+math.Log(bitrateKbps)+math.Log(bitrateKbps*bitrateKbps/(codingRes*framerate)+a4))
	mosCod := numeric.Constrain(q1+q2*math.Exp(q3*quant), 1.0, 5.0)
	degCod := numeric.Constrain(100.0-numeric.RFromMOS(mosCod), 0.0, 100.0)

	degScal := degradationDueToUpscaling(codingRes, displayRes)
	degFrameRate := degradationDueToFrameRateReduction(degCod, degScal, framerate)

	return degradationIntegration(degCod, degScal, degFrameRate)
}

// ModelFunctionMode1 adds frame-size-derived complexity correction on top
// of mode 0's compression estimate.
func ModelFunctionMode1(codingRes, displayRes, bitrateKbps, framerate float64, frames []frame.Frame) float64 {
	const a1, a2, a3, a4 = 5.00011566, -1.19630824, 41.3585049, 0.0
	const q1, q2, q3 = 4.66, -0.07, 4.06

	quant := a1 + a2*math.Log(a3+math.Log(bitrateKbps)+math.Log(bitrateKbps*bitrateKbps/(codingRes*framerate)+a4))
	mosCod := numeric.Constrain(q1+q2*math.Exp(q3*quant), 1.0, 5.0)

	const c0, c1, c2, c3 = -0.91562479, 0.0, -3.28579526, 20.4098663
	var iSizes, nonISizes []float64
	for _, f := range frames {
		size := float64(numeric.CompensatedFrameSize(f.Type, f.Size, f.DTS))
		if f.Type == "I" {
			iSizes = append(iSizes, size)
		} else {
			nonISizes = append(nonISizes, size)
		}
	}
	var iframeRatio float64
	if len(iSizes) > 0 && len(nonISizes) > 0 {
		iframeRatio = mean(iSizes) / mean(nonISizes)
	}
	complexity := numeric.Sigmoid(c0, c1, c2, c3, iframeRatio)
	mosCod = numeric.Constrain(mosCod+complexity, 1.0, 5.0)

	degCod := numeric.Constrain(100.0-numeric.RFromMOS(mosCod), 0.0, 100.0)
	degScal := degradationDueToUpscaling(codingRes, displayRes)
	degFrameRate := degradationDueToFrameRateReduction(degCod, degScal, framerate)

	return degradationIntegration(degCod, degScal, degFrameRate)
}

// ModelFunctionMode3 uses per-frame QP values, the most precise mode.
func ModelFunctionMode3(codingRes, displayRes, framerate float64, frames []frame.Frame) (float64, error) {
	var qppb []float64
	for _, f := range frames {
		switch f.Type {
		case "P", "B":
			qppb = append(qppb, f.QPValues...)
		case "I":
			if len(qppb) > 0 {
				if len(qppb) > 1 {
					qppb[len(qppb)-1] = qppb[len(qppb)-2]
				} else {
					qppb = nil
				}
			}
		default:
			return 0, perror.New(perror.KindInvalidFrameType, "frame type %q not valid; must be I/P/B", f.Type)
		}
	}
	avgQP := mean(qppb)
	quant := avgQP / 51.0

	mosCod := numeric.Constrain(videoCoeffs[0]+videoCoeffs[1]*math.Exp(videoCoeffs[2]*quant), 1.0, 5.0)
	degCod := numeric.Constrain(100-numeric.RFromMOS(mosCod), 0.0, 100.0)

	degScal := degradationDueToUpscaling(codingRes, displayRes)
	degFrameRate := degradationDueToFrameRateReduction(degCod, degScal, framerate)

	return degradationIntegration(degCod, degScal, degFrameRate), nil
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func correctionFunc(x float64, coeffs [4]float64) float64 {
	a, b, c, d := coeffs[0], coeffs[1], coeffs[2], coeffs[3]
	return a*x*x*x + b*x*x + c*x + d
}

// determineMode inspects the segments the way the reference model does: a
// segment with no per-frame data at all forces mode 0 and stops the scan
// outright; otherwise each segment's frames are scanned in order, a frame
// without QP values sets mode 1 and moves on to the next segment, and a
// frame with QP values sets mode 3. The last segment scanned wins, which
// is why a trailing QP-less segment can downgrade an otherwise mode-3
// stream to mode 1.
func determineMode(segments []Segment) Mode {
	mode := Mode0
	for _, s := range segments {
		if len(s.Frames) == 0 {
			return Mode0
		}
		for _, f := range s.Frames {
			if len(f.QPValues) > 0 {
				mode = Mode3
			} else {
				mode = Mode1
				break
			}
		}
	}
	return mode
}

// Calculate runs Pv end to end, picking the applicable mode, streaming
// synthetic frames through the measurement window, and applying the
// non-H.264 codec correction polynomial where needed.
func (m *Model) Calculate() error {
	segs := make([]float64, len(m.Segments))
	durs := make([]float64, len(m.Segments))
	for i, s := range m.Segments {
		segs[i] = s.Start
		durs[i] = s.Duration
	}
	report.CheckSegmentContinuity(segs, durs, "video")

	m.Mode = determineMode(m.Segments)
	log.L().Debug().Int("mode", int(m.Mode)).Int("stream_id", m.StreamID).Msg("determined video model mode")

	codecs := distinctCodecs(m.Segments)
	for _, c := range codecs {
		switch c {
		case "h264", "h265", "hevc", "vp9":
		default:
			return perror.New(perror.KindUnsupportedVideoCodec, "unsupported video codec %q", c)
		}
		if c != "h264" {
			log.L().Warn().Str("codec", c).Msg("non-standard codec used, O22 output will not be ITU-T P.1203 compliant")
		}
		if m.Mode != Mode0 && c != "h264" {
			return perror.New(perror.KindUnsupportedMode, "non-standard codec calculation only possible in mode 0")
		}
	}

	displayPixels, err := numeric.ResolutionToPixels(m.DisplayRes)
	if err != nil {
		return perror.Wrap(perror.KindSchema, err, "invalid display resolution %q", m.DisplayRes)
	}

	w := window.New(frame.Video, func(outputTimestamp int, frames []frame.Frame) error {
		idx := frame.LastBefore(frames, float64(outputTimestamp))
		chunk := frame.Chunk(frames, idx, frame.Video, false)
		if len(chunk) == 0 {
			return nil
		}
		first := chunk[0]

		codingPixels, err := numeric.ResolutionToPixels(first.Resolution)
		if err != nil {
			return perror.Wrap(perror.KindSchema, err, "invalid coding resolution %q", first.Resolution)
		}

		var score float64
		switch m.Mode {
		case Mode0:
			bitrate := meanBitrate(chunk)
			score = ModelFunctionMode0(float64(codingPixels), float64(displayPixels), bitrate, first.FPS)
		case Mode1:
			bitrate := compensatedBitrate(chunk)
			score = ModelFunctionMode1(float64(codingPixels), float64(displayPixels), bitrate, first.FPS, chunk)
		case Mode3:
			score, err = ModelFunctionMode3(float64(codingPixels), float64(displayPixels), first.FPS, chunk)
			if err != nil {
				return err
			}
		default:
			return perror.New(perror.KindUnsupportedMode, "unsupported mode %d", m.Mode)
		}

		windowCodecs := frame.Codecs(frames)
		if len(windowCodecs) > 1 {
			return perror.New(perror.KindCodecSwitchInWindow, "codec switching between frames in measurement window detected")
		}
		if windowCodecs[0] != "h264" {
			var coeffs [4]float64
			switch windowCodecs[0] {
			case "hevc", "h265":
				coeffs = coeffsH265
			case "vp9":
				coeffs = coeffsVP9
			default:
				log.L().Error().Str("codec", windowCodecs[0]).Msg("unsupported codec in measurement window")
			}
			score = numeric.Constrain(correctionFunc(score, coeffs), 1.0, 5.0)
		}

		log.L().Debug().Int("timestamp", outputTimestamp).Float64("o22", score).Msg("computed per-second video MOS")
		m.O22 = append(m.O22, score)
		return nil
	})

	dts := 0.0
	for segIdx, s := range m.Segments {
		numFramesAssumed := int(s.Duration * s.FPS)
		frameDuration := 1.0 / s.FPS

		if len(s.Frames) == 0 {
			for i := 0; i < numFramesAssumed; i++ {
				f := frame.Frame{
					Duration:       frameDuration,
					DTS:            dts,
					Bitrate:        s.Bitrate,
					Codec:          s.Codec,
					FPS:            s.FPS,
					Resolution:     s.Resolution,
					Representation: s.Representation,
				}
				if err := w.AddFrame(f); err != nil {
					return err
				}
				dts += frameDuration
			}
			continue
		}

		numFrames := len(s.Frames)
		if numFrames != numFramesAssumed {
			log.L().Warn().
				Int("segment_index", segIdx).
				Int("frames_specified", numFrames).
				Int("frames_assumed", numFramesAssumed).
				Msg("segment frame count doesn't match duration*fps")
		}
		for i := 0; i < numFrames; i++ {
			rf := s.Frames[i]
			f := frame.Frame{
				Duration:       frameDuration,
				DTS:            dts,
				Bitrate:        s.Bitrate,
				Codec:          s.Codec,
				FPS:            s.FPS,
				Resolution:     s.Resolution,
				Representation: s.Representation,
				Size:           rf.FrameSize,
				Type:           rf.FrameType,
			}
			if m.Mode == Mode3 {
				if len(rf.QPValues) == 0 {
					return perror.New(perror.KindMissingQPValues, "no QP values for frame %d of segment %d", i, segIdx)
				}
				f.QPValues = rf.QPValues
			}
			if err := w.AddFrame(f); err != nil {
				return err
			}
			dts += frameDuration
		}
	}
	return w.Finish()
}

func meanBitrate(frames []frame.Frame) float64 {
	var sum float64
	for _, f := range frames {
		sum += f.Bitrate
	}
	return sum / float64(len(frames))
}

func compensatedBitrate(frames []frame.Frame) float64 {
	var totalSize, totalDur float64
	for _, f := range frames {
		totalSize += float64(numeric.CompensatedFrameSize(f.Type, f.Size, f.DTS))
		totalDur += f.Duration
	}
	return totalSize * 8 / totalDur / 1000
}

func distinctCodecs(segments []Segment) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range segments {
		if !seen[s.Codec] {
			seen[s.Codec] = true
			out = append(out, s.Codec)
		}
	}
	sort.Strings(out)
	return out
}
