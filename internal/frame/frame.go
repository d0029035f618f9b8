// Package frame defines the synthetic per-frame unit that Pa and Pv stream
// through the measurement window, and the chunk/representation identity
// rules both models share (spec.md §3, §4.1).
package frame

import (
	"fmt"
)

// Kind distinguishes the audio and video chunk-hash rules.
type Kind int

const (
	// Audio chunks are identified by bitrate+codec alone.
	Audio Kind = iota
	// Video chunks additionally fold in fps and, when present, display size.
	Video
)

// Frame is the synthetic unit Pa (100 Hz) and Pv (fps-rate) feed into the
// measurement window. Not every field is populated by every mode: Size,
// Type and QPValues only appear for video modes 1 and 3.
type Frame struct {
	Duration       float64
	DTS            float64
	Bitrate        float64
	Codec          string
	FPS            float64
	Resolution     string
	Type           string // "I", "P", or "B"; video modes 1/3 only
	Size           int    // reported frame size in bytes; video modes 1/3 only
	QPValues       []float64
	Representation string
	DisplaySize    string // per-frame display size override, if supplied
}

// Hash computes the chunk-identity hash used to detect representation
// changes (spec.md §4.1 "chunk-identity hashing"). An explicit
// Representation always wins; otherwise it is synthesized from the
// quality-determining fields for the given Kind.
func Hash(f Frame, kind Kind) string {
	if f.Representation != "" {
		return f.Representation
	}
	switch kind {
	case Video:
		h := fmt.Sprintf("%v%s%v", f.Bitrate, f.Codec, f.FPS)
		if f.DisplaySize != "" {
			h += f.DisplaySize
		}
		return h
	default:
		return fmt.Sprintf("%v%s", f.Bitrate, f.Codec)
	}
}

// Chunk returns the maximal run of consecutive frames around index
// sampleIndex that share the same representation as frames[sampleIndex]. If
// onlyFirst is true, only the frame at sampleIndex itself is returned,
// since for audio only the leading frame's (codec, bitrate) pair matters.
func Chunk(frames []Frame, sampleIndex int, kind Kind, onlyFirst bool) []Frame {
	target := Hash(frames[sampleIndex], kind)

	lo, hi := sampleIndex, sampleIndex
	if !onlyFirst {
		h := target
		for j := sampleIndex - 1; j >= 0; j-- {
			cur := Hash(frames[j], kind)
			if cur != h {
				break
			}
			lo = j
			h = cur
		}
		h = target
		for j := sampleIndex + 1; j < len(frames); j++ {
			cur := Hash(frames[j], kind)
			if cur != h {
				break
			}
			hi = j
			h = cur
		}
	}

	out := make([]Frame, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		out = append(out, frames[i])
	}
	return out
}

// LastBefore returns the index of the last frame in frames with
// DTS < timestamp. Panics if frames is empty or no frame qualifies, since
// both are programmer errors given how the measurement window invokes its
// callback (a callback only fires once at least one second of frames has
// accumulated).
func LastBefore(frames []Frame, timestamp float64) int {
	idx := -1
	for i, f := range frames {
		if f.DTS < timestamp {
			idx = i
		}
	}
	if idx == -1 {
		panic("frame: no frame precedes the requested output timestamp")
	}
	return idx
}

// Codecs returns the distinct codec values present across frames.
func Codecs(frames []Frame) []string {
	seen := map[string]bool{}
	var out []string
	for _, f := range frames {
		if !seen[f.Codec] {
			seen[f.Codec] = true
			out = append(out, f.Codec)
		}
	}
	return out
}
