// Package report defines the P.1203 input report and result wire types
// (spec.md §3, §6) together with the validation and defaulting the
// pipeline orchestrator applies before invoking the quality models.
package report

// AudioSegment is one entry of I11.segments.
type AudioSegment struct {
	Codec          string  `json:"codec"`
	Start          float64 `json:"start"`
	Duration       float64 `json:"duration"`
	Bitrate        float64 `json:"bitrate"`
	Representation string  `json:"representation,omitempty"`
}

// VideoFrame is one entry of a video segment's frames[] (modes 1 and 3).
type VideoFrame struct {
	FrameType string    `json:"frameType"`
	FrameSize int       `json:"frameSize"`
	QPValues  []float64 `json:"qpValues,omitempty"`
}

// VideoSegment is one entry of I13.segments.
type VideoSegment struct {
	Codec          string       `json:"codec"`
	Start          float64      `json:"start"`
	Duration       float64      `json:"duration"`
	Bitrate        float64      `json:"bitrate"`
	FPS            float64      `json:"fps"`
	Resolution     string       `json:"resolution"`
	Representation string       `json:"representation,omitempty"`
	Frames         []VideoFrame `json:"frames,omitempty"`
}

// StallingEvent is a single [position, duration] pair from I23.stalling,
// both in presentation-time seconds.
type StallingEvent struct {
	Position float64
	Duration float64
}

// IGen carries session-wide, device-level metadata.
type IGen struct {
	DisplaySize string `json:"displaySize,omitempty"`
	Device      string `json:"device,omitempty"`
}

// I11 wraps the audio segment list.
type I11 struct {
	StreamID *int           `json:"streamId,omitempty"`
	Segments []AudioSegment `json:"segments"`
}

// I13 wraps the video segment list.
type I13 struct {
	StreamID *int           `json:"streamId,omitempty"`
	Segments []VideoSegment `json:"segments"`
}

// I23 wraps the raw stalling event list, as [position, duration] pairs on
// the wire.
type I23 struct {
	Stalling [][2]float64 `json:"stalling,omitempty"`
}

// InputReport is the validated tree the pipeline orchestrator consumes.
// O21/O22, when present, bypass Pa/Pv entirely.
type InputReport struct {
	IGen IGen      `json:"IGen"`
	I11  *I11      `json:"I11,omitempty"`
	I13  *I13      `json:"I13,omitempty"`
	I23  *I23      `json:"I23,omitempty"`
	O21  []float64 `json:"O21,omitempty"`
	O22  []float64 `json:"O22,omitempty"`
}

// Result is the session-level output bundle (spec.md §6).
type Result struct {
	StreamID int       `json:"streamId"`
	Mode     int       `json:"mode"`
	O23      float64   `json:"O23"`
	O34      []float64 `json:"O34"`
	O35      float64   `json:"O35"`
	O46      float64   `json:"O46"`
	Date     string    `json:"date"`
	O21      []float64 `json:"O21,omitempty"`
	O22      []float64 `json:"O22,omitempty"`
}
