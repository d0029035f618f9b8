// Package perror defines the single error type the P.1203 core returns,
// tagged with the subcategories a caller needs to branch on.
package perror

import (
	"errors"
	"fmt"
)

// Kind enumerates the fatal error subcategories of the quality-estimation
// pipeline.
type Kind string

const (
	// KindSchema covers missing I13/O22 and unparsable resolutions.
	KindSchema Kind = "schema_error"
	// KindUnsupportedAudioCodec is returned for an I11 codec outside
	// {mp2, ac3, aaclc, heaac}.
	KindUnsupportedAudioCodec Kind = "unsupported_audio_codec"
	// KindUnsupportedVideoCodec is returned for an I13 codec outside
	// {h264, h265, hevc, vp9}.
	KindUnsupportedVideoCodec Kind = "unsupported_video_codec"
	// KindCodecSwitchInWindow is returned when a measurement window spans
	// frames of more than one codec.
	KindCodecSwitchInWindow Kind = "codec_switch_in_window"
	// KindInvalidFrameType is returned for a frameType outside {I, P, B}.
	KindInvalidFrameType Kind = "invalid_frame_type"
	// KindMissingQPValues is returned when mode 3 is selected but a frame
	// carries no qpValues.
	KindMissingQPValues Kind = "missing_qp_values"
	// KindUnsupportedMode is returned when a non-H.264 codec is combined
	// with a mode other than 0.
	KindUnsupportedMode Kind = "unsupported_mode"
	// KindUsage is returned when the pipeline is driven out of order, e.g.
	// calculate_integration before calculate_pa/calculate_pv.
	KindUsage Kind = "usage_error"
)

// Error is the error type raised by every fatal condition in the core
// model. All fatal conditions abort the session cleanly; there is no
// partial result.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("p1203: %s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("p1203: %s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause, if any, to errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New constructs an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap constructs an Error of the given kind around an existing cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf extracts the Kind from err if it is (or wraps) a *Error.
func KindOf(err error) (Kind, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return "", false
}
