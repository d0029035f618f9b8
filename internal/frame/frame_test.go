package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHash_ExplicitRepresentationWins(t *testing.T) {
	f := Frame{Representation: "rep-1", Bitrate: 999, Codec: "h264"}
	assert.Equal(t, "rep-1", Hash(f, Video))
}

func TestHash_AudioIgnoresFPSAndResolution(t *testing.T) {
	a := Frame{Bitrate: 128, Codec: "aaclc", FPS: 30, Resolution: "1920x1080"}
	b := Frame{Bitrate: 128, Codec: "aaclc", FPS: 60, Resolution: "640x480"}
	assert.Equal(t, Hash(a, Audio), Hash(b, Audio))
}

func TestHash_VideoFoldsInFPSAndDisplaySize(t *testing.T) {
	a := Frame{Bitrate: 4000, Codec: "h264", FPS: 30}
	b := Frame{Bitrate: 4000, Codec: "h264", FPS: 60}
	assert.NotEqual(t, Hash(a, Video), Hash(b, Video))

	c := Frame{Bitrate: 4000, Codec: "h264", FPS: 30, DisplaySize: "1920x1080"}
	assert.NotEqual(t, Hash(a, Video), Hash(c, Video))
}

func TestChunk_OnlyFirstReturnsSingleFrame(t *testing.T) {
	frames := []Frame{
		{Bitrate: 128, Codec: "aaclc"},
		{Bitrate: 128, Codec: "aaclc"},
		{Bitrate: 128, Codec: "aaclc"},
	}
	chunk := Chunk(frames, 1, Audio, true)
	assert.Len(t, chunk, 1)
}

func TestChunk_ExpandsAcrossMatchingRepresentation(t *testing.T) {
	frames := []Frame{
		{Bitrate: 4000, Codec: "h264", FPS: 30},
		{Bitrate: 4000, Codec: "h264", FPS: 30},
		{Bitrate: 6000, Codec: "h264", FPS: 30},
		{Bitrate: 4000, Codec: "h264", FPS: 30},
	}
	chunk := Chunk(frames, 1, Video, false)
	assert.Len(t, chunk, 2)
}

func TestLastBefore(t *testing.T) {
	frames := []Frame{{DTS: 0}, {DTS: 1}, {DTS: 2}}
	assert.Equal(t, 1, LastBefore(frames, 1.5))
}

func TestLastBefore_PanicsWhenNoneQualify(t *testing.T) {
	frames := []Frame{{DTS: 5}}
	assert.Panics(t, func() { LastBefore(frames, 1.0) })
}

func TestCodecs_ReturnsDistinctInOrder(t *testing.T) {
	frames := []Frame{
		{Codec: "h264"},
		{Codec: "h264"},
		{Codec: "hevc"},
	}
	assert.Equal(t, []string{"h264", "hevc"}, Codecs(frames))
}
