package perror

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "without cause",
			err:  New(KindSchema, "missing I13"),
			want: "p1203: schema_error: missing I13",
		},
		{
			name: "with cause",
			err:  Wrap(KindSchema, errors.New("boom"), "malformed resolution %q", "1920"),
			want: `p1203: schema_error: malformed resolution "1920": boom`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestKindOf(t *testing.T) {
	base := New(KindUnsupportedAudioCodec, "codec %q unsupported", "opus")
	wrapped := errors.Join(errors.New("context"), base)

	kind, ok := KindOf(base)
	require.True(t, ok)
	assert.Equal(t, KindUnsupportedAudioCodec, kind)

	kind, ok = KindOf(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindUnsupportedAudioCodec, kind)

	_, ok = KindOf(errors.New("plain"))
	assert.False(t, ok)
}
