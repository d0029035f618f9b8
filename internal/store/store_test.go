package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/qualitylab/p1203go/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "results.db")
	s, err := Open(path, DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_PutGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	result := report.Result{
		StreamID: 1,
		Mode:     0,
		O23:      4.1,
		O34:      []float64{4.1, 4.0, 3.9},
		O35:      4.0,
		O46:      3.95,
		Date:     "2026-07-31T00:00:00Z",
		O21:      []float64{5.0},
		O22:      []float64{4.2},
	}

	require.NoError(t, s.Put(ctx, "session-a", result))

	got, ok, err := s.Get(ctx, "session-a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, result, got)
}

func TestStore_GetMissing(t *testing.T) {
	s := openTestStore(t)
	_, ok, err := s.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_PutOverwrites(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "session-a", report.Result{O46: 3.0, O34: []float64{3.0}, Date: "d1"}))
	require.NoError(t, s.Put(ctx, "session-a", report.Result{O46: 4.5, O34: []float64{4.5}, Date: "d2"}))

	got, ok, err := s.Get(ctx, "session-a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 4.5, got.O46)
}

func TestStore_Recent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "a", report.Result{O46: 1.0, O34: []float64{1.0}, Date: "d"}))
	require.NoError(t, s.Put(ctx, "b", report.Result{O46: 2.0, O34: []float64{2.0}, Date: "d"}))
	require.NoError(t, s.Put(ctx, "c", report.Result{O46: 3.0, O34: []float64{3.0}, Date: "d"}))

	results, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}
