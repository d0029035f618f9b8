package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeReport(t *testing.T, dir, name string, body map[string]any) string {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestRun_NoInputFilesIsUsageError(t *testing.T) {
	assert.Equal(t, 2, run([]string{"-tree-path", "../../testdata/trees"}))
}

func TestRun_BadFlagIsUsageError(t *testing.T) {
	assert.Equal(t, 2, run([]string{"-not-a-flag"}))
}

func TestRun_PrecomputedScoresSucceed(t *testing.T) {
	dir := t.TempDir()
	path := writeReport(t, dir, "report.json", map[string]any{
		"O21": []float64{4.5, 4.5},
		"O22": []float64{4.2, 4.2},
	})

	exit := run([]string{"-tree-path", "../../testdata/trees", path})
	assert.Equal(t, 0, exit)
}

func TestRun_MissingFileIsScoringError(t *testing.T) {
	exit := run([]string{"-tree-path", "../../testdata/trees", "/no/such/report.json"})
	assert.Equal(t, 1, exit)
}

func TestRun_PersistsToStore(t *testing.T) {
	dir := t.TempDir()
	path := writeReport(t, dir, "report.json", map[string]any{
		"O21": []float64{4.5},
		"O22": []float64{4.2},
	})
	dbPath := filepath.Join(dir, "results.db")

	exit := run([]string{"-tree-path", "../../testdata/trees", "-store", dbPath, path})
	assert.Equal(t, 0, exit)

	_, err := os.Stat(dbPath)
	assert.NoError(t, err)
}
