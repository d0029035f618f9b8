package rf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchEnsemble_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	tree0 := "0,-1,2.5,-1,-1\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tree_0.csv"), []byte(tree0), 0o600))

	w, err := WatchEnsemble(dir)
	require.NoError(t, err)
	defer w.Stop()

	require.Len(t, w.Ensemble().Trees, 1)

	tree1 := "0,-1,3.5,-1,-1\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tree_1.csv"), []byte(tree1), 0o600))

	require.Eventually(t, func() bool {
		return len(w.Ensemble().Trees) == 2
	}, 2*time.Second, 20*time.Millisecond)
}

func TestWatchEnsemble_MissingDirErrors(t *testing.T) {
	_, err := WatchEnsemble("/no/such/dir")
	assert.Error(t, err)
}
