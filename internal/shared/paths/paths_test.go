package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorageDirAbsolutePassesThrough(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, dir, StorageDir(dir))
}

func TestStorageDirRelativeAnchorsAtHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".canvai"), StorageDir(""))
	assert.Equal(t, filepath.Join(home, "cache/canvai"), StorageDir("cache/canvai"))
}
