// Package paths resolves where the local cache lives on disk.
package paths

import (
	"os"
	"path/filepath"
)

// DefaultDirName is the storage directory created under the user's home
// when no explicit location is configured.
const DefaultDirName = ".canvai"

// StorageDir resolves a configured storage directory to an absolute path.
// Absolute paths pass through unchanged; relative paths are anchored at
// the user's home directory, or left relative to the working directory
// when the home directory cannot be determined.
func StorageDir(dir string) string {
	if dir == "" {
		dir = DefaultDirName
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return dir
	}
	return filepath.Join(home, dir)
}
