package install

import (
	"os"
	"path/filepath"
)

// DetectRoot walks upward from startDir looking for any of the definition's
// marker files; the first directory containing one is the project root. When
// no marker exists anywhere up to the filesystem root, startDir itself is
// the root, so detection never fails.
func DetectRoot(startDir string, markers []string) string {
	if len(markers) == 0 {
		return startDir
	}

	dir := startDir
	for {
		for _, marker := range markers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return startDir
		}
		dir = parent
	}
}
