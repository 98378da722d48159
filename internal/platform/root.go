package platform

import (
	"fmt"
	"os"
	"path/filepath"
)

// rootMarkers identify a directory holding sheaf data.
var rootMarkers = []string{"sheaf.yaml", "notes.json", "sheaf.db", ".git"}

// FindRoot walks up from startDir looking for a directory containing one of
// the root markers and returns its absolute path.
func FindRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		for _, m := range rootMarkers {
			if hasFile(dir, m) {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("root not found")
}

func hasFile(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}
