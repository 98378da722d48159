package platform

import (
	"os"
	"path/filepath"
	"strings"
)

// IsDevRun reports whether the binary runs under `go run` or `go test`.
func IsDevRun() bool {
	exe, err := os.Executable()
	if err != nil {
		return false
	}

	// go run builds into the temp dir.
	if strings.HasPrefix(strings.ToLower(exe), strings.ToLower(os.TempDir())) {
		return true
	}
	return strings.HasSuffix(exe, ".test") || strings.HasSuffix(exe, ".test.exe")
}

// ResolvePath returns where the store really lives. With forceTemp the path
// is re-rooted under <tmp>/sheaf-dev, unless it is already inside the temp
// dir (t.TempDir and friends), which is trusted as is.
func ResolvePath(userPath string, forceTemp bool) string {
	if !forceTemp {
		if userPath == "" {
			return "."
		}
		return userPath
	}

	clean := filepath.Clean(userPath)
	if rel, err := filepath.Rel(os.TempDir(), clean); err == nil && filepath.IsAbs(clean) && !strings.HasPrefix(rel, "..") {
		return clean
	}

	sub := filepath.Base(clean)
	if userPath == "" || sub == "." || sub == string(os.PathSeparator) {
		sub = "default"
	}
	return filepath.Join(os.TempDir(), "sheaf-dev", sub)
}
