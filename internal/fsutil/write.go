// Package fsutil holds small filesystem helpers shared across the pipeline.
package fsutil

import (
	"os"
	"path/filepath"
)

// WriteFileAtomic writes via a temp file and rename so a crashed run never
// leaves a half-written config behind. Parent directories are created as
// needed.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
