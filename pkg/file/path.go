package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// StripExt removes the final extension segment of a file name.
// e.g. "show_20240101.mp4" -> "show_20240101"
// e.g. "show.final.mxf" -> "show.final"
// A name without a dot is returned unchanged.
func StripExt(name string) string {
	lastDot := strings.LastIndex(name, ".")
	if lastDot < 0 {
		return name
	}
	return name[:lastDot]
}

// WriteAtomic writes data to path through a temp file and a rename, creating
// the parent directory when missing.
func WriteAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
