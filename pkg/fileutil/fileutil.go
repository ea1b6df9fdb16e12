// Package fileutil writes output files with tmp+mv semantics.
package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// TmpSuffix is appended to the final name while a file is being written.
const TmpSuffix = ".tmp"

// Exists returns true if the file exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// TmpPath returns the in-progress path for outPath, in the same directory so
// the final rename never crosses filesystems.
func TmpPath(outPath string) string {
	return filepath.Join(filepath.Dir(outPath), filepath.Base(outPath)+TmpSuffix)
}

// WriteTmpThenMove writes to a temporary file then atomically moves it to the final path.
// The writeFunc receives the temporary path and should write the complete file.
// A stale temp file from an interrupted run is removed first.
func WriteTmpThenMove(outPath string, writeFunc func(tmpPath string) error) error {
	tmpPath := TmpPath(outPath)
	if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale temp file: %w", err)
	}

	if err := writeFunc(tmpPath); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := syncFile(tmpPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("sync temp file: %w", err)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp to final: %w", err)
	}

	return nil
}

// syncFile opens, syncs, and closes a file.
func syncFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	err = f.Sync()
	f.Close()
	return err
}
