package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// syncDir flushes a directory entry to disk
var syncDir = func(dir string) error {
	parent, err := os.Open(dir)
	if err != nil {
		return err
	}
	if err := parent.Sync(); err != nil {
		parent.Close()
		return err
	}
	return parent.Close()
}

// writeFileAtomic replaces path with data so readers see either the old
// contents or the new, never a partial file. The temporary file lives in
// the same directory so the rename stays on one filesystem. Failures after
// the rename are logged, since the new contents are already in place.
func writeFileAtomic(path string, data []byte, log zerolog.Logger) error {
	dir := filepath.Dir(path)

	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmpFile, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary table file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	// Write, sync, close, in that order
	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write temporary table file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temporary table file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary table file: %w", err)
	}
	// FAT media reject permission bits
	if err := os.Chmod(tmpPath, mode); err != nil {
		log.Debug().Err(err).Str("path", tmpPath).Msg("Could not preserve table file mode")
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename table file into place: %w", err)
	}
	success = true

	// The rename is only durable once the directory entry is flushed
	if err := syncDir(dir); err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("Failed to sync table directory; rename may not survive power loss")
	}

	return nil
}
