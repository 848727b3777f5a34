package node

import (
	"fmt"
	"os"
	"path/filepath"
)

// writeFileAtomic writes data to path by first writing a sibling
// temp file and renaming it into place, so readers (and a crash
// mid-write) never observe a partially written file (spec §4.4, §5
// "UTXO snapshot write is atomic").
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("node: atomic write: create temp: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("node: atomic write: write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("node: atomic write: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("node: atomic write: close: %w", err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("node: atomic write: chmod: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("node: atomic write: rename: %w", err)
	}
	return nil
}

// appendFile opens path for appending, creating it if absent, and
// writes data — used for the single-writer headers.bin log (spec
// §5 "headers and wallets files are single-writer").
func appendFile(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("node: append: open: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("node: append: write: %w", err)
	}
	return nil
}
