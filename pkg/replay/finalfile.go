package replay

import (
	"fmt"
	"os"
	"path/filepath"
)

// writeAtomic writes data to path via a sibling ".tmp" file followed by a
// rename, so a reader never observes a partially-written final book. If
// the rename fails (e.g. the temp file landed on a different filesystem),
// it falls back to a direct write.
func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("replay: write temp %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, path); err == nil {
		return nil
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("replay: direct write %s: %w", path, err)
	}
	_ = os.Remove(tmp)
	return nil
}

// writeFinalBooks writes the full-depth book JSON to final_book.json and,
// when symbol is non-empty, final_book_<symbol>.json, both inside outdir.
func writeFinalBooks(outdir, symbol string, bookJSON []byte) error {
	if err := os.MkdirAll(outdir, 0o755); err != nil {
		return fmt.Errorf("replay: mkdir %s: %w", outdir, err)
	}

	if err := writeAtomic(filepath.Join(outdir, "final_book.json"), bookJSON); err != nil {
		return err
	}

	if symbol != "" {
		name := fmt.Sprintf("final_book_%s.json", symbol)
		if err := writeAtomic(filepath.Join(outdir, name), bookJSON); err != nil {
			return err
		}
	}
	return nil
}
