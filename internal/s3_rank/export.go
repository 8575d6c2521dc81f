package s3_rank

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wonny/rotor/internal/contracts"
)

// WriteLatestSummary writes the latest top-N payload to disk for the
// dashboard. The file is replaced atomically via a rename so a concurrent
// reader never sees a half-written document.
func WriteLatestSummary(path string, summary *contracts.LatestSummary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal latest summary: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".latest-*.json")
	if err != nil {
		return fmt.Errorf("create temp export: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write latest summary: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp export: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace latest summary: %w", err)
	}
	return nil
}
