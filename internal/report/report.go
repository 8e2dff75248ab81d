// Package report persists the last pipeline run as a JSON receipt.
// The receipt is for humans and support tooling; the pipeline never
// reads it back.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog/log"

	"github.com/cfdops/su2ctl/internal/pipeline"
)

// DefaultPath resolves the receipt location under the XDG state dir.
func DefaultPath() (string, error) {
	return xdg.StateFile(filepath.Join("su2ctl", "last-run.json"))
}

// Write serializes the run report to path.
func Write(path string, rep pipeline.Report) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("report: marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("report: create state dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("report: write receipt: %w", err)
	}
	return nil
}

// WriteDefault writes the receipt to the default location, best-effort.
// A receipt failure is logged and never masks the run outcome.
func WriteDefault(rep pipeline.Report) {
	path, err := DefaultPath()
	if err != nil {
		log.Warn().Err(err).Msg("run receipt location unavailable")
		return
	}
	if err := Write(path, rep); err != nil {
		log.Warn().Err(err).Msg("run receipt not written")
		return
	}
	log.Info().Str("receipt", path).Msg("run receipt written")
}
