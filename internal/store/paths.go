// Package store owns the on-disk data contract of the pipeline: the raw,
// normalized, classified and analysis stores under the data directory, plus
// the sqlite-backed run log.
package store

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Layout resolves per-country store paths under a data directory.
type Layout struct {
	DataDir string
}

// RawPath is the country's raw store: one arbitrary JSON object per line.
func (l Layout) RawPath(country string) string {
	return filepath.Join(l.DataDir, "raw", countryKey(country)+".jsonl")
}

// NormalizedPath is the country's normalized store: a single JSON array of
// canonical records.
func (l Layout) NormalizedPath(country string) string {
	return filepath.Join(l.DataDir, "normalized", countryKey(country)+".json")
}

// ClassifiedPath is the country's classified store: one classified record per
// line.
func (l Layout) ClassifiedPath(country string) string {
	return filepath.Join(l.DataDir, "analiced", "clasified", countryKey(country)+".jsonl")
}

// AnalysisPath is the shared cross-country analysis artifact.
func (l Layout) AnalysisPath() string {
	return filepath.Join(l.DataDir, "analiced", "analisis.json")
}

// RunLogPath is the sqlite run log database.
func (l Layout) RunLogPath() string {
	return filepath.Join(l.DataDir, "procura.db")
}

// EnsureDir creates the parent directory of path if absent.
func EnsureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "store: create dir for %s", path)
	}
	return nil
}

// countryKey normalizes a country name to its store key.
func countryKey(country string) string {
	return strings.ToLower(strings.TrimSpace(country))
}
