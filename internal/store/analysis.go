package store

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"

	"github.com/andes-data/procura-cli/internal/model"
)

// ReadAnalysis loads the cross-country analysis artifact, returning an empty
// analysis when the file does not exist yet.
func ReadAnalysis(path string) (model.Analysis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.Analysis{}, nil
		}
		return nil, eris.Wrapf(err, "store: read analysis artifact %s", path)
	}
	var analysis model.Analysis
	if err := json.Unmarshal(data, &analysis); err != nil {
		return nil, eris.Wrapf(err, "store: decode analysis artifact %s", path)
	}
	if analysis == nil {
		analysis = model.Analysis{}
	}
	return analysis, nil
}

// MergeAnalysis overwrites one country's entry in the analysis artifact and
// writes the whole artifact back. The artifact accumulates across runs and is
// never pruned. Concurrent writers for different countries are not supported;
// the caller serializes invocations.
func MergeAnalysis(path, country string, totals model.Totals) error {
	if err := EnsureDir(path); err != nil {
		return err
	}

	analysis, err := ReadAnalysis(path)
	if err != nil {
		return err
	}
	analysis[countryKey(country)] = totals

	data, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return eris.Wrap(err, "store: marshal analysis artifact")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "store: write analysis artifact %s", path)
	}
	return nil
}
