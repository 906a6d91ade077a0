// Package normalize reshapes a country's raw procurement records into the
// canonical schema using a per-country mapping specification.
package normalize

import (
	"bufio"
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/andes-data/procura-cli/internal/model"
	"github.com/andes-data/procura-cli/internal/pathexpr"
	"github.com/andes-data/procura-cli/internal/store"
)

// Result reports the outcome of a normalize pass.
type Result struct {
	Records int
	Path    string
}

// Run streams the country's raw store line by line, applies the mapping to
// each record, and persists the normalized collection as a single JSON array.
// The raw file is never loaded wholesale; the normalized collection is held
// in memory until the full pass succeeds, so a failed pass writes nothing.
func Run(layout store.Layout, country string, mapping Mapping) (Result, error) {
	log := zap.L().With(zap.String("country", country))

	rawPath := layout.RawPath(country)
	f, err := os.Open(rawPath)
	if err != nil {
		return Result{}, eris.Wrapf(err, "normalize: open raw store %s", rawPath)
	}
	defer f.Close() //nolint:errcheck

	var normalized []model.CanonicalRecord

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var record map[string]any
		if err := json.Unmarshal(line, &record); err != nil {
			return Result{}, eris.Wrapf(err, "normalize: malformed raw record at %s:%d", rawPath, lineNo)
		}

		normalized = append(normalized, Apply(record, mapping))
	}
	if err := scanner.Err(); err != nil {
		return Result{}, eris.Wrapf(err, "normalize: read raw store %s", rawPath)
	}

	outPath := layout.NormalizedPath(country)
	if err := store.WriteNormalized(outPath, normalized); err != nil {
		return Result{}, err
	}

	log.Info("normalized dataset",
		zap.Int("records", len(normalized)),
		zap.String("path", outPath),
	)
	return Result{Records: len(normalized), Path: outPath}, nil
}

// Apply transforms one raw record into one canonical record. For each
// canonical field the mapping supplies either a QUEMAR literal, a path
// expression to resolve, or a raw literal value; the resolved value is then
// coerced to the field's declared kind.
func Apply(record map[string]any, mapping Mapping) model.CanonicalRecord {
	out := make(model.CanonicalRecord, len(model.Schema))
	for _, field := range model.Schema {
		source := mapping[field.Name]

		var value any
		switch src := source.(type) {
		case string:
			if burned, ok := literal(src); ok {
				value = burned
			} else {
				value = pathexpr.Resolve(record, src)
			}
		default:
			value = src
		}

		out[field.Name] = Coerce(value, field.Kind)
	}
	return out
}
