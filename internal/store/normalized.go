package store

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"

	"github.com/andes-data/procura-cli/internal/model"
)

// WriteNormalized persists the full normalized collection as one JSON array,
// creating the normalized-store directory if absent.
func WriteNormalized(path string, records []model.CanonicalRecord) error {
	if err := EnsureDir(path); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "store: create normalized store %s", path)
	}
	defer f.Close() //nolint:errcheck

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(orderedRecords(records)); err != nil {
		return eris.Wrapf(err, "store: write normalized store %s", path)
	}
	return nil
}

// orderedRecords re-encodes canonical records so fields serialize in schema
// order rather than Go's randomized map order.
func orderedRecords(records []model.CanonicalRecord) []json.RawMessage {
	out := make([]json.RawMessage, 0, len(records))
	for _, rec := range records {
		out = append(out, encodeOrdered(rec))
	}
	return out
}

func encodeOrdered(rec model.CanonicalRecord) json.RawMessage {
	buf := []byte{'{'}
	for i, f := range model.Schema {
		if i > 0 {
			buf = append(buf, ',')
		}
		key, _ := json.Marshal(f.Name)
		val, err := json.Marshal(rec[f.Name])
		if err != nil {
			val = []byte("null")
		}
		buf = append(buf, key...)
		buf = append(buf, ':')
		buf = append(buf, val...)
	}
	return append(buf, '}')
}

// ReadNormalized loads a country's full normalized array.
func ReadNormalized(path string) ([]model.CanonicalRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "store: read normalized store %s", path)
	}
	var records []model.CanonicalRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, eris.Wrapf(err, "store: decode normalized store %s", path)
	}
	return records, nil
}

// SourceCurrency returns the currency code of the first normalized record.
// Falls back to "USD" when the store is absent, empty, or carries no usable
// currency field.
func SourceCurrency(path string) string {
	records, err := ReadNormalized(path)
	if err != nil || len(records) == 0 {
		return "USD"
	}
	if code, ok := records[0]["moneda"].(string); ok && code != "" {
		return code
	}
	return "USD"
}
