package normalize

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/andes-data/procura-cli/internal/model"
)

// Mapping is a per-country mapping specification: canonical field name →
// either a path expression string, a QUEMAR(...) literal marker, or a raw
// literal value. It is produced once per country and reused for the whole
// raw file.
type Mapping map[string]any

// LoadMapping reads a mapping specification from a YAML file and validates
// it against the canonical schema.
func LoadMapping(path string) (Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "normalize: read mapping %s", path)
	}

	var m Mapping
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, eris.Wrapf(err, "normalize: parse mapping %s", path)
	}

	if err := m.Validate(); err != nil {
		return nil, eris.Wrapf(err, "normalize: invalid mapping %s", path)
	}
	return m, nil
}

// Validate checks that every canonical field has a mapping entry. A field may
// map to null (it then resolves to null for every record), but it may not be
// absent.
func (m Mapping) Validate() error {
	var missing []string
	for _, f := range model.Schema {
		if _, ok := m[f.Name]; !ok {
			missing = append(missing, f.Name)
		}
	}
	if len(missing) > 0 {
		return eris.Errorf("missing fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// literalPrefix and literalSuffix delimit the literal-value marker form
// QUEMAR(<literal>), which short-circuits path resolution and supplies the
// literal text as-is (e.g. a currency code absent from the source data).
const (
	literalPrefix = "QUEMAR("
	literalSuffix = ")"
)

// literal reports whether a mapping value is a literal marker and returns
// the burned-in literal text.
func literal(source string) (string, bool) {
	if !strings.HasPrefix(source, literalPrefix) || !strings.HasSuffix(source, literalSuffix) {
		return "", false
	}
	return source[len(literalPrefix) : len(source)-len(literalSuffix)], true
}
