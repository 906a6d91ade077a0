package fetch

import (
	"bufio"
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"

	"github.com/andes-data/procura-cli/internal/store"
)

// writeJSONLines persists raw records to path as one JSON object per line,
// truncating or appending, and creates the raw-store directory if absent.
func writeJSONLines(path string, records []json.RawMessage, appendMode bool) error {
	if err := store.EnsureDir(path); err != nil {
		return err
	}

	flags := os.O_CREATE | os.O_WRONLY
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return eris.Wrapf(err, "fetch: open raw store %s", path)
	}
	defer f.Close() //nolint:errcheck

	w := bufio.NewWriter(f)
	for _, rec := range records {
		compact, err := compactLine(rec)
		if err != nil {
			return err
		}
		w.Write(compact)   //nolint:errcheck
		w.WriteByte('\n')  //nolint:errcheck
	}
	if err := w.Flush(); err != nil {
		return eris.Wrapf(err, "fetch: write raw store %s", path)
	}
	return nil
}

// compactLine re-encodes a raw record without insignificant whitespace so it
// occupies exactly one line.
func compactLine(rec json.RawMessage) ([]byte, error) {
	var v any
	if err := json.Unmarshal(rec, &v); err != nil {
		return nil, eris.Wrap(err, "fetch: malformed record from source")
	}
	out, err := json.Marshal(v)
	if err != nil {
		return nil, eris.Wrap(err, "fetch: re-encode record")
	}
	return out, nil
}
