package store

import (
	"bufio"
	"encoding/json"
	"os"
	"sort"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/andes-data/procura-cli/internal/model"
)

// ClassifiedWriter persists classified batches for one country. Batches are
// produced by concurrent tasks in arbitrary completion order, but the store
// must start from the logically first batch's truncating write: batch 0
// overwrites the file, every other batch appends. Results that complete
// before batch 0 are buffered until the truncate lands. All writes are
// serialized by an internal lock so lines never interleave.
//
// The writer is scoped to a single country's classification run; it is never
// shared across countries.
type ClassifiedWriter struct {
	path string

	mu      sync.Mutex
	started bool
	pending map[int][]model.ClassifiedRecord
}

// NewClassifiedWriter creates a writer for the given classified-store path,
// creating the parent directory if absent.
func NewClassifiedWriter(path string) (*ClassifiedWriter, error) {
	if err := EnsureDir(path); err != nil {
		return nil, err
	}
	return &ClassifiedWriter{
		path:    path,
		pending: make(map[int][]model.ClassifiedRecord),
	}, nil
}

// Write persists one batch's records, tagged with the batch's originating
// index. Safe for concurrent use.
func (w *ClassifiedWriter) Write(batchIndex int, records []model.ClassifiedRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if batchIndex == 0 {
		if err := w.writeLocked(records, true); err != nil {
			return err
		}
		w.started = true
		return w.flushPendingLocked()
	}

	if !w.started {
		w.pending[batchIndex] = records
		return nil
	}
	return w.writeLocked(records, false)
}

// Finish flushes any batches still buffered because batch 0 never arrived
// (e.g. its classification was skipped after a parse failure). The first
// flushed batch then takes over the truncating write. If nothing was
// persisted or buffered, the store is left untouched.
func (w *ClassifiedWriter) Finish() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started || len(w.pending) == 0 {
		return w.flushPendingLocked()
	}

	indexes := pendingIndexes(w.pending)
	first := indexes[0]
	if err := w.writeLocked(w.pending[first], true); err != nil {
		return err
	}
	w.started = true
	delete(w.pending, first)
	return w.flushPendingLocked()
}

// flushPendingLocked appends buffered batches in ascending index order.
func (w *ClassifiedWriter) flushPendingLocked() error {
	for _, idx := range pendingIndexes(w.pending) {
		if err := w.writeLocked(w.pending[idx], false); err != nil {
			return err
		}
		delete(w.pending, idx)
	}
	return nil
}

func pendingIndexes(pending map[int][]model.ClassifiedRecord) []int {
	indexes := make([]int, 0, len(pending))
	for idx := range pending {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)
	return indexes
}

// writeLocked writes records as JSON lines, truncating or appending.
// Caller holds w.mu.
func (w *ClassifiedWriter) writeLocked(records []model.ClassifiedRecord, truncate bool) error {
	flags := os.O_CREATE | os.O_WRONLY
	if truncate {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_APPEND
	}

	f, err := os.OpenFile(w.path, flags, 0o644)
	if err != nil {
		return eris.Wrapf(err, "store: open classified store %s", w.path)
	}
	defer f.Close() //nolint:errcheck

	bw := bufio.NewWriter(f)
	for _, rec := range records {
		line, err := json.Marshal(rec)
		if err != nil {
			return eris.Wrap(err, "store: marshal classified record")
		}
		bw.Write(line)        //nolint:errcheck
		bw.WriteByte('\n')    //nolint:errcheck
	}
	if err := bw.Flush(); err != nil {
		return eris.Wrapf(err, "store: write classified store %s", w.path)
	}
	return nil
}

// ScanClassified streams the classified store line by line, invoking visit
// for each well-formed record. Malformed lines are logged and skipped.
// Returns the number of skipped lines.
func ScanClassified(path string, visit func(model.ClassifiedRecord)) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, eris.Wrapf(err, "store: open classified store %s", path)
	}
	defer f.Close() //nolint:errcheck

	skipped := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec model.ClassifiedRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			zap.L().Warn("skipping malformed classified line",
				zap.String("path", path),
				zap.Error(err),
			)
			skipped++
			continue
		}
		visit(rec)
	}
	if err := scanner.Err(); err != nil {
		return skipped, eris.Wrapf(err, "store: scan classified store %s", path)
	}
	return skipped, nil
}
