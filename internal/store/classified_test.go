package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andes-data/procura-cli/internal/model"
)

func f64(v float64) *float64 { return &v }

func batchOf(category string, budgets ...float64) []model.ClassifiedRecord {
	out := make([]model.ClassifiedRecord, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, model.ClassifiedRecord{Categoria: category, Presupuesto: f64(b)})
	}
	return out
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := strings.TrimRight(string(data), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func TestClassifiedWriter_TruncatesStaleContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ecuador.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("stale line\n"), 0o644))

	w, err := NewClassifiedWriter(path)
	require.NoError(t, err)

	require.NoError(t, w.Write(0, batchOf(model.CategorySalud, 1)))
	require.NoError(t, w.Finish())

	lines := readLines(t, path)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"salud"`)
}

func TestClassifiedWriter_OutOfOrderCompletion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chile.jsonl")
	w, err := NewClassifiedWriter(path)
	require.NoError(t, err)

	// Batches 2 and 1 finish before batch 0: they must buffer until the
	// truncating write from batch 0 lands, then append.
	require.NoError(t, w.Write(2, batchOf(model.CategoryOtro, 2)))
	require.NoError(t, w.Write(1, batchOf(model.CategoryEducacion, 1)))

	// Nothing visible until batch 0 arrives.
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))

	require.NoError(t, w.Write(0, batchOf(model.CategorySalud, 0)))
	require.NoError(t, w.Finish())

	lines := readLines(t, path)
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], `"salud"`)
	assert.Contains(t, lines[1], `"educación"`)
	assert.Contains(t, lines[2], `"otro"`)
}

func TestClassifiedWriter_MissingBatchZero(t *testing.T) {
	path := filepath.Join(t.TempDir(), "colombia.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("stale line\n"), 0o644))

	w, err := NewClassifiedWriter(path)
	require.NoError(t, err)

	// Batch 0 was skipped after a parse failure; the surviving batches must
	// still land, replacing the previous run's content.
	require.NoError(t, w.Write(3, batchOf(model.CategoryOtro, 3)))
	require.NoError(t, w.Write(1, batchOf(model.CategorySalud, 1)))
	require.NoError(t, w.Finish())

	lines := readLines(t, path)
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"salud"`)
	assert.Contains(t, lines[1], `"otro"`)
}

func TestClassifiedWriter_ConcurrentWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ecuador.jsonl")
	w, err := NewClassifiedWriter(path)
	require.NoError(t, err)

	const batches = 20
	const perBatch = 5

	var wg sync.WaitGroup
	for i := range batches {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			budgets := make([]float64, perBatch)
			for j := range budgets {
				budgets[j] = float64(idx*perBatch + j)
			}
			assert.NoError(t, w.Write(idx, batchOf(model.CategorySalud, budgets...)))
		}(i)
	}
	wg.Wait()
	require.NoError(t, w.Finish())

	// Every line intact, every batch persisted exactly once.
	lines := readLines(t, path)
	require.Len(t, lines, batches*perBatch)
	for _, line := range lines {
		assert.True(t, strings.HasPrefix(line, "{"), "partial line: %q", line)
		assert.True(t, strings.HasSuffix(line, "}"), "partial line: %q", line)
	}
}

func TestScanClassified_SkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peru.jsonl")
	content := fmt.Sprintf("%s\nnot json at all\n%s\n",
		`{"categoria":"salud","presupuesto":100}`,
		`{"categoria":"otro","presupuesto":5}`,
	)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	var seen []model.ClassifiedRecord
	skipped, err := ScanClassified(path, func(rec model.ClassifiedRecord) {
		seen = append(seen, rec)
	})
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	require.Len(t, seen, 2)
	assert.Equal(t, model.CategorySalud, seen[0].Categoria)
	assert.Equal(t, 100.0, *seen[0].Presupuesto)
}

func TestScanClassified_MissingFile(t *testing.T) {
	_, err := ScanClassified(filepath.Join(t.TempDir(), "absent.jsonl"), func(model.ClassifiedRecord) {})
	require.Error(t, err)
}
