package classify

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andes-data/procura-cli/internal/model"
	"github.com/andes-data/procura-cli/internal/store"
)

// stubClassifier is a deterministic classification capability: it labels
// every record "salud" with the record's positional budget, with optional
// per-batch failures and completion-order shuffling.
type stubClassifier struct {
	delay    time.Duration
	failIdx  map[int]bool
	inFlight atomic.Int64
	maxSeen  atomic.Int64

	mu    sync.Mutex
	calls int
}

func (s *stubClassifier) Classify(_ context.Context, records []model.CanonicalRecord) ([]model.ClassifiedRecord, error) {
	cur := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		seen := s.maxSeen.Load()
		if cur <= seen || s.maxSeen.CompareAndSwap(seen, cur) {
			break
		}
	}

	s.mu.Lock()
	call := s.calls
	s.calls++
	s.mu.Unlock()

	if s.delay > 0 {
		// Later calls finish sooner, forcing out-of-order completion.
		time.Sleep(s.delay * time.Duration((call%3)+1))
	}

	// JSON round-tripped numbers decode as float64.
	first, _ := records[0]["oferentes"].(float64)
	if s.failIdx[int(first)/30] {
		return nil, assert.AnError
	}

	out := make([]model.ClassifiedRecord, len(records))
	for i := range records {
		b := float64(i)
		out[i] = model.ClassifiedRecord{Categoria: model.CategorySalud, Presupuesto: &b}
	}
	return out, nil
}

func writeNormalized(t *testing.T, layout store.Layout, country string, n int) {
	t.Helper()
	records := make([]model.CanonicalRecord, n)
	for i := range records {
		records[i] = model.CanonicalRecord{"id": "r", "oferentes": i, "moneda": "USD"}
	}
	require.NoError(t, store.WriteNormalized(layout.NormalizedPath(country), records))
}

func TestScheduler_Run(t *testing.T) {
	layout := store.Layout{DataDir: t.TempDir()}
	writeNormalized(t, layout, "ecuador", 95)

	stub := &stubClassifier{delay: time.Millisecond}
	s := &Scheduler{Classifier: stub, Concurrency: 4}

	res, err := s.Run(context.Background(), layout, "ecuador")
	require.NoError(t, err)

	assert.Equal(t, 95, res.Records)
	assert.Equal(t, 4, res.Batches)
	assert.Equal(t, 4, res.Completed)
	assert.Equal(t, 0, res.Skipped)

	// Every dispatched batch persisted exactly once.
	var total int
	_, scanErr := store.ScanClassified(res.Path, func(model.ClassifiedRecord) { total++ })
	require.NoError(t, scanErr)
	assert.Equal(t, 95, total)
}

func TestScheduler_ConcurrencyBound(t *testing.T) {
	layout := store.Layout{DataDir: t.TempDir()}
	writeNormalized(t, layout, "chile", 900) // 30 batches

	stub := &stubClassifier{delay: 2 * time.Millisecond}
	s := &Scheduler{Classifier: stub, Concurrency: 10}

	_, err := s.Run(context.Background(), layout, "chile")
	require.NoError(t, err)

	assert.LessOrEqual(t, stub.maxSeen.Load(), int64(10),
		"more than the configured limit of classification calls ran simultaneously")
	assert.Greater(t, stub.maxSeen.Load(), int64(1), "dispatch never ran concurrently")
}

func TestScheduler_SkipsFailedBatches(t *testing.T) {
	layout := store.Layout{DataDir: t.TempDir()}
	writeNormalized(t, layout, "colombia", 90) // 3 batches

	stub := &stubClassifier{failIdx: map[int]bool{1: true}}
	s := &Scheduler{Classifier: stub}

	res, err := s.Run(context.Background(), layout, "colombia")
	require.NoError(t, err, "a single failed batch must not abort the run")

	assert.Equal(t, 2, res.Completed)
	assert.Equal(t, 1, res.Skipped)

	var total int
	_, scanErr := store.ScanClassified(res.Path, func(model.ClassifiedRecord) { total++ })
	require.NoError(t, scanErr)
	assert.Equal(t, 60, total)
}

func TestScheduler_SurvivesFailedFirstBatch(t *testing.T) {
	layout := store.Layout{DataDir: t.TempDir()}
	writeNormalized(t, layout, "peru", 90)

	stub := &stubClassifier{failIdx: map[int]bool{0: true}}
	s := &Scheduler{Classifier: stub}

	res, err := s.Run(context.Background(), layout, "peru")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Completed)

	// Surviving batches still land even though the truncating batch is gone.
	var total int
	_, scanErr := store.ScanClassified(res.Path, func(model.ClassifiedRecord) { total++ })
	require.NoError(t, scanErr)
	assert.Equal(t, 60, total)
}

func TestScheduler_MissingNormalizedStore(t *testing.T) {
	layout := store.Layout{DataDir: t.TempDir()}
	s := &Scheduler{Classifier: &stubClassifier{}}

	_, err := s.Run(context.Background(), layout, "bolivia")
	require.Error(t, err)
}
