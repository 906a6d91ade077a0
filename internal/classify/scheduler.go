package classify

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/andes-data/procura-cli/internal/store"
)

// DefaultConcurrency bounds simultaneous in-flight classification calls for
// one country.
const DefaultConcurrency = 10

// Scheduler fans classification batches out to the Classifier under a
// bounded-concurrency policy and persists results through an index-aware
// writer, so the classified store is correct whatever order batches finish in.
type Scheduler struct {
	Classifier  Classifier
	Concurrency int
}

// Result reports the outcome of one country's classification run.
type Result struct {
	Records   int
	Batches   int
	Completed int
	Skipped   int
	Path      string
}

// Run executes the LOAD → PARTITION → DISPATCH → PERSIST sequence for one
// country. A batch whose classification fails or parses badly is logged and
// skipped; the run completes with whatever succeeded. Only a missing
// normalized store fails the invocation.
func (s *Scheduler) Run(ctx context.Context, layout store.Layout, country string) (Result, error) {
	log := zap.L().With(zap.String("country", country))

	records, err := store.ReadNormalized(layout.NormalizedPath(country))
	if err != nil {
		return Result{}, err
	}

	batches := Partition(records)
	outPath := layout.ClassifiedPath(country)

	writer, err := store.NewClassifiedWriter(outPath)
	if err != nil {
		return Result{}, err
	}

	log.Info("dispatching classification batches",
		zap.Int("records", len(records)),
		zap.Int("batches", len(batches)),
		zap.Int("batch_size", BatchSize(len(records))),
	)

	concurrency := s.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	var completed, skipped atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, batch := range batches {
		g.Go(func() error {
			classified, err := s.Classifier.Classify(gctx, batch.Records)
			if err != nil {
				log.Warn("batch classification failed, skipping",
					zap.Int("batch", batch.Index),
					zap.Error(err),
				)
				skipped.Add(1)
				return nil
			}

			if err := writer.Write(batch.Index, classified); err != nil {
				log.Warn("batch persistence failed, skipping",
					zap.Int("batch", batch.Index),
					zap.Error(err),
				)
				skipped.Add(1)
				return nil
			}

			done := completed.Add(1)
			log.Debug("batch classified",
				zap.Int("batch", batch.Index),
				zap.Int64("completed", done),
				zap.Int("total", len(batches)),
			)
			return nil
		})
	}

	_ = g.Wait() // tasks swallow their own failures

	if err := writer.Finish(); err != nil {
		return Result{}, err
	}

	return Result{
		Records:   len(records),
		Batches:   len(batches),
		Completed: int(completed.Load()),
		Skipped:   int(skipped.Load()),
		Path:      outPath,
	}, nil
}
