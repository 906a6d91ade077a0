// Package classify partitions a normalized dataset into batches, dispatches
// them to the classification capability under a bounded-concurrency policy,
// and persists classified output incrementally.
package classify

import (
	"context"

	"github.com/andes-data/procura-cli/internal/model"
)

// Classifier is the external classification capability: it assigns a budget
// category to each canonical record in a batch. Output carries no ordering
// guarantee relative to the input and may hold fewer records than submitted.
type Classifier interface {
	Classify(ctx context.Context, records []model.CanonicalRecord) ([]model.ClassifiedRecord, error)
}
