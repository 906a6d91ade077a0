package classify

import "github.com/andes-data/procura-cli/internal/model"

const (
	// largeDatasetThreshold is the record count above which the larger batch
	// size is used.
	largeDatasetThreshold = 10000

	largeBatchSize = 50
	smallBatchSize = 30
)

// Batch is a contiguous slice of the normalized dataset, tagged with its
// originating index. The index, not completion order, decides persistence
// semantics downstream.
type Batch struct {
	Index   int
	Records []model.CanonicalRecord
}

// BatchSize returns the batch size for a dataset of n records.
func BatchSize(n int) int {
	if n > largeDatasetThreshold {
		return largeBatchSize
	}
	return smallBatchSize
}

// Partition splits records into contiguous, non-overlapping batches covering
// the whole dataset in original order.
func Partition(records []model.CanonicalRecord) []Batch {
	size := BatchSize(len(records))

	var batches []Batch
	for start := 0; start < len(records); start += size {
		end := min(start+size, len(records))
		batches = append(batches, Batch{
			Index:   len(batches),
			Records: records[start:end],
		})
	}
	return batches
}
