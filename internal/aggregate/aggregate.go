// Package aggregate folds a country's classified records into per-category
// budget totals, converts them to USD, and merges them into the cross-country
// analysis artifact.
package aggregate

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/andes-data/procura-cli/internal/model"
	"github.com/andes-data/procura-cli/internal/rates"
	"github.com/andes-data/procura-cli/internal/store"
)

// Aggregator reduces classified stores into the analysis artifact.
type Aggregator struct {
	Rates rates.Source
}

// Result reports the outcome of one country's aggregation.
type Result struct {
	Country      string
	Currency     string
	Rate         float64
	Totals       model.Totals
	SkippedLines int
	Path         string
}

// Run aggregates one country. The source currency comes from the first
// normalized record (default USD). Records outside the reporting categories,
// or with a null budget, are ignored. A failed rate lookup degrades to a rate
// of 1.0 rather than failing the run. The resulting USD totals overwrite the
// country's entry in the shared analysis artifact.
func (a *Aggregator) Run(ctx context.Context, layout store.Layout, country string) (Result, error) {
	log := zap.L().With(zap.String("country", country))

	currency := store.SourceCurrency(layout.NormalizedPath(country))

	totals := model.Totals{}
	for _, cat := range model.Categories {
		totals[cat] = 0
	}

	skipped, err := store.ScanClassified(layout.ClassifiedPath(country), func(rec model.ClassifiedRecord) {
		cat := strings.ToLower(rec.Categoria)
		if _, tracked := totals[cat]; !tracked || rec.Presupuesto == nil {
			return
		}
		totals[cat] += *rec.Presupuesto
	})
	if err != nil {
		return Result{}, err
	}

	rate := 1.0
	if r, err := a.Rates.USDRate(ctx, currency); err != nil {
		log.Warn("rate lookup failed, using fallback rate 1.0",
			zap.String("currency", currency),
			zap.Error(err),
		)
	} else {
		rate = r
	}

	usd := model.Totals{}
	for cat, sum := range totals {
		usd[cat] = sum * rate
	}

	artifactPath := layout.AnalysisPath()
	if err := store.MergeAnalysis(artifactPath, country, usd); err != nil {
		return Result{}, err
	}

	log.Info("aggregated country totals",
		zap.String("currency", currency),
		zap.Float64("usd_rate", rate),
		zap.Int("skipped_lines", skipped),
	)

	return Result{
		Country:      country,
		Currency:     currency,
		Rate:         rate,
		Totals:       usd,
		SkippedLines: skipped,
		Path:         artifactPath,
	}, nil
}
