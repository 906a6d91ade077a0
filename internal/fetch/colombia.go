package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/andes-data/procura-cli/internal/store"
)

const defaultColombiaBaseURL = "https://www.datos.gov.co/resource/p6dx-8zbt.json"

// colombiaLimit caps one SECOP II query; the portal serves the whole result
// set in a single response.
const colombiaLimit = 100000

// Colombia fetches SECOP II contracting processes from the datos.gov.co
// Socrata API, filtered by publication-date range and contracting modality.
type Colombia struct {
	fetcher *HTTPFetcher
	baseURL string
}

// NewColombia builds the Colombia source. An empty baseURL selects the
// public API endpoint.
func NewColombia(f *HTTPFetcher, baseURL string) *Colombia {
	if baseURL == "" {
		baseURL = defaultColombiaBaseURL
	}
	return &Colombia{fetcher: f, baseURL: baseURL}
}

func (c *Colombia) Name() string { return "colombia" }

// Fetch downloads every process in the date range with the given modality
// and overwrites the raw store (or appends when params.Append is set).
func (c *Colombia) Fetch(ctx context.Context, layout store.Layout, params Params) (Status, error) {
	if params.StartDate == "" || params.EndDate == "" {
		err := eris.New("colombia: start and end dates are required (YYYY-MM-DD)")
		return Status{Error: err.Error()}, err
	}
	if params.Modality == "" {
		err := eris.New("colombia: contracting modality is required")
		return Status{Error: err.Error()}, err
	}

	query := url.Values{}
	query.Set("$where", fmt.Sprintf(
		"fecha_de_publicacion_del between '%s' and '%s' AND modalidad_de_contratacion like '%%%s%%'",
		params.StartDate, params.EndDate, params.Modality,
	))
	query.Set("$limit", fmt.Sprintf("%d", colombiaLimit))

	var records []json.RawMessage
	if err := c.fetcher.GetJSON(ctx, c.baseURL, query, &records); err != nil {
		return Status{Error: err.Error()}, err
	}

	path := layout.RawPath(c.Name())
	if err := writeJSONLines(path, records, params.Append); err != nil {
		return Status{Error: err.Error()}, err
	}

	zap.L().Info("downloaded dataset",
		zap.String("source", c.Name()),
		zap.Int("records", len(records)),
		zap.String("path", path),
	)
	return Status{OK: true, Path: path, Count: len(records)}, nil
}
