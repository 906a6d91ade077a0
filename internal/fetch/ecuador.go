package fetch

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/andes-data/procura-cli/internal/store"
)

const defaultEcuadorBaseURL = "https://datosabiertos.compraspublicas.gob.ec/PLATAFORMA/api/search_ocds"

// Ecuador fetches procurement processes from the SERCOP open-data API. The
// API is paginated: the first page reports the total page count and every
// page carries a data array of OCDS records.
type Ecuador struct {
	fetcher *HTTPFetcher
	baseURL string
}

// NewEcuador builds the Ecuador source. An empty baseURL selects the public
// API endpoint.
func NewEcuador(f *HTTPFetcher, baseURL string) *Ecuador {
	if baseURL == "" {
		baseURL = defaultEcuadorBaseURL
	}
	return &Ecuador{fetcher: f, baseURL: baseURL}
}

func (e *Ecuador) Name() string { return "ecuador" }

// ecuadorPage is one page of the search_ocds response.
type ecuadorPage struct {
	Pages int               `json:"pages"`
	Data  []json.RawMessage `json:"data"`
}

// Fetch downloads every page matching the filter into the raw store. The
// first page overwrites the store unless params.Append is set; later pages
// always append.
func (e *Ecuador) Fetch(ctx context.Context, layout store.Layout, params Params) (Status, error) {
	search := strings.Join(params.Search, " ")
	for name, term := range map[string]string{
		"search": search, "buyer": params.Buyer, "supplier": params.Supplier,
	} {
		if term != "" && len(term) < 3 {
			err := eris.Errorf("ecuador: %s term must be at least 3 characters", name)
			return Status{Error: err.Error()}, err
		}
	}

	log := zap.L().With(zap.String("source", e.Name()))
	path := layout.RawPath(e.Name())

	query := func(page int) url.Values {
		q := url.Values{}
		if params.Year > 0 {
			q.Set("year", strconv.Itoa(params.Year))
		}
		if search != "" {
			q.Set("search", search)
		}
		if params.Buyer != "" {
			q.Set("buyer", params.Buyer)
		}
		if params.Supplier != "" {
			q.Set("supplier", params.Supplier)
		}
		q.Set("page", strconv.Itoa(page))
		return q
	}

	var first ecuadorPage
	if err := e.fetcher.GetJSON(ctx, e.baseURL, query(1), &first); err != nil {
		return Status{Error: err.Error()}, err
	}

	if err := writeJSONLines(path, first.Data, params.Append); err != nil {
		return Status{Error: err.Error()}, err
	}
	total := len(first.Data)

	log.Info("downloading paginated dataset",
		zap.Int("pages", first.Pages),
		zap.Int("year", params.Year),
	)

	for page := 2; page <= first.Pages; page++ {
		var p ecuadorPage
		if err := e.fetcher.GetJSON(ctx, e.baseURL, query(page), &p); err != nil {
			return Status{Path: path, Count: total, Error: err.Error()}, err
		}
		if len(p.Data) == 0 {
			break
		}
		if err := writeJSONLines(path, p.Data, true); err != nil {
			return Status{Path: path, Count: total, Error: err.Error()}, err
		}
		total += len(p.Data)

		log.Debug("page downloaded",
			zap.Int("page", page),
			zap.Int("records", len(p.Data)),
		)
	}

	return Status{OK: true, Path: path, Count: total}, nil
}
