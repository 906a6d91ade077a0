// Package fetch acquires raw procurement records per country and appends or
// overwrites them in the raw JSONL store. Each country source exposes the
// same contract: fetch records matching the filter parameters, persist them,
// report a status record naming the raw store path and record count.
package fetch

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/andes-data/procura-cli/internal/store"
)

// Params are the acquisition filter parameters. Not every source honors
// every field: Ecuador uses Year/Search, Colombia uses the date range and
// Modality, Chile uses Year/Search.
type Params struct {
	Year      int
	Search    []string
	Buyer     string
	Supplier  string
	StartDate string // YYYY-MM-DD
	EndDate   string // YYYY-MM-DD
	Modality  string
	Append    bool
}

// Status is the acquisition outcome contract.
type Status struct {
	OK    bool   `json:"ok"`
	Path  string `json:"path"`
	Count int    `json:"count"`
	Error string `json:"error,omitempty"`
}

// Source fetches raw records for one country.
type Source interface {
	Name() string
	Fetch(ctx context.Context, layout store.Layout, params Params) (Status, error)
}

// Registry holds the known country sources.
type Registry struct {
	sources map[string]Source
}

// NewRegistry builds the registry of country sources over a shared fetcher.
func NewRegistry(f *HTTPFetcher) *Registry {
	r := &Registry{sources: make(map[string]Source)}
	for _, s := range []Source{
		NewEcuador(f, ""),
		NewColombia(f, ""),
		NewChile(f, ""),
	} {
		r.sources[s.Name()] = s
	}
	return r
}

// Lookup returns the source for a country name.
func (r *Registry) Lookup(country string) (Source, error) {
	s, ok := r.sources[strings.ToLower(strings.TrimSpace(country))]
	if !ok {
		return nil, eris.Errorf("fetch: no acquisition source for country %q", country)
	}
	return s, nil
}

// Names lists the registered country names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	return names
}
