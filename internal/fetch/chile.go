package fetch

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/andes-data/procura-cli/internal/store"
)

const defaultChileBulkURL = "https://data.open-contracting.org/es/publication/144/download?name=%d.jsonl.gz"

// Chile fetches the yearly ChileCompra bulk export from the Open Contracting
// data registry: one gzipped JSONL file per year, downloaded whole, then
// filtered locally by keywords.
type Chile struct {
	fetcher *HTTPFetcher
	bulkURL string // printf pattern taking the year
}

// NewChile builds the Chile source. An empty bulkURL selects the public
// registry endpoint.
func NewChile(f *HTTPFetcher, bulkURL string) *Chile {
	if bulkURL == "" {
		bulkURL = defaultChileBulkURL
	}
	return &Chile{fetcher: f, bulkURL: bulkURL}
}

func (c *Chile) Name() string { return "chile" }

// Fetch downloads and extracts the year's bulk file, then writes the records
// matching the search keywords (diacritic- and case-insensitive) to the raw
// store. Without keywords every record is kept.
func (c *Chile) Fetch(ctx context.Context, layout store.Layout, params Params) (Status, error) {
	if params.Year <= 0 {
		err := eris.New("chile: year is required")
		return Status{Error: err.Error()}, err
	}

	log := zap.L().With(zap.String("source", c.Name()), zap.Int("year", params.Year))

	path := layout.RawPath(c.Name())
	if err := store.EnsureDir(path); err != nil {
		return Status{Error: err.Error()}, err
	}

	dir := filepath.Dir(path)
	gzPath := filepath.Join(dir, fmt.Sprintf("chile_%d.jsonl.gz", params.Year))
	bulkPath := filepath.Join(dir, fmt.Sprintf("chile_%d.jsonl", params.Year))
	defer func() {
		_ = os.Remove(gzPath)
		_ = os.Remove(bulkPath)
	}()

	bulkURL := fmt.Sprintf(c.bulkURL, params.Year)
	size, err := c.fetcher.DownloadToFile(ctx, bulkURL, gzPath)
	if err != nil {
		return Status{Error: err.Error()}, err
	}
	log.Info("bulk file downloaded", zap.Int64("bytes", size))

	if _, err := extractGZIP(gzPath, bulkPath); err != nil {
		return Status{Error: err.Error()}, err
	}

	count, err := filterLines(bulkPath, path, params.Search)
	if err != nil {
		return Status{Error: err.Error()}, err
	}

	log.Info("bulk file filtered",
		zap.Strings("keywords", params.Search),
		zap.Int("records", count),
	)
	return Status{OK: true, Path: path, Count: count}, nil
}

// filterLines streams src line by line and writes the lines matching any
// keyword to dst. Empty keywords keep everything.
func filterLines(src, dst string, keywords []string) (int, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, eris.Wrapf(err, "chile: open bulk file %s", src)
	}
	defer in.Close() //nolint:errcheck

	out, err := os.Create(dst)
	if err != nil {
		return 0, eris.Wrapf(err, "chile: create raw store %s", dst)
	}
	defer out.Close() //nolint:errcheck

	folded := foldAll(keywords)
	w := bufio.NewWriter(out)
	count := 0

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) == 0 {
			continue
		}
		if len(folded) > 0 && !matchesAny(line, folded) {
			continue
		}
		w.WriteString(line) //nolint:errcheck
		w.WriteByte('\n')   //nolint:errcheck
		count++
	}
	if err := scanner.Err(); err != nil {
		return count, eris.Wrapf(err, "chile: scan bulk file %s", src)
	}
	if err := w.Flush(); err != nil {
		return count, eris.Wrapf(err, "chile: write raw store %s", dst)
	}
	return count, nil
}
