package fetch

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/andes-data/procura-cli/internal/store"
)

func testFetcher() *HTTPFetcher {
	return NewHTTPFetcher(HTTPOptions{
		Timeout:      5 * time.Second,
		MaxRetries:   3,
		RateLimiters: map[string]*rate.Limiter{},
	})
}

func TestFold(t *testing.T) {
	assert.Equal(t, "educacion", fold("Educación"))
	assert.Equal(t, "subasta inversa", fold("SUBASTA INVERSA"))
	assert.Equal(t, "nino", fold("Niño"))
}

func TestMatchesAny(t *testing.T) {
	keywords := foldAll([]string{"subasta", "licitación"})
	assert.True(t, matchesAny(`{"tender":{"procurementMethodDetails":"Subasta Inversa Electrónica"}}`, keywords))
	assert.True(t, matchesAny(`{"title":"LICITACION PUBLICA"}`, keywords))
	assert.False(t, matchesAny(`{"title":"convenio marco"}`, keywords))
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(testFetcher())

	s, err := r.Lookup(" Ecuador ")
	require.NoError(t, err)
	assert.Equal(t, "ecuador", s.Name())

	_, err = r.Lookup("argentina")
	require.Error(t, err)

	assert.ElementsMatch(t, []string{"ecuador", "colombia", "chile"}, r.Names())
}

func TestEcuador_Fetch_Paginated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2023", r.URL.Query().Get("year"))
		assert.Equal(t, "subasta inversa", r.URL.Query().Get("search"))
		page := r.URL.Query().Get("page")
		fmt.Fprintf(w, `{"pages": 3, "data": [{"ocid":"ec-%s-1"},{"ocid":"ec-%s-2"}]}`, page, page)
	}))
	defer srv.Close()

	layout := store.Layout{DataDir: t.TempDir()}
	src := NewEcuador(testFetcher(), srv.URL)

	status, err := src.Fetch(context.Background(), layout, Params{
		Year:   2023,
		Search: []string{"subasta", "inversa"},
	})
	require.NoError(t, err)
	assert.True(t, status.OK)
	assert.Equal(t, 6, status.Count)
	assert.Equal(t, layout.RawPath("ecuador"), status.Path)

	data, err := os.ReadFile(status.Path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 6)
	assert.Contains(t, lines[0], "ec-1-1")
	assert.Contains(t, lines[5], "ec-3-2")
}

func TestEcuador_Fetch_OverwritesByDefault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"pages": 1, "data": [{"ocid":"fresh"}]}`)
	}))
	defer srv.Close()

	layout := store.Layout{DataDir: t.TempDir()}
	path := layout.RawPath("ecuador")
	require.NoError(t, store.EnsureDir(path))
	require.NoError(t, os.WriteFile(path, []byte(`{"ocid":"stale"}`+"\n"), 0o644))

	src := NewEcuador(testFetcher(), srv.URL)
	status, err := src.Fetch(context.Background(), layout, Params{Year: 2023})
	require.NoError(t, err)
	assert.Equal(t, 1, status.Count)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "stale")
}

func TestEcuador_Fetch_ShortSearchRejected(t *testing.T) {
	layout := store.Layout{DataDir: t.TempDir()}
	src := NewEcuador(testFetcher(), "http://unused.invalid")

	status, err := src.Fetch(context.Background(), layout, Params{Search: []string{"ab"}})
	require.Error(t, err)
	assert.False(t, status.OK)
	assert.NotEmpty(t, status.Error)
}

func TestEcuador_Fetch_RetriesOn429(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"pages": 1, "data": [{"ocid":"x"}]}`)
	}))
	defer srv.Close()

	layout := store.Layout{DataDir: t.TempDir()}
	src := NewEcuador(testFetcher(), srv.URL)

	status, err := src.Fetch(context.Background(), layout, Params{Year: 2023})
	require.NoError(t, err)
	assert.Equal(t, 1, status.Count)
	assert.GreaterOrEqual(t, calls.Load(), int64(2))
}

func TestColombia_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		where := r.URL.Query().Get("$where")
		assert.Contains(t, where, "between '2023-01-01' and '2023-12-31'")
		assert.Contains(t, where, "modalidad_de_contratacion like '%Subasta%'")
		assert.Equal(t, "100000", r.URL.Query().Get("$limit"))
		fmt.Fprint(w, `[{"nombre_entidad":"Alcaldía"},{"nombre_entidad":"Gobernación"}]`)
	}))
	defer srv.Close()

	layout := store.Layout{DataDir: t.TempDir()}
	src := NewColombia(testFetcher(), srv.URL)

	status, err := src.Fetch(context.Background(), layout, Params{
		StartDate: "2023-01-01",
		EndDate:   "2023-12-31",
		Modality:  "Subasta",
	})
	require.NoError(t, err)
	assert.True(t, status.OK)
	assert.Equal(t, 2, status.Count)

	data, err := os.ReadFile(status.Path)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 2)
}

func TestColombia_Fetch_MissingParams(t *testing.T) {
	layout := store.Layout{DataDir: t.TempDir()}
	src := NewColombia(testFetcher(), "http://unused.invalid")

	_, err := src.Fetch(context.Background(), layout, Params{Modality: "Subasta"})
	require.Error(t, err)

	_, err = src.Fetch(context.Background(), layout, Params{StartDate: "2023-01-01", EndDate: "2023-12-31"})
	require.Error(t, err)
}

func TestChile_Fetch_FiltersKeywords(t *testing.T) {
	bulk := `{"ocid":"cl-1","tender":{"title":"Subasta inversa de insumos"}}
{"ocid":"cl-2","tender":{"title":"Convenio marco"}}
{"ocid":"cl-3","tender":{"title":"SUBASTA electrónica"}}
`
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(bulk))
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2023.jsonl.gz", r.URL.Query().Get("name"))
		w.Write(buf.Bytes()) //nolint:errcheck
	}))
	defer srv.Close()

	layout := store.Layout{DataDir: t.TempDir()}
	src := NewChile(testFetcher(), srv.URL+"/download?name=%d.jsonl.gz")

	status, err := src.Fetch(context.Background(), layout, Params{
		Year:   2023,
		Search: []string{"subasta"},
	})
	require.NoError(t, err)
	assert.True(t, status.OK)
	assert.Equal(t, 2, status.Count)

	data, err := os.ReadFile(status.Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "cl-1")
	assert.NotContains(t, string(data), "cl-2")
	assert.Contains(t, string(data), "cl-3")

	// Intermediate bulk files are cleaned up.
	entries, err := os.ReadDir(layout.DataDir + "/raw")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "chile.jsonl", entries[0].Name())
}

func TestChile_Fetch_RequiresYear(t *testing.T) {
	layout := store.Layout{DataDir: t.TempDir()}
	src := NewChile(testFetcher(), "http://unused.invalid/%d")

	status, err := src.Fetch(context.Background(), layout, Params{})
	require.Error(t, err)
	assert.False(t, status.OK)
}
