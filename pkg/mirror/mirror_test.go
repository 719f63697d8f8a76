package mirror

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/statica-dev/statica/pkg/fetch"
	"github.com/statica-dev/statica/pkg/siteurls"
)

const baseURL = "https://example.com"

// testSite returns the locale-independent page routes used for
// enumeration, the handler serving every localized variant, and a
// document source.
func testSite() (chi.Router, http.Handler, siteurls.Source) {
	page := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}
	}

	routes := chi.NewRouter()
	routes.Get("/", page("home"))
	routes.Get("/about", page("about"))

	handler := chi.NewRouter()
	handler.Get("/", page("home"))
	handler.Get("/about", page("about"))
	handler.Get("/article/go-slugs", page("article body"))
	handler.Get("/fr", page("accueil"))
	handler.Get("/fr/about", page("a propos"))
	handler.Get("/fr/article/go-slugs", page("corps d'article"))

	source := siteurls.SourceFunc(func(ctx context.Context, locale string) ([]siteurls.Document, error) {
		return []siteurls.Document{
			{ID: "a1:" + locale, DocumentID: "a1", Type: "article", Slug: "go-slugs"},
		}, nil
	})
	return routes, handler, source
}

func newTestBuilder(t *testing.T, dir string, opts ...Option) *Builder {
	t.Helper()
	routes, handler, source := testSite()
	enum := siteurls.New(routes, source, "en")
	fetcher := fetch.New(handler, baseURL)
	base := []Option{WithLocales("en", "fr")}
	return New(enum, fetcher, NewDirStore(dir), baseURL, append(base, opts...)...)
}

func readFile(t *testing.T, dir, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("read %s: %v", rel, err)
	}
	return string(data)
}

func TestBuild(t *testing.T) {
	dir := t.TempDir()
	b := newTestBuilder(t, dir)

	result, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("page errors: %v", result.Errors)
	}
	if result.Pages != 6 {
		t.Errorf("Pages = %d, want 6", result.Pages)
	}

	// Root maps to the index document, extensionless paths get .html.
	checks := map[string]string{
		"index.html":               "home",
		"about.html":               "about",
		"article/go-slugs.html":    "article body",
		"fr.html":                  "accueil",
		"fr/about.html":            "a propos",
		"fr/article/go-slugs.html": "corps d'article",
	}
	for rel, want := range checks {
		if got := readFile(t, dir, rel); got != want {
			t.Errorf("%s = %q, want %q", rel, got, want)
		}
	}
}

func TestBuildNoBaseURL(t *testing.T) {
	router, _, source := testSite()
	enum := siteurls.New(router, source, "en")
	b := New(enum, fetch.New(router, ""), NewDirStore(t.TempDir()), "")

	if _, err := b.Build(context.Background()); !errors.Is(err, fetch.ErrNoBaseURL) {
		t.Fatalf("err = %v, want ErrNoBaseURL", err)
	}
}

func TestBuildCollectsPageErrors(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("home")) })
	r.Get("/broken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "broken", http.StatusInternalServerError)
	})

	enum := siteurls.New(r, nil, "")
	b := New(enum, fetch.New(r, baseURL), NewDirStore(t.TempDir()), baseURL)

	result, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if result.Pages != 1 {
		t.Errorf("Pages = %d, want 1", result.Pages)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("Errors = %v, want one", result.Errors)
	}
	var statusErr *fetch.StatusError
	if !errors.As(result.Errors[0], &statusErr) {
		t.Errorf("page error = %v, want *fetch.StatusError", result.Errors[0])
	}
}

func TestBuildFailFast(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/broken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "broken", http.StatusInternalServerError)
	})

	enum := siteurls.New(r, nil, "")
	b := New(enum, fetch.New(r, baseURL), NewDirStore(t.TempDir()), baseURL, WithFailFast())

	_, err := b.Build(context.Background())
	var pageErr *PageError
	if !errors.As(err, &pageErr) {
		t.Fatalf("err = %v, want *PageError", err)
	}
}

// Documents with non-slug-safe slugs enumerate as query URLs, which have
// no static-file equivalent and are skipped, not failed.
func TestBuildSkipsQueryURLs(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("home")) })
	source := siteurls.SourceFunc(func(ctx context.Context, locale string) ([]siteurls.Document, error) {
		return []siteurls.Document{
			{ID: "a1", DocumentID: "a1", Type: "article", Slug: "Rock & Roll"},
		}, nil
	})

	enum := siteurls.New(r, source, "")
	b := New(enum, fetch.New(r, baseURL), NewDirStore(t.TempDir()), baseURL)

	result, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if result.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", result.Skipped)
	}
	if len(result.Errors) != 0 {
		t.Errorf("Errors = %v", result.Errors)
	}
}

func TestBuildMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	dir := t.TempDir()
	b := newTestBuilder(t, dir, WithMetrics(reg))

	result, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var pages float64
	for _, locale := range []string{"en", "fr"} {
		pages += testutil.ToFloat64(b.metrics.pagesWritten.WithLabelValues(locale))
	}
	if int(pages) != result.Pages {
		t.Errorf("pages_written_total = %v, want %d", pages, result.Pages)
	}
}

func TestRelPath(t *testing.T) {
	b := New(nil, nil, nil, baseURL)

	tests := []struct {
		name    string
		urlPath string
		want    string
		wantErr bool
	}{
		{name: "root", urlPath: "/", want: "index.html"},
		{name: "extensionless", urlPath: "/about", want: "about.html"},
		{name: "nested", urlPath: "/fr/article/go-slugs", want: "fr/article/go-slugs.html"},
		{name: "with extension", urlPath: "/feed.xml", want: "feed.xml"},
		{name: "traversal rejected", urlPath: "/../secret", wantErr: true},
		{name: "backslash rejected", urlPath: "/a\\b", wantErr: true},
		{name: "empty segment rejected", urlPath: "/a//b", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := b.relPath(tc.urlPath)
			if tc.wantErr {
				if !errors.Is(err, ErrUnsafePath) {
					t.Fatalf("err = %v, want ErrUnsafePath", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("relPath: %v", err)
			}
			if got != tc.want {
				t.Errorf("relPath(%q) = %q, want %q", tc.urlPath, got, tc.want)
			}
		})
	}
}
