// Package siteurls enumerates the reachable URLs of a site, per locale.
//
// Two kinds of URLs are produced: page URLs walked off the site's chi
// router, and content-entity URLs supplied by a Source. Localized variants
// of the same logical URL share a stable LocalizationID.
package siteurls

import (
	"context"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/statica-dev/statica/pkg/urlbuild"
)

// Record is one reachable URL of the site.
type Record struct {
	// URL is the site-absolute path, including any locale prefix.
	URL string

	// Type, ID and DocumentID are set only when the URL represents a
	// content entity. Type is the entity's content-type name, ID its
	// locale-specific identity, DocumentID its cross-locale identity.
	Type       string
	ID         string
	DocumentID string

	// LocalizationID is always set and is stable across the localized
	// variants of the same logical URL.
	LocalizationID string
}

// Document is a content entity exposed by a Source.
type Document struct {
	// ID is the locale-specific document identity.
	ID string

	// DocumentID is stable across localized variants of the document.
	DocumentID string

	// Type is the content-type name, e.g. "article".
	Type string

	// Slug names the document within its type's index URL. A slug-safe
	// slug becomes a path segment; anything else degrades to a query
	// parameter and the document is then skipped as unreachable by the
	// static fetch path.
	Slug string

	// URL, when set, overrides slug-based URL derivation entirely.
	URL string
}

// Source supplies the content entities of one locale.
type Source interface {
	Documents(ctx context.Context, locale string) ([]Document, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, locale string) ([]Document, error)

func (f SourceFunc) Documents(ctx context.Context, locale string) ([]Document, error) {
	return f(ctx, locale)
}

// Enumerator produces the Records of a site.
type Enumerator struct {
	router        chi.Routes
	source        Source
	defaultLocale string
}

// New creates an Enumerator. Either router or source may be nil; the
// corresponding kind of URL is then simply absent. defaultLocale names
// the locale served without a path prefix.
func New(router chi.Routes, source Source, defaultLocale string) *Enumerator {
	return &Enumerator{
		router:        router,
		source:        source,
		defaultLocale: defaultLocale,
	}
}

// Enumerate returns the reachable URLs for one locale, skipping content
// entities whose type name appears in exclude.
func (e *Enumerator) Enumerate(ctx context.Context, locale string, exclude []string) ([]Record, error) {
	excluded := make(map[string]bool, len(exclude))
	for _, t := range exclude {
		excluded[t] = true
	}

	var records []Record

	if e.router != nil {
		routes, err := e.pageRoutes()
		if err != nil {
			return nil, err
		}
		for _, route := range routes {
			records = append(records, Record{
				URL:            e.localize(locale, route),
				LocalizationID: "page:" + route,
			})
		}
	}

	if e.source != nil {
		docs, err := e.source.Documents(ctx, locale)
		if err != nil {
			return nil, err
		}
		for _, doc := range docs {
			if excluded[doc.Type] {
				continue
			}
			u := doc.URL
			if u == "" {
				u = urlbuild.Build("/"+doc.Type, []string{"slug"}, urlbuild.Params{"slug": doc.Slug})
			}
			records = append(records, Record{
				URL:            e.localize(locale, u),
				Type:           doc.Type,
				ID:             doc.ID,
				DocumentID:     doc.DocumentID,
				LocalizationID: doc.DocumentID,
			})
		}
	}

	return records, nil
}

// pageRoutes walks the router and returns the concrete GET routes.
// Parameterized and catch-all patterns are skipped: without a document
// behind them there is no finite URL set to enumerate.
func (e *Enumerator) pageRoutes() ([]string, error) {
	var routes []string
	err := chi.Walk(e.router, func(method, route string, handler http.Handler, middlewares ...func(http.Handler) http.Handler) error {
		if method != http.MethodGet {
			return nil
		}
		if strings.ContainsAny(route, "{*") {
			return nil
		}
		if route != "/" {
			route = strings.TrimSuffix(route, "/")
		}
		routes = append(routes, route)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return routes, nil
}

// localize prefixes u with the locale segment. The default locale is
// served at the root.
func (e *Enumerator) localize(locale, u string) string {
	if locale == "" || locale == e.defaultLocale {
		return u
	}
	return path.Join("/"+locale, u)
}
