// Package mirror materializes a static mirror of a site: it enumerates the
// site's URLs per locale, fetches each page body through the simulated
// request path, and writes the result to a Store.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/statica-dev/statica/pkg/fetch"
	"github.com/statica-dev/statica/pkg/siteurls"
)

// Default materialization settings.
const (
	// DefaultIndexDocument is the file the root URL maps to.
	DefaultIndexDocument = "index.html"

	// DefaultExtension is appended to paths without an extension.
	DefaultExtension = ".html"

	defaultTracerName = "statica/mirror"
)

// ErrUnsafePath is returned when a URL path cannot be mapped to a safe
// relative file path.
var ErrUnsafePath = errors.New("mirror: url path is not a safe file path")

// Builder materializes a static mirror.
type Builder struct {
	enum    *siteurls.Enumerator
	fetcher *fetch.Client
	store   Store
	baseURL string

	locales  []string
	exclude  []string
	indexDoc string
	ext      string
	failFast bool

	logger  *slog.Logger
	metrics *metrics
	tracer  trace.Tracer
}

// Option configures a Builder.
type Option func(*Builder)

// WithLocales sets the locales to materialize. The zero value builds a
// single unprefixed locale.
func WithLocales(locales ...string) Option {
	return func(b *Builder) {
		b.locales = locales
	}
}

// WithExcludeTypes sets content-type names skipped during enumeration.
func WithExcludeTypes(types ...string) Option {
	return func(b *Builder) {
		b.exclude = types
	}
}

// WithIndexDocument sets the file name the root URL maps to.
func WithIndexDocument(name string) Option {
	return func(b *Builder) {
		b.indexDoc = name
	}
}

// WithDefaultExtension sets the extension appended to extensionless paths.
func WithDefaultExtension(ext string) Option {
	return func(b *Builder) {
		b.ext = ext
	}
}

// WithFailFast aborts the build on the first page error instead of
// collecting and continuing.
func WithFailFast() Option {
	return func(b *Builder) {
		b.failFast = true
	}
}

// WithLogger sets the logger for per-page progress and warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

// WithMetrics registers build metrics on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(b *Builder) {
		b.metrics = newMetrics(reg, "")
	}
}

// New creates a Builder. baseURL is the fully-qualified site base used by
// the fetcher; it is required before Build can run.
func New(enum *siteurls.Enumerator, fetcher *fetch.Client, store Store, baseURL string, opts ...Option) *Builder {
	b := &Builder{
		enum:     enum,
		fetcher:  fetcher,
		store:    store,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		indexDoc: DefaultIndexDocument,
		ext:      DefaultExtension,
		logger:   slog.Default(),
		tracer:   otel.Tracer(defaultTracerName),
	}
	for _, opt := range opts {
		opt(b)
	}
	if len(b.locales) == 0 {
		b.locales = []string{""}
	}
	return b
}

// PageError records one page that failed to materialize.
type PageError struct {
	Locale string
	URL    string
	Err    error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("mirror: %s: %v", e.URL, e.Err)
}

func (e *PageError) Unwrap() error {
	return e.Err
}

// Result summarizes a mirror build.
type Result struct {
	Pages    int
	Bytes    int64
	Skipped  int
	Errors   []*PageError
	Duration time.Duration
}

// Build materializes the mirror for every configured locale.
//
// A page failure is fatal to that page only: it is recorded in the Result
// and the build continues, unless the Builder is configured fail-fast.
// A missing base URL is a configuration error and fails the whole build.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	if b.baseURL == "" {
		return nil, fetch.ErrNoBaseURL
	}

	ctx, span := b.tracer.Start(ctx, "mirror.build")
	defer span.End()

	start := time.Now()
	result := &Result{}

	for _, locale := range b.locales {
		if err := b.buildLocale(ctx, locale, result); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
	}

	result.Duration = time.Since(start)
	b.metrics.recordBuild(result.Duration.Seconds())
	span.SetAttributes(
		attribute.Int("mirror.pages", result.Pages),
		attribute.Int("mirror.errors", len(result.Errors)),
	)
	return result, nil
}

func (b *Builder) buildLocale(ctx context.Context, locale string, result *Result) error {
	ctx, span := b.tracer.Start(ctx, "mirror.locale",
		trace.WithAttributes(attribute.String("mirror.locale", locale)))
	defer span.End()

	records, err := b.enum.Enumerate(ctx, locale, b.exclude)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("mirror: enumerate locale %q: %w", locale, err)
	}

	for _, rec := range records {
		if strings.Contains(rec.URL, "?") {
			// Query URLs have no file equivalent; the enumerator can
			// produce them for documents with non-slug-safe slugs.
			b.logger.Warn("skipping query url", "url", rec.URL, "locale", locale)
			result.Skipped++
			continue
		}
		if err := b.buildPage(ctx, locale, rec, result); err != nil {
			pageErr := &PageError{Locale: locale, URL: rec.URL, Err: err}
			result.Errors = append(result.Errors, pageErr)
			if b.failFast {
				span.SetStatus(codes.Error, err.Error())
				return pageErr
			}
			b.logger.Error("page failed", "url", rec.URL, "err", err)
		}
	}
	return nil
}

func (b *Builder) buildPage(ctx context.Context, locale string, rec siteurls.Record, result *Result) error {
	ctx, span := b.tracer.Start(ctx, "mirror.page",
		trace.WithAttributes(attribute.String("mirror.url", rec.URL)))
	defer span.End()

	rel, err := b.relPath(rec.URL)
	if err != nil {
		b.metrics.recordError(locale, "path")
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	body, err := b.fetcher.Body(ctx, b.baseURL+rec.URL)
	if err != nil {
		b.metrics.recordError(locale, "fetch")
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := b.store.Write(ctx, rel, []byte(body)); err != nil {
		b.metrics.recordError(locale, "write")
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	result.Pages++
	result.Bytes += int64(len(body))
	b.metrics.recordPage(locale, len(body))
	b.logger.Debug("page written", "url", rec.URL, "file", rel)
	return nil
}

// relPath maps a site-absolute URL path to the relative file path it
// materializes at. The root maps to the index document; paths without an
// extension get the default extension appended.
func (b *Builder) relPath(urlPath string) (string, error) {
	rel := strings.TrimPrefix(urlPath, "/")
	if rel == "" {
		return b.indexDoc, nil
	}
	if path.Ext(rel) == "" {
		rel += b.ext
	}
	if !safeRelPath(rel) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, urlPath)
	}
	return rel, nil
}

// safeRelPath reports whether rel is a clean relative path that cannot
// escape the store root. Mirrors the checks static file serving applies
// to incoming request paths.
func safeRelPath(rel string) bool {
	if rel == "" || strings.HasPrefix(rel, "/") {
		return false
	}
	if strings.IndexByte(rel, 0) != -1 || strings.Contains(rel, "\\") {
		return false
	}
	for _, seg := range strings.Split(rel, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return false
		}
	}
	return true
}
