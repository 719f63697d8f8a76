// Package statica mirrors a web application into a static site.
//
// The core is pkg/urlbuild, a layered URL-construction routine. Around it,
// pkg/siteurls enumerates the application's reachable URLs, pkg/fetch
// retrieves page bodies through a simulated request path, and pkg/mirror
// writes the static mirror to a local directory or an S3 bucket.
//
// A host application describes itself with a Site and either calls
// Site.Builder directly or mounts BuildCommand on its own CLI:
//
//	site := &statica.Site{
//	    Handler: app,
//	    Router:  app.Router(),
//	    BaseURL: "https://example.com",
//	    Locales: []string{"en", "fr"},
//	    Source:  docs,
//	}
//	root.AddCommand(statica.BuildCommand(site))
package statica

import (
	"fmt"
	"net/http"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/statica-dev/statica/internal/config"
	"github.com/statica-dev/statica/internal/errors"
	"github.com/statica-dev/statica/pkg/fetch"
	"github.com/statica-dev/statica/pkg/mirror"
	"github.com/statica-dev/statica/pkg/siteurls"
)

// Site describes the application being mirrored. The fields replace the
// ambient framework state the mirroring machinery would otherwise have to
// reach for: everything is passed explicitly.
type Site struct {
	// Handler serves the application's pages.
	Handler http.Handler

	// Router, when set, lets the enumerator walk the application's
	// concrete page routes. Optional.
	Router chi.Routes

	// BaseURL is the fully-qualified site base, e.g.
	// "https://example.com".
	BaseURL string

	// Locales are the locales to materialize; the first is the default
	// locale, served without a path prefix.
	Locales []string

	// Source supplies content-entity URLs. Optional.
	Source siteurls.Source
}

// Enumerator returns a URL enumerator for the site.
func (s *Site) Enumerator() *siteurls.Enumerator {
	return siteurls.New(s.Router, s.Source, s.defaultLocale())
}

// Fetcher returns a page-body fetcher driving the site's handler.
func (s *Site) Fetcher() *fetch.Client {
	return fetch.New(s.Handler, s.BaseURL)
}

// Builder returns a mirror builder writing to store. Locale configuration
// from the Site is applied first, so explicit options win.
func (s *Site) Builder(store mirror.Store, opts ...mirror.Option) *mirror.Builder {
	all := append([]mirror.Option{mirror.WithLocales(s.Locales...)}, opts...)
	return mirror.New(s.Enumerator(), s.Fetcher(), store, s.BaseURL, all...)
}

func (s *Site) defaultLocale() string {
	if len(s.Locales) == 0 {
		return ""
	}
	return s.Locales[0]
}

// BuildCommand returns a cobra command that builds the site's static
// mirror at a directory. Mount it on the host application's root command.
//
// statica.json, when present, supplies defaults for the output directory,
// locales and excluded types; flags override it, and the Site's own fields
// override both.
func BuildCommand(site *Site) *cobra.Command {
	var (
		output   string
		s3Bucket string
		s3Prefix string
		locales  []string
		exclude  []string
		failFast bool
	)

	cmd := &cobra.Command{
		Use:   "static-build",
		Short: "Build a static mirror of the site",
		Long: `Build a static mirror of the site.

Every reachable URL is fetched through the application handler and
written under the output directory, one file per page. The root URL
maps to the index document; extensionless URLs get the default
document extension appended.

With --s3-bucket, pages are uploaded to the bucket instead of written
locally, using the ambient AWS credential chain.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFromWorkingDir()
			if err != nil {
				// The config file is optional for an embedded build.
				cfg = config.New()
			}
			if output == "" {
				output = cfg.OutputPath()
			}
			if len(locales) == 0 {
				locales = site.Locales
			}
			if len(locales) == 0 {
				locales = cfg.Locales
			}
			if len(exclude) == 0 {
				exclude = cfg.ExcludeTypes
			}
			if site.BaseURL == "" {
				site.BaseURL = cfg.BaseURL
			}
			if site.BaseURL == "" {
				return errors.New(errors.CategoryConfig, "base URL is not set").
					WithSuggestion("set Site.BaseURL or baseUrl in " + config.ConfigFileName)
			}

			opts := []mirror.Option{
				mirror.WithLocales(locales...),
				mirror.WithExcludeTypes(exclude...),
				mirror.WithIndexDocument(cfg.IndexDocument),
				mirror.WithDefaultExtension(cfg.DefaultExtension),
			}
			if failFast {
				opts = append(opts, mirror.WithFailFast())
			}

			var (
				store mirror.Store
				dest  string
			)
			if s3Bucket != "" {
				awsCfg, err := awsconfig.LoadDefaultConfig(cmd.Context())
				if err != nil {
					return errors.New(errors.CategoryConfig, "load AWS configuration").Wrap(err).
						WithSuggestion("configure credentials via the environment or ~/.aws")
				}
				store = mirror.NewS3Store(s3.NewFromConfig(awsCfg), s3Bucket, s3Prefix)
				dest = "s3://" + s3Bucket + "/" + s3Prefix
			} else {
				store = mirror.NewDirStore(output)
				dest = output
			}

			builder := mirror.New(site.Enumerator(), site.Fetcher(),
				store, site.BaseURL, opts...)

			result, err := builder.Build(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d pages (%d bytes) to %s in %s\n",
				result.Pages, result.Bytes, dest, result.Duration.Round(time.Millisecond))
			for _, pageErr := range result.Errors {
				fmt.Fprintf(cmd.ErrOrStderr(), "failed: %s: %v\n", pageErr.URL, pageErr.Err)
			}
			if len(result.Errors) > 0 {
				return errors.Newf(errors.CategoryBuild, "%d pages failed", len(result.Errors))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output directory (default from statica.json)")
	cmd.Flags().StringVar(&s3Bucket, "s3-bucket", "", "Upload to this S3 bucket instead of writing locally")
	cmd.Flags().StringVar(&s3Prefix, "s3-prefix", "", "Key prefix for uploaded objects, e.g. \"mirror/\"")
	cmd.Flags().StringSliceVar(&locales, "locale", nil, "Locales to build (default: all configured)")
	cmd.Flags().StringSliceVar(&exclude, "exclude-type", nil, "Content types to exclude")
	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "Abort on the first page error")

	return cmd
}
