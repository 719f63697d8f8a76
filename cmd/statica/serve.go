package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/statica-dev/statica/internal/config"
	"github.com/statica-dev/statica/internal/errors"
	"github.com/statica-dev/statica/pkg/preview"
)

func serveCmd() *cobra.Command {
	var (
		dir  string
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve [dir]",
		Short: "Serve a built mirror locally with live reload",
		Long: `Serve a built mirror directory over HTTP.

URLs resolve the way the mirror was written: the root serves the index
document, extensionless URLs get the default document extension. Served
HTML pages reload automatically when 'statica serve' is told the mirror
was rebuilt.

Examples:
  statica serve
  statica serve dist --port 8080`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFromWorkingDir()
			if err != nil {
				cfg = config.New()
			}
			if len(args) == 1 {
				dir = args[0]
			}
			if dir == "" {
				dir = cfg.OutputPath()
			}
			if host == "" {
				host = cfg.Preview.Host
			}
			if port == 0 {
				port = cfg.Preview.Port
			}

			srv := preview.New(dir,
				preview.WithIndexDocument(cfg.IndexDocument),
				preview.WithDefaultExtension(cfg.DefaultExtension),
			)
			defer srv.Close()

			addr := fmt.Sprintf("%s:%d", host, port)
			success("serving %s", dir)
			info("http://%s", addr)

			if err := http.ListenAndServe(addr, srv); err != nil {
				return errors.New(errors.CategoryServe, "preview server failed").Wrap(err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Mirror directory (default from statica.json)")
	cmd.Flags().StringVar(&host, "host", "", "Host to bind to")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to serve on")

	return cmd
}
