package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/statica-dev/statica/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "statica",
		Short: "Static site mirroring for Go web applications",
		Long: `Statica mirrors a web application into a static site.

The build itself runs inside the host application (see the statica
package's BuildCommand); this tool works with the resulting mirror:

  • serve a built mirror locally with live reload
  • inspect version information`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		if structured, ok := errors.AsError(err); ok {
			fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", structured.Format())
		} else {
			fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		}
		os.Exit(1)
	}
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}
