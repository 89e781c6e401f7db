// Package cli implements the pension-forecast command line.
package cli

import (
	"io"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	envFile    string
	logLevel   string
}

// NewRootCmd builds the command tree. out receives command output.
func NewRootCmd(out io.Writer) *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "pension-forecast",
		Short:         "Pension benefit projection engine",
		Long:          "Projects a future monthly pension benefit from a simulated career and serves the projection over HTTP.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "path to YAML configuration (default ./config.yaml when present)")
	pf.StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before configuration")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(
		serveCmd(opts),
		simulateCmd(opts),
		explainCmd(opts),
		timelineCmd(opts),
		whatIfCmd(opts),
		tablesCmd(opts),
	)
	return root
}
