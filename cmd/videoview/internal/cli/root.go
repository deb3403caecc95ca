// Package cli implements the videoview command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/go-drift/videoview/internal/config"
	"github.com/go-drift/videoview/internal/log"
)

type rootOptions struct {
	dir         string
	logLevel    string
	metricsAddr string

	resolved *config.Resolved
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "videoview",
		Short:         "Drive embedded video view sessions from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			res, err := config.Resolve(opts.dir)
			if err != nil {
				return err
			}
			level := res.LogLevel.String()
			if opts.logLevel != "" {
				level = opts.logLevel
			}
			log.Reset()
			log.Configure(log.Config{Level: level, Output: cmd.ErrOrStderr()})
			opts.resolved = res
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&opts.dir, "dir", "C", ".", "Directory containing videoview.yaml and the asset root")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override the configured log level")
	root.PersistentFlags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while running")

	root.AddCommand(newPlayCommand(opts))
	root.AddCommand(newScriptCommand(opts))
	root.AddCommand(newVersionCommand())
	return root
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "videoview:", err)
		os.Exit(1)
	}
}
