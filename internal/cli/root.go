// Package cli implements the phishguard command line.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/raysh454/phishguard/internal/app"
	"github.com/raysh454/phishguard/internal/logging"
)

// Version information (set by build flags)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Execute runs the root command against os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "phishguard",
		Short: "Check links against a phishing risk backend before following them",
		Long: `phishguard - link interception and phishing risk checks

"serve" runs the background service: it caches analyses, talks to the
risk backend, keeps the local scan log and exposes the message bridge.
"check" and "links" act as a page: they load a page, intercept external
links and ask the background service for a verdict.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "Config file (default $XDG_CONFIG_HOME/phishguard/config.yaml)")
	root.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().String("backend", "", "Risk backend API base URL")

	root.AddCommand(
		newServeCmd(),
		newCheckCmd(),
		newLinksCmd(),
		newStatsCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "phishguard %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

// loadConfig reads the config file and applies persistent flag overrides.
func loadConfig(cmd *cobra.Command) (*app.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	var (
		cfg *app.Config
		err error
	)
	if path != "" {
		cfg, err = app.LoadConfigFile(path)
	} else {
		cfg, err = app.LoadDefaultConfig()
	}
	if err != nil {
		return nil, err
	}

	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}
	if backend, _ := cmd.Flags().GetString("backend"); backend != "" {
		cfg.Gateway.BaseURL = backend
	}
	return cfg, cfg.Validate()
}

func newLogger(w io.Writer, cfg *app.Config) logging.Logger {
	if w == nil {
		w = os.Stderr
	}
	return logging.NewLogger(w, "phishguard", logging.ParseLevel(cfg.LogLevel))
}
