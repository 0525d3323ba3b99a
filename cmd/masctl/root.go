package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"job-search-mas/internal/application"
	"job-search-mas/internal/bootstrap"
	"job-search-mas/internal/config"
	"job-search-mas/internal/infra/logging"
	"job-search-mas/internal/infra/metrics"
)

type globalOptions struct {
	configPath string
	dev        bool
	verbose    bool
}

// opener builds the facade for one command; release frees its connections.
type opener func(cmd *cobra.Command, opts *globalOptions) (facade application.Facade, release func(), err error)

func newRootCmd(open opener) *cobra.Command {
	opts := &globalOptions{}
	rootCmd := &cobra.Command{
		Use:           "masctl",
		Short:         "Operator CLI for the job-search multi-agent system",
		Long:          "masctl runs workflows against the configured stores and model providers, and inspects sessions, applications, KPI metrics and similar jobs.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "config.yaml", "path to YAML config file")
	rootCmd.PersistentFlags().BoolVar(&opts.dev, "dev", false, "developer mode (offline AI allowed)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log to stderr")

	withFacade := func(fn func(cmd *cobra.Command, f application.Facade, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			f, release, err := open(cmd, opts)
			if err != nil {
				return err
			}
			defer release()
			return fn(cmd, f, args)
		}
	}

	rootCmd.AddCommand(
		newRunCmd(withFacade),
		newSessionCmd(withFacade),
		newApplicationsCmd(withFacade),
		newMetricsCmd(withFacade),
		newStatusCmd(withFacade),
		newSimilarCmd(withFacade),
	)
	return rootCmd
}

type facadeRunner func(fn func(cmd *cobra.Command, f application.Facade, args []string) error) func(*cobra.Command, []string) error

func openFacade(cmd *cobra.Command, opts *globalOptions) (application.Facade, func(), error) {
	cfg, err := config.LoadConfig(opts.configPath, opts.dev)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger := logging.Nop()
	if opts.verbose {
		logger = logging.NewTo(cfg.Log, cmd.ErrOrStderr())
	}
	metrics.MustRegister()

	app, err := bootstrap.Build(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("wire service: %w", err)
	}
	return app.Facade, app.Close, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func readFile(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
