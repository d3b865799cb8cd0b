// Package cli implements the cbioquery command tree.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cbioportal-query-assistant/internal/app"
	"github.com/cbioportal-query-assistant/internal/config"
	"github.com/cbioportal-query-assistant/internal/logging"
)

// RootOptions holds global CLI flags and the state they initialise.
type RootOptions struct {
	ConfigPath string
	LogLevel   string

	manager   *config.Manager
	logger    *logrus.Logger
	logCloser io.Closer
}

// NewRootCommand creates the root command with its global flags and subcommands.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "cbioquery",
		Short: "Ask cBioPortal cancer genomics questions in plain language",
		Long: "cbioquery interprets natural-language cancer genomics questions, validates the\n" +
			"genes they name and fetches mutation records from cBioPortal, falling back to\n" +
			"bundled sample data when the portal is unreachable.",
		Version: app.Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			opts.close()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: ./config.yaml)")
	pf.StringVar(&opts.LogLevel, "log-level", "", "override logging.level (debug, info, warn, error)")

	cmd.AddCommand(
		newServeCommand(opts),
		newMCPCommand(opts),
		newQueryCommand(opts),
		newValidateCommand(opts),
		newRefreshCatalogCommand(opts),
		newMigrateCommand(opts),
		newSetupCommand(opts),
	)

	return cmd
}

// Execute runs the command tree with the given context.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func (o *RootOptions) init(cmd *cobra.Command) error {
	var managerOpts []config.Option
	if o.ConfigPath != "" {
		managerOpts = append(managerOpts, config.WithConfigFile(o.ConfigPath))
	}

	manager, err := config.NewManager(managerOpts...)
	if err != nil {
		return err
	}
	cfg := manager.GetConfig()
	if o.LogLevel != "" {
		cfg.Logging.Level = o.LogLevel
	}
	if err := manager.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	logger, closer, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}

	// stdout carries command output (and the MCP protocol), so only serve
	// may log there.
	output := strings.ToLower(cfg.Logging.Output)
	if cmd.Name() != "serve" && (output == "" || output == "stdout") {
		logger.SetOutput(cmd.ErrOrStderr())
	}

	o.manager = manager
	o.logger = logger
	o.logCloser = closer
	return nil
}

func (o *RootOptions) close() {
	if o.logCloser != nil {
		o.logCloser.Close()
	}
}

func (o *RootOptions) buildApp(ctx context.Context) (*app.App, error) {
	a, err := app.New(ctx, o.manager, o.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise: %w", err)
	}
	return a, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
