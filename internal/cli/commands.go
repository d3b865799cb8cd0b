package cli

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cbioportal-query-assistant/internal/api"
	"github.com/cbioportal-query-assistant/internal/database"
	"github.com/cbioportal-query-assistant/internal/domain"
	"github.com/cbioportal-query-assistant/internal/mcp"
	"github.com/cbioportal-query-assistant/internal/setup"
)

func newServeCommand(opts *RootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port > 0 {
				opts.manager.GetConfig().Server.Port = port
			}

			a, err := opts.buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			cfg := a.Config.Server
			opts.logger.WithFields(logrus.Fields{
				"host":     cfg.Host,
				"port":     cfg.Port,
				"provider": a.Provider.Name(),
			}).Info("Starting cBioPortal query assistant")

			if err := api.NewServer(opts.manager, a).Start(cmd.Context()); err != nil {
				return err
			}
			opts.logger.Info("Server stopped")
			return nil
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides server.port)")
	return cmd
}

func newMCPCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run the MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			server, err := mcp.NewServer(opts.manager, a)
			if err != nil {
				return err
			}
			return server.Start(cmd.Context())
		},
	}
}

func newQueryCommand(opts *RootOptions) *cobra.Command {
	var interpretOnly bool

	cmd := &cobra.Command{
		Use:     "query <question>",
		Short:   "Answer a natural-language question and print the result as JSON",
		Example: `  cbioquery query "TP53 mutations in breast cancer"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.TrimSpace(strings.Join(args, " "))
			if text == "" {
				return fmt.Errorf("query must not be empty")
			}

			a, err := opts.buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if interpretOnly {
				return printJSON(cmd.OutOrStdout(), a.Queries.Interpret(cmd.Context(), text))
			}
			return printJSON(cmd.OutOrStdout(), a.Queries.Resolve(cmd.Context(), text))
		},
	}

	cmd.Flags().BoolVar(&interpretOnly, "interpret-only", false, "print the interpretation without fetching data")
	return cmd
}

func newValidateCommand(opts *RootOptions) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate <symbol>...",
		Short: "Check gene symbols against the catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			report := a.Validator.Validate(args)
			out := struct {
				domain.ValidationReport
				Summary string `json:"summary"`
			}{report, report.Summary()}
			if err := printJSON(cmd.OutOrStdout(), out); err != nil {
				return err
			}
			if strict && !report.AllValid() {
				return fmt.Errorf("unknown gene symbols: %s", strings.Join(report.Invalid, ", "))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when any symbol is unknown")
	return cmd
}

func newRefreshCatalogCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh-catalog",
		Short: "Re-fetch the gene catalog from cBioPortal and persist a snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Catalog.Refresh(cmd.Context()); err != nil {
				return fmt.Errorf("catalog refresh failed: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"source":    a.Catalog.Source(),
				"genes":     a.Catalog.Size(),
				"loaded_at": a.Catalog.LoadedAt(),
			})
		},
	}
}

func newMigrateCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the postgres catalog schema",
	}

	migration := func(direction string) *cobra.Command {
		return &cobra.Command{
			Use:   direction,
			Short: fmt.Sprintf("Apply %s migrations", direction),
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg := opts.manager.GetConfig()
				if cfg.Database.MigrationsPath == "" {
					return fmt.Errorf("database.migrations_path is not set")
				}

				runner, err := database.NewMigrationRunner(opts.manager.GetDatabaseConnectionString(), cfg.Database.MigrationsPath, opts.logger)
				if err != nil {
					return err
				}
				defer runner.Close()

				if direction == "down" {
					err = runner.Down(cmd.Context())
				} else {
					err = runner.Up(cmd.Context())
				}
				if err != nil {
					return err
				}

				status, err := runner.Status()
				if err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "migrations %s complete\n", direction)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "migrations %s complete, catalog schema %s\n", direction, status)
				return nil
			},
		}
	}

	cmd.AddCommand(migration("up"), migration("down"))
	return cmd
}

func newSetupCommand(opts *RootOptions) *cobra.Command {
	var desktopConfig string

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Register the MCP server with Claude Desktop",
	}
	cmd.PersistentFlags().StringVar(&desktopConfig, "desktop-config", "", "Claude Desktop config file (default: OS location)")

	var binary, provider string
	configure := &cobra.Command{
		Use:   "claude-desktop",
		Short: "Add or update the server entry in Claude Desktop's config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := setup.ConfigureClaudeDesktop(setup.Options{
				BinaryPath:    binary,
				ConfigFile:    opts.ConfigPath,
				Provider:      provider,
				DesktopConfig: desktopConfig,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configured %s in %s\nRestart Claude Desktop to load the server.\n", setup.ServerName, path)
			return nil
		},
	}
	configure.Flags().StringVar(&binary, "binary", "", "path to the cbioquery binary (default: search PATH)")
	configure.Flags().StringVar(&provider, "provider", "", "interpreter provider exported as LLM_PROVIDER")

	status := &cobra.Command{
		Use:   "status",
		Short: "Show whether the server is registered with Claude Desktop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := setup.GetStatus(desktopConfig)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), st)
		},
	}

	cmd.AddCommand(configure, status)
	return cmd
}
