// Package main provides the ProduceLens CLI: search, answers, user memory and
// catalog administration against the configured data sources.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/producelens/backend/config"
	"github.com/producelens/backend/internal/app"
	"github.com/producelens/backend/internal/observability"
)

// cli carries global flags and the configuration loaded for a command.
type cli struct {
	cfgFile    string
	outputJSON bool
	noColor    bool
	verbose    bool
	userID     string

	cfg    *config.Config
	logger zerolog.Logger
	ui     *UI
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "producelens",
		Short: "ProduceLens CLI for produce search, answers and catalog administration",
		Long: `ProduceLens CLI runs the recommendation engine against the configured catalog,
crop facts and FAQ without starting the HTTP server.

Use this tool to:
- Search products and print the supporting evidence
- Draft evidence-first answers
- Inspect and update user preferences and summaries
- Seed the SQL catalog from CSV and validate reference data

All commands support --json for automation.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			c.cfg, err = config.LoadFile(c.cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			level := "warn"
			if c.verbose {
				level = "debug"
			}
			c.logger = observability.NewLogger(observability.LogConfig{
				Level:   level,
				Format:  "console",
				Output:  cmd.ErrOrStderr(),
				Service: "producelens-cli",
			})
			c.ui = NewUI(cmd.OutOrStdout(), c.outputJSON, c.noColor)
			return nil
		},
	}
	root.SetOut(out)

	root.PersistentFlags().StringVarP(&c.cfgFile, "config", "c", "", "config file path (default: search ./config.yaml)")
	root.PersistentFlags().BoolVar(&c.outputJSON, "json", false, "output in JSON format")
	root.PersistentFlags().BoolVar(&c.noColor, "no-color", false, "disable colored output")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVarP(&c.userID, "user", "u", "", "user id (default: retrieval.default_user)")

	root.AddCommand(newSearchCmd(c))
	root.AddCommand(newAnswerCmd(c))
	root.AddCommand(newPrefsCmd(c))
	root.AddCommand(newSummariesCmd(c))
	root.AddCommand(newSeedCmd(c))
	root.AddCommand(newCheckCmd(c))

	return root
}

// open wires the engine for one command invocation.
func (c *cli) open(ctx context.Context) (*app.App, error) {
	return app.New(ctx, c.cfg, c.logger)
}

// user returns the --user flag or the configured default user.
func (c *cli) user() string {
	if c.userID != "" {
		return c.userID
	}
	return c.cfg.Retrieval.DefaultUser
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
