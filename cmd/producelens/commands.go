package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/producelens/backend/internal/domain"
	"github.com/producelens/backend/internal/infrastructure/catalog"
)

type queryFlags struct {
	region string
	season string
	topK   int
}

func (f *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.region, "region", "r", "", "user region (default: retrieval.default_region)")
	cmd.Flags().StringVarP(&f.season, "season", "s", "", "season: spring, summer, autumn or winter (default: current)")
	cmd.Flags().IntVarP(&f.topK, "top-k", "k", -1, "evidence items to keep, 0 for all (default: retrieval.evidence_top_k)")
}

func (f *queryFlags) request(c *cli, args []string) *domain.SearchRequest {
	req := &domain.SearchRequest{
		Query:      strings.Join(args, " "),
		UserID:     c.user(),
		UserRegion: f.region,
		Season:     f.season,
	}
	if f.topK >= 0 {
		topK := f.topK
		req.EvidenceTopK = &topK
	}
	return req
}

// newSearchCmd creates the search subcommand.
func newSearchCmd(c *cli) *cobra.Command {
	var flags queryFlags

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search products and show supporting evidence",
		Example: `  producelens search 西红柿 --region Beijing --season summer
  producelens search "organic fruit" --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.Retrieval.Search(cmd.Context(), flags.request(c, args))
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}
			if c.outputJSON {
				return c.ui.JSON(result)
			}
			c.ui.SearchResult(result)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

// newAnswerCmd creates the answer subcommand.
func newAnswerCmd(c *cli) *cobra.Command {
	var flags queryFlags

	cmd := &cobra.Command{
		Use:   "answer <question>",
		Short: "Draft an evidence-first answer and record it as a summary",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			answer, err := a.Retrieval.Answer(cmd.Context(), flags.request(c, args))
			if err != nil {
				return fmt.Errorf("answer: %w", err)
			}
			if c.outputJSON {
				return c.ui.JSON(answer)
			}
			c.ui.Answer(answer)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

// newPrefsCmd creates the prefs subcommand with get and set.
func newPrefsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or update user preferences",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Show the user's preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			prefs, outcome, err := a.Memory.Preferences(cmd.Context(), c.user())
			if err != nil {
				c.ui.Warning("%v", err)
			}
			if c.outputJSON {
				return c.ui.JSON(map[string]interface{}{"user_id": c.user(), "read": outcome, "preferences": prefs})
			}
			c.ui.Preferences(c.user(), prefs, outcome)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set key=value...",
		Short: "Merge key=value pairs into the user's preferences",
		Long: `Merge key=value pairs into the user's preferences. Values are read as JSON
when they parse (numbers, booleans, arrays), otherwise as plain strings.`,
		Example: `  producelens prefs set price_sensitivity=high max_price=20
  producelens prefs set 'preferred_categories=["fruit","vegetable"]'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := parsePatch(args)
			if err != nil {
				return err
			}

			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			prefs, err := a.Memory.UpdatePreferences(cmd.Context(), c.user(), patch)
			if err != nil {
				return fmt.Errorf("update preferences: %w", err)
			}
			if c.outputJSON {
				return c.ui.JSON(map[string]interface{}{"user_id": c.user(), "preferences": prefs})
			}
			c.ui.Success("updated %d preference(s) for %s", len(patch), c.user())
			c.ui.Preferences(c.user(), prefs, domain.MemoryFound)
			return nil
		},
	})

	return cmd
}

// parsePatch turns key=value arguments into a preferences patch.
func parsePatch(args []string) (map[string]interface{}, error) {
	patch := make(map[string]interface{}, len(args))
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid preference %q, want key=value", arg)
		}
		var value interface{}
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			value = raw
		}
		patch[key] = value
	}
	return patch, nil
}

// newSummariesCmd creates the summaries subcommand.
func newSummariesCmd(c *cli) *cobra.Command {
	var n int

	cmd := &cobra.Command{
		Use:   "summaries",
		Short: "Show the user's most recent conversation summaries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			summaries, outcome, err := a.Memory.RecentSummaries(cmd.Context(), c.user(), n)
			if err != nil {
				c.ui.Warning("%v", err)
			}
			if c.outputJSON {
				return c.ui.JSON(map[string]interface{}{"user_id": c.user(), "read": outcome, "summaries": summaries})
			}
			c.ui.Summaries(summaries)
			return nil
		},
	}
	cmd.Flags().IntVarP(&n, "count", "n", 5, "number of summaries")
	return cmd
}

// newSeedCmd creates the seed subcommand.
func newSeedCmd(c *cli) *cobra.Command {
	var (
		csvPath string
		driver  string
		dsn     string
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the products table and load it from a CSV file",
		Long: `Create the products table if needed and replace its contents with the rows
of a CSV catalog. Defaults come from data.products_file and data.database_dsn.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if csvPath == "" {
				csvPath = c.cfg.Data.ProductsFile
			}
			if dsn == "" {
				dsn = c.cfg.Data.DatabaseDSN
			}
			if driver == "" {
				driver = catalog.DriverSQLite
				if c.cfg.Data.CatalogSource == catalog.DriverPostgres {
					driver = catalog.DriverPostgres
				}
			}

			f, err := os.Open(csvPath)
			if err != nil {
				return fmt.Errorf("open csv: %w", err)
			}
			defer f.Close()
			rows, err := catalog.ReadCSV(f)
			if err != nil {
				return fmt.Errorf("read %s: %w", csvPath, err)
			}

			db, err := catalog.OpenSQL(cmd.Context(), driver, dsn)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.InitSchema(cmd.Context()); err != nil {
				return err
			}
			n, err := db.Seed(cmd.Context(), rows)
			if err != nil {
				return fmt.Errorf("seed: %w", err)
			}

			if c.outputJSON {
				return c.ui.JSON(map[string]interface{}{"driver": driver, "rows": n, "source": csvPath})
			}
			c.ui.Success("seeded %d products into %s from %s", n, driver, csvPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&csvPath, "csv", "", "CSV catalog to load")
	cmd.Flags().StringVar(&driver, "driver", "", "sqlite or postgres (default: from data.catalog_source)")
	cmd.Flags().StringVar(&dsn, "dsn", "", "database file or connection URL")
	return cmd
}

// newCheckCmd creates the check subcommand, which loads every reference source.
func newCheckCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "check",
		Aliases: []string{"reload"},
		Short:   "Load catalog, crop facts and FAQ and report what was read",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			snap := a.Retrieval.Snapshot()
			info := map[string]interface{}{
				"catalog_source": snap.CatalogSource,
				"products":       len(snap.Catalog),
				"aliases":        len(snap.Aliases),
				"faq_entries":    len(snap.FAQ.Entries),
				"faq_updated":    snap.FAQ.LastUpdated,
				"seasons":        len(snap.Facts.SeasonalCrops),
				"regions":        len(snap.Facts.RegionalSpecialties),
			}
			if c.outputJSON {
				return c.ui.JSON(info)
			}
			c.ui.Success("reference data loaded")
			fmt.Fprintf(cmd.OutOrStdout(), "  catalog   %s (%d products, %d aliases)\n", snap.CatalogSource, len(snap.Catalog), len(snap.Aliases))
			fmt.Fprintf(cmd.OutOrStdout(), "  facts     %s (%d seasons, %d regions)\n", snap.FactsSource, len(snap.Facts.SeasonalCrops), len(snap.Facts.RegionalSpecialties))
			fmt.Fprintf(cmd.OutOrStdout(), "  faq       %s (%d entries)\n", snap.FAQSource, len(snap.FAQ.Entries))
			return nil
		},
	}
}
