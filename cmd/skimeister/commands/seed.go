package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/i474232898/skimeister/internal/ingest"
)

var (
	seedLimit     *int
	seedCountries *[]string
	seedSample    *bool
)

func init() {
	seedLimit = seedCmd.Flags().Int("limit", 0, "Maximum resorts per country; 0 scrapes all (defaults to SCRAPER_LIMIT).")
	seedCountries = seedCmd.Flags().StringSlice("country", nil, "Country slugs to scrape (defaults to SCRAPER_COUNTRIES).")
	seedSample = seedCmd.Flags().Bool("sample", false, "Load the built-in sample resorts instead of scraping.")
	rootCmd.AddCommand(seedCmd)
}

var seedCmd = &cobra.Command{
	Use:   "seed [--limit N] [--country <slug>] [--sample]",
	Short: "Populates the store by scraping resort pages, or from built-in samples.",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, closeRepo, err := openRepository(cfg)
		if err != nil {
			return err
		}
		defer closeRepo()

		if *seedSample {
			p := ingest.NewPipeline(cfg.BaseURL, nil, nil, repo, ingest.WithLogger(logger))
			report, err := p.Seed(cmd.Context(), ingest.SampleResorts())
			logger.Info("sample resorts stored", "stored", report.Scraped, "skipped", report.Skipped)
			return err
		}

		limit := cfg.Limit
		if cmd.Flags().Changed("limit") {
			limit = *seedLimit
		}
		countries := cfg.Countries
		if len(*seedCountries) > 0 {
			countries = *seedCountries
		}

		p, err := newPipeline(cfg, repo, logger)
		if err != nil {
			return err
		}

		var errs []error
		for _, country := range countries {
			report, err := p.Run(cmd.Context(), country, limit)
			if err != nil {
				errs = append(errs, err)
			}
			logger.Info("seed finished",
				"country", country,
				"listed", report.Listed,
				"scraped", report.Scraped,
				"skipped", report.Skipped,
				"duration", report.Duration,
			)
		}
		return errors.Join(errs...)
	},
}
