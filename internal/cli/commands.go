package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/term-dates/internal/config"
	"github.com/pfrederiksen/term-dates/internal/refresh"
	"github.com/pfrederiksen/term-dates/internal/scraper"
	"github.com/pfrederiksen/term-dates/internal/storage"
	"github.com/pfrederiksen/term-dates/internal/term"
)

var (
	flagYear   int
	flagFormat string
	flagSort   string
)

func newRefreshCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Run one refresh pass and exit",
		Long: `Scrapes the current and next year, updates the cache and records the outcome.
Exits non-zero when the refresh failed.`,
		Args: cobra.NoArgs,
		RunE: runRefresh,
	}
	cmd.Flags().StringVar(&flagFormat, "format", "text", "Output format: text or json")
	return cmd
}

func newScrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape one year and print it without touching the cache",
		Args:  cobra.NoArgs,
		RunE:  runScrape,
	}
	addYearFlags(cmd)
	return cmd
}

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print a cached year",
		Args:  cobra.NoArgs,
		RunE:  runShow,
	}
	addYearFlags(cmd)
	return cmd
}

func addYearFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&flagYear, "year", 0, "Year to print (default: current year in the configured timezone)")
	cmd.Flags().StringVar(&flagFormat, "format", "text", "Output format: text, json or ics")
	cmd.Flags().StringVar(&flagSort, "sort", "term", "Text output order: term or date")
}

func runRefresh(cmd *cobra.Command, args []string) error {
	format, err := ParseOutputFormat(flagFormat)
	if err != nil || format == FormatICS {
		return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", flagFormat)
	}

	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	store, err := storage.Open(cfg.CachePath)
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	refresh.New(scraper.New(cfg.SourceURL), store,
		refresh.WithLocation(loc),
		refresh.WithLogger(log),
	).Run(ctx)

	status := store.Status(time.Now())
	if err := writeHealth(cmd.OutOrStdout(), status, store.Years(), format); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	if !status.OK {
		return &exitError{code: ExitError, err: errors.New("refresh failed")}
	}
	return nil
}

func runScrape(cmd *cobra.Command, args []string) error {
	format, order, err := parseOutputFlags()
	if err != nil {
		return err
	}
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	year, err := resolveYear(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	sc := scraper.New(cfg.SourceURL)
	data, err := sc.ScrapeYear(ctx, year)
	if errors.Is(err, scraper.ErrNotFound) {
		return &exitError{code: ExitNotFound, err: err}
	}
	if err != nil {
		return fmt.Errorf("scraping %d: %w", year, err)
	}
	if err := term.ValidateYear(data); err != nil {
		return fmt.Errorf("scraped data for %d is invalid: %w", year, err)
	}

	result := &OutputResult{
		Year:      year,
		Source:    sc.URL(),
		CheckedAt: time.Now().UTC(),
		Data:      data,
	}
	if err := WriteOutput(cmd.OutOrStdout(), result, format, order); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	format, order, err := parseOutputFlags()
	if err != nil {
		return err
	}
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	year, err := resolveYear(cfg)
	if err != nil {
		return err
	}

	store, err := storage.Open(cfg.CachePath)
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}

	data, ok := store.GetYear(year)
	if !ok {
		return &exitError{code: ExitNotFound, err: fmt.Errorf("no cached data for %d in %s", year, store.Path())}
	}

	result := &OutputResult{
		Year:      year,
		Source:    store.Path(),
		CheckedAt: time.Now().UTC(),
		Data:      data,
	}
	if err := WriteOutput(cmd.OutOrStdout(), result, format, order); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

func parseOutputFlags() (OutputFormat, SortOrder, error) {
	format, err := ParseOutputFormat(flagFormat)
	if err != nil {
		return "", "", err
	}
	order, err := ParseSortOrder(flagSort)
	if err != nil {
		return "", "", err
	}
	return format, order, nil
}

// resolveYear returns --year, or the current year in the configured timezone
func resolveYear(cfg *config.Config) (int, error) {
	if flagYear != 0 {
		if flagYear < 1 {
			return 0, fmt.Errorf("invalid year: %d", flagYear)
		}
		return flagYear, nil
	}
	loc, err := cfg.Location()
	if err != nil {
		return 0, err
	}
	return time.Now().In(loc).Year(), nil
}
