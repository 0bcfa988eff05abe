package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"imgsearch/pkg/config"
	"imgsearch/pkg/logger"
	"imgsearch/pkg/pipeline"
	"imgsearch/pkg/ui"
)

var (
	// Search flags, shared by the root command
	outputDir  string
	concurrent int
	pages      int
	baseURL    string
)

var searchCmd = &cobra.Command{
	Use:   "search <query>...",
	Short: "Download the images found for one or more queries",
	Long: `Harvest the result pages of each query and download every image found.

Images are written to <output>/<query>/ as 000.jpg, 001.png, ... with the
extension taken from the server's content type. A query whose result pages
cannot be fetched is reported and the remaining queries still run.`,
	Example: `  imgsearch search "selfie stick"
  imgsearch search --pages 2 --concurrent 4 cats dogs`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	for _, fs := range []*pflag.FlagSet{searchCmd.Flags(), rootCmd.Flags()} {
		fs.StringVarP(&outputDir, "output", "o", "", "output root directory (default ./images)")
		fs.IntVar(&concurrent, "concurrent", 0, "number of concurrent downloads (default from config, 0 for one per CPU)")
		fs.IntVar(&pages, "pages", 0, "number of result pages to harvest per query (default 6)")
		fs.StringVar(&baseURL, "base-url", "", "search endpoint URL")
	}
}

// buildFlags collects the flags the user set explicitly
func buildFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	changed := cmd.Flags().Changed

	if changed("output") {
		flags["output"] = outputDir
	}
	if changed("concurrent") {
		flags["concurrent-downloads"] = concurrent
	}
	if changed("pages") {
		flags["pages"] = pages
	}
	if changed("base-url") {
		flags["base-url"] = baseURL
	}

	switch {
	case changed("log-level"):
		flags["log-level"] = logLevel
	case quiet:
		flags["log-level"] = "error"
	}

	return flags
}

// cleanQueries trims the arguments, drops empty ones and rejects queries
// that cannot be used as a directory name
func cleanQueries(args []string) ([]string, error) {
	queries := make([]string, 0, len(args))
	for _, arg := range args {
		q := strings.TrimSpace(arg)
		if q == "" {
			continue
		}
		if err := pipeline.ValidateQuery(q); err != nil {
			return nil, err
		}
		queries = append(queries, q)
	}
	if len(queries) == 0 {
		return nil, errors.New("at least one non-empty query is required")
	}
	return queries, nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	queries, err := cleanQueries(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(configFile, buildFlags(cmd))
	if err != nil {
		return err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()
	log.InfoWithFields("imgsearch starting", map[string]interface{}{
		"version": version,
		"queries": len(queries),
		"output":  cfg.Output.BaseDirectory,
	})

	ui.PrintInfo("Output root", cfg.Output.BaseDirectory)
	ui.PrintInfo("Queries", strings.Join(queries, ", "))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := pipeline.New(cfg, log)
	results := p.Run(ctx, queries, cfg.Output.BaseDirectory, cfg.Download.ConcurrentDownloads)

	failures := ui.PrintSummary(results)
	if failures > 0 {
		return fmt.Errorf("%d of %d queries failed", failures, len(results))
	}

	ui.PrintSuccess("[ALL QUERIES COMPLETED]")
	return nil
}
