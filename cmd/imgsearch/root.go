package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"imgsearch/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	noColor    bool
	quiet      bool
)

// rootCmd runs a search when called with queries and no subcommand
var rootCmd = &cobra.Command{
	Use:   "imgsearch [query...]",
	Short: "Harvest image search results and download every image",
	Long: `imgsearch queries an image search engine, collects the metadata of every
image on the first result pages and downloads the images in parallel.

Each query gets its own directory under the output root. The harvested
metadata is cached there as _search_results.json; later runs for the same
directory reuse the cache and only download again.`,
	Example: `  # Download images for two queries into ./images/<query>
  imgsearch "selfie stick" "golden retriever"

  # Custom output root and worker count
  imgsearch -o ./out --concurrent 8 "selfie stick"`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet {
			ui.SetQuietMode(true)
		}
		if noColor {
			ui.SetColorEnabled(false)
		}

		if cmd.Name() != "help" && cmd.Name() != "version" {
			ui.PrintLogo()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return runSearch(cmd, args)
	},
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.imgsearch.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")

	rootCmd.SetVersionTemplate(`imgsearch {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
