package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"imgsearch/pkg/config"
	"imgsearch/pkg/ui"
)

const defaultConfigPath = ".imgsearch.yaml"

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage imgsearch configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (IMGSEARCH_*)
  - .env file
  - Configuration file
  - Default values (lowest priority)`,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file is created as '.imgsearch.yaml' in the current directory unless a
different path is given with the --config flag.`,
	Run: runConfigInit,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Run:   runConfigShow,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Validate the configuration for syntax errors and invalid values.

This command checks:
  - YAML syntax
  - Required fields
  - Value ranges
  - Output and log directory accessibility`,
	Run: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

const exampleConfig = `# imgsearch configuration file
#
# Every option can also be set through environment variables prefixed with
# IMGSEARCH_, for example IMGSEARCH_OUTPUT_DIR or IMGSEARCH_LOG_LEVEL.

search:
  # Search endpoint queried for result pages
  base_url: "http://www.google.com/search"

  # User agent sent with result page requests
  user_agent: %q

  # Result pages harvested per query (100 images per page)
  pages_to_query: 6

  # Result page timeout, e.g. "30s". 0 waits forever.
  request_timeout: 0s

output:
  # Root directory; each query gets its own subdirectory
  base_directory: "./images"

  # Cached search results inside every query directory
  index_file_name: "_search_results.json"

download:
  # Parallel image downloads. 0 uses one worker per CPU.
  concurrent_downloads: 20

  # Image download timeout, e.g. "1m". 0 waits forever.
  download_timeout: 0s

logging:
  # Log level: debug, info, warn, error, disabled
  level: "info"

  # Log file path (optional); rotated by size
  file: ""

  # Maximum log file size in MB
  max_size: 100

  # Maximum number of old log files to keep
  max_backups: 3

  # Maximum age of log files in days
  max_age: 7

  # Gzip rotated files
  compress: false
`

func runConfigInit(cmd *cobra.Command, args []string) {
	configPath := configFile
	if configPath == "" {
		configPath = defaultConfigPath
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		os.Exit(1)
	}

	content := fmt.Sprintf(exampleConfig, config.DefaultUserAgent)
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		ui.PrintError("Failed to create configuration file", err)
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Edit the configuration file")
	fmt.Println("2. Run 'imgsearch config validate' to check the configuration")
	fmt.Println("3. Start downloading with 'imgsearch search <query>'")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Failed to load configuration", err)
		os.Exit(1)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		ui.PrintError("Failed to format configuration", err)
		os.Exit(1)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (IMGSEARCH_*)")
	fmt.Println("3. .env file")
	if configFile != "" {
		fmt.Printf("4. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("4. Configuration file: (searched in default locations)")
	}
	fmt.Println("5. Default values")
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	if configFile != "" {
		ui.PrintInfo("Validating configuration", configFile)
	}

	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Configuration validation failed", err)
		os.Exit(1)
	}

	var problems []string

	if err := os.MkdirAll(cfg.Output.BaseDirectory, 0755); err != nil {
		problems = append(problems, fmt.Sprintf("Cannot create output directory: %v", err))
	}

	if cfg.Logging.File != "" {
		dir := filepath.Dir(cfg.Logging.File)
		if err := os.MkdirAll(dir, 0755); err != nil {
			problems = append(problems, fmt.Sprintf("Cannot create log directory: %v", err))
		}
	}

	if len(problems) > 0 {
		ui.PrintError("Configuration has errors")
		for _, p := range problems {
			fmt.Printf("  - %s\n", p)
		}
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration is valid")

	workers := fmt.Sprint(cfg.Download.ConcurrentDownloads)
	if cfg.Download.ConcurrentDownloads == 0 {
		workers = "one per CPU"
	}

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Search endpoint: %s\n", cfg.Search.BaseURL)
	fmt.Printf("  Pages per query: %d\n", cfg.Search.PagesToQuery)
	fmt.Printf("  Output directory: %s\n", cfg.Output.BaseDirectory)
	fmt.Printf("  Concurrent downloads: %s\n", workers)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
}
