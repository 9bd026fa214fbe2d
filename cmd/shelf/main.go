package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abelbrown/shelf/internal/config"
)

var (
	// Global flags
	envFile string
	verbose bool

	cfg *config.Config
)

// rootCmd launches the browser when run without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "shelf",
	Short: "Browse a product catalog in the terminal",
	Long: `shelf lists products from a catalog endpoint (or a built-in fixture)
and lets you search, filter by category, and sort by price.

Run without arguments to start the browser. Configuration comes from
SHELF_* environment variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if envFile != "" {
			if err := config.LoadKeysFile(envFile); err != nil {
				return fmt.Errorf("load env file: %w", err)
			}
		}
		var err error
		cfg, err = config.Load()
		return err
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBrowse(cmd.Context())
	},
}

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Start the interactive product browser",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBrowse(cmd.Context())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the catalog over HTTP",
	Long: `Serves GET /products from the SQLite catalog at SHELF_DB_PATH on
SHELF_SERVER_ADDR. An empty catalog is seeded with the built-in fixture.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

var fixturePaths []string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a YAML fixture into the SQLite catalog",
	Long: `Upserts every product of the fixtures into the catalog at SHELF_DB_PATH.
Products without an id get one derived from name and category, so seeding
the same fixture twice updates rather than duplicates.

Example:
  shelf seed --fixture products.yaml --fixture extras.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSeed(fixturePaths)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "read KEY=value pairs from this file before loading config")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging for serve and seed")

	seedCmd.Flags().StringArrayVarP(&fixturePaths, "fixture", "f", nil, "fixture path, repeatable (defaults to SHELF_FIXTURE, then the built-in catalog)")

	rootCmd.AddCommand(browseCmd, serveCmd, seedCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
