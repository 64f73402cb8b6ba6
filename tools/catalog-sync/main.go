// Command catalog-sync drives the sync from a terminal, one step at a time,
// against the same stores the HTTP service uses.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"catalog-sync-service/bootstrap"
	"catalog-sync-service/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var app *bootstrap.App

var rootCmd = &cobra.Command{
	Use:   "catalog-sync",
	Short: "Import an affiliate catalog into the local product store",
	Long: `catalog-sync runs the catalog import and the stale-product cleanup.

Examples:
  catalog-sync catalogs              # List merchant catalogs
  catalog-sync import --catalog 77   # Import every page, then clean up
  catalog-sync stop                  # Ask a running import to stop
  catalog-sync status                # Show persisted progress`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		cfg, err := config.LoadConfig(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		app, err = bootstrap.New(cmd.Context(), cfg)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if app != nil {
			app.Close()
		}
	},
}

func init() {
	rootCmd.AddCommand(catalogsCmd, importCmd, stopCmd, statusCmd)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
