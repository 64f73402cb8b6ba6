package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var catalogsCmd = &cobra.Command{
	Use:   "catalogs",
	Short: "List the merchant catalogs available for import",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalogs, err := app.Imports.ListCatalogs(cmd.Context())
		if err != nil {
			return err
		}
		for _, c := range catalogs {
			fmt.Printf("%-12s %s\n", c.ID, c.Name)
		}
		return nil
	},
}

var importCatalogID string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a catalog page by page, then remove stale products",
	Long: `Runs import steps until the catalog is exhausted, then removal steps
until cleanup completes. An interrupted import resumes from the persisted
page when run again, whatever --catalog says.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		for {
			step, err := app.Imports.ProcessNextPage(ctx, importCatalogID)
			if err != nil {
				return err
			}
			if step.Complete {
				fmt.Printf("%s (%d local products)\n", step.Message, step.TotalProducts)
				if step.Stage != "removal" {
					return nil
				}
				break
			}
			fmt.Printf("page %d: %s\n", step.Page, step.Message)
		}

		for {
			step, err := app.Removal.RemoveNextPage(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("%5.1f%% %s\n", step.Progress, step.Message)
			if step.Complete {
				return nil
			}
		}
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Request that the running import or cleanup stops",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.Imports.StopImport(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Stop requested")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show persisted import and removal progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := app.Imports.Status(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(status)
	},
}

func init() {
	importCmd.Flags().StringVar(&importCatalogID, "catalog", "", "catalog id to import")
}
