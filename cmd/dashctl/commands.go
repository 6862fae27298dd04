package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aristath/lcdash/internal/di"
	"github.com/aristath/lcdash/internal/modules/catalog"
	"github.com/aristath/lcdash/internal/modules/query"
	"github.com/aristath/lcdash/internal/warehouse"
)

var sqlCmd = &cobra.Command{
	Use:   "sql",
	Short: "Print the statement a selection would run",
	Long:  "Build the warehouse statement for the given filters without connecting to the warehouse.",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("dialect")
		if name == "" {
			name = cfg.Backend
		}
		dialect, err := query.DialectByName(name)
		if err != nil {
			return err
		}
		if cfg.Databricks.Table != "" && name == "databricks" {
			dialect = dialect.WithTable(cfg.Databricks.Table)
		}

		cat, err := catalog.Resolve(cmd.Context(), di.CatalogSource(cfg), log)
		if err != nil {
			return err
		}

		sel := selectionFromFlags(cmd)
		zips, err := cat.ResolveOffices(sel.Office)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), query.Assemble(dialect, query.BuildPredicates(sel, zips, cat.Defaults())))
		return nil
	},
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List regions, offices, purposes and sub grades",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := catalog.Resolve(cmd.Context(), di.CatalogSource(cfg), log)
		if err != nil {
			return err
		}
		regions, _ := cmd.Flags().GetStringSlice("region")
		printOptions(cmd.OutOrStdout(), cat.Options(regions))
		return nil
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Run one render cycle and print metrics and loans",
	RunE: func(cmd *cobra.Command, args []string) error {
		container, err := di.Wire(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer container.Close()

		token, _ := cmd.Flags().GetString("session-token")
		view, err := container.Dashboard.Render(cmd.Context(), warehouse.Session{Token: token}, selectionFromFlags(cmd))
		if err != nil {
			return err
		}

		limit, _ := cmd.Flags().GetInt("rows")
		printView(cmd.OutOrStdout(), view, limit)
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every matching loan to an Excel workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("output")

		container, err := di.Wire(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer container.Close()

		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		defer f.Close()

		token, _ := cmd.Flags().GetString("session-token")
		n, err := container.Dashboard.Export(cmd.Context(), warehouse.Session{Token: token}, selectionFromFlags(cmd), f)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d loans to %s\n", n, path)
		return nil
	},
}

func init() {
	addFilterFlags(sqlCmd)
	sqlCmd.Flags().String("dialect", "", "databricks, snowflake, postgres or sqlite (default: configured backend)")

	catalogCmd.Flags().StringSlice("region", nil, "only list offices in these regions")

	addFilterFlags(reportCmd)
	reportCmd.Flags().Int("rows", 20, "loan rows to print, 0 for all")

	addFilterFlags(exportCmd)
	exportCmd.Flags().StringP("output", "o", "loans.xlsx", "output workbook path")
}
