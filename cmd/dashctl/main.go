// Command dashctl runs dashboard cycles from the terminal: it prints the
// generated SQL, the reference catalog, a rendered report or an Excel export.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aristath/lcdash/internal/config"
	"github.com/aristath/lcdash/internal/modules/query"
	"github.com/aristath/lcdash/pkg/logger"
)

var (
	cfg *config.Config
	log zerolog.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "dashctl",
	Short:         "Lending Club dashboard from the command line",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		level, _ := cmd.Flags().GetString("log-level")
		if level == "" {
			level = "warn"
		}
		log = logger.New(logger.Config{Level: level, Pretty: true, Output: os.Stderr})
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(exportCmd)
}

// addFilterFlags registers the four sidebar filters on cmd.
func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("region", nil, "regions to include")
	cmd.Flags().StringSlice("office", nil, "office numbers to include")
	cmd.Flags().StringSlice("purpose", nil, "loan purposes to include")
	cmd.Flags().StringSlice("sub-grade", nil, "sub grades to include")
	cmd.Flags().String("session-token", "", "viewer session token forwarded to the warehouse")
}

func selectionFromFlags(cmd *cobra.Command) query.FilterSelection {
	region, _ := cmd.Flags().GetStringSlice("region")
	office, _ := cmd.Flags().GetStringSlice("office")
	purpose, _ := cmd.Flags().GetStringSlice("purpose")
	subGrade, _ := cmd.Flags().GetStringSlice("sub-grade")
	return query.FilterSelection{
		Region:   region,
		Office:   office,
		Purpose:  purpose,
		SubGrade: subGrade,
	}
}
