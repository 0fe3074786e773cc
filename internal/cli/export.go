package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"finboard/internal/export/sheets"
)

var (
	flagExportYear  int
	flagExportMonth int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the monthly report to Google Sheets",
	RunE:  runExport,
}

func init() {
	now := time.Now()
	exportCmd.Flags().IntVar(&flagExportYear, "year", now.Year(), "Report year")
	exportCmd.Flags().IntVar(&flagExportMonth, "month", int(now.Month()), "Report month (1-12)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	if flagExportMonth < 1 || flagExportMonth > 12 {
		return fmt.Errorf("invalid month %d: must be 1-12", flagExportMonth)
	}

	cfg, client, err := loadSetup()
	if err != nil {
		return err
	}
	if cfg.SheetsSpreadsheetID == "" {
		return fmt.Errorf("SHEETS_SPREADSHEET_ID is not configured")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), flagTimeout)
	defer cancel()

	report, err := client.GenerateReport(ctx, flagExportYear, flagExportMonth)
	if err != nil {
		return fmt.Errorf("fetch report: %w", err)
	}

	exporter, err := sheets.NewExporter(ctx, cfg.SheetsSpreadsheetID, cfg.SheetsSheetName)
	if err != nil {
		return fmt.Errorf("init sheets exporter: %w", err)
	}
	if err := exporter.ExportReport(ctx, report); err != nil {
		return fmt.Errorf("export report: %w", err)
	}

	fmt.Printf("Exported report %s to spreadsheet %s\n", report.Period, cfg.SheetsSpreadsheetID)
	return nil
}
