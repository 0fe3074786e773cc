package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	flagReportYear  int
	flagReportMonth int
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Fetch the monthly financial report",
	RunE:  runReport,
}

func init() {
	now := time.Now()
	reportCmd.Flags().IntVar(&flagReportYear, "year", now.Year(), "Report year")
	reportCmd.Flags().IntVar(&flagReportMonth, "month", int(now.Month()), "Report month (1-12)")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, _ []string) error {
	if flagReportMonth < 1 || flagReportMonth > 12 {
		return fmt.Errorf("invalid month %d: must be 1-12", flagReportMonth)
	}

	_, client, err := loadSetup()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), flagTimeout)
	defer cancel()

	report, err := client.GenerateReport(ctx, flagReportYear, flagReportMonth)
	if err != nil {
		return fmt.Errorf("fetch report: %w", err)
	}

	fmt.Printf("Report %s\n\n", report.Period)
	fmt.Println(report.Summary)
	for _, section := range report.Sections {
		fmt.Printf("\n%s\n", section)
	}
	if report.Generated != "" {
		fmt.Printf("\nGenerated at %s\n", report.Generated)
	}
	return nil
}
