package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Generate fresh AI insights",
	RunE:  runInsights,
}

func init() {
	rootCmd.AddCommand(insightsCmd)
}

func runInsights(cmd *cobra.Command, _ []string) error {
	_, client, err := loadSetup()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), flagTimeout)
	defer cancel()

	list, err := client.GenerateInsights(ctx)
	if err != nil {
		return fmt.Errorf("generate insights: %w", err)
	}
	if len(list) == 0 {
		fmt.Println("No insights generated.")
		return nil
	}

	for _, in := range list {
		fmt.Printf("[%s] %s\n", in.Type, in.Title)
		fmt.Printf("  %s\n", in.Message)
		if in.Actionable != "" {
			fmt.Printf("  -> %s\n", in.Actionable)
		}
	}
	return nil
}
