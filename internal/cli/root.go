package cli

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"finboard/internal/api"
	"finboard/internal/config"
)

var flagTimeout time.Duration

var rootCmd = &cobra.Command{
	Use:   "finctl",
	Short: "Finboard admin CLI",
	Long:  "Administrative operations against the finance backend: insights, reports, exports, and the local sync queue.",
}

// Execute is the main entry point called from cmd/finctl.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", 30*time.Second, "Request timeout")
}

// loadSetup loads env and config for subcommands sharing the backend
// client.
func loadSetup() (*config.Config, *api.Client, error) {
	LoadEnvFile()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	client := api.NewClient(cfg.APIBaseURL, cfg.APIKey, cfg.APITimeout)
	return cfg, client, nil
}
