package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/aversoft/b24sync/pkg/config"
	"github.com/aversoft/b24sync/pkg/http/bitrix"
	"github.com/aversoft/b24sync/pkg/journal"
	"github.com/aversoft/b24sync/pkg/utils"
)

var (
	configPath  string
	journalPath string
	rootCmd     *cobra.Command
)

// Execute executes the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd = &cobra.Command{
		Use:   "b24sync",
		Short: "A CLI tool for syncing company records between an ERP and a CRM portal",
		Long: `A CLI tool that reconciles ERP customer records against CRM companies,
migrates companies between portals and archives smart process items.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.InitGlobalConfig(configPath); err != nil {
				// Only warn when the file is missing, GetConfig creates it later
				if !os.IsNotExist(err) {
					log.Warn().Err(err).Msg("Failed to load configuration")
					log.Warn().Msg("A default configuration will be used")
				}
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().StringVar(&journalPath, "journal", "", "Path to the CSV journal (overrides config)")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Show the current configuration",
		Long:  `Show the current configuration loaded from the config file.`,
		Run: func(cmd *cobra.Command, args []string) {
			showConfig()
		},
	}

	rootCmd.AddCommand(syncCmd(), migrateCmd(), itemsCmd(), typesCmd(), serveCmd(), configCmd)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Str("run_id", uuid.NewString()).Logger()
}

// openJournal creates the CSV journal the commands write their audit
// trail to, honoring the --journal override.
func openJournal() (*journal.CSVSink, error) {
	path := journalPath
	if path == "" {
		var err error
		path, err = config.GetJournalPath()
		if err != nil {
			return nil, err
		}
	}
	return journal.NewCSVSink(path)
}

// portalClient builds a CRM client for the configured portal, attaching
// the debug transport when the debug flag is set.
func portalClient(cmd *cobra.Command, webhookURL string) *bitrix.Client {
	cfg, err := config.GetConfig()
	if err == nil && cfg.Debug {
		httpClient := bitrix.DefaultHTTPClient()
		httpClient.Transport = utils.DebugRoundTripper()
		return bitrix.NewClient(webhookURL, bitrix.WithHTTPClient(httpClient))
	}
	return bitrix.NewClient(webhookURL)
}

// showConfig displays the current configuration
func showConfig() {
	cfg, err := config.GetConfig()
	if err != nil {
		log.Error().Err(err).Msg("Error loading configuration")
		return
	}

	fmt.Println("Current Configuration:")
	fmt.Println("----------------------")
	fmt.Printf("Portal webhook:  %s\n", maskSecret(cfg.Bitrix.WebhookURL))
	fmt.Printf("Source endpoint: %s\n", cfg.Source.URL)
	fmt.Printf("Source auth:     %s\n", maskSecret(cfg.Source.AuthCode))
	fmt.Printf("Journal path:    %s\n", cfg.JournalPath)
	fmt.Printf("Output dir:      %s\n", cfg.OutputDir)
	fmt.Printf("Listen address:  %s\n", cfg.Listen)

	if cfg.Bitrix.WebhookURL == "" && cfg.Bitrix.SecretName == "" {
		fmt.Println("\nPlease set the portal webhook URL (or a secret name) in the config file.")
	}
}

func maskSecret(s string) string {
	if s == "" {
		return "Not set"
	}
	if len(s) > 8 {
		return s[:4] + strings.Repeat("*", len(s)-8) + s[len(s)-4:]
	}
	return strings.Repeat("*", len(s))
}
