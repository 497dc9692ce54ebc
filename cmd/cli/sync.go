package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/aversoft/b24sync/pkg/config"
	"github.com/aversoft/b24sync/pkg/http/unf"
	"github.com/aversoft/b24sync/pkg/services"
)

func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Reconcile ERP customers against CRM companies",
		Long: `Fetch all customers from the ERP exchange endpoint and reconcile each
one against the CRM: matched companies are updated, unmatched ones are
created, and bank requisites are attached from the customer's bank line.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			webhookURL, err := config.ResolveWebhookURL(cmd.Context(), config.GoogleSecretProvider{})
			if err != nil {
				return err
			}
			sourceURL, authCode, err := config.GetSourceEndpoint()
			if err != nil {
				return err
			}

			sink, err := openJournal()
			if err != nil {
				return fmt.Errorf("failed to open journal: %w", err)
			}
			defer sink.Close()

			reconciler := services.NewReconciler(
				portalClient(cmd, webhookURL),
				unf.NewClient(sourceURL, authCode),
				sink,
			)

			stats, err := reconciler.Run(cmd.Context())
			if err != nil {
				log.Error().Err(err).Msg("Sync aborted")
				return err
			}

			report, err := json.MarshalIndent(stats, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, string(report))
			return nil
		},
	}
}
