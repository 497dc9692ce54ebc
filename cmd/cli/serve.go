package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aversoft/b24sync/pkg/config"
	"github.com/aversoft/b24sync/pkg/http/unf"
	"github.com/aversoft/b24sync/pkg/server"
	"github.com/aversoft/b24sync/pkg/services"
)

func serveCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the deal-link webhook server",
		Long: `Serve the webhook the CRM calls when a deal needs its company pushed
to the ERP. The handler validates the company card, pushes it and
stores the identifier the ERP assigned back on the company.`,
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

			linker := services.NewDealLinker(
				portalClient(cmd, webhookURL),
				unf.NewClient(sourceURL, authCode),
				sink,
			)

			if listen == "" {
				listen, err = config.GetListenAddr()
				if err != nil {
					return err
				}
			}
			return server.New(linker).Run(listen)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Bind address (overrides config)")
	return cmd
}
