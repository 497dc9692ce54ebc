package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aversoft/b24sync/pkg/config"
	"github.com/aversoft/b24sync/pkg/services"
)

func typesCmd() *cobra.Command {
	var (
		masterPath string
		newPath    string
		sinceHours int
	)

	cmd := &cobra.Command{
		Use:   "types",
		Short: "Discover new smart process types",
		Long: `List all smart process types on the CRM and report the ones missing
from the master list, optionally restricted to recently created types.
New types are written to their own file and merged into the master.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			webhookURL, err := config.ResolveWebhookURL(cmd.Context(), config.GoogleSecretProvider{})
			if err != nil {
				return err
			}

			finder := services.NewTypeFinder(portalClient(cmd, webhookURL))
			fresh, err := finder.FindNew(cmd.Context(), masterPath, sinceHours)
			if err != nil {
				return err
			}
			if err := finder.Record(masterPath, newPath, fresh); err != nil {
				return err
			}

			fmt.Printf("%d new smart process types\n", len(fresh))
			return nil
		},
	}

	cmd.Flags().StringVar(&masterPath, "out", "smart_processes.json", "Master list of known types")
	cmd.Flags().StringVar(&newPath, "new-out", "new_smart_processes.json", "File the new types are written to")
	cmd.Flags().IntVar(&sinceHours, "since-hours", 0, "Only report types created within the last N hours")
	return cmd
}
