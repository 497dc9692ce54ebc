package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/aversoft/b24sync/pkg/config"
	"github.com/aversoft/b24sync/pkg/services"
)

func itemsCmd() *cobra.Command {
	var (
		typeIDs []int
		inFile  string
		outDir  string
	)

	cmd := &cobra.Command{
		Use:   "items",
		Short: "Archive smart process items from the CRM",
		Long: `Download all items of the given smart process types, resolve their
custom field values against field metadata and archive them as JSON
plus a per-type parquet snapshot. Already-archived items are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			webhookURL, err := config.ResolveWebhookURL(cmd.Context(), config.GoogleSecretProvider{})
			if err != nil {
				return err
			}

			ids := typeIDs
			if inFile != "" {
				fromFile, err := typeIDsFromFile(inFile)
				if err != nil {
					return err
				}
				ids = append(ids, fromFile...)
			}
			if len(ids) == 0 {
				return fmt.Errorf("no type ids given, use --type-ids or --in-file")
			}

			if outDir == "" {
				outDir, err = config.GetOutputDir()
				if err != nil {
					return err
				}
			}

			fetcher := services.NewItemFetcher(portalClient(cmd, webhookURL), outDir)
			for _, id := range ids {
				added, err := fetcher.FetchType(cmd.Context(), id)
				if err != nil {
					log.Error().Err(err).Int("type", id).Msg("Failed to archive type")
					continue
				}
				fmt.Printf("type %d: %d new items\n", id, added)
			}
			return nil
		},
	}

	cmd.Flags().IntSliceVar(&typeIDs, "type-ids", nil, "Smart process type ids to archive")
	cmd.Flags().StringVar(&inFile, "in-file", "", "JSON file listing types to archive")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "Archive directory (overrides config)")
	return cmd
}

// typeIDsFromFile reads the type list the types command writes and pulls
// the entity type id out of each row.
func typeIDsFromFile(path string) ([]int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read type list: %w", err)
	}
	var rows []map[string]any
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse type list %s: %w", path, err)
	}
	var ids []int
	for _, row := range rows {
		for _, key := range []string{"entityTypeId", "ENTITY_TYPE_ID"} {
			if v, ok := row[key].(float64); ok {
				ids = append(ids, int(v))
				break
			}
		}
	}
	return ids, nil
}
