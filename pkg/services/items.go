package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/parquet-go/parquet-go"
	"github.com/rs/zerolog/log"

	"github.com/aversoft/b24sync/pkg/http/bitrix"
	"github.com/aversoft/b24sync/pkg/models"
)

// ItemFetcher downloads smart-process items of a type, augments their
// custom fields with metadata-derived display values and accumulates the
// results into a per-item JSON archive plus a columnar snapshot.
type ItemFetcher struct {
	client bitrix.ClientInterface
	outDir string
}

// NewItemFetcher creates a fetcher writing under outDir.
func NewItemFetcher(client bitrix.ClientInterface, outDir string) *ItemFetcher {
	return &ItemFetcher{client: client, outDir: outDir}
}

// FetchType fetches all items of one type and returns the number of items
// that were new this run. Items already present in the archive are
// skipped, so repeated runs only accumulate.
func (f *ItemFetcher) FetchType(ctx context.Context, typeID int) (int, error) {
	// Metadata is best effort: without it items still archive, just
	// without display titles.
	meta, err := f.client.ItemFields(ctx, typeID)
	if err != nil {
		log.Error().Err(err).Int("type", typeID).Msg("Failed to fetch field metadata")
		meta = bitrix.FieldMetadata{}
	}

	items, err := f.client.FetchAll(ctx, "crm.item.list", map[string]any{
		"entityTypeId": typeID,
		"select":       []string{"*", "UF_*"},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to fetch items for type %d: %w", typeID, err)
	}

	bitrix.AugmentItems(items, meta)

	typeDir := filepath.Join(f.outDir, fmt.Sprintf("type_%d", typeID))
	if err := os.MkdirAll(typeDir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create archive directory: %w", err)
	}

	var newItems []map[string]any
	for i, item := range items {
		id := itemID(item, i+1)
		path := filepath.Join(typeDir, fmt.Sprintf("item_%s.json", id))
		if _, err := os.Stat(path); err == nil {
			continue
		}
		data, err := json.MarshalIndent(item, "", "  ")
		if err != nil {
			log.Error().Err(err).Str("item", id).Msg("Failed to encode item")
			continue
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return len(newItems), fmt.Errorf("failed to archive item %s: %w", id, err)
		}
		item["type_id"] = strconv.Itoa(typeID)
		newItems = append(newItems, item)
	}

	log.Info().Int("type", typeID).Int("new_items", len(newItems)).Msg("Archived items")

	if len(newItems) > 0 {
		snapshotPath := filepath.Join(typeDir, fmt.Sprintf("type_%d.parquet", typeID))
		if err := appendSnapshot(snapshotPath, newItems); err != nil {
			log.Error().Err(err).Int("type", typeID).Msg("Failed to update columnar snapshot")
		}
	}
	return len(newItems), nil
}

func itemID(item map[string]any, fallback int) string {
	for _, key := range []string{"id", "ID"} {
		if v := models.AsString(item[key]); v != "" {
			return v
		}
	}
	return strconv.Itoa(fallback)
}

// appendSnapshot folds the new rows into the type's parquet file. The
// format has no in-place append, so existing rows are read back, merged
// and rewritten. Every value is stored as a string, matching the archive
// the downstream reporting expects.
func appendSnapshot(path string, newItems []map[string]any) error {
	rows := make([]map[string]any, 0, len(newItems))
	columns := map[string]bool{}

	existing, err := readSnapshot(path)
	if err != nil {
		return err
	}
	for _, row := range existing {
		rows = append(rows, row)
		for col := range row {
			columns[col] = true
		}
	}
	for _, item := range newItems {
		row := flattenRow(item)
		rows = append(rows, row)
		for col := range row {
			columns[col] = true
		}
	}

	group := parquet.Group{}
	for col := range columns {
		group[col] = parquet.Optional(parquet.String())
	}
	schema := parquet.NewSchema("items", group)

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}
	writer := parquet.NewGenericWriter[map[string]any](f, schema)
	if _, err := writer.Write(rows); err != nil {
		f.Close()
		return fmt.Errorf("failed to write snapshot rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		f.Close()
		return fmt.Errorf("failed to finalize snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func readSnapshot(path string) ([]map[string]any, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	// Map rows carry no schema of their own, so the reader must take the
	// file's schema explicitly.
	reader := parquet.NewGenericReader[map[string]any](pf, pf.Schema())
	defer reader.Close()

	var rows []map[string]any
	buf := make([]map[string]any, 64)
	for {
		for i := range buf {
			buf[i] = map[string]any{}
		}
		n, err := reader.Read(buf)
		for i := 0; i < n; i++ {
			row := make(map[string]any, len(buf[i]))
			for k, v := range buf[i] {
				row[k] = snapshotString(v)
			}
			rows = append(rows, row)
		}
		if err != nil {
			break
		}
	}
	return rows, nil
}

// flattenRow normalizes one item into flat string-valued columns, nested
// objects getting dot-joined keys.
func flattenRow(item map[string]any) map[string]any {
	row := make(map[string]any)
	flattenInto(row, "", item)
	return row
}

func flattenInto(row map[string]any, prefix string, value any) {
	switch v := value.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			flattenInto(row, key, v[k])
		}
	case []any:
		data, err := json.Marshal(v)
		if err != nil {
			row[prefix] = fmt.Sprint(v)
			return
		}
		row[prefix] = string(data)
	default:
		row[prefix] = snapshotString(value)
	}
}

func snapshotString(v any) string {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return models.AsString(v)
}
