package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/aversoft/b24sync/pkg/http/bitrix"
	"github.com/aversoft/b24sync/pkg/models"
)

// TypeFinder discovers smart-process types that are not yet present in a
// master list and keeps that list up to date.
type TypeFinder struct {
	client bitrix.ClientInterface
}

// NewTypeFinder creates a finder backed by the given portal client.
func NewTypeFinder(client bitrix.ClientInterface) *TypeFinder {
	return &TypeFinder{client: client}
}

// FindNew fetches all smart-process types, compares them against the
// master list at masterPath and returns the ones not seen before.
// When sinceHours is positive, only recently created types count as new;
// types whose creation date cannot be parsed are kept to stay on the
// safe side.
func (t *TypeFinder) FindNew(ctx context.Context, masterPath string, sinceHours int) ([]map[string]any, error) {
	all, err := t.client.FetchAll(ctx, "crm.type.list", map[string]any{})
	if err != nil {
		return nil, fmt.Errorf("failed to list smart process types: %w", err)
	}

	known, err := loadMaster(masterPath)
	if err != nil {
		return nil, err
	}

	fresh := lo.Filter(all, func(row map[string]any, _ int) bool {
		id := typeRowID(row)
		return id != "" && !known[id]
	})

	if sinceHours > 0 {
		cutoff := time.Now().Add(-time.Duration(sinceHours) * time.Hour)
		fresh = lo.Filter(fresh, func(row map[string]any, _ int) bool {
			created, ok := typeCreatedAt(row)
			if !ok {
				return true
			}
			return created.After(cutoff)
		})
	}

	log.Info().Int("total", len(all)).Int("new", len(fresh)).Msg("Scanned smart process types")
	return fresh, nil
}

// Record writes the new types to newPath and merges them into the master
// list so the next run does not report them again.
func (t *TypeFinder) Record(masterPath, newPath string, fresh []map[string]any) error {
	if err := writeJSON(newPath, fresh); err != nil {
		return fmt.Errorf("failed to write new types: %w", err)
	}
	if len(fresh) == 0 {
		return nil
	}

	master, err := readMaster(masterPath)
	if err != nil {
		return err
	}
	seen := lo.SliceToMap(master, func(row map[string]any) (string, bool) {
		return typeRowID(row), true
	})
	for _, row := range fresh {
		if id := typeRowID(row); id != "" && !seen[id] {
			master = append(master, row)
			seen[id] = true
		}
	}
	if err := writeJSON(masterPath, master); err != nil {
		return fmt.Errorf("failed to update master list: %w", err)
	}
	return nil
}

func loadMaster(path string) (map[string]bool, error) {
	rows, err := readMaster(path)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(rows))
	for _, row := range rows {
		if id := typeRowID(row); id != "" {
			known[id] = true
		}
	}
	return known, nil
}

func readMaster(path string) ([]map[string]any, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read master list: %w", err)
	}
	var rows []map[string]any
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse master list %s: %w", path, err)
	}
	return rows, nil
}

func writeJSON(path string, rows []map[string]any) error {
	if rows == nil {
		rows = []map[string]any{}
	}
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func typeRowID(row map[string]any) string {
	for _, key := range []string{"ID", "id"} {
		if v := models.AsString(row[key]); v != "" {
			return v
		}
	}
	return ""
}

var typeDateKeys = []string{"DATE_CREATE", "DATE_INSERT", "dateCreate", "created", "DATE_CREATED"}

func typeCreatedAt(row map[string]any) (time.Time, bool) {
	for _, key := range typeDateKeys {
		raw, ok := row[key]
		if !ok || raw == nil {
			continue
		}
		if ts, ok := parseLooseTime(raw); ok {
			return ts, true
		}
	}
	return time.Time{}, false
}

// parseLooseTime accepts the date shapes the portal emits across API
// versions: unix epoch numbers, RFC3339 and bare dates.
func parseLooseTime(raw any) (time.Time, bool) {
	switch v := raw.(type) {
	case float64:
		return time.Unix(int64(v), 0), true
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return time.Unix(n, 0), true
		}
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 1_000_000_000 {
			return time.Unix(n, 0), true
		}
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
			if ts, err := time.Parse(layout, v); err == nil {
				return ts, true
			}
		}
	}
	return time.Time{}, false
}
