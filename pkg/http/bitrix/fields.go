package bitrix

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/aversoft/b24sync/pkg/models"
)

// FieldMetadata maps custom-field keys to their declared metadata for one
// smart-process item type.
type FieldMetadata map[string]models.FieldMeta

// Lookup resolves a key case-insensitively, the way the portal reports
// keys inconsistently between listing and metadata endpoints.
func (fm FieldMetadata) Lookup(key string) (models.FieldMeta, bool) {
	if m, ok := fm[key]; ok {
		return m, true
	}
	for k, m := range fm {
		if strings.EqualFold(k, key) {
			return m, true
		}
	}
	return models.FieldMeta{}, false
}

// CustomKeys returns the UF_* keys the metadata declares, sorted for
// deterministic back-filling.
func (fm FieldMetadata) CustomKeys() []string {
	keys := lo.Filter(lo.Keys(fm), func(k string, _ int) bool {
		return strings.HasPrefix(strings.ToUpper(k), "UF_")
	})
	sort.Strings(keys)
	return keys
}

// ItemFields fetches the custom-field metadata for one item type.
func (c *Client) ItemFields(ctx context.Context, typeID int) (FieldMetadata, error) {
	resp, err := c.Call(ctx, "crm.item.fields", map[string]any{"entityTypeId": typeID})
	if err != nil {
		return nil, err
	}

	result := resp.Result()
	if m, ok := result.(map[string]any); ok {
		if inner, ok := m["fields"].(map[string]any); ok {
			result = inner
		}
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("crm.item.fields: failed to re-encode result: %w", err)
	}
	meta := FieldMetadata{}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("crm.item.fields: unexpected result shape: %w", err)
	}
	return meta, nil
}

// AugmentItems rewrites every custom field of every item into a uniform
// value-plus-metadata shape, resolving display titles where the declared
// type allows it. Keys the metadata declares but an item lacks are
// back-filled with a null value, so every item of a type carries the same
// schema.
func AugmentItems(items []map[string]any, meta FieldMetadata) {
	customKeys := meta.CustomKeys()
	for _, item := range items {
		// Wrap the item's own values first; back-filled placeholders are
		// already in their final shape and must not be wrapped again.
		for key, val := range item {
			if !strings.HasPrefix(strings.ToLower(key), "uf") {
				continue
			}
			item[key] = augmentValue(key, val, meta)
		}
		for _, key := range customKeys {
			if _, present := item[key]; !present {
				item[key] = augmentValue(key, nil, meta)
			}
		}
	}
}

func augmentValue(key string, val any, meta FieldMetadata) map[string]any {
	m, _ := meta.Lookup(key)
	fv := map[string]any{
		"title":      m.Title,
		"type":       m.Type,
		"isRequired": m.IsRequired,
		"isMultiple": m.IsMultiple,
		"settings":   m.Settings,
		"items":      m.Items,
		"value":      val,
	}
	if val == nil {
		return fv
	}

	switch m.Type {
	case "enumeration":
		titles := titleIndex(m.Items)
		if list, ok := val.([]any); ok {
			resolved := make([]string, 0, len(list))
			for _, v := range list {
				resolved = append(resolved, displayTitle(titles, v))
			}
			fv["titles"] = resolved
		} else {
			fv["titleValue"] = displayTitle(titles, val)
		}
	case "crm_status", "crm":
		fv["titleValue"] = displayTitle(titleIndex(m.Items), val)
	case "boolean":
		fv["value"] = val == true || models.AsString(val) == "Y"
	case "file":
		if _, isMap := val.(map[string]any); !isMap {
			fv["value"] = map[string]any{"id": val, "fileId": val}
		}
	}
	return fv
}

func titleIndex(items []models.EnumItem) map[string]string {
	index := make(map[string]string, len(items))
	for _, it := range items {
		index[models.AsString(it.ID)] = it.Value
	}
	return index
}

func displayTitle(index map[string]string, v any) string {
	s := models.AsString(v)
	if title, ok := index[s]; ok && title != "" {
		return title
	}
	return s
}
