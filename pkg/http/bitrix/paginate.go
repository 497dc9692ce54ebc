package bitrix

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aversoft/b24sync/pkg/models"
)

// pageSize is the portal's fixed listing page size. A shorter page is one
// of the end-of-stream signals.
const pageSize = 50

// cursorStop is returned by a strategy that decided the listing is done.
const cursorStop = -1

// cursorStrategy inspects one page response and either proposes the next
// start cursor (cursorStop to finish) or declines with ok=false. The
// portal's pagination metadata is inconsistent across endpoint versions,
// so FetchAll evaluates an ordered strategy list and the first opinion
// wins.
type cursorStrategy func(result, top map[string]any, start, pageLen int) (next int, ok bool)

var cursorStrategies = []cursorStrategy{
	explicitNextCursor,
	moreFlagCursor,
	shortPageCursor,
	advanceByPageCursor,
}

// explicitNextCursor honors a numeric next/next_start/start field that
// differs from the current cursor.
func explicitNextCursor(result, top map[string]any, start, pageLen int) (int, bool) {
	for _, container := range []map[string]any{result, top} {
		if container == nil {
			continue
		}
		for _, key := range []string{"next", "next_start", "start"} {
			v, present := container[key]
			if !present {
				continue
			}
			ns, err := strconv.Atoi(models.AsString(v))
			if err != nil || ns == 0 || ns == start {
				continue
			}
			return ns, true
		}
	}
	return 0, false
}

// moreFlagCursor advances by the page length when the response says more
// rows exist.
func moreFlagCursor(result, top map[string]any, start, pageLen int) (int, bool) {
	for _, container := range []map[string]any{result, top} {
		if container == nil {
			continue
		}
		if more, ok := container["more"].(bool); ok && more {
			return start + pageLen, true
		}
	}
	return 0, false
}

// shortPageCursor treats a page shorter than the portal page size as the
// last one.
func shortPageCursor(result, top map[string]any, start, pageLen int) (int, bool) {
	if pageLen < pageSize {
		return cursorStop, true
	}
	return 0, false
}

// advanceByPageCursor is the length-based fallback for responses with no
// usable pagination metadata at all.
func advanceByPageCursor(result, top map[string]any, start, pageLen int) (int, bool) {
	return start + pageLen, true
}

// FetchAll walks a cursor-paginated listing endpoint and materializes the
// full result list. A malformed page shape aborts the whole fetch; callers
// rely on that rather than silently dropping rows.
func (c *Client) FetchAll(ctx context.Context, method string, params map[string]any) ([]map[string]any, error) {
	var all []map[string]any
	start := 0

	for {
		p := make(map[string]any, len(params)+1)
		for k, v := range params {
			p[k] = v
		}
		p["start"] = start

		resp, err := c.Call(ctx, method, p)
		if err != nil {
			return nil, err
		}

		page, err := extractPage(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", method, err)
		}
		if len(page) == 0 {
			break
		}
		for _, row := range page {
			if m, ok := row.(map[string]any); ok {
				all = append(all, m)
			}
		}

		result, _ := resp.Result().(map[string]any)
		top, _ := resp.Body.(map[string]any)
		next := cursorStop
		for _, strategy := range cursorStrategies {
			if ns, ok := strategy(result, top, start, len(page)); ok {
				next = ns
				break
			}
		}
		if next == cursorStop {
			break
		}
		start = next
	}

	return all, nil
}

// extractPage pulls the item list out of a page response, tolerating the
// envelope variants different endpoint versions produce.
func extractPage(body any) ([]any, error) {
	switch v := body.(type) {
	case []any:
		return v, nil
	case map[string]any:
		result, present := v["result"]
		if !present || result == nil {
			return nil, fmt.Errorf("unexpected response structure")
		}
		return itemsFromResult(result), nil
	default:
		return nil, fmt.Errorf("unexpected response structure")
	}
}

func itemsFromResult(result any) []any {
	switch r := result.(type) {
	case []any:
		return r
	case map[string]any:
		for _, key := range []string{"types", "list", "items", "result"} {
			v, present := r[key]
			if !present {
				continue
			}
			if list, ok := v.([]any); ok {
				return list
			}
			if m, ok := v.(map[string]any); ok {
				if list, ok := m["items"].([]any); ok {
					return list
				}
			}
		}
		// Last resort: any list-valued key.
		for _, v := range r {
			if list, ok := v.([]any); ok {
				return list
			}
		}
	}
	return nil
}
