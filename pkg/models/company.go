package models

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Company is a CRM company record: the field map exactly as the CRM
// returned it, keyed by the CRM's own vocabulary.
type Company map[string]any

// ID returns the CRM-assigned numeric identifier as a string, or "" when
// the record has none.
func (co Company) ID() string {
	return co.StringField("ID")
}

// ExternalUUID returns the source-system identifier stored on the company,
// or "" when the company has not been linked yet.
func (co Company) ExternalUUID() string {
	return co.StringField("UF_UNF_UUID")
}

// StringField returns the named field coerced to a string. Absent and
// null fields yield "".
func (co Company) StringField(key string) string {
	return AsString(co[key])
}

// AsString renders a decoded JSON scalar as a string. JSON numbers come
// back as float64, so integral values are printed without an exponent or
// trailing fraction.
func AsString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(t)
	}
}
