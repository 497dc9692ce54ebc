package models

// FieldMeta describes one custom field of a smart-process item type, as
// returned by the CRM's field-metadata endpoint.
type FieldMeta struct {
	Title      string         `json:"title"`
	Type       string         `json:"type"`
	IsRequired any            `json:"isRequired"`
	IsMultiple any            `json:"isMultiple"`
	Settings   map[string]any `json:"settings"`
	Items      []EnumItem     `json:"items"`
}

// EnumItem is one allowed value of an enumeration field.
type EnumItem struct {
	ID    any    `json:"ID"`
	Value string `json:"VALUE"`
}
