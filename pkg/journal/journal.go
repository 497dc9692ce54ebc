package journal

import (
	"encoding/json"
	"fmt"
	"time"
)

// Entry is one append-only record of an action taken against either
// system. Entries are written once and never mutated.
type Entry struct {
	Timestamp     time.Time
	SourceID      string
	DestinationID string
	Action        string
	Request       string
	Response      string
	Note          string
}

// Action kinds written by the reconciler, migrator and deal linker.
const (
	ActionCreated           = "created"
	ActionUpdated           = "updated"
	ActionSkipped           = "skipped"
	ActionErrorCreate       = "error_create"
	ActionBankDetailAdded   = "bankdetail_added"
	ActionException         = "exception"
	ActionError             = "error"
	ActionValidationFailed  = "validation_failed"
	ActionPushed            = "pushed"
	ActionSourceError       = "source_error"
	ActionSourceLookup      = "source_lookup"
	ActionSetUUID           = "set_uuid"
	ActionSetUUIDFromLookup = "set_uuid_from_lookup"
	ActionDuplicateNoResult = "duplicate_bin_no_result"
	ActionUpdateCompany     = "update_company"
	ActionCreateCompany     = "create_company"
	ActionCreateRequisite   = "create_requisite"
	ActionCreateBank        = "create_bank"
)

// Sink is an append-only destination for journal entries.
type Sink interface {
	Write(e Entry) error
	Close() error
}

// JSONString serializes v for a journal column. Serialization failures
// degrade to fmt formatting; the journal never blocks a run.
func JSONString(v any) string {
	if v == nil {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
