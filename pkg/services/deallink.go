package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/aversoft/b24sync/pkg/http/bitrix"
	"github.com/aversoft/b24sync/pkg/http/unf"
	"github.com/aversoft/b24sync/pkg/journal"
	"github.com/aversoft/b24sync/pkg/models"
)

// LinkResult is the business outcome of one deal-link request. Business
// errors still travel back over a successful HTTP response; only
// unexpected failures surface as errors from LinkDeal.
type LinkResult struct {
	Status  string   `json:"status"`
	Message string   `json:"message,omitempty"`
	Note    string   `json:"note,omitempty"`
	Missing []string `json:"missing,omitempty"`
}

// DealLinker handles the webhook-triggered single-record flow: push the
// company referenced by a deal to the ERP and store the identifier the
// ERP assigned.
type DealLinker struct {
	bitrix  bitrix.ClientInterface
	source  unf.ClientInterface
	journal journal.Sink
}

// NewDealLinker creates a linker over the given clients and journal.
func NewDealLinker(bitrixClient bitrix.ClientInterface, sourceClient unf.ClientInterface, sink journal.Sink) *DealLinker {
	return &DealLinker{
		bitrix:  bitrixClient,
		source:  sourceClient,
		journal: sink,
	}
}

// LinkDeal pushes the company behind dealID to the ERP. All business
// outcomes return a LinkResult and a nil error; a non-nil error means an
// unexpected failure the transport layer should report as such.
func (d *DealLinker) LinkDeal(ctx context.Context, dealID string) (*LinkResult, error) {
	deal, err := d.bitrix.GetDeal(ctx, dealID)
	if err != nil {
		d.writeException(dealID, "", err)
		return nil, err
	}

	companyID := models.AsString(deal["COMPANY_ID"])
	if companyID == "" {
		d.write(journal.Entry{
			SourceID: dealID,
			Action:   journal.ActionError,
			Request:  journal.JSONString(deal),
			Note:     "no company_id",
		})
		return &LinkResult{Status: "error", Message: "deal has no company_id"}, nil
	}

	company, err := d.bitrix.GetCompany(ctx, companyID)
	if err != nil {
		d.writeException(dealID, companyID, err)
		return nil, err
	}

	card := ExtractCompanyCard(company)
	if missing := card.MissingFields(); len(missing) > 0 {
		d.write(journal.Entry{
			SourceID:      dealID,
			DestinationID: companyID,
			Action:        journal.ActionValidationFailed,
			Request:       journal.JSONString(card),
			Note:          "missing:" + strings.Join(missing, ","),
		})
		return &LinkResult{Status: "error", Message: "missing required fields", Missing: missing}, nil
	}

	values := card.SourceValues()
	resp, err := d.source.PushCustomer(ctx, values)
	if err != nil {
		d.writeException(dealID, companyID, err)
		return nil, err
	}
	d.write(journal.Entry{
		SourceID:      dealID,
		DestinationID: companyID,
		Action:        journal.ActionPushed,
		Request:       journal.JSONString(values),
		Response:      journal.JSONString(resp),
	})

	if resp.Succeeded() {
		if cid := resp.CustomerID(); cid != "" {
			d.storeCustomerID(ctx, dealID, companyID, cid, journal.ActionSetUUID)
		}
		return &LinkResult{Status: "ok"}, nil
	}

	// The ERP rejects re-registration of a known tax ID; in that case the
	// customer already exists there and a plain lookup recovers its id.
	if strings.Contains(strings.ToLower(resp.Message), "duplicate") {
		return d.linkByLookup(ctx, dealID, companyID, card.TaxID)
	}

	d.write(journal.Entry{
		SourceID:      dealID,
		DestinationID: companyID,
		Action:        journal.ActionSourceError,
		Request:       journal.JSONString(values),
		Response:      journal.JSONString(resp),
		Note:          resp.Message,
	})
	return &LinkResult{Status: "error", Message: resp.Message}, nil
}

func (d *DealLinker) linkByLookup(ctx context.Context, dealID, companyID, taxID string) (*LinkResult, error) {
	lookup, err := d.source.LookupCustomerByTaxID(ctx, taxID)
	respText := ""
	if err != nil {
		respText = err.Error()
	} else {
		respText = journal.JSONString(lookup)
	}
	d.write(journal.Entry{
		SourceID:      dealID,
		DestinationID: companyID,
		Action:        journal.ActionSourceLookup,
		Request:       journal.JSONString(map[string]string{"customer_iin_bin": taxID}),
		Response:      respText,
	})

	if err == nil && lookup.Succeeded() && lookup.CustomerID() != "" {
		d.storeCustomerID(ctx, dealID, companyID, lookup.CustomerID(), journal.ActionSetUUIDFromLookup)
		return &LinkResult{Status: "ok", Note: "found_by_bin"}, nil
	}

	d.write(journal.Entry{
		SourceID:      dealID,
		DestinationID: companyID,
		Action:        journal.ActionDuplicateNoResult,
		Response:      respText,
	})
	return &LinkResult{Status: "error", Message: "duplicate_bin_no_result"}, nil
}

func (d *DealLinker) storeCustomerID(ctx context.Context, dealID, companyID, customerID, action string) {
	fields := map[string]any{"UF_UNF_UUID": customerID}
	resp, err := d.bitrix.UpdateCompany(ctx, companyID, fields)
	respText := journal.JSONString(resp)
	if err != nil {
		respText = err.Error()
		log.Warn().Err(err).Str("company", companyID).Msg("Failed to store customer id on company")
	}
	d.write(journal.Entry{
		SourceID:      dealID,
		DestinationID: companyID,
		Action:        action,
		Request:       journal.JSONString(fields),
		Response:      respText,
	})
}

func (d *DealLinker) writeException(dealID, companyID string, err error) {
	d.write(journal.Entry{
		SourceID:      dealID,
		DestinationID: companyID,
		Action:        journal.ActionException,
		Response:      err.Error(),
	})
}

func (d *DealLinker) write(e journal.Entry) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	if err := d.journal.Write(e); err != nil {
		log.Warn().Err(err).Str("action", e.Action).Msg("Failed to write journal entry")
	}
}
