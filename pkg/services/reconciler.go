package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/aversoft/b24sync/pkg/http/bitrix"
	"github.com/aversoft/b24sync/pkg/http/unf"
	"github.com/aversoft/b24sync/pkg/journal"
	"github.com/aversoft/b24sync/pkg/models"
	"github.com/aversoft/b24sync/pkg/parser"
)

// Reconciler drives the ERP-to-CRM customer sync: for every source
// customer it finds or creates the CRM company, merges fields and
// attaches bank details, journaling every side effect.
type Reconciler struct {
	bitrix  bitrix.ClientInterface
	source  unf.ClientInterface
	matcher *CompanyMatcher
	journal journal.Sink
}

// NewReconciler creates a reconciler over the given clients and journal.
func NewReconciler(bitrixClient bitrix.ClientInterface, sourceClient unf.ClientInterface, sink journal.Sink) *Reconciler {
	return &Reconciler{
		bitrix:  bitrixClient,
		source:  sourceClient,
		matcher: NewCompanyMatcher(bitrixClient),
		journal: sink,
	}
}

// Run processes the full customer listing sequentially and returns the
// aggregate counters. A failed initial fetch is fatal; per-record
// failures are journaled and counted without aborting the run.
func (r *Reconciler) Run(ctx context.Context) (models.Stats, error) {
	customers, err := r.source.ListCustomers(ctx)
	if err != nil {
		return models.Stats{}, err
	}

	stats := models.Stats{Total: len(customers)}
	log.Info().Int("customers", stats.Total).Msg("Fetched customer listing from ERP")

	for i := range customers {
		c := &customers[i]
		outcome, err := r.ProcessCustomer(ctx, c)
		if err != nil {
			log.Error().Err(err).Str("customer", c.Code).Msg("Customer processing failed")
			stats.Errors++
			r.write(journal.Entry{
				SourceID: c.Code,
				Action:   journal.ActionException,
				Request:  journal.JSONString(c),
				Response: err.Error(),
			})
			continue
		}
		stats.Apply(outcome)
	}
	return stats, nil
}

// ProcessCustomer handles one source record: skip, update or create.
func (r *Reconciler) ProcessCustomer(ctx context.Context, c *models.Customer) (models.Outcome, error) {
	if c.Unprocessable() {
		r.write(journal.Entry{
			SourceID: c.Code,
			Action:   journal.ActionSkipped,
			Note:     "missing key identifiers",
		})
		return models.OutcomeSkipped, nil
	}

	found, err := r.matcher.FindExisting(ctx, c.Identifiers())
	if err != nil {
		return "", err
	}

	fields := ToBitrixFields(c)
	if found != nil {
		return r.updateExisting(ctx, c, found, fields)
	}
	return r.createNew(ctx, c, fields)
}

func (r *Reconciler) updateExisting(ctx context.Context, c *models.Customer, found models.Company, fields map[string]any) (models.Outcome, error) {
	companyID := found.ID()

	// The external identifier is set once and never overwritten.
	if found.ExternalUUID() == "" && c.Code != "" {
		fields["UF_UNF_UUID"] = c.Code
	}

	resp, err := r.bitrix.UpdateCompany(ctx, companyID, fields)
	respText := journal.JSONString(resp)
	if err != nil {
		respText = err.Error()
		log.Warn().Err(err).Str("company", companyID).Msg("Company update failed")
	}
	r.write(journal.Entry{
		SourceID:      c.Code,
		DestinationID: companyID,
		Action:        journal.ActionUpdated,
		Request:       journal.JSONString(fields),
		Response:      respText,
	})

	if c.BankAccountLine != "" {
		r.attachBankDetail(ctx, companyID, c)
	}
	return models.OutcomeUpdated, nil
}

func (r *Reconciler) createNew(ctx context.Context, c *models.Customer, fields map[string]any) (models.Outcome, error) {
	if c.Code != "" {
		fields["UF_UNF_UUID"] = c.Code
	}

	newID, err := r.bitrix.AddCompany(ctx, fields)
	if err != nil {
		r.write(journal.Entry{
			SourceID: c.Code,
			Action:   journal.ActionErrorCreate,
			Request:  journal.JSONString(fields),
			Response: err.Error(),
		})
		return models.OutcomeErrorCreate, nil
	}

	r.write(journal.Entry{
		SourceID:      c.Code,
		DestinationID: newID,
		Action:        journal.ActionCreated,
		Request:       journal.JSONString(fields),
		Response:      journal.JSONString(map[string]any{"company_id": newID}),
	})

	if c.BankAccountLine != "" {
		r.attachBankDetail(ctx, newID, c)
	}
	return models.OutcomeCreated, nil
}

// attachBankDetail parses the customer's bank string and attaches the
// result to the company. Failures are journaled, never propagated: the
// record's primary outcome stands regardless.
func (r *Reconciler) attachBankDetail(ctx context.Context, companyID string, c *models.Customer) {
	detail := parser.ParseBankString(c.BankAccountLine)
	if detail.Empty() {
		return
	}

	fields := bankDetailFields(companyID, detail)
	resp, err := r.bitrix.AddBankDetail(ctx, fields)
	respText := journal.JSONString(resp)
	if err != nil {
		respText = journal.JSONString(map[string]any{"error": err.Error()})
	}
	r.write(journal.Entry{
		SourceID:      c.Code,
		DestinationID: companyID,
		Action:        journal.ActionBankDetailAdded,
		Request:       journal.JSONString(fields),
		Response:      respText,
	})
}

func bankDetailFields(companyID string, d models.BankDetail) map[string]any {
	return map[string]any{
		"ENTITY_ID":                  companyID,
		"ENTITY_TYPE_ID":             "COMPANY",
		"NAME":                       d.BankName,
		"SORT":                       100,
		"IS_DEFAULT":                 "Y",
		"CODE":                       "MAIN",
		"ACCOUNT":                    d.AccountNumber,
		"BANK_NAME":                  d.BankName,
		"BANK_BIC":                   d.RoutingCode,
		"BANK_CORRESPONDENT_ACCOUNT": d.CorrespondentAccount,
		"CURRENCY":                   d.Currency,
	}
}

func (r *Reconciler) write(e journal.Entry) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	if err := r.journal.Write(e); err != nil {
		log.Warn().Err(err).Str("action", e.Action).Msg("Failed to write journal entry")
	}
}
