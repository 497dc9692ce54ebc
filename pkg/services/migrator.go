package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/aversoft/b24sync/pkg/http/bitrix"
	"github.com/aversoft/b24sync/pkg/journal"
	"github.com/aversoft/b24sync/pkg/models"
)

// Migrator copies companies, their requisites and bank details from one
// portal to another, matching against the target to avoid duplicates.
type Migrator struct {
	source  bitrix.ClientInterface
	target  bitrix.ClientInterface
	matcher *CompanyMatcher
	journal journal.Sink
}

// NewMigrator creates a migrator from the source portal to the target.
func NewMigrator(source, target bitrix.ClientInterface, sink journal.Sink) *Migrator {
	return &Migrator{
		source:  source,
		target:  target,
		matcher: NewCompanyMatcher(target),
		journal: sink,
	}
}

var skippedCompanyFields = map[string]bool{
	"ID":          true,
	"DATE_CREATE": true,
	"DATE_MODIFY": true,
}

// migrationFields strips a company down to the fields worth carrying to
// the target portal.
func migrationFields(c models.Company) map[string]any {
	fields := make(map[string]any, len(c))
	for k, v := range c {
		if v == nil || skippedCompanyFields[k] || strings.HasPrefix(k, "ORIGIN_") {
			continue
		}
		fields[k] = v
	}
	return fields
}

// Run walks every company of the source portal. A failed company listing
// is fatal; per-company failures are journaled and counted.
func (m *Migrator) Run(ctx context.Context) (models.Stats, error) {
	companies, err := m.source.FetchAll(ctx, "crm.company.list", map[string]any{
		"select": []string{"*", "UF_*"},
	})
	if err != nil {
		return models.Stats{}, err
	}

	stats := models.Stats{Total: len(companies)}
	log.Info().Int("companies", stats.Total).Msg("Loaded companies from source portal")

	for _, raw := range companies {
		old := models.Company(raw)
		oldID := old.ID()
		log.Info().Str("old_id", oldID).Str("title", old.StringField("TITLE")).Msg("Migrating company")

		newID, err := m.migrateCompany(ctx, old, &stats)
		if err != nil {
			log.Error().Err(err).Str("old_id", oldID).Msg("Company migration failed")
			stats.Errors++
			m.write(journal.Entry{
				SourceID: oldID,
				Action:   journal.ActionException,
				Response: err.Error(),
			})
			continue
		}
		if newID == "" {
			continue
		}
		m.copyRequisites(ctx, oldID, newID)
	}
	return stats, nil
}

func (m *Migrator) migrateCompany(ctx context.Context, old models.Company, stats *models.Stats) (string, error) {
	oldID := old.ID()
	found, err := m.matcher.FindMigrated(ctx, models.Identifiers{
		TaxID:     old.StringField("UF_IINBIN"),
		ShortName: old.StringField("TITLE"),
		FullName:  old.StringField("COMPANY_FULL_NAME"),
	})
	if err != nil {
		return "", err
	}

	fields := migrationFields(old)
	if found != nil {
		newID := found.ID()
		resp, err := m.target.UpdateCompany(ctx, newID, fields)
		respText := journal.JSONString(resp)
		if err != nil {
			respText = err.Error()
		}
		m.write(journal.Entry{
			SourceID:      oldID,
			DestinationID: newID,
			Action:        journal.ActionUpdateCompany,
			Request:       journal.JSONString(fields),
			Response:      respText,
		})
		stats.Found++
		stats.Updated++
		return newID, nil
	}

	newID, err := m.target.AddCompany(ctx, fields)
	if err != nil {
		m.write(journal.Entry{
			SourceID: oldID,
			Action:   journal.ActionErrorCreate,
			Request:  journal.JSONString(fields),
			Response: err.Error(),
		})
		stats.Errors++
		return "", nil
	}
	m.write(journal.Entry{
		SourceID:      oldID,
		DestinationID: newID,
		Action:        journal.ActionCreateCompany,
		Request:       journal.JSONString(fields),
		Response:      journal.JSONString(map[string]any{"company_id": newID}),
	})
	stats.Created++
	return newID, nil
}

var skippedRequisiteFields = map[string]bool{
	"ID":          true,
	"ENTITY_ID":   true,
	"PRESET_ID":   true,
	"DATE_CREATE": true,
	"DATE_MODIFY": true,
}

var skippedBankFields = map[string]bool{
	"ID":          true,
	"ENTITY_ID":   true,
	"DATE_CREATE": true,
	"DATE_MODIFY": true,
}

// copyRequisites recreates the source company's requisites and their bank
// details under the migrated company. Failures here never abort the
// company's migration.
func (m *Migrator) copyRequisites(ctx context.Context, oldID, newID string) {
	requisites, err := m.source.ListRequisites(ctx, oldID)
	if err != nil {
		log.Warn().Err(err).Str("old_id", oldID).Msg("Failed to list requisites")
		return
	}
	log.Info().Str("old_id", oldID).Int("requisites", len(requisites)).Msg("Copying requisites")

	for _, rq := range requisites {
		fields := filteredFields(rq, skippedRequisiteFields)
		fields["ENTITY_ID"] = newID
		fields["ENTITY_TYPE_ID"] = 4

		newReqID, err := m.target.AddRequisite(ctx, fields)
		respText := journal.JSONString(map[string]any{"requisite_id": newReqID})
		if err != nil {
			respText = err.Error()
		}
		m.write(journal.Entry{
			SourceID:      oldID,
			DestinationID: newReqID,
			Action:        journal.ActionCreateRequisite,
			Request:       journal.JSONString(fields),
			Response:      respText,
		})
		if err != nil || newReqID == "" {
			continue
		}

		m.copyBankDetails(ctx, oldID, models.AsString(rq["ID"]), newReqID)
	}
}

func (m *Migrator) copyBankDetails(ctx context.Context, oldID, oldReqID, newReqID string) {
	banks, err := m.source.ListBankDetails(ctx, oldReqID)
	if err != nil {
		log.Warn().Err(err).Str("requisite", oldReqID).Msg("Failed to list bank details")
		return
	}

	for _, bd := range banks {
		fields := filteredFields(bd, skippedBankFields)
		fields["ENTITY_ID"] = newReqID

		resp, err := m.target.AddBankDetail(ctx, fields)
		respText := journal.JSONString(resp)
		if err != nil {
			respText = err.Error()
		}
		m.write(journal.Entry{
			SourceID:      oldID,
			DestinationID: newReqID,
			Action:        journal.ActionCreateBank,
			Request:       journal.JSONString(fields),
			Response:      respText,
		})
	}
}

func filteredFields(row map[string]any, skipped map[string]bool) map[string]any {
	fields := make(map[string]any, len(row))
	for k, v := range row {
		if skipped[k] {
			continue
		}
		fields[k] = v
	}
	return fields
}

func (m *Migrator) write(e journal.Entry) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	if err := m.journal.Write(e); err != nil {
		log.Warn().Err(err).Str("action", e.Action).Msg("Failed to write journal entry")
	}
}
