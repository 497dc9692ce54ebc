package services

import (
	"context"
	"testing"

	"github.com/aversoft/b24sync/db"
	"github.com/aversoft/b24sync/pkg/http/bitrix"
	"github.com/aversoft/b24sync/pkg/journal"
	"github.com/aversoft/b24sync/pkg/models"
)

func TestMigrateCreatesCompanyWithRequisites(t *testing.T) {
	source := bitrix.NewMockClient()
	source.Items = []map[string]any{{
		"ID":          "10",
		"TITLE":       "Acme",
		"UF_IINBIN":   "123456789012",
		"DATE_CREATE": "2024-01-01",
		"ORIGIN_ID":   "ext-1",
	}}
	source.RequisiteRows = []map[string]any{{
		"ID":        "200",
		"ENTITY_ID": "10",
		"PRESET_ID": "1",
		"NAME":      "Main requisite",
	}}
	source.BankDetailRows = []map[string]any{{
		"ID":        "300",
		"ENTITY_ID": "200",
		"ACCOUNT":   "KZ1234567890123456",
	}}

	target := bitrix.NewMockClient()
	target.AddedCompanyID = "501"
	target.AddedRequisiteID = "601"
	sink := db.NewMockStore()

	stats, err := NewMigrator(source, target, sink).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if stats.Created != 1 || stats.Total != 1 {
		t.Errorf("Expected 1 created of 1 total, got %+v", stats)
	}

	if len(target.AddedCompanies) != 1 {
		t.Fatalf("Expected 1 company created, got %d", len(target.AddedCompanies))
	}
	fields := target.AddedCompanies[0]
	if fields["TITLE"] != "Acme" {
		t.Errorf("Expected TITLE to carry over, got %v", fields["TITLE"])
	}
	// Portal-owned and origin fields must not carry over
	for _, key := range []string{"ID", "DATE_CREATE", "ORIGIN_ID"} {
		if _, ok := fields[key]; ok {
			t.Errorf("Expected %s to be stripped, got %v", key, fields[key])
		}
	}

	if len(target.AddedRequisites) != 1 {
		t.Fatalf("Expected 1 requisite created, got %d", len(target.AddedRequisites))
	}
	rq := target.AddedRequisites[0]
	if rq["ENTITY_ID"] != "501" {
		t.Errorf("Expected requisite rebound to company 501, got %v", rq["ENTITY_ID"])
	}
	if _, ok := rq["PRESET_ID"]; ok {
		t.Errorf("Expected PRESET_ID to be stripped, got %v", rq["PRESET_ID"])
	}

	if len(target.AddedBankDetails) != 1 {
		t.Fatalf("Expected 1 bank detail created, got %d", len(target.AddedBankDetails))
	}
	if target.AddedBankDetails[0]["ENTITY_ID"] != "601" {
		t.Errorf("Expected bank detail rebound to requisite 601, got %v", target.AddedBankDetails[0]["ENTITY_ID"])
	}

	actions := journalActions(sink)
	want := []string{journal.ActionCreateCompany, journal.ActionCreateRequisite, journal.ActionCreateBank}
	if len(actions) != len(want) {
		t.Fatalf("Expected actions %v, got %v", want, actions)
	}
}

func TestMigrateUpdatesMatchedCompany(t *testing.T) {
	source := bitrix.NewMockClient()
	source.Items = []map[string]any{{
		"ID":        "10",
		"TITLE":     "Acme",
		"UF_IINBIN": "123456789012",
	}}

	target := bitrix.NewMockClient()
	target.CompaniesByFilter["UF_IINBIN"] = []models.Company{{"ID": "700"}}
	target.AddedRequisiteID = "601"
	sink := db.NewMockStore()

	stats, err := NewMigrator(source, target, sink).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if stats.Found != 1 || stats.Updated != 1 || stats.Created != 0 {
		t.Errorf("Expected 1 found and updated, got %+v", stats)
	}
	if len(target.Updates) != 1 || target.Updates[0].ID != "700" {
		t.Fatalf("Expected update of company 700, got %+v", target.Updates)
	}
	if len(target.AddedCompanies) != 0 {
		t.Errorf("Expected no company create, got %d", len(target.AddedCompanies))
	}
}

func TestMigrateMatchesByExactFullName(t *testing.T) {
	source := bitrix.NewMockClient()
	source.Items = []map[string]any{{
		"ID":                "10",
		"COMPANY_FULL_NAME": "Acme Holdings LLP",
	}}

	target := bitrix.NewMockClient()
	target.CompaniesByFilter["COMPANY_FULL_NAME"] = []models.Company{{"ID": "701"}}
	sink := db.NewMockStore()

	stats, err := NewMigrator(source, target, sink).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if stats.Found != 1 || stats.Created != 0 {
		t.Errorf("Expected full-name match to update, got %+v", stats)
	}
	if len(target.Updates) != 1 || target.Updates[0].ID != "701" {
		t.Fatalf("Expected update of company 701, got %+v", target.Updates)
	}
	if _, ok := target.ListFilters[0]["COMPANY_FULL_NAME"]; !ok {
		t.Errorf("Expected exact COMPANY_FULL_NAME filter, got %v", target.ListFilters[0])
	}
}
