package services

import (
	"context"
	"errors"
	"testing"

	"github.com/aversoft/b24sync/db"
	"github.com/aversoft/b24sync/pkg/http/bitrix"
	"github.com/aversoft/b24sync/pkg/http/unf"
	"github.com/aversoft/b24sync/pkg/journal"
	"github.com/aversoft/b24sync/pkg/models"
)

func TestRunCreatesUnmatchedCustomer(t *testing.T) {
	crm := bitrix.NewMockClient()
	crm.AddedCompanyID = "101"
	erp := unf.NewMockClient()
	erp.Customers = []models.Customer{{
		Code:  "uuid-1",
		Name:  "Acme",
		TaxID: "123456789012",
	}}
	sink := db.NewMockStore()

	stats, err := NewReconciler(crm, erp, sink).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if stats.Total != 1 || stats.Created != 1 {
		t.Errorf("Expected 1 created of 1 total, got %+v", stats)
	}
	if len(crm.AddedCompanies) != 1 {
		t.Fatalf("Expected 1 company created, got %d", len(crm.AddedCompanies))
	}
	added := crm.AddedCompanies[0]
	if added["TITLE"] != "Acme" {
		t.Errorf("Expected TITLE 'Acme', got %v", added["TITLE"])
	}
	if added["UF_UNF_UUID"] != "uuid-1" {
		t.Errorf("Expected external uuid to be set on create, got %v", added["UF_UNF_UUID"])
	}
	if len(sink.Written) != 1 || sink.Written[0].Action != journal.ActionCreated {
		t.Errorf("Expected a created journal entry, got %+v", sink.Written)
	}
}

func TestRunUpdatesMatchedCustomer(t *testing.T) {
	crm := bitrix.NewMockClient()
	crm.CompaniesByFilter["UF_IINBIN"] = []models.Company{{
		"ID":          "55",
		"UF_UNF_UUID": "uuid-1",
	}}
	erp := unf.NewMockClient()
	erp.Customers = []models.Customer{{
		Code:  "uuid-1",
		Name:  "Acme",
		TaxID: "123456789012",
	}}
	sink := db.NewMockStore()

	stats, err := NewReconciler(crm, erp, sink).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if stats.Found != 1 || stats.Updated != 1 || stats.Created != 0 {
		t.Errorf("Expected 1 found and updated, got %+v", stats)
	}
	if len(crm.Updates) != 1 || crm.Updates[0].ID != "55" {
		t.Fatalf("Expected update of company 55, got %+v", crm.Updates)
	}
	// The company already carries the external uuid, it must not be resent
	if _, ok := crm.Updates[0].Fields["UF_UNF_UUID"]; ok {
		t.Errorf("Expected external uuid to stay untouched, got %v", crm.Updates[0].Fields)
	}
}

func TestRunSetsUUIDOnceOnMatch(t *testing.T) {
	crm := bitrix.NewMockClient()
	crm.CompaniesByFilter["TITLE"] = []models.Company{{"ID": "55"}}
	erp := unf.NewMockClient()
	erp.Customers = []models.Customer{{Code: "uuid-1", Name: "Acme"}}
	sink := db.NewMockStore()

	if _, err := NewReconciler(crm, erp, sink).Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(crm.Updates) != 1 {
		t.Fatalf("Expected 1 update, got %d", len(crm.Updates))
	}
	if crm.Updates[0].Fields["UF_UNF_UUID"] != "uuid-1" {
		t.Errorf("Expected external uuid to be set on first match, got %v", crm.Updates[0].Fields)
	}
}

func TestRunSkipsUnprocessableCustomer(t *testing.T) {
	crm := bitrix.NewMockClient()
	erp := unf.NewMockClient()
	erp.Customers = []models.Customer{{Code: "uuid-2", TaxID: "123"}}
	sink := db.NewMockStore()

	stats, err := NewReconciler(crm, erp, sink).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if stats.Skipped != 1 {
		t.Errorf("Expected 1 skipped, got %+v", stats)
	}
	if len(crm.ListFilters) != 0 {
		t.Errorf("Expected no lookups for a skipped record, got %d", len(crm.ListFilters))
	}
	if len(sink.Written) != 1 || sink.Written[0].Action != journal.ActionSkipped {
		t.Errorf("Expected a skipped journal entry, got %+v", sink.Written)
	}
}

func TestRunCountsCreateFailure(t *testing.T) {
	crm := bitrix.NewMockClient()
	crm.AddCompanyErr = errors.New("portal rejected the record")
	erp := unf.NewMockClient()
	erp.Customers = []models.Customer{{Code: "uuid-3", Name: "Acme"}}
	sink := db.NewMockStore()

	stats, err := NewReconciler(crm, erp, sink).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if stats.Errors != 1 || stats.Created != 0 {
		t.Errorf("Expected 1 error, got %+v", stats)
	}
	if len(sink.Written) != 1 || sink.Written[0].Action != journal.ActionErrorCreate {
		t.Errorf("Expected an error_create journal entry, got %+v", sink.Written)
	}
	// A failed create must not try to attach bank details
	if len(crm.AddedBankDetails) != 0 {
		t.Errorf("Expected no bank detail calls, got %d", len(crm.AddedBankDetails))
	}
}

func TestRunAttachesBankDetail(t *testing.T) {
	crm := bitrix.NewMockClient()
	crm.AddedCompanyID = "101"
	erp := unf.NewMockClient()
	erp.Customers = []models.Customer{{
		Code:            "uuid-4",
		Name:            "Acme",
		BankAccountLine: "KazBank;123456789;KZ1234567890123456",
	}}
	sink := db.NewMockStore()

	if _, err := NewReconciler(crm, erp, sink).Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(crm.AddedBankDetails) != 1 {
		t.Fatalf("Expected 1 bank detail, got %d", len(crm.AddedBankDetails))
	}
	fields := crm.AddedBankDetails[0]
	if fields["ENTITY_ID"] != "101" {
		t.Errorf("Expected bank detail on company 101, got %v", fields["ENTITY_ID"])
	}
	if fields["BANK_BIC"] != "123456789" {
		t.Errorf("Expected BANK_BIC from the bank line, got %v", fields["BANK_BIC"])
	}
	if fields["ACCOUNT"] != "KZ1234567890123456" {
		t.Errorf("Expected ACCOUNT from the bank line, got %v", fields["ACCOUNT"])
	}
}

func TestRunMatcherErrorCountsException(t *testing.T) {
	crm := bitrix.NewMockClient()
	crm.ListCompaniesErr = errors.New("portal unavailable")
	erp := unf.NewMockClient()
	erp.Customers = []models.Customer{{Code: "uuid-5", Name: "Acme"}}
	sink := db.NewMockStore()

	stats, err := NewReconciler(crm, erp, sink).Run(context.Background())
	if err != nil {
		t.Fatalf("Per-record failures must not abort the run: %v", err)
	}

	if stats.Errors != 1 {
		t.Errorf("Expected 1 error, got %+v", stats)
	}
	if len(sink.Written) != 1 || sink.Written[0].Action != journal.ActionException {
		t.Errorf("Expected an exception journal entry, got %+v", sink.Written)
	}
}

func TestRunFatalOnListingFailure(t *testing.T) {
	crm := bitrix.NewMockClient()
	erp := unf.NewMockClient()
	erp.ListCustomersErr = errors.New("connection refused")
	sink := db.NewMockStore()

	if _, err := NewReconciler(crm, erp, sink).Run(context.Background()); err == nil {
		t.Fatalf("Expected error when the customer listing fails")
	}
}
