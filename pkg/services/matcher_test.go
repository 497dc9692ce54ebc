package services

import (
	"context"
	"testing"

	"github.com/aversoft/b24sync/pkg/http/bitrix"
	"github.com/aversoft/b24sync/pkg/models"
)

func TestFindExistingByTaxID(t *testing.T) {
	mock := bitrix.NewMockClient()
	mock.CompaniesByFilter["UF_IINBIN"] = []models.Company{{"ID": "7", "TITLE": "Acme"}}

	matcher := NewCompanyMatcher(mock)
	found, err := matcher.FindExisting(context.Background(), models.Identifiers{
		TaxID:     "123456789012",
		ShortName: "Acme",
		FullName:  "Acme LLP",
	})
	if err != nil {
		t.Fatalf("Failed to find company: %v", err)
	}
	if found == nil || found.ID() != "7" {
		t.Fatalf("Expected company 7, got %+v", found)
	}

	// Tax ID matched, the other strategies must not run
	if len(mock.ListFilters) != 1 {
		t.Errorf("Expected 1 lookup, got %d", len(mock.ListFilters))
	}
	if _, ok := mock.ListFilters[0]["UF_IINBIN"]; !ok {
		t.Errorf("Expected UF_IINBIN filter, got %v", mock.ListFilters[0])
	}
}

func TestFindExistingFallsBackToTitle(t *testing.T) {
	mock := bitrix.NewMockClient()
	mock.CompaniesByFilter["TITLE"] = []models.Company{{"ID": "8"}}

	matcher := NewCompanyMatcher(mock)
	found, err := matcher.FindExisting(context.Background(), models.Identifiers{
		TaxID:     "000000000000",
		ShortName: "Acme",
	})
	if err != nil {
		t.Fatalf("Failed to find company: %v", err)
	}
	if found == nil || found.ID() != "8" {
		t.Fatalf("Expected company 8, got %+v", found)
	}
	if len(mock.ListFilters) != 2 {
		t.Errorf("Expected 2 lookups, got %d", len(mock.ListFilters))
	}
}

func TestFindExistingSkipsEmptyIdentifiers(t *testing.T) {
	mock := bitrix.NewMockClient()
	mock.CompaniesByFilter["%TITLE"] = []models.Company{{"ID": "9"}}

	matcher := NewCompanyMatcher(mock)
	found, err := matcher.FindExisting(context.Background(), models.Identifiers{
		FullName: "Acme Holdings LLP",
	})
	if err != nil {
		t.Fatalf("Failed to find company: %v", err)
	}
	if found == nil || found.ID() != "9" {
		t.Fatalf("Expected company 9, got %+v", found)
	}

	// Empty tax id and short name skip their strategies
	if len(mock.ListFilters) != 1 {
		t.Fatalf("Expected 1 lookup, got %d", len(mock.ListFilters))
	}
	if _, ok := mock.ListFilters[0]["%TITLE"]; !ok {
		t.Errorf("Expected %%TITLE filter, got %v", mock.ListFilters[0])
	}
}

func TestFindMigratedMatchesFullNameExactly(t *testing.T) {
	mock := bitrix.NewMockClient()
	mock.CompaniesByFilter["COMPANY_FULL_NAME"] = []models.Company{{"ID": "12"}}

	matcher := NewCompanyMatcher(mock)
	found, err := matcher.FindMigrated(context.Background(), models.Identifiers{
		FullName: "Acme Holdings LLP",
	})
	if err != nil {
		t.Fatalf("Failed to find company: %v", err)
	}
	if found == nil || found.ID() != "12" {
		t.Fatalf("Expected company 12, got %+v", found)
	}

	if len(mock.ListFilters) != 1 {
		t.Fatalf("Expected 1 lookup, got %d", len(mock.ListFilters))
	}
	if _, ok := mock.ListFilters[0]["COMPANY_FULL_NAME"]; !ok {
		t.Errorf("Expected exact COMPANY_FULL_NAME filter, got %v", mock.ListFilters[0])
	}
}

func TestFindExistingNoMatch(t *testing.T) {
	mock := bitrix.NewMockClient()

	matcher := NewCompanyMatcher(mock)
	found, err := matcher.FindExisting(context.Background(), models.Identifiers{
		TaxID: "123", ShortName: "x", FullName: "y",
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if found != nil {
		t.Fatalf("Expected nil when nothing matches, got %+v", found)
	}
	if len(mock.ListFilters) != 3 {
		t.Errorf("Expected all 3 strategies to run, got %d", len(mock.ListFilters))
	}
}
