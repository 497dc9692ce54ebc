package bitrix

import (
	"context"

	"github.com/aversoft/b24sync/pkg/models"
)

// MockClient is a mock implementation of the portal client for testing
type MockClient struct {
	// CompaniesByFilter keys ListCompanies results by filter field name;
	// Companies is the fallback when no keyed result exists.
	CompaniesByFilter map[string][]models.Company
	Companies         []models.Company
	Company           models.Company
	Deal              map[string]any
	AddedCompanyID    string
	AddedRequisiteID  string
	UpdateResult      any
	BankDetailResult  any
	Items             []map[string]any
	RequisiteRows     []map[string]any
	BankDetailRows    []map[string]any
	Fields            FieldMetadata
	CallResponse      *Response

	// Recorded calls
	ListFilters      []map[string]any
	AddedCompanies   []map[string]any
	Updates          []MockUpdate
	AddedBankDetails []map[string]any
	AddedRequisites  []map[string]any

	// Error values to return
	CallErr            error
	FetchAllErr        error
	ListCompaniesErr   error
	GetCompanyErr      error
	AddCompanyErr      error
	UpdateCompanyErr   error
	GetDealErr         error
	AddBankDetailErr   error
	ListRequisitesErr  error
	AddRequisiteErr    error
	ListBankDetailsErr error
	ItemFieldsErr      error
}

// MockUpdate records one UpdateCompany invocation
type MockUpdate struct {
	ID     string
	Fields map[string]any
}

// NewMockClient creates a new mock portal client
func NewMockClient() *MockClient {
	return &MockClient{
		CompaniesByFilter: make(map[string][]models.Company),
	}
}

// Call returns the configured raw response
func (m *MockClient) Call(ctx context.Context, method string, params any) (*Response, error) {
	if m.CallErr != nil {
		return nil, m.CallErr
	}
	return m.CallResponse, nil
}

// FetchAll returns the configured item list
func (m *MockClient) FetchAll(ctx context.Context, method string, params map[string]any) ([]map[string]any, error) {
	if m.FetchAllErr != nil {
		return nil, m.FetchAllErr
	}
	return m.Items, nil
}

// ListCompanies records the filter and returns the keyed result when one
// of the filter fields has one configured
func (m *MockClient) ListCompanies(ctx context.Context, filter map[string]any, selectFields []string) ([]models.Company, error) {
	m.ListFilters = append(m.ListFilters, filter)
	if m.ListCompaniesErr != nil {
		return nil, m.ListCompaniesErr
	}
	for key := range filter {
		if rows, ok := m.CompaniesByFilter[key]; ok {
			return rows, nil
		}
	}
	return m.Companies, nil
}

// GetCompany returns the configured company
func (m *MockClient) GetCompany(ctx context.Context, id string) (models.Company, error) {
	if m.GetCompanyErr != nil {
		return nil, m.GetCompanyErr
	}
	return m.Company, nil
}

// AddCompany records the fields and returns the configured identifier
func (m *MockClient) AddCompany(ctx context.Context, fields map[string]any) (string, error) {
	if m.AddCompanyErr != nil {
		return "", m.AddCompanyErr
	}
	m.AddedCompanies = append(m.AddedCompanies, fields)
	return m.AddedCompanyID, nil
}

// UpdateCompany records the update
func (m *MockClient) UpdateCompany(ctx context.Context, id string, fields map[string]any) (any, error) {
	if m.UpdateCompanyErr != nil {
		return nil, m.UpdateCompanyErr
	}
	m.Updates = append(m.Updates, MockUpdate{ID: id, Fields: fields})
	return m.UpdateResult, nil
}

// GetDeal returns the configured deal
func (m *MockClient) GetDeal(ctx context.Context, id string) (map[string]any, error) {
	if m.GetDealErr != nil {
		return nil, m.GetDealErr
	}
	return m.Deal, nil
}

// AddBankDetail records the fields
func (m *MockClient) AddBankDetail(ctx context.Context, fields map[string]any) (any, error) {
	if m.AddBankDetailErr != nil {
		return nil, m.AddBankDetailErr
	}
	m.AddedBankDetails = append(m.AddedBankDetails, fields)
	return m.BankDetailResult, nil
}

// ListRequisites returns the configured requisite rows
func (m *MockClient) ListRequisites(ctx context.Context, companyID string) ([]map[string]any, error) {
	if m.ListRequisitesErr != nil {
		return nil, m.ListRequisitesErr
	}
	return m.RequisiteRows, nil
}

// AddRequisite records the fields and returns the configured identifier
func (m *MockClient) AddRequisite(ctx context.Context, fields map[string]any) (string, error) {
	if m.AddRequisiteErr != nil {
		return "", m.AddRequisiteErr
	}
	m.AddedRequisites = append(m.AddedRequisites, fields)
	return m.AddedRequisiteID, nil
}

// ListBankDetails returns the configured bank-detail rows
func (m *MockClient) ListBankDetails(ctx context.Context, requisiteID string) ([]map[string]any, error) {
	if m.ListBankDetailsErr != nil {
		return nil, m.ListBankDetailsErr
	}
	return m.BankDetailRows, nil
}

// ItemFields returns the configured metadata
func (m *MockClient) ItemFields(ctx context.Context, typeID int) (FieldMetadata, error) {
	if m.ItemFieldsErr != nil {
		return nil, m.ItemFieldsErr
	}
	return m.Fields, nil
}
