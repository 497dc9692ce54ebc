package unf

import (
	"context"

	"github.com/aversoft/b24sync/pkg/models"
)

// MockClient is a mock implementation of the ERP client for testing
type MockClient struct {
	// Mock data to return
	Customers      []models.Customer
	PushResult     *PushResponse
	LookupResult   *PushResponse

	// Recorded calls
	PushedValues  [][]FieldValue
	LookupTaxIDs  []string

	// Error values to return
	ListCustomersErr error
	PushCustomerErr  error
	LookupErr        error
}

// NewMockClient creates a new mock ERP client
func NewMockClient() *MockClient {
	return &MockClient{}
}

// ListCustomers returns the mock customers
func (m *MockClient) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	if m.ListCustomersErr != nil {
		return nil, m.ListCustomersErr
	}
	return m.Customers, nil
}

// PushCustomer records the values and returns the configured response
func (m *MockClient) PushCustomer(ctx context.Context, values []FieldValue) (*PushResponse, error) {
	if m.PushCustomerErr != nil {
		return nil, m.PushCustomerErr
	}
	m.PushedValues = append(m.PushedValues, values)
	return m.PushResult, nil
}

// LookupCustomerByTaxID records the tax ID and returns the configured response
func (m *MockClient) LookupCustomerByTaxID(ctx context.Context, taxID string) (*PushResponse, error) {
	if m.LookupErr != nil {
		return nil, m.LookupErr
	}
	m.LookupTaxIDs = append(m.LookupTaxIDs, taxID)
	return m.LookupResult, nil
}
