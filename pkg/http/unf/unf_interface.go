package unf

import (
	"context"

	"github.com/aversoft/b24sync/pkg/models"
)

// ClientInterface defines the interface for ERP exchange operations
type ClientInterface interface {
	ListCustomers(ctx context.Context) ([]models.Customer, error)
	PushCustomer(ctx context.Context, values []FieldValue) (*PushResponse, error)
	LookupCustomerByTaxID(ctx context.Context, taxID string) (*PushResponse, error)
}

// Ensure Client implements ClientInterface
var _ ClientInterface = (*Client)(nil)

// Ensure MockClient implements ClientInterface
var _ ClientInterface = (*MockClient)(nil)
