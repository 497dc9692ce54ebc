package bitrix

import (
	"context"

	"github.com/aversoft/b24sync/pkg/models"
)

// ClientInterface defines the interface for portal RPC operations
type ClientInterface interface {
	Call(ctx context.Context, method string, params any) (*Response, error)
	FetchAll(ctx context.Context, method string, params map[string]any) ([]map[string]any, error)
	ListCompanies(ctx context.Context, filter map[string]any, selectFields []string) ([]models.Company, error)
	GetCompany(ctx context.Context, id string) (models.Company, error)
	AddCompany(ctx context.Context, fields map[string]any) (string, error)
	UpdateCompany(ctx context.Context, id string, fields map[string]any) (any, error)
	GetDeal(ctx context.Context, id string) (map[string]any, error)
	AddBankDetail(ctx context.Context, fields map[string]any) (any, error)
	ListRequisites(ctx context.Context, companyID string) ([]map[string]any, error)
	AddRequisite(ctx context.Context, fields map[string]any) (string, error)
	ListBankDetails(ctx context.Context, requisiteID string) ([]map[string]any, error)
	ItemFields(ctx context.Context, typeID int) (FieldMetadata, error)
}

// Ensure Client implements ClientInterface
var _ ClientInterface = (*Client)(nil)

// Ensure MockClient implements ClientInterface
var _ ClientInterface = (*MockClient)(nil)
