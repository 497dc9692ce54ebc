package bitrix

import (
	"context"
	"fmt"

	"github.com/aversoft/b24sync/pkg/models"
)

// noSonetEvent suppresses activity-stream notifications on bulk writes.
var noSonetEvent = map[string]any{"REGISTER_SONET_EVENT": "N"}

// companyEntityTypeID is the requisite owner type for companies.
const companyEntityTypeID = 4

// ListCompanies runs a filtered company listing and returns the matching
// rows. Only the first page is requested; callers that need the whole
// listing use FetchAll.
func (c *Client) ListCompanies(ctx context.Context, filter map[string]any, selectFields []string) ([]models.Company, error) {
	params := map[string]any{"filter": filter}
	if len(selectFields) > 0 {
		params["select"] = selectFields
	}
	resp, err := c.Call(ctx, "crm.company.list", params)
	if err != nil {
		return nil, err
	}

	var companies []models.Company
	for _, row := range listValue(resp.Result()) {
		if m, ok := row.(map[string]any); ok {
			companies = append(companies, models.Company(m))
		}
	}
	return companies, nil
}

// GetCompany fetches one company by its CRM identifier.
func (c *Client) GetCompany(ctx context.Context, id string) (models.Company, error) {
	resp, err := c.Call(ctx, "crm.company.get", map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	m, ok := resp.Result().(map[string]any)
	if !ok {
		return nil, fmt.Errorf("crm.company.get: unexpected result shape")
	}
	return models.Company(m), nil
}

// AddCompany creates a company and returns the identifier the CRM
// assigned to it.
func (c *Client) AddCompany(ctx context.Context, fields map[string]any) (string, error) {
	resp, err := c.Call(ctx, "crm.company.add", map[string]any{"fields": fields, "params": noSonetEvent})
	if err != nil {
		return "", err
	}
	id := models.AsString(resp.Result())
	if id == "" {
		return "", fmt.Errorf("crm.company.add: no identifier in result")
	}
	return id, nil
}

// UpdateCompany updates an existing company's fields.
func (c *Client) UpdateCompany(ctx context.Context, id string, fields map[string]any) (any, error) {
	resp, err := c.Call(ctx, "crm.company.update", map[string]any{"id": id, "fields": fields, "params": noSonetEvent})
	if err != nil {
		return nil, err
	}
	return resp.Result(), nil
}

// GetDeal fetches one deal by its CRM identifier.
func (c *Client) GetDeal(ctx context.Context, id string) (map[string]any, error) {
	resp, err := c.Call(ctx, "crm.deal.get", map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	m, ok := resp.Result().(map[string]any)
	if !ok {
		return nil, fmt.Errorf("crm.deal.get: unexpected result shape")
	}
	return m, nil
}

// AddBankDetail attaches a bank detail to a requisite or company entity.
func (c *Client) AddBankDetail(ctx context.Context, fields map[string]any) (any, error) {
	resp, err := c.Call(ctx, "crm.requisite.bankdetail.add", map[string]any{"fields": fields})
	if err != nil {
		return nil, err
	}
	return resp.Result(), nil
}

// ListRequisites returns all requisites owned by a company.
func (c *Client) ListRequisites(ctx context.Context, companyID string) ([]map[string]any, error) {
	resp, err := c.Call(ctx, "crm.requisite.list", map[string]any{
		"filter": map[string]any{"ENTITY_ID": companyID, "ENTITY_TYPE_ID": companyEntityTypeID},
	})
	if err != nil {
		return nil, err
	}
	return rowMaps(resp.Result()), nil
}

// AddRequisite creates a requisite and returns its new identifier.
func (c *Client) AddRequisite(ctx context.Context, fields map[string]any) (string, error) {
	resp, err := c.Call(ctx, "crm.requisite.add", map[string]any{"fields": fields})
	if err != nil {
		return "", err
	}
	id := models.AsString(resp.Result())
	if id == "" {
		return "", fmt.Errorf("crm.requisite.add: no identifier in result")
	}
	return id, nil
}

// ListBankDetails returns the bank details attached to a requisite.
func (c *Client) ListBankDetails(ctx context.Context, requisiteID string) ([]map[string]any, error) {
	resp, err := c.Call(ctx, "crm.requisite.bankdetail.list", map[string]any{
		"filter": map[string]any{"ENTITY_ID": requisiteID},
	})
	if err != nil {
		return nil, err
	}
	return rowMaps(resp.Result()), nil
}

func listValue(v any) []any {
	list, _ := v.([]any)
	return list
}

func rowMaps(v any) []map[string]any {
	var rows []map[string]any
	for _, row := range listValue(v) {
		if m, ok := row.(map[string]any); ok {
			rows = append(rows, m)
		}
	}
	return rows
}
