package unf

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/aversoft/b24sync/pkg/models"
)

const defaultTimeout = 60 * time.Second

// Client talks to the ERP's customer-exchange endpoint. Every request is
// the same shape: an auth code plus a list of field/value pairs.
type Client struct {
	httpClient *http.Client
	url        string
	authCode   string
}

// NewClient creates a client for the ERP exchange endpoint.
func NewClient(url, authCode string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		url:        url,
		authCode:   authCode,
	}
}

// FieldValue is one field/value pair of an exchange request.
type FieldValue struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type exchangeRequest struct {
	AuthCode string       `json:"auth_code"`
	Values   []FieldValue `json:"values"`
}

// PushResponse is the ERP's reply to a customer push or lookup.
type PushResponse struct {
	Status  string     `json:"status"`
	Message string     `json:"message"`
	Result  PushResult `json:"result"`
}

// PushResult carries the customer identifier the ERP assigned or found.
type PushResult struct {
	RawCustomerID any `json:"customer_id"`
}

// CustomerID returns the assigned customer identifier as a string, or ""
// when the ERP returned none.
func (r *PushResponse) CustomerID() string {
	return models.AsString(r.Result.RawCustomerID)
}

// Succeeded reports whether the business operation went through.
func (r *PushResponse) Succeeded() bool {
	return r.Status == "success"
}

type listResponse struct {
	Result []models.Customer `json:"result"`
}

// ListCustomers fetches the full customer listing from the ERP.
func (c *Client) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	values := []FieldValue{{Field: "get_all", Value: "1"}}
	body, err := c.post(ctx, values)
	if err != nil {
		return nil, err
	}

	var decoded listResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("customer listing: invalid response: %w", err)
	}
	return decoded.Result, nil
}

// PushCustomer forwards a company card to the ERP and returns its verdict.
func (c *Client) PushCustomer(ctx context.Context, values []FieldValue) (*PushResponse, error) {
	body, err := c.post(ctx, values)
	if err != nil {
		return nil, err
	}

	var decoded PushResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("customer push: invalid response: %w", err)
	}
	return &decoded, nil
}

// LookupCustomerByTaxID asks the ERP for the customer registered under
// the given tax identifier.
func (c *Client) LookupCustomerByTaxID(ctx context.Context, taxID string) (*PushResponse, error) {
	return c.PushCustomer(ctx, []FieldValue{{Field: "customer_iin_bin", Value: taxID}})
}

func (c *Client) post(ctx context.Context, values []FieldValue) ([]byte, error) {
	payload, err := json.Marshal(exchangeRequest{AuthCode: c.authCode, Values: values})
	if err != nil {
		return nil, fmt.Errorf("failed to encode exchange request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build exchange request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("exchange request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(decodeBody(resp))
	if err != nil {
		return nil, fmt.Errorf("failed to read exchange response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("exchange request failed: HTTP %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// decodeBody converts legacy windows-1251 replies, which older 1C
// deployments still emit, to UTF-8.
func decodeBody(resp *http.Response) io.Reader {
	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if strings.Contains(contentType, "charset=windows-1251") || strings.Contains(contentType, "charset=cp1251") {
		return transform.NewReader(resp.Body, charmap.Windows1251.NewDecoder())
	}
	return resp.Body
}
