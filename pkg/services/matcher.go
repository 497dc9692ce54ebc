package services

import (
	"context"
	"fmt"

	"github.com/aversoft/b24sync/pkg/http/bitrix"
	"github.com/aversoft/b24sync/pkg/models"
)

// companySelect is the field set every matching lookup requests.
var companySelect = []string{"ID", "UF_UNF_UUID", "TITLE", "ADDRESS", "COMPANY_TYPE", "UF_IINBIN"}

// CompanyMatcher locates an existing CRM company for a set of source
// identifiers.
type CompanyMatcher struct {
	client bitrix.ClientInterface
}

// NewCompanyMatcher creates a matcher over the given portal client.
func NewCompanyMatcher(client bitrix.ClientInterface) *CompanyMatcher {
	return &CompanyMatcher{client: client}
}

type lookupStrategy struct {
	name   string
	filter map[string]any
}

// FindExisting tries the lookup strategies in priority order: exact tax
// ID, exact short name, then a contains match on the full name. The first
// row of the first strategy with any result wins; an empty identifier
// skips its strategy entirely. Returns nil when nothing matched.
func (m *CompanyMatcher) FindExisting(ctx context.Context, ids models.Identifiers) (models.Company, error) {
	return m.findFirst(ctx, []lookupStrategy{
		{"tax_id", exactFilter("UF_IINBIN", ids.TaxID)},
		{"short_name", exactFilter("TITLE", ids.ShortName)},
		{"full_name", exactFilter("%TITLE", ids.FullName)},
	})
}

// FindMigrated locates a source company's counterpart on the target
// portal. Both portals carry the same schema, so the full-name fallback
// filters the dedicated full-name field exactly instead of a contains
// match on the title.
func (m *CompanyMatcher) FindMigrated(ctx context.Context, ids models.Identifiers) (models.Company, error) {
	return m.findFirst(ctx, []lookupStrategy{
		{"tax_id", exactFilter("UF_IINBIN", ids.TaxID)},
		{"short_name", exactFilter("TITLE", ids.ShortName)},
		{"full_name", exactFilter("COMPANY_FULL_NAME", ids.FullName)},
	})
}

func (m *CompanyMatcher) findFirst(ctx context.Context, strategies []lookupStrategy) (models.Company, error) {
	for _, s := range strategies {
		if s.filter == nil {
			continue
		}
		rows, err := m.client.ListCompanies(ctx, s.filter, companySelect)
		if err != nil {
			return nil, fmt.Errorf("company lookup by %s: %w", s.name, err)
		}
		if len(rows) > 0 {
			// Duplicates in the CRM are possible; the first row wins.
			return rows[0], nil
		}
	}
	return nil, nil
}

func exactFilter(field, value string) map[string]any {
	if value == "" {
		return nil
	}
	return map[string]any{field: value}
}
