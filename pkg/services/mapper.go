package services

import (
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"github.com/aversoft/b24sync/pkg/http/unf"
	"github.com/aversoft/b24sync/pkg/models"
)

// ToBitrixFields translates a source customer into CRM field names.
// Empty source values are omitted entirely so updates never blank a
// destination field that the source simply did not report.
func ToBitrixFields(c *models.Customer) map[string]any {
	pairs := []struct {
		key   string
		value string
	}{
		{"TITLE", c.Name},
		{"UF_FULL_TITLE", c.FullName},
		{"UF_IINBIN", c.TaxID},
		{"UF_COMPANY_TYPE", c.Type},
		{"UF_GROUP_ID_VALUE", c.GroupName},
		{"ADDRESS", c.Address},
		{"UF_COUNTRY", c.CountryName},
	}

	fields := make(map[string]any)
	for _, p := range pairs {
		if p.value != "" {
			fields[p.key] = p.value
		}
	}
	return fields
}

// CompanyCard is the semantic view of a CRM company used when forwarding
// it upstream. The required tags drive the deal-link validation.
type CompanyCard struct {
	Name      string `validate:"required"`
	FullName  string `validate:"required"`
	TaxID     string `validate:"required"`
	Type      string `validate:"required"`
	Group     string `validate:"required"`
	Address   string
	Email     string
	Phone     string
	ManagerID string
	Country   string
}

// ExtractCompanyCard pulls the semantic fields out of a raw CRM company.
// Several fields have accumulated alternate keys across portal versions;
// candidates are tried in order and the first non-empty one wins.
func ExtractCompanyCard(company models.Company) CompanyCard {
	first := func(keys ...string) string {
		for _, k := range keys {
			if v := company.StringField(k); v != "" {
				return v
			}
		}
		return ""
	}

	return CompanyCard{
		Name:      first("TITLE"),
		FullName:  first("UF_FULL_TITLE"),
		TaxID:     first("UF_BIN", "UF_IINBIN"),
		Type:      first("UF_COMPANY_TYPE"),
		Group:     first("UF_GROUP", "UF_GROUP_ID_VALUE"),
		Address:   first("ADDRESS"),
		Email:     firstListElement(company, "EMAIL", "CONTACTS"),
		Phone:     firstListElement(company, "PHONE"),
		ManagerID: first("ASSIGNED_BY_ID"),
		Country:   first("UF_COUNTRY", "COUNTRY"),
	}
}

// firstListElement extracts the first element of the first non-empty
// list-valued candidate key. Multi-value CRM fields arrive as lists of
// either scalars or {VALUE: ...} objects.
func firstListElement(company models.Company, keys ...string) string {
	for _, k := range keys {
		list, ok := company[k].([]any)
		if !ok || len(list) == 0 {
			continue
		}
		if m, ok := list[0].(map[string]any); ok {
			if v := models.AsString(m["VALUE"]); v != "" {
				return v
			}
			continue
		}
		if v := models.AsString(list[0]); v != "" {
			return v
		}
	}
	return ""
}

var cardValidator = validator.New()

// MissingFields validates the card's required fields and returns the
// names of the ones that are empty, nil when the card is complete.
func (c CompanyCard) MissingFields() []string {
	err := cardValidator.Struct(c)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}
	missing := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		missing = append(missing, fe.Field())
	}
	return missing
}

// SourceValues renders the card as ERP exchange field/value pairs,
// skipping fields with no value.
func (c CompanyCard) SourceValues() []unf.FieldValue {
	values := []unf.FieldValue{
		{Field: "customer_name", Value: c.Name},
		{Field: "customer_fullname", Value: c.FullName},
		{Field: "customer_iin_bin", Value: c.TaxID},
		{Field: "customer_type", Value: c.Type},
		{Field: "customer_group_name", Value: c.Group},
		{Field: "customer_address", Value: c.Address},
		{Field: "customer_email", Value: c.Email},
		{Field: "customer_phone", Value: c.Phone},
		{Field: "customer_manager_name", Value: c.ManagerID},
		{Field: "customer_country_name", Value: c.Country},
	}
	return lo.Filter(values, func(fv unf.FieldValue, _ int) bool {
		return fv.Value != ""
	})
}
