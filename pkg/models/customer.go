package models

// Customer is one customer/company record as reported by the source ERP.
// Field names follow the ERP's customers_data payload.
type Customer struct {
	Code            string `json:"customer_code"`
	Name            string `json:"customer_name"`
	FullName        string `json:"customer_fullname"`
	TaxID           string `json:"customer_iin_bin"`
	Type            string `json:"customer_type"`
	GroupName       string `json:"customer_group_name"`
	Address         string `json:"customer_address"`
	CountryName     string `json:"customer_country_name"`
	BankAccountLine string `json:"customer_default_bank_account"`
}

// Unprocessable reports whether the record is missing both of its name
// identifiers. Such records are never matched or created.
func (c *Customer) Unprocessable() bool {
	return c.Name == "" && c.FullName == ""
}

// Identifiers returns the company lookup keys in matching priority order.
func (c *Customer) Identifiers() Identifiers {
	return Identifiers{
		TaxID:     c.TaxID,
		ShortName: c.Name,
		FullName:  c.FullName,
	}
}

// Identifiers carries the optional identifying strings used to locate an
// existing company in the CRM.
type Identifiers struct {
	TaxID     string
	ShortName string
	FullName  string
}
