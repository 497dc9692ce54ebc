package models

// BankDetail is the structured form of a customer's default bank account
// string. Every field is optional; an unparseable input yields a partial
// or empty value, never an error.
type BankDetail struct {
	BankName             string
	RoutingCode          string
	AccountNumber        string
	Currency             string
	CorrespondentAccount string
}

// Empty reports whether parsing recovered nothing at all.
func (b BankDetail) Empty() bool {
	return b == BankDetail{}
}
