package parser

import (
	"regexp"
	"strings"

	"github.com/Rhymond/go-money"

	"github.com/aversoft/b24sync/pkg/models"
)

// The ERP exports a company's default bank account as a single line of
// legacy free text. Two styles are seen in the wild: a labeled form
// ("Bank; BIK:...; IIK:...; KZT") and a positional ";"-joined form.
// Parsing is best effort and never fails.

var bankPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?P<bank>.+?)\s+BIK[:\s]*(?P<bik>\d{8,9})[,;]?\s*IIK[:\s]*(?P<iik>[A-Z0-9]{10,34})[,;]?\s*currency[:\s]*(?P<currency>[A-Z]{3})[,;]?\s*(?:corr[:\s]*(?P<corr>[A-Z0-9]{10,34}))?`),
	regexp.MustCompile(`(?i)(?P<bank>.+?)[,;]\s*BIK[:\s]*(?P<bik>\d{8,9})[,;]?\s*IIK[:\s]*(?P<iik>[A-Z0-9]{10,34})[,;]?\s*(?P<currency>[A-Z]{3})?`),
}

var (
	routingRun  = regexp.MustCompile(`\b\d{8,9}\b`)
	accountRun  = regexp.MustCompile(`[A-Z0-9]{10,34}`)
	currencyEnd = regexp.MustCompile(`[A-Z]{3}$`)
)

// ParseBankString extracts a BankDetail from a raw bank-account line.
func ParseBankString(raw string) models.BankDetail {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return models.BankDetail{}
	}

	for _, re := range bankPatterns {
		if m := re.FindStringSubmatch(raw); m != nil {
			return fromGroups(re, m)
		}
	}

	if d, ok := parsePositional(raw); ok {
		return d
	}

	return scanTokens(raw)
}

func fromGroups(re *regexp.Regexp, match []string) models.BankDetail {
	var d models.BankDetail
	for i, name := range re.SubexpNames() {
		if i >= len(match) {
			break
		}
		v := strings.TrimSpace(match[i])
		if v == "" {
			continue
		}
		switch name {
		case "bank":
			d.BankName = v
		case "bik":
			d.RoutingCode = v
		case "iik":
			d.AccountNumber = v
		case "currency":
			d.Currency = v
		case "corr":
			d.CorrespondentAccount = v
		}
	}
	return d
}

// parsePositional handles the ";"-joined fixed-position export:
// bank;routing;account[;...;correspondent]. It declines when the string
// carries labeled markers, which belong to the regex patterns above.
func parsePositional(raw string) (models.BankDetail, bool) {
	upper := strings.ToUpper(raw)
	if strings.Contains(upper, "BIK") || strings.Contains(upper, "IIK") {
		return models.BankDetail{}, false
	}
	parts := strings.Split(raw, ";")
	if len(parts) < 2 {
		return models.BankDetail{}, false
	}
	var d models.BankDetail
	d.BankName = strings.TrimSpace(parts[0])
	d.RoutingCode = strings.TrimSpace(parts[1])
	if len(parts) > 2 {
		d.AccountNumber = strings.TrimSpace(parts[2])
	}
	if len(parts) > 4 {
		d.CorrespondentAccount = strings.TrimSpace(parts[4])
	}
	return d, true
}

// scanTokens classifies ";"/"," separated tokens independently: an 8-9
// digit run is the routing code, a 10-34 alphanumeric run the account
// number, a trailing 3-letter uppercase code the currency, anything else
// the bank name when still unset.
func scanTokens(raw string) models.BankDetail {
	var d models.BankDetail
	for _, token := range strings.FieldsFunc(raw, func(r rune) bool { return r == ';' || r == ',' }) {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		switch {
		case routingRun.MatchString(token) && d.RoutingCode == "":
			d.RoutingCode = routingRun.FindString(token)
		case accountRun.MatchString(token) && d.AccountNumber == "":
			d.AccountNumber = accountRun.FindString(token)
		case currencyEnd.MatchString(token):
			code := currencyEnd.FindString(token)
			if cur := money.GetCurrency(code); cur != nil {
				code = cur.Code
			}
			d.Currency = code
		case d.BankName == "":
			d.BankName = token
		}
	}
	return d
}
