package domain

import "github.com/shopspring/decimal"

// Currency represents a supported currency in the domain.
type Currency struct {
	CurrencyCode string `json:"currencyCode"` // Primary Key (e.g., "IDR")
	Symbol       string `json:"symbol"`       // e.g., "Rp"
	Name         string `json:"name"`         // e.g., "Indonesian Rupiah"
	Precision    int32  `json:"precision"`    // Minor-unit digits, e.g. 2
	AuditFields
}

// BalanceEpsilon returns the rounding tolerance for balance comparisons
// in this currency: one unit of the smallest representable minor unit
// (0.01 for precision 2).
func (c Currency) BalanceEpsilon() decimal.Decimal {
	return decimal.New(1, -c.Precision)
}
