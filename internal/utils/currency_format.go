package utils

import (
	"strings"

	"github.com/akunara/akunara_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// FormatWithCurrencyPrecision formats an amount with the correct precision
// for a given currency.
// Example: amount 12.3456 with USD (precision 2) returns "12.35"
// Example: amount 12.3456 with IDR (precision 0) returns "12"
func FormatWithCurrencyPrecision(amount decimal.Decimal, currency domain.Currency) string {
	return amount.Round(currency.Precision).String()
}

// FormatRupiah renders an amount as "Rp 1.234.567" with dot thousand
// separators and no decimals, the display format used in notifications.
func FormatRupiah(amount decimal.Decimal) string {
	whole := amount.Round(0).StringFixed(0)

	negative := strings.HasPrefix(whole, "-")
	digits := strings.TrimPrefix(whole, "-")

	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}

	formatted := "Rp " + b.String()
	if negative {
		formatted = "-" + formatted
	}
	return formatted
}
