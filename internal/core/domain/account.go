package domain

import (
	"github.com/shopspring/decimal"
)

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Revenue   AccountType = "REVENUE"
	Expense   AccountType = "EXPENSE"
)

// Account represents one ledger account in the chart of accounts.
// This is the primary representation used by services.
type Account struct {
	AccountID       string          `json:"accountID"` // Primary Key (e.g., UUID)
	Code            string          `json:"code"`      // Human account code, e.g. "1101"
	Name            string          `json:"name"`
	AccountType     AccountType     `json:"accountType"`  // ASSET, LIABILITY, etc.
	CurrencyCode    string          `json:"currencyCode"` // FK -> currencies.code (NON-NULL)
	ParentAccountID string          `json:"parentAccountID"`
	Description     string          `json:"description"`
	IsActive        bool            `json:"isActive"`
	AuditFields                     // Embed CreatedAt, CreatedBy, etc.
	Balance         decimal.Decimal `json:"balance"` // Persisted running balance
}
