package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// JournalLine is one debit-or-credit item within a journal entry.
// Exactly one of DebitAmount/CreditAmount is positive on a well-formed
// line; the setters below keep the pair mutually exclusive at the point
// of mutation rather than leaving it to validation.
type JournalLine struct {
	LineID       string          `json:"lineID"`    // Primary Key (e.g., UUID)
	JournalID    string          `json:"journalID"` // FK -> journal_entries.journal_id
	AccountID    string          `json:"accountID"` // FK -> accounts.account_id (Not Null)
	Description  string          `json:"description"`
	DebitAmount  decimal.Decimal `json:"debitAmount"`
	CreditAmount decimal.Decimal `json:"creditAmount"`
	AuditFields
}

// SetDebit assigns a debit amount and zeroes the credit side. Calling it
// twice with the same amount is a no-op beyond the first call.
func (l *JournalLine) SetDebit(amount decimal.Decimal) {
	l.DebitAmount = amount
	if amount.IsPositive() {
		l.CreditAmount = decimal.Zero
	}
}

// SetCredit assigns a credit amount and zeroes the debit side.
func (l *JournalLine) SetCredit(amount decimal.Decimal) {
	l.CreditAmount = amount
	if amount.IsPositive() {
		l.DebitAmount = decimal.Zero
	}
}

// IsWellFormed reports whether the line could ever be part of a
// submittable entry: a real account, a non-empty description, and
// exactly one positive side.
func (l JournalLine) IsWellFormed() bool {
	if l.AccountID == "" || strings.TrimSpace(l.Description) == "" {
		return false
	}
	if l.DebitAmount.IsNegative() || l.CreditAmount.IsNegative() {
		return false
	}
	return l.DebitAmount.IsPositive() != l.CreditAmount.IsPositive()
}

// Side returns the line's transaction side for balance-delta math.
func (l JournalLine) Side() TransactionType {
	if l.CreditAmount.IsPositive() {
		return Credit
	}
	return Debit
}

// Amount returns the positive amount of whichever side is set.
func (l JournalLine) Amount() decimal.Decimal {
	if l.CreditAmount.IsPositive() {
		return l.CreditAmount
	}
	return l.DebitAmount
}

// TransactionType indicates whether a line affects its account as a
// debit or a credit.
type TransactionType string

const (
	Debit  TransactionType = "DEBIT"
	Credit TransactionType = "CREDIT"
)
