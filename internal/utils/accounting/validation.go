package accounting

import (
	"strings"

	"github.com/akunara/akunara_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// DefaultEpsilon is the balance tolerance for two-decimal currencies:
// totals closer than one minor unit count as balanced.
var DefaultEpsilon = decimal.New(1, -2) // 0.01

// ValidationOptions tune a validation run.
type ValidationOptions struct {
	// Epsilon overrides DefaultEpsilon, e.g. derived from the currency's
	// precision. Zero or negative values fall back to the default.
	Epsilon decimal.Decimal
	// TargetAmount, when non-nil, is the amount of the underlying cash
	// transaction. A mismatch is advisory only and never blocks.
	TargetAmount *decimal.Decimal
}

// ValidationResult is the full answer for one candidate set of lines.
// "Not yet balanced" is a normal displayed condition, not an error; the
// caller branches on the booleans.
type ValidationResult struct {
	TotalDebit      decimal.Decimal `json:"totalDebit"`
	TotalCredit     decimal.Decimal `json:"totalCredit"`
	Difference      decimal.Decimal `json:"difference"` // TotalDebit - TotalCredit
	IsBalanced      bool            `json:"isBalanced"`
	HasValidEntries bool            `json:"hasValidEntries"`
	CanSubmit       bool            `json:"canSubmit"`
	// AmountMismatch warns that neither side equals the target amount.
	// Advisory: it does not affect CanSubmit.
	AmountMismatch bool `json:"amountMismatch"`
}

// ValidateLines checks a candidate journal entry before submission:
// totals, balance within epsilon, and per-line well-formedness (real
// account, non-empty description, exactly one positive side).
func ValidateLines(lines []domain.JournalLine, opts ValidationOptions) ValidationResult {
	epsilon := opts.Epsilon
	if !epsilon.IsPositive() {
		epsilon = DefaultEpsilon
	}

	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	hasValidEntries := len(lines) > 0

	for _, line := range lines {
		totalDebit = totalDebit.Add(line.DebitAmount)
		totalCredit = totalCredit.Add(line.CreditAmount)
		if !lineIsValid(line) {
			hasValidEntries = false
		}
	}

	difference := totalDebit.Sub(totalCredit)
	isBalanced := difference.Abs().LessThan(epsilon)

	result := ValidationResult{
		TotalDebit:      totalDebit,
		TotalCredit:     totalCredit,
		Difference:      difference,
		IsBalanced:      isBalanced,
		HasValidEntries: hasValidEntries,
		CanSubmit:       isBalanced && hasValidEntries,
	}

	if opts.TargetAmount != nil {
		target := *opts.TargetAmount
		result.AmountMismatch = !totalDebit.Equal(target) && !totalCredit.Equal(target)
	}

	return result
}

func lineIsValid(line domain.JournalLine) bool {
	if line.AccountID == "" || strings.TrimSpace(line.Description) == "" {
		return false
	}
	if line.DebitAmount.IsNegative() || line.CreditAmount.IsNegative() {
		return false
	}
	// Exactly one side positive.
	return line.DebitAmount.IsPositive() != line.CreditAmount.IsPositive()
}
