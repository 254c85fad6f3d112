package accounting_test

import (
	"testing"

	"github.com/akunara/akunara_backend/internal/core/domain"
	"github.com/akunara/akunara_backend/internal/utils/accounting"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func debitLine(accountID, amount string) domain.JournalLine {
	return domain.JournalLine{
		AccountID:   accountID,
		Description: "test line",
		DebitAmount: dec(amount),
	}
}

func creditLine(accountID, amount string) domain.JournalLine {
	return domain.JournalLine{
		AccountID:    accountID,
		Description:  "test line",
		CreditAmount: dec(amount),
	}
}

func TestValidateLines_BalancedPair(t *testing.T) {
	lines := []domain.JournalLine{
		debitLine("acc-1", "100"),
		creditLine("acc-2", "100"),
	}

	result := accounting.ValidateLines(lines, accounting.ValidationOptions{})
	assert.True(t, result.IsBalanced)
	assert.True(t, result.HasValidEntries)
	assert.True(t, result.CanSubmit)
	assert.True(t, result.Difference.IsZero())
	assert.True(t, result.TotalDebit.Equal(dec("100")))
	assert.True(t, result.TotalCredit.Equal(dec("100")))
}

func TestValidateLines_EpsilonBoundary(t *testing.T) {
	// 0.001 off: inside the 0.01 tolerance.
	within := []domain.JournalLine{
		debitLine("acc-1", "100"),
		creditLine("acc-2", "99.999"),
	}
	assert.True(t, accounting.ValidateLines(within, accounting.ValidationOptions{}).IsBalanced)

	// 0.02 off: outside.
	outside := []domain.JournalLine{
		debitLine("acc-1", "100"),
		creditLine("acc-2", "99.98"),
	}
	assert.False(t, accounting.ValidateLines(outside, accounting.ValidationOptions{}).IsBalanced)
}

func TestValidateLines_CustomEpsilonFromCurrencyPrecision(t *testing.T) {
	currency := domain.Currency{CurrencyCode: "IDR", Precision: 0}
	lines := []domain.JournalLine{
		debitLine("acc-1", "100"),
		creditLine("acc-2", "99.5"),
	}

	result := accounting.ValidateLines(lines, accounting.ValidationOptions{Epsilon: currency.BalanceEpsilon()})
	assert.True(t, result.IsBalanced, "0.5 difference is within a whole-unit currency's tolerance")
}

func TestValidateLines_BothSidesSetFailsEntries(t *testing.T) {
	bad := domain.JournalLine{
		AccountID:    "acc-1",
		Description:  "both sides",
		DebitAmount:  dec("50"),
		CreditAmount: dec("50"),
	}
	lines := []domain.JournalLine{bad, creditLine("acc-2", "0")}

	result := accounting.ValidateLines(lines, accounting.ValidationOptions{})
	assert.False(t, result.HasValidEntries)
	assert.False(t, result.CanSubmit)
}

func TestValidateLines_MissingAccountOrDescription(t *testing.T) {
	noAccount := debitLine("", "100")
	result := accounting.ValidateLines([]domain.JournalLine{noAccount, creditLine("acc-2", "100")}, accounting.ValidationOptions{})
	assert.False(t, result.HasValidEntries)

	blankDescription := debitLine("acc-1", "100")
	blankDescription.Description = "   "
	result = accounting.ValidateLines([]domain.JournalLine{blankDescription, creditLine("acc-2", "100")}, accounting.ValidationOptions{})
	assert.False(t, result.HasValidEntries)
}

func TestValidateLines_NegativeAmountsRejected(t *testing.T) {
	negative := domain.JournalLine{AccountID: "acc-1", Description: "neg", DebitAmount: dec("-10")}
	result := accounting.ValidateLines([]domain.JournalLine{negative}, accounting.ValidationOptions{})
	assert.False(t, result.HasValidEntries)
	assert.False(t, result.CanSubmit)
}

func TestValidateLines_EmptyListCannotSubmit(t *testing.T) {
	result := accounting.ValidateLines(nil, accounting.ValidationOptions{})
	assert.False(t, result.HasValidEntries)
	assert.True(t, result.IsBalanced, "zero equals zero")
	assert.False(t, result.CanSubmit)
}

func TestValidateLines_TargetAmountAdvisory(t *testing.T) {
	lines := []domain.JournalLine{
		debitLine("acc-1", "100"),
		creditLine("acc-2", "100"),
	}

	target := dec("250")
	result := accounting.ValidateLines(lines, accounting.ValidationOptions{TargetAmount: &target})
	assert.True(t, result.AmountMismatch)
	assert.True(t, result.CanSubmit, "mismatch warning never blocks submission")

	matching := dec("100")
	result = accounting.ValidateLines(lines, accounting.ValidationOptions{TargetAmount: &matching})
	assert.False(t, result.AmountMismatch)
}

func TestSetDebitZeroesCreditAndIsIdempotent(t *testing.T) {
	line := creditLine("acc-1", "75")
	line.SetDebit(dec("120"))
	assert.True(t, line.DebitAmount.Equal(dec("120")))
	assert.True(t, line.CreditAmount.IsZero())

	// Repeating the identical mutation changes nothing.
	line.SetDebit(dec("120"))
	assert.True(t, line.DebitAmount.Equal(dec("120")))
	assert.True(t, line.CreditAmount.IsZero())

	line.SetCredit(dec("40"))
	assert.True(t, line.CreditAmount.Equal(dec("40")))
	assert.True(t, line.DebitAmount.IsZero())
}

func TestSignedAmount(t *testing.T) {
	cases := []struct {
		name        string
		line        domain.JournalLine
		accountType domain.AccountType
		want        string
	}{
		{"debit to asset", debitLine("a", "100"), domain.Asset, "100"},
		{"credit to asset", creditLine("a", "100"), domain.Asset, "-100"},
		{"debit to expense", debitLine("a", "40"), domain.Expense, "40"},
		{"debit to liability", debitLine("a", "100"), domain.Liability, "-100"},
		{"credit to revenue", creditLine("a", "100"), domain.Revenue, "100"},
		{"credit to equity", creditLine("a", "55"), domain.Equity, "55"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := accounting.SignedAmount(tc.line, tc.accountType)
			require.NoError(t, err)
			assert.True(t, got.Equal(dec(tc.want)), "got %s want %s", got, tc.want)
		})
	}

	_, err := accounting.SignedAmount(debitLine("a", "1"), domain.AccountType("BOGUS"))
	assert.Error(t, err)
}

func TestBalanceChanges(t *testing.T) {
	lines := []domain.JournalLine{
		debitLine("cash", "100"),
		creditLine("revenue", "100"),
	}
	types := map[string]domain.AccountType{
		"cash":    domain.Asset,
		"revenue": domain.Revenue,
	}

	changes, err := accounting.BalanceChanges(lines, types)
	require.NoError(t, err)
	assert.True(t, changes["cash"].Equal(dec("100")))
	assert.True(t, changes["revenue"].Equal(dec("100")))

	_, err = accounting.BalanceChanges(lines, map[string]domain.AccountType{"cash": domain.Asset})
	assert.Error(t, err)
}
