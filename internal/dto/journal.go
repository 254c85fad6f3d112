package dto

import (
	"time"

	"github.com/akunara/akunara_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// JournalLineRequest is one proposed debit-or-credit line. Amounts are
// non-negative; exactly one side positive per well-formed line (checked
// by the validator, not the binding).
type JournalLineRequest struct {
	AccountID    string          `json:"accountID" binding:"required"`
	Description  string          `json:"description" binding:"required,notblank"`
	DebitAmount  decimal.Decimal `json:"debitAmount"`
	CreditAmount decimal.Decimal `json:"creditAmount"`
}

// ValidateJournalRequest is the dry-run validation payload: candidate
// lines plus an optional target amount from the underlying transaction.
type ValidateJournalRequest struct {
	CurrencyCode string              `json:"currencyCode"`
	Lines        []JournalLineRequest `json:"lines" binding:"required"`
	TargetAmount *decimal.Decimal     `json:"targetAmount"`
}

// CreateJournalRequest defines the data needed to create a journal entry.
type CreateJournalRequest struct {
	Date         time.Time            `json:"date" binding:"required"`
	Description  string               `json:"description" binding:"required"`
	CurrencyCode string               `json:"currencyCode" binding:"required"`
	Lines        []JournalLineRequest `json:"lines" binding:"required,min=2,dive"`
	TargetAmount *decimal.Decimal     `json:"targetAmount"`
}

// UpdateJournalRequest defines the data allowed for updating a journal
// entry header. Pointers distinguish omitted fields from zero values.
type UpdateJournalRequest struct {
	Date        *time.Time `json:"date"`
	Description *string    `json:"description"`
}

// JournalLineResponse defines the data returned for one line.
type JournalLineResponse struct {
	LineID       string          `json:"lineID"`
	AccountID    string          `json:"accountID"`
	Description  string          `json:"description"`
	DebitAmount  decimal.Decimal `json:"debitAmount"`
	CreditAmount decimal.Decimal `json:"creditAmount"`
}

// JournalResponse defines the data returned for a journal entry.
type JournalResponse struct {
	JournalID          string                `json:"journalID"`
	EntryNumber        string                `json:"entryNumber"`
	Date               time.Time             `json:"date"`
	Description        string                `json:"description"`
	CurrencyCode       string                `json:"currencyCode"`
	Status             domain.JournalStatus  `json:"status"`
	Amount             decimal.Decimal       `json:"amount"`
	OriginalJournalID  *string               `json:"originalJournalID,omitempty"`
	ReversingJournalID *string               `json:"reversingJournalID,omitempty"`
	Lines              []JournalLineResponse `json:"lines,omitempty"`
	CreatedAt          time.Time             `json:"createdAt"`
	CreatedBy          string                `json:"createdBy"`
}

// ListJournalsParams defines query parameters for listing journals.
type ListJournalsParams struct {
	Limit            int     `form:"limit,default=20"`
	NextToken        *string `form:"nextToken"`
	IncludeReversals bool    `form:"includeReversals,default=false"`
	IncludeLines     bool    `form:"includeLines,default=false"`
}

// ListJournalsResponse wraps a page of journals plus the next page token.
type ListJournalsResponse struct {
	Journals  []JournalResponse `json:"journals"`
	NextToken *string           `json:"nextToken,omitempty"`
}

// ToJournalLineResponse converts a domain.JournalLine to its DTO.
func ToJournalLineResponse(line *domain.JournalLine) JournalLineResponse {
	return JournalLineResponse{
		LineID:       line.LineID,
		AccountID:    line.AccountID,
		Description:  line.Description,
		DebitAmount:  line.DebitAmount,
		CreditAmount: line.CreditAmount,
	}
}

// ToJournalResponse converts a domain.JournalEntry to JournalResponse DTO.
func ToJournalResponse(j *domain.JournalEntry) JournalResponse {
	resp := JournalResponse{
		JournalID:          j.JournalID,
		EntryNumber:        j.EntryNumber,
		Date:               j.EntryDate,
		Description:        j.Description,
		CurrencyCode:       j.CurrencyCode,
		Status:             j.Status,
		Amount:             j.Amount,
		OriginalJournalID:  j.OriginalJournalID,
		ReversingJournalID: j.ReversingJournalID,
		CreatedAt:          j.CreatedAt,
		CreatedBy:          j.CreatedBy,
	}
	if len(j.Lines) > 0 {
		resp.Lines = make([]JournalLineResponse, len(j.Lines))
		for i := range j.Lines {
			resp.Lines[i] = ToJournalLineResponse(&j.Lines[i])
		}
	}
	return resp
}

// ToDomainLines converts request lines into domain lines. Amounts are
// copied as submitted; the validator rejects lines with both sides set
// rather than silently picking one.
func ToDomainLines(reqLines []JournalLineRequest) []domain.JournalLine {
	lines := make([]domain.JournalLine, len(reqLines))
	for i, lr := range reqLines {
		lines[i] = domain.JournalLine{
			AccountID:    lr.AccountID,
			Description:  lr.Description,
			DebitAmount:  lr.DebitAmount,
			CreditAmount: lr.CreditAmount,
		}
	}
	return lines
}
