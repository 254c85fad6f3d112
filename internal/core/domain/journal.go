package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// JournalStatus indicates the lifecycle state of a journal entry.
type JournalStatus string

const (
	Draft    JournalStatus = "DRAFT"
	Posted   JournalStatus = "POSTED"
	Reversed JournalStatus = "REVERSED"
)

// SourceType identifies the business document a journal entry was
// generated from, when any.
type SourceType string

const (
	SourceManual   SourceType = "MANUAL"
	SourcePurchase SourceType = "PURCHASE"
	SourceSale     SourceType = "SALE"
)

// JournalEntry represents a single, balanced financial event composed of
// debit/credit lines against ledger accounts.
type JournalEntry struct {
	JournalID    string        `json:"journalID"`   // Primary Key (e.g., UUID)
	EntryNumber  string        `json:"entryNumber"` // Human sequence, e.g. "JE-20240101-0001"
	EntryDate    time.Time     `json:"entryDate"`   // Date the event occurred
	Description  string        `json:"description"`
	CurrencyCode string        `json:"currencyCode"` // Primary currency of the entry (Not Null)
	Status       JournalStatus `json:"status"`       // DRAFT until posted
	SourceType   SourceType    `json:"sourceType"`
	SourceID     *string       `json:"sourceID,omitempty"` // e.g. purchase ID for generated entries

	// Amount is the economic value of the entry: the debit-side total of
	// a balanced set of lines.
	Amount decimal.Decimal `json:"amount"`

	// Reversal linkage. A reversing entry points back at the original;
	// a reversed original points forward at its reversal.
	OriginalJournalID  *string `json:"originalJournalID,omitempty"`
	ReversingJournalID *string `json:"reversingJournalID,omitempty"`

	Lines []JournalLine `json:"lines,omitempty"`
	AuditFields
}
