package services

import (
	"context"

	"github.com/akunara/akunara_backend/internal/core/domain"
	"github.com/akunara/akunara_backend/internal/dto"
	"github.com/akunara/akunara_backend/internal/utils/accounting"
)

// JournalReaderSvc defines read operations for journal data
type JournalReaderSvc interface {
	// GetJournalByID retrieves a specific journal with its lines.
	GetJournalByID(ctx context.Context, journalID string) (*domain.JournalEntry, error)

	// ListJournals retrieves a paginated list of journals.
	ListJournals(ctx context.Context, params dto.ListJournalsParams) (*dto.ListJournalsResponse, error)

	// ListLinesByAccount retrieves a paginated list of lines touching one account.
	ListLinesByAccount(ctx context.Context, accountID string, limit int, nextToken *string) ([]domain.JournalLine, *string, error)
}

// JournalWriterSvc defines write operations for journal data
type JournalWriterSvc interface {
	// CreateJournal validates and persists a new journal with its lines,
	// posting the balance changes to the touched accounts.
	CreateJournal(ctx context.Context, req dto.CreateJournalRequest, creatorUserID string) (*domain.JournalEntry, error)

	// UpdateJournal updates journal header details (excluding lines).
	UpdateJournal(ctx context.Context, journalID string, req dto.UpdateJournalRequest, requestingUserID string) (*domain.JournalEntry, error)

	// ReverseJournal creates a reversal journal for an existing posted journal.
	ReverseJournal(ctx context.Context, journalID string, userID string) (*domain.JournalEntry, error)
}

// JournalValidatorSvc defines the dry-run validation operation used by
// entry forms before submit.
type JournalValidatorSvc interface {
	// ValidateJournal evaluates candidate lines without persisting anything.
	ValidateJournal(ctx context.Context, req dto.ValidateJournalRequest) (*accounting.ValidationResult, error)
}

// JournalSvcFacade combines all journal-related service interfaces
// This is a facade for clients that need access to all operations
type JournalSvcFacade interface {
	JournalReaderSvc
	JournalWriterSvc
	JournalValidatorSvc
}
