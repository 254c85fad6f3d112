package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/akunara/akunara_backend/internal/apperrors"
	"github.com/akunara/akunara_backend/internal/core/domain"
	portsrepo "github.com/akunara/akunara_backend/internal/core/ports/repositories"
	portssvc "github.com/akunara/akunara_backend/internal/core/ports/services"
	"github.com/akunara/akunara_backend/internal/dto"
	"github.com/akunara/akunara_backend/internal/middleware"
	"github.com/akunara/akunara_backend/internal/utils/accounting"
)

var (
	ErrJournalUnbalanced  = errors.New("journal lines do not balance within tolerance")
	ErrJournalMinEntries  = errors.New("journal must have at least two lines")
	ErrJournalMinAccounts = errors.New("journal must affect at least two different accounts")
	ErrAccountNotFound    = errors.New("account not found")
	ErrCurrencyMismatch   = errors.New("account currency does not match journal currency")
	ErrNotPosted          = errors.New("journal must be posted to be updated")
	ErrDescriptionMissing = errors.New("journal description is required")
)

// journalService provides journal entry and line operations.
type journalService struct {
	journalRepo  portsrepo.JournalRepositoryWithTx
	accountRepo  portsrepo.AccountRepositoryFacade
	currencyRepo portsrepo.CurrencyRepositoryFacade
}

// NewJournalService creates a new JournalService.
func NewJournalService(journalRepo portsrepo.JournalRepositoryWithTx, accountRepo portsrepo.AccountRepositoryFacade, currencyRepo portsrepo.CurrencyRepositoryFacade) portssvc.JournalSvcFacade {
	return &journalService{
		journalRepo:  journalRepo,
		accountRepo:  accountRepo,
		currencyRepo: currencyRepo,
	}
}

// Ensure journalService implements the portssvc.JournalSvcFacade interface
var _ portssvc.JournalSvcFacade = (*journalService)(nil)

// balanceEpsilon resolves the tolerance from the journal's currency,
// falling back to the two-decimal default when the currency is unknown.
func (s *journalService) balanceEpsilon(ctx context.Context, currencyCode string) (accounting.ValidationOptions, error) {
	opts := accounting.ValidationOptions{Epsilon: accounting.DefaultEpsilon}
	if currencyCode == "" {
		return opts, nil
	}
	currency, err := s.currencyRepo.FindCurrencyByCode(ctx, currencyCode)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return opts, fmt.Errorf("%w: currency %s is not registered", apperrors.ErrValidation, currencyCode)
		}
		return opts, fmt.Errorf("failed to look up currency %s: %w", currencyCode, err)
	}
	opts.Epsilon = currency.BalanceEpsilon()
	return opts, nil
}

// ValidateJournal evaluates candidate lines without persisting anything.
// Unbalanced input is a normal answer, not an error; only infrastructure
// failures (unknown currency, repo errors) surface as errors.
func (s *journalService) ValidateJournal(ctx context.Context, req dto.ValidateJournalRequest) (*accounting.ValidationResult, error) {
	opts, err := s.balanceEpsilon(ctx, req.CurrencyCode)
	if err != nil {
		return nil, err
	}
	opts.TargetAmount = req.TargetAmount

	result := accounting.ValidateLines(dto.ToDomainLines(req.Lines), opts)
	return &result, nil
}

// nextEntryNumber builds the human entry number "JE-YYYYMMDD-NNNN" from
// the per-day journal count.
func (s *journalService) nextEntryNumber(ctx context.Context, date time.Time) (string, error) {
	count, err := s.journalRepo.CountJournalsOnDate(ctx, date)
	if err != nil {
		return "", fmt.Errorf("failed to count journals for entry number: %w", err)
	}
	return fmt.Sprintf("JE-%s-%04d", date.Format("20060102"), count+1), nil
}

// CreateJournal validates and persists a new journal with its lines.
// Implements portssvc.JournalSvcFacade
func (s *journalService) CreateJournal(ctx context.Context, req dto.CreateJournalRequest, creatorUserID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if strings.TrimSpace(req.Description) == "" {
		return nil, ErrDescriptionMissing
	}
	if len(req.Lines) < 2 {
		return nil, ErrJournalMinEntries
	}

	accountSet := make(map[string]bool)
	for _, line := range req.Lines {
		accountSet[line.AccountID] = true
	}
	if len(accountSet) < 2 {
		return nil, ErrJournalMinAccounts
	}

	opts, err := s.balanceEpsilon(ctx, req.CurrencyCode)
	if err != nil {
		return nil, err
	}
	opts.TargetAmount = req.TargetAmount

	lines := dto.ToDomainLines(req.Lines)
	validation := accounting.ValidateLines(lines, opts)
	if !validation.HasValidEntries {
		return nil, fmt.Errorf("%w: one or more lines are malformed", apperrors.ErrValidation)
	}
	if !validation.IsBalanced {
		return nil, fmt.Errorf("%w: debit total %s, credit total %s", ErrJournalUnbalanced, validation.TotalDebit, validation.TotalCredit)
	}

	now := time.Now().UTC()
	journalID := uuid.NewString()

	accountIDs := make([]string, 0, len(accountSet))
	for id := range accountSet {
		accountIDs = append(accountIDs, id)
	}
	accountsMap, err := s.accountRepo.FindAccountsByIDs(ctx, accountIDs)
	if err != nil {
		logger.Error("Failed to fetch accounts for journal creation", "error", err)
		return nil, fmt.Errorf("failed to fetch accounts: %w", err)
	}

	accountTypes := make(map[string]domain.AccountType, len(accountIDs))
	for _, id := range accountIDs {
		acc, found := accountsMap[id]
		if !found {
			return nil, fmt.Errorf("%w: ID %s", ErrAccountNotFound, id)
		}
		if !acc.IsActive {
			return nil, fmt.Errorf("%w: account %s is inactive", apperrors.ErrValidation, id)
		}
		if acc.CurrencyCode != req.CurrencyCode {
			return nil, fmt.Errorf("%w: account currency %s does not match journal currency %s for account %s", ErrCurrencyMismatch, acc.CurrencyCode, req.CurrencyCode, id)
		}
		accountTypes[id] = acc.AccountType
	}

	for i := range lines {
		lines[i].LineID = uuid.NewString()
		lines[i].JournalID = journalID
		lines[i].AuditFields = domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		}
	}

	balanceChanges, err := accounting.BalanceChanges(lines, accountTypes)
	if err != nil {
		logger.Error("Failed to calculate balance changes", "error", err)
		return nil, fmt.Errorf("failed to calculate balance changes: %w", err)
	}

	entryNumber, err := s.nextEntryNumber(ctx, req.Date)
	if err != nil {
		return nil, err
	}

	journal := domain.JournalEntry{
		JournalID:    journalID,
		EntryNumber:  entryNumber,
		EntryDate:    req.Date,
		Description:  req.Description,
		CurrencyCode: req.CurrencyCode,
		Status:       domain.Posted,
		SourceType:   domain.SourceManual,
		Amount:       validation.TotalDebit,
		Lines:        lines,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.journalRepo.SaveJournal(ctx, journal, balanceChanges); err != nil {
		logger.Error("Failed to save journal", "error", err, "journal_id", journalID)
		return nil, fmt.Errorf("failed to save journal: %w", err)
	}

	logger.Info("Journal created successfully", "journal_id", journalID, "entry_number", entryNumber)
	return &journal, nil
}

// GetJournalByID retrieves a specific journal with its lines.
// Implements portssvc.JournalSvcFacade
func (s *journalService) GetJournalByID(ctx context.Context, journalID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	journal, err := s.journalRepo.FindJournalByID(ctx, journalID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.Error("Failed to find journal by ID", "error", err, "journal_id", journalID)
		}
		return nil, fmt.Errorf("failed to find journal by ID %s: %w", journalID, err)
	}

	lines, err := s.journalRepo.FindLinesByJournalID(ctx, journalID)
	if err != nil {
		logger.Error("Failed to fetch lines for journal", "error", err, "journal_id", journalID)
		return nil, fmt.Errorf("failed to retrieve lines for journal %s: %w", journalID, apperrors.ErrInternal)
	}
	journal.Lines = lines

	return journal, nil
}

// ListJournals retrieves a paginated list of journals.
func (s *journalService) ListJournals(ctx context.Context, params dto.ListJournalsParams) (*dto.ListJournalsResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}

	journals, nextToken, err := s.journalRepo.ListJournals(ctx, limit, params.NextToken, params.IncludeReversals)
	if err != nil {
		logger.Error("Failed to list journals from repository", "error", err)
		return nil, fmt.Errorf("failed to retrieve journals: %w", err)
	}

	var linesMap map[string][]domain.JournalLine
	if params.IncludeLines && len(journals) > 0 {
		journalIDs := make([]string, len(journals))
		for i := range journals {
			journalIDs[i] = journals[i].JournalID
		}
		linesMap, err = s.journalRepo.FindLinesByJournalIDs(ctx, journalIDs)
		if err != nil {
			logger.Warn("Failed to fetch lines for journals", "error", err)
			// Continue without lines rather than failing the whole request
		}
	}

	journalResponses := make([]dto.JournalResponse, len(journals))
	for i := range journals {
		if linesMap != nil {
			journals[i].Lines = linesMap[journals[i].JournalID]
		} else {
			journals[i].Lines = nil
		}
		journalResponses[i] = dto.ToJournalResponse(&journals[i])
	}

	return &dto.ListJournalsResponse{
		Journals:  journalResponses,
		NextToken: nextToken,
	}, nil
}

// ListLinesByAccount retrieves a paginated list of lines touching one account.
func (s *journalService) ListLinesByAccount(ctx context.Context, accountID string, limit int, nextToken *string) ([]domain.JournalLine, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	lines, token, err := s.journalRepo.ListLinesByAccountID(ctx, accountID, limit, nextToken)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to retrieve lines for account %s: %w", accountID, err)
	}
	return lines, token, nil
}

// UpdateJournal updates the description and date of a journal entry.
// Implements portssvc.JournalSvcFacade
func (s *journalService) UpdateJournal(ctx context.Context, journalID string, req dto.UpdateJournalRequest, requestingUserID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	journal, err := s.journalRepo.FindJournalByID(ctx, journalID)
	if err != nil {
		return nil, fmt.Errorf("failed to find journal %s for update: %w", journalID, err)
	}

	if journal.Status != domain.Posted {
		return nil, ErrNotPosted
	}

	updated := false
	if req.Date != nil {
		journal.EntryDate = *req.Date
		updated = true
	}
	if req.Description != nil {
		journal.Description = *req.Description
		updated = true
	}
	if !updated {
		return journal, nil
	}

	journal.LastUpdatedAt = time.Now().UTC()
	journal.LastUpdatedBy = requestingUserID

	if err := s.journalRepo.UpdateJournal(ctx, *journal); err != nil {
		logger.Error("Failed to save journal update", "error", err, "journal_id", journalID)
		return nil, fmt.Errorf("failed to save journal update: %w", err)
	}

	logger.Info("Journal updated successfully", "journal_id", journalID)
	return journal, nil
}

// ReverseJournal creates a new journal entry that mirrors a posted
// journal with its debit and credit sides swapped, then marks the
// original as reversed. The pair is linked in both directions.
func (s *journalService) ReverseJournal(ctx context.Context, journalID string, userID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	original, err := s.journalRepo.FindJournalByID(ctx, journalID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		logger.Error("Failed to fetch original journal for reversal", "error", err)
		return nil, fmt.Errorf("failed to retrieve original journal: %w", err)
	}

	if original.Status != domain.Posted {
		return nil, fmt.Errorf("%w: journal status is %s, expected POSTED", apperrors.ErrConflict, original.Status)
	}
	if original.OriginalJournalID != nil {
		return nil, fmt.Errorf("%w: cannot reverse a journal that is already a reversal", apperrors.ErrConflict)
	}

	originalLines, err := s.journalRepo.FindLinesByJournalID(ctx, journalID)
	if err != nil {
		logger.Error("Failed to fetch original lines for reversal", "error", err)
		return nil, fmt.Errorf("failed to retrieve original lines: %w", err)
	}

	now := time.Now().UTC()
	newJournalID := uuid.NewString()

	reversedLines := make([]domain.JournalLine, len(originalLines))
	accountIDs := make([]string, 0, len(originalLines))
	for i, orig := range originalLines {
		accountIDs = append(accountIDs, orig.AccountID)
		reversedLines[i] = domain.JournalLine{
			LineID:       uuid.NewString(),
			JournalID:    newJournalID,
			AccountID:    orig.AccountID,
			Description:  orig.Description,
			DebitAmount:  orig.CreditAmount,
			CreditAmount: orig.DebitAmount,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		}
	}

	accountsMap, err := s.accountRepo.FindAccountsByIDs(ctx, accountIDs)
	if err != nil {
		logger.Error("Failed to fetch accounts for reversal balance calculation", "error", err)
		return nil, fmt.Errorf("failed to get account details for reversal: %w", err)
	}
	accountTypes := make(map[string]domain.AccountType, len(accountsMap))
	for id, acc := range accountsMap {
		accountTypes[id] = acc.AccountType
	}

	balanceChanges, err := accounting.BalanceChanges(reversedLines, accountTypes)
	if err != nil {
		logger.Error("Failed to calculate reversal balance changes", "error", err)
		return nil, fmt.Errorf("failed to calculate reversal balance changes: %w", err)
	}

	entryNumber, err := s.nextEntryNumber(ctx, original.EntryDate)
	if err != nil {
		return nil, err
	}

	reversing := domain.JournalEntry{
		JournalID:         newJournalID,
		EntryNumber:       entryNumber,
		EntryDate:         original.EntryDate,
		Description:       fmt.Sprintf("Reversal of %s: %s", original.EntryNumber, original.Description),
		CurrencyCode:      original.CurrencyCode,
		Status:            domain.Posted,
		SourceType:        original.SourceType,
		SourceID:          original.SourceID,
		Amount:            original.Amount,
		OriginalJournalID: &original.JournalID,
		Lines:             reversedLines,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.journalRepo.SaveJournal(ctx, reversing, balanceChanges); err != nil {
		logger.Error("Failed to save reversing journal entry", "error", err)
		return nil, fmt.Errorf("failed to save reversing journal: %w", err)
	}

	if err := s.journalRepo.UpdateJournalStatusAndLinks(ctx, original.JournalID, domain.Reversed, &newJournalID, original.OriginalJournalID, userID, now); err != nil {
		logger.Error("Failed to update original journal status after reversal", "original_journal_id", original.JournalID, "error", err)
		return nil, fmt.Errorf("failed to update original journal status: %w", err)
	}

	logger.Info("Journal reversed successfully", "reversing_journal_id", newJournalID, "original_journal_id", original.JournalID)
	return &reversing, nil
}
