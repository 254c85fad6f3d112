package pgsql

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/akunara/akunara_backend/internal/apperrors"
	"github.com/akunara/akunara_backend/internal/core/domain"
	portsrepo "github.com/akunara/akunara_backend/internal/core/ports/repositories"
	"github.com/akunara/akunara_backend/internal/utils/pagination"
)

const journalColumns = `journal_id, entry_number, entry_date, description, currency_code, status, source_type, source_id, amount, original_journal_id, reversing_journal_id, created_at, created_by, last_updated_at, last_updated_by`

const lineColumns = `line_id, journal_id, account_id, description, debit_amount, credit_amount, created_at, created_by, last_updated_at, last_updated_by`

type PgxJournalRepository struct {
	BaseRepository
	accountRepo portsrepo.AccountRepositoryFacade
}

// newPgxJournalRepository creates a new repository for journal entry and
// line data. The account repository is needed to lock and adjust balances
// while posting.
func newPgxJournalRepository(pool *pgxpool.Pool, accountRepo portsrepo.AccountRepositoryFacade) portsrepo.JournalRepositoryWithTx {
	return &PgxJournalRepository{
		BaseRepository: BaseRepository{Pool: pool},
		accountRepo:    accountRepo,
	}
}

// Ensure PgxJournalRepository implements portsrepo.JournalRepositoryWithTx
var _ portsrepo.JournalRepositoryWithTx = (*PgxJournalRepository)(nil)

func scanJournal(row pgx.Row) (domain.JournalEntry, error) {
	var j domain.JournalEntry
	err := row.Scan(
		&j.JournalID,
		&j.EntryNumber,
		&j.EntryDate,
		&j.Description,
		&j.CurrencyCode,
		&j.Status,
		&j.SourceType,
		&j.SourceID,
		&j.Amount,
		&j.OriginalJournalID,
		&j.ReversingJournalID,
		&j.CreatedAt,
		&j.CreatedBy,
		&j.LastUpdatedAt,
		&j.LastUpdatedBy,
	)
	return j, err
}

func scanLine(row pgx.Row) (domain.JournalLine, error) {
	var l domain.JournalLine
	err := row.Scan(
		&l.LineID,
		&l.JournalID,
		&l.AccountID,
		&l.Description,
		&l.DebitAmount,
		&l.CreditAmount,
		&l.CreatedAt,
		&l.CreatedBy,
		&l.LastUpdatedAt,
		&l.LastUpdatedBy,
	)
	return l, err
}

// SaveJournal persists a journal with its lines and applies the account
// balance deltas, all inside a single database transaction. The accounts
// are locked first so concurrent postings serialize on them.
func (r *PgxJournalRepository) SaveJournal(ctx context.Context, journal domain.JournalEntry, balanceChanges map[string]decimal.Decimal) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx) // No-op once committed

	journalQuery := `
		INSERT INTO journal_entries (` + journalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`
	_, err = tx.Exec(ctx, journalQuery,
		journal.JournalID,
		journal.EntryNumber,
		journal.EntryDate,
		journal.Description,
		journal.CurrencyCode,
		journal.Status,
		journal.SourceType,
		journal.SourceID,
		journal.Amount,
		journal.OriginalJournalID,
		journal.ReversingJournalID,
		journal.CreatedAt,
		journal.CreatedBy,
		journal.LastUpdatedAt,
		journal.LastUpdatedBy,
	)
	if err != nil {
		return translateError(err, "failed to insert journal "+journal.JournalID)
	}

	accountIDs := make([]string, 0, len(balanceChanges))
	for accountID := range balanceChanges {
		accountIDs = append(accountIDs, accountID)
	}
	if _, err := r.accountRepo.FindAccountsByIDsForUpdate(ctx, tx, accountIDs); err != nil {
		return translateError(err, "failed to lock accounts for journal "+journal.JournalID)
	}
	if err := r.accountRepo.UpdateAccountBalancesInTx(ctx, tx, balanceChanges, journal.CreatedBy, journal.CreatedAt); err != nil {
		return translateError(err, "failed to update account balances for journal "+journal.JournalID)
	}

	lineQuery := `
		INSERT INTO journal_lines (` + lineColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	batch := &pgx.Batch{}
	for _, line := range journal.Lines {
		batch.Queue(lineQuery,
			line.LineID,
			line.JournalID,
			line.AccountID,
			line.Description,
			line.DebitAmount,
			line.CreditAmount,
			line.CreatedAt,
			line.CreatedBy,
			line.LastUpdatedAt,
			line.LastUpdatedBy,
		)
	}
	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return translateError(err, "failed to execute line batch for journal "+journal.JournalID)
	}

	return r.Commit(ctx, tx)
}

// FindJournalByID retrieves a journal by its ID, without lines.
func (r *PgxJournalRepository) FindJournalByID(ctx context.Context, journalID string) (*domain.JournalEntry, error) {
	query := `SELECT ` + journalColumns + ` FROM journal_entries WHERE journal_id = $1;`
	journal, err := scanJournal(r.Pool.QueryRow(ctx, query, journalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, translateError(err, "failed to find journal "+journalID)
	}
	return &journal, nil
}

// ListJournals retrieves a paginated list of journals using token-based
// pagination, ordered by entry date then creation time, newest first.
func (r *PgxJournalRepository) ListJournals(ctx context.Context, limit int, nextToken *string, includeReversals bool) ([]domain.JournalEntry, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	// Fetch one extra row to know whether a next page exists.
	fetchLimit := limit + 1

	baseQuery := `SELECT ` + journalColumns + ` FROM journal_entries`
	filterClause := `WHERE 1=1`
	if !includeReversals {
		filterClause += ` AND status != 'REVERSED' AND original_journal_id IS NULL`
	}
	orderByClause := `ORDER BY entry_date DESC, created_at DESC`

	args := []interface{}{}
	if nextToken != nil && *nextToken != "" {
		lastDate, lastCreatedAt, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.ErrValidation
		}
		filterClause += ` AND (entry_date, created_at) < ($1, $2)`
		args = append(args, lastDate, lastCreatedAt)
	}
	query := baseQuery + " " + filterClause + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
	args = append(args, fetchLimit)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, translateError(err, "failed to query journals")
	}
	defer rows.Close()

	journals := make([]domain.JournalEntry, 0, fetchLimit)
	for rows.Next() {
		journal, err := scanJournal(rows)
		if err != nil {
			return nil, nil, translateError(err, "failed to scan journal row")
		}
		journals = append(journals, journal)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, translateError(err, "error iterating journal rows")
	}

	var nextTokenVal *string
	if len(journals) > limit {
		last := journals[limit-1]
		token := pagination.EncodeToken(last.EntryDate, last.CreatedAt)
		nextTokenVal = &token
		journals = journals[:limit]
	}
	return journals, nextTokenVal, nil
}

// CountJournalsOnDate returns how many journals carry the given entry date.
func (r *PgxJournalRepository) CountJournalsOnDate(ctx context.Context, date time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM journal_entries WHERE entry_date::date = $1::date;`
	var count int
	if err := r.Pool.QueryRow(ctx, query, date).Scan(&count); err != nil {
		return 0, translateError(err, "failed to count journals on date")
	}
	return count, nil
}

// UpdateJournalStatusAndLinks updates the status and reversal linkage of a journal.
func (r *PgxJournalRepository) UpdateJournalStatusAndLinks(ctx context.Context, journalID string, status domain.JournalStatus, reversingJournalID *string, originalJournalID *string, updatedByUserID string, updatedAt time.Time) error {
	query := `
		UPDATE journal_entries
		SET status = $2,
		    reversing_journal_id = $3,
		    original_journal_id = $4,
		    last_updated_at = $5,
		    last_updated_by = $6
		WHERE journal_id = $1;
	`
	cmdTag, err := r.Pool.Exec(ctx, query,
		journalID,
		status,
		reversingJournalID,
		originalJournalID,
		updatedAt,
		updatedByUserID,
	)
	if err != nil {
		return translateError(err, "failed to update journal status/links for "+journalID)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// UpdateJournal updates non-status fields of a journal. Status changes go
// through UpdateJournalStatusAndLinks.
func (r *PgxJournalRepository) UpdateJournal(ctx context.Context, journal domain.JournalEntry) error {
	query := `
		UPDATE journal_entries
		SET entry_date = $2,
		    description = $3,
		    last_updated_at = $4,
		    last_updated_by = $5
		WHERE journal_id = $1;
	`
	cmdTag, err := r.Pool.Exec(ctx, query,
		journal.JournalID,
		journal.EntryDate,
		journal.Description,
		journal.LastUpdatedAt,
		journal.LastUpdatedBy,
	)
	if err != nil {
		return translateError(err, "failed to update journal "+journal.JournalID)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// FindLinesByJournalID retrieves all lines of a single journal.
func (r *PgxJournalRepository) FindLinesByJournalID(ctx context.Context, journalID string) ([]domain.JournalLine, error) {
	query := `SELECT ` + lineColumns + ` FROM journal_lines WHERE journal_id = $1 ORDER BY created_at, line_id;`
	rows, err := r.Pool.Query(ctx, query, journalID)
	if err != nil {
		return nil, translateError(err, "failed to query lines for journal "+journalID)
	}
	defer rows.Close()

	lines := []domain.JournalLine{}
	for rows.Next() {
		line, err := scanLine(rows)
		if err != nil {
			return nil, translateError(err, "failed to scan line row")
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, translateError(err, "error iterating line rows")
	}
	return lines, nil
}

// FindLinesByJournalIDs retrieves lines for multiple journals, grouped by
// journal ID. Journals without lines get an empty slice.
func (r *PgxJournalRepository) FindLinesByJournalIDs(ctx context.Context, journalIDs []string) (map[string][]domain.JournalLine, error) {
	if len(journalIDs) == 0 {
		return map[string][]domain.JournalLine{}, nil
	}
	query := `SELECT ` + lineColumns + ` FROM journal_lines WHERE journal_id = ANY($1) ORDER BY journal_id, created_at, line_id;`
	rows, err := r.Pool.Query(ctx, query, journalIDs)
	if err != nil {
		return nil, translateError(err, "failed to query lines for journals")
	}
	defer rows.Close()

	linesMap := make(map[string][]domain.JournalLine)
	for rows.Next() {
		line, err := scanLine(rows)
		if err != nil {
			return nil, translateError(err, "failed to scan line row during batch fetch")
		}
		linesMap[line.JournalID] = append(linesMap[line.JournalID], line)
	}
	if err := rows.Err(); err != nil {
		return nil, translateError(err, "error iterating line rows during batch fetch")
	}

	for _, journalID := range journalIDs {
		if _, exists := linesMap[journalID]; !exists {
			linesMap[journalID] = []domain.JournalLine{}
		}
	}
	return linesMap, nil
}

// ListLinesByAccountID retrieves a paginated list of posted, non-reversal
// lines touching one account, newest first.
func (r *PgxJournalRepository) ListLinesByAccountID(ctx context.Context, accountID string, limit int, nextToken *string) ([]domain.JournalLine, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	baseQuery := `
		SELECT l.line_id, l.journal_id, l.account_id, l.description, l.debit_amount, l.credit_amount,
		       l.created_at, l.created_by, l.last_updated_at, l.last_updated_by, j.entry_date
		FROM journal_lines l
		JOIN journal_entries j ON l.journal_id = j.journal_id
		WHERE l.account_id = $1 AND j.status = 'POSTED' AND j.original_journal_id IS NULL
	`
	orderByClause := `ORDER BY j.entry_date DESC, l.created_at DESC`

	args := []interface{}{accountID}
	if nextToken != nil && *nextToken != "" {
		lastDate, lastCreatedAt, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.ErrValidation
		}
		baseQuery += ` AND (j.entry_date, l.created_at) < ($2, $3)`
		args = append(args, lastDate, lastCreatedAt)
	}
	query := baseQuery + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
	args = append(args, fetchLimit)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, translateError(err, "failed to query lines for account "+accountID)
	}
	defer rows.Close()

	type lineWithDate struct {
		line      domain.JournalLine
		entryDate time.Time
	}
	results := make([]lineWithDate, 0, fetchLimit)
	for rows.Next() {
		var lwd lineWithDate
		if err := rows.Scan(
			&lwd.line.LineID,
			&lwd.line.JournalID,
			&lwd.line.AccountID,
			&lwd.line.Description,
			&lwd.line.DebitAmount,
			&lwd.line.CreditAmount,
			&lwd.line.CreatedAt,
			&lwd.line.CreatedBy,
			&lwd.line.LastUpdatedAt,
			&lwd.line.LastUpdatedBy,
			&lwd.entryDate,
		); err != nil {
			return nil, nil, translateError(err, "failed to scan line row for account "+accountID)
		}
		results = append(results, lwd)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, translateError(err, "error iterating line rows for account "+accountID)
	}

	var nextTokenVal *string
	if len(results) > limit {
		last := results[limit-1]
		token := pagination.EncodeToken(last.entryDate, last.line.CreatedAt)
		nextTokenVal = &token
		results = results[:limit]
	}
	lines := make([]domain.JournalLine, len(results))
	for i, lwd := range results {
		lines[i] = lwd.line
	}
	return lines, nextTokenVal, nil
}
