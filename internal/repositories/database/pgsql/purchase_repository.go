package pgsql

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/akunara/akunara_backend/internal/apperrors"
	"github.com/akunara/akunara_backend/internal/core/domain"
	portsrepo "github.com/akunara/akunara_backend/internal/core/ports/repositories"
	"github.com/akunara/akunara_backend/internal/utils/pagination"
)

const purchaseColumns = `purchase_id, code, vendor_name, description, currency_code, total_amount, status, approval_status, approval_request_id, approved_at, created_at, created_by, last_updated_at, last_updated_by`

type PgxPurchaseRepository struct {
	BaseRepository
}

// newPgxPurchaseRepository creates a new repository for purchase data.
func newPgxPurchaseRepository(pool *pgxpool.Pool) portsrepo.PurchaseRepositoryFacade {
	return &PgxPurchaseRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxPurchaseRepository implements portsrepo.PurchaseRepositoryFacade
var _ portsrepo.PurchaseRepositoryFacade = (*PgxPurchaseRepository)(nil)

func scanPurchase(row pgx.Row) (domain.Purchase, error) {
	var p domain.Purchase
	err := row.Scan(
		&p.PurchaseID,
		&p.Code,
		&p.VendorName,
		&p.Description,
		&p.CurrencyCode,
		&p.TotalAmount,
		&p.Status,
		&p.ApprovalStatus,
		&p.ApprovalRequestID,
		&p.ApprovedAt,
		&p.CreatedAt,
		&p.CreatedBy,
		&p.LastUpdatedAt,
		&p.LastUpdatedBy,
	)
	return p, err
}

// SavePurchase persists a new purchase.
func (r *PgxPurchaseRepository) SavePurchase(ctx context.Context, purchase domain.Purchase) error {
	query := `
		INSERT INTO purchases (` + purchaseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
	`
	_, err := r.Pool.Exec(ctx, query,
		purchase.PurchaseID,
		purchase.Code,
		purchase.VendorName,
		purchase.Description,
		purchase.CurrencyCode,
		purchase.TotalAmount,
		purchase.Status,
		purchase.ApprovalStatus,
		purchase.ApprovalRequestID,
		purchase.ApprovedAt,
		purchase.CreatedAt,
		purchase.CreatedBy,
		purchase.LastUpdatedAt,
		purchase.LastUpdatedBy,
	)
	if err != nil {
		return translateError(err, "failed to insert purchase "+purchase.PurchaseID)
	}
	return nil
}

// FindPurchaseByID retrieves a specific purchase by its ID.
func (r *PgxPurchaseRepository) FindPurchaseByID(ctx context.Context, purchaseID string) (*domain.Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE purchase_id = $1;`
	purchase, err := scanPurchase(r.Pool.QueryRow(ctx, query, purchaseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, translateError(err, "failed to find purchase "+purchaseID)
	}
	return &purchase, nil
}

// FindPurchaseByApprovalRequestID retrieves the purchase linked to an
// approval request.
func (r *PgxPurchaseRepository) FindPurchaseByApprovalRequestID(ctx context.Context, requestID string) (*domain.Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE approval_request_id = $1;`
	purchase, err := scanPurchase(r.Pool.QueryRow(ctx, query, requestID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, translateError(err, "failed to find purchase for approval request "+requestID)
	}
	return &purchase, nil
}

// ListPurchases retrieves a paginated list of purchases, newest first,
// optionally filtered by status.
func (r *PgxPurchaseRepository) ListPurchases(ctx context.Context, limit int, nextToken *string, status *domain.PurchaseStatus) ([]domain.Purchase, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	baseQuery := `SELECT ` + purchaseColumns + ` FROM purchases`
	filterClause := `WHERE 1=1`
	args := []interface{}{}
	if status != nil {
		args = append(args, *status)
		filterClause += ` AND status = $` + strconv.Itoa(len(args))
	}
	if nextToken != nil && *nextToken != "" {
		lastCreatedAt, decodeErr := pagination.DecodeDateBasedToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.ErrValidation
		}
		args = append(args, lastCreatedAt)
		filterClause += ` AND created_at < $` + strconv.Itoa(len(args))
	}
	args = append(args, fetchLimit)
	query := baseQuery + " " + filterClause + " ORDER BY created_at DESC LIMIT $" + strconv.Itoa(len(args)) + ";"

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, translateError(err, "failed to query purchases")
	}
	defer rows.Close()

	purchases := make([]domain.Purchase, 0, fetchLimit)
	for rows.Next() {
		purchase, err := scanPurchase(rows)
		if err != nil {
			return nil, nil, translateError(err, "failed to scan purchase row")
		}
		purchases = append(purchases, purchase)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, translateError(err, "error iterating purchase rows")
	}

	var nextTokenVal *string
	if len(purchases) > limit {
		token := pagination.EncodeDateBasedToken(purchases[limit-1].CreatedAt)
		nextTokenVal = &token
		purchases = purchases[:limit]
	}
	return purchases, nextTokenVal, nil
}

// CountPurchasesInYear returns how many purchases were created in the
// given calendar year, used for sequential code generation.
func (r *PgxPurchaseRepository) CountPurchasesInYear(ctx context.Context, year int) (int, error) {
	query := `SELECT COUNT(*) FROM purchases WHERE EXTRACT(YEAR FROM created_at) = $1;`
	var count int
	if err := r.Pool.QueryRow(ctx, query, year).Scan(&count); err != nil {
		return 0, translateError(err, "failed to count purchases in year")
	}
	return count, nil
}

// UpdatePurchase updates the mutable fields of a purchase.
func (r *PgxPurchaseRepository) UpdatePurchase(ctx context.Context, purchase domain.Purchase) error {
	query := `
		UPDATE purchases
		SET vendor_name = $2,
		    description = $3,
		    currency_code = $4,
		    total_amount = $5,
		    status = $6,
		    approval_status = $7,
		    approval_request_id = $8,
		    approved_at = $9,
		    last_updated_at = $10,
		    last_updated_by = $11
		WHERE purchase_id = $1;
	`
	cmdTag, err := r.Pool.Exec(ctx, query,
		purchase.PurchaseID,
		purchase.VendorName,
		purchase.Description,
		purchase.CurrencyCode,
		purchase.TotalAmount,
		purchase.Status,
		purchase.ApprovalStatus,
		purchase.ApprovalRequestID,
		purchase.ApprovedAt,
		purchase.LastUpdatedAt,
		purchase.LastUpdatedBy,
	)
	if err != nil {
		return translateError(err, "failed to update purchase "+purchase.PurchaseID)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
