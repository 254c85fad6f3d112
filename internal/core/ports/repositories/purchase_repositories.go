package repositories

import (
	"context"

	"github.com/akunara/akunara_backend/internal/core/domain"
)

// PurchaseReader defines read operations for purchase data
type PurchaseReader interface {
	// FindPurchaseByID retrieves a specific purchase by its ID.
	FindPurchaseByID(ctx context.Context, purchaseID string) (*domain.Purchase, error)

	// FindPurchaseByApprovalRequestID retrieves the purchase linked to an approval request.
	FindPurchaseByApprovalRequestID(ctx context.Context, requestID string) (*domain.Purchase, error)

	// ListPurchases retrieves a paginated list of purchases, newest first.
	ListPurchases(ctx context.Context, limit int, nextToken *string, status *domain.PurchaseStatus) ([]domain.Purchase, *string, error)

	// CountPurchasesInYear returns how many purchases were created in the
	// given year, used for sequential code generation.
	CountPurchasesInYear(ctx context.Context, year int) (int, error)
}

// PurchaseWriter defines write operations for purchase data
type PurchaseWriter interface {
	// SavePurchase persists a new purchase.
	SavePurchase(ctx context.Context, purchase domain.Purchase) error

	// UpdatePurchase updates an existing purchase.
	UpdatePurchase(ctx context.Context, purchase domain.Purchase) error
}

// PurchaseRepositoryFacade combines all purchase-related repository interfaces
type PurchaseRepositoryFacade interface {
	PurchaseReader
	PurchaseWriter
}
