package services

import (
	"context"

	"github.com/akunara/akunara_backend/internal/core/domain"
	"github.com/akunara/akunara_backend/internal/dto"
)

// PurchaseReaderSvc defines read operations for purchase data
type PurchaseReaderSvc interface {
	// GetPurchaseByID retrieves a specific purchase by its ID.
	GetPurchaseByID(ctx context.Context, purchaseID string) (*domain.Purchase, error)

	// ListPurchases retrieves a paginated list of purchases.
	ListPurchases(ctx context.Context, params dto.ListPurchasesParams) (*dto.ListPurchasesResponse, error)
}

// PurchaseWriterSvc defines write operations for purchase data
type PurchaseWriterSvc interface {
	// CreatePurchase persists a new draft purchase.
	CreatePurchase(ctx context.Context, req dto.CreatePurchaseRequest, creatorUserID string) (*domain.Purchase, error)

	// UpdatePurchase updates a draft purchase.
	UpdatePurchase(ctx context.Context, purchaseID string, req dto.UpdatePurchaseRequest, requestingUserID string) (*domain.Purchase, error)

	// SubmitPurchase submits a draft for approval, creating the approval
	// request when a workflow matches the amount.
	SubmitPurchase(ctx context.Context, purchaseID string, requestingUserID string) (*domain.Purchase, error)

	// CancelPurchase cancels a purchase that is not yet approved.
	CancelPurchase(ctx context.Context, purchaseID string, requestingUserID string) error
}

// PurchaseApprovalSyncSvc receives approval outcomes and denormalizes
// them onto the purchase document.
type PurchaseApprovalSyncSvc interface {
	// ApplyApprovalOutcome updates the purchase linked to the request after
	// the approval pipeline reaches a terminal state.
	ApplyApprovalOutcome(ctx context.Context, requestID string, outcome domain.ApprovalStatus, actorUserID string) error
}

// PurchaseSvcFacade combines all purchase-related service interfaces
type PurchaseSvcFacade interface {
	PurchaseReaderSvc
	PurchaseWriterSvc
	PurchaseApprovalSyncSvc
}
