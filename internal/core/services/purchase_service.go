package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/akunara/akunara_backend/internal/apperrors"
	"github.com/akunara/akunara_backend/internal/core/domain"
	portsrepo "github.com/akunara/akunara_backend/internal/core/ports/repositories"
	portssvc "github.com/akunara/akunara_backend/internal/core/ports/services"
	"github.com/akunara/akunara_backend/internal/dto"
	"github.com/akunara/akunara_backend/internal/middleware"
)

var (
	ErrPurchaseNotDraft  = errors.New("purchase is not in draft status")
	ErrPurchaseFinalized = errors.New("purchase is already approved or cancelled")
)

// purchaseService provides purchase document operations and their link
// into the approval pipeline.
type purchaseService struct {
	purchaseRepo portsrepo.PurchaseRepositoryFacade
	currencyRepo portsrepo.CurrencyRepositoryFacade
	approvalSvc  portssvc.ApprovalSvcFacade
}

// NewPurchaseService creates a new PurchaseService.
func NewPurchaseService(purchaseRepo portsrepo.PurchaseRepositoryFacade, currencyRepo portsrepo.CurrencyRepositoryFacade, approvalSvc portssvc.ApprovalSvcFacade) portssvc.PurchaseSvcFacade {
	return &purchaseService{
		purchaseRepo: purchaseRepo,
		currencyRepo: currencyRepo,
		approvalSvc:  approvalSvc,
	}
}

var _ portssvc.PurchaseSvcFacade = (*purchaseService)(nil)

// nextPurchaseCode builds the human code "PO-YYYY-NNNN" from the
// per-year purchase count.
func (s *purchaseService) nextPurchaseCode(ctx context.Context, now time.Time) (string, error) {
	count, err := s.purchaseRepo.CountPurchasesInYear(ctx, now.Year())
	if err != nil {
		return "", fmt.Errorf("failed to count purchases for code generation: %w", err)
	}
	return fmt.Sprintf("PO-%d-%04d", now.Year(), count+1), nil
}

// CreatePurchase persists a new draft purchase.
func (s *purchaseService) CreatePurchase(ctx context.Context, req dto.CreatePurchaseRequest, creatorUserID string) (*domain.Purchase, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !req.TotalAmount.IsPositive() {
		return nil, fmt.Errorf("%w: total amount must be positive", apperrors.ErrValidation)
	}
	if _, err := s.currencyRepo.FindCurrencyByCode(ctx, req.CurrencyCode); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: currency %s is not registered", apperrors.ErrValidation, req.CurrencyCode)
		}
		return nil, fmt.Errorf("failed to verify currency %s: %w", req.CurrencyCode, err)
	}

	now := time.Now().UTC()
	code, err := s.nextPurchaseCode(ctx, now)
	if err != nil {
		return nil, err
	}

	purchase := domain.Purchase{
		PurchaseID:     uuid.NewString(),
		Code:           code,
		VendorName:     req.VendorName,
		Description:    req.Description,
		CurrencyCode:   req.CurrencyCode,
		TotalAmount:    req.TotalAmount,
		Status:         domain.PurchaseDraft,
		ApprovalStatus: domain.PurchaseApprovalNotRequired,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.purchaseRepo.SavePurchase(ctx, purchase); err != nil {
		logger.Error("Failed to save purchase", "error", err)
		return nil, fmt.Errorf("failed to save purchase: %w", err)
	}

	logger.Info("Purchase created", "purchase_id", purchase.PurchaseID, "code", code)
	return &purchase, nil
}

// GetPurchaseByID retrieves a specific purchase.
func (s *purchaseService) GetPurchaseByID(ctx context.Context, purchaseID string) (*domain.Purchase, error) {
	purchase, err := s.purchaseRepo.FindPurchaseByID(ctx, purchaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to find purchase %s: %w", purchaseID, err)
	}
	return purchase, nil
}

// ListPurchases retrieves a paginated list of purchases.
func (s *purchaseService) ListPurchases(ctx context.Context, params dto.ListPurchasesParams) (*dto.ListPurchasesResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}

	purchases, nextToken, err := s.purchaseRepo.ListPurchases(ctx, limit, params.NextToken, params.Status)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}

	resp := dto.ToListPurchasesResponse(purchases, nextToken)
	return &resp, nil
}

// UpdatePurchase applies partial updates to a draft purchase. Documents
// already in the approval pipeline are immutable.
func (s *purchaseService) UpdatePurchase(ctx context.Context, purchaseID string, req dto.UpdatePurchaseRequest, requestingUserID string) (*domain.Purchase, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	purchase, err := s.purchaseRepo.FindPurchaseByID(ctx, purchaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to find purchase %s for update: %w", purchaseID, err)
	}
	if purchase.Status != domain.PurchaseDraft {
		return nil, fmt.Errorf("%w: status is %s", ErrPurchaseNotDraft, purchase.Status)
	}

	updated := false
	if req.VendorName != nil {
		purchase.VendorName = *req.VendorName
		updated = true
	}
	if req.Description != nil {
		purchase.Description = *req.Description
		updated = true
	}
	if req.TotalAmount != nil {
		if !req.TotalAmount.IsPositive() {
			return nil, fmt.Errorf("%w: total amount must be positive", apperrors.ErrValidation)
		}
		purchase.TotalAmount = *req.TotalAmount
		updated = true
	}
	if !updated {
		return purchase, nil
	}

	purchase.LastUpdatedAt = time.Now().UTC()
	purchase.LastUpdatedBy = requestingUserID

	if err := s.purchaseRepo.UpdatePurchase(ctx, *purchase); err != nil {
		logger.Error("Failed to update purchase", "error", err, "purchase_id", purchaseID)
		return nil, fmt.Errorf("failed to update purchase: %w", err)
	}
	return purchase, nil
}

// SubmitPurchase moves a draft into the approval pipeline. When no
// workflow matches the amount the purchase is approved outright.
func (s *purchaseService) SubmitPurchase(ctx context.Context, purchaseID string, requestingUserID string) (*domain.Purchase, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	purchase, err := s.purchaseRepo.FindPurchaseByID(ctx, purchaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to find purchase %s for submission: %w", purchaseID, err)
	}
	if purchase.Status != domain.PurchaseDraft {
		return nil, fmt.Errorf("%w: status is %s", ErrPurchaseNotDraft, purchase.Status)
	}

	now := time.Now().UTC()
	request, err := s.approvalSvc.CreateRequest(ctx, dto.CreateApprovalRequestRequest{
		Module:   domain.ModulePurchase,
		EntityID: purchase.PurchaseID,
		Amount:   purchase.TotalAmount,
		Title:    fmt.Sprintf("Purchase %s - %s", purchase.Code, purchase.VendorName),
		Message:  purchase.Description,
	}, requestingUserID)

	switch {
	case err == nil:
		purchase.Status = domain.PurchaseSubmitted
		purchase.ApprovalStatus = domain.PurchaseApprovalPending
		purchase.ApprovalRequestID = &request.RequestID
	case errors.Is(err, ErrNoMatchingWorkflow):
		// Below every workflow band: no approval needed.
		purchase.Status = domain.PurchaseApproved
		purchase.ApprovalStatus = domain.PurchaseApprovalNotRequired
		purchase.ApprovedAt = &now
	default:
		logger.Error("Failed to open approval request for purchase", "error", err, "purchase_id", purchaseID)
		return nil, fmt.Errorf("failed to open approval request: %w", err)
	}

	purchase.LastUpdatedAt = now
	purchase.LastUpdatedBy = requestingUserID

	if err := s.purchaseRepo.UpdatePurchase(ctx, *purchase); err != nil {
		logger.Error("Failed to update submitted purchase", "error", err, "purchase_id", purchaseID)
		return nil, fmt.Errorf("failed to update submitted purchase: %w", err)
	}

	logger.Info("Purchase submitted", "purchase_id", purchaseID, "approval_status", string(purchase.ApprovalStatus))
	return purchase, nil
}

// CancelPurchase cancels a purchase that has not been approved yet,
// cancelling its approval request when one is open.
func (s *purchaseService) CancelPurchase(ctx context.Context, purchaseID string, requestingUserID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	purchase, err := s.purchaseRepo.FindPurchaseByID(ctx, purchaseID)
	if err != nil {
		return fmt.Errorf("failed to find purchase %s for cancellation: %w", purchaseID, err)
	}
	if purchase.Status == domain.PurchaseApproved || purchase.Status == domain.PurchaseCancelled {
		return fmt.Errorf("%w: status is %s", ErrPurchaseFinalized, purchase.Status)
	}

	if purchase.ApprovalRequestID != nil && purchase.ApprovalStatus == domain.PurchaseApprovalPending {
		if err := s.approvalSvc.CancelRequest(ctx, *purchase.ApprovalRequestID, requestingUserID, "purchase cancelled"); err != nil {
			return fmt.Errorf("failed to cancel linked approval request: %w", err)
		}
		// CancelRequest already cleared the link through the outcome
		// sync; mirror it here so the update below does not restore it.
		purchase.ApprovalStatus = domain.PurchaseApprovalNotRequired
		purchase.ApprovalRequestID = nil
	}

	purchase.Status = domain.PurchaseCancelled
	purchase.LastUpdatedAt = time.Now().UTC()
	purchase.LastUpdatedBy = requestingUserID

	if err := s.purchaseRepo.UpdatePurchase(ctx, *purchase); err != nil {
		logger.Error("Failed to cancel purchase", "error", err, "purchase_id", purchaseID)
		return fmt.Errorf("failed to cancel purchase: %w", err)
	}

	logger.Info("Purchase cancelled", "purchase_id", purchaseID)
	return nil
}

// ApplyApprovalOutcome denormalizes a terminal approval outcome onto the
// purchase linked to the request.
func (s *purchaseService) ApplyApprovalOutcome(ctx context.Context, requestID string, outcome domain.ApprovalStatus, actorUserID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	purchase, err := s.purchaseRepo.FindPurchaseByApprovalRequestID(ctx, requestID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Request was not opened by a purchase.
			return nil
		}
		return fmt.Errorf("failed to find purchase for approval request %s: %w", requestID, err)
	}

	now := time.Now().UTC()
	switch outcome {
	case domain.ApprovalApproved:
		purchase.Status = domain.PurchaseApproved
		purchase.ApprovalStatus = domain.PurchaseApprovalApproved
		purchase.ApprovedAt = &now
	case domain.ApprovalRejected:
		purchase.Status = domain.PurchaseDraft
		purchase.ApprovalStatus = domain.PurchaseApprovalRejected
	case domain.ApprovalCancelled:
		// Back to draft: the purchase may be resubmitted or cancelled.
		purchase.Status = domain.PurchaseDraft
		purchase.ApprovalStatus = domain.PurchaseApprovalNotRequired
		purchase.ApprovalRequestID = nil
	default:
		return nil
	}

	purchase.LastUpdatedAt = now
	purchase.LastUpdatedBy = actorUserID

	if err := s.purchaseRepo.UpdatePurchase(ctx, *purchase); err != nil {
		logger.Error("Failed to apply approval outcome to purchase", "error", err, "purchase_id", purchase.PurchaseID)
		return fmt.Errorf("failed to apply approval outcome: %w", err)
	}

	logger.Info("Applied approval outcome to purchase", "purchase_id", purchase.PurchaseID, "outcome", string(outcome))
	return nil
}
