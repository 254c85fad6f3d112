package dto

import (
	"time"

	"github.com/akunara/akunara_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreatePurchaseRequest defines the data needed to create a purchase.
type CreatePurchaseRequest struct {
	VendorName   string          `json:"vendorName" binding:"required"`
	Description  string          `json:"description" binding:"required"`
	CurrencyCode string          `json:"currencyCode" binding:"required,len=3"`
	TotalAmount  decimal.Decimal `json:"totalAmount" binding:"required"`
}

// UpdatePurchaseRequest defines the data allowed for updating a draft
// purchase. Pointers distinguish omitted fields from zero values.
type UpdatePurchaseRequest struct {
	VendorName  *string          `json:"vendorName"`
	Description *string          `json:"description"`
	TotalAmount *decimal.Decimal `json:"totalAmount"`
}

// PurchaseResponse defines the data returned for a purchase.
type PurchaseResponse struct {
	PurchaseID        string                        `json:"purchaseID"`
	Code              string                        `json:"code"`
	VendorName        string                        `json:"vendorName"`
	Description       string                        `json:"description"`
	CurrencyCode      string                        `json:"currencyCode"`
	TotalAmount       decimal.Decimal               `json:"totalAmount"`
	Status            domain.PurchaseStatus         `json:"status"`
	ApprovalStatus    domain.PurchaseApprovalStatus `json:"approvalStatus"`
	ApprovalRequestID *string                       `json:"approvalRequestID,omitempty"`
	ApprovedAt        *time.Time                    `json:"approvedAt,omitempty"`
	CreatedAt         time.Time                     `json:"createdAt"`
	CreatedBy         string                        `json:"createdBy"`
}

// ListPurchasesParams defines query parameters for listing purchases.
type ListPurchasesParams struct {
	Limit     int                    `form:"limit,default=20"`
	NextToken *string                `form:"nextToken"`
	Status    *domain.PurchaseStatus `form:"status"`
}

// ListPurchasesResponse wraps a page of purchases.
type ListPurchasesResponse struct {
	Purchases []PurchaseResponse `json:"purchases"`
	NextToken *string            `json:"nextToken,omitempty"`
}

// ToPurchaseResponse converts a domain.Purchase to PurchaseResponse DTO.
func ToPurchaseResponse(p *domain.Purchase) PurchaseResponse {
	return PurchaseResponse{
		PurchaseID:        p.PurchaseID,
		Code:              p.Code,
		VendorName:        p.VendorName,
		Description:       p.Description,
		CurrencyCode:      p.CurrencyCode,
		TotalAmount:       p.TotalAmount,
		Status:            p.Status,
		ApprovalStatus:    p.ApprovalStatus,
		ApprovalRequestID: p.ApprovalRequestID,
		ApprovedAt:        p.ApprovedAt,
		CreatedAt:         p.CreatedAt,
		CreatedBy:         p.CreatedBy,
	}
}

// ToListPurchasesResponse converts a page of purchases plus next token.
func ToListPurchasesResponse(purchases []domain.Purchase, nextToken *string) ListPurchasesResponse {
	resp := ListPurchasesResponse{
		Purchases: make([]PurchaseResponse, len(purchases)),
		NextToken: nextToken,
	}
	for i := range purchases {
		resp.Purchases[i] = ToPurchaseResponse(&purchases[i])
	}
	return resp
}
