package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseApprovalStatus tracks where a purchase sits relative to the
// approval pipeline. The pipeline itself is authoritative; this field is
// the denormalized answer stored on the document.
type PurchaseApprovalStatus string

const (
	PurchaseApprovalNotRequired PurchaseApprovalStatus = "NOT_REQUIRED"
	PurchaseApprovalPending     PurchaseApprovalStatus = "PENDING_APPROVAL"
	PurchaseApprovalApproved    PurchaseApprovalStatus = "APPROVED"
	PurchaseApprovalRejected    PurchaseApprovalStatus = "REJECTED"
)

// PurchaseStatus is the document lifecycle, separate from approval.
type PurchaseStatus string

const (
	PurchaseDraft     PurchaseStatus = "DRAFT"
	PurchaseSubmitted PurchaseStatus = "SUBMITTED"
	PurchaseApproved  PurchaseStatus = "APPROVED"
	PurchaseCancelled PurchaseStatus = "CANCELLED"
)

// Purchase is the subject transaction of the purchase-approval workflow.
type Purchase struct {
	PurchaseID        string                 `json:"purchaseID"` // Primary Key (e.g., UUID)
	Code              string                 `json:"code"`       // e.g. "PO-2024-0001"
	VendorName        string                 `json:"vendorName"`
	Description       string                 `json:"description"`
	CurrencyCode      string                 `json:"currencyCode"`
	TotalAmount       decimal.Decimal        `json:"totalAmount"`
	Status            PurchaseStatus         `json:"status"`
	ApprovalStatus    PurchaseApprovalStatus `json:"approvalStatus"`
	ApprovalRequestID *string                `json:"approvalRequestID,omitempty"`
	ApprovedAt        *time.Time             `json:"approvedAt,omitempty"`
	AuditFields
}
