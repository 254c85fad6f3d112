package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ApprovalStatus is shared by requests and per-step actions.
type ApprovalStatus string

const (
	ApprovalPending   ApprovalStatus = "PENDING"
	ApprovalApproved  ApprovalStatus = "APPROVED"
	ApprovalRejected  ApprovalStatus = "REJECTED"
	ApprovalCancelled ApprovalStatus = "CANCELLED"
	ApprovalSkipped   ApprovalStatus = "SKIPPED"
)

// ApprovalPriority orders requests in approver worklists.
type ApprovalPriority string

const (
	PriorityLow    ApprovalPriority = "LOW"
	PriorityNormal ApprovalPriority = "NORMAL"
	PriorityHigh   ApprovalPriority = "HIGH"
	PriorityUrgent ApprovalPriority = "URGENT"
)

// ApprovalModule scopes a workflow to one document type.
type ApprovalModule string

const (
	ModulePurchase ApprovalModule = "PURCHASE"
	ModuleSales    ApprovalModule = "SALES"
	ModuleExpense  ApprovalModule = "EXPENSE"
)

// ApprovalWorkflow is a configured workflow template. A workflow applies
// to requests of its module whose amount falls inside [MinAmount,
// MaxAmount]; a zero MaxAmount means unbounded.
type ApprovalWorkflow struct {
	WorkflowID string           `json:"workflowID"` // Primary Key (e.g., UUID)
	Name       string           `json:"name"`
	Module     ApprovalModule   `json:"module"`
	MinAmount  decimal.Decimal  `json:"minAmount"`
	MaxAmount  decimal.Decimal  `json:"maxAmount"`
	IsActive   bool             `json:"isActive"`
	Steps      []ApprovalStep   `json:"steps,omitempty"` // Ordered by StepOrder
	AuditFields
}

// ApprovalStep is a template position in a workflow: who must approve
// at this order, and within what SLA window. Immutable while any request
// built from the workflow is in flight.
type ApprovalStep struct {
	StepID         string `json:"stepID"`     // Primary Key (e.g., UUID)
	WorkflowID     string `json:"workflowID"` // FK -> approval_workflows
	StepOrder      int    `json:"stepOrder"`  // Ascending, unique within workflow
	StepName       string `json:"stepName"`
	ApproverRole   Role   `json:"approverRole"`
	IsOptional     bool   `json:"isOptional"`
	IsParallel     bool   `json:"isParallel"`
	TimeLimitHours *int   `json:"timeLimitHours,omitempty"` // Nil means no SLA
	AuditFields
}

// ApprovalRequest is one subject transaction travelling through a
// workflow. It owns the per-step actions, which form the audit trail and
// are never deleted.
type ApprovalRequest struct {
	RequestID      string           `json:"requestID"`   // Primary Key (e.g., UUID)
	RequestCode    string           `json:"requestCode"` // e.g. "APP-PUR-20240101120000"
	WorkflowID     string           `json:"workflowID"`
	RequesterID    string           `json:"requesterID"`
	EntityType     ApprovalModule   `json:"entityType"` // PURCHASE, SALES, ...
	EntityID       string           `json:"entityID"`
	Amount         decimal.Decimal  `json:"amount"`
	Status         ApprovalStatus   `json:"status"`
	Priority       ApprovalPriority `json:"priority"`
	Title          string           `json:"title"`
	Message        string           `json:"message"`
	RejectReason   string           `json:"rejectReason,omitempty"`
	CompletedAt    *time.Time       `json:"completedAt,omitempty"`
	Actions        []ApprovalAction `json:"actions,omitempty"` // Ordered by step order
	AuditFields
}

// ApprovalAction is the live, per-request instance of one step. At most
// one action per request is active-and-pending at a time; earlier-ordered
// actions are terminal once the request has advanced past them.
type ApprovalAction struct {
	ActionID    string         `json:"actionID"`  // Primary Key (e.g., UUID)
	RequestID   string         `json:"requestID"` // FK -> approval_requests
	StepID      string         `json:"stepID"`    // FK -> approval_steps
	Step        ApprovalStep   `json:"step"`      // Embedded template for evaluation
	ApproverID  *string        `json:"approverID,omitempty"` // Nil until acted upon
	Status      ApprovalStatus `json:"status"`
	IsActive    bool           `json:"isActive"`
	ActivatedAt *time.Time     `json:"activatedAt,omitempty"` // When the step became eligible
	ActionDate  *time.Time     `json:"actionDate,omitempty"`  // When acted upon
	Comments    string         `json:"comments,omitempty"`
	AuditFields
}

// ApprovalHistory is an append-only audit row for a request.
type ApprovalHistory struct {
	HistoryID string `json:"historyID"`
	RequestID string `json:"requestID"`
	UserID    string `json:"userID"`
	Action    string `json:"action"` // CREATED, APPROVED, REJECTED, ESCALATED_TO_DIRECTOR, ...
	Comments  string `json:"comments,omitempty"`
	Metadata  string `json:"metadata,omitempty"` // JSON blob with context
	AuditFields
}

// History action constants.
const (
	HistoryCreated   = "CREATED"
	HistoryApproved  = "APPROVED"
	HistoryRejected  = "REJECTED"
	HistoryCancelled = "CANCELLED"
	HistoryEscalated = "ESCALATED_TO_DIRECTOR"
)
