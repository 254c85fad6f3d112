package dto

import (
	"time"

	"github.com/akunara/akunara_backend/internal/core/approval"
	"github.com/akunara/akunara_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateApprovalStepRequest defines one step of a workflow being created.
type CreateApprovalStepRequest struct {
	StepOrder      int    `json:"stepOrder" binding:"required,gte=1"`
	StepName       string `json:"stepName" binding:"required"`
	ApproverRole   string `json:"approverRole" binding:"required"`
	IsOptional     bool   `json:"isOptional"`
	IsParallel     bool   `json:"isParallel"`
	TimeLimitHours *int   `json:"timeLimitHours" binding:"omitempty,gte=1"`
}

// CreateApprovalWorkflowRequest defines the data needed to create a workflow.
type CreateApprovalWorkflowRequest struct {
	Name      string                      `json:"name" binding:"required"`
	Module    domain.ApprovalModule       `json:"module" binding:"required,oneof=PURCHASE SALES EXPENSE"`
	MinAmount decimal.Decimal             `json:"minAmount"`
	MaxAmount decimal.Decimal             `json:"maxAmount"`
	Steps     []CreateApprovalStepRequest `json:"steps" binding:"required,min=1,dive"`
}

// UpdateApprovalWorkflowRequest updates workflow metadata. Steps are
// immutable once requests reference them.
type UpdateApprovalWorkflowRequest struct {
	Name     *string `json:"name"`
	IsActive *bool   `json:"isActive"`
}

// CreateApprovalRequestRequest submits an entity for approval.
type CreateApprovalRequestRequest struct {
	Module   domain.ApprovalModule   `json:"module" binding:"required,oneof=PURCHASE SALES EXPENSE"`
	EntityID string                  `json:"entityID" binding:"required"`
	Amount   decimal.Decimal         `json:"amount" binding:"required"`
	Priority domain.ApprovalPriority `json:"priority" binding:"omitempty,oneof=LOW NORMAL HIGH URGENT"`
	Title    string                  `json:"title" binding:"required"`
	Message  string                  `json:"message"`
}

// ProcessApprovalActionRequest records an approver's decision on the
// active step of a request.
type ProcessApprovalActionRequest struct {
	Action             string `json:"action" binding:"required,oneof=APPROVE REJECT"`
	Comments           string `json:"comments"`
	EscalateToDirector bool   `json:"escalateToDirector"`
}

// ApprovalStepResponse defines the data returned for a workflow step.
type ApprovalStepResponse struct {
	StepID         string `json:"stepID"`
	StepOrder      int    `json:"stepOrder"`
	StepName       string `json:"stepName"`
	ApproverRole   string `json:"approverRole"`
	IsOptional     bool   `json:"isOptional"`
	IsParallel     bool   `json:"isParallel"`
	TimeLimitHours *int   `json:"timeLimitHours,omitempty"`
}

// ApprovalWorkflowResponse defines the data returned for a workflow.
type ApprovalWorkflowResponse struct {
	WorkflowID string                 `json:"workflowID"`
	Name       string                 `json:"name"`
	Module     domain.ApprovalModule  `json:"module"`
	MinAmount  decimal.Decimal        `json:"minAmount"`
	MaxAmount  decimal.Decimal        `json:"maxAmount"`
	IsActive   bool                   `json:"isActive"`
	Steps      []ApprovalStepResponse `json:"steps,omitempty"`
	CreatedAt  time.Time              `json:"createdAt"`
}

// ListApprovalWorkflowsResponse wraps a list of workflows.
type ListApprovalWorkflowsResponse struct {
	Workflows []ApprovalWorkflowResponse `json:"workflows"`
}

// SLAResponse is the deadline status of an active approval step.
type SLAResponse struct {
	DueAt     time.Time `json:"dueAt"`
	IsOverdue bool      `json:"isOverdue"`
	// RemainingHours is negative once the step is overdue.
	RemainingHours float64 `json:"remainingHours"`
}

// ApprovalActionResponse defines the data returned for one step action.
type ApprovalActionResponse struct {
	ActionID    string                `json:"actionID"`
	StepID      string                `json:"stepID"`
	StepOrder   int                   `json:"stepOrder"`
	StepName    string                `json:"stepName"`
	ApproverRole string               `json:"approverRole"`
	ApproverID  *string               `json:"approverID,omitempty"`
	Status      domain.ApprovalStatus `json:"status"`
	IsActive    bool                  `json:"isActive"`
	ActivatedAt *time.Time            `json:"activatedAt,omitempty"`
	ActionDate  *time.Time            `json:"actionDate,omitempty"`
	Comments    string                `json:"comments,omitempty"`
	SLA         *SLAResponse          `json:"sla,omitempty"`
}

// ApprovalRequestResponse defines the data returned for a request.
type ApprovalRequestResponse struct {
	RequestID    string                   `json:"requestID"`
	RequestCode  string                   `json:"requestCode"`
	WorkflowID   string                   `json:"workflowID"`
	RequesterID  string                   `json:"requesterID"`
	EntityType   domain.ApprovalModule    `json:"entityType"`
	EntityID     string                   `json:"entityID"`
	Amount       decimal.Decimal          `json:"amount"`
	Status       domain.ApprovalStatus    `json:"status"`
	Priority     domain.ApprovalPriority  `json:"priority"`
	Title        string                   `json:"title"`
	Message      string                   `json:"message,omitempty"`
	RejectReason string                   `json:"rejectReason,omitempty"`
	CompletedAt  *time.Time               `json:"completedAt,omitempty"`
	Actions      []ApprovalActionResponse `json:"actions,omitempty"`
	CreatedAt    time.Time                `json:"createdAt"`
}

// ApprovalStateResponse is the evaluated progress of a request: the
// overall state plus, when a step is actionable, its role and action.
type ApprovalStateResponse struct {
	RequestID  string                  `json:"requestID"`
	State      approval.StepState      `json:"state"`
	ActiveRole string                  `json:"activeRole,omitempty"`
	ActiveStep *ApprovalActionResponse `json:"activeStep,omitempty"`
	CanAct     bool                    `json:"canAct"`
}

// ApprovalHistoryResponse defines one audit entry of a request.
type ApprovalHistoryResponse struct {
	HistoryID string    `json:"historyID"`
	RequestID string    `json:"requestID"`
	UserID    string    `json:"userID"`
	Action    string    `json:"action"`
	Comments  string    `json:"comments,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ListApprovalRequestsParams defines query parameters for listing requests.
type ListApprovalRequestsParams struct {
	Limit     int                    `form:"limit,default=20"`
	NextToken *string                `form:"nextToken"`
	Status    *domain.ApprovalStatus `form:"status"`
	Module    *domain.ApprovalModule `form:"module"`
}

// ListApprovalRequestsResponse wraps a page of requests.
type ListApprovalRequestsResponse struct {
	Requests  []ApprovalRequestResponse `json:"requests"`
	NextToken *string                   `json:"nextToken,omitempty"`
}

// ToApprovalStepResponse converts a domain.ApprovalStep to its DTO.
func ToApprovalStepResponse(s *domain.ApprovalStep) ApprovalStepResponse {
	return ApprovalStepResponse{
		StepID:         s.StepID,
		StepOrder:      s.StepOrder,
		StepName:       s.StepName,
		ApproverRole:   string(s.ApproverRole),
		IsOptional:     s.IsOptional,
		IsParallel:     s.IsParallel,
		TimeLimitHours: s.TimeLimitHours,
	}
}

// ToApprovalWorkflowResponse converts a domain.ApprovalWorkflow to its DTO.
func ToApprovalWorkflowResponse(w *domain.ApprovalWorkflow) ApprovalWorkflowResponse {
	resp := ApprovalWorkflowResponse{
		WorkflowID: w.WorkflowID,
		Name:       w.Name,
		Module:     w.Module,
		MinAmount:  w.MinAmount,
		MaxAmount:  w.MaxAmount,
		IsActive:   w.IsActive,
		CreatedAt:  w.CreatedAt,
	}
	if len(w.Steps) > 0 {
		resp.Steps = make([]ApprovalStepResponse, len(w.Steps))
		for i := range w.Steps {
			resp.Steps[i] = ToApprovalStepResponse(&w.Steps[i])
		}
	}
	return resp
}

// ToApprovalActionResponse converts a domain.ApprovalAction to its DTO,
// attaching SLA information when the step carries a time limit.
func ToApprovalActionResponse(a *domain.ApprovalAction, now time.Time) ApprovalActionResponse {
	resp := ApprovalActionResponse{
		ActionID:     a.ActionID,
		StepID:       a.StepID,
		StepOrder:    a.Step.StepOrder,
		StepName:     a.Step.StepName,
		ApproverRole: string(a.Step.ApproverRole),
		ApproverID:   a.ApproverID,
		Status:       a.Status,
		IsActive:     a.IsActive,
		ActivatedAt:  a.ActivatedAt,
		ActionDate:   a.ActionDate,
		Comments:     a.Comments,
	}
	if a.IsActive && a.Status == domain.ApprovalPending {
		if sla, ok := approval.SLAStatus(*a, now); ok {
			resp.SLA = &SLAResponse{
				DueAt:          sla.DueAt,
				IsOverdue:      sla.IsOverdue,
				RemainingHours: sla.Remaining.Hours(),
			}
		}
	}
	return resp
}

// ToApprovalRequestResponse converts a domain.ApprovalRequest to its DTO.
func ToApprovalRequestResponse(r *domain.ApprovalRequest, now time.Time) ApprovalRequestResponse {
	resp := ApprovalRequestResponse{
		RequestID:    r.RequestID,
		RequestCode:  r.RequestCode,
		WorkflowID:   r.WorkflowID,
		RequesterID:  r.RequesterID,
		EntityType:   r.EntityType,
		EntityID:     r.EntityID,
		Amount:       r.Amount,
		Status:       r.Status,
		Priority:     r.Priority,
		Title:        r.Title,
		Message:      r.Message,
		RejectReason: r.RejectReason,
		CompletedAt:  r.CompletedAt,
		CreatedAt:    r.CreatedAt,
	}
	if len(r.Actions) > 0 {
		resp.Actions = make([]ApprovalActionResponse, len(r.Actions))
		for i := range r.Actions {
			resp.Actions[i] = ToApprovalActionResponse(&r.Actions[i], now)
		}
	}
	return resp
}

// ToApprovalHistoryResponse converts a domain.ApprovalHistory to its DTO.
func ToApprovalHistoryResponse(h *domain.ApprovalHistory) ApprovalHistoryResponse {
	return ApprovalHistoryResponse{
		HistoryID: h.HistoryID,
		RequestID: h.RequestID,
		UserID:    h.UserID,
		Action:    h.Action,
		Comments:  h.Comments,
		CreatedAt: h.CreatedAt,
	}
}

// ToApprovalStateResponse converts evaluator output into the state DTO.
func ToApprovalStateResponse(requestID string, info approval.ActiveStepInfo, canAct bool, now time.Time) ApprovalStateResponse {
	resp := ApprovalStateResponse{
		RequestID: requestID,
		State:     info.State,
		CanAct:    canAct,
	}
	if info.State == approval.StateActivePending || info.State == approval.StateNextPending {
		resp.ActiveRole = string(info.Role)
		if info.Action != nil {
			step := ToApprovalActionResponse(info.Action, now)
			resp.ActiveStep = &step
		}
	}
	return resp
}
