package services

import (
	"context"

	"github.com/akunara/akunara_backend/internal/core/domain"
	"github.com/akunara/akunara_backend/internal/dto"
)

// ApprovalWorkflowSvc defines operations on workflow templates
type ApprovalWorkflowSvc interface {
	// CreateWorkflow persists a workflow template with its steps.
	CreateWorkflow(ctx context.Context, req dto.CreateApprovalWorkflowRequest, creatorUserID string) (*domain.ApprovalWorkflow, error)

	// UpdateWorkflow updates workflow metadata.
	UpdateWorkflow(ctx context.Context, workflowID string, req dto.UpdateApprovalWorkflowRequest, requestingUserID string) (*domain.ApprovalWorkflow, error)

	// GetWorkflowByID retrieves a workflow with its steps.
	GetWorkflowByID(ctx context.Context, workflowID string) (*domain.ApprovalWorkflow, error)

	// ListWorkflows retrieves all workflows.
	ListWorkflows(ctx context.Context) ([]domain.ApprovalWorkflow, error)
}

// ApprovalRequestSvc defines operations on live approval requests
type ApprovalRequestSvc interface {
	// CreateRequest finds the matching workflow for the module and amount,
	// creates the request with one action per step and activates the first.
	CreateRequest(ctx context.Context, req dto.CreateApprovalRequestRequest, requesterID string) (*domain.ApprovalRequest, error)

	// GetRequestByID retrieves a request with its actions.
	GetRequestByID(ctx context.Context, requestID string) (*domain.ApprovalRequest, error)

	// GetRequestState evaluates the request's current workflow position for
	// the requesting user.
	GetRequestState(ctx context.Context, requestID string, userID string) (*dto.ApprovalStateResponse, error)

	// ListRequests retrieves a paginated list of requests.
	ListRequests(ctx context.Context, params dto.ListApprovalRequestsParams) (*dto.ListApprovalRequestsResponse, error)

	// ListPendingForUser retrieves the requests the user's role may act on.
	ListPendingForUser(ctx context.Context, userID string) ([]domain.ApprovalRequest, error)

	// ProcessAction applies an approve/reject decision by the user on the
	// request's active step, advancing or terminating the workflow.
	ProcessAction(ctx context.Context, requestID string, req dto.ProcessApprovalActionRequest, userID string) (*domain.ApprovalRequest, error)

	// EscalateRequest hands the active step to a director: the current
	// active action is skipped, a director step is appended and
	// activated, and the request priority is raised.
	EscalateRequest(ctx context.Context, requestID string, userID string, comments string) (*domain.ApprovalRequest, error)

	// CancelRequest cancels a pending request; only the requester or an
	// admin may cancel.
	CancelRequest(ctx context.Context, requestID string, userID string, reason string) error

	// GetHistory retrieves the audit trail of a request.
	GetHistory(ctx context.Context, requestID string) ([]domain.ApprovalHistory, error)
}

// ApprovalSvcFacade combines all approval-related service interfaces
// This is a facade for clients that need access to all operations
type ApprovalSvcFacade interface {
	ApprovalWorkflowSvc
	ApprovalRequestSvc
}
