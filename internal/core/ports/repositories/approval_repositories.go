package repositories

import (
	"context"

	"github.com/akunara/akunara_backend/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ApprovalWorkflowReader defines read operations for workflow templates
type ApprovalWorkflowReader interface {
	// FindWorkflowByID retrieves a workflow with its steps.
	FindWorkflowByID(ctx context.Context, workflowID string) (*domain.ApprovalWorkflow, error)

	// FindMatchingWorkflow retrieves the active workflow of a module whose
	// amount band contains the given amount, or apperrors.ErrNotFound.
	FindMatchingWorkflow(ctx context.Context, module domain.ApprovalModule, amount decimal.Decimal) (*domain.ApprovalWorkflow, error)

	// ListWorkflows retrieves all workflows with their steps.
	ListWorkflows(ctx context.Context) ([]domain.ApprovalWorkflow, error)
}

// ApprovalWorkflowWriter defines write operations for workflow templates
type ApprovalWorkflowWriter interface {
	// SaveWorkflow persists a workflow and its steps in one transaction.
	SaveWorkflow(ctx context.Context, workflow domain.ApprovalWorkflow) error

	// UpdateWorkflow updates workflow metadata (name, active flag).
	UpdateWorkflow(ctx context.Context, workflow domain.ApprovalWorkflow) error
}

// ApprovalRequestReader defines read operations for approval requests
type ApprovalRequestReader interface {
	// FindRequestByID retrieves a request with its actions (and each
	// action's step template), ordered by step order.
	FindRequestByID(ctx context.Context, requestID string) (*domain.ApprovalRequest, error)

	// ListRequests retrieves a paginated list of requests, newest first,
	// optionally filtered by status and module.
	ListRequests(ctx context.Context, limit int, nextToken *string, status *domain.ApprovalStatus, module *domain.ApprovalModule) ([]domain.ApprovalRequest, *string, error)

	// ListPendingRequestsForRole retrieves requests whose active step
	// requires the given role; a nil role matches every active step.
	ListPendingRequestsForRole(ctx context.Context, role *domain.Role) ([]domain.ApprovalRequest, error)
}

// ApprovalRequestWriter defines write operations for approval requests
type ApprovalRequestWriter interface {
	// SaveRequest persists a request with its actions in one transaction.
	SaveRequest(ctx context.Context, request domain.ApprovalRequest) error

	// UpdateRequest updates request status fields.
	UpdateRequest(ctx context.Context, request domain.ApprovalRequest) error

	// UpdateActionInTx updates one action row within a transaction.
	UpdateActionInTx(ctx context.Context, tx pgx.Tx, action domain.ApprovalAction) error

	// SaveStepInTx inserts a new step row within a transaction, used when
	// escalation appends a director step to a live request.
	SaveStepInTx(ctx context.Context, tx pgx.Tx, step domain.ApprovalStep) error

	// SaveActionInTx inserts a new action row within a transaction.
	SaveActionInTx(ctx context.Context, tx pgx.Tx, action domain.ApprovalAction) error

	// UpdateRequestInTx updates request status fields within a transaction.
	UpdateRequestInTx(ctx context.Context, tx pgx.Tx, request domain.ApprovalRequest) error
}

// ApprovalHistoryWriter defines append operations for the audit trail
type ApprovalHistoryWriter interface {
	// SaveHistory appends one audit row.
	SaveHistory(ctx context.Context, history domain.ApprovalHistory) error

	// SaveHistoryInTx appends one audit row within a transaction.
	SaveHistoryInTx(ctx context.Context, tx pgx.Tx, history domain.ApprovalHistory) error
}

// ApprovalHistoryReader defines read operations for the audit trail
type ApprovalHistoryReader interface {
	// ListHistoryByRequestID retrieves the audit rows of one request, oldest first.
	ListHistoryByRequestID(ctx context.Context, requestID string) ([]domain.ApprovalHistory, error)
}

// ApprovalRepositoryFacade combines all approval-related repository interfaces
// This is a facade for clients that need access to all operations
type ApprovalRepositoryFacade interface {
	ApprovalWorkflowReader
	ApprovalWorkflowWriter
	ApprovalRequestReader
	ApprovalRequestWriter
	ApprovalHistoryReader
	ApprovalHistoryWriter
}

// ApprovalRepositoryWithTx extends ApprovalRepositoryFacade with transaction capabilities
type ApprovalRepositoryWithTx interface {
	ApprovalRepositoryFacade
	TransactionManager
}
