package pgsql

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/akunara/akunara_backend/internal/apperrors"
	"github.com/akunara/akunara_backend/internal/core/domain"
	portsrepo "github.com/akunara/akunara_backend/internal/core/ports/repositories"
	"github.com/akunara/akunara_backend/internal/utils/pagination"
)

const workflowColumns = `workflow_id, name, module, min_amount, max_amount, is_active, created_at, created_by, last_updated_at, last_updated_by`

const stepColumns = `step_id, workflow_id, step_order, step_name, approver_role, is_optional, is_parallel, time_limit_hours, created_at, created_by, last_updated_at, last_updated_by`

const requestColumns = `request_id, request_code, workflow_id, requester_id, entity_type, entity_id, amount, status, priority, title, message, reject_reason, completed_at, created_at, created_by, last_updated_at, last_updated_by`

const historyColumns = `history_id, request_id, user_id, action, comments, metadata, created_at, created_by, last_updated_at, last_updated_by`

// actionWithStepColumns joins each action to its step template so the
// evaluator always sees the role and SLA configuration.
const actionWithStepColumns = `a.action_id, a.request_id, a.step_id, a.approver_id, a.status, a.is_active, a.activated_at, a.action_date, a.comments, a.created_at, a.created_by, a.last_updated_at, a.last_updated_by,
	       s.step_id, s.workflow_id, s.step_order, s.step_name, s.approver_role, s.is_optional, s.is_parallel, s.time_limit_hours, s.created_at, s.created_by, s.last_updated_at, s.last_updated_by`

type PgxApprovalRepository struct {
	BaseRepository
}

// newPgxApprovalRepository creates a new repository for approval
// workflow, request, action, and history data.
func newPgxApprovalRepository(pool *pgxpool.Pool) portsrepo.ApprovalRepositoryWithTx {
	return &PgxApprovalRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxApprovalRepository implements portsrepo.ApprovalRepositoryWithTx
var _ portsrepo.ApprovalRepositoryWithTx = (*PgxApprovalRepository)(nil)

func scanWorkflow(row pgx.Row) (domain.ApprovalWorkflow, error) {
	var w domain.ApprovalWorkflow
	err := row.Scan(
		&w.WorkflowID,
		&w.Name,
		&w.Module,
		&w.MinAmount,
		&w.MaxAmount,
		&w.IsActive,
		&w.CreatedAt,
		&w.CreatedBy,
		&w.LastUpdatedAt,
		&w.LastUpdatedBy,
	)
	return w, err
}

func scanStep(row pgx.Row) (domain.ApprovalStep, error) {
	var s domain.ApprovalStep
	err := row.Scan(
		&s.StepID,
		&s.WorkflowID,
		&s.StepOrder,
		&s.StepName,
		&s.ApproverRole,
		&s.IsOptional,
		&s.IsParallel,
		&s.TimeLimitHours,
		&s.CreatedAt,
		&s.CreatedBy,
		&s.LastUpdatedAt,
		&s.LastUpdatedBy,
	)
	return s, err
}

func scanRequest(row pgx.Row) (domain.ApprovalRequest, error) {
	var r domain.ApprovalRequest
	err := row.Scan(
		&r.RequestID,
		&r.RequestCode,
		&r.WorkflowID,
		&r.RequesterID,
		&r.EntityType,
		&r.EntityID,
		&r.Amount,
		&r.Status,
		&r.Priority,
		&r.Title,
		&r.Message,
		&r.RejectReason,
		&r.CompletedAt,
		&r.CreatedAt,
		&r.CreatedBy,
		&r.LastUpdatedAt,
		&r.LastUpdatedBy,
	)
	return r, err
}

func scanActionWithStep(row pgx.Row) (domain.ApprovalAction, error) {
	var a domain.ApprovalAction
	err := row.Scan(
		&a.ActionID,
		&a.RequestID,
		&a.StepID,
		&a.ApproverID,
		&a.Status,
		&a.IsActive,
		&a.ActivatedAt,
		&a.ActionDate,
		&a.Comments,
		&a.CreatedAt,
		&a.CreatedBy,
		&a.LastUpdatedAt,
		&a.LastUpdatedBy,
		&a.Step.StepID,
		&a.Step.WorkflowID,
		&a.Step.StepOrder,
		&a.Step.StepName,
		&a.Step.ApproverRole,
		&a.Step.IsOptional,
		&a.Step.IsParallel,
		&a.Step.TimeLimitHours,
		&a.Step.CreatedAt,
		&a.Step.CreatedBy,
		&a.Step.LastUpdatedAt,
		&a.Step.LastUpdatedBy,
	)
	return a, err
}

// --- Workflows ---

// SaveWorkflow persists a workflow template with its steps atomically.
func (r *PgxApprovalRepository) SaveWorkflow(ctx context.Context, workflow domain.ApprovalWorkflow) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	workflowQuery := `
		INSERT INTO approval_workflows (` + workflowColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err = tx.Exec(ctx, workflowQuery,
		workflow.WorkflowID,
		workflow.Name,
		workflow.Module,
		workflow.MinAmount,
		workflow.MaxAmount,
		workflow.IsActive,
		workflow.CreatedAt,
		workflow.CreatedBy,
		workflow.LastUpdatedAt,
		workflow.LastUpdatedBy,
	)
	if err != nil {
		return translateError(err, "failed to insert workflow "+workflow.WorkflowID)
	}

	stepQuery := `
		INSERT INTO approval_steps (` + stepColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	batch := &pgx.Batch{}
	for _, step := range workflow.Steps {
		batch.Queue(stepQuery,
			step.StepID,
			step.WorkflowID,
			step.StepOrder,
			step.StepName,
			step.ApproverRole,
			step.IsOptional,
			step.IsParallel,
			step.TimeLimitHours,
			step.CreatedAt,
			step.CreatedBy,
			step.LastUpdatedAt,
			step.LastUpdatedBy,
		)
	}
	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return translateError(err, "failed to execute step batch for workflow "+workflow.WorkflowID)
	}

	return r.Commit(ctx, tx)
}

// FindWorkflowByID retrieves a workflow with its steps ordered by step order.
func (r *PgxApprovalRepository) FindWorkflowByID(ctx context.Context, workflowID string) (*domain.ApprovalWorkflow, error) {
	query := `SELECT ` + workflowColumns + ` FROM approval_workflows WHERE workflow_id = $1;`
	workflow, err := scanWorkflow(r.Pool.QueryRow(ctx, query, workflowID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, translateError(err, "failed to find workflow "+workflowID)
	}

	steps, err := r.findStepsByWorkflowID(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	workflow.Steps = steps
	return &workflow, nil
}

// FindMatchingWorkflow finds the active workflow for a module whose
// amount band contains the given amount. A zero max amount is unbounded.
// The narrowest band wins when bands overlap.
func (r *PgxApprovalRepository) FindMatchingWorkflow(ctx context.Context, module domain.ApprovalModule, amount decimal.Decimal) (*domain.ApprovalWorkflow, error) {
	query := `
		SELECT ` + workflowColumns + `
		FROM approval_workflows
		WHERE module = $1
		  AND is_active = TRUE
		  AND min_amount <= $2
		  AND (max_amount = 0 OR max_amount >= $2)
		ORDER BY (CASE WHEN max_amount = 0 THEN NULL ELSE max_amount - min_amount END) ASC NULLS LAST
		LIMIT 1;
	`
	workflow, err := scanWorkflow(r.Pool.QueryRow(ctx, query, module, amount))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, translateError(err, "failed to find matching workflow")
	}

	steps, err := r.findStepsByWorkflowID(ctx, workflow.WorkflowID)
	if err != nil {
		return nil, err
	}
	workflow.Steps = steps
	return &workflow, nil
}

// ListWorkflows retrieves all workflows with their steps.
func (r *PgxApprovalRepository) ListWorkflows(ctx context.Context) ([]domain.ApprovalWorkflow, error) {
	query := `SELECT ` + workflowColumns + ` FROM approval_workflows ORDER BY module, min_amount;`
	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, translateError(err, "failed to query workflows")
	}
	defer rows.Close()

	workflows := []domain.ApprovalWorkflow{}
	for rows.Next() {
		workflow, err := scanWorkflow(rows)
		if err != nil {
			return nil, translateError(err, "failed to scan workflow row")
		}
		workflows = append(workflows, workflow)
	}
	if err := rows.Err(); err != nil {
		return nil, translateError(err, "error iterating workflow rows")
	}

	for i := range workflows {
		steps, err := r.findStepsByWorkflowID(ctx, workflows[i].WorkflowID)
		if err != nil {
			return nil, err
		}
		workflows[i].Steps = steps
	}
	return workflows, nil
}

// UpdateWorkflow updates workflow metadata. Steps are immutable here.
func (r *PgxApprovalRepository) UpdateWorkflow(ctx context.Context, workflow domain.ApprovalWorkflow) error {
	query := `
		UPDATE approval_workflows
		SET name = $2,
		    is_active = $3,
		    last_updated_at = $4,
		    last_updated_by = $5
		WHERE workflow_id = $1;
	`
	cmdTag, err := r.Pool.Exec(ctx, query,
		workflow.WorkflowID,
		workflow.Name,
		workflow.IsActive,
		workflow.LastUpdatedAt,
		workflow.LastUpdatedBy,
	)
	if err != nil {
		return translateError(err, "failed to update workflow "+workflow.WorkflowID)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxApprovalRepository) findStepsByWorkflowID(ctx context.Context, workflowID string) ([]domain.ApprovalStep, error) {
	query := `SELECT ` + stepColumns + ` FROM approval_steps WHERE workflow_id = $1 ORDER BY step_order;`
	rows, err := r.Pool.Query(ctx, query, workflowID)
	if err != nil {
		return nil, translateError(err, "failed to query steps for workflow "+workflowID)
	}
	defer rows.Close()

	steps := []domain.ApprovalStep{}
	for rows.Next() {
		step, err := scanStep(rows)
		if err != nil {
			return nil, translateError(err, "failed to scan step row")
		}
		steps = append(steps, step)
	}
	if err := rows.Err(); err != nil {
		return nil, translateError(err, "error iterating step rows")
	}
	return steps, nil
}

// --- Requests ---

// SaveRequest persists a request with its actions atomically.
func (r *PgxApprovalRepository) SaveRequest(ctx context.Context, request domain.ApprovalRequest) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	requestQuery := `
		INSERT INTO approval_requests (` + requestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17);
	`
	_, err = tx.Exec(ctx, requestQuery,
		request.RequestID,
		request.RequestCode,
		request.WorkflowID,
		request.RequesterID,
		request.EntityType,
		request.EntityID,
		request.Amount,
		request.Status,
		request.Priority,
		request.Title,
		request.Message,
		request.RejectReason,
		request.CompletedAt,
		request.CreatedAt,
		request.CreatedBy,
		request.LastUpdatedAt,
		request.LastUpdatedBy,
	)
	if err != nil {
		return translateError(err, "failed to insert approval request "+request.RequestID)
	}

	batch := &pgx.Batch{}
	for _, action := range request.Actions {
		queueActionInsert(batch, action)
	}
	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return translateError(err, "failed to execute action batch for request "+request.RequestID)
	}

	return r.Commit(ctx, tx)
}

const actionInsertQuery = `
	INSERT INTO approval_actions (action_id, request_id, step_id, approver_id, status, is_active, activated_at, action_date, comments, created_at, created_by, last_updated_at, last_updated_by)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
`

func queueActionInsert(batch *pgx.Batch, action domain.ApprovalAction) {
	batch.Queue(actionInsertQuery,
		action.ActionID,
		action.RequestID,
		action.StepID,
		action.ApproverID,
		action.Status,
		action.IsActive,
		action.ActivatedAt,
		action.ActionDate,
		action.Comments,
		action.CreatedAt,
		action.CreatedBy,
		action.LastUpdatedAt,
		action.LastUpdatedBy,
	)
}

// FindRequestByID retrieves a request with its actions and their step templates.
func (r *PgxApprovalRepository) FindRequestByID(ctx context.Context, requestID string) (*domain.ApprovalRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM approval_requests WHERE request_id = $1;`
	request, err := scanRequest(r.Pool.QueryRow(ctx, query, requestID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, translateError(err, "failed to find approval request "+requestID)
	}

	actions, err := r.findActionsByRequestID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	request.Actions = actions
	return &request, nil
}

func (r *PgxApprovalRepository) findActionsByRequestID(ctx context.Context, requestID string) ([]domain.ApprovalAction, error) {
	query := `
		SELECT ` + actionWithStepColumns + `
		FROM approval_actions a
		JOIN approval_steps s ON a.step_id = s.step_id
		WHERE a.request_id = $1
		ORDER BY s.step_order;
	`
	rows, err := r.Pool.Query(ctx, query, requestID)
	if err != nil {
		return nil, translateError(err, "failed to query actions for request "+requestID)
	}
	defer rows.Close()

	actions := []domain.ApprovalAction{}
	for rows.Next() {
		action, err := scanActionWithStep(rows)
		if err != nil {
			return nil, translateError(err, "failed to scan action row")
		}
		actions = append(actions, action)
	}
	if err := rows.Err(); err != nil {
		return nil, translateError(err, "error iterating action rows")
	}
	return actions, nil
}

// ListRequests retrieves a paginated list of requests, newest first,
// optionally filtered by status and module.
func (r *PgxApprovalRepository) ListRequests(ctx context.Context, limit int, nextToken *string, status *domain.ApprovalStatus, module *domain.ApprovalModule) ([]domain.ApprovalRequest, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	baseQuery := `SELECT ` + requestColumns + ` FROM approval_requests`
	filterClause := `WHERE 1=1`
	args := []interface{}{}
	if status != nil {
		args = append(args, *status)
		filterClause += ` AND status = $` + strconv.Itoa(len(args))
	}
	if module != nil {
		args = append(args, *module)
		filterClause += ` AND entity_type = $` + strconv.Itoa(len(args))
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
		return nil, nil, translateError(err, "failed to query approval requests")
	}
	defer rows.Close()

	requests := make([]domain.ApprovalRequest, 0, fetchLimit)
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, nil, translateError(err, "failed to scan request row")
		}
		requests = append(requests, request)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, translateError(err, "error iterating request rows")
	}

	var nextTokenVal *string
	if len(requests) > limit {
		token := pagination.EncodeDateBasedToken(requests[limit-1].CreatedAt)
		nextTokenVal = &token
		requests = requests[:limit]
	}
	return requests, nextTokenVal, nil
}

// ListPendingRequestsForRole retrieves pending requests whose active step
// awaits the given role, with their actions loaded. A nil role matches
// every active step.
func (r *PgxApprovalRepository) ListPendingRequestsForRole(ctx context.Context, role *domain.Role) ([]domain.ApprovalRequest, error) {
	query := `
		SELECT DISTINCT r.request_id, r.request_code, r.workflow_id, r.requester_id, r.entity_type, r.entity_id,
		       r.amount, r.status, r.priority, r.title, r.message, r.reject_reason, r.completed_at,
		       r.created_at, r.created_by, r.last_updated_at, r.last_updated_by
		FROM approval_requests r
		JOIN approval_actions a ON a.request_id = r.request_id
		JOIN approval_steps s ON a.step_id = s.step_id
		WHERE r.status = 'PENDING'
		  AND a.is_active = TRUE
		  AND a.status = 'PENDING'
		  AND ($1::text IS NULL OR s.approver_role = $1)
		ORDER BY r.created_at DESC;
	`
	rows, err := r.Pool.Query(ctx, query, role)
	if err != nil {
		return nil, translateError(err, "failed to query pending requests for role")
	}
	defer rows.Close()

	requests := []domain.ApprovalRequest{}
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, translateError(err, "failed to scan pending request row")
		}
		requests = append(requests, request)
	}
	if err := rows.Err(); err != nil {
		return nil, translateError(err, "error iterating pending request rows")
	}

	for i := range requests {
		actions, err := r.findActionsByRequestID(ctx, requests[i].RequestID)
		if err != nil {
			return nil, err
		}
		requests[i].Actions = actions
	}
	return requests, nil
}

const requestUpdateQuery = `
	UPDATE approval_requests
	SET status = $2,
	    priority = $3,
	    reject_reason = $4,
	    completed_at = $5,
	    last_updated_at = $6,
	    last_updated_by = $7
	WHERE request_id = $1;
`

// UpdateRequest updates the mutable fields of a request.
func (r *PgxApprovalRepository) UpdateRequest(ctx context.Context, request domain.ApprovalRequest) error {
	cmdTag, err := r.Pool.Exec(ctx, requestUpdateQuery,
		request.RequestID,
		request.Status,
		request.Priority,
		request.RejectReason,
		request.CompletedAt,
		request.LastUpdatedAt,
		request.LastUpdatedBy,
	)
	if err != nil {
		return translateError(err, "failed to update approval request "+request.RequestID)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// UpdateRequestInTx updates a request within an open transaction.
func (r *PgxApprovalRepository) UpdateRequestInTx(ctx context.Context, tx pgx.Tx, request domain.ApprovalRequest) error {
	cmdTag, err := tx.Exec(ctx, requestUpdateQuery,
		request.RequestID,
		request.Status,
		request.Priority,
		request.RejectReason,
		request.CompletedAt,
		request.LastUpdatedAt,
		request.LastUpdatedBy,
	)
	if err != nil {
		return translateError(err, "failed to update approval request "+request.RequestID)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// UpdateActionInTx updates one action within an open transaction.
func (r *PgxApprovalRepository) UpdateActionInTx(ctx context.Context, tx pgx.Tx, action domain.ApprovalAction) error {
	query := `
		UPDATE approval_actions
		SET approver_id = $2,
		    status = $3,
		    is_active = $4,
		    activated_at = $5,
		    action_date = $6,
		    comments = $7,
		    last_updated_at = $8,
		    last_updated_by = $9
		WHERE action_id = $1;
	`
	cmdTag, err := tx.Exec(ctx, query,
		action.ActionID,
		action.ApproverID,
		action.Status,
		action.IsActive,
		action.ActivatedAt,
		action.ActionDate,
		action.Comments,
		action.LastUpdatedAt,
		action.LastUpdatedBy,
	)
	if err != nil {
		return translateError(err, "failed to update approval action "+action.ActionID)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// SaveStepInTx inserts an extra step (escalation) within an open transaction.
func (r *PgxApprovalRepository) SaveStepInTx(ctx context.Context, tx pgx.Tx, step domain.ApprovalStep) error {
	query := `
		INSERT INTO approval_steps (` + stepColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	_, err := tx.Exec(ctx, query,
		step.StepID,
		step.WorkflowID,
		step.StepOrder,
		step.StepName,
		step.ApproverRole,
		step.IsOptional,
		step.IsParallel,
		step.TimeLimitHours,
		step.CreatedAt,
		step.CreatedBy,
		step.LastUpdatedAt,
		step.LastUpdatedBy,
	)
	if err != nil {
		return translateError(err, "failed to insert approval step "+step.StepID)
	}
	return nil
}

// SaveActionInTx inserts an extra action within an open transaction.
func (r *PgxApprovalRepository) SaveActionInTx(ctx context.Context, tx pgx.Tx, action domain.ApprovalAction) error {
	_, err := tx.Exec(ctx, actionInsertQuery,
		action.ActionID,
		action.RequestID,
		action.StepID,
		action.ApproverID,
		action.Status,
		action.IsActive,
		action.ActivatedAt,
		action.ActionDate,
		action.Comments,
		action.CreatedAt,
		action.CreatedBy,
		action.LastUpdatedAt,
		action.LastUpdatedBy,
	)
	if err != nil {
		return translateError(err, "failed to insert approval action "+action.ActionID)
	}
	return nil
}

// --- History ---

const historyInsertQuery = `
	INSERT INTO approval_history (` + historyColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
`

// SaveHistory appends one audit row.
func (r *PgxApprovalRepository) SaveHistory(ctx context.Context, history domain.ApprovalHistory) error {
	_, err := r.Pool.Exec(ctx, historyInsertQuery,
		history.HistoryID,
		history.RequestID,
		history.UserID,
		history.Action,
		history.Comments,
		history.Metadata,
		history.CreatedAt,
		history.CreatedBy,
		history.LastUpdatedAt,
		history.LastUpdatedBy,
	)
	if err != nil {
		return translateError(err, "failed to insert approval history "+history.HistoryID)
	}
	return nil
}

// SaveHistoryInTx appends one audit row within an open transaction.
func (r *PgxApprovalRepository) SaveHistoryInTx(ctx context.Context, tx pgx.Tx, history domain.ApprovalHistory) error {
	_, err := tx.Exec(ctx, historyInsertQuery,
		history.HistoryID,
		history.RequestID,
		history.UserID,
		history.Action,
		history.Comments,
		history.Metadata,
		history.CreatedAt,
		history.CreatedBy,
		history.LastUpdatedAt,
		history.LastUpdatedBy,
	)
	if err != nil {
		return translateError(err, "failed to insert approval history "+history.HistoryID)
	}
	return nil
}

// ListHistoryByRequestID retrieves the audit trail of a request, oldest first.
func (r *PgxApprovalRepository) ListHistoryByRequestID(ctx context.Context, requestID string) ([]domain.ApprovalHistory, error) {
	query := `SELECT ` + historyColumns + ` FROM approval_history WHERE request_id = $1 ORDER BY created_at;`
	rows, err := r.Pool.Query(ctx, query, requestID)
	if err != nil {
		return nil, translateError(err, "failed to query history for request "+requestID)
	}
	defer rows.Close()

	history := []domain.ApprovalHistory{}
	for rows.Next() {
		var h domain.ApprovalHistory
		if err := rows.Scan(
			&h.HistoryID,
			&h.RequestID,
			&h.UserID,
			&h.Action,
			&h.Comments,
			&h.Metadata,
			&h.CreatedAt,
			&h.CreatedBy,
			&h.LastUpdatedAt,
			&h.LastUpdatedBy,
		); err != nil {
			return nil, translateError(err, "failed to scan history row")
		}
		history = append(history, h)
	}
	if err := rows.Err(); err != nil {
		return nil, translateError(err, "error iterating history rows")
	}
	return history, nil
}
