package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/akunara/akunara_backend/internal/apperrors"
	"github.com/akunara/akunara_backend/internal/core/approval"
	"github.com/akunara/akunara_backend/internal/core/domain"
	portsrepo "github.com/akunara/akunara_backend/internal/core/ports/repositories"
	portssvc "github.com/akunara/akunara_backend/internal/core/ports/services"
	"github.com/akunara/akunara_backend/internal/dto"
	"github.com/akunara/akunara_backend/internal/middleware"
	"github.com/akunara/akunara_backend/internal/utils"
)

var (
	ErrNoMatchingWorkflow = errors.New("no active workflow matches the module and amount")
	ErrRequestNotPending  = errors.New("approval request is not pending")
	ErrNoActiveStep       = errors.New("approval request has no actionable step")
)

// escalationStepOrder places the escalation step after every configured
// step regardless of how many the workflow has.
const escalationStepOrder = 999

// approvalService drives workflow templates and live approval requests.
type approvalService struct {
	approvalRepo portsrepo.ApprovalRepositoryWithTx
	userRepo     portsrepo.UserRepositoryFacade
	notifySvc    portssvc.NotificationSvcFacade
	purchaseSync portssvc.PurchaseApprovalSyncSvc
}

// NewApprovalService creates a new ApprovalService.
func NewApprovalService(approvalRepo portsrepo.ApprovalRepositoryWithTx, userRepo portsrepo.UserRepositoryFacade, notifySvc portssvc.NotificationSvcFacade) portssvc.ApprovalSvcFacade {
	return &approvalService{
		approvalRepo: approvalRepo,
		userRepo:     userRepo,
		notifySvc:    notifySvc,
	}
}

// Ensure approvalService implements the portssvc.ApprovalSvcFacade interface
var _ portssvc.ApprovalSvcFacade = (*approvalService)(nil)

// AttachPurchaseSync wires the purchase outcome callback after both
// services exist; the purchase service depends on this one, so the link
// back cannot be a constructor argument.
func (s *approvalService) AttachPurchaseSync(sync portssvc.PurchaseApprovalSyncSvc) {
	s.purchaseSync = sync
}

// CreateWorkflow validates and persists a workflow template with its steps.
func (s *approvalService) CreateWorkflow(ctx context.Context, req dto.CreateApprovalWorkflowRequest, creatorUserID string) (*domain.ApprovalWorkflow, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !req.MaxAmount.IsZero() && req.MaxAmount.LessThan(req.MinAmount) {
		return nil, fmt.Errorf("%w: max amount %s is below min amount %s", apperrors.ErrValidation, req.MaxAmount, req.MinAmount)
	}

	now := time.Now().UTC()
	workflowID := uuid.NewString()

	steps := make([]domain.ApprovalStep, len(req.Steps))
	prevOrder := 0
	for i, stepReq := range req.Steps {
		if stepReq.StepOrder <= prevOrder {
			return nil, fmt.Errorf("%w: step orders must be strictly ascending", apperrors.ErrValidation)
		}
		prevOrder = stepReq.StepOrder

		role := domain.NormalizeRole(stepReq.ApproverRole)
		if role == domain.RoleUnknown {
			return nil, fmt.Errorf("%w: unknown approver role %q in step %d", apperrors.ErrValidation, stepReq.ApproverRole, stepReq.StepOrder)
		}

		steps[i] = domain.ApprovalStep{
			StepID:         uuid.NewString(),
			WorkflowID:     workflowID,
			StepOrder:      stepReq.StepOrder,
			StepName:       stepReq.StepName,
			ApproverRole:   role,
			IsOptional:     stepReq.IsOptional,
			IsParallel:     stepReq.IsParallel,
			TimeLimitHours: stepReq.TimeLimitHours,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     creatorUserID,
				LastUpdatedAt: now,
				LastUpdatedBy: creatorUserID,
			},
		}
	}

	workflow := domain.ApprovalWorkflow{
		WorkflowID: workflowID,
		Name:       req.Name,
		Module:     req.Module,
		MinAmount:  req.MinAmount,
		MaxAmount:  req.MaxAmount,
		IsActive:   true,
		Steps:      steps,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.approvalRepo.SaveWorkflow(ctx, workflow); err != nil {
		logger.Error("Failed to save workflow", "error", err, "workflow_name", req.Name)
		return nil, fmt.Errorf("failed to save workflow: %w", err)
	}

	logger.Info("Approval workflow created", "workflow_id", workflowID, "module", string(req.Module), "steps", len(steps))
	return &workflow, nil
}

// UpdateWorkflow updates workflow metadata.
func (s *approvalService) UpdateWorkflow(ctx context.Context, workflowID string, req dto.UpdateApprovalWorkflowRequest, requestingUserID string) (*domain.ApprovalWorkflow, error) {
	workflow, err := s.approvalRepo.FindWorkflowByID(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to find workflow %s: %w", workflowID, err)
	}

	updated := false
	if req.Name != nil {
		workflow.Name = *req.Name
		updated = true
	}
	if req.IsActive != nil {
		workflow.IsActive = *req.IsActive
		updated = true
	}
	if !updated {
		return workflow, nil
	}

	workflow.LastUpdatedAt = time.Now().UTC()
	workflow.LastUpdatedBy = requestingUserID

	if err := s.approvalRepo.UpdateWorkflow(ctx, *workflow); err != nil {
		return nil, fmt.Errorf("failed to update workflow: %w", err)
	}
	return workflow, nil
}

// GetWorkflowByID retrieves a workflow with its steps.
func (s *approvalService) GetWorkflowByID(ctx context.Context, workflowID string) (*domain.ApprovalWorkflow, error) {
	workflow, err := s.approvalRepo.FindWorkflowByID(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to find workflow %s: %w", workflowID, err)
	}
	return workflow, nil
}

// ListWorkflows retrieves all workflows.
func (s *approvalService) ListWorkflows(ctx context.Context) ([]domain.ApprovalWorkflow, error) {
	workflows, err := s.approvalRepo.ListWorkflows(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}
	return workflows, nil
}

// requestCode builds the human request code, e.g. "APP-PUR-20240101120000".
func requestCode(module domain.ApprovalModule, now time.Time) string {
	prefix := string(module)
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	return fmt.Sprintf("APP-%s-%s", prefix, now.Format("20060102150405"))
}

// CreateRequest finds the matching workflow and opens a request with one
// action per step, activating the first.
func (s *approvalService) CreateRequest(ctx context.Context, req dto.CreateApprovalRequestRequest, requesterID string) (*domain.ApprovalRequest, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	workflow, err := s.approvalRepo.FindMatchingWorkflow(ctx, req.Module, req.Amount)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: module %s, amount %s", ErrNoMatchingWorkflow, req.Module, req.Amount)
		}
		return nil, fmt.Errorf("failed to find matching workflow: %w", err)
	}
	if len(workflow.Steps) == 0 {
		return nil, fmt.Errorf("%w: workflow %s has no steps", apperrors.ErrConflict, workflow.WorkflowID)
	}

	now := time.Now().UTC()
	requestID := uuid.NewString()
	priority := req.Priority
	if priority == "" {
		priority = domain.PriorityNormal
	}

	actions := make([]domain.ApprovalAction, len(workflow.Steps))
	for i, step := range workflow.Steps {
		actions[i] = domain.ApprovalAction{
			ActionID:  uuid.NewString(),
			RequestID: requestID,
			StepID:    step.StepID,
			Step:      step,
			Status:    domain.ApprovalPending,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     requesterID,
				LastUpdatedAt: now,
				LastUpdatedBy: requesterID,
			},
		}
		if i == 0 {
			actions[i].IsActive = true
			activatedAt := now
			actions[i].ActivatedAt = &activatedAt
		}
	}

	request := domain.ApprovalRequest{
		RequestID:   requestID,
		RequestCode: requestCode(req.Module, now),
		WorkflowID:  workflow.WorkflowID,
		RequesterID: requesterID,
		EntityType:  req.Module,
		EntityID:    req.EntityID,
		Amount:      req.Amount,
		Status:      domain.ApprovalPending,
		Priority:    priority,
		Title:       req.Title,
		Message:     req.Message,
		Actions:     actions,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     requesterID,
			LastUpdatedAt: now,
			LastUpdatedBy: requesterID,
		},
	}

	if err := s.approvalRepo.SaveRequest(ctx, request); err != nil {
		logger.Error("Failed to save approval request", "error", err)
		return nil, fmt.Errorf("failed to save approval request: %w", err)
	}

	history := domain.ApprovalHistory{
		HistoryID: uuid.NewString(),
		RequestID: requestID,
		UserID:    requesterID,
		Action:    domain.HistoryCreated,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     requesterID,
			LastUpdatedAt: now,
			LastUpdatedBy: requesterID,
		},
	}
	if err := s.approvalRepo.SaveHistory(ctx, history); err != nil {
		logger.Error("Failed to record request history", "error", err, "request_id", requestID)
	}

	firstRole := workflow.Steps[0].ApproverRole
	title := fmt.Sprintf("Approval needed: %s", request.Title)
	message := fmt.Sprintf("%s for %s is waiting for your approval", request.RequestCode, utils.FormatRupiah(request.Amount))
	if err := s.notifySvc.NotifyRole(ctx, firstRole, domain.NotifyApprovalPending, title, message, priority, ""); err != nil {
		logger.Error("Failed to notify first approver role", "error", err, "request_id", requestID)
	}

	logger.Info("Approval request created", "request_id", requestID, "request_code", request.RequestCode, "workflow_id", workflow.WorkflowID)
	return &request, nil
}

// GetRequestByID retrieves a request with its actions.
func (s *approvalService) GetRequestByID(ctx context.Context, requestID string) (*domain.ApprovalRequest, error) {
	request, err := s.approvalRepo.FindRequestByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to find approval request %s: %w", requestID, err)
	}
	return request, nil
}

// GetRequestState evaluates the request's workflow position for one user.
func (s *approvalService) GetRequestState(ctx context.Context, requestID string, userID string) (*dto.ApprovalStateResponse, error) {
	request, err := s.approvalRepo.FindRequestByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to find approval request %s: %w", requestID, err)
	}

	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user %s: %w", userID, err)
	}

	info := approval.ActiveStep(request.Actions)
	canAct := request.Status == domain.ApprovalPending && approval.CanAct(request.Actions, user.Role)
	resp := dto.ToApprovalStateResponse(requestID, info, canAct, time.Now().UTC())
	return &resp, nil
}

// ListRequests retrieves a paginated list of requests.
func (s *approvalService) ListRequests(ctx context.Context, params dto.ListApprovalRequestsParams) (*dto.ListApprovalRequestsResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}

	requests, nextToken, err := s.approvalRepo.ListRequests(ctx, limit, params.NextToken, params.Status, params.Module)
	if err != nil {
		return nil, fmt.Errorf("failed to list approval requests: %w", err)
	}

	now := time.Now().UTC()
	responses := make([]dto.ApprovalRequestResponse, len(requests))
	for i := range requests {
		responses[i] = dto.ToApprovalRequestResponse(&requests[i], now)
	}
	return &dto.ListApprovalRequestsResponse{
		Requests:  responses,
		NextToken: nextToken,
	}, nil
}

// ListPendingForUser retrieves the requests the user's role may act on.
func (s *approvalService) ListPendingForUser(ctx context.Context, userID string) ([]domain.ApprovalRequest, error) {
	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user %s: %w", userID, err)
	}

	// Admins may act on any active step, so their inbox is unfiltered.
	var roleFilter *domain.Role
	if user.Role != domain.RoleAdmin {
		roleFilter = &user.Role
	}

	requests, err := s.approvalRepo.ListPendingRequestsForRole(ctx, roleFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending requests for role %s: %w", user.Role, err)
	}
	return requests, nil
}

// ProcessAction applies an approve/reject decision on the active step.
// The evaluator's answer gates the mutation; informational states are
// never actionable, and role matching on the active step is strict.
func (s *approvalService) ProcessAction(ctx context.Context, requestID string, req dto.ProcessApprovalActionRequest, userID string) (*domain.ApprovalRequest, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	request, err := s.approvalRepo.FindRequestByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to find approval request %s: %w", requestID, err)
	}
	if request.Status != domain.ApprovalPending {
		return nil, fmt.Errorf("%w: status is %s", ErrRequestNotPending, request.Status)
	}

	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user %s: %w", userID, err)
	}

	if !approval.CanAct(request.Actions, user.Role) {
		return nil, fmt.Errorf("%w: role %s may not act on this request", apperrors.ErrForbidden, user.Role)
	}

	info := approval.ActiveStep(request.Actions)
	if info.State != approval.StateActivePending || info.Action == nil {
		// Admin override passes CanAct even without an active step; there
		// is still nothing to act on.
		return nil, ErrNoActiveStep
	}
	active := info.Action

	now := time.Now().UTC()
	tx, err := s.approvalRepo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = s.approvalRepo.Rollback(ctx, tx)
		}
	}()

	switch req.Action {
	case "REJECT":
		err = s.rejectInTx(ctx, tx, request, active, req.Comments, user, now)
	case "APPROVE":
		err = s.approveInTx(ctx, tx, request, active, req, user, now)
	default:
		err = fmt.Errorf("%w: unknown action %q", apperrors.ErrValidation, req.Action)
	}
	if err != nil {
		return nil, err
	}

	if err = s.approvalRepo.Commit(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to commit approval action: %w", err)
	}

	s.notifyOutcome(ctx, request, req, user)

	if request.Status != domain.ApprovalPending && s.purchaseSync != nil && request.EntityType == domain.ModulePurchase {
		if syncErr := s.purchaseSync.ApplyApprovalOutcome(ctx, request.RequestID, request.Status, userID); syncErr != nil {
			logger.Error("Failed to sync approval outcome to purchase", "error", syncErr, "request_id", requestID)
		}
	}

	logger.Info("Approval action processed", "request_id", requestID, "action", req.Action, "request_status", string(request.Status))
	return s.approvalRepo.FindRequestByID(ctx, requestID)
}

// rejectInTx terminates the whole request. One rejection anywhere is
// final; later steps are never activated.
func (s *approvalService) rejectInTx(ctx context.Context, tx pgx.Tx, request *domain.ApprovalRequest, active *domain.ApprovalAction, comments string, user *domain.User, now time.Time) error {
	active.Status = domain.ApprovalRejected
	active.IsActive = false
	active.ApproverID = &user.UserID
	active.ActionDate = &now
	active.Comments = comments
	active.LastUpdatedAt = now
	active.LastUpdatedBy = user.UserID
	if err := s.approvalRepo.UpdateActionInTx(ctx, tx, *active); err != nil {
		return fmt.Errorf("failed to update rejected action: %w", err)
	}

	request.Status = domain.ApprovalRejected
	request.RejectReason = comments
	request.CompletedAt = &now
	request.LastUpdatedAt = now
	request.LastUpdatedBy = user.UserID
	if err := s.approvalRepo.UpdateRequestInTx(ctx, tx, *request); err != nil {
		return fmt.Errorf("failed to update rejected request: %w", err)
	}

	return s.appendHistoryInTx(ctx, tx, request.RequestID, user.UserID, domain.HistoryRejected, comments, now)
}

// approveInTx approves the active step and advances the workflow:
// auto-approving covered follow-up steps, escalating to director when
// asked, or completing the request when nothing is left.
func (s *approvalService) approveInTx(ctx context.Context, tx pgx.Tx, request *domain.ApprovalRequest, active *domain.ApprovalAction, req dto.ProcessApprovalActionRequest, user *domain.User, now time.Time) error {
	active.Status = domain.ApprovalApproved
	active.IsActive = false
	active.ApproverID = &user.UserID
	active.ActionDate = &now
	active.Comments = req.Comments
	active.LastUpdatedAt = now
	active.LastUpdatedBy = user.UserID
	if err := s.approvalRepo.UpdateActionInTx(ctx, tx, *active); err != nil {
		return fmt.Errorf("failed to update approved action: %w", err)
	}

	if err := s.appendHistoryInTx(ctx, tx, request.RequestID, user.UserID, domain.HistoryApproved, req.Comments, now); err != nil {
		return err
	}

	if req.EscalateToDirector {
		return s.escalateInTx(ctx, tx, request, user, now)
	}

	// Auto-approve consecutive follow-up steps whose role the actor
	// already covers; a director approving the finance step should not
	// queue behind their own later step.
	for i := range request.Actions {
		next := &request.Actions[i]
		if next.Status != domain.ApprovalPending || next.ActionID == active.ActionID {
			continue
		}
		stepRole := domain.NormalizeRole(string(next.Step.ApproverRole))
		if user.Role.Covers(stepRole) {
			next.Status = domain.ApprovalApproved
			next.IsActive = false
			next.ApproverID = &user.UserID
			next.ActionDate = &now
			next.Comments = fmt.Sprintf("Auto-approved: %s covers %s", user.Role, stepRole)
			next.LastUpdatedAt = now
			next.LastUpdatedBy = user.UserID
			if err := s.approvalRepo.UpdateActionInTx(ctx, tx, *next); err != nil {
				return fmt.Errorf("failed to auto-approve action: %w", err)
			}
			continue
		}

		// First uncovered pending step becomes the active one.
		next.IsActive = true
		activatedAt := now
		next.ActivatedAt = &activatedAt
		next.LastUpdatedAt = now
		next.LastUpdatedBy = user.UserID
		if err := s.approvalRepo.UpdateActionInTx(ctx, tx, *next); err != nil {
			return fmt.Errorf("failed to activate next action: %w", err)
		}
		return nil
	}

	// Every step is terminal: the request is approved.
	request.Status = domain.ApprovalApproved
	request.CompletedAt = &now
	request.LastUpdatedAt = now
	request.LastUpdatedBy = user.UserID
	if err := s.approvalRepo.UpdateRequestInTx(ctx, tx, *request); err != nil {
		return fmt.Errorf("failed to complete approved request: %w", err)
	}
	return nil
}

// escalateInTx appends a director step to the live request and bumps
// its priority.
func (s *approvalService) escalateInTx(ctx context.Context, tx pgx.Tx, request *domain.ApprovalRequest, user *domain.User, now time.Time) error {
	step := domain.ApprovalStep{
		StepID:       uuid.NewString(),
		WorkflowID:   request.WorkflowID,
		StepOrder:    escalationStepOrder,
		StepName:     "Director escalation",
		ApproverRole: domain.RoleDirector,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     user.UserID,
			LastUpdatedAt: now,
			LastUpdatedBy: user.UserID,
		},
	}
	if err := s.approvalRepo.SaveStepInTx(ctx, tx, step); err != nil {
		return fmt.Errorf("failed to save escalation step: %w", err)
	}

	activatedAt := now
	action := domain.ApprovalAction{
		ActionID:    uuid.NewString(),
		RequestID:   request.RequestID,
		StepID:      step.StepID,
		Step:        step,
		Status:      domain.ApprovalPending,
		IsActive:    true,
		ActivatedAt: &activatedAt,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     user.UserID,
			LastUpdatedAt: now,
			LastUpdatedBy: user.UserID,
		},
	}
	if err := s.approvalRepo.SaveActionInTx(ctx, tx, action); err != nil {
		return fmt.Errorf("failed to save escalation action: %w", err)
	}
	request.Actions = append(request.Actions, action)

	request.Priority = domain.PriorityHigh
	request.LastUpdatedAt = now
	request.LastUpdatedBy = user.UserID
	if err := s.approvalRepo.UpdateRequestInTx(ctx, tx, *request); err != nil {
		return fmt.Errorf("failed to update escalated request: %w", err)
	}

	return s.appendHistoryInTx(ctx, tx, request.RequestID, user.UserID, domain.HistoryEscalated, "", now)
}

func (s *approvalService) appendHistoryInTx(ctx context.Context, tx pgx.Tx, requestID, userID, action, comments string, now time.Time) error {
	history := domain.ApprovalHistory{
		HistoryID: uuid.NewString(),
		RequestID: requestID,
		UserID:    userID,
		Action:    action,
		Comments:  comments,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	if err := s.approvalRepo.SaveHistoryInTx(ctx, tx, history); err != nil {
		return fmt.Errorf("failed to record approval history: %w", err)
	}
	return nil
}

// notifyOutcome delivers the post-commit notifications for an action.
// Failures are logged, never propagated; the decision already stands.
func (s *approvalService) notifyOutcome(ctx context.Context, request *domain.ApprovalRequest, req dto.ProcessApprovalActionRequest, actor *domain.User) {
	logger := middleware.GetLoggerFromCtx(ctx)

	switch request.Status {
	case domain.ApprovalRejected:
		title := fmt.Sprintf("Rejected: %s", request.Title)
		message := fmt.Sprintf("%s was rejected by %s", request.RequestCode, actor.Name)
		if err := s.notifySvc.NotifyUser(ctx, request.RequesterID, domain.NotifyApprovalRejected, title, message, request.Priority, ""); err != nil {
			logger.Error("Failed to notify requester of rejection", "error", err)
		}
	case domain.ApprovalApproved:
		title := fmt.Sprintf("Approved: %s", request.Title)
		message := fmt.Sprintf("%s was fully approved", request.RequestCode)
		if err := s.notifySvc.NotifyUser(ctx, request.RequesterID, domain.NotifyApprovalApproved, title, message, request.Priority, ""); err != nil {
			logger.Error("Failed to notify requester of approval", "error", err)
		}
	default:
		// Still pending: tell the next approver role.
		info := approval.ActiveStep(request.Actions)
		if info.State != approval.StateActivePending {
			return
		}
		title := fmt.Sprintf("Approval needed: %s", request.Title)
		message := fmt.Sprintf("%s is waiting for your approval", request.RequestCode)
		if err := s.notifySvc.NotifyRole(ctx, info.Role, domain.NotifyApprovalPending, title, message, request.Priority, ""); err != nil {
			logger.Error("Failed to notify next approver role", "error", err)
		}
	}
}

// EscalateRequest escalates the active step to a director without
// approving it: the active action is skipped, a director step is
// appended and activated, and the priority is raised.
func (s *approvalService) EscalateRequest(ctx context.Context, requestID string, userID string, comments string) (*domain.ApprovalRequest, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	request, err := s.approvalRepo.FindRequestByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to find approval request %s: %w", requestID, err)
	}
	if request.Status != domain.ApprovalPending {
		return nil, fmt.Errorf("%w: status is %s", ErrRequestNotPending, request.Status)
	}

	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user %s: %w", userID, err)
	}

	if !approval.CanAct(request.Actions, user.Role) {
		return nil, fmt.Errorf("%w: role %s may not escalate this request", apperrors.ErrForbidden, user.Role)
	}

	info := approval.ActiveStep(request.Actions)
	if info.State != approval.StateActivePending || info.Action == nil {
		return nil, ErrNoActiveStep
	}
	active := info.Action
	if active.Step.ApproverRole == domain.RoleDirector {
		return nil, fmt.Errorf("%w: request already sits with a director", apperrors.ErrConflict)
	}

	now := time.Now().UTC()
	tx, err := s.approvalRepo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = s.approvalRepo.Rollback(ctx, tx)
		}
	}()

	// The skipped step counts as passed; the decision now belongs to
	// the director.
	active.Status = domain.ApprovalSkipped
	active.IsActive = false
	active.ApproverID = &user.UserID
	active.ActionDate = &now
	active.Comments = comments
	active.LastUpdatedAt = now
	active.LastUpdatedBy = user.UserID
	if err = s.approvalRepo.UpdateActionInTx(ctx, tx, *active); err != nil {
		return nil, fmt.Errorf("failed to skip escalated action: %w", err)
	}

	if err = s.escalateInTx(ctx, tx, request, user, now); err != nil {
		return nil, err
	}

	if err = s.approvalRepo.Commit(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to commit escalation: %w", err)
	}

	s.notifyOutcome(ctx, request, dto.ProcessApprovalActionRequest{}, user)

	logger.Info("Approval request escalated", "request_id", requestID, "escalated_by", userID)
	return s.approvalRepo.FindRequestByID(ctx, requestID)
}

// CancelRequest cancels a pending request. Only the requester or an
// admin may cancel.
func (s *approvalService) CancelRequest(ctx context.Context, requestID string, userID string, reason string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	request, err := s.approvalRepo.FindRequestByID(ctx, requestID)
	if err != nil {
		return fmt.Errorf("failed to find approval request %s: %w", requestID, err)
	}
	if request.Status != domain.ApprovalPending {
		return fmt.Errorf("%w: status is %s", ErrRequestNotPending, request.Status)
	}

	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to find user %s: %w", userID, err)
	}
	if request.RequesterID != userID && user.Role != domain.RoleAdmin {
		return fmt.Errorf("%w: only the requester or an admin may cancel", apperrors.ErrForbidden)
	}

	now := time.Now().UTC()
	tx, err := s.approvalRepo.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = s.approvalRepo.Rollback(ctx, tx)
		}
	}()

	for i := range request.Actions {
		action := &request.Actions[i]
		if action.Status != domain.ApprovalPending {
			continue
		}
		action.Status = domain.ApprovalCancelled
		action.IsActive = false
		action.LastUpdatedAt = now
		action.LastUpdatedBy = userID
		if err = s.approvalRepo.UpdateActionInTx(ctx, tx, *action); err != nil {
			return fmt.Errorf("failed to cancel action: %w", err)
		}
	}

	request.Status = domain.ApprovalCancelled
	request.CompletedAt = &now
	request.RejectReason = reason
	request.LastUpdatedAt = now
	request.LastUpdatedBy = userID
	if err = s.approvalRepo.UpdateRequestInTx(ctx, tx, *request); err != nil {
		return fmt.Errorf("failed to cancel request: %w", err)
	}

	if err = s.appendHistoryInTx(ctx, tx, requestID, userID, domain.HistoryCancelled, reason, now); err != nil {
		return err
	}

	if err = s.approvalRepo.Commit(ctx, tx); err != nil {
		return fmt.Errorf("failed to commit cancellation: %w", err)
	}

	// Cancellation is as terminal as approve/reject: the linked purchase
	// must drop its approval link or it can never move again.
	if s.purchaseSync != nil && request.EntityType == domain.ModulePurchase {
		if syncErr := s.purchaseSync.ApplyApprovalOutcome(ctx, request.RequestID, domain.ApprovalCancelled, userID); syncErr != nil {
			logger.Error("Failed to sync cancellation to purchase", "error", syncErr, "request_id", requestID)
		}
	}

	logger.Info("Approval request cancelled", "request_id", requestID)
	return nil
}

// GetHistory retrieves the audit trail of a request.
func (s *approvalService) GetHistory(ctx context.Context, requestID string) ([]domain.ApprovalHistory, error) {
	if _, err := s.approvalRepo.FindRequestByID(ctx, requestID); err != nil {
		return nil, fmt.Errorf("failed to find approval request %s: %w", requestID, err)
	}
	history, err := s.approvalRepo.ListHistoryByRequestID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list approval history: %w", err)
	}
	return history, nil
}
