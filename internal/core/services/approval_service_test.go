package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/akunara/akunara_backend/internal/apperrors"
	"github.com/akunara/akunara_backend/internal/core/domain"
	portssvc "github.com/akunara/akunara_backend/internal/core/ports/services"
	"github.com/akunara/akunara_backend/internal/core/services"
	"github.com/akunara/akunara_backend/internal/dto"
)

// --- Mock ApprovalRepository ---
type MockApprovalRepository struct {
	mock.Mock
}

func (m *MockApprovalRepository) FindWorkflowByID(ctx context.Context, workflowID string) (*domain.ApprovalWorkflow, error) {
	args := m.Called(ctx, workflowID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ApprovalWorkflow), args.Error(1)
}

func (m *MockApprovalRepository) FindMatchingWorkflow(ctx context.Context, module domain.ApprovalModule, amount decimal.Decimal) (*domain.ApprovalWorkflow, error) {
	args := m.Called(ctx, module, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ApprovalWorkflow), args.Error(1)
}

func (m *MockApprovalRepository) ListWorkflows(ctx context.Context) ([]domain.ApprovalWorkflow, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ApprovalWorkflow), args.Error(1)
}

func (m *MockApprovalRepository) SaveWorkflow(ctx context.Context, workflow domain.ApprovalWorkflow) error {
	return m.Called(ctx, workflow).Error(0)
}

func (m *MockApprovalRepository) UpdateWorkflow(ctx context.Context, workflow domain.ApprovalWorkflow) error {
	return m.Called(ctx, workflow).Error(0)
}

func (m *MockApprovalRepository) FindRequestByID(ctx context.Context, requestID string) (*domain.ApprovalRequest, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ApprovalRequest), args.Error(1)
}

func (m *MockApprovalRepository) ListRequests(ctx context.Context, limit int, nextToken *string, status *domain.ApprovalStatus, module *domain.ApprovalModule) ([]domain.ApprovalRequest, *string, error) {
	args := m.Called(ctx, limit, nextToken, status, module)
	var token *string
	if args.Get(1) != nil {
		token = args.Get(1).(*string)
	}
	if args.Get(0) == nil {
		return nil, token, args.Error(2)
	}
	return args.Get(0).([]domain.ApprovalRequest), token, args.Error(2)
}

func (m *MockApprovalRepository) ListPendingRequestsForRole(ctx context.Context, role *domain.Role) ([]domain.ApprovalRequest, error) {
	args := m.Called(ctx, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ApprovalRequest), args.Error(1)
}

func (m *MockApprovalRepository) SaveRequest(ctx context.Context, request domain.ApprovalRequest) error {
	return m.Called(ctx, request).Error(0)
}

func (m *MockApprovalRepository) UpdateRequest(ctx context.Context, request domain.ApprovalRequest) error {
	return m.Called(ctx, request).Error(0)
}

func (m *MockApprovalRepository) UpdateActionInTx(ctx context.Context, tx pgx.Tx, action domain.ApprovalAction) error {
	return m.Called(ctx, tx, action).Error(0)
}

func (m *MockApprovalRepository) SaveStepInTx(ctx context.Context, tx pgx.Tx, step domain.ApprovalStep) error {
	return m.Called(ctx, tx, step).Error(0)
}

func (m *MockApprovalRepository) SaveActionInTx(ctx context.Context, tx pgx.Tx, action domain.ApprovalAction) error {
	return m.Called(ctx, tx, action).Error(0)
}

func (m *MockApprovalRepository) UpdateRequestInTx(ctx context.Context, tx pgx.Tx, request domain.ApprovalRequest) error {
	return m.Called(ctx, tx, request).Error(0)
}

func (m *MockApprovalRepository) SaveHistory(ctx context.Context, history domain.ApprovalHistory) error {
	return m.Called(ctx, history).Error(0)
}

func (m *MockApprovalRepository) SaveHistoryInTx(ctx context.Context, tx pgx.Tx, history domain.ApprovalHistory) error {
	return m.Called(ctx, tx, history).Error(0)
}

func (m *MockApprovalRepository) ListHistoryByRequestID(ctx context.Context, requestID string) ([]domain.ApprovalHistory, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ApprovalHistory), args.Error(1)
}

func (m *MockApprovalRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Tx), args.Error(1)
}

func (m *MockApprovalRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	return m.Called(ctx, tx).Error(0)
}

func (m *MockApprovalRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	return m.Called(ctx, tx).Error(0)
}

// --- Mock UserRepository ---
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) FindUsersByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	args := m.Called(ctx, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockUserRepository) FindUsers(ctx context.Context, limit int, offset int) ([]domain.User, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockUserRepository) SaveUser(ctx context.Context, user domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) UpdateUser(ctx context.Context, user domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) MarkUserDeleted(ctx context.Context, userID string, deletedAt time.Time, deletedBy string) error {
	return m.Called(ctx, userID, deletedAt, deletedBy).Error(0)
}

// --- Mock NotificationService ---
type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) ListNotifications(ctx context.Context, userID string, params dto.ListNotificationsParams) (*dto.ListNotificationsResponse, error) {
	args := m.Called(ctx, userID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListNotificationsResponse), args.Error(1)
}

func (m *MockNotificationService) NotifyRole(ctx context.Context, role domain.Role, notifType domain.NotificationType, title, message string, priority domain.ApprovalPriority, data string) error {
	return m.Called(ctx, role, notifType, title, message, priority, data).Error(0)
}

func (m *MockNotificationService) NotifyUser(ctx context.Context, userID string, notifType domain.NotificationType, title, message string, priority domain.ApprovalPriority, data string) error {
	return m.Called(ctx, userID, notifType, title, message, priority, data).Error(0)
}

func (m *MockNotificationService) MarkRead(ctx context.Context, notificationID string, userID string) error {
	return m.Called(ctx, notificationID, userID).Error(0)
}

func (m *MockNotificationService) MarkAllRead(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

// --- Mock PurchaseApprovalSync ---
type MockPurchaseSync struct {
	mock.Mock
}

func (m *MockPurchaseSync) ApplyApprovalOutcome(ctx context.Context, requestID string, outcome domain.ApprovalStatus, actorUserID string) error {
	return m.Called(ctx, requestID, outcome, actorUserID).Error(0)
}

var _ portssvc.PurchaseApprovalSyncSvc = (*MockPurchaseSync)(nil)

// --- Test Suite ---
type ApprovalServiceTestSuite struct {
	suite.Suite
	mockRepo     *MockApprovalRepository
	mockUserRepo *MockUserRepository
	mockNotify   *MockNotificationService
	service      portssvc.ApprovalSvcFacade
}

func (suite *ApprovalServiceTestSuite) SetupTest() {
	suite.mockRepo = new(MockApprovalRepository)
	suite.mockUserRepo = new(MockUserRepository)
	suite.mockNotify = new(MockNotificationService)
	suite.service = services.NewApprovalService(suite.mockRepo, suite.mockUserRepo, suite.mockNotify)
}

func (suite *ApprovalServiceTestSuite) buildRequest(actions ...domain.ApprovalAction) *domain.ApprovalRequest {
	return &domain.ApprovalRequest{
		RequestID:   uuid.NewString(),
		RequestCode: "APP-PUR-20240101120000",
		WorkflowID:  uuid.NewString(),
		RequesterID: uuid.NewString(),
		EntityType:  domain.ModulePurchase,
		EntityID:    uuid.NewString(),
		Amount:      decimal.NewFromInt(5000000),
		Status:      domain.ApprovalPending,
		Priority:    domain.PriorityNormal,
		Title:       "Purchase PO-2024-0001",
		Actions:     actions,
	}
}

func pendingAction(order int, role domain.Role, active bool) domain.ApprovalAction {
	now := time.Now().UTC()
	a := domain.ApprovalAction{
		ActionID: uuid.NewString(),
		StepID:   uuid.NewString(),
		Step: domain.ApprovalStep{
			StepOrder:    order,
			ApproverRole: role,
		},
		Status:   domain.ApprovalPending,
		IsActive: active,
	}
	a.CreatedAt = now
	if active {
		a.ActivatedAt = &now
	}
	return a
}

// --- Test Cases ---

func (suite *ApprovalServiceTestSuite) TestCreateWorkflow_RejectsUnknownRole() {
	ctx := context.Background()
	req := dto.CreateApprovalWorkflowRequest{
		Name:   "Purchase approvals",
		Module: domain.ModulePurchase,
		Steps: []dto.CreateApprovalStepRequest{
			{StepOrder: 1, StepName: "Review", ApproverRole: "clerk"},
		},
	}

	workflow, err := suite.service.CreateWorkflow(ctx, req, uuid.NewString())

	suite.Require().Error(err)
	suite.Nil(workflow)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockRepo.AssertNotCalled(suite.T(), "SaveWorkflow")
}

func (suite *ApprovalServiceTestSuite) TestCreateWorkflow_NormalizesRoles() {
	ctx := context.Background()
	req := dto.CreateApprovalWorkflowRequest{
		Name:   "Purchase approvals",
		Module: domain.ModulePurchase,
		Steps: []dto.CreateApprovalStepRequest{
			{StepOrder: 1, StepName: "Manager review", ApproverRole: "  Manager "},
			{StepOrder: 2, StepName: "Finance review", ApproverRole: "FINANCE"},
		},
	}

	suite.mockRepo.On("SaveWorkflow", ctx, mock.MatchedBy(func(w domain.ApprovalWorkflow) bool {
		return len(w.Steps) == 2 &&
			w.Steps[0].ApproverRole == domain.RoleManager &&
			w.Steps[1].ApproverRole == domain.RoleFinance
	})).Return(nil).Once()

	workflow, err := suite.service.CreateWorkflow(ctx, req, uuid.NewString())

	suite.Require().NoError(err)
	suite.Require().NotNil(workflow)
	suite.True(workflow.IsActive)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *ApprovalServiceTestSuite) TestCreateRequest_ActivatesFirstStep() {
	ctx := context.Background()
	requesterID := uuid.NewString()
	workflow := &domain.ApprovalWorkflow{
		WorkflowID: uuid.NewString(),
		Module:     domain.ModulePurchase,
		IsActive:   true,
		Steps: []domain.ApprovalStep{
			{StepID: uuid.NewString(), StepOrder: 1, ApproverRole: domain.RoleManager},
			{StepID: uuid.NewString(), StepOrder: 2, ApproverRole: domain.RoleFinance},
		},
	}
	req := dto.CreateApprovalRequestRequest{
		Module:   domain.ModulePurchase,
		EntityID: uuid.NewString(),
		Amount:   decimal.NewFromInt(7500000),
		Title:    "Purchase PO-2024-0002",
	}

	suite.mockRepo.On("FindMatchingWorkflow", ctx, domain.ModulePurchase, req.Amount).Return(workflow, nil).Once()
	suite.mockRepo.On("SaveRequest", ctx, mock.MatchedBy(func(r domain.ApprovalRequest) bool {
		if len(r.Actions) != 2 {
			return false
		}
		first, second := r.Actions[0], r.Actions[1]
		return first.IsActive && first.ActivatedAt != nil &&
			!second.IsActive && second.ActivatedAt == nil &&
			r.Status == domain.ApprovalPending &&
			r.Priority == domain.PriorityNormal
	})).Return(nil).Once()
	suite.mockRepo.On("SaveHistory", ctx, mock.MatchedBy(func(h domain.ApprovalHistory) bool {
		return h.Action == domain.HistoryCreated && h.UserID == requesterID
	})).Return(nil).Once()
	suite.mockNotify.On("NotifyRole", ctx, domain.RoleManager, domain.NotifyApprovalPending, mock.Anything, mock.Anything, domain.PriorityNormal, "").Return(nil).Once()

	request, err := suite.service.CreateRequest(ctx, req, requesterID)

	suite.Require().NoError(err)
	suite.Require().NotNil(request)
	suite.Contains(request.RequestCode, "APP-PUR-")
	suite.mockRepo.AssertExpectations(suite.T())
	suite.mockNotify.AssertExpectations(suite.T())
}

func (suite *ApprovalServiceTestSuite) TestCreateRequest_NoMatchingWorkflow() {
	ctx := context.Background()
	req := dto.CreateApprovalRequestRequest{
		Module:   domain.ModuleExpense,
		EntityID: uuid.NewString(),
		Amount:   decimal.NewFromInt(100),
		Title:    "Small expense",
	}

	suite.mockRepo.On("FindMatchingWorkflow", ctx, domain.ModuleExpense, req.Amount).Return(nil, apperrors.ErrNotFound).Once()

	request, err := suite.service.CreateRequest(ctx, req, uuid.NewString())

	suite.Require().Error(err)
	suite.Nil(request)
	suite.ErrorIs(err, services.ErrNoMatchingWorkflow)
}

func (suite *ApprovalServiceTestSuite) TestProcessAction_StrictRoleOnActiveStep() {
	// A director may not act on the finance step: role matching on the
	// active step is exact, coverage only applies to follow-up steps.
	ctx := context.Background()
	userID := uuid.NewString()
	request := suite.buildRequest(
		pendingAction(1, domain.RoleFinance, true),
		pendingAction(2, domain.RoleDirector, false),
	)
	director := &domain.User{UserID: userID, Role: domain.RoleDirector, IsActive: true}

	suite.mockRepo.On("FindRequestByID", ctx, request.RequestID).Return(request, nil).Once()
	suite.mockUserRepo.On("FindUserByID", ctx, userID).Return(director, nil).Once()

	result, err := suite.service.ProcessAction(ctx, request.RequestID, dto.ProcessApprovalActionRequest{Action: "APPROVE"}, userID)

	suite.Require().Error(err)
	suite.Nil(result)
	suite.ErrorIs(err, apperrors.ErrForbidden)
	suite.mockRepo.AssertNotCalled(suite.T(), "Begin")
}

func (suite *ApprovalServiceTestSuite) TestProcessAction_ApproveAdvancesToNextStep() {
	ctx := context.Background()
	userID := uuid.NewString()
	request := suite.buildRequest(
		pendingAction(1, domain.RoleManager, true),
		pendingAction(2, domain.RoleFinance, false),
	)
	manager := &domain.User{UserID: userID, Name: "Mgr", Role: domain.RoleManager, IsActive: true}

	suite.mockRepo.On("FindRequestByID", ctx, request.RequestID).Return(request, nil)
	suite.mockUserRepo.On("FindUserByID", ctx, userID).Return(manager, nil).Once()
	suite.mockRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockRepo.On("UpdateActionInTx", ctx, mock.Anything, mock.MatchedBy(func(a domain.ApprovalAction) bool {
		return a.Status == domain.ApprovalApproved && !a.IsActive && a.ApproverID != nil
	})).Return(nil).Once()
	suite.mockRepo.On("SaveHistoryInTx", ctx, mock.Anything, mock.MatchedBy(func(h domain.ApprovalHistory) bool {
		return h.Action == domain.HistoryApproved
	})).Return(nil).Once()
	suite.mockRepo.On("UpdateActionInTx", ctx, mock.Anything, mock.MatchedBy(func(a domain.ApprovalAction) bool {
		return a.Status == domain.ApprovalPending && a.IsActive && a.ActivatedAt != nil
	})).Return(nil).Once()
	suite.mockRepo.On("Commit", ctx, mock.Anything).Return(nil).Once()
	suite.mockNotify.On("NotifyRole", ctx, domain.RoleFinance, domain.NotifyApprovalPending, mock.Anything, mock.Anything, domain.PriorityNormal, "").Return(nil).Once()

	result, err := suite.service.ProcessAction(ctx, request.RequestID, dto.ProcessApprovalActionRequest{Action: "APPROVE"}, userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(result)
	suite.Equal(domain.ApprovalPending, result.Status)
	suite.mockRepo.AssertExpectations(suite.T())
	suite.mockNotify.AssertExpectations(suite.T())
}

func (suite *ApprovalServiceTestSuite) TestProcessAction_RejectIsTerminal() {
	ctx := context.Background()
	userID := uuid.NewString()
	request := suite.buildRequest(
		pendingAction(1, domain.RoleManager, true),
		pendingAction(2, domain.RoleFinance, false),
	)
	manager := &domain.User{UserID: userID, Name: "Mgr", Role: domain.RoleManager, IsActive: true}

	suite.mockRepo.On("FindRequestByID", ctx, request.RequestID).Return(request, nil)
	suite.mockUserRepo.On("FindUserByID", ctx, userID).Return(manager, nil).Once()
	suite.mockRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockRepo.On("UpdateActionInTx", ctx, mock.Anything, mock.MatchedBy(func(a domain.ApprovalAction) bool {
		return a.Status == domain.ApprovalRejected && !a.IsActive
	})).Return(nil).Once()
	suite.mockRepo.On("UpdateRequestInTx", ctx, mock.Anything, mock.MatchedBy(func(r domain.ApprovalRequest) bool {
		return r.Status == domain.ApprovalRejected && r.CompletedAt != nil && r.RejectReason == "over budget"
	})).Return(nil).Once()
	suite.mockRepo.On("SaveHistoryInTx", ctx, mock.Anything, mock.MatchedBy(func(h domain.ApprovalHistory) bool {
		return h.Action == domain.HistoryRejected
	})).Return(nil).Once()
	suite.mockRepo.On("Commit", ctx, mock.Anything).Return(nil).Once()
	suite.mockNotify.On("NotifyUser", ctx, request.RequesterID, domain.NotifyApprovalRejected, mock.Anything, mock.Anything, domain.PriorityNormal, "").Return(nil).Once()

	result, err := suite.service.ProcessAction(ctx, request.RequestID, dto.ProcessApprovalActionRequest{Action: "REJECT", Comments: "over budget"}, userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(result)
	// The second step is never activated after a rejection.
	suite.mockRepo.AssertNumberOfCalls(suite.T(), "UpdateActionInTx", 1)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *ApprovalServiceTestSuite) TestProcessAction_FinalApprovalCompletesRequest() {
	ctx := context.Background()
	userID := uuid.NewString()
	approved := pendingAction(1, domain.RoleManager, false)
	approved.Status = domain.ApprovalApproved
	request := suite.buildRequest(
		approved,
		pendingAction(2, domain.RoleFinance, true),
	)
	finance := &domain.User{UserID: userID, Name: "Fin", Role: domain.RoleFinance, IsActive: true}

	suite.mockRepo.On("FindRequestByID", ctx, request.RequestID).Return(request, nil)
	suite.mockUserRepo.On("FindUserByID", ctx, userID).Return(finance, nil).Once()
	suite.mockRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockRepo.On("UpdateActionInTx", ctx, mock.Anything, mock.Anything).Return(nil).Once()
	suite.mockRepo.On("SaveHistoryInTx", ctx, mock.Anything, mock.Anything).Return(nil).Once()
	suite.mockRepo.On("UpdateRequestInTx", ctx, mock.Anything, mock.MatchedBy(func(r domain.ApprovalRequest) bool {
		return r.Status == domain.ApprovalApproved && r.CompletedAt != nil
	})).Return(nil).Once()
	suite.mockRepo.On("Commit", ctx, mock.Anything).Return(nil).Once()
	suite.mockNotify.On("NotifyUser", ctx, request.RequesterID, domain.NotifyApprovalApproved, mock.Anything, mock.Anything, domain.PriorityNormal, "").Return(nil).Once()

	result, err := suite.service.ProcessAction(ctx, request.RequestID, dto.ProcessApprovalActionRequest{Action: "APPROVE"}, userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(result)
	suite.mockRepo.AssertExpectations(suite.T())
	suite.mockNotify.AssertExpectations(suite.T())
}

func (suite *ApprovalServiceTestSuite) TestProcessAction_EscalationAppendsDirectorStep() {
	ctx := context.Background()
	userID := uuid.NewString()
	request := suite.buildRequest(
		pendingAction(1, domain.RoleManager, true),
	)
	manager := &domain.User{UserID: userID, Name: "Mgr", Role: domain.RoleManager, IsActive: true}

	suite.mockRepo.On("FindRequestByID", ctx, request.RequestID).Return(request, nil)
	suite.mockUserRepo.On("FindUserByID", ctx, userID).Return(manager, nil).Once()
	suite.mockRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockRepo.On("UpdateActionInTx", ctx, mock.Anything, mock.Anything).Return(nil).Once()
	suite.mockRepo.On("SaveHistoryInTx", ctx, mock.Anything, mock.MatchedBy(func(h domain.ApprovalHistory) bool {
		return h.Action == domain.HistoryApproved
	})).Return(nil).Once()
	suite.mockRepo.On("SaveStepInTx", ctx, mock.Anything, mock.MatchedBy(func(s domain.ApprovalStep) bool {
		return s.StepOrder == 999 && s.ApproverRole == domain.RoleDirector
	})).Return(nil).Once()
	suite.mockRepo.On("SaveActionInTx", ctx, mock.Anything, mock.MatchedBy(func(a domain.ApprovalAction) bool {
		return a.IsActive && a.Status == domain.ApprovalPending
	})).Return(nil).Once()
	suite.mockRepo.On("UpdateRequestInTx", ctx, mock.Anything, mock.MatchedBy(func(r domain.ApprovalRequest) bool {
		return r.Priority == domain.PriorityHigh
	})).Return(nil).Once()
	suite.mockRepo.On("SaveHistoryInTx", ctx, mock.Anything, mock.MatchedBy(func(h domain.ApprovalHistory) bool {
		return h.Action == domain.HistoryEscalated
	})).Return(nil).Once()
	suite.mockRepo.On("Commit", ctx, mock.Anything).Return(nil).Once()
	suite.mockNotify.On("NotifyRole", ctx, domain.RoleDirector, domain.NotifyApprovalPending, mock.Anything, mock.Anything, domain.PriorityHigh, "").Return(nil).Once()

	result, err := suite.service.ProcessAction(ctx, request.RequestID, dto.ProcessApprovalActionRequest{Action: "APPROVE", EscalateToDirector: true}, userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(result)
	suite.mockRepo.AssertExpectations(suite.T())
	suite.mockNotify.AssertExpectations(suite.T())
}

func (suite *ApprovalServiceTestSuite) TestProcessAction_RequestAlreadyTerminal() {
	ctx := context.Background()
	request := suite.buildRequest(pendingAction(1, domain.RoleManager, true))
	request.Status = domain.ApprovalRejected

	suite.mockRepo.On("FindRequestByID", ctx, request.RequestID).Return(request, nil).Once()

	result, err := suite.service.ProcessAction(ctx, request.RequestID, dto.ProcessApprovalActionRequest{Action: "APPROVE"}, uuid.NewString())

	suite.Require().Error(err)
	suite.Nil(result)
	suite.ErrorIs(err, services.ErrRequestNotPending)
}

func (suite *ApprovalServiceTestSuite) TestEscalateRequest_SkipsActiveStepAndRoutesToDirector() {
	ctx := context.Background()
	userID := uuid.NewString()
	request := suite.buildRequest(
		pendingAction(1, domain.RoleManager, true),
	)
	manager := &domain.User{UserID: userID, Name: "Mgr", Role: domain.RoleManager, IsActive: true}

	suite.mockRepo.On("FindRequestByID", ctx, request.RequestID).Return(request, nil)
	suite.mockUserRepo.On("FindUserByID", ctx, userID).Return(manager, nil).Once()
	suite.mockRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockRepo.On("UpdateActionInTx", ctx, mock.Anything, mock.MatchedBy(func(a domain.ApprovalAction) bool {
		return a.Status == domain.ApprovalSkipped && !a.IsActive && a.ApproverID != nil && a.Comments == "needs a director"
	})).Return(nil).Once()
	suite.mockRepo.On("SaveStepInTx", ctx, mock.Anything, mock.MatchedBy(func(s domain.ApprovalStep) bool {
		return s.StepOrder == 999 && s.ApproverRole == domain.RoleDirector
	})).Return(nil).Once()
	suite.mockRepo.On("SaveActionInTx", ctx, mock.Anything, mock.MatchedBy(func(a domain.ApprovalAction) bool {
		return a.IsActive && a.Status == domain.ApprovalPending
	})).Return(nil).Once()
	suite.mockRepo.On("UpdateRequestInTx", ctx, mock.Anything, mock.MatchedBy(func(r domain.ApprovalRequest) bool {
		return r.Priority == domain.PriorityHigh
	})).Return(nil).Once()
	suite.mockRepo.On("SaveHistoryInTx", ctx, mock.Anything, mock.MatchedBy(func(h domain.ApprovalHistory) bool {
		return h.Action == domain.HistoryEscalated
	})).Return(nil).Once()
	suite.mockRepo.On("Commit", ctx, mock.Anything).Return(nil).Once()
	suite.mockNotify.On("NotifyRole", ctx, domain.RoleDirector, domain.NotifyApprovalPending, mock.Anything, mock.Anything, domain.PriorityHigh, "").Return(nil).Once()

	result, err := suite.service.EscalateRequest(ctx, request.RequestID, userID, "needs a director")

	suite.Require().NoError(err)
	suite.Require().NotNil(result)
	suite.mockRepo.AssertExpectations(suite.T())
	suite.mockNotify.AssertExpectations(suite.T())
}

func (suite *ApprovalServiceTestSuite) TestEscalateRequest_DirectorStepCannotEscalate() {
	ctx := context.Background()
	userID := uuid.NewString()
	request := suite.buildRequest(
		pendingAction(1, domain.RoleDirector, true),
	)
	director := &domain.User{UserID: userID, Role: domain.RoleDirector, IsActive: true}

	suite.mockRepo.On("FindRequestByID", ctx, request.RequestID).Return(request, nil).Once()
	suite.mockUserRepo.On("FindUserByID", ctx, userID).Return(director, nil).Once()

	result, err := suite.service.EscalateRequest(ctx, request.RequestID, userID, "")

	suite.Require().Error(err)
	suite.Nil(result)
	suite.ErrorIs(err, apperrors.ErrConflict)
	suite.mockRepo.AssertNotCalled(suite.T(), "Begin")
}

func (suite *ApprovalServiceTestSuite) TestCancelRequest_OnlyRequesterOrAdmin() {
	ctx := context.Background()
	request := suite.buildRequest(pendingAction(1, domain.RoleManager, true))
	strangerID := uuid.NewString()
	stranger := &domain.User{UserID: strangerID, Role: domain.RoleEmployee, IsActive: true}

	suite.mockRepo.On("FindRequestByID", ctx, request.RequestID).Return(request, nil).Once()
	suite.mockUserRepo.On("FindUserByID", ctx, strangerID).Return(stranger, nil).Once()

	err := suite.service.CancelRequest(ctx, request.RequestID, strangerID, "not mine")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrForbidden)
	suite.mockRepo.AssertNotCalled(suite.T(), "Begin")
}

func (suite *ApprovalServiceTestSuite) TestCancelRequest_SyncsOutcomeToPurchase() {
	// A direct cancellation must release the linked purchase the same
	// way a terminal approve/reject does.
	ctx := context.Background()
	userID := uuid.NewString()
	request := suite.buildRequest(pendingAction(1, domain.RoleFinance, true))
	request.RequesterID = userID
	requester := &domain.User{UserID: userID, Role: domain.RoleEmployee, IsActive: true}

	sync := new(MockPurchaseSync)
	suite.service.(interface {
		AttachPurchaseSync(portssvc.PurchaseApprovalSyncSvc)
	}).AttachPurchaseSync(sync)

	suite.mockRepo.On("FindRequestByID", ctx, request.RequestID).Return(request, nil).Once()
	suite.mockUserRepo.On("FindUserByID", ctx, userID).Return(requester, nil).Once()
	suite.mockRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockRepo.On("UpdateActionInTx", ctx, mock.Anything, mock.MatchedBy(func(a domain.ApprovalAction) bool {
		return a.Status == domain.ApprovalCancelled && !a.IsActive
	})).Return(nil).Once()
	suite.mockRepo.On("UpdateRequestInTx", ctx, mock.Anything, mock.MatchedBy(func(r domain.ApprovalRequest) bool {
		return r.Status == domain.ApprovalCancelled && r.CompletedAt != nil
	})).Return(nil).Once()
	suite.mockRepo.On("SaveHistoryInTx", ctx, mock.Anything, mock.MatchedBy(func(h domain.ApprovalHistory) bool {
		return h.Action == domain.HistoryCancelled
	})).Return(nil).Once()
	suite.mockRepo.On("Commit", ctx, mock.Anything).Return(nil).Once()
	sync.On("ApplyApprovalOutcome", ctx, request.RequestID, domain.ApprovalCancelled, userID).Return(nil).Once()

	err := suite.service.CancelRequest(ctx, request.RequestID, userID, "no longer needed")

	suite.Require().NoError(err)
	suite.mockRepo.AssertExpectations(suite.T())
	sync.AssertExpectations(suite.T())
}

func (suite *ApprovalServiceTestSuite) TestListPendingForUser_FiltersByRole() {
	ctx := context.Background()
	userID := uuid.NewString()
	finance := &domain.User{UserID: userID, Role: domain.RoleFinance, IsActive: true}

	suite.mockUserRepo.On("FindUserByID", ctx, userID).Return(finance, nil).Once()
	suite.mockRepo.On("ListPendingRequestsForRole", ctx, mock.MatchedBy(func(r *domain.Role) bool {
		return r != nil && *r == domain.RoleFinance
	})).Return([]domain.ApprovalRequest{}, nil).Once()

	_, err := suite.service.ListPendingForUser(ctx, userID)

	suite.Require().NoError(err)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *ApprovalServiceTestSuite) TestListPendingForUser_AdminInboxIsUnfiltered() {
	// Admins may act on any active step, so their inbox lists every
	// active pending step rather than only admin-assigned ones.
	ctx := context.Background()
	userID := uuid.NewString()
	admin := &domain.User{UserID: userID, Role: domain.RoleAdmin, IsActive: true}

	suite.mockUserRepo.On("FindUserByID", ctx, userID).Return(admin, nil).Once()
	suite.mockRepo.On("ListPendingRequestsForRole", ctx, (*domain.Role)(nil)).Return([]domain.ApprovalRequest{
		*suite.buildRequest(pendingAction(1, domain.RoleFinance, true)),
		*suite.buildRequest(pendingAction(1, domain.RoleManager, true)),
	}, nil).Once()

	requests, err := suite.service.ListPendingForUser(ctx, userID)

	suite.Require().NoError(err)
	suite.Len(requests, 2)
	suite.mockRepo.AssertExpectations(suite.T())
}

func TestApprovalServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ApprovalServiceTestSuite))
}
