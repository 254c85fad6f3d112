package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/akunara/akunara_backend/internal/apperrors"
	"github.com/akunara/akunara_backend/internal/core/domain"
	portssvc "github.com/akunara/akunara_backend/internal/core/ports/services"
	"github.com/akunara/akunara_backend/internal/core/services"
	"github.com/akunara/akunara_backend/internal/dto"
	"github.com/akunara/akunara_backend/internal/handlers"
	"github.com/akunara/akunara_backend/internal/middleware"
	"github.com/akunara/akunara_backend/internal/utils"
	"github.com/akunara/akunara_backend/internal/utils/accounting"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock JournalService ---

type MockJournalService struct {
	mock.Mock
}

func (m *MockJournalService) CreateJournal(ctx context.Context, req dto.CreateJournalRequest, creatorUserID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, req, creatorUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalService) UpdateJournal(ctx context.Context, journalID string, req dto.UpdateJournalRequest, requestingUserID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, journalID, req, requestingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalService) ReverseJournal(ctx context.Context, journalID string, userID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, journalID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalService) GetJournalByID(ctx context.Context, journalID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, journalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalService) ListJournals(ctx context.Context, params dto.ListJournalsParams) (*dto.ListJournalsResponse, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListJournalsResponse), args.Error(1)
}

func (m *MockJournalService) ListLinesByAccount(ctx context.Context, accountID string, limit int, nextToken *string) ([]domain.JournalLine, *string, error) {
	args := m.Called(ctx, accountID, limit, nextToken)
	var lines []domain.JournalLine
	if args.Get(0) != nil {
		lines = args.Get(0).([]domain.JournalLine)
	}
	var token *string
	if args.Get(1) != nil {
		token = args.Get(1).(*string)
	}
	return lines, token, args.Error(2)
}

func (m *MockJournalService) ValidateJournal(ctx context.Context, req dto.ValidateJournalRequest) (*accounting.ValidationResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounting.ValidationResult), args.Error(1)
}

// Ensure mock implements the interface
var _ portssvc.JournalSvcFacade = (*MockJournalService)(nil)

// --- Test Suite ---

type JournalHandlerTestSuite struct {
	suite.Suite
	router             *gin.Engine
	mockJournalService *MockJournalService
	jwtSecret          string
}

func (suite *JournalHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.jwtSecret = "test-secret-key-that-is-long-enough"

	suite.mockJournalService = new(MockJournalService)

	v1 := suite.router.Group("/api/v1", middleware.AuthMiddleware(suite.jwtSecret))
	handlers.RegisterJournalRoutes(v1, suite.mockJournalService)
}

// generateTestToken creates a JWT carrying the given user and role.
func (suite *JournalHandlerTestSuite) generateTestToken(userID string, role string) string {
	token, err := utils.GenerateJWT(userID, role, suite.jwtSecret, time.Hour, "test")
	if err != nil {
		suite.FailNow("Failed to sign test token", err.Error())
	}
	return token
}

func (suite *JournalHandlerTestSuite) doJSON(method, url string, body any, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		suite.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req, _ := http.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *JournalHandlerTestSuite) balancedCreateRequest() dto.CreateJournalRequest {
	return dto.CreateJournalRequest{
		Date:         time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Description:  "Office supplies",
		CurrencyCode: "IDR",
		Lines: []dto.JournalLineRequest{
			{AccountID: uuid.NewString(), Description: "Supplies expense", DebitAmount: decimal.NewFromInt(150000)},
			{AccountID: uuid.NewString(), Description: "Paid from cash", CreditAmount: decimal.NewFromInt(150000)},
		},
	}
}

// --- Test Cases ---

func (suite *JournalHandlerTestSuite) TestCreateJournal_Success() {
	userID := uuid.NewString()
	reqBody := suite.balancedCreateRequest()

	expected := &domain.JournalEntry{
		JournalID:    uuid.NewString(),
		EntryNumber:  "JE-20240315-0001",
		EntryDate:    reqBody.Date,
		Description:  reqBody.Description,
		CurrencyCode: "IDR",
		Status:       domain.Posted,
		SourceType:   domain.SourceManual,
		Amount:       decimal.NewFromInt(150000),
	}

	suite.mockJournalService.On("CreateJournal",
		mock.Anything,
		mock.MatchedBy(func(r dto.CreateJournalRequest) bool {
			return r.Description == reqBody.Description && len(r.Lines) == 2
		}),
		userID,
	).Return(expected, nil).Once()

	w := suite.doJSON(http.MethodPost, "/api/v1/journals", reqBody, suite.generateTestToken(userID, "EMPLOYEE"))

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.JournalResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(expected.JournalID, resp.JournalID)
	suite.Equal("JE-20240315-0001", resp.EntryNumber)
	suite.Equal(domain.Posted, resp.Status)
	suite.mockJournalService.AssertExpectations(suite.T())
}

func (suite *JournalHandlerTestSuite) TestCreateJournal_UnbalancedReturns422() {
	userID := uuid.NewString()
	reqBody := suite.balancedCreateRequest()
	reqBody.Lines[1].CreditAmount = decimal.NewFromInt(140000)

	suite.mockJournalService.On("CreateJournal", mock.Anything, mock.Anything, userID).
		Return(nil, services.ErrJournalUnbalanced).Once()

	w := suite.doJSON(http.MethodPost, "/api/v1/journals", reqBody, suite.generateTestToken(userID, "EMPLOYEE"))

	suite.Equal(http.StatusUnprocessableEntity, w.Code)
	suite.mockJournalService.AssertExpectations(suite.T())
}

func (suite *JournalHandlerTestSuite) TestCreateJournal_MissingTokenReturns401() {
	w := suite.doJSON(http.MethodPost, "/api/v1/journals", suite.balancedCreateRequest(), "")

	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.mockJournalService.AssertNotCalled(suite.T(), "CreateJournal", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *JournalHandlerTestSuite) TestValidateJournal_UnbalancedStillReturns200() {
	userID := uuid.NewString()
	reqBody := dto.ValidateJournalRequest{
		Lines: []dto.JournalLineRequest{
			{AccountID: uuid.NewString(), Description: "Supplies expense", DebitAmount: decimal.NewFromInt(500)},
			{AccountID: uuid.NewString(), Description: "Paid from cash", CreditAmount: decimal.NewFromInt(300)},
		},
	}

	result := &accounting.ValidationResult{
		TotalDebit:      decimal.NewFromInt(500),
		TotalCredit:     decimal.NewFromInt(300),
		Difference:      decimal.NewFromInt(200),
		IsBalanced:      false,
		HasValidEntries: true,
		CanSubmit:       false,
	}

	suite.mockJournalService.On("ValidateJournal", mock.Anything, mock.MatchedBy(func(r dto.ValidateJournalRequest) bool {
		return len(r.Lines) == 2
	})).Return(result, nil).Once()

	w := suite.doJSON(http.MethodPost, "/api/v1/journals/validate", reqBody, suite.generateTestToken(userID, "FINANCE"))

	suite.Equal(http.StatusOK, w.Code)
	var resp accounting.ValidationResult
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.False(resp.IsBalanced)
	suite.False(resp.CanSubmit)
	suite.True(resp.Difference.Equal(decimal.NewFromInt(200)))
	suite.mockJournalService.AssertExpectations(suite.T())
}

func (suite *JournalHandlerTestSuite) TestGetJournalByID_NotFoundReturns404() {
	userID := uuid.NewString()
	journalID := uuid.NewString()

	suite.mockJournalService.On("GetJournalByID", mock.Anything, journalID).
		Return(nil, apperrors.ErrNotFound).Once()

	w := suite.doJSON(http.MethodGet, "/api/v1/journals/"+journalID, nil, suite.generateTestToken(userID, "EMPLOYEE"))

	suite.Equal(http.StatusNotFound, w.Code)
	suite.mockJournalService.AssertExpectations(suite.T())
}

func TestJournalHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(JournalHandlerTestSuite))
}
