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

// --- Mock JournalRepository ---
type MockJournalRepository struct {
	mock.Mock
}

func (m *MockJournalRepository) FindJournalByID(ctx context.Context, journalID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, journalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalRepository) ListJournals(ctx context.Context, limit int, nextToken *string, includeReversals bool) ([]domain.JournalEntry, *string, error) {
	args := m.Called(ctx, limit, nextToken, includeReversals)
	var token *string
	if args.Get(1) != nil {
		token = args.Get(1).(*string)
	}
	if args.Get(0) == nil {
		return nil, token, args.Error(2)
	}
	return args.Get(0).([]domain.JournalEntry), token, args.Error(2)
}

func (m *MockJournalRepository) CountJournalsOnDate(ctx context.Context, date time.Time) (int, error) {
	args := m.Called(ctx, date)
	return args.Int(0), args.Error(1)
}

func (m *MockJournalRepository) SaveJournal(ctx context.Context, journal domain.JournalEntry, balanceChanges map[string]decimal.Decimal) error {
	return m.Called(ctx, journal, balanceChanges).Error(0)
}

func (m *MockJournalRepository) UpdateJournalStatusAndLinks(ctx context.Context, journalID string, status domain.JournalStatus, reversingJournalID *string, originalJournalID *string, updatedByUserID string, updatedAt time.Time) error {
	return m.Called(ctx, journalID, status, reversingJournalID, originalJournalID, updatedByUserID, updatedAt).Error(0)
}

func (m *MockJournalRepository) UpdateJournal(ctx context.Context, journal domain.JournalEntry) error {
	return m.Called(ctx, journal).Error(0)
}

func (m *MockJournalRepository) FindLinesByJournalID(ctx context.Context, journalID string) ([]domain.JournalLine, error) {
	args := m.Called(ctx, journalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.JournalLine), args.Error(1)
}

func (m *MockJournalRepository) FindLinesByJournalIDs(ctx context.Context, journalIDs []string) (map[string][]domain.JournalLine, error) {
	args := m.Called(ctx, journalIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string][]domain.JournalLine), args.Error(1)
}

func (m *MockJournalRepository) ListLinesByAccountID(ctx context.Context, accountID string, limit int, nextToken *string) ([]domain.JournalLine, *string, error) {
	args := m.Called(ctx, accountID, limit, nextToken)
	var token *string
	if args.Get(1) != nil {
		token = args.Get(1).(*string)
	}
	if args.Get(0) == nil {
		return nil, token, args.Error(2)
	}
	return args.Get(0).([]domain.JournalLine), token, args.Error(2)
}

func (m *MockJournalRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Tx), args.Error(1)
}

func (m *MockJournalRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	return m.Called(ctx, tx).Error(0)
}

func (m *MockJournalRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	return m.Called(ctx, tx).Error(0)
}

// --- Mock AccountRepository ---
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	return m.Called(ctx, account).Error(0)
}

func (m *MockAccountRepository) UpdateAccount(ctx context.Context, account domain.Account) error {
	return m.Called(ctx, account).Error(0)
}

func (m *MockAccountRepository) DeactivateAccount(ctx context.Context, accountID string, userID string, now time.Time) error {
	return m.Called(ctx, accountID, userID, now).Error(0)
}

func (m *MockAccountRepository) FindAccountsByIDsForUpdate(ctx context.Context, tx pgx.Tx, accountIDs []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, tx, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) UpdateAccountBalancesInTx(ctx context.Context, tx pgx.Tx, balanceChanges map[string]decimal.Decimal, userID string, now time.Time) error {
	return m.Called(ctx, tx, balanceChanges, userID, now).Error(0)
}

// --- Mock CurrencyRepository ---
type MockCurrencyRepository struct {
	mock.Mock
}

func (m *MockCurrencyRepository) FindCurrencyByCode(ctx context.Context, currencyCode string) (*domain.Currency, error) {
	args := m.Called(ctx, currencyCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Currency), args.Error(1)
}

func (m *MockCurrencyRepository) ListCurrencies(ctx context.Context) ([]domain.Currency, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Currency), args.Error(1)
}

func (m *MockCurrencyRepository) SaveCurrency(ctx context.Context, currency domain.Currency) error {
	return m.Called(ctx, currency).Error(0)
}

// --- Test Suite ---
type JournalServiceTestSuite struct {
	suite.Suite
	mockJournalRepo  *MockJournalRepository
	mockAccountRepo  *MockAccountRepository
	mockCurrencyRepo *MockCurrencyRepository
	service          portssvc.JournalSvcFacade
	cashAccountID    string
	expenseAccountID string
}

func (suite *JournalServiceTestSuite) SetupTest() {
	suite.mockJournalRepo = new(MockJournalRepository)
	suite.mockAccountRepo = new(MockAccountRepository)
	suite.mockCurrencyRepo = new(MockCurrencyRepository)
	suite.service = services.NewJournalService(suite.mockJournalRepo, suite.mockAccountRepo, suite.mockCurrencyRepo)
	suite.cashAccountID = uuid.NewString()
	suite.expenseAccountID = uuid.NewString()
}

func (suite *JournalServiceTestSuite) idrCurrency() *domain.Currency {
	return &domain.Currency{CurrencyCode: "IDR", Symbol: "Rp", Name: "Indonesian Rupiah", Precision: 2}
}

func (suite *JournalServiceTestSuite) accountsMap() map[string]domain.Account {
	return map[string]domain.Account{
		suite.cashAccountID: {
			AccountID: suite.cashAccountID, Code: "1101", Name: "Cash",
			AccountType: domain.Asset, CurrencyCode: "IDR", IsActive: true,
		},
		suite.expenseAccountID: {
			AccountID: suite.expenseAccountID, Code: "5101", Name: "Office Supplies",
			AccountType: domain.Expense, CurrencyCode: "IDR", IsActive: true,
		},
	}
}

func (suite *JournalServiceTestSuite) balancedLines(amount decimal.Decimal) []dto.JournalLineRequest {
	return []dto.JournalLineRequest{
		{AccountID: suite.expenseAccountID, Description: "Debit side", DebitAmount: amount},
		{AccountID: suite.cashAccountID, Description: "Credit side", CreditAmount: amount},
	}
}

// --- Test Cases ---

func (suite *JournalServiceTestSuite) TestCreateJournal_Success() {
	ctx := context.Background()
	amount := decimal.NewFromInt(150000)
	entryDate := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	req := dto.CreateJournalRequest{
		Date:         entryDate,
		Description:  "Office supplies",
		CurrencyCode: "IDR",
		Lines:        suite.balancedLines(amount),
	}

	suite.mockCurrencyRepo.On("FindCurrencyByCode", ctx, "IDR").Return(suite.idrCurrency(), nil).Once()
	suite.mockAccountRepo.On("FindAccountsByIDs", ctx, mock.Anything).Return(suite.accountsMap(), nil).Once()
	suite.mockJournalRepo.On("CountJournalsOnDate", ctx, entryDate).Return(3, nil).Once()
	suite.mockJournalRepo.On("SaveJournal", ctx, mock.MatchedBy(func(j domain.JournalEntry) bool {
		return j.Status == domain.Posted &&
			j.SourceType == domain.SourceManual &&
			j.EntryNumber == "JE-20240315-0004" &&
			j.Amount.Equal(amount) &&
			len(j.Lines) == 2
	}), mock.MatchedBy(func(changes map[string]decimal.Decimal) bool {
		// Credit to an asset decreases it, debit to an expense increases it.
		return changes[suite.cashAccountID].Equal(amount.Neg()) &&
			changes[suite.expenseAccountID].Equal(amount)
	})).Return(nil).Once()

	journal, err := suite.service.CreateJournal(ctx, req, uuid.NewString())

	suite.Require().NoError(err)
	suite.Require().NotNil(journal)
	suite.Equal("JE-20240315-0004", journal.EntryNumber)
	suite.mockJournalRepo.AssertExpectations(suite.T())
	suite.mockAccountRepo.AssertExpectations(suite.T())
}

func (suite *JournalServiceTestSuite) TestCreateJournal_Unbalanced() {
	ctx := context.Background()
	req := dto.CreateJournalRequest{
		Date:         time.Now().UTC(),
		Description:  "Broken entry",
		CurrencyCode: "IDR",
		Lines: []dto.JournalLineRequest{
			{AccountID: suite.expenseAccountID, Description: "Debit side", DebitAmount: decimal.NewFromInt(100)},
			{AccountID: suite.cashAccountID, Description: "Credit side", CreditAmount: decimal.NewFromFloat(99.90)},
		},
	}

	suite.mockCurrencyRepo.On("FindCurrencyByCode", ctx, "IDR").Return(suite.idrCurrency(), nil).Once()

	journal, err := suite.service.CreateJournal(ctx, req, uuid.NewString())

	suite.Require().Error(err)
	suite.Nil(journal)
	suite.ErrorIs(err, services.ErrJournalUnbalanced)
	suite.mockJournalRepo.AssertNotCalled(suite.T(), "SaveJournal")
}

func (suite *JournalServiceTestSuite) TestCreateJournal_WithinEpsilonBalances() {
	// A residual strictly below the currency's minor unit still posts.
	ctx := context.Background()
	entryDate := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	req := dto.CreateJournalRequest{
		Date:         entryDate,
		Description:  "Rounding residue",
		CurrencyCode: "IDR",
		Lines: []dto.JournalLineRequest{
			{AccountID: suite.expenseAccountID, Description: "Debit side", DebitAmount: decimal.NewFromFloat(100.004)},
			{AccountID: suite.cashAccountID, Description: "Credit side", CreditAmount: decimal.NewFromInt(100)},
		},
	}

	suite.mockCurrencyRepo.On("FindCurrencyByCode", ctx, "IDR").Return(suite.idrCurrency(), nil).Once()
	suite.mockAccountRepo.On("FindAccountsByIDs", ctx, mock.Anything).Return(suite.accountsMap(), nil).Once()
	suite.mockJournalRepo.On("CountJournalsOnDate", ctx, entryDate).Return(0, nil).Once()
	suite.mockJournalRepo.On("SaveJournal", ctx, mock.Anything, mock.Anything).Return(nil).Once()

	journal, err := suite.service.CreateJournal(ctx, req, uuid.NewString())

	suite.Require().NoError(err)
	suite.Require().NotNil(journal)
}

func (suite *JournalServiceTestSuite) TestCreateJournal_BothSidesOnOneLine() {
	ctx := context.Background()
	req := dto.CreateJournalRequest{
		Date:         time.Now().UTC(),
		Description:  "Malformed line",
		CurrencyCode: "IDR",
		Lines: []dto.JournalLineRequest{
			{AccountID: suite.expenseAccountID, Description: "Both sides", DebitAmount: decimal.NewFromInt(100), CreditAmount: decimal.NewFromInt(100)},
			{AccountID: suite.cashAccountID, Description: "Credit side", CreditAmount: decimal.NewFromInt(100)},
		},
	}

	suite.mockCurrencyRepo.On("FindCurrencyByCode", ctx, "IDR").Return(suite.idrCurrency(), nil).Once()

	journal, err := suite.service.CreateJournal(ctx, req, uuid.NewString())

	suite.Require().Error(err)
	suite.Nil(journal)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *JournalServiceTestSuite) TestCreateJournal_SingleAccount() {
	ctx := context.Background()
	req := dto.CreateJournalRequest{
		Date:         time.Now().UTC(),
		Description:  "Self transfer",
		CurrencyCode: "IDR",
		Lines: []dto.JournalLineRequest{
			{AccountID: suite.cashAccountID, Description: "Debit side", DebitAmount: decimal.NewFromInt(100)},
			{AccountID: suite.cashAccountID, Description: "Credit side", CreditAmount: decimal.NewFromInt(100)},
		},
	}

	journal, err := suite.service.CreateJournal(ctx, req, uuid.NewString())

	suite.Require().Error(err)
	suite.Nil(journal)
	suite.ErrorIs(err, services.ErrJournalMinAccounts)
}

func (suite *JournalServiceTestSuite) TestCreateJournal_CurrencyMismatch() {
	ctx := context.Background()
	accounts := suite.accountsMap()
	usdAccount := accounts[suite.cashAccountID]
	usdAccount.CurrencyCode = "USD"
	accounts[suite.cashAccountID] = usdAccount

	req := dto.CreateJournalRequest{
		Date:         time.Now().UTC(),
		Description:  "Cross currency",
		CurrencyCode: "IDR",
		Lines:        suite.balancedLines(decimal.NewFromInt(100)),
	}

	suite.mockCurrencyRepo.On("FindCurrencyByCode", ctx, "IDR").Return(suite.idrCurrency(), nil).Once()
	suite.mockAccountRepo.On("FindAccountsByIDs", ctx, mock.Anything).Return(accounts, nil).Once()

	journal, err := suite.service.CreateJournal(ctx, req, uuid.NewString())

	suite.Require().Error(err)
	suite.Nil(journal)
	suite.ErrorIs(err, services.ErrCurrencyMismatch)
}

func (suite *JournalServiceTestSuite) TestCreateJournal_UnknownCurrency() {
	ctx := context.Background()
	req := dto.CreateJournalRequest{
		Date:         time.Now().UTC(),
		Description:  "Unknown currency",
		CurrencyCode: "XXX",
		Lines:        suite.balancedLines(decimal.NewFromInt(100)),
	}

	suite.mockCurrencyRepo.On("FindCurrencyByCode", ctx, "XXX").Return(nil, apperrors.ErrNotFound).Once()

	journal, err := suite.service.CreateJournal(ctx, req, uuid.NewString())

	suite.Require().Error(err)
	suite.Nil(journal)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *JournalServiceTestSuite) TestValidateJournal_UnbalancedIsAnAnswerNotAnError() {
	ctx := context.Background()
	req := dto.ValidateJournalRequest{
		CurrencyCode: "IDR",
		Lines: []dto.JournalLineRequest{
			{AccountID: suite.expenseAccountID, Description: "Debit side", DebitAmount: decimal.NewFromInt(500)},
			{AccountID: suite.cashAccountID, Description: "Credit side", CreditAmount: decimal.NewFromInt(300)},
		},
	}

	suite.mockCurrencyRepo.On("FindCurrencyByCode", ctx, "IDR").Return(suite.idrCurrency(), nil).Once()

	result, err := suite.service.ValidateJournal(ctx, req)

	suite.Require().NoError(err)
	suite.Require().NotNil(result)
	suite.False(result.IsBalanced)
	suite.False(result.CanSubmit)
	suite.True(result.Difference.Equal(decimal.NewFromInt(200)))
}

func (suite *JournalServiceTestSuite) TestValidateJournal_TargetAmountMismatchIsAdvisory() {
	ctx := context.Background()
	target := decimal.NewFromInt(999)
	req := dto.ValidateJournalRequest{
		CurrencyCode: "IDR",
		TargetAmount: &target,
		Lines:        suite.balancedLines(decimal.NewFromInt(500)),
	}

	suite.mockCurrencyRepo.On("FindCurrencyByCode", ctx, "IDR").Return(suite.idrCurrency(), nil).Once()

	result, err := suite.service.ValidateJournal(ctx, req)

	suite.Require().NoError(err)
	suite.Require().NotNil(result)
	suite.True(result.IsBalanced)
	suite.True(result.AmountMismatch)
	// The mismatch warns but does not block submission.
	suite.True(result.CanSubmit)
}

func (suite *JournalServiceTestSuite) TestReverseJournal_SwapsSidesAndLinks() {
	ctx := context.Background()
	userID := uuid.NewString()
	journalID := uuid.NewString()
	amount := decimal.NewFromInt(250000)
	entryDate := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	original := &domain.JournalEntry{
		JournalID:    journalID,
		EntryNumber:  "JE-20240315-0001",
		EntryDate:    entryDate,
		Description:  "Rent payment",
		CurrencyCode: "IDR",
		Status:       domain.Posted,
		SourceType:   domain.SourceManual,
		Amount:       amount,
	}
	originalLines := []domain.JournalLine{
		{LineID: uuid.NewString(), JournalID: journalID, AccountID: suite.expenseAccountID, DebitAmount: amount},
		{LineID: uuid.NewString(), JournalID: journalID, AccountID: suite.cashAccountID, CreditAmount: amount},
	}

	suite.mockJournalRepo.On("FindJournalByID", ctx, journalID).Return(original, nil).Once()
	suite.mockJournalRepo.On("FindLinesByJournalID", ctx, journalID).Return(originalLines, nil).Once()
	suite.mockAccountRepo.On("FindAccountsByIDs", ctx, mock.Anything).Return(suite.accountsMap(), nil).Once()
	suite.mockJournalRepo.On("CountJournalsOnDate", ctx, entryDate).Return(1, nil).Once()
	suite.mockJournalRepo.On("SaveJournal", ctx, mock.MatchedBy(func(j domain.JournalEntry) bool {
		if j.OriginalJournalID == nil || *j.OriginalJournalID != journalID {
			return false
		}
		// Debit and credit sides must be swapped line for line.
		return j.Lines[0].CreditAmount.Equal(amount) && j.Lines[0].DebitAmount.IsZero() &&
			j.Lines[1].DebitAmount.Equal(amount) && j.Lines[1].CreditAmount.IsZero()
	}), mock.Anything).Return(nil).Once()
	suite.mockJournalRepo.On("UpdateJournalStatusAndLinks", ctx, journalID, domain.Reversed, mock.Anything, mock.Anything, userID, mock.Anything).Return(nil).Once()

	reversing, err := suite.service.ReverseJournal(ctx, journalID, userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(reversing)
	suite.Equal("JE-20240315-0002", reversing.EntryNumber)
	suite.Contains(reversing.Description, "Reversal of JE-20240315-0001")
	suite.mockJournalRepo.AssertExpectations(suite.T())
}

func (suite *JournalServiceTestSuite) TestReverseJournal_RejectsReversingAReversal() {
	ctx := context.Background()
	journalID := uuid.NewString()
	originalID := uuid.NewString()
	reversal := &domain.JournalEntry{
		JournalID:         journalID,
		Status:            domain.Posted,
		OriginalJournalID: &originalID,
	}

	suite.mockJournalRepo.On("FindJournalByID", ctx, journalID).Return(reversal, nil).Once()

	result, err := suite.service.ReverseJournal(ctx, journalID, uuid.NewString())

	suite.Require().Error(err)
	suite.Nil(result)
	suite.ErrorIs(err, apperrors.ErrConflict)
}

func (suite *JournalServiceTestSuite) TestUpdateJournal_RequiresPostedStatus() {
	ctx := context.Background()
	journalID := uuid.NewString()
	journal := &domain.JournalEntry{JournalID: journalID, Status: domain.Reversed}
	newDescription := "amended"

	suite.mockJournalRepo.On("FindJournalByID", ctx, journalID).Return(journal, nil).Once()

	result, err := suite.service.UpdateJournal(ctx, journalID, dto.UpdateJournalRequest{Description: &newDescription}, uuid.NewString())

	suite.Require().Error(err)
	suite.Nil(result)
	suite.ErrorIs(err, services.ErrNotPosted)
	suite.mockJournalRepo.AssertNotCalled(suite.T(), "UpdateJournal")
}

func TestJournalServiceTestSuite(t *testing.T) {
	suite.Run(t, new(JournalServiceTestSuite))
}
