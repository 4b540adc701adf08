package holdings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wyatt-harles-1/networth-tracker-sub002/internal/domain"
)

var (
	brokerage = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	bank      = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	accounts  = domain.Accounts{
		brokerage: {ID: brokerage, Name: "Brokerage", AssetClass: "stocks"},
		bank:      {ID: bank, Name: "Checking", AssetClass: "cash"},
	}
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func qty(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	return &d
}

func trade(d int, txType domain.TransactionType, symbol string, quantity float64, amount int64) *domain.Transaction {
	return &domain.Transaction{
		ID:        uuid.New(),
		AccountID: brokerage,
		Date:      day(d),
		Type:      txType,
		Amount:    decimal.NewFromInt(amount),
		Metadata:  domain.TransactionMetadata{Ticker: symbol, Quantity: qty(quantity)},
	}
}

func cash(d int, txType domain.TransactionType, amount int64) *domain.Transaction {
	return &domain.Transaction{
		ID:        uuid.New(),
		AccountID: bank,
		Date:      day(d),
		Type:      txType,
		Amount:    decimal.NewFromInt(amount),
	}
}

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	assert.Truef(t, decimal.RequireFromString(expected).Equal(actual), "expected %s, got %s", expected, actual)
}

func securityOf(t *testing.T, positions []domain.Position, symbol string) domain.SecurityPosition {
	t.Helper()
	for _, p := range positions {
		if sec, ok := p.(domain.SecurityPosition); ok && sec.Symbol == symbol {
			return sec
		}
	}
	t.Fatalf("no position for %s", symbol)
	return domain.SecurityPosition{}
}

func cashOf(positions []domain.Position, account uuid.UUID) (domain.CashPosition, bool) {
	for _, p := range positions {
		if c, ok := p.(domain.CashPosition); ok && c.AccountID == account {
			return c, true
		}
	}
	return domain.CashPosition{}, false
}

func TestReconstruct_PartialSellKeepsAverageCost(t *testing.T) {
	txs := []*domain.Transaction{
		trade(1, domain.TransactionTypeStockBuy, "AAPL", 10, 1000),
		trade(10, domain.TransactionTypeStockSell, "AAPL", 4, 480),
	}

	positions := Reconstruct(txs, accounts, day(10), domain.AverageCost, zerolog.Nop())

	require.Len(t, positions, 1)
	aapl := securityOf(t, positions, "AAPL")
	assertDecimal(t, "6", aapl.Quantity)
	assertDecimal(t, "600", aapl.CostBasis)
	assertDecimal(t, "100", aapl.AverageCost())
}

func TestReconstruct_DepositThenFee(t *testing.T) {
	txs := []*domain.Transaction{
		cash(1, domain.TransactionTypeDeposit, 500),
		cash(5, domain.TransactionTypeFee, -20),
	}

	positions := Reconstruct(txs, accounts, day(5), domain.AverageCost, zerolog.Nop())

	balance, ok := cashOf(positions, bank)
	require.True(t, ok)
	assertDecimal(t, "480", balance.Amount)
}

func TestReconstruct_CashIncomeAndOutflow(t *testing.T) {
	txs := []*domain.Transaction{
		cash(1, domain.TransactionTypeDeposit, 1000),
		cash(2, domain.TransactionTypeInterest, 5),
		cash(3, domain.TransactionTypeDividend, 15),
		cash(4, domain.TransactionTypeBondCoupon, 30),
		cash(5, domain.TransactionTypeWithdrawal, 200),
		cash(6, domain.TransactionTypeTransferIn, 100),
		cash(7, domain.TransactionTypeTransferOut, 50),
	}

	positions := Reconstruct(txs, accounts, day(31), domain.AverageCost, zerolog.Nop())

	balance, ok := cashOf(positions, bank)
	require.True(t, ok)
	assertDecimal(t, "900", balance.Amount)
}

func TestReconstruct_CutoffIsInclusive(t *testing.T) {
	txs := []*domain.Transaction{
		trade(1, domain.TransactionTypeStockBuy, "MSFT", 5, 1500),
		trade(3, domain.TransactionTypeStockBuy, "MSFT", 5, 1600),
		trade(4, domain.TransactionTypeStockBuy, "MSFT", 5, 1700),
	}

	positions := Reconstruct(txs, accounts, day(3), domain.AverageCost, zerolog.Nop())

	msft := securityOf(t, positions, "MSFT")
	assertDecimal(t, "10", msft.Quantity)
	assertDecimal(t, "3100", msft.CostBasis)
}

func TestReconstruct_EpsilonFloor(t *testing.T) {
	tests := []struct {
		name string
		txs  []*domain.Transaction
	}{
		{
			name: "Dust left after sell collapses to zero",
			txs: []*domain.Transaction{
				trade(1, domain.TransactionTypeCryptoBuy, "BTC", 1, 40000),
				trade(2, domain.TransactionTypeCryptoSell, "BTC", 0.99995, 42000),
			},
		},
		{
			name: "Over-sell never leaves a negative holding",
			txs: []*domain.Transaction{
				trade(1, domain.TransactionTypeStockBuy, "TSLA", 3, 600),
				trade(2, domain.TransactionTypeStockSell, "TSLA", 5, 1000),
			},
		},
		{
			name: "Transfer out of everything closes the holding",
			txs: []*domain.Transaction{
				trade(1, domain.TransactionTypeStockBuy, "VTI", 2, 400),
				trade(2, domain.TransactionTypeTransferOut, "VTI", 2, 0),
			},
		},
	}

	for _, tt := range tests {
		for _, method := range []domain.CostBasisMethod{domain.AverageCost, domain.FIFO} {
			t.Run(tt.name+"/"+method.String(), func(t *testing.T) {
				book := NewBook(accounts, method, zerolog.Nop())
				NewReplay(book, tt.txs).AdvanceTo(day(31))

				assert.Empty(t, book.Positions())
				for _, sec := range book.securities {
					assert.True(t, sec.quantity.IsZero(), "quantity %s", sec.quantity)
					assert.True(t, sec.costBasis.IsZero(), "cost basis %s", sec.costBasis)
					assert.False(t, sec.quantity.IsNegative())
				}
			})
		}
	}
}

func TestBook_OverSellIsAnAnomalyNotAnError(t *testing.T) {
	book := NewBook(accounts, domain.AverageCost, zerolog.Nop())

	require.NoError(t, book.Apply(trade(1, domain.TransactionTypeStockBuy, "TSLA", 3, 600)))
	require.NoError(t, book.Apply(trade(2, domain.TransactionTypeStockSell, "TSLA", 5, 1000)))

	assert.Equal(t, 1, book.Anomalies())
	assert.Equal(t, 0, book.Skipped())
	// The whole remaining cost basis is removed, never more
	assertDecimal(t, "400", book.RealizedGain())
}

func TestBook_CostBasisMethods(t *testing.T) {
	txs := []*domain.Transaction{
		trade(1, domain.TransactionTypeStockBuy, "AAPL", 10, 1000),
		trade(2, domain.TransactionTypeStockBuy, "AAPL", 10, 2000),
		trade(3, domain.TransactionTypeStockSell, "AAPL", 15, 3000),
	}

	tests := []struct {
		method       domain.CostBasisMethod
		costBasis    string
		realizedGain string
	}{
		{domain.AverageCost, "750", "750"},
		{domain.FIFO, "1000", "1000"},
	}

	for _, tt := range tests {
		t.Run(tt.method.String(), func(t *testing.T) {
			book := NewBook(accounts, tt.method, zerolog.Nop())
			NewReplay(book, txs).AdvanceTo(day(3))

			aapl := securityOf(t, book.Positions(), "AAPL")
			assertDecimal(t, "5", aapl.Quantity)
			assertDecimal(t, tt.costBasis, aapl.CostBasis)
			assertDecimal(t, tt.realizedGain, book.RealizedGain())
		})
	}
}

func TestBook_TransfersDoNotRealizeGain(t *testing.T) {
	book := NewBook(accounts, domain.AverageCost, zerolog.Nop())
	NewReplay(book, []*domain.Transaction{
		trade(1, domain.TransactionTypeTransferIn, "VTI", 10, 2000),
		trade(2, domain.TransactionTypeTransferOut, "VTI", 4, 0),
	}).AdvanceTo(day(2))

	vti := securityOf(t, book.Positions(), "VTI")
	assertDecimal(t, "6", vti.Quantity)
	assertDecimal(t, "1200", vti.CostBasis)
	assert.True(t, book.RealizedGain().IsZero())
}

func ratioSplit(d int, symbol, ratio string) *domain.Transaction {
	r := decimal.RequireFromString(ratio)
	return &domain.Transaction{
		ID:        uuid.New(),
		AccountID: brokerage,
		Date:      day(d),
		Type:      domain.TransactionTypeStockSplit,
		Metadata:  domain.TransactionMetadata{Ticker: symbol, SplitRatio: &r},
	}
}

func TestBook_StockSplit(t *testing.T) {
	tests := []struct {
		name    string
		bought  float64
		split   *domain.Transaction
		sold    float64
		wantQty string
	}{
		{"Quantity delta from metadata", 10, trade(5, domain.TransactionTypeStockSplit, "NVDA", 30, 0), 20, "20"},
		{"Delta derived from split ratio", 10, ratioSplit(5, "NVDA", "4"), 20, "20"},
		{"Reverse split with negative delta", 100, trade(5, domain.TransactionTypeStockSplit, "NVDA", -90, 0), 5, "5"},
		{"Reverse split from ratio", 100, ratioSplit(5, "NVDA", "0.1"), 5, "5"},
	}

	for _, tt := range tests {
		for _, method := range []domain.CostBasisMethod{domain.AverageCost, domain.FIFO} {
			t.Run(tt.name+"/"+method.String(), func(t *testing.T) {
				book := NewBook(accounts, method, zerolog.Nop())
				NewReplay(book, []*domain.Transaction{
					trade(1, domain.TransactionTypeStockBuy, "NVDA", tt.bought, 4000),
					tt.split,
					trade(6, domain.TransactionTypeStockSell, "NVDA", tt.sold, 2200),
				}).AdvanceTo(day(6))

				nvda := securityOf(t, book.Positions(), "NVDA")
				assertDecimal(t, tt.wantQty, nvda.Quantity)
				// Split keeps cost basis, the sell then removes half of it
				assertDecimal(t, "2000", nvda.CostBasis)
				assertDecimal(t, "200", book.RealizedGain())
				assert.Equal(t, 0, book.Skipped())
			})
		}
	}
}

func TestBook_ReverseSplitLeavingNothingIsSkipped(t *testing.T) {
	book := NewBook(accounts, domain.FIFO, zerolog.Nop())
	require.NoError(t, book.Apply(trade(1, domain.TransactionTypeStockBuy, "XYZ", 100, 1000)))

	err := book.Apply(trade(2, domain.TransactionTypeStockSplit, "XYZ", -100, 0))

	assert.ErrorIs(t, err, ErrSkipped)
	xyz := securityOf(t, book.Positions(), "XYZ")
	assertDecimal(t, "100", xyz.Quantity)
	assertDecimal(t, "1000", xyz.CostBasis)
}

func TestReconstruct_OverdraftIsNotAPosition(t *testing.T) {
	book := NewBook(accounts, domain.AverageCost, zerolog.Nop())
	replay := NewReplay(book, []*domain.Transaction{
		cash(1, domain.TransactionTypeDeposit, 100),
		cash(2, domain.TransactionTypeWithdrawal, 200),
		cash(4, domain.TransactionTypeDeposit, 150),
	})

	replay.AdvanceTo(day(3))

	_, ok := cashOf(book.Positions(), bank)
	assert.False(t, ok, "negative cash must not appear in the snapshot")
	assert.Equal(t, 1, book.Anomalies())

	positions := Reconstruct([]*domain.Transaction{
		cash(1, domain.TransactionTypeDeposit, 100),
		cash(2, domain.TransactionTypeWithdrawal, 200),
	}, accounts, day(3), domain.AverageCost, zerolog.Nop())
	assert.Empty(t, positions)

	// The overdraft still nets against later inflows
	replay.AdvanceTo(day(4))
	balance, ok := cashOf(book.Positions(), bank)
	require.True(t, ok)
	assertDecimal(t, "50", balance.Amount)
}

func TestBook_SkipsUnreplayableRecords(t *testing.T) {
	book := NewBook(accounts, domain.AverageCost, zerolog.Nop())

	unknownAccount := trade(1, domain.TransactionTypeStockBuy, "AAPL", 1, 100)
	unknownAccount.AccountID = uuid.New()

	noTicker := trade(1, domain.TransactionTypeStockBuy, "", 1, 100)

	noQuantity := trade(1, domain.TransactionTypeStockSell, "AAPL", 1, 100)
	noQuantity.Metadata.Quantity = nil

	splitWithoutHolding := trade(1, domain.TransactionTypeStockSplit, "GOOG", 10, 0)

	for _, tx := range []*domain.Transaction{unknownAccount, noTicker, noQuantity, splitWithoutHolding} {
		err := book.Apply(tx)
		assert.ErrorIs(t, err, ErrSkipped)
	}

	require.NoError(t, book.Apply(cash(2, domain.TransactionTypeDeposit, 100)))

	assert.Equal(t, 4, book.Skipped())
	assert.Equal(t, 1, book.Applied())
	require.Len(t, book.Positions(), 1)
}

func TestReplay_SameDayRecordsKeepStorageOrder(t *testing.T) {
	// Sell stored before the buy on the same day: the sell finds nothing to sell
	sell := trade(1, domain.TransactionTypeStockSell, "AAPL", 10, 1200)
	buy := trade(1, domain.TransactionTypeStockBuy, "AAPL", 10, 1000)
	later := trade(3, domain.TransactionTypeStockBuy, "AAPL", 1, 100)

	book := NewBook(accounts, domain.AverageCost, zerolog.Nop())
	NewReplay(book, []*domain.Transaction{later, sell, buy}).AdvanceTo(day(1))

	aapl := securityOf(t, book.Positions(), "AAPL")
	assertDecimal(t, "10", aapl.Quantity)
	assertDecimal(t, "1000", aapl.CostBasis)
	assert.Equal(t, 1, book.Anomalies())
}

func TestReplay_IncrementalMatchesFromScratch(t *testing.T) {
	txs := []*domain.Transaction{
		cash(1, domain.TransactionTypeDeposit, 10000),
		trade(2, domain.TransactionTypeStockBuy, "AAPL", 10, 1500),
		trade(4, domain.TransactionTypeETFBuy, "VTI", 5, 1000),
		trade(6, domain.TransactionTypeStockSell, "AAPL", 3, 500),
		cash(7, domain.TransactionTypeFee, 10),
		trade(9, domain.TransactionTypeStockSell, "VTI", 5, 1100),
	}

	book := NewBook(accounts, domain.AverageCost, zerolog.Nop())
	replay := NewReplay(book, txs)

	consumed := 0
	for d := 1; d <= 10; d++ {
		consumed += replay.AdvanceTo(day(d))
		fromScratch := Reconstruct(txs, accounts, day(d), domain.AverageCost, zerolog.Nop())
		assert.Equal(t, fromScratch, book.Positions(), "day %d", d)
	}

	assert.Equal(t, len(txs), consumed)
}

func TestBook_RealizedGainAsOf(t *testing.T) {
	book := NewBook(accounts, domain.AverageCost, zerolog.Nop())
	NewReplay(book, []*domain.Transaction{
		trade(1, domain.TransactionTypeStockBuy, "AAPL", 10, 1000),
		trade(5, domain.TransactionTypeStockSell, "AAPL", 2, 300),
		trade(5, domain.TransactionTypeStockSell, "AAPL", 2, 250),
		trade(8, domain.TransactionTypeStockSell, "AAPL", 1, 90),
	}).AdvanceTo(day(31))

	assertDecimal(t, "0", book.RealizedGainAsOf(day(4)))
	assertDecimal(t, "150", book.RealizedGainAsOf(day(5)))
	assertDecimal(t, "150", book.RealizedGainAsOf(day(7)))
	assertDecimal(t, "140", book.RealizedGainAsOf(day(8)))
	assertDecimal(t, "140", book.RealizedGain())
}

// MockAccountRepository is a mock implementation of AccountRepository for testing
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Account, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Account), args.Error(1)
}

// MockTransactionRepository is a mock implementation of TransactionRepository for testing
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) ListByUser(ctx context.Context, userID uuid.UUID, cutoff time.Time) ([]*domain.Transaction, error) {
	args := m.Called(ctx, userID, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) ListUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func TestLedgerRealizedGains(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	mockAccountRepo := new(MockAccountRepository)
	mockTransactionRepo := new(MockTransactionRepository)

	source := NewLedgerRealizedGains(mockAccountRepo, mockTransactionRepo, zerolog.Nop())

	mockAccountRepo.On("ListByUser", ctx, userID).Return([]*domain.Account{
		{ID: brokerage, UserID: userID, Name: "Brokerage", AssetClass: "stocks"},
	}, nil)
	mockTransactionRepo.On("ListByUser", ctx, userID, day(10)).Return([]*domain.Transaction{
		trade(1, domain.TransactionTypeStockBuy, "AAPL", 10, 1000),
		trade(2, domain.TransactionTypeStockBuy, "AAPL", 10, 2000),
		trade(10, domain.TransactionTypeStockSell, "AAPL", 10, 1500),
	}, nil)

	gain, err := source.RealizedGainAsOf(ctx, userID, day(10))

	assert.NoError(t, err)
	// Oldest lot first: 1500 - 1000. Average cost would give 1500 - 1500.
	assertDecimal(t, "500", gain)
	mockAccountRepo.AssertExpectations(t)
	mockTransactionRepo.AssertExpectations(t)
}

func TestLedgerRealizedGains_AccountError(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	mockAccountRepo := new(MockAccountRepository)
	mockTransactionRepo := new(MockTransactionRepository)

	source := NewLedgerRealizedGains(mockAccountRepo, mockTransactionRepo, zerolog.Nop())
	mockAccountRepo.On("ListByUser", ctx, userID).Return(nil, errors.New("connection refused"))

	_, err := source.RealizedGainAsOf(ctx, userID, day(10))

	assert.ErrorContains(t, err, "connection refused")
	mockTransactionRepo.AssertNotCalled(t, "ListByUser")
}
