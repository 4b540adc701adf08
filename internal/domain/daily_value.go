package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TickerValue is one symbol's line in the ticker breakdown
type TickerValue struct {
	Value    decimal.Decimal `json:"value"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// DailyValue is the valuation of a user's portfolio on one calendar day.
// It replaces any previous record for the same (UserID, Date).
type DailyValue struct {
	UserID              uuid.UUID
	Date                time.Time
	TotalValue          decimal.Decimal
	TotalCostBasis      decimal.Decimal // securities only, cash has no cost basis gain
	CashValue           decimal.Decimal
	InvestedValue       decimal.Decimal
	UnrealizedGain      decimal.Decimal
	RealizedGain        decimal.Decimal
	AssetClassBreakdown map[string]decimal.Decimal
	TickerBreakdown     map[string]TickerValue
	AccountBreakdown    map[uuid.UUID]decimal.Decimal
	DataQuality         float64
	PriceStats          PriceStats
	CalculatedAt        time.Time
}

// NewDailyValue returns an empty record with initialized breakdowns
func NewDailyValue(userID uuid.UUID, day time.Time) *DailyValue {
	return &DailyValue{
		UserID:              userID,
		Date:                Day(day),
		AssetClassBreakdown: make(map[string]decimal.Decimal),
		TickerBreakdown:     make(map[string]TickerValue),
		AccountBreakdown:    make(map[uuid.UUID]decimal.Decimal),
		DataQuality:         1,
	}
}

// CheckInvariants verifies the scalar totals against each other and against the breakdowns:
//   - total = cash + invested
//   - unrealized = invested - cost basis
//   - asset class and account breakdowns sum to total
//   - ticker breakdown sums to invested
func (v *DailyValue) CheckInvariants(tolerance decimal.Decimal) error {
	near := func(a, b decimal.Decimal) bool {
		return a.Sub(b).Abs().LessThanOrEqual(tolerance)
	}

	if !near(v.TotalValue, v.CashValue.Add(v.InvestedValue)) {
		return fmt.Errorf("total value %s != cash %s + invested %s", v.TotalValue, v.CashValue, v.InvestedValue)
	}
	if !near(v.UnrealizedGain, v.InvestedValue.Sub(v.TotalCostBasis)) {
		return fmt.Errorf("unrealized gain %s != invested %s - cost basis %s", v.UnrealizedGain, v.InvestedValue, v.TotalCostBasis)
	}

	classSum := decimal.Zero
	for _, value := range v.AssetClassBreakdown {
		classSum = classSum.Add(value)
	}
	if !near(classSum, v.TotalValue) {
		return fmt.Errorf("asset class breakdown sums to %s, total value is %s", classSum, v.TotalValue)
	}

	accountSum := decimal.Zero
	for _, value := range v.AccountBreakdown {
		accountSum = accountSum.Add(value)
	}
	if !near(accountSum, v.TotalValue) {
		return fmt.Errorf("account breakdown sums to %s, total value is %s", accountSum, v.TotalValue)
	}

	tickerSum := decimal.Zero
	for _, line := range v.TickerBreakdown {
		tickerSum = tickerSum.Add(line.Value)
	}
	if !near(tickerSum, v.InvestedValue) {
		return fmt.Errorf("ticker breakdown sums to %s, invested value is %s", tickerSum, v.InvestedValue)
	}

	if v.DataQuality < 0 || v.DataQuality > 1 {
		return fmt.Errorf("data quality %f outside [0,1]", v.DataQuality)
	}

	return nil
}
