// Package valuation prices reconstructed holdings into daily portfolio value records.
package valuation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"github.com/wyatt-harles-1/networth-tracker-sub002/internal/domain"
)

// Valuate prices a holdings snapshot on day.
//
// Cash positions count at face value and never hit the price source.
// Security positions are priced through prices; a holding with no price at all
// is kept at zero value and lowers the day's data quality.
// realizedGain comes from outside: the replay does not own realized gain accounting.
func Valuate(
	ctx context.Context,
	userID uuid.UUID,
	day time.Time,
	positions []domain.Position,
	accounts domain.Accounts,
	prices PriceSource,
	realizedGain decimal.Decimal,
) (*domain.DailyValue, error) {
	value := domain.NewDailyValue(userID, day)
	value.RealizedGain = realizedGain

	var qualities []float64

	for _, position := range positions {
		switch p := position.(type) {
		case domain.CashPosition:
			value.CashValue = value.CashValue.Add(p.Amount)
			addTo(value.AssetClassBreakdown, domain.AssetClassCash, p.Amount)
			addToAccount(value.AccountBreakdown, p.AccountID, p.Amount)

		case domain.SecurityPosition:
			if domain.IsDust(p.Quantity) {
				continue
			}

			price, err := prices.PriceAt(ctx, p.Symbol, value.Date)
			if err != nil {
				return nil, fmt.Errorf("failed to price %s: %w", p.Symbol, err)
			}
			value.PriceStats.Record(price.Tier)
			qualities = append(qualities, price.Quality)

			marketValue := p.Quantity.Mul(price.Value)
			value.InvestedValue = value.InvestedValue.Add(marketValue)
			value.TotalCostBasis = value.TotalCostBasis.Add(p.CostBasis)

			line := value.TickerBreakdown[p.Symbol]
			line.Value = line.Value.Add(marketValue)
			line.Quantity = line.Quantity.Add(p.Quantity)
			line.Price = price.Value
			value.TickerBreakdown[p.Symbol] = line

			addTo(value.AssetClassBreakdown, accounts.AssetClassOf(p.AccountID), marketValue)
			addToAccount(value.AccountBreakdown, p.AccountID, marketValue)

		default:
			return nil, fmt.Errorf("unsupported position type %T", position)
		}
	}

	value.TotalValue = value.CashValue.Add(value.InvestedValue)
	value.UnrealizedGain = value.InvestedValue.Sub(value.TotalCostBasis)

	// Pure cash days are not penalized
	if len(qualities) > 0 {
		value.DataQuality = stat.Mean(qualities, nil)
	}

	return value, nil
}

func addTo(m map[string]decimal.Decimal, key string, v decimal.Decimal) {
	m[key] = m[key].Add(v)
}

func addToAccount(m map[uuid.UUID]decimal.Decimal, key uuid.UUID, v decimal.Decimal) {
	m[key] = m[key].Add(v)
}
