package holdings

import (
	"time"

	"github.com/shopspring/decimal"
)

// lot is a single acquisition still (partially) held
type lot struct {
	Date     time.Time
	Quantity decimal.Decimal
	Cost     decimal.Decimal // total cost of the lot
}

type lots []lot

// fifoCostOfSelling returns the cost of the first quantityToSell units, oldest lot first.
// Selling more than held returns the cost of everything held.
func (l lots) fifoCostOfSelling(quantityToSell decimal.Decimal) decimal.Decimal {
	costOfSold := decimal.Zero

	for _, current := range l {
		if quantityToSell.LessThanOrEqual(decimal.Zero) {
			break
		}
		if current.Quantity.GreaterThan(quantityToSell) {
			// Partial sale from this lot
			return costOfSold.Add(current.Cost.Mul(quantityToSell).Div(current.Quantity))
		}
		costOfSold = costOfSold.Add(current.Cost)
		quantityToSell = quantityToSell.Sub(current.Quantity)
	}
	return costOfSold
}

// sell removes quantityToSell units oldest lot first and returns the remaining lots
func (l lots) sell(quantityToSell decimal.Decimal) lots {
	var remaining lots

	for _, current := range l {
		if quantityToSell.LessThanOrEqual(decimal.Zero) {
			remaining = append(remaining, current)
			continue
		}

		if current.Quantity.GreaterThan(quantityToSell) {
			soldCost := current.Cost.Mul(quantityToSell).Div(current.Quantity)
			remaining = append(remaining, lot{
				Date:     current.Date,
				Quantity: current.Quantity.Sub(quantityToSell),
				Cost:     current.Cost.Sub(soldCost),
			})
			quantityToSell = decimal.Zero
		} else {
			quantityToSell = quantityToSell.Sub(current.Quantity)
		}
	}
	return remaining
}

// split multiplies every lot's quantity by factor, keeping its cost
func (l lots) split(factor decimal.Decimal) lots {
	scaled := make(lots, len(l))
	for i, current := range l {
		scaled[i] = lot{
			Date:     current.Date,
			Quantity: current.Quantity.Mul(factor),
			Cost:     current.Cost,
		}
	}
	return scaled
}
