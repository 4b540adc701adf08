// Package chart renders stored daily values as PNG line charts.
package chart

import (
	"bytes"
	"fmt"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/wyatt-harles-1/networth-tracker-sub002/internal/domain"
)

// DefaultCurrency is used when no currency code is given
const DefaultCurrency = money.USD

// RenderValueChart renders a PNG line chart of total value against cost basis plus cash.
// values must be ordered by date.
func RenderValueChart(values []*domain.DailyValue, currency string) ([]byte, error) {
	if len(values) < 2 {
		return nil, fmt.Errorf("need at least 2 daily values, got %d", len(values))
	}
	if currency == "" {
		currency = DefaultCurrency
	}
	if money.GetCurrency(currency) == nil {
		return nil, fmt.Errorf("unknown currency %q", currency)
	}

	xValues := make([]time.Time, len(values))
	valueY := make([]float64, len(values))
	costY := make([]float64, len(values))

	for i, v := range values {
		xValues[i] = v.Date
		valueY[i] = v.TotalValue.InexactFloat64()
		// Cash is included so both lines start from the same base
		costY[i] = v.TotalCostBasis.Add(v.CashValue).InexactFloat64()
	}

	valueSeries := chart.TimeSeries{
		Name: "Total Value",
		Style: chart.Style{
			StrokeColor: drawing.ColorFromHex("2563eb"),
			StrokeWidth: 2.5,
		},
		XValues: xValues,
		YValues: valueY,
	}

	costSeries := chart.TimeSeries{
		Name: "Cost Basis + Cash",
		Style: chart.Style{
			StrokeColor:     drawing.ColorFromHex("9ca3af"),
			StrokeWidth:     1.5,
			StrokeDashArray: []float64{5.0, 3.0},
		},
		XValues: xValues,
		YValues: costY,
	}

	graph := chart.Chart{
		Title:  "Portfolio Value",
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("Jan 02")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return FormatMoney(decimal.NewFromFloat(f).Round(0), currency)
				}
				return ""
			},
		},
		Series: []chart.Series{
			valueSeries,
			costSeries,
		},
	}

	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	return buf.Bytes(), nil
}

// FormatMoney formats amount in currency, e.g. "$1,234.50".
// Amounts are truncated to the currency's minor unit.
func FormatMoney(amount decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return amount.StringFixed(2) + " " + currency
	}

	factor, _ := decimal.NewFromInt(10).PowInt32(int32(cur.Fraction))
	return money.New(amount.Mul(factor).IntPart(), cur.Code).Display()
}
