package dashboard

import (
	"github.com/shopspring/decimal"
	"github.com/wx-shi/utxo-dashboard/internal/model"
)

// DefaultTargets are the milestones shown for every wallet, in display order.
func DefaultTargets() []model.MilestoneTarget {
	return []model.MilestoneTarget{
		{Label: "1/4 BTC (0.25)", Fraction: decimal.RequireFromString("0.25")},
		{Label: "1/3 BTC (~0.33)", Fraction: decimal.NewFromInt(1).Div(decimal.NewFromInt(3))},
		{Label: "1/2 BTC (0.5)", Fraction: decimal.RequireFromString("0.5")},
		{Label: "1 BTC", Fraction: decimal.NewFromInt(1)},
	}
}
