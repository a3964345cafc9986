package server

import (
	"html/template"

	"github.com/shopspring/decimal"
	"github.com/wx-shi/utxo-dashboard/internal/model"
	"github.com/wx-shi/utxo-dashboard/pkg"
)

const unknownAmount = "?"

var templateFuncs = template.FuncMap{
	"btc": pkg.FormatBTC,
	"fiat": func(amount *decimal.Decimal, currency string) string {
		if amount == nil {
			return unknownAmount + " " + currency
		}
		return pkg.FormatFiat(*amount) + " " + currency
	},
	"pct": func(d decimal.Decimal) string {
		return d.StringFixed(2) + "%"
	},
	"fee": func(d decimal.Decimal) string {
		return d.StringFixed(1)
	},
	"height": func(h *int64) string {
		if h == nil {
			return unknownAmount
		}
		return decimal.NewFromInt(*h).String()
	},
	"pages": func(view *model.DashboardView) []int {
		out := make([]int, view.Pages)
		for i := range out {
			out[i] = i
		}
		return out
	},
	"inc": func(i int) int { return i + 1 },
}
