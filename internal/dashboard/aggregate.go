package dashboard

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/wx-shi/utxo-dashboard/internal/model"
	"github.com/wx-shi/utxo-dashboard/pkg"
)

const (
	// DustThreshold in satoshis. Outputs below it are dust.
	DustThreshold = 546
	// BlocksPerDay assumes the 10 minute target spacing.
	BlocksPerDay = 144
)

var blocksPerDay = decimal.NewFromInt(BlocksPerDay)

// Aggregate returns the exact balance in BTC and the outputs enriched for
// display, newest first. Unconfirmed outputs come last and equal heights
// keep their input order. latest may be nil when the tip is unknown, in
// which case every age is unconfirmed.
func Aggregate(utxos []model.UTXO, latest *int64) (decimal.Decimal, []model.EnrichedUTXO) {
	var sats int64
	for _, u := range utxos {
		sats += u.Value
	}

	sorted := make([]model.UTXO, len(utxos))
	copy(sorted, utxos)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sortHeight(sorted[i]) > sortHeight(sorted[j])
	})

	enriched := make([]model.EnrichedUTXO, 0, len(sorted))
	for _, u := range sorted {
		enriched = append(enriched, model.EnrichedUTXO{
			TxID:     u.TxID,
			Vout:     u.Vout,
			Value:    u.Value,
			ValueBTC: pkg.SatsToBTC(u.Value),
			Height:   u.Height,
			Age:      age(u.Height, latest),
			IsDust:   u.Value < DustThreshold,
		})
	}
	return pkg.SatsToBTC(sats), enriched
}

// Summarize counts and sums an enriched set by confirmation state and dust.
func Summarize(utxos []model.EnrichedUTXO) model.Summary {
	var confirmed, unconfirmed, dust int64
	s := model.Summary{Count: len(utxos)}
	for _, u := range utxos {
		if confirmedAt(u.Height) {
			s.Confirmed++
			confirmed += u.Value
		} else {
			s.Unconfirmed++
			unconfirmed += u.Value
		}
		if u.IsDust {
			s.DustCount++
			dust += u.Value
		}
	}
	s.ConfirmedBalance = pkg.SatsToBTC(confirmed)
	s.UnconfirmedBalance = pkg.SatsToBTC(unconfirmed)
	s.DustValue = pkg.SatsToBTC(dust)
	return s
}

func sortHeight(u model.UTXO) int64 {
	if !confirmedAt(u.Height) {
		return 0
	}
	return *u.Height
}

func confirmedAt(height *int64) bool {
	return height != nil && *height > 0
}

// age is (latest - height) / 144 days. A height above the tip yields 0.
func age(height, latest *int64) model.Age {
	if !confirmedAt(height) || latest == nil {
		return model.Age{}
	}
	blocks := *latest - *height
	if blocks < 0 {
		blocks = 0
	}
	return model.Age{
		Days:      decimal.NewFromInt(blocks).Div(blocksPerDay),
		Confirmed: true,
	}
}
