package dashboard

import (
	"github.com/shopspring/decimal"
	"github.com/wx-shi/utxo-dashboard/internal/model"
)

const (
	segmentCount = 10
	segmentSize  = 10 // percentage points
	halfSegment  = 5
)

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// Progress computes one row per target, in target order. Percent is capped
// at 100. MissingFiat stays nil when rate is nil.
func Progress(balance decimal.Decimal, targets []model.MilestoneTarget, rate *decimal.Decimal) []model.MilestoneProgress {
	rows := make([]model.MilestoneProgress, 0, len(targets))
	for _, t := range targets {
		ratio := decimal.Zero
		if t.Fraction.IsPositive() {
			ratio = balance.Div(t.Fraction)
		}
		achieved := ratio.GreaterThanOrEqual(one)
		raw := decimal.Min(ratio, one).Mul(hundred)
		percent := raw.Round(2)
		if !achieved && percent.GreaterThanOrEqual(hundred) {
			// never show 100% for a target that is not reached
			percent = raw.Truncate(2)
		}

		missing := decimal.Max(t.Fraction.Sub(balance), decimal.Zero).Round(8)
		row := model.MilestoneProgress{
			Target:     t,
			Percent:    percent,
			MissingBTC: missing,
			Achieved:   achieved,
			Indicator:  Indicate(raw, achieved),
		}
		if rate != nil {
			fiat := missing.Mul(*rate).Round(2)
			row.MissingFiat = &fiat
		}
		rows = append(rows, row)
	}
	return rows
}

// Indicate quantizes percent into ten segments of ten points. Segments 1-3
// are low, 4-6 mid and 7-10 high. A remainder of at least five points adds
// a half segment in the band of the next segment.
func Indicate(percent decimal.Decimal, achieved bool) model.Indicator {
	if achieved {
		return model.Indicator{Achieved: true}
	}
	if percent.IsNegative() {
		percent = decimal.Zero
	}
	full := int(percent.Div(decimal.NewFromInt(segmentSize)).Floor().IntPart())
	if full > segmentCount {
		full = segmentCount
	}
	remainder := percent.Sub(decimal.NewFromInt(int64(full * segmentSize)))
	half := full < segmentCount && remainder.GreaterThanOrEqual(decimal.NewFromInt(halfSegment))

	segments := make([]model.Segment, 0, segmentCount)
	for i := 1; i <= segmentCount; i++ {
		switch {
		case i <= full:
			segments = append(segments, model.Segment{Fill: model.FillFull, Band: band(i)})
		case i == full+1 && half:
			segments = append(segments, model.Segment{Fill: model.FillHalf, Band: band(i)})
		default:
			segments = append(segments, model.Segment{Fill: model.FillEmpty})
		}
	}
	return model.Indicator{Segments: segments}
}

func band(segment int) model.Band {
	switch {
	case segment <= 3:
		return model.BandLow
	case segment <= 6:
		return model.BandMid
	default:
		return model.BandHigh
	}
}
