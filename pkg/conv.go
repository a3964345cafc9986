package pkg

import (
	"encoding/binary"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// SatsPerBTC is fixed by the protocol.
	SatsPerBTC = 100_000_000

	btcDecimals  = 8
	fiatDecimals = 2
)

// SatsToBTC converts satoshis to an exact BTC amount.
func SatsToBTC(sats int64) decimal.Decimal {
	return decimal.New(sats, -btcDecimals)
}

// BTCToSats truncates anything below one satoshi.
func BTCToSats(btc decimal.Decimal) int64 {
	return btc.Shift(btcDecimals).Truncate(0).IntPart()
}

// FormatBTC renders an amount with 8 fraction digits, e.g. "0.00012345".
func FormatBTC(btc decimal.Decimal) string {
	return btc.StringFixed(btcDecimals)
}

// FormatFiat renders an amount with 2 fraction digits and "," thousands separators.
func FormatFiat(amount decimal.Decimal) string {
	s := amount.StringFixed(fiatDecimals)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}

	var b strings.Builder
	b.WriteString(sign)
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteString(frac)
	return b.String()
}

func Int64ToBytes(num int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(num))
	return b
}

func BytesToInt64(bytes []byte) int64 {
	return int64(binary.BigEndian.Uint64(bytes))
}
