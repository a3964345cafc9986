package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// UTXO is an unspent output as reported by the explorer.
// Height is nil while the funding transaction is unconfirmed.
type UTXO struct {
	TxID   string `json:"txid"`
	Vout   uint32 `json:"vout"`
	Value  int64  `json:"value"`
	Height *int64 `json:"block_height,omitempty"`
}

// Age of an output in days, or unconfirmed.
type Age struct {
	Days      decimal.Decimal
	Confirmed bool
}

const Unconfirmed = "unconfirmed"

func (a Age) String() string {
	if !a.Confirmed {
		return Unconfirmed
	}
	return a.Days.StringFixed(1) + " days"
}

func (a Age) MarshalJSON() ([]byte, error) {
	if !a.Confirmed {
		return json.Marshal(Unconfirmed)
	}
	return json.Marshal(a.Days.StringFixed(1))
}

// EnrichedUTXO is a UTXO prepared for display.
type EnrichedUTXO struct {
	TxID     string          `json:"txid"`
	Vout     uint32          `json:"vout"`
	Value    int64           `json:"value_sats"`
	ValueBTC decimal.Decimal `json:"value_btc"`
	Height   *int64          `json:"block_height,omitempty"`
	Age      Age             `json:"age_days"`
	IsDust   bool            `json:"is_dust"`
}

// Summary aggregates a UTXO set.
type Summary struct {
	Count              int             `json:"count"`
	Confirmed          int             `json:"confirmed"`
	Unconfirmed        int             `json:"unconfirmed"`
	ConfirmedBalance   decimal.Decimal `json:"confirmed_balance_btc"`
	UnconfirmedBalance decimal.Decimal `json:"unconfirmed_balance_btc"`
	DustCount          int             `json:"dust_count"`
	DustValue          decimal.Decimal `json:"dust_value_btc"`
}

type MilestoneTarget struct {
	Label    string          `json:"label"`
	Fraction decimal.Decimal `json:"fraction_btc"`
}

type Band string

const (
	BandNone Band = ""
	BandLow  Band = "low"
	BandMid  Band = "mid"
	BandHigh Band = "high"
)

type Fill string

const (
	FillFull  Fill = "full"
	FillHalf  Fill = "half"
	FillEmpty Fill = "empty"
)

type Segment struct {
	Fill Fill `json:"fill"`
	Band Band `json:"band,omitempty"`
}

// Indicator is a medal once a milestone is achieved, a segmented bar otherwise.
type Indicator struct {
	Achieved bool      `json:"achieved"`
	Segments []Segment `json:"segments,omitempty"`
}

type MilestoneProgress struct {
	Target      MilestoneTarget  `json:"target"`
	Percent     decimal.Decimal  `json:"percent"`
	MissingBTC  decimal.Decimal  `json:"missing_btc"`
	MissingFiat *decimal.Decimal `json:"missing_fiat"` // nil when no rate is known
	Achieved    bool             `json:"achieved"`
	Indicator   Indicator        `json:"indicator"`
}

// CongestionBlock is one projected mempool block.
type CongestionBlock struct {
	Height  *int64          `json:"height"`
	Fee     decimal.Decimal `json:"fee"` // median, sat/vB
	TxCount int             `json:"tx_count"`
}

type Wallet struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// DashboardView is everything a single render shows.
type DashboardView struct {
	Wallet       Wallet              `json:"wallet"`
	AddressType  string              `json:"address_type"`
	Wallets      []Wallet            `json:"wallets"`
	LatestHeight *int64              `json:"latest_height"`
	HasUTXOs     bool                `json:"has_utxos"`
	Balance      decimal.Decimal     `json:"balance_btc"`
	BalanceSats  int64               `json:"balance_sats"`
	Summary      Summary             `json:"summary"`
	Currency     string              `json:"currency"`
	Rate         *decimal.Decimal    `json:"rate"`
	FiatBalance  *decimal.Decimal    `json:"fiat_balance"`
	Milestones   []MilestoneProgress `json:"milestones"`
	Congestion   []CongestionBlock   `json:"congestion"`
	UTXOs        []EnrichedUTXO      `json:"utxos"`
	Page         int                 `json:"page"`
	PageSize     int                 `json:"page_size"`
	Pages        int                 `json:"pages"`
	Warnings     []string            `json:"warnings"`
	Notice       string              `json:"notice,omitempty"`
	GeneratedAt  time.Time           `json:"generated_at"`
}

type AddWalletRequest struct {
	Name    string `json:"name" form:"name" binding:"required"`
	Address string `json:"address" form:"address" binding:"required"`
}

type WalletNameRequest struct {
	Name string `json:"name" form:"name" binding:"required"`
}

type DashboardQuery struct {
	Wallet   string `form:"wallet"`
	Tab      string `form:"tab"`
	Page     int    `form:"page" binding:"min=0"`
	PageSize int    `form:"page_size" binding:"min=0,max=1000"`
}

type ValidateAddressRequest struct {
	Address string `json:"address" binding:"required"`
}

type ValidateAddressReply struct {
	Address      string `json:"address"`
	Valid        bool   `json:"valid"`
	Type         string `json:"type"`
	ScriptPubKey string `json:"script_pubkey,omitempty"`
}

type WalletsReply struct {
	Wallets  []Wallet `json:"wallets"`
	Selected string   `json:"selected"`
}
