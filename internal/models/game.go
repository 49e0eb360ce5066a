package models

import (
	"time"

	"github.com/shopspring/decimal"

	"luckyjet/internal/game"
	"luckyjet/internal/ledger"
)

// Snapshot is a read-only copy of the engine for observers. It is safe to
// hold on to and share between goroutines.
type Snapshot struct {
	RoundID    string           `json:"roundId"`
	Phase      game.Phase       `json:"status"`
	Multiplier decimal.Decimal  `json:"multiplier"`
	Countdown  int              `json:"countdown"`
	CrashPoint *decimal.Decimal `json:"crashPoint,omitempty"`
	Bet        BetView          `json:"bet"`
	Stake      decimal.Decimal  `json:"stake"`
	Balance    decimal.Decimal  `json:"balance"`
	Stats      SessionStats     `json:"stats"`
	History    []HistoryEntry   `json:"history"`
}

type BetView struct {
	Status            ledger.Status    `json:"status"`
	Amount            decimal.Decimal  `json:"amount"`
	CashOutMultiplier *decimal.Decimal `json:"cashoutMultiplier,omitempty"`
	WinAmount         *decimal.Decimal `json:"winAmount,omitempty"`
	// Potential is amount x multiplier while the bet rides; display only.
	Potential decimal.Decimal `json:"potential"`
}

type HistoryEntry struct {
	ID         string          `json:"id"`
	Multiplier decimal.Decimal `json:"multiplier"`
	Tier       Tier            `json:"tier"`
	Timestamp  time.Time       `json:"timestamp"`
}

// Tier buckets a crash point for colouring.
type Tier string

const (
	TierLow    Tier = "low"
	TierMedium Tier = "medium"
	TierHigh   Tier = "high"
	TierEpic   Tier = "epic"
)

var (
	tierMedium = decimal.NewFromInt(2)
	tierHigh   = decimal.NewFromInt(5)
	tierEpic   = decimal.NewFromInt(10)
)

func TierOf(m decimal.Decimal) Tier {
	switch {
	case m.GreaterThanOrEqual(tierEpic):
		return TierEpic
	case m.GreaterThanOrEqual(tierHigh):
		return TierHigh
	case m.GreaterThanOrEqual(tierMedium):
		return TierMedium
	}
	return TierLow
}

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"RUB": "₽",
}

// CurrencySymbol maps a currency code to its display symbol, falling back
// to the code itself.
func CurrencySymbol(code string) string {
	if s, ok := currencySymbols[code]; ok {
		return s
	}
	return code
}
