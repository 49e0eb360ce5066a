// Package ledger tracks the player's balance, stake and the single bet that
// may be outstanding in a round.
//
// The ledger does not know about round phases; the engine decides when a
// placement or cash-out is allowed and the ledger enforces the money rules.
package ledger

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount       = errors.New("invalid amount: must be a finite number greater than 0")
	ErrBetOutstanding      = errors.New("bet already placed for this round")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrNoBet               = errors.New("no bet found for this round")
)

var (
	MinStake     = decimal.RequireFromString("0.1")
	DefaultStake = decimal.RequireFromString("0.2")
)

type Status int

const (
	StatusNone Status = iota
	StatusPlaced
	StatusCashedOut
	StatusLost
)

func (s Status) String() string {
	switch s {
	case StatusNone:
		return "none"
	case StatusPlaced:
		return "placed"
	case StatusCashedOut:
		return "cashed_out"
	case StatusLost:
		return "lost"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Bet is the player's wager for the current round. CashOutMultiplier and
// Payout are only set once Status is StatusCashedOut.
type Bet struct {
	Amount            decimal.Decimal
	Status            Status
	CashOutMultiplier decimal.Decimal
	Payout            decimal.Decimal
}

// Totals accumulates the session's betting activity.
type Totals struct {
	Bets    int
	Won     int
	Lost    int
	Wagered decimal.Decimal
	PaidOut decimal.Decimal
}

// NetProfit is everything paid out minus everything wagered.
func (t Totals) NetProfit() decimal.Decimal {
	return t.PaidOut.Sub(t.Wagered)
}

type Ledger struct {
	balance decimal.Decimal
	stake   decimal.Decimal
	bet     Bet
	totals  Totals
}

func New(balance decimal.Decimal) *Ledger {
	if balance.IsNegative() {
		balance = decimal.Zero
	}
	return &Ledger{balance: balance, stake: DefaultStake}
}

// AmountFromFloat converts a wire amount, rejecting NaN, infinities and
// non-positive values before they reach the ledger.
func AmountFromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return decimal.Zero, ErrInvalidAmount
	}
	return decimal.NewFromFloat(f), nil
}

func (l *Ledger) Balance() decimal.Decimal { return l.balance }

func (l *Ledger) Stake() decimal.Decimal { return l.stake }

func (l *Ledger) Bet() Bet { return l.bet }

func (l *Ledger) Totals() Totals { return l.totals }

// AdjustStake moves the displayed stake by delta, never below MinStake.
func (l *Ledger) AdjustStake(delta decimal.Decimal) decimal.Decimal {
	l.stake = decimal.Max(MinStake, l.stake.Add(delta))
	return l.stake
}

// Place debits amount and records it as the outstanding bet.
func (l *Ledger) Place(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if l.bet.Status == StatusPlaced {
		return ErrBetOutstanding
	}
	if l.balance.LessThan(amount) {
		return ErrInsufficientBalance
	}

	l.balance = l.balance.Sub(amount)
	l.bet = Bet{Amount: amount, Status: StatusPlaced}
	l.totals.Bets++
	l.totals.Wagered = l.totals.Wagered.Add(amount)
	return nil
}

// CashOut settles the outstanding bet at multiplier and credits the payout.
func (l *Ledger) CashOut(multiplier decimal.Decimal) (decimal.Decimal, error) {
	if l.bet.Status != StatusPlaced {
		return decimal.Zero, ErrNoBet
	}

	payout := l.bet.Amount.Mul(multiplier)
	l.balance = l.balance.Add(payout)
	l.bet.Status = StatusCashedOut
	l.bet.CashOutMultiplier = multiplier
	l.bet.Payout = payout
	l.totals.Won++
	l.totals.PaidOut = l.totals.PaidOut.Add(payout)
	return payout, nil
}

// Settle marks an outstanding bet as lost and reports the forfeited amount.
// The stake was debited at placement so the balance is left alone.
func (l *Ledger) Settle() (decimal.Decimal, bool) {
	if l.bet.Status != StatusPlaced {
		return decimal.Zero, false
	}
	l.bet.Status = StatusLost
	l.totals.Lost++
	return l.bet.Amount, true
}

// Reset clears the bet for the next round.
func (l *Ledger) Reset() {
	l.bet = Bet{}
}

// Potential is what the outstanding bet would pay at multiplier.
func (l *Ledger) Potential(multiplier decimal.Decimal) decimal.Decimal {
	if l.bet.Status != StatusPlaced {
		return decimal.Zero
	}
	return l.bet.Amount.Mul(multiplier)
}
