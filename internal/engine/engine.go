// Package engine composes the round state machine, the bet ledger and the
// round history behind a single mutation entry point.
//
// An Engine is driven by Tick with explicit timestamps and is not safe for
// concurrent use; Runner serialises access from a single goroutine.
package engine

import (
	"errors"
	"iter"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"luckyjet/internal/game"
	"luckyjet/internal/history"
	"luckyjet/internal/ledger"
	"luckyjet/internal/models"
	"luckyjet/internal/notification"
)

var (
	ErrNotAcceptingBets = errors.New("game not accepting bets")
	ErrNotFlying        = errors.New("no active flight")
)

// countdownCueFrom is the first countdown value observers are told about.
const countdownCueFrom = 3

// Notifier receives round notifications. Publish must not block.
type Notifier interface {
	Publish(notification.Notification)
}

type nopNotifier struct{}

func (nopNotifier) Publish(notification.Notification) {}

type Options struct {
	CrashProbability float64
	StartingBalance  decimal.Decimal
	Countdown        int
	CountdownTick    time.Duration
	FlightTick       time.Duration
	CrashDwell       time.Duration
	HistorySize      int

	Source   game.Source
	Notifier Notifier
	Logger   *zap.Logger
	NewID    func() string
	Now      func() time.Time
}

func DefaultOptions() Options {
	return Options{
		CrashProbability: 0.02,
		StartingBalance:  decimal.NewFromInt(10000),
		Countdown:        5,
		CountdownTick:    time.Second,
		FlightTick:       100 * time.Millisecond,
		CrashDwell:       3 * time.Second,
		HistorySize:      history.DefaultCapacity,
	}
}

type Engine struct {
	opts    Options
	machine *game.Machine
	ledger  *ledger.Ledger
	history *history.History
	timer   timerHandle
	roundID string
	notify  Notifier
	log     *zap.Logger
}

// New builds an engine in Waiting with its countdown timer armed from now.
func New(now time.Time, opts Options) (*Engine, error) {
	if opts.Countdown < 1 {
		return nil, errors.New("countdown must be at least 1")
	}
	if opts.CountdownTick <= 0 || opts.FlightTick <= 0 || opts.CrashDwell <= 0 {
		return nil, errors.New("tick periods must be positive")
	}
	if opts.Source == nil {
		return nil, errors.New("random source is required")
	}
	crash, err := game.NewCrashGenerator(opts.CrashProbability, opts.Source)
	if err != nil {
		return nil, err
	}
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	e := &Engine{
		opts:    opts,
		machine: game.NewMachine(opts.Countdown, game.NewClock(opts.Source), crash),
		ledger:  ledger.New(opts.StartingBalance),
		history: history.New(opts.HistorySize),
		roundID: opts.NewID(),
		notify:  opts.Notifier,
		log:     opts.Logger,
	}
	e.arm(timerCountdown, now)
	e.log.Info("engine started",
		zap.String("roundId", e.roundID),
		zap.Float64("crashProbability", crash.Probability()),
		zap.String("balance", e.ledger.Balance().String()))
	return e, nil
}

// NextDue is when the armed timer next fires.
func (e *Engine) NextDue() time.Time {
	return e.timer.due
}

// Timer names the armed timer handle.
func (e *Engine) Timer() string {
	return e.timer.name
}

// Tick fires every timer that is due at now, in order, and reports how many
// fired. Each firing is timed from its own due time, so a late call catches
// up exactly as if the ticks had arrived on schedule.
func (e *Engine) Tick(now time.Time) int {
	fired := 0
	for !e.timer.due.After(now) {
		e.fire(e.timer.due)
		fired++
	}
	return fired
}

func (e *Engine) fire(at time.Time) {
	switch ev := e.machine.Step(); ev {
	case game.EventCountdown:
		e.timer.rearm()
		if c := e.machine.Countdown(); c <= countdownCueFrom {
			e.publish(notification.Notification{Kind: notification.KindCountdown, Countdown: c, At: at})
		}

	case game.EventLaunch:
		e.arm(timerFlight, at)
		e.log.Info("round started", zap.String("roundId", e.roundID))
		e.publish(notification.Notification{
			Kind:       notification.KindRoundStarted,
			Multiplier: e.machine.Multiplier(),
			Amount:     e.placedAmount(),
			At:         at,
		})

	case game.EventAdvance:
		e.timer.rearm()

	case game.EventCrash:
		e.arm(timerDwell, at)
		point := e.machine.Multiplier()
		e.history.Record(history.Entry{ID: e.roundID, Multiplier: point, Timestamp: at})
		lost, hadBet := e.ledger.Settle()
		e.log.Info("round crashed",
			zap.String("roundId", e.roundID),
			zap.String("crashPoint", point.String()),
			zap.Bool("betLost", hadBet))
		e.publish(notification.Notification{
			Kind:       notification.KindCrashed,
			Multiplier: point,
			Amount:     lost,
			At:         at,
		})

	case game.EventReset:
		e.arm(timerCountdown, at)
		e.ledger.Reset()
		e.roundID = e.opts.NewID()
		e.log.Debug("waiting for next round", zap.String("roundId", e.roundID))
	}
}

// PlaceBet wagers amount on the coming round. It only succeeds while
// waiting, with no bet outstanding and enough balance.
func (e *Engine) PlaceBet(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return e.reject("place", ledger.ErrInvalidAmount)
	}
	if e.machine.Phase() != game.PhaseWaiting {
		return e.reject("place", ErrNotAcceptingBets)
	}
	if err := e.ledger.Place(amount); err != nil {
		return e.reject("place", err)
	}

	e.log.Info("bet placed",
		zap.String("roundId", e.roundID),
		zap.String("amount", amount.String()),
		zap.String("balance", e.ledger.Balance().String()))
	e.publish(notification.Notification{Kind: notification.KindBetPlaced, Amount: amount, At: e.opts.Now()})
	return nil
}

// PlaceStake places a bet of the current stake.
func (e *Engine) PlaceStake() error {
	return e.PlaceBet(e.ledger.Stake())
}

// CashOut settles the outstanding bet at the live multiplier.
func (e *Engine) CashOut() (decimal.Decimal, error) {
	if e.machine.Phase() != game.PhaseFlying {
		return decimal.Zero, e.reject("cashout", ErrNotFlying)
	}
	multiplier := e.machine.Multiplier()
	payout, err := e.ledger.CashOut(multiplier)
	if err != nil {
		return decimal.Zero, e.reject("cashout", err)
	}

	e.log.Info("cashed out",
		zap.String("roundId", e.roundID),
		zap.String("multiplier", multiplier.String()),
		zap.String("payout", payout.String()))
	e.publish(notification.Notification{
		Kind:       notification.KindCashedOut,
		Multiplier: multiplier,
		Amount:     e.ledger.Bet().Amount,
		Payout:     payout,
		At:         e.opts.Now(),
	})
	return payout, nil
}

// AdjustStake moves the stake shown to the player; see ledger.MinStake.
func (e *Engine) AdjustStake(delta decimal.Decimal) decimal.Decimal {
	return e.ledger.AdjustStake(delta)
}

func (e *Engine) Phase() game.Phase { return e.machine.Phase() }

func (e *Engine) Multiplier() decimal.Decimal { return e.machine.Multiplier() }

func (e *Engine) Balance() decimal.Decimal { return e.ledger.Balance() }

func (e *Engine) Bet() ledger.Bet { return e.ledger.Bet() }

func (e *Engine) RoundID() string { return e.roundID }

// History yields up to n completed rounds, newest first.
func (e *Engine) History(n int) iter.Seq[history.Entry] {
	return e.history.Latest(n)
}

// Snapshot copies the observable state.
func (e *Engine) Snapshot() models.Snapshot {
	multiplier := e.machine.Multiplier()
	bet := e.ledger.Bet()
	totals := e.ledger.Totals()

	s := models.Snapshot{
		RoundID:    e.roundID,
		Phase:      e.machine.Phase(),
		Multiplier: multiplier,
		Countdown:  e.machine.Countdown(),
		Bet: models.BetView{
			Status:    bet.Status,
			Amount:    bet.Amount,
			Potential: e.ledger.Potential(multiplier),
		},
		Stake:   e.ledger.Stake(),
		Balance: e.ledger.Balance(),
		Stats: models.SessionStats{
			TotalBets:    totals.Bets,
			BetsWon:      totals.Won,
			BetsLost:     totals.Lost,
			TotalWagered: totals.Wagered,
			TotalWon:     totals.PaidOut,
			NetProfit:    totals.NetProfit(),
		},
		History: make([]models.HistoryEntry, 0, e.history.Len()),
	}
	if crashed, ok := e.machine.State().(game.Crashed); ok {
		point := crashed.CrashPoint
		s.CrashPoint = &point
	}
	if bet.Status == ledger.StatusCashedOut {
		m, w := bet.CashOutMultiplier, bet.Payout
		s.Bet.CashOutMultiplier = &m
		s.Bet.WinAmount = &w
	}
	for h := range e.history.Latest(e.history.Len()) {
		s.History = append(s.History, models.HistoryEntry{
			ID:         h.ID,
			Multiplier: h.Multiplier,
			Tier:       models.TierOf(h.Multiplier),
			Timestamp:  h.Timestamp,
		})
	}
	return s
}

func (e *Engine) placedAmount() decimal.Decimal {
	if bet := e.ledger.Bet(); bet.Status == ledger.StatusPlaced {
		return bet.Amount
	}
	return decimal.Zero
}

func (e *Engine) publish(n notification.Notification) {
	n.RoundID = e.roundID
	e.notify.Publish(n)
}

func (e *Engine) reject(command string, err error) error {
	e.log.Debug("command rejected",
		zap.String("command", command),
		zap.String("phase", e.machine.Phase().String()),
		zap.Error(err))
	return err
}
