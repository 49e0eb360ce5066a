package engine

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"luckyjet/internal/models"
)

// command is a mutation queued for the runner goroutine. done is closed once
// apply has returned.
type command struct {
	apply func(*Engine)
	done  chan struct{}
}

// Runner owns an Engine and is the only goroutine that touches it. Timer
// firings and commands are handled one at a time, so no two engine calls
// ever overlap.
type Runner struct {
	engine   *Engine
	cmds     chan command
	snapshot atomic.Pointer[models.Snapshot]
	log      *zap.Logger
}

func NewRunner(e *Engine, log *zap.Logger) *Runner {
	r := &Runner{
		engine: e,
		cmds:   make(chan command),
		log:    log,
	}
	r.publishSnapshot()
	return r
}

// Run drives the engine until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	timer := time.NewTimer(time.Until(r.engine.NextDue()))
	defer timer.Stop()

	r.log.Info("round loop started")
	for {
		select {
		case <-ctx.Done():
			r.log.Info("round loop stopped")
			return nil
		case now := <-timer.C:
			r.engine.Tick(now)
			r.publishSnapshot()
		case cmd := <-r.cmds:
			cmd.apply(r.engine)
			// Callers read the snapshot as soon as done closes.
			r.publishSnapshot()
			close(cmd.done)
		}
		timer.Reset(time.Until(r.engine.NextDue()))
	}
}

// Do runs fn on the runner goroutine and waits for it to finish.
func (r *Runner) Do(ctx context.Context, fn func(*Engine)) error {
	cmd := command{apply: fn, done: make(chan struct{})}
	select {
	case r.cmds <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-cmd.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) PlaceBet(ctx context.Context, amount decimal.Decimal) error {
	var err error
	if doErr := r.Do(ctx, func(e *Engine) { err = e.PlaceBet(amount) }); doErr != nil {
		return doErr
	}
	return err
}

func (r *Runner) PlaceStake(ctx context.Context) error {
	var err error
	if doErr := r.Do(ctx, func(e *Engine) { err = e.PlaceStake() }); doErr != nil {
		return doErr
	}
	return err
}

func (r *Runner) CashOut(ctx context.Context) (decimal.Decimal, error) {
	var (
		payout decimal.Decimal
		err    error
	)
	if doErr := r.Do(ctx, func(e *Engine) { payout, err = e.CashOut() }); doErr != nil {
		return decimal.Zero, doErr
	}
	return payout, err
}

func (r *Runner) AdjustStake(ctx context.Context, delta decimal.Decimal) (decimal.Decimal, error) {
	var stake decimal.Decimal
	if err := r.Do(ctx, func(e *Engine) { stake = e.AdjustStake(delta) }); err != nil {
		return decimal.Zero, err
	}
	return stake, nil
}

// Snapshot returns the state published after the most recent tick or
// command; a command's effects are visible once its call returns. It never
// blocks on the runner goroutine.
func (r *Runner) Snapshot() models.Snapshot {
	return *r.snapshot.Load()
}

func (r *Runner) publishSnapshot() {
	s := r.engine.Snapshot()
	r.snapshot.Store(&s)
}
