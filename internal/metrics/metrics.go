package metrics

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"

	"luckyjet/internal/engine"
	"luckyjet/internal/ledger"
	"luckyjet/internal/notification"
)

// Metric names follow luckyjet_<name>.

var (
	roundsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "luckyjet_rounds_total",
		Help: "Completed rounds",
	})
	crashPoints = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "luckyjet_crash_point",
		Help:    "Crash multiplier of completed rounds",
		Buckets: []float64{1.01, 1.2, 1.5, 2, 3, 5, 10, 20, 50, 100},
	})
	betsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "luckyjet_bets_total",
		Help: "Bets by lifecycle event",
	}, []string{"outcome"})
	wageredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "luckyjet_wagered_total",
		Help: "Sum of placed bet amounts",
	})
	paidOutTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "luckyjet_paid_out_total",
		Help: "Sum of cash-out payouts",
	})
	rejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "luckyjet_rejected_commands_total",
		Help: "Commands rejected without a state change",
	}, []string{"command", "reason"})
)

const (
	outcomePlaced    = "placed"
	outcomeCashedOut = "cashed_out"
	outcomeLost      = "lost"
)

// Observe updates the counters for one notification.
func Observe(n notification.Notification) {
	switch n.Kind {
	case notification.KindBetPlaced:
		betsTotal.WithLabelValues(outcomePlaced).Inc()
		wageredTotal.Add(toFloat(n.Amount))
	case notification.KindCashedOut:
		betsTotal.WithLabelValues(outcomeCashedOut).Inc()
		paidOutTotal.Add(toFloat(n.Payout))
	case notification.KindCrashed:
		roundsTotal.Inc()
		crashPoints.Observe(toFloat(n.Multiplier))
		if n.Amount.IsPositive() {
			betsTotal.WithLabelValues(outcomeLost).Inc()
		}
	}
}

// Run feeds a notification subscription into Observe until the feed closes
// or ctx ends.
func Run(ctx context.Context, feed <-chan notification.Notification) {
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-feed:
			if !ok {
				return
			}
			Observe(n)
		}
	}
}

// Rejected counts a command the engine refused.
func Rejected(command string, err error) {
	rejectedTotal.WithLabelValues(command, Reason(err)).Inc()
}

// Reason maps a rejection to a low-cardinality label.
func Reason(err error) string {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, ledger.ErrBetOutstanding):
		return "bet_outstanding"
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, ledger.ErrNoBet):
		return "no_bet"
	case errors.Is(err, engine.ErrNotAcceptingBets):
		return "not_accepting_bets"
	case errors.Is(err, engine.ErrNotFlying):
		return "not_flying"
	}
	return "other"
}

func toFloat(v decimal.Decimal) float64 {
	f, _ := v.Float64()
	return f
}
