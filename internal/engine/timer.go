package engine

import "time"

const (
	timerCountdown = "countdown"
	timerFlight    = "flight"
	timerDwell     = "dwell"
)

// timerHandle is the single armed timer. Only one exists at a time, so
// arming the next phase's timer cancels the previous one in the same step.
type timerHandle struct {
	name   string
	due    time.Time
	period time.Duration
}

// rearm schedules the next firing of a periodic timer.
func (t *timerHandle) rearm() {
	t.due = t.due.Add(t.period)
}

func (e *Engine) arm(name string, from time.Time) {
	var period time.Duration
	switch name {
	case timerCountdown:
		period = e.opts.CountdownTick
	case timerFlight:
		period = e.opts.FlightTick
	case timerDwell:
		period = e.opts.CrashDwell
	}
	e.timer = timerHandle{name: name, due: from.Add(period), period: period}
}
