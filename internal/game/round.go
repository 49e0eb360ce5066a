package game

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type Phase int

const (
	PhaseWaiting Phase = iota
	PhaseFlying
	PhaseCrashed
)

func (p Phase) String() string {
	switch p {
	case PhaseWaiting:
		return "waiting"
	case PhaseFlying:
		return "flying"
	case PhaseCrashed:
		return "crashed"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// State is one of Waiting, Flying or Crashed. Each variant carries only the
// data that is meaningful in its phase.
type State interface {
	Phase() Phase
	state()
}

// Waiting counts down to the next launch.
type Waiting struct {
	Countdown int
}

// Flying holds the live multiplier.
type Flying struct {
	Multiplier decimal.Decimal
}

// Crashed holds the frozen multiplier the flight ended at.
type Crashed struct {
	CrashPoint decimal.Decimal
}

func (Waiting) Phase() Phase { return PhaseWaiting }
func (Flying) Phase() Phase  { return PhaseFlying }
func (Crashed) Phase() Phase { return PhaseCrashed }

func (Waiting) state() {}
func (Flying) state()  {}
func (Crashed) state() {}

// Event reports what a single Step did.
type Event int

const (
	EventCountdown Event = iota // Waiting -> Waiting
	EventLaunch                 // Waiting -> Flying
	EventAdvance                // Flying -> Flying
	EventCrash                  // Flying -> Crashed
	EventReset                  // Crashed -> Waiting
)

func (e Event) String() string {
	switch e {
	case EventCountdown:
		return "countdown"
	case EventLaunch:
		return "launch"
	case EventAdvance:
		return "advance"
	case EventCrash:
		return "crash"
	case EventReset:
		return "reset"
	}
	return fmt.Sprintf("event(%d)", int(e))
}

// Machine is the round state machine. It knows nothing about wall-clock
// time: every call to Step is one tick of whatever phase is active.
type Machine struct {
	state     State
	countdown int
	clock     *Clock
	crash     *CrashGenerator
}

func NewMachine(countdown int, clock *Clock, crash *CrashGenerator) *Machine {
	if countdown < 1 {
		countdown = 1
	}
	return &Machine{
		state:     Waiting{Countdown: countdown},
		countdown: countdown,
		clock:     clock,
		crash:     crash,
	}
}

func (m *Machine) State() State { return m.state }

func (m *Machine) Phase() Phase { return m.state.Phase() }

// Multiplier is 1.00 while waiting, the live value while flying and the
// crash point once crashed.
func (m *Machine) Multiplier() decimal.Decimal {
	switch s := m.state.(type) {
	case Flying:
		return s.Multiplier
	case Crashed:
		return s.CrashPoint
	}
	return StartMultiplier
}

// Countdown is the number of seconds left before launch, 0 outside Waiting.
func (m *Machine) Countdown() int {
	if s, ok := m.state.(Waiting); ok {
		return s.Countdown
	}
	return 0
}

// Step fires one tick of the active phase.
func (m *Machine) Step() Event {
	switch s := m.state.(type) {
	case Waiting:
		if s.Countdown > 1 {
			m.state = Waiting{Countdown: s.Countdown - 1}
			return EventCountdown
		}
		m.state = Flying{Multiplier: StartMultiplier}
		return EventLaunch
	case Flying:
		if m.crash.Crashes() {
			m.state = Crashed{CrashPoint: s.Multiplier}
			return EventCrash
		}
		m.state = Flying{Multiplier: m.clock.Advance(s.Multiplier)}
		return EventAdvance
	default:
		m.state = Waiting{Countdown: m.countdown}
		return EventReset
	}
}
