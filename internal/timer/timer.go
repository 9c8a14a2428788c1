// Package timer provides the two schedulers used to excite the sensor: a
// periodic trigger and a re-armable one-shot release.
//
// Both schedulers run their callbacks through a Clock. The real Clock
// (Dispatcher) never runs callbacks on timer goroutines; it hands them to a
// single consumer so that no two callbacks ever execute concurrently. The
// schedulers therefore hold no locks and must only be used from that
// consumer goroutine.
package timer

import (
	"errors"
	"time"
)

// Clock schedules future callbacks.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a pending AfterFunc callback.
type Timer interface {
	// Stop prevents the callback from being delivered. It returns false if
	// the callback was already delivered or stopped.
	Stop() bool
}

// State is the lifecycle state of a scheduler.
type State int

const (
	Idle State = iota
	Armed
	Firing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Armed:
		return "ARMED"
	case Firing:
		return "FIRING"
	default:
		return "UNKNOWN"
	}
}

var (
	// ErrNonPositivePeriod is returned by Periodic.Start for a period <= 0.
	ErrNonPositivePeriod = errors.New("timer: period must be positive")

	// ErrAlreadyStarted is returned by a second Periodic.Start.
	ErrAlreadyStarted = errors.New("timer: periodic trigger already started")
)
