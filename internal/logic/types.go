// Package logic contains the sensor request state machine.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Hardware and timing are injected through the interfaces below.
package logic

import (
	"errors"
	"fmt"
	"time"
)

// State is the request cycle state.
type State string

const (
	StateIdle       State = "IDLE"
	StateRequesting State = "REQUESTING"
	StateListening  State = "LISTENING"
)

// LineState is the level the controller drives on the data wire.
type LineState string

const (
	LineAsserted LineState = "ASSERTED" // driven low, requesting
	LineReleased LineState = "RELEASED" // high via pull-up, listening
)

// PowerState is the sensor supply state.
type PowerState string

const (
	PowerUnpowered PowerState = "UNPOWERED"
	PowerPowered   PowerState = "POWERED"
)

// EventType identifies a controller event.
type EventType string

const (
	EventStart   EventType = "START"
	EventTrigger EventType = "TRIGGER"
	EventRelease EventType = "RELEASE"
	EventSleep   EventType = "SLEEP"
	EventWake    EventType = "WAKE"
)

// Event reports a controller transition.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Cycle     int // request cycles begun so far
	State     State
	Line      LineState
	Power     PowerState
}

// EventCounts tracks the number of each event type since startup.
type EventCounts struct {
	Triggers int
	Releases int
	Sleeps   int
	Wakes    int
}

// Add counts e.
func (c *EventCounts) Add(e EventType) {
	switch e {
	case EventTrigger:
		c.Triggers++
	case EventRelease:
		c.Releases++
	case EventSleep:
		c.Sleeps++
	case EventWake:
		c.Wakes++
	}
}

// Default request timing for a DHT11-class sensor.
const (
	DefaultPeriod       = 3000 * time.Millisecond
	DefaultReleaseDelay = 18000 * time.Microsecond
)

// Config holds the request timing.
type Config struct {
	// Period between triggers.
	Period time.Duration
	// ReleaseDelay is how long the line is held low per trigger.
	ReleaseDelay time.Duration
}

// DefaultConfig returns the default request timing.
func DefaultConfig() Config {
	return Config{Period: DefaultPeriod, ReleaseDelay: DefaultReleaseDelay}
}

var (
	ErrNonPositivePeriod  = errors.New("period must be positive")
	ErrNonPositiveRelease = errors.New("release delay must be positive")
	ErrReleaseTooLong     = errors.New("release delay must be shorter than the period")
)

// Validate checks that the release falls strictly inside the period.
func (c Config) Validate() error {
	if c.Period <= 0 {
		return fmt.Errorf("%w (got %v)", ErrNonPositivePeriod, c.Period)
	}
	if c.ReleaseDelay < time.Microsecond {
		return fmt.Errorf("%w (got %v)", ErrNonPositiveRelease, c.ReleaseDelay)
	}
	if c.ReleaseDelay >= c.Period {
		return fmt.Errorf("%w (%v >= %v)", ErrReleaseTooLong, c.ReleaseDelay, c.Period)
	}
	return nil
}

// Output is the data wire.
type Output interface {
	High() error
	Low() error
}

// Rail is the sensor power rail.
type Rail interface {
	Energize() error
	Deenergize() error
	Powered() bool
}

// Periodic invokes a callback at a fixed period once started.
type Periodic interface {
	Start(period time.Duration, fn func()) error
}

// OneShot invokes a callback once; arming again supersedes a pending arming.
type OneShot interface {
	Arm(delay time.Duration, fn func())
}

// Clock timestamps events.
type Clock interface {
	Now() time.Time
}

// Notifier receives controller events. Notify runs on the callback
// executor and must not block.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Event)

// Notify calls f(e).
func (f NotifierFunc) Notify(e Event) { f(e) }

// Lifecycle is the set of hooks the host runtime calls.
type Lifecycle interface {
	// OnStart runs once at cold boot.
	OnStart() error
	// OnSuspend runs immediately before low-power sleep.
	OnSuspend()
	// OnResume runs immediately after waking from sleep.
	OnResume()
}

// Snapshot is a point-in-time view of the controller.
type Snapshot struct {
	State     State
	Line      LineState
	Power     PowerState
	Cycle     int
	Started   bool
	Suspended bool
}
