package logic

import (
	"errors"
	"fmt"
	"log"
)

// ErrAlreadyStarted is returned by a second OnStart.
var ErrAlreadyStarted = errors.New("controller already started")

// Hardware is everything the controller drives.
type Hardware struct {
	Data     Output
	Rail     Rail
	Trigger  Periodic
	Release  OneShot
	Clock    Clock
	Notifier Notifier // optional
}

// Controller periodically pulls the data wire low and releases it after a
// fixed delay. Its hooks and both scheduler callbacks must be called from
// a single goroutine.
type Controller struct {
	cfg Config
	hw  Hardware

	state     State
	line      LineState
	cycle     int
	started   bool
	suspended bool
}

var _ Lifecycle = (*Controller)(nil)

// NewController validates cfg and creates an idle controller. The data
// line is assumed released (pulled up) at construction.
func NewController(cfg Config, hw Hardware) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request timing: %w", err)
	}
	if hw.Data == nil || hw.Rail == nil || hw.Trigger == nil || hw.Release == nil || hw.Clock == nil {
		return nil, errors.New("incomplete hardware")
	}
	return &Controller{
		cfg:   cfg,
		hw:    hw,
		state: StateIdle,
		line:  LineReleased,
	}, nil
}

// OnStart energizes the rail and starts the periodic trigger. This is the
// only path to starting the trigger; a second call is rejected before it
// reaches the scheduler.
func (c *Controller) OnStart() error {
	if c.started {
		return ErrAlreadyStarted
	}
	c.started = true

	if err := c.hw.Rail.Energize(); err != nil {
		log.Printf("power rail energize error: %v", err)
	}
	if err := c.hw.Trigger.Start(c.cfg.Period, c.requestReading); err != nil {
		return fmt.Errorf("start periodic trigger: %w", err)
	}
	c.notify(EventStart)
	return nil
}

// OnSuspend forces the shared power enable inactive whatever the cycle is
// doing. Scheduler armings are left alone.
func (c *Controller) OnSuspend() {
	if err := c.hw.Rail.Deenergize(); err != nil {
		log.Printf("power rail deenergize error: %v", err)
	}
	c.suspended = true
	c.notify(EventSleep)
}

// OnResume takes no hardware action. Power and the data line are left as
// sleep entry left them until the next periodic tick drives the line; the
// rail stays off until the next cold start.
func (c *Controller) OnResume() {
	c.suspended = false
	c.notify(EventWake)
}

// requestReading runs on every periodic tick.
func (c *Controller) requestReading() {
	if err := c.hw.Data.Low(); err != nil {
		log.Printf("gpio write error (assert): %v", err)
	}
	c.line = LineAsserted
	c.state = StateRequesting
	c.cycle++
	c.hw.Release.Arm(c.cfg.ReleaseDelay, c.letGoOfWire)
	c.notify(EventTrigger)
}

// letGoOfWire runs when the one-shot fires.
func (c *Controller) letGoOfWire() {
	if err := c.hw.Data.High(); err != nil {
		log.Printf("gpio write error (release): %v", err)
	}
	c.line = LineReleased
	c.state = StateListening
	c.notify(EventRelease)
}

func (c *Controller) power() PowerState {
	if c.hw.Rail.Powered() {
		return PowerPowered
	}
	return PowerUnpowered
}

func (c *Controller) notify(t EventType) {
	if c.hw.Notifier == nil {
		return
	}
	c.hw.Notifier.Notify(Event{
		Timestamp: c.hw.Clock.Now(),
		Type:      t,
		Cycle:     c.cycle,
		State:     c.state,
		Line:      c.line,
		Power:     c.power(),
	})
}

// Snapshot returns the current controller state.
func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		State:     c.state,
		Line:      c.line,
		Power:     c.power(),
		Cycle:     c.cycle,
		Started:   c.started,
		Suspended: c.suspended,
	}
}

// Config returns the controller's request timing.
func (c *Controller) Config() Config {
	return c.cfg
}
