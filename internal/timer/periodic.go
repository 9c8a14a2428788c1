package timer

import "time"

// Periodic invokes a callback at a fixed period, starting one full period
// after Start. Deadlines are anchored to the start time so callback latency
// does not accumulate as drift. Deadlines that have already passed when the
// next one is scheduled are skipped rather than delivered in a burst.
//
// There is no Stop; a started Periodic runs for the life of its clock.
type Periodic struct {
	clock  Clock
	state  State
	period time.Duration
	origin time.Time
	n      int64
	fn     func()
	ticks  int
}

// NewPeriodic creates an idle Periodic on the given clock.
func NewPeriodic(clock Clock) *Periodic {
	return &Periodic{clock: clock}
}

// Start begins invoking fn every period. It may be called only once.
func (p *Periodic) Start(period time.Duration, fn func()) error {
	if period <= 0 {
		return ErrNonPositivePeriod
	}
	if p.state != Idle {
		return ErrAlreadyStarted
	}

	p.period = period
	p.fn = fn
	p.origin = p.clock.Now()
	p.state = Armed
	p.schedule()
	return nil
}

func (p *Periodic) schedule() {
	now := p.clock.Now()
	p.n++
	next := p.origin.Add(time.Duration(p.n) * p.period)
	for !next.After(now) {
		p.n++
		next = p.origin.Add(time.Duration(p.n) * p.period)
	}
	p.clock.AfterFunc(next.Sub(now), p.fire)
}

func (p *Periodic) fire() {
	p.state = Firing
	p.ticks++
	p.fn()
	p.state = Armed
	p.schedule()
}

// State returns the current lifecycle state.
func (p *Periodic) State() State {
	return p.state
}

// Ticks returns how many times the callback has been invoked.
func (p *Periodic) Ticks() int {
	return p.ticks
}
