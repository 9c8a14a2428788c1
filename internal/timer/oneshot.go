package timer

import "time"

// OneShot delivers a callback once after a delay. Arming it again before it
// fires cancels the pending callback, so at most one is ever pending.
type OneShot struct {
	clock   Clock
	pending Timer
	gen     uint64
	state   State

	arms    int
	cancels int
	fires   int
}

// NewOneShot creates an idle OneShot on the given clock.
func NewOneShot(clock Clock) *OneShot {
	return &OneShot{clock: clock}
}

// Arm schedules fn to run once, delay from now, superseding any pending
// arming. A superseded callback that the clock had already queued is
// discarded when it is delivered. Arm panics if delay is not positive.
func (o *OneShot) Arm(delay time.Duration, fn func()) {
	if delay <= 0 {
		panic("timer: non-positive one-shot delay")
	}

	if o.pending != nil {
		o.pending.Stop()
		o.pending = nil
		o.cancels++
	}

	o.gen++
	gen := o.gen
	o.arms++
	o.state = Armed
	o.pending = o.clock.AfterFunc(delay, func() {
		if gen != o.gen {
			return
		}
		o.pending = nil
		o.state = Firing
		o.fires++
		fn()
		// fn may have re-armed.
		if o.pending == nil {
			o.state = Idle
		}
	})
}

// Pending reports whether a callback is armed and not yet delivered.
func (o *OneShot) Pending() bool {
	return o.pending != nil
}

// State returns the current lifecycle state.
func (o *OneShot) State() State {
	return o.state
}

// Arms returns how many times Arm has been called.
func (o *OneShot) Arms() int { return o.arms }

// Cancels returns how many pending armings were superseded.
func (o *OneShot) Cancels() int { return o.cancels }

// Fires returns how many callbacks have been delivered.
func (o *OneShot) Fires() int { return o.fires }
