package timer

import (
	"sync"
	"time"
)

// Dispatcher is the real Clock. Expired timers post their callback to C
// instead of running it, so the goroutine draining C is the only place
// callbacks execute.
type Dispatcher struct {
	c    chan func()
	done chan struct{}
	once sync.Once
}

// NewDispatcher creates a Dispatcher whose channel holds up to buffer
// callbacks waiting for the consumer.
func NewDispatcher(buffer int) *Dispatcher {
	return &Dispatcher{
		c:    make(chan func(), buffer),
		done: make(chan struct{}),
	}
}

// Now returns the wall-clock time.
func (d *Dispatcher) Now() time.Time {
	return time.Now()
}

// AfterFunc schedules f to be posted to C after dur.
func (d *Dispatcher) AfterFunc(dur time.Duration, f func()) Timer {
	return time.AfterFunc(dur, func() {
		select {
		case d.c <- f:
		case <-d.done:
		}
	})
}

// C returns the channel of callbacks ready to run. Exactly one goroutine
// should receive from it and call each callback.
func (d *Dispatcher) C() <-chan func() {
	return d.c
}

// Close stops delivery. Timers that expire afterwards are dropped.
func (d *Dispatcher) Close() {
	d.once.Do(func() { close(d.done) })
}
