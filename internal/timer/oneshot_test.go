package timer

import (
	"testing"
	"time"
)

func TestOneShotFiresOnce(t *testing.T) {
	c := NewFakeClock(epoch)
	o := NewOneShot(c)
	n := 0

	o.Arm(18*time.Millisecond, func() { n++ })
	if o.State() != Armed {
		t.Errorf("expected ARMED after Arm, got %s", o.State())
	}
	if !o.Pending() {
		t.Error("expected pending after Arm")
	}

	c.Advance(17 * time.Millisecond)
	if n != 0 {
		t.Fatal("fired before delay elapsed")
	}
	c.Advance(time.Millisecond)
	if n != 1 {
		t.Fatalf("expected 1 fire at 18ms, got %d", n)
	}
	c.Advance(time.Second)
	if n != 1 {
		t.Errorf("expected exactly 1 fire, got %d", n)
	}
	if o.State() != Idle {
		t.Errorf("expected IDLE after firing, got %s", o.State())
	}
	if o.Pending() {
		t.Error("expected nothing pending after firing")
	}
}

func TestOneShotRearmSupersedes(t *testing.T) {
	c := NewFakeClock(epoch)
	o := NewOneShot(c)
	var fired []string

	o.Arm(18*time.Millisecond, func() { fired = append(fired, "first") })
	c.Advance(10 * time.Millisecond)
	o.Arm(18*time.Millisecond, func() { fired = append(fired, "second") })

	// The first arming would have fired at 18ms.
	c.Advance(10 * time.Millisecond)
	if len(fired) != 0 {
		t.Fatalf("superseded arming fired: %v", fired)
	}
	c.Advance(8 * time.Millisecond)
	if len(fired) != 1 || fired[0] != "second" {
		t.Fatalf("expected only second to fire at 28ms, got %v", fired)
	}

	if o.Arms() != 2 {
		t.Errorf("Arms: got %d, want 2", o.Arms())
	}
	if o.Cancels() != 1 {
		t.Errorf("Cancels: got %d, want 1", o.Cancels())
	}
	if o.Fires() != 1 {
		t.Errorf("Fires: got %d, want 1", o.Fires())
	}
	if c.Pending() != 0 {
		t.Errorf("expected no pending clock timers, got %d", c.Pending())
	}
}

// queuedClock delivers callbacks even after Stop, like a Dispatcher whose
// timer already posted to the channel before being stopped.
type queuedClock struct {
	queued []func()
}

type noStop struct{}

func (noStop) Stop() bool { return false }

func (q *queuedClock) Now() time.Time { return epoch }

func (q *queuedClock) AfterFunc(d time.Duration, f func()) Timer {
	q.queued = append(q.queued, f)
	return noStop{}
}

func TestOneShotDiscardsStaleDelivery(t *testing.T) {
	q := &queuedClock{}
	o := NewOneShot(q)
	var fired []string

	o.Arm(time.Millisecond, func() { fired = append(fired, "stale") })
	o.Arm(time.Millisecond, func() { fired = append(fired, "live") })

	for _, f := range q.queued {
		f()
	}

	if len(fired) != 1 || fired[0] != "live" {
		t.Errorf("expected only the live arming to run, got %v", fired)
	}
}

func TestOneShotRearmFromCallback(t *testing.T) {
	c := NewFakeClock(epoch)
	o := NewOneShot(c)
	n := 0

	var cb func()
	cb = func() {
		n++
		if n < 3 {
			o.Arm(5*time.Millisecond, cb)
		}
	}
	o.Arm(5*time.Millisecond, cb)

	c.Advance(100 * time.Millisecond)
	if n != 3 {
		t.Errorf("expected 3 chained fires, got %d", n)
	}
	if o.Cancels() != 0 {
		t.Errorf("re-arming after fire should not count as cancel, got %d", o.Cancels())
	}
	if o.State() != Idle {
		t.Errorf("expected IDLE, got %s", o.State())
	}
}

func TestOneShotNonPositiveDelayPanics(t *testing.T) {
	for _, d := range []time.Duration{0, -time.Millisecond} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("Arm(%v) did not panic", d)
				}
			}()
			NewOneShot(NewFakeClock(epoch)).Arm(d, func() {})
		}()
	}
}
