package gpio

import (
	"errors"
	"time"
)

// FakeOutput is a test double that records every level written to it.
type FakeOutput struct {
	// Name identifies the line in test failures.
	Name string

	// Level is the current level.
	Level Level

	// Writes contains every High/Low call that succeeded, in order.
	Writes []Write

	// SetError, if set, will be returned by High and Low without changing
	// the level.
	SetError error

	// Closed tracks if Close was called
	Closed bool

	now func() time.Time
}

// Write is a single recorded level change request.
type Write struct {
	Time  time.Time
	Level Level
}

// NewFakeOutput creates a FakeOutput at the given initial level. now
// timestamps each write; nil uses time.Now.
func NewFakeOutput(name string, initial Level, now func() time.Time) *FakeOutput {
	if now == nil {
		now = time.Now
	}
	return &FakeOutput{Name: name, Level: initial, now: now}
}

// High records a write of logic 1.
func (f *FakeOutput) High() error {
	return f.set(High)
}

// Low records a write of logic 0.
func (f *FakeOutput) Low() error {
	return f.set(Low)
}

func (f *FakeOutput) set(l Level) error {
	if f.Closed {
		return errors.New("gpio: " + f.Name + " closed")
	}
	if f.SetError != nil {
		return f.SetError
	}
	f.Level = l
	f.Writes = append(f.Writes, Write{Time: f.now(), Level: l})
	return nil
}

// Close marks the output as closed.
func (f *FakeOutput) Close() error {
	f.Closed = true
	return nil
}

// Reset clears recorded writes and errors, keeping the current level.
func (f *FakeOutput) Reset() {
	f.Writes = nil
	f.SetError = nil
	f.Closed = false
}

// FakeLines bundles one FakeOutput per controller line.
type FakeLines struct {
	Data         *FakeOutput
	AuxEnable    *FakeOutput
	MuxSelect    *FakeOutput
	PowerEnableN *FakeOutput
}

// NewFakeLines creates fakes at the levels OpenLines requests: data
// released high, supplies off, shared enable inactive high.
func NewFakeLines(now func() time.Time) *FakeLines {
	return &FakeLines{
		Data:         NewFakeOutput("data", High, now),
		AuxEnable:    NewFakeOutput("aux_enable", Low, now),
		MuxSelect:    NewFakeOutput("mux_select", Low, now),
		PowerEnableN: NewFakeOutput("power_enable_n", High, now),
	}
}

// Lines returns the fakes as a Lines value.
func (f *FakeLines) Lines() *Lines {
	return &Lines{
		Data:         f.Data,
		AuxEnable:    f.AuxEnable,
		MuxSelect:    f.MuxSelect,
		PowerEnableN: f.PowerEnableN,
	}
}
