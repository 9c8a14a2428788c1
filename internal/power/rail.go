// Package power switches the sensor's supply rail.
package power

import (
	"errors"
	"fmt"

	"github.com/sweeney/humidity-request/internal/gpio"
)

// Rail drives the three lines that put 3.3V on the sensor tip: the
// auxiliary supply enable, the multiplexer select, and the shared enable,
// which is active low.
type Rail struct {
	auxEnable gpio.Output
	muxSelect gpio.Output
	enableN   gpio.Output
	powered   bool
}

// NewRail creates a Rail. It assumes the lines start unpowered.
func NewRail(auxEnable, muxSelect, enableN gpio.Output) *Rail {
	return &Rail{
		auxEnable: auxEnable,
		muxSelect: muxSelect,
		enableN:   enableN,
	}
}

// Energize asserts all three lines. Safe to call repeatedly.
// The rail is only reported powered if every write succeeded.
func (r *Rail) Energize() error {
	var errs []error
	if err := r.auxEnable.High(); err != nil {
		errs = append(errs, fmt.Errorf("aux enable: %w", err))
	}
	if err := r.muxSelect.High(); err != nil {
		errs = append(errs, fmt.Errorf("mux select: %w", err))
	}
	if err := r.enableN.Low(); err != nil {
		errs = append(errs, fmt.Errorf("shared enable: %w", err))
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	r.powered = true
	return nil
}

// Deenergize drives the shared enable inactive, isolating the sensor.
// The supply and select lines are left as they are.
func (r *Rail) Deenergize() error {
	if err := r.enableN.High(); err != nil {
		return fmt.Errorf("shared enable: %w", err)
	}
	r.powered = false
	return nil
}

// Powered reports whether the last transition left the rail powered.
func (r *Rail) Powered() bool {
	return r.powered
}
