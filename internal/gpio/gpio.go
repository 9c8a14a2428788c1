// Package gpio provides digital output lines with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import (
	"errors"
	"io"
)

// Output drives a single digital line.
type Output interface {
	// High drives the line to logic 1.
	High() error

	// Low drives the line to logic 0.
	Low() error

	// Close releases the line.
	Close() error
}

// Level is a logic level.
type Level int

const (
	Low  Level = 0
	High Level = 1
)

func (l Level) String() string {
	if l == High {
		return "HIGH"
	}
	return "LOW"
}

// DefaultChip is the Raspberry Pi header GPIO chip.
const DefaultChip = "gpiochip0"

// Pin definitions (BCM numbering)
const (
	PinData         = 4  // sensor data wire, pulled up
	PinAuxEnable    = 17 // auxiliary supply enable, active high
	PinMuxSelect    = 27 // analog multiplexer select, active high
	PinPowerEnableN = 22 // shared power enable, active low
)

const consumer = "humidity-request"

// Config selects the chip and line offsets.
type Config struct {
	Chip         string
	Data         int
	AuxEnable    int
	MuxSelect    int
	PowerEnableN int
}

// DefaultConfig returns the default pin assignment.
func DefaultConfig() Config {
	return Config{
		Chip:         DefaultChip,
		Data:         PinData,
		AuxEnable:    PinAuxEnable,
		MuxSelect:    PinMuxSelect,
		PowerEnableN: PinPowerEnableN,
	}
}

// Lines holds the four lines owned by the controller.
type Lines struct {
	Data         Output
	AuxEnable    Output
	MuxSelect    Output
	PowerEnableN Output

	chip io.Closer
}

// Close releases every line and then the chip.
func (l *Lines) Close() error {
	var errs []error
	for _, o := range []Output{l.Data, l.AuxEnable, l.MuxSelect, l.PowerEnableN} {
		if o == nil {
			continue
		}
		if err := o.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if l.chip != nil {
		if err := l.chip.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
