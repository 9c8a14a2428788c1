//go:build linux

package gpio

import (
	"errors"
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealOutput drives a line on the Linux GPIO character device.
type RealOutput struct {
	line   *gpiocdev.Line
	name   string
	pullUp bool
}

// High drives the line to logic 1.
func (o *RealOutput) High() error {
	if err := o.line.SetValue(1); err != nil {
		return fmt.Errorf("set %s high: %w", o.name, err)
	}
	return nil
}

// Low drives the line to logic 0.
func (o *RealOutput) Low() error {
	if err := o.line.SetValue(0); err != nil {
		return fmt.Errorf("set %s low: %w", o.name, err)
	}
	return nil
}

// Close releases the line. A pulled-up line is first reconfigured as an
// input with pull-up so the wire is left released rather than driven.
func (o *RealOutput) Close() error {
	var errs []error
	if o.pullUp {
		if err := o.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullUp); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure %s: %w", o.name, err))
		}
	}
	if err := o.line.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close %s: %w", o.name, err))
	}
	return errors.Join(errs...)
}

// OpenLines requests the four controller lines as outputs.
// The data line starts released (high, pull-up) and the shared enable
// starts inactive (high), so nothing is powered or requested until the
// controller acts.
func OpenLines(cfg Config) (*Lines, error) {
	chip, err := gpiocdev.NewChip(cfg.Chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	lines := &Lines{chip: chip}
	request := func(name string, offset, initial int, pullUp bool) (*RealOutput, error) {
		opts := []gpiocdev.LineReqOption{gpiocdev.AsOutput(initial), gpiocdev.WithConsumer(consumer)}
		if pullUp {
			opts = append(opts, gpiocdev.WithPullUp)
		}
		l, err := chip.RequestLine(offset, opts...)
		if err != nil {
			return nil, fmt.Errorf("request %s pin %d: %w", name, offset, err)
		}
		return &RealOutput{line: l, name: name, pullUp: pullUp}, nil
	}

	specs := []struct {
		name    string
		offset  int
		initial int
		pullUp  bool
		dst     *Output
	}{
		{"data", cfg.Data, 1, true, &lines.Data},
		{"aux_enable", cfg.AuxEnable, 0, false, &lines.AuxEnable},
		{"mux_select", cfg.MuxSelect, 0, false, &lines.MuxSelect},
		{"power_enable_n", cfg.PowerEnableN, 1, false, &lines.PowerEnableN},
	}
	for _, s := range specs {
		out, err := request(s.name, s.offset, s.initial, s.pullUp)
		if err != nil {
			lines.Close()
			return nil, err
		}
		*s.dst = out
	}

	return lines, nil
}
