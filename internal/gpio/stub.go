//go:build !linux

package gpio

import "errors"

// OpenLines returns an error on non-Linux platforms.
func OpenLines(cfg Config) (*Lines, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}
