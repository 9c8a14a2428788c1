//go:build !unix

package main

import (
	"os"
	"syscall"
)

// No sleep/wake signals off unix; only shutdown is handled.
var (
	sleepSignal os.Signal
	wakeSignal  os.Signal
)

func watchedSignals() []os.Signal {
	return []os.Signal{os.Interrupt, syscall.SIGTERM}
}

func signalName(s os.Signal) string {
	return s.String()
}
