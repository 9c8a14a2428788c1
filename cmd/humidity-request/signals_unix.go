//go:build unix

package main

import (
	"os"

	"golang.org/x/sys/unix"
)

// A system-sleep hook sends SIGUSR1 before suspend and SIGUSR2 after resume.
var (
	sleepSignal os.Signal = unix.SIGUSR1
	wakeSignal  os.Signal = unix.SIGUSR2
)

func watchedSignals() []os.Signal {
	return []os.Signal{unix.SIGINT, unix.SIGTERM, sleepSignal, wakeSignal}
}

func signalName(s os.Signal) string {
	if us, ok := s.(unix.Signal); ok {
		if name := unix.SignalName(us); name != "" {
			return name
		}
	}
	return s.String()
}
