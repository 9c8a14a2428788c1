// Package status provides a thread-safe status tracker for the humidity-request daemon.
// It is written by the controller's event notifier and read by HTTP handlers
// and the MQTT heartbeat.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/humidity-request/internal/logic"
)

// NetworkInfo contains network state.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	PeriodMs       int64
	ReleaseDelayUs int64
	HeartbeatMs    int64
	Chip           string
	DataPin        int
	Broker         string
	HTTPAddr       string
	WSBroker       string // Websocket broker URL for browser MQTT (empty = disabled)
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	State         logic.State
	Line          logic.LineState
	Power         logic.PowerState
	Cycle         int
	Started       bool
	Suspended     bool
	Counts        logic.EventCounts
	LastTrigger   time.Time
	LastRelease   time.Time
	Dropped       int // events not handed to the publisher
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Record applies a controller event. Called on the callback executor, so
// it only takes the lock briefly.
func (t *Tracker) Record(e logic.Event) {
	t.mu.Lock()
	t.snap.State = e.State
	t.snap.Line = e.Line
	t.snap.Power = e.Power
	t.snap.Cycle = e.Cycle
	t.snap.Counts.Add(e.Type)
	switch e.Type {
	case logic.EventStart:
		t.snap.Started = true
	case logic.EventTrigger:
		t.snap.LastTrigger = e.Timestamp
	case logic.EventRelease:
		t.snap.LastRelease = e.Timestamp
	case logic.EventSleep:
		t.snap.Suspended = true
	case logic.EventWake:
		t.snap.Suspended = false
	}
	t.mu.Unlock()
}

// AddDropped counts an event that could not be queued for publishing.
func (t *Tracker) AddDropped() {
	t.mu.Lock()
	t.snap.Dropped++
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
