// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/humidity-request/internal/logic"
)

// Topic is the MQTT topic for request cycle events.
const Topic = "sensors/humidity/request/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "sensors/humidity/request/system"

// TimestampFormat is RFC 3339 with millisecond precision; cycle timing is
// only visible below one second.
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a request cycle event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT", "OFFLINE"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Request RequestPayload `json:"request"`
}

// RequestPayload contains the request cycle event details.
type RequestPayload struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Cycle     int    `json:"cycle"`
	State     string `json:"state"`
	Line      string `json:"line"`
	Power     string `json:"power"`
}

// FormatPayload creates the JSON payload for a request cycle event.
func FormatPayload(event logic.Event) ([]byte, error) {
	payload := Payload{
		Request: RequestPayload{
			Timestamp: event.Timestamp.UTC().Format(TimestampFormat),
			Event:     string(event.Type),
			Cycle:     event.Cycle,
			State:     string(event.State),
			Line:      string(event.Line),
			Power:     string(event.Power),
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (the OFFLINE will) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
