package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	State         string       `json:"state"`
	Line          string       `json:"line"`
	Power         string       `json:"power"`
	Cycle         int          `json:"cycle"`
	Started       bool         `json:"started"`
	Suspended     bool         `json:"suspended"`
	LastTrigger   string       `json:"last_trigger,omitempty"`
	LastRelease   string       `json:"last_release,omitempty"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"event_counts"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
	Dropped   int    `json:"dropped_events"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	Trigger int `json:"trigger"`
	Release int `json:"release"`
	Sleep   int `json:"sleep"`
	Wake    int `json:"wake"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PeriodMs       int64  `json:"period_ms"`
	ReleaseDelayUs int64  `json:"release_delay_us"`
	HeartbeatMs    int64  `json:"heartbeat_ms"`
	Chip           string `json:"chip"`
	DataPin        int    `json:"data_pin"`
	Broker         string `json:"broker"`
	HTTPAddr       string `json:"http_addr"`
	WSBroker       string `json:"ws_broker,omitempty"`
}

const millisFormat = "2006-01-02T15:04:05.000Z07:00"

func orUnknown(s string) string {
	if s == "" {
		return "UNKNOWN"
	}
	return s
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(millisFormat)
}

func buildInner(snap Snapshot) StatusInner {
	return StatusInner{
		State:         orUnknown(string(snap.State)),
		Line:          orUnknown(string(snap.Line)),
		Power:         orUnknown(string(snap.Power)),
		Cycle:         snap.Cycle,
		Started:       snap.Started,
		Suspended:     snap.Suspended,
		LastTrigger:   formatTime(snap.LastTrigger),
		LastRelease:   formatTime(snap.LastRelease),
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT: MQTTStatus{
			Connected: snap.MQTTConnected,
			Broker:    snap.Config.Broker,
			Dropped:   snap.Dropped,
		},
		Counts: CountsJSON{
			Trigger: snap.Counts.Triggers,
			Release: snap.Counts.Releases,
			Sleep:   snap.Counts.Sleeps,
			Wake:    snap.Counts.Wakes,
		},
		Config: ConfigJSON{
			PeriodMs:       snap.Config.PeriodMs,
			ReleaseDelayUs: snap.Config.ReleaseDelayUs,
			HeartbeatMs:    snap.Config.HeartbeatMs,
			Chip:           snap.Config.Chip,
			DataPin:        snap.Config.DataPin,
			Broker:         snap.Config.Broker,
			HTTPAddr:       snap.Config.HTTPAddr,
			WSBroker:       snap.Config.WSBroker,
		},
	}
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
