package main

import (
	"errors"
	"fmt"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/sweeney/humidity-request/internal/logic"
	"github.com/sweeney/humidity-request/internal/mqtt"
	"github.com/sweeney/humidity-request/internal/status"
)

// TestEnvVarNames verifies the env var constants match what pi-helper writes
// to /run/pi-helper.env. If pi-helper changes its var names, this test fails
// and we update the constants, not the other way around.
func TestEnvVarNames(t *testing.T) {
	want := map[string]string{
		"NETWORK_TYPE":        envNetworkType,
		"NETWORK_IP":          envNetworkIP,
		"NETWORK_STATUS":      envNetworkStatus,
		"NETWORK_GATEWAY":     envNetworkGateway,
		"NETWORK_WIFI_STATUS": envNetworkWifiStatus,
		"NETWORK_WIFI_SSID":   envNetworkWifiSSID,
	}
	for canonical, got := range want {
		if got != canonical {
			t.Errorf("env var constant: got %q, want %q", got, canonical)
		}
	}
}

func TestReadNetworkInfoAllSet(t *testing.T) {
	t.Setenv(envNetworkType, "wifi")
	t.Setenv(envNetworkIP, "192.168.1.100")
	t.Setenv(envNetworkStatus, "connected")
	t.Setenv(envNetworkGateway, "192.168.1.1")
	t.Setenv(envNetworkWifiStatus, "connected")
	t.Setenv(envNetworkWifiSSID, "MyNetwork")

	info := readNetworkInfo()
	if info == nil {
		t.Fatal("expected non-nil NetworkInfo")
	}

	want := status.NetworkInfo{
		Type:       "wifi",
		IP:         "192.168.1.100",
		Status:     "connected",
		Gateway:    "192.168.1.1",
		WifiStatus: "connected",
		SSID:       "MyNetwork",
	}
	if *info != want {
		t.Errorf("got %+v, want %+v", *info, want)
	}
}

func TestReadNetworkInfoNoneSet(t *testing.T) {
	t.Setenv(envNetworkStatus, "")
	if info := readNetworkInfo(); info != nil {
		t.Errorf("expected nil when NETWORK_STATUS is unset, got %+v", info)
	}
}

func TestReadNetworkInfoPartial(t *testing.T) {
	t.Setenv(envNetworkStatus, "connected")
	t.Setenv(envNetworkType, "")
	t.Setenv(envNetworkIP, "")

	info := readNetworkInfo()
	if info == nil {
		t.Fatal("expected non-nil NetworkInfo when NETWORK_STATUS is set")
	}
	if info.Status != "connected" {
		t.Errorf("Status: got %q, want %q", info.Status, "connected")
	}
	if info.Type != "" || info.IP != "" {
		t.Errorf("expected empty Type and IP, got %+v", info)
	}
}

func TestResolveWSBroker(t *testing.T) {
	tests := []struct {
		ws, broker, want string
	}{
		{"=broker", "tcp://192.168.1.200:1883", "ws://192.168.1.200:9001"},
		{"=broker", "tcp://broker.local:1883", "ws://broker.local:9001"},
		{"ws://other:8080/mqtt", "tcp://192.168.1.200:1883", "ws://other:8080/mqtt"},
		{"off", "tcp://192.168.1.200:1883", ""},
		{"", "tcp://192.168.1.200:1883", ""},
		{"=broker", "://bad", ""},
	}
	for _, tt := range tests {
		if got := resolveWSBroker(tt.ws, tt.broker); got != tt.want {
			t.Errorf("resolveWSBroker(%q, %q): got %q, want %q", tt.ws, tt.broker, got, tt.want)
		}
	}
}

// --- runLoop tests ---

// fakeLifecycle records hook calls in order. Only runLoop's goroutine
// touches it until runLoop returns.
type fakeLifecycle struct {
	startErr error
	calls    []string
}

func (f *fakeLifecycle) OnStart() error {
	f.calls = append(f.calls, "start")
	return f.startErr
}

func (f *fakeLifecycle) OnSuspend() { f.calls = append(f.calls, "suspend") }
func (f *fakeLifecycle) OnResume()  { f.calls = append(f.calls, "resume") }

type loopResult struct {
	reason string
	err    error
}

func startRunLoop(lc logic.Lifecycle) (chan func(), chan os.Signal, chan loopResult) {
	callbacks := make(chan func())
	sig := make(chan os.Signal)
	done := make(chan loopResult, 1)
	go func() {
		reason, err := runLoop(lc, callbacks, sig)
		done <- loopResult{reason, err}
	}()
	return callbacks, sig, done
}

func equalCalls(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRunLoopRunsCallbacksInOrder(t *testing.T) {
	lc := &fakeLifecycle{}
	callbacks, sig, done := startRunLoop(lc)

	for i := 0; i < 3; i++ {
		n := i
		callbacks <- func() { lc.calls = append(lc.calls, fmt.Sprintf("cb%d", n)) }
	}
	sig <- syscall.SIGTERM

	res := <-done
	if res.err != nil {
		t.Fatalf("runLoop returned error: %v", res.err)
	}
	want := []string{"start", "cb0", "cb1", "cb2", "suspend"}
	if !equalCalls(lc.calls, want) {
		t.Errorf("calls: got %v, want %v", lc.calls, want)
	}
	if res.reason != signalName(syscall.SIGTERM) {
		t.Errorf("reason: got %q, want %q", res.reason, signalName(syscall.SIGTERM))
	}
}

func TestRunLoopStartError(t *testing.T) {
	lc := &fakeLifecycle{startErr: logic.ErrAlreadyStarted}
	_, _, done := startRunLoop(lc)

	res := <-done
	if !errors.Is(res.err, logic.ErrAlreadyStarted) {
		t.Errorf("expected ErrAlreadyStarted, got %v", res.err)
	}
	if !equalCalls(lc.calls, []string{"start"}) {
		t.Errorf("calls: got %v, want [start]", lc.calls)
	}
}

func TestRunLoopShutdownSuspendsFirst(t *testing.T) {
	for _, s := range []os.Signal{os.Interrupt, syscall.SIGTERM} {
		lc := &fakeLifecycle{}
		_, sig, done := startRunLoop(lc)
		sig <- s

		res := <-done
		if res.err != nil {
			t.Fatalf("%v: runLoop returned error: %v", s, res.err)
		}
		if !equalCalls(lc.calls, []string{"start", "suspend"}) {
			t.Errorf("%v: calls: got %v, want [start suspend]", s, lc.calls)
		}
	}
}

func TestRunLoopSleepWake(t *testing.T) {
	if sleepSignal == nil || wakeSignal == nil {
		t.Skip("no sleep/wake signals on this platform")
	}
	lc := &fakeLifecycle{}
	callbacks, sig, done := startRunLoop(lc)

	sig <- sleepSignal
	callbacks <- func() { lc.calls = append(lc.calls, "tick") }
	sig <- wakeSignal
	sig <- syscall.SIGTERM

	res := <-done
	if res.err != nil {
		t.Fatalf("runLoop returned error: %v", res.err)
	}
	want := []string{"start", "suspend", "tick", "resume", "suspend"}
	if !equalCalls(lc.calls, want) {
		t.Errorf("calls: got %v, want %v", lc.calls, want)
	}
}

// --- notifier and publishLoop tests ---

var epoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestTracker() *status.Tracker {
	return status.NewTracker(epoch, status.Config{PeriodMs: 3000, ReleaseDelayUs: 18000})
}

func TestEnqueueRecordsAndQueues(t *testing.T) {
	tracker := newTestTracker()
	events := make(chan logic.Event, 1)
	notify := enqueue(tracker, events)

	notify(logic.Event{Timestamp: epoch, Type: logic.EventTrigger, Cycle: 1, State: logic.StateRequesting, Line: logic.LineAsserted, Power: logic.PowerPowered})

	select {
	case e := <-events:
		if e.Type != logic.EventTrigger || e.Cycle != 1 {
			t.Errorf("unexpected queued event %+v", e)
		}
	default:
		t.Fatal("expected event to be queued")
	}

	snap := tracker.Snapshot()
	if snap.Cycle != 1 || snap.Counts.Triggers != 1 || snap.State != logic.StateRequesting {
		t.Errorf("tracker not updated: %+v", snap)
	}
}

func TestEnqueueDropsWhenFull(t *testing.T) {
	tracker := newTestTracker()
	events := make(chan logic.Event, 1)
	notify := enqueue(tracker, events)

	for i := 1; i <= 3; i++ {
		notify(logic.Event{Timestamp: epoch, Type: logic.EventTrigger, Cycle: i})
	}

	if len(events) != 1 {
		t.Errorf("expected 1 queued event, got %d", len(events))
	}
	snap := tracker.Snapshot()
	if snap.Dropped != 2 {
		t.Errorf("Dropped: got %d, want 2", snap.Dropped)
	}
	// Dropped events still reach the tracker.
	if snap.Counts.Triggers != 3 || snap.Cycle != 3 {
		t.Errorf("tracker should see every event, got %+v", snap)
	}
}

func TestPublishLoopPublishesUntilClosed(t *testing.T) {
	pub := mqtt.NewFakePublisher()
	pub.Connected = true
	tracker := newTestTracker()
	events := make(chan logic.Event, 4)

	events <- logic.Event{Timestamp: epoch, Type: logic.EventTrigger, Cycle: 1}
	events <- logic.Event{Timestamp: epoch.Add(18 * time.Millisecond), Type: logic.EventRelease, Cycle: 1}
	close(events)

	publishLoop(pub, pub, tracker, events, nil)

	if len(pub.Events) != 2 {
		t.Fatalf("expected 2 published events, got %d", len(pub.Events))
	}
	if pub.Events[0].Type != logic.EventTrigger || pub.Events[1].Type != logic.EventRelease {
		t.Errorf("unexpected order: %v, %v", pub.Events[0].Type, pub.Events[1].Type)
	}
	if !tracker.Snapshot().MQTTConnected {
		t.Error("expected tracker to record MQTT connected")
	}
}

func TestPublishLoopPublishErrorContinues(t *testing.T) {
	pub := mqtt.NewFakePublisher()
	pub.PublishError = fmt.Errorf("broker unavailable")
	events := make(chan logic.Event, 2)
	events <- logic.Event{Type: logic.EventTrigger, Cycle: 1}
	events <- logic.Event{Type: logic.EventRelease, Cycle: 1}
	close(events)

	// Returns once the channel is drained despite every publish failing.
	publishLoop(pub, pub, newTestTracker(), events, nil)

	if len(pub.Events) != 0 {
		t.Errorf("expected 0 recorded events (publish failed), got %d", len(pub.Events))
	}
}

func TestPublishLoopHeartbeat(t *testing.T) {
	t.Setenv(envNetworkStatus, "connected")
	t.Setenv(envNetworkIP, "192.168.1.50")

	pub := mqtt.NewFakePublisher()
	tracker := newTestTracker()
	events := make(chan logic.Event)
	hb := make(chan time.Time)

	done := make(chan struct{})
	go func() {
		publishLoop(pub, pub, tracker, events, hb)
		close(done)
	}()

	hb <- time.Now()
	close(events)
	<-done

	if len(pub.SystemEvents) != 1 {
		t.Fatalf("expected 1 system event, got %d", len(pub.SystemEvents))
	}
	se := pub.SystemEvents[0]
	if se.Event != "HEARTBEAT" {
		t.Errorf("expected HEARTBEAT, got %q", se.Event)
	}
	if se.Retained {
		t.Error("HEARTBEAT should not be retained")
	}
	if len(se.RawPayload) == 0 {
		t.Error("expected status payload on HEARTBEAT")
	}
	if snap := tracker.Snapshot(); snap.Network == nil || snap.Network.IP != "192.168.1.50" {
		t.Errorf("expected heartbeat to refresh network info, got %+v", snap.Network)
	}
}

func TestPublishSystemRetained(t *testing.T) {
	pub := mqtt.NewFakePublisher()
	tracker := newTestTracker()

	publishSystem(pub, tracker, "STARTUP", "")
	publishSystem(pub, tracker, "SHUTDOWN", "SIGTERM")

	if len(pub.SystemEvents) != 2 {
		t.Fatalf("expected 2 system events, got %d", len(pub.SystemEvents))
	}
	for _, se := range pub.SystemEvents {
		if !se.Retained {
			t.Errorf("%s should be retained", se.Event)
		}
	}
	if pub.SystemEvents[1].Reason != "SIGTERM" {
		t.Errorf("expected reason SIGTERM, got %q", pub.SystemEvents[1].Reason)
	}
}

func TestPublishSystemErrorDoesNotPanic(t *testing.T) {
	pub := mqtt.NewFakePublisher()
	pub.PublishSystemError = fmt.Errorf("broker unavailable")

	publishSystem(pub, newTestTracker(), "SHUTDOWN", "SIGINT")

	if len(pub.SystemEvents) != 0 {
		t.Errorf("expected no recorded system events, got %d", len(pub.SystemEvents))
	}
}
