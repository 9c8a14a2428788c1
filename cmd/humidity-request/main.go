// Command humidity-request periodically triggers a single-wire humidity
// sensor and publishes each request cycle to MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"time"

	"github.com/sweeney/humidity-request/internal/config"
	"github.com/sweeney/humidity-request/internal/gpio"
	"github.com/sweeney/humidity-request/internal/logic"
	"github.com/sweeney/humidity-request/internal/mqtt"
	"github.com/sweeney/humidity-request/internal/power"
	"github.com/sweeney/humidity-request/internal/status"
	"github.com/sweeney/humidity-request/internal/timer"
	"github.com/sweeney/humidity-request/internal/web"
)

// eventQueue bounds the events waiting for the publisher. A full queue
// drops events rather than delaying the callback executor.
const eventQueue = 64

func main() {
	configPath := flag.String("config", "", "YAML config file (defaults are used when empty)")
	broker := flag.String("broker", "", "MQTT broker address (overrides mqtt.broker)")
	httpAddr := flag.String("http", "", "HTTP status address, \"off\" to disable (overrides http.addr)")
	heartbeat := flag.Duration("heartbeat", 0, "Heartbeat interval, 0 to disable (overrides heartbeat)")
	wsBroker := flag.String("ws-broker", "", `MQTT websocket URL for live UI ("=broker" derives from the broker, "off" disables)`)
	printConfig := flag.Bool("print-config", false, "Print the effective config and exit")

	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("fatal: load config: %v", err)
		}
		cfg = loaded
	}

	// Only flags given on the command line override the file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "broker":
			cfg.MQTT.Broker = *broker
		case "http":
			cfg.HTTP.Addr = *httpAddr
			if cfg.HTTP.Addr == "off" {
				cfg.HTTP.Addr = ""
			}
		case "heartbeat":
			cfg.Heartbeat = *heartbeat
		case "ws-broker":
			cfg.MQTT.WSBroker = *wsBroker
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("fatal: %v", err)
	}

	if *printConfig {
		b, err := cfg.Marshal()
		if err != nil {
			log.Fatalf("fatal: %v", err)
		}
		fmt.Print(string(b))
		return
	}

	if err := run(cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg config.Config) error {
	// Initialize GPIO
	lines, err := gpio.OpenLines(cfg.Lines())
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer func() {
		if err := lines.Close(); err != nil {
			log.Printf("gpio close error: %v", err)
		}
	}()

	// Initialize MQTT
	publisher, err := mqtt.NewRealPublisher(cfg.MQTT.Broker, cfg.MQTT.ClientID)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	ws := resolveWSBroker(cfg.MQTT.WSBroker, cfg.MQTT.Broker)

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		PeriodMs:       cfg.Request.Period.Milliseconds(),
		ReleaseDelayUs: cfg.Request.ReleaseDelay.Microseconds(),
		HeartbeatMs:    cfg.Heartbeat.Milliseconds(),
		Chip:           cfg.GPIO.Chip,
		DataPin:        cfg.GPIO.Data,
		Broker:         cfg.MQTT.Broker,
		HTTPAddr:       cfg.HTTP.Addr,
		WSBroker:       ws,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}
	tracker.SetMQTTConnected(publisher.IsConnected())

	publishSystem(publisher, tracker, "STARTUP", "")

	// Start HTTP status server
	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTP.Addr)
	}

	disp := timer.NewDispatcher(4)
	events := make(chan logic.Event, eventQueue)

	ctrl, err := logic.NewController(cfg.Controller(), logic.Hardware{
		Data:     lines.Data,
		Rail:     power.NewRail(lines.AuxEnable, lines.MuxSelect, lines.PowerEnableN),
		Trigger:  timer.NewPeriodic(disp),
		Release:  timer.NewOneShot(disp),
		Clock:    disp,
		Notifier: enqueue(tracker, events),
	})
	if err != nil {
		disp.Close()
		return err
	}

	var hb <-chan time.Time
	if cfg.Heartbeat > 0 {
		ticker := time.NewTicker(cfg.Heartbeat)
		defer ticker.Stop()
		hb = ticker.C
	}
	published := make(chan struct{})
	go func() {
		publishLoop(publisher, publisher, tracker, events, hb)
		close(published)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, watchedSignals()...)
	defer signal.Stop(sigCh)

	log.Printf("started: period=%v release=%v chip=%s data=%d broker=%s heartbeat=%v",
		cfg.Request.Period, cfg.Request.ReleaseDelay, cfg.GPIO.Chip, cfg.GPIO.Data, cfg.MQTT.Broker, cfg.Heartbeat)

	reason, err := runLoop(ctrl, disp.C(), sigCh)

	// No callback runs after runLoop returns, so nothing else sends on events.
	disp.Close()
	close(events)
	<-published

	if err != nil {
		return err
	}
	tracker.SetMQTTConnected(publisher.IsConnected())
	publishSystem(publisher, tracker, "SHUTDOWN", reason)
	return nil
}

// runLoop starts the controller and then is the only goroutine that calls
// into it: expired timer callbacks and signal hooks run here one at a time.
// It returns the name of the signal that stopped it.
func runLoop(lc logic.Lifecycle, callbacks <-chan func(), sig <-chan os.Signal) (string, error) {
	if err := lc.OnStart(); err != nil {
		return "", fmt.Errorf("start controller: %w", err)
	}

	for {
		select {
		case f := <-callbacks:
			f()

		case s := <-sig:
			switch s {
			case sleepSignal:
				log.Printf("received %s, entering sleep", signalName(s))
				lc.OnSuspend()
			case wakeSignal:
				log.Printf("received %s, waking", signalName(s))
				lc.OnResume()
			default:
				log.Printf("received %s, shutting down", signalName(s))
				// Leave the sensor unpowered.
				lc.OnSuspend()
				return signalName(s), nil
			}
		}
	}
}

// enqueue returns the controller notifier. It runs on the executor, so it
// records the event and hands it to the publisher without blocking.
func enqueue(tracker *status.Tracker, events chan<- logic.Event) logic.NotifierFunc {
	return func(e logic.Event) {
		tracker.Record(e)
		select {
		case events <- e:
		default:
			tracker.AddDropped()
			log.Printf("publish queue full, dropped %s (cycle %d)", e.Type, e.Cycle)
		}
	}
}

// publishLoop sends controller events and heartbeats to the broker until
// events is closed.
func publishLoop(publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, events <-chan logic.Event, heartbeat <-chan time.Time) {
	for {
		select {
		case e, ok := <-events:
			if !ok {
				return
			}
			switch e.Type {
			case logic.EventTrigger, logic.EventRelease:
			default:
				log.Printf("event: %s (state=%s line=%s power=%s)", e.Type, e.State, e.Line, e.Power)
			}
			if err := publisher.Publish(e); err != nil {
				log.Printf("publish error: %v", err)
				// Don't crash on publish failure
			}
			tracker.SetMQTTConnected(mqttStatus.IsConnected())

		case <-heartbeat:
			tracker.SetMQTTConnected(mqttStatus.IsConnected())
			// Refresh network info for heartbeat
			if net := readNetworkInfo(); net != nil {
				tracker.SetNetwork(net)
			}
			snap := tracker.Snapshot()
			log.Printf("heartbeat: uptime=%v cycle=%d state=%s power=%s dropped=%d",
				snap.Uptime().Round(time.Second), snap.Cycle, snap.State, snap.Power, snap.Dropped)
			publishSystem(publisher, tracker, "HEARTBEAT", "")
		}
	}
}

// publishSystem publishes a system event carrying a full status snapshot.
// STARTUP and SHUTDOWN are retained so the broker always holds the last
// lifecycle state.
func publishSystem(publisher mqtt.Publisher, tracker *status.Tracker, event, reason string) {
	snap := tracker.Snapshot()
	se := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      event,
		Reason:     reason,
		Retained:   event != "HEARTBEAT",
		RawPayload: status.FormatStatusEvent(snap, event, reason),
	}
	if err := publisher.PublishSystem(se); err != nil {
		log.Printf("failed to publish %s event: %v", event, err)
		return
	}
	if event != "HEARTBEAT" {
		log.Printf("published %s event", event)
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

// resolveWSBroker converts the ws_broker setting into a concrete URL.
// "=broker" derives ws://host:9001 from the TCP broker address; "off" or
// empty disables.
func resolveWSBroker(ws, broker string) string {
	if ws == "off" || ws == "" {
		return ""
	}
	if ws != "=broker" {
		return ws
	}
	u, err := url.Parse(broker)
	if err != nil {
		log.Printf("ws-broker: cannot parse broker %q: %v", broker, err)
		return ""
	}
	u.Scheme = "ws"
	u.Host = u.Hostname() + ":9001"
	return u.String()
}
