// Package config loads the daemon configuration from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/humidity-request/internal/gpio"
	"github.com/sweeney/humidity-request/internal/logic"
)

type Config struct {
	GPIO      GPIOConfig    `yaml:"gpio"`
	Request   RequestConfig `yaml:"request"`
	MQTT      MQTTConfig    `yaml:"mqtt"`
	HTTP      HTTPConfig    `yaml:"http"`
	Heartbeat time.Duration `yaml:"heartbeat"`
}

type GPIOConfig struct {
	Chip         string `yaml:"chip"`
	Data         int    `yaml:"data"`
	AuxEnable    int    `yaml:"aux_enable"`
	MuxSelect    int    `yaml:"mux_select"`
	PowerEnableN int    `yaml:"power_enable_n"`
}

type RequestConfig struct {
	Period       time.Duration `yaml:"period"`
	ReleaseDelay time.Duration `yaml:"release_delay"`
}

type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	// WSBroker is the websocket URL handed to the status page.
	// "=broker" derives it from Broker, "off" or empty disables.
	WSBroker string `yaml:"ws_broker"`
}

type HTTPConfig struct {
	// Addr is the status server listen address; empty disables it.
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	pins := gpio.DefaultConfig()
	timing := logic.DefaultConfig()
	return Config{
		GPIO: GPIOConfig{
			Chip:         pins.Chip,
			Data:         pins.Data,
			AuxEnable:    pins.AuxEnable,
			MuxSelect:    pins.MuxSelect,
			PowerEnableN: pins.PowerEnableN,
		},
		Request: RequestConfig{
			Period:       timing.Period,
			ReleaseDelay: timing.ReleaseDelay,
		},
		MQTT: MQTTConfig{
			Broker:   "tcp://192.168.1.200:1883",
			ClientID: "humidity-request",
			WSBroker: "=broker",
		},
		HTTP:      HTTPConfig{Addr: ":80"},
		Heartbeat: 15 * time.Minute,
	}
}

// Load reads path over the defaults and validates the result. Keys absent
// from the file keep their default values.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg, err := Parse(b)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(b []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration. Bad request timing is fatal at startup.
func (c Config) Validate() error {
	if err := c.Controller().Validate(); err != nil {
		return fmt.Errorf("request: %w", err)
	}
	if c.GPIO.Chip == "" {
		return fmt.Errorf("gpio.chip is required")
	}

	seen := map[int]string{}
	for _, p := range []struct {
		name   string
		offset int
	}{
		{"data", c.GPIO.Data},
		{"aux_enable", c.GPIO.AuxEnable},
		{"mux_select", c.GPIO.MuxSelect},
		{"power_enable_n", c.GPIO.PowerEnableN},
	} {
		if p.offset < 0 {
			return fmt.Errorf("gpio.%s must be >= 0", p.name)
		}
		if other, ok := seen[p.offset]; ok {
			return fmt.Errorf("gpio.%s and gpio.%s share line %d", other, p.name, p.offset)
		}
		seen[p.offset] = p.name
	}

	if c.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker is required")
	}
	if c.MQTT.ClientID == "" {
		return fmt.Errorf("mqtt.client_id is required")
	}
	if c.Heartbeat < 0 {
		return fmt.Errorf("heartbeat must be >= 0 (0 disables)")
	}
	return nil
}

// Controller returns the request timing.
func (c Config) Controller() logic.Config {
	return logic.Config{
		Period:       c.Request.Period,
		ReleaseDelay: c.Request.ReleaseDelay,
	}
}

// Lines returns the GPIO line assignment.
func (c Config) Lines() gpio.Config {
	return gpio.Config{
		Chip:         c.GPIO.Chip,
		Data:         c.GPIO.Data,
		AuxEnable:    c.GPIO.AuxEnable,
		MuxSelect:    c.GPIO.MuxSelect,
		PowerEnableN: c.GPIO.PowerEnableN,
	}
}

// Marshal renders the configuration as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
