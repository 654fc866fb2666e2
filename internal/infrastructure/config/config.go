package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every validation failure returned by Load and Validate.
var ErrInvalid = errors.New("config: invalid")

// Config is the root configuration structure for the RF panel service.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Panel     PanelConfig     `yaml:"panel"`
	Transmit  TransmitConfig  `yaml:"transmit"`
	Pairing   PairingConfig   `yaml:"pairing"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// PanelConfig contains the button catalog location and tap handling settings.
type PanelConfig struct {
	// CatalogFile is the YAML file describing pages, buttons and actions.
	CatalogFile string `yaml:"catalog_file"`

	// DefaultMode is the power mode the panel starts in: "ON" or "OFF".
	DefaultMode string `yaml:"default_mode"`

	// BounceTimeMS is the minimum gap between two accepted taps on the same
	// button (milliseconds). 0 disables debouncing.
	BounceTimeMS int `yaml:"bounce_time_ms"`
}

// TransmitConfig selects how resolved commands reach the radio.
type TransmitConfig struct {
	// Driver is "mqtt" (publish to the RF bridge) or "noop" (log only).
	Driver string `yaml:"driver"`

	// QoS is the MQTT QoS used for command publishes.
	QoS int `yaml:"qos"`

	// Source identifies this panel in published commands.
	Source string `yaml:"source"`
}

// PairingConfig contains settings for the socket pairing tool.
type PairingConfig struct {
	// Addresses are the house codes to train, in order.
	Addresses []uint32 `yaml:"addresses"`

	// Repeats is how many ON commands are sent per training attempt.
	Repeats int `yaml:"repeats"`

	// IntervalMS is the pause between repeated sends (milliseconds).
	IntervalMS int `yaml:"interval_ms"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string            `yaml:"level"`
	Format string            `yaml:"format"`
	Output string            `yaml:"output"`
	File   FileLoggingConfig `yaml:"file"`
}

// FileLoggingConfig contains file-based logging settings.
// Used when Output is "file".
type FileLoggingConfig struct {
	Path       string `yaml:"path"`
	MaxSize    int    `yaml:"max_size"`    // megabytes
	MaxBackups int    `yaml:"max_backups"` // rotated files kept
	MaxAge     int    `yaml:"max_age"`     // days
	Compress   bool   `yaml:"compress"`
}

// Load reads path over the built-in defaults, then applies RFPANEL_*
// environment overrides and validates the result. Unknown YAML keys are
// rejected so a typo does not silently fall back to a default.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	defer f.Close()

	cfg := defaultConfig()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Panel:    PanelConfig{CatalogFile: "configs/catalog.yaml", DefaultMode: "ON", BounceTimeMS: 500},
		Transmit: TransmitConfig{Driver: "mqtt", QoS: 1, Source: "panel"},
		Pairing:  PairingConfig{Repeats: 3, IntervalMS: 1000},
		Database: DatabaseConfig{Path: "./data/rfpanel.db", WALMode: true, BusyTimeout: 5},
		MQTT: MQTTConfig{
			Broker:    MQTTBrokerConfig{Host: "localhost", Port: 1883, ClientID: "rfpanel-core"},
			QoS:       1,
			Reconnect: MQTTReconnectConfig{InitialDelay: 1, MaxDelay: 60},
		},
		API: APIConfig{
			Enabled:  true,
			Host:     "0.0.0.0",
			Port:     8080,
			Timeouts: APITimeoutConfig{Read: 30, Write: 30, Idle: 60},
		},
		WebSocket: WebSocketConfig{Path: "/ws", MaxMessageSize: 8192, PingInterval: 30, PongTimeout: 10},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
			File:   FileLoggingConfig{Path: "./logs/rfpanel.log", MaxSize: 10, MaxBackups: 5, MaxAge: 30},
		},
	}
}

// envOverrides lists the settings that can be replaced from the
// environment, typically secrets and per-host addresses.
var envOverrides = []struct {
	name  string
	apply func(c *Config, v string)
}{
	{"RFPANEL_PANEL_CATALOG_FILE", func(c *Config, v string) { c.Panel.CatalogFile = v }},
	{"RFPANEL_PANEL_DEFAULT_MODE", func(c *Config, v string) { c.Panel.DefaultMode = v }},
	{"RFPANEL_TRANSMIT_DRIVER", func(c *Config, v string) { c.Transmit.Driver = v }},
	{"RFPANEL_TRANSMIT_SOURCE", func(c *Config, v string) { c.Transmit.Source = v }},
	{"RFPANEL_DATABASE_PATH", func(c *Config, v string) { c.Database.Path = v }},
	{"RFPANEL_MQTT_HOST", func(c *Config, v string) { c.MQTT.Broker.Host = v }},
	{"RFPANEL_MQTT_PORT", func(c *Config, v string) { setInt(&c.MQTT.Broker.Port, v) }},
	{"RFPANEL_MQTT_USERNAME", func(c *Config, v string) { c.MQTT.Auth.Username = v }},
	{"RFPANEL_MQTT_PASSWORD", func(c *Config, v string) { c.MQTT.Auth.Password = v }},
	{"RFPANEL_API_HOST", func(c *Config, v string) { c.API.Host = v }},
	{"RFPANEL_API_PORT", func(c *Config, v string) { setInt(&c.API.Port, v) }},
	{"RFPANEL_INFLUXDB_URL", func(c *Config, v string) { c.InfluxDB.URL = v }},
	{"RFPANEL_INFLUXDB_TOKEN", func(c *Config, v string) { c.InfluxDB.Token = v }},
	{"RFPANEL_LOG_LEVEL", func(c *Config, v string) { c.Logging.Level = v }},
}

func applyEnvOverrides(cfg *Config) {
	for _, o := range envOverrides {
		if v, ok := os.LookupEnv(o.name); ok && v != "" {
			o.apply(cfg, v)
		}
	}
}

// setInt leaves dst unchanged when v is not a number.
func setInt(dst *int, v string) {
	if n, err := strconv.Atoi(v); err == nil {
		*dst = n
	}
}

// Validate reports every problem at once, each wrapped in ErrInvalid.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}

	check(c.Panel.CatalogFile != "", "panel.catalog_file is required")
	mode := strings.ToUpper(c.Panel.DefaultMode)
	check(mode == "ON" || mode == "OFF", "panel.default_mode must be ON or OFF, got %q", c.Panel.DefaultMode)
	check(c.Panel.BounceTimeMS >= 0, "panel.bounce_time_ms must not be negative")

	check(c.Transmit.Driver == "mqtt" || c.Transmit.Driver == "noop",
		"transmit.driver must be mqtt or noop, got %q", c.Transmit.Driver)
	check(validQoS(c.Transmit.QoS), "transmit.qos must be 0, 1 or 2")
	check(c.Pairing.Repeats >= 0 && c.Pairing.IntervalMS >= 0, "pairing.repeats and pairing.interval_ms must not be negative")

	check(c.Database.Path != "", "database.path is required")

	check(validQoS(c.MQTT.QoS), "mqtt.qos must be 0, 1 or 2")
	if c.Transmit.Driver == "mqtt" {
		check(c.MQTT.Broker.Host != "", "mqtt.broker.host is required with the mqtt driver")
	}

	if c.API.Enabled {
		check(c.API.Port >= 1 && c.API.Port <= 65535, "api.port must be between 1 and 65535, got %d", c.API.Port)
	}
	if c.InfluxDB.Enabled {
		check(c.InfluxDB.URL != "" && c.InfluxDB.Bucket != "", "influxdb.url and influxdb.bucket are required when enabled")
	}
	if strings.EqualFold(c.Logging.Output, "file") {
		check(c.Logging.File.Path != "", "logging.file.path is required when logging.output is file")
	}

	return errors.Join(errs...)
}

func validQoS(q int) bool { return q >= 0 && q <= 2 }

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

func millis(n int) time.Duration { return time.Duration(n) * time.Millisecond }

// GetReadTimeout returns api.timeouts.read.
func (c *Config) GetReadTimeout() time.Duration { return seconds(c.API.Timeouts.Read) }

// GetWriteTimeout returns api.timeouts.write.
func (c *Config) GetWriteTimeout() time.Duration { return seconds(c.API.Timeouts.Write) }

// GetIdleTimeout returns api.timeouts.idle.
func (c *Config) GetIdleTimeout() time.Duration { return seconds(c.API.Timeouts.Idle) }

// GetBounceTime returns the per-button debounce window. Zero disables it.
func (c *Config) GetBounceTime() time.Duration { return millis(c.Panel.BounceTimeMS) }

// GetPairingInterval returns the pause between pairing bursts.
func (c *Config) GetPairingInterval() time.Duration { return millis(c.Pairing.IntervalMS) }
