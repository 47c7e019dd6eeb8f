package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for GateWise Core.
// All configuration is loaded from YAML and can be overridden by environment
// variables; an installation with no config file at all can be driven purely
// by GATEWISE_* variables.
type Config struct {
	Site     SiteConfig     `yaml:"site"`
	Admin    AdminConfig    `yaml:"admin"`
	Garage   GarageConfig   `yaml:"garage"`
	GPIO     GPIOConfig     `yaml:"gpio"`
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	API      APIConfig      `yaml:"api"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SiteConfig contains site-specific information.
type SiteConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Timezone string `yaml:"timezone"`
}

// AdminConfig contains the admin authentication settings.
//
// Secret has no default: the process refuses to start without
// GATEWISE_ADMIN_SECRET (or admin.secret in the config file).
type AdminConfig struct {
	Secret string `yaml:"secret"`
}

// GarageConfig contains the garage door controller settings.
//
// SensorPin and ButtonPin are optional (0 = not wired); the corresponding
// features degrade silently. RelayPin is required whenever Enabled is true.
type GarageConfig struct {
	Enabled          bool `yaml:"enabled"`
	RelayPin         int  `yaml:"relay_pin"`
	ButtonPin        int  `yaml:"button_pin"`
	SensorPin        int  `yaml:"sensor_pin"`
	RelayActiveLow   bool `yaml:"relay_active_low"`
	SensorActiveLow  bool `yaml:"sensor_active_low"`
	PulseMS          int  `yaml:"pulse_ms"`
	DebounceMS       int  `yaml:"debounce_ms"`
	MinIntervalMS    int  `yaml:"min_interval_ms"`
	AutoCloseSeconds int  `yaml:"auto_close_seconds"`
}

// GPIOConfig selects the hardware backend.
type GPIOConfig struct {
	// Backend is "sysfs" for real hardware or "mock" for development machines.
	Backend string `yaml:"backend"`
}

// StorageConfig contains the JSON document store paths.
type StorageConfig struct {
	UsersFile    string `yaml:"users_file"`
	BlackoutFile string `yaml:"blackout_file"`
	StateFile    string `yaml:"state_file"`
}

// DatabaseConfig contains SQLite event log settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains door-module notifier broker settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
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

// MQTTReconnectConfig contains MQTT reconnection settings (seconds).
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// InfluxDBConfig contains telemetry sink settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings (seconds).
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable
// overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// A missing config file is not an error — headless deployments run on
// defaults plus environment variables. A file that exists but cannot be
// parsed is an error.
//
// Environment variables follow the pattern GATEWISE_SECTION_KEY, for example
// GATEWISE_ADMIN_SECRET, GATEWISE_GARAGE_RELAY_PIN.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Fall through to env overrides.
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
// Pin numbers and the pulse width mirror the reference wiring for a
// Raspberry Pi relay board.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			ID:       "home-001",
			Name:     "GateWise",
			Timezone: "UTC",
		},
		Garage: GarageConfig{
			Enabled:         false,
			RelayPin:        17,
			ButtonPin:       27,
			RelayActiveLow:  true,
			SensorActiveLow: true,
			PulseMS:         500,
			DebounceMS:      50,
		},
		GPIO: GPIOConfig{
			Backend: "mock",
		},
		Storage: StorageConfig{
			UsersFile:    "./data/users.json",
			BlackoutFile: "./data/blackout.json",
			StateFile:    "./data/garage_state.json",
		},
		Database: DatabaseConfig{
			Path:        "./data/gatewise.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "gatewise-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies GATEWISE_* environment variable overrides.
// A variable that is set but not parseable for its type is a configuration
// error — silently ignoring a mistyped pin number would arm the wrong relay.
func applyEnvOverrides(cfg *Config) error { //nolint:gocognit,gocyclo // flat list of optional overrides
	if v := os.Getenv("GATEWISE_ADMIN_SECRET"); v != "" {
		cfg.Admin.Secret = v
	}

	if err := envBool("GATEWISE_GARAGE_ENABLED", &cfg.Garage.Enabled); err != nil {
		return err
	}
	if err := envInt("GATEWISE_GARAGE_RELAY_PIN", &cfg.Garage.RelayPin); err != nil {
		return err
	}
	if err := envInt("GATEWISE_GARAGE_BUTTON_PIN", &cfg.Garage.ButtonPin); err != nil {
		return err
	}
	if err := envInt("GATEWISE_GARAGE_SENSOR_PIN", &cfg.Garage.SensorPin); err != nil {
		return err
	}
	if err := envBool("GATEWISE_GARAGE_RELAY_ACTIVE_LOW", &cfg.Garage.RelayActiveLow); err != nil {
		return err
	}
	if err := envBool("GATEWISE_GARAGE_SENSOR_ACTIVE_LOW", &cfg.Garage.SensorActiveLow); err != nil {
		return err
	}
	if err := envInt("GATEWISE_GARAGE_PULSE_MS", &cfg.Garage.PulseMS); err != nil {
		return err
	}
	if err := envInt("GATEWISE_GARAGE_DEBOUNCE_MS", &cfg.Garage.DebounceMS); err != nil {
		return err
	}
	if err := envInt("GATEWISE_GARAGE_MIN_INTERVAL_MS", &cfg.Garage.MinIntervalMS); err != nil {
		return err
	}
	if err := envInt("GATEWISE_GARAGE_AUTO_CLOSE_SECONDS", &cfg.Garage.AutoCloseSeconds); err != nil {
		return err
	}

	if v := os.Getenv("GATEWISE_GPIO_BACKEND"); v != "" {
		cfg.GPIO.Backend = v
	}
	if v := os.Getenv("GATEWISE_USERS_FILE"); v != "" {
		cfg.Storage.UsersFile = v
	}
	if v := os.Getenv("GATEWISE_BLACKOUT_FILE"); v != "" {
		cfg.Storage.BlackoutFile = v
	}
	if v := os.Getenv("GATEWISE_GARAGE_STATE_FILE"); v != "" {
		cfg.Storage.StateFile = v
	}
	if v := os.Getenv("GATEWISE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	if err := envBool("GATEWISE_MQTT_ENABLED", &cfg.MQTT.Enabled); err != nil {
		return err
	}
	if v := os.Getenv("GATEWISE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if err := envInt("GATEWISE_MQTT_PORT", &cfg.MQTT.Broker.Port); err != nil {
		return err
	}
	if v := os.Getenv("GATEWISE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("GATEWISE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	if v := os.Getenv("GATEWISE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	if v := os.Getenv("GATEWISE_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if err := envInt("GATEWISE_API_PORT", &cfg.API.Port); err != nil {
		return err
	}

	if v := os.Getenv("GATEWISE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	return nil
}

// envInt parses an optional integer environment variable into dst.
func envInt(name string, dst *int) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %q is not a number", name, v)
	}
	*dst = n
	return nil
}

// envBool parses an optional boolean environment variable into dst.
// Accepts the usual spellings: true/false, 1/0, yes/no, on/off.
func envBool(name string, dst *bool) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	switch strings.ToLower(v) {
	case "true", "1", "yes", "on", "enabled":
		*dst = true
	case "false", "0", "no", "off", "disabled":
		*dst = false
	default:
		return fmt.Errorf("%s: %q is not a boolean", name, v)
	}
	return nil
}

// minSecretLength is the minimum admin secret length accepted at startup.
// The secret gates user management on a device controlling physical doors;
// a one-character secret is indistinguishable from no secret.
const minSecretLength = 8

// Validate checks the configuration for errors.
//
// Missing optional features (sensor pin, auto-close, MQTT, InfluxDB) are not
// errors — those features simply stay off. Missing required settings are.
func (c *Config) Validate() error {
	var errs []string

	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}

	if c.Admin.Secret == "" {
		errs = append(errs, "admin.secret is required (set GATEWISE_ADMIN_SECRET)")
	} else if len(c.Admin.Secret) < minSecretLength {
		errs = append(errs, fmt.Sprintf("admin.secret must be at least %d characters", minSecretLength))
	}

	if c.Garage.Enabled {
		if c.Garage.RelayPin <= 0 {
			errs = append(errs, "garage.relay_pin is required when garage is enabled")
		}
		if c.Garage.PulseMS <= 0 {
			errs = append(errs, "garage.pulse_ms must be positive")
		}
		if c.Garage.AutoCloseSeconds < 0 {
			errs = append(errs, "garage.auto_close_seconds must not be negative")
		}
	}

	switch c.GPIO.Backend {
	case "mock", "sysfs":
	default:
		errs = append(errs, fmt.Sprintf("gpio.backend %q is not supported (mock, sysfs)", c.GPIO.Backend))
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.Enabled && (c.MQTT.QoS < 0 || c.MQTT.QoS > 2) {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// PulseDuration returns the relay pulse width.
func (c *GarageConfig) PulseDuration() time.Duration {
	return time.Duration(c.PulseMS) * time.Millisecond
}

// Debounce returns the physical button debounce window.
func (c *GarageConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// MinInterval returns the minimum spacing between accepted triggers.
// When not configured explicitly it derives from the pulse width: a second
// trigger is meaningless while the previous pulse could still be settling.
func (c *GarageConfig) MinInterval() time.Duration {
	if c.MinIntervalMS > 0 {
		return time.Duration(c.MinIntervalMS) * time.Millisecond
	}
	return 2 * c.PulseDuration()
}

// AutoClose returns the auto-close dwell time (0 = disabled).
func (c *GarageConfig) AutoClose() time.Duration {
	return time.Duration(c.AutoCloseSeconds) * time.Second
}

// HasSensor reports whether a door position sensor is configured.
func (c *GarageConfig) HasSensor() bool {
	return c.SensorPin > 0
}

// HasButton reports whether a physical button is configured.
func (c *GarageConfig) HasButton() bool {
	return c.ButtonPin > 0
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
