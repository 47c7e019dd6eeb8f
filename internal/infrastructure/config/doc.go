// Package config loads and validates GateWise Core configuration.
//
// Configuration is layered: hardcoded defaults, then an optional YAML file,
// then GATEWISE_* environment variables. The environment layer exists so a
// kiosk image can be configured entirely from systemd unit files without
// shipping a config file.
//
// Validation distinguishes required settings (admin secret, relay pin when
// the garage is enabled) from optional features (door sensor, auto-close,
// MQTT sync, InfluxDB telemetry) which silently stay disabled when unset.
package config
