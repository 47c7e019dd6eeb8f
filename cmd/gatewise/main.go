// GateWise Core - Access and Garage Control Engine
//
// This is the main entry point for the GateWise core service. It wires
// together the access decision engine, the garage door controller, the
// event log, and the presentation surfaces (REST API, WebSocket, MQTT
// door-module sync, optional InfluxDB telemetry).
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/gatewise/gatewise-core/migrations"

	"github.com/gatewise/gatewise-core/internal/access"
	"github.com/gatewise/gatewise-core/internal/events"
	"github.com/gatewise/gatewise-core/internal/garage"
	"github.com/gatewise/gatewise-core/internal/gpio"
	"github.com/gatewise/gatewise-core/internal/httpapi"
	"github.com/gatewise/gatewise-core/internal/infrastructure/config"
	"github.com/gatewise/gatewise-core/internal/infrastructure/database"
	"github.com/gatewise/gatewise-core/internal/infrastructure/influxdb"
	"github.com/gatewise/gatewise-core/internal/infrastructure/logging"
	"github.com/gatewise/gatewise-core/internal/infrastructure/mqtt"
	"github.com/gatewise/gatewise-core/internal/notify"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main so exit
// codes are handled in one place.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting GateWise Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Event store
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Event pipeline: repository -> recorder -> hub + sinks
	eventRepo := events.NewSQLiteRepository(db.DB)
	eventHub := events.NewHub()
	defer eventHub.Close()

	recorder := events.NewRecorder(eventRepo, eventHub)
	recorder.SetLogger(log)
	defer recorder.Close()

	// Access registry and blackout schedule. A corrupt store logs and
	// starts empty rather than refusing to boot; the hardware site must
	// come up even if an admin mangled a JSON file.
	registry := access.NewRegistry(cfg.Storage.UsersFile)
	registry.SetLogger(log)
	if loadErr := registry.Load(); loadErr != nil {
		if errors.Is(loadErr, access.ErrStoreCorrupt) {
			log.Warn("user store corrupt, starting with empty roster", "path", cfg.Storage.UsersFile)
		} else {
			return fmt.Errorf("loading user store: %w", loadErr)
		}
	}
	log.Info("user registry loaded", "users", registry.Count())

	schedule := access.NewSchedule(cfg.Storage.BlackoutFile)
	schedule.SetLogger(log)
	if loadErr := schedule.Load(); loadErr != nil {
		if errors.Is(loadErr, access.ErrStoreCorrupt) {
			log.Warn("blackout store corrupt, starting with empty schedule", "path", cfg.Storage.BlackoutFile)
		} else {
			return fmt.Errorf("loading blackout schedule: %w", loadErr)
		}
	}

	engine := access.NewEngine(registry, schedule)
	engine.SetLogger(log)
	engine.SetRecorder(&decisionRecorder{recorder: recorder})

	// Garage controller (optional)
	var controller *garage.Controller
	if cfg.Garage.Enabled {
		backend, gpioErr := gpio.New(cfg.GPIO.Backend)
		if gpioErr != nil {
			return fmt.Errorf("initialising gpio backend: %w", gpioErr)
		}

		controller, err = garage.NewController(garage.Config{
			RelayPin:        cfg.Garage.RelayPin,
			ButtonPin:       cfg.Garage.ButtonPin,
			SensorPin:       cfg.Garage.SensorPin,
			RelayActiveLow:  cfg.Garage.RelayActiveLow,
			SensorActiveLow: cfg.Garage.SensorActiveLow,
			Pulse:           cfg.Garage.PulseDuration(),
			Debounce:        cfg.Garage.Debounce(),
			MinInterval:     cfg.Garage.MinInterval(),
			AutoClose:       cfg.Garage.AutoClose(),
			StateFile:       cfg.Storage.StateFile,
		}, backend)
		if err != nil {
			return fmt.Errorf("creating garage controller: %w", err)
		}
		controller.SetLogger(log)
		controller.SetEventSink(recorder)
		defer func() {
			log.Info("stopping garage controller")
			if closeErr := controller.Close(); closeErr != nil {
				log.Error("error closing garage controller", "error", closeErr)
			}
		}()
		log.Info("garage controller created",
			"backend", cfg.GPIO.Backend,
			"relay_pin", cfg.Garage.RelayPin,
			"sensor", cfg.Garage.HasSensor(),
			"button", cfg.Garage.HasButton(),
		)
	} else {
		log.Info("garage module disabled")
	}

	// MQTT door-module sync (optional)
	var notifier notify.Notifier = notify.Nop{}
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() { log.Info("MQTT reconnected") })
		mqttClient.SetOnDisconnect(func(err error) { log.Warn("MQTT disconnected", "error", err) })
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttNotifier := notify.NewMQTTNotifier(mqttClient)
		mqttNotifier.SetLogger(log)
		if startErr := mqttNotifier.Start(); startErr != nil {
			log.Warn("door status subscription failed", "error", startErr)
		}
		recorder.AddSink(mqttNotifier)
		notifier = mqttNotifier

		// Push the roster on boot so reflashed door modules catch up.
		mqttNotifier.SyncUsers(registry.List())
	} else {
		log.Info("MQTT disabled")
	}

	// InfluxDB telemetry (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		recorder.AddSink(influxdb.NewTelemetry(influxClient))
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Start the recorder before anything can emit events.
	recorder.Start()

	if controller != nil {
		if startErr := controller.Start(ctx); startErr != nil {
			return fmt.Errorf("starting garage controller: %w", startErr)
		}
		log.Info("garage controller started", "state", controller.State())
	}

	// HTTP API and WebSocket stream
	var garageSurface httpapi.GarageController
	if controller != nil {
		garageSurface = controller
	}

	apiServer, err := httpapi.New(httpapi.Deps{
		Config:      cfg.API,
		Logger:      log,
		Engine:      engine,
		Registry:    registry,
		Schedule:    schedule,
		Garage:      garageSurface,
		Events:      eventRepo,
		EventsHub:   eventHub,
		Notifier:    notifier,
		AdminSecret: cfg.Admin.Secret,
		Version:     version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := apiServer.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// API server, InfluxDB, MQTT, garage controller, recorder, hub, database.

	log.Info("GateWise Core stopped")
	return nil
}

// decisionRecorder adapts the event recorder to the access engine's
// DecisionRecorder interface.
type decisionRecorder struct {
	recorder *events.Recorder
}

func (d *decisionRecorder) RecordDecision(identity string, verdict access.Verdict, at time.Time) {
	d.recorder.RecordAccess(identity, verdict.Allowed, string(verdict.Reason), at)
}

// getConfigPath returns the configuration file path.
// Uses the GATEWISE_CONFIG environment variable if set.
func getConfigPath() string {
	if path := os.Getenv("GATEWISE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies infrastructure connections. MQTT and InfluxDB
// are nil when disabled.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
