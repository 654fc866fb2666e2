// RF Panel Core - touch panel for 433 MHz remote sockets.
//
// This is the main entry point for the panel service. It loads the button
// catalog, opens the execution history, connects to the MQTT broker that
// fronts the radio bridge, and serves the REST and WebSocket API the panel
// UI talks to.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nerrad567/rfpanel-core/internal/api"
	"github.com/nerrad567/rfpanel-core/internal/catalog"
	"github.com/nerrad567/rfpanel-core/internal/history"
	"github.com/nerrad567/rfpanel-core/internal/infrastructure/config"
	"github.com/nerrad567/rfpanel-core/internal/infrastructure/database"
	"github.com/nerrad567/rfpanel-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/rfpanel-core/internal/infrastructure/logging"
	"github.com/nerrad567/rfpanel-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/rfpanel-core/internal/panel"
	"github.com/nerrad567/rfpanel-core/internal/power"
	"github.com/nerrad567/rfpanel-core/internal/transmit"
	"github.com/nerrad567/rfpanel-core/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// healthCheckTimeout bounds the startup health check.
const healthCheckTimeout = 5 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting RF panel",
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
	defer log.Close()
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
		"output", cfg.Logging.Output,
	)

	// Button catalog
	cat, err := catalog.LoadFile(cfg.Panel.CatalogFile)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}
	for label, refs := range cat.DuplicateLabels() {
		log.Warn("duplicate button label: macros never fire buttons sharing the presser's label",
			"label", label, "buttons", len(refs))
	}
	log.Info("catalog loaded",
		"path", cfg.Panel.CatalogFile,
		"buttons", cat.Len(),
		"pages", len(cat.ListPages()),
		"tags", len(cat.Tags()),
	)

	// Execution history
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
	if migrateErr := db.Migrate(ctx, migrations.FS); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	journal, err := db.JournalMode(ctx)
	if err != nil {
		return fmt.Errorf("reading database journal mode: %w", err)
	}
	log.Info("database ready", "path", db.Path(), "journal_mode", journal)
	historyRepo := history.NewSQLiteRepository(db.DB)

	// MQTT is only needed when commands go to the radio bridge
	var mqttClient *mqtt.Client
	if cfg.Transmit.Driver == "mqtt" {
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
		mqttClient.SetLogger(log.Component("mqtt"))
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	}

	// InfluxDB (optional)
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
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	hcCtx, hcCancel := context.WithTimeout(ctx, healthCheckTimeout)
	err = healthCheck(hcCtx, db, mqttClient, influxClient)
	hcCancel()
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	// Press pipeline
	gateway := newGateway(cfg, mqttClient, log)
	dispatcher := power.NewDispatcher(power.NewResolver(cat, log), gateway, log)
	dispatcher.SetHistory(historyRepo)
	if influxClient != nil {
		dispatcher.SetMetrics(influxMetrics{client: influxClient})
	}

	hub := api.NewHub(cfg.WebSocket, log)
	go hub.Run(ctx)

	events := fanout{hub}
	if mqttClient != nil {
		events = append(events, transmit.NewAnnouncer(mqttClient, byte(cfg.Transmit.QoS), log))
	}
	dispatcher.SetBroadcaster(events)

	session, err := panel.NewSession(dispatcher, panel.Options{
		DefaultMode: catalog.PowerState(strings.ToUpper(cfg.Panel.DefaultMode)),
		BounceTime:  cfg.GetBounceTime(),
		Logger:      log,
	})
	if err != nil {
		return fmt.Errorf("creating panel session: %w", err)
	}
	session.SetBroadcaster(events)
	// Retained, so late subscribers learn the starting mode.
	events.Broadcast(panel.EventModeChanged, panel.ModeEvent{Mode: session.Mode()})
	log.Info("panel ready", "mode", session.Mode(), "driver", cfg.Transmit.Driver)

	if cfg.API.Enabled {
		srv, srvErr := api.New(api.Deps{
			Config:      cfg.API,
			WS:          cfg.WebSocket,
			Logger:      log,
			Catalog:     cat,
			Dispatcher:  dispatcher,
			Panel:       session,
			History:     historyRepo,
			MQTT:        mqttClient,
			ExternalHub: hub,
			Version:     version,
		})
		if srvErr != nil {
			return fmt.Errorf("creating API server: %w", srvErr)
		}
		if startErr := srv.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			log.Info("stopping API server")
			if closeErr := srv.Close(); closeErr != nil {
				log.Error("error stopping API server", "error", closeErr)
			}
		}()
	} else {
		log.Info("API disabled")
	}

	log.Info("RF panel started")

	<-ctx.Done()
	log.Info("shutdown signal received")

	// Deferred Close() calls run in reverse order:
	// API server, InfluxDB, MQTT, database, logger.
	return nil
}

// getConfigPath returns the configuration file path.
// Uses RFPANEL_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("RFPANEL_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// newGateway returns the transmit driver selected by configuration.
func newGateway(cfg *config.Config, mqttClient *mqtt.Client, log *logging.Logger) power.Gateway {
	if cfg.Transmit.Driver == "mqtt" && mqttClient != nil {
		return transmit.NewMQTT(mqttClient, byte(cfg.Transmit.QoS), cfg.Transmit.Source, log)
	}
	return transmit.NewNoop(log)
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check (nil with the noop driver)
//   - influxClient: InfluxDB client to check (nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
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
