// Package watcher parses watcher command flags and starts the watch loop.
package watcher

import (
	"context"
	"flag"
	"log"
	"net/http"
	"time"

	entrypoint "github.com/ironsightlabs/spectator/internal/platform/cmd"
	"github.com/ironsightlabs/spectator/internal/state"
	"github.com/ironsightlabs/spectator/internal/storage/sqlite"
	"github.com/ironsightlabs/spectator/internal/telemetry"
	"github.com/ironsightlabs/spectator/internal/watch"
)

// Config holds watcher command configuration.
type Config struct {
	ServerName   string        `env:"SPECTATOR_SERVER_NAME"`
	StatePath    string        `env:"SPECTATOR_STATE_PATH" envDefault:"state.json"`
	JournalPath  string        `env:"SPECTATOR_JOURNAL_PATH" envDefault:"spectator.db"`
	PollInterval time.Duration `env:"SPECTATOR_POLL_INTERVAL" envDefault:"15s"`
	EventFlags   uint          `env:"SPECTATOR_EVENT_FLAGS"`
	MetricsAddr  string        `env:"SPECTATOR_METRICS_ADDR" envDefault:"127.0.0.1:6060"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.ServerName, "server-name", cfg.ServerName, "Label for journal records and telemetry")
	fs.StringVar(&cfg.StatePath, "state", cfg.StatePath, "Path to the poller's state dump")
	fs.StringVar(&cfg.JournalPath, "journal", cfg.JournalPath, "Path to the SQLite journal")
	fs.DurationVar(&cfg.PollInterval, "interval", cfg.PollInterval, "Delay between poll cycles")
	fs.UintVar(&cfg.EventFlags, "flags", cfg.EventFlags, "Event kind bitmask (0 = all)")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Metrics listen address (empty disables)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the watch loop with a SQLite journal and metrics endpoint.
func Run(ctx context.Context, cfg Config) error {
	store, err := sqlite.Open(cfg.JournalPath)
	if err != nil {
		return err
	}
	defer store.Close()

	watcher := watch.New(
		watch.Config{
			ServerName:   cfg.ServerName,
			PollInterval: cfg.PollInterval,
			Flags:        state.EventFlags(cfg.EventFlags),
		},
		[]watch.Source{watch.NewFileSource(cfg.StatePath)},
		watch.WithJournal(store),
		watch.WithTelemetry(telemetry.NewEmitter(store)),
		watch.WithSinks(watch.LogSink()),
	)

	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceWatcher, func(ctx context.Context) error {
		if cfg.MetricsAddr != "" {
			stopMetrics := serveMetrics(cfg.MetricsAddr)
			defer stopMetrics()
		}
		return watcher.Run(ctx)
	})
}

// serveMetrics exposes prometheus metrics until the returned stop
// function runs.
func serveMetrics(addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", watch.MetricsHandler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server: %v", err)
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("metrics shutdown: %v", err)
		}
	}
}
