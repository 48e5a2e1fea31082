package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/yndnr/aerosense-go/internal/core/service"
	"github.com/yndnr/aerosense-go/internal/infra/buildinfo"
	"github.com/yndnr/aerosense-go/internal/infra/confloader"
	"github.com/yndnr/aerosense-go/internal/infra/shutdown"
	"github.com/yndnr/aerosense-go/internal/server/cmdserver"
	"github.com/yndnr/aerosense-go/internal/server/config"
	"github.com/yndnr/aerosense-go/internal/server/httpserver"
	"github.com/yndnr/aerosense-go/internal/server/httpserver/handler"
	"github.com/yndnr/aerosense-go/internal/server/localserver"
	"github.com/yndnr/aerosense-go/internal/storage/ringlog"
	"github.com/yndnr/aerosense-go/internal/storage/sessionlog"
	"github.com/yndnr/aerosense-go/internal/telemetry/logger"
	"github.com/yndnr/aerosense-go/internal/telemetry/metric"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("aerosense-logger %s\n", buildinfo.String())
		return nil
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Logger())
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	log.Info("starting aerosense-logger",
		"version", buildinfo.Short(),
		"station", cfg.Station.Name,
		"config", *configFile)

	var metrics *metric.Registry
	if cfg.Metrics.Enabled {
		metrics = metric.NewRegistry()
	}

	ring, sessions, err := openLogs(cfg, log, metrics)
	if err != nil {
		return err
	}
	metrics.MustRegister(metric.NewCollector(func() []metric.MediumStats {
		return []metric.MediumStats{ring.Stats(), sessions.Stats()}
	}))

	recorder := service.NewRecorder(ring, sessions, log, metrics)
	cmdHandler := cmdserver.NewHandler(ring, sessions, cfg.Handler(), log, metrics)

	// Hooks run in reverse order: servers stop before the logs close.
	sh := shutdown.NewHandler(shutdownTimeout, log)
	sh.OnShutdown("ring log", func(context.Context) error {
		return ring.Close()
	})
	sh.OnShutdown("session log", func(context.Context) error {
		if s, ended, err := sessions.EndSession(); err != nil {
			log.Error("ending open flight failed", "error", err)
		} else if ended {
			log.Info("open flight ended", "flight", s.Number, "records", s.RecordCount)
		}
		return sessions.Close()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmdServer := cmdserver.New(cfg.CommandServer(), cmdHandler, log, metrics)
	if err := cmdServer.Start(ctx); err != nil {
		ring.Close()
		sessions.Close()
		return err
	}
	sh.OnShutdown("command server", func(ctx context.Context) error {
		cancel()
		return cmdServer.Shutdown(ctx)
	})

	if cfg.Ingest.Socket != "" {
		ingest := localserver.New(cfg.Ingest.Socket, localserver.NewHandler(recorder), log)
		if err := ingest.Listen(); err != nil {
			sh.Trigger("ingest socket: " + err.Error())
		} else {
			go func() {
				if err := ingest.Serve(); err != nil {
					log.Error("ingest socket failed", "error", err)
					sh.Trigger("ingest socket failed")
				}
			}()
			sh.OnShutdown("ingest socket", ingest.Shutdown)
		}
	}

	if cfg.Metrics.Enabled {
		router := httpserver.NewRouter(&httpserver.RouterConfig{
			Handler: handler.Config{
				Station:  cfg.Station.Name,
				Ring:     ring,
				Sessions: sessions,
				Metrics:  metrics.Handler(),
			},
			Logger:    log,
			RateLimit: httpserver.DefaultRouterConfig().RateLimit,
		})
		monitor := httpserver.New(cfg.Metrics.Addr, router, log)
		if err := monitor.Start(func(error) { sh.Trigger("monitoring endpoint failed") }); err != nil {
			sh.Trigger(err.Error())
		} else {
			sh.OnShutdown("monitoring endpoint", monitor.Shutdown)
		}
	}

	if *configFile != "" {
		watcher, err := watchConfig(*configFile, log)
		if err != nil {
			log.Warn("configuration watcher disabled", "error", err)
		} else {
			sh.OnShutdown("config watcher", func(context.Context) error {
				return watcher.Stop()
			})
		}
	}

	log.Info("logger started", "transport", cfg.Transport.Kind)
	if err := sh.Wait(); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("logger stopped gracefully")
	return nil
}

// openLogs opens the ring log and the session log.
func openLogs(cfg *config.StationConfig, log *slog.Logger, metrics *metric.Registry) (*ringlog.Log, *sessionlog.Log, error) {
	ring, err := ringlog.Open(ringlog.Config{
		Dir:      cfg.Ring.Dir,
		Capacity: uint16(cfg.Ring.Capacity),
		Flush:    cfg.Ring.Flush.Policy(),
		Logger:   log,
		Metrics:  metrics,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open ring log: %w", err)
	}

	sessions, err := sessionlog.Open(sessionlog.Config{
		Mount:        cfg.SD.Mount,
		Flush:        cfg.SD.Flush.Policy(),
		SummaryEvery: cfg.SD.SummaryEvery,
		Logger:       log,
		Metrics:      metrics,
	})
	if err != nil {
		ring.Close()
		return nil, nil, fmt.Errorf("open session log: %w", err)
	}

	rs := ring.Status()
	log.Info("logs opened",
		"ring_mode", rs.Mode.String(),
		"ring_stored", rs.StoredCount,
		"ring_capacity", rs.Capacity,
		"card", sessions.Status().State.String())
	return ring, sessions, nil
}

// watchConfig applies log.level changes in path without a restart. Other
// settings need a restart and are only reported.
func watchConfig(path string, log *slog.Logger) (*confloader.Watcher, error) {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := w.Watch(path); err != nil {
		w.Stop()
		return nil, err
	}

	w.OnChange(func(string) {
		cfg, err := config.Load(path)
		if err != nil {
			log.Warn("configuration reload rejected", "path", path, "error", err)
			return
		}
		if err := logger.SetLevel(cfg.Log.Level); err != nil {
			log.Warn("log level not applied", "level", cfg.Log.Level, "error", err)
			return
		}
		log.Info("configuration reloaded", "path", path, "log_level", cfg.Log.Level)
	})
	w.StartAsync()
	return w, nil
}
