package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"vclink.org/internal/broker"
	"vclink.org/internal/config"
	"vclink.org/internal/connector"
	"vclink.org/internal/httpapi"
	"vclink.org/internal/notify"
	"vclink.org/internal/obs"
	"vclink.org/internal/request"
	"vclink.org/internal/trust"
)

var version = "0.3.1"

func main() {
	obs.Init()
	obs.InitBuildInfo(version, os.Getenv("VCLINK_COMMIT"))
	log := obs.Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	// Stores: Postgres when a DSN is given, in-memory otherwise.
	var (
		db           *sql.DB
		trustStore   trust.Store
		requestStore request.Store
	)
	if cfg.PGDSN != "" {
		db, err = sql.Open("pgx", cfg.PGDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("open db")
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
		trustStore = trust.NewPGStore(db)
		requestStore = request.NewPGStore(db)
	} else {
		log.Warn().Msg("no VCLINK_PG_DSN set, using in-memory stores")
		trustStore = trust.NewInMemory()
		requestStore = request.NewInMemory()
	}

	brokerOpts := []broker.Option{broker.WithLogger(log)}
	if cfg.TokenMaxAge > 0 {
		brokerOpts = append(brokerOpts, broker.WithMaxTokenAge(cfg.TokenMaxAge))
	}
	brk, err := broker.New(trustStore, requestStore, []byte(cfg.BrokerKey), brokerOpts...)
	if err != nil {
		log.Fatal().Err(err).Msg("construct broker")
	}

	registry := connector.NewRegistry()
	demo := connector.NewDemo("demo")
	if err := registry.Register(demo.Describe(), demo, demo); err != nil {
		log.Fatal().Err(err).Msg("register demo connector")
	}

	hub := notify.NewHub(log)
	if len(cfg.WSOrigins) > 0 {
		hub.SetOriginPatterns(cfg.WSOrigins)
	}

	api := httpapi.New(httpapi.ReadyProbe{DB: db}, version, brk, registry, hub)
	api.SetRateLimit(cfg.RateBurst, cfg.RatePerSec)
	api.SetMaxBodyBytes(cfg.MaxBodyBytes)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Info().Str("addr", srv.Addr).Str("version", version).Msg("starting vclink-api")

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if db != nil {
		_ = db.Close()
	}
	log.Info().Msg("stopped")
}
