package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/roncastellon/BWM-walker-app-sub000/internal/config"
	"github.com/roncastellon/BWM-walker-app-sub000/internal/db"
	"github.com/roncastellon/BWM-walker-app-sub000/internal/logging"
	"github.com/roncastellon/BWM-walker-app-sub000/internal/server"
)

const serviceName = "walktracker"

var mainDepsProvider = defaultDeps
var mainRunner = realMain

func main() {
	mainRunner(mainDepsProvider())
}

type mainDeps struct {
	loadConfig      func() (config.Config, error)
	connectPostgres func(config.Config) (*pgxpool.Pool, error)
	connectRedis    func(config.Config) *redis.Client
	migrate         func(context.Context, db.Querier) error
	notify          func(chan<- os.Signal, ...os.Signal)
	run             func(context.Context, config.Config, *pgxpool.Pool, *redis.Client, <-chan os.Signal, ListenFunc) error
}

func defaultDeps() mainDeps {
	return mainDeps{
		loadConfig:      config.Load,
		connectPostgres: db.ConnectPostgres,
		connectRedis:    db.ConnectRedis,
		migrate:         db.Migrate,
		notify:          signal.Notify,
		run:             Run,
	}
}

func realMain(deps mainDeps) {
	cfg, err := deps.loadConfig()
	if err != nil {
		logging.New(serviceName, "info").Error("config load failed", "error", err)
		return
	}
	log := logging.New(serviceName, cfg.LogLevel)

	pg, err := deps.connectPostgres(cfg)
	if err != nil {
		log.Warn("postgres connection failed, journal disabled", "error", err)
		pg = nil
	}
	if pg != nil {
		if err := deps.migrate(context.Background(), pg); err != nil {
			log.Warn("journal migration failed", "error", err)
		}
	}

	rdb := deps.connectRedis(cfg)

	signals := make(chan os.Signal, 1)
	deps.notify(signals, syscall.SIGINT, syscall.SIGTERM)

	if err := deps.run(context.Background(), cfg, pg, rdb, signals, nil); err != nil {
		log.Error("server exited with error", "error", err)
	}
}

type ListenFunc func(app *fiber.App, addr string) error

var defaultListen ListenFunc = func(app *fiber.App, addr string) error {
	return app.Listen(addr)
}

var shutdownFn = func(app *fiber.App, ctx context.Context) error {
	return app.ShutdownWithContext(ctx)
}

// Run starts the HTTP surface and the walk poller, then waits for a
// termination signal. Shutdown stops polling, releases any live tracking
// session, and closes the app and its connections.
func Run(ctx context.Context, cfg config.Config, pg *pgxpool.Pool, rdb *redis.Client, signals <-chan os.Signal, listen ListenFunc) error {
	log := logging.New(serviceName, cfg.LogLevel)
	srv := server.NewServer(cfg, pg, rdb, log)

	if listen == nil {
		listen = defaultListen
	}

	pollCtx, stopPolling := context.WithCancel(ctx)
	defer stopPolling()
	go srv.Registry.Run(pollCtx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- listen(srv.App, cfg.ServerPort)
	}()

	select {
	case sig := <-signals:
		log.Info("shutting down", "signal", signalName(sig))
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			stopPolling()
			srv.Close()
			return err
		}
	}

	stopPolling()
	srv.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := shutdownFn(srv.App, shutdownCtx); err != nil {
		return err
	}
	if pg != nil {
		pg.Close()
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	return nil
}

func signalName(sig os.Signal) string {
	if sig == nil {
		return ""
	}
	return sig.String()
}

