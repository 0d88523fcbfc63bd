// Package startup wires the full application together: config, logger,
// database, redis, the gateway clients and every domain component, grounded
// on the teacher's Application.Start/Stop lifecycle.
package startup

import (
	"context"
	"fmt"

	"github.com/smartwallet/tracker/internal/api"
	"github.com/smartwallet/tracker/internal/gateway"
	"github.com/smartwallet/tracker/internal/notify"
	"github.com/smartwallet/tracker/internal/pipeline"
	"github.com/smartwallet/tracker/internal/price"
	"github.com/smartwallet/tracker/internal/storage/cache"
	"github.com/smartwallet/tracker/internal/storage/db"
	"github.com/smartwallet/tracker/pkg/utils/config"
	"github.com/smartwallet/tracker/pkg/utils/logger"
)

// Application is the fully wired process: every component the CLI's
// subcommands dispatch into, plus the optional HTTP sidecar.
type Application struct {
	cfg    *config.Config
	logger *logger.Logger

	db    *db.Connection
	redis *cache.Redis

	Orchestrator *pipeline.Orchestrator
	apiServer    *api.Server

	ctx    context.Context
	cancel context.CancelFunc
}

// InitializeApplication connects the database and redis, wires the gateway
// clients, and assembles the Orchestrator and the optional API sidecar.
func InitializeApplication(cfg *config.Config, log *logger.Logger) (*Application, error) {
	ctx, cancel := context.WithCancel(context.Background())

	conn, err := db.NewConnection(cfg.Database, log)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	redisConn, err := cache.NewRedisConnection(cfg.Redis, log)
	if err != nil {
		conn.Close()
		cancel()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	stores := pipeline.NewStores(conn)
	clients := gateway.NewClientSet(cfg)
	priceCache := price.NewRedisCache(redisConn)
	sink := notify.NewLogSink(log)

	orchestrator := pipeline.New(cfg, log, stores, clients, priceCache, sink)
	apiServer := api.NewServer(cfg.API, stores, log)

	return &Application{
		cfg: cfg, logger: log, db: conn, redis: redisConn,
		Orchestrator: orchestrator, apiServer: apiServer,
		ctx: ctx, cancel: cancel,
	}, nil
}

// Context is the application's cancellation-aware background context, used by
// the scheduler's interval tickers.
func (app *Application) Context() context.Context { return app.ctx }

// Config exposes the loaded configuration to the CLI layer.
func (app *Application) Config() *config.Config { return app.cfg }

// StartAPI starts the HTTP sidecar in the background, cancelling the
// application context if it exits unexpectedly.
func (app *Application) StartAPI() {
	go func() {
		if err := app.apiServer.Start(); err != nil {
			app.logger.Error("api sidecar failed", err, nil)
			app.cancel()
		}
	}()
}

// Stop tears the application down in reverse dependency order.
func (app *Application) Stop() error {
	app.cancel()
	if err := app.apiServer.Shutdown(context.Background()); err != nil {
		app.logger.Warning("api sidecar shutdown error", map[string]interface{}{"error": err.Error()})
	}
	if err := app.redis.Close(); err != nil {
		app.logger.Warning("redis close error", map[string]interface{}{"error": err.Error()})
	}
	app.db.Close()
	app.logger.Sync()
	return nil
}
