package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	_ "github.com/jhoicas/inventario-ledger/docs"
	"github.com/jhoicas/inventario-ledger/internal/application/checkpoint"
	"github.com/jhoicas/inventario-ledger/internal/application/events"
	appledger "github.com/jhoicas/inventario-ledger/internal/application/ledger"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/metrics"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/inventario-ledger/internal/infrastructure/redis"
	httpRouter "github.com/jhoicas/inventario-ledger/internal/interfaces/http"
	"github.com/jhoicas/inventario-ledger/pkg/config"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// @title        Inventario Ledger API
// @version      1.0
// @description  Ledger de inventario: control de acceso, registro de productos y movimientos con compromisos verificables.
// @BasePath     /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Ledger.Store).
		Msg("iniciando aplicación")

	ctx := context.Background()
	m := metrics.New()

	var store repository.LedgerStore
	switch cfg.Ledger.Store {
	case config.StorePostgres:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
		store = postgres.NewLedgerStore(pool)
	default:
		log.Warn().Msg("store en memoria: el ledger se pierde al reiniciar")
		store = memory.NewLedgerStore()
	}

	broker := events.NewBroker(m)
	defer broker.Close()

	ledgerSvc, err := appledger.New(ctx, store, cfg.Ledger.Owner, broker, appledger.Options{
		QueueSize: cfg.Ledger.QueueSize,
		Logger:    log,
		Recorder:  m,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar ledger")
	}
	defer ledgerSvc.Close()

	// Reenvío a Redis Pub/Sub para indexadores externos.
	fwdCtx, stopForwarder := context.WithCancel(ctx)
	defer stopForwarder()
	if cfg.Redis.Enabled {
		client, err := infraredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer func() {
			stopForwarder()
			_ = client.Close()
		}()
		fwd := infraredis.NewEventForwarder(client, cfg.Redis.Channel, log)
		go fwd.Run(fwdCtx, broker.Subscribe(cfg.Events.SubscriberBuffer))
	}

	checkpointer := checkpoint.New(ledgerSvc, m, log, cfg.Ledger.CheckpointInterval)
	if err := checkpointer.Start(); err != nil {
		log.Fatal().Err(err).Msg("checkpoints")
	}
	defer checkpointer.Stop()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(m.Middleware())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Inventario Ledger API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		stats, err := ledgerSvc.Stats(c.UserContext())
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "down", "service": cfg.App.Name})
		}
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "state_root": stats.StateRoot.String()})
	})
	app.Get("/metrics", m.Handler())

	httpRouter.Router(app, httpRouter.RouterDeps{
		Ledger:       ledgerSvc,
		Broker:       broker,
		EventsBuffer: cfg.Events.SubscriberBuffer,
		JWTSecret:    cfg.JWT.Secret,
		Logger:       log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	if _, err := checkpointer.RunOnce(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("checkpoint final")
	}

	log.Info().Msg("aplicación detenida")
}
