package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "fleetstore/internal/adapter/http"
	"fleetstore/internal/config"
	"fleetstore/internal/fleet"
	"fleetstore/internal/shared/eventbus"
	"fleetstore/internal/shared/logger"
	"fleetstore/internal/store/adapter/events"
	"fleetstore/internal/store/adapter/persistence/mongodb"
	"fleetstore/internal/store/usecase"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("aviso: no se pudo cargar el fichero .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuración inválida: %v", err)
	}

	appLogger := logger.NewLoggerWithConfig(cfg.Log.Level, cfg.Log.Format)
	appLogger.Info("configuración cargada")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		log.Fatalf("no se pudo conectar a MongoDB: %v", err)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			appLogger.Errorf("error al desconectar MongoDB: %v", err)
		}
	}()

	if err := mongoClient.Ping(ctx, nil); err != nil {
		log.Fatalf("MongoDB no responde: %v", err)
	}
	appLogger.Infof("conexión a MongoDB establecida (%s)", cfg.Mongo.Database)

	store := mongodb.NewStore(mongoClient.Database(cfg.Mongo.Database), appLogger)
	bus := eventbus.NewEventBus(appLogger)
	audit := usecase.NewAuditService(store, bus, appLogger)

	autobuses := fleet.NewAutobusesService(store, audit, bus, appLogger)
	equipos := fleet.NewEquiposService(store, audit, bus, appLogger)
	incidencias := fleet.NewIncidenciasService(store, audit, bus, appLogger)

	// With Redis configured, document events travel between instances so
	// realtime listeners see writes made anywhere in the fleet.
	if cfg.Redis.Enabled() {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.Database,
		})
		bridge := events.NewRedisBridge(redisClient, bus, appLogger, cfg.Redis.Channel)
		if err := bridge.Start(context.Background()); err != nil {
			log.Fatalf("no se pudo iniciar el puente Redis: %v", err)
		}
		defer bridge.Stop()
		appLogger.Infof("puente Redis activo en el canal %s", cfg.Redis.Channel)
	} else {
		appLogger.Info("puente Redis desactivado, eventos locales al proceso")
	}

	app := fiber.New(fiber.Config{
		AppName:      "FleetStore API v1.0",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Tenant-ID",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		healthCtx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
		defer cancel()

		if err := mongoClient.Ping(healthCtx, nil); err != nil {
			appLogger.Errorf("health check fallido: %v", err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "UNHEALTHY",
				"error":  err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"status":    "HEALTHY",
			"timestamp": time.Now().UTC(),
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	auth := httpadapter.NewAuthMiddleware(cfg.Auth.JWTSecret, appLogger)
	handler := httpadapter.NewFleetHandler(autobuses, equipos, incidencias, audit, appLogger)
	handler.RegisterRoutes(app, auth.Handler())

	ws := httpadapter.NewWebSocketHandler(autobuses, incidencias, appLogger)
	ws.RegisterRoutes(app, cfg.Realtime.WebSocketPath, auth.Handler())

	appLogger.Infof("servidor HTTP escuchando en %s", cfg.Server.Addr())

	serverShutdown := make(chan error, 1)
	go func() {
		serverShutdown <- app.Listen(cfg.Server.Addr())
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverShutdown:
		if err != nil {
			log.Fatalf("el servidor no pudo arrancar: %v", err)
		}
	case sig := <-quit:
		appLogger.Infof("señal de apagado recibida: %v", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			appLogger.Errorf("apagado forzado del servidor: %v", err)
		}
		appLogger.Info("servidor HTTP detenido")
	}
}
