package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"rfid-asset-tracker/internal/config"
	"rfid-asset-tracker/internal/handler"
	"rfid-asset-tracker/internal/relay"
	"rfid-asset-tracker/internal/repository"
	"rfid-asset-tracker/internal/router"
	"rfid-asset-tracker/internal/service"
	"rfid-asset-tracker/internal/ws"

	"github.com/redis/go-redis/v9"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting RFID asset tracker...")

	// Load configuration
	cfg := config.MustLoad()
	log.Printf("Environment: %s", cfg.App.Environment)

	loc := cfg.App.Location()
	log.Printf("Operating timezone: %s", loc)

	// Initialize tracking repository based on config
	var repo repository.TrackingRepository
	switch cfg.Database.Type {
	case "postgres", "postgresql":
		pgRepo, err := repository.NewPostgresTrackingRepository(cfg.Database.PostgresDSN())
		if err != nil {
			log.Fatalf("Failed to initialize PostgreSQL: %v", err)
		}
		repo = pgRepo
		log.Println("PostgreSQL tracking repository initialized")
	case "sqlite":
		sqliteRepo, err := repository.NewSQLiteTrackingRepository(cfg.Database.Path)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite: %v", err)
		}
		repo = sqliteRepo
		log.Println("SQLite tracking repository initialized")
	default: // mysql
		mysqlRepo, err := repository.NewMySQLTrackingRepository(cfg.Database.MySQLDSN())
		if err != nil {
			log.Fatalf("Failed to initialize MySQL: %v", err)
		}
		repo = mysqlRepo
		log.Println("MySQL tracking repository initialized")
	}
	defer repo.Close()

	// WebSocket hub for live subscribers
	hub := ws.NewHub()
	go hub.Run()

	// Optional Redis relay
	var redisRelay *relay.RedisRelay
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		var err error
		redisRelay, err = relay.NewRedisRelay(client, cfg.Redis.Channel)
		if err != nil {
			log.Printf("Warning: Redis relay unavailable: %v", err)
			client.Close()
			redisRelay = nil
		}
	}

	var publisher service.Publisher
	if redisRelay != nil {
		publisher = service.NewMultiPublisher(hub, redisRelay)
	} else {
		publisher = service.NewMultiPublisher(hub)
	}

	// Drain pipeline
	drainer := service.NewDrainer(repo, publisher, loc)
	scheduler := service.NewDrainScheduler(drainer, repo, service.SchedulerOptions{
		WatchInterval: cfg.Scheduler.WatchInterval,
		DrainTimeout:  cfg.Scheduler.DrainTimeout,
	})
	scheduler.Start()

	// HTTP surface
	healthHandler := handler.New(repo, cfg.App.Version)
	assetHandler := handler.NewAssetHandler(repo)
	queueHandler := handler.NewQueueHandler(repo, scheduler, hub.ClientCount)

	r := router.New(router.Config{
		Handler:      healthHandler,
		AssetHandler: assetHandler,
		QueueHandler: queueHandler,
		Hub:          hub,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	// Stop the scheduler first; it waits for an in-flight drain to finish.
	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	hub.Close()
	if redisRelay != nil {
		redisRelay.Close()
	}

	log.Println("Tracker stopped")
}
