package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meterforecast/backend/internal/config"
	"github.com/meterforecast/backend/internal/delivery/http"
	"github.com/meterforecast/backend/internal/features"
	"github.com/meterforecast/backend/internal/repository/directory"
	"github.com/meterforecast/backend/internal/repository/model"
	"github.com/meterforecast/backend/internal/repository/postgres"
	"github.com/meterforecast/backend/internal/repository/profile"
	"github.com/meterforecast/backend/internal/service"
	"github.com/meterforecast/backend/pkg/client/s3"
)

func main() {
	// Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	// Database connection
	pool := connectDatabase(cfg.DatabaseURL)
	if pool != nil {
		defer pool.Close()
	}

	// Dependency Injection: Repositories
	var runRepo service.RunRepository
	var pgRepo *postgres.PostgresRepository
	if pool != nil {
		pgRepo = postgres.NewPostgresRepository(pool)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := pgRepo.Migrate(ctx); err != nil {
			log.Printf("Warning: Could not migrate database: %v", err)
		}
		cancel()
		runRepo = pgRepo
	} else {
		runRepo = postgres.NewMockRepository()
	}

	profiles, err := loadProfiles(cfg, pgRepo)
	if err != nil {
		log.Fatalf("Scaling profiles: %v", err)
	}

	models, err := loadModels(cfg)
	if err != nil {
		log.Fatalf("Model repository: %v", err)
	}

	calendar, err := features.LoadHolidayCalendar(cfg.HolidayCalendarPath)
	if err != nil {
		log.Fatalf("Holiday calendar: %v", err)
	}
	log.Printf("Loaded %d public holidays", calendar.Len())

	dir, err := directory.LoadFile(cfg.DirectoryPath)
	if err != nil {
		log.Printf("Warning: %v", err)
		log.Println("Serving an empty business directory")
		dir = directory.Empty()
	}

	// Dependency Injection: Services
	predictor, err := service.NewPredictor(service.PredictorConfig{
		Timesteps:    cfg.Timesteps,
		FeatureOrder: cfg.FeatureOrder,
	}, calendar, profiles, models)
	if err != nil {
		log.Fatalf("Predictor: %v", err)
	}
	weatherSvc := service.NewWeatherService(cfg.IndexColumn, predictor.RequiredColumns(), cfg.FetchTimeout)
	forecastSvc := service.NewForecastService(predictor, weatherSvc, runRepo, cfg.PredictTimeout)

	// Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "MeterForecast API v1.0",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.FetchTimeout + cfg.PredictTimeout,
		BodyLimit:    32 * 1024 * 1024,
		ErrorHandler: http.ErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Routes
	http.SetupRoutes(app, forecastSvc, dir)

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on :%s (%s)", cfg.Port, cfg.Env)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Reload file profiles on SIGHUP
	if store, ok := profiles.(*profile.FileStore); ok {
		reload := make(chan os.Signal, 1)
		signal.Notify(reload, syscall.SIGHUP)
		go func() {
			for range reload {
				if err := store.Reload(); err != nil {
					log.Printf("Profile reload failed, keeping previous profiles: %v", err)
					continue
				}
				log.Printf("Reloaded scaling profiles for %d meters", len(store.MeterIDs()))
			}
		}()
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	forecastSvc.WaitBackground()
	log.Println("Server exited gracefully")
}

var errDatabaseRequired = errors.New("PROFILE_SOURCE=postgres requires a reachable DATABASE_URL")

// connectDatabase returns nil when no database is configured or reachable
func connectDatabase(url string) *pgxpool.Pool {
	if url == "" {
		log.Println("DATABASE_URL not set, prediction runs will not be persisted")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, url)
	if err == nil {
		err = pool.Ping(ctx)
		if err != nil {
			pool.Close()
		}
	}
	if err != nil {
		log.Printf("Warning: Could not connect to database: %v", err)
		log.Println("Running without prediction run persistence")
		return nil
	}
	log.Println("Connected to PostgreSQL")
	return pool
}

func loadProfiles(cfg *config.Config, pgRepo *postgres.PostgresRepository) (service.ProfileStore, error) {
	if cfg.ProfileSource == config.ProfileSourcePostgres {
		if pgRepo == nil {
			return nil, errDatabaseRequired
		}
		log.Println("Reading scaling profiles from PostgreSQL")
		return pgRepo, nil
	}

	store, err := profile.NewFileStore(cfg.ScalingProfilesPath)
	if err != nil {
		return nil, err
	}
	log.Printf("Loaded scaling profiles for %d meters", len(store.MeterIDs()))
	return store, nil
}

func loadModels(cfg *config.Config) (service.ModelRepository, error) {
	var repo service.ModelRepository
	switch cfg.ModelSource {
	case config.ModelSourceS3:
		storage, err := s3.NewS3Client(s3.Config{
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Bucket:    cfg.S3.Bucket,
			UseSSL:    cfg.S3.UseSSL,
		})
		if err != nil {
			return nil, err
		}
		repo = model.NewS3Repository(storage, cfg.S3.Prefix)
	case config.ModelSourceServing:
		serving := model.NewServingRepository(cfg.ModelServingURL, cfg.PredictTimeout)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := serving.Health(ctx); err != nil {
			log.Printf("Warning: model server not reachable yet: %v", err)
		}
		cancel()
		repo = serving
	default:
		dirRepo, err := model.NewDirRepository(cfg.ModelDir)
		if err != nil {
			return nil, err
		}
		repo = dirRepo
	}
	log.Printf("Resolving models from %s source", cfg.ModelSource)

	if cfg.ModelCacheEnabled {
		return model.NewCachedRepository(repo), nil
	}
	return repo, nil
}
