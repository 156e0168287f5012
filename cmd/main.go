package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"claim-evaluation-service/internal/config"
	"claim-evaluation-service/internal/database/minio"
	"claim-evaluation-service/internal/database/postgres"
	"claim-evaluation-service/internal/database/redis"
	"claim-evaluation-service/internal/event"
	"claim-evaluation-service/internal/handlers"
	"claim-evaluation-service/internal/imaging"
	"claim-evaluation-service/internal/ml"
	"claim-evaluation-service/internal/repository"
	"claim-evaluation-service/internal/services"
	"claim-evaluation-service/internal/worker"

	"github.com/gofiber/fiber/v3"
)

func setupLogging() (*os.File, error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("Recovered from panic: %v\n", r)
		}
	}()

	logDir := filepath.Join("/agrisa", "log", "claim_evaluation_service")
	fmt.Println("Log directory:", logDir)
	err := os.MkdirAll(logDir, 0o755)
	if err != nil {
		return nil, fmt.Errorf("failed to create log directory: %v", err)
	}

	currentTime := time.Now()
	logFileName := fmt.Sprintf("log_%s.log", currentTime.Format("2006-01-02"))
	logFile := filepath.Join(logDir, logFileName)

	file, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %v", err)
	}

	log.SetOutput(file)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	slog.SetDefault(slog.New(slog.NewJSONHandler(file, nil)))

	return file, nil
}

func main() {
	logFile, err := setupLogging()
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logFile.Close()

	cfg := config.New()
	ctx := context.Background()

	// Postgres is used for the evaluation audit trail; the service still
	// evaluates claims if it is down, it just cannot store verdicts.
	var evaluationRepo *repository.EvaluationRepository
	log.Printf("Connecting to PostgreSQL with: host=%s, port=%s, user=%s, dbname=%s",
		cfg.PostgresCfg.Host, cfg.PostgresCfg.Port, cfg.PostgresCfg.Username, cfg.PostgresCfg.DBname)
	db, err := postgres.ConnectAndCreateDB(cfg.PostgresCfg)
	if err != nil {
		log.Printf("error connect to database: %s", err)
		go postgres.RetryConnectOnFailed(30*time.Second, &db, cfg.PostgresCfg)
	}
	if db != nil {
		defer db.Close()
		evaluationRepo = repository.NewEvaluationRepository(db)
	}

	// Redis mirrors the image hash set across restarts. Without it the
	// duplicate database is process-local.
	var hashStore repository.HashStore
	redisClient, err := redis.NewRedisClient(cfg.RedisCfg)
	if err != nil {
		slog.Warn("redis unavailable, image hash set will not survive restarts", "error", err)
		hashStore = repository.NewMemoryHashStore(cfg.MLCfg.DuplicateThreshold)
	} else {
		defer redisClient.Close()
		store, err := repository.NewRedisHashStore(ctx, redisClient.GetClient(), cfg.MLCfg.DuplicateThreshold)
		if err != nil {
			slog.Warn("failed to load hash set from redis, starting empty", "error", err)
			hashStore = repository.NewMemoryHashStore(cfg.MLCfg.DuplicateThreshold)
		} else {
			hashStore = store
		}
	}

	// MinIO serves uploaded claim images; local disk is the fallback for
	// development setups.
	var loader imaging.Loader
	var satelliteLoader imaging.Loader
	var storage *minio.MinioClient
	storage, err = minio.NewMinioClient(cfg.MinioCfg)
	if err != nil {
		slog.Warn("minio unavailable, resolving image refs from local disk", "error", err)
		storage = nil
		loader = imaging.NewFileLoader(cfg.MLCfg.ImageBaseDir)
		satelliteLoader = loader
	} else {
		loader = imaging.NewMinioLoader(storage, minio.Storage.ClaimImages)
		satelliteLoader = imaging.NewMinioLoader(storage, minio.Storage.SatelliteImages)
	}

	// RabbitMQ carries claim_evaluated events to downstream services.
	var publisher *event.VerdictPublisher
	rabbitConn, err := event.ConnectRabbitMQ(cfg.RabbitMQCfg)
	if err != nil {
		slog.Warn("rabbitmq unavailable, claim evaluated events disabled", "error", err)
	} else {
		defer rabbitConn.Close()
		publisher = event.NewVerdictPublisher(rabbitConn)
	}

	// Models: trained artifacts when exported, baselines otherwise.
	damageModel := ml.NewBaselineDamageModel()
	satelliteModel := ml.NewBaselineSatelliteModel()
	yieldModel := ml.LoadYieldModel(cfg.MLCfg.ModelDir)
	anomalyModel := ml.LoadAnomalyModel(cfg.MLCfg.ModelDir)

	// services
	imageService := services.NewImageVerificationService(loader, damageModel, hashStore)
	satelliteService := services.NewSatelliteVerificationService(satelliteLoader, satelliteModel)
	yieldService := services.NewYieldPredictionService(yieldModel)
	fraudService := services.NewFraudDetectionService(anomalyModel)
	claimService := services.NewClaimEvaluationService(imageService, yieldService, fraudService)
	pool := worker.NewEvaluationPool(cfg.MLCfg.BatchWorkers, claimService)

	// handlers
	evaluationHandler := handlers.NewEvaluationHandler(
		imageService, satelliteService, yieldService, fraudService,
		claimService, pool, hashStore, evaluationRepo, publisher, storage)

	app := fiber.New()
	app.Get("/checkhealth", func(c fiber.Ctx) error {
		return c.Status(fiber.StatusOK).SendString("Claim evaluation service is healthy")
	})
	evaluationHandler.Register(app)

	log.Printf("Starting claim-evaluation-service on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
