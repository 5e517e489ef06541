package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ariqhikari/SnaillyJaya/internal/clients/gcp"
	"github.com/ariqhikari/SnaillyJaya/internal/clients/inference"
	rediscache "github.com/ariqhikari/SnaillyJaya/internal/clients/redis"
	"github.com/ariqhikari/SnaillyJaya/internal/clients/scrape"
	"github.com/ariqhikari/SnaillyJaya/internal/clients/snailly"
	"github.com/ariqhikari/SnaillyJaya/internal/db"
	apphttp "github.com/ariqhikari/SnaillyJaya/internal/http"
	httpH "github.com/ariqhikari/SnaillyJaya/internal/http/handlers"
	httpMW "github.com/ariqhikari/SnaillyJaya/internal/http/middleware"
	"github.com/ariqhikari/SnaillyJaya/internal/logger"
	"github.com/ariqhikari/SnaillyJaya/internal/ml"
	"github.com/ariqhikari/SnaillyJaya/internal/observability"
	"github.com/ariqhikari/SnaillyJaya/internal/repos"
	"github.com/ariqhikari/SnaillyJaya/internal/services"
	"github.com/ariqhikari/SnaillyJaya/internal/temporalx"
	"github.com/ariqhikari/SnaillyJaya/internal/temporalx/temporalworker"
	"github.com/ariqhikari/SnaillyJaya/internal/textproc"
	"github.com/ariqhikari/SnaillyJaya/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()

	// Tracing
	shutdownOTel := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "snailly-classifier",
		Environment: utils.GetEnv("APP_ENV", "development", nil),
		Version:     utils.GetEnv("APP_VERSION", "dev", nil),
	})
	if shutdownOTel != nil {
		defer func() { _ = shutdownOTel(ctx) }()
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up repos from main...")
	contentRepo := repos.NewContentRepo(thePG, log)
	activityLogRepo := repos.NewActivityLogRepo(thePG, log)
	predictionRepo := repos.NewPredictionRepo(thePG, log)
	urlClassificationRepo := repos.NewUrlClassificationRepo(thePG, log)
	screenshotRepo := repos.NewScreenshotRepo(thePG, log)

	// Clients
	log.Info("Setting up clients from main...")
	contentCache, err := rediscache.NewContentCache(log)
	if err != nil {
		log.Warn("Redis cache disabled", "error", err)
		contentCache = nil
	}
	visionClient, err := gcp.NewVision(log)
	if err != nil {
		log.Warn("Vision client disabled", "error", err)
		visionClient = nil
	}
	videoClient, err := gcp.NewVideo(log)
	if err != nil {
		log.Warn("Video client disabled", "error", err)
		videoClient = nil
	}
	bucketService, err := gcp.NewBucketService(log)
	if err != nil {
		log.Warn("Bucket service disabled", "error", err)
		bucketService = nil
	}
	speechClient, err := gcp.NewSpeech(log)
	if err != nil {
		log.Warn("Speech client disabled", "error", err)
		speechClient = nil
	}
	snaillyClient := snailly.NewClient(log)
	inferenceClient := inference.NewClient(log)
	webScraper := scrape.NewWebScraper(log)
	socialScraper := scrape.NewSocialScraper(log)

	// ML
	log.Info("Setting up classification engine from main...")
	normalizer, err := textproc.NewNormalizer()
	if err != nil {
		log.Error("Normalizer init failed", "error", err)
		os.Exit(1)
	}
	registry := ml.NewRegistry()
	engine := ml.NewEngine(registry, log)
	trainer := ml.NewTrainer(log)
	modelStore := ml.NewStore(utils.GetEnv("MODEL_PATH", "public/models", log), log)
	readiness := services.NewReadiness(registry, modelStore, log)
	if err := readiness.LoadModel(); err != nil {
		log.Warn("Starting without an active model; retrain to become ready", "error", err)
	}

	// Services
	log.Info("Setting up services from main...")
	contentStore := services.NewContentStore(contentRepo, contentCache, log)
	dispatcher := services.NewScrapeDispatcher(webScraper, socialScraper, visionClient, videoClient, speechClient, log)
	ledger := services.NewActivityLedger(activityLogRepo, snaillyClient, log)
	gate := services.NewNotificationGate(urlClassificationRepo, snaillyClient, log)
	curator := services.NewLabelCurator(predictionRepo, urlClassificationRepo, contentRepo, log)
	seeder := services.NewDatasetSeeder(urlClassificationRepo, normalizer, log)
	coordinator := services.NewRetrainingCoordinator(curator, urlClassificationRepo, registry, trainer, modelStore, bucketService, log)
	classifyService := services.NewClassifyService(contentStore, dispatcher, normalizer, engine, ledger, gate, predictionRepo, log)
	screenshotService := services.NewScreenshotService(visionClient, inferenceClient, bucketService, normalizer, engine, screenshotRepo, log)

	// Temporal (optional)
	temporalClient, err := temporalx.NewClient(log)
	if err != nil {
		log.Warn("Temporal dial failed; scheduled retraining disabled", "error", err)
	}
	if temporalClient != nil {
		defer temporalClient.Close()
		runner, err := temporalworker.NewRunner(log, temporalClient, coordinator, readiness)
		if err != nil {
			log.Warn("Temporal worker init failed", "error", err)
		} else if err := runner.Start(ctx); err != nil {
			log.Warn("Temporal worker start failed", "error", err)
		}
	}

	// Handlers
	log.Info("Setting up handlers from main...")
	classifyHandler := httpH.NewClassifyHandler(log, classifyService)
	screenshotHandler := httpH.NewScreenshotHandler(log, screenshotService)
	retrainHandler := httpH.NewRetrainHandler(log, coordinator, readiness)
	labelHandler := httpH.NewLabelHandler(log, curator, seeder)
	healthHandler := httpH.NewHealthHandler(readiness)

	// Middleware
	authMiddleware := httpMW.NewAuthMiddleware(log)

	// Router
	log.Info("Setting up router from main...")
	server := apphttp.NewServer(apphttp.RouterConfig{
		Log:               log,
		AuthMiddleware:    authMiddleware,
		ClassifyHandler:   classifyHandler,
		ScreenshotHandler: screenshotHandler,
		RetrainHandler:    retrainHandler,
		LabelHandler:      labelHandler,
		HealthHandler:     healthHandler,
	})

	addr := ":" + utils.GetEnv("PORT", "5000", log)
	log.Info("Starting server", "addr", addr)
	if err := server.Run(addr); err != nil {
		log.Fatal("Server exited", "error", err)
	}
}
