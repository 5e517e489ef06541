package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/ariqhikari/SnaillyJaya/internal/http/handlers"
	httpMW "github.com/ariqhikari/SnaillyJaya/internal/http/middleware"
	"github.com/ariqhikari/SnaillyJaya/internal/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	AuthMiddleware *httpMW.AuthMiddleware

	ClassifyHandler   *httpH.ClassifyHandler
	ScreenshotHandler *httpH.ScreenshotHandler
	RetrainHandler    *httpH.RetrainHandler
	LabelHandler      *httpH.LabelHandler
	HealthHandler     *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("snailly-classifier"))
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/health", cfg.HealthHandler.HealthCheck)
		r.GET("/health/ready", cfg.HealthHandler.Ready)
	}

	api := r.Group("/")
	if cfg.AuthMiddleware != nil && cfg.AuthMiddleware.Enabled() {
		api.Use(cfg.AuthMiddleware.RequireDeviceToken())
	}

	if cfg.ClassifyHandler != nil {
		api.POST("/scrapping", cfg.ClassifyHandler.Scrape)
		api.POST("/predict", cfg.ClassifyHandler.Predict)
	}
	if cfg.ScreenshotHandler != nil {
		api.POST("/screenshoot", cfg.ScreenshotHandler.Evaluate)
	}
	if cfg.RetrainHandler != nil {
		api.POST("/retrain", cfg.RetrainHandler.Retrain)
	}
	if cfg.LabelHandler != nil {
		api.PUT("/update-label", cfg.LabelHandler.UpdateLabel)
		api.PUT("/update-label-logid", cfg.LabelHandler.UpdateLabelByLogID)
		api.POST("/seed-dataset", cfg.LabelHandler.SeedDataset)
	}

	return r
}
