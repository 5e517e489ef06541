package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/ariqhikari/SnaillyJaya/internal/http/response"
	"github.com/ariqhikari/SnaillyJaya/internal/logger"
	"github.com/ariqhikari/SnaillyJaya/internal/services"
)

type RetrainHandler struct {
	log         *logger.Logger
	coordinator services.RetrainingCoordinator
	readiness   *services.Readiness
}

func NewRetrainHandler(log *logger.Logger, coordinator services.RetrainingCoordinator, readiness *services.Readiness) *RetrainHandler {
	return &RetrainHandler{
		log:         log.With("handler", "RetrainHandler"),
		coordinator: coordinator,
		readiness:   readiness,
	}
}

// Retrain runs synchronously; the caller waits for the summary. Concurrent
// calls are rejected by the coordinator.
func (h *RetrainHandler) Retrain(c *gin.Context) {
	summary, err := h.coordinator.Retrain(c.Request.Context())
	if err != nil {
		h.log.Warn("Retrain rejected or failed", "error", err)
		response.RespondAppError(c, err)
		return
	}
	if h.readiness != nil {
		h.readiness.MarkReady()
	}
	response.RespondOK(c, summary)
}
