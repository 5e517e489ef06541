package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ariqhikari/SnaillyJaya/internal/http/response"
	"github.com/ariqhikari/SnaillyJaya/internal/services"
)

type HealthHandler struct {
	readiness *services.Readiness
}

func NewHealthHandler(readiness *services.Readiness) *HealthHandler {
	return &HealthHandler{readiness: readiness}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// Ready reports 503 until a model pair is active.
func (h *HealthHandler) Ready(c *gin.Context) {
	if h.readiness == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
		return
	}
	if err := h.readiness.Check(); err != nil {
		response.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "state": string(h.readiness.State())})
}
