package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ariqhikari/SnaillyJaya/internal/apperr"
	"github.com/ariqhikari/SnaillyJaya/internal/http/response"
	"github.com/ariqhikari/SnaillyJaya/internal/logger"
	"github.com/ariqhikari/SnaillyJaya/internal/services"
)

type LabelHandler struct {
	log     *logger.Logger
	curator services.LabelCurator
	seeder  services.DatasetSeeder
}

func NewLabelHandler(log *logger.Logger, curator services.LabelCurator, seeder services.DatasetSeeder) *LabelHandler {
	return &LabelHandler{
		log:     log.With("handler", "LabelHandler"),
		curator: curator,
		seeder:  seeder,
	}
}

type updateLabelRequest struct {
	ID    string `json:"id"`
	Label string `json:"new_label"`
}

// UpdateLabel corrects one prediction row by its primary key.
func (h *LabelHandler) UpdateLabel(c *gin.Context) {
	var req updateLabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAppError(c, apperr.MissingRequiredField("id"))
		return
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		response.RespondAppError(c, apperr.MissingRequiredField("id"))
		return
	}

	if err := h.curator.CorrectLabelByID(c.Request.Context(), id, req.Label); err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"id": req.ID, "label": req.Label})
}

type updateLabelByLogRequest struct {
	LogID string `json:"log_id"`
	Label string `json:"new_label"`
}

// UpdateLabelByLogID corrects the latest prediction tied to an activity
// log entry.
func (h *LabelHandler) UpdateLabelByLogID(c *gin.Context) {
	var req updateLabelByLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAppError(c, apperr.MissingRequiredField("log_id"))
		return
	}
	logID, err := uuid.Parse(req.LogID)
	if err != nil {
		response.RespondAppError(c, apperr.MissingRequiredField("log_id"))
		return
	}

	if err := h.curator.CorrectLabelByLogID(c.Request.Context(), logID, req.Label); err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"log_id": req.LogID, "label": req.Label})
}

type seedRequest struct {
	Dataset []services.SeedRow `json:"dataset"`
}

// SeedDataset bootstraps url_classification from an operator-supplied list.
func (h *LabelHandler) SeedDataset(c *gin.Context) {
	var req seedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAppError(c, apperr.MissingRequiredField("dataset"))
		return
	}

	inserted, err := h.seeder.Seed(c.Request.Context(), req.Dataset)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"inserted": inserted})
}
