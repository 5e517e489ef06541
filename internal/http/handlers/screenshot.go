package handlers

import (
	"io"

	"github.com/gin-gonic/gin"

	"github.com/ariqhikari/SnaillyJaya/internal/apperr"
	"github.com/ariqhikari/SnaillyJaya/internal/http/response"
	"github.com/ariqhikari/SnaillyJaya/internal/logger"
	"github.com/ariqhikari/SnaillyJaya/internal/services"
)

const maxScreenshotBytes = 10 << 20

type ScreenshotHandler struct {
	log     *logger.Logger
	service services.ScreenshotService
}

func NewScreenshotHandler(log *logger.Logger, service services.ScreenshotService) *ScreenshotHandler {
	return &ScreenshotHandler{
		log:     log.With("handler", "ScreenshotHandler"),
		service: service,
	}
}

// Evaluate accepts a multipart upload under the "image_file" field.
func (h *ScreenshotHandler) Evaluate(c *gin.Context) {
	file, _, err := c.Request.FormFile("image_file")
	if err != nil {
		response.RespondAppError(c, apperr.MissingRequiredField("image_file"))
		return
	}
	defer file.Close()

	img, err := io.ReadAll(io.LimitReader(file, maxScreenshotBytes))
	if err != nil || len(img) == 0 {
		response.RespondAppError(c, apperr.MissingRequiredField("image_file"))
		return
	}

	childID := c.PostForm("child_id")
	if childID == "" {
		childID = c.GetString("child_id")
	}
	if childID == "" {
		response.RespondAppError(c, apperr.MissingRequiredField("child_id"))
		return
	}
	parentID := c.PostForm("parent_id")
	if parentID == "" {
		parentID = c.GetString("parent_id")
	}

	result, err := h.service.Evaluate(c.Request.Context(), img, childID, parentID)
	if err != nil {
		h.log.Error("Screenshot evaluation failed", "child_id", childID, "error", err)
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, result)
}
