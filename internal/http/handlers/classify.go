package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ariqhikari/SnaillyJaya/internal/apperr"
	"github.com/ariqhikari/SnaillyJaya/internal/http/response"
	"github.com/ariqhikari/SnaillyJaya/internal/logger"
	"github.com/ariqhikari/SnaillyJaya/internal/services"
)

type ClassifyHandler struct {
	log     *logger.Logger
	service services.ClassifyService
}

func NewClassifyHandler(log *logger.Logger, service services.ClassifyService) *ClassifyHandler {
	return &ClassifyHandler{
		log:     log.With("handler", "ClassifyHandler"),
		service: service,
	}
}

type scrapeRequest struct {
	URL      string `json:"url"`
	ChildID  string `json:"child_id"`
	ParentID string `json:"parent_id"`
}

// Scrape runs the full URL pipeline: resolve content (cache hit or
// scrape-and-store), classify it, and return the access verdict.
func (h *ClassifyHandler) Scrape(c *gin.Context) {
	var req scrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.URL == "" {
		response.RespondAppError(c, apperr.MissingRequiredField("url"))
		return
	}
	fillDeviceIdentity(c, &req.ChildID, &req.ParentID)

	result, err := h.service.ClassifyURL(c.Request.Context(), services.ClassifyRequest{
		URL:      req.URL,
		ChildID:  req.ChildID,
		ParentID: req.ParentID,
	})
	if err != nil {
		h.logFailure("URL classification failed", req.URL, err)
		response.RespondAppError(c, err)
		return
	}

	response.RespondOK(c, result)
}

type predictRequest struct {
	Text     string `json:"text"`
	URL      string `json:"url"`
	ChildID  string `json:"child_id"`
	ParentID string `json:"parent_id"`
}

// Predict classifies text the device already extracted; no scraping.
func (h *ClassifyHandler) Predict(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAppError(c, apperr.MissingRequiredField("text"))
		return
	}
	fillDeviceIdentity(c, &req.ChildID, &req.ParentID)

	result, err := h.service.ClassifyText(c.Request.Context(), services.ClassifyRequest{
		URL:      req.URL,
		Text:     req.Text,
		ChildID:  req.ChildID,
		ParentID: req.ParentID,
	})
	if err != nil {
		h.logFailure("Text classification failed", req.URL, err)
		response.RespondAppError(c, err)
		return
	}

	response.RespondOK(c, result)
}

// fillDeviceIdentity falls back to the identity the auth middleware put on
// the context when the body omits it.
func fillDeviceIdentity(c *gin.Context, childID, parentID *string) {
	if *childID == "" {
		*childID = c.GetString("child_id")
	}
	if *parentID == "" {
		*parentID = c.GetString("parent_id")
	}
}

func (h *ClassifyHandler) logFailure(msg, url string, err error) {
	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Status >= http.StatusInternalServerError {
		h.log.Error(msg, "url", url, "error", err)
	} else {
		h.log.Warn(msg, "url", url, "error", err)
	}
}
