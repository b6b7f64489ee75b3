package process

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/careprep/ai-service/internal/handler"
	"github.com/careprep/ai-service/internal/service/assistant"
	"github.com/careprep/ai-service/pkg/httputil"
)

type Handler struct {
	service assistant.Service
}

func NewHandler(service assistant.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	process := r.Group("/process")
	{
		process.POST("/text", h.ProcessText)
		process.POST("/cleanup", h.Cleanup)
	}
}

type textRequest struct {
	Text string `json:"text"`
}

type cleanupResponse struct {
	Success bool   `json:"success"`
	Text    string `json:"text"`
}

// ProcessText cleans up already extracted document text and summarizes it.
func (h *Handler) ProcessText(c *gin.Context) {
	var req textRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		handler.Fail(c, "No text could be extracted from the document")
		return
	}

	ctx := c.Request.Context()
	cleaned := h.service.CleanupOCRText(ctx, req.Text)
	httputil.RespondWithSuccess(c, h.service.SummarizeDocument(ctx, cleaned))
}

func (h *Handler) Cleanup(c *gin.Context) {
	var req textRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		handler.Fail(c, "No text provided")
		return
	}

	httputil.RespondWithSuccess(c, cleanupResponse{
		Success: true,
		Text:    h.service.CleanupOCRText(c.Request.Context(), req.Text),
	})
}
