package chat

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/careprep/ai-service/internal/handler"
	"github.com/careprep/ai-service/internal/model"
	"github.com/careprep/ai-service/internal/service/assistant"
	"github.com/careprep/ai-service/pkg/httputil"
)

const msgMessageRequired = "Message is required"

type Handler struct {
	service assistant.Service
}

func NewHandler(service assistant.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	chat := r.Group("/chat")
	{
		chat.POST("", h.Chat)
		chat.POST("/pre-visit", h.PreVisit)
		chat.POST("/post-visit", h.PostVisit)
	}
}

type chatRequest struct {
	Message string            `json:"message"`
	Mode    model.ChatMode    `json:"mode" binding:"omitempty,chatmode"`
	Context model.ChatContext `json:"context"`
}

type preVisitRequest struct {
	Message  string                `json:"message"`
	Symptoms []model.SymptomRecord `json:"symptoms" binding:"omitempty,dive"`
}

type postVisitRequest struct {
	Message string              `json:"message"`
	Summary *model.VisitSummary `json:"summary"`
}

func (h *Handler) Chat(c *gin.Context) {
	var req chatRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		handler.Fail(c, msgMessageRequired)
		return
	}
	if req.Mode == "" {
		req.Mode = model.ModePreVisit
	}

	httputil.RespondWithSuccess(c, h.service.Chat(c.Request.Context(), req.Message, req.Mode, req.Context))
}

func (h *Handler) PreVisit(c *gin.Context) {
	var req preVisitRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		handler.Fail(c, msgMessageRequired)
		return
	}

	res := h.service.Chat(c.Request.Context(), req.Message, model.ModePreVisit, model.ChatContext{Symptoms: req.Symptoms})
	httputil.RespondWithSuccess(c, res)
}

func (h *Handler) PostVisit(c *gin.Context) {
	var req postVisitRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		handler.Fail(c, msgMessageRequired)
		return
	}

	res := h.service.Chat(c.Request.Context(), req.Message, model.ModePostVisit, model.ChatContext{Summary: req.Summary})
	httputil.RespondWithSuccess(c, res)
}
