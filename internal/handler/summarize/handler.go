package summarize

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/careprep/ai-service/internal/handler"
	"github.com/careprep/ai-service/internal/model"
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
	summarize := r.Group("/summarize")
	{
		summarize.POST("/symptoms", h.SummarizeSymptoms)
		summarize.POST("/text", h.SummarizeText)
	}
}

type symptomsRequest struct {
	Symptoms []model.SymptomRecord `json:"symptoms" binding:"omitempty,dive"`
}

type textRequest struct {
	Text string `json:"text"`
}

// textSummaryResponse omits processedText; the caller already has the text.
type textSummaryResponse struct {
	Success        bool               `json:"success"`
	PatientSummary string             `json:"patientSummary"`
	DoctorSummary  string             `json:"doctorSummary"`
	Medications    []model.Medication `json:"medications"`
	FollowUps      []model.FollowUp   `json:"followUps"`
	RedFlags       []string           `json:"redFlags"`
}

func (h *Handler) SummarizeSymptoms(c *gin.Context) {
	var req symptomsRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	if len(req.Symptoms) == 0 {
		handler.Fail(c, "No symptoms provided")
		return
	}

	httputil.RespondWithSuccess(c, h.service.GenerateSymptomSummary(c.Request.Context(), req.Symptoms))
}

func (h *Handler) SummarizeText(c *gin.Context) {
	var req textRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		handler.Fail(c, "No text provided")
		return
	}

	res := h.service.SummarizeDocument(c.Request.Context(), req.Text)
	httputil.RespondWithSuccess(c, textSummaryResponse{
		Success:        res.Success,
		PatientSummary: res.PatientSummary,
		DoctorSummary:  res.DoctorSummary,
		Medications:    res.Medications,
		FollowUps:      res.FollowUps,
		RedFlags:       res.RedFlags,
	})
}
