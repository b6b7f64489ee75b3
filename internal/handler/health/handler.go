package health

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	ServiceName = "CarePrep AI Service"
	Version     = "1.0.0"
)

// Status reports optional capabilities. Neither is required to serve requests.
type Status struct {
	AIConfigured  bool
	EventsEnabled bool
}

type Handler struct {
	status Status
}

func NewHandler(status Status) *Handler {
	return &Handler{status: status}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/health", h.Health)
	health := r.Group("/health")
	{
		health.GET("/live", h.LivenessCheck)
		health.GET("/ready", h.ReadinessCheck)
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": ServiceName,
		"version": Version,
	})
}

func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}

// ReadinessCheck is always UP: without a completion credential every
// operation is still answered from fallbacks.
func (h *Handler) ReadinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "UP",
		"ai_configured":  h.status.AIConfigured,
		"events_enabled": h.status.EventsEnabled,
	})
}
