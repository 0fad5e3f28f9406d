package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/kirtipatel215/IMS-sub000/internal/application/services"
	"github.com/kirtipatel215/IMS-sub000/internal/infrastructure/observability/logging"
	"github.com/kirtipatel215/IMS-sub000/internal/presentation/http/middleware"
)

// DashboardHandlers serves the aggregate counters block.
type DashboardHandlers struct {
	dashboard *services.DashboardService
	sessions  *services.SessionService
	logger    *logging.ChanneledLogger
}

// NewDashboardHandlers creates dashboard handlers with injected dependencies.
func NewDashboardHandlers(dashboard *services.DashboardService, sessions *services.SessionService, logger *logging.ChanneledLogger) *DashboardHandlers {
	return &DashboardHandlers{dashboard: dashboard, sessions: sessions, logger: logger}
}

// GetStats handles GET /api/v1/dashboard/stats.
func (h *DashboardHandlers) GetStats(c *gin.Context) {
	principal, err := h.sessions.RequireRole(c.Request.Context(), middleware.BearerToken(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondResult(c, h.dashboard.Stats(c.Request.Context(), principal.ID))
}
