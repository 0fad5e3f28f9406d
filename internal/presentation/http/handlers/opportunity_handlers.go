package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kirtipatel215/IMS-sub000/internal/application/services"
	"github.com/kirtipatel215/IMS-sub000/internal/domain/user"
	"github.com/kirtipatel215/IMS-sub000/internal/infrastructure/observability/logging"
	"github.com/kirtipatel215/IMS-sub000/internal/presentation/http/middleware"
)

// OpportunityHandlers covers the listings board.
type OpportunityHandlers struct {
	opportunities *services.OpportunityService
	sessions      *services.SessionService
	logger        *logging.ChanneledLogger
}

// NewOpportunityHandlers creates opportunity handlers with injected dependencies.
func NewOpportunityHandlers(opportunities *services.OpportunityService, sessions *services.SessionService, logger *logging.ChanneledLogger) *OpportunityHandlers {
	return &OpportunityHandlers{opportunities: opportunities, sessions: sessions, logger: logger}
}

// GetActive handles GET /api/v1/opportunities. Any signed-in role may browse.
func (h *OpportunityHandlers) GetActive(c *gin.Context) {
	if _, err := h.sessions.RequireRole(c.Request.Context(), middleware.BearerToken(c)); err != nil {
		respondError(c, err)
		return
	}

	respondResult(c, h.opportunities.Active(c.Request.Context()))
}

// PostListing handles POST /api/v1/opportunities, placement cell only.
func (h *OpportunityHandlers) PostListing(c *gin.Context) {
	principal, err := h.sessions.RequireRole(c.Request.Context(), middleware.BearerToken(c), user.RolePlacementOfficer)
	if err != nil {
		respondError(c, err)
		return
	}

	var input services.PostOpportunityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format"})
		return
	}

	opp, err := h.opportunities.Post(c.Request.Context(), principal, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"opportunity": opp})
}

// PostClose handles POST /api/v1/opportunities/:id/close.
func (h *OpportunityHandlers) PostClose(c *gin.Context) {
	principal, err := h.sessions.RequireRole(c.Request.Context(), middleware.BearerToken(c), user.RolePlacementOfficer)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.opportunities.Close(c.Request.Context(), principal, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "closed"})
}
