package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kirtipatel215/IMS-sub000/internal/application/services"
	"github.com/kirtipatel215/IMS-sub000/internal/infrastructure/observability/logging"
	"github.com/kirtipatel215/IMS-sub000/internal/presentation/http/middleware"
)

// SessionHandlers contains the session and auth-event HTTP handlers.
type SessionHandlers struct {
	sessions *services.SessionService
	logger   *logging.ChanneledLogger
}

// NewSessionHandlers creates session handlers with injected dependencies.
func NewSessionHandlers(sessions *services.SessionService, logger *logging.ChanneledLogger) *SessionHandlers {
	return &SessionHandlers{sessions: sessions, logger: logger}
}

// GetMe handles GET /api/v1/auth/me. An anonymous request is a 200 with a
// null user, never an error.
func (h *SessionHandlers) GetMe(c *gin.Context) {
	start := time.Now()
	principal := h.sessions.Resolve(c.Request.Context(), middleware.BearerToken(c))

	h.logger.Auth().Debug("Session resolved",
		"authenticated", principal != nil, "duration", time.Since(start))
	c.JSON(http.StatusOK, gin.H{"user": principal})
}

// PutMe handles PUT /api/v1/auth/me, a profile update for the signed-in
// user.
func (h *SessionHandlers) PutMe(c *gin.Context) {
	principal, err := h.sessions.RequireRole(c.Request.Context(), middleware.BearerToken(c))
	if err != nil {
		respondError(c, err)
		return
	}

	var req services.UpdateProfileInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format"})
		return
	}

	updated, err := h.sessions.UpdateProfile(c.Request.Context(), principal, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": updated})
}

// PostAuthEvent handles POST /api/v1/auth/events, forwarded identity
// provider notifications.
func (h *SessionHandlers) PostAuthEvent(c *gin.Context) {
	var req struct {
		Event string `json:"event" binding:"required"`
		Token string `json:"token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format"})
		return
	}

	h.sessions.HandleAuthEvent(c.Request.Context(), req.Event, req.Token)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// PostAdminLogin handles POST /api/v1/auth/admin-login, the break-glass
// password login for operators.
func (h *SessionHandlers) PostAdminLogin(c *gin.Context) {
	var req struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format"})
		return
	}

	token, err := h.sessions.AuthenticateAdmin(c.Request.Context(), req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}
