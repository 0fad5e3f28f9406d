package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kirtipatel215/IMS-sub000/internal/application/services"
	"github.com/kirtipatel215/IMS-sub000/internal/domain/user"
	"github.com/kirtipatel215/IMS-sub000/internal/infrastructure/observability/logging"
	"github.com/kirtipatel215/IMS-sub000/internal/presentation/http/middleware"
)

// RequestHandlers covers the internship request lifecycle.
type RequestHandlers struct {
	requests *services.RequestService
	sessions *services.SessionService
	logger   *logging.ChanneledLogger
}

// NewRequestHandlers creates request handlers with injected dependencies.
func NewRequestHandlers(requests *services.RequestService, sessions *services.SessionService, logger *logging.ChanneledLogger) *RequestHandlers {
	return &RequestHandlers{requests: requests, sessions: sessions, logger: logger}
}

// GetMine handles GET /api/v1/requests, the signed-in student's requests.
func (h *RequestHandlers) GetMine(c *gin.Context) {
	principal, err := h.sessions.RequireRole(c.Request.Context(), middleware.BearerToken(c), user.RoleStudent)
	if err != nil {
		respondError(c, err)
		return
	}

	respondResult(c, h.requests.ForStudent(c.Request.Context(), principal.ID))
}

// GetPending handles GET /api/v1/requests/pending, a mentor's review queue.
func (h *RequestHandlers) GetPending(c *gin.Context) {
	principal, err := h.sessions.RequireRole(c.Request.Context(), middleware.BearerToken(c), user.RoleTeacher)
	if err != nil {
		respondError(c, err)
		return
	}

	respondResult(c, h.requests.PendingForMentor(c.Request.Context(), principal.ID))
}

// PostSubmit handles POST /api/v1/requests.
func (h *RequestHandlers) PostSubmit(c *gin.Context) {
	principal, err := h.sessions.RequireRole(c.Request.Context(), middleware.BearerToken(c), user.RoleStudent)
	if err != nil {
		respondError(c, err)
		return
	}

	var input services.SubmitRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format"})
		return
	}

	req, err := h.requests.Submit(c.Request.Context(), principal, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"request": req})
}

// PostWithdraw handles POST /api/v1/requests/:id/withdraw.
func (h *RequestHandlers) PostWithdraw(c *gin.Context) {
	principal, err := h.sessions.RequireRole(c.Request.Context(), middleware.BearerToken(c), user.RoleStudent)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.requests.Withdraw(c.Request.Context(), principal, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "withdrawn"})
}

// PostReview handles POST /api/v1/requests/:id/review.
func (h *RequestHandlers) PostReview(c *gin.Context) {
	principal, err := h.sessions.RequireRole(c.Request.Context(), middleware.BearerToken(c), user.RoleTeacher)
	if err != nil {
		respondError(c, err)
		return
	}

	var input struct {
		Approve bool   `json:"approve"`
		Note    string `json:"note"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format"})
		return
	}

	if err := h.requests.Review(c.Request.Context(), principal, c.Param("id"), input.Approve, input.Note); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reviewed"})
}
