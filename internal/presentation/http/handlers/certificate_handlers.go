package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kirtipatel215/IMS-sub000/internal/application/services"
	"github.com/kirtipatel215/IMS-sub000/internal/domain/user"
	"github.com/kirtipatel215/IMS-sub000/internal/infrastructure/observability/logging"
	"github.com/kirtipatel215/IMS-sub000/internal/presentation/http/middleware"
)

// CertificateHandlers covers completion certificates.
type CertificateHandlers struct {
	certificates *services.CertificateService
	sessions     *services.SessionService
	logger       *logging.ChanneledLogger
}

// NewCertificateHandlers creates certificate handlers with injected dependencies.
func NewCertificateHandlers(certificates *services.CertificateService, sessions *services.SessionService, logger *logging.ChanneledLogger) *CertificateHandlers {
	return &CertificateHandlers{certificates: certificates, sessions: sessions, logger: logger}
}

// GetMine handles GET /api/v1/certificates.
func (h *CertificateHandlers) GetMine(c *gin.Context) {
	principal, err := h.sessions.RequireRole(c.Request.Context(), middleware.BearerToken(c), user.RoleStudent)
	if err != nil {
		respondError(c, err)
		return
	}

	respondResult(c, h.certificates.ForStudent(c.Request.Context(), principal.ID))
}

// PostIssue handles POST /api/v1/certificates, placement cell only.
func (h *CertificateHandlers) PostIssue(c *gin.Context) {
	principal, err := h.sessions.RequireRole(c.Request.Context(), middleware.BearerToken(c), user.RolePlacementOfficer)
	if err != nil {
		respondError(c, err)
		return
	}

	var input services.IssueCertificateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format"})
		return
	}

	cert, err := h.certificates.Issue(c.Request.Context(), principal, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"certificate": cert})
}
