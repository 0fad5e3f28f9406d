package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kirtipatel215/IMS-sub000/internal/application/services"
	"github.com/kirtipatel215/IMS-sub000/internal/infrastructure/observability/logging"
	"github.com/kirtipatel215/IMS-sub000/internal/presentation/http/middleware"
)

// UploadHandlers accepts multipart uploads for the media store.
type UploadHandlers struct {
	uploads  *services.UploadService
	sessions *services.SessionService
	logger   *logging.ChanneledLogger
}

// NewUploadHandlers creates upload handlers with injected dependencies.
func NewUploadHandlers(uploads *services.UploadService, sessions *services.SessionService, logger *logging.ChanneledLogger) *UploadHandlers {
	return &UploadHandlers{uploads: uploads, sessions: sessions, logger: logger}
}

// PostUpload handles POST /api/v1/uploads. The target folder comes from the
// "folder" form field and the payload from the "file" part.
func (h *UploadHandlers) PostUpload(c *gin.Context) {
	if _, err := h.sessions.RequireRole(c.Request.Context(), middleware.BearerToken(c)); err != nil {
		respondError(c, err)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file supplied"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
		return
	}

	folder := c.PostForm("folder")
	if folder == "" {
		folder = "documents"
	}

	result, err := h.uploads.Upload(c.Request.Context(), services.UploadRequest{
		FileName:    fileHeader.Filename,
		Folder:      folder,
		Data:        data,
		ContentType: fileHeader.Header.Get("Content-Type"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"name": result.Name, "url": result.URL})
}
