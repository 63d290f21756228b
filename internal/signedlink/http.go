package signedlink

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/abduss/filevault/internal/file"
	"github.com/abduss/filevault/internal/identity"
	"github.com/abduss/filevault/internal/logger"
	"github.com/abduss/filevault/internal/metrics"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler serves link issuance and token downloads.
type Handler struct {
	service *Service
	log     *zap.Logger
}

// NewHandler builds the HTTP handler.
func NewHandler(service *Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{service: service, log: log}
}

// RegisterRoutes mounts issuance under the identity-protected files group and
// downloads on the public router.
func (h *Handler) RegisterRoutes(files *gin.RouterGroup, public gin.IRouter) {
	files.POST("/:file_id/signed-link", h.createSignedLink)
	public.GET("/download/:token", h.download)
}

type signedLinkRequest struct {
	TTLSeconds *int64 `json:"ttl_seconds" binding:"required"`
}

type signedLinkResponse struct {
	FileID      int64     `json:"file_id"`
	TTLSeconds  int64     `json:"ttl_seconds"`
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (h *Handler) createSignedLink(c *gin.Context) {
	userID, ok := identity.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	fileID, ok := file.ParseID(c, "file_id")
	if !ok {
		return
	}

	var req signedLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ttl_seconds must be an integer"})
		return
	}

	link, err := h.service.Issue(c.Request.Context(), fileID, userID, *req.TTLSeconds, BaseURL(c.Request))
	if err != nil {
		switch {
		case errors.Is(err, ErrTTLExceeded):
			msg := fmt.Sprintf("ttl_seconds exceeds max allowed value (%d)", h.service.MaxTTLSeconds())
			if *req.TTLSeconds <= 0 {
				msg = "ttl_seconds must be greater than 0"
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		case errors.Is(err, file.ErrFileNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		default:
			logger.FromContext(c, h.log).Error("issue signed link", zap.Int64("file_id", fileID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create signed link"})
		}
		return
	}

	c.JSON(http.StatusOK, signedLinkResponse{
		FileID:      link.FileID,
		TTLSeconds:  link.TTLSeconds,
		DownloadURL: link.URL,
		ExpiresAt:   link.ExpiresAt,
	})
}

func (h *Handler) download(c *gin.Context) {
	dl, err := h.service.Resolve(c.Request.Context(), c.Param("token"))
	if err != nil {
		switch {
		case errors.Is(err, ErrForbidden):
			metrics.DownloadAttempt(metrics.DownloadForbidden)
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid or expired download token"})
		case errors.Is(err, file.ErrFileNotFound):
			metrics.DownloadAttempt(metrics.DownloadNotFound)
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		case errors.Is(err, file.ErrContentMissing):
			metrics.DownloadAttempt(metrics.DownloadNotFound)
			logger.FromContext(c, h.log).Warn("file data missing", zap.Error(err))
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		default:
			metrics.DownloadAttempt(metrics.DownloadFailed)
			logger.FromContext(c, h.log).Error("resolve download", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read file"})
		}
		return
	}
	defer dl.Content.Close()

	headers := map[string]string{
		"Content-Disposition": contentDisposition(dl.File.OriginalFilename),
	}
	if dl.File.Checksum != "" {
		headers["ETag"] = strconv.Quote(dl.File.Checksum)
	}

	metrics.DownloadAttempt(metrics.DownloadServed)
	c.DataFromReader(http.StatusOK, dl.File.SizeBytes, dl.File.ContentType, dl.Content, headers)
}

// contentDisposition falls back to RFC 2231 encoding for names that are not plain ASCII.
func contentDisposition(filename string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": filename}); v != "" {
		return v
	}
	return "attachment"
}
