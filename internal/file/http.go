package file

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/abduss/filevault/internal/content"
	"github.com/abduss/filevault/internal/identity"
	"github.com/abduss/filevault/internal/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const uploadField = "file"

// RegisterRoutes mounts file operations under the provided router group.
func RegisterRoutes(group *gin.RouterGroup, service *Service, log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	handler := &httpHandler{service: service, log: log}
	group.POST("/upload", handler.uploadFile)
	group.GET("", handler.listFiles)
	group.DELETE("/:file_id", handler.deleteFile)
}

type httpHandler struct {
	service *Service
	log     *zap.Logger
}

type uploadResponse struct {
	FileID     int64     `json:"file_id"`
	Filename   string    `json:"filename"`
	SizeBytes  int64     `json:"size_bytes"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type fileResponse struct {
	FileID      int64     `json:"file_id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// uploadFile streams the "file" part straight to storage without spooling
// the request body to memory or temp files.
func (h *httpHandler) uploadFile(c *gin.Context) {
	userID, ok := identity.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	reader, err := c.Request.MultipartReader()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart/form-data body is required"})
		return
	}

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file field is required"})
			return
		}
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed multipart body"})
			return
		}
		if part.FormName() != uploadField {
			_ = part.Close()
			continue
		}

		stored, err := h.service.Save(c.Request.Context(), userID, part.FileName(), part, part.Header.Get("Content-Type"))
		_ = part.Close()
		if err != nil {
			switch {
			case errors.Is(err, content.ErrSourceRead):
				c.JSON(http.StatusBadRequest, gin.H{"error": "upload stream interrupted"})
			default:
				logger.FromContext(c, h.log).Error("upload file", zap.Int64("owner_user_id", userID), zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store file"})
			}
			return
		}

		c.JSON(http.StatusCreated, uploadResponse{
			FileID:     stored.ID,
			Filename:   stored.OriginalFilename,
			SizeBytes:  stored.SizeBytes,
			UploadedAt: stored.CreatedAt,
		})
		return
	}
}

func (h *httpHandler) listFiles(c *gin.Context) {
	userID, ok := identity.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	files, err := h.service.ListByOwner(c.Request.Context(), userID)
	if err != nil {
		logger.FromContext(c, h.log).Error("list files", zap.Int64("owner_user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list files"})
		return
	}

	resp := make([]fileResponse, 0, len(files))
	for _, f := range files {
		resp = append(resp, fileResponse{
			FileID:      f.ID,
			Filename:    f.OriginalFilename,
			ContentType: f.ContentType,
			SizeBytes:   f.SizeBytes,
			UploadedAt:  f.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, resp)
}

func (h *httpHandler) deleteFile(c *gin.Context) {
	userID, ok := identity.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	fileID, ok := ParseID(c, "file_id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), fileID, userID); err != nil {
		if errors.Is(err, ErrFileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return
		}
		logger.FromContext(c, h.log).Error("delete file", zap.Int64("file_id", fileID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete file"})
		return
	}

	c.Status(http.StatusNoContent)
}

// ParseID reads an integer path parameter, answering 400 when it is not one.
func ParseID(c *gin.Context, param string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + param})
		return 0, false
	}
	return id, true
}
