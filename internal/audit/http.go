package audit

import (
	"errors"
	"net/http"
	"time"

	"github.com/abduss/filevault/internal/file"
	"github.com/abduss/filevault/internal/identity"
	"github.com/abduss/filevault/internal/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RegisterRoutes mounts audit listing under the provided router group.
func RegisterRoutes(group *gin.RouterGroup, service *Service, log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	handler := &httpHandler{service: service, log: log}
	group.GET("/users/:user_id/link-audits", handler.listAudits)
}

type httpHandler struct {
	service *Service
	log     *zap.Logger
}

type auditResponse struct {
	AuditID         int64     `json:"audit_id"`
	FileID          int64     `json:"file_id"`
	Filename        string    `json:"filename"`
	RequesterUserID int64     `json:"requester_user_id"`
	TTLSeconds      int64     `json:"ttl_seconds"`
	CreatedAt       time.Time `json:"created_at"`
}

func (h *httpHandler) listAudits(c *gin.Context) {
	callerID, ok := identity.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	userID, ok := file.ParseID(c, "user_id")
	if !ok {
		return
	}

	views, err := h.service.ListByRequester(c.Request.Context(), callerID, userID)
	if err != nil {
		if errors.Is(err, ErrForbidden) {
			c.JSON(http.StatusForbidden, gin.H{"error": "cannot view audits of another user"})
			return
		}
		logger.FromContext(c, h.log).Error("list link audits", zap.Int64("requester_user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list audits"})
		return
	}

	resp := make([]auditResponse, 0, len(views))
	for _, v := range views {
		resp = append(resp, auditResponse{
			AuditID:         v.ID,
			FileID:          v.FileID,
			Filename:        v.Filename,
			RequesterUserID: v.RequesterUserID,
			TTLSeconds:      v.TTLSeconds,
			CreatedAt:       v.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, resp)
}
