package audit

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/abduss/filevault/internal/identity"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newAuditRouter(store Store, log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	group := r.Group("/files")
	group.Use(identity.Middleware())
	RegisterRoutes(group, NewService(store, nil), log)
	return r
}

func TestListAuditsLogsStoreFailure(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	r := newAuditRouter(&fakeStore{listErr: errors.New("db down")}, zap.New(core))

	req := httptest.NewRequest(http.MethodGet, "/files/users/4/link-audits", nil)
	req.Header.Set(identity.Header, "4")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	entries := logs.FilterMessage("list link audits").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "db down", entries[0].ContextMap()["error"])
}

func TestListAuditsReturnsViews(t *testing.T) {
	store := &fakeStore{views: []View{{ID: 1, FileID: 2, Filename: "a.txt", RequesterUserID: 4, TTLSeconds: 60}}}
	r := newAuditRouter(store, nil)

	req := httptest.NewRequest(http.MethodGet, "/files/users/4/link-audits", nil)
	req.Header.Set(identity.Header, "4")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"filename":"a.txt"`)
}
