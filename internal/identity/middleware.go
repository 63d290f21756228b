// Package identity resolves the caller from the trusted gateway header.
//
// The header is set by an upstream gateway after it has authenticated the
// user; this service never sees credentials. Requests without a usable
// identity are rejected before they reach any handler.
package identity

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// Header carries the caller's numeric user id.
const Header = "X-User-Id"

const userContextKey = "filevaultUserID"

// Middleware validates the identity header and injects the user id.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, present := c.Request.Header[http.CanonicalHeaderKey(Header)]
		if !present || len(raw) == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": Header + " header is required"})
			return
		}

		userID, err := strconv.ParseInt(strings.TrimSpace(raw[0]), 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": Header + " must be an integer"})
			return
		}
		if userID <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": Header + " must be positive"})
			return
		}

		c.Set(userContextKey, userID)
		c.Next()
	}
}

// RequireUser fetches the caller id injected by Middleware.
func RequireUser(c *gin.Context) (int64, bool) {
	value, exists := c.Get(userContextKey)
	if !exists {
		return 0, false
	}
	id, ok := value.(int64)
	return id, ok
}
