package httpapi

import (
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/calckeeper/internal/common"
	"github.com/dmitrijs2005/calckeeper/internal/server/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDKey = "request_id"
	identityKey  = "identity"
	claimsKey    = "claims"
)

// requestIDMiddleware keeps a client supplied X-Request-ID or mints one,
// and echoes it on the response.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(common.RequestIDHeader)
		if id == "" || len(id) > 128 {
			var err error
			if id, err = common.MakeRandHexString(16); err != nil {
				id = uuid.NewString()
			}
		}
		c.Set(requestIDKey, id)
		c.Header(common.RequestIDHeader, id)
		c.Next()
	}
}

func requestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"request_id", requestID(c),
		}
		if id, ok := identity(c); ok {
			args = append(args, "user_id", id.UserID)
		}
		s.logger.Info(c.Request.Context(), "request", args...)
	}
}

func (s *Server) recoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, rec any) {
		s.logger.Error(c.Request.Context(), "panic in handler", "panic", rec, "request_id", requestID(c))
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Detail: "internal server error"})
	})
}

// authMiddleware resolves the bearer token into the calling identity.
// Handlers behind it can rely on identity(c) being set.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, claims, err := s.resolver.Resolve(c.Request.Context(), c.GetHeader(common.AuthorizationHeader))
		if err != nil {
			s.abortWithError(c, err)
			return
		}
		c.Set(identityKey, auth.IdentityFromUser(user))
		c.Set(claimsKey, claims)
		c.Next()
	}
}

func identity(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return auth.Identity{}, false
	}
	id, ok := v.(auth.Identity)
	return id, ok
}

func mustIdentity(c *gin.Context) auth.Identity {
	id, _ := identity(c)
	return id
}

func accessClaims(c *gin.Context) *auth.Claims {
	v, _ := c.Get(claimsKey)
	claims, _ := v.(*auth.Claims)
	return claims
}
