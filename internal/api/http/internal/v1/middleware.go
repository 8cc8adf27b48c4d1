package v1

import (
	"errors"
	"net/http"
	"strings"

	"github.com/oshxona/backend/internal/service"
	"github.com/oshxona/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	authorizationHeader = "Authorization"
	userCtx             = "userId"
)

func (h *Handler) userIdentityMiddleware(c *gin.Context) {
	id, err := h.parseAuthHeader(c)
	if err != nil {
		if !errors.Is(err, jwt.ErrTokenExpired) {
			logger.Debug("parse auth header failed", zap.Error(err))
		}
		errorResponse(c, http.StatusUnauthorized, AuthUnauthorizedCode)
		return
	}

	c.Set(userCtx, id)
}

// optionalUserIdentityMiddleware sets the user only when a valid token is present.
func (h *Handler) optionalUserIdentityMiddleware(c *gin.Context) {
	if c.GetHeader(authorizationHeader) == "" {
		return
	}

	if id, err := h.parseAuthHeader(c); err == nil {
		c.Set(userCtx, id)
	}
}

func (h *Handler) parseAuthHeader(c *gin.Context) (string, error) {
	header := c.GetHeader(authorizationHeader)
	if header == "" {
		return "", errors.New("empty auth header")
	}

	headerParts := strings.Split(header, " ")
	if len(headerParts) != 2 || headerParts[0] != "Bearer" {
		return "", errors.New("invalid auth header")
	}

	if len(headerParts[1]) == 0 {
		return "", errors.New("token is empty")
	}

	return h.tokenManager.Parse(headerParts[1])
}

func (h *Handler) getUserUUID(c *gin.Context) (uuid.UUID, error) {
	id, ok := c.Get(userCtx)
	if !ok {
		return uuid.Nil, errors.New("user id not found")
	}

	return uuid.Parse(id.(string))
}

// mustUserUUID aborts with 401 when the request carries no valid user.
func (h *Handler) mustUserUUID(c *gin.Context) (uuid.UUID, bool) {
	id, err := h.getUserUUID(c)
	if err != nil {
		errorResponse(c, http.StatusUnauthorized, AuthUnauthorizedCode)
		return uuid.Nil, false
	}

	return id, true
}

func sessionMeta(c *gin.Context) service.SessionMeta {
	return service.SessionMeta{
		UserAgent: c.Request.UserAgent(),
		IP:        c.ClientIP(),
	}
}
