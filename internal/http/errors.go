package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"career-advisor/internal/domain"
	"career-advisor/internal/service"
)

// abortWithError es la única forma de respuesta de error de la API: {"error": msg}.
func abortWithError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// writeServiceError traduce errores de servicio a códigos HTTP. Los 5xx no exponen el detalle.
func writeServiceError(c *gin.Context, logger *zap.Logger, err error, fallback string) {
	status, msg := http.StatusInternalServerError, fallback
	switch {
	case errors.Is(err, domain.ErrValidation):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrState):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, service.ErrEmailTaken):
		status, msg = http.StatusConflict, "email already registered"
	case errors.Is(err, service.ErrInvalidCredentials):
		status, msg = http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, service.ErrRateLimited):
		status, msg = http.StatusTooManyRequests, "too many requests"
		var rle *service.RateLimitError
		if errors.As(err, &rle) && rle.RetryAfter > 0 {
			c.Header("Retry-After", strconv.Itoa(int(rle.RetryAfter.Seconds())))
		}
	}

	if status >= http.StatusInternalServerError {
		logger.Error(fallback, zap.Error(err), zap.String("path", c.FullPath()))
	} else {
		logger.Debug("request rejected", zap.Int("status", status), zap.Error(err))
	}
	abortWithError(c, status, msg)
}

func badRequest(c *gin.Context, logger *zap.Logger, what string, err error) {
	logger.Warn("invalid "+what+" request", zap.Error(err))
	abortWithError(c, http.StatusBadRequest, "invalid request")
}

// callerID devuelve el usuario autenticado; aborta con 401 si falta.
func callerID(c *gin.Context) (string, bool) {
	claims, ok := GetAuthClaims(c)
	if !ok || claims.UserID == "" {
		abortWithError(c, http.StatusUnauthorized, errMissingToken)
		return "", false
	}
	return claims.UserID, true
}
