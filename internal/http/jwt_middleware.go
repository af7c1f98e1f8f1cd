package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"career-advisor/internal/service"
)

const authClaimsKey = "auth_claims"

const (
	errMissingToken = "missing token"
	errInvalidToken = "invalid token"
	errExpiredToken = "token expired"
)

// RequireCaller exige un access token válido en rutas que operan sobre datos del usuario
// (evaluaciones, skills, recomendaciones). Deja los claims en el contexto y marca el span con el usuario.
func RequireCaller(jwtSvc *service.JWTService, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		if jwtSvc == nil {
			logger.Error("jwt service not configured")
			abortWithError(c, http.StatusInternalServerError, "authentication unavailable")
			return
		}

		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.Header("WWW-Authenticate", `Bearer realm="career-advisor"`)
			abortWithError(c, http.StatusUnauthorized, errMissingToken)
			return
		}

		claims, err := jwtSvc.ParseAccessToken(token)
		if err != nil {
			msg := errInvalidToken
			if errors.Is(err, service.ErrJWTExpired) {
				msg = errExpiredToken
			}
			logger.Debug("access token rejected", zap.String("path", c.FullPath()), zap.Error(err))
			c.Header("WWW-Authenticate", `Bearer realm="career-advisor", error="invalid_token"`)
			abortWithError(c, http.StatusUnauthorized, msg)
			return
		}

		trace.SpanFromContext(c.Request.Context()).SetAttributes(attribute.String("enduser.id", claims.UserID))
		c.Set(authClaimsKey, claims)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func GetAuthClaims(c *gin.Context) (service.Claims, bool) {
	val, ok := c.Get(authClaimsKey)
	if !ok {
		return service.Claims{}, false
	}
	claims, ok := val.(service.Claims)
	return claims, ok
}
