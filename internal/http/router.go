package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"career-advisor/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	serviceName string,
	jwtSvc *service.JWTService,
	userH *UserHandler,
	assessmentH *AssessmentHandler,
	catalogH *CatalogHandler,
	recH *RecommendationHandler,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: tracing, logging, recovery y JSON content-type.
	r.Use(otelgin.Middleware(serviceName), zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/users", userH.CreateUser)

	auth := r.Group("/auth")
	auth.POST("/login", userH.Login)
	auth.POST("/refresh", userH.RefreshToken)
	auth.POST("/logout", userH.Logout)

	// Catálogo público.
	r.GET("/traits", catalogH.Traits)
	r.GET("/questions", catalogH.Questions)
	careers := r.Group("/careers")
	careers.GET("", catalogH.Careers)
	careers.GET("/:id", catalogH.Career)
	careers.GET("/:id/courses", catalogH.Courses)
	careers.GET("/:id/roadmaps", catalogH.Roadmaps)

	private := r.Group("", RequireCaller(jwtSvc, logger))

	assessments := private.Group("/assessments")
	assessments.POST("", assessmentH.Start)
	assessments.GET("/:id", assessmentH.Get)
	assessments.POST("/:id/responses", assessmentH.SubmitResponses)
	assessments.POST("/:id/abandon", assessmentH.Abandon)
	assessments.GET("/:id/traits", assessmentH.TraitScores)

	me := private.Group("/me")
	me.GET("/skills", userH.ListSkills)
	me.PUT("/skills", userH.SetSkill)

	recs := private.Group("/recommendations")
	recs.POST("", recH.Generate)
	recs.GET("", recH.List)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
