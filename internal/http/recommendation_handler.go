package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"career-advisor/internal/domain"
	"career-advisor/internal/service"
)

type RecommendationUsecase interface {
	Generate(ctx context.Context, userID string, in service.GenerateInput) ([]domain.Recommendation, error)
	List(ctx context.Context, userID, assessmentID string) ([]domain.Recommendation, error)
}

type RecommendationHandler struct {
	logger          *zap.Logger
	recommendations RecommendationUsecase
}

func NewRecommendationHandler(logger *zap.Logger, recommendations RecommendationUsecase) *RecommendationHandler {
	return &RecommendationHandler{logger: logger, recommendations: recommendations}
}

// Generate maneja POST /recommendations. Sin flags explícitos incluye cursos y roadmaps.
func (h *RecommendationHandler) Generate(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req struct {
		AssessmentID       string `json:"assessment_id" binding:"required"`
		IncludeCourses     *bool  `json:"include_courses"`
		IncludeRoadmaps    *bool  `json:"include_roadmaps"`
		MaxRecommendations *int   `json:"max_recommendations"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "generate recommendations", err)
		return
	}

	in := service.GenerateInput{
		AssessmentID:       req.AssessmentID,
		IncludeCourses:     true,
		IncludeRoadmaps:    true,
		MaxRecommendations: service.DefaultMaxRecommendations,
	}
	if req.IncludeCourses != nil {
		in.IncludeCourses = *req.IncludeCourses
	}
	if req.IncludeRoadmaps != nil {
		in.IncludeRoadmaps = *req.IncludeRoadmaps
	}
	if req.MaxRecommendations != nil {
		in.MaxRecommendations = *req.MaxRecommendations
	}

	recs, err := h.recommendations.Generate(c.Request.Context(), userID, in)
	if err != nil {
		writeServiceError(c, h.logger, err, "could not generate recommendations")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"recommendations": recs})
}

// List maneja GET /recommendations?assessment_id=.
func (h *RecommendationHandler) List(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	recs, err := h.recommendations.List(c.Request.Context(), userID, c.Query("assessment_id"))
	if err != nil {
		writeServiceError(c, h.logger, err, "could not list recommendations")
		return
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": recs})
}
