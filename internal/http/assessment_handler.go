package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"career-advisor/internal/domain"
	"career-advisor/internal/service"
)

// AssessmentUsecase es lo que el handler necesita de service.AssessmentService.
type AssessmentUsecase interface {
	Start(ctx context.Context, userID string, in service.StartAssessmentInput) (domain.Assessment, error)
	Get(ctx context.Context, userID, id string) (domain.Assessment, error)
	Submit(ctx context.Context, userID, id string, in service.SubmitInput) (service.SubmitResult, error)
	Abandon(ctx context.Context, userID, id string) (domain.Assessment, error)
	TraitScores(ctx context.Context, userID, id string) ([]domain.TraitScore, error)
}

type AssessmentHandler struct {
	logger      *zap.Logger
	assessments AssessmentUsecase
}

func NewAssessmentHandler(logger *zap.Logger, assessments AssessmentUsecase) *AssessmentHandler {
	return &AssessmentHandler{logger: logger, assessments: assessments}
}

// Start maneja POST /assessments.
func (h *AssessmentHandler) Start(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req service.StartAssessmentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "start assessment", err)
		return
	}
	a, err := h.assessments.Start(c.Request.Context(), userID, req)
	if err != nil {
		writeServiceError(c, h.logger, err, "could not start assessment")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"assessment": a})
}

// Get maneja GET /assessments/:id.
func (h *AssessmentHandler) Get(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	a, err := h.assessments.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		writeServiceError(c, h.logger, err, "could not load assessment")
		return
	}
	c.JSON(http.StatusOK, gin.H{"assessment": a})
}

// SubmitResponses maneja POST /assessments/:id/responses.
func (h *AssessmentHandler) SubmitResponses(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req service.SubmitInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "submit responses", err)
		return
	}
	res, err := h.assessments.Submit(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		writeServiceError(c, h.logger, err, "could not submit responses")
		return
	}
	c.JSON(http.StatusOK, res)
}

// Abandon maneja POST /assessments/:id/abandon.
func (h *AssessmentHandler) Abandon(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	a, err := h.assessments.Abandon(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		writeServiceError(c, h.logger, err, "could not abandon assessment")
		return
	}
	c.JSON(http.StatusOK, gin.H{"assessment": a})
}

// TraitScores maneja GET /assessments/:id/traits.
func (h *AssessmentHandler) TraitScores(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	scores, err := h.assessments.TraitScores(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		writeServiceError(c, h.logger, err, "could not load trait scores")
		return
	}
	c.JSON(http.StatusOK, gin.H{"trait_scores": scores})
}
