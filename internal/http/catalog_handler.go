package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"career-advisor/internal/domain"
)

// CatalogUsecase es la parte pública de service.CatalogService.
type CatalogUsecase interface {
	Traits(ctx context.Context) ([]domain.Trait, error)
	QuestionsFor(ctx context.Context, assessmentType string) ([]domain.Question, error)
	SearchCareers(ctx context.Context, domainID, query string) ([]domain.Career, error)
	Career(ctx context.Context, id string) (domain.Career, error)
	CoursesForCareer(ctx context.Context, careerID string) ([]domain.Course, error)
	RoadmapsForCareer(ctx context.Context, careerID string) ([]domain.Roadmap, error)
}

type CatalogHandler struct {
	logger  *zap.Logger
	catalog CatalogUsecase
}

func NewCatalogHandler(logger *zap.Logger, catalog CatalogUsecase) *CatalogHandler {
	return &CatalogHandler{logger: logger, catalog: catalog}
}

// Traits maneja GET /traits.
func (h *CatalogHandler) Traits(c *gin.Context) {
	traits, err := h.catalog.Traits(c.Request.Context())
	if err != nil {
		writeServiceError(c, h.logger, err, "could not list traits")
		return
	}
	c.JSON(http.StatusOK, gin.H{"traits": traits})
}

// Questions maneja GET /questions?type=.
func (h *CatalogHandler) Questions(c *gin.Context) {
	questions, err := h.catalog.QuestionsFor(c.Request.Context(), c.Query("type"))
	if err != nil {
		writeServiceError(c, h.logger, err, "could not list questions")
		return
	}
	c.JSON(http.StatusOK, gin.H{"questions": questions})
}

// Careers maneja GET /careers?domain_id=&q=.
func (h *CatalogHandler) Careers(c *gin.Context) {
	careers, err := h.catalog.SearchCareers(c.Request.Context(), c.Query("domain_id"), c.Query("q"))
	if err != nil {
		writeServiceError(c, h.logger, err, "could not search careers")
		return
	}
	c.JSON(http.StatusOK, gin.H{"careers": careers})
}

// Career maneja GET /careers/:id.
func (h *CatalogHandler) Career(c *gin.Context) {
	career, err := h.catalog.Career(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, h.logger, err, "could not load career")
		return
	}
	c.JSON(http.StatusOK, gin.H{"career": career})
}

// Courses maneja GET /careers/:id/courses.
func (h *CatalogHandler) Courses(c *gin.Context) {
	courses, err := h.catalog.CoursesForCareer(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, h.logger, err, "could not list courses")
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": courses})
}

// Roadmaps maneja GET /careers/:id/roadmaps.
func (h *CatalogHandler) Roadmaps(c *gin.Context) {
	roadmaps, err := h.catalog.RoadmapsForCareer(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, h.logger, err, "could not list roadmaps")
		return
	}
	c.JSON(http.StatusOK, gin.H{"roadmaps": roadmaps})
}
