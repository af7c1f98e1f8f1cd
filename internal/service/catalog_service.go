package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"career-advisor/internal/domain"
	"career-advisor/internal/repository"
)

// CatalogService expone el catálogo de referencia (rasgos, preguntas, carreras, recursos).
type CatalogService struct {
	catalog repository.CatalogRepository
}

func NewCatalogService(catalog repository.CatalogRepository) *CatalogService {
	return &CatalogService{catalog: catalog}
}

func (s *CatalogService) Traits(ctx context.Context) ([]domain.Trait, error) {
	return s.catalog.ListTraits(ctx)
}

// QuestionsFor devuelve las preguntas activas de un tipo de evaluación.
// comprehensive (o vacío) devuelve todas, ordenadas por grupo.
func (s *CatalogService) QuestionsFor(ctx context.Context, assessmentType string) ([]domain.Question, error) {
	t := domain.AssessmentType(strings.TrimSpace(assessmentType))
	if t == "" || t == domain.AssessmentComprehensive {
		return s.catalog.ListActiveQuestions(ctx, "")
	}
	if !t.Valid() {
		return nil, fmt.Errorf("%w: unknown assessment type %q", domain.ErrValidation, assessmentType)
	}
	return s.catalog.ListActiveQuestions(ctx, string(t))
}

func (s *CatalogService) SearchCareers(ctx context.Context, domainID, query string) ([]domain.Career, error) {
	domainID = strings.TrimSpace(domainID)
	if domainID != "" {
		if _, err := uuid.Parse(domainID); err != nil {
			return nil, fmt.Errorf("%w: domain_id must be a uuid", domain.ErrValidation)
		}
	}
	return s.catalog.SearchCareers(ctx, domainID, strings.TrimSpace(query))
}

func (s *CatalogService) Career(ctx context.Context, id string) (domain.Career, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Career{}, fmt.Errorf("%w: career %s", domain.ErrNotFound, id)
	}
	career, err := s.catalog.GetCareer(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Career{}, fmt.Errorf("%w: career %s", domain.ErrNotFound, id)
	}
	return career, err
}

func (s *CatalogService) CoursesForCareer(ctx context.Context, careerID string) ([]domain.Course, error) {
	if _, err := s.Career(ctx, careerID); err != nil {
		return nil, err
	}
	return s.catalog.ListCoursesByCareer(ctx, careerID, 50)
}

func (s *CatalogService) RoadmapsForCareer(ctx context.Context, careerID string) ([]domain.Roadmap, error) {
	if _, err := s.Career(ctx, careerID); err != nil {
		return nil, err
	}
	return s.catalog.ListRoadmapsByCareer(ctx, careerID, 50)
}
