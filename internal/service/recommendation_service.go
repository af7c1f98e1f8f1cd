package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"career-advisor/internal/domain"
	"career-advisor/internal/event"
	"career-advisor/internal/repository"
)

const (
	coursesPerCareer  = 3
	roadmapsPerCareer = 2

	DefaultMaxRecommendations = 5
)

type GenerateInput struct {
	AssessmentID       string `json:"assessment_id" validate:"required,uuid"`
	IncludeCourses     bool   `json:"include_courses"`
	IncludeRoadmaps    bool   `json:"include_roadmaps"`
	MaxRecommendations int    `json:"max_recommendations" validate:"min=1,max=20"`
}

// RecommendationService arma y persiste el conjunto de recomendaciones de una evaluación completada.
type RecommendationService struct {
	assessments     repository.AssessmentRepository
	catalog         repository.CatalogRepository
	skills          repository.UserSkillRepository
	recommendations repository.RecommendationRepository
	store           repository.TxRunner
	explainer       *ExplanationService
	limiter         GenerationLimiter
	publisher       event.Publisher
	logger          *zap.Logger

	matcher CareerMatcher
	now     func() time.Time
}

func NewRecommendationService(
	assessments repository.AssessmentRepository,
	catalog repository.CatalogRepository,
	skills repository.UserSkillRepository,
	recommendations repository.RecommendationRepository,
	store repository.TxRunner,
	explainer *ExplanationService,
	limiter GenerationLimiter,
	publisher event.Publisher,
	logger *zap.Logger,
) *RecommendationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = event.NopPublisher{}
	}
	return &RecommendationService{
		assessments:     assessments,
		catalog:         catalog,
		skills:          skills,
		recommendations: recommendations,
		store:           store,
		explainer:       explainer,
		limiter:         limiter,
		publisher:       publisher,
		logger:          logger,
		now:             time.Now,
	}
}

// Generate reemplaza las recomendaciones de (user, assessment). Ante cualquier fallo
// no queda nada parcial guardado ni se devuelve un lote incompleto.
func (s *RecommendationService) Generate(ctx context.Context, userID string, in GenerateInput) (recs []domain.Recommendation, err error) {
	ctx, span := tracer.Start(ctx, "RecommendationService.Generate", trace.WithAttributes(
		attribute.String("assessment.id", in.AssessmentID),
		attribute.Int("recommendations.max", in.MaxRecommendations),
	))
	defer func() { endSpan(span, err) }()

	if err := validateInput(in); err != nil {
		return nil, err
	}
	assessment, err := s.assessments.GetByID(ctx, in.AssessmentID)
	if err != nil || assessment.UserID != userID {
		if err != nil && !isNoRows(err) {
			return nil, fmt.Errorf("%w: get assessment: %v", domain.ErrRecommendationGeneration, err)
		}
		return nil, fmt.Errorf("%w: assessment %s", domain.ErrNotFound, in.AssessmentID)
	}
	if assessment.Status != domain.StatusCompleted {
		return nil, fmt.Errorf("%w: assessment is %s", domain.ErrState, assessment.Status)
	}
	// El cupo sólo se consume con una evaluación válida y completada.
	if s.limiter != nil {
		quota, err := s.limiter.Reserve(ctx, userID)
		if err != nil {
			return nil, err
		}
		if !quota.Allowed {
			return nil, &RateLimitError{RetryAfter: quota.RetryAfter}
		}
	}

	scores, err := s.assessments.ListTraitScores(ctx, assessment.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: list trait scores: %v", domain.ErrRecommendationGeneration, err)
	}
	careers, err := s.catalog.ListActiveCareers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list careers: %v", domain.ErrRecommendationGeneration, err)
	}
	owned, err := s.skills.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: list user skills: %v", domain.ErrRecommendationGeneration, err)
	}

	matches := s.matcher.Rank(scores, careers, in.MaxRecommendations)
	now := s.now().UTC()

	recs = make([]domain.Recommendation, 0, len(matches))
	for _, match := range matches {
		// Punto de cancelación entre carreras; una carrera en curso no se interrumpe.
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrRecommendationGeneration, err)
		}
		rec, err := s.assemble(ctx, userID, assessment.ID, match, scores, owned, in, now)
		if err != nil {
			return nil, fmt.Errorf("%w: career %s: %v", domain.ErrRecommendationGeneration, match.Career.ID, err)
		}
		recs = append(recs, rec)
	}

	err = s.store.WithinTx(ctx, func(tx repository.Tx) error {
		return tx.Recommendations().ReplaceForAssessment(ctx, userID, assessment.ID, recs)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %v", domain.ErrRecommendationGeneration, domain.ErrPersistence, err)
	}

	careerIDs := make([]string, 0, len(recs))
	for _, rec := range recs {
		careerIDs = append(careerIDs, rec.CareerID)
	}
	s.logger.Info("recommendations generated",
		zap.String("assessment_id", assessment.ID),
		zap.Int("count", len(recs)),
	)
	if err := s.publisher.Publish(ctx, event.TypeRecommendationsGenerated, event.RecommendationsGenerated{
		AssessmentID: assessment.ID,
		UserID:       userID,
		CareerIDs:    careerIDs,
	}); err != nil {
		s.logger.Warn("event publish failed", zap.String("type", event.TypeRecommendationsGenerated), zap.Error(err))
	}

	return recs, nil
}

// assemble completa una recomendación; cursos, roadmaps y explicación se piden en paralelo.
func (s *RecommendationService) assemble(
	ctx context.Context,
	userID, assessmentID string,
	match CareerMatch,
	scores []domain.TraitScore,
	owned []domain.UserSkill,
	in GenerateInput,
	now time.Time,
) (domain.Recommendation, error) {
	rec := domain.Recommendation{
		ID:                uuid.NewString(),
		UserID:            userID,
		AssessmentID:      assessmentID,
		CareerID:          match.Career.ID,
		CareerTitle:       match.Career.Title,
		DomainName:        match.Career.Domain.Name,
		MatchScore:        match.Score,
		Confidence:        Confidence(match.Score),
		SkillGaps:         SkillGaps(match.Career.RequiredSkills, owned),
		SuggestedCourses:  []domain.Course{},
		SuggestedRoadmaps: []domain.Roadmap{},
		CreatedAt:         now,
	}

	g, gctx := errgroup.WithContext(ctx)
	if in.IncludeCourses {
		g.Go(func() error {
			courses, err := s.catalog.ListCoursesByCareer(gctx, match.Career.ID, coursesPerCareer)
			if err != nil {
				return fmt.Errorf("list courses: %w", err)
			}
			rec.SuggestedCourses = courses
			return nil
		})
	}
	if in.IncludeRoadmaps {
		g.Go(func() error {
			roadmaps, err := s.catalog.ListRoadmapsByCareer(gctx, match.Career.ID, roadmapsPerCareer)
			if err != nil {
				return fmt.Errorf("list roadmaps: %w", err)
			}
			rec.SuggestedRoadmaps = roadmaps
			return nil
		})
	}
	g.Go(func() error {
		rec.Reasoning = s.explainer.ExplainCareer(gctx, match.Career, match.Score, scores)
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.Recommendation{}, err
	}
	return rec, nil
}

// List devuelve las recomendaciones guardadas del usuario, opcionalmente de una evaluación.
func (s *RecommendationService) List(ctx context.Context, userID, assessmentID string) ([]domain.Recommendation, error) {
	if assessmentID != "" {
		if _, err := uuid.Parse(assessmentID); err != nil {
			return nil, fmt.Errorf("%w: assessment_id must be a uuid", domain.ErrValidation)
		}
	}
	recs, err := s.recommendations.ListByUser(ctx, userID, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("list recommendations: %w", err)
	}
	return recs, nil
}

// Confidence acota el puntaje de afinidad a [0, 1].
func Confidence(matchScore float64) float64 {
	return clamp(matchScore/100, 0, 1)
}
