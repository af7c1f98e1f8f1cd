package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"career-advisor/internal/domain"
	"career-advisor/internal/event"
	"career-advisor/internal/repository"
)

type StartAssessmentInput struct {
	Type domain.AssessmentType `json:"assessment_type" validate:"required,oneof=personality interest aptitude comprehensive"`
}

type ResponseInput struct {
	QuestionID   string `json:"question_id" validate:"required,uuid"`
	Value        string `json:"response_value" validate:"required"`
	ResponseTime *int   `json:"response_time,omitempty" validate:"omitempty,min=0"`
}

type SubmitInput struct {
	Responses []ResponseInput `json:"responses" validate:"required,min=1,dive"`
}

// SubmitResult es el estado confirmado tras puntuar la evaluación.
type SubmitResult struct {
	Assessment  domain.Assessment   `json:"assessment"`
	TraitScores []domain.TraitScore `json:"trait_scores"`
}

// AssessmentService orquesta el ciclo de vida de una evaluación y su puntuación.
type AssessmentService struct {
	assessments repository.AssessmentRepository
	catalog     repository.CatalogRepository
	store       repository.TxRunner
	explainer   *ExplanationService
	publisher   event.Publisher
	logger      *zap.Logger

	aggregator  TraitScoreAggregator
	percentiles PercentileTracker
	now         func() time.Time
}

func NewAssessmentService(
	assessments repository.AssessmentRepository,
	catalog repository.CatalogRepository,
	store repository.TxRunner,
	explainer *ExplanationService,
	publisher event.Publisher,
	logger *zap.Logger,
) *AssessmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = event.NopPublisher{}
	}
	return &AssessmentService{
		assessments: assessments,
		catalog:     catalog,
		store:       store,
		explainer:   explainer,
		publisher:   publisher,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *AssessmentService) Start(ctx context.Context, userID string, in StartAssessmentInput) (domain.Assessment, error) {
	if err := validateInput(in); err != nil {
		return domain.Assessment{}, err
	}
	a := domain.Assessment{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      in.Type,
		Status:    domain.StatusInProgress,
		StartedAt: s.now().UTC(),
	}
	if err := s.assessments.Create(ctx, a); err != nil {
		return domain.Assessment{}, fmt.Errorf("%w: create assessment: %v", domain.ErrPersistence, err)
	}
	s.logger.Info("assessment started",
		zap.String("assessment_id", a.ID),
		zap.String("user_id", userID),
		zap.String("type", string(a.Type)),
	)
	return a, nil
}

// Get devuelve ErrNotFound también cuando la evaluación pertenece a otro usuario.
func (s *AssessmentService) Get(ctx context.Context, userID, id string) (domain.Assessment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Assessment{}, fmt.Errorf("%w: assessment %s", domain.ErrNotFound, id)
	}
	a, err := s.assessments.GetByID(ctx, id)
	if isNoRows(err) {
		return domain.Assessment{}, fmt.Errorf("%w: assessment %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return domain.Assessment{}, fmt.Errorf("get assessment: %w", err)
	}
	if a.UserID != userID {
		return domain.Assessment{}, fmt.Errorf("%w: assessment %s", domain.ErrNotFound, id)
	}
	return a, nil
}

func (s *AssessmentService) Abandon(ctx context.Context, userID, id string) (domain.Assessment, error) {
	a, err := s.Get(ctx, userID, id)
	if err != nil {
		return domain.Assessment{}, err
	}
	if a.Status != domain.StatusInProgress {
		return domain.Assessment{}, fmt.Errorf("%w: assessment is %s", domain.ErrState, a.Status)
	}
	ok, err := s.assessments.Abandon(ctx, id)
	if err != nil {
		return domain.Assessment{}, fmt.Errorf("%w: abandon assessment: %v", domain.ErrPersistence, err)
	}
	if !ok {
		return domain.Assessment{}, fmt.Errorf("%w: assessment is no longer in progress", domain.ErrState)
	}
	a.Status = domain.StatusAbandoned
	return a, nil
}

func (s *AssessmentService) TraitScores(ctx context.Context, userID, id string) ([]domain.TraitScore, error) {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return nil, err
	}
	scores, err := s.assessments.ListTraitScores(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list trait scores: %w", err)
	}
	return scores, nil
}

// Submit registra respuestas, puntúa, resume y completa la evaluación en una sola transacción.
func (s *AssessmentService) Submit(ctx context.Context, userID, id string, in SubmitInput) (res SubmitResult, err error) {
	ctx, span := tracer.Start(ctx, "AssessmentService.Submit", trace.WithAttributes(
		attribute.String("assessment.id", id),
		attribute.Int("responses.count", len(in.Responses)),
	))
	defer func() { endSpan(span, err) }()

	if err := validateInput(in); err != nil {
		return SubmitResult{}, err
	}
	seen := make(map[string]struct{}, len(in.Responses))
	for _, r := range in.Responses {
		if _, dup := seen[r.QuestionID]; dup {
			return SubmitResult{}, fmt.Errorf("%w: duplicate response for question %s", domain.ErrValidation, r.QuestionID)
		}
		seen[r.QuestionID] = struct{}{}
	}

	assessment, err := s.Get(ctx, userID, id)
	if err != nil {
		return SubmitResult{}, err
	}
	if assessment.Status != domain.StatusInProgress {
		return SubmitResult{}, fmt.Errorf("%w: assessment is %s", domain.ErrState, assessment.Status)
	}

	existing, err := s.assessments.ListResponses(ctx, id)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("list responses: %w", err)
	}
	questionIDs := make([]string, 0, len(existing)+len(in.Responses))
	for _, r := range existing {
		if _, dup := seen[r.QuestionID]; dup {
			return SubmitResult{}, fmt.Errorf("%w: question %s already answered", domain.ErrValidation, r.QuestionID)
		}
		questionIDs = append(questionIDs, r.QuestionID)
	}
	for _, r := range in.Responses {
		questionIDs = append(questionIDs, r.QuestionID)
	}

	questions, err := s.loadQuestions(ctx, questionIDs)
	if err != nil {
		return SubmitResult{}, err
	}

	now := s.now().UTC()
	fresh := make([]domain.Response, 0, len(in.Responses))
	for _, r := range in.Responses {
		q := questions[r.QuestionID]
		if !q.IsActive {
			return SubmitResult{}, fmt.Errorf("%w: question %s is not active", domain.ErrValidation, q.ID)
		}
		fresh = append(fresh, domain.Response{
			ID:            uuid.NewString(),
			AssessmentID:  id,
			QuestionID:    r.QuestionID,
			RawValue:      r.Value,
			WeightedScore: s.aggregator.WeightedScore(q),
			ResponseTime:  r.ResponseTime,
			CreatedAt:     now,
		})
	}

	all := append(append([]domain.Response{}, existing...), fresh...)
	aggregates, err := s.aggregator.Aggregate(all, questions)
	if err != nil {
		return SubmitResult{}, err
	}
	names, err := s.traitNames(ctx)
	if err != nil {
		return SubmitResult{}, err
	}

	pending := make([]domain.TraitScore, 0, len(aggregates))
	for _, agg := range aggregates {
		pending = append(pending, domain.TraitScore{
			ID:           uuid.NewString(),
			AssessmentID: id,
			TraitID:      agg.TraitID,
			TraitName:    names[agg.TraitID],
			Score:        agg.Score,
			CreatedAt:    now,
		})
	}
	// Orden canónico de locks por rasgo: dos envíos concurrentes nunca se bloquean en cruz.
	sort.Slice(pending, func(i, j int) bool { return pending[i].TraitID < pending[j].TraitID })
	overall := OverallScore(aggregates)

	// El resumen se genera antes de abrir la transacción; su fallo sólo degrada el texto.
	summary := s.explainer.SummarizeAssessment(ctx, assessment.Type, pending)

	saved := make([]domain.TraitScore, 0, len(pending))
	err = s.store.WithinTx(ctx, func(tx repository.Tx) error {
		saved = saved[:0]
		repo := tx.Assessments()

		ok, err := repo.Complete(ctx, id, summary, overall, now)
		if err != nil {
			return fmt.Errorf("complete assessment: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: assessment is no longer in progress", domain.ErrState)
		}

		if err := repo.InsertResponses(ctx, fresh); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return fmt.Errorf("%w: %v", domain.ErrValidation, err)
			}
			return fmt.Errorf("insert responses: %w", err)
		}

		for _, ts := range pending {
			stored, created, err := repo.UpsertTraitScore(ctx, ts)
			if err != nil {
				return fmt.Errorf("upsert trait score %s: %w", ts.TraitID, err)
			}
			stored.TraitName = ts.TraitName
			if created {
				percentile, err := s.percentiles.Recompute(ctx, repo, stored)
				if err != nil {
					return err
				}
				stored.Percentile = percentile
			}
			saved = append(saved, stored)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrState) || errors.Is(err, domain.ErrValidation) {
			return SubmitResult{}, err
		}
		return SubmitResult{}, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	assessment.Status = domain.StatusCompleted
	assessment.Summary = summary
	assessment.OverallScore = overall
	assessment.CompletedAt = &now

	s.logger.Info("assessment completed",
		zap.String("assessment_id", id),
		zap.Int("responses", len(fresh)),
		zap.Int("traits", len(saved)),
	)
	s.publish(ctx, event.TypeAssessmentCompleted, event.AssessmentCompleted{
		AssessmentID: id,
		UserID:       userID,
		OverallScore: overall,
		TraitCount:   len(saved),
	})

	return SubmitResult{Assessment: assessment, TraitScores: saved}, nil
}

func (s *AssessmentService) loadQuestions(ctx context.Context, ids []string) (map[string]domain.Question, error) {
	list, err := s.catalog.GetQuestionsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	questions := make(map[string]domain.Question, len(list))
	for _, q := range list {
		questions[q.ID] = q
	}
	for _, id := range ids {
		if _, ok := questions[id]; !ok {
			return nil, fmt.Errorf("%w: question %s", domain.ErrNotFound, id)
		}
	}
	return questions, nil
}

func (s *AssessmentService) traitNames(ctx context.Context) (map[string]string, error) {
	traits, err := s.catalog.ListTraits(ctx)
	if err != nil {
		return nil, fmt.Errorf("list traits: %w", err)
	}
	names := make(map[string]string, len(traits))
	for _, t := range traits {
		names[t.ID] = t.Name
	}
	return names, nil
}

func (s *AssessmentService) publish(ctx context.Context, eventType string, payload any) {
	if err := s.publisher.Publish(ctx, eventType, payload); err != nil {
		s.logger.Warn("event publish failed", zap.String("type", eventType), zap.Error(err))
	}
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
