package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"career-advisor/internal/domain"
	"career-advisor/internal/repository"
)

func testID(kind, n int) string {
	return fmt.Sprintf("%08d-0000-0000-0000-%012d", kind, n)
}

const (
	kindTrait = iota + 1
	kindQuestion
	kindCareer
	kindSkill
	kindUser
	kindAssessment
)

// fakeAssessmentRepo guarda todo en memoria; fakeStore trabaja sobre copias y las confirma al final.
type fakeAssessmentRepo struct {
	mu          sync.Mutex
	assessments map[string]domain.Assessment
	responses   []domain.Response
	scores      []domain.TraitScore
	traitNames  map[string]string

	upsertErr error
	locked    []string

	// completedElsewhere simula otra transacción que completó la evaluación tras la lectura previa.
	completedElsewhere bool
}

func newFakeAssessmentRepo() *fakeAssessmentRepo {
	return &fakeAssessmentRepo{
		assessments: map[string]domain.Assessment{},
		traitNames:  map[string]string{},
	}
}

func (r *fakeAssessmentRepo) clone() *fakeAssessmentRepo {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := &fakeAssessmentRepo{
		assessments: make(map[string]domain.Assessment, len(r.assessments)),
		responses:   append([]domain.Response(nil), r.responses...),
		scores:      append([]domain.TraitScore(nil), r.scores...),
		traitNames:  r.traitNames,
		upsertErr:   r.upsertErr,

		completedElsewhere: r.completedElsewhere,
	}
	for k, v := range r.assessments {
		c.assessments[k] = v
	}
	return c
}

func (r *fakeAssessmentRepo) commit(from *fakeAssessmentRepo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assessments = from.assessments
	r.responses = from.responses
	r.scores = from.scores
	r.locked = append(r.locked, from.locked...)
}

func (r *fakeAssessmentRepo) Create(_ context.Context, a domain.Assessment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assessments[a.ID] = a
	return nil
}

func (r *fakeAssessmentRepo) GetByID(_ context.Context, id string) (domain.Assessment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assessments[id]
	if !ok {
		return domain.Assessment{}, pgx.ErrNoRows
	}
	return a, nil
}

func (r *fakeAssessmentRepo) Complete(_ context.Context, id, summary string, overall *float64, completedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assessments[id]
	if !ok || a.Status != domain.StatusInProgress || r.completedElsewhere {
		return false, nil
	}
	a.Status = domain.StatusCompleted
	a.Summary = summary
	a.OverallScore = overall
	a.CompletedAt = &completedAt
	r.assessments[id] = a
	return true, nil
}

func (r *fakeAssessmentRepo) Abandon(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assessments[id]
	if !ok || a.Status != domain.StatusInProgress {
		return false, nil
	}
	a.Status = domain.StatusAbandoned
	r.assessments[id] = a
	return true, nil
}

func (r *fakeAssessmentRepo) ListResponses(_ context.Context, assessmentID string) ([]domain.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Response{}
	for _, resp := range r.responses {
		if resp.AssessmentID == assessmentID {
			out = append(out, resp)
		}
	}
	return out, nil
}

func (r *fakeAssessmentRepo) InsertResponses(_ context.Context, responses []domain.Response) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, resp := range responses {
		for _, existing := range r.responses {
			if existing.AssessmentID == resp.AssessmentID && existing.QuestionID == resp.QuestionID {
				return repository.ErrDuplicate
			}
		}
		r.responses = append(r.responses, resp)
	}
	return nil
}

func (r *fakeAssessmentRepo) UpsertTraitScore(_ context.Context, score domain.TraitScore) (domain.TraitScore, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.upsertErr != nil {
		return domain.TraitScore{}, false, r.upsertErr
	}
	for i, existing := range r.scores {
		if existing.AssessmentID == score.AssessmentID && existing.TraitID == score.TraitID {
			r.scores[i].Score = score.Score
			return r.scores[i], false, nil
		}
	}
	r.scores = append(r.scores, score)
	return score, true, nil
}

func (r *fakeAssessmentRepo) ListTraitScores(_ context.Context, assessmentID string) ([]domain.TraitScore, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.TraitScore{}
	for _, s := range r.scores {
		if s.AssessmentID == assessmentID {
			s.TraitName = r.traitNames[s.TraitID]
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TraitName < out[j].TraitName })
	return out, nil
}

func (r *fakeAssessmentRepo) ListScoresByTrait(_ context.Context, traitID string) ([]float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []float64{}
	for _, s := range r.scores {
		if s.TraitID == traitID {
			out = append(out, s.Score)
		}
	}
	return out, nil
}

func (r *fakeAssessmentRepo) UpdatePercentile(_ context.Context, id string, percentile float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.scores {
		if r.scores[i].ID == id {
			p := percentile
			r.scores[i].Percentile = &p
			return nil
		}
	}
	return fmt.Errorf("trait score %s not found", id)
}

func (r *fakeAssessmentRepo) LockTrait(_ context.Context, traitID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locked = append(r.locked, traitID)
	return nil
}

type fakeRecommendationRepo struct {
	mu         sync.Mutex
	recs       []domain.Recommendation
	replaceErr error
	replaced   int
}

func (r *fakeRecommendationRepo) clone() *fakeRecommendationRepo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &fakeRecommendationRepo{
		recs:       append([]domain.Recommendation(nil), r.recs...),
		replaceErr: r.replaceErr,
	}
}

func (r *fakeRecommendationRepo) commit(from *fakeRecommendationRepo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recs = from.recs
	r.replaced += from.replaced
}

func (r *fakeRecommendationRepo) ReplaceForAssessment(_ context.Context, userID, assessmentID string, recs []domain.Recommendation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.replaceErr != nil {
		return r.replaceErr
	}
	kept := []domain.Recommendation{}
	for _, rec := range r.recs {
		if rec.UserID == userID && rec.AssessmentID == assessmentID {
			continue
		}
		kept = append(kept, rec)
	}
	r.recs = append(kept, recs...)
	r.replaced++
	return nil
}

func (r *fakeRecommendationRepo) ListByUser(_ context.Context, userID, assessmentID string) ([]domain.Recommendation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Recommendation{}
	for _, rec := range r.recs {
		if rec.UserID != userID {
			continue
		}
		if assessmentID != "" && rec.AssessmentID != assessmentID {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

type fakeTx struct {
	assessments     *fakeAssessmentRepo
	recommendations *fakeRecommendationRepo
}

func (t fakeTx) Assessments() repository.AssessmentRepository {
	return t.assessments
}

func (t fakeTx) Recommendations() repository.RecommendationRepository {
	return t.recommendations
}

// fakeStore confirma las copias sólo si fn no devuelve error.
type fakeStore struct {
	assessments     *fakeAssessmentRepo
	recommendations *fakeRecommendationRepo
	commits         int
}

func (s *fakeStore) WithinTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a := s.assessments.clone()
	r := s.recommendations.clone()
	if err := fn(fakeTx{assessments: a, recommendations: r}); err != nil {
		return err
	}
	s.assessments.commit(a)
	s.recommendations.commit(r)
	s.commits++
	return nil
}

type fakeCatalog struct {
	traits    []domain.Trait
	questions map[string]domain.Question
	careers   []domain.Career
	courses   map[string][]domain.Course
	roadmaps  map[string][]domain.Roadmap

	coursesErr      error
	lastQuestionTyp string
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		questions: map[string]domain.Question{},
		courses:   map[string][]domain.Course{},
		roadmaps:  map[string][]domain.Roadmap{},
	}
}

func (c *fakeCatalog) ListTraits(context.Context) ([]domain.Trait, error) {
	return c.traits, nil
}

func (c *fakeCatalog) GetQuestionsByIDs(_ context.Context, ids []string) ([]domain.Question, error) {
	out := []domain.Question{}
	for _, id := range ids {
		if q, ok := c.questions[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

func (c *fakeCatalog) ListActiveQuestions(_ context.Context, questionType string) ([]domain.Question, error) {
	c.lastQuestionTyp = questionType
	out := []domain.Question{}
	for _, q := range c.questions {
		if q.IsActive && (questionType == "" || string(q.Type) == questionType) {
			out = append(out, q)
		}
	}
	return out, nil
}

func (c *fakeCatalog) ListActiveCareers(context.Context) ([]domain.Career, error) {
	out := []domain.Career{}
	for _, career := range c.careers {
		if career.IsActive {
			out = append(out, career)
		}
	}
	return out, nil
}

func (c *fakeCatalog) GetCareer(_ context.Context, id string) (domain.Career, error) {
	for _, career := range c.careers {
		if career.ID == id {
			return career, nil
		}
	}
	return domain.Career{}, pgx.ErrNoRows
}

func (c *fakeCatalog) SearchCareers(_ context.Context, domainID, query string) ([]domain.Career, error) {
	return c.careers, nil
}

func (c *fakeCatalog) ListCoursesByCareer(_ context.Context, careerID string, limit int) ([]domain.Course, error) {
	if c.coursesErr != nil {
		return nil, c.coursesErr
	}
	out := c.courses[careerID]
	if len(out) > limit {
		out = out[:limit]
	}
	return append([]domain.Course{}, out...), nil
}

func (c *fakeCatalog) ListRoadmapsByCareer(_ context.Context, careerID string, limit int) ([]domain.Roadmap, error) {
	out := c.roadmaps[careerID]
	if len(out) > limit {
		out = out[:limit]
	}
	return append([]domain.Roadmap{}, out...), nil
}

type fakeUserSkillRepo struct {
	skills    map[string][]domain.UserSkill
	knownIDs  map[string]bool
	upsertErr error
}

func newFakeUserSkillRepo() *fakeUserSkillRepo {
	return &fakeUserSkillRepo{skills: map[string][]domain.UserSkill{}, knownIDs: map[string]bool{}}
}

func (r *fakeUserSkillRepo) Upsert(_ context.Context, skill domain.UserSkill) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	if !r.knownIDs[skill.SkillID] {
		return repository.ErrMissingReference
	}
	list := r.skills[skill.UserID]
	for i := range list {
		if list[i].SkillID == skill.SkillID {
			list[i] = skill
			return nil
		}
	}
	r.skills[skill.UserID] = append(list, skill)
	return nil
}

func (r *fakeUserSkillRepo) ListByUser(_ context.Context, userID string) ([]domain.UserSkill, error) {
	return append([]domain.UserSkill{}, r.skills[userID]...), nil
}

type publishedEvent struct {
	eventType string
	payload   any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, eventType string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, publishedEvent{eventType: eventType, payload: payload})
	return nil
}

func (p *fakePublisher) Close() error { return nil }

// quotaLimiter concede max reservas por usuario.
type quotaLimiter struct {
	max   int
	used  map[string]int
	retry time.Duration
}

func newQuotaLimiter(max int) *quotaLimiter {
	return &quotaLimiter{max: max, used: map[string]int{}, retry: 30 * time.Minute}
}

func (l *quotaLimiter) Reserve(_ context.Context, userID string) (GenerationQuota, error) {
	l.used[userID]++
	if l.used[userID] > l.max {
		return GenerationQuota{RetryAfter: l.retry}, nil
	}
	return GenerationQuota{Allowed: true, Remaining: l.max - l.used[userID]}, nil
}
