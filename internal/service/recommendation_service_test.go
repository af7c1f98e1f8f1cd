package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"go.uber.org/zap"

	"career-advisor/internal/domain"
	"career-advisor/internal/event"
	"career-advisor/internal/llm"
)

type recommendationFixture struct {
	svc          *RecommendationService
	assessments  *fakeAssessmentRepo
	recs         *fakeRecommendationRepo
	store        *fakeStore
	catalog      *fakeCatalog
	skills       *fakeUserSkillRepo
	publisher    *fakePublisher
	userID       string
	assessmentID string
}

// newRecommendationFixture arma una evaluación completada con rasgos 95/60/20 y ocho carreras.
func newRecommendationFixture(t *testing.T, client llm.LLMClient, limiter GenerationLimiter) *recommendationFixture {
	t.Helper()
	f := &recommendationFixture{
		assessments:  newFakeAssessmentRepo(),
		recs:         &fakeRecommendationRepo{},
		catalog:      newFakeCatalog(),
		skills:       newFakeUserSkillRepo(),
		publisher:    &fakePublisher{},
		userID:       testID(kindUser, 1),
		assessmentID: testID(kindAssessment, 1),
	}
	f.store = &fakeStore{assessments: f.assessments, recommendations: f.recs}

	completed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	f.assessments.assessments[f.assessmentID] = domain.Assessment{
		ID:          f.assessmentID,
		UserID:      f.userID,
		Type:        domain.AssessmentComprehensive,
		Status:      domain.StatusCompleted,
		CompletedAt: &completed,
	}
	traits := []string{testID(kindTrait, 1), testID(kindTrait, 2), testID(kindTrait, 3)}
	for i, score := range []float64{95, 60, 20} {
		f.assessments.traitNames[traits[i]] = []string{"Analytical", "Creativity", "Leadership"}[i]
		f.assessments.scores = append(f.assessments.scores, domain.TraitScore{
			ID:           testID(9, i+1),
			AssessmentID: f.assessmentID,
			TraitID:      traits[i],
			Score:        score,
		})
	}

	f.catalog.careers = []domain.Career{
		career(1, traits[2]),
		career(2, traits[0]),
		career(3, traits[1]),
		career(4, traits[0], traits[1]),
		career(5),
		career(6, traits[2], traits[1]),
		career(7, traits[0], traits[2]),
		career(8, traits[1], traits[0], traits[2]),
	}
	f.catalog.careers[1].RequiredSkills = []domain.Skill{
		{ID: testID(kindSkill, 1), Name: "Go"},
		{ID: testID(kindSkill, 2), Name: "SQL"},
		{ID: testID(kindSkill, 3), Name: "Kubernetes"},
	}
	f.catalog.careers[1].Domain = domain.CareerDomain{Name: "Technology"}

	careerTwo := testID(kindCareer, 2)
	for i := 1; i <= 5; i++ {
		f.catalog.courses[careerTwo] = append(f.catalog.courses[careerTwo], domain.Course{ID: testID(10, i), Name: "Course"})
	}
	for i := 1; i <= 3; i++ {
		f.catalog.roadmaps[careerTwo] = append(f.catalog.roadmaps[careerTwo], domain.Roadmap{ID: testID(11, i), Title: "Roadmap"})
	}

	f.skills.knownIDs[testID(kindSkill, 2)] = true
	if err := f.skills.Upsert(context.Background(), domain.UserSkill{UserID: f.userID, SkillID: testID(kindSkill, 2)}); err != nil {
		t.Fatalf("seed user skill: %v", err)
	}

	explainer := NewExplanationService(client, 20*time.Millisecond, zap.NewNop())
	f.svc = NewRecommendationService(f.assessments, f.catalog, f.skills, f.recs, f.store, explainer, limiter, f.publisher, zap.NewNop())
	return f
}

func (f *recommendationFixture) input(max int) GenerateInput {
	return GenerateInput{
		AssessmentID:       f.assessmentID,
		IncludeCourses:     true,
		IncludeRoadmaps:    true,
		MaxRecommendations: max,
	}
}

func TestGenerateRanksTopCareers(t *testing.T) {
	client := &llm.MockClient{Response: "Your analytical strength fits this path."}
	f := newRecommendationFixture(t, client, nil)

	recs, err := f.svc.Generate(context.Background(), f.userID, f.input(5))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(recs) != 5 {
		t.Fatalf("expected 5 recommendations, got %d", len(recs))
	}
	for i := 1; i < len(recs); i++ {
		if recs[i-1].MatchScore < recs[i].MatchScore {
			t.Fatalf("not sorted by match score at %d", i)
		}
	}

	top := recs[0]
	if top.CareerID != testID(kindCareer, 2) || math.Abs(top.MatchScore-67.5) > 1e-9 {
		t.Fatalf("expected career 2 at 67.5 first, got %s at %v", top.CareerID, top.MatchScore)
	}
	if math.Abs(top.Confidence-0.675) > 1e-9 {
		t.Fatalf("expected confidence 0.675, got %v", top.Confidence)
	}
	if top.DomainName != "Technology" || top.Reasoning != "Your analytical strength fits this path." {
		t.Fatalf("unexpected recommendation %+v", top)
	}
	if len(top.SkillGaps) != 2 || top.SkillGaps[0].Name != "Go" || top.SkillGaps[1].Name != "Kubernetes" {
		t.Fatalf("expected gaps [Go Kubernetes], got %+v", top.SkillGaps)
	}
	if len(top.SuggestedCourses) != coursesPerCareer || len(top.SuggestedRoadmaps) != roadmapsPerCareer {
		t.Fatalf("expected %d courses and %d roadmaps, got %d and %d",
			coursesPerCareer, roadmapsPerCareer, len(top.SuggestedCourses), len(top.SuggestedRoadmaps))
	}
	if client.Calls() != 5 {
		t.Fatalf("expected one explanation per recommendation, got %d", client.Calls())
	}

	stored, _ := f.svc.List(context.Background(), f.userID, f.assessmentID)
	if len(stored) != 5 || stored[0].ID != top.ID {
		t.Fatalf("expected stored batch to match result, got %d", len(stored))
	}
	if len(f.publisher.events) != 1 || f.publisher.events[0].eventType != event.TypeRecommendationsGenerated {
		t.Fatalf("expected one generated event, got %+v", f.publisher.events)
	}
	payload := f.publisher.events[0].payload.(event.RecommendationsGenerated)
	if len(payload.CareerIDs) != 5 || payload.CareerIDs[0] != top.CareerID {
		t.Fatalf("unexpected event payload %+v", payload)
	}
}

func TestGenerateExplanationTimeoutUsesFallback(t *testing.T) {
	f := newRecommendationFixture(t, &llm.MockClient{Response: "late", Delay: time.Second}, nil)

	recs, err := f.svc.Generate(context.Background(), f.userID, f.input(2))
	if err != nil {
		t.Fatalf("generate must succeed when the generator times out: %v", err)
	}
	for _, rec := range recs {
		want := FallbackExplanation(rec.CareerTitle, rec.MatchScore)
		if rec.Reasoning != want {
			t.Fatalf("expected %q, got %q", want, rec.Reasoning)
		}
	}
	if recs[0].Reasoning != "Based on your assessment results, Career C shows a 67.5% match." {
		t.Fatalf("unexpected fallback text %q", recs[0].Reasoning)
	}
}

func TestGenerateRespectsIncludeFlags(t *testing.T) {
	f := newRecommendationFixture(t, nil, nil)
	in := f.input(1)
	in.IncludeCourses = false
	in.IncludeRoadmaps = false

	recs, err := f.svc.Generate(context.Background(), f.userID, in)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if recs[0].SuggestedCourses == nil || len(recs[0].SuggestedCourses) != 0 {
		t.Fatalf("expected empty course list, got %+v", recs[0].SuggestedCourses)
	}
	if recs[0].SuggestedRoadmaps == nil || len(recs[0].SuggestedRoadmaps) != 0 {
		t.Fatalf("expected empty roadmap list, got %+v", recs[0].SuggestedRoadmaps)
	}
}

func TestGenerateReplacesPreviousBatch(t *testing.T) {
	f := newRecommendationFixture(t, nil, nil)
	ctx := context.Background()

	first, err := f.svc.Generate(ctx, f.userID, f.input(5))
	if err != nil {
		t.Fatalf("first generate: %v", err)
	}
	second, err := f.svc.Generate(ctx, f.userID, f.input(3))
	if err != nil {
		t.Fatalf("second generate: %v", err)
	}

	stored, _ := f.svc.List(ctx, f.userID, "")
	if len(stored) != 3 {
		t.Fatalf("expected only the latest 3 recommendations, got %d", len(stored))
	}
	for _, rec := range stored {
		for _, old := range first {
			if rec.ID == old.ID {
				t.Fatalf("previous recommendation %s survived regeneration", old.ID)
			}
		}
	}
	if stored[0].ID != second[0].ID {
		t.Fatalf("expected stored batch to be the second one")
	}
}

func TestGeneratePersistenceFailureKeepsPreviousBatch(t *testing.T) {
	f := newRecommendationFixture(t, nil, nil)
	ctx := context.Background()

	first, err := f.svc.Generate(ctx, f.userID, f.input(4))
	if err != nil {
		t.Fatalf("first generate: %v", err)
	}
	f.recs.replaceErr = errors.New("connection reset")

	_, err = f.svc.Generate(ctx, f.userID, f.input(2))
	if !errors.Is(err, domain.ErrRecommendationGeneration) || !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected generation and persistence errors, got %v", err)
	}

	stored, _ := f.svc.List(ctx, f.userID, f.assessmentID)
	if len(stored) != len(first) || stored[0].ID != first[0].ID {
		t.Fatalf("expected previous batch to be intact, got %d recommendations", len(stored))
	}
	if len(f.publisher.events) != 1 {
		t.Fatalf("failed generation must not publish, got %d events", len(f.publisher.events))
	}
}

func TestGenerateCourseFailureAbortsBatch(t *testing.T) {
	f := newRecommendationFixture(t, nil, nil)
	f.catalog.coursesErr = errors.New("catalog offline")

	recs, err := f.svc.Generate(context.Background(), f.userID, f.input(5))
	if !errors.Is(err, domain.ErrRecommendationGeneration) || recs != nil {
		t.Fatalf("expected ErrRecommendationGeneration with no result, got %v, %+v", err, recs)
	}
	if f.recs.replaced != 0 {
		t.Fatalf("nothing should be stored after a failed assembly")
	}
}

func TestGenerateCancelledContext(t *testing.T) {
	f := newRecommendationFixture(t, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.Generate(ctx, f.userID, f.input(5))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if f.recs.replaced != 0 {
		t.Fatalf("cancelled generation must not store anything")
	}
}

func TestGenerateRequiresCompletedAssessment(t *testing.T) {
	f := newRecommendationFixture(t, nil, nil)
	a := f.assessments.assessments[f.assessmentID]
	a.Status = domain.StatusInProgress
	f.assessments.assessments[f.assessmentID] = a

	if _, err := f.svc.Generate(context.Background(), f.userID, f.input(5)); !errors.Is(err, domain.ErrState) {
		t.Fatalf("expected ErrState, got %v", err)
	}
}

func TestGenerateOtherUsersAssessment(t *testing.T) {
	f := newRecommendationFixture(t, nil, nil)

	if _, err := f.svc.Generate(context.Background(), testID(kindUser, 2), f.input(5)); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	in := f.input(5)
	in.AssessmentID = testID(kindAssessment, 99)
	if _, err := f.svc.Generate(context.Background(), f.userID, in); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing assessment, got %v", err)
	}
}

func TestGenerateInputValidation(t *testing.T) {
	f := newRecommendationFixture(t, nil, nil)
	cases := map[string]GenerateInput{
		"too many":   f.input(MaxRecommendations + 1),
		"zero":       f.input(0),
		"bad uuid":   {AssessmentID: "abc", MaxRecommendations: 5},
		"missing id": {MaxRecommendations: 5},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := f.svc.Generate(context.Background(), f.userID, in); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestGenerateRateLimited(t *testing.T) {
	limiter := newQuotaLimiter(1)
	f := newRecommendationFixture(t, nil, limiter)
	ctx := context.Background()

	if _, err := f.svc.Generate(ctx, f.userID, f.input(5)); err != nil {
		t.Fatalf("first generation: %v", err)
	}
	_, err := f.svc.Generate(ctx, f.userID, f.input(5))
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	var rle *RateLimitError
	if !errors.As(err, &rle) || rle.RetryAfter != 30*time.Minute {
		t.Fatalf("expected retry-after 30m, got %v", err)
	}
	if f.recs.replaced != 1 {
		t.Fatalf("rate limited request must not store anything, replaced=%d", f.recs.replaced)
	}
}

func TestGenerateChargesQuotaOnlyForCompletedAssessments(t *testing.T) {
	limiter := newQuotaLimiter(1)
	f := newRecommendationFixture(t, nil, limiter)
	ctx := context.Background()

	missing := GenerateInput{AssessmentID: testID(kindAssessment, 99), MaxRecommendations: 5}
	if _, err := f.svc.Generate(ctx, f.userID, missing); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	pending := testID(kindAssessment, 2)
	f.assessments.assessments[pending] = domain.Assessment{ID: pending, UserID: f.userID, Status: domain.StatusInProgress}
	if _, err := f.svc.Generate(ctx, f.userID, GenerateInput{AssessmentID: pending, MaxRecommendations: 5}); !errors.Is(err, domain.ErrState) {
		t.Fatalf("expected ErrState, got %v", err)
	}
	if limiter.used[f.userID] != 0 {
		t.Fatalf("rejected requests must not consume quota, used=%d", limiter.used[f.userID])
	}

	if _, err := f.svc.Generate(ctx, f.userID, f.input(5)); err != nil {
		t.Fatalf("generation within quota: %v", err)
	}
}

func TestGenerateThroughRedisLimiter(t *testing.T) {
	evaler := &fakeEvaler{results: [][]int64{{1, 3600}, {2, 1800}}}
	f := newRecommendationFixture(t, nil, fixedLimiter(evaler, 1))
	ctx := context.Background()

	if _, err := f.svc.Generate(ctx, f.userID, f.input(5)); err != nil {
		t.Fatalf("first generation: %v", err)
	}
	_, err := f.svc.Generate(ctx, f.userID, f.input(5))
	var rle *RateLimitError
	if !errors.As(err, &rle) || !errors.Is(err, ErrRateLimited) || rle.RetryAfter != 30*time.Minute {
		t.Fatalf("expected rate limit with 30m retry, got %v", err)
	}
	if len(evaler.keys) != 2 || evaler.keys[0] != evaler.keys[1] {
		t.Fatalf("expected both reservations on the same user key, got %v", evaler.keys)
	}
}

func TestListRejectsMalformedAssessmentID(t *testing.T) {
	f := newRecommendationFixture(t, nil, nil)
	if _, err := f.svc.List(context.Background(), f.userID, "nope"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	recs, err := f.svc.List(context.Background(), f.userID, "")
	if err != nil || recs == nil || len(recs) != 0 {
		t.Fatalf("expected empty list, got %+v, %v", recs, err)
	}
}

func TestConfidenceBounds(t *testing.T) {
	cases := map[float64]float64{-5: 0, 0: 0, 42: 0.42, 100: 1, 130: 1}
	for in, want := range cases {
		if got := Confidence(in); math.Abs(got-want) > 1e-9 {
			t.Fatalf("Confidence(%v) = %v, want %v", in, got, want)
		}
	}
}
