package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"career-advisor/internal/domain"
	"career-advisor/internal/llm"
)

const (
	explanationMaxTokens  = 150
	summaryMaxTokens      = 100
	generationTemperature = 0.7

	SummaryNotAvailable = "Assessment completed. AI summary not available."
	SummaryFallback     = "Assessment completed successfully."
)

// FallbackExplanation es el texto determinista usado cuando el generador falla o no existe.
func FallbackExplanation(careerTitle string, matchScore float64) string {
	return fmt.Sprintf("Based on your assessment results, %s shows a %.1f%% match.", careerTitle, matchScore)
}

// ExplanationService pide textos al LLM con timeout y nunca propaga sus errores.
type ExplanationService struct {
	client  llm.LLMClient
	timeout time.Duration
	logger  *zap.Logger
}

// NewExplanationService acepta client nil: en ese caso siempre devuelve los textos de respaldo.
func NewExplanationService(client llm.LLMClient, timeout time.Duration, logger *zap.Logger) *ExplanationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ExplanationService{client: client, timeout: timeout, logger: logger}
}

func (s *ExplanationService) ExplainCareer(ctx context.Context, career domain.Career, matchScore float64, scores []domain.TraitScore) string {
	fallback := FallbackExplanation(career.Title, matchScore)
	if s.client == nil {
		return fallback
	}

	prompt := buildCareerExplanationPrompt(career, matchScore, TopTraits(scores, topTraitsForExplanation))
	text, err := s.generate(ctx, prompt, explanationMaxTokens)
	if err != nil {
		s.logger.Warn("career explanation fallback",
			zap.String("career_id", career.ID),
			zap.Error(err),
		)
		return fallback
	}
	return text
}

func (s *ExplanationService) SummarizeAssessment(ctx context.Context, assessmentType domain.AssessmentType, scores []domain.TraitScore) string {
	if s.client == nil {
		return SummaryNotAvailable
	}

	text, err := s.generate(ctx, buildAssessmentSummaryPrompt(assessmentType, scores), summaryMaxTokens)
	if err != nil {
		s.logger.Warn("assessment summary fallback", zap.Error(err))
		return SummaryFallback
	}
	return text
}

func (s *ExplanationService) generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.client.Generate(ctx, prompt, llm.GenerateOptions{
		MaxTokens:   maxTokens,
		Temperature: generationTemperature,
	})
	if err != nil {
		return "", err
	}
	text := cleanLLMText(raw)
	if text == "" {
		return "", fmt.Errorf("%w: empty text", llm.ErrUnavailable)
	}
	return text, nil
}
