package service

import (
	"fmt"
	"sort"
	"strings"

	"career-advisor/internal/domain"
)

const topTraitsForExplanation = 3

// TopTraits devuelve los n rasgos con mayor puntaje; empates por nombre de rasgo.
func TopTraits(scores []domain.TraitScore, n int) []domain.TraitScore {
	sorted := append([]domain.TraitScore(nil), scores...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].TraitName < sorted[j].TraitName
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func traitLines(scores []domain.TraitScore) string {
	var b strings.Builder
	for _, ts := range scores {
		name := ts.TraitName
		if name == "" {
			name = ts.TraitID
		}
		fmt.Fprintf(&b, "- %s: %.1f/100\n", name, ts.Score)
	}
	return strings.TrimRight(b.String(), "\n")
}

func buildCareerExplanationPrompt(career domain.Career, matchScore float64, topTraits []domain.TraitScore) string {
	return fmt.Sprintf(`Explain why %s is a good career match based on these trait scores:

%s

Career: %s
Domain: %s
Match Score: %.1f%%

Provide a brief, encouraging explanation in 2-3 sentences.`,
		career.Title,
		traitLines(topTraits),
		career.Title,
		career.Domain.Name,
		matchScore,
	)
}

func buildAssessmentSummaryPrompt(assessmentType domain.AssessmentType, scores []domain.TraitScore) string {
	return fmt.Sprintf(`Based on the following assessment results, provide a brief, encouraging summary:

Assessment Type: %s
Trait Scores:
%s

Please provide a 2-3 sentence summary highlighting strengths and areas for growth.`,
		assessmentType,
		traitLines(scores),
	)
}
