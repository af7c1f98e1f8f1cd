package service

import (
	"sort"

	"career-advisor/internal/domain"
)

const (
	preferredTraitWeight = 2.0
	defaultTraitWeight   = 1.0

	MinRecommendations = 1
	MaxRecommendations = 20
)

// CareerMatch es una carrera con su puntaje de afinidad 0-100.
type CareerMatch struct {
	Career domain.Career
	Score  float64
}

// CareerMatcher puntúa el catálogo contra los rasgos de una evaluación. Sólo lee.
type CareerMatcher struct{}

// Score calcula la afinidad de una carrera; ok es false si ningún rasgo aporta peso.
func (CareerMatcher) Score(scores []domain.TraitScore, career domain.Career) (float64, bool) {
	var contributions, weights float64
	for _, ts := range scores {
		weight := defaultTraitWeight
		if career.PrefersTrait(ts.TraitID) {
			weight = preferredTraitWeight
		}
		contributions += (ts.Score / 100) * weight
		weights += weight
	}
	if weights == 0 {
		return 0, false
	}
	return clamp(contributions/weights*100, 0, 100), true
}

// Rank devuelve hasta limit carreras ordenadas por puntaje descendente.
// Los empates se resuelven por ID de carrera ascendente; carreras con puntaje 0 se excluyen.
func (m CareerMatcher) Rank(scores []domain.TraitScore, careers []domain.Career, limit int) []CareerMatch {
	if limit <= 0 {
		return []CareerMatch{}
	}

	matches := make([]CareerMatch, 0, len(careers))
	for _, career := range careers {
		score, ok := m.Score(scores, career)
		if !ok || score <= 0 {
			continue
		}
		matches = append(matches, CareerMatch{Career: career, Score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Career.ID < matches[j].Career.ID
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}
