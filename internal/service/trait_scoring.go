package service

import (
	"fmt"

	"career-advisor/internal/domain"
)

const (
	// BaseResponseScore es el valor fijo (escala 0-10) asignado a cada respuesta antes de ponderar.
	BaseResponseScore = 5.0
	// InterestMultiplier se aplica encima del peso en preguntas de tipo interest.
	InterestMultiplier = 1.2
)

// TraitAggregate es el puntaje normalizado de un rasgo antes de persistirse.
type TraitAggregate struct {
	TraitID string
	Score   float64
}

// TraitScoreAggregator reduce respuestas a un puntaje 0-100 por rasgo. Es puro y determinista.
type TraitScoreAggregator struct{}

// WeightedScore calcula el puntaje ponderado de una respuesta a la pregunta q.
func (TraitScoreAggregator) WeightedScore(q domain.Question) float64 {
	score := BaseResponseScore * q.Weight
	if q.Type == domain.QuestionInterest {
		score *= InterestMultiplier
	}
	return score
}

// Aggregate agrupa por rasgo y promedia sum(ws*w)/sum(w); el peso se aplica dos veces
// (una en WeightedScore y otra aquí). Los rasgos salen en orden de primera aparición.
func (TraitScoreAggregator) Aggregate(responses []domain.Response, questions map[string]domain.Question) ([]TraitAggregate, error) {
	type acc struct {
		weighted float64
		weights  float64
	}
	order := []string{}
	sums := map[string]*acc{}

	for _, resp := range responses {
		q, ok := questions[resp.QuestionID]
		if !ok {
			return nil, fmt.Errorf("%w: question %s", domain.ErrNotFound, resp.QuestionID)
		}
		a, seen := sums[q.TraitID]
		if !seen {
			a = &acc{}
			sums[q.TraitID] = a
			order = append(order, q.TraitID)
		}
		a.weighted += resp.WeightedScore * q.Weight
		a.weights += q.Weight
	}

	out := make([]TraitAggregate, 0, len(order))
	for _, traitID := range order {
		a := sums[traitID]
		if a.weights == 0 {
			continue
		}
		out = append(out, TraitAggregate{
			TraitID: traitID,
			Score:   normalizeTraitScore(a.weighted / a.weights),
		})
	}
	return out, nil
}

func normalizeTraitScore(average float64) float64 {
	return clamp((average/10)*100, 0, 100)
}

// OverallScore es la media de los puntajes de rasgo; nil si no hay ninguno.
func OverallScore(aggregates []TraitAggregate) *float64 {
	if len(aggregates) == 0 {
		return nil
	}
	total := 0.0
	for _, a := range aggregates {
		total += a.Score
	}
	mean := total / float64(len(aggregates))
	return &mean
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
