package service

import (
	"context"
	"fmt"
	"sort"

	"career-advisor/internal/domain"
)

// PercentileStore es el subconjunto de AssessmentRepository que usa el tracker.
type PercentileStore interface {
	LockTrait(ctx context.Context, traitID string) error
	ListScoresByTrait(ctx context.Context, traitID string) ([]float64, error)
	UpdatePercentile(ctx context.Context, traitScoreID string, percentile float64) error
}

// PercentileRank ubica value en el historial ordenado. Con empates toma el primer índice.
// Devuelve false si hay menos de dos puntajes o value no aparece en el historial.
func PercentileRank(history []float64, value float64) (float64, bool) {
	if len(history) < 2 {
		return 0, false
	}
	sorted := append([]float64(nil), history...)
	sort.Float64s(sorted)

	idx := sort.SearchFloat64s(sorted, value)
	if idx >= len(sorted) || sorted[idx] != value {
		return 0, false
	}
	return float64(idx) / float64(len(sorted)-1) * 100, true
}

// PercentileTracker recalcula el percentil de un TraitScore recién creado.
// Actualiza sólo la columna percentile y no dispara otros recálculos.
type PercentileTracker struct{}

// Recompute debe correr dentro de la transacción que creó score; el lock por rasgo
// serializa recálculos concurrentes hasta el commit.
func (PercentileTracker) Recompute(ctx context.Context, store PercentileStore, score domain.TraitScore) (*float64, error) {
	if err := store.LockTrait(ctx, score.TraitID); err != nil {
		return nil, fmt.Errorf("lock trait %s: %w", score.TraitID, err)
	}
	history, err := store.ListScoresByTrait(ctx, score.TraitID)
	if err != nil {
		return nil, fmt.Errorf("list scores for trait %s: %w", score.TraitID, err)
	}
	percentile, ok := PercentileRank(history, score.Score)
	if !ok {
		return nil, nil
	}
	if err := store.UpdatePercentile(ctx, score.ID, percentile); err != nil {
		return nil, fmt.Errorf("update percentile: %w", err)
	}
	return &percentile, nil
}
