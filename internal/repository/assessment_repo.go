package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"career-advisor/internal/domain"
)

// AssessmentRepository agrupa evaluaciones, respuestas y puntajes por rasgo.
type AssessmentRepository interface {
	Create(ctx context.Context, assessment domain.Assessment) error
	GetByID(ctx context.Context, id string) (domain.Assessment, error)
	// Complete pasa de in_progress a completed. Devuelve false si la evaluación ya no estaba en curso.
	Complete(ctx context.Context, id, summary string, overallScore *float64, completedAt time.Time) (bool, error)
	// Abandon pasa de in_progress a abandoned. Devuelve false si la evaluación ya no estaba en curso.
	Abandon(ctx context.Context, id string) (bool, error)

	ListResponses(ctx context.Context, assessmentID string) ([]domain.Response, error)
	InsertResponses(ctx context.Context, responses []domain.Response) error

	// UpsertTraitScore devuelve el registro guardado y si fue creado (no actualizado).
	UpsertTraitScore(ctx context.Context, score domain.TraitScore) (domain.TraitScore, bool, error)
	ListTraitScores(ctx context.Context, assessmentID string) ([]domain.TraitScore, error)
	ListScoresByTrait(ctx context.Context, traitID string) ([]float64, error)
	// UpdatePercentile sólo toca la columna percentile.
	UpdatePercentile(ctx context.Context, traitScoreID string, percentile float64) error
	// LockTrait serializa el recálculo de percentiles de un rasgo hasta el fin de la transacción.
	LockTrait(ctx context.Context, traitID string) error
}

type PgAssessmentRepository struct {
	db DBTX
}

func NewPgAssessmentRepository(db DBTX) *PgAssessmentRepository {
	return &PgAssessmentRepository{db: db}
}

func (r *PgAssessmentRepository) Create(ctx context.Context, a domain.Assessment) error {
	const query = `
		INSERT INTO assessments (id, user_id, assessment_type, status, summary, started_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query, a.ID, a.UserID, string(a.Type), string(a.Status), a.Summary, a.StartedAt)
	return err
}

func (r *PgAssessmentRepository) GetByID(ctx context.Context, id string) (domain.Assessment, error) {
	const query = `
		SELECT id, user_id, assessment_type, status, overall_score, summary, started_at, completed_at
		FROM assessments
		WHERE id = $1
	`
	var (
		a           domain.Assessment
		aType       string
		status      string
		overall     sql.NullFloat64
		completedAt sql.NullTime
	)
	err := r.db.QueryRow(ctx, query, id).Scan(
		&a.ID,
		&a.UserID,
		&aType,
		&status,
		&overall,
		&a.Summary,
		&a.StartedAt,
		&completedAt,
	)
	if err != nil {
		return domain.Assessment{}, err
	}
	a.Type = domain.AssessmentType(aType)
	a.Status = domain.AssessmentStatus(status)
	if overall.Valid {
		val := overall.Float64
		a.OverallScore = &val
	}
	if completedAt.Valid {
		ts := completedAt.Time
		a.CompletedAt = &ts
	}
	return a, nil
}

func (r *PgAssessmentRepository) Complete(ctx context.Context, id, summary string, overallScore *float64, completedAt time.Time) (bool, error) {
	const query = `
		UPDATE assessments
		SET status = 'completed', summary = $2, overall_score = $3, completed_at = $4
		WHERE id = $1 AND status = 'in_progress'
	`
	var overall any
	if overallScore != nil {
		overall = *overallScore
	}
	tag, err := r.db.Exec(ctx, query, id, summary, overall, completedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PgAssessmentRepository) Abandon(ctx context.Context, id string) (bool, error) {
	const query = `
		UPDATE assessments
		SET status = 'abandoned'
		WHERE id = $1 AND status = 'in_progress'
	`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PgAssessmentRepository) ListResponses(ctx context.Context, assessmentID string) ([]domain.Response, error) {
	const query = `
		SELECT id, assessment_id, question_id, raw_response, weighted_score, response_time, created_at
		FROM responses
		WHERE assessment_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.db.Query(ctx, query, assessmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	responses := []domain.Response{}
	for rows.Next() {
		var (
			resp         domain.Response
			responseTime sql.NullInt32
		)
		if err := rows.Scan(
			&resp.ID,
			&resp.AssessmentID,
			&resp.QuestionID,
			&resp.RawValue,
			&resp.WeightedScore,
			&responseTime,
			&resp.CreatedAt,
		); err != nil {
			return nil, err
		}
		if responseTime.Valid {
			val := int(responseTime.Int32)
			resp.ResponseTime = &val
		}
		responses = append(responses, resp)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return responses, nil
}

func (r *PgAssessmentRepository) InsertResponses(ctx context.Context, responses []domain.Response) error {
	const query = `
		INSERT INTO responses (id, assessment_id, question_id, raw_response, weighted_score, response_time, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, resp := range responses {
		var responseTime any
		if resp.ResponseTime != nil {
			responseTime = *resp.ResponseTime
		}
		_, err := r.db.Exec(ctx, query,
			resp.ID,
			resp.AssessmentID,
			resp.QuestionID,
			resp.RawValue,
			resp.WeightedScore,
			responseTime,
			resp.CreatedAt,
		)
		if isUniqueViolation(err) {
			return fmt.Errorf("response for question %s: %w", resp.QuestionID, ErrDuplicate)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *PgAssessmentRepository) UpsertTraitScore(ctx context.Context, score domain.TraitScore) (domain.TraitScore, bool, error) {
	// xmax = 0 sólo en filas recién insertadas; distingue alta de actualización.
	const query = `
		INSERT INTO assessment_traits (id, assessment_id, trait_id, score, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (assessment_id, trait_id)
		DO UPDATE SET score = EXCLUDED.score
		RETURNING id, created_at, (xmax = 0) AS inserted
	`
	var inserted bool
	err := r.db.QueryRow(ctx, query,
		score.ID,
		score.AssessmentID,
		score.TraitID,
		score.Score,
		score.CreatedAt,
	).Scan(&score.ID, &score.CreatedAt, &inserted)
	if err != nil {
		return domain.TraitScore{}, false, err
	}
	return score, inserted, nil
}

func (r *PgAssessmentRepository) ListTraitScores(ctx context.Context, assessmentID string) ([]domain.TraitScore, error) {
	const query = `
		SELECT at.id, at.assessment_id, at.trait_id, t.name, at.score, at.percentile, at.created_at
		FROM assessment_traits at
		JOIN traits t ON t.id = at.trait_id
		WHERE at.assessment_id = $1
		ORDER BY t.name
	`

	rows, err := r.db.Query(ctx, query, assessmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scores := []domain.TraitScore{}
	for rows.Next() {
		var (
			s          domain.TraitScore
			percentile sql.NullFloat64
		)
		if err := rows.Scan(
			&s.ID,
			&s.AssessmentID,
			&s.TraitID,
			&s.TraitName,
			&s.Score,
			&percentile,
			&s.CreatedAt,
		); err != nil {
			return nil, err
		}
		if percentile.Valid {
			val := percentile.Float64
			s.Percentile = &val
		}
		scores = append(scores, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return scores, nil
}

func (r *PgAssessmentRepository) ListScoresByTrait(ctx context.Context, traitID string) ([]float64, error) {
	const query = `SELECT score FROM assessment_traits WHERE trait_id = $1`

	rows, err := r.db.Query(ctx, query, traitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scores := []float64{}
	for rows.Next() {
		var score float64
		if err := rows.Scan(&score); err != nil {
			return nil, err
		}
		scores = append(scores, score)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return scores, nil
}

func (r *PgAssessmentRepository) UpdatePercentile(ctx context.Context, traitScoreID string, percentile float64) error {
	const query = `UPDATE assessment_traits SET percentile = $2 WHERE id = $1`
	_, err := r.db.Exec(ctx, query, traitScoreID, percentile)
	return err
}

func (r *PgAssessmentRepository) LockTrait(ctx context.Context, traitID string) error {
	_, err := r.db.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, traitID)
	return err
}
