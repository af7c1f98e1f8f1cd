package repository

import (
	"context"

	"career-advisor/internal/domain"
)

// RecommendationRepository persiste el conjunto de recomendaciones de cada evaluación.
type RecommendationRepository interface {
	// ReplaceForAssessment borra las recomendaciones previas de (user, assessment) e inserta recs en orden.
	ReplaceForAssessment(ctx context.Context, userID, assessmentID string, recs []domain.Recommendation) error
	// ListByUser filtra por evaluación si assessmentID no está vacío.
	ListByUser(ctx context.Context, userID, assessmentID string) ([]domain.Recommendation, error)
}

type PgRecommendationRepository struct {
	db DBTX
}

func NewPgRecommendationRepository(db DBTX) *PgRecommendationRepository {
	return &PgRecommendationRepository{db: db}
}

func (r *PgRecommendationRepository) ReplaceForAssessment(ctx context.Context, userID, assessmentID string, recs []domain.Recommendation) error {
	const deleteQuery = `DELETE FROM recommendations WHERE user_id = $1 AND assessment_id = $2`
	if _, err := r.db.Exec(ctx, deleteQuery, userID, assessmentID); err != nil {
		return err
	}

	const insertQuery = `
		INSERT INTO recommendations (
			id, user_id, assessment_id, career_id, career_title, domain_name, match_score,
			confidence_level, reasoning, skill_gaps, suggested_courses, suggested_roadmaps, rank, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	for rank, rec := range recs {
		gaps := rec.SkillGaps
		if gaps == nil {
			gaps = []domain.Skill{}
		}
		courses := rec.SuggestedCourses
		if courses == nil {
			courses = []domain.Course{}
		}
		roadmaps := rec.SuggestedRoadmaps
		if roadmaps == nil {
			roadmaps = []domain.Roadmap{}
		}
		_, err := r.db.Exec(ctx, insertQuery,
			rec.ID,
			userID,
			assessmentID,
			rec.CareerID,
			rec.CareerTitle,
			rec.DomainName,
			rec.MatchScore,
			rec.Confidence,
			rec.Reasoning,
			gaps,
			courses,
			roadmaps,
			rank+1,
			rec.CreatedAt,
		)
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *PgRecommendationRepository) ListByUser(ctx context.Context, userID, assessmentID string) ([]domain.Recommendation, error) {
	const query = `
		SELECT id, user_id, assessment_id, career_id, career_title, domain_name, match_score,
			confidence_level, reasoning, skill_gaps, suggested_courses, suggested_roadmaps, created_at
		FROM recommendations
		WHERE user_id = $1 AND ($2 = '' OR assessment_id::text = $2)
		ORDER BY created_at DESC, assessment_id, rank
	`

	rows, err := r.db.Query(ctx, query, userID, assessmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recs := []domain.Recommendation{}
	for rows.Next() {
		var rec domain.Recommendation
		if err := rows.Scan(
			&rec.ID,
			&rec.UserID,
			&rec.AssessmentID,
			&rec.CareerID,
			&rec.CareerTitle,
			&rec.DomainName,
			&rec.MatchScore,
			&rec.Confidence,
			&rec.Reasoning,
			&rec.SkillGaps,
			&rec.SuggestedCourses,
			&rec.SuggestedRoadmaps,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return recs, nil
}
