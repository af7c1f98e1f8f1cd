package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"career-advisor/internal/domain"
)

type UserSkillRepository interface {
	Upsert(ctx context.Context, skill domain.UserSkill) error
	ListByUser(ctx context.Context, userID string) ([]domain.UserSkill, error)
}

type PgUserSkillRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserSkillRepository(pool *pgxpool.Pool) *PgUserSkillRepository {
	return &PgUserSkillRepository{pool: pool}
}

func (r *PgUserSkillRepository) Upsert(ctx context.Context, skill domain.UserSkill) error {
	const query = `
		INSERT INTO user_skills (user_id, skill_id, proficiency_level, years_of_experience, is_verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, skill_id)
		DO UPDATE SET
			proficiency_level = EXCLUDED.proficiency_level,
			years_of_experience = EXCLUDED.years_of_experience,
			is_verified = EXCLUDED.is_verified
	`
	_, err := r.pool.Exec(ctx, query,
		skill.UserID,
		skill.SkillID,
		skill.ProficiencyLevel,
		skill.YearsOfExperience,
		skill.Verified,
		skill.CreatedAt,
	)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("skill %s: %w", skill.SkillID, ErrMissingReference)
	}
	return err
}

func (r *PgUserSkillRepository) ListByUser(ctx context.Context, userID string) ([]domain.UserSkill, error) {
	const query = `
		SELECT us.user_id, us.skill_id, s.name, us.proficiency_level, us.years_of_experience, us.is_verified, us.created_at
		FROM user_skills us
		JOIN skills s ON s.id = us.skill_id
		WHERE us.user_id = $1
		ORDER BY s.name
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	skills := []domain.UserSkill{}
	for rows.Next() {
		var s domain.UserSkill
		if err := rows.Scan(
			&s.UserID,
			&s.SkillID,
			&s.SkillName,
			&s.ProficiencyLevel,
			&s.YearsOfExperience,
			&s.Verified,
			&s.CreatedAt,
		); err != nil {
			return nil, err
		}
		skills = append(skills, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return skills, nil
}
