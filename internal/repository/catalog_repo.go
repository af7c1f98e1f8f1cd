package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"career-advisor/internal/domain"
)

// CatalogRepository expone el catálogo de referencia (sólo lectura para el pipeline).
type CatalogRepository interface {
	ListTraits(ctx context.Context) ([]domain.Trait, error)
	GetQuestionsByIDs(ctx context.Context, ids []string) ([]domain.Question, error)
	// ListActiveQuestions filtra por tipo; con tipo vacío devuelve todas ordenadas por grupo.
	ListActiveQuestions(ctx context.Context, questionType string) ([]domain.Question, error)
	ListActiveCareers(ctx context.Context) ([]domain.Career, error)
	GetCareer(ctx context.Context, id string) (domain.Career, error)
	SearchCareers(ctx context.Context, domainID, query string) ([]domain.Career, error)
	ListCoursesByCareer(ctx context.Context, careerID string, limit int) ([]domain.Course, error)
	ListRoadmapsByCareer(ctx context.Context, careerID string, limit int) ([]domain.Roadmap, error)
}

// CatalogWriter hace upserts idempotentes por clave natural; lo usa la carga de datos.
type CatalogWriter interface {
	UpsertTrait(ctx context.Context, trait domain.Trait) (string, error)
	UpsertSkill(ctx context.Context, skill domain.Skill) (string, error)
	UpsertDomain(ctx context.Context, d domain.CareerDomain) (string, error)
	UpsertCareer(ctx context.Context, career domain.Career) (string, error)
	UpsertQuestion(ctx context.Context, q domain.Question) (string, error)
	UpsertCourse(ctx context.Context, course domain.Course) (string, error)
	UpsertRoadmap(ctx context.Context, roadmap domain.Roadmap) (string, error)
}

type PgCatalogRepository struct {
	pool *pgxpool.Pool
}

func NewPgCatalogRepository(pool *pgxpool.Pool) *PgCatalogRepository {
	return &PgCatalogRepository{pool: pool}
}

func (r *PgCatalogRepository) ListTraits(ctx context.Context) ([]domain.Trait, error) {
	const query = `
		SELECT id, name, description, category, created_at
		FROM traits
		ORDER BY category, name
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	traits := []domain.Trait{}
	for rows.Next() {
		var t domain.Trait
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.Category, &t.CreatedAt); err != nil {
			return nil, err
		}
		traits = append(traits, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return traits, nil
}

const questionColumns = `id, trait_id, text, question_type, weight, options, question_group, is_active`

func (r *PgCatalogRepository) GetQuestionsByIDs(ctx context.Context, ids []string) ([]domain.Question, error) {
	if len(ids) == 0 {
		return []domain.Question{}, nil
	}
	query := `SELECT ` + questionColumns + ` FROM questions WHERE id = ANY($1::uuid[])`
	return r.queryQuestions(ctx, query, ids)
}

func (r *PgCatalogRepository) ListActiveQuestions(ctx context.Context, questionType string) ([]domain.Question, error) {
	if questionType == "" {
		query := `SELECT ` + questionColumns + ` FROM questions WHERE is_active ORDER BY question_group, id`
		return r.queryQuestions(ctx, query)
	}
	query := `SELECT ` + questionColumns + ` FROM questions WHERE is_active AND question_type = $1 ORDER BY question_group, id`
	return r.queryQuestions(ctx, query, questionType)
}

func (r *PgCatalogRepository) queryQuestions(ctx context.Context, query string, args ...any) ([]domain.Question, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := []domain.Question{}
	for rows.Next() {
		var (
			q     domain.Question
			qType string
		)
		if err := rows.Scan(&q.ID, &q.TraitID, &q.Text, &qType, &q.Weight, &q.Options, &q.Group, &q.IsActive); err != nil {
			return nil, err
		}
		q.Type = domain.QuestionType(qType)
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return questions, nil
}

const careerSelect = `
	SELECT c.id, c.title, c.description, c.education_requirements, c.experience_levels,
		c.salary_range, c.job_outlook, c.is_active,
		d.id, d.name, d.description, d.industry, d.growth_potential, d.salary_range
	FROM careers c
	JOIN domains d ON d.id = c.domain_id
`

func (r *PgCatalogRepository) ListActiveCareers(ctx context.Context) ([]domain.Career, error) {
	return r.queryCareers(ctx, careerSelect+` WHERE c.is_active ORDER BY c.title, c.id`)
}

func (r *PgCatalogRepository) GetCareer(ctx context.Context, id string) (domain.Career, error) {
	careers, err := r.queryCareers(ctx, careerSelect+` WHERE c.id = $1`, id)
	if err != nil {
		return domain.Career{}, err
	}
	if len(careers) == 0 {
		return domain.Career{}, pgx.ErrNoRows
	}
	return careers[0], nil
}

func (r *PgCatalogRepository) SearchCareers(ctx context.Context, domainID, query string) ([]domain.Career, error) {
	sql := careerSelect + `
		WHERE c.is_active
			AND ($1 = '' OR d.id::text = $1)
			AND ($2 = '' OR c.title ILIKE '%' || $2 || '%' OR c.description ILIKE '%' || $2 || '%')
		ORDER BY c.title, c.id
	`
	return r.queryCareers(ctx, sql, domainID, query)
}

func (r *PgCatalogRepository) queryCareers(ctx context.Context, query string, args ...any) ([]domain.Career, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	careers := []domain.Career{}
	for rows.Next() {
		var c domain.Career
		if err := rows.Scan(
			&c.ID,
			&c.Title,
			&c.Description,
			&c.EducationRequirements,
			&c.ExperienceLevels,
			&c.SalaryRange,
			&c.JobOutlook,
			&c.IsActive,
			&c.Domain.ID,
			&c.Domain.Name,
			&c.Domain.Description,
			&c.Domain.Industry,
			&c.Domain.GrowthPotential,
			&c.Domain.SalaryRange,
		); err != nil {
			rows.Close()
			return nil, err
		}
		careers = append(careers, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachCareerRelations(ctx, careers); err != nil {
		return nil, err
	}
	return careers, nil
}

// attachCareerRelations carga skills requeridas (en orden de posición) y rasgos preferidos.
func (r *PgCatalogRepository) attachCareerRelations(ctx context.Context, careers []domain.Career) error {
	if len(careers) == 0 {
		return nil
	}
	ids := make([]string, 0, len(careers))
	index := make(map[string]int, len(careers))
	for i, c := range careers {
		ids = append(ids, c.ID)
		index[c.ID] = i
		careers[i].RequiredSkills = []domain.Skill{}
		careers[i].PreferredTraitIDs = []string{}
	}

	const skillsQuery = `
		SELECT crs.career_id, s.id, s.name, s.description, s.category, s.proficiency_levels
		FROM career_required_skills crs
		JOIN skills s ON s.id = crs.skill_id
		WHERE crs.career_id = ANY($1::uuid[])
		ORDER BY crs.career_id, crs.position
	`
	rows, err := r.pool.Query(ctx, skillsQuery, ids)
	if err != nil {
		return fmt.Errorf("load required skills: %w", err)
	}
	for rows.Next() {
		var (
			careerID string
			s        domain.Skill
		)
		if err := rows.Scan(&careerID, &s.ID, &s.Name, &s.Description, &s.Category, &s.ProficiencyLevels); err != nil {
			rows.Close()
			return err
		}
		if i, ok := index[careerID]; ok {
			careers[i].RequiredSkills = append(careers[i].RequiredSkills, s)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	const traitsQuery = `
		SELECT career_id, trait_id
		FROM career_preferred_traits
		WHERE career_id = ANY($1::uuid[])
		ORDER BY career_id, trait_id
	`
	rows, err = r.pool.Query(ctx, traitsQuery, ids)
	if err != nil {
		return fmt.Errorf("load preferred traits: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var careerID, traitID string
		if err := rows.Scan(&careerID, &traitID); err != nil {
			return err
		}
		if i, ok := index[careerID]; ok {
			careers[i].PreferredTraitIDs = append(careers[i].PreferredTraitIDs, traitID)
		}
	}
	return rows.Err()
}

func (r *PgCatalogRepository) ListCoursesByCareer(ctx context.Context, careerID string, limit int) ([]domain.Course, error) {
	const query = `
		SELECT co.id, co.name, co.description, co.college_name, co.duration, co.level, co.fees::float8, co.is_online
		FROM courses co
		JOIN course_career_paths ccp ON ccp.course_id = co.id
		WHERE ccp.career_id = $1
		ORDER BY co.name, co.id
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, careerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	courses := []domain.Course{}
	for rows.Next() {
		var c domain.Course
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CollegeName, &c.Duration, &c.Level, &c.Fees, &c.IsOnline); err != nil {
			return nil, err
		}
		c.CareerIDs = []string{careerID}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *PgCatalogRepository) ListRoadmapsByCareer(ctx context.Context, careerID string, limit int) ([]domain.Roadmap, error) {
	const query = `
		SELECT id, title, description, career_id, target_audience, duration_months, steps, outcomes, difficulty_level
		FROM roadmaps
		WHERE career_id = $1
		ORDER BY title, id
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, careerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roadmaps := []domain.Roadmap{}
	for rows.Next() {
		var rm domain.Roadmap
		if err := rows.Scan(
			&rm.ID,
			&rm.Title,
			&rm.Description,
			&rm.CareerID,
			&rm.TargetAudience,
			&rm.DurationMonths,
			&rm.Steps,
			&rm.Outcomes,
			&rm.DifficultyLevel,
		); err != nil {
			return nil, err
		}
		roadmaps = append(roadmaps, rm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return roadmaps, nil
}

func (r *PgCatalogRepository) UpsertTrait(ctx context.Context, trait domain.Trait) (string, error) {
	const query = `
		INSERT INTO traits (id, name, description, category)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name)
		DO UPDATE SET description = EXCLUDED.description, category = EXCLUDED.category
		RETURNING id
	`
	var id string
	err := r.pool.QueryRow(ctx, query, trait.ID, trait.Name, trait.Description, trait.Category).Scan(&id)
	return id, err
}

func (r *PgCatalogRepository) UpsertSkill(ctx context.Context, skill domain.Skill) (string, error) {
	const query = `
		INSERT INTO skills (id, name, description, category, proficiency_levels)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name)
		DO UPDATE SET
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			proficiency_levels = EXCLUDED.proficiency_levels
		RETURNING id
	`
	var id string
	err := r.pool.QueryRow(ctx, query, skill.ID, skill.Name, skill.Description, skill.Category, nonNilStrings(skill.ProficiencyLevels)).Scan(&id)
	return id, err
}

func (r *PgCatalogRepository) UpsertDomain(ctx context.Context, d domain.CareerDomain) (string, error) {
	const query = `
		INSERT INTO domains (id, name, description, industry, growth_potential, salary_range)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (name)
		DO UPDATE SET
			description = EXCLUDED.description,
			industry = EXCLUDED.industry,
			growth_potential = EXCLUDED.growth_potential,
			salary_range = EXCLUDED.salary_range
		RETURNING id
	`
	var id string
	err := r.pool.QueryRow(ctx, query, d.ID, d.Name, d.Description, d.Industry, d.GrowthPotential, d.SalaryRange).Scan(&id)
	return id, err
}

// UpsertCareer reemplaza también sus skills requeridas y rasgos preferidos.
func (r *PgCatalogRepository) UpsertCareer(ctx context.Context, career domain.Career) (string, error) {
	var id string
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const query = `
			INSERT INTO careers (id, title, description, domain_id, education_requirements, experience_levels,
				salary_range, job_outlook, is_active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (title)
			DO UPDATE SET
				description = EXCLUDED.description,
				domain_id = EXCLUDED.domain_id,
				education_requirements = EXCLUDED.education_requirements,
				experience_levels = EXCLUDED.experience_levels,
				salary_range = EXCLUDED.salary_range,
				job_outlook = EXCLUDED.job_outlook,
				is_active = EXCLUDED.is_active
			RETURNING id
		`
		if err := tx.QueryRow(ctx, query,
			career.ID,
			career.Title,
			career.Description,
			career.Domain.ID,
			nonNilStrings(career.EducationRequirements),
			nonNilStrings(career.ExperienceLevels),
			career.SalaryRange,
			career.JobOutlook,
			career.IsActive,
		).Scan(&id); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `DELETE FROM career_required_skills WHERE career_id = $1`, id); err != nil {
			return err
		}
		for pos, skill := range career.RequiredSkills {
			if _, err := tx.Exec(ctx,
				`INSERT INTO career_required_skills (career_id, skill_id, position) VALUES ($1, $2, $3)`,
				id, skill.ID, pos,
			); err != nil {
				return err
			}
		}

		if _, err := tx.Exec(ctx, `DELETE FROM career_preferred_traits WHERE career_id = $1`, id); err != nil {
			return err
		}
		for _, traitID := range career.PreferredTraitIDs {
			if _, err := tx.Exec(ctx,
				`INSERT INTO career_preferred_traits (career_id, trait_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
				id, traitID,
			); err != nil {
				return err
			}
		}
		return nil
	})
	return id, err
}

func (r *PgCatalogRepository) UpsertQuestion(ctx context.Context, q domain.Question) (string, error) {
	const query = `
		INSERT INTO questions (id, trait_id, text, question_type, weight, options, question_group, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (text)
		DO UPDATE SET
			trait_id = EXCLUDED.trait_id,
			question_type = EXCLUDED.question_type,
			weight = EXCLUDED.weight,
			options = EXCLUDED.options,
			question_group = EXCLUDED.question_group,
			is_active = EXCLUDED.is_active
		RETURNING id
	`
	var id string
	err := r.pool.QueryRow(ctx, query,
		q.ID,
		q.TraitID,
		q.Text,
		string(q.Type),
		q.Weight,
		nonNilStrings(q.Options),
		q.Group,
		q.IsActive,
	).Scan(&id)
	return id, err
}

// UpsertCourse reemplaza también las carreras asociadas al curso.
func (r *PgCatalogRepository) UpsertCourse(ctx context.Context, course domain.Course) (string, error) {
	var id string
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const query = `
			INSERT INTO courses (id, name, description, college_name, duration, level, fees, is_online)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (name)
			DO UPDATE SET
				description = EXCLUDED.description,
				college_name = EXCLUDED.college_name,
				duration = EXCLUDED.duration,
				level = EXCLUDED.level,
				fees = EXCLUDED.fees,
				is_online = EXCLUDED.is_online
			RETURNING id
		`
		var fees any
		if course.Fees != nil {
			fees = *course.Fees
		}
		if err := tx.QueryRow(ctx, query,
			course.ID,
			course.Name,
			course.Description,
			course.CollegeName,
			course.Duration,
			course.Level,
			fees,
			course.IsOnline,
		).Scan(&id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM course_career_paths WHERE course_id = $1`, id); err != nil {
			return err
		}
		for _, careerID := range course.CareerIDs {
			if _, err := tx.Exec(ctx,
				`INSERT INTO course_career_paths (course_id, career_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
				id, careerID,
			); err != nil {
				return err
			}
		}
		return nil
	})
	return id, err
}

func (r *PgCatalogRepository) UpsertRoadmap(ctx context.Context, roadmap domain.Roadmap) (string, error) {
	const query = `
		INSERT INTO roadmaps (id, title, description, career_id, target_audience, duration_months, steps, outcomes, difficulty_level)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (title)
		DO UPDATE SET
			description = EXCLUDED.description,
			career_id = EXCLUDED.career_id,
			target_audience = EXCLUDED.target_audience,
			duration_months = EXCLUDED.duration_months,
			steps = EXCLUDED.steps,
			outcomes = EXCLUDED.outcomes,
			difficulty_level = EXCLUDED.difficulty_level
		RETURNING id
	`
	var id string
	err := r.pool.QueryRow(ctx, query,
		roadmap.ID,
		roadmap.Title,
		roadmap.Description,
		roadmap.CareerID,
		roadmap.TargetAudience,
		roadmap.DurationMonths,
		nonNilStrings(roadmap.Steps),
		nonNilStrings(roadmap.Outcomes),
		roadmap.DifficultyLevel,
	).Scan(&id)
	return id, err
}

// nonNilStrings evita que un slice nil se guarde como JSON null.
func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
