package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"career-advisor/internal/domain"
	"career-advisor/internal/repository"
)

// seedCatalog es el formato YAML del catálogo. Las relaciones se expresan por nombre o título.
type seedCatalog struct {
	Traits    []seedTrait    `yaml:"traits" validate:"dive"`
	Skills    []seedSkill    `yaml:"skills" validate:"dive"`
	Domains   []seedDomain   `yaml:"domains" validate:"dive"`
	Careers   []seedCareer   `yaml:"careers" validate:"dive"`
	Questions []seedQuestion `yaml:"questions" validate:"dive"`
	Courses   []seedCourse   `yaml:"courses" validate:"dive"`
	Roadmaps  []seedRoadmap  `yaml:"roadmaps" validate:"dive"`
}

type seedTrait struct {
	Name        string `yaml:"name" validate:"required"`
	Description string `yaml:"description"`
	Category    string `yaml:"category" validate:"required,oneof=personality cognitive social leadership technical creative analytical"`
}

type seedSkill struct {
	Name              string   `yaml:"name" validate:"required"`
	Description       string   `yaml:"description"`
	Category          string   `yaml:"category" validate:"required,oneof=technical soft domain tool"`
	ProficiencyLevels []string `yaml:"proficiency_levels"`
}

type seedDomain struct {
	Name            string             `yaml:"name" validate:"required"`
	Description     string             `yaml:"description"`
	Industry        string             `yaml:"industry"`
	GrowthPotential string             `yaml:"growth_potential"`
	SalaryRange     domain.SalaryRange `yaml:"salary_range"`
}

type seedCareer struct {
	Title                 string             `yaml:"title" validate:"required"`
	Description           string             `yaml:"description"`
	Domain                string             `yaml:"domain" validate:"required"`
	RequiredSkills        []string           `yaml:"required_skills"`
	PreferredTraits       []string           `yaml:"preferred_traits"`
	EducationRequirements []string           `yaml:"education_requirements"`
	ExperienceLevels      []string           `yaml:"experience_levels"`
	SalaryRange           domain.SalaryRange `yaml:"salary_range"`
	JobOutlook            string             `yaml:"job_outlook"`
	Inactive              bool               `yaml:"inactive"`
}

type seedQuestion struct {
	Text     string   `yaml:"text" validate:"required"`
	Trait    string   `yaml:"trait" validate:"required"`
	Type     string   `yaml:"type" validate:"required,oneof=likert single_choice multi_select text_input interest personality"`
	Weight   float64  `yaml:"weight" validate:"omitempty,gte=0.1,lte=5"`
	Options  []string `yaml:"options"`
	Group    int      `yaml:"group" validate:"omitempty,min=1,max=6"`
	Inactive bool     `yaml:"inactive"`
}

type seedCourse struct {
	Name        string   `yaml:"name" validate:"required"`
	Description string   `yaml:"description"`
	College     string   `yaml:"college"`
	Duration    string   `yaml:"duration"`
	Level       string   `yaml:"level"`
	Careers     []string `yaml:"careers"`
	Fees        *float64 `yaml:"fees" validate:"omitempty,gte=0"`
	Online      bool     `yaml:"online"`
}

type seedRoadmap struct {
	Title           string   `yaml:"title" validate:"required"`
	Description     string   `yaml:"description"`
	Career          string   `yaml:"career" validate:"required"`
	TargetAudience  string   `yaml:"target_audience"`
	DurationMonths  int      `yaml:"duration_months" validate:"gte=0"`
	Steps           []string `yaml:"steps"`
	Outcomes        []string `yaml:"outcomes"`
	DifficultyLevel string   `yaml:"difficulty_level"`
}

type seedStats struct {
	Traits, Skills, Domains, Careers, Questions, Courses, Roadmaps int
}

var seedValidate = validator.New()

// loadCatalog rechaza claves desconocidas para que un typo no pase en silencio.
func loadCatalog(r io.Reader) (*seedCatalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var catalog seedCatalog
	if err := dec.Decode(&catalog); err != nil {
		if errors.Is(err, io.EOF) {
			return &catalog, nil
		}
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := seedValidate.Struct(catalog); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return &catalog, nil
}

// applyCatalog hace upsert en orden de dependencias y resuelve nombres a IDs.
func applyCatalog(ctx context.Context, w repository.CatalogWriter, c *seedCatalog, logger *zap.Logger) (seedStats, error) {
	var stats seedStats
	traitIDs := map[string]string{}
	skills := map[string]domain.Skill{}
	domainIDs := map[string]string{}
	careerIDs := map[string]string{}

	for _, t := range c.Traits {
		id, err := w.UpsertTrait(ctx, domain.Trait{ID: uuid.NewString(), Name: t.Name, Description: t.Description, Category: t.Category})
		if err != nil {
			return stats, fmt.Errorf("trait %q: %w", t.Name, err)
		}
		traitIDs[t.Name] = id
		stats.Traits++
	}

	for _, s := range c.Skills {
		skill := domain.Skill{
			ID:                uuid.NewString(),
			Name:              s.Name,
			Description:       s.Description,
			Category:          s.Category,
			ProficiencyLevels: s.ProficiencyLevels,
		}
		id, err := w.UpsertSkill(ctx, skill)
		if err != nil {
			return stats, fmt.Errorf("skill %q: %w", s.Name, err)
		}
		skill.ID = id
		skills[s.Name] = skill
		stats.Skills++
	}

	for _, d := range c.Domains {
		id, err := w.UpsertDomain(ctx, domain.CareerDomain{
			ID:              uuid.NewString(),
			Name:            d.Name,
			Description:     d.Description,
			Industry:        d.Industry,
			GrowthPotential: d.GrowthPotential,
			SalaryRange:     d.SalaryRange,
		})
		if err != nil {
			return stats, fmt.Errorf("domain %q: %w", d.Name, err)
		}
		domainIDs[d.Name] = id
		stats.Domains++
	}

	for _, sc := range c.Careers {
		career, err := resolveCareer(sc, domainIDs, skills, traitIDs)
		if err != nil {
			return stats, err
		}
		id, err := w.UpsertCareer(ctx, career)
		if err != nil {
			return stats, fmt.Errorf("career %q: %w", sc.Title, err)
		}
		careerIDs[sc.Title] = id
		stats.Careers++
	}

	for _, q := range c.Questions {
		traitID, ok := traitIDs[q.Trait]
		if !ok {
			return stats, fmt.Errorf("question %q: unknown trait %q", q.Text, q.Trait)
		}
		weight, group := q.Weight, q.Group
		if weight == 0 {
			weight = 1
		}
		if group == 0 {
			group = 1
		}
		if _, err := w.UpsertQuestion(ctx, domain.Question{
			ID:       uuid.NewString(),
			TraitID:  traitID,
			Text:     q.Text,
			Type:     domain.QuestionType(q.Type),
			Weight:   weight,
			Options:  q.Options,
			Group:    group,
			IsActive: !q.Inactive,
		}); err != nil {
			return stats, fmt.Errorf("question %q: %w", q.Text, err)
		}
		stats.Questions++
	}

	for _, sc := range c.Courses {
		ids := make([]string, 0, len(sc.Careers))
		for _, title := range sc.Careers {
			id, ok := careerIDs[title]
			if !ok {
				return stats, fmt.Errorf("course %q: unknown career %q", sc.Name, title)
			}
			ids = append(ids, id)
		}
		if _, err := w.UpsertCourse(ctx, domain.Course{
			ID:          uuid.NewString(),
			Name:        sc.Name,
			Description: sc.Description,
			CollegeName: sc.College,
			Duration:    sc.Duration,
			Level:       sc.Level,
			CareerIDs:   ids,
			Fees:        sc.Fees,
			IsOnline:    sc.Online,
		}); err != nil {
			return stats, fmt.Errorf("course %q: %w", sc.Name, err)
		}
		stats.Courses++
	}

	for _, r := range c.Roadmaps {
		careerID, ok := careerIDs[r.Career]
		if !ok {
			return stats, fmt.Errorf("roadmap %q: unknown career %q", r.Title, r.Career)
		}
		if _, err := w.UpsertRoadmap(ctx, domain.Roadmap{
			ID:              uuid.NewString(),
			Title:           r.Title,
			Description:     r.Description,
			CareerID:        careerID,
			TargetAudience:  r.TargetAudience,
			DurationMonths:  r.DurationMonths,
			Steps:           r.Steps,
			Outcomes:        r.Outcomes,
			DifficultyLevel: r.DifficultyLevel,
		}); err != nil {
			return stats, fmt.Errorf("roadmap %q: %w", r.Title, err)
		}
		stats.Roadmaps++
	}

	logger.Info("catalog applied",
		zap.Int("traits", stats.Traits),
		zap.Int("skills", stats.Skills),
		zap.Int("domains", stats.Domains),
		zap.Int("careers", stats.Careers),
		zap.Int("questions", stats.Questions),
		zap.Int("courses", stats.Courses),
		zap.Int("roadmaps", stats.Roadmaps),
	)
	return stats, nil
}

func resolveCareer(sc seedCareer, domainIDs map[string]string, skills map[string]domain.Skill, traitIDs map[string]string) (domain.Career, error) {
	domainID, ok := domainIDs[sc.Domain]
	if !ok {
		return domain.Career{}, fmt.Errorf("career %q: unknown domain %q", sc.Title, sc.Domain)
	}
	career := domain.Career{
		ID:                    uuid.NewString(),
		Title:                 sc.Title,
		Description:           sc.Description,
		Domain:                domain.CareerDomain{ID: domainID, Name: sc.Domain},
		EducationRequirements: sc.EducationRequirements,
		ExperienceLevels:      sc.ExperienceLevels,
		SalaryRange:           sc.SalaryRange,
		JobOutlook:            sc.JobOutlook,
		IsActive:              !sc.Inactive,
	}
	for _, name := range sc.RequiredSkills {
		skill, ok := skills[name]
		if !ok {
			return domain.Career{}, fmt.Errorf("career %q: unknown skill %q", sc.Title, name)
		}
		career.RequiredSkills = append(career.RequiredSkills, skill)
	}
	for _, name := range sc.PreferredTraits {
		id, ok := traitIDs[name]
		if !ok {
			return domain.Career{}, fmt.Errorf("career %q: unknown trait %q", sc.Title, name)
		}
		career.PreferredTraitIDs = append(career.PreferredTraitIDs, id)
	}
	return career, nil
}
