package domain

import "time"

const (
	TraitCategoryPersonality = "personality"
	TraitCategoryCognitive   = "cognitive"
	TraitCategorySocial      = "social"
	TraitCategoryLeadership  = "leadership"
	TraitCategoryTechnical   = "technical"
	TraitCategoryCreative    = "creative"
	TraitCategoryAnalytical  = "analytical"
)

type Trait struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	CreatedAt   time.Time `json:"created_at"`
}

type QuestionType string

const (
	QuestionLikert       QuestionType = "likert"
	QuestionSingleChoice QuestionType = "single_choice"
	QuestionMultiSelect  QuestionType = "multi_select"
	QuestionTextInput    QuestionType = "text_input"
	// QuestionInterest y QuestionPersonality marcan preguntas con ponderación propia.
	QuestionInterest    QuestionType = "interest"
	QuestionPersonality QuestionType = "personality"
)

const (
	MinQuestionWeight = 0.1
	MaxQuestionWeight = 5.0
)

type Question struct {
	ID       string       `json:"id"`
	TraitID  string       `json:"trait_id"`
	Text     string       `json:"text"`
	Type     QuestionType `json:"question_type"`
	Weight   float64      `json:"weight"`
	Options  []string     `json:"options"`
	Group    int          `json:"group"`
	IsActive bool         `json:"is_active"`
}

const (
	SkillCategoryTechnical = "technical"
	SkillCategorySoft      = "soft"
	SkillCategoryDomain    = "domain"
	SkillCategoryTool      = "tool"
)

type Skill struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Description       string   `json:"description,omitempty"`
	Category          string   `json:"category"`
	ProficiencyLevels []string `json:"proficiency_levels,omitempty"`
}

// SalaryRange reemplaza el blob dinámico de salarios por un registro fijo.
type SalaryRange struct {
	Entry  int `json:"entry" yaml:"entry"`
	Mid    int `json:"mid" yaml:"mid"`
	Senior int `json:"senior" yaml:"senior"`
}

type CareerDomain struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Description     string      `json:"description,omitempty"`
	Industry        string      `json:"industry"`
	GrowthPotential string      `json:"growth_potential"`
	SalaryRange     SalaryRange `json:"salary_range"`
}

// Career guarda las skills requeridas en orden de carga; ese orden es el del análisis de brechas.
type Career struct {
	ID                    string       `json:"id"`
	Title                 string       `json:"title"`
	Description           string       `json:"description"`
	Domain                CareerDomain `json:"domain"`
	RequiredSkills        []Skill      `json:"required_skills"`
	PreferredTraitIDs     []string     `json:"preferred_trait_ids"`
	EducationRequirements []string     `json:"education_requirements"`
	ExperienceLevels      []string     `json:"experience_levels"`
	SalaryRange           SalaryRange  `json:"salary_range"`
	JobOutlook            string       `json:"job_outlook"`
	IsActive              bool         `json:"is_active"`
}

// PrefersTrait indica si el rasgo está entre los preferidos de la carrera.
func (c Career) PrefersTrait(traitID string) bool {
	for _, id := range c.PreferredTraitIDs {
		if id == traitID {
			return true
		}
	}
	return false
}

type Course struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	CollegeName string   `json:"college_name"`
	Duration    string   `json:"duration"`
	Level       string   `json:"level"`
	CareerIDs   []string `json:"career_ids,omitempty"`
	Fees        *float64 `json:"fees,omitempty"`
	IsOnline    bool     `json:"is_online"`
}

type Roadmap struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	CareerID        string   `json:"career_id"`
	TargetAudience  string   `json:"target_audience"`
	DurationMonths  int      `json:"duration_months"`
	Steps           []string `json:"steps"`
	Outcomes        []string `json:"outcomes"`
	DifficultyLevel string   `json:"difficulty_level"`
}
