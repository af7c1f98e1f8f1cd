package domain

import "time"

const (
	EducationHighSchool    = "high_school"
	EducationBachelor      = "bachelor"
	EducationMaster        = "master"
	EducationPhD           = "phd"
	EducationDiploma       = "diploma"
	EducationCertification = "certification"
	EducationOther         = "other"
)

type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	DisplayName    string    `json:"display_name,omitempty"`
	PasswordHash   string    `json:"-"`
	EducationLevel string    `json:"education_level,omitempty"`
	Location       string    `json:"location,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

const (
	ProficiencyBeginner     = "beginner"
	ProficiencyIntermediate = "intermediate"
	ProficiencyAdvanced     = "advanced"
	ProficiencyExpert       = "expert"
)

// UserSkill registra una habilidad declarada por el usuario.
// El análisis de brechas sólo mira la identidad de la skill, no el nivel.
type UserSkill struct {
	UserID            string    `json:"user_id"`
	SkillID           string    `json:"skill_id"`
	SkillName         string    `json:"skill_name,omitempty"`
	ProficiencyLevel  string    `json:"proficiency_level"`
	YearsOfExperience float64   `json:"years_of_experience"`
	Verified          bool      `json:"verified"`
	CreatedAt         time.Time `json:"created_at"`
}
