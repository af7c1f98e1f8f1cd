package domain

import "time"

type AssessmentType string

const (
	AssessmentPersonality   AssessmentType = "personality"
	AssessmentInterest      AssessmentType = "interest"
	AssessmentAptitude      AssessmentType = "aptitude"
	AssessmentComprehensive AssessmentType = "comprehensive"
)

// Valid indica si el tipo pertenece al catálogo de evaluaciones soportadas.
func (t AssessmentType) Valid() bool {
	switch t {
	case AssessmentPersonality, AssessmentInterest, AssessmentAptitude, AssessmentComprehensive:
		return true
	}
	return false
}

type AssessmentStatus string

const (
	StatusInProgress AssessmentStatus = "in_progress"
	StatusCompleted  AssessmentStatus = "completed"
	StatusAbandoned  AssessmentStatus = "abandoned"
)

// Terminal devuelve true para estados que ya no aceptan cambios.
func (s AssessmentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusAbandoned
}

type Assessment struct {
	ID           string           `json:"id"`
	UserID       string           `json:"user_id"`
	Type         AssessmentType   `json:"assessment_type"`
	Status       AssessmentStatus `json:"status"`
	OverallScore *float64         `json:"overall_score,omitempty"`
	Summary      string           `json:"summary"`
	StartedAt    time.Time        `json:"started_at"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty"`
}

// Response es inmutable una vez creada; hay una sola por (assessment, question).
type Response struct {
	ID            string    `json:"id"`
	AssessmentID  string    `json:"assessment_id"`
	QuestionID    string    `json:"question_id"`
	RawValue      string    `json:"raw_response"`
	WeightedScore float64   `json:"weighted_score"`
	ResponseTime  *int      `json:"response_time,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// TraitScore es el puntaje agregado (0-100) de un rasgo dentro de una evaluación.
// Percentile queda en nil mientras no haya historial suficiente.
type TraitScore struct {
	ID           string    `json:"id"`
	AssessmentID string    `json:"assessment_id"`
	TraitID      string    `json:"trait_id"`
	TraitName    string    `json:"trait_name,omitempty"`
	Score        float64   `json:"score"`
	Percentile   *float64  `json:"percentile,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
