package domain

import "time"

// Recommendation es única por (user, assessment, career). Regenerar reemplaza el conjunto completo.
type Recommendation struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	AssessmentID      string    `json:"assessment_id"`
	CareerID          string    `json:"career_id"`
	CareerTitle       string    `json:"career_title"`
	DomainName        string    `json:"domain_name"`
	MatchScore        float64   `json:"match_score"`
	Confidence        float64   `json:"confidence_level"`
	Reasoning         string    `json:"reasoning"`
	SkillGaps         []Skill   `json:"skill_gaps"`
	SuggestedCourses  []Course  `json:"suggested_courses"`
	SuggestedRoadmaps []Roadmap `json:"suggested_roadmaps"`
	CreatedAt         time.Time `json:"created_at"`
}
