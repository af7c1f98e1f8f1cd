package service

import "career-advisor/internal/domain"

// SkillGaps devuelve las skills requeridas que el usuario no tiene, en el orden de required.
// Sólo compara identidad de skill, no nivel de dominio.
func SkillGaps(required []domain.Skill, owned []domain.UserSkill) []domain.Skill {
	have := make(map[string]struct{}, len(owned))
	for _, s := range owned {
		have[s.SkillID] = struct{}{}
	}
	gaps := []domain.Skill{}
	for _, s := range required {
		if _, ok := have[s.ID]; ok {
			continue
		}
		gaps = append(gaps, s)
	}
	return gaps
}
