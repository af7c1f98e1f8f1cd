package service

import (
	"regexp"
	"strings"
)

var (
	fenceStart = regexp.MustCompile("(?is)^\\s*```(?:text|markdown)?\\s*")
	fenceEnd   = regexp.MustCompile("(?is)\\s*```\\s*$")
	spaceRuns  = regexp.MustCompile(`[ \t]+`)
)

// cleanLLMText quita fences, BOM y comillas envolventes, dejando texto plano.
func cleanLLMText(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	s = strings.TrimPrefix(s, "\uFEFF")
	s = fenceStart.ReplaceAllString(s, "")
	s = fenceEnd.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)

	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return spaceRuns.ReplaceAllString(s, " ")
}
