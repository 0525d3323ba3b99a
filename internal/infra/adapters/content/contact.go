package content

import (
	"strings"
	"unicode"
)

const (
	contactScanLines = 10
	maxContactLine   = 100
	maxContactParts  = 5
	noCandidateInfo  = "Информация о кандидате не найдена"
)

// CandidateInfo pulls the name and contact lines from the top of a résumé so
// the cover letter can be signed with real data.
func CandidateInfo(resumeText string) string {
	if strings.TrimSpace(resumeText) == "" {
		return noCandidateInfo
	}
	lines := strings.Split(resumeText, "\n")
	if len(lines) > contactScanLines {
		lines = lines[:contactScanLines]
	}

	var parts []string
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		short := len([]rune(line)) < maxContactLine
		lower := strings.ToLower(line)
		if i == 0 && short {
			parts = append(parts, "Имя: "+line)
		}
		if short && (strings.Contains(lower, "телефон") || strings.Contains(lower, "phone") ||
			strings.Contains(line, "+") || strings.IndexFunc(line, unicode.IsDigit) >= 0) {
			parts = append(parts, line)
		}
		if strings.Contains(line, "@") {
			if strings.Contains(lower, ".com") || strings.Contains(lower, ".ru") || strings.Contains(lower, ".org") {
				parts = append(parts, line)
			}
			if strings.Contains(lower, "tg") || strings.Contains(lower, "telegram") {
				parts = append(parts, line)
			}
		}
	}

	if len(parts) == 0 {
		for _, raw := range lines[:min(5, len(lines))] {
			line := strings.TrimSpace(raw)
			if line != "" && len([]rune(line)) < maxContactLine {
				parts = append(parts, line)
				if len(parts) == 3 {
					break
				}
			}
		}
	}
	if len(parts) == 0 {
		r := []rune(resumeText)
		if len(r) > 300 {
			r = r[:300]
		}
		return string(r)
	}
	if len(parts) > maxContactParts {
		parts = parts[:maxContactParts]
	}
	return strings.Join(parts, "\n")
}
