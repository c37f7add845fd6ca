package resume

import "strings"

// IsBlank 当所有字段与 bullet 都为空白时为 true。
func (e EmploymentEntry) IsBlank() bool {
	if strings.TrimSpace(e.Title+e.Company+e.Location+e.Start) != "" {
		return false
	}
	// 仅有 End（例如 "Present"）不构成一条有效经历。
	for _, b := range e.Bullets {
		if strings.TrimSpace(b) != "" {
			return false
		}
	}
	return true
}

// IsBlank 当所有字段为空白时为 true。
func (q QualificationEntry) IsBlank() bool {
	return strings.TrimSpace(q.Title+q.Provider+q.Year+q.Grade) == ""
}

// FilterEmployment 去掉空白经历，修剪字段并丢弃空 bullet。幂等。
func FilterEmployment(entries []EmploymentEntry) []EmploymentEntry {
	out := make([]EmploymentEntry, 0, len(entries))
	for _, e := range entries {
		if e.IsBlank() {
			continue
		}
		cleaned := EmploymentEntry{
			Title:    strings.TrimSpace(e.Title),
			Company:  strings.TrimSpace(e.Company),
			Location: strings.TrimSpace(e.Location),
			Start:    strings.TrimSpace(e.Start),
			End:      strings.TrimSpace(e.End),
		}
		for _, b := range e.Bullets {
			if b = strings.TrimSpace(b); b != "" {
				cleaned.Bullets = append(cleaned.Bullets, b)
			}
		}
		out = append(out, cleaned)
	}
	return out
}

// FilterQualifications 去掉空白条目并修剪字段。幂等。
func FilterQualifications(entries []QualificationEntry) []QualificationEntry {
	out := make([]QualificationEntry, 0, len(entries))
	for _, q := range entries {
		if q.IsBlank() {
			continue
		}
		out = append(out, QualificationEntry{
			Title:    strings.TrimSpace(q.Title),
			Provider: strings.TrimSpace(q.Provider),
			Year:     strings.TrimSpace(q.Year),
			Grade:    strings.TrimSpace(q.Grade),
		})
	}
	return out
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
