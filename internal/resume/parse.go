package resume

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ResultField 标识生成文本中的目标字段。
type ResultField int

const (
	FieldNone ResultField = iota
	FieldSummary
	FieldExperience
	FieldSkills
)

// HeadingRule 将一种标题写法映射到目标字段。
type HeadingRule struct {
	Pattern *regexp.Regexp
	Field   ResultField
}

// HeadingRules 按顺序匹配，先命中者生效。
// 第一个可识别标题之前的文本、以及未识别标题下的文本一律丢弃。
var HeadingRules = []HeadingRule{
	{regexp.MustCompile(`(?i)^(professional |personal |career )?(summary|profile|statement|overview)$`), FieldSummary},
	{regexp.MustCompile(`(?i)^about( me)?$`), FieldSummary},
	{regexp.MustCompile(`(?i)^(key |relevant |professional |work )?(experience|achievements|highlights)$`), FieldExperience},
	{regexp.MustCompile(`(?i)^(employment|work)( history)?$`), FieldExperience},
	{regexp.MustCompile(`(?i)^(key |core |technical |relevant )?(skills|competencies|strengths)( (&|and) (abilities|strengths|competencies))?$`), FieldSkills},
}

var (
	bulletPrefix   = regexp.MustCompile(`^(?:[-*•·–]|\d+[.)])\s+`)
	markdownHeader = regexp.MustCompile(`^#{1,6}\s*`)
	skillSplitter  = regexp.MustCompile(`\s*[,;|•]\s*`)
)

// ParseGenerated 宽松解析生成文本；无法识别的标题只会产生空字段，不会报错。
func ParseGenerated(text string) GeneratedResult {
	var (
		current    = FieldNone
		summary    []string
		experience []string
		skillLines []string
	)

	text = strings.ReplaceAll(text, "\r\n", "\n")
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			if current == FieldSummary && len(summary) > 0 {
				summary = append(summary, "")
			}
			continue
		}

		if field, rest, isHeading := matchHeading(line); isHeading {
			current = field
			line = rest
			if line == "" {
				continue
			}
		}

		switch current {
		case FieldSummary:
			summary = append(summary, stripEmphasis(line))
		case FieldExperience:
			if item := stripBullet(line); item != "" {
				experience = append(experience, item)
			}
		case FieldSkills:
			skillLines = append(skillLines, line)
		}
	}

	return GeneratedResult{
		Summary:    strings.TrimSpace(collapseBlankRuns(summary)),
		Experience: experience,
		Skills:     parseSkills(skillLines),
	}
}

// matchHeading 识别标题行。返回的 rest 为同一行冒号后的内联内容。
// 看起来像标题但不在规则表中的行返回 FieldNone 与 isHeading=true。
func matchHeading(line string) (field ResultField, rest string, isHeading bool) {
	hashed := markdownHeader.MatchString(line)
	candidate := markdownHeader.ReplaceAllString(line, "")

	var inline string
	if idx := strings.Index(candidate, ":"); idx >= 0 {
		inline = candidate[idx+1:]
		candidate = candidate[:idx]
	}
	label := strings.TrimSpace(strings.Trim(strings.TrimSpace(candidate), "*_ "))
	inline = strings.TrimSpace(strings.Trim(strings.TrimSpace(inline), "*_"))

	for _, rule := range HeadingRules {
		if rule.Pattern.MatchString(label) {
			return rule.Field, inline, true
		}
	}

	if hashed || looksLikeHeading(line) {
		return FieldNone, "", true
	}
	return FieldNone, "", false
}

func looksLikeHeading(line string) bool {
	if bulletPrefix.MatchString(line) {
		return false
	}
	bold := strings.HasPrefix(line, "**") && (strings.HasSuffix(line, "**") || strings.HasSuffix(line, "**:") || strings.HasSuffix(line, ":**"))
	// 仅以冒号结尾的行还须是 Title Case，"Skilled in:" 这类正文不算标题。
	colonOnly := strings.HasSuffix(line, ":") && len(strings.Fields(line)) <= 4 && titleCase(strings.TrimSuffix(line, ":"))
	return bold || colonOnly
}

var headingMinorWords = map[string]bool{"and": true, "of": true, "for": true, "the": true, "&": true}

func titleCase(s string) bool {
	words := strings.Fields(s)
	if len(words) == 0 {
		return false
	}
	for i, w := range words {
		if i > 0 && headingMinorWords[strings.ToLower(w)] {
			continue
		}
		r, _ := utf8.DecodeRuneInString(w)
		if unicode.IsLetter(r) && !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

func stripBullet(line string) string {
	return strings.TrimSpace(bulletPrefix.ReplaceAllString(line, ""))
}

func stripEmphasis(line string) string {
	return strings.TrimSpace(strings.Trim(line, "*_"))
}

func parseSkills(lines []string) []string {
	var raw []string
	switch len(lines) {
	case 0:
		return nil
	case 1:
		raw = skillSplitter.Split(stripBullet(lines[0]), -1)
	default:
		for _, line := range lines {
			raw = append(raw, stripBullet(line))
		}
	}

	seen := make(map[string]bool, len(raw))
	skills := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(strings.Trim(s, "*_."))
		key := strings.ToLower(s)
		if s == "" || seen[key] {
			continue
		}
		seen[key] = true
		skills = append(skills, s)
	}
	return skills
}

func collapseBlankRuns(lines []string) string {
	var b strings.Builder
	blank := false
	for _, line := range lines {
		if line == "" {
			blank = true
			continue
		}
		if b.Len() > 0 {
			if blank {
				b.WriteString("\n\n")
			} else {
				b.WriteString("\n")
			}
		}
		blank = false
		b.WriteString(line)
	}
	return b.String()
}
