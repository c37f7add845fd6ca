package resume

import (
	"strings"

	"cvbuilder/internal/region"
	"cvbuilder/internal/theme"
)

// Document 是一次装配的结果，预览与导出两个渲染目标都只读取它。
type Document struct {
	Template      theme.Key   `json:"template"`
	Region        region.Code `json:"region"`
	DocumentLabel string      `json:"document_label"`
	Header        Header      `json:"header"`
	Sections      []Section   `json:"sections"`
}

// Header 是页眉中的个人信息。
type Header struct {
	Name    string   `json:"name,omitempty"`
	Role    string   `json:"role,omitempty"`
	Contact []string `json:"contact,omitempty"`
}

// Section 是装配好的一个区块，按 Key 只会填充对应字段。
type Section struct {
	Key       SectionKey        `json:"key"`
	Title     string            `json:"title"`
	Paragraph string            `json:"paragraph,omitempty"`
	Entries   []EmploymentBlock `json:"entries,omitempty"`
	Items     []string          `json:"items,omitempty"`
	Pills     []string          `json:"pills,omitempty"`
	Text      string            `json:"text,omitempty"`
}

// EmploymentBlock 是一条经历的展示形态。
type EmploymentBlock struct {
	Heading string   `json:"heading"`
	Meta    string   `json:"meta,omitempty"`
	Bullets []string `json:"bullets,omitempty"`
}

// Assemble 按规范化后的顺序装配文档。相同输入总是产生相同输出。
func Assemble(in CvInput, gen GeneratedResult) Document {
	code := region.Parse(in.Region)
	doc := Document{
		Template:      theme.Resolve(in.Template),
		Region:        code,
		DocumentLabel: region.DocumentLabel(code),
		Header:        buildHeader(in),
	}

	enabled := sectionsEnabled(in, code)
	for _, key := range NormalizeOrder(in.SectionOrder) {
		if !enabled[key] {
			continue
		}
		section, ok := buildSection(key, in, gen, code)
		if !ok {
			continue
		}
		doc.Sections = append(doc.Sections, section)
	}
	return doc
}

func sectionsEnabled(in CvInput, code region.Code) map[SectionKey]bool {
	cfg := ResolveSectionConfig(in.SectionConfig)
	if _, explicit := in.SectionConfig[string(SectionReferences)]; !explicit {
		cfg[SectionReferences] = region.RegionDefaults(code).ReferencesEnabled
	}
	return cfg
}

func buildHeader(in CvInput) Header {
	h := Header{
		Name: strings.TrimSpace(in.Name),
		Role: strings.TrimSpace(in.Role),
	}
	for _, v := range []string{in.Email, in.Phone, in.Location} {
		if v = strings.TrimSpace(v); v != "" {
			h.Contact = append(h.Contact, v)
		}
	}
	return h
}

func buildSection(key SectionKey, in CvInput, gen GeneratedResult, code region.Code) (Section, bool) {
	s := Section{Key: key, Title: region.SectionLabel(string(key), code)}

	switch key {
	case SectionSummary:
		s.Paragraph = strings.TrimSpace(gen.Summary)
		return s, s.Paragraph != ""

	case SectionEmployment:
		if entries := FilterEmployment(in.Employment); len(entries) > 0 {
			for _, e := range entries {
				s.Entries = append(s.Entries, EmploymentBlock{
					Heading: joinNonEmpty(" — ", e.Title, e.Company),
					Meta:    joinNonEmpty(" | ", e.Location, joinNonEmpty(" – ", e.Start, e.End)),
					Bullets: e.Bullets,
				})
			}
			return s, true
		}
		s.Items = cleanList(gen.Experience)
		return s, len(s.Items) > 0

	case SectionQualifications:
		for _, q := range FilterQualifications(in.Qualifications) {
			s.Items = append(s.Items, qualificationLine(q))
		}
		return s, len(s.Items) > 0

	case SectionSkills:
		s.Pills = cleanList(gen.Skills)
		if len(s.Pills) == 0 {
			s.Pills = cleanList(in.Skills)
		}
		return s, len(s.Pills) > 0

	case SectionReferences:
		s.Text = strings.TrimSpace(in.ReferencesText)
		if s.Text == "" {
			s.Text = region.RegionDefaults(code).ReferencesText
		}
		return s, s.Text != ""
	}
	return s, false
}

// qualificationLine 形如 "Title — Provider (Year · Grade)"，缺失部分省略。
func qualificationLine(q QualificationEntry) string {
	line := joinNonEmpty(" — ", q.Title, q.Provider)
	if detail := joinNonEmpty(" · ", q.Year, q.Grade); detail != "" {
		if line == "" {
			return detail
		}
		line += " (" + detail + ")"
	}
	return line
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

// Columns 把区块分组为渲染列。两栏模板把 summary/employment 放主栏，其余放侧栏；
// 预览与导出共用这一分组，保证两边顺序一致。
func (d Document) Columns() [][]Section {
	if !d.Template.TwoColumnLayout() {
		return [][]Section{d.Sections}
	}
	var main, side []Section
	for _, s := range d.Sections {
		switch s.Key {
		case SectionSummary, SectionEmployment:
			main = append(main, s)
		default:
			side = append(side, s)
		}
	}
	return [][]Section{main, side}
}

// Title 是导出文档的 <title>。
func (d Document) Title() string {
	if d.Header.Name == "" {
		return d.DocumentLabel
	}
	return d.Header.Name + " — " + d.DocumentLabel
}
