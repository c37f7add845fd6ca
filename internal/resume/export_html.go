package resume

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"
	"strings"

	"cvbuilder/internal/region"
	"cvbuilder/internal/theme"
)

// exportTemplateString 是导出 PDF 的独立 HTML 页面。
// 只允许内联样式，无脚本、无外部资源：PDF 渲染在隔离文档中加载它。
const exportTemplateString = `<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
<meta charset="UTF-8">
<title>{{.Doc.Title}}</title>
<style>{{.CSS}}</style>
</head>
<body>
<div class="cv-page cv-template-{{.Doc.Template}}">
<header class="cv-header">
{{- with .Doc.Header}}
{{- if .Name}}<h1 class="cv-name">{{.Name}}</h1>{{end}}
{{- if .Role}}<p class="cv-role">{{.Role}}</p>{{end}}
{{- if .Contact}}<p class="cv-contact">{{range .Contact}}<span>{{.}}</span>{{end}}</p>{{end}}
{{- end}}
</header>
{{- if .TwoColumn}}
<div class="cv-columns">
{{- range $i, $col := .Columns}}
<div class="{{if eq $i 0}}cv-main{{else}}cv-side{{end}}">{{range $col}}{{template "section" .}}{{end}}</div>
{{- end}}
</div>
{{- else}}
{{- range index .Columns 0}}{{template "section" .}}{{end}}
{{- end}}
</div>
</body>
</html>
{{define "section"}}
<section class="cv-section" data-section="{{.Key}}">
<h2 class="cv-section-title">{{.Title}}</h2>
{{- if eq .Key "summary"}}
<p class="cv-body">{{.Paragraph}}</p>
{{- else if eq .Key "employment"}}
{{- range .Entries}}
<div class="cv-entry">
{{- if .Heading}}<h3 class="cv-entry-heading">{{.Heading}}</h3>{{end}}
{{- if .Meta}}<p class="cv-meta">{{.Meta}}</p>{{end}}
{{- if .Bullets}}<ul class="cv-bullets">{{range .Bullets}}<li>{{.}}</li>{{end}}</ul>{{end}}
</div>
{{- end}}
{{- if .Items}}<ul class="cv-bullets">{{range .Items}}<li>{{.}}</li>{{end}}</ul>{{end}}
{{- else if eq .Key "qualifications"}}
<ul class="cv-quals">{{range .Items}}<li>{{.}}</li>{{end}}</ul>
{{- else if eq .Key "skills"}}
<ul class="cv-pills">{{range .Pills}}<li class="cv-pill">{{.}}</li>{{end}}</ul>
{{- else if eq .Key "references"}}
<p class="cv-body">{{.Text}}</p>
{{- end}}
</section>
{{- end}}`

var exportTemplate = template.Must(template.New("export").Parse(exportTemplateString))

type exportView struct {
	Lang      string
	CSS       template.CSS
	Doc       Document
	Columns   [][]Section
	TwoColumn bool
}

// RenderExportHTML 渲染带内联打印 CSS 的独立 HTML。
func RenderExportHTML(doc Document) (string, error) {
	view := exportView{
		Lang:      region.LocaleString(doc.Region),
		CSS:       template.CSS(theme.PrintCSSFor(doc.Template)),
		Doc:       doc,
		Columns:   doc.Columns(),
		TwoColumn: doc.Template.TwoColumnLayout(),
	}

	var buf bytes.Buffer
	if err := exportTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("render export html: %w", err)
	}
	return buf.String(), nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Filename 生成导出文件名，例如 "Jane_Doe_CV.pdf" 或 "John_Smith_Resume.pdf"。
func Filename(doc Document) string {
	label := "CV"
	if doc.DocumentLabel != "CV" {
		label = "Resume"
	}
	base := unsafeFilenameChars.ReplaceAllString(strings.TrimSpace(doc.Header.Name), "_")
	base = strings.Trim(base, "_.-")
	if base == "" {
		return label + ".pdf"
	}
	return base + "_" + label + ".pdf"
}

// SanitizeFilename 清理调用方提供的文件名，并保证 .pdf 后缀。
func SanitizeFilename(name, fallback string) string {
	name = strings.TrimSuffix(strings.TrimSpace(name), ".pdf")
	name = strings.Trim(unsafeFilenameChars.ReplaceAllString(name, "_"), "_.-")
	if name == "" {
		return fallback
	}
	if len(name) > 120 {
		name = name[:120]
	}
	return name + ".pdf"
}
