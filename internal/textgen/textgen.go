// Package textgen 调用外部大模型生成 CV 文案。生成文本按原样返回，由 resume.ParseGenerated 解析。
package textgen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"
)

var ErrEmptyResult = errors.New("text generator returned no content")

// Request 是生成所需的最小输入。
type Request struct {
	Role       string
	Experience string
	Skills     []string
	Region     string
}

// Generator 抽象文本生成服务。失败不重试。
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

var promptTemplate = template.Must(template.New("prompt").Parse(`You are writing content for a {{.Document}} for the role of "{{.Role}}".
Use {{.Spelling}} spelling. Do not invent employers, dates or qualifications.

Candidate experience:
{{.Experience}}
{{if .Skills}}
Candidate skills: {{.Skills}}
{{end}}
Reply with exactly three sections using these headings:
**Professional Summary:** three or four sentences.
**Key Experience:** four to six bullet points starting with "- ".
**Key Skills:** one comma separated line.
`))

type promptView struct {
	Document   string
	Spelling   string
	Role       string
	Experience string
	Skills     string
}

// BuildPrompt 根据请求构造提示词。
func BuildPrompt(req Request) (string, error) {
	view := promptView{
		Document:   "CV",
		Spelling:   "British English",
		Role:       strings.TrimSpace(req.Role),
		Experience: strings.TrimSpace(req.Experience),
		Skills:     strings.Join(trimAll(req.Skills), ", "),
	}
	switch strings.ToUpper(strings.TrimSpace(req.Region)) {
	case "US", "CA":
		view.Document = "résumé"
		view.Spelling = "American English"
	case "AU", "NZ":
		view.Spelling = "Australian English"
	}
	if view.Experience == "" {
		view.Experience = "(see structured employment history)"
	}

	var b strings.Builder
	if err := promptTemplate.Execute(&b, view); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return b.String(), nil
}

// CleanBlock 去掉模型偶尔包裹的 markdown 代码块。
func CleanBlock(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		if idx := strings.Index(text, "\n"); idx >= 0 {
			text = text[idx+1:]
		} else {
			text = strings.TrimPrefix(text, "```")
		}
	}
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

func trimAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
