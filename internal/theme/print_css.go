package theme

import (
	"strconv"
	"strings"
)

// 打印样式必须是完全自包含的：PDF 渲染在隔离的 about:blank 文档中进行，
// 不允许出现 @import、url(...) 或外部字体。
const (
	sansStack  = `"Helvetica Neue", Helvetica, Arial, sans-serif`
	serifStack = `Georgia, "Times New Roman", Times, serif`
	monoStack  = `"DejaVu Sans Mono", Menlo, Consolas, monospace`
)

type printOverrides struct {
	fontFamily string
	marginMM   int
	baseFontPt float64
	accent     string
	extra      string
}

var printProfiles = [keyCount]printOverrides{
	Classic: {accent: "#1e293b"},
	Modern: {accent: "#4f46e5", extra: `
.cv-name { color: #4338ca; }
.cv-section-title { text-transform: uppercase; letter-spacing: 0.12em; border-bottom: none; color: #4f46e5; }
.cv-pill { background: #4f46e5; color: #ffffff; border-color: #4f46e5; }
`},
	Compact: {marginMM: 8, baseFontPt: 9, accent: "#111827", extra: `
.cv-section { margin-top: 8px; }
.cv-entry { margin-bottom: 4px; }
.cv-bullets li { margin-bottom: 0; }
`},
	Minimal: {accent: "#6b7280", extra: `
.cv-name { font-weight: 300; }
.cv-section-title { border-bottom: none; font-size: 9pt; text-transform: uppercase; color: #6b7280; }
.cv-pill { border: none; background: none; text-decoration: underline; padding: 0 4px; }
`},
	Elegant:   {fontFamily: serifStack, accent: "#44403c", extra: "\n.cv-section-title { font-style: italic; }\n"},
	Executive: {fontFamily: serifStack, accent: "#171717", extra: "\n.cv-page { border-left: 6px solid #171717; padding-left: 14px; }\n.cv-section-title { text-transform: uppercase; }\n"},
	TwoColumn: {accent: "#075985", extra: `
.cv-columns { display: flex; flex-direction: row; gap: 18px; }
.cv-main { flex: 2 1 0; min-width: 0; }
.cv-side { flex: 1 1 0; min-width: 0; border-left: 1px solid #e0f2fe; padding-left: 12px; }
`},
	Technical: {fontFamily: monoStack, baseFontPt: 9.5, accent: "#047857", extra: `
.cv-section-title::before { content: "# "; }
.cv-pill { background: #d1fae5; color: #065f46; border-color: #a7f3d0; }
`},
	Academic: {fontFamily: serifStack, accent: "#000000", extra: `
.cv-header { text-align: center; }
.cv-section-title { font-variant: small-caps; border-bottom: 1px solid #000000; }
.cv-body { text-align: justify; }
`},
	Bold: {accent: "#000000", extra: `
.cv-name { font-size: 28pt; font-weight: 900; text-transform: uppercase; }
.cv-section-title { display: inline-block; background: #fcd34d; padding: 1px 6px; border-bottom: none; font-weight: 900; text-transform: uppercase; }
.cv-pill { background: #000000; color: #ffffff; border-color: #000000; font-weight: 700; }
`},
}

// TwoColumnLayout 表示导出 HTML 是否需要拆成主栏/侧栏。
func (k Key) TwoColumnLayout() bool { return k == TwoColumn }

// PrintCSSFor 返回模板的完整打印样式表。
func PrintCSSFor(k Key) string {
	if !k.valid() {
		k = Classic
	}
	p := printProfiles[k]
	font := p.fontFamily
	if font == "" {
		font = sansStack
	}
	margin := p.marginMM
	if margin <= 0 {
		margin = 12
	}
	size := p.baseFontPt
	if size <= 0 {
		size = 10.5
	}

	var b strings.Builder
	b.WriteString(baseCSS(font, margin, size, p.accent))
	b.WriteString(p.extra)
	return b.String()
}

func baseCSS(font string, marginMM int, fontPt float64, accent string) string {
	r := strings.NewReplacer(
		"{{font}}", font,
		"{{margin}}", strconv.Itoa(marginMM),
		"{{size}}", strconv.FormatFloat(fontPt, 'f', -1, 64),
		"{{accent}}", accent,
	)
	return r.Replace(`@page { size: A4; margin: {{margin}}mm; }
* { box-sizing: border-box; -webkit-print-color-adjust: exact; print-color-adjust: exact; }
html, body { margin: 0; padding: 0; background: #ffffff; }
body { font-family: {{font}}; font-size: {{size}}pt; line-height: 1.45; color: #1f2937; }
.cv-page { width: 100%; }
.cv-header { margin-bottom: 10px; }
.cv-name { font-size: 22pt; font-weight: 700; margin: 0 0 2px 0; color: {{accent}}; }
.cv-role { font-size: 11pt; margin: 0 0 4px 0; color: #374151; }
.cv-contact { font-size: 9pt; color: #6b7280; }
.cv-contact span + span::before { content: " | "; }
.cv-section { margin-top: 14px; page-break-inside: auto; }
.cv-section-title { font-size: 12pt; font-weight: 700; margin: 0 0 6px 0; padding-bottom: 2px; border-bottom: 1px solid #d1d5db; color: {{accent}}; }
.cv-body { margin: 0; white-space: pre-line; }
.cv-entry { margin-bottom: 8px; page-break-inside: avoid; }
.cv-entry-heading { font-weight: 600; margin: 0; }
.cv-meta { font-size: 9pt; color: #6b7280; margin: 0 0 2px 0; }
.cv-bullets { margin: 2px 0 0 0; padding-left: 16px; }
.cv-bullets li { margin-bottom: 2px; }
.cv-quals { margin: 0; padding-left: 16px; }
.cv-pills { margin: 0; padding: 0; list-style: none; }
.cv-pill { display: inline-block; margin: 0 4px 4px 0; padding: 2px 8px; border: 1px solid #d1d5db; border-radius: 999px; font-size: 9pt; background: #f3f4f6; }
.cv-badge { display: inline-block; padding: 0 6px; border-radius: 4px; font-size: 8pt; background: #e5e7eb; }
`)
}
