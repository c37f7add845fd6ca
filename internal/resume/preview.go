package resume

import "cvbuilder/internal/theme"

// Node 是交互式预览的 DOM 节点，前端按 tag/class 直接渲染。
type Node struct {
	Tag      string     `json:"tag"`
	Class    string     `json:"class,omitempty"`
	Section  SectionKey `json:"section,omitempty"`
	Text     string     `json:"text,omitempty"`
	Children []Node     `json:"children,omitempty"`
}

// Preview 是预览接口的响应体。
type Preview struct {
	State    string        `json:"state"`
	Message  string        `json:"message,omitempty"`
	Template theme.Key     `json:"template"`
	Premium  bool          `json:"premium"`
	Styles   theme.UIStyle `json:"styles"`
	Root     *Node         `json:"root,omitempty"`
}

const (
	PreviewReady = "ready"
	PreviewEmpty = "empty"
)

// EmptyPreview 是没有保存记录时的占位状态，不是错误。
func EmptyPreview() Preview {
	return Preview{
		State:    PreviewEmpty,
		Message:  "No saved CV yet. Fill in the form to generate one.",
		Template: theme.Classic,
		Styles:   theme.StyleClassesFor(theme.Classic),
	}
}

// RenderPreview 使用模板的 UI 样式把文档渲染为节点树。
func RenderPreview(doc Document) Preview {
	style := theme.StyleClassesFor(doc.Template)

	header := Node{Tag: "header"}
	if doc.Header.Name != "" {
		header.Children = append(header.Children, Node{Tag: "h1", Class: style.Name, Text: doc.Header.Name})
	}
	if doc.Header.Role != "" {
		header.Children = append(header.Children, Node{Tag: "p", Class: style.Badge, Text: doc.Header.Role})
	}
	if len(doc.Header.Contact) > 0 {
		contact := Node{Tag: "p", Class: style.Meta}
		for _, c := range doc.Header.Contact {
			contact.Children = append(contact.Children, Node{Tag: "span", Text: c})
		}
		header.Children = append(header.Children, contact)
	}

	card := Node{Tag: "article", Class: style.Card, Children: []Node{header}}
	for _, column := range doc.Columns() {
		col := Node{Tag: "div"}
		for _, s := range column {
			col.Children = append(col.Children, previewSection(s, style))
		}
		card.Children = append(card.Children, col)
	}

	root := Node{Tag: "div", Class: style.Page, Children: []Node{card}}
	return Preview{
		State:    PreviewReady,
		Template: doc.Template,
		Premium:  doc.Template.Premium(),
		Styles:   style,
		Root:     &root,
	}
}

func previewSection(s Section, style theme.UIStyle) Node {
	n := Node{
		Tag:      "section",
		Class:    style.SectionBox,
		Section:  s.Key,
		Children: []Node{{Tag: "h2", Class: style.SectionTitle, Text: s.Title}},
	}

	switch s.Key {
	case SectionSummary:
		n.Children = append(n.Children, Node{Tag: "p", Class: style.Body, Text: s.Paragraph})
	case SectionEmployment:
		for _, e := range s.Entries {
			entry := Node{Tag: "div"}
			if e.Heading != "" {
				entry.Children = append(entry.Children, Node{Tag: "h3", Class: style.Body, Text: e.Heading})
			}
			if e.Meta != "" {
				entry.Children = append(entry.Children, Node{Tag: "p", Class: style.Meta, Text: e.Meta})
			}
			if len(e.Bullets) > 0 {
				entry.Children = append(entry.Children, listNode(e.Bullets, style.Body, ""))
			}
			n.Children = append(n.Children, entry)
		}
		if len(s.Items) > 0 {
			n.Children = append(n.Children, listNode(s.Items, style.Body, ""))
		}
	case SectionQualifications:
		n.Children = append(n.Children, listNode(s.Items, style.Body, ""))
	case SectionSkills:
		n.Children = append(n.Children, listNode(s.Pills, "", style.SkillPill))
	case SectionReferences:
		n.Children = append(n.Children, Node{Tag: "p", Class: style.Body, Text: s.Text})
	}
	return n
}

func listNode(items []string, listClass, itemClass string) Node {
	list := Node{Tag: "ul", Class: listClass}
	for _, item := range items {
		list.Children = append(list.Children, Node{Tag: "li", Class: itemClass, Text: item})
	}
	return list
}
