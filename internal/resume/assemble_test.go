package resume

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvbuilder/internal/theme"
)

func sampleInput() CvInput {
	return CvInput{
		Name:     "Jane Doe",
		Email:    "jane@example.com",
		Phone:    "07700 900123",
		Location: "Leeds",
		Role:     "Warehouse Operative",
		Region:   "UK",
		Template: "classic",
		Employment: []EmploymentEntry{
			{Title: "Picker", Company: "Acme Ltd", Location: "Leeds", Start: "2021", End: "Present", Bullets: []string{"Picked orders", " "}},
			{End: "Present"},
		},
		Qualifications: []QualificationEntry{
			{Title: "GCSE Maths", Provider: "Leeds High", Year: "2019", Grade: "B"},
			{},
		},
	}
}

func sampleResult() GeneratedResult {
	return GeneratedResult{
		Summary:    "Reliable operative.",
		Experience: []string{"Picked 300 orders per shift"},
		Skills:     []string{"Forklift", "Stock control"},
	}
}

func sectionKeys(doc Document) []SectionKey {
	keys := make([]SectionKey, 0, len(doc.Sections))
	for _, s := range doc.Sections {
		keys = append(keys, s.Key)
	}
	return keys
}

func TestFilterEmployment_DropsPresentOnlyAndIsIdempotent(t *testing.T) {
	in := []EmploymentEntry{
		{End: "Present"},
		{Title: "  Barista ", Bullets: []string{"", " made coffee "}},
		{Bullets: []string{"  "}},
	}
	once := FilterEmployment(in)
	require.Len(t, once, 1)
	assert.Equal(t, "Barista", once[0].Title)
	assert.Equal(t, []string{"made coffee"}, once[0].Bullets)
	assert.Equal(t, once, FilterEmployment(once))
}

func TestFilterQualifications_Idempotent(t *testing.T) {
	in := []QualificationEntry{{}, {Title: " A-Level ", Grade: "A"}, {Year: "  "}}
	once := FilterQualifications(in)
	require.Len(t, once, 1)
	assert.Equal(t, "A-Level", once[0].Title)
	assert.Equal(t, once, FilterQualifications(once))
}

func TestAssemble_DefaultOrderAndFiltering(t *testing.T) {
	doc := Assemble(sampleInput(), sampleResult())

	assert.Equal(t, theme.Classic, doc.Template)
	assert.Equal(t, "CV", doc.DocumentLabel)
	assert.Equal(t, []SectionKey{
		SectionSummary, SectionEmployment, SectionQualifications, SectionSkills, SectionReferences,
	}, sectionKeys(doc))

	emp := doc.Sections[1]
	require.Len(t, emp.Entries, 1, "Present-only entry must not render")
	assert.Equal(t, "Picker — Acme Ltd", emp.Entries[0].Heading)
	assert.Equal(t, "Leeds | 2021 – Present", emp.Entries[0].Meta)
	assert.Equal(t, []string{"Picked orders"}, emp.Entries[0].Bullets)
	assert.Empty(t, emp.Items)

	assert.Equal(t, []string{"GCSE Maths — Leeds High (2019 · B)"}, doc.Sections[2].Items)
	assert.Equal(t, "Qualifications & Certifications", doc.Sections[2].Title)
	assert.Equal(t, "References available on request.", doc.Sections[4].Text)
	assert.Equal(t, []string{"jane@example.com", "07700 900123", "Leeds"}, doc.Header.Contact)
}

func TestAssemble_USReferencesDefault(t *testing.T) {
	in := sampleInput()
	in.Region = "US"
	in.SectionConfig = map[string]bool{"references": true}

	doc := Assemble(in, sampleResult())
	assert.Equal(t, "Résumé", doc.DocumentLabel)
	last := doc.Sections[len(doc.Sections)-1]
	assert.Equal(t, SectionReferences, last.Key)
	assert.Equal(t, "References available upon request.", last.Text)
	assert.Equal(t, "Education & Certifications", doc.Sections[2].Title)
}

func TestAssemble_ReferencesOverride(t *testing.T) {
	in := sampleInput()
	in.ReferencesText = "  Contact Mr Smith  "
	doc := Assemble(in, sampleResult())
	assert.Equal(t, "Contact Mr Smith", doc.Sections[len(doc.Sections)-1].Text)
}

func TestAssemble_DisabledAndReordered(t *testing.T) {
	in := sampleInput()
	in.SectionOrder = []string{"skills", "summary"}
	in.SectionConfig = map[string]bool{"qualifications": false, "references": false}

	doc := Assemble(in, sampleResult())
	assert.Equal(t, []SectionKey{SectionSkills, SectionSummary, SectionEmployment}, sectionKeys(doc))
}

func TestAssemble_EmploymentFallsBackToGenerated(t *testing.T) {
	in := sampleInput()
	in.Employment = []EmploymentEntry{{End: "Present"}}
	doc := Assemble(in, sampleResult())
	assert.Equal(t, []string{"Picked 300 orders per shift"}, doc.Sections[1].Items)
	assert.Empty(t, doc.Sections[1].Entries)
}

func TestAssemble_SkillsFallBackToInput(t *testing.T) {
	in := sampleInput()
	in.Skills = []string{"Teamwork", " "}
	gen := sampleResult()
	gen.Skills = nil

	doc := Assemble(in, gen)
	for _, s := range doc.Sections {
		if s.Key == SectionSkills {
			assert.Equal(t, []string{"Teamwork"}, s.Pills)
			return
		}
	}
	t.Fatal("skills section missing")
}

func TestAssemble_EmptySectionsOmitted(t *testing.T) {
	in := CvInput{Role: "Cleaner", Experience: "Office cleaning"}
	doc := Assemble(in, GeneratedResult{})
	assert.Equal(t, []SectionKey{SectionReferences}, sectionKeys(doc))
}

func TestAssemble_UnknownTemplateFallsBackToClassic(t *testing.T) {
	in := sampleInput()
	in.Template = "neon-disco"
	assert.Equal(t, theme.Classic, Assemble(in, sampleResult()).Template)
}

func TestAssemble_Deterministic(t *testing.T) {
	in := sampleInput()
	in.Template = "two_column"
	a := Assemble(in, sampleResult())
	b := Assemble(in, sampleResult())
	assert.Equal(t, a, b)

	htmlA, err := RenderExportHTML(a)
	require.NoError(t, err)
	htmlB, err := RenderExportHTML(b)
	require.NoError(t, err)
	assert.Equal(t, htmlA, htmlB)
}

func previewSectionOrder(n *Node, out []SectionKey) []SectionKey {
	if n.Section != "" {
		out = append(out, n.Section)
	}
	for i := range n.Children {
		out = previewSectionOrder(&n.Children[i], out)
	}
	return out
}

func TestRender_PreviewAndExportAgreeForEveryTemplate(t *testing.T) {
	for _, key := range theme.All() {
		t.Run(key.String(), func(t *testing.T) {
			in := sampleInput()
			in.Template = key.String()
			in.SectionOrder = []string{"skills", "references", "summary"}
			doc := Assemble(in, sampleResult())

			preview := RenderPreview(doc)
			require.Equal(t, PreviewReady, preview.State)
			assert.Equal(t, key.Premium(), preview.Premium)

			out, err := RenderExportHTML(doc)
			require.NoError(t, err)
			page, err := goquery.NewDocumentFromReader(strings.NewReader(out))
			require.NoError(t, err)

			var exported []SectionKey
			page.Find("section[data-section]").Each(func(_ int, s *goquery.Selection) {
				v, _ := s.Attr("data-section")
				exported = append(exported, SectionKey(v))
			})
			assert.Equal(t, previewSectionOrder(preview.Root, nil), exported)

			var pills []string
			page.Find(".cv-pill").Each(func(_ int, s *goquery.Selection) {
				pills = append(pills, s.Text())
			})
			assert.Equal(t, []string{"Forklift", "Stock control"}, pills)
			assert.Equal(t, "Jane Doe", page.Find("h1.cv-name").Text())
		})
	}
}

func TestRenderExportHTML_SelfContained(t *testing.T) {
	doc := Assemble(sampleInput(), sampleResult())
	out, err := RenderExportHTML(doc)
	require.NoError(t, err)

	page, err := goquery.NewDocumentFromReader(strings.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 0, page.Find("script, link").Length())
	assert.Equal(t, "en-GB", page.Find("html").AttrOr("lang", ""))
	assert.Contains(t, page.Find("style").Text(), "size: A4")
	assert.Equal(t, "Jane Doe — CV", page.Find("title").Text())
}

func TestRenderExportHTML_EscapesUserText(t *testing.T) {
	in := sampleInput()
	in.Name = `<script>alert(1)</script>`
	out, err := RenderExportHTML(Assemble(in, sampleResult()))
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>")
}

func TestRenderExportHTML_TwoColumn(t *testing.T) {
	in := sampleInput()
	in.Template = "two_column"
	out, err := RenderExportHTML(Assemble(in, sampleResult()))
	require.NoError(t, err)

	page, err := goquery.NewDocumentFromReader(strings.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 2, page.Find(".cv-main section").Length())
	assert.Equal(t, 3, page.Find(".cv-side section").Length())
}

func TestEmptyPreview(t *testing.T) {
	p := EmptyPreview()
	assert.Equal(t, PreviewEmpty, p.State)
	assert.Nil(t, p.Root)
	assert.NotEmpty(t, p.Message)
}

func TestFilename(t *testing.T) {
	doc := Assemble(sampleInput(), sampleResult())
	assert.Equal(t, "Jane_Doe_CV.pdf", Filename(doc))

	in := sampleInput()
	in.Region = "US"
	in.Name = "  "
	assert.Equal(t, "Resume.pdf", Filename(Assemble(in, sampleResult())))

	assert.Equal(t, "my_cv.pdf", SanitizeFilename("my cv.pdf", "x.pdf"))
	assert.Equal(t, "x.pdf", SanitizeFilename("../", "x.pdf"))
}
