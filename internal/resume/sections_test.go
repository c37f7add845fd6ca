package resume

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func assertPermutation(t *testing.T, got []SectionKey) {
	t.Helper()
	want := []string{"employment", "qualifications", "references", "skills", "summary"}
	keys := make([]string, 0, len(got))
	for _, k := range got {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	assert.Equal(t, want, keys)
}

func TestNormalizeOrder_AlwaysPermutation(t *testing.T) {
	inputs := [][]string{
		nil,
		{},
		{"references", "skills", "qualifications", "employment", "summary"},
		{"bogus", "skills", "skills", "photo"},
		{"SKILLS", " summary "},
		{"references"},
	}
	for _, in := range inputs {
		assertPermutation(t, NormalizeOrder(in))
	}
}

func TestNormalizeOrder_KeepsCallerOrderThenCanonical(t *testing.T) {
	got := NormalizeOrder([]string{"skills", "unknown", "summary", "skills"})
	assert.Equal(t, []SectionKey{
		SectionSkills,
		SectionSummary,
		SectionEmployment,
		SectionQualifications,
		SectionReferences,
	}, got)
}

func TestNormalizeOrder_Reversed(t *testing.T) {
	got := NormalizeOrder([]string{"references", "skills", "qualifications", "employment", "summary"})
	assert.Equal(t, SectionReferences, got[0])
	assert.Equal(t, SectionSummary, got[4])
}

func TestDefaults(t *testing.T) {
	assert.Equal(t, NormalizeOrder(nil), DefaultSectionOrder())
	cfg := DefaultSectionConfig()
	assert.Len(t, cfg, 5)
	for _, v := range cfg {
		assert.True(t, v)
	}

	order := DefaultSectionOrder()
	order[0] = SectionSkills
	assert.Equal(t, SectionSummary, DefaultSectionOrder()[0], "defaults must not alias")
}

func TestResolveSectionConfig_IgnoresUnknown(t *testing.T) {
	cfg := ResolveSectionConfig(map[string]bool{"skills": false, "photo": true})
	assert.False(t, cfg[SectionSkills])
	assert.True(t, cfg[SectionSummary])
	assert.Len(t, cfg, 5)
}
