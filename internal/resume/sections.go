package resume

import "strings"

// SectionKey 标识 CV 中的一个区块。
type SectionKey string

const (
	SectionSummary        SectionKey = "summary"
	SectionEmployment     SectionKey = "employment"
	SectionQualifications SectionKey = "qualifications"
	SectionSkills         SectionKey = "skills"
	SectionReferences     SectionKey = "references"
)

var canonicalOrder = [...]SectionKey{
	SectionSummary,
	SectionEmployment,
	SectionQualifications,
	SectionSkills,
	SectionReferences,
}

// IsSectionKey 判断字符串是否为已知区块。
func IsSectionKey(raw string) bool {
	for _, k := range canonicalOrder {
		if string(k) == raw {
			return true
		}
	}
	return false
}

// DefaultSectionOrder 返回规范顺序的新切片。
func DefaultSectionOrder() []SectionKey {
	order := make([]SectionKey, len(canonicalOrder))
	copy(order, canonicalOrder[:])
	return order
}

// DefaultSectionConfig 默认全部区块可见。
func DefaultSectionConfig() map[SectionKey]bool {
	cfg := make(map[SectionKey]bool, len(canonicalOrder))
	for _, k := range canonicalOrder {
		cfg[k] = true
	}
	return cfg
}

// NormalizeOrder 过滤未知与重复键，并按规范顺序补齐缺失键。
// 结果总是五个已知键的一个排列。
func NormalizeOrder(candidate []string) []SectionKey {
	seen := make(map[SectionKey]bool, len(canonicalOrder))
	order := make([]SectionKey, 0, len(canonicalOrder))
	for _, raw := range candidate {
		key := SectionKey(strings.ToLower(strings.TrimSpace(raw)))
		if !IsSectionKey(string(key)) || seen[key] {
			continue
		}
		seen[key] = true
		order = append(order, key)
	}
	for _, key := range canonicalOrder {
		if !seen[key] {
			order = append(order, key)
		}
	}
	return order
}

// ResolveSectionConfig 以默认配置为底，叠加调用方显式给出的已知键。
func ResolveSectionConfig(overrides map[string]bool) map[SectionKey]bool {
	cfg := DefaultSectionConfig()
	for raw, enabled := range overrides {
		key := SectionKey(strings.ToLower(strings.TrimSpace(raw)))
		if IsSectionKey(string(key)) {
			cfg[key] = enabled
		}
	}
	return cfg
}
