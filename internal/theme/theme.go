// Package theme 维护 CV 模板注册表：模板键、预览样式类与打印 CSS。
package theme

import "strings"

// Key 是封闭的模板枚举，零值为 Classic。
type Key int

const (
	Classic Key = iota
	Modern
	Compact
	Minimal
	Elegant
	Executive
	TwoColumn
	Technical
	Academic
	Bold

	keyCount
)

var names = [keyCount]string{
	Classic:   "classic",
	Modern:    "modern",
	Compact:   "compact",
	Minimal:   "minimal",
	Elegant:   "elegant",
	Executive: "executive",
	TwoColumn: "two_column",
	Technical: "technical",
	Academic:  "academic",
	Bold:      "bold",
}

var labels = [keyCount]string{
	Classic:   "Classic",
	Modern:    "Modern",
	Compact:   "Compact",
	Minimal:   "Minimal",
	Elegant:   "Elegant",
	Executive: "Executive",
	TwoColumn: "Two Column",
	Technical: "Technical",
	Academic:  "Academic",
	Bold:      "Bold",
}

// All 按注册顺序返回全部模板。
func All() []Key {
	keys := make([]Key, 0, keyCount)
	for k := Classic; k < keyCount; k++ {
		keys = append(keys, k)
	}
	return keys
}

// Resolve 将外部输入映射为模板键；未知或空值回落为 Classic。
func Resolve(raw string) Key {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	for k := Classic; k < keyCount; k++ {
		if names[k] == normalized {
			return k
		}
	}
	return Classic
}

func (k Key) valid() bool { return k >= Classic && k < keyCount }

// String 返回模板的线上名称（JSON/表单中使用的值）。
func (k Key) String() string {
	if !k.valid() {
		return names[Classic]
	}
	return names[k]
}

// Label 返回展示名称。
func (k Key) Label() string {
	if !k.valid() {
		return labels[Classic]
	}
	return labels[k]
}

// Premium 表示模板是否需要付费或教师模式才能使用。
func (k Key) Premium() bool {
	return k.valid() && k != Classic
}

// MarshalText 让模板键在 JSON 中以字符串出现。
func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText 宽松解析，未知值回落为 Classic。
func (k *Key) UnmarshalText(text []byte) error {
	*k = Resolve(string(text))
	return nil
}
