package classroom

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"cvbuilder/internal/region"
	"cvbuilder/internal/resume"
	"cvbuilder/internal/theme"
)

//go:embed class_config.schema.json
var schemaJSON []byte

var configSchema = mustSchema(schemaJSON)

var ErrInvalidConfig = errors.New("invalid class config")

func mustSchema(raw []byte) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		panic(fmt.Sprintf("compile class config schema: %v", err))
	}
	return s
}

// ClassConfig 是教师下发给学生端的限制条件。
type ClassConfig struct {
	AllowedTemplates []string        `json:"allowedTemplates,omitempty"`
	AllowedRegions   []string        `json:"allowedRegions,omitempty"`
	Sections         map[string]bool `json:"sections,omitempty"`
	ForceSafeMode    bool            `json:"forceSafeMode,omitempty"`
}

// RestrictiveConfig 在存储的配置无法解析时使用：仅免费模板、默认地区、强制安全模式。
func RestrictiveConfig() ClassConfig {
	return ClassConfig{
		AllowedTemplates: []string{theme.Classic.String()},
		AllowedRegions:   []string{string(region.Base)},
		ForceSafeMode:    true,
	}
}

// ParseConfig 按 JSON Schema 校验后解码。空输入视为空配置。
func ParseConfig(raw []byte) (ClassConfig, error) {
	var cfg ClassConfig
	if len(strings.TrimSpace(string(raw))) == 0 {
		return cfg, nil
	}

	res, err := configSchema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return cfg, fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
	}

	if err := json.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// Apply 把课堂限制施加到学生提交的表单上。
func (c ClassConfig) Apply(in *resume.CvInput) {
	if len(c.AllowedTemplates) > 0 {
		current := theme.Resolve(in.Template)
		allowed := false
		for _, t := range c.AllowedTemplates {
			if theme.Resolve(t) == current {
				allowed = true
				break
			}
		}
		if !allowed {
			current = theme.Resolve(c.AllowedTemplates[0])
		}
		in.Template = current.String()
	}

	if len(c.AllowedRegions) > 0 {
		current := region.Parse(in.Region)
		allowed := false
		for _, r := range c.AllowedRegions {
			if region.Parse(r) == current {
				allowed = true
				break
			}
		}
		if !allowed {
			current = region.Parse(c.AllowedRegions[0])
		}
		in.Region = string(current)
	}

	for key, enabled := range c.Sections {
		if enabled || !resume.IsSectionKey(key) {
			continue
		}
		if in.SectionConfig == nil {
			in.SectionConfig = map[string]bool{}
		}
		in.SectionConfig[key] = false
	}

	if c.ForceSafeMode {
		in.StudentSafeMode = true
	}
}
