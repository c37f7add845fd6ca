package resume

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldError 描述单个字段的校验失败。
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError 汇总表单校验失败，HTTP 层映射为 400。
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "invalid cv input: " + strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(validateExperiencePresent, CvInput{})
	return v
}

func validateExperiencePresent(sl validator.StructLevel) {
	in := sl.Current().Interface().(CvInput)
	if strings.TrimSpace(in.Experience) != "" {
		return
	}
	if len(FilterEmployment(in.Employment)) > 0 {
		return
	}
	sl.ReportError(in.Experience, "experience", "Experience", "experience_or_employment", "")
}

// Validate 校验提交的表单：role 必填，experience 与结构化经历至少其一。
func Validate(in CvInput) error {
	in.Role = strings.TrimSpace(in.Role)
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate cv input: %w", err)
	}

	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Field:   fieldPath(fe.Namespace()),
			Message: messageFor(fe),
		})
	}
	return out
}

func fieldPath(namespace string) string {
	if idx := strings.Index(namespace, "."); idx >= 0 {
		return namespace[idx+1:]
	}
	return namespace
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid e-mail address"
	case "max":
		return "is too long (max " + fe.Param() + ")"
	case "experience_or_employment":
		return "describe your experience or add at least one employment entry"
	default:
		return "is invalid"
	}
}
