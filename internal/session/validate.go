package session

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/terraledger/mrv-cli/internal/model"
)

// Validate interprets a field's validation rules against a value and
// returns the violations. Rules are advisory: callers record the
// messages on the field state but never reject the value.
func Validate(field model.InputField, value model.FieldValue) []string {
	var errs []string
	for _, rule := range field.ValidationRules {
		if msg := applyRule(field, rule, value); msg != "" {
			errs = append(errs, msg)
		}
	}
	return errs
}

func applyRule(field model.InputField, rule model.ValidationRule, value model.FieldValue) string {
	if rule.Type == model.RuleRequired {
		if value.IsEmpty() {
			return message(rule, "%s is required", field.Name)
		}
		return ""
	}
	if value.IsEmpty() {
		// Remaining rules only constrain present values.
		return ""
	}

	switch rule.Type {
	case model.RuleMin:
		if rule.Min != nil && value.AsNumber() < *rule.Min {
			return message(rule, "%s must be at least %g", field.Name, *rule.Min)
		}
	case model.RuleMax:
		if rule.Max != nil && value.AsNumber() > *rule.Max {
			return message(rule, "%s must be at most %g", field.Name, *rule.Max)
		}
	case model.RuleRange:
		n := value.AsNumber()
		if (rule.Min != nil && n < *rule.Min) || (rule.Max != nil && n > *rule.Max) {
			lo, hi := 0.0, 0.0
			if rule.Min != nil {
				lo = *rule.Min
			}
			if rule.Max != nil {
				hi = *rule.Max
			}
			return message(rule, "%s must be between %g and %g", field.Name, lo, hi)
		}
	case model.RuleEnum:
		got := value.AsText()
		for _, v := range rule.Values {
			if got == v {
				return ""
			}
		}
		return message(rule, "%s must be one of: %s", field.Name, strings.Join(rule.Values, ", "))
	case model.RuleFileType:
		if value.Kind != model.KindFile || value.File == nil {
			return ""
		}
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(value.File.FileName)), ".")
		for _, ft := range rule.FileTypes {
			if ext == strings.ToLower(ft) {
				return ""
			}
		}
		return message(rule, "%s must be a %s file", field.Name, strings.Join(rule.FileTypes, "/"))
	case model.RuleFileSize:
		if value.Kind != model.KindFile || value.File == nil || rule.MaxSizeMB <= 0 {
			return ""
		}
		if float64(value.File.FileSize) > rule.MaxSizeMB*1024*1024 {
			return message(rule, "%s exceeds %g MB", field.Name, rule.MaxSizeMB)
		}
	}
	return ""
}

func message(rule model.ValidationRule, format string, args ...any) string {
	if rule.Message != "" {
		return rule.Message
	}
	return fmt.Sprintf(format, args...)
}
