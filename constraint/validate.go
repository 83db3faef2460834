package constraint

import (
	"fmt"
	"strings"
)

// ValidateRule represents a single rule of a go-playground validate tag.
type ValidateRule struct {
	// Name is the rule name (e.g., "required", "email", "min").
	Name string

	// Param is the value after "=", empty if none.
	// For "min=8", Param is "8".
	Param string
}

// ParseValidateTag parses a validate tag string into rules.
// Input: "required,email,min=8"
// Output: []ValidateRule{{Name:"required"}, {Name:"email"}, {Name:"min", Param:"8"}}
func ParseValidateTag(tag string) []ValidateRule {
	if tag == "" {
		return nil
	}

	parts := strings.Split(tag, ",")
	rules := make([]ValidateRule, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		rule := ValidateRule{}
		if idx := strings.Index(part, "="); idx > 0 {
			rule.Name = part[:idx]
			rule.Param = part[idx+1:]
		} else {
			rule.Name = part
		}
		rules = append(rules, rule)
	}

	return rules
}

// FormatValidateTag joins rules back into tag form.
func FormatValidateTag(rules []ValidateRule) string {
	parts := make([]string, len(rules))
	for i, r := range rules {
		parts[i] = r.String()
	}
	return strings.Join(parts, ",")
}

func (r ValidateRule) String() string {
	if r.Param == "" {
		return r.Name
	}
	return r.Name + "=" + r.Param
}

// Describe returns a human-readable description of the rule for doc comments.
func (r ValidateRule) Describe() string {
	switch r.Name {
	case "required":
		return "required"
	case "dive":
		return "each element:"
	case "min":
		return fmt.Sprintf("must be at least %s", r.Param)
	case "max":
		return fmt.Sprintf("must be at most %s", r.Param)
	case "len":
		return fmt.Sprintf("must have length %s", r.Param)
	case "eq":
		return fmt.Sprintf("must equal %s", r.Param)
	case "ne":
		return fmt.Sprintf("must not equal %s", r.Param)
	case "gt":
		return fmt.Sprintf("must be greater than %s", r.Param)
	case "gte":
		return fmt.Sprintf("must be at least %s", r.Param)
	case "lt":
		return fmt.Sprintf("must be less than %s", r.Param)
	case "lte":
		return fmt.Sprintf("must be at most %s", r.Param)
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "uuid":
		return "must be a valid UUID"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", r.Param)
	default:
		if r.Param != "" {
			return fmt.Sprintf("must pass %s=%s", r.Name, r.Param)
		}
		return fmt.Sprintf("must pass %s", r.Name)
	}
}

// describeRules joins rule descriptions into one sentence fragment.
func describeRules(rules []ValidateRule) string {
	parts := make([]string, len(rules))
	for i, r := range rules {
		parts[i] = r.Describe()
	}
	return strings.ReplaceAll(strings.Join(parts, ", "), ":,", ":")
}

func hasRule(rules []ValidateRule, name string) bool {
	for _, r := range rules {
		if r.Name == name {
			return true
		}
	}
	return false
}
