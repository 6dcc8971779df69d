package resolver

import (
	"maps"

	"github.com/isometry/ldap-attribute-resolver/internal/schema"
)

// MergeDefaults returns a copy of attrs with the schema defaults of every
// absent attribute filled in. Defaults may contain placeholders for a
// ParameterResolver pass.
func MergeDefaults(s schema.Metadata, attrs map[string]any) map[string]any {
	result := maps.Clone(attrs)
	if result == nil {
		result = make(map[string]any)
	}

	for name, value := range s.DefaultValues() {
		if _, ok := findKey(result, name); !ok {
			result[name] = cloneValue(value)
		}
	}

	return result
}

// ValidateRequired reports every required attribute that is absent or empty.
func ValidateRequired(s schema.Metadata, attrs map[string]any) error {
	var missing []string

	for _, name := range s.RequiredAttributes() {
		key, ok := findKey(attrs, name)
		if !ok || isEmpty(attrs[key]) {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		return &MissingRequiredError{Attributes: missing}
	}

	return nil
}

func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []string:
		return len(v) == 0
	case []any:
		return len(v) == 0
	default:
		return false
	}
}
