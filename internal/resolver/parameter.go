package resolver

import (
	"context"
	"maps"
	"regexp"
	"slices"
	"sort"

	"github.com/isometry/ldap-attribute-resolver/internal/ldap"
)

var placeholderPattern = regexp.MustCompile(`%(.*?)%`)

// ParameterResolver substitutes %name% placeholders in attribute values with
// explicit parameters or the values of other attributes.
//
// Placeholders are looked up case-insensitively: an explicit parameter wins,
// then another attribute's resolved value, then the empty string.
type ParameterResolver struct {
	attributes map[string]any
	parameters map[string]string

	values       map[string]any
	requirements map[string][]string
	resolved     map[string]bool
	result       map[string]any
}

// NewParameterResolver creates a resolver. Attribute values are strings or
// lists of strings.
func NewParameterResolver(attributes map[string]any, parameters map[string]string) *ParameterResolver {
	return &ParameterResolver{
		attributes: attributes,
		parameters: parameters,
	}
}

// Resolve returns the attributes with every placeholder substituted. The
// result keeps the keys and value shapes of the input and is cached.
func (r *ParameterResolver) Resolve(ctx context.Context) (map[string]any, error) {
	if r.result != nil {
		return r.result, nil
	}

	r.values = make(map[string]any, len(r.attributes))
	for key, value := range r.attributes {
		r.values[key] = cloneValue(value)
	}
	r.resolved = make(map[string]bool)

	if err := r.buildRequirements(); err != nil {
		return nil, err
	}

	if len(r.requirements) > 0 {
		ldap.NewTFLogger(ctx, ldap.SubsystemResolver).Debug("Resolving attribute parameters", map[string]any{
			"attributes": slices.Sorted(maps.Keys(r.requirements)),
		})
	}

	if err := r.detectCycles(); err != nil {
		return nil, err
	}

	keys := slices.Sorted(maps.Keys(r.requirements))
	for _, key := range keys {
		if err := r.resolveAttribute(key); err != nil {
			return nil, err
		}
	}

	r.result = r.values
	return r.result, nil
}

// buildRequirements records the placeholders of every attribute that has any.
func (r *ParameterResolver) buildRequirements() error {
	r.requirements = make(map[string][]string)

	for key, value := range r.values {
		var withPlaceholders int
		var names []string

		for _, s := range stringValues(value) {
			matches := placeholderPattern.FindAllStringSubmatch(s, -1)
			if len(matches) > 0 {
				withPlaceholders++
			}
			for _, match := range matches {
				names = append(names, match[1])
			}
		}

		if withPlaceholders > 1 {
			return NewInvalidArgumentError(key, "", "only one value of a multivalued attribute may contain placeholders")
		}
		if len(names) > 0 {
			r.requirements[key] = names
		}
	}

	return nil
}

// dependencies returns the attributes whose values key needs. Placeholders
// supplied by an explicit parameter are not dependencies.
func (r *ParameterResolver) dependencies(key string) []string {
	var deps []string
	for _, name := range r.requirements[key] {
		if _, ok := findKey(r.parameters, name); ok {
			continue
		}
		if dep, ok := findKey(r.values, name); ok && !slices.Contains(deps, dep) {
			deps = append(deps, dep)
		}
	}
	sort.Strings(deps)
	return deps
}

// detectCycles fails on any dependency cycle, including an attribute
// referring to itself.
func (r *ParameterResolver) detectCycles() error {
	const (
		unvisited = iota
		visiting
		done
	)

	state := make(map[string]int)
	var path []string

	var visit func(key string) error
	visit = func(key string) error {
		switch state[key] {
		case visiting:
			start := slices.Index(path, key)
			cycle := append(slices.Clone(path[start:]), key)
			return NewCircularDependencyError(cycle...)
		case done:
			return nil
		}

		state[key] = visiting
		path = append(path, key)

		for _, dep := range r.dependencies(key) {
			if err := visit(dep); err != nil {
				return err
			}
		}

		path = path[:len(path)-1]
		state[key] = done
		return nil
	}

	for _, key := range slices.Sorted(maps.Keys(r.requirements)) {
		if err := visit(key); err != nil {
			return err
		}
	}

	return nil
}

// resolveAttribute resolves the dependencies of key, then key itself.
func (r *ParameterResolver) resolveAttribute(key string) error {
	if r.resolved[key] {
		return nil
	}

	for _, dep := range r.dependencies(key) {
		if _, ok := r.requirements[dep]; ok {
			if err := r.resolveAttribute(dep); err != nil {
				return err
			}
		}
	}

	value, err := r.substitute(key, r.values[key])
	if err != nil {
		return err
	}

	// A dependency value may itself have introduced placeholders.
	if hasPlaceholders(value) {
		if value, err = r.substitute(key, value); err != nil {
			return err
		}
	}

	r.values[key] = value
	r.resolved[key] = true

	return nil
}

func (r *ParameterResolver) substitute(key string, value any) (any, error) {
	var firstErr error

	replace := func(s string) string {
		return placeholderPattern.ReplaceAllStringFunc(s, func(match string) string {
			name := match[1 : len(match)-1]
			replacement, err := r.lookup(key, name)
			if err != nil && firstErr == nil {
				firstErr = err
			}
			return replacement
		})
	}

	var result any
	switch v := value.(type) {
	case string:
		result = replace(v)
	case []string:
		out := make([]string, len(v))
		for i, s := range v {
			out[i] = replace(s)
		}
		result = out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			if s, ok := item.(string); ok {
				out[i] = replace(s)
			} else {
				out[i] = item
			}
		}
		result = out
	default:
		result = value
	}

	if firstErr != nil {
		return nil, firstErr
	}
	return result, nil
}

func (r *ParameterResolver) lookup(key, name string) (string, error) {
	if param, ok := findKey(r.parameters, name); ok {
		return r.parameters[param], nil
	}

	source, ok := findKey(r.values, name)
	if !ok {
		return "", nil
	}

	values := stringValues(r.values[source])
	switch len(values) {
	case 0:
		return "", nil
	case 1:
		return values[0], nil
	default:
		return "", NewInvalidArgumentError(key, name, "a multivalued attribute cannot be used as a placeholder value")
	}
}

func hasPlaceholders(value any) bool {
	for _, s := range stringValues(value) {
		if placeholderPattern.MatchString(s) {
			return true
		}
	}
	return false
}

func stringValues(value any) []string {
	switch v := value.(type) {
	case string:
		return []string{v}
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func cloneValue(value any) any {
	switch v := value.(type) {
	case []string:
		return slices.Clone(v)
	case []any:
		return slices.Clone(v)
	default:
		return v
	}
}
