package resolver

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/isometry/ldap-attribute-resolver/internal/converter"
	"github.com/isometry/ldap-attribute-resolver/internal/ldap"
	"github.com/isometry/ldap-attribute-resolver/internal/schema"
)

// AttributeValueResolver converts the values of a flat attribute map, as used
// when creating an entry or reading search results.
type AttributeValueResolver struct {
	valueResolver
	entry map[string]any
}

// NewAttributeValueResolver creates a resolver for one attribute map.
func NewAttributeValueResolver(s schema.Metadata, factory converter.Factory, entry map[string]any, op converter.Operation) *AttributeValueResolver {
	r := &AttributeValueResolver{
		valueResolver: newValueResolver(s, factory, op),
		entry:         entry,
	}
	r.iterateAggregates = r.aggregateEntry

	return r
}

// ToLDAP converts logical values to wire values. Aggregated attributes are
// emitted once under their wire name.
func (r *AttributeValueResolver) ToLDAP(ctx context.Context) (map[string]any, error) {
	return r.resolve(ctx, toLDAP)
}

// FromLDAP converts wire values to logical values. Multivalued attributes
// are always returned as lists.
func (r *AttributeValueResolver) FromLDAP(ctx context.Context) (map[string]any, error) {
	return r.resolve(ctx, fromLDAP)
}

func (r *AttributeValueResolver) resolve(ctx context.Context, dir direction) (map[string]any, error) {
	r.reset()
	result := make(map[string]any, len(r.entry))

	fields := map[string]any{
		"attributes":     len(r.entry),
		"operation_type": r.operation.String(),
		"dn":             r.dn,
	}

	err := ldap.LogOperation(ctx, ldap.SubsystemResolver, "resolve_attributes_"+dir.String(), fields, func() error {
		keys := make([]string, 0, len(r.entry))
		for key := range r.entry {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		sources := make(map[string]string, len(keys))
		for _, key := range keys {
			if r.isAggregated(key) {
				continue
			}

			name, value, err := r.resolveAttribute(ctx, key, dir)
			if err != nil {
				return err
			}

			lower := strings.ToLower(name)
			if source, ok := sources[lower]; ok {
				return NewInvalidArgumentError(key, "", fmt.Sprintf("both %q and %q resolve to attribute %q", source, key, name))
			}
			sources[lower] = key
			result[name] = value
		}

		for _, name := range r.attributesToRemove() {
			for key := range result {
				if strings.EqualFold(key, name) {
					delete(result, key)
				}
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// resolveAttribute returns the output name and value of one attribute.
func (r *AttributeValueResolver) resolveAttribute(ctx context.Context, key string, dir direction) (string, any, error) {
	value := r.entry[key]

	if !r.schema.HasConverter(key) {
		if dir == fromLDAP {
			return key, r.wrapMultivalued(key, decodeRaw(value)), nil
		}

		encoded, err := encodeRaw(value)
		if err != nil {
			return "", nil, fmt.Errorf("attribute %s: %w", key, err)
		}
		return key, encoded, nil
	}

	values, err := r.convertedValues(ctx, value, key, dir, nil)
	if err != nil {
		return "", nil, err
	}

	if dir == fromLDAP {
		return key, r.wrapMultivalued(key, collapse(values)), nil
	}

	name := key
	if r.isAggregated(key) {
		name = r.schema.AttributeToLDAP(key)
	}

	return name, wireList(values), nil
}

func (r *AttributeValueResolver) wrapMultivalued(key string, value any) any {
	if !r.schema.IsMultivalued(key) {
		return value
	}

	switch v := value.(type) {
	case nil:
		return []any{}
	case []any, []string:
		return v
	case string:
		return []string{v}
	default:
		return []any{v}
	}
}

func (r *AttributeValueResolver) aggregateEntry(ctx context.Context, siblings []string, _ []any, conv converter.Converter) (any, error) {
	var last any

	for _, sibling := range siblings {
		key, ok := findKey(r.entry, sibling)
		if !ok {
			continue
		}

		values, err := r.convertedValues(ctx, r.entry[key], key, toLDAP, conv)
		if err != nil {
			return nil, err
		}

		last = collapse(values)
		conv.SetLastValue(last)
		r.markAggregated(key)
	}

	return last, nil
}

// findKey returns the key of m matching name case-insensitively.
func findKey[V any](m map[string]V, name string) (string, bool) {
	if _, ok := m[name]; ok {
		return name, true
	}
	for key := range m {
		if strings.EqualFold(key, name) {
			return key, true
		}
	}
	return "", false
}
