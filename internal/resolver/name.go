package resolver

import (
	"errors"
	"sort"
	"strings"

	"github.com/isometry/ldap-attribute-resolver/internal/batch"
	"github.com/isometry/ldap-attribute-resolver/internal/schema"
)

// ErrNoSchema is returned when a name translation needs a schema and none was given.
var ErrNoSchema = errors.New("attribute name resolution to LDAP requires a schema")

// AttributeNameResolver translates between logical and wire attribute names.
// Without a schema names pass through unchanged.
type AttributeNameResolver struct {
	schema schema.Metadata
}

// NewAttributeNameResolver creates a name resolver. s may be nil.
func NewAttributeNameResolver(s schema.Metadata) *AttributeNameResolver {
	return &AttributeNameResolver{schema: s}
}

// FromLDAP renames the wire attributes of entry to the selected logical
// names. Result keys use the exact casing found in selected; ["*"] selects
// everything. A "dn" key in entry is always kept.
func (r *AttributeNameResolver) FromLDAP(entry map[string]any, selected []string) map[string]any {
	if len(selected) == 1 && selected[0] == "*" {
		selected = r.selectAll(entry)
	}

	result := make(map[string]any, len(selected)+1)
	added := make(map[string]bool)

	add := func(name string, value any) {
		key, ok := selectedName(selected, name)
		if !ok || added[strings.ToLower(key)] {
			return
		}
		result[key] = value
		added[strings.ToLower(key)] = true
	}

	wires := make([]string, 0, len(entry))
	for wire := range entry {
		wires = append(wires, wire)
	}
	sort.Strings(wires)

	for _, wire := range wires {
		value := entry[wire]

		if r.schema != nil {
			for _, name := range r.schema.NamesMappedToAttribute(wire) {
				add(name, value)
			}
		}
		add(wire, value)
	}

	if key, ok := findKey(entry, "dn"); ok && !added["dn"] {
		result["dn"] = entry[key]
	}

	return result
}

// ToLDAP renames every logical attribute of entry to its wire name. When
// several names map to one wire attribute, the last in sorted order wins.
func (r *AttributeNameResolver) ToLDAP(entry map[string]any) (map[string]any, error) {
	if r.schema == nil {
		return nil, ErrNoSchema
	}

	keys := make([]string, 0, len(entry))
	for key := range entry {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	result := make(map[string]any, len(entry))
	wires := make(map[string]string, len(entry))

	for _, key := range keys {
		wire := r.schema.AttributeToLDAP(key)
		lower := strings.ToLower(wire)
		if previous, ok := wires[lower]; ok {
			delete(result, previous)
		}

		wires[lower] = wire
		result[wire] = entry[key]
	}

	return result, nil
}

// ToLDAPBatches renames the attribute of every batch to its wire name.
func (r *AttributeNameResolver) ToLDAPBatches(batches *batch.Collection) error {
	if r.schema == nil {
		return ErrNoSchema
	}

	for _, b := range batches.Batches() {
		b.Attribute = r.schema.AttributeToLDAP(b.Attribute)
	}

	return nil
}

func (r *AttributeNameResolver) selectAll(entry map[string]any) []string {
	var names []string
	seen := make(map[string]bool)

	appendName := func(name string) {
		if !seen[strings.ToLower(name)] {
			seen[strings.ToLower(name)] = true
			names = append(names, name)
		}
	}

	if r.schema != nil {
		logical := make([]string, 0)
		for name := range r.schema.AttributeMap() {
			logical = append(logical, name)
		}
		sort.Strings(logical)
		for _, name := range logical {
			appendName(name)
		}
	}

	keys := make([]string, 0, len(entry))
	for key := range entry {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		appendName(key)
	}

	return names
}

// selectedName returns name in the casing used by selected.
func selectedName(selected []string, name string) (string, bool) {
	for _, s := range selected {
		if strings.EqualFold(s, name) {
			return s, true
		}
	}
	return "", false
}
