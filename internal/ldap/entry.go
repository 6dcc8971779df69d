package ldap

import (
	"fmt"
	"slices"
	"sort"

	"github.com/go-ldap/ldap/v3"
)

// EntryAttributes flattens a go-ldap entry into the wire map consumed by the
// from-LDAP resolvers. Single values collapse to a string; the entry DN is
// stored under "dn".
func EntryAttributes(entry *ldap.Entry) map[string]any {
	if entry == nil {
		return nil
	}

	result := make(map[string]any, len(entry.Attributes)+1)
	for _, attr := range entry.Attributes {
		values := attr.Values
		if len(values) == 0 && len(attr.ByteValues) > 0 {
			values = make([]string, len(attr.ByteValues))
			for i, b := range attr.ByteValues {
				values[i] = string(b)
			}
		}

		switch len(values) {
		case 0:
			continue
		case 1:
			result[attr.Name] = values[0]
		default:
			result[attr.Name] = slices.Clone(values)
		}
	}

	if entry.DN != "" {
		result["dn"] = entry.DN
	}

	return result
}

// NewAddRequest builds a go-ldap add request from a resolved wire map.
// A "dn" key in attrs is ignored; the dn argument is authoritative.
func NewAddRequest(dn string, attrs map[string]any) (*ldap.AddRequest, error) {
	if dn == "" {
		return nil, fmt.Errorf("DN cannot be empty")
	}
	if _, err := ldap.ParseDN(dn); err != nil {
		return nil, fmt.Errorf("invalid DN %q: %w", dn, err)
	}

	names := make([]string, 0, len(attrs))
	for name := range attrs {
		if name == "dn" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	req := ldap.NewAddRequest(dn, nil)
	for _, name := range names {
		values, err := WireValues(attrs[name])
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", name, err)
		}
		if len(values) == 0 {
			continue
		}
		req.Attribute(name, values)
	}

	return req, nil
}

// WireValues normalizes a resolved wire value to the string slice go-ldap expects.
func WireValues(value any) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{v}, nil
	case []byte:
		return []string{string(v)}, nil
	case []string:
		return v, nil
	case []any:
		values := make([]string, 0, len(v))
		for _, item := range v {
			switch s := item.(type) {
			case string:
				values = append(values, s)
			case []byte:
				values = append(values, string(s))
			default:
				return nil, fmt.Errorf("unexpected wire value of type %T", item)
			}
		}
		return values, nil
	default:
		return nil, fmt.Errorf("unexpected wire value of type %T", value)
	}
}
