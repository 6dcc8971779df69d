// Package batch models the per-attribute modifications that make up an LDAP modify operation.
package batch

import (
	"fmt"
	"slices"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// ModType identifies the kind of modification a Batch performs.
type ModType int

const (
	ModAdd      ModType = iota // Add values to the attribute
	ModRemove                  // Remove specific values from the attribute
	ModReplace                 // Replace all values of the attribute
	ModResetAll                // Remove the attribute entirely
)

// String returns the string representation of the modification type.
func (m ModType) String() string {
	switch m {
	case ModAdd:
		return "add"
	case ModRemove:
		return "remove"
	case ModReplace:
		return "replace"
	case ModResetAll:
		return "reset"
	default:
		return "unknown"
	}
}

// Batch is one modification of one attribute.
type Batch struct {
	ModType   ModType
	Attribute string
	Values    []any
}

// New creates a batch. Scalar values may be passed directly; a single
// []string or []any argument is flattened.
func New(modType ModType, attribute string, values ...any) *Batch {
	return &Batch{
		ModType:   modType,
		Attribute: attribute,
		Values:    flatten(values),
	}
}

// IsType reports whether the batch has the given modification type.
func (b *Batch) IsType(modType ModType) bool {
	return b.ModType == modType
}

// StringValues returns the batch values as strings.
// Non-string values are formatted with fmt.
func (b *Batch) StringValues() []string {
	values := make([]string, 0, len(b.Values))
	for _, v := range b.Values {
		switch val := v.(type) {
		case string:
			values = append(values, val)
		case []byte:
			values = append(values, string(val))
		default:
			values = append(values, fmt.Sprint(val))
		}
	}
	return values
}

func flatten(values []any) []any {
	if len(values) != 1 {
		return values
	}

	switch v := values[0].(type) {
	case []any:
		return slices.Clone(v)
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	}

	return values
}

// Collection is an ordered, index-addressable set of batches.
type Collection struct {
	batches []*Batch
}

// NewCollection creates a collection from batches.
func NewCollection(batches ...*Batch) *Collection {
	return &Collection{batches: batches}
}

// Add appends a batch to the collection.
func (c *Collection) Add(b *Batch) {
	c.batches = append(c.batches, b)
}

// Set records a replace of an attribute.
func (c *Collection) Set(attribute string, values ...any) {
	c.Add(New(ModReplace, attribute, values...))
}

// Append records an add of values to an attribute.
func (c *Collection) Append(attribute string, values ...any) {
	c.Add(New(ModAdd, attribute, values...))
}

// Remove records removal of values from an attribute.
func (c *Collection) Remove(attribute string, values ...any) {
	c.Add(New(ModRemove, attribute, values...))
}

// Reset records removal of an attribute.
func (c *Collection) Reset(attribute string) {
	c.Add(New(ModResetAll, attribute))
}

// Len returns the number of batches.
func (c *Collection) Len() int {
	return len(c.batches)
}

// Get returns the batch at index i, or nil when out of range.
func (c *Collection) Get(i int) *Batch {
	if i < 0 || i >= len(c.batches) {
		return nil
	}
	return c.batches[i]
}

// Has reports whether index i is addressable.
func (c *Collection) Has(i int) bool {
	return i >= 0 && i < len(c.batches)
}

// RemoveIndex removes the batch at index i. Later batches shift down by one.
func (c *Collection) RemoveIndex(i int) {
	if !c.Has(i) {
		return
	}
	c.batches = slices.Delete(c.batches, i, i+1)
}

// RemoveIndices removes several batches at once. Indices refer to positions
// before any removal.
func (c *Collection) RemoveIndices(indices []int) {
	sorted := slices.Clone(indices)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	for i := len(sorted) - 1; i >= 0; i-- {
		c.RemoveIndex(sorted[i])
	}
}

// Batches returns the batches in order.
func (c *Collection) Batches() []*Batch {
	return slices.Clone(c.batches)
}

// ForAttribute returns the batches that modify an attribute (case-insensitive).
func (c *Collection) ForAttribute(attribute string) []*Batch {
	var result []*Batch
	for _, b := range c.batches {
		if strings.EqualFold(b.Attribute, attribute) {
			result = append(result, b)
		}
	}
	return result
}

// ModifyRequest builds a go-ldap modify request from the collection.
// The collection is expected to already hold wire names and wire values.
func (c *Collection) ModifyRequest(dn string) (*ldap.ModifyRequest, error) {
	if dn == "" {
		return nil, fmt.Errorf("DN cannot be empty")
	}
	if len(c.batches) == 0 {
		return nil, fmt.Errorf("no modifications for %s", dn)
	}

	req := ldap.NewModifyRequest(dn, nil)
	for _, b := range c.batches {
		switch b.ModType {
		case ModAdd:
			req.Add(b.Attribute, b.StringValues())
		case ModRemove:
			req.Delete(b.Attribute, b.StringValues())
		case ModReplace:
			req.Replace(b.Attribute, b.StringValues())
		case ModResetAll:
			req.Delete(b.Attribute, []string{})
		default:
			return nil, fmt.Errorf("unsupported modification type %d for attribute %s", b.ModType, b.Attribute)
		}
	}

	return req, nil
}
