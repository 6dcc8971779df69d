// Package schema describes how the logical attributes of a directory object map
// onto wire attributes, and which converters apply to them.
package schema

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Metadata is the schema contract consumed by the resolvers.
// All name lookups are case-insensitive.
type Metadata interface {
	// HasAttribute reports whether a logical attribute is defined.
	HasAttribute(name string) bool

	// HasConverter reports whether a converter is configured for a logical attribute.
	HasConverter(name string) bool

	// Converter returns the converter name for a logical attribute, or "" if none.
	Converter(name string) string

	// ConverterMap returns logical attribute name to converter name.
	ConverterMap() map[string]string

	// ConverterOptions returns converter options keyed by converter name.
	ConverterOptions() map[string]map[string]any

	// AttributeToLDAP returns the wire name for a logical attribute.
	// Unknown names are returned unchanged.
	AttributeToLDAP(name string) string

	// NamesMappedToAttribute returns every logical name mapped to a wire attribute.
	NamesMappedToAttribute(wire string) []string

	// HasNamesMappedToAttribute reports whether any logical name maps to a wire attribute.
	HasNamesMappedToAttribute(wire string) bool

	// NamesWithConverter returns every logical name that uses the named converter.
	NamesWithConverter(converter string) []string

	// IsMultivalued reports whether a logical attribute holds more than one value.
	IsMultivalued(name string) bool

	// DefaultValues returns logical attribute name to default value.
	DefaultValues() map[string]any

	// RequiredAttributes returns the logical names that must be present on create.
	RequiredAttributes() []string

	// AttributeMap returns logical attribute name to wire name.
	AttributeMap() map[string]string
}

// Attribute defines one logical attribute.
type Attribute struct {
	Name        string // Logical name used by application code
	LDAPName    string // Wire name; defaults to Name
	Converter   string // Converter name, optional
	Multivalued bool
	Required    bool
	Default     any // Default value applied on create, nil for none
}

// ObjectSchema is an in-memory Metadata implementation for one object type.
type ObjectSchema struct {
	objectType       string
	attributes       map[string]*Attribute // keyed by lower-cased logical name
	order            []string              // logical names in definition order
	converterOptions map[string]map[string]any
}

var _ Metadata = (*ObjectSchema)(nil)

// New creates an empty schema for an object type (e.g. "user").
func New(objectType string) *ObjectSchema {
	return &ObjectSchema{
		objectType:       objectType,
		attributes:       make(map[string]*Attribute),
		converterOptions: make(map[string]map[string]any),
	}
}

// ObjectType returns the object type this schema describes.
func (s *ObjectSchema) ObjectType() string {
	return s.objectType
}

// AddAttribute registers a logical attribute.
func (s *ObjectSchema) AddAttribute(attr Attribute) error {
	if strings.TrimSpace(attr.Name) == "" {
		return fmt.Errorf("attribute name cannot be empty")
	}

	key := strings.ToLower(attr.Name)
	if _, exists := s.attributes[key]; exists {
		return fmt.Errorf("attribute %q is already defined for %s", attr.Name, s.objectType)
	}

	if attr.LDAPName == "" {
		attr.LDAPName = attr.Name
	}

	s.attributes[key] = &attr
	s.order = append(s.order, attr.Name)

	return nil
}

// MustAddAttributes registers attributes and panics on a definition error.
// Intended for package-level schema declarations.
func (s *ObjectSchema) MustAddAttributes(attrs ...Attribute) *ObjectSchema {
	for _, attr := range attrs {
		if err := s.AddAttribute(attr); err != nil {
			panic(err)
		}
	}
	return s
}

// SetConverterOptions sets options for a converter name.
func (s *ObjectSchema) SetConverterOptions(converter string, options map[string]any) {
	s.converterOptions[strings.ToLower(converter)] = options
}

func (s *ObjectSchema) lookup(name string) (*Attribute, bool) {
	attr, ok := s.attributes[strings.ToLower(name)]
	return attr, ok
}

func (s *ObjectSchema) HasAttribute(name string) bool {
	_, ok := s.lookup(name)
	return ok
}

func (s *ObjectSchema) HasConverter(name string) bool {
	return s.Converter(name) != ""
}

func (s *ObjectSchema) Converter(name string) string {
	if attr, ok := s.lookup(name); ok {
		return attr.Converter
	}
	return ""
}

func (s *ObjectSchema) ConverterMap() map[string]string {
	result := make(map[string]string)
	for _, name := range s.order {
		attr, _ := s.lookup(name)
		if attr.Converter != "" {
			result[attr.Name] = attr.Converter
		}
	}
	return result
}

func (s *ObjectSchema) ConverterOptions() map[string]map[string]any {
	return maps.Clone(s.converterOptions)
}

func (s *ObjectSchema) AttributeToLDAP(name string) string {
	if attr, ok := s.lookup(name); ok {
		return attr.LDAPName
	}
	return name
}

func (s *ObjectSchema) NamesMappedToAttribute(wire string) []string {
	var names []string
	for _, name := range s.order {
		attr, _ := s.lookup(name)
		if strings.EqualFold(attr.LDAPName, wire) {
			names = append(names, attr.Name)
		}
	}
	return names
}

func (s *ObjectSchema) HasNamesMappedToAttribute(wire string) bool {
	return len(s.NamesMappedToAttribute(wire)) > 0
}

func (s *ObjectSchema) NamesWithConverter(converter string) []string {
	var names []string
	for _, name := range s.order {
		attr, _ := s.lookup(name)
		if attr.Converter != "" && strings.EqualFold(attr.Converter, converter) {
			names = append(names, attr.Name)
		}
	}
	return names
}

func (s *ObjectSchema) IsMultivalued(name string) bool {
	if attr, ok := s.lookup(name); ok {
		return attr.Multivalued
	}
	return false
}

func (s *ObjectSchema) DefaultValues() map[string]any {
	result := make(map[string]any)
	for _, name := range s.order {
		attr, _ := s.lookup(name)
		if attr.Default != nil {
			result[attr.Name] = attr.Default
		}
	}
	return result
}

func (s *ObjectSchema) RequiredAttributes() []string {
	var names []string
	for _, name := range s.order {
		attr, _ := s.lookup(name)
		if attr.Required {
			names = append(names, attr.Name)
		}
	}
	return names
}

func (s *ObjectSchema) AttributeMap() map[string]string {
	result := make(map[string]string, len(s.order))
	for _, name := range s.order {
		attr, _ := s.lookup(name)
		result[attr.Name] = attr.LDAPName
	}
	return result
}

// Names returns the logical attribute names in definition order.
func (s *ObjectSchema) Names() []string {
	return slices.Clone(s.order)
}
