package resolver

import (
	"fmt"
	"strings"

	"github.com/isometry/ldap-attribute-resolver/internal/batch"
)

// CircularDependencyError is returned when attribute placeholders refer to each other.
type CircularDependencyError struct {
	Attributes []string // The cycle, starting and ending with the same attribute
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("circular dependency detected between attributes: %s", strings.Join(e.Attributes, " -> "))
}

// NewCircularDependencyError creates a new circular dependency error.
func NewCircularDependencyError(attributes ...string) *CircularDependencyError {
	return &CircularDependencyError{Attributes: attributes}
}

// InvalidArgumentError is returned when a value cannot be used the way it is referenced.
type InvalidArgumentError struct {
	Attribute string // Attribute being resolved
	Parameter string // Placeholder name, if any
	Reason    string
}

func (e *InvalidArgumentError) Error() string {
	if e.Parameter != "" {
		return fmt.Sprintf("invalid argument for attribute %q (placeholder %q): %s", e.Attribute, e.Parameter, e.Reason)
	}
	return fmt.Sprintf("invalid argument for attribute %q: %s", e.Attribute, e.Reason)
}

// NewInvalidArgumentError creates a new invalid argument error.
func NewInvalidArgumentError(attribute, parameter, reason string) *InvalidArgumentError {
	return &InvalidArgumentError{
		Attribute: attribute,
		Parameter: parameter,
		Reason:    reason,
	}
}

// AggregationModeError is returned when an aggregated attribute is modified
// with anything other than a replace.
type AggregationModeError struct {
	Attribute string
	ModType   batch.ModType
}

func (e *AggregationModeError) Error() string {
	return fmt.Sprintf(`Unable to modify "%s". You can only use the "set" method to modify this attribute.`, e.Attribute)
}

// NewAggregationModeError creates a new aggregation mode error.
func NewAggregationModeError(attribute string, modType batch.ModType) *AggregationModeError {
	return &AggregationModeError{Attribute: attribute, ModType: modType}
}

// BatchModeError is returned when a converter does not support a modification type.
type BatchModeError struct {
	Attribute string
	Converter string
	ModType   batch.ModType
}

func (e *BatchModeError) Error() string {
	return fmt.Sprintf("converter %q does not support %s modifications of attribute %q", e.Converter, e.ModType, e.Attribute)
}

// NewBatchModeError creates a new batch mode error.
func NewBatchModeError(attribute, converterName string, modType batch.ModType) *BatchModeError {
	return &BatchModeError{
		Attribute: attribute,
		Converter: converterName,
		ModType:   modType,
	}
}

// MissingRequiredError lists required attributes absent from an entry.
type MissingRequiredError struct {
	Attributes []string
}

func (e *MissingRequiredError) Error() string {
	return fmt.Sprintf("missing required attributes: %s", strings.Join(e.Attributes, ", "))
}
