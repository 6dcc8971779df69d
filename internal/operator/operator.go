// Package operator provides the filter tree the query builder hands to the
// value resolvers: comparison leaves grouped by And, Or and Not nodes.
package operator

import (
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// Operator is a comparison performed by a leaf.
type Operator string

const (
	Equal          Operator = "="
	ApproxEqual    Operator = "~="
	GreaterOrEqual Operator = ">="
	LessOrEqual    Operator = "<="
	Present        Operator = "=*"
	Contains       Operator = "contains"
	StartsWith     Operator = "starts_with"
	EndsWith       Operator = "ends_with"
	MatchBitAnd    Operator = "1.2.840.113556.1.4.803"  // LDAP_MATCHING_RULE_BIT_AND
	MatchBitOr     Operator = "1.2.840.113556.1.4.804"  // LDAP_MATCHING_RULE_BIT_OR
	MatchInChain   Operator = "1.2.840.113556.1.4.1941" // LDAP_MATCHING_RULE_IN_CHAIN
)

// IsMatchingRule reports whether the operator is an extensible match rule OID.
func (o Operator) IsMatchingRule() bool {
	switch o {
	case MatchBitAnd, MatchBitOr, MatchInChain:
		return true
	default:
		return false
	}
}

// Node is an element of a filter tree.
type Node interface {
	// Filter renders the node as an RFC 4515 filter string.
	Filter() (string, error)
}

// Comparison is a leaf node comparing one attribute with a value.
type Comparison struct {
	Attribute string
	Operator  Operator
	Value     any // string, []byte, bool, number, or a slice of those
	Negated   bool

	converterApplied bool
}

// NewComparison creates a leaf node.
func NewComparison(attribute string, op Operator, value any) *Comparison {
	return &Comparison{Attribute: attribute, Operator: op, Value: value}
}

// Eq is shorthand for an equality comparison.
func Eq(attribute string, value any) *Comparison {
	return NewComparison(attribute, Equal, value)
}

// IsConverterApplied reports whether the value has already been converted to wire form.
func (c *Comparison) IsConverterApplied() bool {
	return c.converterApplied
}

// SetConverterApplied marks the value as converted.
func (c *Comparison) SetConverterApplied(applied bool) {
	c.converterApplied = applied
}

// Filter renders the comparison. A slice value renders as an OR of comparisons.
func (c *Comparison) Filter() (string, error) {
	if c.Attribute == "" {
		return "", fmt.Errorf("comparison attribute cannot be empty")
	}

	values := valueStrings(c.Value)

	var filter string
	switch {
	case c.Operator == Present:
		filter = fmt.Sprintf("(%s=*)", c.Attribute)
	case len(values) == 0:
		return "", fmt.Errorf("comparison on %s requires a value", c.Attribute)
	case len(values) == 1:
		f, err := c.render(values[0])
		if err != nil {
			return "", err
		}
		filter = f
	default:
		var sb strings.Builder
		sb.WriteString("(|")
		for _, v := range values {
			f, err := c.render(v)
			if err != nil {
				return "", err
			}
			sb.WriteString(f)
		}
		sb.WriteString(")")
		filter = sb.String()
	}

	if c.Negated {
		filter = "(!" + filter + ")"
	}

	return filter, nil
}

func (c *Comparison) render(value string) (string, error) {
	escaped := ldap.EscapeFilter(value)

	switch c.Operator {
	case Equal, ApproxEqual, GreaterOrEqual, LessOrEqual:
		return fmt.Sprintf("(%s%s%s)", c.Attribute, c.Operator, escaped), nil
	case Contains:
		return fmt.Sprintf("(%s=*%s*)", c.Attribute, escaped), nil
	case StartsWith:
		return fmt.Sprintf("(%s=%s*)", c.Attribute, escaped), nil
	case EndsWith:
		return fmt.Sprintf("(%s=*%s)", c.Attribute, escaped), nil
	case MatchBitAnd, MatchBitOr, MatchInChain:
		return fmt.Sprintf("(%s:%s:=%s)", c.Attribute, c.Operator, escaped), nil
	default:
		return "", fmt.Errorf("unsupported operator %q on %s", c.Operator, c.Attribute)
	}
}

// GroupType identifies a composite node.
type GroupType string

const (
	And GroupType = "&"
	Or  GroupType = "|"
	Not GroupType = "!"
)

// Group is a composite node holding ordered children.
type Group struct {
	Type     GroupType
	Children []Node
}

// NewAnd creates an And node.
func NewAnd(children ...Node) *Group {
	return &Group{Type: And, Children: children}
}

// NewOr creates an Or node.
func NewOr(children ...Node) *Group {
	return &Group{Type: Or, Children: children}
}

// NewNot creates a Not node.
func NewNot(child Node) *Group {
	return &Group{Type: Not, Children: []Node{child}}
}

// Filter renders the group and its children.
func (g *Group) Filter() (string, error) {
	if g.Type == Not && len(g.Children) != 1 {
		return "", fmt.Errorf("not operator requires exactly one child, got %d", len(g.Children))
	}
	if len(g.Children) == 0 {
		return "", fmt.Errorf("%s operator requires at least one child", g.Type)
	}

	var sb strings.Builder
	sb.WriteString("(")
	sb.WriteString(string(g.Type))
	for _, child := range g.Children {
		f, err := child.Filter()
		if err != nil {
			return "", err
		}
		sb.WriteString(f)
	}
	sb.WriteString(")")

	return sb.String(), nil
}

// Compile renders a tree and checks the result parses as an LDAP filter.
func Compile(node Node) (string, error) {
	filter, err := node.Filter()
	if err != nil {
		return "", err
	}

	if _, err := ldap.CompileFilter(filter); err != nil {
		return "", fmt.Errorf("invalid filter %s: %w", filter, err)
	}

	return filter, nil
}

// Walk calls fn for every leaf in the tree, depth first.
func Walk(node Node, fn func(*Comparison) error) error {
	switch n := node.(type) {
	case *Comparison:
		return fn(n)
	case *Group:
		for _, child := range n.Children {
			if err := Walk(child, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

func valueStrings(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, valueString(item))
		}
		return out
	default:
		return []string{valueString(v)}
	}
}

func valueString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case bool:
		if v {
			return "TRUE"
		}
		return "FALSE"
	default:
		return fmt.Sprint(v)
	}
}
