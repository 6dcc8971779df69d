package resolver

import (
	"context"

	"github.com/isometry/ldap-attribute-resolver/internal/converter"
	"github.com/isometry/ldap-attribute-resolver/internal/ldap"
	"github.com/isometry/ldap-attribute-resolver/internal/operator"
	"github.com/isometry/ldap-attribute-resolver/internal/schema"
)

// OperatorValueResolver converts the leaves of a filter tree to wire names
// and values. The tree is modified in place and keeps its shape.
type OperatorValueResolver struct {
	valueResolver
	root operator.Node
}

// NewOperatorValueResolver creates a resolver for one filter tree.
func NewOperatorValueResolver(s schema.Metadata, factory converter.Factory, root operator.Node) *OperatorValueResolver {
	r := &OperatorValueResolver{
		valueResolver: newValueResolver(s, factory, converter.OperationSearchTo),
		root:          root,
	}
	r.iterateAggregates = r.convertLeaf

	return r
}

// ToLDAP converts every leaf of the tree.
func (r *OperatorValueResolver) ToLDAP(ctx context.Context) (operator.Node, error) {
	r.reset()

	err := ldap.LogOperation(ctx, ldap.SubsystemResolver, "resolve_filter_to_ldap", nil, func() error {
		return operator.Walk(r.root, func(c *operator.Comparison) error {
			return r.resolveComparison(ctx, c)
		})
	})
	if err != nil {
		return nil, err
	}

	return r.root, nil
}

func (r *OperatorValueResolver) resolveComparison(ctx context.Context, c *operator.Comparison) error {
	attribute := c.Attribute

	if !c.IsConverterApplied() && c.Operator != operator.Present && r.schema.HasConverter(attribute) {
		conv, err := r.newConverter(attribute)
		if err != nil {
			return err
		}

		if query, ok := conv.(converter.QueryConverter); ok {
			if err := query.ToQuery(ctx, c); err != nil {
				return err
			}
		} else {
			values, err := r.convertedValues(ctx, c.Value, attribute, toLDAP, nil)
			if err != nil {
				return err
			}
			c.Value = collapse(values)
		}

		c.SetConverterApplied(true)
	}

	c.Attribute = r.schema.AttributeToLDAP(attribute)

	return nil
}

// convertLeaf converts only the values of the leaf being resolved. A filter
// compares each attribute on its own, so siblings are not folded in.
func (r *OperatorValueResolver) convertLeaf(ctx context.Context, _ []string, values []any, conv converter.Converter) (any, error) {
	out := make([]any, 0, len(values))
	for _, value := range values {
		converted, err := conv.ToLDAP(ctx, value)
		if err != nil {
			return nil, err
		}
		out = append(out, converted)
	}

	return collapse(out), nil
}
