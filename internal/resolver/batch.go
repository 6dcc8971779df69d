package resolver

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/isometry/ldap-attribute-resolver/internal/batch"
	"github.com/isometry/ldap-attribute-resolver/internal/converter"
	"github.com/isometry/ldap-attribute-resolver/internal/ldap"
	"github.com/isometry/ldap-attribute-resolver/internal/schema"
)

// BatchValueResolver converts the values of a batch collection for a modify
// operation. The collection is modified in place.
type BatchValueResolver struct {
	valueResolver
	batches *batch.Collection

	current int
	removed map[int]bool
}

// NewBatchValueResolver creates a resolver for one batch collection.
func NewBatchValueResolver(s schema.Metadata, factory converter.Factory, batches *batch.Collection) *BatchValueResolver {
	r := &BatchValueResolver{
		valueResolver: newValueResolver(s, factory, converter.OperationModify),
		batches:       batches,
	}
	r.iterateAggregates = r.aggregateBatches

	return r
}

// ToLDAP converts every batch to wire values. Batches of aggregated attributes
// are folded into a single replace of the wire attribute.
func (r *BatchValueResolver) ToLDAP(ctx context.Context) (*batch.Collection, error) {
	r.reset()
	r.removed = make(map[int]bool)

	fields := map[string]any{
		"batches": r.batches.Len(),
		"dn":      r.dn,
	}

	err := ldap.LogOperation(ctx, ldap.SubsystemResolver, "resolve_batches_to_ldap", fields, func() error {
		defer func() { r.batch = nil }()

		for i := 0; i < r.batches.Len(); i++ {
			if r.removed[i] {
				continue
			}
			if err := r.resolveBatch(ctx, i, r.batches.Get(i)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.batches.RemoveIndices(slices.Sorted(maps.Keys(r.removed)))

	return r.batches, nil
}

func (r *BatchValueResolver) resolveBatch(ctx context.Context, i int, b *batch.Batch) error {
	if !r.schema.HasConverter(b.Attribute) {
		if b.IsType(batch.ModResetAll) {
			return nil
		}

		values, err := encodeRawValues(b.Values)
		if err != nil {
			return fmt.Errorf("attribute %s: %w", b.Attribute, err)
		}
		b.Values = values
		return nil
	}

	r.current = i
	r.batch = b

	if b.IsType(batch.ModResetAll) {
		return r.checkReset(b)
	}

	values, err := r.convertedValues(ctx, b.Values, b.Attribute, toLDAP, nil)
	if err != nil {
		return err
	}

	if r.isAggregated(b.Attribute) {
		b.Attribute = r.schema.AttributeToLDAP(b.Attribute)
	}
	b.Values = values

	return nil
}

// checkReset rejects clearing an aggregated attribute, which would also
// clear every sibling.
func (r *BatchValueResolver) checkReset(b *batch.Batch) error {
	conv, err := r.newConverter(b.Attribute)
	if err != nil {
		return err
	}

	if conv.WantsAggregation() {
		return NewAggregationModeError(b.Attribute, b.ModType)
	}

	return nil
}

func (r *BatchValueResolver) aggregateBatches(ctx context.Context, siblings []string, _ []any, conv converter.Converter) (any, error) {
	defer conv.SetBatch(r.batch)

	var last any

	for i := 0; i < r.batches.Len(); i++ {
		b := r.batches.Get(i)
		if r.removed[i] || !slices.ContainsFunc(siblings, func(s string) bool {
			return strings.EqualFold(s, b.Attribute)
		}) {
			continue
		}

		if !b.IsType(batch.ModReplace) {
			return nil, NewAggregationModeError(b.Attribute, b.ModType)
		}
		if len(b.Values) == 0 {
			return nil, NewInvalidArgumentError(b.Attribute, "", "a replace of an aggregated attribute needs a value")
		}

		conv.SetBatch(b)
		values, err := r.convertedValues(ctx, b.Values, b.Attribute, toLDAP, conv)
		if err != nil {
			return nil, err
		}

		last = collapse(values)
		conv.SetLastValue(last)
		r.markAggregated(b.Attribute)

		if i != r.current {
			r.removed[i] = true
		}
	}

	return last, nil
}
