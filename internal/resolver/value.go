package resolver

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/isometry/ldap-attribute-resolver/internal/batch"
	"github.com/isometry/ldap-attribute-resolver/internal/converter"
	"github.com/isometry/ldap-attribute-resolver/internal/ldap"
	"github.com/isometry/ldap-attribute-resolver/internal/schema"
)

type direction int

const (
	toLDAP direction = iota
	fromLDAP
)

func (d direction) String() string {
	if d == toLDAP {
		return "to_ldap"
	}
	return "from_ldap"
}

// aggregateFunc folds the values of every sibling of an aggregated attribute
// through one converter and returns the converter's final value.
type aggregateFunc func(ctx context.Context, siblings []string, values []any, conv converter.Converter) (any, error)

// valueResolver holds the converter lookup, application and aggregation
// bookkeeping shared by the attribute, batch and operator resolvers.
type valueResolver struct {
	schema     schema.Metadata
	factory    converter.Factory
	operation  converter.Operation
	connection ldap.Connection
	dn         string

	// batch is the modification currently being resolved, if any.
	batch *batch.Batch

	aggregated map[string]bool
	converters []converter.Converter

	iterateAggregates aggregateFunc
}

func newValueResolver(s schema.Metadata, factory converter.Factory, op converter.Operation) valueResolver {
	return valueResolver{
		schema:     s,
		factory:    factory,
		operation:  op,
		aggregated: make(map[string]bool),
	}
}

// SetConnection sets the connection handed to converters that read from the directory.
func (r *valueResolver) SetConnection(conn ldap.Connection) {
	r.connection = conn
}

// SetDN sets the DN of the entry being resolved.
func (r *valueResolver) SetDN(dn string) error {
	normalized, err := ldap.NormalizeDN(dn)
	if err != nil {
		return err
	}

	r.dn = normalized
	return nil
}

// reset clears the state of a previous pass.
func (r *valueResolver) reset() {
	r.aggregated = make(map[string]bool)
	r.converters = nil
	r.batch = nil
}

func (r *valueResolver) markAggregated(attribute string) {
	r.aggregated[strings.ToLower(attribute)] = true
}

func (r *valueResolver) isAggregated(attribute string) bool {
	return r.aggregated[strings.ToLower(attribute)]
}

// newConverter builds a converter configured for one attribute of this pass.
func (r *valueResolver) newConverter(attribute string) (converter.Converter, error) {
	name := r.schema.Converter(attribute)

	conv, err := r.factory.Get(name)
	if err != nil {
		return nil, fmt.Errorf("attribute %s: %w", attribute, err)
	}

	conv.SetOptions(converterOptions(r.schema, name))
	conv.SetConnection(r.connection)
	conv.SetDN(r.dn)
	conv.SetOperation(r.operation)
	conv.SetAttribute(attribute)
	conv.SetBatch(r.batch)

	r.converters = append(r.converters, conv)

	return conv, nil
}

// convertedValues applies the attribute's converter to every value. When no
// converter is passed in and the new one wants aggregation, the values of
// all sibling attributes are folded into one result instead.
func (r *valueResolver) convertedValues(ctx context.Context, values any, attribute string, dir direction, existing converter.Converter) ([]any, error) {
	list := valueList(values)

	conv := existing
	if conv == nil {
		var err error
		if conv, err = r.newConverter(attribute); err != nil {
			return nil, err
		}

		if dir == toLDAP && r.batch != nil && !conv.SupportsBatch(r.batch) {
			return nil, NewBatchModeError(attribute, r.schema.Converter(attribute), r.batch.ModType)
		}

		if dir == toLDAP && conv.WantsAggregation() {
			return r.aggregate(ctx, attribute, list, conv)
		}
	} else {
		conv.SetAttribute(attribute)
	}

	out := make([]any, 0, len(list))
	for _, value := range list {
		converted, err := convertValue(ctx, conv, value, dir)
		if err != nil {
			return nil, err
		}
		ldap.LogConversion(ctx, attribute, dir.String(), value, converted)
		out = append(out, converted)
	}

	return out, nil
}

func (r *valueResolver) aggregate(ctx context.Context, attribute string, values []any, conv converter.Converter) ([]any, error) {
	r.markAggregated(attribute)
	siblings := r.siblings(attribute)

	ldap.NewTFLogger(ctx, ldap.SubsystemResolver).Debug("Aggregating attribute values", map[string]any{
		"attribute":      attribute,
		"wire_attribute": r.schema.AttributeToLDAP(attribute),
		"siblings":       siblings,
	})

	// The last value only ever carries the accumulated wire value.
	conv.SetLastValue(nil)

	result, err := r.iterateAggregates(ctx, siblings, values, conv)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}

	return valueList(result), nil
}

// siblings returns the logical attributes sharing the converter and wire
// attribute of attribute, itself included.
func (r *valueResolver) siblings(attribute string) []string {
	name := r.schema.Converter(attribute)
	wire := r.schema.AttributeToLDAP(attribute)

	var siblings []string
	for _, candidate := range r.schema.NamesWithConverter(name) {
		if strings.EqualFold(r.schema.AttributeToLDAP(candidate), wire) {
			siblings = append(siblings, candidate)
		}
	}

	return siblings
}

// attributesToRemove collects the names flagged by converters used in this pass.
func (r *valueResolver) attributesToRemove() []string {
	var names []string
	for _, conv := range r.converters {
		if remover, ok := conv.(converter.Remover); ok {
			names = append(names, remover.AttributesToRemove()...)
		}
	}
	return names
}

func convertValue(ctx context.Context, conv converter.Converter, value any, dir direction) (any, error) {
	if dir == toLDAP {
		return conv.ToLDAP(ctx, value)
	}

	// An absent wire value has nothing to convert.
	if value == nil {
		return nil, nil
	}

	wire, err := wireString(value)
	if err != nil {
		return nil, err
	}
	return conv.FromLDAP(ctx, wire)
}

func converterOptions(s schema.Metadata, name string) map[string]any {
	for key, options := range s.ConverterOptions() {
		if strings.EqualFold(key, name) {
			return options
		}
	}
	return nil
}

// valueList normalizes a scalar or slice into a list of values.
func valueList(values any) []any {
	switch v := values.(type) {
	case []any:
		out := make([]any, len(v))
		copy(out, v)
		return out
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	default:
		return []any{v}
	}
}

// collapse returns the only element of a single-element list, or the list.
func collapse(values []any) any {
	if len(values) == 1 {
		return values[0]
	}
	return values
}

// wireList returns converted wire values, collapsing a single value.
func wireList(values []any) any {
	if len(values) == 1 {
		return values[0]
	}

	out := make([]string, 0, len(values))
	for _, v := range values {
		s, err := encodeScalar(v)
		if err != nil {
			return values
		}
		out = append(out, s)
	}
	return out
}

func wireString(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("expected a wire string, got %T", value)
	}
}

// encodeRaw encodes a value of an attribute without a converter.
// Scalars stay scalars and lists become []string.
func encodeRaw(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, err := encodeScalar(item)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return encodeScalar(v)
	}
}

func encodeRawValues(values []any) ([]any, error) {
	out := make([]any, 0, len(values))
	for _, v := range values {
		s, err := encodeScalar(v)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func encodeScalar(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case bool:
		if v {
			return "TRUE", nil
		}
		return "FALSE", nil
	case int:
		return strconv.Itoa(v), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint32:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", value)
	}
}

// decodeRaw decodes a wire value of an attribute without a converter.
func decodeRaw(value any) any {
	switch v := value.(type) {
	case []byte:
		return string(v)
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	default:
		return v
	}
}
