// Package converter defines the value converters that translate logical
// attribute values to and from their wire representation.
package converter

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/isometry/ldap-attribute-resolver/internal/batch"
	"github.com/isometry/ldap-attribute-resolver/internal/ldap"
	"github.com/isometry/ldap-attribute-resolver/internal/operator"
)

// Operation identifies the kind of pass a converter is used in.
type Operation int

const (
	OperationCreate     Operation = iota // Building a new entry
	OperationModify                      // Modifying an existing entry
	OperationSearchTo                    // Converting filter values to wire form
	OperationSearchFrom                  // Converting search results to logical form
)

// String returns the string representation of the operation.
func (o Operation) String() string {
	switch o {
	case OperationCreate:
		return "create"
	case OperationModify:
		return "modify"
	case OperationSearchTo:
		return "search_to"
	case OperationSearchFrom:
		return "search_from"
	default:
		return "unknown"
	}
}

// Converter translates one attribute value between logical and wire form.
// A converter instance is configured for a single attribute of a single pass.
type Converter interface {
	ToLDAP(ctx context.Context, value any) (string, error)
	FromLDAP(ctx context.Context, value string) (any, error)

	SetOptions(options map[string]any)
	SetConnection(conn ldap.Connection)
	SetDN(dn string)
	SetOperation(op Operation)
	SetAttribute(name string)
	SetBatch(b *batch.Batch)
	SetLastValue(value any)
	LastValue() any

	// WantsAggregation reports whether several logical attributes fold into
	// one wire attribute through this converter.
	WantsAggregation() bool

	// SupportsBatch reports whether the converter can handle a modification.
	SupportsBatch(b *batch.Batch) bool
}

// Remover is implemented by converters that need attributes dropped from
// the resolved output.
type Remover interface {
	AttributesToRemove() []string
}

// QueryConverter is implemented by converters that rewrite a filter leaf
// in place instead of converting its value.
type QueryConverter interface {
	ToQuery(ctx context.Context, c *operator.Comparison) error
}

// Base implements the configuration part of Converter. Concrete converters
// embed it and provide ToLDAP and FromLDAP.
type Base struct {
	options    map[string]any
	connection ldap.Connection
	dn         string
	operation  Operation
	attribute  string
	batch      *batch.Batch
	lastValue  any
}

func (b *Base) SetOptions(options map[string]any)  { b.options = options }
func (b *Base) SetConnection(conn ldap.Connection) { b.connection = conn }
func (b *Base) SetDN(dn string)                    { b.dn = dn }
func (b *Base) SetOperation(op Operation)          { b.operation = op }
func (b *Base) SetAttribute(name string)           { b.attribute = name }
func (b *Base) SetBatch(bt *batch.Batch)           { b.batch = bt }
func (b *Base) SetLastValue(value any)             { b.lastValue = value }
func (b *Base) LastValue() any                     { return b.lastValue }

func (b *Base) Options() map[string]any     { return b.options }
func (b *Base) Connection() ldap.Connection { return b.connection }
func (b *Base) DN() string                  { return b.dn }
func (b *Base) Operation() Operation        { return b.operation }
func (b *Base) Attribute() string           { return b.attribute }
func (b *Base) Batch() *batch.Batch         { return b.batch }

func (b *Base) WantsAggregation() bool { return false }

func (b *Base) SupportsBatch(*batch.Batch) bool { return true }

// supportsReplaceOnly is shared by converters of single-valued attributes.
func supportsReplaceOnly(b *batch.Batch) bool {
	return b == nil || b.ModType == batch.ModReplace || b.ModType == batch.ModResetAll
}

// parseBool accepts bool values and the usual string spellings of them.
func parseBool(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes", "on":
			return true, nil
		case "false", "0", "no", "off", "":
			return false, nil
		}
		return false, fmt.Errorf("expected a boolean, got %q", v)
	case int:
		return v != 0, nil
	case int64:
		return v != 0, nil
	default:
		return false, fmt.Errorf("expected a boolean, got %T", value)
	}
}

// parseInt accepts integer values and their decimal string form.
func parseInt(value any) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint32:
		return int64(v), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("expected an integer, got %q", v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("expected an integer, got %T", value)
	}
}
