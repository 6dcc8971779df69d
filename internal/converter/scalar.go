package converter

import (
	"context"
	"fmt"
	"strconv"

	"github.com/isometry/ldap-attribute-resolver/internal/batch"
)

// Bool converts between Go booleans and the LDAP Boolean syntax (TRUE/FALSE).
type Bool struct {
	Base
}

func (c *Bool) ToLDAP(_ context.Context, value any) (string, error) {
	b, err := parseBool(value)
	if err != nil {
		return "", fmt.Errorf("attribute %s: %w", c.Attribute(), err)
	}
	if b {
		return "TRUE", nil
	}
	return "FALSE", nil
}

func (c *Bool) FromLDAP(_ context.Context, value string) (any, error) {
	b, err := parseBool(value)
	if err != nil {
		return nil, fmt.Errorf("attribute %s: %w", c.Attribute(), err)
	}
	return b, nil
}

func (c *Bool) SupportsBatch(b *batch.Batch) bool {
	return supportsReplaceOnly(b)
}

// Int converts between Go integers and the LDAP Integer syntax.
type Int struct {
	Base
}

func (c *Int) ToLDAP(_ context.Context, value any) (string, error) {
	n, err := parseInt(value)
	if err != nil {
		return "", fmt.Errorf("attribute %s: %w", c.Attribute(), err)
	}
	return strconv.FormatInt(n, 10), nil
}

func (c *Int) FromLDAP(_ context.Context, value string) (any, error) {
	n, err := parseInt(value)
	if err != nil {
		return nil, fmt.Errorf("attribute %s: %w", c.Attribute(), err)
	}
	return n, nil
}
