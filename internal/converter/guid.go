package converter

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// GUIDBytesLength is the size of a binary objectGUID.
const GUIDBytesLength = 16

// WindowsGUID converts between the mixed-endian objectGUID wire form and
// canonical lower-case GUID strings.
type WindowsGUID struct {
	Base
}

// ToLDAP encodes a hyphenated or compact GUID string into Active Directory byte order.
func (c *WindowsGUID) ToLDAP(_ context.Context, value any) (string, error) {
	var s string
	switch v := value.(type) {
	case string:
		s = strings.TrimSpace(v)
	case uuid.UUID:
		s = v.String()
	case []byte:
		if len(v) != GUIDBytesLength {
			return "", fmt.Errorf("attribute %s: invalid GUID byte length: expected %d, got %d", c.Attribute(), GUIDBytesLength, len(v))
		}
		return string(v), nil
	default:
		return "", fmt.Errorf("attribute %s: expected a GUID string, got %T", c.Attribute(), value)
	}

	id, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("attribute %s: invalid GUID format %q: %w", c.Attribute(), s, err)
	}

	return string(swapGUIDBytes(id[:])), nil
}

// FromLDAP decodes a binary objectGUID. Values already in string form are
// normalized and returned.
func (c *WindowsGUID) FromLDAP(_ context.Context, value string) (any, error) {
	if len(value) != GUIDBytesLength {
		id, err := uuid.Parse(value)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: invalid GUID byte length: expected %d, got %d", c.Attribute(), GUIDBytesLength, len(value))
		}
		return id.String(), nil
	}

	id, err := uuid.FromBytes(swapGUIDBytes([]byte(value)))
	if err != nil {
		return nil, fmt.Errorf("attribute %s: %w", c.Attribute(), err)
	}

	return id.String(), nil
}

// swapGUIDBytes converts between RFC 4122 byte order and the Active Directory
// layout, where Data1, Data2 and Data3 are little-endian and Data4 is unchanged.
// The transform is its own inverse.
func swapGUIDBytes(in []byte) []byte {
	out := make([]byte, GUIDBytesLength)

	out[0], out[1], out[2], out[3] = in[3], in[2], in[1], in[0]
	out[4], out[5] = in[5], in[4]
	out[6], out[7] = in[7], in[6]
	copy(out[8:], in[8:])

	return out
}
