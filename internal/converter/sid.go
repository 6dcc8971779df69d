package converter

import (
	"context"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/go-objectsid"
)

// WindowsSID converts between the binary objectSid wire form and S-1-... strings.
type WindowsSID struct {
	Base
}

// ToLDAP encodes a SID string into its binary form.
func (c *WindowsSID) ToLDAP(_ context.Context, value any) (string, error) {
	var sid string
	switch v := value.(type) {
	case string:
		sid = strings.TrimSpace(v)
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("attribute %s: expected a SID string, got %T", c.Attribute(), value)
	}

	encoded, err := EncodeSID(sid)
	if err != nil {
		return "", fmt.Errorf("attribute %s: %w", c.Attribute(), err)
	}

	return string(encoded), nil
}

// FromLDAP decodes a binary SID. Values already in string form are returned unchanged.
func (c *WindowsSID) FromLDAP(_ context.Context, value string) (any, error) {
	if strings.HasPrefix(value, "S-") && ValidateSIDString(value) == nil {
		return value, nil
	}

	// Revision byte, sub-authority count, 6-byte authority.
	if len(value) < 8 || len(value) < 8+4*int(value[1]) {
		return nil, fmt.Errorf("attribute %s: binary SID is too short (%d bytes)", c.Attribute(), len(value))
	}

	sid := objectsid.Decode([]byte(value))
	return sid.String(), nil
}

// ValidateSIDString validates that a string is a properly formatted SID.
func ValidateSIDString(sid string) error {
	if sid == "" {
		return fmt.Errorf("SID string cannot be empty")
	}

	if len(sid) < 5 || sid[:2] != "S-" {
		return fmt.Errorf("invalid SID format: must start with 'S-'")
	}

	parts := strings.Split(sid[2:], "-")
	if len(parts) < 2 {
		return fmt.Errorf("invalid SID format: %s", sid)
	}
	for _, part := range parts {
		if _, err := strconv.ParseUint(part, 10, 64); err != nil {
			return fmt.Errorf("invalid SID component %q in %s", part, sid)
		}
	}

	return nil
}

// EncodeSID converts S-R-I-S-S... into the binary layout stored by Active Directory:
// revision, sub-authority count, 48-bit big-endian authority, then
// little-endian 32-bit sub-authorities.
func EncodeSID(sid string) ([]byte, error) {
	if err := ValidateSIDString(sid); err != nil {
		return nil, err
	}

	parts := strings.Split(sid[2:], "-")

	revision, err := strconv.ParseUint(parts[0], 10, 8)
	if err != nil {
		return nil, fmt.Errorf("invalid SID revision in %s", sid)
	}

	authority, err := strconv.ParseUint(parts[1], 10, 48)
	if err != nil {
		return nil, fmt.Errorf("invalid SID authority in %s", sid)
	}

	subAuthorities := parts[2:]
	if len(subAuthorities) > 15 {
		return nil, fmt.Errorf("SID %s has too many sub-authorities", sid)
	}

	out := make([]byte, 8+4*len(subAuthorities))
	out[0] = byte(revision)
	out[1] = byte(len(subAuthorities))
	for i := range 6 {
		out[2+i] = byte(authority >> (8 * (5 - i)))
	}

	for i, part := range subAuthorities {
		sub, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid SID sub-authority %q in %s", part, sid)
		}
		binary.LittleEndian.PutUint32(out[8+4*i:], uint32(sub))
	}

	return out, nil
}
