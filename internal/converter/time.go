package converter

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/isometry/ldap-attribute-resolver/internal/batch"
)

// adEpoch is the number of 100-nanosecond intervals between 1601-01-01 and 1970-01-01.
const adEpoch = 116444736000000000

const ticksPerSecond = 10_000_000

// Unix second bounds of a FILETIME held in an int64.
const (
	minFiletimeSeconds = -adEpoch / ticksPerSecond
	maxFiletimeSeconds = (math.MaxInt64 - adEpoch) / ticksPerSecond
)

// GeneralizedTimeLayout is the layout Active Directory uses for whenCreated/whenChanged.
const GeneralizedTimeLayout = "20060102150405.0Z"

// WindowsTime converts between time.Time and Windows FILETIME integers
// (100-nanosecond intervals since 1601). "0" and the maximum int64 mean never.
type WindowsTime struct {
	Base
}

// ToLDAP encodes a time. A nil value or the string "never" encodes as "0".
func (c *WindowsTime) ToLDAP(_ context.Context, value any) (string, error) {
	t, never, err := parseTime(value)
	if err != nil {
		return "", fmt.Errorf("attribute %s: %w", c.Attribute(), err)
	}
	if never {
		return "0", nil
	}

	secs := t.Unix()
	if secs < minFiletimeSeconds || secs > maxFiletimeSeconds {
		return "", fmt.Errorf("attribute %s: time %s is out of range", c.Attribute(), t)
	}

	// Only the last representable second can wrap.
	ticks := secs*ticksPerSecond + int64(t.Nanosecond()/100) + adEpoch
	if ticks < 0 {
		return "", fmt.Errorf("attribute %s: time %s is out of range", c.Attribute(), t)
	}

	return strconv.FormatInt(ticks, 10), nil
}

// FromLDAP decodes a FILETIME. Never-set values decode to nil.
func (c *WindowsTime) FromLDAP(_ context.Context, value string) (any, error) {
	ticks, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("attribute %s: failed to parse timestamp: %w", c.Attribute(), err)
	}

	if ticks == 0 || ticks == math.MaxInt64 {
		return nil, nil
	}

	if ticks < 0 {
		return nil, fmt.Errorf("attribute %s: negative timestamp %d", c.Attribute(), ticks)
	}

	unix := ticks - adEpoch
	return time.Unix(unix/ticksPerSecond, (unix%ticksPerSecond)*100).UTC(), nil
}

func (c *WindowsTime) SupportsBatch(b *batch.Batch) bool {
	return supportsReplaceOnly(b)
}

// GeneralizedTime converts between time.Time and the LDAP GeneralizedTime syntax.
type GeneralizedTime struct {
	Base
}

func (c *GeneralizedTime) ToLDAP(_ context.Context, value any) (string, error) {
	t, never, err := parseTime(value)
	if err != nil {
		return "", fmt.Errorf("attribute %s: %w", c.Attribute(), err)
	}
	if never {
		return "", fmt.Errorf("attribute %s: a time value is required", c.Attribute())
	}

	return t.UTC().Format(GeneralizedTimeLayout), nil
}

func (c *GeneralizedTime) FromLDAP(_ context.Context, value string) (any, error) {
	for _, layout := range []string{GeneralizedTimeLayout, "20060102150405Z", "20060102150405Z0700"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}

	return nil, fmt.Errorf("attribute %s: invalid generalized time %q", c.Attribute(), value)
}

func (c *GeneralizedTime) SupportsBatch(b *batch.Batch) bool {
	return supportsReplaceOnly(b)
}

// parseTime accepts time.Time, RFC 3339 strings, and nil/"never".
func parseTime(value any) (time.Time, bool, error) {
	switch v := value.(type) {
	case nil:
		return time.Time{}, true, nil
	case time.Time:
		if v.IsZero() {
			return time.Time{}, true, nil
		}
		return v, false, nil
	case *time.Time:
		if v == nil || v.IsZero() {
			return time.Time{}, true, nil
		}
		return *v, false, nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" || strings.EqualFold(s, "never") {
			return time.Time{}, true, nil
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("expected an RFC 3339 time, got %q", v)
		}
		return t, false, nil
	default:
		return time.Time{}, false, fmt.Errorf("expected a time, got %T", value)
	}
}
