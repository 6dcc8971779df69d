package converter

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/isometry/ldap-attribute-resolver/internal/ldap"
	"github.com/isometry/ldap-attribute-resolver/internal/operator"
)

// User Account Control flags (from Microsoft documentation).
const (
	UACAccountDisabled         int64 = 0x00000002
	UACHomeDirRequired         int64 = 0x00000008
	UACPasswordNotRequired     int64 = 0x00000020
	UACPasswordCantChange      int64 = 0x00000040
	UACEncryptedTextPwdAllowed int64 = 0x00000080
	UACNormalAccount           int64 = 0x00000200
	UACPasswordNeverExpires    int64 = 0x00010000
	UACSmartCardRequired       int64 = 0x00040000
	UACTrustedForDelegation    int64 = 0x00080000
	UACNotDelegated            int64 = 0x00100000
	UACUseDesKeyOnly           int64 = 0x00200000
	UACDontRequirePreauth      int64 = 0x00400000
	UACPasswordExpired         int64 = 0x00800000
	UACTrustedToAuthForDeleg   int64 = 0x01000000
)

// Group type flags.
const (
	GroupTypeFlagGlobal      int64 = 0x00000002
	GroupTypeFlagDomainLocal int64 = 0x00000004
	GroupTypeFlagUniversal   int64 = 0x00000008
	GroupTypeFlagSecurity    int64 = 0x80000000
)

// FlagsOptions configures a bitmask converter.
type FlagsOptions struct {
	Attribute string           `mapstructure:"attribute"`              // Wire attribute holding the bitmask
	Default   int64            `mapstructure:"default"`                // Base value when nothing else is known
	Flags     map[string]int64 `mapstructure:"flags"`                  // Logical attribute name to bit value
	Invert    []string         `mapstructure:"invert"`                 // Logical names whose true means the bit is unset
	Refresh   bool             `mapstructure:"refresh" default:"true"` // Read the current value on modify
}

// UserAccountControlOptions returns the preset for the userAccountControl bitmask.
func UserAccountControlOptions() FlagsOptions {
	return FlagsOptions{
		Attribute: "userAccountControl",
		Default:   UACNormalAccount,
		Flags: map[string]int64{
			"disabled":                   UACAccountDisabled,
			"enabled":                    UACAccountDisabled,
			"passwordNotRequired":        UACPasswordNotRequired,
			"passwordCantChange":         UACPasswordCantChange,
			"passwordNeverExpires":       UACPasswordNeverExpires,
			"smartCardRequired":          UACSmartCardRequired,
			"trustedForAllDelegation":    UACTrustedForDelegation,
			"notDelegated":               UACNotDelegated,
			"useDesKeyOnly":              UACUseDesKeyOnly,
			"dontRequirePreauth":         UACDontRequirePreauth,
			"passwordIsExpired":          UACPasswordExpired,
			"trustedToAuthForDelegation": UACTrustedToAuthForDeleg,
		},
		Invert: []string{"enabled"},
	}
}

// GroupTypeOptions returns the preset for the groupType bitmask.
func GroupTypeOptions() FlagsOptions {
	return FlagsOptions{
		Attribute: "groupType",
		Default:   GroupTypeFlagGlobal | GroupTypeFlagSecurity,
		Flags: map[string]int64{
			"scopeGlobal":      GroupTypeFlagGlobal,
			"scopeDomainLocal": GroupTypeFlagDomainLocal,
			"scopeUniversal":   GroupTypeFlagUniversal,
			"typeSecurity":     GroupTypeFlagSecurity,
			"typeDistribution": GroupTypeFlagSecurity,
		},
		Invert: []string{"typeDistribution"},
	}
}

// Flags maps boolean logical attributes onto bits of one wire bitmask.
// Every logical attribute sharing the converter aggregates into the same value.
type Flags struct {
	Base
	preset  FlagsOptions
	options *FlagsOptions
}

// NewFlags creates a bitmask converter starting from preset options.
func NewFlags(preset FlagsOptions) *Flags {
	return &Flags{preset: preset}
}

func (f *Flags) WantsAggregation() bool { return true }

func (f *Flags) resolvedOptions() (*FlagsOptions, error) {
	if f.options != nil {
		return f.options, nil
	}

	opts := f.preset
	opts.Flags = maps.Clone(f.preset.Flags)
	opts.Invert = slices.Clone(f.preset.Invert)
	if opts.Flags == nil {
		opts.Flags = make(map[string]int64)
	}

	if err := DecodeOptions(f.Options(), &opts); err != nil {
		return nil, err
	}

	f.options = &opts
	return f.options, nil
}

// flag returns the bit for the current attribute and whether it is inverted.
func (f *Flags) flag() (int64, bool, error) {
	opts, err := f.resolvedOptions()
	if err != nil {
		return 0, false, err
	}

	for name, bit := range opts.Flags {
		if strings.EqualFold(name, f.Attribute()) {
			inverted := slices.ContainsFunc(opts.Invert, func(s string) bool {
				return strings.EqualFold(s, f.Attribute())
			})
			return bit, inverted, nil
		}
	}

	return 0, false, fmt.Errorf("no flag is configured for attribute %q", f.Attribute())
}

// ToLDAP sets or clears the attribute's bit on the current bitmask.
func (f *Flags) ToLDAP(ctx context.Context, value any) (string, error) {
	bit, inverted, err := f.flag()
	if err != nil {
		return "", err
	}

	set, err := parseBool(value)
	if err != nil {
		return "", fmt.Errorf("attribute %s: %w", f.Attribute(), err)
	}
	if inverted {
		set = !set
	}

	mask, err := f.currentMask(ctx)
	if err != nil {
		return "", err
	}

	if set {
		mask |= bit
	} else {
		mask &^= bit
	}

	return strconv.FormatInt(mask, 10), nil
}

// FromLDAP reports whether the attribute's bit is set on a wire bitmask.
func (f *Flags) FromLDAP(_ context.Context, value string) (any, error) {
	bit, inverted, err := f.flag()
	if err != nil {
		return nil, err
	}

	mask, err := parseInt(value)
	if err != nil {
		return nil, fmt.Errorf("attribute %s: %w", f.Attribute(), err)
	}

	set := mask&bit != 0
	if inverted {
		set = !set
	}

	return set, nil
}

// ToQuery rewrites an equality leaf into a bitwise matching rule.
func (f *Flags) ToQuery(_ context.Context, c *operator.Comparison) error {
	if c.Operator != operator.Equal {
		return fmt.Errorf("attribute %s only supports equality comparisons, got %q", f.Attribute(), c.Operator)
	}

	bit, inverted, err := f.flag()
	if err != nil {
		return err
	}

	set, err := parseBool(c.Value)
	if err != nil {
		return fmt.Errorf("attribute %s: %w", f.Attribute(), err)
	}
	if inverted {
		set = !set
	}

	c.Operator = operator.MatchBitAnd
	c.Value = strconv.FormatInt(bit, 10)
	c.Negated = c.Negated != !set

	return nil
}

// currentMask returns the value the next bit is applied to: the last
// aggregated value, then the directory's current value on modify, then the default.
func (f *Flags) currentMask(ctx context.Context) (int64, error) {
	if last := f.LastValue(); last != nil {
		return parseInt(last)
	}

	opts, err := f.resolvedOptions()
	if err != nil {
		return 0, err
	}

	if f.Operation() != OperationModify || f.DN() == "" || f.Connection() == nil || !opts.Refresh || opts.Attribute == "" {
		return opts.Default, nil
	}

	logger := ldap.NewTFLogger(ctx, ldap.SubsystemConverter)
	fields := map[string]any{
		"dn":        f.DN(),
		"attribute": opts.Attribute,
	}

	result, err := f.Connection().Search(ctx, ldap.NewBaseSearchRequest(f.DN(), opts.Attribute))
	if err != nil {
		if ldap.IsNotFoundError(err) {
			logger.Warn("Entry not found, using default bitmask", fields)
			return opts.Default, nil
		}

		err = ldap.WrapError("read_current_value", err)
		var ldapErr *ldap.LDAPError
		if errors.As(err, &ldapErr) {
			ldapErr.DN = f.DN()
			ldapErr.Attribute = opts.Attribute
		}
		logger.Error("Failed to read current bitmask value", fields)
		return 0, err
	}

	if result == nil || len(result.Entries) == 0 {
		return opts.Default, nil
	}

	current := result.Entries[0].GetAttributeValue(opts.Attribute)
	if current == "" {
		return opts.Default, nil
	}

	fields["value"] = current
	logger.Trace("Read current bitmask value", fields)

	return parseInt(current)
}
