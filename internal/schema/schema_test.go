package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserSchema(t *testing.T) *ObjectSchema {
	t.Helper()

	s := New("user")
	for _, attr := range []Attribute{
		{Name: "firstName", LDAPName: "givenName", Required: true},
		{Name: "lastName", LDAPName: "sn"},
		{Name: "groups", LDAPName: "memberOf", Multivalued: true},
		{Name: "disabled", LDAPName: "userAccountControl", Converter: "user_account_control"},
		{Name: "passwordNeverExpires", LDAPName: "userAccountControl", Converter: "user_account_control"},
		{Name: "company", Default: "Example Corp"},
	} {
		require.NoError(t, s.AddAttribute(attr))
	}
	s.SetConverterOptions("User_Account_Control", map[string]any{"default": 512})

	return s
}

func TestObjectSchema_AddAttribute(t *testing.T) {
	s := newUserSchema(t)

	t.Run("duplicate name is rejected case-insensitively", func(t *testing.T) {
		err := s.AddAttribute(Attribute{Name: "FIRSTNAME"})
		assert.Error(t, err)
	})

	t.Run("empty name is rejected", func(t *testing.T) {
		err := s.AddAttribute(Attribute{Name: "  "})
		assert.Error(t, err)
	})

	t.Run("wire name defaults to logical name", func(t *testing.T) {
		assert.Equal(t, "company", s.AttributeToLDAP("Company"))
	})
}

func TestObjectSchema_Lookups(t *testing.T) {
	s := newUserSchema(t)

	assert.True(t, s.HasAttribute("FirstName"))
	assert.False(t, s.HasAttribute("nickname"))

	assert.Equal(t, "givenName", s.AttributeToLDAP("firstname"))
	assert.Equal(t, "nickname", s.AttributeToLDAP("nickname"), "unknown names pass through")

	assert.True(t, s.HasConverter("DISABLED"))
	assert.False(t, s.HasConverter("firstName"))
	assert.Equal(t, "user_account_control", s.Converter("disabled"))
	assert.Equal(t, "", s.Converter("nickname"))

	assert.True(t, s.IsMultivalued("groups"))
	assert.False(t, s.IsMultivalued("firstName"))
}

func TestObjectSchema_ReverseLookups(t *testing.T) {
	s := newUserSchema(t)

	assert.Equal(t, []string{"disabled", "passwordNeverExpires"}, s.NamesMappedToAttribute("useraccountcontrol"))
	assert.True(t, s.HasNamesMappedToAttribute("givenName"))
	assert.False(t, s.HasNamesMappedToAttribute("mail"))
	assert.Equal(t, []string{"disabled", "passwordNeverExpires"}, s.NamesWithConverter("USER_ACCOUNT_CONTROL"))
	assert.Empty(t, s.NamesWithConverter("windows_sid"))
}

func TestObjectSchema_Maps(t *testing.T) {
	s := newUserSchema(t)

	assert.Equal(t, map[string]string{
		"disabled":             "user_account_control",
		"passwordNeverExpires": "user_account_control",
	}, s.ConverterMap())

	assert.Equal(t, map[string]any{"company": "Example Corp"}, s.DefaultValues())
	assert.Equal(t, []string{"firstName"}, s.RequiredAttributes())
	assert.Equal(t, "givenName", s.AttributeMap()["firstName"])
	assert.Len(t, s.Names(), 6)

	opts := s.ConverterOptions()
	require.Contains(t, opts, "user_account_control")
	assert.Equal(t, 512, opts["user_account_control"]["default"])
}

func TestObjectSchema_MustAddAttributesPanics(t *testing.T) {
	assert.Panics(t, func() {
		New("group").MustAddAttributes(Attribute{Name: "name"}, Attribute{Name: "NAME"})
	})
}
