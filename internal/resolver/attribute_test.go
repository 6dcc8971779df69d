package resolver

import (
	"errors"
	"testing"
	"time"

	goldap "github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/isometry/ldap-attribute-resolver/internal/converter"
	"github.com/isometry/ldap-attribute-resolver/internal/ldap"
)

func TestAttributeValueResolver_ToLDAP(t *testing.T) {
	tests := []struct {
		name  string
		entry map[string]any
		want  map[string]any
	}{
		{
			name: "aggregated flags are emitted once",
			entry: map[string]any{
				"disabled":                true,
				"passwordNeverExpires":    true,
				"trustedForAllDelegation": true,
			},
			want: map[string]any{"userAccountControl": "590338"},
		},
		{
			name: "cleared flags and plain attributes",
			entry: map[string]any{
				"firstName":            "Emmett",
				"groups":               []any{"CN=A", "CN=B"},
				"disabled":             false,
				"passwordNeverExpires": true,
			},
			want: map[string]any{
				"firstName":          "Emmett",
				"groups":             []string{"CN=A", "CN=B"},
				"userAccountControl": "66048",
			},
		},
		{
			name:  "inverted flag",
			entry: map[string]any{"enabled": false},
			want:  map[string]any{"userAccountControl": "514"},
		},
		{
			name: "scalar converters",
			entry: map[string]any{
				"logonCount":            7,
				"critical":              true,
				"accountExpirationDate": time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
				"sid":                   "S-1-5-32-544",
			},
			want: map[string]any{
				"logonCount":            "7",
				"critical":              "TRUE",
				"accountExpirationDate": "133802606450000000",
				"sid":                   "\x01\x02\x00\x00\x00\x00\x00\x05\x20\x00\x00\x00\x20\x02\x00\x00",
			},
		},
		{
			name:  "multiple converted values",
			entry: map[string]any{"logonCount": []any{1, 2}},
			want:  map[string]any{"logonCount": []string{"1", "2"}},
		},
		{
			name:  "converter removes attributes",
			entry: map[string]any{"password": "s3cret", "passwordConfirm": "s3cret"},
			want:  map[string]any{"password": `"s3cret"`},
		},
		{
			name:  "raw values are encoded",
			entry: map[string]any{"description": 42, "showInAdvancedViewOnly": false},
			want:  map[string]any{"description": "42", "showInAdvancedViewOnly": "FALSE"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewAttributeValueResolver(userSchema(), testRegistry(), tt.entry, converter.OperationCreate)

			got, err := r.ToLDAP(t.Context())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAttributeValueResolver_ToLDAP_Modify(t *testing.T) {
	t.Run("flags apply to the current directory value", func(t *testing.T) {
		conn := &MockConnection{}
		conn.On("Search", mock.Anything, mock.MatchedBy(func(req *ldap.SearchRequest) bool {
			return req.BaseDN == testDN
		})).Return(currentValue("userAccountControl", "66048"), nil).Once()

		r := NewAttributeValueResolver(userSchema(), testRegistry(), map[string]any{
			"disabled":                true,
			"trustedForAllDelegation": true,
		}, converter.OperationModify)
		r.SetConnection(conn)
		require.NoError(t, r.SetDN(testDN))

		got, err := r.ToLDAP(t.Context())
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"userAccountControl": "590338"}, got)
		conn.AssertExpectations(t)
	})

	t.Run("directory errors propagate", func(t *testing.T) {
		conn := &MockConnection{}
		conn.On("Search", mock.Anything, mock.Anything).
			Return(nil, goldap.NewError(goldap.LDAPResultInsufficientAccessRights, errors.New("denied"))).Once()

		r := NewAttributeValueResolver(userSchema(), testRegistry(), map[string]any{"disabled": true}, converter.OperationModify)
		r.SetConnection(conn)
		require.NoError(t, r.SetDN(testDN))

		_, err := r.ToLDAP(t.Context())
		assert.Equal(t, ldap.ErrorCategoryPermission, ldap.GetErrorCategory(err))
	})
}

func TestAttributeValueResolver_Errors(t *testing.T) {
	t.Run("converter errors are returned unchanged", func(t *testing.T) {
		r := NewAttributeValueResolver(userSchema(), testRegistry(), map[string]any{"broken": "x"}, converter.OperationCreate)

		_, err := r.ToLDAP(t.Context())
		assert.Equal(t, errConversion, err)

		_, err = r.FromLDAP(t.Context())
		assert.Equal(t, errConversion, err)
	})

	t.Run("unknown converter", func(t *testing.T) {
		r := NewAttributeValueResolver(userSchema(), testRegistry(), map[string]any{"mystery": "x"}, converter.OperationCreate)

		_, err := r.ToLDAP(t.Context())
		var unknown *converter.UnknownConverterError
		require.ErrorAs(t, err, &unknown)
		assert.Equal(t, "does_not_exist", unknown.Name)
	})

	t.Run("unsupported raw value", func(t *testing.T) {
		r := NewAttributeValueResolver(userSchema(), testRegistry(), map[string]any{"description": 1.5}, converter.OperationCreate)

		_, err := r.ToLDAP(t.Context())
		assert.ErrorContains(t, err, "description")
	})

	t.Run("aggregated value collides with its wire attribute", func(t *testing.T) {
		for _, wireKey := range []string{"userAccountControl", "UserAccountControl"} {
			entry := map[string]any{"disabled": true, wireKey: "4096"}
			r := NewAttributeValueResolver(userSchema(), testRegistry(), entry, converter.OperationCreate)

			got, err := r.ToLDAP(t.Context())
			assert.Nil(t, got)

			var argErr *InvalidArgumentError
			require.ErrorAs(t, err, &argErr, wireKey)
			assert.Contains(t, argErr.Reason, "disabled")
			assert.Contains(t, argErr.Reason, wireKey)
		}
	})

	t.Run("invalid dn", func(t *testing.T) {
		r := NewAttributeValueResolver(userSchema(), testRegistry(), nil, converter.OperationModify)
		assert.Error(t, r.SetDN("not a dn"))
		assert.NoError(t, r.SetDN(""))
	})
}

func TestAttributeValueResolver_FromLDAP(t *testing.T) {
	entry := map[string]any{
		"dn":                    testDN,
		"firstName":             "Emmett",
		"groups":                "CN=Admins,DC=example,DC=com",
		"disabled":              "514",
		"passwordNeverExpires":  "514",
		"logonCount":            "12",
		"guid":                  "\x78\x56\x34\x12\x34\x12\x78\x56\x9a\xbc\xde\xf0\x12\x34\x56\x78",
		"accountExpirationDate": "0",
	}

	r := NewAttributeValueResolver(userSchema(), testRegistry(), entry, converter.OperationSearchFrom)

	got, err := r.FromLDAP(t.Context())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"dn":                    testDN,
		"firstName":             "Emmett",
		"groups":                []string{"CN=Admins,DC=example,DC=com"},
		"disabled":              true,
		"passwordNeverExpires":  false,
		"logonCount":            int64(12),
		"guid":                  "12345678-1234-5678-9abc-def012345678",
		"accountExpirationDate": nil,
	}, got)
}

func TestAttributeValueResolver_FromLDAP_NilValues(t *testing.T) {
	entry := map[string]any{
		"logonCount":  nil,
		"guid":        nil,
		"description": nil,
		"groups":      nil,
	}

	got, err := NewAttributeValueResolver(userSchema(), testRegistry(), entry, converter.OperationSearchFrom).FromLDAP(t.Context())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"logonCount":  nil,
		"guid":        nil,
		"description": nil,
		"groups":      []any{},
	}, got)
}

func TestAttributeValueResolver_RoundTrip(t *testing.T) {
	original := map[string]any{
		"firstName":    "Emmett",
		"emailAddress": "doc@example.com",
		"groups":       []string{"CN=A", "CN=B"},
	}

	wire, err := NewAttributeValueResolver(userSchema(), testRegistry(), original, converter.OperationCreate).ToLDAP(t.Context())
	require.NoError(t, err)

	back, err := NewAttributeValueResolver(userSchema(), testRegistry(), wire, converter.OperationSearchFrom).FromLDAP(t.Context())
	require.NoError(t, err)

	assert.Equal(t, original, back)
}

func TestAttributeValueResolver_EntryBridge(t *testing.T) {
	entry := goldap.NewEntry(testDN, map[string][]string{
		"givenName":          {"Emmett"},
		"memberOf":           {"CN=A", "CN=B"},
		"userAccountControl": {"66050"},
	})

	names := NewAttributeNameResolver(userSchema())
	logical := names.FromLDAP(ldap.EntryAttributes(entry), []string{"firstName", "groups", "disabled", "passwordNeverExpires"})

	got, err := NewAttributeValueResolver(userSchema(), testRegistry(), logical, converter.OperationSearchFrom).FromLDAP(t.Context())
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"dn":                   testDN,
		"firstName":            "Emmett",
		"groups":               []string{"CN=A", "CN=B"},
		"disabled":             true,
		"passwordNeverExpires": true,
	}, got)
}
