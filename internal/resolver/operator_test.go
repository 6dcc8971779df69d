package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isometry/ldap-attribute-resolver/internal/operator"
)

func TestOperatorValueResolver_ToLDAP(t *testing.T) {
	tests := []struct {
		name string
		tree func() operator.Node
		want string
	}{
		{
			name: "plain attribute is renamed",
			tree: func() operator.Node { return operator.Eq("firstName", "Emmett") },
			want: "(givenName=Emmett)",
		},
		{
			name: "flag becomes a bitwise match",
			tree: func() operator.Node { return operator.Eq("disabled", true) },
			want: "(userAccountControl:1.2.840.113556.1.4.803:=2)",
		},
		{
			name: "cleared flag is negated",
			tree: func() operator.Node { return operator.Eq("passwordNeverExpires", false) },
			want: "(!(userAccountControl:1.2.840.113556.1.4.803:=65536))",
		},
		{
			name: "tree shape is kept",
			tree: func() operator.Node {
				return operator.NewAnd(
					operator.NewComparison("emailAddress", operator.Present, nil),
					operator.NewOr(
						operator.Eq("enabled", true),
						operator.NewNot(operator.Eq("logonCount", 0)),
					),
					operator.NewComparison("lastName", operator.StartsWith, "Br"),
				)
			},
			want: "(&(mail=*)(|(!(userAccountControl:1.2.840.113556.1.4.803:=2))(!(logonCount=0)))(sn=Br*))",
		},
		{
			name: "list values are converted one by one",
			tree: func() operator.Node { return operator.Eq("logonCount", []any{1, 2}) },
			want: "(|(logonCount=1)(logonCount=2))",
		},
		{
			name: "aggregating converter without query support converts the leaf only",
			tree: func() operator.Node { return operator.Eq("level", 3) },
			want: "(level=3)",
		},
		{
			name: "converted value is not converted again",
			tree: func() operator.Node {
				c := operator.Eq("critical", "TRUE")
				c.SetConverterApplied(true)
				return c
			},
			want: "(isCriticalSystemObject=TRUE)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := tt.tree()

			got, err := NewOperatorValueResolver(userSchema(), testRegistry(), root).ToLDAP(t.Context())
			require.NoError(t, err)
			assert.Same(t, root, got)

			filter, err := operator.Compile(got)
			require.NoError(t, err)
			assert.Equal(t, tt.want, filter)
		})
	}
}

func TestOperatorValueResolver_MarksLeaves(t *testing.T) {
	leaf := operator.Eq("accountExpirationDate", "never")

	_, err := NewOperatorValueResolver(userSchema(), testRegistry(), operator.NewAnd(leaf)).ToLDAP(t.Context())
	require.NoError(t, err)

	assert.True(t, leaf.IsConverterApplied())
	assert.Equal(t, "accountExpires", leaf.Attribute)
	assert.Equal(t, "0", leaf.Value)
}

func TestOperatorValueResolver_Errors(t *testing.T) {
	t.Run("converter error", func(t *testing.T) {
		_, err := NewOperatorValueResolver(userSchema(), testRegistry(), operator.Eq("broken", "x")).ToLDAP(t.Context())
		assert.Equal(t, errConversion, err)
	})

	t.Run("flag with an ordering operator", func(t *testing.T) {
		leaf := operator.NewComparison("disabled", operator.GreaterOrEqual, true)
		_, err := NewOperatorValueResolver(userSchema(), testRegistry(), leaf).ToLDAP(t.Context())
		assert.Error(t, err)
	})
}
