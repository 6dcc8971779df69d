package resolver

import (
	"context"
	"errors"
	"fmt"

	goldap "github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/mock"

	"github.com/isometry/ldap-attribute-resolver/internal/converter"
	"github.com/isometry/ldap-attribute-resolver/internal/ldap"
	"github.com/isometry/ldap-attribute-resolver/internal/schema"
)

const testDN = "CN=Emmett Brown,OU=Users,DC=example,DC=com"

var errConversion = errors.New("conversion failed")

// MockConnection implements ldap.Connection for testing.
type MockConnection struct {
	mock.Mock
}

func (m *MockConnection) Search(ctx context.Context, req *ldap.SearchRequest) (*ldap.SearchResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	result, ok := args.Get(0).(*ldap.SearchResult)
	if !ok {
		return nil, args.Error(1)
	}
	return result, args.Error(1)
}

func currentValue(attribute, value string) *ldap.SearchResult {
	return &ldap.SearchResult{
		Entries: []*goldap.Entry{
			goldap.NewEntry(testDN, map[string][]string{attribute: {value}}),
		},
		Total: 1,
	}
}

// quotedPassword mimics a unicodePwd style converter that also drops the
// confirmation attribute from the output.
type quotedPassword struct {
	converter.Base
}

func (c *quotedPassword) ToLDAP(_ context.Context, value any) (string, error) {
	return fmt.Sprintf("%q", value), nil
}

func (c *quotedPassword) FromLDAP(_ context.Context, value string) (any, error) {
	return value, nil
}

func (c *quotedPassword) AttributesToRemove() []string {
	return []string{"PasswordConfirm"}
}

// failing always returns errConversion.
type failing struct {
	converter.Base
}

func (c *failing) ToLDAP(context.Context, any) (string, error) { return "", errConversion }

func (c *failing) FromLDAP(context.Context, string) (any, error) { return nil, errConversion }

// aggregatingInt wants aggregation but cannot rewrite filter leaves.
type aggregatingInt struct {
	converter.Int
}

func (c *aggregatingInt) WantsAggregation() bool { return true }

func testRegistry() *converter.Registry {
	r := converter.NewRegistry()
	r.Register("password", func() converter.Converter { return &quotedPassword{} })
	r.Register("failing", func() converter.Converter { return &failing{} })
	r.Register("aggregating_int", func() converter.Converter { return &aggregatingInt{} })
	return r
}

func userSchema() *schema.ObjectSchema {
	return schema.New("user").MustAddAttributes(
		schema.Attribute{Name: "firstName", LDAPName: "givenName", Required: true},
		schema.Attribute{Name: "lastName", LDAPName: "sn", Required: true},
		schema.Attribute{Name: "displayName", Default: "%lastName%, %firstName%"},
		schema.Attribute{Name: "emailAddress", LDAPName: "mail"},
		schema.Attribute{Name: "company", Default: "Example Corp"},
		schema.Attribute{Name: "groups", LDAPName: "memberOf", Multivalued: true},
		schema.Attribute{Name: "disabled", LDAPName: "userAccountControl", Converter: converter.NameUserAccountControl},
		schema.Attribute{Name: "enabled", LDAPName: "userAccountControl", Converter: converter.NameUserAccountControl},
		schema.Attribute{Name: "passwordNeverExpires", LDAPName: "userAccountControl", Converter: converter.NameUserAccountControl},
		schema.Attribute{Name: "trustedForAllDelegation", LDAPName: "userAccountControl", Converter: converter.NameUserAccountControl},
		schema.Attribute{Name: "scopeUniversal", LDAPName: "groupType", Converter: converter.NameGroupType},
		schema.Attribute{Name: "sid", LDAPName: "objectSid", Converter: converter.NameWindowsSID},
		schema.Attribute{Name: "guid", LDAPName: "objectGUID", Converter: converter.NameWindowsGUID},
		schema.Attribute{Name: "accountExpirationDate", LDAPName: "accountExpires", Converter: converter.NameWindowsTime},
		schema.Attribute{Name: "logonCount", Converter: converter.NameInt},
		schema.Attribute{Name: "critical", LDAPName: "isCriticalSystemObject", Converter: converter.NameBool},
		schema.Attribute{Name: "password", LDAPName: "unicodePwd", Converter: "password"},
		schema.Attribute{Name: "passwordConfirm"},
		schema.Attribute{Name: "broken", Converter: "failing"},
		schema.Attribute{Name: "level", Converter: "aggregating_int"},
		schema.Attribute{Name: "mystery", Converter: "does_not_exist"},
	)
}
