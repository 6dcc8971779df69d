package ldap

import (
	"context"
	"time"

	"github.com/go-ldap/ldap/v3"
)

// Connection is the directory access converters may need during a pass,
// e.g. reading the current value of a bitmask before combining new flags.
// Implementations own retries, timeouts and cancellation.
type Connection interface {
	// Search performs a search and returns all matching entries.
	Search(ctx context.Context, req *SearchRequest) (*SearchResult, error)
}

// SearchRequest encapsulates LDAP search parameters.
type SearchRequest struct {
	BaseDN     string
	Scope      SearchScope
	Filter     string
	Attributes []string
	SizeLimit  int
	TimeLimit  time.Duration
}

// SearchResult contains search results.
type SearchResult struct {
	Entries []*ldap.Entry
	Total   int
}

// SearchScope defines LDAP search scope.
type SearchScope int

const (
	ScopeBaseObject SearchScope = iota
	ScopeSingleLevel
	ScopeWholeSubtree
)

// String returns the string representation of the scope.
func (s SearchScope) String() string {
	switch s {
	case ScopeBaseObject:
		return "base"
	case ScopeSingleLevel:
		return "one"
	case ScopeWholeSubtree:
		return "sub"
	default:
		return "unknown"
	}
}

// LDAPRequest converts the request into a go-ldap search request.
func (r *SearchRequest) LDAPRequest() *ldap.SearchRequest {
	return ldap.NewSearchRequest(
		r.BaseDN,
		int(r.Scope),
		ldap.NeverDerefAliases,
		r.SizeLimit,
		int(r.TimeLimit.Seconds()),
		false, // TypesOnly
		r.Filter,
		r.Attributes,
		nil, // Controls
	)
}

// NewBaseSearchRequest creates a base-object search for selected attributes of one entry.
func NewBaseSearchRequest(dn string, attributes ...string) *SearchRequest {
	return &SearchRequest{
		BaseDN:     dn,
		Scope:      ScopeBaseObject,
		Filter:     "(objectClass=*)",
		Attributes: attributes,
		SizeLimit:  1,
		TimeLimit:  30 * time.Second,
	}
}
