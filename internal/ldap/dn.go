package ldap

import (
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// NormalizeDN validates a Distinguished Name and returns it with upper-case
// attribute types, the form Active Directory reports.
//
//	"cn=Doe\, John,ou=users,dc=example,dc=com" -> "CN=Doe\, John,OU=users,DC=example,DC=com"
//
// An empty or blank DN normalizes to "".
func NormalizeDN(dn string) (string, error) {
	dn = strings.TrimSpace(dn)
	if dn == "" {
		return "", nil
	}

	parsed, err := ldap.ParseDN(dn)
	if err != nil {
		return "", fmt.Errorf("invalid DN syntax %q: %w", dn, err)
	}

	rdns := make([]string, 0, len(parsed.RDNs))
	for _, rdn := range parsed.RDNs {
		parts := make([]string, 0, len(rdn.Attributes))
		for _, attr := range rdn.Attributes {
			parts = append(parts, strings.ToUpper(attr.Type)+"="+EscapeDNValue(attr.Value))
		}
		rdns = append(rdns, strings.Join(parts, "+"))
	}

	return strings.Join(rdns, ","), nil
}

// EscapeDNValue escapes a DN attribute value according to RFC 4514.
func EscapeDNValue(value string) string {
	var sb strings.Builder
	sb.Grow(len(value))

	for i, r := range value {
		switch {
		case strings.ContainsRune(`,+"\<>;`, r):
			sb.WriteByte('\\')
			sb.WriteRune(r)
		case r == '#' && i == 0:
			sb.WriteString(`\#`)
		case r == ' ' && (i == 0 || i == len(value)-1):
			sb.WriteString(`\ `)
		case r == 0:
			sb.WriteString(`\00`)
		default:
			sb.WriteRune(r)
		}
	}

	return sb.String()
}
