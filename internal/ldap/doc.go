/*
Package ldap holds the directory-facing collaborators of the attribute resolvers.

The resolvers never talk to a directory server themselves. This package provides
the narrow pieces they and their converters share with the transport layer:

  - Connection: the search capability a converter may use to read current values
  - LDAPError: categorised errors for directory reads made by converters
  - EntryAttributes and NewAddRequest: bridges between go-ldap types and the
    attribute maps the resolvers work on
  - NormalizeDN: validation and canonical casing of the entry DN handed to converters
  - Logger and helpers: structured tflog logging for the resolver and converter
    subsystems

# Example Usage

	ctx = ldap.NewLoggingContext(ctx)

	wire := ldap.EntryAttributes(entry)
	names := resolver.NewAttributeNameResolver(userSchema)
	logical := names.FromLDAP(wire, []string{"FirstName", "disabled"})
*/
package ldap
