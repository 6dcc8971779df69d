// Package resolver translates directory entries between their logical,
// schema-typed form and their LDAP wire form.
//
// Resolution happens in independent passes:
//
//   - ParameterResolver substitutes %name% placeholders in logical values.
//   - AttributeNameResolver renames logical attributes to wire attributes and back.
//   - AttributeValueResolver, BatchValueResolver and OperatorValueResolver apply
//     schema converters to a flat attribute map, a batch collection and a filter
//     tree respectively.
//
// Several logical attributes may share one wire attribute through an
// aggregating converter (for example the flags of userAccountControl). Their
// values are folded into a single wire value that is emitted once per pass,
// and in a modify they may only be replaced.
//
// A resolver instance serves one pass over one structure and must not be
// shared between goroutines.
package resolver
