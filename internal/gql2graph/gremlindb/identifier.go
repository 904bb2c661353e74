package gremlindb

import "regexp"

// identifierPattern validates labels/property names before they are
// concatenated into script text, the same defense cypherdb applies —
// literal values always go through propertyLiteral/toGremlinBinding, never
// straight interpolation.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func validIdentifier(s string) bool {
	return identifierPattern.MatchString(s)
}
