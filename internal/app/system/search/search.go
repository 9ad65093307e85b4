// Package search decides how a free-text list query is matched.
package search

import "strings"

// Field is the document field a query is matched against.
type Field string

const (
	ByName  Field = "name_ci"
	ByEmail Field = "email"
)

// FieldFor picks the field for q. A query containing '@' is treated as an
// email prefix; anything else matches the folded name.
func FieldFor(q string) Field {
	if strings.Contains(q, "@") {
		return ByEmail
	}
	return ByName
}

// Prefix returns the [lo, hi) bounds of a prefix range query on an
// already-normalized q.
func Prefix(q string) (lo, hi string) {
	return q, q + "\uffff"
}
