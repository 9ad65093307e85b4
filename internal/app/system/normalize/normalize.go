// Package normalize trims and case-folds user input before it is stored
// or compared.
package normalize

import "strings"

// Email trims and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name. Case is preserved.
func Name(s string) string {
	return strings.TrimSpace(s)
}

func AuthMethod(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func Status(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// QueryParam trims a query string value.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

// IDParam trims an id query value and maps "all" to "" so callers can
// treat both as "no filter".
func IDParam(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "all") {
		return ""
	}
	return s
}
