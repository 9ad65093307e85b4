package inputval

import "strings"

var allowedAuthMethods = []string{"password", "google"}

var allowedRoles = []string{"admin", "user"}

// IsValidAuthMethod reports whether m is a supported sign-in method.
// Comparison ignores case and surrounding space.
func IsValidAuthMethod(m string) bool {
	return inList(m, allowedAuthMethods)
}

// AllowedAuthMethodsList returns a copy of the supported methods.
func AllowedAuthMethodsList() []string {
	return append([]string(nil), allowedAuthMethods...)
}

// IsValidRole reports whether role is a supported user role.
func IsValidRole(role string) bool {
	return inList(role, allowedRoles)
}

func inList(s string, list []string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, v := range list {
		if s == v {
			return true
		}
	}
	return false
}
