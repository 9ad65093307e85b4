package status

import "testing"

func TestIsValid(t *testing.T) {
	for _, s := range []string{Active, Disabled} {
		if !IsValid(s) {
			t.Errorf("IsValid(%q) = false", s)
		}
	}
	for _, s := range []string{"", "ACTIVE", "archived"} {
		if IsValid(s) {
			t.Errorf("IsValid(%q) = true", s)
		}
	}
}
