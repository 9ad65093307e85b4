package normalize

import "testing"

func TestEmail(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"user@example.com", "user@example.com"},
		{"USER@EXAMPLE.COM", "user@example.com"},
		{"  User@Example.Com  ", "user@example.com"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Email(tt.input); got != tt.want {
				t.Errorf("Email(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Célula Betel", "Célula Betel"},
		{"  Rede Azul  ", "Rede Azul"},
		{"", ""},
		{"UPPERCASE NAME", "UPPERCASE NAME"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Name(tt.input); got != tt.want {
				t.Errorf("Name(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLowercasers(t *testing.T) {
	tests := []struct {
		name  string
		fn    func(string) string
		input string
		want  string
	}{
		{"auth method", AuthMethod, "  Google  ", "google"},
		{"auth method password", AuthMethod, "PASSWORD", "password"},
		{"status", Status, "  Disabled  ", "disabled"},
		{"role", Role, "ADMIN", "admin"},
		{"role blank", Role, "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.input); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestQueryParam(t *testing.T) {
	if got := QueryParam("  trimmed  "); got != "trimmed" {
		t.Errorf("QueryParam = %q, want %q", got, "trimmed")
	}
	if got := QueryParam("UPPERCASE"); got != "UPPERCASE" {
		t.Errorf("QueryParam = %q, want %q", got, "UPPERCASE")
	}
}

func TestIDParam(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"507f1f77bcf86cd799439011", "507f1f77bcf86cd799439011"},
		{"  507f1f77bcf86cd799439011  ", "507f1f77bcf86cd799439011"},
		{"all", ""},
		{"ALL", ""},
		{"  All  ", ""},
		{"", ""},
		{"somevalue", "somevalue"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := IDParam(tt.input); got != tt.want {
				t.Errorf("IDParam(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
