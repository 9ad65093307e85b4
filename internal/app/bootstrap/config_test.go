package bootstrap

import (
	"reflect"
	"testing"

	"github.com/dalemusser/waffle/config"
)

func TestValidateConfig(t *testing.T) {
	valid := AppConfig{
		MongoURI:       "mongodb://localhost:27017",
		SessionKey:     "0123456789abcdef0123456789abcdef",
		ChurchTimezone: "America/Sao_Paulo",
		AuditLogAuth:   "all",
		AuditLogAdmin:  "db",
	}
	prod := &config.CoreConfig{Env: "prod"}
	dev := &config.CoreConfig{Env: "dev"}

	tests := []struct {
		name    string
		core    *config.CoreConfig
		mutate  func(*AppConfig)
		wantErr bool
	}{
		{"valid", prod, func(*AppConfig) {}, false},
		{"bad uri", prod, func(c *AppConfig) { c.MongoURI = "postgres://localhost:5432" }, true},
		{"bad timezone", prod, func(c *AppConfig) { c.ChurchTimezone = "Mars/Olympus" }, true},
		{"short key in prod", prod, func(c *AppConfig) { c.SessionKey = "short" }, true},
		{"short key in dev", dev, func(c *AppConfig) { c.SessionKey = "short" }, false},
		{"bad audit setting", prod, func(c *AppConfig) { c.AuditLogAdmin = "everything" }, true},
		{"admin without password", prod, func(c *AppConfig) { c.AdminLoginID = "admin"; c.DefaultChurchName = "Igreja" }, true},
		{"admin without church", prod, func(c *AppConfig) { c.AdminLoginID = "admin"; c.AdminPassword = "x" }, true},
		{"admin seeding", prod, func(c *AppConfig) {
			c.AdminLoginID, c.AdminPassword, c.DefaultChurchName = "admin", "x", "Igreja"
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := ValidateConfig(tt.core, cfg, testLogger())
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" https://a.app, ,https://b.app ")
	want := []string{"https://a.app", "https://b.app"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("splitList = %v, want %v", got, want)
	}
	if splitList("") != nil {
		t.Error("empty input should give nil")
	}
}
