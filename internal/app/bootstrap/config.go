// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// minSessionKeyLen is the shortest session key accepted outside dev.
const minSessionKeyLen = 32

// appConfigKeys defines the configuration keys for CelulaHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: CELULAHUB_MONGO_URI, CELULAHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "celulahub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "celulahub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "720h", Desc: "Session cookie lifetime (e.g., 720h, 24h)"},

	{Name: "base_url", Default: "http://localhost:8080", Desc: "Public base URL, used for the Google OAuth callback"},
	{Name: "cors_origins", Default: "", Desc: "Comma-separated browser origins allowed to call the API"},

	// Google OAuth configuration
	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Reports
	{Name: "report_prefer_past", Default: true, Desc: "Default report date is the last meeting (true) or the next one (false)"},

	// Default church and bootstrap admin
	{Name: "default_church_name", Default: "", Desc: "Church created on startup when missing (blank disables seeding)"},
	{Name: "church_timezone", Default: "America/Sao_Paulo", Desc: "IANA time zone for the default church"},
	{Name: "admin_login_id", Default: "", Desc: "Login ID of the bootstrap admin, created when the church has no admin"},
	{Name: "admin_password", Default: "", Desc: "Password of the bootstrap admin"},

	// Handler timeouts
	{Name: "timeout_short", Default: "", Desc: "Single-document DB timeout (default 5s)"},
	{Name: "timeout_medium", Default: "", Desc: "List query DB timeout (default 10s)"},
	{Name: "timeout_long", Default: "", Desc: "Multi-collection DB timeout (default 30s)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "CELULAHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),
		SessionMaxAge:    appValues.Duration("session_max_age", 30*24*time.Hour),

		BaseURL:     appValues.String("base_url"),
		CORSOrigins: splitList(appValues.String("cors_origins")),

		// Google OAuth
		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),

		// Audit logging
		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),

		ReportPreferPast: appValues.Bool("report_prefer_past"),

		DefaultChurchName: appValues.String("default_church_name"),
		ChurchTimezone:    appValues.String("church_timezone"),
		AdminLoginID:      appValues.String("admin_login_id"),
		AdminPassword:     appValues.String("admin_password"),

		TimeoutShort:  appValues.Duration("timeout_short", 0),
		TimeoutMedium: appValues.Duration("timeout_medium", 0),
		TimeoutLong:   appValues.Duration("timeout_long", 0),
	}

	return coreCfg, appCfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

var auditSettings = map[string]bool{"": true, "all": true, "db": true, "log": true, "off": true}

// ValidateConfig performs app-specific config validation.
//
// CelulaHub checks the MongoDB URI, the church time zone, the audit
// settings and, outside dev, the session key strength. Seeding an admin
// needs both the login id and the password.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.ChurchTimezone != "" {
		if _, err := time.LoadLocation(appCfg.ChurchTimezone); err != nil {
			return fmt.Errorf("invalid church_timezone %q: %w", appCfg.ChurchTimezone, err)
		}
	}
	if coreCfg != nil && coreCfg.Env != "dev" && len(appCfg.SessionKey) < minSessionKeyLen {
		return fmt.Errorf("session_key must be at least %d characters", minSessionKeyLen)
	}
	if !auditSettings[appCfg.AuditLogAuth] || !auditSettings[appCfg.AuditLogAdmin] {
		return fmt.Errorf("audit_log_auth and audit_log_admin must be one of all, db, log, off")
	}
	if (appCfg.AdminLoginID == "") != (appCfg.AdminPassword == "") {
		return fmt.Errorf("admin_login_id and admin_password must be set together")
	}
	if appCfg.AdminLoginID != "" && appCfg.DefaultChurchName == "" {
		return fmt.Errorf("admin_login_id requires default_church_name")
	}
	return nil
}
