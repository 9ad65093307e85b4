// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// Values come from environment variables (CELULAHUB_*), configuration
// files, or command-line flags (loaded in LoadConfig). Ports, TLS, logging
// level and request limits belong to WAFFLE's CoreConfig instead.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: celulahub-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime

	// BaseURL is the public origin; the Google callback is derived from it.
	BaseURL string

	// CORSOrigins lists browser origins allowed to call /api with
	// credentials. Empty disables CORS headers.
	CORSOrigins []string

	// Google OAuth configuration
	GoogleClientID     string
	GoogleClientSecret string

	// Audit logging: "all", "db", "log" or "off"
	AuditLogAuth  string
	AuditLogAdmin string

	// ReportPreferPast selects the default report date policy: the most
	// recent meeting when true, the next one when false.
	ReportPreferPast bool

	// Default church and bootstrap admin, created on startup when set.
	DefaultChurchName string
	ChurchTimezone    string
	AdminLoginID      string
	AdminPassword     string

	// Handler database timeouts; zero keeps the built-in defaults.
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration
}
