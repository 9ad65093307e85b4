// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	apikeysfeature "github.com/celulahub/celulahub/internal/app/features/apikeys"
	auditfeature "github.com/celulahub/celulahub/internal/app/features/auditlog"
	authgooglefeature "github.com/celulahub/celulahub/internal/app/features/authgoogle"
	celulasfeature "github.com/celulahub/celulahub/internal/app/features/celulas"
	discipuladosfeature "github.com/celulahub/celulahub/internal/app/features/discipulados"
	filtersfeature "github.com/celulahub/celulahub/internal/app/features/filters"
	healthfeature "github.com/celulahub/celulahub/internal/app/features/health"
	loginfeature "github.com/celulahub/celulahub/internal/app/features/login"
	logoutfeature "github.com/celulahub/celulahub/internal/app/features/logout"
	membersfeature "github.com/celulahub/celulahub/internal/app/features/members"
	profilefeature "github.com/celulahub/celulahub/internal/app/features/profile"
	redesfeature "github.com/celulahub/celulahub/internal/app/features/redes"
	reportsfeature "github.com/celulahub/celulahub/internal/app/features/reports"
	userinfofeature "github.com/celulahub/celulahub/internal/app/features/userinfo"
	usersfeature "github.com/celulahub/celulahub/internal/app/features/users"
	apikeystore "github.com/celulahub/celulahub/internal/app/store/apikeys"
	"github.com/celulahub/celulahub/internal/app/store/audit"
	userstore "github.com/celulahub/celulahub/internal/app/store/users"
	"github.com/celulahub/celulahub/internal/app/system/apierr"
	"github.com/celulahub/celulahub/internal/app/system/auditlog"
	"github.com/celulahub/celulahub/internal/app/system/auth"
	"github.com/celulahub/celulahub/internal/app/system/meetingdates"
	"github.com/celulahub/celulahub/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler for the CelulaHub API.
//
// WAFFLE calls this after configuration, DB connections, schema setup and
// Startup have completed. Every /api route answers JSON; the session user
// (cookie or X-API-Key) is loaded once for all of them.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	db := deps.MongoDatabase

	// Fresh user data and permissions on every request, so role changes and
	// disabled accounts take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(db, logger))
	sessionMgr.SetAPIKeyResolver(apikeystore.New(db))

	auditLog := auditlog.New(audit.New(db), logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})

	r := chi.NewRouter()

	if len(appCfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   appCfg.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", auth.APIKeyHeader},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Global auth middleware: loads SessionUser into context if signed in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Google sign-in is only mounted when credentials are configured.
	googleHandler := authgooglefeature.NewHandler(db, sessionMgr, auditLog,
		appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, logger)
	if googleHandler.IsConfigured() {
		r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))
	}

	r.Route("/api", func(api chi.Router) {
		// Authentication
		loginHandler := loginfeature.NewHandler(db, sessionMgr, auditLog, ratelimit.NewLoginLimiter(), logger)
		api.Mount("/login", loginfeature.Routes(loginHandler))

		logoutHandler := logoutfeature.NewHandler(sessionMgr, auditLog, logger)
		api.Mount("/logout", logoutfeature.Routes(logoutHandler))

		meHandler := userinfofeature.NewHandler()
		api.Mount("/me", userinfofeature.Routes(meHandler))

		profileHandler := profilefeature.NewHandler(db, auditLog, logger)
		api.Mount("/profile", profilefeature.Routes(profileHandler, sessionMgr))

		// Hierarchy
		redesHandler := redesfeature.NewHandler(db, auditLog, logger)
		api.Mount("/redes", redesfeature.Routes(redesHandler, sessionMgr))

		discHandler := discipuladosfeature.NewHandler(db, auditLog, logger)
		api.Mount("/discipulados", discipuladosfeature.Routes(discHandler, sessionMgr))

		celulasHandler := celulasfeature.NewHandler(db, auditLog, logger)
		api.Mount("/celulas", celulasfeature.Routes(celulasHandler, sessionMgr))

		membersHandler := membersfeature.NewHandler(db, auditLog, logger)
		api.Mount("/members", membersfeature.Routes(membersHandler, sessionMgr))

		// Attendance reports
		policy := meetingdates.Policy{PreferPast: appCfg.ReportPreferPast}
		reportsHandler := reportsfeature.NewHandler(db, auditLog, policy, logger)
		api.Mount("/reports", reportsfeature.Routes(reportsHandler, sessionMgr))

		filtersHandler := filtersfeature.NewHandler(db, sessionMgr, logger)
		api.Mount("/filters", filtersfeature.Routes(filtersHandler, sessionMgr))

		// Administration
		usersHandler := usersfeature.NewHandler(db, auditLog, logger)
		api.Mount("/users", usersfeature.Routes(usersHandler, sessionMgr))

		apiKeysHandler := apikeysfeature.NewHandler(db, auditLog, logger)
		api.Mount("/apikeys", apikeysfeature.Routes(apiKeysHandler, sessionMgr))

		auditHandler := auditfeature.NewHandler(db, logger)
		api.Mount("/audit", auditfeature.Routes(auditHandler, sessionMgr))

		api.NotFound(func(w http.ResponseWriter, r *http.Request) {
			apierr.NotFound(w, "No such endpoint.")
		})
	})

	return r, nil
}
