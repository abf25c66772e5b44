// internal/app/bootstrap/routes.go
package bootstrap

import (
	"fmt"
	"net/http"

	aboutfeature "github.com/dalemusser/mentorhub/internal/app/features/about"
	auditlogfeature "github.com/dalemusser/mentorhub/internal/app/features/auditlog"
	connectionsfeature "github.com/dalemusser/mentorhub/internal/app/features/connections"
	errorsfeature "github.com/dalemusser/mentorhub/internal/app/features/errors"
	healthfeature "github.com/dalemusser/mentorhub/internal/app/features/health"
	homefeature "github.com/dalemusser/mentorhub/internal/app/features/home"
	loginfeature "github.com/dalemusser/mentorhub/internal/app/features/login"
	logoutfeature "github.com/dalemusser/mentorhub/internal/app/features/logout"
	organizationsfeature "github.com/dalemusser/mentorhub/internal/app/features/organizations"
	profilefeature "github.com/dalemusser/mentorhub/internal/app/features/profile"
	registerfeature "github.com/dalemusser/mentorhub/internal/app/features/register"
	termsfeature "github.com/dalemusser/mentorhub/internal/app/features/terms"
	usersfeature "github.com/dalemusser/mentorhub/internal/app/features/users"
	anonconnectionstore "github.com/dalemusser/mentorhub/internal/app/store/anonconnections"
	"github.com/dalemusser/mentorhub/internal/app/store/audit"
	messagestore "github.com/dalemusser/mentorhub/internal/app/store/connectionmessages"
	connectionstore "github.com/dalemusser/mentorhub/internal/app/store/connections"
	organizationstore "github.com/dalemusser/mentorhub/internal/app/store/organizations"
	profilestore "github.com/dalemusser/mentorhub/internal/app/store/profiles"
	userstore "github.com/dalemusser/mentorhub/internal/app/store/users"
	"github.com/dalemusser/mentorhub/internal/app/system/auditlog"
	"github.com/dalemusser/mentorhub/internal/app/system/auth"
	"github.com/dalemusser/mentorhub/internal/app/system/mailer"
	"github.com/dalemusser/mentorhub/internal/app/system/notify"
	"github.com/dalemusser/mentorhub/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed.
//
// MentorHub initializes the template engine, applies session and CSRF
// middleware, and mounts feature routers for all application areas:
// home, login, registration, connections, organizations, and user
// administration.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(
		appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain,
		appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Initialize and boot the template engine once at startup.
	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	db := deps.MongoDatabase

	// Stores
	users := userstore.New(db)
	profiles := profilestore.New(db)
	orgs := organizationstore.New(db)
	messages := messagestore.New(db)
	conns := connectionstore.New(db, profiles, messages)
	invites := anonconnectionstore.New(db, appCfg.InviteSecret, appCfg.InviteExpiry)
	audits := audit.New(db)

	// Cross-cutting services
	errLog := errorsfeature.NewErrorLogger(logger)
	auditLog := auditlog.New(audits, logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})

	from := appCfg.MailFrom
	if appCfg.MailFromName != "" {
		from = fmt.Sprintf("%s <%s>", appCfg.MailFromName, appCfg.MailFrom)
	}
	mail := mailer.New(mailer.Config{
		Host:     appCfg.MailSMTPHost,
		Port:     appCfg.MailSMTPPort,
		Username: appCfg.MailSMTPUser,
		Password: appCfg.MailSMTPPass,
		From:     from,
	}, logger)
	notifier := notify.New(mail, logger)

	loginLimiter := ratelimit.NewLoginLimiter()

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	// This makes the current user available to all handlers via auth.CurrentUser(r).
	r.Use(sessionMgr.LoadSessionUser)

	// All forms carry a gorilla/csrf token rendered via the shared layout.
	r.Use(csrf.Protect([]byte(appCfg.CSRFKey),
		csrf.Secure(secure),
		csrf.Path("/")))

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	// Public pages
	homeHandler := homefeature.NewHandler(profiles, conns, logger)
	r.Mount("/", homefeature.Routes(homeHandler))

	aboutHandler := aboutfeature.NewHandler(logger)
	r.Mount("/about", aboutfeature.Routes(aboutHandler))

	termsHandler := termsfeature.NewHandler(logger)
	r.Mount("/terms", termsfeature.Routes(termsHandler))

	// Authentication
	loginHandler := loginfeature.NewHandler(users, sessionMgr, errLog, auditLog, loginLimiter, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, auditLog, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

	registerHandler := registerfeature.NewHandler(
		users, profiles, conns, invites, notifier, sessionMgr, errLog, auditLog,
		appCfg.BaseURL, logger)
	r.Mount("/register", registerfeature.Routes(registerHandler))

	// Account profile
	profileHandler := profilefeature.NewHandler(users, profiles, orgs, errLog, logger)
	r.Mount("/profile", profilefeature.Routes(profileHandler, sessionMgr))

	// Error pages
	errorsHandler := errorsfeature.NewHandler()
	r.Get("/forbidden", errorsHandler.Forbidden)
	r.Get("/unauthorized", errorsHandler.Unauthorized)

	// Connections between users and organizations
	connHandler := connectionsfeature.NewHandler(
		users, profiles, orgs, conns, messages, invites, notifier, auditLog, errLog,
		appCfg.BaseURL, logger)
	r.Mount("/connections", connectionsfeature.Routes(connHandler, sessionMgr))

	// Organization directory and management
	orgHandler := organizationsfeature.NewHandler(db, orgs, profiles, users, auditLog, errLog, logger)
	r.Mount("/organizations", organizationsfeature.Routes(orgHandler, sessionMgr))

	// User administration
	usersHandler := usersfeature.NewHandler(users, audits, auditLog, errLog, logger)
	r.Mount("/users", usersfeature.Routes(usersHandler, sessionMgr))

	// Audit log browser
	auditHandler := auditlogfeature.NewHandler(audits, users, orgs, errLog, logger)
	r.Mount("/audit", auditlogfeature.Routes(auditHandler, sessionMgr))

	return r, nil
}
