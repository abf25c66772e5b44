// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for MentorHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: MENTORHUB_MONGO_URI, MENTORHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "mentor_hub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "mentorhub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "168h", Desc: "Session lifetime (e.g., 24h, 168h)"},

	{Name: "csrf_key", Default: "dev-only-csrf-key-0123456789ABCDEFGH", Desc: "CSRF token signing key (32+ chars)"},

	// Invitation settings
	{Name: "invite_secret", Default: "dev-only-invite-secret-change-me", Desc: "HMAC secret for invitation tokens"},
	{Name: "invite_expiry", Default: "168h", Desc: "How long an unclaimed invitation stays valid"},

	// Email/SMTP configuration
	{Name: "mail_smtp_host", Default: "", Desc: "SMTP server host (blank disables sending)"},
	{Name: "mail_smtp_port", Default: 587, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@mentorhub.org", Desc: "From email address"},
	{Name: "mail_from_name", Default: "MentorHub", Desc: "From display name"},

	// Base URL for email links (invitation claims)
	{Name: "base_url", Default: "http://localhost:3000", Desc: "Base URL for email links"},

	{Name: "site_name", Default: "MentorHub", Desc: "Site name shown in page headers"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Admin bootstrap
	{Name: "admin_email", Default: "", Desc: "Email of the initial admin user (promotes/creates on startup)"},
	{Name: "admin_password", Default: "", Desc: "Password for the initial admin user (only used when creating)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It is called early in startup so that both WAFFLE and the app have
// access to configuration before any backends or handlers are built.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "MENTORHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 168*time.Hour),

		CSRFKey: appValues.String("csrf_key"),

		InviteSecret: appValues.String("invite_secret"),
		InviteExpiry: appValues.Duration("invite_expiry", 168*time.Hour),

		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailFrom:     appValues.String("mail_from"),
		MailFromName: appValues.String("mail_from_name"),

		BaseURL:  appValues.String("base_url"),
		SiteName: appValues.String("site_name"),

		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),

		AdminEmail:    appValues.String("admin_email"),
		AdminPassword: appValues.String("admin_password"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// MentorHub validates the MongoDB URI format and key lengths to catch
// configuration errors early, before attempting to connect.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if len(appCfg.SessionKey) < 32 {
		return fmt.Errorf("session_key must be at least 32 characters (got %d)", len(appCfg.SessionKey))
	}
	if len(appCfg.CSRFKey) < 32 {
		return fmt.Errorf("csrf_key must be at least 32 characters (got %d)", len(appCfg.CSRFKey))
	}
	if appCfg.InviteSecret == "" {
		return fmt.Errorf("invite_secret must not be empty")
	}
	if appCfg.InviteExpiry <= 0 {
		return fmt.Errorf("invite_expiry must be positive (got %s)", appCfg.InviteExpiry)
	}

	if appCfg.AdminEmail != "" && appCfg.AdminPassword != "" && len(appCfg.AdminPassword) < 8 {
		return fmt.Errorf("admin_password must be at least 8 characters")
	}

	return nil
}
