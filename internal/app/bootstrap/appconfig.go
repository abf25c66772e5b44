// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds app-specific configuration for MentorHub.
//
// Values are loaded by LoadConfig from config files, environment
// variables (MENTORHUB_*), and command-line flags. WAFFLE's CoreConfig
// handles framework-level settings (ports, TLS, logging); this struct
// is everything specific to the application itself.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string // secret key for signing session cookies
	SessionName   string // cookie name (default: mentorhub-session)
	SessionDomain string // cookie domain (blank means current host)
	SessionMaxAge time.Duration

	// CSRF token signing key (32+ chars)
	CSRFKey string

	// Invitation configuration. InviteSecret signs invitation tokens;
	// InviteExpiry bounds how long an unclaimed invitation stays valid.
	InviteSecret string
	InviteExpiry time.Duration

	// Email/SMTP configuration. A blank host yields a log-only mailer.
	MailSMTPHost string
	MailSMTPPort int
	MailSMTPUser string
	MailSMTPPass string
	MailFrom     string // from email address (e.g., noreply@mentorhub.org)
	MailFromName string // from display name (e.g., MentorHub)

	// BaseURL is used to build absolute links in outgoing email
	// (invitation claim links), e.g. "https://mentorhub.org".
	BaseURL string

	// SiteName appears in page headers and email subjects.
	SiteName string

	// Audit logging destinations: 'all' (db+log), 'db', 'log', or 'off'.
	AuditLogAuth  string
	AuditLogAdmin string

	// AdminEmail/AdminPassword bootstrap the first admin account on
	// startup. Blank email disables the bootstrap.
	AdminEmail    string
	AdminPassword string
}
