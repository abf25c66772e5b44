// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"

	"github.com/dalemusser/mentorhub/internal/app/store/audit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for authentication events (login, logout, registration).
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Auth string
	// Admin controls logging for admin and connection events (user/org CRUD,
	// connection lifecycle, role grants, invitations).
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Admin string
}

// Logger provides convenience methods for logging audit events.
// It logs to both MongoDB (via audit.Store) and structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header first (for reverse proxies)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	// Check X-Real-IP header
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	// Fall back to RemoteAddr
	return r.RemoteAddr
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}

	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.OrganizationID != nil {
		fields = append(fields, zap.String("organization_id", event.OrganizationID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
// Logging destination is controlled by config: "all", "db", "log", or "off".
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	// Determine which config setting applies based on event category
	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAdmin:
		setting = l.config.Admin
	default:
		setting = "all" // Default to logging everything for unknown categories
	}

	// Check if logging is disabled for this category
	if setting == "off" {
		return
	}

	// Log to zap if configured
	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}

	// Log to MongoDB if configured
	if setting == "all" || setting == "db" {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// --- Authentication Events ---

// LoginSuccess logs a successful login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details: map[string]string{
			"email": email,
		},
	})
}

// LoginFailedUserNotFound logs a failed login due to user not found.
func (l *Logger) LoginFailedUserNotFound(ctx context.Context, r *http.Request, attemptedEmail string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedUserNotFound,
		IP:            getClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: "user not found",
		Details: map[string]string{
			"attempted_email": attemptedEmail,
		},
	})
}

// LoginFailedWrongPassword logs a failed login due to wrong password.
func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedWrongPassword,
		UserID:        &userID,
		IP:            getClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: "wrong password",
		Details: map[string]string{
			"email": email,
		},
	})
}

// LoginFailedUserDisabled logs a failed login due to disabled account.
func (l *Logger) LoginFailedUserDisabled(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedUserDisabled,
		UserID:        &userID,
		IP:            getClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: "user disabled",
		Details: map[string]string{
			"email": email,
		},
	})
}

// Logout logs a user logout.
// Accepts the string ID from SessionUser and converts it to an ObjectID.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userIDStr string) {
	var userID *primitive.ObjectID
	if oid, err := primitive.ObjectIDFromHex(userIDStr); err == nil {
		userID = &oid
	}

	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLogout,
		UserID:    userID,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	})
}

// UserRegistered logs a self-service account registration.
func (l *Logger) UserRegistered(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventUserRegistered,
		UserID:    &userID,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details: map[string]string{
			"email": email,
		},
	})
}

// --- User Admin Events ---

// UserCreated logs an admin creating a user account.
func (l *Logger) UserCreated(ctx context.Context, r *http.Request, actorID, userID primitive.ObjectID, email string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventUserCreated,
		ActorID:   &actorID,
		UserID:    &userID,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details: map[string]string{
			"email": email,
		},
	})
}

// UserStatusChanged logs enabling or disabling a user account.
func (l *Logger) UserStatusChanged(ctx context.Context, r *http.Request, actorID, userID primitive.ObjectID, disabled bool) {
	eventType := audit.EventUserEnabled
	if disabled {
		eventType = audit.EventUserDisabled
	}
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: eventType,
		ActorID:   &actorID,
		UserID:    &userID,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	})
}

// --- Organization Events ---

// OrgCreated logs creation of an organization.
func (l *Logger) OrgCreated(ctx context.Context, r *http.Request, actorID, orgID primitive.ObjectID, orgName string) {
	l.Log(ctx, audit.Event{
		Category:       audit.CategoryAdmin,
		EventType:      audit.EventOrgCreated,
		ActorID:        &actorID,
		OrganizationID: &orgID,
		IP:             getClientIP(r),
		UserAgent:      r.UserAgent(),
		Success:        true,
		Details: map[string]string{
			"org_name": orgName,
		},
	})
}

// OrgUpdated logs an update to an organization.
func (l *Logger) OrgUpdated(ctx context.Context, r *http.Request, actorID, orgID primitive.ObjectID, orgName string) {
	l.Log(ctx, audit.Event{
		Category:       audit.CategoryAdmin,
		EventType:      audit.EventOrgUpdated,
		ActorID:        &actorID,
		OrganizationID: &orgID,
		IP:             getClientIP(r),
		UserAgent:      r.UserAgent(),
		Success:        true,
		Details: map[string]string{
			"org_name": orgName,
		},
	})
}

// OrgDeleted logs deletion of an organization.
func (l *Logger) OrgDeleted(ctx context.Context, r *http.Request, actorID, orgID primitive.ObjectID, orgName string) {
	l.Log(ctx, audit.Event{
		Category:       audit.CategoryAdmin,
		EventType:      audit.EventOrgDeleted,
		ActorID:        &actorID,
		OrganizationID: &orgID,
		IP:             getClientIP(r),
		UserAgent:      r.UserAgent(),
		Success:        true,
		Details: map[string]string{
			"org_name": orgName,
		},
	})
}

// --- Connection Events ---

// ConnectionCreated logs the start of a connection between a user and an organization.
func (l *Logger) ConnectionCreated(ctx context.Context, r *http.Request, actorID, subjectUserID, orgID primitive.ObjectID, role, initiator string) {
	l.Log(ctx, audit.Event{
		Category:       audit.CategoryAdmin,
		EventType:      audit.EventConnectionCreated,
		ActorID:        &actorID,
		UserID:         &subjectUserID,
		OrganizationID: &orgID,
		IP:             getClientIP(r),
		UserAgent:      r.UserAgent(),
		Success:        true,
		Details: map[string]string{
			"role":      role,
			"initiator": initiator,
		},
	})
}

// ConnectionDecided logs an accept or reject decision on a pending connection flag.
func (l *Logger) ConnectionDecided(ctx context.Context, r *http.Request, actorID, subjectUserID, orgID primitive.ObjectID, role, side, outcome string) {
	l.Log(ctx, audit.Event{
		Category:       audit.CategoryAdmin,
		EventType:      audit.EventConnectionDecided,
		ActorID:        &actorID,
		UserID:         &subjectUserID,
		OrganizationID: &orgID,
		IP:             getClientIP(r),
		UserAgent:      r.UserAgent(),
		Success:        true,
		Details: map[string]string{
			"role":    role,
			"side":    side,
			"outcome": outcome,
		},
	})
}

// ConnectionDeleted logs removal of a connection and its message thread.
func (l *Logger) ConnectionDeleted(ctx context.Context, r *http.Request, actorID, subjectUserID, orgID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:       audit.CategoryAdmin,
		EventType:      audit.EventConnectionDeleted,
		ActorID:        &actorID,
		UserID:         &subjectUserID,
		OrganizationID: &orgID,
		IP:             getClientIP(r),
		UserAgent:      r.UserAgent(),
		Success:        true,
	})
}

// RoleGranted logs a role being granted because both sides accepted.
func (l *Logger) RoleGranted(ctx context.Context, r *http.Request, subjectUserID, orgID primitive.ObjectID, role string) {
	l.Log(ctx, audit.Event{
		Category:       audit.CategoryAdmin,
		EventType:      audit.EventRoleGranted,
		UserID:         &subjectUserID,
		OrganizationID: &orgID,
		IP:             getClientIP(r),
		UserAgent:      r.UserAgent(),
		Success:        true,
		Details: map[string]string{
			"role": role,
		},
	})
}

// RoleResigned logs a user giving up a granted role.
func (l *Logger) RoleResigned(ctx context.Context, r *http.Request, subjectUserID, orgID primitive.ObjectID, role string) {
	l.Log(ctx, audit.Event{
		Category:       audit.CategoryAdmin,
		EventType:      audit.EventRoleResigned,
		UserID:         &subjectUserID,
		OrganizationID: &orgID,
		IP:             getClientIP(r),
		UserAgent:      r.UserAgent(),
		Success:        true,
		Details: map[string]string{
			"role": role,
		},
	})
}

// --- Invitation Events ---

// InvitationSent logs an email invitation being issued for an organization role.
func (l *Logger) InvitationSent(ctx context.Context, r *http.Request, actorID, orgID primitive.ObjectID, email, role string) {
	l.Log(ctx, audit.Event{
		Category:       audit.CategoryAdmin,
		EventType:      audit.EventInvitationSent,
		ActorID:        &actorID,
		OrganizationID: &orgID,
		IP:             getClientIP(r),
		UserAgent:      r.UserAgent(),
		Success:        true,
		Details: map[string]string{
			"email": email,
			"role":  role,
		},
	})
}

// InvitationClaimed logs a single-use invitation token being consumed.
func (l *Logger) InvitationClaimed(ctx context.Context, r *http.Request, userID, orgID primitive.ObjectID, role string) {
	l.Log(ctx, audit.Event{
		Category:       audit.CategoryAdmin,
		EventType:      audit.EventInvitationClaimed,
		UserID:         &userID,
		OrganizationID: &orgID,
		IP:             getClientIP(r),
		UserAgent:      r.UserAgent(),
		Success:        true,
		Details: map[string]string{
			"role": role,
		},
	})
}

// InvitationRevoked logs an invitation being withdrawn before use.
func (l *Logger) InvitationRevoked(ctx context.Context, r *http.Request, actorID, orgID primitive.ObjectID, email string) {
	l.Log(ctx, audit.Event{
		Category:       audit.CategoryAdmin,
		EventType:      audit.EventInvitationRevoked,
		ActorID:        &actorID,
		OrganizationID: &orgID,
		IP:             getClientIP(r),
		UserAgent:      r.UserAgent(),
		Success:        true,
		Details: map[string]string{
			"email": email,
		},
	})
}
