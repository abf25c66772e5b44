// internal/app/features/connections/handler.go
package connections

import (
	uierrors "github.com/dalemusser/mentorhub/internal/app/features/errors"
	anonconnectionstore "github.com/dalemusser/mentorhub/internal/app/store/anonconnections"
	messagestore "github.com/dalemusser/mentorhub/internal/app/store/connectionmessages"
	connectionstore "github.com/dalemusser/mentorhub/internal/app/store/connections"
	organizationstore "github.com/dalemusser/mentorhub/internal/app/store/organizations"
	profilestore "github.com/dalemusser/mentorhub/internal/app/store/profiles"
	userstore "github.com/dalemusser/mentorhub/internal/app/store/users"
	"github.com/dalemusser/mentorhub/internal/app/system/auditlog"
	"github.com/dalemusser/mentorhub/internal/app/system/notify"
	"go.uber.org/zap"
)

// Handler is the feature-level entry point for connection negotiation: the
// user side, the organization side, and the invitation flow.
type Handler struct {
	Users       *userstore.Store
	Profiles    *profilestore.Store
	Orgs        *organizationstore.Store
	Connections *connectionstore.Store
	Messages    *messagestore.Store
	Invites     *anonconnectionstore.Store
	Notify      *notify.Notifier
	AuditLog    *auditlog.Logger
	ErrLog      *uierrors.ErrorLogger
	BaseURL     string
	Log         *zap.Logger
}

func NewHandler(
	users *userstore.Store,
	profiles *profilestore.Store,
	orgs *organizationstore.Store,
	conns *connectionstore.Store,
	messages *messagestore.Store,
	invites *anonconnectionstore.Store,
	notifier *notify.Notifier,
	audit *auditlog.Logger,
	errLog *uierrors.ErrorLogger,
	baseURL string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Users:       users,
		Profiles:    profiles,
		Orgs:        orgs,
		Connections: conns,
		Messages:    messages,
		Invites:     invites,
		Notify:      notifier,
		AuditLog:    audit,
		ErrLog:      errLog,
		BaseURL:     baseURL,
		Log:         logger,
	}
}
