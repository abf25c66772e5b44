// internal/app/features/users/handler.go
package users

import (
	uierrors "github.com/dalemusser/mentorhub/internal/app/features/errors"
	"github.com/dalemusser/mentorhub/internal/app/store/audit"
	userstore "github.com/dalemusser/mentorhub/internal/app/store/users"
	"github.com/dalemusser/mentorhub/internal/app/system/auditlog"
	"go.uber.org/zap"
)

// Handler is the feature-level entry point for the admin Users pages.
type Handler struct {
	Users    *userstore.Store
	Audits   *audit.Store
	AuditLog *auditlog.Logger
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(
	users *userstore.Store,
	audits *audit.Store,
	auditLogger *auditlog.Logger,
	errLog *uierrors.ErrorLogger,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Users:    users,
		Audits:   audits,
		AuditLog: auditLogger,
		ErrLog:   errLog,
		Log:      logger,
	}
}
