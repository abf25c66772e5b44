// internal/app/features/auditlog/handler.go
package auditlog

import (
	uierrors "github.com/dalemusser/mentorhub/internal/app/features/errors"
	"github.com/dalemusser/mentorhub/internal/app/store/audit"
	organizationstore "github.com/dalemusser/mentorhub/internal/app/store/organizations"
	userstore "github.com/dalemusser/mentorhub/internal/app/store/users"
	"go.uber.org/zap"
)

type Handler struct {
	Audits *audit.Store
	Users  *userstore.Store
	Orgs   *organizationstore.Store
	ErrLog *uierrors.ErrorLogger
	Log    *zap.Logger
}

// NewHandler constructs an audit log feature handler.
func NewHandler(
	audits *audit.Store,
	users *userstore.Store,
	orgs *organizationstore.Store,
	errLog *uierrors.ErrorLogger,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Audits: audits,
		Users:  users,
		Orgs:   orgs,
		ErrLog: errLog,
		Log:    logger,
	}
}
