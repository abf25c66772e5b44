// internal/app/features/profile/handler.go
package profile

import (
	uierrors "github.com/dalemusser/mentorhub/internal/app/features/errors"
	organizationstore "github.com/dalemusser/mentorhub/internal/app/store/organizations"
	profilestore "github.com/dalemusser/mentorhub/internal/app/store/profiles"
	userstore "github.com/dalemusser/mentorhub/internal/app/store/users"
	"go.uber.org/zap"
)

type Handler struct {
	Users    *userstore.Store
	Profiles *profilestore.Store
	Orgs     *organizationstore.Store
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(
	users *userstore.Store,
	profiles *profilestore.Store,
	orgs *organizationstore.Store,
	errLog *uierrors.ErrorLogger,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Users:    users,
		Profiles: profiles,
		Orgs:     orgs,
		ErrLog:   errLog,
		Log:      logger,
	}
}
