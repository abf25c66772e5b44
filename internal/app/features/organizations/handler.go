// internal/app/features/organizations/handler.go
package organizations

import (
	uierrors "github.com/dalemusser/mentorhub/internal/app/features/errors"
	organizationstore "github.com/dalemusser/mentorhub/internal/app/store/organizations"
	profilestore "github.com/dalemusser/mentorhub/internal/app/store/profiles"
	userstore "github.com/dalemusser/mentorhub/internal/app/store/users"
	"github.com/dalemusser/mentorhub/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the feature-level entry point for Organizations.
type Handler struct {
	DB       *mongo.Database
	Orgs     *organizationstore.Store
	Profiles *profilestore.Store
	Users    *userstore.Store
	AuditLog *auditlog.Logger
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(
	db *mongo.Database,
	orgs *organizationstore.Store,
	profiles *profilestore.Store,
	users *userstore.Store,
	audit *auditlog.Logger,
	errLog *uierrors.ErrorLogger,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		DB:       db,
		Orgs:     orgs,
		Profiles: profiles,
		Users:    users,
		AuditLog: audit,
		ErrLog:   errLog,
		Log:      logger,
	}
}
