// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/mentorhub/internal/app/resources"
	anonconnectionstore "github.com/dalemusser/mentorhub/internal/app/store/anonconnections"
	profilestore "github.com/dalemusser/mentorhub/internal/app/store/profiles"
	userstore "github.com/dalemusser/mentorhub/internal/app/store/users"
	"github.com/dalemusser/mentorhub/internal/app/system/viewdata"
	"github.com/dalemusser/mentorhub/internal/app/system/workers"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// inviteCleanup is started here and stopped from Shutdown.
var inviteCleanup *workers.InviteCleanup

// Startup runs one-time application initialization after DB connections
// and schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	viewdata.Init(appCfg.SiteName)
	resources.LoadSharedTemplates()

	if appCfg.AdminEmail != "" {
		if err := ensureAdmin(ctx, deps, appCfg.AdminEmail, appCfg.AdminPassword, logger); err != nil {
			return err
		}
	}

	invites := anonconnectionstore.New(deps.MongoDatabase, appCfg.InviteSecret, appCfg.InviteExpiry)
	inviteCleanup = workers.NewInviteCleanup(invites, logger, time.Hour)
	inviteCleanup.Start()

	return nil
}

// ensureAdmin guarantees an admin account exists for the configured
// email. An existing user is promoted to admin; otherwise a new admin
// account is created with the configured password. The account gets a
// profile so the admin can hold roles like any other user.
func ensureAdmin(ctx context.Context, deps DBDeps, email, password string, logger *zap.Logger) error {
	db := deps.MongoDatabase
	users := userstore.New(db)
	profiles := profilestore.New(db)

	u, err := users.GetByEmail(ctx, email)
	switch err {
	case nil:
		if u.Role == "admin" {
			return nil
		}
		now := time.Now().UTC()
		_, err := db.Collection("users").UpdateOne(ctx,
			bson.M{"_id": u.ID},
			bson.M{"$set": bson.M{"role": "admin", "updated_at": now}})
		if err != nil {
			return fmt.Errorf("promote admin %s: %w", email, err)
		}
		logger.Info("promoted existing user to admin", zap.String("email", email))
		return nil

	case userstore.ErrNotFound:
		if password == "" {
			return fmt.Errorf("admin_email %s does not exist and admin_password is not set", email)
		}
		created, err := users.Create(ctx, models.User{
			FullName: "Administrator",
			Email:    email,
			Role:     "admin",
		}, password)
		if err != nil {
			return fmt.Errorf("create admin %s: %w", email, err)
		}
		if _, err := profiles.Create(ctx, created.ID); err != nil && err != profilestore.ErrDuplicate {
			return fmt.Errorf("create admin profile: %w", err)
		}
		logger.Info("created admin account", zap.String("email", email))
		return nil

	default:
		return fmt.Errorf("look up admin %s: %w", email, err)
	}
}
