// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	anonconnectionstore "github.com/dalemusser/mentorhub/internal/app/store/anonconnections"
	"github.com/dalemusser/mentorhub/internal/app/store/audit"
	messagestore "github.com/dalemusser/mentorhub/internal/app/store/connectionmessages"
	connectionstore "github.com/dalemusser/mentorhub/internal/app/store/connections"
	organizationstore "github.com/dalemusser/mentorhub/internal/app/store/organizations"
	profilestore "github.com/dalemusser/mentorhub/internal/app/store/profiles"
	userstore "github.com/dalemusser/mentorhub/internal/app/store/users"
	"github.com/dalemusser/mentorhub/internal/app/system/indexes"
	"github.com/dalemusser/mentorhub/internal/app/system/timeouts"
	"github.com/dalemusser/mentorhub/internal/app/system/validators"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB establishes the MongoDB connection and verifies it with a
// ping before the rest of startup proceeds.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}

	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase))

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
	}, nil
}

// EnsureSchema creates collections, JSON-Schema validators, and the
// indexes every store depends on. It runs once at startup, after
// ConnectDB and before the HTTP handler is built.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase

	if err := validators.EnsureAll(ctx, db); err != nil {
		logger.Error("schema validator setup failed", zap.Error(err))
		return fmt.Errorf("ensure validators: %w", err)
	}

	profiles := profilestore.New(db)
	messages := messagestore.New(db)

	err := indexes.EnsureAll(ctx, indexes.Set{
		Users:         userstore.New(db),
		Organizations: organizationstore.New(db),
		Profiles:      profiles,
		Connections:   connectionstore.New(db, profiles, messages),
		Messages:      messages,
		Invitations:   anonconnectionstore.New(db, appCfg.InviteSecret, appCfg.InviteExpiry),
		Audit:         audit.New(db),
	})
	if err != nil {
		logger.Error("index setup failed", zap.Error(err))
		return fmt.Errorf("ensure indexes: %w", err)
	}

	logger.Info("database schema ensured")
	return nil
}
