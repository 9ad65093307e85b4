// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	churchstore "github.com/celulahub/celulahub/internal/app/store/churches"
	userstore "github.com/celulahub/celulahub/internal/app/store/users"
	"github.com/celulahub/celulahub/internal/app/system/authz"
	"github.com/celulahub/celulahub/internal/app/system/indexes"
	"github.com/celulahub/celulahub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB opens the MongoDB client and verifies it with a ping.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().ApplyURI(appCfg.MongoURI)
	if appCfg.MongoMaxPoolSize > 0 {
		opts.SetMaxPoolSize(appCfg.MongoMaxPoolSize)
	}
	if appCfg.MongoMinPoolSize > 0 {
		opts.SetMinPoolSize(appCfg.MongoMinPoolSize)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}

	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase),
		zap.Uint64("max_pool_size", appCfg.MongoMaxPoolSize),
	)
	return DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
	}, nil
}

// EnsureSchema reconciles indexes, then seeds the default church and the
// bootstrap admin when configured.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()

	if err := indexes.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("index setup failed", zap.Error(err))
		return err
	}
	return seedDefaults(ctx, deps.MongoDatabase, appCfg, logger)
}

// seedDefaults creates the default church and, when the church has no
// admin yet, the bootstrap admin. Existing data is never modified.
func seedDefaults(ctx context.Context, db *mongo.Database, appCfg AppConfig, logger *zap.Logger) error {
	if appCfg.DefaultChurchName == "" {
		return nil
	}
	church, err := churchstore.New(db).EnsureDefault(ctx, appCfg.DefaultChurchName, appCfg.ChurchTimezone)
	if err != nil {
		return fmt.Errorf("seed church: %w", err)
	}
	logger.Info("default church ready",
		zap.String("church_id", church.ID.Hex()),
		zap.String("name", church.Name))

	if appCfg.AdminLoginID == "" {
		return nil
	}
	users := userstore.New(db)
	n, err := users.CountAdmins(ctx, church.ID)
	if err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if n > 0 {
		return nil
	}
	admin, err := users.Create(ctx, userstore.NewUser{
		ChurchID: church.ID,
		FullName: "Administrator",
		LoginID:  appCfg.AdminLoginID,
		Password: appCfg.AdminPassword,
		Role:     authz.RoleAdmin,
	})
	if errors.Is(err, userstore.ErrDuplicateLoginID) {
		logger.Warn("bootstrap admin login id already taken by a non-admin user",
			zap.String("login_id", appCfg.AdminLoginID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	logger.Info("bootstrap admin created",
		zap.String("user_id", admin.ID.Hex()),
		zap.String("login_id", admin.LoginID))
	return nil
}
