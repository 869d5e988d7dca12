// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/waffle/config"
	"github.com/msalazarj/primebug/internal/app/provider/authp"
	"github.com/msalazarj/primebug/internal/app/provider/blob"
	documentstore "github.com/msalazarj/primebug/internal/app/store/documents"
	issuestore "github.com/msalazarj/primebug/internal/app/store/issues"
	loginstore "github.com/msalazarj/primebug/internal/app/store/logins"
	"github.com/msalazarj/primebug/internal/app/store/oauthstate"
	profilestore "github.com/msalazarj/primebug/internal/app/store/profiles"
	"github.com/msalazarj/primebug/internal/app/store/resettokens"
	teamstore "github.com/msalazarj/primebug/internal/app/store/teams"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB opens the MongoDB connection and the object storage client.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}
	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	blobs, err := blob.NewMinioStore(blob.MinioConfig{
		Endpoint:  appCfg.BlobEndpoint,
		AccessKey: appCfg.BlobAccessKey,
		SecretKey: appCfg.BlobSecretKey,
		Bucket:    appCfg.BlobBucket,
		UseSSL:    appCfg.BlobUseSSL,
	}, logger)
	if err != nil {
		return DBDeps{}, fmt.Errorf("blob store connect: %w", err)
	}

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
		Blobs:         blobs,
	}, nil
}

// EnsureSchema creates the indexes every store depends on. Index creation
// is idempotent, so this runs on every startup.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase

	ensure := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"profiles", profilestore.New(db).EnsureIndexes},
		{"teams", teamstore.New(db).EnsureIndexes},
		{"documents", documentstore.New(db).EnsureIndexes},
		{"issues", issuestore.New(db).EnsureIndexes},
		{"oauth_states", oauthstate.New(db).EnsureIndexes},
		{"login_records", loginstore.New(db).EnsureIndexes},
		{"reset_tokens", resettokens.New(db).EnsureIndexes},
		{"accounts", authp.NewMongoProvider(db, nil, nil, logger).EnsureIndexes},
	}
	for _, e := range ensure {
		if err := e.fn(ctx); err != nil {
			return fmt.Errorf("ensure %s indexes: %w", e.name, err)
		}
	}
	logger.Info("database indexes ensured")
	return nil
}
