// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections
// and schema setup, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := deps.Blobs.Ping(ctx); err != nil {
		// The app still serves without object storage; uploads will fail
		// until it comes back.
		logger.Warn("blob store unreachable at startup", zap.Error(err))
	}
	return nil
}
