package migrate

import (
	"context"
	"fmt"

	"github.com/kalakriti/commerce-engine/pkg/config"
	"github.com/kalakriti/commerce-engine/pkg/db"
	"github.com/kalakriti/commerce-engine/pkg/logger"
)

// MaybeRunDev executes migrations automatically when the app is running in dev
// mode and auto-migrate is enabled on the storage config.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.Storage.AutoMigrate {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	if logg != nil {
		meta := map[string]any{"env": cfg.App.Env, "dir": DefaultDir}
		ctx = logg.WithFields(ctx, meta)
		logg.Info(ctx, "running Goose migrations (dev auto-run)")
	}

	if err := Run(ctx, sqlDB, client.Driver(), DefaultDir, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, "Goose migrations completed")
	}
	return nil
}
