package migrate

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/eventloom/finance-backend/pkg/config"
	"github.com/eventloom/finance-backend/pkg/db"
	"github.com/eventloom/finance-backend/pkg/db/models"
	"github.com/eventloom/finance-backend/pkg/logger"
)

// MaybeRunDev migrates automatically in dev when the feature flag is on.
// Postgres runs the goose files; sqlite gets the schema from the models.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "driver": client.Driver()})

	if client.Driver() == config.DriverSQLite {
		logg.Info(ctx, "auto-migrating sqlite schema from models")
		return AutoMigrateModels(client.DB())
	}

	sqlDB, err := client.SQL()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	logg.Info(logg.WithField(ctx, "dir", DefaultDir), "running goose migrations (dev auto-run)")
	if err := Run(ctx, sqlDB, DefaultDir, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}
	logg.Info(ctx, "goose migrations completed")
	return nil
}

// AutoMigrateModels creates every finance table from the gorm models.
func AutoMigrateModels(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&models.Booking{},
		&models.BookingMilestone{},
		&models.VendorPayoutGate{},
		&models.Payout{},
		&models.LedgerEntry{},
		&models.Dispute{},
		&models.Payment{},
		&models.AuditLog{},
		&models.OutboxEvent{},
	)
}
