package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/benflix/benflix/models"
	"gorm.io/gorm"
)

// RunMigrations creates or updates every table and index.
func RunMigrations(ctx context.Context, db *gorm.DB, logger *slog.Logger) error {
	sqlite := db.Dialector.Name() == "sqlite"

	if sqlite {
		if err := enableSQLiteOptimizations(ctx, db, logger); err != nil {
			return fmt.Errorf("failed to enable SQLite optimizations: %w", err)
		}
	}

	if err := db.WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	if err := createAdditionalIndexes(ctx, db, logger); err != nil {
		return fmt.Errorf("failed to create additional indexes: %w", err)
	}

	logger.InfoContext(ctx, "Database migrated", slog.String("dialect", db.Dialector.Name()))
	return nil
}

// enableSQLiteOptimizations enables SQLite-specific optimizations
func enableSQLiteOptimizations(ctx context.Context, db *gorm.DB, logger *slog.Logger) error {
	optimizations := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA busy_timeout=5000",
	}

	for _, pragma := range optimizations {
		if err := db.WithContext(ctx).Exec(pragma).Error; err != nil {
			logger.Warn("Failed to execute pragma", slog.String("pragma", pragma), slog.Any("error", err))
		} else {
			logger.Debug("Executed pragma", slog.String("pragma", pragma))
		}
	}

	return nil
}

// createAdditionalIndexes creates the composite indexes behind the join
// lookups. Both dialects accept this syntax.
func createAdditionalIndexes(ctx context.Context, db *gorm.DB, logger *slog.Logger) error {
	additionalIndexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_show_categories_category_created ON show_categories(category_id, created_at)",
		"CREATE INDEX IF NOT EXISTS idx_favorites_user_created ON favorites(user_id, created_at)",
		"CREATE INDEX IF NOT EXISTS idx_sessions_user_expires ON sessions(user_id, expires_at)",
	}

	for _, indexSQL := range additionalIndexes {
		if err := db.WithContext(ctx).Exec(indexSQL).Error; err != nil {
			return fmt.Errorf("failed to create index %q: %w", indexSQL, err)
		}
		logger.Debug("Created index", slog.String("sql", indexSQL))
	}

	return nil
}
