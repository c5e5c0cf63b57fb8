package database

import (
	"context"
	"fmt"
	"sync"

	"gorm.io/gorm"

	"github.com/axellelanca/redirector/internal/logger"
	"github.com/axellelanca/redirector/internal/models"
)

// AutoMigrate creates or updates the links and click_events tables.
func AutoMigrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(&models.Link{}, &models.ClickEvent{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// SchemaGuard runs the lazy schema initialization at most once per process.
// Read paths call it when they hit a missing table.
type SchemaGuard struct {
	db  *gorm.DB
	log logger.Logger

	once sync.Once
	err  error
}

// NewSchemaGuard returns a guard bound to db.
func NewSchemaGuard(db *gorm.DB, log logger.Logger) *SchemaGuard {
	return &SchemaGuard{db: db, log: log}
}

// EnsureSchema attempts the migration on the first call and returns the
// remembered outcome on every later call.
func (g *SchemaGuard) EnsureSchema(ctx context.Context) error {
	g.once.Do(func() {
		g.log.Warn("schema missing, running lazy initialization")
		g.err = AutoMigrate(ctx, g.db)
		if g.err != nil {
			g.log.Error("lazy schema initialization failed", logger.Error(g.err))
			return
		}
		g.log.Info("lazy schema initialization complete")
	})
	return g.err
}
