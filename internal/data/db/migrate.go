package db

import (
	"fmt"

	types "github.com/echobeat/catalog-seeder/internal/domain/catalog"
)

// AutoMigrateAll creates or updates the catalog tables for local and test stores.
// Production schemas are owned by the catalog service's own migrations.
func (s *Store) AutoMigrateAll() error {
	if err := s.db.AutoMigrate(types.AllModels()...); err != nil {
		return fmt.Errorf("automigrate catalog: %w", err)
	}

	// Albums are looked up by name; keep that lookup unambiguous.
	if err := s.db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_collection_album_name
		ON collection (name)
		WHERE kind = 'album';
	`).Error; err != nil {
		return fmt.Errorf("create idx_collection_album_name: %w", err)
	}

	if err := s.db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_collection_playlist_name
		ON collection (name)
		WHERE kind = 'playlist';
	`).Error; err != nil {
		return fmt.Errorf("create idx_collection_playlist_name: %w", err)
	}

	s.log.Info("Catalog schema migrated", "tables", len(types.AllModels()))
	return nil
}
