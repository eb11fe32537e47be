package storage

import (
	"github.com/20q2/5e-combat-simulator-sub003/internal/game"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// OpenAndMigrate opens the SQLite database and keeps the schema current via
// AutoMigrate. Rules data (weapons, spells, monsters) is not persisted here;
// it lives in the catalog file, which stays the single source of truth.
func OpenAndMigrate(dataSourceName string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dataSourceName), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&game.Encounter{}, &game.Combatant{}, &game.User{}); err != nil {
		return nil, err
	}
	// Join codes are looked up on every join request; the unique constraint
	// on the column doubles as the lookup index.
	if execErr := db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_encounters_join_code ON encounters(join_code);").Error; execErr != nil {
		return nil, execErr
	}
	return db, nil
}
