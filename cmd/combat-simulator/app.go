package main

import (
	"github.com/20q2/5e-combat-simulator-sub003/internal/catalog"
	"github.com/20q2/5e-combat-simulator-sub003/internal/config"
	"github.com/20q2/5e-combat-simulator-sub003/internal/logging"
	"github.com/20q2/5e-combat-simulator-sub003/internal/storage"
)

func loadConfigOrExit(path string) *config.LoadedConfig {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		logging.Fatal("Missing or invalid combat configuration", err, logging.Fields{"config_path": path, "hint": "create a combat_config.json with a 'catalog_path' pointing at the rules catalog and optional keys: server.address, database.path, grid{width,height}, action_timeout_seconds, dice_seed"})
	}
	return cfg
}

func createRepositoryOrExit(dbPath string) storage.Repository {
	db, err := storage.OpenAndMigrate(dbPath)
	if err != nil {
		logging.Fatal("Failed to initialize database", err, logging.Fields{"db_path": dbPath})
	}
	return storage.NewSQLiteRepository(db)
}

func loadCatalogOrExit(path string) (*catalog.Store, *catalog.Catalog) {
	store := catalog.NewStore(path)
	cat, err := store.Get()
	if err != nil {
		logging.Fatal("Missing or invalid rules catalog", err, logging.Fields{"catalog_path": path})
	}
	return store, cat
}
