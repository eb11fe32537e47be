package api

import (
	"github.com/20q2/5e-combat-simulator-sub003/internal/catalog"
	"github.com/20q2/5e-combat-simulator-sub003/internal/service"
	"github.com/20q2/5e-combat-simulator-sub003/internal/storage"
)

// EncounterHandler groups all encounter-related HTTP handlers.
type EncounterHandler struct {
	repo       storage.Repository
	svc        *service.Service
	catalog    *catalog.Store
	gridWidth  int
	gridHeight int
}

// NewEncounterHandler creates an EncounterHandler with the given repository,
// service and catalog store, and the configured grid dimensions for new
// encounters.
func NewEncounterHandler(repo storage.Repository, svc *service.Service, cat *catalog.Store, gridWidth, gridHeight int) *EncounterHandler {
	return &EncounterHandler{repo: repo, svc: svc, catalog: cat, gridWidth: gridWidth, gridHeight: gridHeight}
}
