// Package service orchestrates encounters: it is the single writer for
// encounter state. Engine resolvers compute immutable results; everything
// here applies them, appends the combat log and persists through the
// repository.
package service

import (
	"errors"

	"github.com/20q2/5e-combat-simulator-sub003/internal/game"
)

// EncounterRepo is the narrow repository surface the service needs.
type EncounterRepo interface {
	GetEncounterByID(id uint) (*game.Encounter, error)
	UpdateEncounter(e *game.Encounter) error
	UpdateStatsOnEncounterEnd(e *game.Encounter) error
}

var (
	ErrEncounterNotFound      = errors.New("encounter not found")
	ErrNotOwner               = errors.New("only the encounter owner may act")
	ErrEncounterNotInProgress = errors.New("encounter is not in progress")
	ErrEncounterNotInSetup    = errors.New("encounter has already started")
	ErrRosterIncomplete       = errors.New("an encounter needs at least one character and one monster")
	ErrUnknownAction          = errors.New("unknown action type")
)
