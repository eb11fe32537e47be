package storage

import (
	"time"

	"github.com/20q2/5e-combat-simulator-sub003/internal/game"
)

type Repository interface {
	CreateEncounter(e *game.Encounter) error
	GetEncounterByID(id uint) (*game.Encounter, error)
	FindEncounterByJoinCode(code string) (*game.Encounter, error)
	// GetOpenEncounters lists recently created encounters still in setup,
	// for the join screen.
	GetOpenEncounters() ([]game.Encounter, error)
	UpdateEncounter(e *game.Encounter) error
	DeleteEncounter(id uint) error

	UpsertUser(email, name string) error
	GetStatsByEmail(email string) (*game.User, error)
	// UpdateStatsOnEncounterEnd records one played encounter for the owner
	// and a victory or defeat according to the outcome.
	UpdateStatsOnEncounterEnd(e *game.Encounter) error
	GetTopPlayers(limit int) ([]game.User, error)

	// FindTimedOutEncounters returns encounters that are in progress, in
	// the planning phase and whose action deadline is at or before the
	// provided time. The caller decides how to resolve them (for example,
	// ending the active turn due to inactivity).
	FindTimedOutEncounters(now time.Time) ([]game.Encounter, error)
}
