package game

import (
	"time"

	"gorm.io/gorm"
)

// Encounter statuses and phases.
const (
	StatusSetup      = "setup"
	StatusInProgress = "in_progress"
	StatusFinished   = "finished"

	PhasePlanning = "planning"
	PhaseResolved = "resolved"
)

// Outcome values for a finished encounter.
const (
	OutcomeNone    = ""
	OutcomeVictory = "victory"
	OutcomeDefeat  = "defeat"
)

// Encounter is one combat session: the roster, the grid, the initiative
// order and the accumulated log. The encounter (via the service layer) is
// the single writer for all of its combatants.
type Encounter struct {
	gorm.Model
	Name       string `json:"name" gorm:"size:64"`
	JoinCode   string `json:"join_code" gorm:"unique"`
	OwnerEmail string `json:"-"`
	Status     string `json:"status"`
	Phase      string `json:"phase"`
	Outcome    string `json:"outcome"`
	Round      int    `json:"round"`
	TurnIndex  int    `json:"turn_index"`

	Combatants []Combatant      `json:"combatants"`
	Grid       *Grid            `json:"grid" gorm:"serializer:json"`
	Log        []CombatLogEntry `json:"log" gorm:"serializer:json"`

	ActionDeadline time.Time `json:"action_deadline"`
}

// CombatantByID returns the roster entry with the given id, or nil.
func (e *Encounter) CombatantByID(id uint) *Combatant {
	for i := range e.Combatants {
		if e.Combatants[i].ID == id {
			return &e.Combatants[i]
		}
	}
	return nil
}

// ActiveCombatant returns the combatant whose turn it is, or nil before the
// encounter starts.
func (e *Encounter) ActiveCombatant() *Combatant {
	if e.Status != StatusInProgress || len(e.Combatants) == 0 {
		return nil
	}
	return &e.Combatants[e.TurnIndex%len(e.Combatants)]
}

// AppendLog stamps and stores engine-emitted log entries in order.
func (e *Encounter) AppendLog(entries ...LogEntry) {
	for _, le := range entries {
		e.Log = append(e.Log, CombatLogEntry{
			Seq:      len(e.Log) + 1,
			Round:    e.Round,
			LogEntry: le,
		})
	}
}

// User stores unique player identity and aggregate stats.
type User struct {
	gorm.Model
	Email      string `gorm:"uniqueIndex"`
	PlayerName string
	Encounters int
	Victories  int
	Defeats    int
}

// TableName keeps the global users table name distinct from encounter data.
func (User) TableName() string { return "player_profiles" }
