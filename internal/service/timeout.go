package service

import (
	"fmt"
	"time"

	"github.com/20q2/5e-combat-simulator-sub003/internal/game"
	"github.com/20q2/5e-combat-simulator-sub003/internal/logging"
)

// HandleTimedOutEncounter forfeits the active combatant's turn when the
// owner let the planning window lapse. The background scanner calls this
// for every encounter the repository reports as overdue.
func (s *Service) HandleTimedOutEncounter(encounterID uint) error {
	e, err := s.repo.GetEncounterByID(encounterID)
	if err != nil {
		return ErrEncounterNotFound
	}
	if e.Status != game.StatusInProgress {
		return nil
	}
	if time.Now().Before(e.ActionDeadline) {
		return nil
	}
	if actor := e.ActiveCombatant(); actor != nil {
		e.AppendLog(game.LogEntry{
			Kind: game.LogTurn, ActorID: actor.ID, ActorName: actor.Name,
			Message: fmt.Sprintf("%s hesitates and the turn passes", actor.Name),
		})
	}
	s.advanceTurn(e)
	if err := s.repo.UpdateEncounter(e); err != nil {
		return err
	}
	logging.Info("turn forfeited on timeout", logging.Fields{"encounter_id": e.ID})
	return nil
}
