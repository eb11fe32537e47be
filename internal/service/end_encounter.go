package service

import (
	"fmt"

	"github.com/20q2/5e-combat-simulator-sub003/internal/game"
	"github.com/20q2/5e-combat-simulator-sub003/internal/logging"
)

// EndEncounter lets the owner concede or abandon the session. Conceding a
// running encounter counts as a defeat; abandoning one still in setup
// records no outcome.
func (s *Service) EndEncounter(encounterID uint, ownerEmail string) (*game.Encounter, error) {
	e, err := s.loadOwned(encounterID, ownerEmail)
	if err != nil {
		return nil, err
	}
	if e.Status == game.StatusFinished {
		return e, nil
	}
	wasRunning := e.Status == game.StatusInProgress
	e.Status = game.StatusFinished
	e.Phase = game.PhaseResolved
	if wasRunning {
		e.Outcome = game.OutcomeDefeat
		e.AppendLog(game.LogEntry{
			Kind:    game.LogEncounter,
			Message: fmt.Sprintf("the encounter is conceded in round %d", e.Round),
		})
		if err := s.repo.UpdateStatsOnEncounterEnd(e); err != nil {
			logging.Error("failed to update player stats", err, logging.Fields{"encounter_id": e.ID})
		}
	}
	if err := s.repo.UpdateEncounter(e); err != nil {
		return nil, err
	}
	return e, nil
}
