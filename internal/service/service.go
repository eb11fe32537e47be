package service

import (
	"fmt"
	"time"

	"github.com/20q2/5e-combat-simulator-sub003/internal/engine"
	"github.com/20q2/5e-combat-simulator-sub003/internal/game"
	"github.com/20q2/5e-combat-simulator-sub003/internal/logging"
)

// Service runs encounters on top of the engine resolvers and the repository.
type Service struct {
	repo        EncounterRepo
	eng         *engine.Resolver
	turnTimeout time.Duration
}

// New returns a Service. turnTimeout is the planning window granted to the
// owner for each combatant's turn before the turn is forfeited.
func New(repo EncounterRepo, eng *engine.Resolver, turnTimeout time.Duration) *Service {
	return &Service{repo: repo, eng: eng, turnTimeout: turnTimeout}
}

// loadOwned fetches the encounter and enforces ownership.
func (s *Service) loadOwned(encounterID uint, ownerEmail string) (*game.Encounter, error) {
	e, err := s.repo.GetEncounterByID(encounterID)
	if err != nil {
		return nil, ErrEncounterNotFound
	}
	if e.OwnerEmail != ownerEmail {
		return nil, ErrNotOwner
	}
	return e, nil
}

// applyDamage writes one damage packet through the life-state machine and
// mutates the target. It does not check for combat end; callers do that once
// per submitted action.
func (s *Service) applyDamage(e *game.Encounter, target *game.Combatant, amount int, sourceName string) {
	if amount <= 0 {
		return
	}
	e.AppendLog(game.LogEntry{
		Kind: game.LogDamage, ActorID: target.ID, ActorName: target.Name,
		Message: fmt.Sprintf("%s takes %d damage from %s", target.Name, amount, sourceName),
	})
	app := s.eng.CalculateDamageApplication(target, amount)
	target.CurrentHP = app.NewHP
	if app.CheatDeathUsed {
		target.Resources.CheatDeathUsed = true
	}
	if app.FailuresAdded > 0 {
		target.Resources.DeathSaves.Failures = app.TotalFailures
	}
	for _, cond := range app.ConditionsAdded {
		target.AddCondition(cond.Kind, cond.Duration)
	}
	if (app.MonsterDied || app.CharacterDied) && e.Grid != nil {
		e.Grid.RemoveOccupant(target.ID)
	}
	e.AppendLog(app.Entries...)
}

// applyHealing restores hit points, clamped to the maximum. Healing a downed
// character wakes them and wipes death-save progress.
func (s *Service) applyHealing(e *game.Encounter, target *game.Combatant, amount int) {
	if amount <= 0 || target.IsDead() {
		return
	}
	wasDown := target.CurrentHP == 0
	target.CurrentHP += amount
	if target.CurrentHP > target.MaxHP {
		target.CurrentHP = target.MaxHP
	}
	if wasDown && target.Kind == game.KindCharacter {
		target.RemoveCondition(game.ConditionUnconscious)
		target.Resources.DeathSaves = game.DeathSaves{}
		target.Stabilized = false
		e.AppendLog(game.LogEntry{
			Kind: game.LogCondition, ActorID: target.ID, ActorName: target.Name,
			Message: fmt.Sprintf("%s regains consciousness", target.Name),
		})
	}
}

// checkCombatEnd finishes the encounter when one side is eliminated and
// reports whether it did.
func (s *Service) checkCombatEnd(e *game.Encounter) bool {
	end := engine.CheckCombatEnd(e.Combatants)
	if end == engine.CombatOngoing {
		return false
	}
	e.Status = game.StatusFinished
	e.Phase = game.PhaseResolved
	switch end {
	case engine.CombatVictory:
		e.Outcome = game.OutcomeVictory
		e.AppendLog(game.LogEntry{Kind: game.LogEncounter, Message: "the party is victorious"})
	case engine.CombatDefeat:
		e.Outcome = game.OutcomeDefeat
		e.AppendLog(game.LogEntry{Kind: game.LogEncounter, Message: "the party has fallen"})
	}
	if err := s.repo.UpdateStatsOnEncounterEnd(e); err != nil {
		logging.Error("failed to update player stats", err, logging.Fields{"encounter_id": e.ID})
	}
	return true
}
