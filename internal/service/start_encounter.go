package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/20q2/5e-combat-simulator-sub003/internal/dice"
	"github.com/20q2/5e-combat-simulator-sub003/internal/game"
	"github.com/20q2/5e-combat-simulator-sub003/internal/logging"
)

// sortByInitiative orders the roster for play: initiative descending, DEX
// score breaking ties, ids keeping the order stable.
func sortByInitiative(combatants []game.Combatant) {
	sort.SliceStable(combatants, func(i, j int) bool {
		a, b := &combatants[i], &combatants[j]
		if a.Initiative != b.Initiative {
			return a.Initiative > b.Initiative
		}
		if a.Abilities().Dexterity != b.Abilities().Dexterity {
			return a.Abilities().Dexterity > b.Abilities().Dexterity
		}
		return a.ID < b.ID
	})
}

// StartEncounter locks the roster, places everyone on the grid, fills the
// per-encounter resource pools, rolls initiative and hands the first turn to
// the top of the order.
func (s *Service) StartEncounter(encounterID uint, ownerEmail string) (*game.Encounter, error) {
	e, err := s.loadOwned(encounterID, ownerEmail)
	if err != nil {
		return nil, err
	}
	if e.Status != game.StatusSetup {
		return nil, ErrEncounterNotInSetup
	}
	characters, monsters := 0, 0
	for i := range e.Combatants {
		switch e.Combatants[i].Kind {
		case game.KindCharacter:
			characters++
		case game.KindMonster:
			monsters++
		}
	}
	if characters == 0 || monsters == 0 {
		return nil, ErrRosterIncomplete
	}
	if e.Grid == nil {
		return nil, fmt.Errorf("encounter %d has no grid", e.ID)
	}
	for i := range e.Combatants {
		c := &e.Combatants[i]
		if !e.Grid.InBounds(c.Position) {
			return nil, fmt.Errorf("%s starts off the grid at (%d,%d)", c.Name, c.Position.X, c.Position.Y)
		}
		if e.Grid.IsOccupied(c.Position) {
			return nil, fmt.Errorf("%s starts on an occupied square (%d,%d)", c.Name, c.Position.X, c.Position.Y)
		}
		e.Grid.PlaceOccupant(c.ID, c.Position)
	}

	for i := range e.Combatants {
		c := &e.Combatants[i]
		if c.Kind != game.KindCharacter {
			continue
		}
		c.Resources.SuperiorityDice = s.eng.SuperiorityDice(c)
		c.Resources.LuckPoints = s.eng.LuckyPoolSize(c)
		if s.eng.StartsWithHeroicInspiration(c) {
			c.Resources.HeroicInspiration = true
		}
		if s.eng.RelentlessRegain(c) {
			c.Resources.SuperiorityDice = 1
		}
	}

	for i := range e.Combatants {
		c := &e.Combatants[i]
		roll := s.eng.Roller().RollD20(s.eng.InitiativeModifier(c), dice.Normal)
		c.Initiative = roll.Total
	}
	sortByInitiative(e.Combatants)

	e.Status = game.StatusInProgress
	e.Phase = game.PhasePlanning
	e.Round = 1
	e.TurnIndex = 0

	order := make([]string, 0, len(e.Combatants))
	for i := range e.Combatants {
		order = append(order, fmt.Sprintf("%s (%d)", e.Combatants[i].Name, e.Combatants[i].Initiative))
	}
	e.AppendLog(game.LogEntry{
		Kind:    game.LogEncounter,
		Message: fmt.Sprintf("combat begins: %s", strings.Join(order, ", ")),
	})

	first := e.ActiveCombatant()
	acted := first != nil && s.beginTurn(e, first)
	if !s.checkCombatEnd(e) {
		if acted {
			e.ActionDeadline = time.Now().Add(s.turnTimeout)
		} else {
			s.advanceTurn(e)
		}
	}

	if err := s.repo.UpdateEncounter(e); err != nil {
		return nil, err
	}
	logging.Info("encounter started", logging.Fields{
		"encounter_id": e.ID,
		"combatants":   len(e.Combatants),
	})
	return e, nil
}
