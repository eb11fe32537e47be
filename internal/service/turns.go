package service

import (
	"fmt"
	"time"

	"github.com/20q2/5e-combat-simulator-sub003/internal/engine"
	"github.com/20q2/5e-combat-simulator-sub003/internal/game"
)

// beginTurn runs the start-of-turn sequence for the active combatant and
// reports whether the combatant gets to act. Unconscious characters roll
// their death save and immediately yield the turn.
func (s *Service) beginTurn(e *game.Encounter, c *game.Combatant) bool {
	e.AppendLog(game.LogEntry{
		Kind: game.LogTurn, ActorID: c.ID, ActorName: c.Name,
		Message: fmt.Sprintf("round %d: %s's turn", e.Round, c.Name),
	})

	if c.VexedBy != nil && e.Round > c.VexedBy.ExpiresOnRound {
		c.VexedBy = nil
	}

	expiry := engine.CalculateConditionExpiry(c)
	c.Conditions = expiry.Remaining
	e.AppendLog(expiry.Entries...)

	start := s.eng.CalculateStartOfTurnEffects(c)
	if start.HeroicInspirationGranted {
		c.Resources.HeroicInspiration = true
	}
	if start.HealAmount > 0 {
		s.applyHealing(e, c, start.HealAmount)
	}
	e.AppendLog(start.Entries...)

	if c.Kind == game.KindCharacter && c.CurrentHP == 0 && !c.IsDead() {
		if !c.Stabilized {
			save := s.eng.ResolveDeathSave(c)
			c.Resources.DeathSaves.Successes = save.Successes
			c.Resources.DeathSaves.Failures = save.Failures
			e.AppendLog(save.Entries...)
			switch {
			case save.Revived:
				c.CurrentHP = 1
				c.RemoveCondition(game.ConditionUnconscious)
				c.Stabilized = false
			case save.Stabilized:
				c.Stabilized = true
			case save.Died:
				if e.Grid != nil {
					e.Grid.RemoveOccupant(c.ID)
				}
			}
		}
		// Whether saved, stabilized or dead, a downed character does not act.
		return false
	}
	return true
}

// advanceTurn ends the active combatant's turn and walks the order forward
// until a combatant ready to act is found, wrapping into the next round as
// needed. Dead combatants are skipped; downed characters consume their turn
// on a death save inside beginTurn.
func (s *Service) advanceTurn(e *game.Encounter) {
	if cur := e.ActiveCombatant(); cur != nil {
		cur.Turn = game.TurnFlags{}
	}
	// Each combatant can yield at most one non-acting turn per lap; two laps
	// bound the walk even when every turn resolves to a death save.
	for i := 0; i < 2*len(e.Combatants)+2; i++ {
		e.TurnIndex++
		if e.TurnIndex >= len(e.Combatants) {
			e.TurnIndex = 0
			e.Round++
		}
		next := e.ActiveCombatant()
		if next == nil || engine.ShouldSkipTurn(next) {
			continue
		}
		acted := s.beginTurn(e, next)
		if s.checkCombatEnd(e) {
			return
		}
		if acted {
			e.ActionDeadline = time.Now().Add(s.turnTimeout)
			return
		}
		next.Turn = game.TurnFlags{}
	}
}
