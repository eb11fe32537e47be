package engine

import (
	"fmt"

	"github.com/20q2/5e-combat-simulator-sub003/internal/catalog"
	"github.com/20q2/5e-combat-simulator-sub003/internal/game"
)

// DamageApplicationResult describes every state change one packet of damage
// causes, without applying any of it. Entries are deferred narration: the
// caller writes its own "X takes N damage" line first, then appends these
// in order.
type DamageApplicationResult struct {
	TargetID          uint `json:"target_id"`
	PreviousHP        int  `json:"previous_hp"`
	NewHP             int  `json:"new_hp"`
	CheatDeathUsed    bool `json:"cheat_death_used"`
	BecameUnconscious bool `json:"became_unconscious"`
	MonsterDied       bool `json:"monster_died"`
	CharacterDied     bool `json:"character_died"`
	FailuresAdded     int  `json:"failures_added"`
	TotalFailures     int  `json:"total_failures"`

	ConditionsAdded []game.ActiveCondition `json:"conditions_added"`
	Entries         []game.LogEntry        `json:"entries"`
}

// CalculateDamageApplication drives the life-state machine for one damage
// packet: hp clamping, the once-per-encounter racial cheat-death, the
// unconscious transition for characters and death for monsters, and one
// death-save failure per damaging hit on a downed character — never more
// than one per call regardless of the amount.
func (r *Resolver) CalculateDamageApplication(target *game.Combatant, amount int) DamageApplicationResult {
	res := DamageApplicationResult{
		TargetID:      target.ID,
		PreviousHP:    target.CurrentHP,
		TotalFailures: target.Resources.DeathSaves.Failures,
	}
	if amount < 0 {
		amount = 0
	}

	newHP := target.CurrentHP - amount
	if newHP < 0 {
		newHP = 0
	}
	res.NewHP = newHP

	droppedToZero := target.CurrentHP > 0 && newHP == 0

	switch {
	case droppedToZero && r.canCheatDeath(target):
		res.CheatDeathUsed = true
		res.NewHP = 1
		res.Entries = append(res.Entries, game.LogEntry{
			Kind:      game.LogCondition,
			ActorID:   target.ID,
			ActorName: target.Name,
			Message:   fmt.Sprintf("%s refuses to fall and stays at 1 hit point", target.Name),
		})

	case droppedToZero && target.Kind == game.KindMonster:
		res.MonsterDied = true
		res.ConditionsAdded = append(res.ConditionsAdded, game.ActiveCondition{Kind: game.ConditionProne, Duration: game.IndefiniteDuration})
		res.Entries = append(res.Entries, game.LogEntry{
			Kind:      game.LogDeath,
			ActorID:   target.ID,
			ActorName: target.Name,
			Message:   fmt.Sprintf("%s dies", target.Name),
		})

	case droppedToZero && target.Kind == game.KindCharacter:
		res.BecameUnconscious = true
		res.ConditionsAdded = append(res.ConditionsAdded, game.ActiveCondition{Kind: game.ConditionUnconscious, Duration: game.IndefiniteDuration})
		res.Entries = append(res.Entries, game.LogEntry{
			Kind:      game.LogCondition,
			ActorID:   target.ID,
			ActorName: target.Name,
			Message:   fmt.Sprintf("%s falls unconscious", target.Name),
		})
	}

	// Damage to a downed, unstabilized character chips at death saves:
	// exactly one failure per damaging hit.
	if target.CurrentHP == 0 && amount > 0 && target.Kind == game.KindCharacter && !target.Stabilized && !target.IsDead() {
		res.FailuresAdded = 1
		res.TotalFailures = target.Resources.DeathSaves.Failures + 1
		res.Entries = append(res.Entries, game.LogEntry{
			Kind:      game.LogDeathSave,
			ActorID:   target.ID,
			ActorName: target.Name,
			Message:   fmt.Sprintf("%s suffers a death saving throw failure (%d of 3)", target.Name, res.TotalFailures),
		})
		if res.TotalFailures >= 3 {
			res.CharacterDied = true
			res.Entries = append(res.Entries, game.LogEntry{
				Kind:      game.LogDeath,
				ActorID:   target.ID,
				ActorName: target.Name,
				Message:   fmt.Sprintf("%s dies", target.Name),
			})
		}
	}

	if res.MonsterDied || res.CharacterDied {
		res.ConditionsAdded = upsertCondition(res.ConditionsAdded, game.ActiveCondition{Kind: game.ConditionProne, Duration: game.IndefiniteDuration})
	}
	return res
}

// canCheatDeath reports an unused racial stay-at-1-hp ability.
func (r *Resolver) canCheatDeath(target *game.Combatant) bool {
	return target.Kind == game.KindCharacter &&
		!target.Resources.CheatDeathUsed &&
		r.HasRacialTrait(target, catalog.FeatureRelentlessEndurance)
}

// upsertCondition replaces an existing entry of the same kind rather than
// stacking a duplicate.
func upsertCondition(list []game.ActiveCondition, cond game.ActiveCondition) []game.ActiveCondition {
	for i := range list {
		if list[i].Kind == cond.Kind {
			list[i] = cond
			return list
		}
	}
	return append(list, cond)
}

// CombatEndState is the encounter-level outcome of a damage application.
type CombatEndState string

const (
	CombatOngoing CombatEndState = ""
	CombatVictory CombatEndState = "victory"
	CombatDefeat  CombatEndState = "defeat"
)

// CheckCombatEnd scans the roster: victory when at least one monster exists
// and all monsters are at zero hit points, defeat when at least one
// character exists and all have three death-save failures. Defeat is
// checked first, so a simultaneous party wipe and final kill reads as
// defeat.
func CheckCombatEnd(combatants []game.Combatant) CombatEndState {
	monsters, deadMonsters := 0, 0
	characters, deadCharacters := 0, 0
	for i := range combatants {
		c := &combatants[i]
		switch c.Kind {
		case game.KindMonster:
			monsters++
			if c.CurrentHP <= 0 {
				deadMonsters++
			}
		case game.KindCharacter:
			characters++
			if c.Resources.DeathSaves.Failures >= 3 {
				deadCharacters++
			}
		}
	}
	if characters > 0 && deadCharacters == characters {
		return CombatDefeat
	}
	if monsters > 0 && deadMonsters == monsters {
		return CombatVictory
	}
	return CombatOngoing
}
