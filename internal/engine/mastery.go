package engine

import (
	"fmt"

	"github.com/20q2/5e-combat-simulator-sub003/internal/catalog"
	"github.com/20q2/5e-combat-simulator-sub003/internal/dice"
	"github.com/20q2/5e-combat-simulator-sub003/internal/game"
)

// ToppleOutcome reports the CON save a topple hit forces.
type ToppleOutcome struct {
	DC     int            `json:"dc"`
	Roll   dice.D20Result `json:"roll"`
	Failed bool           `json:"failed"`
}

// CleaveOutcome enumerates the legal cleave follow-up targets and the
// dice-only damage a cleave would deal. The effect is reported, not applied:
// the session picks at most one target and applies the damage itself.
type CleaveOutcome struct {
	TargetIDs []uint          `json:"target_ids"`
	Damage    dice.RollResult `json:"damage"`
}

// MasteryEffectResult describes one weapon-mastery trigger. Only the fields
// for the triggered kind are set.
type MasteryEffectResult struct {
	Kind    catalog.MasteryKind `json:"kind"`
	Applied bool                `json:"applied"`

	Push           *PushOutcome   `json:"push,omitempty"`
	SpeedReduction int            `json:"speed_reduction,omitempty"`
	Topple         *ToppleOutcome `json:"topple,omitempty"`
	Vex            *game.VexedBy  `json:"vex,omitempty"`
	Cleave         *CleaveOutcome `json:"cleave,omitempty"`
	GrazeDamage    int            `json:"graze_damage,omitempty"`
	NickGranted    bool           `json:"nick_granted,omitempty"`

	ConditionsAdded []game.ActiveCondition `json:"conditions_added,omitempty"`
	Entries         []game.LogEntry        `json:"entries,omitempty"`
}

// MasteryCapacity returns how many weapon masteries the character may have
// active, from the class capacity table: the highest unlocked tier at or
// below the character's level.
func (r *Resolver) MasteryCapacity(c *game.Combatant) int {
	if c.Kind != game.KindCharacter {
		return 0
	}
	cl, err := r.cat.Class(c.Character.ClassID)
	if err != nil {
		return 0
	}
	slots := 0
	best := 0
	for _, row := range cl.MasterySlots {
		if row.Level <= c.Character.Level && row.Level >= best {
			best = row.Level
			slots = row.Slots
		}
	}
	return slots
}

// MasteryActive reports whether the weapon's mastery property is live for
// this wielder: the weapon must be in the mastered list, inside the
// level-capped capacity.
func (r *Resolver) MasteryActive(c *game.Combatant, weapon catalog.WeaponDef) bool {
	if c.Kind != game.KindCharacter || weapon.Mastery == "" {
		return false
	}
	capacity := r.MasteryCapacity(c)
	for i, id := range c.Character.MasteredWeaponIDs {
		if i >= capacity {
			return false
		}
		if id == weapon.ID {
			return true
		}
	}
	return false
}

// ResolveMasteryOnHit dispatches the weapon's on-hit mastery effect. Graze
// never fires here; it is the miss-only effect.
func (r *Resolver) ResolveMasteryOnHit(attacker, target *game.Combatant, weapon catalog.WeaponDef, grid *game.Grid, combatants []game.Combatant, round int) (MasteryEffectResult, error) {
	res := MasteryEffectResult{Kind: weapon.Mastery}
	if !r.MasteryActive(attacker, weapon) || weapon.Mastery == catalog.MasteryGraze {
		return res, nil
	}

	switch weapon.Mastery {
	case catalog.MasteryPush:
		push := resolvePush(grid, attacker.Position, target.Position, 2)
		res.Push = &push
		res.Applied = push.Squares > 0
		if res.Applied {
			res.Entries = append(res.Entries, game.LogEntry{
				Kind: game.LogMovement, ActorID: attacker.ID, ActorName: attacker.Name, TargetID: target.ID,
				Message: fmt.Sprintf("%s is pushed %d ft away", target.Name, push.Squares*game.FeetPerCell),
			})
		}

	case catalog.MasterySap:
		// Sap does not tick down: the target's next attack roll consumes it.
		res.Applied = true
		res.ConditionsAdded = append(res.ConditionsAdded, game.ActiveCondition{Kind: game.ConditionSapped, Duration: game.IndefiniteDuration})
		res.Entries = append(res.Entries, game.LogEntry{
			Kind: game.LogCondition, ActorID: attacker.ID, ActorName: attacker.Name, TargetID: target.ID,
			Message: fmt.Sprintf("%s is sapped and attacks with disadvantage on its next attack", target.Name),
		})

	case catalog.MasterySlow:
		// Conditions tick at the holder's turn start, so duration 2 keeps the
		// target slowed through its whole next turn.
		res.Applied = true
		res.SpeedReduction = 10
		res.ConditionsAdded = append(res.ConditionsAdded, game.ActiveCondition{Kind: game.ConditionSlowed, Duration: 2})
		res.Entries = append(res.Entries, game.LogEntry{
			Kind: game.LogCondition, ActorID: attacker.ID, ActorName: attacker.Name, TargetID: target.ID,
			Message: fmt.Sprintf("%s is slowed by 10 ft until %s's next turn", target.Name, attacker.Name),
		})

	case catalog.MasteryTopple:
		dc := ManeuverSaveDC(attacker)
		conMod := AbilityModifier(target.Abilities().Score(game.Constitution))
		roll := r.roller.RollD20(conMod, dice.Normal)
		topple := ToppleOutcome{DC: dc, Roll: roll, Failed: roll.Total < dc}
		res.Topple = &topple
		res.Applied = topple.Failed
		if topple.Failed {
			res.ConditionsAdded = append(res.ConditionsAdded, game.ActiveCondition{Kind: game.ConditionProne, Duration: game.IndefiniteDuration})
			res.Entries = append(res.Entries, game.LogEntry{
				Kind: game.LogCondition, ActorID: attacker.ID, ActorName: attacker.Name, TargetID: target.ID,
				Message: fmt.Sprintf("%s fails a CON save (%d vs DC %d) and is knocked prone", target.Name, roll.Total, dc),
			})
		} else {
			res.Entries = append(res.Entries, game.LogEntry{
				Kind: game.LogSave, ActorID: target.ID, ActorName: target.Name, TargetID: attacker.ID,
				Message: fmt.Sprintf("%s keeps its footing (%d vs DC %d)", target.Name, roll.Total, dc),
			})
		}

	case catalog.MasteryVex:
		res.Applied = true
		res.Vex = &game.VexedBy{AttackerID: attacker.ID, ExpiresOnRound: round + 1}
		res.Entries = append(res.Entries, game.LogEntry{
			Kind: game.LogCondition, ActorID: attacker.ID, ActorName: attacker.Name, TargetID: target.ID,
			Message: fmt.Sprintf("%s is vexed; %s has advantage on the next attack against it", target.Name, attacker.Name),
		})

	case catalog.MasteryCleave:
		expr, err := dice.ParseExpression(weapon.Damage)
		if err != nil {
			return res, fmt.Errorf("weapon %s: %w", weapon.ID, err)
		}
		// Cleave damage is weapon dice only: strip the expression modifier
		// and add no ability bonus.
		expr.Modifier = 0
		cleave := CleaveOutcome{Damage: r.roller.Roll(expr)}
		for i := range combatants {
			cand := &combatants[i]
			if cand.ID == attacker.ID || cand.ID == target.ID || cand.IsDead() || !cand.IsHostileTo(attacker) {
				continue
			}
			if game.DistanceFeet(cand.Position, target.Position) <= 5 &&
				game.DistanceFeet(cand.Position, attacker.Position) <= weapon.Reach() {
				cleave.TargetIDs = append(cleave.TargetIDs, cand.ID)
			}
		}
		res.Cleave = &cleave
		res.Applied = len(cleave.TargetIDs) > 0
		if res.Applied {
			res.Entries = append(res.Entries, game.LogEntry{
				Kind: game.LogAttack, ActorID: attacker.ID, ActorName: attacker.Name, TargetID: target.ID,
				Message: fmt.Sprintf("%s's swing cleaves toward %d nearby enemies", attacker.Name, len(cleave.TargetIDs)),
			})
		}

	case catalog.MasteryNick:
		if !attacker.Turn.NickAttackUsed && weapon.HasProperty(catalog.PropertyLight) {
			res.Applied = true
			res.NickGranted = true
			res.Entries = append(res.Entries, game.LogEntry{
				Kind: game.LogAttack, ActorID: attacker.ID, ActorName: attacker.Name,
				Message: fmt.Sprintf("%s nicks a second light-weapon attack into the same action", attacker.Name),
			})
		}
	}
	return res, nil
}

// ResolveMasteryOnMiss handles graze: a missed attack with an active graze
// weapon still deals the attack ability modifier, floored at zero.
func (r *Resolver) ResolveMasteryOnMiss(attacker *game.Combatant, target *game.Combatant, weapon catalog.WeaponDef) MasteryEffectResult {
	res := MasteryEffectResult{Kind: weapon.Mastery}
	if weapon.Mastery != catalog.MasteryGraze || !r.MasteryActive(attacker, weapon) {
		return res
	}
	dmg := AttackAbilityModifier(attacker, weapon)
	if dmg < 0 {
		dmg = 0
	}
	res.GrazeDamage = dmg
	res.Applied = dmg > 0
	if res.Applied {
		res.Entries = append(res.Entries, game.LogEntry{
			Kind: game.LogDamage, ActorID: attacker.ID, ActorName: attacker.Name, TargetID: target.ID,
			Message: fmt.Sprintf("%s grazes %s for %d damage despite the miss", attacker.Name, target.Name, dmg),
		})
	}
	return res
}
