package engine

import (
	"fmt"
	"strings"

	"github.com/20q2/5e-combat-simulator-sub003/internal/catalog"
	"github.com/20q2/5e-combat-simulator-sub003/internal/dice"
	"github.com/20q2/5e-combat-simulator-sub003/internal/game"
)

// SuperiorityDice returns the pool size granted by the class table at the
// character's level (highest unlocked threshold).
func (r *Resolver) SuperiorityDice(c *game.Combatant) int {
	row := r.superiorityRow(c)
	return row.Dice
}

// SuperiorityDie returns the die size (8, 10 or 12) at the character's
// level.
func (r *Resolver) SuperiorityDie(c *game.Combatant) int {
	row := r.superiorityRow(c)
	return row.Die
}

func (r *Resolver) superiorityRow(c *game.Combatant) catalog.SuperiorityRow {
	if c.Kind != game.KindCharacter {
		return catalog.SuperiorityRow{}
	}
	cl, err := r.cat.Class(c.Character.ClassID)
	if err != nil {
		return catalog.SuperiorityRow{}
	}
	var best catalog.SuperiorityRow
	for _, row := range cl.Superiority {
		if row.Level <= c.Character.Level && row.Level >= best.Level {
			best = row
		}
	}
	return best
}

// RelentlessRegain reports whether rolling initiative with an empty pool
// restores one superiority die.
func (r *Resolver) RelentlessRegain(c *game.Combatant) bool {
	return c.Resources.SuperiorityDice == 0 && r.HasFeature(c, catalog.FeatureRelentless)
}

// knowsManeuver reports whether the character has learned the maneuver.
func knowsManeuver(c *game.Combatant, id string) bool {
	if c.Kind != game.KindCharacter {
		return false
	}
	for _, known := range c.Character.KnownManeuverIDs {
		if known == id {
			return true
		}
	}
	return false
}

// CanUseManeuver gates maneuver use: the combat-superiority feature, at
// least one die in the pool, the maneuver known, and a free reaction for
// reaction maneuvers. Refusals are declined decisions, not errors.
func (r *Resolver) CanUseManeuver(c *game.Combatant, maneuverID string) (Decision, error) {
	m, err := r.cat.Maneuver(maneuverID)
	if err != nil {
		return Decision{}, err
	}
	if !r.HasFeature(c, catalog.FeatureCombatSuperiority) {
		return Decline("combat superiority is required to use maneuvers"), nil
	}
	if c.Resources.SuperiorityDice < 1 {
		return Decline("no superiority dice remaining"), nil
	}
	if !knowsManeuver(c, maneuverID) {
		return Decline(fmt.Sprintf("%s is not a known maneuver", m.Name)), nil
	}
	if m.Reaction && c.Turn.ReactionUsed {
		return Decline("reaction already used this round"), nil
	}
	return Allow(), nil
}

// ManeuverSaveOutcome reports the save rider of a strike maneuver.
type ManeuverSaveOutcome struct {
	Ability game.Ability   `json:"ability"`
	DC      int            `json:"dc"`
	Roll    dice.D20Result `json:"roll"`
	Failed  bool           `json:"failed"`
}

// ManeuverResult describes one on-hit maneuver application. The session
// spends the superiority die and applies damage, conditions and movement.
type ManeuverResult struct {
	ManeuverID  string               `json:"maneuver_id"`
	DieRolled   int                  `json:"die_rolled"`
	BonusDamage int                  `json:"bonus_damage"`
	Save        *ManeuverSaveOutcome `json:"save,omitempty"`
	Push        *PushOutcome         `json:"push,omitempty"`

	ConditionsAdded []game.ActiveCondition `json:"conditions_added,omitempty"`
	Entries         []game.LogEntry        `json:"entries,omitempty"`
}

// ApplyManeuverOnHit rolls one superiority die for a strike maneuver: the
// die adds to damage when the maneuver grants a damage die, and any save
// rider resolves at DC 8 + proficiency + the better of STR/DEX.
func (r *Resolver) ApplyManeuverOnHit(attacker, target *game.Combatant, maneuverID string, grid *game.Grid) (ManeuverResult, error) {
	m, err := r.cat.Maneuver(maneuverID)
	if err != nil {
		return ManeuverResult{}, err
	}
	res := ManeuverResult{ManeuverID: m.ID, DieRolled: r.roller.RollDie(r.SuperiorityDie(attacker))}
	if m.AddsDamageDie {
		res.BonusDamage = res.DieRolled
	}

	if m.Save != nil {
		dc := ManeuverSaveDC(attacker)
		saveMod := AbilityModifier(target.Abilities().Score(m.Save.Ability))
		roll := r.roller.RollD20(saveMod, dice.Normal)
		outcome := ManeuverSaveOutcome{Ability: m.Save.Ability, DC: dc, Roll: roll, Failed: roll.Total < dc}
		res.Save = &outcome
		if outcome.Failed {
			if m.Save.Condition != "" {
				duration := m.Save.ConditionDuration
				if duration == 0 {
					duration = game.IndefiniteDuration
				}
				res.ConditionsAdded = append(res.ConditionsAdded, game.ActiveCondition{Kind: m.Save.Condition, Duration: duration})
				res.Entries = append(res.Entries, game.LogEntry{
					Kind: game.LogCondition, ActorID: attacker.ID, ActorName: attacker.Name, TargetID: target.ID,
					Message: fmt.Sprintf("%s fails a %s save (%d vs DC %d) and is %s", target.Name, strings.ToUpper(string(m.Save.Ability)), roll.Total, dc, m.Save.Condition),
				})
			}
			if m.Save.PushSquares > 0 {
				push := resolvePush(grid, attacker.Position, target.Position, m.Save.PushSquares)
				res.Push = &push
				if push.Squares > 0 {
					res.Entries = append(res.Entries, game.LogEntry{
						Kind: game.LogMovement, ActorID: attacker.ID, ActorName: attacker.Name, TargetID: target.ID,
						Message: fmt.Sprintf("%s is driven back %d ft", target.Name, push.Squares*game.FeetPerCell),
					})
				}
			}
		} else {
			res.Entries = append(res.Entries, game.LogEntry{
				Kind: game.LogSave, ActorID: target.ID, ActorName: target.Name, TargetID: attacker.ID,
				Message: fmt.Sprintf("%s resists %s (%d vs DC %d)", target.Name, m.Name, roll.Total, dc),
			})
		}
	}
	return res, nil
}

// ResolveParry rolls a superiority die and reduces the incoming damage by
// die + DEX modifier, never below zero of the incoming amount.
func (r *Resolver) ResolveParry(c *game.Combatant, incoming int) ManeuverResult {
	die := r.roller.RollDie(r.SuperiorityDie(c))
	reduction := die + AbilityModifier(c.Abilities().Dexterity)
	if reduction > incoming {
		reduction = incoming
	}
	if reduction < 0 {
		reduction = 0
	}
	return ManeuverResult{
		ManeuverID:  "parry",
		DieRolled:   die,
		BonusDamage: -reduction,
		Entries: []game.LogEntry{{
			Kind: game.LogDamage, ActorID: c.ID, ActorName: c.Name,
			Message: fmt.Sprintf("%s parries, reducing the damage by %d", c.Name, reduction),
		}},
	}
}

// PrecisionAttackBonus rolls the superiority die whose value must be added
// to the attack roll before the AC comparison.
func (r *Resolver) PrecisionAttackBonus(c *game.Combatant) int {
	return r.roller.RollDie(r.SuperiorityDie(c))
}

// PrepareRiposte rolls the bonus-damage die a riposte banks; a subsequent,
// separately-resolved attack consumes it.
func (r *Resolver) PrepareRiposte(c *game.Combatant) int {
	return r.roller.RollDie(r.SuperiorityDie(c))
}
