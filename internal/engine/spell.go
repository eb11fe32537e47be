package engine

import (
	"fmt"

	"github.com/20q2/5e-combat-simulator-sub003/internal/catalog"
	"github.com/20q2/5e-combat-simulator-sub003/internal/dice"
	"github.com/20q2/5e-combat-simulator-sub003/internal/game"
	"github.com/20q2/5e-combat-simulator-sub003/internal/geometry"
)

// knowsSpell reports whether the caster has the spell on its sheet.
func knowsSpell(c *game.Combatant, id string) bool {
	if c.Kind != game.KindCharacter {
		return false
	}
	for _, known := range c.Character.KnownSpellIDs {
		if known == id {
			return true
		}
	}
	return false
}

// CanCastSpell gates casting. Cantrips are always available to a knower;
// leveled spells need an unspent slot at the spell's level or above — the
// same policy applies to reaction spells, which additionally need the
// reaction free. A per-encounter free use bypasses the slot check once.
func (r *Resolver) CanCastSpell(caster *game.Combatant, spellID string) (Decision, error) {
	spell, err := r.cat.Spell(spellID)
	if err != nil {
		return Decision{}, err
	}
	if caster.Kind != game.KindCharacter || caster.Character.SpellcastingAbility == "" {
		return Decline(fmt.Sprintf("%s cannot cast spells", caster.Name)), nil
	}
	if !knowsSpell(caster, spellID) {
		return Decline(fmt.Sprintf("%s is not a known spell", spell.Name)), nil
	}
	if spell.Reaction && caster.Turn.ReactionUsed {
		return Decline("reaction already used this round"), nil
	}
	if spell.Level == 0 {
		return Allow(), nil
	}
	if !caster.Resources.FreeSpellUsed[spellID] && hasFreeUse(caster, spellID) {
		return Allow(), nil
	}
	if CastableSlotLevel(caster, spell.Level) == 0 {
		return Decline(fmt.Sprintf("no spell slot of level %d or higher remains", spell.Level)), nil
	}
	return Allow(), nil
}

// hasFreeUse reports a once-per-encounter free casting granted for the
// spell (racial or feat grants tracked on the sheet as "free:" spell ids).
func hasFreeUse(c *game.Combatant, spellID string) bool {
	_, granted := c.Resources.FreeSpellUsed[spellID]
	return granted
}

// CastableSlotLevel returns the lowest unspent slot level at or above the
// required level, or zero when none remains.
func CastableSlotLevel(c *game.Combatant, required int) int {
	if c.Kind != game.KindCharacter {
		return 0
	}
	for level := required; level <= 9; level++ {
		if c.Resources.SpellSlots[level] > 0 {
			return level
		}
	}
	return 0
}

// AoETargetOutcome is one combatant's save inside an area.
type AoETargetOutcome struct {
	TargetID uint           `json:"target_id"`
	Name     string         `json:"name"`
	Roll     dice.D20Result `json:"roll"`
	Success  bool           `json:"success"`
	Damage   int            `json:"damage"`
}

// AoEResult is the resolution of an area spell: the damage dice are rolled
// once, then every hostile combatant standing in the area saves against it.
type AoEResult struct {
	SpellID string             `json:"spell_id"`
	DC      int                `json:"dc"`
	Damage  dice.RollResult    `json:"damage"`
	Cells   []game.Position    `json:"cells"`
	Targets []AoETargetOutcome `json:"targets"`
	Entries []game.LogEntry    `json:"entries"`
}

// ResolveAoESpell computes the affected cells, filters hostile living
// combatants standing in them, rolls the spell damage once and rolls each
// target's save against it.
func (r *Resolver) ResolveAoESpell(caster *game.Combatant, spell catalog.SpellDef, target game.Position, grid *game.Grid, combatants []game.Combatant) (AoEResult, error) {
	if spell.AoE == nil {
		return AoEResult{}, fmt.Errorf("spell %s has no area of effect", spell.ID)
	}
	expr, err := dice.ParseExpression(spell.Damage)
	if err != nil {
		return AoEResult{}, fmt.Errorf("spell %s: %w", spell.ID, err)
	}

	res := AoEResult{
		SpellID: spell.ID,
		DC:      SpellSaveDC(caster),
		Damage:  r.roller.Roll(expr),
		Cells: geometry.AffectedCells(grid, geometry.Request{
			Shape:      spell.AoE.Shape,
			SizeFeet:   spell.AoE.SizeFeet,
			Origin:     caster.Position,
			Target:     target,
			OriginType: spell.AoE.OriginType,
		}),
	}
	res.Entries = append(res.Entries, game.LogEntry{
		Kind: game.LogAttack, ActorID: caster.ID, ActorName: caster.Name,
		Message: fmt.Sprintf("%s casts %s, covering %d squares", caster.Name, spell.Name, len(res.Cells)),
	})

	for i := range combatants {
		cand := &combatants[i]
		if cand.IsDead() || !cand.IsHostileTo(caster) || !geometry.Contains(res.Cells, cand.Position) {
			continue
		}
		saveMod := AbilityModifier(cand.Abilities().Score(spell.SaveAbility))
		roll := r.roller.RollD20(saveMod, dice.Normal)
		out := AoETargetOutcome{TargetID: cand.ID, Name: cand.Name, Roll: roll, Success: roll.Total >= res.DC}
		out.Damage = res.Damage.Total
		if out.Success {
			if spell.HalfOnSave {
				out.Damage = res.Damage.Total / 2
			} else {
				out.Damage = 0
			}
		}
		res.Targets = append(res.Targets, out)
		outcome := "is caught in the blast"
		if out.Success {
			outcome = "dives aside"
		}
		res.Entries = append(res.Entries, game.LogEntry{
			Kind: game.LogSave, ActorID: cand.ID, ActorName: cand.Name, TargetID: caster.ID,
			Message: fmt.Sprintf("%s %s (%d vs DC %d)", cand.Name, outcome, roll.Total, res.DC),
		})
	}
	return res, nil
}

// ProjectileHit is one auto-hit projectile.
type ProjectileHit struct {
	TargetID uint            `json:"target_id"`
	Damage   dice.RollResult `json:"damage"`
}

// ProjectileResult is the resolution of a multi-projectile spell. Every
// projectile hits and rolls its damage independently.
type ProjectileResult struct {
	SpellID string          `json:"spell_id"`
	Hits    []ProjectileHit `json:"hits"`
	Entries []game.LogEntry `json:"entries"`
}

// ResolveProjectileSpell fires the spell's projectiles at the caller's
// chosen target split. Unassigned projectiles fall on the last listed
// target.
func (r *Resolver) ResolveProjectileSpell(caster *game.Combatant, spell catalog.SpellDef, targetIDs []uint) (ProjectileResult, error) {
	if spell.Projectiles == nil {
		return ProjectileResult{}, fmt.Errorf("spell %s has no projectiles", spell.ID)
	}
	if len(targetIDs) == 0 {
		return ProjectileResult{}, fmt.Errorf("spell %s: no projectile targets", spell.ID)
	}
	expr, err := dice.ParseExpression(spell.Projectiles.Damage)
	if err != nil {
		return ProjectileResult{}, fmt.Errorf("spell %s: %w", spell.ID, err)
	}

	res := ProjectileResult{SpellID: spell.ID}
	for i := 0; i < spell.Projectiles.Count; i++ {
		targetID := targetIDs[len(targetIDs)-1]
		if i < len(targetIDs) {
			targetID = targetIDs[i]
		}
		res.Hits = append(res.Hits, ProjectileHit{TargetID: targetID, Damage: r.roller.Roll(expr)})
	}
	res.Entries = append(res.Entries, game.LogEntry{
		Kind: game.LogAttack, ActorID: caster.ID, ActorName: caster.Name,
		Message: fmt.Sprintf("%s casts %s, loosing %d unerring bolts", caster.Name, spell.Name, spell.Projectiles.Count),
	})
	return res, nil
}
