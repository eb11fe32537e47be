package engine

import (
	"fmt"

	"github.com/20q2/5e-combat-simulator-sub003/internal/catalog"
	"github.com/20q2/5e-combat-simulator-sub003/internal/dice"
	"github.com/20q2/5e-combat-simulator-sub003/internal/game"
)

// AttackOptions tune a single attack resolution.
type AttackOptions struct {
	// Base is the caller's advantage/disadvantage call before conditions
	// are folded in. Defaults to normal.
	Base dice.D20Mode
	// Round is the current encounter round, for vex expiry.
	Round int
	// RollBonus is added to the attack total before the AC comparison
	// (precision-attack superiority die, already rolled by the caller).
	RollBonus int
	// ReactionPenalty is a target-side reaction die subtracted once from
	// the attack total before the AC comparison.
	ReactionPenalty int
	// BonusDamage is flat extra damage applied on a hit (riposte and
	// similar prepared effects).
	BonusDamage int
}

// AttackResult is the immutable outcome of one attack resolution. Damage is
// present only on a hit; the session applies it via
// CalculateDamageApplication.
type AttackResult struct {
	AttackerID   uint             `json:"attacker_id"`
	TargetID     uint             `json:"target_id"`
	WeaponID     string           `json:"weapon_id,omitempty"`
	WeaponName   string           `json:"weapon_name"`
	Mode         dice.D20Mode     `json:"mode"`
	Roll         dice.D20Result   `json:"roll"`
	AttackBonus  int              `json:"attack_bonus"`
	Total        int              `json:"total"`
	TargetAC     int              `json:"target_ac"`
	Hit          bool             `json:"hit"`
	Critical     bool             `json:"critical"`
	CriticalMiss bool             `json:"critical_miss"`
	Damage       *dice.RollResult `json:"damage,omitempty"`
	DamageTotal  int              `json:"damage_total"`
	Entries      []game.LogEntry  `json:"entries"`
}

// ResolveAttack resolves a character weapon attack: attack bonus from the
// governing ability plus proficiency plus feature bonuses, d20 under the
// combined advantage mode, then weapon damage on a hit. A natural 1 always
// misses; a natural roll at or above the attacker's critical threshold
// always hits and crits regardless of AC.
func (r *Resolver) ResolveAttack(attacker, target *game.Combatant, weaponID string, opts AttackOptions) (AttackResult, error) {
	weapon, err := r.cat.Weapon(weaponID)
	if err != nil {
		return AttackResult{}, err
	}
	abilityMod := AttackAbilityModifier(attacker, weapon)
	bonus := abilityMod + ProficiencyBonus(attacker) + r.FeatureAttackBonus(attacker, weapon.IsRanged())

	mode := GetAttackAdvantage(AdvantageInput{
		Attacker: attacker,
		Target:   target,
		Base:     opts.Base,
		IsRanged: weapon.IsRanged(),
		Round:    opts.Round,
	})

	res := r.rollToHit(attacker, target, bonus, mode, opts)
	res.WeaponID = weapon.ID
	res.WeaponName = weapon.Name

	if res.Hit {
		expr, err := dice.ParseExpression(weapon.Damage)
		if err != nil {
			return AttackResult{}, fmt.Errorf("weapon %s: %w", weapon.ID, err)
		}
		dmg := r.roller.RollDamage(expr, res.Critical)
		res.Damage = &dmg
		res.DamageTotal = dmg.Total + abilityMod + opts.BonusDamage
		if res.DamageTotal < 0 {
			res.DamageTotal = 0
		}
	}
	res.Entries = attackEntries(attacker, target, weapon.Name, res)
	return res, nil
}

// ResolveMonsterAttack resolves one statblock attack option. The damage
// expression already carries the monster's damage bonus.
func (r *Resolver) ResolveMonsterAttack(attacker, target *game.Combatant, attack catalog.MonsterAttack, opts AttackOptions) (AttackResult, error) {
	ability := attack.Ability
	if ability == "" {
		ability = game.Strength
	}
	bonus := AbilityModifier(attacker.Abilities().Score(ability)) + ProficiencyBonus(attacker)

	mode := GetAttackAdvantage(AdvantageInput{
		Attacker: attacker,
		Target:   target,
		Base:     opts.Base,
		IsRanged: attack.Ranged,
		Round:    opts.Round,
	})

	res := r.rollToHit(attacker, target, bonus, mode, opts)
	res.WeaponName = attack.Name

	if res.Hit {
		expr, err := dice.ParseExpression(attack.Damage)
		if err != nil {
			return AttackResult{}, fmt.Errorf("monster attack %s: %w", attack.Name, err)
		}
		dmg := r.roller.RollDamage(expr, res.Critical)
		res.Damage = &dmg
		res.DamageTotal = dmg.Total
		if res.DamageTotal < 0 {
			res.DamageTotal = 0
		}
	}
	res.Entries = attackEntries(attacker, target, attack.Name, res)
	return res, nil
}

// ResolveSpellAttack resolves a spell attack roll: spellcasting ability plus
// proficiency, no weapon feature bonuses, spell damage with no ability rider.
func (r *Resolver) ResolveSpellAttack(caster, target *game.Combatant, spell catalog.SpellDef, opts AttackOptions) (AttackResult, error) {
	bonus := SpellAbilityModifier(caster) + ProficiencyBonus(caster)

	mode := GetAttackAdvantage(AdvantageInput{
		Attacker: caster,
		Target:   target,
		Base:     opts.Base,
		IsRanged: true,
		Round:    opts.Round,
	})

	res := r.rollToHit(caster, target, bonus, mode, opts)
	res.WeaponName = spell.Name

	if res.Hit {
		damage := spell.Damage
		if spell.DieUpgrade != nil && target.CurrentHP < target.MaxHP {
			damage = upgradeDice(damage, *spell.DieUpgrade)
		}
		expr, err := dice.ParseExpression(damage)
		if err != nil {
			return AttackResult{}, fmt.Errorf("spell %s: %w", spell.ID, err)
		}
		dmg := r.roller.RollDamage(expr, res.Critical)
		res.Damage = &dmg
		res.DamageTotal = dmg.Total
	}
	res.Entries = attackEntries(caster, target, spell.Name, res)
	return res, nil
}

// rollToHit rolls the d20 and settles hit/crit against the target AC. The
// natural roll alone decides critical misses and critical hits; the
// adjusted total only matters in between.
func (r *Resolver) rollToHit(attacker, target *game.Combatant, bonus int, mode dice.D20Mode, opts AttackOptions) AttackResult {
	roll := r.roller.RollD20(bonus, mode)
	total := roll.Total + opts.RollBonus - opts.ReactionPenalty

	res := AttackResult{
		AttackerID:  attacker.ID,
		TargetID:    target.ID,
		Mode:        mode,
		Roll:        roll,
		AttackBonus: bonus,
		Total:       total,
		TargetAC:    target.ArmorClass(),
	}
	switch {
	case roll.Natural == 1:
		res.CriticalMiss = true
	case roll.Natural >= r.CritThreshold(attacker):
		res.Hit = true
		res.Critical = true
	default:
		res.Hit = total >= res.TargetAC
	}
	return res
}

func attackEntries(attacker, target *game.Combatant, attackName string, res AttackResult) []game.LogEntry {
	outcome := "misses"
	switch {
	case res.Critical:
		outcome = "critically hits"
	case res.Hit:
		outcome = "hits"
	case res.CriticalMiss:
		outcome = "fumbles against"
	}
	return []game.LogEntry{{
		Kind:      game.LogAttack,
		ActorID:   attacker.ID,
		ActorName: attacker.Name,
		TargetID:  target.ID,
		Message:   fmt.Sprintf("%s attacks %s with %s and %s (%d vs AC %d)", attacker.Name, target.Name, attackName, outcome, res.Total, res.TargetAC),
		Details: map[string]any{
			"natural": res.Roll.Natural,
			"mode":    string(res.Mode),
		},
	}}
}
