package engine

import (
	"github.com/20q2/5e-combat-simulator-sub003/internal/catalog"
	"github.com/20q2/5e-combat-simulator-sub003/internal/game"
)

// AbilityModifier converts a raw ability score to its modifier, floored
// (score 7 -> -2, not -1 as truncating division would give).
func AbilityModifier(score int) int {
	if score >= 10 {
		return (score - 10) / 2
	}
	return -((11 - score) / 2)
}

// ProficiencyBonus returns the proficiency bonus for either variant:
// level-scaled for characters, statblock value for monsters.
func ProficiencyBonus(c *game.Combatant) int {
	switch c.Kind {
	case game.KindCharacter:
		return 2 + (c.Character.Level-1)/4
	case game.KindMonster:
		return c.Monster.ProficiencyBonus
	}
	return 2
}

// AttackAbility picks the governing ability for a weapon attack: DEX for
// ranged, the better of STR/DEX for finesse, otherwise STR.
func AttackAbility(c *game.Combatant, weapon catalog.WeaponDef) game.Ability {
	ab := c.Abilities()
	switch {
	case weapon.IsRanged():
		return game.Dexterity
	case weapon.HasProperty(catalog.PropertyFinesse):
		if ab.Dexterity > ab.Strength {
			return game.Dexterity
		}
		return game.Strength
	default:
		return game.Strength
	}
}

// AttackAbilityModifier is the modifier of the attack-governing ability.
func AttackAbilityModifier(c *game.Combatant, weapon catalog.WeaponDef) int {
	return AbilityModifier(c.Abilities().Score(AttackAbility(c, weapon)))
}

// SpellAbilityModifier is the caster's spellcasting-ability modifier.
// Monsters default to Charisma-based innate casting.
func SpellAbilityModifier(c *game.Combatant) int {
	ability := game.Charisma
	if c.Kind == game.KindCharacter && c.Character.SpellcastingAbility != "" {
		ability = c.Character.SpellcastingAbility
	}
	return AbilityModifier(c.Abilities().Score(ability))
}

// SpellSaveDC is 8 + proficiency + spellcasting-ability modifier.
func SpellSaveDC(c *game.Combatant) int {
	return 8 + ProficiencyBonus(c) + SpellAbilityModifier(c)
}

// ManeuverSaveDC is 8 + proficiency + the better of STR/DEX.
func ManeuverSaveDC(c *game.Combatant) int {
	ab := c.Abilities()
	best := ab.Strength
	if ab.Dexterity > best {
		best = ab.Dexterity
	}
	return 8 + ProficiencyBonus(c) + AbilityModifier(best)
}

// features merges the class and subclass feature tables for a character in
// one level-gated pass, scanning from the highest unlocked threshold down.
// Monsters have no feature tables and always yield nil.
func (r *Resolver) features(c *game.Combatant) []catalog.FeatureRow {
	if c.Kind != game.KindCharacter {
		return nil
	}
	cl, err := r.cat.Class(c.Character.ClassID)
	if err != nil {
		return nil
	}
	rows := make([]catalog.FeatureRow, 0, len(cl.Features))
	rows = append(rows, cl.Features...)
	for _, sub := range cl.Subclasses {
		if sub.ID == c.Character.SubclassID {
			rows = append(rows, sub.Features...)
			break
		}
	}
	out := make([]catalog.FeatureRow, 0, len(rows))
	for level := c.Character.Level; level >= 1; level-- {
		for _, row := range rows {
			if row.Level == level {
				out = append(out, row)
			}
		}
	}
	return out
}

// HasFeature reports whether the character has unlocked the keyed feature.
func (r *Resolver) HasFeature(c *game.Combatant, key string) bool {
	for _, row := range r.features(c) {
		if row.Key == key {
			return true
		}
	}
	return false
}

// FeatureAttackBonus sums flat attack-roll bonuses granted by unlocked
// features (fighting styles and similar). Ranged-only bonuses such as
// archery apply only to ranged attacks.
func (r *Resolver) FeatureAttackBonus(c *game.Combatant, ranged bool) int {
	bonus := 0
	for _, row := range r.features(c) {
		if row.AttackBonus == 0 {
			continue
		}
		if row.Key == catalog.FeatureStyleArchery && !ranged {
			continue
		}
		bonus += row.AttackBonus
	}
	return bonus
}

// CritThreshold is the lowest natural roll that crits: 20 by default,
// lowered by improved-critical-style features. The best (lowest) unlocked
// threshold wins.
func (r *Resolver) CritThreshold(c *game.Combatant) int {
	threshold := 20
	for _, row := range r.features(c) {
		if row.CritThreshold > 0 && row.CritThreshold < threshold {
			threshold = row.CritThreshold
		}
	}
	return threshold
}

// HasFeat reports whether the character has the origin feat with the given
// behaviour key.
func (r *Resolver) HasFeat(c *game.Combatant, key catalog.FeatKey) bool {
	if c.Kind != game.KindCharacter {
		return false
	}
	for _, id := range c.Character.OriginFeatIDs {
		if f, err := r.cat.Feat(id); err == nil && f.Key == key {
			return true
		}
	}
	return false
}

// HasRacialTrait reports whether the character's race grants the trait.
func (r *Resolver) HasRacialTrait(c *game.Combatant, key string) bool {
	if c.Kind != game.KindCharacter {
		return false
	}
	race, err := r.cat.Race(c.Character.RaceID)
	if err != nil {
		return false
	}
	return race.HasTrait(key)
}
