package engine

import (
	"fmt"
	"strings"

	"github.com/20q2/5e-combat-simulator-sub003/internal/catalog"
	"github.com/20q2/5e-combat-simulator-sub003/internal/dice"
	"github.com/20q2/5e-combat-simulator-sub003/internal/game"
)

// SaveResult is the outcome of one saving throw against a spell. Damage is
// rolled once at full value; the caller applies half (floored) on success
// when the spell allows it.
type SaveResult struct {
	CasterID   uint            `json:"caster_id"`
	TargetID   uint            `json:"target_id"`
	SpellID    string          `json:"spell_id"`
	Ability    game.Ability    `json:"ability"`
	DC         int             `json:"dc"`
	Roll       dice.D20Result  `json:"roll"`
	Success    bool            `json:"success"`
	Damage     dice.RollResult `json:"damage"`
	Upgraded   bool            `json:"upgraded"`
	HalfOnSave bool            `json:"half_on_save"`
	// Reroll-eligibility flags exposed for the caller to offer; resolving a
	// save never spends them.
	IndomitableEligible bool `json:"indomitable_eligible"`
	LuckPointEligible   bool `json:"luck_point_eligible"`

	Entries []game.LogEntry `json:"entries"`
}

// AppliedDamage is the damage the caller should apply given the outcome.
func (s SaveResult) AppliedDamage() int {
	if s.Success {
		if s.HalfOnSave {
			return s.Damage.Total / 2
		}
		return 0
	}
	return s.Damage.Total
}

// ResolveSpellSave rolls the target's saving throw against the caster's
// spell DC and the spell's damage dice. Already-damaged targets take the
// spell's die upgrade before rolling.
func (r *Resolver) ResolveSpellSave(caster, target *game.Combatant, spell catalog.SpellDef) (SaveResult, error) {
	dc := SpellSaveDC(caster)
	saveMod := AbilityModifier(target.Abilities().Score(spell.SaveAbility))
	roll := r.roller.RollD20(saveMod, dice.Normal)

	damageText := spell.Damage
	upgraded := false
	if spell.DieUpgrade != nil && target.CurrentHP < target.MaxHP {
		damageText = upgradeDice(damageText, *spell.DieUpgrade)
		upgraded = damageText != spell.Damage
	}
	var dmg dice.RollResult
	if damageText != "" {
		expr, err := dice.ParseExpression(damageText)
		if err != nil {
			return SaveResult{}, fmt.Errorf("spell %s: %w", spell.ID, err)
		}
		dmg = r.roller.Roll(expr)
	}

	res := SaveResult{
		CasterID:            caster.ID,
		TargetID:            target.ID,
		SpellID:             spell.ID,
		Ability:             spell.SaveAbility,
		DC:                  dc,
		Roll:                roll,
		Success:             roll.Total >= dc,
		Damage:              dmg,
		Upgraded:            upgraded,
		HalfOnSave:          spell.HalfOnSave,
		IndomitableEligible: r.HasFeature(target, catalog.FeatureIndomitable),
		LuckPointEligible:   r.HasFeat(target, catalog.FeatLucky) && target.Resources.LuckPoints > 0,
	}

	outcome := "fails"
	if res.Success {
		outcome = "succeeds on"
	}
	res.Entries = []game.LogEntry{{
		Kind:      game.LogSave,
		ActorID:   target.ID,
		ActorName: target.Name,
		TargetID:  caster.ID,
		Message:   fmt.Sprintf("%s %s a %s save against %s (%d vs DC %d)", target.Name, outcome, strings.ToUpper(string(spell.SaveAbility)), spell.Name, roll.Total, dc),
		Details:   map[string]any{"natural": roll.Natural},
	}}
	return res, nil
}

// upgradeDice replaces every occurrence of the base die token with the
// upgraded token (e.g. "1d8" with upgrade d8->d12 becomes "1d12").
func upgradeDice(damage string, up catalog.DieUpgrade) string {
	if up.From == "" || up.To == "" {
		return damage
	}
	return strings.ReplaceAll(damage, up.From, up.To)
}
