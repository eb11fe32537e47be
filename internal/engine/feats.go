package engine

import (
	"fmt"

	"github.com/20q2/5e-combat-simulator-sub003/internal/catalog"
	"github.com/20q2/5e-combat-simulator-sub003/internal/dice"
	"github.com/20q2/5e-combat-simulator-sub003/internal/game"
)

// Origin-feat resolution is stateless: every check keys off the feat id on
// the character sheet and reads only the snapshot handed in.

// InitiativeModifier is DEX modifier plus the alert proficiency bonus.
func (r *Resolver) InitiativeModifier(c *game.Combatant) int {
	mod := AbilityModifier(c.Abilities().Dexterity)
	if r.HasFeat(c, catalog.FeatAlert) {
		mod += ProficiencyBonus(c)
	}
	return mod
}

// CanSwapInitiative gates the alert initiative swap: the swapper must have
// the feat, the partner must be a willing same-team combatant that is not
// incapacitated, and nobody swaps with themselves.
func (r *Resolver) CanSwapInitiative(swapper, partner *game.Combatant) Decision {
	if !r.HasFeat(swapper, catalog.FeatAlert) {
		return Decline("the alert feat is required to swap initiative")
	}
	if swapper.ID == partner.ID {
		return Decline("cannot swap initiative with yourself")
	}
	if swapper.Kind != partner.Kind {
		return Decline("initiative can only be swapped with an ally")
	}
	if partner.IsIncapacitated() {
		return Decline("cannot swap initiative with an incapacitated ally")
	}
	return Allow()
}

// HealOutcome reports a healer-feat hit-die heal.
type HealOutcome struct {
	DieRolled int             `json:"die_rolled"`
	Rerolled  bool            `json:"rerolled"`
	Amount    int             `json:"amount"`
	Entries   []game.LogEntry `json:"entries"`
}

// ResolveHealerHeal spends one of the ally's hit dice: the healer must have
// the feat and stand adjacent, and the ally must have a die left. Ones are
// rerolled once.
func (r *Resolver) ResolveHealerHeal(healer, ally *game.Combatant) (HealOutcome, Decision) {
	if !r.HasFeat(healer, catalog.FeatHealer) {
		return HealOutcome{}, Decline("the healer feat is required")
	}
	if ally.Kind != game.KindCharacter {
		return HealOutcome{}, Decline("only characters spend hit dice")
	}
	if game.DistanceFeet(healer.Position, ally.Position) > 5 {
		return HealOutcome{}, Decline("the ally is out of reach")
	}
	if ally.Resources.HitDiceRemaining < 1 {
		return HealOutcome{}, Decline("no hit dice remaining")
	}

	die, rerolled := r.rollRerollingOnes(ally.Character.HitDie)
	out := HealOutcome{
		DieRolled: die,
		Rerolled:  rerolled,
		Amount:    die + AbilityModifier(ally.Abilities().Constitution),
	}
	if out.Amount < 1 {
		out.Amount = 1
	}
	out.Entries = []game.LogEntry{{
		Kind: game.LogHeal, ActorID: healer.ID, ActorName: healer.Name, TargetID: ally.ID,
		Message: fmt.Sprintf("%s patches up %s for %d hit points", healer.Name, ally.Name, out.Amount),
	}}
	return out, Allow()
}

// LuckyPoolSize is the number of luck points granted at encounter start.
func (r *Resolver) LuckyPoolSize(c *game.Combatant) int {
	if !r.HasFeat(c, catalog.FeatLucky) {
		return 0
	}
	return ProficiencyBonus(c)
}

// SavageAttackerDamage rolls the damage expression twice and keeps the
// better total.
func (r *Resolver) SavageAttackerDamage(expr dice.Expression, critical bool) dice.RollResult {
	first := r.roller.RollDamage(expr, critical)
	second := r.roller.RollDamage(expr, critical)
	if second.Total > first.Total {
		return second
	}
	return first
}

// UnarmedOutcome reports a tavern-brawler unarmed strike rider.
type UnarmedOutcome struct {
	BonusDamage int             `json:"bonus_damage"`
	Rerolled    bool            `json:"rerolled"`
	Push        *PushOutcome    `json:"push,omitempty"`
	Entries     []game.LogEntry `json:"entries,omitempty"`
}

// ResolveTavernBrawler adds the feat's unarmed bonus die (ones rerolled
// once) and, when requested, a one-square push following the same bounds,
// obstacle and occupancy rules as the weapon-mastery push.
func (r *Resolver) ResolveTavernBrawler(attacker, target *game.Combatant, grid *game.Grid, withPush bool) (UnarmedOutcome, Decision) {
	if !r.HasFeat(attacker, catalog.FeatTavernBrawler) {
		return UnarmedOutcome{}, Decline("the tavern brawler feat is required")
	}
	die, rerolled := r.rollRerollingOnes(4)
	out := UnarmedOutcome{BonusDamage: die, Rerolled: rerolled}
	if withPush {
		push := resolvePush(grid, attacker.Position, target.Position, 1)
		out.Push = &push
		if push.Squares > 0 {
			out.Entries = append(out.Entries, game.LogEntry{
				Kind: game.LogMovement, ActorID: attacker.ID, ActorName: attacker.Name, TargetID: target.ID,
				Message: fmt.Sprintf("%s shoves %s back %d ft", attacker.Name, target.Name, push.Squares*game.FeetPerCell),
			})
		}
	}
	return out, Allow()
}

// StartsWithHeroicInspiration reports feats that grant heroic inspiration
// when combat begins.
func (r *Resolver) StartsWithHeroicInspiration(c *game.Combatant) bool {
	return r.HasFeat(c, catalog.FeatMusician)
}

// rollRerollingOnes rolls one die, rerolling a natural 1 once and keeping
// the new value.
func (r *Resolver) rollRerollingOnes(sides int) (value int, rerolled bool) {
	value = r.roller.RollDie(sides)
	if value == 1 {
		value = r.roller.RollDie(sides)
		rerolled = true
	}
	return value, rerolled
}
