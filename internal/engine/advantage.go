package engine

import (
	"github.com/20q2/5e-combat-simulator-sub003/internal/dice"
	"github.com/20q2/5e-combat-simulator-sub003/internal/game"
)

// AdvantageInput describes one attack for advantage resolution. Round is
// passed explicitly so vex expiry never reads ambient state.
type AdvantageInput struct {
	Attacker *game.Combatant
	Target   *game.Combatant
	Base     dice.D20Mode
	IsRanged bool
	Round    int
}

// GetAttackAdvantage combines every advantage and disadvantage source into
// one roll mode. Sources accumulate in independent counters; if both sides
// have at least one source the result is normal — cancellation is binary
// presence, not magnitude.
func GetAttackAdvantage(in AdvantageInput) dice.D20Mode {
	adv, dis := 0, 0

	switch in.Base {
	case dice.Advantage:
		adv++
	case dice.Disadvantage:
		dis++
	}

	// Attacker-side conditions.
	if in.Attacker.HasCondition(game.ConditionInvisible) {
		adv++
	}
	for _, kind := range []game.ConditionKind{
		game.ConditionBlinded,
		game.ConditionPoisoned,
		game.ConditionRestrained,
		game.ConditionProne,
		game.ConditionSapped,
	} {
		if in.Attacker.HasCondition(kind) {
			dis++
		}
	}

	// Target-side conditions.
	for _, kind := range []game.ConditionKind{
		game.ConditionBlinded,
		game.ConditionParalyzed,
		game.ConditionRestrained,
		game.ConditionStunned,
		game.ConditionUnconscious,
	} {
		if in.Target.HasCondition(kind) {
			adv++
		}
	}
	if in.Target.HasCondition(game.ConditionInvisible) {
		dis++
	}
	if in.Target.HasCondition(game.ConditionDodging) {
		dis++
	}

	// Prone targets are easy prey up close and hard to hit from afar.
	if in.Target.HasCondition(game.ConditionProne) {
		if !in.IsRanged && game.DistanceFeet(in.Attacker.Position, in.Target.Position) <= 5 {
			adv++
		} else {
			dis++
		}
	}

	// Unexpired vex left by this attacker.
	if v := in.Target.VexedBy; v != nil && v.AttackerID == in.Attacker.ID && v.ExpiresOnRound >= in.Round {
		adv++
	}

	switch {
	case adv > 0 && dis > 0:
		return dice.Normal
	case adv > 0:
		return dice.Advantage
	case dis > 0:
		return dice.Disadvantage
	}
	return dice.Normal
}
