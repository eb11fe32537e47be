package engine

import (
	"fmt"

	"github.com/20q2/5e-combat-simulator-sub003/internal/catalog"
	"github.com/20q2/5e-combat-simulator-sub003/internal/dice"
	"github.com/20q2/5e-combat-simulator-sub003/internal/game"
)

// TurnResetFields names the transient flags cleared unconditionally at the
// end of a combatant's turn. The session zeroes the TurnFlags struct; this
// list is the canonical record of what that covers.
func TurnResetFields() []string {
	return []string{
		"action_used",
		"bonus_action_used",
		"reaction_used",
		"movement_used",
		"dash_feet",
		"nick_attack_used",
		"second_wind_used",
	}
}

// ConditionExpiryResult reports the tick-down of timed conditions at the
// start of the combatant's turn.
type ConditionExpiryResult struct {
	Expired   []game.ConditionKind   `json:"expired"`
	Remaining []game.ActiveCondition `json:"remaining"`
	Entries   []game.LogEntry        `json:"entries"`
}

// CalculateConditionExpiry decrements every timed condition by one and
// removes those that reach zero, reporting the expired kinds. Indefinite
// conditions never tick.
func CalculateConditionExpiry(c *game.Combatant) ConditionExpiryResult {
	var res ConditionExpiryResult
	for _, ac := range c.Conditions {
		if ac.Duration == game.IndefiniteDuration {
			res.Remaining = append(res.Remaining, ac)
			continue
		}
		ac.Duration--
		if ac.Duration <= 0 {
			res.Expired = append(res.Expired, ac.Kind)
			res.Entries = append(res.Entries, game.LogEntry{
				Kind: game.LogCondition, ActorID: c.ID, ActorName: c.Name,
				Message: fmt.Sprintf("%s is no longer %s", c.Name, ac.Kind),
			})
			continue
		}
		res.Remaining = append(res.Remaining, ac)
	}
	return res
}

// StartOfTurnResult reports recurring start-of-turn grants.
type StartOfTurnResult struct {
	HeroicInspirationGranted bool            `json:"heroic_inspiration_granted"`
	HealAmount               int             `json:"heal_amount"`
	Entries                  []game.LogEntry `json:"entries"`
}

// CalculateStartOfTurnEffects computes recurring grants: heroic inspiration
// when the feature is present and the pool is empty, and the survivor heal
// of 5 + CON modifier while bloodied but conscious.
func (r *Resolver) CalculateStartOfTurnEffects(c *game.Combatant) StartOfTurnResult {
	var res StartOfTurnResult
	if r.HasFeature(c, catalog.FeatureHeroicWarrior) && !c.Resources.HeroicInspiration {
		res.HeroicInspirationGranted = true
		res.Entries = append(res.Entries, game.LogEntry{
			Kind: game.LogResource, ActorID: c.ID, ActorName: c.Name,
			Message: fmt.Sprintf("%s regains heroic inspiration", c.Name),
		})
	}
	if r.HasFeature(c, catalog.FeatureSurvivor) && c.CurrentHP > 0 && c.CurrentHP <= c.MaxHP/2 {
		res.HealAmount = 5 + AbilityModifier(c.Abilities().Constitution)
		if res.HealAmount < 0 {
			res.HealAmount = 0
		}
		if res.HealAmount > 0 {
			res.Entries = append(res.Entries, game.LogEntry{
				Kind: game.LogHeal, ActorID: c.ID, ActorName: c.Name,
				Message: fmt.Sprintf("%s recovers %d hit points", c.Name, res.HealAmount),
			})
		}
	}
	return res
}

// ShouldSkipTurn reports whether the combatant is fully dead and therefore
// never receives an active turn. Unconscious characters still get turns:
// they roll death saves.
func ShouldSkipTurn(c *game.Combatant) bool {
	return c.IsDead()
}

// DeathSaveResult is one unmodified d20 death saving throw.
type DeathSaveResult struct {
	Roll       dice.D20Result `json:"roll"`
	Successes  int            `json:"successes"`
	Failures   int            `json:"failures"`
	Stabilized bool           `json:"stabilized"`
	Revived    bool           `json:"revived"`
	Died       bool           `json:"died"`

	Entries []game.LogEntry `json:"entries"`
}

// ResolveDeathSave rolls the start-of-turn death save for a downed character:
// 10 or higher is a success, below is a failure, a natural 1 counts twice and
// a natural 20 brings the character back at 1 hit point. Three successes
// stabilize, three cumulative failures kill.
func (r *Resolver) ResolveDeathSave(c *game.Combatant) DeathSaveResult {
	roll := r.roller.RollD20(0, dice.Normal)
	res := DeathSaveResult{
		Roll:      roll,
		Successes: c.Resources.DeathSaves.Successes,
		Failures:  c.Resources.DeathSaves.Failures,
	}

	var msg string
	switch {
	case roll.Natural == 20:
		res.Revived = true
		res.Successes = 0
		res.Failures = 0
		msg = fmt.Sprintf("%s surges back to consciousness", c.Name)
	case roll.Natural == 1:
		res.Failures += 2
		msg = fmt.Sprintf("%s rolls a natural 1 on a death save: two failures (%d of 3)", c.Name, res.Failures)
	case roll.Total >= 10:
		res.Successes++
		msg = fmt.Sprintf("%s succeeds on a death save (%d of 3)", c.Name, res.Successes)
	default:
		res.Failures++
		msg = fmt.Sprintf("%s fails a death save (%d of 3)", c.Name, res.Failures)
	}

	res.Entries = append(res.Entries, game.LogEntry{
		Kind: game.LogDeathSave, ActorID: c.ID, ActorName: c.Name, Message: msg,
	})
	if res.Failures >= 3 {
		res.Died = true
		res.Entries = append(res.Entries, game.LogEntry{
			Kind: game.LogDeath, ActorID: c.ID, ActorName: c.Name,
			Message: fmt.Sprintf("%s dies", c.Name),
		})
	} else if res.Successes >= 3 {
		res.Stabilized = true
		res.Entries = append(res.Entries, game.LogEntry{
			Kind: game.LogDeathSave, ActorID: c.ID, ActorName: c.Name,
			Message: fmt.Sprintf("%s stabilizes", c.Name),
		})
	}
	return res
}
