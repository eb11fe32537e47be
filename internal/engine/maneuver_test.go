package engine

import (
	"errors"
	"testing"

	"github.com/20q2/5e-combat-simulator-sub003/internal/catalog"
	"github.com/20q2/5e-combat-simulator-sub003/internal/game"
)

func TestSuperiorityTable(t *testing.T) {
	r := newTestResolver(t)
	f := fighter(1, 0, 0)

	cases := []struct {
		level int
		dice  int
		die   int
	}{
		{3, 4, 8},
		{5, 4, 8},
		{7, 5, 8},
		{10, 5, 10},
		{15, 6, 10},
		{18, 6, 12},
		{20, 6, 12},
	}
	for _, tc := range cases {
		f.Character.Level = tc.level
		if got := r.SuperiorityDice(f); got != tc.dice {
			t.Fatalf("pool at level %d = %d, want %d", tc.level, got, tc.dice)
		}
		if got := r.SuperiorityDie(f); got != tc.die {
			t.Fatalf("die at level %d = d%d, want d%d", tc.level, got, tc.die)
		}
	}
}

func TestRelentlessRegain(t *testing.T) {
	r := newTestResolver(t)
	f := fighter(1, 0, 0)
	f.Character.Level = 15
	f.Resources.SuperiorityDice = 0

	if !r.RelentlessRegain(f) {
		t.Fatal("level 15 battle master with an empty pool should regain")
	}
	f.Resources.SuperiorityDice = 1
	if r.RelentlessRegain(f) {
		t.Fatal("relentless only fires on an empty pool")
	}
	f.Character.Level = 5
	f.Resources.SuperiorityDice = 0
	if r.RelentlessRegain(f) {
		t.Fatal("relentless requires the feature")
	}
}

func TestCanUseManeuver(t *testing.T) {
	r := newTestResolver(t)

	cases := []struct {
		name     string
		setup    func() *game.Combatant
		maneuver string
		allowed  bool
	}{
		{
			name:     "known maneuver with dice",
			setup:    func() *game.Combatant { return fighter(1, 0, 0) },
			maneuver: "trip_attack",
			allowed:  true,
		},
		{
			name: "no combat superiority",
			setup: func() *game.Combatant {
				f := fighter(1, 0, 0)
				f.Character.SubclassID = "champion"
				return f
			},
			maneuver: "trip_attack",
		},
		{
			name: "empty pool",
			setup: func() *game.Combatant {
				f := fighter(1, 0, 0)
				f.Resources.SuperiorityDice = 0
				return f
			},
			maneuver: "trip_attack",
		},
		{
			name:     "unknown to this character",
			setup:    func() *game.Combatant { return fighter(1, 0, 0) },
			maneuver: "pushing_attack",
		},
		{
			name: "reaction maneuver with reaction spent",
			setup: func() *game.Combatant {
				f := fighter(1, 0, 0)
				f.Turn.ReactionUsed = true
				return f
			},
			maneuver: "riposte",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dec, err := r.CanUseManeuver(tc.setup(), tc.maneuver)
			if err != nil {
				t.Fatalf("CanUseManeuver: %v", err)
			}
			if dec.Allowed != tc.allowed {
				t.Fatalf("allowed = %v (%q), want %v", dec.Allowed, dec.Reason, tc.allowed)
			}
			if !dec.Allowed && dec.Reason == "" {
				t.Fatal("declined decision must carry a reason")
			}
		})
	}

	if _, err := r.CanUseManeuver(fighter(1, 0, 0), "no_such_maneuver"); !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("unknown maneuver id: err = %v, want ErrNotFound", err)
	}
}

func TestApplyManeuverOnHit_TripAttack(t *testing.T) {
	// Superiority d8 rolls 6, then the goblin's STR save rolls 3 - 1 = 2
	// against DC 14.
	r := newTestResolver(t, 6, 3)
	attacker := fighter(1, 0, 0)
	target := goblin(2, 1, 0)

	res, err := r.ApplyManeuverOnHit(attacker, target, "trip_attack", game.NewGrid(5, 5))
	if err != nil {
		t.Fatalf("ApplyManeuverOnHit: %v", err)
	}
	if res.DieRolled != 6 || res.BonusDamage != 6 {
		t.Fatalf("die = %d bonus = %d, want 6 and 6", res.DieRolled, res.BonusDamage)
	}
	if res.Save == nil || !res.Save.Failed || res.Save.DC != 14 {
		t.Fatalf("save = %+v, want failed vs DC 14", res.Save)
	}
	if len(res.ConditionsAdded) != 1 || res.ConditionsAdded[0].Kind != game.ConditionProne || res.ConditionsAdded[0].Duration != game.IndefiniteDuration {
		t.Fatalf("conditions = %+v, want indefinite prone", res.ConditionsAdded)
	}
}

func TestApplyManeuverOnHit_SaveHolds(t *testing.T) {
	r := newTestResolver(t, 6, 20)
	attacker := fighter(1, 0, 0)
	target := goblin(2, 1, 0)

	res, err := r.ApplyManeuverOnHit(attacker, target, "trip_attack", game.NewGrid(5, 5))
	if err != nil {
		t.Fatalf("ApplyManeuverOnHit: %v", err)
	}
	if res.Save.Failed || len(res.ConditionsAdded) != 0 {
		t.Fatalf("held save should add nothing: %+v", res)
	}
	if res.BonusDamage != 6 {
		t.Fatal("the damage die lands whether or not the save holds")
	}
}

func TestApplyManeuverOnHit_PushingAttack(t *testing.T) {
	// d8 rolls 4, save fails on 2 - 1, push up to 3 squares.
	r := newTestResolver(t, 4, 2)
	attacker := fighter(1, 0, 0)
	target := goblin(2, 1, 0)
	grid := game.NewGrid(10, 10)

	res, err := r.ApplyManeuverOnHit(attacker, target, "pushing_attack", grid)
	if err != nil {
		t.Fatalf("ApplyManeuverOnHit: %v", err)
	}
	if res.Push == nil || res.Push.Squares != 3 || res.Push.To != (game.Position{X: 4, Y: 0}) {
		t.Fatalf("push = %+v, want 3 squares to (4,0)", res.Push)
	}
}

func TestResolveParry(t *testing.T) {
	// d8 rolls 6, plus DEX 2 = 8 reduction.
	r := newTestResolver(t, 6)
	f := fighter(1, 0, 0)

	res := r.ResolveParry(f, 20)
	if res.BonusDamage != -8 {
		t.Fatalf("reduction = %d, want -8", res.BonusDamage)
	}

	// The reduction never exceeds the incoming damage.
	r = newTestResolver(t, 6)
	res = r.ResolveParry(f, 5)
	if res.BonusDamage != -5 {
		t.Fatalf("capped reduction = %d, want -5", res.BonusDamage)
	}
}

func TestPrecisionAndRiposteRollTheSuperiorityDie(t *testing.T) {
	r := newTestResolver(t, 7)
	f := fighter(1, 0, 0)
	if got := r.PrecisionAttackBonus(f); got != 7 {
		t.Fatalf("precision bonus = %d, want 7", got)
	}

	r = newTestResolver(t, 5)
	if got := r.PrepareRiposte(f); got != 5 {
		t.Fatalf("riposte die = %d, want 5", got)
	}
}
