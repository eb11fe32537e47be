package engine

import (
	"testing"

	"github.com/20q2/5e-combat-simulator-sub003/internal/dice"
	"github.com/20q2/5e-combat-simulator-sub003/internal/game"
)

func TestInitiativeModifier(t *testing.T) {
	r := newTestResolver(t)
	f := fighter(1, 0, 0) // DEX 14

	if got := r.InitiativeModifier(f); got != 2 {
		t.Fatalf("initiative modifier = %d, want 2", got)
	}
	f.Character.OriginFeatIDs = []string{"alert"}
	if got := r.InitiativeModifier(f); got != 5 {
		t.Fatalf("alert initiative modifier = %d, want 2 + proficiency 3", got)
	}
}

func TestCanSwapInitiative(t *testing.T) {
	r := newTestResolver(t)
	alert := fighter(1, 0, 0)
	alert.Character.OriginFeatIDs = []string{"alert"}

	if dec := r.CanSwapInitiative(fighter(3, 0, 0), fighter(4, 0, 0)); dec.Allowed {
		t.Fatal("swap without the alert feat should be declined")
	}
	if dec := r.CanSwapInitiative(alert, alert); dec.Allowed {
		t.Fatal("self swap should be declined")
	}
	if dec := r.CanSwapInitiative(alert, goblin(2, 0, 0)); dec.Allowed {
		t.Fatal("cross-team swap should be declined")
	}

	downed := fighter(5, 0, 0)
	downed.AddCondition(game.ConditionUnconscious, game.IndefiniteDuration)
	if dec := r.CanSwapInitiative(alert, downed); dec.Allowed {
		t.Fatal("swap with an incapacitated ally should be declined")
	}

	if dec := r.CanSwapInitiative(alert, fighter(6, 0, 0)); !dec.Allowed {
		t.Fatalf("legal swap declined: %q", dec.Reason)
	}
}

func TestResolveHealerHeal(t *testing.T) {
	// The d10 hit die rolls a 1, rerolls into 7; plus the ally's CON 2.
	r := newTestResolver(t, 1, 7)
	healer := fighter(1, 0, 0)
	healer.Character.OriginFeatIDs = []string{"healer"}
	ally := fighter(2, 1, 0)

	out, dec := r.ResolveHealerHeal(healer, ally)
	if !dec.Allowed {
		t.Fatalf("heal declined: %q", dec.Reason)
	}
	if !out.Rerolled || out.DieRolled != 7 || out.Amount != 9 {
		t.Fatalf("heal = %+v, want rerolled die 7 and amount 9", out)
	}
}

func TestResolveHealerHeal_Declines(t *testing.T) {
	r := newTestResolver(t, 5)
	healer := fighter(1, 0, 0)
	healer.Character.OriginFeatIDs = []string{"healer"}

	if _, dec := r.ResolveHealerHeal(fighter(9, 0, 0), fighter(2, 1, 0)); dec.Allowed {
		t.Fatal("heal without the feat should be declined")
	}
	if _, dec := r.ResolveHealerHeal(healer, goblin(2, 1, 0)); dec.Allowed {
		t.Fatal("monsters have no hit dice to spend")
	}
	if _, dec := r.ResolveHealerHeal(healer, fighter(2, 4, 0)); dec.Allowed {
		t.Fatal("out-of-reach ally should be declined")
	}
	spent := fighter(2, 1, 0)
	spent.Resources.HitDiceRemaining = 0
	if _, dec := r.ResolveHealerHeal(healer, spent); dec.Allowed {
		t.Fatal("ally with no hit dice left should be declined")
	}
}

func TestLuckyPoolSize(t *testing.T) {
	r := newTestResolver(t)
	f := fighter(1, 0, 0)
	if got := r.LuckyPoolSize(f); got != 0 {
		t.Fatalf("pool without the feat = %d, want 0", got)
	}
	f.Character.OriginFeatIDs = []string{"lucky"}
	if got := r.LuckyPoolSize(f); got != 3 {
		t.Fatalf("lucky pool = %d, want proficiency 3", got)
	}
}

func TestSavageAttackerDamage(t *testing.T) {
	// Two 2d6 rolls: 1+2 = 3 and 5+6 = 11; keep the better.
	r := newTestResolver(t, 1, 2, 5, 6)
	expr, err := dice.ParseExpression("2d6")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	res := r.SavageAttackerDamage(expr, false)
	if res.Total != 11 {
		t.Fatalf("kept total = %d, want 11", res.Total)
	}

	// Order does not matter: a better first roll wins too.
	r = newTestResolver(t, 6, 6, 1, 1)
	res = r.SavageAttackerDamage(expr, false)
	if res.Total != 12 {
		t.Fatalf("kept total = %d, want 12", res.Total)
	}
}

func TestResolveTavernBrawler(t *testing.T) {
	// The d4 rolls a 1, rerolls into 3, and the push moves one square.
	r := newTestResolver(t, 1, 3)
	attacker := fighter(1, 2, 2)
	attacker.Character.OriginFeatIDs = []string{"tavern_brawler"}
	target := goblin(2, 3, 2)

	out, dec := r.ResolveTavernBrawler(attacker, target, game.NewGrid(10, 10), true)
	if !dec.Allowed {
		t.Fatalf("declined: %q", dec.Reason)
	}
	if !out.Rerolled || out.BonusDamage != 3 {
		t.Fatalf("bonus = %+v, want rerolled 3", out)
	}
	if out.Push == nil || out.Push.Squares != 1 || out.Push.To != (game.Position{X: 4, Y: 2}) {
		t.Fatalf("push = %+v, want 1 square to (4,2)", out.Push)
	}

	// Without the optional push the damage die still lands.
	r = newTestResolver(t, 4)
	out, dec = r.ResolveTavernBrawler(attacker, target, game.NewGrid(10, 10), false)
	if !dec.Allowed || out.BonusDamage != 4 || out.Push != nil {
		t.Fatalf("no-push case = %+v", out)
	}

	if _, dec := r.ResolveTavernBrawler(fighter(9, 2, 2), target, game.NewGrid(10, 10), false); dec.Allowed {
		t.Fatal("feat required")
	}
}

func TestStartsWithHeroicInspiration(t *testing.T) {
	r := newTestResolver(t)
	f := fighter(1, 0, 0)
	if r.StartsWithHeroicInspiration(f) {
		t.Fatal("no feat, no inspiration")
	}
	f.Character.OriginFeatIDs = []string{"musician"}
	if !r.StartsWithHeroicInspiration(f) {
		t.Fatal("musician should start combat inspired")
	}
}
