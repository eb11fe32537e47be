package engine

import (
	"testing"

	"github.com/20q2/5e-combat-simulator-sub003/internal/game"
)

func TestResolveAttack_Hit(t *testing.T) {
	// d20 10 + STR 3 + prof 3 = 16 vs AC 13, then d8 5 + STR 3 damage.
	r := newTestResolver(t, 10, 5)
	attacker := fighter(1, 0, 0)
	target := goblin(2, 1, 0)

	res, err := r.ResolveAttack(attacker, target, "longsword", AttackOptions{Round: 1})
	if err != nil {
		t.Fatalf("ResolveAttack: %v", err)
	}
	if !res.Hit || res.Critical {
		t.Fatalf("want plain hit, got hit=%v critical=%v", res.Hit, res.Critical)
	}
	if res.Total != 16 {
		t.Fatalf("attack total = %d, want 16", res.Total)
	}
	if res.DamageTotal != 8 {
		t.Fatalf("damage = %d, want 8", res.DamageTotal)
	}
	if len(res.Entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(res.Entries))
	}
}

func TestResolveAttack_NaturalOneAlwaysMisses(t *testing.T) {
	r := newTestResolver(t, 1)
	attacker := fighter(1, 0, 0)
	target := goblin(2, 1, 0)
	target.Monster.ArmorClass = 5 // total 7 would hit on its own

	res, err := r.ResolveAttack(attacker, target, "longsword", AttackOptions{Round: 1})
	if err != nil {
		t.Fatalf("ResolveAttack: %v", err)
	}
	if res.Hit || !res.CriticalMiss {
		t.Fatalf("natural 1: want critical miss, got hit=%v criticalMiss=%v", res.Hit, res.CriticalMiss)
	}
	if res.Damage != nil {
		t.Fatal("miss should roll no damage")
	}
}

func TestResolveAttack_NaturalTwentyAlwaysCrits(t *testing.T) {
	// Natural 20 against an unhittable AC: dice doubled, modifier not.
	r := newTestResolver(t, 20, 8, 8)
	attacker := fighter(1, 0, 0)
	target := goblin(2, 1, 0)
	target.Monster.ArmorClass = 30

	res, err := r.ResolveAttack(attacker, target, "longsword", AttackOptions{Round: 1})
	if err != nil {
		t.Fatalf("ResolveAttack: %v", err)
	}
	if !res.Hit || !res.Critical {
		t.Fatalf("natural 20 vs AC 30: want critical hit, got hit=%v critical=%v", res.Hit, res.Critical)
	}
	if len(res.Damage.Rolls) != 2 {
		t.Fatalf("critical d8 dice = %d, want 2", len(res.Damage.Rolls))
	}
	if res.DamageTotal != 19 {
		t.Fatalf("critical damage = %d, want 8+8+3 = 19", res.DamageTotal)
	}
}

func TestResolveAttack_LoweredCritThreshold(t *testing.T) {
	r := newTestResolver(t, 19, 4, 4)
	attacker := fighter(1, 0, 0)
	attacker.Character.SubclassID = "champion"
	target := goblin(2, 1, 0)
	target.Monster.ArmorClass = 30

	res, err := r.ResolveAttack(attacker, target, "longsword", AttackOptions{Round: 1})
	if err != nil {
		t.Fatalf("ResolveAttack: %v", err)
	}
	if !res.Critical {
		t.Fatalf("champion natural 19 should crit, got %+v", res)
	}
}

func TestResolveAttack_RollBonusAndReactionPenalty(t *testing.T) {
	attacker := fighter(1, 0, 0)
	target := goblin(2, 1, 0) // AC 13

	// 5 + 6 bonus + 4 precision = 15: hit.
	r := newTestResolver(t, 5, 6)
	res, err := r.ResolveAttack(attacker, target, "longsword", AttackOptions{Round: 1, RollBonus: 4})
	if err != nil {
		t.Fatalf("ResolveAttack: %v", err)
	}
	if !res.Hit || res.Total != 15 {
		t.Fatalf("precision: hit=%v total=%d, want hit at 15", res.Hit, res.Total)
	}

	// 10 + 6 - 4 parry-style penalty = 12: miss.
	r = newTestResolver(t, 10)
	res, err = r.ResolveAttack(attacker, target, "longsword", AttackOptions{Round: 1, ReactionPenalty: 4})
	if err != nil {
		t.Fatalf("ResolveAttack: %v", err)
	}
	if res.Hit || res.Total != 12 {
		t.Fatalf("penalty: hit=%v total=%d, want miss at 12", res.Hit, res.Total)
	}
}

func TestResolveAttack_BonusDamageFloorsAtZero(t *testing.T) {
	r := newTestResolver(t, 10, 1)
	attacker := fighter(1, 0, 0)
	target := goblin(2, 1, 0)

	res, err := r.ResolveAttack(attacker, target, "longsword", AttackOptions{Round: 1, BonusDamage: -20})
	if err != nil {
		t.Fatalf("ResolveAttack: %v", err)
	}
	if !res.Hit || res.DamageTotal != 0 {
		t.Fatalf("damage = %d, want clamp to 0", res.DamageTotal)
	}
}

func TestResolveAttack_UnknownWeapon(t *testing.T) {
	r := newTestResolver(t)
	if _, err := r.ResolveAttack(fighter(1, 0, 0), goblin(2, 1, 0), "banana", AttackOptions{}); err == nil {
		t.Fatal("unknown weapon id should be an error")
	}
}

func TestResolveMonsterAttack(t *testing.T) {
	// d20 16 + DEX 2 + prof 2 = 20 vs AC 18, then 1d6+2 with die 4.
	r := newTestResolver(t, 16, 4)
	attacker := goblin(1, 0, 0)
	target := fighter(2, 1, 0)

	mon, err := testCatalog(t).Monster("goblin")
	if err != nil {
		t.Fatalf("monster lookup: %v", err)
	}
	res, err := r.ResolveMonsterAttack(attacker, target, mon.Attacks[0], AttackOptions{Round: 1})
	if err != nil {
		t.Fatalf("ResolveMonsterAttack: %v", err)
	}
	if !res.Hit || res.Total != 20 {
		t.Fatalf("hit=%v total=%d, want hit at 20", res.Hit, res.Total)
	}
	// The statblock expression carries the monster's damage bonus already.
	if res.DamageTotal != 6 {
		t.Fatalf("damage = %d, want 6", res.DamageTotal)
	}
}

func TestResolveSpellAttack(t *testing.T) {
	// d20 10 + INT 3 + prof 3 = 16 vs AC 13, then d10 7 with no ability rider.
	r := newTestResolver(t, 10, 7)
	caster := fighter(1, 0, 0)
	caster.Character.SpellcastingAbility = game.Intelligence
	caster.Character.Abilities.Intelligence = 16
	target := goblin(2, 1, 0)

	spell, err := testCatalog(t).Spell("fire_bolt")
	if err != nil {
		t.Fatalf("spell lookup: %v", err)
	}
	res, err := r.ResolveSpellAttack(caster, target, spell, AttackOptions{Round: 1})
	if err != nil {
		t.Fatalf("ResolveSpellAttack: %v", err)
	}
	if !res.Hit || res.Total != 16 {
		t.Fatalf("hit=%v total=%d, want hit at 16", res.Hit, res.Total)
	}
	if res.DamageTotal != 7 {
		t.Fatalf("spell damage = %d, want dice only 7", res.DamageTotal)
	}
}
