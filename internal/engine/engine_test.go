package engine

import (
	"testing"

	"github.com/20q2/5e-combat-simulator-sub003/internal/catalog"
	"github.com/20q2/5e-combat-simulator-sub003/internal/dice"
	"github.com/20q2/5e-combat-simulator-sub003/internal/game"
)

// scriptedSource feeds predetermined die faces to the roller and repeats
// the last one when the script runs out.
type scriptedSource struct {
	values []int
	i      int
}

func (s *scriptedSource) Intn(n int) int {
	v := s.values[s.i]
	if s.i < len(s.values)-1 {
		s.i++
	}
	if v >= n {
		v = n - 1
	}
	return v
}

func scriptedRoller(faces ...int) *dice.Roller {
	vals := make([]int, len(faces))
	for i, f := range faces {
		vals[i] = f - 1
	}
	return dice.NewRollerFromSource(&scriptedSource{values: vals})
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New(catalog.Data{
		Weapons: []catalog.WeaponDef{
			{ID: "longsword", Name: "Longsword", Damage: "1d8", Mastery: catalog.MasterySap},
			{ID: "warhammer", Name: "Warhammer", Damage: "1d8", Mastery: catalog.MasteryPush},
			{ID: "greatsword", Name: "Greatsword", Damage: "2d6", Properties: []string{catalog.PropertyHeavy, catalog.PropertyTwoHanded}, Mastery: catalog.MasteryGraze},
			{ID: "maul", Name: "Maul", Damage: "2d6", Properties: []string{catalog.PropertyHeavy}, Mastery: catalog.MasteryTopple},
			{ID: "shortsword", Name: "Shortsword", Damage: "1d6", Properties: []string{catalog.PropertyFinesse, catalog.PropertyLight}, Mastery: catalog.MasteryVex},
			{ID: "dagger", Name: "Dagger", Damage: "1d4", Properties: []string{catalog.PropertyFinesse, catalog.PropertyLight}, Mastery: catalog.MasteryNick},
			{ID: "halberd", Name: "Halberd", Damage: "1d10", Properties: []string{catalog.PropertyReach}, Mastery: catalog.MasteryCleave, ReachFeet: 10},
			{ID: "longbow", Name: "Longbow", Damage: "1d8", Properties: []string{catalog.PropertyRanged}, Mastery: catalog.MasterySlow, RangeFeet: 150},
		},
		Spells: []catalog.SpellDef{
			{ID: "fire_bolt", Name: "Fire Bolt", Level: 0, Kind: catalog.SpellAttack, Damage: "1d10", RangeFeet: 120},
			{ID: "toll_the_dead", Name: "Toll the Dead", Level: 0, Kind: catalog.SpellSave, Damage: "1d8", SaveAbility: game.Wisdom,
				DieUpgrade: &catalog.DieUpgrade{From: "d8", To: "d12"}, RangeFeet: 60},
			{ID: "fireball", Name: "Fireball", Level: 3, Kind: catalog.SpellAoE, Damage: "8d6", SaveAbility: game.Dexterity, HalfOnSave: true,
				AoE: &catalog.AoESpec{Shape: "sphere", SizeFeet: 20, OriginType: "point"}, RangeFeet: 150},
			{ID: "magic_missile", Name: "Magic Missile", Level: 1, Kind: catalog.SpellProjectile,
				Projectiles: &catalog.ProjectileSpec{Count: 3, Damage: "1d4+1"}, RangeFeet: 120},
			{ID: "hellish_rebuke", Name: "Hellish Rebuke", Level: 1, Kind: catalog.SpellSave, Damage: "2d10", SaveAbility: game.Dexterity,
				HalfOnSave: true, Reaction: true, RangeFeet: 60},
		},
		Maneuvers: []catalog.ManeuverDef{
			{ID: "trip_attack", Name: "Trip Attack", Kind: catalog.ManeuverStrike, AddsDamageDie: true,
				Save: &catalog.ManeuverSave{Ability: game.Strength, Condition: game.ConditionProne}},
			{ID: "pushing_attack", Name: "Pushing Attack", Kind: catalog.ManeuverStrike, AddsDamageDie: true,
				Save: &catalog.ManeuverSave{Ability: game.Strength, PushSquares: 3}},
			{ID: "parry", Name: "Parry", Kind: catalog.ManeuverParry, Reaction: true},
			{ID: "precision_attack", Name: "Precision Attack", Kind: catalog.ManeuverPrecision},
			{ID: "riposte", Name: "Riposte", Kind: catalog.ManeuverRiposte, Reaction: true},
		},
		Feats: []catalog.FeatDef{
			{ID: "alert", Name: "Alert", Key: catalog.FeatAlert},
			{ID: "healer", Name: "Healer", Key: catalog.FeatHealer},
			{ID: "lucky", Name: "Lucky", Key: catalog.FeatLucky},
			{ID: "musician", Name: "Musician", Key: catalog.FeatMusician},
			{ID: "savage_attacker", Name: "Savage Attacker", Key: catalog.FeatSavageAttacker},
			{ID: "tavern_brawler", Name: "Tavern Brawler", Key: catalog.FeatTavernBrawler},
		},
		Classes: []catalog.ClassDef{
			{
				ID: "fighter", Name: "Fighter",
				Features: []catalog.FeatureRow{
					{Level: 1, Key: catalog.FeatureWeaponMastery, Name: "Weapon Mastery"},
					{Level: 1, Key: catalog.FeatureStyleArchery, Name: "Archery", AttackBonus: 2},
				},
				Subclasses: []catalog.SubclassDef{
					{ID: "battle_master", Name: "Battle Master", Features: []catalog.FeatureRow{
						{Level: 3, Key: catalog.FeatureCombatSuperiority, Name: "Combat Superiority"},
						{Level: 15, Key: catalog.FeatureRelentless, Name: "Relentless"},
					}},
					{ID: "champion", Name: "Champion", Features: []catalog.FeatureRow{
						{Level: 3, Key: catalog.FeatureImprovedCritical, Name: "Improved Critical", CritThreshold: 19},
						{Level: 10, Key: catalog.FeatureHeroicWarrior, Name: "Heroic Warrior"},
						{Level: 15, Key: catalog.FeatureSuperiorCritical, Name: "Superior Critical", CritThreshold: 18},
						{Level: 18, Key: catalog.FeatureSurvivor, Name: "Survivor"},
					}},
				},
				Superiority: []catalog.SuperiorityRow{
					{Level: 3, Dice: 4, Die: 8},
					{Level: 7, Dice: 5, Die: 8},
					{Level: 10, Dice: 5, Die: 10},
					{Level: 15, Dice: 6, Die: 10},
					{Level: 18, Dice: 6, Die: 12},
				},
				MasterySlots: []catalog.MasteryRow{
					{Level: 1, Slots: 3},
					{Level: 4, Slots: 4},
					{Level: 10, Slots: 5},
					{Level: 16, Slots: 6},
				},
			},
		},
		Races: []catalog.RaceDef{
			{ID: "human", Name: "Human"},
			{ID: "orc", Name: "Orc", Traits: []string{catalog.FeatureRelentlessEndurance}},
		},
		Monsters: []catalog.MonsterDef{
			{ID: "goblin", Name: "Goblin", MaxHP: 7, ArmorClass: 13, ProficiencyBonus: 2,
				Abilities: game.AbilityScores{Strength: 8, Dexterity: 14, Constitution: 10, Intelligence: 10, Wisdom: 8, Charisma: 8},
				Attacks:   []catalog.MonsterAttack{{Name: "Scimitar", Damage: "1d6+2", Ability: game.Dexterity}}},
		},
	})
	if err != nil {
		t.Fatalf("building test catalog: %v", err)
	}
	return cat
}

func newTestResolver(t *testing.T, faces ...int) *Resolver {
	t.Helper()
	return NewResolver(testCatalog(t), scriptedRoller(faces...))
}

// fighter builds a level-5 battle master with STR 16, DEX 14, CON 14 at the
// given position, wielding a longsword.
func fighter(id uint, x, y int) *game.Combatant {
	c := &game.Combatant{
		Kind:      game.KindCharacter,
		Name:      "Sera",
		Position:  game.Position{X: x, Y: y},
		MaxHP:     44,
		CurrentHP: 44,
		Character: &game.CharacterSheet{
			Level:             5,
			ClassID:           "fighter",
			SubclassID:        "battle_master",
			RaceID:            "human",
			Abilities:         game.AbilityScores{Strength: 16, Dexterity: 14, Constitution: 14, Intelligence: 10, Wisdom: 12, Charisma: 8},
			ArmorClass:        18,
			HitDie:            10,
			EquippedWeaponID:  "longsword",
			WeaponIDs:         []string{"longsword", "warhammer", "shortsword"},
			MasteredWeaponIDs: []string{"longsword", "warhammer", "shortsword"},
			KnownManeuverIDs:  []string{"trip_attack", "parry", "precision_attack", "riposte"},
		},
		Resources: game.Resources{SuperiorityDice: 4, HitDiceRemaining: 5},
	}
	c.ID = id
	return c
}

// goblin builds a standard goblin at the given position.
func goblin(id uint, x, y int) *game.Combatant {
	c := &game.Combatant{
		Kind:      game.KindMonster,
		Name:      "Goblin",
		Position:  game.Position{X: x, Y: y},
		MaxHP:     7,
		CurrentHP: 7,
		Monster: &game.MonsterSheet{
			MonsterID:        "goblin",
			Abilities:        game.AbilityScores{Strength: 8, Dexterity: 14, Constitution: 10, Intelligence: 10, Wisdom: 8, Charisma: 8},
			ArmorClass:       13,
			ProficiencyBonus: 2,
		},
	}
	c.ID = id
	return c
}
