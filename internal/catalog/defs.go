// Package catalog holds the static rules data the engine queries by id:
// weapons, spells, monsters, maneuvers, origin feats, classes and races.
// Definitions are immutable after load; the engine never writes to them.
package catalog

import (
	"errors"

	"github.com/20q2/5e-combat-simulator-sub003/internal/game"
)

// ErrNotFound is returned when a lookup id has no definition.
var ErrNotFound = errors.New("catalog: definition not found")

// WeaponProperty values used by the resolvers.
const (
	PropertyFinesse   = "finesse"
	PropertyLight     = "light"
	PropertyRanged    = "ranged"
	PropertyReach     = "reach"
	PropertyThrown    = "thrown"
	PropertyTwoHanded = "two_handed"
	PropertyHeavy     = "heavy"
	PropertyVersatile = "versatile"
)

// MasteryKind is the single mastery property printed on a weapon.
type MasteryKind string

const (
	MasteryPush   MasteryKind = "push"
	MasterySap    MasteryKind = "sap"
	MasterySlow   MasteryKind = "slow"
	MasteryTopple MasteryKind = "topple"
	MasteryVex    MasteryKind = "vex"
	MasteryCleave MasteryKind = "cleave"
	MasteryGraze  MasteryKind = "graze"
	MasteryNick   MasteryKind = "nick"
)

// WeaponDef describes one weapon.
type WeaponDef struct {
	ID         string      `json:"id" yaml:"id"`
	Name       string      `json:"name" yaml:"name"`
	Damage     string      `json:"damage" yaml:"damage"`
	Properties []string    `json:"properties" yaml:"properties"`
	Mastery    MasteryKind `json:"mastery" yaml:"mastery"`
	ReachFeet  int         `json:"reach_feet" yaml:"reach_feet"`
	RangeFeet  int         `json:"range_feet" yaml:"range_feet"`
}

// HasProperty reports whether the weapon carries the named property.
func (w WeaponDef) HasProperty(p string) bool {
	for _, prop := range w.Properties {
		if prop == p {
			return true
		}
	}
	return false
}

// IsRanged reports whether attacks with this weapon are ranged.
func (w WeaponDef) IsRanged() bool { return w.HasProperty(PropertyRanged) }

// Reach returns the melee reach in feet, defaulting to 5.
func (w WeaponDef) Reach() int {
	if w.ReachFeet > 0 {
		return w.ReachFeet
	}
	return 5
}

// SpellKind selects which resolver handles a spell.
type SpellKind string

const (
	SpellAttack     SpellKind = "attack"
	SpellSave       SpellKind = "save"
	SpellAoE        SpellKind = "aoe"
	SpellProjectile SpellKind = "projectile"
)

// DieUpgrade substitutes every occurrence of the base die token in the
// damage expression with the upgraded token when the target is already
// damaged (e.g. toll the dead: d8 -> d12).
type DieUpgrade struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// AoESpec describes the area shape of an AoE spell.
type AoESpec struct {
	Shape      string `json:"shape" yaml:"shape"`
	SizeFeet   int    `json:"size_feet" yaml:"size_feet"`
	OriginType string `json:"origin_type" yaml:"origin_type"`
}

// ProjectileSpec describes an auto-hit multi-projectile spell. Each
// projectile rolls its damage independently.
type ProjectileSpec struct {
	Count  int    `json:"count" yaml:"count"`
	Damage string `json:"damage" yaml:"damage"`
}

// SpellDef describes one spell.
type SpellDef struct {
	ID          string          `json:"id" yaml:"id"`
	Name        string          `json:"name" yaml:"name"`
	Level       int             `json:"level" yaml:"level"`
	Kind        SpellKind       `json:"kind" yaml:"kind"`
	Damage      string          `json:"damage" yaml:"damage"`
	SaveAbility game.Ability    `json:"save_ability" yaml:"save_ability"`
	HalfOnSave  bool            `json:"half_on_save" yaml:"half_on_save"`
	DieUpgrade  *DieUpgrade     `json:"die_upgrade,omitempty" yaml:"die_upgrade,omitempty"`
	AoE         *AoESpec        `json:"aoe,omitempty" yaml:"aoe,omitempty"`
	Projectiles *ProjectileSpec `json:"projectiles,omitempty" yaml:"projectiles,omitempty"`
	Reaction    bool            `json:"reaction" yaml:"reaction"`
	RangeFeet   int             `json:"range_feet" yaml:"range_feet"`
}

// ManeuverKind selects the maneuver's resolution path.
type ManeuverKind string

const (
	ManeuverStrike    ManeuverKind = "strike"
	ManeuverParry     ManeuverKind = "parry"
	ManeuverPrecision ManeuverKind = "precision"
	ManeuverRiposte   ManeuverKind = "riposte"
)

// ManeuverSave is the save rider some strike maneuvers impose.
type ManeuverSave struct {
	Ability           game.Ability       `json:"ability" yaml:"ability"`
	Condition         game.ConditionKind `json:"condition,omitempty" yaml:"condition,omitempty"`
	ConditionDuration int                `json:"condition_duration,omitempty" yaml:"condition_duration,omitempty"`
	PushSquares       int                `json:"push_squares,omitempty" yaml:"push_squares,omitempty"`
}

// ManeuverDef describes one battle maneuver.
type ManeuverDef struct {
	ID            string        `json:"id" yaml:"id"`
	Name          string        `json:"name" yaml:"name"`
	Kind          ManeuverKind  `json:"kind" yaml:"kind"`
	AddsDamageDie bool          `json:"adds_damage_die" yaml:"adds_damage_die"`
	Save          *ManeuverSave `json:"save,omitempty" yaml:"save,omitempty"`
	Reaction      bool          `json:"reaction" yaml:"reaction"`
}

// FeatKey identifies the combat behaviour of an origin feat.
type FeatKey string

const (
	FeatAlert          FeatKey = "alert"
	FeatHealer         FeatKey = "healer"
	FeatLucky          FeatKey = "lucky"
	FeatMusician       FeatKey = "musician"
	FeatSavageAttacker FeatKey = "savage_attacker"
	FeatTavernBrawler  FeatKey = "tavern_brawler"
)

// FeatDef describes one origin feat.
type FeatDef struct {
	ID   string  `json:"id" yaml:"id"`
	Name string  `json:"name" yaml:"name"`
	Key  FeatKey `json:"key" yaml:"key"`
}

// Feature keys referenced by the engine.
const (
	FeatureImprovedCritical    = "improved_critical"
	FeatureSuperiorCritical    = "superior_critical"
	FeatureCombatSuperiority   = "combat_superiority"
	FeatureRelentless          = "relentless"
	FeatureSurvivor            = "survivor"
	FeatureHeroicWarrior       = "heroic_warrior"
	FeatureWeaponMastery       = "weapon_mastery"
	FeatureStyleArchery        = "style_archery"
	FeatureIndomitable         = "indomitable"
	FeatureRelentlessEndurance = "relentless_endurance"
)

// FeatureRow is one level-gated feature grant in a class or subclass table.
type FeatureRow struct {
	Level         int    `json:"level" yaml:"level"`
	Key           string `json:"key" yaml:"key"`
	Name          string `json:"name" yaml:"name"`
	AttackBonus   int    `json:"attack_bonus,omitempty" yaml:"attack_bonus,omitempty"`
	CritThreshold int    `json:"crit_threshold,omitempty" yaml:"crit_threshold,omitempty"`
}

// SuperiorityRow sizes the superiority-dice pool at a level threshold.
type SuperiorityRow struct {
	Level int `json:"level" yaml:"level"`
	Dice  int `json:"dice" yaml:"dice"`
	Die   int `json:"die" yaml:"die"`
}

// MasteryRow caps how many weapons may be mastered at a level threshold.
type MasteryRow struct {
	Level int `json:"level" yaml:"level"`
	Slots int `json:"slots" yaml:"slots"`
}

// SubclassDef is a subclass feature table.
type SubclassDef struct {
	ID       string       `json:"id" yaml:"id"`
	Name     string       `json:"name" yaml:"name"`
	Features []FeatureRow `json:"features" yaml:"features"`
}

// ClassDef describes one class with its level tables.
type ClassDef struct {
	ID           string           `json:"id" yaml:"id"`
	Name         string           `json:"name" yaml:"name"`
	Features     []FeatureRow     `json:"features" yaml:"features"`
	Subclasses   []SubclassDef    `json:"subclasses" yaml:"subclasses"`
	Superiority  []SuperiorityRow `json:"superiority" yaml:"superiority"`
	MasterySlots []MasteryRow     `json:"mastery_slots" yaml:"mastery_slots"`
}

// RaceDef describes one race; traits are flat keys the engine checks.
type RaceDef struct {
	ID     string   `json:"id" yaml:"id"`
	Name   string   `json:"name" yaml:"name"`
	Traits []string `json:"traits" yaml:"traits"`
}

// HasTrait reports whether the race grants the named trait.
func (r RaceDef) HasTrait(key string) bool {
	for _, t := range r.Traits {
		if t == key {
			return true
		}
	}
	return false
}

// MonsterAttack is one attack option on a monster statblock.
type MonsterAttack struct {
	Name      string       `json:"name" yaml:"name"`
	Damage    string       `json:"damage" yaml:"damage"`
	Ability   game.Ability `json:"ability" yaml:"ability"`
	Ranged    bool         `json:"ranged" yaml:"ranged"`
	RangeFeet int          `json:"range_feet" yaml:"range_feet"`
}

// MonsterDef describes one monster statblock.
type MonsterDef struct {
	ID               string             `json:"id" yaml:"id"`
	Name             string             `json:"name" yaml:"name"`
	MaxHP            int                `json:"max_hp" yaml:"max_hp"`
	ArmorClass       int                `json:"armor_class" yaml:"armor_class"`
	ProficiencyBonus int                `json:"proficiency_bonus" yaml:"proficiency_bonus"`
	Abilities        game.AbilityScores `json:"abilities" yaml:"abilities"`
	Attacks          []MonsterAttack    `json:"attacks" yaml:"attacks"`
}
