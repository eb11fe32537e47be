package game

import (
	"gorm.io/gorm"
)

// CombatantKind discriminates the two combatant variants. Every place that
// needs AC, ability scores or features must switch exhaustively on it.
type CombatantKind string

const (
	KindCharacter CombatantKind = "character"
	KindMonster   CombatantKind = "monster"
)

// Ability identifies one of the six ability scores.
type Ability string

const (
	Strength     Ability = "str"
	Dexterity    Ability = "dex"
	Constitution Ability = "con"
	Intelligence Ability = "int"
	Wisdom       Ability = "wis"
	Charisma     Ability = "cha"
)

// AbilityScores holds the raw 1-30 scores.
type AbilityScores struct {
	Strength     int `json:"str"`
	Dexterity    int `json:"dex"`
	Constitution int `json:"con"`
	Intelligence int `json:"int"`
	Wisdom       int `json:"wis"`
	Charisma     int `json:"cha"`
}

// Score returns the raw score for the given ability.
func (a AbilityScores) Score(ab Ability) int {
	switch ab {
	case Strength:
		return a.Strength
	case Dexterity:
		return a.Dexterity
	case Constitution:
		return a.Constitution
	case Intelligence:
		return a.Intelligence
	case Wisdom:
		return a.Wisdom
	case Charisma:
		return a.Charisma
	}
	return 10
}

// ConditionKind is the identity of an active condition. No two active
// conditions on the same combatant may share a kind.
type ConditionKind string

const (
	ConditionBlinded     ConditionKind = "blinded"
	ConditionDodging     ConditionKind = "dodging"
	ConditionInvisible   ConditionKind = "invisible"
	ConditionParalyzed   ConditionKind = "paralyzed"
	ConditionPoisoned    ConditionKind = "poisoned"
	ConditionProne       ConditionKind = "prone"
	ConditionRestrained  ConditionKind = "restrained"
	ConditionSapped      ConditionKind = "sapped"
	ConditionSlowed      ConditionKind = "slowed"
	ConditionStunned     ConditionKind = "stunned"
	ConditionUnconscious ConditionKind = "unconscious"
)

// IndefiniteDuration marks a condition that never expires on its own.
const IndefiniteDuration = -1

// ActiveCondition is a condition currently affecting a combatant. Duration
// counts down by one at the start of the affected combatant's turn and the
// condition is removed when it reaches zero; IndefiniteDuration never expires.
type ActiveCondition struct {
	Kind     ConditionKind `json:"kind"`
	Duration int           `json:"duration"`
}

// DeathSaves tracks cumulative death-save results for an unconscious
// character. Three failures kill the character regardless of hit points.
type DeathSaves struct {
	Successes int `json:"successes"`
	Failures  int `json:"failures"`
}

// VexedBy is a timed back-reference left by a vex weapon hit: the named
// attacker gains advantage against this combatant until the round expires.
type VexedBy struct {
	AttackerID     uint `json:"attacker_id"`
	ExpiresOnRound int  `json:"expires_on_round"`
}

// Position is an integer cell coordinate on the encounter grid.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// TurnFlags are per-turn transient flags. They are cleared unconditionally
// at the end of the owning combatant's turn.
type TurnFlags struct {
	ActionUsed      bool `json:"action_used"`
	BonusActionUsed bool `json:"bonus_action_used"`
	ReactionUsed    bool `json:"reaction_used"`
	MovementUsed    int  `json:"movement_used"`
	DashFeet        int  `json:"dash_feet"`
	NickAttackUsed  bool `json:"nick_attack_used"`
	SecondWindUsed  bool `json:"second_wind_used"`
}

// Resources are the per-encounter expendable pools a combatant draws on.
type Resources struct {
	SuperiorityDice   int             `json:"superiority_dice"`
	LuckPoints        int             `json:"luck_points"`
	HitDiceRemaining  int             `json:"hit_dice_remaining"`
	SpellSlots        map[int]int     `json:"spell_slots,omitempty"`
	FreeSpellUsed     map[string]bool `json:"free_spell_used,omitempty"`
	CheatDeathUsed    bool            `json:"cheat_death_used"`
	HeroicInspiration bool            `json:"heroic_inspiration"`
	PreparedRiposte   int             `json:"prepared_riposte"`
	DeathSaves        DeathSaves      `json:"death_saves"`
}

// CharacterSheet is the character-variant statblock reference. It is
// immutable during combat; expendable state lives on Resources instead.
type CharacterSheet struct {
	Level               int           `json:"level"`
	ClassID             string        `json:"class_id"`
	SubclassID          string        `json:"subclass_id"`
	RaceID              string        `json:"race_id"`
	Abilities           AbilityScores `json:"abilities"`
	ArmorClass          int           `json:"armor_class"`
	HitDie              int           `json:"hit_die"`
	EquippedWeaponID    string        `json:"equipped_weapon_id"`
	WeaponIDs           []string      `json:"weapon_ids"`
	MasteredWeaponIDs   []string      `json:"mastered_weapon_ids"`
	KnownManeuverIDs    []string      `json:"known_maneuver_ids"`
	KnownSpellIDs       []string      `json:"known_spell_ids"`
	OriginFeatIDs       []string      `json:"origin_feat_ids"`
	SpellcastingAbility Ability       `json:"spellcasting_ability"`
}

// MonsterSheet is the monster-variant statblock reference.
type MonsterSheet struct {
	MonsterID        string        `json:"monster_id"`
	Abilities        AbilityScores `json:"abilities"`
	ArmorClass       int           `json:"armor_class"`
	ProficiencyBonus int           `json:"proficiency_bonus"`
}

// Combatant is one participant in an encounter. It is owned exclusively by
// the encounter session: engine resolvers receive it read-only and describe
// changes as deltas which the session applies.
//
// Exactly one of Character/Monster is non-nil, matching Kind.
type Combatant struct {
	gorm.Model
	EncounterID uint          `json:"-"`
	Kind        CombatantKind `json:"kind"`
	Name        string        `json:"name"`
	Position    Position      `json:"position" gorm:"serializer:json"`
	MaxHP       int           `json:"max_hp"`
	CurrentHP   int           `json:"current_hp"`
	Initiative  int           `json:"initiative"`
	Stabilized  bool          `json:"stabilized"`

	Conditions []ActiveCondition `json:"conditions" gorm:"serializer:json"`
	Turn       TurnFlags         `json:"turn" gorm:"serializer:json"`
	Resources  Resources         `json:"resources" gorm:"serializer:json"`
	VexedBy    *VexedBy          `json:"vexed_by,omitempty" gorm:"serializer:json"`

	Character *CharacterSheet `json:"character,omitempty" gorm:"serializer:json"`
	Monster   *MonsterSheet   `json:"monster,omitempty" gorm:"serializer:json"`
}

// HasCondition reports whether a condition of the given kind is active.
func (c *Combatant) HasCondition(kind ConditionKind) bool {
	for _, ac := range c.Conditions {
		if ac.Kind == kind {
			return true
		}
	}
	return false
}

// AddCondition adds or replaces the condition of the given kind. Kinds never
// stack: re-adding replaces the existing entry's duration.
func (c *Combatant) AddCondition(kind ConditionKind, duration int) {
	for i := range c.Conditions {
		if c.Conditions[i].Kind == kind {
			c.Conditions[i].Duration = duration
			return
		}
	}
	c.Conditions = append(c.Conditions, ActiveCondition{Kind: kind, Duration: duration})
}

// RemoveCondition removes the condition of the given kind if present.
func (c *Combatant) RemoveCondition(kind ConditionKind) {
	out := c.Conditions[:0]
	for _, ac := range c.Conditions {
		if ac.Kind != kind {
			out = append(out, ac)
		}
	}
	c.Conditions = out
}

// Abilities returns the ability scores for either variant.
func (c *Combatant) Abilities() AbilityScores {
	switch c.Kind {
	case KindCharacter:
		return c.Character.Abilities
	case KindMonster:
		return c.Monster.Abilities
	}
	return AbilityScores{}
}

// ArmorClass returns the armor class for either variant.
func (c *Combatant) ArmorClass() int {
	switch c.Kind {
	case KindCharacter:
		return c.Character.ArmorClass
	case KindMonster:
		return c.Monster.ArmorClass
	}
	return 10
}

// IsDead reports the terminal life state: a monster is dead at zero hit
// points, a character only after three death-save failures.
func (c *Combatant) IsDead() bool {
	switch c.Kind {
	case KindCharacter:
		return c.Resources.DeathSaves.Failures >= 3
	case KindMonster:
		return c.CurrentHP <= 0
	}
	return false
}

// IsHostileTo reports team opposition. Characters and monsters form the two
// sides of every encounter.
func (c *Combatant) IsHostileTo(other *Combatant) bool {
	return c.Kind != other.Kind
}

// IsIncapacitated reports whether the combatant cannot take actions or
// reactions.
func (c *Combatant) IsIncapacitated() bool {
	return c.IsDead() || c.HasCondition(ConditionUnconscious) ||
		c.HasCondition(ConditionParalyzed) || c.HasCondition(ConditionStunned)
}
