package service

import (
	"fmt"

	"github.com/20q2/5e-combat-simulator-sub003/internal/catalog"
	"github.com/20q2/5e-combat-simulator-sub003/internal/game"
)

// CharacterInput is the build sheet for adding a character to an encounter.
type CharacterInput struct {
	Name                string             `json:"name"`
	Level               int                `json:"level"`
	ClassID             string             `json:"class_id"`
	SubclassID          string             `json:"subclass_id"`
	RaceID              string             `json:"race_id"`
	Abilities           game.AbilityScores `json:"abilities"`
	ArmorClass          int                `json:"armor_class"`
	MaxHP               int                `json:"max_hp"`
	HitDie              int                `json:"hit_die"`
	EquippedWeaponID    string             `json:"equipped_weapon_id"`
	WeaponIDs           []string           `json:"weapon_ids"`
	MasteredWeaponIDs   []string           `json:"mastered_weapon_ids"`
	KnownManeuverIDs    []string           `json:"known_maneuver_ids"`
	KnownSpellIDs       []string           `json:"known_spell_ids"`
	OriginFeatIDs       []string           `json:"origin_feat_ids"`
	SpellcastingAbility game.Ability       `json:"spellcasting_ability"`
	SpellSlots          map[int]int        `json:"spell_slots"`
	FreeSpellIDs        []string           `json:"free_spell_ids"`
	Position            game.Position      `json:"position"`
}

// BuildCharacter validates every referenced id against the catalog and
// returns a setup-phase combatant. Resource pools that depend on level
// tables are filled in at encounter start, not here.
func BuildCharacter(cat *catalog.Catalog, in CharacterInput) (game.Combatant, error) {
	if in.Name == "" {
		return game.Combatant{}, fmt.Errorf("character missing name")
	}
	if in.Level < 1 || in.Level > 20 {
		return game.Combatant{}, fmt.Errorf("character %s: level %d out of range", in.Name, in.Level)
	}
	if in.MaxHP < 1 {
		return game.Combatant{}, fmt.Errorf("character %s: max hp must be positive", in.Name)
	}
	if _, err := cat.Class(in.ClassID); err != nil {
		return game.Combatant{}, fmt.Errorf("character %s: %w", in.Name, err)
	}
	if _, err := cat.Race(in.RaceID); err != nil {
		return game.Combatant{}, fmt.Errorf("character %s: %w", in.Name, err)
	}
	for _, id := range append(append([]string{}, in.WeaponIDs...), in.MasteredWeaponIDs...) {
		if _, err := cat.Weapon(id); err != nil {
			return game.Combatant{}, fmt.Errorf("character %s: %w", in.Name, err)
		}
	}
	for _, id := range in.KnownManeuverIDs {
		if _, err := cat.Maneuver(id); err != nil {
			return game.Combatant{}, fmt.Errorf("character %s: %w", in.Name, err)
		}
	}
	for _, id := range append(append([]string{}, in.KnownSpellIDs...), in.FreeSpellIDs...) {
		if _, err := cat.Spell(id); err != nil {
			return game.Combatant{}, fmt.Errorf("character %s: %w", in.Name, err)
		}
	}
	for _, id := range in.OriginFeatIDs {
		if _, err := cat.Feat(id); err != nil {
			return game.Combatant{}, fmt.Errorf("character %s: %w", in.Name, err)
		}
	}
	if in.EquippedWeaponID != "" {
		if _, err := cat.Weapon(in.EquippedWeaponID); err != nil {
			return game.Combatant{}, fmt.Errorf("character %s: %w", in.Name, err)
		}
	}
	hitDie := in.HitDie
	if hitDie == 0 {
		hitDie = 10
	}

	freeSpells := make(map[string]bool, len(in.FreeSpellIDs))
	for _, id := range in.FreeSpellIDs {
		freeSpells[id] = false
	}
	slots := make(map[int]int, len(in.SpellSlots))
	for lvl, n := range in.SpellSlots {
		if lvl < 1 || lvl > 9 || n < 0 {
			return game.Combatant{}, fmt.Errorf("character %s: invalid spell slot level %d", in.Name, lvl)
		}
		slots[lvl] = n
	}

	return game.Combatant{
		Kind:      game.KindCharacter,
		Name:      in.Name,
		Position:  in.Position,
		MaxHP:     in.MaxHP,
		CurrentHP: in.MaxHP,
		Character: &game.CharacterSheet{
			Level:               in.Level,
			ClassID:             in.ClassID,
			SubclassID:          in.SubclassID,
			RaceID:              in.RaceID,
			Abilities:           in.Abilities,
			ArmorClass:          in.ArmorClass,
			HitDie:              hitDie,
			EquippedWeaponID:    in.EquippedWeaponID,
			WeaponIDs:           in.WeaponIDs,
			MasteredWeaponIDs:   in.MasteredWeaponIDs,
			KnownManeuverIDs:    in.KnownManeuverIDs,
			KnownSpellIDs:       in.KnownSpellIDs,
			OriginFeatIDs:       in.OriginFeatIDs,
			SpellcastingAbility: in.SpellcastingAbility,
		},
		Resources: game.Resources{
			HitDiceRemaining: in.Level,
			SpellSlots:       slots,
			FreeSpellUsed:    freeSpells,
		},
	}, nil
}

// BuildMonster instantiates a statblock from the catalog. An empty name
// keeps the statblock name.
func BuildMonster(cat *catalog.Catalog, monsterID, name string, pos game.Position) (game.Combatant, error) {
	def, err := cat.Monster(monsterID)
	if err != nil {
		return game.Combatant{}, err
	}
	if name == "" {
		name = def.Name
	}
	return game.Combatant{
		Kind:      game.KindMonster,
		Name:      name,
		Position:  pos,
		MaxHP:     def.MaxHP,
		CurrentHP: def.MaxHP,
		Monster: &game.MonsterSheet{
			MonsterID:        def.ID,
			Abilities:        def.Abilities,
			ArmorClass:       def.ArmorClass,
			ProficiencyBonus: def.ProficiencyBonus,
		},
	}, nil
}
