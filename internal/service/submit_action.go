package service

import (
	"fmt"

	"github.com/20q2/5e-combat-simulator-sub003/internal/catalog"
	"github.com/20q2/5e-combat-simulator-sub003/internal/dice"
	"github.com/20q2/5e-combat-simulator-sub003/internal/engine"
	"github.com/20q2/5e-combat-simulator-sub003/internal/game"
	"github.com/20q2/5e-combat-simulator-sub003/internal/logging"
)

// ActionType enumerates the actions the owner may submit for the active
// combatant.
type ActionType string

const (
	ActionAttack         ActionType = "attack"
	ActionUnarmedStrike  ActionType = "unarmed_strike"
	ActionCastSpell      ActionType = "cast_spell"
	ActionMove           ActionType = "move"
	ActionStandUp        ActionType = "stand_up"
	ActionDash           ActionType = "dash"
	ActionDodge          ActionType = "dodge"
	ActionSecondWind     ActionType = "second_wind"
	ActionHeal           ActionType = "heal"
	ActionStabilize      ActionType = "stabilize"
	ActionSwapInitiative ActionType = "swap_initiative"
	ActionEndTurn        ActionType = "end_turn"
)

// ActionRequest is one submitted action for the active combatant. The owner
// drives both sides of the table, so target-side reaction choices ride on
// the request instead of a second submission.
type ActionRequest struct {
	Type ActionType `json:"type"`

	TargetID   uint   `json:"target_id,omitempty"`
	WeaponID   string `json:"weapon_id,omitempty"`
	AttackName string `json:"attack_name,omitempty"`
	SpellID    string `json:"spell_id,omitempty"`

	// Attack riders.
	ManeuverID     string `json:"maneuver_id,omitempty"`
	Precision      bool   `json:"precision,omitempty"`
	NickWeaponID   string `json:"nick_weapon_id,omitempty"`
	CleaveTargetID uint   `json:"cleave_target_id,omitempty"`
	WithPush       bool   `json:"with_push,omitempty"`
	WithLuck       bool   `json:"with_luck,omitempty"`

	// Target-side reactions.
	TargetParry           bool   `json:"target_parry,omitempty"`
	TargetRiposte         bool   `json:"target_riposte,omitempty"`
	TargetLuck            bool   `json:"target_luck,omitempty"`
	TargetReactionSpellID string `json:"target_reaction_spell_id,omitempty"`

	// Spell targeting.
	TargetPoint       *game.Position `json:"target_point,omitempty"`
	ProjectileTargets []uint         `json:"projectile_targets,omitempty"`

	// Movement destination.
	Destination *game.Position `json:"destination,omitempty"`

	// Initiative swap partner.
	PartnerID uint `json:"partner_id,omitempty"`
}

// ActionOutcome is the result of a submitted action. Declined actions carry
// the player-facing reason and leave the encounter untouched.
type ActionOutcome struct {
	Encounter *game.Encounter `json:"encounter"`
	Declined  bool            `json:"declined"`
	Reason    string          `json:"reason,omitempty"`
}

func declined(e *game.Encounter, reason string) (*ActionOutcome, error) {
	return &ActionOutcome{Encounter: e, Declined: true, Reason: reason}, nil
}

// SubmitAction resolves one action for the active combatant and persists the
// updated encounter. Game-flow refusals come back as declined outcomes;
// errors are reserved for unknown encounters, bad ids and storage failures.
func (s *Service) SubmitAction(encounterID uint, ownerEmail string, req ActionRequest) (*ActionOutcome, error) {
	e, err := s.loadOwned(encounterID, ownerEmail)
	if err != nil {
		return nil, err
	}
	if e.Status != game.StatusInProgress {
		return nil, ErrEncounterNotInProgress
	}
	actor := e.ActiveCombatant()
	if actor == nil {
		return nil, ErrEncounterNotInProgress
	}

	var out *ActionOutcome
	switch req.Type {
	case ActionAttack:
		out, err = s.handleAttack(e, actor, req)
	case ActionUnarmedStrike:
		out, err = s.handleUnarmedStrike(e, actor, req)
	case ActionCastSpell:
		out, err = s.handleCastSpell(e, actor, req)
	case ActionMove:
		out, err = s.handleMove(e, actor, req)
	case ActionStandUp:
		out, err = s.handleStandUp(e, actor)
	case ActionDash:
		out, err = s.handleDash(e, actor)
	case ActionDodge:
		out, err = s.handleDodge(e, actor)
	case ActionSecondWind:
		out, err = s.handleSecondWind(e, actor)
	case ActionHeal:
		out, err = s.handleHeal(e, actor, req)
	case ActionStabilize:
		out, err = s.handleStabilize(e, actor, req)
	case ActionSwapInitiative:
		out, err = s.handleSwapInitiative(e, actor, req)
	case ActionEndTurn:
		s.advanceTurn(e)
		out = &ActionOutcome{Encounter: e}
	default:
		return nil, ErrUnknownAction
	}
	if err != nil {
		return nil, err
	}
	if out.Declined {
		return out, nil
	}

	if err := s.repo.UpdateEncounter(e); err != nil {
		return nil, err
	}
	logging.Info("action resolved", logging.Fields{
		"encounter_id": e.ID,
		"actor_id":     actor.ID,
		"action":       string(req.Type),
	})
	return out, nil
}

// targetForAttack validates the target id for a damaging action.
func (s *Service) targetForAttack(e *game.Encounter, actor *game.Combatant, targetID uint) (*game.Combatant, string) {
	target := e.CombatantByID(targetID)
	if target == nil {
		return nil, "no such target"
	}
	if target.IsDead() {
		return nil, fmt.Sprintf("%s is already dead", target.Name)
	}
	if !target.IsHostileTo(actor) {
		return nil, fmt.Sprintf("%s is an ally", target.Name)
	}
	return target, ""
}

func (s *Service) handleAttack(e *game.Encounter, actor *game.Combatant, req ActionRequest) (*ActionOutcome, error) {
	if actor.Turn.ActionUsed {
		return declined(e, "action already used this turn")
	}
	if actor.IsIncapacitated() {
		return declined(e, fmt.Sprintf("%s cannot act", actor.Name))
	}
	target, reason := s.targetForAttack(e, actor, req.TargetID)
	if target == nil {
		return declined(e, reason)
	}

	if actor.Kind == game.KindMonster {
		return s.handleMonsterAttack(e, actor, target, req)
	}

	weaponID := req.WeaponID
	if weaponID == "" {
		weaponID = actor.Character.EquippedWeaponID
	}
	weapon, err := s.eng.Catalog().Weapon(weaponID)
	if err != nil {
		return nil, err
	}
	dist := game.DistanceFeet(actor.Position, target.Position)
	maxRange := weapon.Reach()
	if weapon.IsRanged() {
		maxRange = weapon.RangeFeet
		if maxRange == 0 {
			maxRange = 120
		}
	}
	if dist > maxRange {
		return declined(e, fmt.Sprintf("%s is out of range (%d ft away)", target.Name, dist))
	}

	opts := engine.AttackOptions{Round: e.Round, Base: s.luckBase(e, actor, target, req)}

	// Precision attack adjusts the roll before the AC comparison; the die is
	// spent whether or not the attack lands.
	if req.Precision {
		id, reason := s.knownManeuverOfKind(actor, catalog.ManeuverPrecision)
		if id == "" {
			return declined(e, reason)
		}
		if dec, err := s.eng.CanUseManeuver(actor, id); err != nil {
			return nil, err
		} else if !dec.Allowed {
			return declined(e, dec.Reason)
		}
		actor.Resources.SuperiorityDice--
		opts.RollBonus = s.eng.PrecisionAttackBonus(actor)
	}

	// A riposte banked on a previous missed swing spends itself here.
	if actor.Resources.PreparedRiposte > 0 {
		opts.BonusDamage += actor.Resources.PreparedRiposte
		actor.Resources.PreparedRiposte = 0
	}

	res, err := s.eng.ResolveAttack(actor, target, weapon.ID, opts)
	if err != nil {
		return nil, err
	}
	actor.Turn.ActionUsed = true
	e.AppendLog(res.Entries...)
	s.consumeSapped(e, actor)

	if res.Hit {
		s.applyHitEffects(e, actor, target, weapon, res, req)
	} else {
		miss := s.eng.ResolveMasteryOnMiss(actor, target, weapon)
		if miss.Applied {
			e.AppendLog(miss.Entries...)
			s.applyDamage(e, target, miss.GrazeDamage, weapon.Name)
		}
		s.resolveRiposte(e, actor, target, req)
	}
	s.resolveReactionSpell(e, actor, target, req)

	if !s.checkCombatEnd(e) && req.NickWeaponID != "" && actor.Turn.NickAttackUsed {
		if err := s.resolveNickAttack(e, actor, req); err != nil {
			return nil, err
		}
		s.checkCombatEnd(e)
	}
	return &ActionOutcome{Encounter: e}, nil
}

// applyHitEffects runs the on-hit pipeline: parry, savage attacker, damage,
// strike-maneuver rider and the weapon-mastery effect.
func (s *Service) applyHitEffects(e *game.Encounter, actor, target *game.Combatant, weapon catalog.WeaponDef, res engine.AttackResult, req ActionRequest) {
	damage := res.DamageTotal

	if s.eng.HasFeat(actor, catalog.FeatSavageAttacker) && res.Damage != nil {
		if expr, err := dice.ParseExpression(weapon.Damage); err == nil {
			second := s.eng.Roller().RollDamage(expr, res.Critical)
			if second.Total > res.Damage.Total {
				damage += second.Total - res.Damage.Total
				e.AppendLog(game.LogEntry{
					Kind: game.LogDamage, ActorID: actor.ID, ActorName: actor.Name,
					Message: fmt.Sprintf("%s strikes savagely, keeping the better damage roll", actor.Name),
				})
			}
		}
	}

	if req.TargetParry && s.mayParry(target) {
		dec, err := s.eng.CanUseManeuver(target, s.mustKnownManeuverOfKind(target, catalog.ManeuverParry))
		if err == nil && dec.Allowed {
			target.Resources.SuperiorityDice--
			target.Turn.ReactionUsed = true
			parry := s.eng.ResolveParry(target, damage)
			damage += parry.BonusDamage
			e.AppendLog(parry.Entries...)
		}
	}

	s.applyDamage(e, target, damage, weapon.Name)

	if req.ManeuverID != "" && !target.IsDead() {
		s.resolveStrikeManeuver(e, actor, target, req.ManeuverID)
	}
	if !target.IsDead() {
		s.resolveMasteryOnHit(e, actor, target, weapon, req)
	}
}

func (s *Service) resolveStrikeManeuver(e *game.Encounter, actor, target *game.Combatant, maneuverID string) {
	dec, err := s.eng.CanUseManeuver(actor, maneuverID)
	if err != nil || !dec.Allowed {
		if err == nil {
			e.AppendLog(game.LogEntry{
				Kind: game.LogResource, ActorID: actor.ID, ActorName: actor.Name,
				Message: fmt.Sprintf("%s cannot use the maneuver: %s", actor.Name, dec.Reason),
			})
		}
		return
	}
	actor.Resources.SuperiorityDice--
	m, err := s.eng.ApplyManeuverOnHit(actor, target, maneuverID, e.Grid)
	if err != nil {
		return
	}
	e.AppendLog(m.Entries...)
	if m.BonusDamage > 0 {
		s.applyDamage(e, target, m.BonusDamage, "the maneuver")
	}
	for _, cond := range m.ConditionsAdded {
		target.AddCondition(cond.Kind, cond.Duration)
	}
	if m.Push != nil && m.Push.Squares > 0 {
		s.moveCombatant(e, target, m.Push.To)
	}
}

func (s *Service) resolveMasteryOnHit(e *game.Encounter, actor, target *game.Combatant, weapon catalog.WeaponDef, req ActionRequest) {
	eff, err := s.eng.ResolveMasteryOnHit(actor, target, weapon, e.Grid, e.Combatants, e.Round)
	if err != nil || !eff.Applied {
		return
	}
	e.AppendLog(eff.Entries...)
	for _, cond := range eff.ConditionsAdded {
		target.AddCondition(cond.Kind, cond.Duration)
	}
	switch {
	case eff.Push != nil && eff.Push.Squares > 0:
		s.moveCombatant(e, target, eff.Push.To)
	case eff.Vex != nil:
		target.VexedBy = eff.Vex
	case eff.Cleave != nil:
		cleaveID := req.CleaveTargetID
		if cleaveID == 0 {
			cleaveID = eff.Cleave.TargetIDs[0]
		}
		for _, id := range eff.Cleave.TargetIDs {
			if id != cleaveID {
				continue
			}
			if extra := e.CombatantByID(id); extra != nil {
				s.applyDamage(e, extra, eff.Cleave.Damage.Total, weapon.Name)
			}
			break
		}
	case eff.NickGranted:
		actor.Turn.NickAttackUsed = true
	}
}

// resolveNickAttack folds a second light-weapon attack into the same action.
// The extra attack carries no ability modifier on its damage.
func (s *Service) resolveNickAttack(e *game.Encounter, actor *game.Combatant, req ActionRequest) error {
	weapon, err := s.eng.Catalog().Weapon(req.NickWeaponID)
	if err != nil {
		return err
	}
	if !weapon.HasProperty(catalog.PropertyLight) {
		return nil
	}
	target, _ := s.targetForAttack(e, actor, req.TargetID)
	if target == nil {
		return nil
	}
	opts := engine.AttackOptions{
		Round:       e.Round,
		BonusDamage: -engine.AttackAbilityModifier(actor, weapon),
	}
	res, err := s.eng.ResolveAttack(actor, target, weapon.ID, opts)
	if err != nil {
		return err
	}
	e.AppendLog(res.Entries...)
	if res.Hit {
		s.applyDamage(e, target, res.DamageTotal, weapon.Name)
	}
	return nil
}

// resolveRiposte lets the target answer a missed melee attack by banking a
// superiority die; the target's next attack spends it as bonus damage.
func (s *Service) resolveRiposte(e *game.Encounter, actor, target *game.Combatant, req ActionRequest) {
	if !req.TargetRiposte || target.Kind != game.KindCharacter || target.IsIncapacitated() {
		return
	}
	id, _ := s.knownManeuverOfKind(target, catalog.ManeuverRiposte)
	if id == "" {
		return
	}
	dec, err := s.eng.CanUseManeuver(target, id)
	if err != nil || !dec.Allowed {
		return
	}
	weaponID := target.Character.EquippedWeaponID
	if weaponID == "" {
		return
	}
	weapon, err := s.eng.Catalog().Weapon(weaponID)
	if err != nil || weapon.IsRanged() {
		return
	}
	if game.DistanceFeet(actor.Position, target.Position) > weapon.Reach() {
		return
	}
	target.Resources.SuperiorityDice--
	target.Turn.ReactionUsed = true
	target.Resources.PreparedRiposte = s.eng.PrepareRiposte(target)
	e.AppendLog(game.LogEntry{
		Kind: game.LogAttack, ActorID: target.ID, ActorName: target.Name, TargetID: actor.ID,
		Message: fmt.Sprintf("%s readies a riposte against %s", target.Name, actor.Name),
	})
}

// resolveReactionSpell lets a damaged target answer with a reaction spell.
func (s *Service) resolveReactionSpell(e *game.Encounter, actor, target *game.Combatant, req ActionRequest) {
	if req.TargetReactionSpellID == "" || target.IsIncapacitated() {
		return
	}
	spell, err := s.eng.Catalog().Spell(req.TargetReactionSpellID)
	if err != nil || !spell.Reaction {
		return
	}
	dec, err := s.eng.CanCastSpell(target, spell.ID)
	if err != nil || !dec.Allowed {
		return
	}
	s.spendSpellCost(e, target, spell)
	target.Turn.ReactionUsed = true
	save, err := s.eng.ResolveSpellSave(target, actor, spell)
	if err != nil {
		return
	}
	e.AppendLog(save.Entries...)
	s.applyDamage(e, actor, save.AppliedDamage(), spell.Name)
}

func (s *Service) handleMonsterAttack(e *game.Encounter, actor, target *game.Combatant, req ActionRequest) (*ActionOutcome, error) {
	def, err := s.eng.Catalog().Monster(actor.Monster.MonsterID)
	if err != nil {
		return nil, err
	}
	if len(def.Attacks) == 0 {
		return declined(e, fmt.Sprintf("%s has no attacks", actor.Name))
	}
	attack := def.Attacks[0]
	if req.AttackName != "" {
		found := false
		for _, a := range def.Attacks {
			if a.Name == req.AttackName {
				attack = a
				found = true
				break
			}
		}
		if !found {
			return declined(e, fmt.Sprintf("%s has no attack named %s", actor.Name, req.AttackName))
		}
	}
	dist := game.DistanceFeet(actor.Position, target.Position)
	maxRange := 5
	if attack.RangeFeet > 0 {
		maxRange = attack.RangeFeet
	}
	if dist > maxRange {
		return declined(e, fmt.Sprintf("%s is out of range (%d ft away)", target.Name, dist))
	}

	opts := engine.AttackOptions{Round: e.Round, Base: s.luckBase(e, actor, target, req)}
	res, err := s.eng.ResolveMonsterAttack(actor, target, attack, opts)
	if err != nil {
		return nil, err
	}
	actor.Turn.ActionUsed = true
	e.AppendLog(res.Entries...)
	s.consumeSapped(e, actor)
	if res.Hit {
		damage := res.DamageTotal
		if req.TargetParry && s.mayParry(target) {
			dec, err := s.eng.CanUseManeuver(target, s.mustKnownManeuverOfKind(target, catalog.ManeuverParry))
			if err == nil && dec.Allowed {
				target.Resources.SuperiorityDice--
				target.Turn.ReactionUsed = true
				parry := s.eng.ResolveParry(target, damage)
				damage += parry.BonusDamage
				e.AppendLog(parry.Entries...)
			}
		}
		s.applyDamage(e, target, damage, attack.Name)
	} else {
		s.resolveRiposte(e, actor, target, req)
	}
	s.resolveReactionSpell(e, actor, target, req)
	s.checkCombatEnd(e)
	return &ActionOutcome{Encounter: e}, nil
}

func (s *Service) handleUnarmedStrike(e *game.Encounter, actor *game.Combatant, req ActionRequest) (*ActionOutcome, error) {
	if actor.Turn.ActionUsed {
		return declined(e, "action already used this turn")
	}
	if actor.IsIncapacitated() {
		return declined(e, fmt.Sprintf("%s cannot act", actor.Name))
	}
	target, reason := s.targetForAttack(e, actor, req.TargetID)
	if target == nil {
		return declined(e, reason)
	}
	if game.DistanceFeet(actor.Position, target.Position) > 5 {
		return declined(e, fmt.Sprintf("%s is out of reach", target.Name))
	}

	strMod := engine.AbilityModifier(actor.Abilities().Strength)
	bonus := strMod + engine.ProficiencyBonus(actor)
	mode := engine.GetAttackAdvantage(engine.AdvantageInput{
		Attacker: actor, Target: target, Base: s.luckBase(e, actor, target, req), Round: e.Round,
	})
	roll := s.eng.Roller().RollD20(bonus, mode)
	actor.Turn.ActionUsed = true
	s.consumeSapped(e, actor)

	hit := roll.Natural != 1 && (roll.Natural >= s.eng.CritThreshold(actor) || roll.Total >= target.ArmorClass())
	outcome := "misses"
	if hit {
		outcome = "hits"
	}
	e.AppendLog(game.LogEntry{
		Kind: game.LogAttack, ActorID: actor.ID, ActorName: actor.Name, TargetID: target.ID,
		Message: fmt.Sprintf("%s punches at %s and %s (%d vs AC %d)", actor.Name, target.Name, outcome, roll.Total, target.ArmorClass()),
	})
	if hit {
		damage := 1 + strMod
		if brawl, dec := s.eng.ResolveTavernBrawler(actor, target, e.Grid, req.WithPush); dec.Allowed {
			damage += brawl.BonusDamage
			e.AppendLog(brawl.Entries...)
			if brawl.Push != nil && brawl.Push.Squares > 0 {
				s.moveCombatant(e, target, brawl.Push.To)
			}
		}
		if damage < 1 {
			damage = 1
		}
		s.applyDamage(e, target, damage, "the unarmed strike")
	}
	s.checkCombatEnd(e)
	return &ActionOutcome{Encounter: e}, nil
}

func (s *Service) handleCastSpell(e *game.Encounter, actor *game.Combatant, req ActionRequest) (*ActionOutcome, error) {
	if actor.Turn.ActionUsed {
		return declined(e, "action already used this turn")
	}
	if actor.IsIncapacitated() {
		return declined(e, fmt.Sprintf("%s cannot act", actor.Name))
	}
	spell, err := s.eng.Catalog().Spell(req.SpellID)
	if err != nil {
		return nil, err
	}
	if spell.Reaction {
		return declined(e, fmt.Sprintf("%s can only be cast as a reaction", spell.Name))
	}
	dec, err := s.eng.CanCastSpell(actor, spell.ID)
	if err != nil {
		return nil, err
	}
	if !dec.Allowed {
		return declined(e, dec.Reason)
	}

	rangeFeet := spell.RangeFeet
	if rangeFeet == 0 {
		rangeFeet = 60
	}

	switch spell.Kind {
	case catalog.SpellAttack:
		target, reason := s.targetForAttack(e, actor, req.TargetID)
		if target == nil {
			return declined(e, reason)
		}
		if game.DistanceFeet(actor.Position, target.Position) > rangeFeet {
			return declined(e, fmt.Sprintf("%s is out of range", target.Name))
		}
		s.spendSpellCost(e, actor, spell)
		actor.Turn.ActionUsed = true
		res, err := s.eng.ResolveSpellAttack(actor, target, spell, engine.AttackOptions{Round: e.Round})
		if err != nil {
			return nil, err
		}
		e.AppendLog(res.Entries...)
		s.consumeSapped(e, actor)
		if res.Hit {
			s.applyDamage(e, target, res.DamageTotal, spell.Name)
		}

	case catalog.SpellSave:
		target, reason := s.targetForAttack(e, actor, req.TargetID)
		if target == nil {
			return declined(e, reason)
		}
		if game.DistanceFeet(actor.Position, target.Position) > rangeFeet {
			return declined(e, fmt.Sprintf("%s is out of range", target.Name))
		}
		s.spendSpellCost(e, actor, spell)
		actor.Turn.ActionUsed = true
		save, err := s.eng.ResolveSpellSave(actor, target, spell)
		if err != nil {
			return nil, err
		}
		e.AppendLog(save.Entries...)
		s.applyDamage(e, target, save.AppliedDamage(), spell.Name)

	case catalog.SpellAoE:
		if req.TargetPoint == nil {
			return declined(e, "an area spell needs a target point")
		}
		if game.DistanceFeet(actor.Position, *req.TargetPoint) > rangeFeet {
			return declined(e, "the target point is out of range")
		}
		s.spendSpellCost(e, actor, spell)
		actor.Turn.ActionUsed = true
		aoe, err := s.eng.ResolveAoESpell(actor, spell, *req.TargetPoint, e.Grid, e.Combatants)
		if err != nil {
			return nil, err
		}
		e.AppendLog(aoe.Entries...)
		for _, hit := range aoe.Targets {
			if target := e.CombatantByID(hit.TargetID); target != nil {
				s.applyDamage(e, target, hit.Damage, spell.Name)
			}
		}

	case catalog.SpellProjectile:
		if len(req.ProjectileTargets) == 0 {
			return declined(e, "a projectile spell needs at least one target")
		}
		for _, id := range req.ProjectileTargets {
			target, reason := s.targetForAttack(e, actor, id)
			if target == nil {
				return declined(e, reason)
			}
			if game.DistanceFeet(actor.Position, target.Position) > rangeFeet {
				return declined(e, fmt.Sprintf("%s is out of range", target.Name))
			}
		}
		s.spendSpellCost(e, actor, spell)
		actor.Turn.ActionUsed = true
		proj, err := s.eng.ResolveProjectileSpell(actor, spell, req.ProjectileTargets)
		if err != nil {
			return nil, err
		}
		e.AppendLog(proj.Entries...)
		for _, hit := range proj.Hits {
			if target := e.CombatantByID(hit.TargetID); target != nil {
				s.applyDamage(e, target, hit.Damage.Total, spell.Name)
			}
		}

	default:
		return nil, fmt.Errorf("spell %s has unknown kind %q", spell.ID, spell.Kind)
	}

	s.checkCombatEnd(e)
	return &ActionOutcome{Encounter: e}, nil
}

// spendSpellCost consumes the free use or the lowest qualifying slot.
// Cantrips cost nothing. CanCastSpell has already vouched that one of the
// paths is open.
func (s *Service) spendSpellCost(e *game.Encounter, caster *game.Combatant, spell catalog.SpellDef) {
	if spell.Level == 0 {
		return
	}
	if used, granted := caster.Resources.FreeSpellUsed[spell.ID]; granted && !used {
		caster.Resources.FreeSpellUsed[spell.ID] = true
		e.AppendLog(game.LogEntry{
			Kind: game.LogResource, ActorID: caster.ID, ActorName: caster.Name,
			Message: fmt.Sprintf("%s expends the free casting of %s", caster.Name, spell.Name),
		})
		return
	}
	if slot := engine.CastableSlotLevel(caster, spell.Level); slot > 0 {
		caster.Resources.SpellSlots[slot]--
	}
}

func (s *Service) handleMove(e *game.Encounter, actor *game.Combatant, req ActionRequest) (*ActionOutcome, error) {
	if req.Destination == nil {
		return declined(e, "a move needs a destination")
	}
	if actor.IsIncapacitated() {
		return declined(e, fmt.Sprintf("%s cannot move", actor.Name))
	}
	if actor.HasCondition(game.ConditionProne) {
		return declined(e, fmt.Sprintf("%s must stand up before moving", actor.Name))
	}
	dest := *req.Destination
	if !e.Grid.InBounds(dest) || e.Grid.IsBlocked(dest) {
		return declined(e, "the destination is blocked")
	}
	if e.Grid.IsOccupied(dest) {
		return declined(e, "the destination is occupied")
	}
	cost := game.DistanceFeet(actor.Position, dest)
	budget := s.speed(actor) + actor.Turn.DashFeet - actor.Turn.MovementUsed
	if cost > budget {
		return declined(e, fmt.Sprintf("not enough movement (%d ft needed, %d ft left)", cost, budget))
	}
	actor.Turn.MovementUsed += cost
	from := actor.Position
	s.moveCombatant(e, actor, dest)
	e.AppendLog(game.LogEntry{
		Kind: game.LogMovement, ActorID: actor.ID, ActorName: actor.Name,
		Message: fmt.Sprintf("%s moves from (%d,%d) to (%d,%d)", actor.Name, from.X, from.Y, dest.X, dest.Y),
	})
	return &ActionOutcome{Encounter: e}, nil
}

func (s *Service) handleStandUp(e *game.Encounter, actor *game.Combatant) (*ActionOutcome, error) {
	if !actor.HasCondition(game.ConditionProne) {
		return declined(e, fmt.Sprintf("%s is not prone", actor.Name))
	}
	if actor.IsIncapacitated() {
		return declined(e, fmt.Sprintf("%s cannot stand", actor.Name))
	}
	cost := s.speed(actor) / 2
	budget := s.speed(actor) + actor.Turn.DashFeet - actor.Turn.MovementUsed
	if cost > budget {
		return declined(e, "not enough movement left to stand up")
	}
	actor.Turn.MovementUsed += cost
	actor.RemoveCondition(game.ConditionProne)
	e.AppendLog(game.LogEntry{
		Kind: game.LogMovement, ActorID: actor.ID, ActorName: actor.Name,
		Message: fmt.Sprintf("%s stands up", actor.Name),
	})
	return &ActionOutcome{Encounter: e}, nil
}

func (s *Service) handleDash(e *game.Encounter, actor *game.Combatant) (*ActionOutcome, error) {
	if actor.Turn.ActionUsed {
		return declined(e, "action already used this turn")
	}
	if actor.IsIncapacitated() {
		return declined(e, fmt.Sprintf("%s cannot act", actor.Name))
	}
	actor.Turn.ActionUsed = true
	actor.Turn.DashFeet += s.speed(actor)
	e.AppendLog(game.LogEntry{
		Kind: game.LogMovement, ActorID: actor.ID, ActorName: actor.Name,
		Message: fmt.Sprintf("%s dashes, gaining %d ft of movement", actor.Name, s.speed(actor)),
	})
	return &ActionOutcome{Encounter: e}, nil
}

func (s *Service) handleDodge(e *game.Encounter, actor *game.Combatant) (*ActionOutcome, error) {
	if actor.Turn.ActionUsed {
		return declined(e, "action already used this turn")
	}
	if actor.IsIncapacitated() {
		return declined(e, fmt.Sprintf("%s cannot act", actor.Name))
	}
	actor.Turn.ActionUsed = true
	actor.AddCondition(game.ConditionDodging, 1)
	e.AppendLog(game.LogEntry{
		Kind: game.LogCondition, ActorID: actor.ID, ActorName: actor.Name,
		Message: fmt.Sprintf("%s takes the dodge action", actor.Name),
	})
	return &ActionOutcome{Encounter: e}, nil
}

func (s *Service) handleSecondWind(e *game.Encounter, actor *game.Combatant) (*ActionOutcome, error) {
	if actor.Kind != game.KindCharacter {
		return declined(e, "only characters have second wind")
	}
	if actor.Turn.BonusActionUsed {
		return declined(e, "bonus action already used this turn")
	}
	if actor.Turn.SecondWindUsed {
		return declined(e, "second wind already used")
	}
	if actor.IsIncapacitated() {
		return declined(e, fmt.Sprintf("%s cannot act", actor.Name))
	}
	actor.Turn.BonusActionUsed = true
	actor.Turn.SecondWindUsed = true
	heal := s.eng.Roller().RollDie(10) + actor.Character.Level
	e.AppendLog(game.LogEntry{
		Kind: game.LogHeal, ActorID: actor.ID, ActorName: actor.Name,
		Message: fmt.Sprintf("%s catches a second wind and recovers %d hit points", actor.Name, heal),
	})
	s.applyHealing(e, actor, heal)
	return &ActionOutcome{Encounter: e}, nil
}

func (s *Service) handleHeal(e *game.Encounter, actor *game.Combatant, req ActionRequest) (*ActionOutcome, error) {
	if actor.Turn.ActionUsed {
		return declined(e, "action already used this turn")
	}
	if actor.IsIncapacitated() {
		return declined(e, fmt.Sprintf("%s cannot act", actor.Name))
	}
	ally := e.CombatantByID(req.TargetID)
	if ally == nil {
		return declined(e, "no such ally")
	}
	if ally.IsHostileTo(actor) || ally.IsDead() {
		return declined(e, fmt.Sprintf("%s cannot be treated", ally.Name))
	}
	out, dec := s.eng.ResolveHealerHeal(actor, ally)
	if !dec.Allowed {
		return declined(e, dec.Reason)
	}
	actor.Turn.ActionUsed = true
	ally.Resources.HitDiceRemaining--
	e.AppendLog(out.Entries...)
	s.applyHealing(e, ally, out.Amount)
	return &ActionOutcome{Encounter: e}, nil
}

func (s *Service) handleStabilize(e *game.Encounter, actor *game.Combatant, req ActionRequest) (*ActionOutcome, error) {
	if actor.Turn.ActionUsed {
		return declined(e, "action already used this turn")
	}
	if actor.IsIncapacitated() {
		return declined(e, fmt.Sprintf("%s cannot act", actor.Name))
	}
	ally := e.CombatantByID(req.TargetID)
	if ally == nil {
		return declined(e, "no such ally")
	}
	if ally.IsHostileTo(actor) || ally.Kind != game.KindCharacter {
		return declined(e, "only a downed ally can be stabilized")
	}
	if ally.CurrentHP > 0 || ally.IsDead() || ally.Stabilized {
		return declined(e, fmt.Sprintf("%s does not need stabilizing", ally.Name))
	}
	if game.DistanceFeet(actor.Position, ally.Position) > 5 {
		return declined(e, fmt.Sprintf("%s is out of reach", ally.Name))
	}
	actor.Turn.ActionUsed = true
	wisMod := engine.AbilityModifier(actor.Abilities().Wisdom)
	roll := s.eng.Roller().RollD20(wisMod, dice.Normal)
	if roll.Total >= 10 {
		ally.Stabilized = true
		e.AppendLog(game.LogEntry{
			Kind: game.LogHeal, ActorID: actor.ID, ActorName: actor.Name, TargetID: ally.ID,
			Message: fmt.Sprintf("%s stabilizes %s (%d vs DC 10)", actor.Name, ally.Name, roll.Total),
		})
	} else {
		e.AppendLog(game.LogEntry{
			Kind: game.LogHeal, ActorID: actor.ID, ActorName: actor.Name, TargetID: ally.ID,
			Message: fmt.Sprintf("%s fails to stabilize %s (%d vs DC 10)", actor.Name, ally.Name, roll.Total),
		})
	}
	return &ActionOutcome{Encounter: e}, nil
}

func (s *Service) handleSwapInitiative(e *game.Encounter, actor *game.Combatant, req ActionRequest) (*ActionOutcome, error) {
	partner := e.CombatantByID(req.PartnerID)
	if partner == nil {
		return declined(e, "no such ally")
	}
	dec := s.eng.CanSwapInitiative(actor, partner)
	if !dec.Allowed {
		return declined(e, dec.Reason)
	}
	// Only meaningful before anyone has acted: the first combatant of the
	// first round may trade down the order.
	if e.Round != 1 || e.TurnIndex != 0 {
		return declined(e, "initiative can only be swapped before the first action")
	}
	actor.Initiative, partner.Initiative = partner.Initiative, actor.Initiative
	sortByInitiative(e.Combatants)
	e.TurnIndex = 0
	e.AppendLog(game.LogEntry{
		Kind: game.LogTurn, ActorID: actor.ID, ActorName: actor.Name, TargetID: partner.ID,
		Message: fmt.Sprintf("%s swaps initiative with %s", actor.Name, partner.Name),
	})
	return &ActionOutcome{Encounter: e}, nil
}

// consumeSapped clears the sapped tag once it has weighed on an attack roll.
func (s *Service) consumeSapped(e *game.Encounter, c *game.Combatant) {
	if !c.HasCondition(game.ConditionSapped) {
		return
	}
	c.RemoveCondition(game.ConditionSapped)
	e.AppendLog(game.LogEntry{
		Kind: game.LogCondition, ActorID: c.ID, ActorName: c.Name,
		Message: fmt.Sprintf("%s is no longer sapped", c.Name),
	})
}

// spendLuck consumes one luck point when the character has the feat and a
// point remaining.
func (s *Service) spendLuck(e *game.Encounter, c *game.Combatant) bool {
	if c.Kind != game.KindCharacter || !s.eng.HasFeat(c, catalog.FeatLucky) || c.Resources.LuckPoints < 1 {
		return false
	}
	c.Resources.LuckPoints--
	e.AppendLog(game.LogEntry{
		Kind: game.LogResource, ActorID: c.ID, ActorName: c.Name,
		Message: fmt.Sprintf("%s spends a luck point", c.Name),
	})
	return true
}

// luckBase folds attacker and target luck points into the base roll mode.
// Opposing points are both spent and cancel out.
func (s *Service) luckBase(e *game.Encounter, actor, target *game.Combatant, req ActionRequest) dice.D20Mode {
	attackerLuck := req.WithLuck && s.spendLuck(e, actor)
	targetLuck := req.TargetLuck && s.spendLuck(e, target)
	switch {
	case attackerLuck == targetLuck:
		return dice.Normal
	case attackerLuck:
		return dice.Advantage
	default:
		return dice.Disadvantage
	}
}

// moveCombatant relocates a combatant and keeps grid occupancy in sync.
func (s *Service) moveCombatant(e *game.Encounter, c *game.Combatant, to game.Position) {
	c.Position = to
	if e.Grid != nil {
		e.Grid.PlaceOccupant(c.ID, to)
	}
}

// speed is the combatant's walking speed after condition penalties.
func (s *Service) speed(c *game.Combatant) int {
	speed := 30
	if c.HasCondition(game.ConditionSlowed) {
		speed -= 10
	}
	if speed < 0 {
		speed = 0
	}
	return speed
}

// knownManeuverOfKind finds a known maneuver of the given kind, or the
// reason none is available.
func (s *Service) knownManeuverOfKind(c *game.Combatant, kind catalog.ManeuverKind) (string, string) {
	if c.Kind != game.KindCharacter {
		return "", "monsters do not know maneuvers"
	}
	for _, id := range c.Character.KnownManeuverIDs {
		if m, err := s.eng.Catalog().Maneuver(id); err == nil && m.Kind == kind {
			return id, ""
		}
	}
	return "", fmt.Sprintf("no known %s maneuver", kind)
}

func (s *Service) mustKnownManeuverOfKind(c *game.Combatant, kind catalog.ManeuverKind) string {
	id, _ := s.knownManeuverOfKind(c, kind)
	return id
}

func (s *Service) mayParry(target *game.Combatant) bool {
	if target.Kind != game.KindCharacter || target.IsIncapacitated() {
		return false
	}
	return s.mustKnownManeuverOfKind(target, catalog.ManeuverParry) != ""
}
