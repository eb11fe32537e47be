package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/20q2/5e-combat-simulator-sub003/internal/catalog"
	"github.com/20q2/5e-combat-simulator-sub003/internal/dice"
	"github.com/20q2/5e-combat-simulator-sub003/internal/engine"
	"github.com/20q2/5e-combat-simulator-sub003/internal/game"
)

const ownerEmail = "dm@example.com"

// memRepo is an in-memory EncounterRepo for tests.
type memRepo struct {
	encounters map[uint]*game.Encounter
	updates    int
	statsCalls int
}

func newMemRepo(encounters ...*game.Encounter) *memRepo {
	m := &memRepo{encounters: map[uint]*game.Encounter{}}
	for _, e := range encounters {
		m.encounters[e.ID] = e
	}
	return m
}

func (m *memRepo) GetEncounterByID(id uint) (*game.Encounter, error) {
	e, ok := m.encounters[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	return e, nil
}

func (m *memRepo) UpdateEncounter(e *game.Encounter) error {
	m.encounters[e.ID] = e
	m.updates++
	return nil
}

func (m *memRepo) UpdateStatsOnEncounterEnd(*game.Encounter) error {
	m.statsCalls++
	return nil
}

// scriptedSource replays the given Intn values, repeating the last one when
// exhausted.
type scriptedSource struct {
	vals []int
	i    int
}

func (s *scriptedSource) Intn(n int) int {
	v := s.vals[len(s.vals)-1]
	if s.i < len(s.vals) {
		v = s.vals[s.i]
		s.i++
	}
	if v >= n {
		v = n - 1
	}
	return v
}

// scriptedRoller takes die faces and returns a roller producing them in
// order.
func scriptedRoller(faces ...int) *dice.Roller {
	vals := make([]int, len(faces))
	for i, f := range faces {
		vals[i] = f - 1
	}
	return dice.NewRollerFromSource(&scriptedSource{vals: vals})
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New(catalog.Data{
		Weapons: []catalog.WeaponDef{
			{ID: "longsword", Name: "Longsword", Damage: "1d8"},
			{ID: "shortsword", Name: "Shortsword", Damage: "1d6", Properties: []string{catalog.PropertyFinesse, catalog.PropertyLight}},
			{ID: "longbow", Name: "Longbow", Damage: "1d8", Properties: []string{catalog.PropertyRanged}, Mastery: catalog.MasterySlow, RangeFeet: 150},
		},
		Spells: []catalog.SpellDef{
			{ID: "fire_bolt", Name: "Fire Bolt", Level: 0, Kind: catalog.SpellAttack, Damage: "1d10", RangeFeet: 120},
		},
		Maneuvers: []catalog.ManeuverDef{
			{ID: "parry", Name: "Parry", Kind: catalog.ManeuverParry, Reaction: true},
			{ID: "riposte", Name: "Riposte", Kind: catalog.ManeuverRiposte, Reaction: true},
		},
		Feats: []catalog.FeatDef{
			{ID: "lucky", Name: "Lucky", Key: catalog.FeatLucky},
		},
		Classes: []catalog.ClassDef{{
			ID:   "fighter",
			Name: "Fighter",
			Features: []catalog.FeatureRow{
				{Level: 1, Key: catalog.FeatureWeaponMastery, Name: "Weapon Mastery"},
			},
			Subclasses: []catalog.SubclassDef{{
				ID:   "battle_master",
				Name: "Battle Master",
				Features: []catalog.FeatureRow{
					{Level: 3, Key: catalog.FeatureCombatSuperiority, Name: "Combat Superiority"},
				},
			}},
			Superiority:  []catalog.SuperiorityRow{{Level: 3, Dice: 4, Die: 8}},
			MasterySlots: []catalog.MasteryRow{{Level: 1, Slots: 3}},
		}},
		Races: []catalog.RaceDef{{ID: "human", Name: "Human"}},
		Monsters: []catalog.MonsterDef{{
			ID:               "goblin",
			Name:             "Goblin",
			MaxHP:            7,
			ArmorClass:       13,
			ProficiencyBonus: 2,
			Abilities:        game.AbilityScores{Strength: 8, Dexterity: 14, Constitution: 10, Intelligence: 10, Wisdom: 8, Charisma: 8},
			Attacks:          []catalog.MonsterAttack{{Name: "scimitar", Damage: "1d6+2", Ability: game.Dexterity}},
		}},
	})
	if err != nil {
		t.Fatalf("building catalog: %v", err)
	}
	return cat
}

func newService(t *testing.T, repo EncounterRepo, faces ...int) *Service {
	t.Helper()
	return New(repo, engine.NewResolver(testCatalog(t), scriptedRoller(faces...)), time.Minute)
}

func fighter(id uint, x, y int) game.Combatant {
	c := game.Combatant{
		Kind:      game.KindCharacter,
		Name:      fmt.Sprintf("Fighter %d", id),
		Position:  game.Position{X: x, Y: y},
		MaxHP:     30,
		CurrentHP: 30,
		Character: &game.CharacterSheet{
			Level:            5,
			ClassID:          "fighter",
			SubclassID:       "battle_master",
			RaceID:           "human",
			Abilities:        game.AbilityScores{Strength: 16, Dexterity: 14, Constitution: 14, Intelligence: 10, Wisdom: 10, Charisma: 10},
			ArmorClass:       18,
			HitDie:           10,
			EquippedWeaponID: "longsword",
			WeaponIDs:        []string{"longsword"},
		},
		Resources: game.Resources{HitDiceRemaining: 5},
	}
	c.ID = id
	return c
}

func goblin(id uint, x, y int) game.Combatant {
	c := game.Combatant{
		Kind:      game.KindMonster,
		Name:      fmt.Sprintf("Goblin %d", id),
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

func setupEncounter(combatants ...game.Combatant) *game.Encounter {
	e := &game.Encounter{
		Name:       "Test Skirmish",
		OwnerEmail: ownerEmail,
		Status:     game.StatusSetup,
		Grid:       game.NewGrid(12, 12),
		Combatants: combatants,
	}
	e.ID = 1
	return e
}

// inProgressEncounter skips initiative: combatants act in the given order.
func inProgressEncounter(combatants ...game.Combatant) *game.Encounter {
	e := setupEncounter(combatants...)
	e.Status = game.StatusInProgress
	e.Phase = game.PhasePlanning
	e.Round = 1
	e.TurnIndex = 0
	for i := range e.Combatants {
		e.Combatants[i].Initiative = 20 - i
		e.Grid.PlaceOccupant(e.Combatants[i].ID, e.Combatants[i].Position)
	}
	return e
}

func TestStartEncounter(t *testing.T) {
	repo := newMemRepo(setupEncounter(fighter(1, 1, 1), goblin(2, 5, 5)))
	// Initiative: fighter d20 15 + DEX 2 = 17, goblin 5 + 2 = 7.
	svc := newService(t, repo, 15, 5)

	e, err := svc.StartEncounter(1, ownerEmail)
	if err != nil {
		t.Fatalf("StartEncounter: %v", err)
	}
	if e.Status != game.StatusInProgress || e.Round != 1 || e.TurnIndex != 0 {
		t.Fatalf("status = %s round = %d index = %d", e.Status, e.Round, e.TurnIndex)
	}
	if e.Combatants[0].Kind != game.KindCharacter {
		t.Fatalf("fighter rolled 17 and should lead the order, got %s", e.Combatants[0].Name)
	}
	if got := e.Combatants[0].Initiative; got != 17 {
		t.Fatalf("fighter initiative = %d, want 17", got)
	}
	if got := e.Combatants[0].Resources.SuperiorityDice; got != 4 {
		t.Fatalf("superiority dice = %d, want the level 5 pool of 4", got)
	}
	if !e.Grid.IsOccupied(game.Position{X: 1, Y: 1}) || !e.Grid.IsOccupied(game.Position{X: 5, Y: 5}) {
		t.Fatal("combatants were not placed on the grid")
	}
	if e.ActionDeadline.IsZero() {
		t.Fatal("no action deadline set")
	}
	if repo.updates != 1 {
		t.Fatalf("updates = %d, want the started encounter persisted once", repo.updates)
	}
}

func TestStartEncounterValidation(t *testing.T) {
	t.Run("wrong owner", func(t *testing.T) {
		repo := newMemRepo(setupEncounter(fighter(1, 1, 1), goblin(2, 5, 5)))
		svc := newService(t, repo, 10)
		if _, err := svc.StartEncounter(1, "stranger@example.com"); !errors.Is(err, ErrNotOwner) {
			t.Fatalf("err = %v, want ErrNotOwner", err)
		}
	})
	t.Run("already started", func(t *testing.T) {
		repo := newMemRepo(inProgressEncounter(fighter(1, 1, 1), goblin(2, 5, 5)))
		svc := newService(t, repo, 10)
		if _, err := svc.StartEncounter(1, ownerEmail); !errors.Is(err, ErrEncounterNotInSetup) {
			t.Fatalf("err = %v, want ErrEncounterNotInSetup", err)
		}
	})
	t.Run("no monsters", func(t *testing.T) {
		repo := newMemRepo(setupEncounter(fighter(1, 1, 1)))
		svc := newService(t, repo, 10)
		if _, err := svc.StartEncounter(1, ownerEmail); !errors.Is(err, ErrRosterIncomplete) {
			t.Fatalf("err = %v, want ErrRosterIncomplete", err)
		}
	})
	t.Run("unknown encounter", func(t *testing.T) {
		svc := newService(t, newMemRepo(), 10)
		if _, err := svc.StartEncounter(99, ownerEmail); !errors.Is(err, ErrEncounterNotFound) {
			t.Fatalf("err = %v, want ErrEncounterNotFound", err)
		}
	})
}

func TestSubmitActionAttack(t *testing.T) {
	g := goblin(2, 5, 5)
	g.MaxHP, g.CurrentHP = 20, 20
	repo := newMemRepo(inProgressEncounter(fighter(1, 4, 4), g))
	// d20 10 + STR 3 + prof 3 = 16 vs AC 13; damage d8 5 + STR 3 = 8.
	svc := newService(t, repo, 10, 5)

	out, err := svc.SubmitAction(1, ownerEmail, ActionRequest{Type: ActionAttack, TargetID: 2})
	if err != nil {
		t.Fatalf("SubmitAction: %v", err)
	}
	if out.Declined {
		t.Fatalf("declined: %s", out.Reason)
	}
	e := out.Encounter
	target := e.CombatantByID(2)
	if target.CurrentHP != 12 {
		t.Fatalf("goblin hp = %d, want 20 - 8", target.CurrentHP)
	}
	if !e.CombatantByID(1).Turn.ActionUsed {
		t.Fatal("attack should consume the action")
	}
	if len(e.Log) == 0 {
		t.Fatal("no log entries recorded")
	}
	if repo.updates != 1 {
		t.Fatalf("updates = %d, want 1", repo.updates)
	}
}

func TestSubmitActionAttackOutOfRange(t *testing.T) {
	repo := newMemRepo(inProgressEncounter(fighter(1, 0, 0), goblin(2, 10, 10)))
	svc := newService(t, repo, 10)

	out, err := svc.SubmitAction(1, ownerEmail, ActionRequest{Type: ActionAttack, TargetID: 2})
	if err != nil {
		t.Fatalf("SubmitAction: %v", err)
	}
	if !out.Declined {
		t.Fatal("a 50 ft melee attack should be declined")
	}
	if out.Encounter.CombatantByID(1).Turn.ActionUsed {
		t.Fatal("a declined attack must not consume the action")
	}
	if repo.updates != 0 {
		t.Fatal("declined actions must not persist")
	}
}

func TestSubmitActionAttackVictory(t *testing.T) {
	repo := newMemRepo(inProgressEncounter(fighter(1, 4, 4), goblin(2, 5, 5)))
	// Hit for 8 against the goblin's 7 hp.
	svc := newService(t, repo, 10, 5)

	out, err := svc.SubmitAction(1, ownerEmail, ActionRequest{Type: ActionAttack, TargetID: 2})
	if err != nil {
		t.Fatalf("SubmitAction: %v", err)
	}
	e := out.Encounter
	if e.Status != game.StatusFinished || e.Outcome != game.OutcomeVictory {
		t.Fatalf("status = %s outcome = %s, want a finished victory", e.Status, e.Outcome)
	}
	dead := e.CombatantByID(2)
	if dead.CurrentHP != 0 || !dead.HasCondition(game.ConditionProne) {
		t.Fatalf("dead goblin state: hp = %d conditions = %v", dead.CurrentHP, dead.Conditions)
	}
	if e.Grid.IsOccupied(game.Position{X: 5, Y: 5}) {
		t.Fatal("a dead monster should free its square")
	}
	if repo.statsCalls != 1 {
		t.Fatalf("stats calls = %d, want 1", repo.statsCalls)
	}
}

func TestSubmitActionAttackWithLuck(t *testing.T) {
	f := fighter(1, 4, 4)
	f.Character.OriginFeatIDs = []string{"lucky"}
	f.Resources.LuckPoints = 2
	g := goblin(2, 5, 5)
	g.MaxHP, g.CurrentHP = 20, 20
	repo := newMemRepo(inProgressEncounter(f, g))
	// Advantage rolls 3 and 18, keeps 18 + 6 = 24 vs AC 13; damage d8 4 + STR 3.
	svc := newService(t, repo, 3, 18, 4)

	out, err := svc.SubmitAction(1, ownerEmail, ActionRequest{Type: ActionAttack, TargetID: 2, WithLuck: true})
	if err != nil {
		t.Fatalf("SubmitAction: %v", err)
	}
	if out.Declined {
		t.Fatalf("declined: %s", out.Reason)
	}
	if got := out.Encounter.CombatantByID(2).CurrentHP; got != 13 {
		t.Fatalf("goblin hp = %d, want 20 - 7", got)
	}
	if got := out.Encounter.CombatantByID(1).Resources.LuckPoints; got != 1 {
		t.Fatalf("luck points = %d, want one spent", got)
	}
}

func TestSubmitActionSapLastsUntilTheNextAttackConsumesIt(t *testing.T) {
	g := goblin(1, 5, 5)
	f := fighter(2, 4, 4)
	f.AddCondition(game.ConditionSapped, game.IndefiniteDuration)
	repo := newMemRepo(inProgressEncounter(g, f))
	// The goblin ends its turn, then the sapped fighter attacks at
	// disadvantage: d20 rolls 18 and 3 keep 3 + 6 = 9 vs AC 13, a miss.
	svc := newService(t, repo, 18, 3)

	out, err := svc.SubmitAction(1, ownerEmail, ActionRequest{Type: ActionEndTurn})
	if err != nil {
		t.Fatalf("end turn: %v", err)
	}
	if !out.Encounter.CombatantByID(2).HasCondition(game.ConditionSapped) {
		t.Fatal("sap must survive the start of the sapped combatant's turn")
	}

	out, err = svc.SubmitAction(1, ownerEmail, ActionRequest{Type: ActionAttack, TargetID: 1})
	if err != nil {
		t.Fatalf("attack: %v", err)
	}
	if out.Declined {
		t.Fatalf("declined: %s", out.Reason)
	}
	if got := out.Encounter.CombatantByID(1).CurrentHP; got != 7 {
		t.Fatalf("goblin hp = %d, want the disadvantaged 9 vs AC 13 to miss", got)
	}
	if out.Encounter.CombatantByID(2).HasCondition(game.ConditionSapped) {
		t.Fatal("the attack roll should consume the sap")
	}
}

func TestSubmitActionSlowCoversTheTargetTurn(t *testing.T) {
	f := fighter(1, 4, 4)
	f.Character.WeaponIDs = []string{"longsword", "longbow"}
	f.Character.MasteredWeaponIDs = []string{"longbow"}
	g := goblin(2, 5, 5)
	g.MaxHP, g.CurrentHP = 20, 20
	repo := newMemRepo(inProgressEncounter(f, g))
	// Longbow: d20 15 + DEX 2 + prof 3 = 20 vs AC 13; damage d8 4 + DEX 2.
	svc := newService(t, repo, 15, 4)

	out, err := svc.SubmitAction(1, ownerEmail, ActionRequest{Type: ActionAttack, TargetID: 2, WeaponID: "longbow"})
	if err != nil {
		t.Fatalf("attack: %v", err)
	}
	if out.Declined {
		t.Fatalf("declined: %s", out.Reason)
	}
	target := out.Encounter.CombatantByID(2)
	if target.CurrentHP != 14 || !target.HasCondition(game.ConditionSlowed) {
		t.Fatalf("hp = %d conditions = %v, want 14 and slowed", target.CurrentHP, target.Conditions)
	}

	if _, err = svc.SubmitAction(1, ownerEmail, ActionRequest{Type: ActionEndTurn}); err != nil {
		t.Fatalf("end turn: %v", err)
	}
	if !target.HasCondition(game.ConditionSlowed) {
		t.Fatal("slow must survive the start of the slowed combatant's turn")
	}

	// 25 ft exceeds the slowed budget of 20.
	out, err = svc.SubmitAction(1, ownerEmail, ActionRequest{Type: ActionMove, Destination: &game.Position{X: 10, Y: 5}})
	if err != nil {
		t.Fatalf("long move: %v", err)
	}
	if !out.Declined {
		t.Fatal("a slowed goblin must not cover 25 ft")
	}
	out, err = svc.SubmitAction(1, ownerEmail, ActionRequest{Type: ActionMove, Destination: &game.Position{X: 9, Y: 5}})
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if out.Declined {
		t.Fatalf("20 ft should fit the slowed budget: %s", out.Reason)
	}

	// A full lap later the slow has run out.
	if _, err = svc.SubmitAction(1, ownerEmail, ActionRequest{Type: ActionEndTurn}); err != nil {
		t.Fatalf("end goblin turn: %v", err)
	}
	if _, err = svc.SubmitAction(1, ownerEmail, ActionRequest{Type: ActionEndTurn}); err != nil {
		t.Fatalf("end fighter turn: %v", err)
	}
	if target.HasCondition(game.ConditionSlowed) {
		t.Fatal("slow should expire at the start of the target's following turn")
	}
}

func TestSubmitActionRiposteBanksForTheNextAttack(t *testing.T) {
	g := goblin(1, 5, 5)
	g.MaxHP, g.CurrentHP = 20, 20
	f := fighter(2, 4, 4)
	f.Character.KnownManeuverIDs = []string{"riposte"}
	f.Resources.SuperiorityDice = 4
	repo := newMemRepo(inProgressEncounter(g, f))
	// The goblin swings 2 + 4 = 6 vs AC 18 and misses; the fighter banks a
	// riposte die of 6. On its own turn the fighter hits with 10 + 6 = 16 vs
	// AC 13 for d8 5 + STR 3 + the banked 6.
	svc := newService(t, repo, 2, 6, 10, 5)

	out, err := svc.SubmitAction(1, ownerEmail, ActionRequest{Type: ActionAttack, TargetID: 2, TargetRiposte: true})
	if err != nil {
		t.Fatalf("monster attack: %v", err)
	}
	target := out.Encounter.CombatantByID(2)
	if target.Resources.PreparedRiposte != 6 {
		t.Fatalf("banked riposte = %d, want 6", target.Resources.PreparedRiposte)
	}
	if target.Resources.SuperiorityDice != 3 || !target.Turn.ReactionUsed {
		t.Fatalf("dice = %d reaction = %v, want the die and the reaction spent", target.Resources.SuperiorityDice, target.Turn.ReactionUsed)
	}
	if got := out.Encounter.CombatantByID(1).CurrentHP; got != 20 {
		t.Fatalf("goblin hp = %d, the riposte must not strike immediately", got)
	}

	if _, err = svc.SubmitAction(1, ownerEmail, ActionRequest{Type: ActionEndTurn}); err != nil {
		t.Fatalf("end turn: %v", err)
	}
	out, err = svc.SubmitAction(1, ownerEmail, ActionRequest{Type: ActionAttack, TargetID: 1})
	if err != nil {
		t.Fatalf("attack: %v", err)
	}
	if got := out.Encounter.CombatantByID(1).CurrentHP; got != 6 {
		t.Fatalf("goblin hp = %d, want 20 - (5 + 3 + 6)", got)
	}
	if target.Resources.PreparedRiposte != 0 {
		t.Fatalf("banked riposte = %d, want it spent by the attack", target.Resources.PreparedRiposte)
	}
}

func TestSubmitActionWrongOwner(t *testing.T) {
	repo := newMemRepo(inProgressEncounter(fighter(1, 4, 4), goblin(2, 5, 5)))
	svc := newService(t, repo, 10)
	if _, err := svc.SubmitAction(1, "stranger@example.com", ActionRequest{Type: ActionEndTurn}); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("err = %v, want ErrNotOwner", err)
	}
}

func TestSubmitActionMoveAndDash(t *testing.T) {
	repo := newMemRepo(inProgressEncounter(fighter(1, 4, 4), goblin(2, 11, 11)))
	svc := newService(t, repo, 10)

	out, err := svc.SubmitAction(1, ownerEmail, ActionRequest{Type: ActionMove, Destination: &game.Position{X: 6, Y: 4}})
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if out.Declined {
		t.Fatalf("declined: %s", out.Reason)
	}
	actor := out.Encounter.CombatantByID(1)
	if actor.Position != (game.Position{X: 6, Y: 4}) || actor.Turn.MovementUsed != 10 {
		t.Fatalf("position = %v movement = %d", actor.Position, actor.Turn.MovementUsed)
	}
	if !out.Encounter.Grid.IsOccupied(game.Position{X: 6, Y: 4}) || out.Encounter.Grid.IsOccupied(game.Position{X: 4, Y: 4}) {
		t.Fatal("grid occupancy did not follow the move")
	}

	// 25 more feet against the 20 remaining.
	out, err = svc.SubmitAction(1, ownerEmail, ActionRequest{Type: ActionMove, Destination: &game.Position{X: 6, Y: 9}})
	if err != nil {
		t.Fatalf("long move: %v", err)
	}
	if !out.Declined {
		t.Fatal("a move past the remaining budget should be declined")
	}

	out, err = svc.SubmitAction(1, ownerEmail, ActionRequest{Type: ActionDash})
	if err != nil {
		t.Fatalf("dash: %v", err)
	}
	if out.Declined {
		t.Fatalf("declined: %s", out.Reason)
	}
	if actor.Turn.DashFeet != 30 || !actor.Turn.ActionUsed {
		t.Fatalf("dash flags: %+v", actor.Turn)
	}

	out, err = svc.SubmitAction(1, ownerEmail, ActionRequest{Type: ActionMove, Destination: &game.Position{X: 6, Y: 9}})
	if err != nil {
		t.Fatalf("dashed move: %v", err)
	}
	if out.Declined {
		t.Fatalf("the dash should cover the move: %s", out.Reason)
	}
}

func TestSubmitActionMoveBlocked(t *testing.T) {
	e := inProgressEncounter(fighter(1, 4, 4), goblin(2, 5, 5))
	repo := newMemRepo(e)
	svc := newService(t, repo, 10)

	out, err := svc.SubmitAction(1, ownerEmail, ActionRequest{Type: ActionMove, Destination: &game.Position{X: 5, Y: 5}})
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if !out.Declined {
		t.Fatal("moving onto an occupied square should be declined")
	}
}

func TestSubmitActionEndTurn(t *testing.T) {
	e := inProgressEncounter(fighter(1, 4, 4), goblin(2, 5, 5))
	e.Combatants[0].Turn.ActionUsed = true
	repo := newMemRepo(e)
	svc := newService(t, repo, 10)

	out, err := svc.SubmitAction(1, ownerEmail, ActionRequest{Type: ActionEndTurn})
	if err != nil {
		t.Fatalf("end turn: %v", err)
	}
	got := out.Encounter
	if got.TurnIndex != 1 || got.Round != 1 {
		t.Fatalf("index = %d round = %d, want the goblin's turn in round 1", got.TurnIndex, got.Round)
	}
	if got.CombatantByID(1).Turn.ActionUsed {
		t.Fatal("turn flags must be cleared at end of turn")
	}
}

func TestSubmitActionSecondWind(t *testing.T) {
	e := inProgressEncounter(fighter(1, 4, 4), goblin(2, 5, 5))
	e.Combatants[0].CurrentHP = 10
	repo := newMemRepo(e)
	// d10 face 6 + level 5 = 11.
	svc := newService(t, repo, 6)

	out, err := svc.SubmitAction(1, ownerEmail, ActionRequest{Type: ActionSecondWind})
	if err != nil {
		t.Fatalf("second wind: %v", err)
	}
	if out.Declined {
		t.Fatalf("declined: %s", out.Reason)
	}
	actor := out.Encounter.CombatantByID(1)
	if actor.CurrentHP != 21 {
		t.Fatalf("hp = %d, want 10 + 11", actor.CurrentHP)
	}
	if !actor.Turn.BonusActionUsed || !actor.Turn.SecondWindUsed {
		t.Fatalf("flags: %+v", actor.Turn)
	}

	out, err = svc.SubmitAction(1, ownerEmail, ActionRequest{Type: ActionSecondWind})
	if err != nil {
		t.Fatalf("repeat second wind: %v", err)
	}
	if !out.Declined {
		t.Fatal("second wind is once per encounter")
	}
}

func TestSubmitActionCastFireBolt(t *testing.T) {
	f := fighter(1, 4, 4)
	f.Character.SpellcastingAbility = game.Intelligence
	f.Character.Abilities.Intelligence = 16
	f.Character.KnownSpellIDs = []string{"fire_bolt"}
	g := goblin(2, 5, 5)
	g.MaxHP, g.CurrentHP = 20, 20
	repo := newMemRepo(inProgressEncounter(f, g))
	// d20 10 + INT 3 + prof 3 = 16 vs AC 13; d10 face 7.
	svc := newService(t, repo, 10, 7)

	out, err := svc.SubmitAction(1, ownerEmail, ActionRequest{Type: ActionCastSpell, SpellID: "fire_bolt", TargetID: 2})
	if err != nil {
		t.Fatalf("cast: %v", err)
	}
	if out.Declined {
		t.Fatalf("declined: %s", out.Reason)
	}
	if got := out.Encounter.CombatantByID(2).CurrentHP; got != 13 {
		t.Fatalf("goblin hp = %d, want 20 - 7", got)
	}
	if !out.Encounter.CombatantByID(1).Turn.ActionUsed {
		t.Fatal("casting consumes the action")
	}
}

func TestAdvanceTurnRollsDeathSave(t *testing.T) {
	g := goblin(1, 5, 5)
	f := fighter(2, 4, 4)
	f.CurrentHP = 0
	f.AddCondition(game.ConditionUnconscious, game.IndefiniteDuration)
	e := inProgressEncounter(g, f)
	repo := newMemRepo(e)
	// Death save d20 face 15: one success, then the turn passes back.
	svc := newService(t, repo, 15)

	out, err := svc.SubmitAction(1, ownerEmail, ActionRequest{Type: ActionEndTurn})
	if err != nil {
		t.Fatalf("end turn: %v", err)
	}
	got := out.Encounter
	downed := got.CombatantByID(2)
	if downed.Resources.DeathSaves.Successes != 1 {
		t.Fatalf("successes = %d, want the automatic death save", downed.Resources.DeathSaves.Successes)
	}
	if got.Round != 2 || got.TurnIndex != 0 {
		t.Fatalf("round = %d index = %d, want the goblin acting again in round 2", got.Round, got.TurnIndex)
	}
}

func TestHandleTimedOutEncounter(t *testing.T) {
	e := inProgressEncounter(fighter(1, 4, 4), goblin(2, 5, 5))
	e.ActionDeadline = time.Now().Add(-time.Minute)
	repo := newMemRepo(e)
	svc := newService(t, repo, 10)

	if err := svc.HandleTimedOutEncounter(1); err != nil {
		t.Fatalf("timeout: %v", err)
	}
	if e.TurnIndex != 1 {
		t.Fatalf("index = %d, want the turn forfeited to the goblin", e.TurnIndex)
	}
	if repo.updates != 1 {
		t.Fatalf("updates = %d, want 1", repo.updates)
	}

	// A future deadline is left alone.
	e.ActionDeadline = time.Now().Add(time.Minute)
	if err := svc.HandleTimedOutEncounter(1); err != nil {
		t.Fatalf("early timeout: %v", err)
	}
	if e.TurnIndex != 1 {
		t.Fatal("an unexpired deadline must not forfeit the turn")
	}
}

func TestBuildCharacterValidatesIDs(t *testing.T) {
	cat := testCatalog(t)
	in := CharacterInput{
		Name:      "Roland",
		Level:     5,
		ClassID:   "fighter",
		RaceID:    "human",
		Abilities: game.AbilityScores{Strength: 16, Dexterity: 14, Constitution: 14, Intelligence: 10, Wisdom: 10, Charisma: 10},
		MaxHP:     30,
		WeaponIDs: []string{"longsword"},
	}
	if _, err := BuildCharacter(cat, in); err != nil {
		t.Fatalf("valid input: %v", err)
	}

	bad := in
	bad.WeaponIDs = []string{"chainsaw"}
	if _, err := BuildCharacter(cat, bad); !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound for an unknown weapon", err)
	}

	bad = in
	bad.Level = 25
	if _, err := BuildCharacter(cat, bad); err == nil {
		t.Fatal("level 25 should be rejected")
	}
}

func TestBuildMonster(t *testing.T) {
	cat := testCatalog(t)
	m, err := BuildMonster(cat, "goblin", "", game.Position{X: 3, Y: 3})
	if err != nil {
		t.Fatalf("BuildMonster: %v", err)
	}
	if m.Name != "Goblin" || m.MaxHP != 7 || m.CurrentHP != 7 {
		t.Fatalf("built monster: %+v", m)
	}
	if _, err := BuildMonster(cat, "tarrasque", "", game.Position{}); !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
