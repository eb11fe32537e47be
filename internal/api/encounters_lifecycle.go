package api

import (
	"errors"
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/20q2/5e-combat-simulator-sub003/internal/constants"
	"github.com/20q2/5e-combat-simulator-sub003/internal/game"
	"github.com/20q2/5e-combat-simulator-sub003/internal/logging"
	"github.com/20q2/5e-combat-simulator-sub003/internal/service"

	"github.com/gin-gonic/gin"
)

// MonsterSpawn places one catalog statblock on the roster.
type MonsterSpawn struct {
	MonsterID string        `json:"monster_id"`
	Name      string        `json:"name"`
	Position  game.Position `json:"position"`
}

type CreateEncounterPayload struct {
	Name       string                   `json:"name"`
	Characters []service.CharacterInput `json:"characters"`
	Monsters   []MonsterSpawn           `json:"monsters"`
}

// encounterIDParam parses the numeric encounter id from the route.
func encounterIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("encounterID"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidID})
		return 0, false
	}
	return uint(id), true
}

// CreateEncounter builds a setup-phase encounter from the submitted roster.
func (h *EncounterHandler) CreateEncounter(c *gin.Context) {
	var req CreateEncounterPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	email := sessionEmail(c)
	if email == "" {
		c.JSON(http.StatusUnauthorized, gin.H{constants.JSONKeyError: constants.ErrAuthRequired})
		return
	}
	if utf8.RuneCountInString(req.Name) > 64 {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrEncounterNameExceeds})
		return
	}

	cat, err := h.catalog.Get()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedCreateEncounter})
		return
	}

	combatants := make([]game.Combatant, 0, len(req.Characters)+len(req.Monsters))
	for _, in := range req.Characters {
		cb, err := service.BuildCharacter(cat, in)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest, constants.JSONKeyDetails: err.Error()})
			return
		}
		combatants = append(combatants, cb)
	}
	for _, spawn := range req.Monsters {
		cb, err := service.BuildMonster(cat, spawn.MonsterID, spawn.Name, spawn.Position)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest, constants.JSONKeyDetails: err.Error()})
			return
		}
		combatants = append(combatants, cb)
	}

	enc := game.Encounter{
		Name:       req.Name,
		JoinCode:   generateJoinCode(),
		OwnerEmail: email,
		Status:     game.StatusSetup,
		Grid:       game.NewGrid(h.gridWidth, h.gridHeight),
		Combatants: combatants,
	}

	if name, ok := c.Get("userName"); ok {
		n, _ := name.(string)
		_ = h.repo.UpsertUser(email, n)
	}

	if err := h.repo.CreateEncounter(&enc); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedCreateEncounter})
		return
	}
	logging.Info("encounter created", logging.Fields{
		constants.LogFieldEncounterID: enc.ID,
		"combatants":                  len(enc.Combatants),
	})
	c.JSON(http.StatusCreated, gin.H{
		"encounter_id": enc.ID,
		"join_code":    enc.JoinCode,
	})
}

type JoinEncounterPayload struct {
	JoinCode string `json:"join_code"`
}

// JoinEncounter resolves a share code so spectators can follow an encounter.
func (h *EncounterHandler) JoinEncounter(c *gin.Context) {
	var req JoinEncounterPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	code := normalizeJoinCode(req.JoinCode)
	if code == "" || !joinCodeRegex.MatchString(code) {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidID})
		return
	}
	enc, err := h.repo.FindEncounterByJoinCode(code)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrEncounterNotFound})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"encounter_id": enc.ID,
		"join_code":    enc.JoinCode,
	})
}

// StartEncounter rolls initiative and opens the first turn.
func (h *EncounterHandler) StartEncounter(c *gin.Context) {
	id, ok := encounterIDParam(c)
	if !ok {
		return
	}
	enc, err := h.svc.StartEncounter(id, sessionEmail(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEncounterNotFound):
			c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrEncounterNotFound})
		case errors.Is(err, service.ErrNotOwner):
			c.JSON(http.StatusForbidden, gin.H{constants.JSONKeyError: constants.ErrNotEncounterOwner})
		case errors.Is(err, service.ErrEncounterNotInSetup):
			c.JSON(http.StatusConflict, gin.H{constants.JSONKeyError: constants.ErrEncounterAlreadyStarted})
		case errors.Is(err, service.ErrRosterIncomplete):
			c.JSON(http.StatusConflict, gin.H{constants.JSONKeyError: constants.ErrNotEnoughCombatants})
		default:
			c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrFailedUpdateEncounter, constants.JSONKeyDetails: err.Error()})
		}
		return
	}
	out, err := MarshalForContext(c, enc)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedUpdateEncounter})
		return
	}
	c.JSON(http.StatusOK, out)
}

// SubmitAction resolves one action for the active combatant.
func (h *EncounterHandler) SubmitAction(c *gin.Context) {
	id, ok := encounterIDParam(c)
	if !ok {
		return
	}
	var req service.ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	outcome, err := h.svc.SubmitAction(id, sessionEmail(c), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEncounterNotFound):
			c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrEncounterNotFound})
		case errors.Is(err, service.ErrNotOwner):
			c.JSON(http.StatusForbidden, gin.H{constants.JSONKeyError: constants.ErrNotEncounterOwner})
		case errors.Is(err, service.ErrEncounterNotInProgress):
			c.JSON(http.StatusConflict, gin.H{constants.JSONKeyError: constants.ErrEncounterNotInProgress})
		case errors.Is(err, service.ErrUnknownAction):
			c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedStoreAction, constants.JSONKeyDetails: err.Error()})
		}
		return
	}
	if outcome.Declined {
		c.JSON(http.StatusOK, gin.H{"declined": true, "reason": outcome.Reason})
		return
	}
	out, err := MarshalForContext(c, outcome.Encounter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedStoreAction})
		return
	}
	c.JSON(http.StatusOK, out)
}

// EndEncounter concedes or abandons the encounter.
func (h *EncounterHandler) EndEncounter(c *gin.Context) {
	id, ok := encounterIDParam(c)
	if !ok {
		return
	}
	enc, err := h.svc.EndEncounter(id, sessionEmail(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEncounterNotFound):
			c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrEncounterNotFound})
		case errors.Is(err, service.ErrNotOwner):
			c.JSON(http.StatusForbidden, gin.H{constants.JSONKeyError: constants.ErrNotEncounterOwner})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedEndEncounter})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{
		constants.JSONKeyStatus: enc.Status,
		"outcome":               enc.Outcome,
	})
}

// DeleteEncounter removes an encounter that never started.
func (h *EncounterHandler) DeleteEncounter(c *gin.Context) {
	id, ok := encounterIDParam(c)
	if !ok {
		return
	}
	enc, err := h.repo.GetEncounterByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrEncounterNotFound})
		return
	}
	if enc.OwnerEmail != sessionEmail(c) {
		c.JSON(http.StatusForbidden, gin.H{constants.JSONKeyError: constants.ErrNotEncounterOwner})
		return
	}
	if enc.Status == game.StatusInProgress {
		c.JSON(http.StatusConflict, gin.H{constants.JSONKeyError: constants.ErrEncounterAlreadyStarted})
		return
	}
	if err := h.repo.DeleteEncounter(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedEndEncounter})
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.JSONKeyStatus: "deleted"})
}
