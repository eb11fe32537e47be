package api

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/20q2/5e-combat-simulator-sub003/internal/constants"
	"github.com/gin-gonic/gin"
)

// ListMonsters returns the catalog's monster statblocks.
func (h *EncounterHandler) ListMonsters(c *gin.Context) {
	cat, err := h.catalog.Get()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedFetchMonsters})
		return
	}
	c.JSON(http.StatusOK, cat.Monsters())
}

// ListOpenEncounters returns recent encounters still in setup.
func (h *EncounterHandler) ListOpenEncounters(c *gin.Context) {
	encounters, err := h.repo.GetOpenEncounters()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedFetchEncounters})
		return
	}
	out, err := MarshalForContext(c, encounters)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedFetchEncounters})
		return
	}
	c.JSON(http.StatusOK, out)
}

// GetEncounter returns an encounter with its roster, grid and log.
func (h *EncounterHandler) GetEncounter(c *gin.Context) {
	id, ok := encounterIDParam(c)
	if !ok {
		return
	}
	enc, err := h.repo.GetEncounterByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrEncounterNotFound})
		return
	}
	out, err := MarshalForContext(c, enc)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedFetchEncounters})
		return
	}
	c.JSON(http.StatusOK, out)
}

// GetEncounterLog returns combat-log entries, optionally only those after
// ?since=SEQ for incremental polling.
func (h *EncounterHandler) GetEncounterLog(c *gin.Context) {
	id, ok := encounterIDParam(c)
	if !ok {
		return
	}
	enc, err := h.repo.GetEncounterByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrEncounterNotFound})
		return
	}
	since := 0
	if s := c.Query("since"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			since = n
		}
	}
	log := enc.Log
	if since > 0 {
		i := 0
		for ; i < len(log); i++ {
			if log[i].Seq > since {
				break
			}
		}
		log = log[i:]
	}
	c.JSON(http.StatusOK, gin.H{"round": enc.Round, "log": log})
}

// ListLeaderboard returns the top players by victories, limited to top 10
// by default.
func (h *EncounterHandler) ListLeaderboard(c *gin.Context) {
	// optional ?limit=N
	limit := 10
	if s := c.Query("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	users, err := h.repo.GetTopPlayers(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedFetchLeaderboard})
		return
	}
	out, err := MarshalIntoSnakeTimestamps(users)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedFetchLeaderboard})
		return
	}
	c.JSON(http.StatusOK, out)
}

// GetPlayerStats returns aggregated stats for the session player.
func (h *EncounterHandler) GetPlayerStats(c *gin.Context) {
	email := sessionEmail(c)
	if email == "" {
		c.JSON(http.StatusUnauthorized, gin.H{constants.JSONKeyError: constants.ErrAuthRequired})
		return
	}
	ps, err := h.repo.GetStatsByEmail(email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedFetchStats})
		return
	}
	c.JSON(http.StatusOK, ps)
}

// UpdatePlayerProfile updates the authenticated player's display name.
func (h *EncounterHandler) UpdatePlayerProfile(c *gin.Context) {
	var body struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	email := sessionEmail(c)
	if email == "" {
		c.JSON(http.StatusUnauthorized, gin.H{constants.JSONKeyError: constants.ErrAuthRequired})
		return
	}
	// Accept letters, marks, numbers, apostrophe, dot, hyphen and spaces,
	// length 4-40, matching the frontend validation.
	var playerNameRegex = regexp.MustCompile(`^[\p{L}\p{M}\p{N}.'\- ]{4,40}$`)

	trimmed := strings.TrimSpace(body.Name)
	if !playerNameRegex.MatchString(trimmed) {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: "Invalid player name"})
		return
	}
	if err := h.repo.UpsertUser(email, trimmed); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedFetchStats})
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.JSONKeyStatus: "ok"})
}
