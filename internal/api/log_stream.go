package api

import (
	"net/http"
	"time"

	"github.com/20q2/5e-combat-simulator-sub003/internal/constants"
	"github.com/20q2/5e-combat-simulator-sub003/internal/game"
	"github.com/20q2/5e-combat-simulator-sub003/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var logStreamUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The session cookie already gates this endpoint; the frontend may be
	// served from a different origin in development.
	CheckOrigin: func(*http.Request) bool { return true },
}

const logStreamPollInterval = time.Second

// logStreamFrame is one websocket message: the entries appended since the
// last frame plus the encounter state the client needs to stay in sync.
type logStreamFrame struct {
	Status  string                `json:"status"`
	Round   int                   `json:"round"`
	Entries []game.CombatLogEntry `json:"entries"`
}

// StreamEncounterLog upgrades to a websocket and pushes new combat-log
// entries as they land, closing once the encounter finishes.
func (h *EncounterHandler) StreamEncounterLog(c *gin.Context) {
	id, ok := encounterIDParam(c)
	if !ok {
		return
	}
	if _, err := h.repo.GetEncounterByID(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrEncounterNotFound})
		return
	}

	conn, err := logStreamUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Error("websocket upgrade failed", err, logging.Fields{constants.LogFieldEncounterID: id})
		return
	}
	defer conn.Close()

	// Drain client frames so pings and close messages are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	lastSeq := 0
	ticker := time.NewTicker(logStreamPollInterval)
	defer ticker.Stop()
	for range ticker.C {
		enc, err := h.repo.GetEncounterByID(id)
		if err != nil {
			return
		}
		var fresh []game.CombatLogEntry
		for _, entry := range enc.Log {
			if entry.Seq > lastSeq {
				fresh = append(fresh, entry)
				lastSeq = entry.Seq
			}
		}
		if len(fresh) > 0 || enc.Status == game.StatusFinished {
			frame := logStreamFrame{Status: enc.Status, Round: enc.Round, Entries: fresh}
			if err := conn.WriteJSON(frame); err != nil {
				return
			}
		}
		if enc.Status == game.StatusFinished {
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "encounter finished"))
			return
		}
	}
}
