package game

// LogKind classifies a combat-log entry.
type LogKind string

const (
	LogAttack    LogKind = "attack"
	LogDamage    LogKind = "damage"
	LogHeal      LogKind = "heal"
	LogSave      LogKind = "save"
	LogCondition LogKind = "condition"
	LogDeath     LogKind = "death"
	LogDeathSave LogKind = "death_save"
	LogMovement  LogKind = "movement"
	LogResource  LogKind = "resource"
	LogTurn      LogKind = "turn"
	LogEncounter LogKind = "encounter"
)

// LogEntry is a structured combat-log line emitted by the engine. The
// session assigns sequence, round and timestamp when it appends the entry.
type LogEntry struct {
	Kind      LogKind        `json:"kind"`
	ActorID   uint           `json:"actor_id,omitempty"`
	ActorName string         `json:"actor_name,omitempty"`
	TargetID  uint           `json:"target_id,omitempty"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
}

// CombatLogEntry is a LogEntry after the session stamped it.
type CombatLogEntry struct {
	Seq   int `json:"seq"`
	Round int `json:"round"`
	LogEntry
}
