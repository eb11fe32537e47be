package engine

import (
	"github.com/20q2/5e-combat-simulator-sub003/internal/game"
)

// PushOutcome reports a forced-movement attempt. Squares counts only the
// cells actually traversed: the push stops early at grid bounds, blocking
// obstacles or occupied cells and never lands the target on any of them.
type PushOutcome struct {
	From    game.Position `json:"from"`
	To      game.Position `json:"to"`
	Squares int           `json:"squares"`
}

// resolvePush moves the target up to maxSquares cells directly away from
// the attacker. Shared by weapon-mastery push and the unarmed feat push,
// which follow identical bounds/obstacle/occupancy rules.
func resolvePush(grid *game.Grid, attacker, target game.Position, maxSquares int) PushOutcome {
	out := PushOutcome{From: target, To: target}
	stepX := sign(target.X - attacker.X)
	stepY := sign(target.Y - attacker.Y)
	if stepX == 0 && stepY == 0 {
		return out
	}
	for i := 0; i < maxSquares; i++ {
		next := game.Position{X: out.To.X + stepX, Y: out.To.Y + stepY}
		if grid.IsBlocked(next) || grid.IsOccupied(next) {
			break
		}
		out.To = next
		out.Squares++
	}
	return out
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
