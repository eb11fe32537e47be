package game

// FeetPerCell is the scale of the encounter grid.
const FeetPerCell = 5

// Cell is one square of the encounter grid. A cell may hold a
// movement-blocking obstacle and/or a combatant.
type Cell struct {
	Blocked    bool `json:"blocked,omitempty"`
	OccupantID uint `json:"occupant_id,omitempty"`
}

// Grid is the encounter battle map. The engine treats it as read-only: all
// occupancy changes go through the owning session.
type Grid struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Cells  []Cell `json:"cells"`
}

// NewGrid returns an empty grid of the given dimensions.
func NewGrid(width, height int) *Grid {
	return &Grid{Width: width, Height: height, Cells: make([]Cell, width*height)}
}

// InBounds reports whether the position is on the grid.
func (g *Grid) InBounds(p Position) bool {
	return p.X >= 0 && p.X < g.Width && p.Y >= 0 && p.Y < g.Height
}

// CellAt returns the cell at p, or nil when out of bounds.
func (g *Grid) CellAt(p Position) *Cell {
	if !g.InBounds(p) {
		return nil
	}
	return &g.Cells[p.Y*g.Width+p.X]
}

// IsBlocked reports whether p is off-grid or holds an obstacle.
func (g *Grid) IsBlocked(p Position) bool {
	c := g.CellAt(p)
	return c == nil || c.Blocked
}

// IsOccupied reports whether a combatant stands on p.
func (g *Grid) IsOccupied(p Position) bool {
	c := g.CellAt(p)
	return c != nil && c.OccupantID != 0
}

// PlaceOccupant records id on the cell at p, clearing any previous cell the
// id occupied.
func (g *Grid) PlaceOccupant(id uint, p Position) {
	for i := range g.Cells {
		if g.Cells[i].OccupantID == id {
			g.Cells[i].OccupantID = 0
		}
	}
	if c := g.CellAt(p); c != nil {
		c.OccupantID = id
	}
}

// RemoveOccupant clears id from the grid.
func (g *Grid) RemoveOccupant(id uint) {
	for i := range g.Cells {
		if g.Cells[i].OccupantID == id {
			g.Cells[i].OccupantID = 0
		}
	}
}

// DistanceFeet is the grid distance between two positions in feet. Diagonal
// steps count as one square, matching the square-grid movement rule.
func DistanceFeet(a, b Position) int {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dy := a.Y - b.Y
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx * FeetPerCell
	}
	return dy * FeetPerCell
}
