// Package geometry computes the grid cells covered by areas of effect and
// related distance queries. The engine filters combatants by membership in
// the returned cell sets; geometry itself knows nothing about teams.
package geometry

import (
	"github.com/20q2/5e-combat-simulator-sub003/internal/game"
)

// Shape names accepted in AoE requests.
const (
	ShapeSphere = "sphere"
	ShapeCube   = "cube"
	ShapeCone   = "cone"
	ShapeLine   = "line"
)

// Origin types: "self" areas emanate from the caster, "point" areas are
// centered on the targeted cell.
const (
	OriginSelf  = "self"
	OriginPoint = "point"
)

// Request describes one area of effect on the grid.
type Request struct {
	Shape      string
	SizeFeet   int
	Origin     game.Position
	Target     game.Position
	OriginType string
}

// AffectedCells returns every in-bounds cell covered by the request. The
// caster's own cell is included for self-origin shapes; callers that exempt
// the caster filter afterwards.
func AffectedCells(grid *game.Grid, req Request) []game.Position {
	center := req.Target
	if req.OriginType == OriginSelf {
		center = req.Origin
	}
	switch req.Shape {
	case ShapeSphere, ShapeCube:
		return cellsWithin(grid, center, req.SizeFeet)
	case ShapeCone:
		return coneCells(grid, req.Origin, req.Target, req.SizeFeet)
	case ShapeLine:
		return lineCells(grid, req.Origin, req.Target, req.SizeFeet)
	}
	return nil
}

// cellsWithin covers spheres and cubes: on a square grid both resolve to
// every cell within the radius in grid distance.
func cellsWithin(grid *game.Grid, center game.Position, sizeFeet int) []game.Position {
	radius := sizeFeet / game.FeetPerCell
	var out []game.Position
	for y := center.Y - radius; y <= center.Y+radius; y++ {
		for x := center.X - radius; x <= center.X+radius; x++ {
			p := game.Position{X: x, Y: y}
			if grid.InBounds(p) && game.DistanceFeet(center, p) <= sizeFeet {
				out = append(out, p)
			}
		}
	}
	return out
}

// coneCells covers a cone of the given length from origin toward target:
// cells within range whose direction stays inside the 45-degree half-angle
// of the aim vector.
func coneCells(grid *game.Grid, origin, target game.Position, sizeFeet int) []game.Position {
	dirX := target.X - origin.X
	dirY := target.Y - origin.Y
	if dirX == 0 && dirY == 0 {
		return nil
	}
	radius := sizeFeet / game.FeetPerCell
	var out []game.Position
	for y := origin.Y - radius; y <= origin.Y+radius; y++ {
		for x := origin.X - radius; x <= origin.X+radius; x++ {
			p := game.Position{X: x, Y: y}
			if !grid.InBounds(p) || (p == origin) {
				continue
			}
			if game.DistanceFeet(origin, p) > sizeFeet {
				continue
			}
			vx := p.X - origin.X
			vy := p.Y - origin.Y
			dot := vx*dirX + vy*dirY
			if dot <= 0 {
				continue
			}
			cross := vx*dirY - vy*dirX
			if cross < 0 {
				cross = -cross
			}
			// |cross| <= dot keeps the point within 45 degrees of the aim.
			if cross <= dot {
				out = append(out, p)
			}
		}
	}
	return out
}

// lineCells walks a 5-foot-wide line from origin toward target, extended to
// the requested length.
func lineCells(grid *game.Grid, origin, target game.Position, sizeFeet int) []game.Position {
	dx := target.X - origin.X
	dy := target.Y - origin.Y
	if dx == 0 && dy == 0 {
		return nil
	}
	steps := sizeFeet / game.FeetPerCell
	stepX := sign(dx)
	stepY := sign(dy)
	var out []game.Position
	p := origin
	for i := 0; i < steps; i++ {
		p = game.Position{X: p.X + stepX, Y: p.Y + stepY}
		if !grid.InBounds(p) {
			break
		}
		out = append(out, p)
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

// Contains reports whether p is in the cell set.
func Contains(cells []game.Position, p game.Position) bool {
	for _, c := range cells {
		if c == p {
			return true
		}
	}
	return false
}
