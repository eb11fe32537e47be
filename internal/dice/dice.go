// Package dice implements the randomness primitives of the combat engine:
// damage-expression parsing, dice rolling and d20 rolls with advantage or
// disadvantage. All randomness flows through a Source so tests can
// substitute deterministic sequences.
package dice

import (
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
)

// ErrInvalidExpression is returned when a damage expression does not match
// the supported grammar. Expressions come from validated catalog data, so
// hitting this error indicates a programming or data error, not a
// player-facing condition.
var ErrInvalidExpression = errors.New("invalid dice expression")

// Source is the randomness provider for rolls. Implementations return a
// non-negative int in [0, n).
type Source interface {
	Intn(n int) int
}

// Roller performs all rolls for an encounter from a single Source.
type Roller struct {
	src Source
}

// NewRoller returns a Roller backed by a seeded math/rand source.
func NewRoller(seed int64) *Roller {
	return &Roller{src: rand.New(rand.NewSource(seed))}
}

// NewRollerFromSource returns a Roller using the provided source. Tests use
// this with scripted sequences.
func NewRollerFromSource(src Source) *Roller {
	return &Roller{src: src}
}

// RollDie rolls a single die, uniform in [1, sides].
func (r *Roller) RollDie(sides int) int {
	return r.src.Intn(sides) + 1
}

// Expression is a parsed damage expression. Count zero marks a flat,
// non-dice amount carried entirely in Modifier.
type Expression struct {
	Raw      string `json:"raw"`
	Count    int    `json:"count"`
	Sides    int    `json:"sides"`
	Modifier int    `json:"modifier"`
}

// IsFlat reports whether the expression carries no dice.
func (e Expression) IsFlat() bool { return e.Count == 0 }

var (
	diceExprRegex = regexp.MustCompile(`^(\d*)d(\d+)([+-]\d+)?$`)
	flatExprRegex = regexp.MustCompile(`^(\d+)([+-]\d+)?$`)
)

// ParseExpression parses `[count]d sides[(+|-)modifier]` (e.g. "2d6+3",
// "d20") or a flat `base[(+|-)modifier]` (e.g. "4", "2+1"). Any other shape
// fails with ErrInvalidExpression.
func ParseExpression(text string) (Expression, error) {
	if m := diceExprRegex.FindStringSubmatch(text); m != nil {
		count := 1
		if m[1] != "" {
			var err error
			count, err = strconv.Atoi(m[1])
			if err != nil || count < 1 {
				return Expression{}, fmt.Errorf("%w: %q", ErrInvalidExpression, text)
			}
		}
		sides, err := strconv.Atoi(m[2])
		if err != nil || sides < 2 {
			return Expression{}, fmt.Errorf("%w: %q", ErrInvalidExpression, text)
		}
		mod := 0
		if m[3] != "" {
			mod, _ = strconv.Atoi(m[3])
		}
		return Expression{Raw: text, Count: count, Sides: sides, Modifier: mod}, nil
	}
	if m := flatExprRegex.FindStringSubmatch(text); m != nil {
		base, err := strconv.Atoi(m[1])
		if err != nil {
			return Expression{}, fmt.Errorf("%w: %q", ErrInvalidExpression, text)
		}
		mod := 0
		if m[2] != "" {
			mod, _ = strconv.Atoi(m[2])
		}
		return Expression{Raw: text, Count: 0, Sides: 0, Modifier: base + mod}, nil
	}
	return Expression{}, fmt.Errorf("%w: %q", ErrInvalidExpression, text)
}

// RollResult is the audit trail of one expression roll.
type RollResult struct {
	Expression string `json:"expression"`
	Rolls      []int  `json:"rolls"`
	Modifier   int    `json:"modifier"`
	Total      int    `json:"total"`
}

// Roll evaluates the expression: each die uniform in [1, Sides], total is
// the sum of rolls plus modifier. Flat expressions roll nothing.
func (r *Roller) Roll(expr Expression) RollResult {
	res := RollResult{Expression: expr.Raw, Modifier: expr.Modifier, Total: expr.Modifier}
	for i := 0; i < expr.Count; i++ {
		v := r.RollDie(expr.Sides)
		res.Rolls = append(res.Rolls, v)
		res.Total += v
	}
	return res
}

// RollDamage evaluates a damage expression. On a critical hit the number of
// dice is doubled; the modifier is never doubled and flat expressions are
// unaffected.
func (r *Roller) RollDamage(expr Expression, critical bool) RollResult {
	rolled := expr
	if critical && expr.Count > 0 {
		rolled.Count = expr.Count * 2
	}
	res := r.Roll(rolled)
	res.Expression = expr.Raw
	return res
}

// D20Mode selects how many d20s are rolled and which one counts.
type D20Mode string

const (
	Normal       D20Mode = "normal"
	Advantage    D20Mode = "advantage"
	Disadvantage D20Mode = "disadvantage"
)

// D20Result is the outcome of a d20 roll. Natural is the selected die face
// before the modifier; crit detection reads Natural, never Total.
type D20Result struct {
	Mode     D20Mode `json:"mode"`
	Rolls    []int   `json:"rolls"`
	Natural  int     `json:"natural"`
	Modifier int     `json:"modifier"`
	Total    int     `json:"total"`
}

// RollD20 rolls one d20 (normal) or two (advantage keeps the higher,
// disadvantage the lower) and adds the modifier.
func (r *Roller) RollD20(modifier int, mode D20Mode) D20Result {
	first := r.RollDie(20)
	res := D20Result{Mode: mode, Rolls: []int{first}, Natural: first, Modifier: modifier}
	if mode == Advantage || mode == Disadvantage {
		second := r.RollDie(20)
		res.Rolls = append(res.Rolls, second)
		if (mode == Advantage && second > first) || (mode == Disadvantage && second < first) {
			res.Natural = second
		}
	}
	res.Total = res.Natural + modifier
	return res
}
