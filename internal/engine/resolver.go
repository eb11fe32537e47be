// Package engine is the deterministic combat-resolution core. Every
// resolver is a pure function of an immutable snapshot plus inputs and
// returns a result describing deltas and log entries; the owning session
// applies them. Randomness flows only through the dice.Roller handed in at
// construction.
package engine

import (
	"github.com/20q2/5e-combat-simulator-sub003/internal/catalog"
	"github.com/20q2/5e-combat-simulator-sub003/internal/dice"
)

// Resolver bundles the static catalog and the encounter roller. It holds no
// combat state of its own.
type Resolver struct {
	cat    *catalog.Catalog
	roller *dice.Roller
}

// NewResolver returns a Resolver over the given catalog and roller.
func NewResolver(cat *catalog.Catalog, roller *dice.Roller) *Resolver {
	return &Resolver{cat: cat, roller: roller}
}

// Roller exposes the encounter roller for callers that roll directly
// (initiative, death saves).
func (r *Resolver) Roller() *dice.Roller { return r.roller }

// Catalog exposes the rules catalog for callers that look up definitions.
func (r *Resolver) Catalog() *catalog.Catalog { return r.cat }

// Decision is the declined-with-reason result used for expected game-flow
// refusals (no valid target, exhausted resources). It is never an error:
// callers distinguish it from programmer errors such as malformed dice
// expressions, which surface as Go errors instead.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// Allow is the positive decision.
func Allow() Decision { return Decision{Allowed: true} }

// Decline carries the player-facing reason a resolver refused.
func Decline(reason string) Decision { return Decision{Allowed: false, Reason: reason} }
