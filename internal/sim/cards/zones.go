// Package cards tracks per-agent card zones and evaluates the
// rule/predicate/effect data that cards carry.
package cards

import (
	"fmt"

	"duelforge.gg/internal/sim/catalogs"
)

// Zone names a card's current home.
type Zone int

const (
	ZoneHand Zone = iota
	ZoneDiscard
	ZoneExhaust
)

func (z Zone) String() string {
	switch z {
	case ZoneDiscard:
		return "discard"
	case ZoneExhaust:
		return "exhaust"
	default:
		return "hand"
	}
}

// Zones is one agent's card state: hand, discard and exhaust piles, plus
// cooldown counters for pool masters. Pool cards are never zoned; playing
// one clones it, and resolving the clone starts the master's cooldown.
type Zones struct {
	Hand      []string
	Discard   []string
	Exhaust   []string
	Cooldowns map[string]int
}

// NewZones deals a starting hand.
func NewZones(hand []string) *Zones {
	return &Zones{
		Hand:      append([]string(nil), hand...),
		Cooldowns: make(map[string]int),
	}
}

// RemoveFromHand takes one copy of a card out of hand. It is the caller's
// job to put it somewhere.
func (z *Zones) RemoveFromHand(cardID string) bool {
	for i, id := range z.Hand {
		if id == cardID {
			z.Hand = append(z.Hand[:i], z.Hand[i+1:]...)
			return true
		}
	}
	return false
}

// ReturnToHand undoes RemoveFromHand for a withdrawn play.
func (z *Zones) ReturnToHand(cardID string) {
	z.Hand = append(z.Hand, cardID)
}

// ToDiscard moves a resolved hand card to the discard pile.
func (z *Zones) ToDiscard(cardID string) {
	z.Discard = append(z.Discard, cardID)
}

// ToExhaust moves a spent card to the exhaust pile; exhausted cards do
// not cycle back.
func (z *Zones) ToExhaust(cardID string) {
	z.Exhaust = append(z.Exhaust, cardID)
}

// PoolAvailable reports whether a pool master is off cooldown.
func (z *Zones) PoolAvailable(masterID string) bool {
	return z.Cooldowns[masterID] == 0
}

// StartCooldown begins a pool master's cooldown after its clone resolves.
func (z *Zones) StartCooldown(masterID string, ticks int) {
	if ticks > 0 {
		z.Cooldowns[masterID] = ticks
	}
}

// RefundCooldown clears a master's cooldown when its clone is destroyed
// without resolving.
func (z *Zones) RefundCooldown(masterID string) {
	delete(z.Cooldowns, masterID)
}

// TickCooldowns counts every active cooldown down by one.
func (z *Zones) TickCooldowns() {
	for id, n := range z.Cooldowns {
		if n <= 1 {
			delete(z.Cooldowns, id)
		} else {
			z.Cooldowns[id] = n - 1
		}
	}
}

// Validate checks that every card id in hand exists in the catalog.
func (z *Zones) Validate(cats *catalogs.Catalogs) error {
	for _, id := range z.Hand {
		if _, ok := cats.Cards.ByID[id]; !ok {
			return fmt.Errorf("hand card %q: %w", id, catalogs.ErrUnknownCard)
		}
	}
	return nil
}
