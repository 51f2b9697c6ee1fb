package encounter

import (
	"duelforge.gg/internal/protocol"
	"duelforge.gg/internal/sim/timeline"
)

// settleAgent is the per-agent tail of cleanup: spend committed costs,
// retire cards to their terminal zones, tick conditions and cooldowns,
// and reset resources for the next tick.
func (e *Encounter) settleAgent(a *Agent) {
	// Count existing cooldowns down before this tick's plays start new
	// ones, so a cooldown of N really lasts N ticks.
	a.Zones.TickCooldowns()

	for _, s := range a.Timeline.Slots {
		play := s.Play
		res := e.reserved[play]
		delete(e.reserved, play)

		// Commit-phase modify_play can rescale the reserved cost. A
		// discount releases the difference; a surcharge draws more only
		// if it is still available.
		factor := play.AppliedCostMult
		if factor == 0 {
			factor = 1
		}
		stam := e.settleCost(&a.Stam, res.stamina, factor)
		foc := e.settleCost(&a.Foc, res.focus, factor)
		if stam > 0 {
			e.emit(protocol.Event{
				"t": e.tick, "type": protocol.EvResourceDeducted,
				"agent": a.ID, "resource": "stamina", "amount": -stam, "card": play.CardID,
			})
		}
		if foc > 0 {
			e.emit(protocol.Event{
				"t": e.tick, "type": protocol.EvResourceDeducted,
				"agent": a.ID, "resource": "focus", "amount": -foc, "card": play.CardID,
			})
		}

		e.retireCard(a, play.CardID, play.Source, true)
		for _, m := range play.Modifiers {
			e.retireCard(a, m.CardID, m.Source, true)
		}
	}
	a.Timeline.Reset()

	e.tickConditions(a)

	before := a.Stam.Current
	a.Stam.Reset()
	if d := a.Stam.Current - before; d > 0 {
		e.emit(protocol.Event{
			"t": e.tick, "type": protocol.EvResourceRecovered,
			"agent": a.ID, "resource": "stamina", "amount": d,
		})
	}
	before = a.Foc.Current
	a.Foc.Reset()
	if d := a.Foc.Current - before; d > 0 {
		e.emit(protocol.Event{
			"t": e.tick, "type": protocol.EvResourceRecovered,
			"agent": a.ID, "resource": "focus", "amount": d,
		})
	}
}

// settleCost turns a reservation into a real spend and returns the amount
// actually spent.
func (e *Encounter) settleCost(p *Pool, reserved, factor float64) float64 {
	if reserved <= 0 {
		return 0
	}
	final := reserved * factor
	if final < reserved {
		p.Uncommit(reserved - final)
	} else if final > reserved {
		if err := p.Commit(final - reserved); err != nil {
			final = reserved
		}
	}
	p.Spend(final)
	return final
}

// retireCard moves a card to its terminal zone. resolved distinguishes a
// play that ran (pool masters start their cooldown) from one that was
// canceled (cooldown refunded).
func (e *Encounter) retireCard(a *Agent, cardID string, source *timeline.Source, resolved bool) {
	card, ok := e.cats.Cards.ByID[cardID]
	if !ok {
		return
	}
	if source != nil {
		if resolved {
			a.Zones.StartCooldown(source.MasterID, card.Cooldown)
		} else {
			a.Zones.RefundCooldown(source.MasterID)
		}
		return
	}
	zone := "discard"
	if resolved && card.Cost.Exhausts {
		a.Zones.ToExhaust(cardID)
		zone = "exhaust"
	} else {
		a.Zones.ToDiscard(cardID)
	}
	e.emit(protocol.Event{
		"t": e.tick, "type": protocol.EvCardMoved,
		"agent": a.ID, "card": cardID, "zone": zone,
	})
}

// tickConditions counts every condition down by one, expiring at zero and
// chaining to any successor. Conditions applied this tick skip their
// first countdown.
func (e *Encounter) tickConditions(a *Agent) {
	kept := a.Conditions[:0]
	var successors []string
	for _, c := range a.Conditions {
		if c.fresh {
			c.fresh = false
			kept = append(kept, c)
			continue
		}
		c.Remaining--
		if c.Remaining > 0 {
			kept = append(kept, c)
			continue
		}
		e.emit(protocol.Event{
			"t": e.tick, "type": protocol.EvConditionExpired,
			"agent": a.ID, "condition": c.ID,
		})
		if def, ok := e.cats.Conditions.ByID[c.ID]; ok && def.Successor != "" {
			successors = append(successors, def.Successor)
		}
	}
	a.Conditions = kept
	for _, id := range successors {
		e.applyCondition(a, id)
	}
}
