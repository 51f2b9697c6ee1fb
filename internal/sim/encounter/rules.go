package encounter

import (
	"duelforge.gg/internal/protocol"
	"duelforge.gg/internal/sim/cards"
	"duelforge.gg/internal/sim/catalogs"
	"duelforge.gg/internal/sim/timeline"
)

// runCommitRules evaluates every scheduled card's on_commit rules, in
// agent then slot order, and applies modify_play/cancel_play effects to
// the matching plays.
func (e *Encounter) runCommitRules() {
	for _, id := range e.order {
		a := e.agents[id]
		// Snapshot: cancel_play mutates the timelines under us.
		slots := append([]timeline.Slot(nil), a.Timeline.Slots...)
		for _, s := range slots {
			if a.Timeline.IndexOf(s.Play) < 0 {
				continue
			}
			for _, cardID := range playCards(s.Play) {
				card, ok := e.cats.Cards.ByID[cardID]
				if !ok {
					continue
				}
				for _, eff := range cards.TriggeredEffects(card, cards.TriggerCommit, a, s.Play.EffectiveStakes()) {
					e.applyCommitEffect(a, eff)
				}
			}
		}
	}
}

// playCards lists the action card and every stacked modifier card.
func playCards(p *timeline.Play) []string {
	out := []string{p.CardID}
	for _, m := range p.Modifiers {
		out = append(out, m.CardID)
	}
	return out
}

func (e *Encounter) applyCommitEffect(owner *Agent, eff catalogs.EffectDef) {
	var holders []*Agent
	switch eff.Target {
	case "my_plays":
		holders = []*Agent{owner}
	case "opponent_plays":
		for _, id := range e.Opponents(owner.ID) {
			holders = append(holders, e.agents[id])
		}
	default:
		return
	}

	for _, holder := range holders {
		// Walk a snapshot; cancellation shifts slot indices.
		slots := append([]timeline.Slot(nil), holder.Timeline.Slots...)
		for _, s := range slots {
			card, ok := e.cats.Cards.ByID[s.Play.CardID]
			if !ok {
				continue
			}
			tech, ok := e.cats.Techniques.ByID[card.TechniqueID]
			if !ok || !cards.MatchesPlay(eff, tech) {
				continue
			}
			switch eff.Op {
			case cards.EffectModifyPlay:
				if eff.CostMult != 0 {
					s.Play.AppliedCostMult *= eff.CostMult
				}
				if eff.DamageMult != 0 {
					s.Play.AppliedDamageMult *= eff.DamageMult
				}
			case cards.EffectCancelPlay:
				e.cancelPlay(holder, s.Play)
			}
		}
	}
}

// cancelPlay force-removes a play, refunds its reservation, and retires
// its cards.
func (e *Encounter) cancelPlay(a *Agent, play *timeline.Play) {
	idx := a.Timeline.IndexOf(play)
	if idx < 0 {
		return
	}
	a.Timeline.Cancel(idx)
	res := e.reserved[play]
	delete(e.reserved, play)
	a.Stam.Uncommit(res.stamina)
	a.Foc.Uncommit(res.focus)

	e.emit(protocol.Event{
		"t": e.tick, "type": protocol.EvPlayCanceled,
		"agent": a.ID, "card": play.CardID,
	})
	e.retireCard(a, play.CardID, play.Source, false)
	for _, m := range play.Modifiers {
		e.retireCard(a, m.CardID, m.Source, false)
	}
}

// runResolveRules evaluates on_resolve rules for every play still
// scheduled, applying resource and condition effects to agents.
func (e *Encounter) runResolveRules() {
	for _, id := range e.order {
		a := e.agents[id]
		for _, s := range a.Timeline.Slots {
			for _, cardID := range playCards(s.Play) {
				card, ok := e.cats.Cards.ByID[cardID]
				if !ok {
					continue
				}
				for _, eff := range cards.TriggeredEffects(card, cards.TriggerResolve, a, s.Play.EffectiveStakes()) {
					e.applyResolveEffect(a, eff)
				}
			}
		}
	}
}

func (e *Encounter) applyResolveEffect(owner *Agent, eff catalogs.EffectDef) {
	var targets []*Agent
	switch eff.Target {
	case "self":
		targets = []*Agent{owner}
	case "all_enemies":
		for _, id := range e.Opponents(owner.ID) {
			targets = append(targets, e.agents[id])
		}
	default:
		return
	}

	for _, t := range targets {
		switch eff.Op {
		case cards.EffectModifyStamina:
			e.adjustPool(t, "stamina", &t.Stam, eff.Amount)
		case cards.EffectModifyFocus:
			e.adjustPool(t, "focus", &t.Foc, eff.Amount)
		case cards.EffectApplyCondition:
			e.applyCondition(t, eff.Condition)
		}
	}
}

func (e *Encounter) adjustPool(a *Agent, name string, p *Pool, amount float64) {
	if amount == 0 {
		return
	}
	p.Current += amount
	if p.Current > p.Max {
		p.Current = p.Max
	}
	if p.Current < 0 {
		p.Current = 0
	}
	if p.Available > p.Current {
		p.Available = p.Current
	}
	evType := protocol.EvResourceRecovered
	if amount < 0 {
		evType = protocol.EvResourceDeducted
	}
	e.emit(protocol.Event{
		"t": e.tick, "type": evType,
		"agent": a.ID, "resource": name, "amount": amount,
	})
}

// applyCondition attaches a condition, or restarts its timer when already
// present. Fresh conditions skip their first countdown so ticks=1 lasts a
// full tick.
func (e *Encounter) applyCondition(a *Agent, condID string) {
	def, ok := e.cats.Conditions.ByID[condID]
	if !ok {
		return
	}
	for i := range a.Conditions {
		if a.Conditions[i].ID == condID {
			a.Conditions[i].Remaining = def.Ticks
			return
		}
	}
	a.Conditions = append(a.Conditions, ActiveCondition{ID: condID, Remaining: def.Ticks, fresh: true})
	e.emit(protocol.Event{
		"t": e.tick, "type": protocol.EvConditionApplied,
		"agent": a.ID, "condition": condID, "ticks": def.Ticks,
	})
}
