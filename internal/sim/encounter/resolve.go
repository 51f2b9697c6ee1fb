package encounter

import (
	"fmt"
	"sort"

	"duelforge.gg/internal/protocol"
	"duelforge.gg/internal/sim/body"
	"duelforge.gg/internal/sim/catalogs"
	"duelforge.gg/internal/sim/combat"
	"duelforge.gg/internal/sim/timeline"
)

// Resolution is one resolved attacker-defender pairing.
type Resolution struct {
	AttackerID  string
	DefenderID  string
	CardID      string
	TechniqueID string
	Outcome     combat.Outcome
	HitChance   float64
	Roll        float64
	TargetPart  string
	Packet      *combat.Packet
	ArmourTrace []combat.LayerResult
	Damage      *body.DamageResult
}

// TickResult is everything one tick produced, returned synchronously.
type TickResult struct {
	Tick        uint64
	Resolutions []Resolution
	Events      []protocol.Event
	Digest      string
}

// RunTick runs one full simultaneous-resolution tick: commit, pair,
// resolve, cleanup. It always runs to completion.
func (e *Encounter) RunTick() (TickResult, error) {
	e.events = e.events[:0]

	// Commit: AI strategies populate their own timelines; then
	// commit-phase card rules run over the full schedule.
	for _, id := range e.order {
		a := e.agents[id]
		if a.Strategy != nil && !a.Defeated() {
			a.Strategy.Populate(e, a)
		}
	}
	e.runCommitRules()

	// Pair and resolve in global window order.
	resolutions := e.resolveAttacks()

	// Cleanup: resolve-phase rules, cost settlement, card migration,
	// condition ticking, resource reset.
	e.runResolveRules()
	for _, id := range e.order {
		e.settleAgent(e.agents[id])
	}

	e.tick++
	digest := e.StateDigest()

	result := TickResult{
		Tick:        e.tick,
		Resolutions: resolutions,
		Events:      append([]protocol.Event(nil), e.events...),
		Digest:      digest,
	}
	if e.tickLogger != nil {
		if err := e.tickLogger.WriteTick(TickLogEntry{Tick: e.tick, Events: result.Events, Digest: digest}); err != nil {
			return result, fmt.Errorf("tick log: %w", err)
		}
	}
	return result, nil
}

// offensiveSlot is one attack queued for resolution.
type offensiveSlot struct {
	agentID string
	slot    timeline.Slot
}

func (e *Encounter) resolveAttacks() []Resolution {
	var queue []offensiveSlot
	for _, id := range e.order {
		for _, s := range e.agents[id].Timeline.Slots {
			card := e.cats.Cards.ByID[s.Play.CardID]
			tech := e.cats.Techniques.ByID[card.TechniqueID]
			if isOffensive(tech) {
				queue = append(queue, offensiveSlot{agentID: id, slot: s})
			}
		}
	}
	sort.SliceStable(queue, func(i, j int) bool {
		if queue[i].slot.Start != queue[j].slot.Start {
			return queue[i].slot.Start < queue[j].slot.Start
		}
		return queue[i].agentID < queue[j].agentID
	})

	var resolutions []Resolution
	for _, off := range queue {
		attacker := e.agents[off.agentID]
		// A commit-phase cancel may have pulled the play.
		if attacker.Timeline.IndexOf(off.slot.Play) < 0 {
			continue
		}
		card := e.cats.Cards.ByID[off.slot.Play.CardID]
		for _, defID := range e.targetsOf(off.agentID, card, off.slot.Play) {
			defender, ok := e.agents[defID]
			if !ok || defender.Defeated() {
				continue
			}
			res := e.resolveOne(attacker, defender, off.slot)
			resolutions = append(resolutions, res)
		}
	}
	return resolutions
}

func isOffensive(tech catalogs.TechniqueDef) bool {
	if tech.AttackMode == "" {
		return false
	}
	return tech.Category == "strike" || tech.Category == "feint"
}

// targetsOf expands a card's target query. An empty result is a normal
// branch, not an error.
func (e *Encounter) targetsOf(agentID string, card catalogs.CardDef, play *timeline.Play) []string {
	switch card.TargetQuery {
	case "all_enemies":
		return e.Opponents(agentID)
	case "self", "":
		return nil
	default: // single
		if play.TargetID == "" {
			return nil
		}
		if _, ok := e.agents[play.TargetID]; !ok {
			return nil
		}
		return []string{play.TargetID}
	}
}

// resolveOne runs the fixed pipeline for one pairing: outcome, advantage,
// then on hit packet through armour into the body. Advantage fires on
// every outcome; damage only on a hit.
func (e *Encounter) resolveOne(attacker, defender *Agent, slot timeline.Slot) Resolution {
	play := slot.Play
	card := e.cats.Cards.ByID[play.CardID]
	tech := e.cats.Techniques.ByID[card.TechniqueID]
	stakes := play.EffectiveStakes()

	eng, attackerFirst := e.engagement(attacker.ID, defender.ID)

	att := combat.AttackContext{
		Technique: tech,
		Weapon:    attacker.Weapon,
		Stakes:    stakes,
		Balance:   attacker.Balance,
		Advantage: eng.AdvantageFor(attackerFirst),
	}
	def := combat.DefenseContext{Balance: defender.Balance}
	if dt := e.activeDefense(defender, slot.Start, slot.End); dt != nil {
		def.Technique = dt
		def.Weapon = &defender.Weapon
	}

	outcome, chance, roll := combat.ResolveOutcome(att, def, e.stream("outcome"), e.tun)
	e.emit(protocol.Event{
		"t": e.tick, "type": protocol.EvOutcomeResolved,
		"attacker": attacker.ID, "defender": defender.ID,
		"card": play.CardID, "technique": tech.ID,
		"outcome": outcome.String(), "chance": chance, "roll": roll,
		"stakes": stakes.String(),
	})

	// Advantage applies for every outcome, including misses.
	overrides := make(map[string]catalogs.AdvantageDelta, len(tech.Advantage))
	for k, v := range tech.Advantage {
		overrides[k] = v
	}
	for k, v := range play.AdvantageOverrides(e.cats) {
		overrides[k] = v
	}
	delta := combat.AdvantageEffectFor(outcome, overrides)
	scale := stakes.AdvantageScale(outcome.Success(), e.tun)
	for _, ch := range combat.ApplyAdvantage(eng, attackerFirst, &attacker.Balance, &defender.Balance, delta, scale) {
		ev := protocol.Event{
			"t": e.tick, "type": protocol.EvAdvantageChanged,
			"axis": ch.Axis, "delta": ch.Delta,
		}
		if ch.Relational {
			ev["agent"] = attacker.ID
			ev["engagement_with"] = defender.ID
		} else if ch.OnTarget {
			ev["agent"] = defender.ID
		} else {
			ev["agent"] = attacker.ID
		}
		e.emit(ev)
	}

	res := Resolution{
		AttackerID:  attacker.ID,
		DefenderID:  defender.ID,
		CardID:      play.CardID,
		TechniqueID: tech.ID,
		Outcome:     outcome,
		HitChance:   chance,
		Roll:        roll,
	}
	if outcome != combat.Hit {
		return res
	}

	packet := combat.DerivePacket(tech, attacker.Weapon, attacker.Stats, stakes, e.tun)
	if dm := play.DamageMult(e.cats); dm != 1 {
		packet.Amount *= dm
		packet.Geometry *= dm
		packet.Energy *= dm
		packet.Rigidity *= dm
	}

	partIdx := e.pickTargetPart(defender, tech.Height)
	if partIdx < 0 {
		return res
	}
	partID := defender.Body.Parts[partIdx].Def.ID
	res.TargetPart = partID

	after, trace := combat.ResolveThroughArmour(defender.Armour[partIdx], packet, e.stream("armour"), e.tun)
	dres := defender.Body.ApplyDamage(partIdx, after, e.tun)

	res.Packet = &packet
	res.ArmourTrace = trace
	res.Damage = &dres

	for _, w := range dres.Wounds {
		e.emit(protocol.Event{
			"t": e.tick, "type": protocol.EvWoundInflicted,
			"agent": defender.ID, "part": partID,
			"layer": w.Layer, "material": w.Material,
			"severity": w.Severity.String(), "kind": w.Kind,
		})
	}
	if dres.Severed {
		e.emit(protocol.Event{
			"t": e.tick, "type": protocol.EvPartSevered,
			"agent": defender.ID, "part": partID, "by": attacker.ID,
		})
	}
	return res
}

// activeDefense finds the defender's defensive technique whose window
// overlaps the attack window, if any. Nil means passive defense.
func (e *Encounter) activeDefense(defender *Agent, start, end float64) *catalogs.TechniqueDef {
	for _, s := range defender.Timeline.Slots {
		card := e.cats.Cards.ByID[s.Play.CardID]
		tech, ok := e.cats.Techniques.ByID[card.TechniqueID]
		if !ok || !isDefensive(tech) {
			continue
		}
		if timeline.Overlaps(s.Start, s.End, start, end) {
			t := tech
			return &t
		}
	}
	return nil
}

func isDefensive(tech catalogs.TechniqueDef) bool {
	switch tech.Category {
	case "parry", "block", "deflect", "dodge":
		return true
	}
	return false
}

// heightTags maps a technique's height band to body part tags.
var heightTags = map[string][]string{
	"high": {"head", "neck", "eye", "ear"},
	"mid":  {"torso", "arm_upper", "arm_lower", "hand", "digit"},
	"low":  {"leg_upper", "leg_lower", "foot"},
}

// pickTargetPart draws a targetable part within the technique's height
// band, falling back to any targetable part. -1 means nothing left to hit.
func (e *Encounter) pickTargetPart(defender *Agent, height string) int {
	targetable := defender.Body.TargetableParts()
	if len(targetable) == 0 {
		return -1
	}
	if tags := heightTags[height]; tags != nil {
		var band []int
		for _, pi := range targetable {
			tag := defender.Body.Parts[pi].Def.Tag
			for _, t := range tags {
				if t == tag {
					band = append(band, pi)
					break
				}
			}
		}
		if len(band) > 0 {
			targetable = band
		}
	}
	return targetable[e.stream("target").IntN(len(targetable))]
}
