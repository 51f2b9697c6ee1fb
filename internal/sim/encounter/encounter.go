// Package encounter orchestrates a full combat encounter: agents, their
// engagements, and the tick resolution loop.
package encounter

import (
	"fmt"
	"sort"

	"duelforge.gg/internal/protocol"
	"duelforge.gg/internal/sim/catalogs"
	"duelforge.gg/internal/sim/combat"
	"duelforge.gg/internal/sim/rng"
	"duelforge.gg/internal/sim/timeline"
	"duelforge.gg/internal/sim/tuning"
)

// TickLogger receives one entry per resolved tick. Implemented in
// internal/persistence; may be nil.
type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

type TickLogEntry struct {
	Tick   uint64           `json:"tick"`
	Events []protocol.Event `json:"events,omitempty"`
	Digest string           `json:"digest"`
}

// Config sets up an encounter.
type Config struct {
	ID     string
	Seed   int64
	Agents []AgentConfig
}

// reservation tracks resources committed for a play until cleanup
// settles them.
type reservation struct {
	stamina float64
	focus   float64
}

// Encounter is a single-threaded authoritative combat simulation. All
// state must be accessed from one goroutine; ticks run to completion.
type Encounter struct {
	ID   string
	cats *catalogs.Catalogs
	tun  tuning.Tuning
	seed int64
	tick uint64

	agents map[string]*Agent
	order  []string

	engagements map[pairKey]*combat.Engagement

	reserved map[*timeline.Play]reservation

	streams map[string]*rng.Stream

	events []protocol.Event

	tickLogger TickLogger
}

type pairKey struct{ a, b string }

func orderedPair(a, b string) (pairKey, bool) {
	if a < b {
		return pairKey{a, b}, true
	}
	return pairKey{b, a}, false
}

// New builds an encounter with all agents constructed up front.
func New(cats *catalogs.Catalogs, tun tuning.Tuning, cfg Config) (*Encounter, error) {
	if len(cfg.Agents) < 2 {
		return nil, fmt.Errorf("encounter %q: need at least two agents", cfg.ID)
	}
	e := &Encounter{
		ID:          cfg.ID,
		cats:        cats,
		tun:         tun,
		seed:        cfg.Seed,
		agents:      make(map[string]*Agent, len(cfg.Agents)),
		engagements: make(map[pairKey]*combat.Engagement),
		reserved:    make(map[*timeline.Play]reservation),
		streams:     make(map[string]*rng.Stream),
	}
	for _, ac := range cfg.Agents {
		if _, dup := e.agents[ac.ID]; dup {
			return nil, fmt.Errorf("encounter %q: duplicate agent id %q", cfg.ID, ac.ID)
		}
		a, err := newAgent(cats, tun, ac)
		if err != nil {
			return nil, err
		}
		e.agents[ac.ID] = a
		e.order = append(e.order, ac.ID)
	}
	sort.Strings(e.order)
	return e, nil
}

// SetTickLogger attaches a journal sink; nil disables logging.
func (e *Encounter) SetTickLogger(l TickLogger) { e.tickLogger = l }

// Catalogs exposes the static data tables the encounter was built from.
func (e *Encounter) Catalogs() *catalogs.Catalogs { return e.cats }

// Tuning exposes the balance constants in effect.
func (e *Encounter) Tuning() tuning.Tuning { return e.tun }

// Tick is the number of completed ticks.
func (e *Encounter) Tick() uint64 { return e.tick }

// Agent looks up a combatant.
func (e *Encounter) Agent(id string) (*Agent, bool) {
	a, ok := e.agents[id]
	return a, ok
}

// AgentIDs returns all agent ids in deterministic order.
func (e *Encounter) AgentIDs() []string {
	return append([]string(nil), e.order...)
}

// Opponents returns every other agent's id, in deterministic order.
func (e *Encounter) Opponents(id string) []string {
	var out []string
	for _, other := range e.order {
		if other != id {
			out = append(out, other)
		}
	}
	return out
}

// engagement returns the pair's relational state, creating it lazily, and
// whether the given attacker is the canonically-first agent of the pair.
func (e *Encounter) engagement(attacker, defender string) (*combat.Engagement, bool) {
	key, attackerFirst := orderedPair(attacker, defender)
	eng, ok := e.engagements[key]
	if !ok {
		n := combat.NeutralEngagement()
		eng = &n
		e.engagements[key] = eng
	}
	return eng, attackerFirst
}

// stream returns the named random stream, creating it on first use. Every
// draw is recorded as an event.
func (e *Encounter) stream(id string) *rng.Stream {
	s, ok := e.streams[id]
	if !ok {
		s = rng.New(e.seed, id)
		s.SetSink(e)
		e.streams[id] = s
	}
	return s
}

// RecordDraw implements rng.Sink: every sample is an observable event.
func (e *Encounter) RecordDraw(stream string, counter uint64, value float64) {
	e.emit(protocol.Event{
		"t": e.tick, "type": protocol.EvRandomDraw,
		"stream": stream, "n": counter, "value": value,
	})
}

func (e *Encounter) emit(ev protocol.Event) {
	e.events = append(e.events, ev)
}

// SchedulePlay validates and schedules a card play for an agent,
// committing its resource cost. On any failure the agent's state is left
// untouched.
func (e *Encounter) SchedulePlay(agentID, cardID, targetID string, source *timeline.Source, stakes combat.Stakes) (int, error) {
	a, ok := e.agents[agentID]
	if !ok {
		return 0, fmt.Errorf("agent %q: not in encounter", agentID)
	}
	card, ok := e.cats.Cards.ByID[cardID]
	if !ok {
		return 0, fmt.Errorf("card %q: %w", cardID, catalogs.ErrUnknownCard)
	}
	if card.Kind != "action" {
		return 0, fmt.Errorf("card %q: not an action card", cardID)
	}
	if source == nil {
		if !a.Zones.RemoveFromHand(cardID) {
			return 0, fmt.Errorf("card %q: not in hand", cardID)
		}
	} else if !a.Zones.PoolAvailable(source.MasterID) {
		return 0, fmt.Errorf("pool card %q: on cooldown", source.MasterID)
	}

	cost := cardCost(card)
	undo := func() {
		if source == nil {
			a.Zones.ReturnToHand(cardID)
		}
	}
	if err := a.Stam.Commit(cost.stamina); err != nil {
		undo()
		return 0, err
	}
	if err := a.Foc.Commit(cost.focus); err != nil {
		a.Stam.Uncommit(cost.stamina)
		undo()
		return 0, err
	}

	play := timeline.NewPlay(cardID, targetID, source, stakes)
	slot, err := a.Timeline.AddPlay(play, e.cats, e.tun)
	if err != nil {
		a.Stam.Uncommit(cost.stamina)
		a.Foc.Uncommit(cost.focus)
		undo()
		return 0, err
	}
	e.reserved[play] = cost
	e.emit(protocol.Event{
		"t": e.tick, "type": protocol.EvPlayScheduled,
		"agent": agentID, "card": cardID, "slot": slot,
		"start": a.Timeline.Slots[slot].Start, "end": a.Timeline.Slots[slot].End,
	})
	return slot, nil
}

// AddModifier stacks a modifier card onto a scheduled play, committing
// the modifier's own cost.
func (e *Encounter) AddModifier(agentID string, slot int, cardID string, source *timeline.Source) error {
	a, ok := e.agents[agentID]
	if !ok {
		return fmt.Errorf("agent %q: not in encounter", agentID)
	}
	card, ok := e.cats.Cards.ByID[cardID]
	if !ok {
		return fmt.Errorf("card %q: %w", cardID, catalogs.ErrUnknownCard)
	}
	if card.Kind != "modifier" {
		return fmt.Errorf("card %q: not a modifier card", cardID)
	}
	if source == nil && !a.Zones.RemoveFromHand(cardID) {
		return fmt.Errorf("card %q: not in hand", cardID)
	}

	cost := cardCost(card)
	undo := func() {
		if source == nil {
			a.Zones.ReturnToHand(cardID)
		}
	}
	if err := a.Stam.Commit(cost.stamina); err != nil {
		undo()
		return err
	}
	if err := a.Foc.Commit(cost.focus); err != nil {
		a.Stam.Uncommit(cost.stamina)
		undo()
		return err
	}
	if err := a.Timeline.AddModifier(slot, cardID, source, e.tun); err != nil {
		a.Stam.Uncommit(cost.stamina)
		a.Foc.Uncommit(cost.focus)
		undo()
		return err
	}
	play := a.Timeline.Slots[slot].Play
	prev := e.reserved[play]
	e.reserved[play] = reservation{stamina: prev.stamina + cost.stamina, focus: prev.focus + cost.focus}
	return nil
}

// WithdrawPlay removes an unmodified play, releasing its reservation and
// returning the card to hand (or refunding a pool master's cooldown).
func (e *Encounter) WithdrawPlay(agentID string, slot int) error {
	a, ok := e.agents[agentID]
	if !ok {
		return fmt.Errorf("agent %q: not in encounter", agentID)
	}
	play, err := a.Timeline.RemovePlay(slot)
	if err != nil {
		return err
	}
	res := e.reserved[play]
	delete(e.reserved, play)
	a.Stam.Uncommit(res.stamina)
	a.Foc.Uncommit(res.focus)
	if play.Source == nil {
		a.Zones.ReturnToHand(play.CardID)
	} else {
		a.Zones.RefundCooldown(play.Source.MasterID)
	}
	return nil
}

func cardCost(card catalogs.CardDef) reservation {
	cost := reservation{stamina: card.Cost.Stamina, focus: card.Cost.Focus}
	if card.CostMult != 0 {
		cost.stamina *= card.CostMult
		cost.focus *= card.CostMult
	}
	return cost
}
