// Package timeline schedules an agent's committed card plays into
// non-overlapping channel-constrained time windows within one tick.
package timeline

import (
	"duelforge.gg/internal/sim/catalogs"
	"duelforge.gg/internal/sim/combat"
)

// Source marks a play or modifier as a pool-card clone. A nil *Source
// means the card came from hand.
type Source struct {
	MasterID string
}

// Modifier is one stacked modifier card on a play.
type Modifier struct {
	CardID string
	Source *Source
}

// Play is one committed card-and-modifiers unit within a tick. Effective
// cost, damage, stakes and advantage overrides are folded from the
// modifier stack on every access, never cached, so external changes to a
// modifier are always reflected.
type Play struct {
	CardID     string
	TargetID   string
	Source     *Source
	BaseStakes combat.Stakes
	Modifiers  []Modifier

	// Applied by commit-phase modify_play effects; 1 means untouched.
	AppliedCostMult   float64
	AppliedDamageMult float64
	AppliedAdvantage  map[string]catalogs.AdvantageDelta
}

// NewPlay starts an unmodified play at the given stakes.
func NewPlay(cardID, targetID string, source *Source, stakes combat.Stakes) *Play {
	return &Play{
		CardID:            cardID,
		TargetID:          targetID,
		Source:            source,
		BaseStakes:        stakes,
		AppliedCostMult:   1,
		AppliedDamageMult: 1,
	}
}

// EffectiveStakes escalates with stack depth: the base at zero modifiers,
// committed at one, reckless at two or more.
func (p *Play) EffectiveStakes() combat.Stakes {
	return p.BaseStakes.Escalate(len(p.Modifiers))
}

// DamageMult folds the action card's own multiplier, every stacked
// modifier's multiplier, and any commit-phase modification. There is no
// cost counterpart: each card's cost multiplier is charged against its
// own cost at commit, and settlement rescales by AppliedCostMult alone.
func (p *Play) DamageMult(cats *catalogs.Catalogs) float64 {
	m := p.AppliedDamageMult
	if m == 0 {
		m = 1
	}
	if card, ok := cats.Cards.ByID[p.CardID]; ok && card.DamageMult != 0 {
		m *= card.DamageMult
	}
	for _, mod := range p.Modifiers {
		if card, ok := cats.Cards.ByID[mod.CardID]; ok && card.DamageMult != 0 {
			m *= card.DamageMult
		}
	}
	return m
}

// AdvantageOverrides merges per-outcome advantage overrides bottom-up:
// the technique's own table is handled elsewhere; this folds modifier
// overrides in stack order, then any commit-phase override on top.
func (p *Play) AdvantageOverrides(cats *catalogs.Catalogs) map[string]catalogs.AdvantageDelta {
	var out map[string]catalogs.AdvantageDelta
	merge := func(src map[string]catalogs.AdvantageDelta) {
		if len(src) == 0 {
			return
		}
		if out == nil {
			out = make(map[string]catalogs.AdvantageDelta, len(src))
		}
		for k, v := range src {
			out[k] = v
		}
	}
	for _, mod := range p.Modifiers {
		if card, ok := cats.Cards.ByID[mod.CardID]; ok {
			merge(card.AdvantageOverride)
		}
	}
	merge(p.AppliedAdvantage)
	return out
}
