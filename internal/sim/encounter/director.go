package encounter

import (
	"duelforge.gg/internal/sim/combat"
	"duelforge.gg/internal/sim/timeline"
)

// Strategy populates an AI agent's timeline at the start of each tick.
// Player agents carry a nil Strategy and schedule through SchedulePlay.
type Strategy interface {
	Populate(e *Encounter, a *Agent)
}

// FirstValidStrategy plays the first N hand cards that schedule cleanly,
// targeting the first opponent. Failures (no space, no resources) skip to
// the next card.
type FirstValidStrategy struct {
	N      int
	Stakes combat.Stakes
}

func (s FirstValidStrategy) Populate(e *Encounter, a *Agent) {
	opps := e.Opponents(a.ID)
	if len(opps) == 0 {
		return
	}
	target := opps[0]

	scheduled := 0
	hand := append([]string(nil), a.Zones.Hand...)
	for _, cardID := range hand {
		if scheduled >= s.N {
			return
		}
		card, ok := e.cats.Cards.ByID[cardID]
		if !ok || card.Kind != "action" {
			continue
		}
		tgt := target
		if card.TargetQuery == "self" {
			tgt = ""
		}
		if _, err := e.SchedulePlay(a.ID, cardID, tgt, nil, s.Stakes); err != nil {
			continue
		}
		scheduled++
	}
}

// PoolStrategy draws up to N random plays from the agent's
// always-available pool, skipping masters on cooldown. Draws come from
// the encounter's director stream so AI decisions replay exactly.
type PoolStrategy struct {
	N      int
	Stakes combat.Stakes
}

func (s PoolStrategy) Populate(e *Encounter, a *Agent) {
	opps := e.Opponents(a.ID)
	if len(opps) == 0 {
		return
	}
	target := opps[0]

	var ready []string
	for _, id := range a.PoolIDs {
		if a.Zones.PoolAvailable(id) {
			ready = append(ready, id)
		}
	}

	draw := e.stream("director")
	scheduled := 0
	for scheduled < s.N && len(ready) > 0 {
		i := draw.IntN(len(ready))
		masterID := ready[i]
		ready = append(ready[:i], ready[i+1:]...)

		card := e.cats.Cards.ByID[masterID]
		tgt := target
		if card.TargetQuery == "self" {
			tgt = ""
		}
		if _, err := e.SchedulePlay(a.ID, masterID, tgt, &timeline.Source{MasterID: masterID}, s.Stakes); err != nil {
			continue
		}
		scheduled++
	}
}
