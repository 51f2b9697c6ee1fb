package encounter

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// digestPart is the canonical per-part state for hashing.
type digestPart struct {
	ID        string  `json:"id"`
	Integrity float64 `json:"integrity"`
	Wounds    int     `json:"wounds"`
	Severed   bool    `json:"severed,omitempty"`
}

type digestCondition struct {
	ID        string `json:"id"`
	Remaining int    `json:"remaining"`
}

type digestAgent struct {
	ID         string            `json:"id"`
	Stamina    [2]float64        `json:"stamina"` // current, available
	Focus      [2]float64        `json:"focus"`
	Balance    float64           `json:"balance"`
	Parts      []digestPart      `json:"parts"`
	Conditions []digestCondition `json:"conditions,omitempty"`
	Hand       []string          `json:"hand"`
	Discard    []string          `json:"discard"`
	Exhaust    []string          `json:"exhaust"`
	Cooldowns  map[string]int    `json:"cooldowns,omitempty"`
}

type digestEngagement struct {
	Pair     [2]string `json:"pair"`
	Pressure float64   `json:"pressure"`
	Control  float64   `json:"control"`
	Position float64   `json:"position"`
	Range    string    `json:"range"`
}

type digestState struct {
	Tick        uint64             `json:"tick"`
	Agents      []digestAgent      `json:"agents"`
	Engagements []digestEngagement `json:"engagements,omitempty"`
	Draws       map[string]uint64  `json:"draws,omitempty"`
}

// StateDigest hashes the complete mutable encounter state into a stable
// hex string. Two encounters that ran the same seed and inputs must agree
// on every tick's digest; replay verification depends on it.
func (e *Encounter) StateDigest() string {
	st := digestState{Tick: e.tick}

	for _, id := range e.order {
		a := e.agents[id]
		da := digestAgent{
			ID:      a.ID,
			Stamina: [2]float64{a.Stam.Current, a.Stam.Available},
			Focus:   [2]float64{a.Foc.Current, a.Foc.Available},
			Balance: a.Balance,
			Hand:    sortedCopy(a.Zones.Hand),
			Discard: sortedCopy(a.Zones.Discard),
			Exhaust: sortedCopy(a.Zones.Exhaust),
		}
		for _, p := range a.Body.Parts {
			da.Parts = append(da.Parts, digestPart{
				ID:        p.Def.ID,
				Integrity: p.Integrity,
				Wounds:    len(p.Wounds),
				Severed:   p.Severed,
			})
		}
		for _, c := range a.Conditions {
			da.Conditions = append(da.Conditions, digestCondition{ID: c.ID, Remaining: c.Remaining})
		}
		sort.Slice(da.Conditions, func(i, j int) bool { return da.Conditions[i].ID < da.Conditions[j].ID })
		if len(a.Zones.Cooldowns) > 0 {
			da.Cooldowns = a.Zones.Cooldowns
		}
		st.Agents = append(st.Agents, da)
	}

	keys := make([]pairKey, 0, len(e.engagements))
	for k := range e.engagements {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].a != keys[j].a {
			return keys[i].a < keys[j].a
		}
		return keys[i].b < keys[j].b
	})
	for _, k := range keys {
		eng := e.engagements[k]
		st.Engagements = append(st.Engagements, digestEngagement{
			Pair:     [2]string{k.a, k.b},
			Pressure: eng.Pressure,
			Control:  eng.Control,
			Position: eng.Position,
			Range:    eng.Range,
		})
	}

	// Draw counters catch runs that land in the same visible state by a
	// different random path. Marshal sorts the map keys.
	if len(e.streams) > 0 {
		st.Draws = make(map[string]uint64, len(e.streams))
		for id, s := range e.streams {
			st.Draws[id] = s.Counter()
		}
	}

	raw, err := json.Marshal(st)
	if err != nil {
		// Every field above is a plain value type; this cannot fail.
		panic(err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}
