package combat

import "duelforge.gg/internal/sim/catalogs"

// Engagement is the relational state between one ordered pair of agents.
// Each axis sits in [0,1]; 0.5 is neutral and >0.5 favors the
// canonically-first agent of the pair.
type Engagement struct {
	Pressure float64
	Control  float64
	Position float64
	Range    string
}

func NeutralEngagement() Engagement {
	return Engagement{Pressure: 0.5, Control: 0.5, Position: 0.5, Range: "melee"}
}

// AdvantageFor returns the blended advantage from the point of view of the
// canonically-first agent (first=true) or its opponent.
func (e Engagement) AdvantageFor(first bool) float64 {
	avg := (e.Pressure + e.Control + e.Position) / 3
	if !first {
		return 1 - avg
	}
	return avg
}

// BaseAdvantageEffect is the default per-outcome delta, from the
// attacker's perspective. Techniques may override individual outcomes.
func BaseAdvantageEffect(o Outcome) catalogs.AdvantageDelta {
	switch o {
	case Hit:
		return catalogs.AdvantageDelta{Pressure: 0.08, Control: 0.05, Position: 0.02, SelfBalance: 0.02, TargetBalance: -0.05}
	case Miss:
		return catalogs.AdvantageDelta{Pressure: -0.05, Control: -0.03, SelfBalance: -0.04}
	case Blocked:
		return catalogs.AdvantageDelta{Pressure: -0.02, Control: -0.04, SelfBalance: -0.02, TargetBalance: 0.02}
	case Parried:
		return catalogs.AdvantageDelta{Pressure: -0.06, Control: -0.06, SelfBalance: -0.05, TargetBalance: 0.03}
	case Deflected:
		return catalogs.AdvantageDelta{Pressure: -0.04, Control: -0.05, SelfBalance: -0.03, TargetBalance: 0.02}
	case Dodged:
		return catalogs.AdvantageDelta{Pressure: -0.05, Control: -0.02, Position: -0.04, SelfBalance: -0.03, TargetBalance: 0.02}
	case Countered:
		return catalogs.AdvantageDelta{Pressure: -0.08, Control: -0.08, SelfBalance: -0.08, TargetBalance: 0.05}
	default:
		return catalogs.AdvantageDelta{}
	}
}

// AdvantageKey is the override-table key for an outcome ("on_hit", ...).
func (o Outcome) AdvantageKey() string { return "on_" + o.String() }

// AdvantageEffectFor resolves the effect for an outcome: a technique (or
// play-level) override wins over the base table.
func AdvantageEffectFor(o Outcome, overrides map[string]catalogs.AdvantageDelta) catalogs.AdvantageDelta {
	if d, ok := overrides[o.AdvantageKey()]; ok {
		return d
	}
	return BaseAdvantageEffect(o)
}

// AxisChange is one observable advantage mutation. Relational changes are
// engagement axes; intrinsic changes are an agent's balance.
type AxisChange struct {
	Axis       string
	Delta      float64
	Relational bool
	OnTarget   bool // intrinsic change on the defender rather than attacker
}

// ApplyAdvantage adds the scaled delta to the engagement and to both
// agents' balance, saturating every axis into [0,1]. Relational deltas are
// attacker-relative: they are flipped when the attacker is not the
// canonically-first agent of the pair. Returns one change per nonzero
// axis delta.
func ApplyAdvantage(e *Engagement, attackerFirst bool, attBalance, defBalance *float64, d catalogs.AdvantageDelta, scale float64) []AxisChange {
	sign := 1.0
	if !attackerFirst {
		sign = -1
	}

	var changes []AxisChange
	rel := func(axis string, field *float64, delta float64) {
		if delta == 0 {
			return
		}
		applied := delta * scale * sign
		*field = clamp01(*field + applied)
		changes = append(changes, AxisChange{Axis: axis, Delta: applied, Relational: true})
	}
	rel("pressure", &e.Pressure, d.Pressure)
	rel("control", &e.Control, d.Control)
	rel("position", &e.Position, d.Position)

	if d.SelfBalance != 0 {
		applied := d.SelfBalance * scale
		*attBalance = clamp01(*attBalance + applied)
		changes = append(changes, AxisChange{Axis: "balance", Delta: applied})
	}
	if d.TargetBalance != 0 {
		applied := d.TargetBalance * scale
		*defBalance = clamp01(*defBalance + applied)
		changes = append(changes, AxisChange{Axis: "balance", Delta: applied, OnTarget: true})
	}
	return changes
}
