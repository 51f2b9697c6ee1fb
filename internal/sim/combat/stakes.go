package combat

import (
	"fmt"

	"duelforge.gg/internal/sim/tuning"
)

// Stakes is the four-level commitment scale. Higher stakes raise both the
// damage dealt and the price of failure.
type Stakes int

const (
	Probing Stakes = iota
	Guarded
	Committed
	Reckless
)

func (s Stakes) String() string {
	switch s {
	case Probing:
		return "probing"
	case Guarded:
		return "guarded"
	case Committed:
		return "committed"
	case Reckless:
		return "reckless"
	default:
		return "unknown"
	}
}

// ParseStakes is the inverse of String.
func ParseStakes(s string) (Stakes, error) {
	switch s {
	case "probing":
		return Probing, nil
	case "guarded":
		return Guarded, nil
	case "committed":
		return Committed, nil
	case "reckless":
		return Reckless, nil
	default:
		return Guarded, fmt.Errorf("unknown stakes %q", s)
	}
}

// Escalate raises stakes by n steps, saturating at reckless.
func (s Stakes) Escalate(n int) Stakes {
	v := int(s) + n
	if v > int(Reckless) {
		return Reckless
	}
	return Stakes(v)
}

func (s Stakes) DamageMult(t tuning.Tuning) float64 {
	switch s {
	case Probing:
		return t.Stakes.Probing
	case Committed:
		return t.Stakes.Committed
	case Reckless:
		return t.Stakes.Reckless
	default:
		return t.Stakes.Guarded
	}
}

// HitShift is the additive hit-chance term per stakes level.
func (s Stakes) HitShift() float64 {
	switch s {
	case Probing:
		return -0.1
	case Committed:
		return 0.1
	case Reckless:
		return 0.2
	default:
		return 0
	}
}

// AdvantageScale scales an advantage effect by stakes. Failures are
// penalized harder than successes at high stakes.
func (s Stakes) AdvantageScale(success bool, t tuning.Tuning) float64 {
	switch s {
	case Probing:
		return t.AdvantageScale.Probing
	case Committed:
		if success {
			return t.AdvantageScale.CommittedSuccess
		}
		return t.AdvantageScale.CommittedFailure
	case Reckless:
		if success {
			return t.AdvantageScale.RecklessSuccess
		}
		return t.AdvantageScale.RecklessFailure
	default:
		return t.AdvantageScale.Guarded
	}
}
