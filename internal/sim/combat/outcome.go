package combat

import (
	"duelforge.gg/internal/sim/catalogs"
	"duelforge.gg/internal/sim/rng"
	"duelforge.gg/internal/sim/tuning"
)

// Outcome of one attack resolution. Terminal in a single step.
type Outcome int

const (
	Undetermined Outcome = iota
	Hit
	Miss
	Blocked
	Parried
	Deflected
	Dodged
	Countered
)

func (o Outcome) String() string {
	switch o {
	case Hit:
		return "hit"
	case Miss:
		return "miss"
	case Blocked:
		return "blocked"
	case Parried:
		return "parried"
	case Deflected:
		return "deflected"
	case Dodged:
		return "dodged"
	case Countered:
		return "countered"
	default:
		return "undetermined"
	}
}

// Success reports whether the outcome favors the attacker.
func (o Outcome) Success() bool { return o == Hit }

// AttackContext is everything the hit-chance formula reads on the
// attacking side. Advantage is the attacker-relative engagement advantage
// in [0,1], 0.5 = neutral.
type AttackContext struct {
	Technique catalogs.TechniqueDef
	Weapon    catalogs.WeaponDef
	Stakes    Stakes
	Balance   float64
	Advantage float64
}

// DefenseContext is the defending side. Technique is nil for passive
// defense (no overlapping defensive play this tick).
type DefenseContext struct {
	Technique *catalogs.TechniqueDef
	Weapon    *catalogs.WeaponDef
	Balance   float64
}

// HitChance computes the attack's chance to land, hard-clamped into
// [tun.HitChanceMin, tun.HitChanceMax].
func HitChance(att AttackContext, def DefenseContext, tun tuning.Tuning) float64 {
	offense := att.Weapon.Offense[att.Technique.AttackMode]

	chance := 0.5
	chance -= att.Technique.Difficulty * 0.1
	chance += offense.Accuracy * 0.1
	chance += att.Stakes.HitShift()
	chance += (att.Advantage - 0.5) * 0.3
	chance += (att.Balance - 0.5) * 0.2

	if def.Technique != nil {
		chance *= counterMult(*def.Technique, att.Technique.AttackMode)
		if def.Weapon != nil {
			chance -= def.Weapon.Defense.Parry * 0.1
		}
	}

	chance += (1 - def.Balance) * 0.15

	if chance < tun.HitChanceMin {
		return tun.HitChanceMin
	}
	if chance > tun.HitChanceMax {
		return tun.HitChanceMax
	}
	return chance
}

func counterMult(def catalogs.TechniqueDef, attackMode string) float64 {
	var m float64
	switch attackMode {
	case "thrust":
		m = def.Counter.ThrustMult
	case "swing":
		m = def.Counter.SwingMult
	case "ranged":
		m = def.Counter.RangedMult
	}
	if m == 0 {
		return 1
	}
	return m
}

// ResolveOutcome draws once from the stream and maps the result to an
// outcome. A failed attack resolves to the failure mode of whichever
// defensive technique was active; a successful parry or deflect with a
// riposte technique upgrades to Countered.
func ResolveOutcome(att AttackContext, def DefenseContext, draw *rng.Stream, tun tuning.Tuning) (Outcome, float64, float64) {
	chance := HitChance(att, def, tun)
	roll := draw.Float64()
	if roll <= chance {
		return Hit, chance, roll
	}
	if def.Technique == nil {
		return Miss, chance, roll
	}
	switch def.Technique.Category {
	case "parry":
		if def.Technique.Riposte {
			return Countered, chance, roll
		}
		return Parried, chance, roll
	case "block":
		return Blocked, chance, roll
	case "deflect":
		if def.Technique.Riposte {
			return Countered, chance, roll
		}
		return Deflected, chance, roll
	case "dodge":
		return Dodged, chance, roll
	default:
		return Miss, chance, roll
	}
}
