package combat

import (
	"duelforge.gg/internal/sim/catalogs"
	"duelforge.gg/internal/sim/tuning"
)

// Damage kinds. The three-axis model only applies to the physical kinds;
// everything else rides on the legacy scalar fields.
const (
	KindPierce = "pierce"
	KindCut    = "cut"
	KindBlunt  = "blunt"
	KindBurn   = "burn"
	KindToxin  = "toxin"
	KindArcane = "arcane"
)

func IsPhysicalKind(kind string) bool {
	switch kind {
	case KindPierce, KindCut, KindBlunt:
		return true
	}
	return false
}

// Packet is one unit of incoming damage. Amount and Penetration are the
// legacy scalar fields kept for non-physical kinds; the three axes carry
// the physical model.
type Packet struct {
	Amount      float64
	Penetration float64
	Kind        string

	Geometry float64 // penetration/sharpness
	Energy   float64 // kinetic/blunt force
	Rigidity float64 // structural transfer
}

// StatBlock is the attacker stat snapshot a packet derivation reads.
type StatBlock struct {
	Power   float64
	Speed   float64
	Agility float64
	Skill   float64
}

func (s StatBlock) get(name string) float64 {
	switch name {
	case "power":
		return s.Power
	case "speed":
		return s.Speed
	case "agility":
		return s.Agility
	case "skill":
		return s.Skill
	default:
		return 0
	}
}

// scalingValue averages the listed stats; an empty list scales by power.
func (s StatBlock) scalingValue(stats []string) float64 {
	if len(stats) == 0 {
		return s.Power
	}
	sum := 0.0
	for _, name := range stats {
		sum += s.get(name)
	}
	return sum / float64(len(stats))
}

// DerivePacket turns (technique, weapon, attacker stats, stakes) into a
// packet. It is a pure function: identical inputs give identical packets.
func DerivePacket(tech catalogs.TechniqueDef, weap catalogs.WeaponDef, stats StatBlock, stakes Stakes, tun tuning.Tuning) Packet {
	base := 0.0
	for _, inst := range tech.Damage {
		base += inst.Amount
	}
	statScaling := stats.scalingValue(tech.Scaling.Stats) * tech.Scaling.Ratio

	offense := weap.Offense[tech.AttackMode]
	stakesMult := stakes.DamageMult(tun)

	amount := base * statScaling * offense.DamageMult * stakesMult

	kind := ""
	if len(tech.Damage) > 0 && len(tech.Damage[0].Types) > 0 {
		kind = tech.Damage[0].Types[0]
	}

	p := Packet{
		Amount:      amount,
		Penetration: offense.Penetration + offense.PenetrationMax/2,
		Kind:        kind,
	}
	if !IsPhysicalKind(kind) {
		return p
	}

	p.Energy = weap.Physics.ReferenceEnergyJ * statScaling * stakesMult * tech.AxisBias.EnergyMult
	p.Geometry = weap.Physics.GeometryCoeff * tech.AxisBias.GeometryMult
	p.Rigidity = weap.Physics.RigidityCoeff * tech.AxisBias.RigidityMult
	return p
}
