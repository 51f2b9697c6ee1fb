package combat

import (
	"math"
	"testing"

	"duelforge.gg/internal/sim/catalogs"
	"duelforge.gg/internal/sim/tuning"
)

func evenStats() StatBlock {
	return StatBlock{Power: 1, Speed: 1, Agility: 1, Skill: 1}
}

func TestDerivePacketThrustAxes(t *testing.T) {
	cats := loadCats(t)
	tun := tuning.Default()

	p := DerivePacket(cats.Techniques.ByID["thrust"], cats.Weapons.ByID["arming_sword"], evenStats(), Guarded, tun)

	// scaling = avg(power,speed)*0.6 = 0.6
	approx := func(name string, got, want float64) {
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("%s = %v, want %v", name, got, want)
		}
	}
	approx("amount", p.Amount, 1.0*0.6*1.0*1.0)
	approx("penetration", p.Penetration, 0.5+1.2/2)
	approx("energy", p.Energy, 10.7*0.6*1.0*0.7)
	approx("geometry", p.Geometry, 0.6*2.4)
	approx("rigidity", p.Rigidity, 0.5*0.8)
	if p.Kind != KindPierce {
		t.Fatalf("kind = %q", p.Kind)
	}
}

func TestDerivePacketIsPure(t *testing.T) {
	cats := loadCats(t)
	tun := tuning.Default()
	tech := cats.Techniques.ByID["swing"]
	weap := cats.Weapons.ByID["arming_sword"]

	a := DerivePacket(tech, weap, evenStats(), Committed, tun)
	b := DerivePacket(tech, weap, evenStats(), Committed, tun)
	if a != b {
		t.Fatalf("identical inputs gave %+v and %+v", a, b)
	}
}

func TestStakesScaleDamage(t *testing.T) {
	cats := loadCats(t)
	tun := tuning.Default()
	tech := cats.Techniques.ByID["swing"]
	weap := cats.Weapons.ByID["arming_sword"]

	guarded := DerivePacket(tech, weap, evenStats(), Guarded, tun)
	reckless := DerivePacket(tech, weap, evenStats(), Reckless, tun)
	probing := DerivePacket(tech, weap, evenStats(), Probing, tun)

	if math.Abs(reckless.Amount-2*guarded.Amount) > 1e-9 {
		t.Fatalf("reckless amount %v != 2x guarded %v", reckless.Amount, guarded.Amount)
	}
	if math.Abs(reckless.Energy-2*guarded.Energy) > 1e-9 {
		t.Fatalf("reckless energy %v != 2x guarded %v", reckless.Energy, guarded.Energy)
	}
	if math.Abs(probing.Amount-0.4*guarded.Amount) > 1e-9 {
		t.Fatalf("probing amount %v != 0.4x guarded %v", probing.Amount, guarded.Amount)
	}
	// Geometry and rigidity come from the weapon, not the swing's vigor.
	if reckless.Geometry != guarded.Geometry || reckless.Rigidity != guarded.Rigidity {
		t.Fatalf("stakes must not change geometry/rigidity")
	}
}

func TestNonPhysicalKindZeroesAxes(t *testing.T) {
	cats := loadCats(t)
	tun := tuning.Default()

	tech := catalogs.TechniqueDef{
		ID:         "hex",
		Category:   "strike",
		AttackMode: "thrust",
		Damage:     []catalogs.DamageInstance{{Amount: 2, Types: []string{KindArcane}}},
		Scaling:    catalogs.Scaling{Ratio: 1, Stats: []string{"skill"}},
		AxisBias:   catalogs.AxisBias{GeometryMult: 1, EnergyMult: 1, RigidityMult: 1},
	}
	p := DerivePacket(tech, cats.Weapons.ByID["arming_sword"], evenStats(), Guarded, tun)
	if p.Geometry != 0 || p.Energy != 0 || p.Rigidity != 0 {
		t.Fatalf("non-physical axes must be zero: %+v", p)
	}
	if p.Amount == 0 {
		t.Fatalf("legacy amount must survive for non-physical kinds")
	}
}

func TestScalingEmptyStatsFallsBackToPower(t *testing.T) {
	s := StatBlock{Power: 2, Speed: 8}
	if got := s.scalingValue(nil); got != 2 {
		t.Fatalf("empty stat list = %v, want power", got)
	}
	if got := s.scalingValue([]string{"power", "speed"}); got != 5 {
		t.Fatalf("average = %v, want 5", got)
	}
}
