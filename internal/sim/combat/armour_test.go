package combat

import (
	"testing"

	"duelforge.gg/internal/sim/catalogs"
	"duelforge.gg/internal/sim/rng"
	"duelforge.gg/internal/sim/tuning"
)

func plateLayer(cats *catalogs.Catalogs) ArmourLayer {
	return ArmourLayer{
		PieceID:     "steel_breastplate",
		Material:    cats.Materials.ByID["steel_plate"],
		ThicknessCm: 0.2,
	}
}

func TestEmptyStackIsIdentity(t *testing.T) {
	tun := tuning.Default()
	p := Packet{Amount: 5, Kind: KindCut, Geometry: 1, Energy: 10, Rigidity: 2}
	out, trace := ResolveThroughArmour(nil, p, rng.New(1, "armour"), tun)
	if out != p || len(trace) != 0 {
		t.Fatalf("empty stack changed the packet: %+v", out)
	}
}

func TestPlateDeflectsRecklessSwing(t *testing.T) {
	cats := loadCats(t)
	tun := tuning.Default()

	p := DerivePacket(cats.Techniques.ByID["swing"], cats.Weapons.ByID["arming_sword"], evenStats(), Reckless, tun)
	out, trace := ResolveThroughArmour([]ArmourLayer{plateLayer(cats)}, p, rng.New(3, "armour"), tun)

	if out.Geometry != 0 {
		t.Fatalf("plate must zero a swing's geometry: %v", out.Geometry)
	}
	if len(trace) != 1 || !trace[0].Stopped {
		t.Fatalf("swing must stop at the plate: %+v", trace)
	}
}

func TestThrustOutPenetratesSwingThroughPlate(t *testing.T) {
	cats := loadCats(t)
	tun := tuning.Default()
	sword := cats.Weapons.ByID["arming_sword"]

	swing := DerivePacket(cats.Techniques.ByID["swing"], sword, evenStats(), Reckless, tun)
	thrust := DerivePacket(cats.Techniques.ByID["thrust"], sword, evenStats(), Reckless, tun)

	swingOut, _ := ResolveThroughArmour([]ArmourLayer{plateLayer(cats)}, swing, rng.New(3, "a"), tun)
	thrustOut, trace := ResolveThroughArmour([]ArmourLayer{plateLayer(cats)}, thrust, rng.New(3, "b"), tun)

	if thrustOut.Geometry <= swingOut.Geometry {
		t.Fatalf("thrust geometry %v through plate must exceed swing's %v", thrustOut.Geometry, swingOut.Geometry)
	}
	if thrustOut.Geometry <= 0 {
		t.Fatalf("thrust must retain geometry past the plate: %v", thrustOut.Geometry)
	}
	if trace[0].Stopped {
		t.Fatalf("thrust must not stop at the plate: %+v", trace[0])
	}
}

func TestArmourNeverIncreasesAxes(t *testing.T) {
	cats := loadCats(t)
	tun := tuning.Default()

	stack := []ArmourLayer{
		plateLayer(cats),
		{PieceID: "mail_shirt", Material: cats.Materials.ByID["iron_mail"], ThicknessCm: 0.5},
		{PieceID: "gambeson", Material: cats.Materials.ByID["wool_padding"], ThicknessCm: 1.2},
	}
	p := Packet{Amount: 8, Kind: KindBlunt, Geometry: 0.5, Energy: 40, Rigidity: 20}
	_, trace := ResolveThroughArmour(stack, p, rng.New(9, "armour"), tun)
	for _, lr := range trace {
		for axis := 0; axis < 3; axis++ {
			if lr.After[axis] > lr.Before[axis] {
				t.Fatalf("layer %s raised axis %d: %v -> %v", lr.MaterialID, axis, lr.Before[axis], lr.After[axis])
			}
		}
	}
}

func TestTotalityGapBypassesLayer(t *testing.T) {
	cats := loadCats(t)
	tun := tuning.Default()

	layer := plateLayer(cats)
	layer.Totality = 1.0 // every hit finds the gap
	p := Packet{Amount: 5, Kind: KindPierce, Geometry: 1.5, Energy: 10, Rigidity: 1}
	out, trace := ResolveThroughArmour([]ArmourLayer{layer}, p, rng.New(5, "armour"), tun)

	if out != p {
		t.Fatalf("bypassed layer must not attenuate: %+v", out)
	}
	if len(trace) != 1 || !trace[0].Bypassed || trace[0].LayerDamage != 0 {
		t.Fatalf("bypass trace wrong: %+v", trace)
	}
}

func TestNonPhysicalSkipsArmour(t *testing.T) {
	cats := loadCats(t)
	tun := tuning.Default()
	p := Packet{Amount: 5, Kind: KindArcane}
	out, trace := ResolveThroughArmour([]ArmourLayer{plateLayer(cats)}, p, rng.New(5, "armour"), tun)
	if out != p || trace != nil {
		t.Fatalf("non-physical packet must pass through: %+v %+v", out, trace)
	}
}
