package body

import (
	"testing"

	"duelforge.gg/internal/sim/catalogs"
	"duelforge.gg/internal/sim/combat"
	"duelforge.gg/internal/sim/tuning"
)

func newHumanoid(t *testing.T) *Body {
	t.Helper()
	b, err := FromPlan(loadCats(t), "humanoid", SizeModifiers{})
	if err != nil {
		t.Fatalf("FromPlan: %v", err)
	}
	return b
}

func heavyCut() combat.Packet {
	return combat.Packet{Amount: 8, Kind: combat.KindCut, Geometry: 3.0, Energy: 20, Rigidity: 5}
}

func TestApplyDamageRecordsWoundsOuterToInner(t *testing.T) {
	b := newHumanoid(t)
	tun := tuning.Default()
	torso, _ := b.PartIndex("torso")

	res := b.ApplyDamage(torso, heavyCut(), tun)
	if len(res.Wounds) == 0 {
		t.Fatalf("heavy cut against bare torso produced no wounds")
	}
	for i := 1; i < len(res.Wounds); i++ {
		if res.Wounds[i].Layer <= res.Wounds[i-1].Layer {
			t.Fatalf("wounds out of layer order: %+v", res.Wounds)
		}
	}
	if b.Parts[torso].Integrity >= 1 {
		t.Fatalf("integrity not reduced: %v", b.Parts[torso].Integrity)
	}
	if res.Severed {
		t.Fatalf("torso must not sever from a surface cut")
	}
}

func TestCutStopsWhenGeometrySpent(t *testing.T) {
	b := newHumanoid(t)
	tun := tuning.Default()
	torso, _ := b.PartIndex("torso")

	// Torso tissue is thick enough that the blade's geometry runs out in
	// the fat layer; the bone layer must stay untouched.
	res := b.ApplyDamage(torso, heavyCut(), tun)
	last := res.Layers[len(res.Layers)-1]
	if !last.Stopped {
		t.Fatalf("propagation did not stop: %+v", res.Layers)
	}
	for _, w := range res.Wounds {
		if w.Material == "bone" {
			t.Fatalf("cut reached bone through %v layers of torso", len(b.Parts[torso].Layers))
		}
	}
}

func TestBluntPassesGeometryStop(t *testing.T) {
	b := newHumanoid(t)
	tun := tuning.Default()
	torso, _ := b.PartIndex("torso")

	p := combat.Packet{Amount: 8, Kind: combat.KindBlunt, Geometry: 0, Energy: 60, Rigidity: 30}
	res := b.ApplyDamage(torso, p, tun)
	hitBone := false
	for _, w := range res.Wounds {
		if w.Material == "bone" {
			hitBone = true
		}
	}
	if !hitBone {
		t.Fatalf("heavy blunt should carry energy through to bone: %+v", res.Wounds)
	}
}

func TestGuardedThrustWoundsBareLimb(t *testing.T) {
	cats := loadCats(t)
	b := newHumanoid(t)
	tun := tuning.Default()
	arm, _ := b.PartIndex("arm_upper_l")

	stats := combat.StatBlock{Power: 1, Speed: 1, Agility: 1, Skill: 1}
	p := combat.DerivePacket(cats.Techniques.ByID["thrust"], cats.Weapons.ByID["arming_sword"], stats, combat.Guarded, tun)

	res := b.ApplyDamage(arm, p, tun)
	if len(res.Wounds) == 0 {
		t.Fatalf("guarded thrust against a bare arm produced no wounds")
	}
	worst := SeverityNone
	for _, w := range res.Wounds {
		worst = maxSeverity(worst, w.Severity)
	}
	if worst < SeverityInhibited {
		t.Fatalf("guarded thrust wounds are all cosmetic: %+v", res.Wounds)
	}
	if b.Parts[arm].Integrity >= 1 {
		t.Fatalf("wounded arm kept full integrity: %v", b.Parts[arm].Integrity)
	}
}

func TestThickLayerSeverityNotDiluted(t *testing.T) {
	b := newHumanoid(t)
	tun := tuning.Default()
	torso, _ := b.PartIndex("torso")

	p := combat.Packet{Amount: 8, Kind: combat.KindBlunt, Geometry: 0, Energy: 60, Rigidity: 30}
	res := b.ApplyDamage(torso, p, tun)
	for _, w := range res.Wounds {
		if w.Material == "muscle" && w.Severity >= SeverityImpaired {
			return
		}
	}
	t.Fatalf("heavy blunt left the muscle layer unmarked: %+v", res.Wounds)
}

func TestSmallPartSeversWhereTorsoDoesNot(t *testing.T) {
	tun := tuning.Default()

	b := newHumanoid(t)
	torso, _ := b.PartIndex("torso")
	if res := b.ApplyDamage(torso, heavyCut(), tun); res.Severed {
		t.Fatalf("torso severed by a cut that should stop in soft tissue")
	}

	b = newHumanoid(t)
	digits, _ := b.PartIndex("digits_l")
	res := b.ApplyDamage(digits, heavyCut(), tun)
	if !res.Severed {
		t.Fatalf("same cut must sever digits (area %v < %v cm2): %+v",
			b.Parts[digits].Def.Geometry.AreaCm2, tun.SmallPartAreaCm2, res.Wounds)
	}
	if !b.Parts[digits].Severed || b.Parts[digits].Integrity != 0 {
		t.Fatalf("severed part not marked: %+v", b.Parts[digits])
	}
}

func TestPierceDoesNotSeverWithoutMissingStructural(t *testing.T) {
	b := newHumanoid(t)
	tun := tuning.Default()
	digits, _ := b.PartIndex("digits_l")

	p := combat.Packet{Amount: 6, Kind: combat.KindPierce, Geometry: 3.0, Energy: 20, Rigidity: 2}
	res := b.ApplyDamage(digits, p, tun)
	if res.Severed {
		t.Fatalf("pierce severed without a missing structural layer: %+v", res.Wounds)
	}
}

func TestNonPhysicalKindSkipsTissueModel(t *testing.T) {
	b := newHumanoid(t)
	tun := tuning.Default()
	torso, _ := b.PartIndex("torso")

	res := b.ApplyDamage(torso, combat.Packet{Amount: 5, Kind: combat.KindArcane}, tun)
	if len(res.Wounds) != 0 || len(res.Layers) != 0 {
		t.Fatalf("arcane packet must bypass the tissue pipeline: %+v", res)
	}
}

func TestZeroLayerPartIsPassThrough(t *testing.T) {
	tun := tuning.Default()
	b := &Body{
		PlanID: "test",
		Parts: []Part{{
			Def:       catalogs.PartDef{ID: "ghost", Tag: "ghost"},
			ParentIdx: NoParent,
			Integrity: 1,
		}},
		dirty: true,
	}
	res := b.ApplyDamage(0, heavyCut(), tun)
	if len(res.Wounds) != 0 || res.Severed || b.Parts[0].Integrity != 1 {
		t.Fatalf("part with no tissue layers must be a no-op: %+v", res)
	}
}

func TestRepeatedDamageAccumulates(t *testing.T) {
	b := newHumanoid(t)
	tun := tuning.Default()
	torso, _ := b.PartIndex("torso")

	first := b.ApplyDamage(torso, heavyCut(), tun)
	after := b.Parts[torso].Integrity
	second := b.ApplyDamage(torso, heavyCut(), tun)
	if b.Parts[torso].Integrity >= after {
		t.Fatalf("second wound did not reduce integrity further")
	}
	if len(b.Parts[torso].Wounds) != len(first.Wounds)+len(second.Wounds) {
		t.Fatalf("wound log lost entries")
	}
}
