package body

import "testing"

func TestGraspStrengthFollowsDigits(t *testing.T) {
	b := newHumanoid(t)
	hand, _ := b.PartIndex("hand_l")
	digits, _ := b.PartIndex("digits_l")

	if got := b.GraspStrength(hand); got != 1 {
		t.Fatalf("intact grasp = %v, want 1", got)
	}

	b.Parts[digits].Integrity = 0.5
	b.markDirty()
	if got := b.GraspStrength(hand); got != 0.5 {
		t.Fatalf("grasp with halved digits = %v, want 0.5", got)
	}

	b.Sever(digits)
	if got := b.GraspStrength(hand); got != 0 {
		t.Fatalf("grasp with no digits = %v, want 0", got)
	}
}

func TestFunctionalGraspingParts(t *testing.T) {
	b := newHumanoid(t)
	hl, _ := b.PartIndex("hand_l")

	if got := len(b.FunctionalGraspingParts(0)); got != 2 {
		t.Fatalf("expected both hands functional, got %d", got)
	}
	b.Sever(hl)
	parts := b.FunctionalGraspingParts(0)
	if len(parts) != 1 {
		t.Fatalf("expected one hand after severing, got %d", len(parts))
	}
	if b.Parts[parts[0]].Def.Side != "right" {
		t.Fatalf("wrong surviving hand: %q", b.Parts[parts[0]].Def.ID)
	}
}

func TestGraspMinimumStrengthFilters(t *testing.T) {
	b := newHumanoid(t)
	digits, _ := b.PartIndex("digits_l")

	b.Parts[digits].Integrity = 0.5
	b.markDirty()
	if got := len(b.FunctionalGraspingParts(0)); got != 2 {
		t.Fatalf("weakened hand still grips at zero threshold, got %d", got)
	}
	parts := b.FunctionalGraspingParts(0.6)
	if len(parts) != 1 || b.Parts[parts[0]].Def.Side != "right" {
		t.Fatalf("threshold should leave only the right hand: %v", parts)
	}
}

func TestEnclosedListsInternalChildren(t *testing.T) {
	b := newHumanoid(t)
	head, _ := b.PartIndex("head")
	torso, _ := b.PartIndex("torso")

	eyes := b.Enclosed(head)
	if len(eyes) != 2 {
		t.Fatalf("head should enclose both eyes, got %d", len(eyes))
	}
	for _, i := range eyes {
		if b.Parts[i].Def.Tag != "eye" {
			t.Fatalf("unexpected enclosed part %q", b.Parts[i].Def.ID)
		}
	}
	if got := b.Enclosed(torso); len(got) != 0 {
		t.Fatalf("torso encloses nothing, got %v", got)
	}
}

func TestVisionAndMobilityScores(t *testing.T) {
	b := newHumanoid(t)
	eye, _ := b.PartIndex("eye_l")
	foot, _ := b.PartIndex("foot_r")

	if got := b.VisionScore(); got != 1 {
		t.Fatalf("intact vision = %v", got)
	}
	b.Parts[eye].Integrity = 0
	b.markDirty()
	if got := b.VisionScore(); got != 0.5 {
		t.Fatalf("one eye out: vision = %v, want 0.5", got)
	}

	b.Sever(foot)
	if got := b.MobilityScore(); got != 0.5 {
		t.Fatalf("one foot gone: mobility = %v, want 0.5", got)
	}
}

func TestVitalIntegrityTracksWorstVital(t *testing.T) {
	b := newHumanoid(t)
	neck, _ := b.PartIndex("neck")

	if got := b.VitalIntegrity(); got != 1 {
		t.Fatalf("intact vitals = %v", got)
	}
	b.Parts[neck].Integrity = 0.3
	b.markDirty()
	// Head inherits the neck's effective integrity, so the worst vital
	// is the head at 0.3 as well.
	if got := b.VitalIntegrity(); got != 0.3 {
		t.Fatalf("vital integrity = %v, want 0.3", got)
	}
}

func TestTargetablePartsExcludesInternalAndSevered(t *testing.T) {
	b := newHumanoid(t)
	for _, i := range b.TargetableParts() {
		if b.Parts[i].Def.Flags.Internal {
			t.Fatalf("internal part %q is targetable", b.Parts[i].Def.ID)
		}
	}
	before := len(b.TargetableParts())
	hl, _ := b.PartIndex("hand_l")
	b.Sever(hl)
	// Hand and its digits both drop out.
	if got := len(b.TargetableParts()); got != before-2 {
		t.Fatalf("targetable after severing hand = %d, want %d", got, before-2)
	}
}
