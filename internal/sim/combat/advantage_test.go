package combat

import (
	"math"
	"testing"

	"duelforge.gg/internal/sim/catalogs"
	"duelforge.gg/internal/sim/tuning"
)

func TestNeutralEngagementAdvantage(t *testing.T) {
	e := NeutralEngagement()
	if e.AdvantageFor(true) != 0.5 || e.AdvantageFor(false) != 0.5 {
		t.Fatalf("neutral engagement must read 0.5 both ways")
	}
	e.Pressure = 0.8
	first := e.AdvantageFor(true)
	second := e.AdvantageFor(false)
	if math.Abs(first+second-1) > 1e-9 {
		t.Fatalf("advantage views must mirror: %v + %v", first, second)
	}
	if first <= 0.5 {
		t.Fatalf("pressure 0.8 must favor the first agent: %v", first)
	}
}

func TestApplyAdvantageFlipsForSecondAgent(t *testing.T) {
	e := NeutralEngagement()
	attBal, defBal := 1.0, 1.0
	d := catalogs.AdvantageDelta{Pressure: 0.1}

	ApplyAdvantage(&e, false, &attBal, &defBal, d, 1.0)
	if e.Pressure != 0.4 {
		t.Fatalf("second-agent gain must push the axis down: %v", e.Pressure)
	}
}

func TestApplyAdvantageSaturates(t *testing.T) {
	e := NeutralEngagement()
	e.Control = 0.95
	attBal, defBal := 0.02, 0.99
	d := catalogs.AdvantageDelta{Control: 0.2, SelfBalance: -0.1, TargetBalance: 0.2}

	changes := ApplyAdvantage(&e, true, &attBal, &defBal, d, 1.0)
	if e.Control != 1 {
		t.Fatalf("control must clamp to 1: %v", e.Control)
	}
	if attBal != 0 {
		t.Fatalf("attacker balance must clamp to 0: %v", attBal)
	}
	if defBal != 1 {
		t.Fatalf("defender balance must clamp to 1: %v", defBal)
	}
	if len(changes) != 3 {
		t.Fatalf("one change per nonzero delta, got %d", len(changes))
	}
}

func TestApplyAdvantageReportsOnlyNonzero(t *testing.T) {
	e := NeutralEngagement()
	attBal, defBal := 0.5, 0.5
	changes := ApplyAdvantage(&e, true, &attBal, &defBal, catalogs.AdvantageDelta{Pressure: 0.05}, 1.0)
	if len(changes) != 1 || changes[0].Axis != "pressure" || !changes[0].Relational {
		t.Fatalf("changes = %+v", changes)
	}
}

func TestAdvantageEffectOverrideWins(t *testing.T) {
	cats := loadCats(t)
	feint := cats.Techniques.ByID["feint_thrust"]

	base := AdvantageEffectFor(Parried, nil)
	overridden := AdvantageEffectFor(Parried, feint.Advantage)
	if overridden == base {
		t.Fatalf("feint on_parried override not applied")
	}
	if overridden.Pressure <= 0 {
		t.Fatalf("feint must profit from being parried: %+v", overridden)
	}
	// Outcomes without an override keep the base table.
	if AdvantageEffectFor(Hit, feint.Advantage) != BaseAdvantageEffect(Hit) {
		t.Fatalf("missing override must fall back to base")
	}
}

func TestStakesAdvantageScaleAsymmetry(t *testing.T) {
	tun := tuning.Default()
	cases := []struct {
		s                 Stakes
		success, failure float64
	}{
		{Probing, 0.5, 0.5},
		{Guarded, 1.0, 1.0},
		{Committed, 1.25, 1.5},
		{Reckless, 1.5, 2.0},
	}
	for _, tc := range cases {
		if got := tc.s.AdvantageScale(true, tun); got != tc.success {
			t.Errorf("%v success scale = %v, want %v", tc.s, got, tc.success)
		}
		if got := tc.s.AdvantageScale(false, tun); got != tc.failure {
			t.Errorf("%v failure scale = %v, want %v", tc.s, got, tc.failure)
		}
	}
}
