package cards

import (
	"testing"

	"duelforge.gg/internal/sim/catalogs"
	"duelforge.gg/internal/sim/combat"
)

type fakeAgent struct {
	stamina, focus float64
	conditions     map[string]bool
}

func (f fakeAgent) Stamina() float64           { return f.stamina }
func (f fakeAgent) Focus() float64             { return f.focus }
func (f fakeAgent) HasCondition(id string) bool { return f.conditions[id] }

func TestEvalPredicateLeaves(t *testing.T) {
	agent := fakeAgent{stamina: 2, focus: 5, conditions: map[string]bool{"winded": true}}
	cases := []struct {
		name string
		p    catalogs.PredicateDef
		want bool
	}{
		{"always", catalogs.PredicateDef{Op: "always"}, true},
		{"stamina below", catalogs.PredicateDef{Op: "stamina_below", Value: 3}, true},
		{"stamina not below", catalogs.PredicateDef{Op: "stamina_below", Value: 2}, false},
		{"focus below", catalogs.PredicateDef{Op: "focus_below", Value: 3}, false},
		{"has condition", catalogs.PredicateDef{Op: "has_condition", Name: "winded"}, true},
		{"missing condition", catalogs.PredicateDef{Op: "has_condition", Name: "bleeding"}, false},
		{"stakes at least", catalogs.PredicateDef{Op: "stakes_at_least", Value: 2}, true},
		{"unknown op", catalogs.PredicateDef{Op: "phase_of_moon"}, false},
	}
	for _, tc := range cases {
		if got := EvalPredicate(tc.p, agent, combat.Committed); got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestEvalPredicateCombinators(t *testing.T) {
	agent := fakeAgent{stamina: 2}
	and := catalogs.PredicateDef{Op: "and", Args: []catalogs.PredicateDef{
		{Op: "always"},
		{Op: "stamina_below", Value: 3},
	}}
	if !EvalPredicate(and, agent, combat.Guarded) {
		t.Fatalf("and of two true predicates")
	}
	or := catalogs.PredicateDef{Op: "or", Args: []catalogs.PredicateDef{
		{Op: "stamina_below", Value: 1},
		{Op: "always"},
	}}
	if !EvalPredicate(or, agent, combat.Guarded) {
		t.Fatalf("or with one true predicate")
	}
	not := catalogs.PredicateDef{Op: "not", Args: []catalogs.PredicateDef{{Op: "always"}}}
	if EvalPredicate(not, agent, combat.Guarded) {
		t.Fatalf("not(always)")
	}
}

func TestTriggeredEffectsFiltersByTriggerAndPredicate(t *testing.T) {
	card := catalogs.CardDef{
		ID: "test",
		Rules: []catalogs.RuleDef{
			{
				Trigger:   TriggerCommit,
				Predicate: catalogs.PredicateDef{Op: "always"},
				Effects:   []catalogs.EffectDef{{Op: EffectModifyPlay, Target: "my_plays", DamageMult: 1.1}},
			},
			{
				Trigger:   TriggerResolve,
				Predicate: catalogs.PredicateDef{Op: "always"},
				Effects:   []catalogs.EffectDef{{Op: EffectModifyStamina, Target: "self", Amount: 1}},
			},
			{
				Trigger:   TriggerCommit,
				Predicate: catalogs.PredicateDef{Op: "stamina_below", Value: 1},
				Effects:   []catalogs.EffectDef{{Op: EffectCancelPlay, Target: "opponent_plays"}},
			},
		},
	}
	effs := TriggeredEffects(card, TriggerCommit, fakeAgent{stamina: 5}, combat.Guarded)
	if len(effs) != 1 || effs[0].Op != EffectModifyPlay {
		t.Fatalf("commit effects = %+v", effs)
	}
	effs = TriggeredEffects(card, TriggerResolve, fakeAgent{}, combat.Guarded)
	if len(effs) != 1 || effs[0].Op != EffectModifyStamina {
		t.Fatalf("resolve effects = %+v", effs)
	}
}

func TestMatchesPlay(t *testing.T) {
	strike := catalogs.TechniqueDef{ID: "swing", Category: "strike"}
	parry := catalogs.TechniqueDef{ID: "parry_high", Category: "parry"}

	byCategory := catalogs.EffectDef{Op: EffectModifyPlay, MatchCategory: "strike"}
	if !MatchesPlay(byCategory, strike) || MatchesPlay(byCategory, parry) {
		t.Fatalf("category match failed")
	}
	byID := catalogs.EffectDef{Op: EffectModifyPlay, MatchTechnique: "swing"}
	if !MatchesPlay(byID, strike) || MatchesPlay(byID, parry) {
		t.Fatalf("technique match failed")
	}
	if !MatchesPlay(catalogs.EffectDef{Op: EffectCancelPlay}, parry) {
		t.Fatalf("empty match clauses select everything")
	}
}

func TestZonesLifecycle(t *testing.T) {
	z := NewZones([]string{"card_thrust", "card_swing", "card_swing"})

	if !z.RemoveFromHand("card_swing") {
		t.Fatalf("RemoveFromHand")
	}
	if len(z.Hand) != 2 {
		t.Fatalf("hand = %v", z.Hand)
	}
	z.ToDiscard("card_swing")
	if len(z.Discard) != 1 {
		t.Fatalf("discard = %v", z.Discard)
	}
	if z.RemoveFromHand("card_parry") {
		t.Fatalf("removed a card not in hand")
	}
	z.ReturnToHand("card_swing")
	if len(z.Hand) != 3 {
		t.Fatalf("hand after return = %v", z.Hand)
	}
	z.ToExhaust("card_thrust")
	if len(z.Exhaust) != 1 {
		t.Fatalf("exhaust = %v", z.Exhaust)
	}
}

func TestCooldowns(t *testing.T) {
	z := NewZones(nil)
	if !z.PoolAvailable("pool_jab") {
		t.Fatalf("fresh pool card must be available")
	}
	z.StartCooldown("pool_jab", 2)
	if z.PoolAvailable("pool_jab") {
		t.Fatalf("cooldown not applied")
	}
	z.TickCooldowns()
	if z.PoolAvailable("pool_jab") {
		t.Fatalf("available one tick early")
	}
	z.TickCooldowns()
	if !z.PoolAvailable("pool_jab") {
		t.Fatalf("cooldown did not expire")
	}

	z.StartCooldown("pool_guard", 3)
	z.RefundCooldown("pool_guard")
	if !z.PoolAvailable("pool_guard") {
		t.Fatalf("refund did not clear cooldown")
	}
}
