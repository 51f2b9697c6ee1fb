package cards

import (
	"duelforge.gg/internal/sim/catalogs"
	"duelforge.gg/internal/sim/combat"
)

// Rule triggers.
const (
	TriggerCommit  = "on_commit"
	TriggerResolve = "on_resolve"
)

// Effect ops the evaluator can emit.
const (
	EffectModifyPlay     = "modify_play"
	EffectCancelPlay     = "cancel_play"
	EffectModifyStamina  = "modify_stamina"
	EffectModifyFocus    = "modify_focus"
	EffectApplyCondition = "apply_condition"
)

// AgentView is the slice of agent state predicates are allowed to read.
type AgentView interface {
	Stamina() float64
	Focus() float64
	HasCondition(id string) bool
}

// EvalPredicate walks the closed predicate tree. Unknown ops evaluate to
// false; the catalog audit rejects them at load time, so hitting one here
// means hand-built test data.
func EvalPredicate(p catalogs.PredicateDef, agent AgentView, stakes combat.Stakes) bool {
	switch p.Op {
	case "always":
		return true
	case "stamina_below":
		return agent.Stamina() < p.Value
	case "focus_below":
		return agent.Focus() < p.Value
	case "has_condition":
		return agent.HasCondition(p.Name)
	case "stakes_at_least":
		return int(stakes) >= int(p.Value)
	case "and":
		for _, a := range p.Args {
			if !EvalPredicate(a, agent, stakes) {
				return false
			}
		}
		return true
	case "or":
		for _, a := range p.Args {
			if EvalPredicate(a, agent, stakes) {
				return true
			}
		}
		return false
	case "not":
		return len(p.Args) == 1 && !EvalPredicate(p.Args[0], agent, stakes)
	default:
		return false
	}
}

// TriggeredEffects collects the effects of every rule on the card whose
// trigger matches and whose predicate holds. The caller executes them.
func TriggeredEffects(card catalogs.CardDef, trigger string, agent AgentView, stakes combat.Stakes) []catalogs.EffectDef {
	var out []catalogs.EffectDef
	for _, rule := range card.Rules {
		if rule.Trigger != trigger {
			continue
		}
		if !EvalPredicate(rule.Predicate, agent, stakes) {
			continue
		}
		out = append(out, rule.Effects...)
	}
	return out
}

// MatchesPlay reports whether a modify_play/cancel_play effect's match
// clauses select a play whose action card resolves to the given technique.
func MatchesPlay(eff catalogs.EffectDef, tech catalogs.TechniqueDef) bool {
	if eff.MatchTechnique != "" && eff.MatchTechnique != tech.ID {
		return false
	}
	if eff.MatchCategory != "" && eff.MatchCategory != tech.Category {
		return false
	}
	return true
}
