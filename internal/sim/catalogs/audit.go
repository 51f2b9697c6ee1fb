package catalogs

import (
	"fmt"
	"math"
)

var validChannels = map[string]bool{"weapon": true, "off_hand": true, "footwork": true}
var validCategories = map[string]bool{"strike": true, "parry": true, "block": true, "deflect": true, "dodge": true, "feint": true}
var validAttackModes = map[string]bool{"thrust": true, "swing": true, "ranged": true}
var validSides = map[string]bool{"left": true, "right": true, "center": true}

// audit checks the cross-reference graph between tables. Any dangling
// reference or ordering violation makes the whole load fail.
func (c *Catalogs) audit() error {
	for id, t := range c.Tissues.ByID {
		if len(t.Layers) == 0 {
			return fmt.Errorf("tissue template %q: no layers", id)
		}
		sum := 0.0
		for i, l := range t.Layers {
			if _, ok := c.Materials.ByID[l.MaterialID]; !ok {
				return fmt.Errorf("tissue template %q layer %d: unknown material %q", id, i, l.MaterialID)
			}
			sum += l.ThicknessRatio
		}
		if math.Abs(sum-1.0) > 0.05 {
			return fmt.Errorf("tissue template %q: thickness ratios sum to %.3f", id, sum)
		}
	}

	for id, p := range c.Plans.ByID {
		if err := auditPlan(p, c.Tissues.ByID); err != nil {
			return fmt.Errorf("body plan %q: %w", id, err)
		}
	}

	for id, w := range c.Weapons.ByID {
		if len(w.Offense) == 0 {
			return fmt.Errorf("weapon %q: no offense profiles", id)
		}
		for mode := range w.Offense {
			if !validAttackModes[mode] {
				return fmt.Errorf("weapon %q: unknown attack mode %q", id, mode)
			}
		}
	}

	for id, t := range c.Techniques.ByID {
		if !validCategories[t.Category] {
			return fmt.Errorf("technique %q: unknown category %q", id, t.Category)
		}
		if t.Category == "strike" || t.Category == "feint" {
			if !validAttackModes[t.AttackMode] {
				return fmt.Errorf("technique %q: unknown attack mode %q", id, t.AttackMode)
			}
			if len(t.Channels) == 0 {
				return fmt.Errorf("technique %q: no channels", id)
			}
		}
		for _, ch := range t.Channels {
			if !validChannels[ch] {
				return fmt.Errorf("technique %q: unknown channel %q", id, ch)
			}
		}
		if t.Duration <= 0 || t.Duration > 1 {
			return fmt.Errorf("technique %q: duration %v outside (0,1]", id, t.Duration)
		}
	}

	for id, p := range c.Pieces.ByID {
		if _, ok := c.Materials.ByID[p.MaterialID]; !ok {
			return fmt.Errorf("armour piece %q: unknown material %q", id, p.MaterialID)
		}
		if len(p.Coverage) == 0 {
			return fmt.Errorf("armour piece %q: no coverage", id)
		}
		for i, cov := range p.Coverage {
			if len(cov.PartTags) == 0 {
				return fmt.Errorf("armour piece %q coverage %d: no part_tags", id, i)
			}
			if cov.Side != "" && !validSides[cov.Side] {
				return fmt.Errorf("armour piece %q coverage %d: unknown side %q", id, i, cov.Side)
			}
			if cov.Totality < 0 || cov.Totality > 1 {
				return fmt.Errorf("armour piece %q coverage %d: totality %v outside [0,1]", id, i, cov.Totality)
			}
		}
	}

	for id, cd := range c.Conditions.ByID {
		if cd.Ticks <= 0 {
			return fmt.Errorf("condition %q: ticks must be positive", id)
		}
		if cd.Successor != "" {
			if _, ok := c.Conditions.ByID[cd.Successor]; !ok {
				return fmt.Errorf("condition %q: unknown successor %q", id, cd.Successor)
			}
		}
	}

	for id, card := range c.Cards.ByID {
		switch card.Kind {
		case "action":
			if _, ok := c.Techniques.ByID[card.TechniqueID]; !ok {
				return fmt.Errorf("card %q: unknown technique %q", id, card.TechniqueID)
			}
		case "modifier":
		default:
			return fmt.Errorf("card %q: unknown kind %q", id, card.Kind)
		}
		for ri, r := range card.Rules {
			if r.Trigger != "on_commit" && r.Trigger != "on_resolve" {
				return fmt.Errorf("card %q rule %d: unknown trigger %q", id, ri, r.Trigger)
			}
			for ei, e := range r.Effects {
				if e.Op == "apply_condition" {
					if _, ok := c.Conditions.ByID[e.Condition]; !ok {
						return fmt.Errorf("card %q rule %d effect %d: unknown condition %q", id, ri, ei, e.Condition)
					}
				}
			}
		}
	}
	return nil
}

// auditPlan enforces the topological-order invariant at load time: every
// part's parent must appear strictly earlier in the part list. Effective
// integrity is a single forward pass and silently accepting a misordered
// plan would produce wrong-but-plausible damage numbers.
func auditPlan(p PlanDef, tissues map[string]TissueTemplateDef) error {
	if len(p.Parts) == 0 {
		return fmt.Errorf("no parts")
	}
	seen := make(map[string]int, len(p.Parts))
	for i, part := range p.Parts {
		if part.ID == "" {
			return fmt.Errorf("part %d: empty id", i)
		}
		if _, dup := seen[part.ID]; dup {
			return fmt.Errorf("duplicate part id %q", part.ID)
		}
		if part.Parent != "" {
			at, ok := seen[part.Parent]
			if !ok {
				return fmt.Errorf("part %q: parent %q not defined earlier", part.ID, part.Parent)
			}
			if at >= i {
				return fmt.Errorf("part %q: parent %q out of order", part.ID, part.Parent)
			}
		}
		if _, ok := tissues[part.TissueTemplate]; !ok {
			return fmt.Errorf("part %q: unknown tissue template %q", part.ID, part.TissueTemplate)
		}
		if part.Side != "" && !validSides[part.Side] {
			return fmt.Errorf("part %q: unknown side %q", part.ID, part.Side)
		}
		seen[part.ID] = i
	}
	return nil
}
