package encounter

import (
	"fmt"

	"duelforge.gg/internal/sim/body"
	"duelforge.gg/internal/sim/cards"
	"duelforge.gg/internal/sim/catalogs"
	"duelforge.gg/internal/sim/combat"
	"duelforge.gg/internal/sim/timeline"
	"duelforge.gg/internal/sim/tuning"
)

// ActiveCondition is one timed condition on an agent. A fresh condition
// skips its first countdown so a one-tick condition survives the tick it
// was applied in.
type ActiveCondition struct {
	ID        string
	Remaining int
	fresh     bool
}

// AgentConfig describes one combatant at encounter setup.
type AgentConfig struct {
	ID       string
	Name     string
	PlanID   string
	Size     body.SizeModifiers
	Stats    combat.StatBlock
	WeaponID string
	Armour   []string // armour piece ids, outermost first
	Hand     []string // starting hand card ids
	Pool     []string // always-available pool master card ids
	Strategy Strategy // nil for externally driven agents
}

// Agent is one combatant's full runtime state. Built once at encounter
// setup, torn down with the encounter.
type Agent struct {
	ID     string
	Name   string
	Stats  combat.StatBlock
	Body   *body.Body
	Weapon catalogs.WeaponDef

	// Armour layers per body part index, outer to inner.
	Armour map[int][]combat.ArmourLayer

	Stam    Pool
	Foc     Pool
	Balance float64

	Conditions []ActiveCondition

	Zones    *cards.Zones
	PoolIDs  []string
	Timeline timeline.Timeline
	Strategy Strategy
}

// newAgent builds a combatant, failing on any dangling reference.
func newAgent(cats *catalogs.Catalogs, tun tuning.Tuning, cfg AgentConfig) (*Agent, error) {
	b, err := body.FromPlan(cats, cfg.PlanID, cfg.Size)
	if err != nil {
		return nil, fmt.Errorf("agent %q: %w", cfg.ID, err)
	}
	weap, ok := cats.Weapons.ByID[cfg.WeaponID]
	if !ok {
		return nil, fmt.Errorf("agent %q weapon %q: %w", cfg.ID, cfg.WeaponID, catalogs.ErrUnknownWeapon)
	}
	plan := cats.Plans.ByID[cfg.PlanID]

	a := &Agent{
		ID:      cfg.ID,
		Name:    cfg.Name,
		Stats:   cfg.Stats,
		Body:    b,
		Weapon:  weap,
		Armour:  make(map[int][]combat.ArmourLayer),
		Stam:    NewPool(plan.BaseStamina, tun.StaminaRefresh),
		Foc:     NewPool(plan.BaseFocus, tun.FocusRefresh),
		Balance: 1,
		Zones:   cards.NewZones(cfg.Hand),
		PoolIDs: append([]string(nil), cfg.Pool...),
		Strategy: cfg.Strategy,
	}
	if err := a.Zones.Validate(cats); err != nil {
		return nil, fmt.Errorf("agent %q: %w", cfg.ID, err)
	}
	for _, id := range cfg.Pool {
		card, ok := cats.Cards.ByID[id]
		if !ok {
			return nil, fmt.Errorf("agent %q pool card %q: %w", cfg.ID, id, catalogs.ErrUnknownCard)
		}
		if !card.Pool {
			return nil, fmt.Errorf("agent %q: card %q is not a pool card", cfg.ID, id)
		}
	}
	if err := a.equipArmour(cats, cfg.Armour); err != nil {
		return nil, fmt.Errorf("agent %q: %w", cfg.ID, err)
	}
	return a, nil
}

// equipArmour expands every piece's coverage entries onto matching body
// parts. Outer-layer entries land before inner ones, pieces in the order
// given.
func (a *Agent) equipArmour(cats *catalogs.Catalogs, pieceIDs []string) error {
	for _, layerName := range []string{"outer", "inner"} {
		for _, pid := range pieceIDs {
			piece, ok := cats.Pieces.ByID[pid]
			if !ok {
				return fmt.Errorf("armour piece %q: %w", pid, catalogs.ErrUnknownPiece)
			}
			mat, ok := cats.Materials.ByID[piece.MaterialID]
			if !ok {
				return fmt.Errorf("armour piece %q material %q: %w", pid, piece.MaterialID, catalogs.ErrUnknownMaterial)
			}
			for _, cov := range piece.Coverage {
				if cov.Layer != layerName {
					continue
				}
				for pi := range a.Body.Parts {
					if coverageMatches(cov, a.Body.Parts[pi].Def) {
						a.Armour[pi] = append(a.Armour[pi], combat.ArmourLayer{
							PieceID:     piece.ID,
							Material:    mat,
							ThicknessCm: cov.ThicknessCm,
							Totality:    cov.Totality,
						})
					}
				}
			}
		}
	}
	return nil
}

func coverageMatches(cov catalogs.CoverageEntry, def catalogs.PartDef) bool {
	if cov.Side != "" && cov.Side != def.Side {
		return false
	}
	for _, tag := range cov.PartTags {
		if tag == def.Tag {
			return true
		}
	}
	return false
}

// Stamina, Focus and HasCondition give card predicates their read-only
// view of the agent.
func (a *Agent) Stamina() float64 { return a.Stam.Current }
func (a *Agent) Focus() float64   { return a.Foc.Current }

func (a *Agent) HasCondition(id string) bool {
	for _, c := range a.Conditions {
		if c.ID == id {
			return true
		}
	}
	return false
}

// Defeated reports whether the agent can no longer fight: a vital part is
// gone or nothing can hold a weapon.
func (a *Agent) Defeated() bool {
	if a.Body.VitalIntegrity() == 0 {
		return true
	}
	return len(a.Body.FunctionalGraspingParts(0)) == 0
}
