// Package body implements the body part graph: a topologically-ordered
// tree of parts per agent, tissue-layer damage resolution, severing, and
// capability queries.
package body

import (
	"fmt"

	"duelforge.gg/internal/sim/catalogs"
)

// NoParent marks a root part.
const NoParent = -1

// TissueLayer is one resolved layer of a part, outer to inner, with its
// thickness already scaled to the part.
type TissueLayer struct {
	Material    catalogs.MaterialDef
	ThicknessCm float64
}

// Wound is permanent within this core; no healing is modeled.
type Wound struct {
	Layer    int
	Material string
	Severity Severity
	Kind     string
}

// Part is the runtime state of one body part.
type Part struct {
	Def       catalogs.PartDef
	ParentIdx int
	Layers    []TissueLayer
	Integrity float64 // 0..1, destroyed at 0
	Wounds    []Wound
	Severed   bool
}

// Body is built once per agent from a plan and mutated in place by damage
// for the agent's lifetime. Parts are stored in topological order: every
// part's parent index is strictly less than its own index.
type Body struct {
	PlanID string
	Parts  []Part

	byID map[string]int

	effCache []float64
	dirty    bool
}

// SizeModifiers scale a plan's geometry: Height scales length, Mass/Height
// scales thickness, and exposed area scales by both.
type SizeModifiers struct {
	Height float64
	Mass   float64
}

func (m SizeModifiers) normalized() SizeModifiers {
	if m.Height <= 0 {
		m.Height = 1
	}
	if m.Mass <= 0 {
		m.Mass = 1
	}
	return m
}

// FromPlan builds a runtime Body from a named plan. The plan's topological
// ordering is re-checked here even though the catalog audit already
// enforced it: damage application assumes it unconditionally.
func FromPlan(cats *catalogs.Catalogs, planID string, mods SizeModifiers) (*Body, error) {
	plan, ok := cats.Plans.ByID[planID]
	if !ok {
		return nil, fmt.Errorf("body plan %q: %w", planID, ErrUnknownPlan)
	}
	mods = mods.normalized()
	lengthScale := mods.Height
	thicknessScale := mods.Mass / mods.Height
	areaScale := lengthScale * thicknessScale

	b := &Body{
		PlanID: planID,
		Parts:  make([]Part, 0, len(plan.Parts)),
		byID:   make(map[string]int, len(plan.Parts)),
		dirty:  true,
	}
	for i, def := range plan.Parts {
		parent := NoParent
		if def.Parent != "" {
			pi, ok := b.byID[def.Parent]
			if !ok {
				return nil, fmt.Errorf("body plan %q part %q: parent %q not defined earlier", planID, def.ID, def.Parent)
			}
			if pi >= i {
				return nil, fmt.Errorf("body plan %q part %q: parent out of order", planID, def.ID)
			}
			parent = pi
		}

		def.Geometry.LengthCm *= lengthScale
		def.Geometry.ThicknessCm *= thicknessScale
		def.Geometry.AreaCm2 *= areaScale

		tpl, ok := cats.Tissues.ByID[def.TissueTemplate]
		if !ok {
			return nil, fmt.Errorf("body plan %q part %q: unknown tissue template %q", planID, def.ID, def.TissueTemplate)
		}
		layers := make([]TissueLayer, len(tpl.Layers))
		for li, l := range tpl.Layers {
			mat, ok := cats.Materials.ByID[l.MaterialID]
			if !ok {
				return nil, fmt.Errorf("body plan %q part %q: unknown material %q", planID, def.ID, l.MaterialID)
			}
			layers[li] = TissueLayer{
				Material:    mat,
				ThicknessCm: def.Geometry.ThicknessCm * l.ThicknessRatio,
			}
		}

		b.byID[def.ID] = i
		b.Parts = append(b.Parts, Part{
			Def:       def,
			ParentIdx: parent,
			Layers:    layers,
			Integrity: 1,
		})
	}
	return b, nil
}

// PartIndex resolves a part id; the second return is false if absent.
func (b *Body) PartIndex(id string) (int, bool) {
	i, ok := b.byID[id]
	return i, ok
}

// EffectiveIntegrities is a single forward pass over the topologically
// ordered parts: each part's effective integrity is its own integrity
// times its parent's effective integrity. The result is cached until the
// next mutation.
func (b *Body) EffectiveIntegrities() []float64 {
	if !b.dirty && b.effCache != nil {
		return b.effCache
	}
	eff := make([]float64, len(b.Parts))
	for i := range b.Parts {
		own := b.Parts[i].Integrity
		if b.Parts[i].Severed {
			own = 0
		}
		if p := b.Parts[i].ParentIdx; p != NoParent {
			eff[i] = own * eff[p]
		} else {
			eff[i] = own
		}
	}
	b.effCache = eff
	b.dirty = false
	return eff
}

// EffectiveIntegrity returns one part's effective integrity.
func (b *Body) EffectiveIntegrity(idx int) float64 {
	return b.EffectiveIntegrities()[idx]
}

func (b *Body) markDirty() { b.dirty = true }
