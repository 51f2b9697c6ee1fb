package combat

import (
	"duelforge.gg/internal/sim/catalogs"
	"duelforge.gg/internal/sim/rng"
	"duelforge.gg/internal/sim/tuning"
)

// ArmourLayer is one equipped material layer covering a body part,
// ordered outer to inner in a stack.
type ArmourLayer struct {
	PieceID     string
	Material    catalogs.MaterialDef
	ThicknessCm float64
	Totality    float64 // gap probability: chance a hit bypasses this layer
}

// LayerResult traces what one layer did to the packet.
type LayerResult struct {
	PieceID     string
	MaterialID  string
	Bypassed    bool
	LayerDamage float64
	Stopped     bool
	Before      [3]float64 // geometry, energy, rigidity
	After       [3]float64
}

// ResolveThroughArmour attenuates a packet through a stack of layers,
// outer to inner. An empty stack is the identity transform. Apart from the
// explicit gap-bypass branch, no layer ever increases a damage axis.
func ResolveThroughArmour(layers []ArmourLayer, p Packet, draw *rng.Stream, tun tuning.Tuning) (Packet, []LayerResult) {
	if !IsPhysicalKind(p.Kind) {
		return p, nil
	}

	results := make([]LayerResult, 0, len(layers))
	for _, layer := range layers {
		res := LayerResult{
			PieceID:    layer.PieceID,
			MaterialID: layer.Material.ID,
			Before:     [3]float64{p.Geometry, p.Energy, p.Rigidity},
		}

		// Seams, joints, coverage gaps.
		if layer.Totality > 0 && draw.Float64() < layer.Totality {
			res.Bypassed = true
			res.After = res.Before
			results = append(results, res)
			continue
		}

		shield := layer.Material.Shielding
		absorption := shield.Absorption
		dispersion := shield.Dispersion
		if shape := layer.Material.Shape; shape != nil {
			absorption += shape.AbsorptionBonus
			dispersion += shape.DispersionBonus
		}

		res.LayerDamage = susceptDamage(layer.Material.Suscept, p)

		p.Geometry = clampZero(p.Geometry*(1-shield.Deflection) - layer.ThicknessCm)
		p.Energy = clampZero(p.Energy * (1 - clamp01(absorption)))
		p.Rigidity = clampZero(p.Rigidity * (1 - clamp01(dispersion)))

		res.After = [3]float64{p.Geometry, p.Energy, p.Rigidity}
		results = append(results, res)

		if stopPropagation(p, tun) {
			results[len(results)-1].Stopped = true
			break
		}
	}
	return p, results
}

// susceptDamage is how much the layer itself degrades: per axis, the excess
// over threshold times the ratio.
func susceptDamage(s catalogs.Susceptibility, p Packet) float64 {
	d := 0.0
	if over := p.Geometry - s.GeometryThreshold; over > 0 {
		d += over * s.GeometryRatio
	}
	if over := p.Energy - s.EnergyThreshold; over > 0 {
		d += over * s.EnergyRatio
	}
	if over := p.Rigidity - s.RigidityThreshold; over > 0 {
		d += over * s.RigidityRatio
	}
	return d
}

// stopPropagation: piercing and slashing attacks die with their geometry;
// anything dies once the energy is spent.
func stopPropagation(p Packet, tun tuning.Tuning) bool {
	if (p.Kind == KindPierce || p.Kind == KindCut) && p.Geometry <= 0 {
		return true
	}
	return p.Energy < tun.EnergyEpsilon
}

func clampZero(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
