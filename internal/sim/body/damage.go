package body

import (
	"duelforge.gg/internal/sim/combat"
	"duelforge.gg/internal/sim/tuning"
)

// TissueResult traces what one tissue layer took and passed on.
type TissueResult struct {
	Layer    int
	Material string
	Damage   float64
	Severity Severity
	Stopped  bool
}

// DamageResult is the outcome of applying one packet to one part.
type DamageResult struct {
	PartIndex int
	Wounds    []Wound
	Layers    []TissueResult
	Severed   bool
	Destroyed bool
}

// ApplyDamage resolves a packet against a part's tissue layers, outer to
// inner, recording a wound per layer that took damage. A part with no
// tissue layers is a pass-through: nothing absorbs, nothing is recorded.
func (b *Body) ApplyDamage(partIdx int, p combat.Packet, tun tuning.Tuning) DamageResult {
	if partIdx < 0 || partIdx >= len(b.Parts) {
		panic("body: part index out of range")
	}
	part := &b.Parts[partIdx]
	res := DamageResult{PartIndex: partIdx}
	if !combat.IsPhysicalKind(p.Kind) || len(part.Layers) == 0 {
		return res
	}

	totalThickness := 0.0
	for _, l := range part.Layers {
		totalThickness += l.ThicknessCm
	}

	for li, layer := range part.Layers {
		// The layer is wounded by what reaches it; shielding only decides
		// what passes deeper.
		suscept := layer.Material.Suscept
		geomDmg := excess(p.Geometry, suscept.GeometryThreshold) * suscept.GeometryRatio
		volDmg := excess(p.Energy, suscept.EnergyThreshold)*suscept.EnergyRatio +
			excess(p.Rigidity, suscept.RigidityThreshold)*suscept.RigidityRatio

		// Normalize by thickness within a band: paper-thin layers must not
		// inflate severity, thick ones must not dilute it away.
		norm := layer.ThicknessCm
		if norm < 0.5 {
			norm = 0.5
		} else if norm > 2.0 {
			norm = 2.0
		}
		sev := layerSeverity(layer.Material.IsStructural, volDmg/norm, geomDmg/norm)

		shield := layer.Material.Shielding
		p.Geometry = clampZero(p.Geometry*(1-shield.Deflection) - layer.ThicknessCm)
		p.Energy = clampZero(p.Energy * (1 - clamp01(shield.Absorption)))
		p.Rigidity = clampZero(p.Rigidity * (1 - clamp01(shield.Dispersion)))

		tr := TissueResult{Layer: li, Material: layer.Material.ID, Damage: geomDmg + volDmg, Severity: sev}
		if tr.Damage > 0 {
			wound := Wound{Layer: li, Material: layer.Material.ID, Severity: sev, Kind: p.Kind}
			part.Wounds = append(part.Wounds, wound)
			res.Wounds = append(res.Wounds, wound)

			share := layer.ThicknessCm / totalThickness
			part.Integrity = clampZero(part.Integrity - sev.integrityImpact()*share)
		}

		stopped := stopTissue(p, tun)
		tr.Stopped = stopped
		res.Layers = append(res.Layers, tr)
		if stopped {
			break
		}
	}

	if len(res.Wounds) > 0 {
		b.markDirty()
		res.Severed = b.checkSevering(partIdx, res, tun)
		res.Destroyed = part.Integrity == 0
	}
	return res
}

// layerSeverity implements the dual severity model. Soft tissue takes the
// worse of volume and depth, capped at disabled. Structural tissue is
// volume-driven; depth alone cannot exceed broken, and missing requires
// enough volume damage.
func layerSeverity(structural bool, volNorm, depthNorm float64) Severity {
	vol := severityFromVolume(volNorm)
	depth := severityFromDepth(depthNorm)
	if !structural {
		return minSeverity(maxSeverity(vol, depth), SeverityDisabled)
	}
	sev := maxSeverity(vol, minSeverity(depth, SeverityBroken))
	if sev == SeverityMissing && vol < SeverityMissing {
		sev = SeverityBroken
	}
	return sev
}

func stopTissue(p combat.Packet, tun tuning.Tuning) bool {
	if (p.Kind == combat.KindPierce || p.Kind == combat.KindCut) && p.Geometry <= 0 {
		return true
	}
	return p.Energy < tun.EnergyEpsilon
}

func excess(v, threshold float64) float64 {
	if v > threshold {
		return v - threshold
	}
	return 0
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
