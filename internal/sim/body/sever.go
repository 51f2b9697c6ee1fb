package body

import (
	"duelforge.gg/internal/sim/combat"
	"duelforge.gg/internal/sim/tuning"
)

// checkSevering decides whether the latest damage severed the part.
// Severing needs both structural and soft tissue ruined in the same
// resolution; a cut can take a part off outright, while pierce and blunt
// only sever when the structural layer is destroyed entirely. Small parts
// come off easier.
func (b *Body) checkSevering(partIdx int, res DamageResult, tun tuning.Tuning) bool {
	part := &b.Parts[partIdx]
	if part.Severed {
		return false
	}

	var structSev, softSev Severity
	for _, w := range res.Wounds {
		layer := part.Layers[w.Layer]
		if layer.Material.IsStructural {
			structSev = maxSeverity(structSev, w.Severity)
		} else {
			softSev = maxSeverity(softSev, w.Severity)
		}
	}
	if structSev == SeverityNone || softSev == SeverityNone {
		return false
	}

	small := part.Def.Geometry.AreaCm2 < tun.SmallPartAreaCm2
	kind := res.Wounds[0].Kind

	severed := false
	switch kind {
	case combat.KindCut:
		if small {
			severed = structSev >= SeverityDisabled && softSev >= SeverityImpaired
		} else {
			severed = structSev >= SeverityBroken && softSev >= SeverityDisabled
		}
	case combat.KindPierce, combat.KindBlunt:
		severed = structSev == SeverityMissing
	}
	if severed {
		b.Sever(partIdx)
	}
	return severed
}

// Sever marks a part and its entire subtree as severed and gone.
func (b *Body) Sever(partIdx int) {
	b.Parts[partIdx].Severed = true
	b.Parts[partIdx].Integrity = 0
	for i := range b.Parts {
		if b.Parts[i].ParentIdx == partIdx && !b.Parts[i].Severed {
			b.Sever(i)
		}
	}
	b.markDirty()
}
