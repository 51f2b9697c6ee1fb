package body

// Children returns the indices of a part's direct children.
func (b *Body) Children(partIdx int) []int {
	var out []int
	for i := range b.Parts {
		if b.Parts[i].ParentIdx == partIdx {
			out = append(out, i)
		}
	}
	return out
}

// GraspStrength is the effective integrity of a grasping part scaled by
// the average effective integrity of its digit children. A hand with
// ruined fingers holds poorly even when the hand itself is intact.
func (b *Body) GraspStrength(partIdx int) float64 {
	part := b.Parts[partIdx]
	if !part.Def.Flags.CanGrasp || part.Severed {
		return 0
	}
	eff := b.EffectiveIntegrities()
	strength := eff[partIdx]

	digits := 0
	digitSum := 0.0
	for _, ci := range b.Children(partIdx) {
		digits++
		digitSum += eff[ci]
	}
	if digits > 0 {
		strength *= digitSum / float64(digits)
	}
	return strength
}

// FunctionalGraspingParts lists parts whose grasp strength exceeds the
// given minimum, in topological order. Zero means any grip at all.
func (b *Body) FunctionalGraspingParts(minStrength float64) []int {
	var out []int
	for i := range b.Parts {
		if b.GraspStrength(i) > minStrength {
			out = append(out, i)
		}
	}
	return out
}

// Enclosed returns the indices of a part's internal children: parts that
// cannot be targeted directly and ride on the enclosing part's fate.
func (b *Body) Enclosed(partIdx int) []int {
	var out []int
	for _, ci := range b.Children(partIdx) {
		if b.Parts[ci].Def.Flags.Internal {
			out = append(out, ci)
		}
	}
	return out
}

// MobilityScore averages effective integrity over standing parts: 1 when
// whole, 0 when the agent cannot stand at all.
func (b *Body) MobilityScore() float64 {
	return b.flagAverage(func(p *Part) bool { return p.Def.Flags.CanStand })
}

// VisionScore averages effective integrity over seeing parts.
func (b *Body) VisionScore() float64 {
	return b.flagAverage(func(p *Part) bool { return p.Def.Flags.CanSee })
}

// HearingScore averages effective integrity over hearing parts.
func (b *Body) HearingScore() float64 {
	return b.flagAverage(func(p *Part) bool { return p.Def.Flags.CanHear })
}

func (b *Body) flagAverage(match func(p *Part) bool) float64 {
	eff := b.EffectiveIntegrities()
	n := 0
	sum := 0.0
	for i := range b.Parts {
		if match(&b.Parts[i]) {
			n++
			sum += eff[i]
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// VitalIntegrity is the lowest effective integrity among vital parts;
// 0 means a vital part is gone and the agent is dead or dying.
func (b *Body) VitalIntegrity() float64 {
	eff := b.EffectiveIntegrities()
	low := 1.0
	found := false
	for i := range b.Parts {
		if b.Parts[i].Def.Flags.Vital {
			found = true
			if eff[i] < low {
				low = eff[i]
			}
		}
	}
	if !found {
		return 1
	}
	return low
}

// TargetableParts lists parts an attack can be aimed at: not severed and
// not internal.
func (b *Body) TargetableParts() []int {
	var out []int
	for i := range b.Parts {
		if !b.Parts[i].Severed && !b.Parts[i].Def.Flags.Internal {
			out = append(out, i)
		}
	}
	return out
}
