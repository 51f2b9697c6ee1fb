package body

import "errors"

// ErrUnknownPlan is returned by FromPlan for an unregistered plan id.
var ErrUnknownPlan = errors.New("unknown body plan")

// Severity is the ordinal wound-depth scale.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityInhibited
	SeverityImpaired
	SeverityDisabled
	SeverityBroken
	SeverityMissing
)

func (s Severity) String() string {
	switch s {
	case SeverityInhibited:
		return "inhibited"
	case SeverityImpaired:
		return "impaired"
	case SeverityDisabled:
		return "disabled"
	case SeverityBroken:
		return "broken"
	case SeverityMissing:
		return "missing"
	default:
		return "none"
	}
}

// integrityImpact is the fraction of a part's integrity one wound of this
// severity removes, before scaling by the wounded layer's share of the
// part's thickness.
func (s Severity) integrityImpact() float64 {
	switch s {
	case SeverityInhibited:
		return 0.1
	case SeverityImpaired:
		return 0.25
	case SeverityDisabled:
		return 0.5
	case SeverityBroken:
		return 0.75
	case SeverityMissing:
		return 1
	default:
		return 0
	}
}

func maxSeverity(a, b Severity) Severity {
	if a > b {
		return a
	}
	return b
}

func minSeverity(a, b Severity) Severity {
	if a < b {
		return a
	}
	return b
}

// severityFromVolume maps normalized energy excess to a severity: the
// volume-driven half of the dual model.
func severityFromVolume(normalized float64) Severity {
	return severityFromScale(normalized)
}

// severityFromDepth maps normalized geometry excess to a severity: the
// depth-driven half.
func severityFromDepth(normalized float64) Severity {
	return severityFromScale(normalized)
}

func severityFromScale(v float64) Severity {
	switch {
	case v >= 2.0:
		return SeverityMissing
	case v >= 1.0:
		return SeverityBroken
	case v >= 0.5:
		return SeverityDisabled
	case v >= 0.25:
		return SeverityImpaired
	case v >= 0.1:
		return SeverityInhibited
	default:
		return SeverityNone
	}
}
