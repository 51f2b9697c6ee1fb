package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Catalog/data layer (fatal at load).
	ErrUnknownPlan      = "E_UNKNOWN_PLAN"
	ErrUnknownMaterial  = "E_UNKNOWN_MATERIAL"
	ErrUnknownWeapon    = "E_UNKNOWN_WEAPON"
	ErrUnknownTechnique = "E_UNKNOWN_TECHNIQUE"
	ErrUnknownCard      = "E_UNKNOWN_CARD"
	ErrBadPlanOrder     = "E_BAD_PLAN_ORDER"

	// Scheduling/play layer (recoverable, surfaced to the caller).
	ErrNoSpace       = "E_NO_SPACE"
	ErrOverflow      = "E_OVERFLOW"
	ErrNoResource    = "E_NO_RESOURCE"
	ErrInvalidTarget = "E_INVALID_TARGET"
	ErrLocked        = "E_LOCKED"

	ErrInternal = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest:  {},
	ErrUnknownPlan:      {},
	ErrUnknownMaterial:  {},
	ErrUnknownWeapon:    {},
	ErrUnknownTechnique: {},
	ErrUnknownCard:      {},
	ErrBadPlanOrder:     {},
	ErrNoSpace:          {},
	ErrOverflow:         {},
	ErrNoResource:       {},
	ErrInvalidTarget:    {},
	ErrLocked:           {},
	ErrInternal:         {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
