package catalogs

import "errors"

// Lookup sentinels for callers resolving references at runtime. Load-time
// cross-reference failures are reported as plain wrapped errors instead.
var (
	ErrUnknownMaterial  = errors.New("unknown material")
	ErrUnknownWeapon    = errors.New("unknown weapon")
	ErrUnknownTechnique = errors.New("unknown technique")
	ErrUnknownCard      = errors.New("unknown card")
	ErrUnknownCondition = errors.New("unknown condition")
	ErrUnknownPiece     = errors.New("unknown armour piece")
)
