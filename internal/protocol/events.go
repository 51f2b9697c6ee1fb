package protocol

// Event is a single simulation event as it appears on the wire and in the
// journal. Kept as a loose map so new fields never break old readers.
type Event map[string]interface{}

// Event types emitted by the combat core. These are the sole mechanism by
// which presentation, logging, and AI observe simulation results.
const (
	EvOutcomeResolved   = "OUTCOME_RESOLVED"
	EvAdvantageChanged  = "ADVANTAGE_CHANGED"
	EvWoundInflicted    = "WOUND_INFLICTED"
	EvPartSevered       = "PART_SEVERED"
	EvConditionApplied  = "CONDITION_APPLIED"
	EvConditionExpired  = "CONDITION_EXPIRED"
	EvResourceDeducted  = "RESOURCE_DEDUCTED"
	EvResourceRecovered = "RESOURCE_RECOVERED"
	EvRandomDraw        = "RANDOM_DRAW"
	EvPlayScheduled     = "PLAY_SCHEDULED"
	EvPlayCanceled      = "PLAY_CANCELED"
	EvCardMoved         = "CARD_MOVED"
)
