package protocol

// BOOTSTRAP (server -> observer, HTTP)
type BootstrapResponse struct {
	ProtocolVersion string       `json:"protocol_version"`
	EncounterID     string       `json:"encounter_id"`
	Tick            uint64       `json:"tick"`
	Seed            int64        `json:"seed"`
	Agents          []AgentBrief `json:"agents"`
	CatalogDigests  Digests      `json:"catalog_digests"`
}

type AgentBrief struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	PlanID string `json:"plan_id"`
	AI     bool   `json:"ai,omitempty"`
}

type Digests struct {
	BodyPlans    string `json:"body_plans"`
	Materials    string `json:"materials"`
	Weapons      string `json:"weapons"`
	Techniques   string `json:"techniques"`
	ArmourPieces string `json:"armour_pieces"`
	Cards        string `json:"cards"`
}

// SUBSCRIBE (observer -> server). First message on the websocket, may be
// re-sent to change the backlog.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Backlog         int    `json:"backlog,omitempty"`
}

// TICK (server -> observer, websocket): one frame per resolved tick.
type TickMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	Tick            uint64  `json:"tick"`
	Digest          string  `json:"digest"`
	Events          []Event `json:"events,omitempty"`
}
