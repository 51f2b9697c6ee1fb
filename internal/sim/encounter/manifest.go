package encounter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"duelforge.gg/internal/sim/combat"
)

// Manifest is the serializable setup of a recorded encounter. The arena
// writes one next to the journal; replay rebuilds the exact encounter
// from it and re-runs the ticks.
type Manifest struct {
	EncounterID string          `json:"encounter_id"`
	Seed        int64           `json:"seed"`
	Ticks       int             `json:"ticks"`
	Agents      []AgentManifest `json:"agents"`
}

type AgentManifest struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	PlanID   string        `json:"plan_id"`
	Stats    StatsManifest `json:"stats"`
	WeaponID string        `json:"weapon_id"`
	Armour   []string      `json:"armour,omitempty"`
	Hand     []string      `json:"hand,omitempty"`
	Pool     []string      `json:"pool,omitempty"`
	Strategy StrategySpec  `json:"strategy"`
}

type StatsManifest struct {
	Power   float64 `json:"power"`
	Speed   float64 `json:"speed"`
	Agility float64 `json:"agility"`
	Skill   float64 `json:"skill"`
}

// StrategySpec names a director by kind: "hand" plays from the hand,
// "pool" draws from the pool masters.
type StrategySpec struct {
	Kind   string `json:"kind"`
	N      int    `json:"n"`
	Stakes string `json:"stakes"`
}

func (s StrategySpec) Build() (Strategy, error) {
	stakes, err := combat.ParseStakes(s.Stakes)
	if err != nil {
		return nil, err
	}
	n := s.N
	if n <= 0 {
		n = 1
	}
	switch s.Kind {
	case "hand":
		return FirstValidStrategy{N: n, Stakes: stakes}, nil
	case "pool":
		return PoolStrategy{N: n, Stakes: stakes}, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", s.Kind)
	}
}

// Config turns the manifest back into an encounter config.
func (m Manifest) Config() (Config, error) {
	cfg := Config{ID: m.EncounterID, Seed: m.Seed}
	for _, am := range m.Agents {
		strat, err := am.Strategy.Build()
		if err != nil {
			return Config{}, fmt.Errorf("agent %q: %w", am.ID, err)
		}
		cfg.Agents = append(cfg.Agents, AgentConfig{
			ID:     am.ID,
			Name:   am.Name,
			PlanID: am.PlanID,
			Stats: combat.StatBlock{
				Power:   am.Stats.Power,
				Speed:   am.Stats.Speed,
				Agility: am.Stats.Agility,
				Skill:   am.Stats.Skill,
			},
			WeaponID: am.WeaponID,
			Armour:   am.Armour,
			Hand:     am.Hand,
			Pool:     am.Pool,
			Strategy: strat,
		})
	}
	return cfg, nil
}

func ManifestPath(dataDir, encounterID string) string {
	return filepath.Join(dataDir, "matches", encounterID+".json")
}

func (m Manifest) Write(dataDir string) error {
	path := ManifestPath(dataDir, m.EncounterID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

func ReadManifest(dataDir, encounterID string) (Manifest, error) {
	b, err := os.ReadFile(ManifestPath(dataDir, encounterID))
	if err != nil {
		return Manifest{}, err
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return Manifest{}, fmt.Errorf("manifest %s: %w", encounterID, err)
	}
	return m, nil
}
