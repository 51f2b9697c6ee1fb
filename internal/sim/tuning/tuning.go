package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning holds every balance constant the resolution pipeline reads.
// Values left at zero in the file fall back to Default().
type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	HitChanceMin float64 `yaml:"hit_chance_min"`
	HitChanceMax float64 `yaml:"hit_chance_max"`

	// Energy below this stops layer propagation for any damage kind.
	EnergyEpsilon float64 `yaml:"energy_epsilon"`

	// Parts with exposed area below this (cm^2) sever at reduced thresholds.
	SmallPartAreaCm2 float64 `yaml:"small_part_area_cm2"`

	// Per-stakes damage multipliers.
	Stakes StakesTable `yaml:"stakes"`

	// Modifier stack cap per play.
	ModifierCap int `yaml:"modifier_cap"`

	// Time slots per agent per tick.
	SlotCap int `yaml:"slot_cap"`

	// Advantage effect scaling per stakes, split by success/failure.
	AdvantageScale AdvantageScaleTable `yaml:"advantage_scale"`

	// Per-tick resource recovery.
	StaminaRefresh float64 `yaml:"stamina_refresh"`
	FocusRefresh   float64 `yaml:"focus_refresh"`
}

type StakesTable struct {
	Probing   float64 `yaml:"probing"`
	Guarded   float64 `yaml:"guarded"`
	Committed float64 `yaml:"committed"`
	Reckless  float64 `yaml:"reckless"`
}

type AdvantageScaleTable struct {
	Probing          float64 `yaml:"probing"`
	Guarded          float64 `yaml:"guarded"`
	CommittedSuccess float64 `yaml:"committed_success"`
	CommittedFailure float64 `yaml:"committed_failure"`
	RecklessSuccess  float64 `yaml:"reckless_success"`
	RecklessFailure  float64 `yaml:"reckless_failure"`
}

func Default() Tuning {
	return Tuning{
		ProtocolVersion:  "0.3",
		HitChanceMin:     0.05,
		HitChanceMax:     0.95,
		EnergyEpsilon:    0.05,
		SmallPartAreaCm2: 30,
		Stakes: StakesTable{
			Probing:   0.4,
			Guarded:   1.0,
			Committed: 1.4,
			Reckless:  2.0,
		},
		ModifierCap: 4,
		SlotCap:     8,
		AdvantageScale: AdvantageScaleTable{
			Probing:          0.5,
			Guarded:          1.0,
			CommittedSuccess: 1.25,
			CommittedFailure: 1.5,
			RecklessSuccess:  1.5,
			RecklessFailure:  2.0,
		},
		StaminaRefresh: 2,
		FocusRefresh:   1,
	}
}

func Load(path string) (Tuning, error) {
	t := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	var file Tuning
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	merge(&t, file)
	return t, nil
}

// merge copies nonzero file values over defaults.
func merge(dst *Tuning, src Tuning) {
	if src.ProtocolVersion != "" {
		dst.ProtocolVersion = src.ProtocolVersion
	}
	if src.HitChanceMin != 0 {
		dst.HitChanceMin = src.HitChanceMin
	}
	if src.HitChanceMax != 0 {
		dst.HitChanceMax = src.HitChanceMax
	}
	if src.EnergyEpsilon != 0 {
		dst.EnergyEpsilon = src.EnergyEpsilon
	}
	if src.SmallPartAreaCm2 != 0 {
		dst.SmallPartAreaCm2 = src.SmallPartAreaCm2
	}
	if src.Stakes.Probing != 0 {
		dst.Stakes.Probing = src.Stakes.Probing
	}
	if src.Stakes.Guarded != 0 {
		dst.Stakes.Guarded = src.Stakes.Guarded
	}
	if src.Stakes.Committed != 0 {
		dst.Stakes.Committed = src.Stakes.Committed
	}
	if src.Stakes.Reckless != 0 {
		dst.Stakes.Reckless = src.Stakes.Reckless
	}
	if src.ModifierCap != 0 {
		dst.ModifierCap = src.ModifierCap
	}
	if src.SlotCap != 0 {
		dst.SlotCap = src.SlotCap
	}
	if src.AdvantageScale.Probing != 0 {
		dst.AdvantageScale.Probing = src.AdvantageScale.Probing
	}
	if src.AdvantageScale.Guarded != 0 {
		dst.AdvantageScale.Guarded = src.AdvantageScale.Guarded
	}
	if src.AdvantageScale.CommittedSuccess != 0 {
		dst.AdvantageScale.CommittedSuccess = src.AdvantageScale.CommittedSuccess
	}
	if src.AdvantageScale.CommittedFailure != 0 {
		dst.AdvantageScale.CommittedFailure = src.AdvantageScale.CommittedFailure
	}
	if src.AdvantageScale.RecklessSuccess != 0 {
		dst.AdvantageScale.RecklessSuccess = src.AdvantageScale.RecklessSuccess
	}
	if src.AdvantageScale.RecklessFailure != 0 {
		dst.AdvantageScale.RecklessFailure = src.AdvantageScale.RecklessFailure
	}
	if src.StaminaRefresh != 0 {
		dst.StaminaRefresh = src.StaminaRefresh
	}
	if src.FocusRefresh != 0 {
		dst.FocusRefresh = src.FocusRefresh
	}
}
