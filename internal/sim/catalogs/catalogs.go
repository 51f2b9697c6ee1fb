// Package catalogs loads the static combat data tables: body plans, tissue
// templates, materials, weapons, techniques, armour pieces, conditions, and
// cards. All files are schema-validated and cross-reference-checked at load
// time; a malformed table refuses to load rather than defaulting.
package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

type Catalogs struct {
	Plans      PlanCatalog
	Tissues    TissueCatalog
	Materials  MaterialCatalog
	Weapons    WeaponCatalog
	Techniques TechniqueCatalog
	Pieces     ArmourPieceCatalog
	Conditions ConditionCatalog
	Cards      CardCatalog
}

// Material is shared by tissue layers and armour layers: shielding reduces
// what passes through, susceptibility decides what the layer itself takes.
type MaterialDef struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	IsStructural bool           `json:"is_structural,omitempty"`
	Shielding    Shielding      `json:"shielding"`
	Suscept      Susceptibility `json:"susceptibility"`
	Shape        *ShapeProfile  `json:"shape,omitempty"`
}

type Shielding struct {
	Deflection float64 `json:"deflection"`
	Absorption float64 `json:"absorption"`
	Dispersion float64 `json:"dispersion"`
}

type Susceptibility struct {
	GeometryThreshold float64 `json:"geometry_threshold"`
	GeometryRatio     float64 `json:"geometry_ratio"`
	EnergyThreshold   float64 `json:"energy_threshold"`
	EnergyRatio       float64 `json:"energy_ratio"`
	RigidityThreshold float64 `json:"rigidity_threshold"`
	RigidityRatio     float64 `json:"rigidity_ratio"`
}

type ShapeProfile struct {
	Profile         string  `json:"profile"`
	DispersionBonus float64 `json:"dispersion_bonus,omitempty"`
	AbsorptionBonus float64 `json:"absorption_bonus,omitempty"`
}

type MaterialCatalog struct {
	ByID   map[string]MaterialDef
	Digest string
}

// Tissue templates are ordered outer-to-inner layer lists; thickness ratios
// are fractions of the owning part's thickness and should sum to ~1.0.
type TissueTemplateDef struct {
	ID     string           `json:"id"`
	Layers []TissueLayerDef `json:"layers"`
}

type TissueLayerDef struct {
	MaterialID     string  `json:"material_id"`
	ThicknessRatio float64 `json:"thickness_ratio"`
}

type TissueCatalog struct {
	ByID   map[string]TissueTemplateDef
	Digest string
}

// Body plans list parts in topological order: a part's parent always
// appears earlier in the list.
type PlanDef struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	BaseHeightCm float64   `json:"base_height_cm"`
	BaseMassKg   float64   `json:"base_mass_kg"`
	BaseStamina  float64   `json:"base_stamina"`
	BaseFocus    float64   `json:"base_focus"`
	Parts        []PartDef `json:"parts"`
}

type PartDef struct {
	ID             string       `json:"id"`
	Tag            string       `json:"tag"`
	Side           string       `json:"side"` // left/right/center
	Parent         string       `json:"parent,omitempty"`
	TissueTemplate string       `json:"tissue_template"`
	Geometry       PartGeometry `json:"geometry"`
	Flags          PartFlags    `json:"flags"`
}

type PartGeometry struct {
	LengthCm    float64 `json:"length_cm"`
	ThicknessCm float64 `json:"thickness_cm"`
	AreaCm2     float64 `json:"area_cm2"`
}

type PartFlags struct {
	Vital    bool `json:"is_vital,omitempty"`
	Internal bool `json:"is_internal,omitempty"`
	CanGrasp bool `json:"can_grasp,omitempty"`
	CanStand bool `json:"can_stand,omitempty"`
	CanSee   bool `json:"can_see,omitempty"`
	CanHear  bool `json:"can_hear,omitempty"`
}

type PlanCatalog struct {
	ByID   map[string]PlanDef
	Digest string
}

type WeaponDef struct {
	ID       string                    `json:"id"`
	Name     string                    `json:"name"`
	WeightKg float64                   `json:"weight_kg"`
	LengthM  float64                   `json:"length_m"`
	Offense  map[string]OffenseProfile `json:"offense"` // by attack mode
	Defense  DefenseProfile            `json:"defense"`
	Physics  WeaponPhysics             `json:"physics"`
}

type OffenseProfile struct {
	DamageMult     float64 `json:"damage_mult"`
	Accuracy       float64 `json:"accuracy"`
	Penetration    float64 `json:"penetration"`
	PenetrationMax float64 `json:"penetration_max"`
}

type DefenseProfile struct {
	Parry   float64 `json:"parry"`
	Deflect float64 `json:"deflect"`
}

type WeaponPhysics struct {
	MomentOfInertia  float64 `json:"moment_of_inertia"`
	EffectiveMass    float64 `json:"effective_mass"`
	ReferenceEnergyJ float64 `json:"reference_energy_j"`
	GeometryCoeff    float64 `json:"geometry_coeff"`
	RigidityCoeff    float64 `json:"rigidity_coeff"`
}

type WeaponCatalog struct {
	ByID   map[string]WeaponDef
	Digest string
}

type TechniqueDef struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Category   string           `json:"category"`              // strike/parry/block/deflect/dodge
	AttackMode string           `json:"attack_mode,omitempty"` // thrust/swing/ranged for strikes
	Difficulty float64          `json:"difficulty"`
	Riposte    bool             `json:"riposte,omitempty"`
	Damage     []DamageInstance `json:"damage,omitempty"`
	Scaling    Scaling          `json:"scaling"`
	Channels   []string         `json:"channels"`
	Duration   float64          `json:"duration"` // fraction of a tick
	Height     string           `json:"height,omitempty"`
	AxisBias   AxisBias         `json:"axis_bias"`
	Counter    CounterProfile   `json:"counter,omitempty"`
	// Per-outcome overrides of the base advantage table.
	Advantage map[string]AdvantageDelta `json:"advantage,omitempty"`
}

type DamageInstance struct {
	Amount float64  `json:"amount"`
	Types  []string `json:"types"`
}

type Scaling struct {
	Ratio float64  `json:"ratio"`
	Stats []string `json:"stats"` // averaged when more than one
}

type AxisBias struct {
	GeometryMult float64 `json:"geometry_mult"`
	EnergyMult   float64 `json:"energy_mult"`
	RigidityMult float64 `json:"rigidity_mult"`
}

// CounterProfile multiplies the attacker's hit chance by attack mode while
// this technique is the active defense.
type CounterProfile struct {
	ThrustMult float64 `json:"thrust_mult,omitempty"`
	SwingMult  float64 `json:"swing_mult,omitempty"`
	RangedMult float64 `json:"ranged_mult,omitempty"`
}

// AdvantageDelta is the five-field advantage effect: three relational axes
// plus both agents' intrinsic balance.
type AdvantageDelta struct {
	Pressure      float64 `json:"pressure,omitempty"`
	Control       float64 `json:"control,omitempty"`
	Position      float64 `json:"position,omitempty"`
	SelfBalance   float64 `json:"self_balance,omitempty"`
	TargetBalance float64 `json:"target_balance,omitempty"`
}

type TechniqueCatalog struct {
	ByID   map[string]TechniqueDef
	Digest string
}

type ArmourPieceDef struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	MaterialID string          `json:"material"`
	Coverage   []CoverageEntry `json:"coverage"`
}

type CoverageEntry struct {
	PartTags    []string `json:"part_tags"`
	Side        string   `json:"side,omitempty"` // empty = both sides
	Layer       string   `json:"layer"`          // outer/inner
	Totality    float64  `json:"totality"`       // gap probability in [0,1]
	ThicknessCm float64  `json:"thickness_cm"`
}

type ArmourPieceCatalog struct {
	ByID   map[string]ArmourPieceDef
	Digest string
}

type ConditionDef struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Ticks     int    `json:"ticks"`
	Successor string `json:"successor,omitempty"`
}

type ConditionCatalog struct {
	ByID   map[string]ConditionDef
	Digest string
}

// Cards encode behavior as data: a card is either an action (references a
// technique) or a modifier (stacks onto a play), plus rules evaluated at
// commit and resolve time.
type CardDef struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Kind        string    `json:"kind"` // action/modifier
	TechniqueID string    `json:"technique_id,omitempty"`
	TargetQuery string    `json:"target_query,omitempty"` // single/all_enemies/self
	Cost        CardCost  `json:"cost"`
	Pool        bool      `json:"pool,omitempty"`
	Cooldown    int       `json:"cooldown,omitempty"`
	CostMult    float64   `json:"cost_mult,omitempty"`
	DamageMult  float64   `json:"damage_mult,omitempty"`
	Rules       []RuleDef `json:"rules,omitempty"`
	// Modifier-only: per-outcome advantage override applied to the play.
	AdvantageOverride map[string]AdvantageDelta `json:"advantage_override,omitempty"`
}

type CardCost struct {
	Stamina  float64 `json:"stamina,omitempty"`
	Focus    float64 `json:"focus,omitempty"`
	Exhausts bool    `json:"exhausts,omitempty"`
}

type RuleDef struct {
	Trigger   string       `json:"trigger"` // on_commit/on_resolve
	Predicate PredicateDef `json:"predicate"`
	Effects   []EffectDef  `json:"effects"`
}

// PredicateDef is a closed tree; Op decides which fields matter.
type PredicateDef struct {
	Op    string         `json:"op"` // always/stamina_below/focus_below/has_condition/stakes_at_least/and/or/not
	Value float64        `json:"value,omitempty"`
	Name  string         `json:"name,omitempty"`
	Args  []PredicateDef `json:"args,omitempty"`
}

// EffectDef is a closed union; Op decides which fields matter.
type EffectDef struct {
	Op             string  `json:"op"`     // modify_play/cancel_play/modify_stamina/modify_focus/apply_condition
	Target         string  `json:"target"` // my_plays/opponent_plays/self/all_enemies
	MatchTechnique string  `json:"match_technique,omitempty"`
	MatchCategory  string  `json:"match_category,omitempty"`
	CostMult       float64 `json:"cost_mult,omitempty"`
	DamageMult     float64 `json:"damage_mult,omitempty"`
	Amount         float64 `json:"amount,omitempty"`
	Condition      string  `json:"condition,omitempty"`
}

type CardCatalog struct {
	ByID   map[string]CardDef
	Digest string
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs

	if err := loadTable(configDir, "materials", &c.Materials.Digest, func(raw []byte) error {
		return decodeByID(raw, "materials.json", &c.Materials.ByID, func(d MaterialDef) string { return d.ID })
	}); err != nil {
		return nil, err
	}
	if err := loadTable(configDir, "tissue_templates", &c.Tissues.Digest, func(raw []byte) error {
		return decodeByID(raw, "tissue_templates.json", &c.Tissues.ByID, func(d TissueTemplateDef) string { return d.ID })
	}); err != nil {
		return nil, err
	}
	if err := loadTable(configDir, "body_plans", &c.Plans.Digest, func(raw []byte) error {
		return decodeByID(raw, "body_plans.json", &c.Plans.ByID, func(d PlanDef) string { return d.ID })
	}); err != nil {
		return nil, err
	}
	if err := loadTable(configDir, "weapons", &c.Weapons.Digest, func(raw []byte) error {
		return decodeByID(raw, "weapons.json", &c.Weapons.ByID, func(d WeaponDef) string { return d.ID })
	}); err != nil {
		return nil, err
	}
	if err := loadTable(configDir, "techniques", &c.Techniques.Digest, func(raw []byte) error {
		return decodeByID(raw, "techniques.json", &c.Techniques.ByID, func(d TechniqueDef) string { return d.ID })
	}); err != nil {
		return nil, err
	}
	if err := loadTable(configDir, "armour_pieces", &c.Pieces.Digest, func(raw []byte) error {
		return decodeByID(raw, "armour_pieces.json", &c.Pieces.ByID, func(d ArmourPieceDef) string { return d.ID })
	}); err != nil {
		return nil, err
	}
	if err := loadTable(configDir, "conditions", &c.Conditions.Digest, func(raw []byte) error {
		return decodeByID(raw, "conditions.json", &c.Conditions.ByID, func(d ConditionDef) string { return d.ID })
	}); err != nil {
		return nil, err
	}
	if err := loadTable(configDir, "cards", &c.Cards.Digest, func(raw []byte) error {
		return decodeByID(raw, "cards.json", &c.Cards.ByID, func(d CardDef) string { return d.ID })
	}); err != nil {
		return nil, err
	}

	if err := c.audit(); err != nil {
		return nil, err
	}
	return &c, nil
}

// loadTable reads <name>.json, validates it against schemas/<name>.schema.json
// if present, records the raw digest, and hands the bytes to decode.
func loadTable(configDir, name string, digest *string, decode func([]byte) error) error {
	path := filepath.Join(configDir, name+".json")
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	*digest = sha256Hex(raw)

	schemaPath := filepath.Join(configDir, "schemas", name+".schema.json")
	if _, err := os.Stat(schemaPath); err == nil {
		schema, err := jsonschema.Compile(schemaPath)
		if err != nil {
			return fmt.Errorf("%s.schema.json: %w", name, err)
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("%s.json: %w", name, err)
		}
		if err := schema.Validate(v); err != nil {
			return fmt.Errorf("%s.json: %w", name, err)
		}
	}
	return decode(raw)
}

func decodeByID[T any](raw []byte, file string, out *map[string]T, id func(T) string) error {
	var defs []T
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}
	*out = make(map[string]T, len(defs))
	for _, d := range defs {
		key := id(d)
		if key == "" {
			return fmt.Errorf("%s: empty id", file)
		}
		if _, dup := (*out)[key]; dup {
			return fmt.Errorf("%s: duplicate id %q", file, key)
		}
		(*out)[key] = d
	}
	return nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
