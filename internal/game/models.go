/*
Package game
File: models.go
Description:

	Defines the data structures shared by the battle simulation.
	Rules maps directly onto 'battlefield.yaml'. The remaining types are the
	runtime pieces of a match (items, loadouts, player attributes).

	No logic is performed here beyond small lookups.
*/
package game

// ItemCategory is the store slot an item occupies. A dome holds at most one
// active item per category.
type ItemCategory string

const (
	Offensive ItemCategory = "offensive"
	Defensive ItemCategory = "defensive"
)

// Effect identifies what an item does once bought.
type Effect string

const (
	EffectShield    Effect = "shield"    // absorbs the next hit
	EffectRepair    Effect = "repair"    // instant heal, not refundable
	EffectTargeting Effect = "targeting" // restores the seat's previous-turn wind
	EffectSpread    Effect = "spread"    // three projectile volley
	EffectNuke      Effect = "nuke"      // 3x blast radius, 2x damage
	EffectDigger    Effect = "digger"    // 3x crater depth
)

// Item is a store catalog entry.
type Item struct {
	ID          string       `yaml:"id" json:"id"`
	Name        string       `yaml:"name" json:"name"`
	Description string       `yaml:"description" json:"description"`
	Cost        int          `yaml:"cost" json:"cost"`
	Category    ItemCategory `yaml:"category" json:"category"`
	Effect      Effect       `yaml:"effect" json:"effect"`
}

// DomeType is a loadout. Its multipliers scale the base dome stats.
type DomeType struct {
	ID                 string  `yaml:"id" json:"id"`
	Name               string  `yaml:"name" json:"name"`
	Description        string  `yaml:"description" json:"description"`
	HealthMultiplier   float64 `yaml:"health_multiplier" json:"health_multiplier"`
	MovementMultiplier float64 `yaml:"movement_multiplier" json:"movement_multiplier"`
	IncomeMultiplier   float64 `yaml:"income_multiplier" json:"income_multiplier"`
}

// MapConfig shapes the procedural terrain and the playable bounds.
type MapConfig struct {
	Width       int     `yaml:"width"`
	Height      float64 `yaml:"height"`       // bottom bound for projectiles
	BaseHeight  float64 `yaml:"base_height"`  // surface y where every sine term is zero
	Amplitude   float64 `yaml:"amplitude"`    // A1; A2 = A1/2, A3 = A1/3
	Frequency   float64 `yaml:"frequency"`    // f
	SpawnMargin float64 `yaml:"spawn_margin"` // distance of outer domes from the edges
}

// PhysicsConfig holds the ballistic constants.
type PhysicsConfig struct {
	Gravity          float64 `yaml:"gravity"`    // px/s^2
	WindScale        float64 `yaml:"wind_scale"` // wind speed -> px/s^2
	MaxSpeed         float64 `yaml:"max_speed"`  // launch speed at power 100
	MaxWind          float64 `yaml:"max_wind"`
	TrailLength      int     `yaml:"trail_length"`
	ProjectileRadius float64 `yaml:"projectile_radius"`
	LaunchOffset     float64 `yaml:"launch_offset"` // spawn height above the dome
	StepSeconds      float64 `yaml:"step_seconds"`
	MaxSteps         int     `yaml:"max_steps"`
}

// CombatConfig holds damage, crater and item magnitudes.
type CombatConfig struct {
	CraterRadius      float64 `yaml:"crater_radius"`
	CraterDepthFactor float64 `yaml:"crater_depth_factor"`
	HitRadius         float64 `yaml:"hit_radius"`
	BaseDamage        float64 `yaml:"base_damage"`
	MinDamage         float64 `yaml:"min_damage"`
	NukeRadiusMult    float64 `yaml:"nuke_radius_mult"`
	NukeDamageMult    float64 `yaml:"nuke_damage_mult"`
	DiggerDepthMult   float64 `yaml:"digger_depth_mult"`
	SpreadCount       int     `yaml:"spread_count"`
	SpreadAngle       float64 `yaml:"spread_angle"` // degrees between volley projectiles
	RepairAmount      int     `yaml:"repair_amount"`
}

// EconomyConfig controls the gold flow.
type EconomyConfig struct {
	StartingGold int `yaml:"starting_gold"`
	BaseIncome   int `yaml:"base_income"`
}

// MovementConfig controls dome repositioning.
type MovementConfig struct {
	BaseBudget      float64 `yaml:"base_budget"`
	StepSize        float64 `yaml:"step_size"`
	MaxSlopeDegrees float64 `yaml:"max_slope_degrees"`
	EdgeMargin      float64 `yaml:"edge_margin"`
}

// DomeConfig holds per-dome base stats before loadout multipliers.
type DomeConfig struct {
	BaseHealth int     `yaml:"base_health"`
	Radius     float64 `yaml:"radius"`
}

// Rules is the root configuration struct, mapping to the entire 'battlefield.yaml' file.
// A Match keeps the *Rules it was created with for its whole life.
type Rules struct {
	Map           MapConfig      `yaml:"map"`
	Physics       PhysicsConfig  `yaml:"physics"`
	Combat        CombatConfig   `yaml:"combat"`
	Economy       EconomyConfig  `yaml:"economy"`
	Movement      MovementConfig `yaml:"movement"`
	Domes         DomeConfig     `yaml:"domes"`
	DefaultDome   string         `yaml:"default_dome"`
	DomeTypes     []DomeType     `yaml:"dome_types"`
	Items         []Item         `yaml:"items"`
	SkipDeadSeats bool           `yaml:"skip_dead_seats"`
}

// Item returns the catalog entry for id, or nil.
func (r *Rules) Item(id string) *Item {
	for i := range r.Items {
		if r.Items[i].ID == id {
			return &r.Items[i]
		}
	}
	return nil
}

// ItemsByCategory returns the catalog entries of one category in file order.
func (r *Rules) ItemsByCategory(c ItemCategory) []Item {
	var out []Item
	for _, it := range r.Items {
		if it.Category == c {
			out = append(out, it)
		}
	}
	return out
}

// DomeType returns the loadout for id, falling back to the default loadout.
func (r *Rules) DomeType(id string) DomeType {
	for _, dt := range r.DomeTypes {
		if dt.ID == id {
			return dt
		}
	}
	for _, dt := range r.DomeTypes {
		if dt.ID == r.DefaultDome {
			return dt
		}
	}
	return DomeType{ID: r.DefaultDome, HealthMultiplier: 1, MovementMultiplier: 1, IncomeMultiplier: 1}
}

// HasDomeType reports whether id names a configured loadout.
func (r *Rules) HasDomeType(id string) bool {
	for _, dt := range r.DomeTypes {
		if dt.ID == id {
			return true
		}
	}
	return false
}

// LoadoutStats are the effective per-dome stats of a loadout.
type LoadoutStats struct {
	Health   int     `json:"health"`
	Movement float64 `json:"movement"`
	Income   int     `json:"income"`
}

// Stats floors the multiplied base stats.
func (r *Rules) Stats(dt DomeType) LoadoutStats {
	return LoadoutStats{
		Health:   int(float64(r.Domes.BaseHealth) * dt.HealthMultiplier),
		Movement: float64(int(r.Movement.BaseBudget * dt.MovementMultiplier)),
		Income:   int(float64(r.Economy.BaseIncome) * dt.IncomeMultiplier),
	}
}

// Player is the identity and lobby choices a seat is created from.
type Player struct {
	ID       string // transport identity
	Name     string
	Color    string
	DomeType string
}
