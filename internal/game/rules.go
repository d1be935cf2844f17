/*
Package game
File: rules.go
Description:

	Loads the battle rules. DefaultRules is the built-in balance; LoadRules reads
	'battlefield.yaml' on top of it so a partial file only overrides what it names.
*/
package game

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidRules is wrapped by Validate failures.
var ErrInvalidRules = errors.New("invalid rules")

// DefaultRules returns the built-in balance.
func DefaultRules() *Rules {
	return &Rules{
		Map: MapConfig{
			Width:       1200,
			Height:      800,
			BaseHeight:  500,
			Amplitude:   100,
			Frequency:   0.01,
			SpawnMargin: 100,
		},
		Physics: PhysicsConfig{
			Gravity:          500,
			WindScale:        2,
			MaxSpeed:         800,
			MaxWind:          100,
			TrailLength:      20,
			ProjectileRadius: 6,
			LaunchOffset:     50,
			StepSeconds:      1.0 / 60,
			MaxSteps:         2000,
		},
		Combat: CombatConfig{
			CraterRadius:      50,
			CraterDepthFactor: 0.8,
			HitRadius:         60,
			BaseDamage:        50,
			MinDamage:         20,
			NukeRadiusMult:    3,
			NukeDamageMult:    2,
			DiggerDepthMult:   3,
			SpreadCount:       3,
			SpreadAngle:       8,
			RepairAmount:      30,
		},
		Economy: EconomyConfig{
			StartingGold: 100,
			BaseIncome:   100,
		},
		Movement: MovementConfig{
			BaseBudget:      80,
			StepSize:        2,
			MaxSlopeDegrees: 70,
			EdgeMargin:      40,
		},
		Domes: DomeConfig{
			BaseHealth: 100,
			Radius:     40,
		},
		DefaultDome: "boomer",
		DomeTypes: []DomeType{
			{ID: "boomer", Name: "Boomer", Description: "Balanced stats - Jack of all trades", HealthMultiplier: 1.0, MovementMultiplier: 1.0, IncomeMultiplier: 1.0},
			{ID: "yamazaki", Name: "Yamazaki", Description: "High mobility, lower health", HealthMultiplier: 0.75, MovementMultiplier: 2.0, IncomeMultiplier: 1.0},
			{ID: "jagdpanzer", Name: "Jagdpanzer", Description: "Heavy armor, slow movement", HealthMultiplier: 1.5, MovementMultiplier: 0.2, IncomeMultiplier: 1.0},
		},
		Items: []Item{
			{ID: "shield", Name: "Shield", Description: "Absorbs the next hit completely. No damage or terrain change.", Cost: 300, Category: Defensive, Effect: EffectShield},
			{ID: "repair", Name: "Repair Kit", Description: "Restore 30 HP immediately.", Cost: 200, Category: Defensive, Effect: EffectRepair},
			{ID: "targeting_computer", Name: "Targeting Computer", Description: "Sets wind to your previous turn's wind value.", Cost: 100, Category: Defensive, Effect: EffectTargeting},
			{ID: "spread", Name: "Spread Shot", Description: "Fire 3 projectiles that spread out.", Cost: 300, Category: Offensive, Effect: EffectSpread},
			{ID: "nuke", Name: "Nuke", Description: "3x damage radius, 2x damage dealt.", Cost: 500, Category: Offensive, Effect: EffectNuke},
			{ID: "digger", Name: "Digger", Description: "Drills 3x deeper into terrain.", Cost: 200, Category: Offensive, Effect: EffectDigger},
		},
	}
}

// LoadRules reads a YAML rules file over DefaultRules and validates the result.
func LoadRules(path string) (*Rules, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules %s: %w", path, err)
	}
	return ParseRules(f)
}

// ParseRules decodes YAML over DefaultRules. Lists (dome types, items) replace
// the defaults wholesale when present.
func ParseRules(data []byte) (*Rules, error) {
	r := DefaultRules()
	if err := yaml.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Validate rejects rule sets a match cannot run on.
func (r *Rules) Validate() error {
	switch {
	case r.Map.Width < 2:
		return fmt.Errorf("%w: map width %d", ErrInvalidRules, r.Map.Width)
	case r.Map.Height <= 0:
		return fmt.Errorf("%w: map height %v", ErrInvalidRules, r.Map.Height)
	case r.Physics.StepSeconds <= 0 || r.Physics.MaxSteps <= 0:
		return fmt.Errorf("%w: simulation step", ErrInvalidRules)
	case r.Physics.MaxWind < 0:
		return fmt.Errorf("%w: negative max wind", ErrInvalidRules)
	case r.Combat.CraterRadius <= 0:
		return fmt.Errorf("%w: crater radius %v", ErrInvalidRules, r.Combat.CraterRadius)
	case r.Movement.StepSize <= 0:
		return fmt.Errorf("%w: movement step %v", ErrInvalidRules, r.Movement.StepSize)
	case 2*r.Movement.EdgeMargin >= float64(r.Map.Width):
		return fmt.Errorf("%w: edge margin %v leaves no room", ErrInvalidRules, r.Movement.EdgeMargin)
	case r.Domes.BaseHealth <= 0:
		return fmt.Errorf("%w: base health %d", ErrInvalidRules, r.Domes.BaseHealth)
	case len(r.DomeTypes) == 0:
		return fmt.Errorf("%w: no dome types", ErrInvalidRules)
	case !r.HasDomeType(r.DefaultDome):
		return fmt.Errorf("%w: default dome %q is not a dome type", ErrInvalidRules, r.DefaultDome)
	}

	seen := make(map[string]bool, len(r.Items))
	for _, it := range r.Items {
		if it.ID == "" || seen[it.ID] {
			return fmt.Errorf("%w: duplicate or empty item id %q", ErrInvalidRules, it.ID)
		}
		seen[it.ID] = true
		if it.Category != Offensive && it.Category != Defensive {
			return fmt.Errorf("%w: item %q has category %q", ErrInvalidRules, it.ID, it.Category)
		}
		if it.Cost < 0 {
			return fmt.Errorf("%w: item %q has negative cost", ErrInvalidRules, it.ID)
		}
		switch it.Effect {
		case EffectShield, EffectRepair, EffectTargeting, EffectSpread, EffectNuke, EffectDigger:
		default:
			return fmt.Errorf("%w: item %q has unknown effect %q", ErrInvalidRules, it.ID, it.Effect)
		}
	}
	return nil
}
