/*
Package game
File: mechanics.go
Description:

	Contains the ballistics: launch velocity, the fixed-step integrator that
	advances a projectile under gravity and wind, and the collision test that
	ends its flight. A Volley groups the projectiles of one shot.
*/
package game

import "math"

// Vec2 is a point or vector in screen space (y grows downward).
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// FlightState is the projectile lifecycle.
type FlightState int

const (
	InFlight FlightState = iota
	Resolved
)

// Field is what a projectile flies through.
type Field struct {
	Terrain *Terrain
	Width   float64
	Height  float64
	Wind    float64
}

// Projectile is one round in the air. Trail is cosmetic and never affects
// collision.
type Projectile struct {
	Position Vec2
	Radius   float64
	Velocity Vec2
	Trail    []Vec2
	Nuke     bool
	Digger   bool
	State    FlightState

	maxTrail int
}

// LaunchVelocity converts power (10..100) and angle (degrees, 0 = right,
// 90 = up) into an initial velocity.
func LaunchVelocity(power, angleDeg, maxSpeed float64) Vec2 {
	speed := power / 100 * maxSpeed
	rad := angleDeg * math.Pi / 180
	return Vec2{X: speed * math.Cos(rad), Y: -speed * math.Sin(rad)}
}

// NewProjectile spawns a round at origin.
func NewProjectile(origin, velocity Vec2, phys PhysicsConfig) *Projectile {
	p := &Projectile{
		Position: origin,
		Radius:   phys.ProjectileRadius,
		Velocity: velocity,
		maxTrail: max(1, phys.TrailLength),
	}
	p.Trail = append(p.Trail, origin)
	return p
}

// Step integrates dt seconds. Wind is a constant horizontal acceleration for
// the whole flight.
func (p *Projectile) Step(dt, wind float64, phys PhysicsConfig) {
	p.Velocity.Y += phys.Gravity * dt
	p.Velocity.X += wind * phys.WindScale * dt
	p.Position.X += p.Velocity.X * dt
	p.Position.Y += p.Velocity.Y * dt

	p.Trail = append(p.Trail, p.Position)
	if over := len(p.Trail) - p.maxTrail; over > 0 {
		p.Trail = append(p.Trail[:0], p.Trail[over:]...)
	}
}

// Collides reports ground contact or leaving the map sideways or through the
// bottom. Flying above the top edge is allowed.
func (p *Projectile) Collides(f Field) bool {
	x, y := p.Position.X, p.Position.Y
	if f.Terrain != nil && y >= f.Terrain.Height(x) {
		return true
	}
	return x < 0 || x > f.Width || y > f.Height
}

// Advance steps an in-flight projectile once and resolves it on collision.
// It reports whether the projectile is resolved.
func (p *Projectile) Advance(dt float64, f Field, phys PhysicsConfig) bool {
	if p.State == Resolved {
		return true
	}
	p.Step(dt, f.Wind, phys)
	if p.Collides(f) {
		p.State = Resolved
	}
	return p.State == Resolved
}

// Volley is every projectile of one shot.
type Volley struct {
	Projectiles []*Projectile
}

// Advance steps all unresolved projectiles and reports whether the whole
// volley has landed.
func (v *Volley) Advance(dt float64, f Field, phys PhysicsConfig) bool {
	done := true
	for _, p := range v.Projectiles {
		if !p.Advance(dt, f, phys) {
			done = false
		}
	}
	return done
}

// Impacts returns the final position of every projectile, in launch order.
func (v *Volley) Impacts() []Vec2 {
	out := make([]Vec2, 0, len(v.Projectiles))
	for _, p := range v.Projectiles {
		out = append(out, p.Position)
	}
	return out
}

// Simulate runs the volley to completion at the configured step, giving up
// after MaxSteps. It reports whether every projectile landed.
func Simulate(v *Volley, f Field, phys PhysicsConfig) bool {
	for range phys.MaxSteps {
		if v.Advance(phys.StepSeconds, f, phys) {
			return true
		}
	}
	return false
}
