/*
Package gunner
File: aim.go
Description:

	Turn decisions for the headless client. Every decision is made against
	the local mirror of the match, never against the server.
*/
package gunner

import (
	"math"
	"math/rand/v2"

	"github.com/everforgeworks/domefall/internal/api"
	"github.com/everforgeworks/domefall/internal/game"
)

// RepairBelow is the health fraction under which a gunner buys a repair.
const RepairBelow = 0.6

// Grid is the power/angle lattice searched when aiming.
type Grid struct {
	PowerStep float64
	AngleStep float64
	Jitter    float64 // max power noise added to the chosen shot
}

// DefaultGrid is coarse enough to aim in a few milliseconds.
func DefaultGrid() Grid {
	return Grid{PowerStep: 5, AngleStep: 5, Jitter: 0}
}

// Target returns the live opponent nearest to seat.
func Target(m *game.Match, seat int) (*game.Dome, bool) {
	me, ok := m.Dome(seat)
	if !ok {
		return nil, false
	}
	var best *game.Dome
	for _, d := range m.Domes() {
		if d.Seat == seat || !d.Alive() {
			continue
		}
		if best == nil || math.Abs(d.X-me.X) < math.Abs(best.X-me.X) {
			best = d
		}
	}
	return best, best != nil
}

// Aim searches the grid for the shot whose primary round lands closest to
// the nearest opponent, skipping shots that would land on the shooter.
func Aim(m *game.Match, seat int, g Grid, rng *rand.Rand) (power, angle float64, ok bool) {
	me, ok := m.Dome(seat)
	if !ok {
		return 0, 0, false
	}
	target, ok := Target(m, seat)
	if !ok {
		return 0, 0, false
	}
	if g.PowerStep <= 0 || g.AngleStep <= 0 {
		g = DefaultGrid()
	}

	field := m.Field()
	phys := m.Rules().Physics
	selfRadius := m.Rules().Combat.HitRadius

	bestMiss := math.Inf(1)
	for a := game.MinAngle + g.AngleStep; a < game.MaxAngle; a += g.AngleStep {
		for p := float64(game.MinPower); p <= game.MaxPower; p += g.PowerStep {
			v := m.Launch(&game.Shot{Seat: seat, Power: p, Angle: a})
			if !game.Simulate(v, field, phys) {
				continue
			}
			x := v.Impacts()[0].X
			if math.Abs(x-me.X) < selfRadius {
				continue
			}
			if miss := math.Abs(x - target.X); miss < bestMiss {
				bestMiss, power, angle = miss, p, a
			}
		}
	}
	if math.IsInf(bestMiss, 1) {
		return 0, 0, false
	}
	if g.Jitter > 0 && rng != nil {
		power += (rng.Float64()*2 - 1) * g.Jitter
		power = min(game.MaxPower, max(game.MinPower, power))
	}
	return power, angle, true
}

// ChooseItem picks at most one purchase for the turn: a repair when badly
// hurt, otherwise a nuke if affordable. It returns "" to buy nothing.
func ChooseItem(m *game.Match, seat int) string {
	d, ok := m.Dome(seat)
	if !ok {
		return ""
	}
	rules := m.Rules()
	affordable := func(effect game.Effect, slot game.ItemCategory) string {
		if d.Items.Slot(slot) != "" {
			return ""
		}
		for _, it := range rules.ItemsByCategory(slot) {
			if it.Effect == effect && it.Cost <= d.Gold {
				return it.ID
			}
		}
		return ""
	}
	if float64(d.Health) < RepairBelow*float64(d.MaxHealth) {
		if id := affordable(game.EffectRepair, game.Defensive); id != "" {
			return id
		}
	}
	return affordable(game.EffectNuke, game.Offensive)
}

// Report flies the shot through the mirror and builds the impact report the
// shooter sends. Each landing point lists every dome in the blast and names
// the one it hit hardest.
func Report(m *game.Match, roomID string, shot *game.Shot) api.ProjectileImpact {
	v := m.Launch(shot)
	game.Simulate(v, m.Field(), m.Rules().Physics)

	reports := make([]api.ImpactReport, 0, len(v.Projectiles))
	for _, pos := range v.Impacts() {
		r := api.ImpactReport{X: pos.X}
		for _, h := range m.HitsAt(pos.X, shot.Nuke) {
			d, ok := m.Dome(h.Seat)
			if !ok {
				continue
			}
			hit := api.HitReport{PlayerID: d.PlayerID, Damage: float64(h.Damage), ShieldAbsorbed: d.HasShield}
			r.Hits = append(r.Hits, hit)
			if hit.Damage > r.Damage {
				r.HitPlayerID, r.Damage, r.ShieldAbsorbed = hit.PlayerID, hit.Damage, hit.ShieldAbsorbed
			}
		}
		reports = append(reports, r)
	}

	out := api.ProjectileImpact{RoomID: roomID}
	if len(reports) > 0 {
		out.ImpactReport = reports[0]
		out.ExtraImpacts = reports[1:]
	}
	return out
}
