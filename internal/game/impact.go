/*
Package game
File: impact.go
Description:

	The trust boundary between a firing client's impact report and the match.
	An Arbiter turns reported impact points into Strikes; Match.Resolve applies
	them. Swapping the Arbiter is the only change needed to stop trusting the
	reporter.
*/
package game

import "math"

// ImpactPoint is one landing spot as reported by the firing client.
// Hits, when present, lists every dome inside the blast and supersedes the
// single HitPlayerID/Damage pair.
type ImpactPoint struct {
	X              float64
	Damage         float64
	HitPlayerID    string // empty when nothing was hit
	ShieldAbsorbed bool   // informational; the server's shield flag decides
	Hits           []ReportedHit
}

// ReportedHit is one dome a reporter says was caught by a blast.
type ReportedHit struct {
	PlayerID       string
	Damage         float64
	ShieldAbsorbed bool
}

// reportedHits returns the point's hits in list form.
func (p ImpactPoint) reportedHits() []ReportedHit {
	if len(p.Hits) > 0 {
		return p.Hits
	}
	if p.HitPlayerID == "" {
		return nil
	}
	return []ReportedHit{{PlayerID: p.HitPlayerID, Damage: p.Damage, ShieldAbsorbed: p.ShieldAbsorbed}}
}

// ReportedShields counts the hits the reporter claims a shield absorbed.
func ReportedShields(points []ImpactPoint) int {
	n := 0
	for _, p := range points {
		for _, h := range p.reportedHits() {
			if h.ShieldAbsorbed {
				n++
			}
		}
	}
	return n
}

// Hit is damage against one seat. Absorbed hits carry zero damage.
type Hit struct {
	Seat     int
	Damage   int
	Absorbed bool
}

// Strike is an impact point with the hits it caused.
type Strike struct {
	X    float64
	Hits []Hit
}

// AppliedStrike is a Strike after shields and craters were applied.
type AppliedStrike struct {
	X      float64
	Hits   []Hit
	Crater bool
}

// Outcome summarizes a resolved shot.
type Outcome struct {
	Strikes []AppliedStrike
	Over    bool
	Winner  *Dome // nil on a draw or when the match continues
	Draw    bool
}

// Arbiter decides what a reported shot did.
type Arbiter interface {
	Judge(m *Match, points []ImpactPoint) []Strike
}

// TrustReports accepts the reporter's targets and damage as-is. Unknown
// targets are dropped and a seat is hit at most once per point.
type TrustReports struct{}

func (TrustReports) Judge(m *Match, points []ImpactPoint) []Strike {
	strikes := make([]Strike, 0, len(points))
	for _, p := range points {
		if math.IsNaN(p.X) {
			continue
		}
		s := Strike{X: p.X}
		seen := make(map[int]bool)
		for _, h := range p.reportedHits() {
			seat, ok := m.SeatOf(h.PlayerID)
			if !ok || seen[seat] {
				continue
			}
			seen[seat] = true
			s.Hits = append(s.Hits, Hit{Seat: seat, Damage: trustedDamage(h.Damage)})
		}
		strikes = append(strikes, s)
	}
	return strikes
}

// trustedDamage rounds a reported damage into a non-negative int without
// overflowing.
func trustedDamage(dmg float64) int {
	if math.IsNaN(dmg) || dmg <= 0 {
		return 0
	}
	return int(math.Round(min(dmg, math.MaxInt32)))
}

// RecomputeHits keeps only the reported impact x and recomputes every hit
// from the authoritative dome positions.
type RecomputeHits struct{}

func (RecomputeHits) Judge(m *Match, points []ImpactPoint) []Strike {
	nuke := false
	if s := m.PendingShot(); s != nil {
		nuke = s.Nuke
	}
	strikes := make([]Strike, 0, len(points))
	for _, p := range points {
		if math.IsNaN(p.X) {
			continue
		}
		strikes = append(strikes, Strike{X: p.X, Hits: m.HitsAt(p.X, nuke)})
	}
	return strikes
}

// HitsAt lists every live dome within the hit radius of x, with its damage.
// A nuke triples the radius and doubles the damage.
func (m *Match) HitsAt(x float64, nuke bool) []Hit {
	c := m.rules.Combat
	radius, mult := c.HitRadius, 1.0
	if nuke {
		radius *= c.NukeRadiusMult
		mult = c.NukeDamageMult
	}
	var hits []Hit
	for _, d := range m.domes {
		if !d.Alive() {
			continue
		}
		dist := math.Abs(d.X - x)
		if dist >= radius {
			continue
		}
		dmg := max(c.MinDamage, c.BaseDamage-dist) * mult
		hits = append(hits, Hit{Seat: d.Seat, Damage: int(math.Round(dmg))})
	}
	return hits
}
