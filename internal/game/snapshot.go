/*
Package game
File: snapshot.go
Description:

	Authoritative snapshots of a match, as broadcast at game start and on every
	turn change, and the mirror side that adopts them wholesale.
*/
package game

import (
	"math/rand/v2"
	"slices"
)

// Position is a dome's placement on the terrain.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PlayerState is the wire view of one dome.
type PlayerState struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Color        string      `json:"color"`
	DomeType     string      `json:"domeType"`
	PlayerNumber int         `json:"playerNumber"`
	Health       int         `json:"health"`
	MaxHealth    int         `json:"maxHealth"`
	Position     Position    `json:"position"`
	Movement     float64     `json:"movement"`
	MaxMovement  float64     `json:"maxMovement"`
	Gold         int         `json:"gold"`
	Income       int         `json:"income"`
	ActiveItems  ActiveItems `json:"activeItems"`
	HasShield    bool        `json:"hasShield"`
}

// Snapshot is the full match state a client needs to re-synchronize.
type Snapshot struct {
	Players         []PlayerState `json:"players"`
	Terrain         []float64     `json:"terrain"`
	CurrentPlayer   int           `json:"currentPlayer"`
	WindSpeed       float64       `json:"windSpeed"`
	PlayerLastWinds [][2]float64  `json:"playerLastWinds"`
}

// State returns the wire view of d.
func (d *Dome) State() PlayerState {
	return PlayerState{
		ID:           d.PlayerID,
		Name:         d.Name,
		Color:        d.Color,
		DomeType:     d.DomeType,
		PlayerNumber: d.Seat,
		Health:       d.Health,
		MaxHealth:    d.MaxHealth,
		Position:     Position{X: d.X, Y: d.Y},
		Movement:     d.Movement,
		MaxMovement:  d.MaxMovement,
		Gold:         d.Gold,
		Income:       d.Income,
		ActiveItems:  d.Items,
		HasShield:    d.HasShield,
	}
}

// Players returns the wire view of every dome in seat order.
func (m *Match) Players() []PlayerState {
	out := make([]PlayerState, 0, len(m.domes))
	for _, d := range m.domes {
		out = append(out, d.State())
	}
	return out
}

// Snapshot captures the match. Last winds are sorted by seat.
func (m *Match) Snapshot() Snapshot {
	seats := make([]int, 0, len(m.lastWinds))
	for s := range m.lastWinds {
		seats = append(seats, s)
	}
	slices.Sort(seats)
	winds := make([][2]float64, 0, len(seats))
	for _, s := range seats {
		winds = append(winds, [2]float64{float64(s), m.lastWinds[s]})
	}
	return Snapshot{
		Players:         m.Players(),
		Terrain:         m.terrain.Points(),
		CurrentPlayer:   m.current,
		WindSpeed:       m.wind,
		PlayerLastWinds: winds,
	}
}

// Restore builds a mirror from a snapshot. The mirror never draws wind; it
// takes it from each Sync.
func Restore(rules *Rules, snap Snapshot) *Match {
	m := &Match{rules: rules, terrain: &Terrain{}}
	m.Sync(snap)
	return m
}

// Sync replaces the mirror's state wholesale and puts it back in
// waiting-for-shot.
func (m *Match) Sync(snap Snapshot) {
	m.terrain.SetFromArray(snap.Terrain)
	m.domes = m.domes[:0]
	for _, p := range snap.Players {
		m.domes = append(m.domes, &Dome{
			PlayerID:    p.ID,
			Name:        p.Name,
			Color:       p.Color,
			DomeType:    p.DomeType,
			Seat:        p.PlayerNumber,
			X:           p.Position.X,
			Y:           p.Position.Y,
			Radius:      m.rules.Domes.Radius,
			Health:      p.Health,
			MaxHealth:   p.MaxHealth,
			Movement:    p.Movement,
			MaxMovement: p.MaxMovement,
			Gold:        p.Gold,
			Income:      p.Income,
			Items:       p.ActiveItems,
			HasShield:   p.HasShield,
		})
	}
	slices.SortFunc(m.domes, func(a, b *Dome) int { return a.Seat - b.Seat })
	m.current = snap.CurrentPlayer
	if m.current < 1 || m.current > len(m.domes) {
		m.current = 1
	}
	m.wind = snap.WindSpeed
	m.windBeforeTargeting = snap.WindSpeed
	m.lastWinds = make(map[int]float64, len(snap.PlayerLastWinds))
	for _, w := range snap.PlayerLastWinds {
		m.lastWinds[int(w[0])] = w[1]
	}
	m.phase = PhaseWaiting
	m.shot = nil
	m.winner, m.draw = nil, false
}

// Place sets a dome's position directly, as a mirror does when the server
// announces an accepted move.
func (m *Match) Place(seat int, x, y float64) error {
	d, ok := m.Dome(seat)
	if !ok {
		return ErrUnknownSeat
	}
	d.X, d.Y = x, y
	return nil
}

// NewSeededRand returns the generator a Match draws wind from.
func NewSeededRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
