package game

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func testPlayers(n int) []Player {
	players := make([]Player, n)
	for i := range players {
		players[i] = Player{
			ID:       fmt.Sprintf("p%d", i+1),
			Name:     fmt.Sprintf("Player %d", i+1),
			Color:    "#4CAF50",
			DomeType: "boomer",
		}
	}
	return players
}

func newTestMatch(t testing.TB, n int) *Match {
	t.Helper()
	return NewMatch(DefaultRules(), testPlayers(n), NewSeededRand(1))
}

// recorder collects match events.
type recorder struct{ events []Event }

func (r *recorder) observe(ev Event) { r.events = append(r.events, ev) }

func (r *recorder) count(k EventKind) int {
	n := 0
	for _, ev := range r.events {
		if ev.Kind == k {
			n++
		}
	}
	return n
}

// fatalT is satisfied by both *testing.T and *rapid.T.
type fatalT interface {
	Helper()
	Errorf(format string, args ...any)
	FailNow()
}

// playTurn fires a harmless shot for the current seat and advances.
func playTurn(t fatalT, m *Match) {
	t.Helper()
	seat := m.CurrentSeat()
	_, err := m.Fire(seat, 50, 90)
	require.NoError(t, err)
	_, err = m.Resolve(seat, nil)
	require.NoError(t, err)
	require.NoError(t, m.AdvanceTurn())
}

func TestNewMatch_SeatsAndStartsFirstTurn(t *testing.T) {
	m := newTestMatch(t, 3)

	require.Equal(t, 3, m.Seats())
	assert.Equal(t, 1, m.CurrentSeat())
	assert.Equal(t, PhaseWaiting, m.Phase())

	xs := []float64{100, 600, 1100}
	for i, d := range m.Domes() {
		assert.Equal(t, i+1, d.Seat)
		assert.Equal(t, xs[i], d.X)
		assert.Equal(t, m.Terrain().Height(d.X), d.Y)
		assert.Equal(t, 100, d.Health)
	}
	assert.Equal(t, 200, m.domes[0].Gold, "seat 1 is paid for its first turn")
	assert.Equal(t, 100, m.domes[1].Gold)
	assert.LessOrEqual(t, m.Wind(), 100.0)
	assert.GreaterOrEqual(t, m.Wind(), -100.0)
}

func TestNewMatch_LoadoutStats(t *testing.T) {
	players := testPlayers(3)
	players[0].DomeType = "jagdpanzer"
	players[1].DomeType = "yamazaki"
	players[2].DomeType = "bogus"
	m := NewMatch(DefaultRules(), players, NewSeededRand(1))

	assert.Equal(t, 150, m.domes[0].MaxHealth)
	assert.Equal(t, 16.0, m.domes[0].MaxMovement)
	assert.Equal(t, 75, m.domes[1].MaxHealth)
	assert.Equal(t, 160.0, m.domes[1].MaxMovement)
	assert.Equal(t, "boomer", m.domes[2].DomeType)
}

func TestFire_ClampsAndEnforcesTurn(t *testing.T) {
	m := newTestMatch(t, 2)
	rec := &recorder{}
	m.Subscribe(rec.observe)

	_, err := m.Fire(2, 50, 45)
	assert.ErrorIs(t, err, ErrNotYourTurn)

	shot, err := m.Fire(1, 500, -10)
	require.NoError(t, err)
	assert.Equal(t, 100.0, shot.Power)
	assert.Equal(t, 0.0, shot.Angle)
	assert.Equal(t, PhaseInFlight, m.Phase())

	_, err = m.Fire(1, 50, 45)
	assert.ErrorIs(t, err, ErrShotInFlight)
	assert.Equal(t, 1, rec.count(EventShotFired))
	assert.Same(t, shot, m.PendingShot())
}

func TestFire_RejectsNaN(t *testing.T) {
	m := newTestMatch(t, 2)
	_, err := m.Fire(1, math.NaN(), 45)
	assert.ErrorIs(t, err, ErrInvalidShot)
	assert.Equal(t, PhaseWaiting, m.Phase())
}

func TestLaunch_StartsAboveDome(t *testing.T) {
	m := newTestMatch(t, 2)
	shot, err := m.Fire(1, 100, 0)
	require.NoError(t, err)

	v := m.Launch(shot)
	require.Len(t, v.Projectiles, 1)
	d := m.domes[0]
	assert.Equal(t, Vec2{X: d.X, Y: d.Y - 50}, v.Projectiles[0].Position)
	assert.InDelta(t, 800.0, v.Projectiles[0].Velocity.X, 1e-9)
}

func TestResolve_LethalHitEndsMatchOnce(t *testing.T) {
	m := newTestMatch(t, 2)
	rec := &recorder{}
	m.Subscribe(rec.observe)

	_, err := m.Fire(1, 50, 45)
	require.NoError(t, err)
	out, err := m.Resolve(1, []Strike{{X: 1100, Hits: []Hit{{Seat: 2, Damage: 150}}}})
	require.NoError(t, err)

	assert.True(t, out.Over)
	require.NotNil(t, out.Winner)
	assert.Equal(t, 1, out.Winner.Seat)
	assert.Equal(t, 0, m.domes[1].Health)
	assert.Equal(t, PhaseOver, m.Phase())
	assert.Equal(t, 1, rec.count(EventGameOver))

	_, err = m.Fire(1, 50, 45)
	assert.ErrorIs(t, err, ErrMatchOver)
	assert.ErrorIs(t, m.AdvanceTurn(), ErrMatchOver)
	assert.Equal(t, 1, rec.count(EventGameOver))
}

func TestResolve_ZeroAliveIsDraw(t *testing.T) {
	m := newTestMatch(t, 2)
	_, err := m.Fire(1, 50, 45)
	require.NoError(t, err)

	out, err := m.Resolve(1, []Strike{{X: 600, Hits: []Hit{{Seat: 1, Damage: 100}, {Seat: 2, Damage: 100}}}})
	require.NoError(t, err)

	assert.True(t, out.Over)
	assert.True(t, out.Draw)
	assert.Nil(t, out.Winner)
	assert.True(t, m.Draw())
}

func TestResolve_OnlyShooterWhileInFlight(t *testing.T) {
	m := newTestMatch(t, 2)
	_, err := m.Resolve(1, nil)
	assert.ErrorIs(t, err, ErrWrongPhase)

	_, err = m.Fire(1, 50, 45)
	require.NoError(t, err)
	_, err = m.Resolve(2, nil)
	assert.ErrorIs(t, err, ErrNotYourTurn)
}

func TestResolve_CraterAndResettle(t *testing.T) {
	m := newTestMatch(t, 2)
	d := m.domes[1]
	before := m.Terrain().Height(d.X)

	_, err := m.Fire(1, 50, 45)
	require.NoError(t, err)
	out, err := m.Resolve(1, []Strike{{X: d.X, Hits: []Hit{{Seat: 2, Damage: 50}}}})
	require.NoError(t, err)

	require.Len(t, out.Strikes, 1)
	assert.True(t, out.Strikes[0].Crater)
	assert.InDelta(t, before+40, m.Terrain().Height(d.X), 1e-9)
	assert.Equal(t, m.Terrain().Height(d.X), d.Y)
	assert.Equal(t, 50, d.Health)
	assert.Equal(t, PhaseResolved, m.Phase())
}

func TestResolve_ShieldIsSingleUse(t *testing.T) {
	m := newTestMatch(t, 2)
	target := m.domes[1]
	target.HasShield = true
	ground := m.Terrain().Height(target.X)
	hit := []Strike{{X: target.X, Hits: []Hit{{Seat: 2, Damage: 40}}}}

	_, err := m.Fire(1, 50, 45)
	require.NoError(t, err)
	out, err := m.Resolve(1, hit)
	require.NoError(t, err)

	assert.True(t, out.Strikes[0].Hits[0].Absorbed)
	assert.False(t, out.Strikes[0].Crater)
	assert.False(t, target.HasShield)
	assert.Equal(t, 100, target.Health)
	assert.Equal(t, ground, m.Terrain().Height(target.X))

	require.NoError(t, m.AdvanceTurn())
	playTurn(t, m)

	_, err = m.Fire(1, 50, 45)
	require.NoError(t, err)
	out, err = m.Resolve(1, hit)
	require.NoError(t, err)

	assert.False(t, out.Strikes[0].Hits[0].Absorbed)
	assert.True(t, out.Strikes[0].Crater)
	assert.Equal(t, 60, target.Health)
	assert.Greater(t, m.Terrain().Height(target.X), ground)
}

func TestAdvanceTurn_RequiresResolvedShot(t *testing.T) {
	m := newTestMatch(t, 2)
	assert.ErrorIs(t, m.AdvanceTurn(), ErrWrongPhase)

	_, err := m.Fire(1, 50, 45)
	require.NoError(t, err)
	assert.ErrorIs(t, m.AdvanceTurn(), ErrWrongPhase)
}

func TestAdvanceTurn_RecordsLastWind(t *testing.T) {
	m := newTestMatch(t, 2)
	wind := m.Wind()

	_, ok := m.LastWind(1)
	assert.False(t, ok)

	playTurn(t, m)

	last, ok := m.LastWind(1)
	require.True(t, ok)
	assert.Equal(t, wind, last)
	assert.Equal(t, 2, m.CurrentSeat())
}

func TestAdvanceTurn_VisitsDeadSeatsByDefault(t *testing.T) {
	m := newTestMatch(t, 3)
	m.domes[1].Health = 0

	playTurn(t, m)
	assert.Equal(t, 2, m.CurrentSeat())
}

func TestAdvanceTurn_SkipsDeadSeatsWhenConfigured(t *testing.T) {
	r := DefaultRules()
	r.SkipDeadSeats = true
	m := NewMatch(r, testPlayers(3), NewSeededRand(1))
	m.domes[1].Health = 0

	playTurn(t, m)
	assert.Equal(t, 3, m.CurrentSeat())
}

func TestAdvanceTurn_IsCyclic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(2, 6).Draw(t, "seats")
		m := NewMatch(DefaultRules(), testPlayers(n), NewSeededRand(rapid.Uint64().Draw(t, "seed")))
		goldBefore := make([]int, n)
		for i, d := range m.domes {
			goldBefore[i] = d.Gold
		}

		for range n {
			d := m.CurrentDome()
			d.Movement = 0
			d.Items.Offensive = "digger"
			playTurn(t, m)

			next := m.CurrentDome()
			if next.Movement != next.MaxMovement {
				t.Fatalf("seat %d budget not reset", next.Seat)
			}
			if next.Items != (ActiveItems{}) {
				t.Fatalf("seat %d items not cleared", next.Seat)
			}
			if w := m.Wind(); w < -100 || w > 100 {
				t.Fatalf("wind %v out of bounds", w)
			}
		}
		if m.CurrentSeat() != 1 {
			t.Fatalf("after %d advances current seat is %d", n, m.CurrentSeat())
		}
		for i, d := range m.domes {
			if d.Gold != goldBefore[i]+d.Income {
				t.Fatalf("seat %d paid %d, want one income", i+1, d.Gold-goldBefore[i])
			}
		}
	})
}

func TestMove_SpendsBudget(t *testing.T) {
	m := newTestMatch(t, 2)
	d := m.domes[0]

	require.NoError(t, m.Move(1, 1))
	assert.Equal(t, 102.0, d.X)
	assert.Equal(t, 78.0, d.Movement)
	assert.Equal(t, m.Terrain().Height(102), d.Y)

	assert.ErrorIs(t, m.Move(2, 1), ErrNotYourTurn)
}

func TestMoveTo_StopsAtBudget(t *testing.T) {
	m := newTestMatch(t, 2)
	d := m.domes[0]

	moved, err := m.MoveTo(1, 150)
	require.NoError(t, err)
	assert.Equal(t, 50.0, moved)
	assert.Equal(t, 150.0, d.X)
	assert.Equal(t, 30.0, d.Movement)

	moved, err = m.MoveTo(1, 0)
	require.NoError(t, err)
	assert.Equal(t, 30.0, moved)
	assert.Equal(t, 120.0, d.X)
	assert.False(t, d.CanMove())

	_, err = m.MoveTo(1, 200)
	assert.ErrorIs(t, err, ErrNoMovement)
}

func TestMoveTo_PartialFinalStep(t *testing.T) {
	m := newTestMatch(t, 2)
	moved, err := m.MoveTo(1, 103)
	require.NoError(t, err)
	assert.Equal(t, 3.0, moved)
	assert.Equal(t, 103.0, m.domes[0].X)
}

func TestMove_BlockedByEdgeAndSlope(t *testing.T) {
	m := newTestMatch(t, 2)
	d := m.domes[0]

	d.X = 41
	assert.ErrorIs(t, m.Move(1, -1), ErrMoveBlocked)
	assert.Equal(t, 41.0, d.X)

	pts := make([]float64, 1200)
	for i := range pts {
		pts[i] = 500
		if i >= 102 {
			pts[i] = 480 // a 20px wall two pixels to the right
		}
	}
	m.Terrain().SetFromArray(pts)
	d.X = 100
	budget := d.Movement
	assert.ErrorIs(t, m.Move(1, 1), ErrMoveBlocked)
	assert.Equal(t, 100.0, d.X)
	assert.Equal(t, budget, d.Movement)
}

func TestMove_NotAfterFiring(t *testing.T) {
	m := newTestMatch(t, 2)
	_, err := m.Fire(1, 50, 45)
	require.NoError(t, err)
	assert.ErrorIs(t, m.Move(1, 1), ErrShotInFlight)
}
