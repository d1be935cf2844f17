/*
Package game
File: match.go
Description:

	The authoritative turn/combat state machine. A Match owns the terrain, the
	domes, the turn pointer and the wind, and enforces who may act when:

	    waiting-for-shot -> projectile-in-flight -> resolved -> waiting-for-shot (next seat)
	                                                  \-> game-over

	Illegal actions return a sentinel error and change nothing. A Match is not
	safe for concurrent use; its owner serializes access.
*/
package game

import (
	"errors"
	"math"
	"math/rand/v2"
)

var (
	ErrNotYourTurn      = errors.New("not this seat's turn")
	ErrWrongPhase       = errors.New("action not allowed in this phase")
	ErrShotInFlight     = errors.New("a projectile is already in flight")
	ErrMatchOver        = errors.New("match is over")
	ErrNoMovement       = errors.New("movement budget exhausted")
	ErrMoveBlocked      = errors.New("move blocked by edge or slope")
	ErrUnknownItem      = errors.New("unknown item")
	ErrSlotOccupied     = errors.New("item slot already occupied")
	ErrInsufficientGold = errors.New("insufficient gold")
	ErrNotActive        = errors.New("item is not active")
	ErrNotRefundable    = errors.New("item cannot be refunded")
	ErrAlreadyShielded  = errors.New("shield already raised")
	ErrUnknownSeat      = errors.New("unknown seat")
	ErrInvalidShot      = errors.New("invalid power or angle")
)

// Phase is the match state.
type Phase int

const (
	PhaseWaiting Phase = iota
	PhaseInFlight
	PhaseResolved
	PhaseOver
)

func (p Phase) String() string {
	switch p {
	case PhaseWaiting:
		return "waiting-for-shot"
	case PhaseInFlight:
		return "projectile-in-flight"
	case PhaseResolved:
		return "resolved-awaiting-turn-advance"
	case PhaseOver:
		return "game-over"
	default:
		return "unknown"
	}
}

const (
	MinPower = 10.0
	MaxPower = 100.0
	MinAngle = 0.0
	MaxAngle = 180.0
)

// Shot is a fire action with the offensive modifiers latched at fire time.
type Shot struct {
	Seat   int
	Power  float64
	Angle  float64
	Nuke   bool
	Digger bool
	Spread bool
}

// Match is the battle state of one room.
type Match struct {
	rules   *Rules
	terrain *Terrain
	domes   []*Dome
	rng     *rand.Rand

	current   int // seat, 1-based
	wind      float64
	lastWinds map[int]float64
	phase     Phase
	shot      *Shot

	// wind before a targeting computer overrode it, for refunds
	windBeforeTargeting float64

	winner *Dome
	draw   bool

	observers []func(Event)
}

// NewMatch seats players in order, generates the terrain and begins seat 1's
// turn.
func NewMatch(rules *Rules, players []Player, rng *rand.Rand) *Match {
	m := &Match{
		rules:     rules,
		terrain:   GenerateTerrain(rules.Map),
		rng:       rng,
		lastWinds: make(map[int]float64),
	}
	xs := spawnPositions(rules.Map, len(players))
	for i, p := range players {
		dt := rules.DomeType(p.DomeType)
		stats := rules.Stats(dt)
		d := NewDome(i+1, xs[i], m.terrain.Height(xs[i]), p.Color, stats.Health, stats.Movement, stats.Income)
		d.PlayerID = p.ID
		d.Name = p.Name
		d.DomeType = dt.ID
		d.Radius = rules.Domes.Radius
		d.Gold = rules.Economy.StartingGold
		m.domes = append(m.domes, d)
	}
	m.wind = m.drawWind()
	m.current = 1
	m.beginTurn()
	return m
}

// spawnPositions spreads n domes evenly between the spawn margins.
func spawnPositions(cfg MapConfig, n int) []float64 {
	xs := make([]float64, n)
	if n == 1 {
		xs[0] = math.Round(float64(cfg.Width) / 2)
		return xs
	}
	usable := float64(cfg.Width) - 2*cfg.SpawnMargin
	for i := range xs {
		xs[i] = math.Round(cfg.SpawnMargin + float64(i)*usable/float64(n-1))
	}
	return xs
}

// Subscribe registers an observer for state changes. Observers run
// synchronously, after the change is applied.
func (m *Match) Subscribe(fn func(Event)) {
	m.observers = append(m.observers, fn)
}

func (m *Match) emit(ev Event) {
	for _, fn := range m.observers {
		fn(ev)
	}
}

func (m *Match) Rules() *Rules       { return m.rules }
func (m *Match) Terrain() *Terrain   { return m.terrain }
func (m *Match) Phase() Phase        { return m.phase }
func (m *Match) CurrentSeat() int    { return m.current }
func (m *Match) Wind() float64       { return m.wind }
func (m *Match) Seats() int          { return len(m.domes) }
func (m *Match) PendingShot() *Shot  { return m.shot }
func (m *Match) Over() bool          { return m.phase == PhaseOver }
func (m *Match) Draw() bool          { return m.draw }
func (m *Match) Winner() *Dome       { return m.winner }
func (m *Match) Domes() []*Dome      { return m.domes }
func (m *Match) CurrentDome() *Dome  { return m.domes[m.current-1] }

// LastWind returns the wind seat had on its previous turn.
func (m *Match) LastWind(seat int) (float64, bool) {
	w, ok := m.lastWinds[seat]
	return w, ok
}

// Dome returns the dome at a 1-based seat.
func (m *Match) Dome(seat int) (*Dome, bool) {
	if seat < 1 || seat > len(m.domes) {
		return nil, false
	}
	return m.domes[seat-1], true
}

// SeatOf maps a player identity to its seat.
func (m *Match) SeatOf(playerID string) (int, bool) {
	for _, d := range m.domes {
		if d.PlayerID == playerID {
			return d.Seat, true
		}
	}
	return 0, false
}

// Field is the flight environment for the current wind.
func (m *Match) Field() Field {
	return Field{
		Terrain: m.terrain,
		Width:   float64(m.terrain.Width()),
		Height:  m.rules.Map.Height,
		Wind:    m.wind,
	}
}

func (m *Match) drawWind() float64 {
	if m.rng == nil || m.rules.Physics.MaxWind == 0 {
		return 0
	}
	w := m.rules.Physics.MaxWind
	return m.rng.Float64()*2*w - w
}

// actor checks that seat may act right now.
func (m *Match) actor(seat int) (*Dome, error) {
	if m.phase == PhaseOver {
		return nil, ErrMatchOver
	}
	d, ok := m.Dome(seat)
	if !ok {
		return nil, ErrUnknownSeat
	}
	if seat != m.current {
		return nil, ErrNotYourTurn
	}
	if m.phase == PhaseInFlight {
		return nil, ErrShotInFlight
	}
	if m.phase != PhaseWaiting {
		return nil, ErrWrongPhase
	}
	return d, nil
}

// Fire launches the current seat's shot. Power and angle are clamped to their
// ranges. The offensive slot is latched onto the shot here.
func (m *Match) Fire(seat int, power, angle float64) (*Shot, error) {
	d, err := m.actor(seat)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(power) || math.IsNaN(angle) || math.IsInf(power, 0) || math.IsInf(angle, 0) {
		return nil, ErrInvalidShot
	}
	shot := &Shot{
		Seat:  seat,
		Power: min(MaxPower, max(MinPower, power)),
		Angle: min(MaxAngle, max(MinAngle, angle)),
	}
	if it := m.rules.Item(d.Items.Offensive); it != nil {
		switch it.Effect {
		case EffectNuke:
			shot.Nuke = true
		case EffectDigger:
			shot.Digger = true
		case EffectSpread:
			shot.Spread = true
		}
	}
	m.shot = shot
	m.phase = PhaseInFlight
	m.emit(Event{Kind: EventShotFired, Seat: seat, Shot: shot})
	return shot, nil
}

// Launch builds the volley for a shot from its dome's current position.
func (m *Match) Launch(shot *Shot) *Volley {
	d, ok := m.Dome(shot.Seat)
	if !ok {
		return &Volley{}
	}
	phys := m.rules.Physics
	origin := Vec2{X: d.X, Y: d.Y - phys.LaunchOffset}
	angles := []float64{shot.Angle}
	if shot.Spread && m.rules.Combat.SpreadCount > 1 {
		angles = spreadAngles(shot.Angle, m.rules.Combat.SpreadCount, m.rules.Combat.SpreadAngle)
	}
	v := &Volley{}
	for _, a := range angles {
		p := NewProjectile(origin, LaunchVelocity(shot.Power, a, phys.MaxSpeed), phys)
		p.Nuke = shot.Nuke
		p.Digger = shot.Digger
		v.Projectiles = append(v.Projectiles, p)
	}
	return v
}

// spreadAngles fans n angles around centre, centre first.
func spreadAngles(centre float64, n int, gap float64) []float64 {
	out := []float64{centre}
	for k := 1; len(out) < n; k++ {
		out = append(out, centre-float64(k)*gap)
		if len(out) < n {
			out = append(out, centre+float64(k)*gap)
		}
	}
	return out
}

// Move shifts the current seat's dome one increment in direction dir (<0 left,
// >0 right).
func (m *Match) Move(seat int, dir int) error {
	d, err := m.actor(seat)
	if err != nil {
		return err
	}
	if dir == 0 {
		return nil
	}
	step := m.rules.Movement.StepSize
	if dir < 0 {
		step = -step
	}
	if err := m.step(d, step); err != nil {
		return err
	}
	m.emit(Event{Kind: EventDomeMoved, Seat: seat})
	return nil
}

// MoveTo walks the current seat's dome toward targetX in increments until it
// arrives, runs out of budget or is blocked. It returns the distance covered;
// the error explains an early stop when nothing moved.
func (m *Match) MoveTo(seat int, targetX float64) (float64, error) {
	d, err := m.actor(seat)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(targetX) {
		return 0, ErrMoveBlocked
	}
	var moved float64
	for d.X != targetX {
		delta := targetX - d.X
		if math.Abs(delta) > m.rules.Movement.StepSize {
			delta = math.Copysign(m.rules.Movement.StepSize, delta)
		}
		if err = m.step(d, delta); err != nil {
			break
		}
		moved += math.Abs(delta)
	}
	if moved == 0 {
		return 0, err
	}
	m.emit(Event{Kind: EventDomeMoved, Seat: seat})
	return moved, nil
}

// step applies one increment of at most StepSize.
func (m *Match) step(d *Dome, delta float64) error {
	if !d.CanMove() {
		return ErrNoMovement
	}
	if math.Abs(delta) > d.Movement {
		delta = math.Copysign(d.Movement, delta)
	}
	nx := d.X + delta
	margin := m.rules.Movement.EdgeMargin
	if nx < margin || nx > float64(m.terrain.Width())-margin {
		return ErrMoveBlocked
	}
	rise := m.terrain.Height(nx) - m.terrain.Height(d.X)
	slope := math.Atan2(math.Abs(rise), math.Abs(delta)) * 180 / math.Pi
	if slope > m.rules.Movement.MaxSlopeDegrees {
		return ErrMoveBlocked
	}
	d.X = nx
	d.Y = m.terrain.Height(nx)
	d.Movement = max(0, d.Movement-math.Abs(delta))
	return nil
}

// Resolve applies a shot's strikes: shields absorb, damage lands, craters
// form, and the win check runs. Only the firing seat may resolve, and only
// while its shot is in flight.
func (m *Match) Resolve(seat int, strikes []Strike) (Outcome, error) {
	if m.phase == PhaseOver {
		return Outcome{}, ErrMatchOver
	}
	if m.phase != PhaseInFlight || m.shot == nil {
		return Outcome{}, ErrWrongPhase
	}
	if seat != m.shot.Seat {
		return Outcome{}, ErrNotYourTurn
	}
	shot := m.shot
	c := m.rules.Combat

	radius, depth := c.CraterRadius, 1.0
	if shot.Nuke {
		radius *= c.NukeRadiusMult
	}
	if shot.Digger {
		depth = c.DiggerDepthMult
	}

	var out Outcome
	for _, s := range strikes {
		applied := AppliedStrike{X: s.X}
		absorbedAll := len(s.Hits) > 0
		for _, h := range s.Hits {
			d, ok := m.Dome(h.Seat)
			if !ok {
				continue
			}
			if d.HasShield {
				d.HasShield = false
				applied.Hits = append(applied.Hits, Hit{Seat: h.Seat, Absorbed: true})
				continue
			}
			absorbedAll = false
			d.TakeDamage(h.Damage)
			applied.Hits = append(applied.Hits, Hit{Seat: h.Seat, Damage: h.Damage})
		}
		if !absorbedAll {
			m.terrain.Crater(s.X, radius, c.CraterDepthFactor, depth)
			applied.Crater = true
		}
		out.Strikes = append(out.Strikes, applied)
	}
	m.settle()
	m.shot = nil
	m.phase = PhaseResolved
	m.emit(Event{Kind: EventImpact, Seat: seat, Outcome: &out})

	if winner, over := m.CheckWinner(); over {
		m.phase = PhaseOver
		m.winner = winner
		m.draw = winner == nil
		out.Over, out.Winner, out.Draw = true, winner, winner == nil
		m.emit(Event{Kind: EventGameOver, Seat: seatOf(winner)})
	}
	return out, nil
}

func seatOf(d *Dome) int {
	if d == nil {
		return 0
	}
	return d.Seat
}

// settle drops every dome back onto the surface after the terrain changed.
func (m *Match) settle() {
	for _, d := range m.domes {
		d.Y = m.terrain.Height(d.X)
	}
}

// CheckWinner reports game over when at most one dome is alive. The winner is
// nil on a draw.
func (m *Match) CheckWinner() (*Dome, bool) {
	var alive []*Dome
	for _, d := range m.domes {
		if d.Alive() {
			alive = append(alive, d)
		}
	}
	switch len(alive) {
	case 0:
		return nil, len(m.domes) > 0
	case 1:
		return alive[0], len(m.domes) > 1
	default:
		return nil, false
	}
}

// AdvanceTurn hands the turn to the next seat once the shot has resolved.
// Rotation covers every seat, dead or alive, unless the rules skip dead seats.
func (m *Match) AdvanceTurn() error {
	if m.phase == PhaseOver {
		return ErrMatchOver
	}
	if m.phase != PhaseResolved {
		return ErrWrongPhase
	}
	m.lastWinds[m.current] = m.wind
	n := len(m.domes)
	next := m.current%n + 1
	if m.rules.SkipDeadSeats {
		for i := 0; i < n && !m.domes[next-1].Alive(); i++ {
			next = next%n + 1
		}
	}
	m.current = next
	m.wind = m.drawWind()
	m.beginTurn()
	m.emit(Event{Kind: EventTurnChanged, Seat: m.current})
	return nil
}

// beginTurn resets the new current seat: budget, slots, income.
func (m *Match) beginTurn() {
	d := m.domes[m.current-1]
	d.ResetMovementPoints()
	d.ClearItems()
	d.AwardGold()
	m.phase = PhaseWaiting
	m.shot = nil
	m.windBeforeTargeting = m.wind
}
