/*
Package api
File: coordinator.go
Description:

	The Coordinator owns the lobbies and the live rooms. It is driven by one
	goroutine (the Hub loop), so none of its state is locked:

	1. joinGame queues a player per desired count; a full queue becomes a room.
	2. In-room actions are routed by roomId to that room's Match.
	3. Match change notifications are translated into room broadcasts.
	4. A disconnect ends the player's queue slot or the whole match.

	Illegal actions are dropped with a debug log. Events for rooms that no
	longer exist are ignored.
*/
package api

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/everforgeworks/domefall/internal/game"
)

// Sender delivers an encoded frame to one connection.
type Sender interface {
	Send(clientID string, frame []byte)
}

type queued struct {
	clientID string
	player   game.Player
}

type room struct {
	id      string
	match   *game.Match
	members []string // client ids in seat order
}

// LobbyStatus is a point-in-time view of the Coordinator.
type LobbyStatus struct {
	Waiting map[int]int `json:"waiting"` // desired player count -> queued players
	Rooms   int         `json:"rooms"`
}

// Coordinator routes client messages to lobbies and rooms.
type Coordinator struct {
	log     zerolog.Logger
	out     Sender
	arbiter game.Arbiter
	metrics *Metrics
	rules   atomic.Pointer[game.Rules]
	seed    func() uint64

	lobbies map[int][]queued
	rooms   map[string]*room
	roomOf  map[string]string // client id -> room id
}

// NewCoordinator wires a Coordinator. A nil arbiter trusts reports; nil
// metrics are skipped.
func NewCoordinator(log zerolog.Logger, out Sender, rules *game.Rules, arbiter game.Arbiter, metrics *Metrics) *Coordinator {
	if arbiter == nil {
		arbiter = game.TrustReports{}
	}
	c := &Coordinator{
		log:     log.With().Str("component", "coordinator").Logger(),
		out:     out,
		arbiter: arbiter,
		metrics: metrics,
		seed:    rand.Uint64,
		lobbies: make(map[int][]queued),
		rooms:   make(map[string]*room),
		roomOf:  make(map[string]string),
	}
	c.rules.Store(rules)
	return c
}

// SetRules swaps the balance used for matches created from now on. Safe to
// call from any goroutine.
func (c *Coordinator) SetRules(r *game.Rules) { c.rules.Store(r) }

// Rules returns the balance new matches are created with.
func (c *Coordinator) Rules() *game.Rules { return c.rules.Load() }

// Handle dispatches one decoded inbound message from clientID.
func (c *Coordinator) Handle(clientID string, msg Inbound) {
	switch m := msg.(type) {
	case JoinGame:
		c.Join(clientID, m)
	case Fire:
		c.Fire(clientID, m)
	case DomeMove:
		c.Move(clientID, m)
	case ProjectileImpact:
		c.Impact(clientID, m)
	case BuyItem:
		c.BuyItem(clientID, m)
	}
}

// Join validates and queues a player, starting a match when the queue fills.
func (c *Coordinator) Join(clientID string, req JoinGame) {
	// 1. Validate at the boundary
	if !ValidPlayerCount(req.PlayerCount) {
		c.log.Info().Str("client", clientID).Int("count", req.PlayerCount).Msg("invalid player count")
		c.send(clientID, MsgError, ErrorMessage{
			Message: fmt.Sprintf("Invalid player count. Must be between %d and %d.", MinPlayers, MaxPlayers),
		})
		return
	}
	if _, playing := c.roomOf[clientID]; playing || c.queuedCount(clientID) > 0 {
		c.log.Debug().Str("client", clientID).Msg("join ignored, already queued or playing")
		return
	}

	// 2. Queue
	rules := c.Rules()
	p := game.Player{
		ID:       clientID,
		Name:     SanitizeName(req.PlayerName),
		Color:    SanitizeColor(req.PlayerColor),
		DomeType: SanitizeDomeType(rules, req.DomeType),
	}
	n := req.PlayerCount
	c.lobbies[n] = append(c.lobbies[n], queued{clientID: clientID, player: p})
	c.metrics.LobbyChanged(1)
	c.log.Info().Str("client", clientID).Str("name", p.Name).Int("count", n).
		Int("queued", len(c.lobbies[n])).Msg("player queued")
	c.notifyLobby(n)

	// 3. Start a match once the queue is full
	if len(c.lobbies[n]) >= n {
		batch := slices.Clone(c.lobbies[n][:n])
		c.lobbies[n] = slices.Delete(c.lobbies[n], 0, n)
		c.metrics.LobbyChanged(-n)
		c.startRoom(rules, batch)
	}
}

func (c *Coordinator) queuedCount(clientID string) int {
	n := 0
	for _, q := range c.lobbies {
		for _, e := range q {
			if e.clientID == clientID {
				n++
			}
		}
	}
	return n
}

func (c *Coordinator) notifyLobby(n int) {
	q := c.lobbies[n]
	for _, e := range q {
		c.send(e.clientID, MsgWaiting, Waiting{CurrentPlayers: len(q), TotalPlayers: n})
	}
}

func (c *Coordinator) startRoom(rules *game.Rules, batch []queued) {
	players := make([]game.Player, len(batch))
	members := make([]string, len(batch))
	for i, q := range batch {
		players[i] = q.player
		members[i] = q.clientID
	}
	r := &room{
		id:      fmt.Sprintf("game-%s-%dp", uuid.NewString()[:8], len(batch)),
		match:   game.NewMatch(rules, players, game.NewSeededRand(c.seed())),
		members: members,
	}
	r.match.Subscribe(func(ev game.Event) { c.relay(r, ev) })
	c.rooms[r.id] = r
	for _, id := range members {
		c.roomOf[id] = r.id
	}
	c.metrics.MatchStarted(len(batch))
	c.log.Info().Str("room", r.id).Int("players", len(batch)).Msg("match started")
	c.broadcast(r, MsgGameStart, GameStart{RoomID: r.id, Snapshot: r.match.Snapshot()})
}

// member resolves an in-room action to its room and the sender's seat.
func (c *Coordinator) member(clientID, roomID, action string) (*room, int, bool) {
	r, ok := c.rooms[roomID]
	if !ok {
		c.log.Debug().Str("client", clientID).Str("room", roomID).Str("action", action).Msg("unknown room")
		return nil, 0, false
	}
	seat, ok := r.match.SeatOf(clientID)
	if !ok {
		c.log.Debug().Str("client", clientID).Str("room", roomID).Str("action", action).Msg("not a member")
		return nil, 0, false
	}
	return r, seat, true
}

func (c *Coordinator) rejected(clientID, action string, err error) {
	ev := c.log.Warn()
	if IsIllegalAction(err) {
		ev = c.log.Debug()
	}
	ev.Err(err).Str("client", clientID).Str("action", action).Msg("action ignored")
}

// Fire starts the sender's shot; the match notification broadcasts it.
func (c *Coordinator) Fire(clientID string, req Fire) {
	r, seat, ok := c.member(clientID, req.RoomID, MsgFire)
	if !ok {
		return
	}
	if _, err := r.match.Fire(seat, req.Power, req.Angle); err != nil {
		c.rejected(clientID, MsgFire, err)
		return
	}
	c.metrics.ShotFired()
}

// Move walks the sender's dome toward the requested x. The accepted position
// is broadcast, which may fall short of the request.
func (c *Coordinator) Move(clientID string, req DomeMove) {
	r, seat, ok := c.member(clientID, req.RoomID, MsgDomeMove)
	if !ok {
		return
	}
	if req.PlayerNumber != 0 && req.PlayerNumber != seat {
		c.log.Debug().Str("client", clientID).Int("claimed", req.PlayerNumber).Int("seat", seat).
			Msg("domeMove seat mismatch, using connection seat")
	}
	if _, err := r.match.MoveTo(seat, req.NewX); err != nil {
		c.rejected(clientID, MsgDomeMove, err)
	}
}

// BuyItem toggles a store item for the sender.
func (c *Coordinator) BuyItem(clientID string, req BuyItem) {
	r, seat, ok := c.member(clientID, req.RoomID, MsgBuyItem)
	if !ok {
		return
	}
	if _, err := r.match.Toggle(seat, req.ItemID); err != nil {
		c.rejected(clientID, MsgBuyItem, err)
	}
}

// Impact resolves the sender's shot from its report, then ends the match or
// advances the turn.
func (c *Coordinator) Impact(clientID string, req ProjectileImpact) {
	r, seat, ok := c.member(clientID, req.RoomID, MsgProjectileImpact)
	if !ok {
		return
	}
	m := r.match
	if shot := m.PendingShot(); shot == nil || shot.Seat != seat {
		c.rejected(clientID, MsgProjectileImpact, game.ErrNotYourTurn)
		return
	}

	points := req.Points()
	out, err := m.Resolve(seat, c.arbiter.Judge(m, points))
	if err != nil {
		c.rejected(clientID, MsgProjectileImpact, err)
		return
	}
	c.checkShieldReport(r, points, out)

	if out.Over {
		reason := EndWinner
		if out.Draw {
			reason = EndDraw
		}
		c.teardown(r, reason)
		return
	}
	if err := m.AdvanceTurn(); err != nil {
		c.log.Error().Err(err).Str("room", r.id).Msg("advance turn after resolve")
	}
}

// checkShieldReport logs when the client's view of shields disagrees with
// the server's.
func (c *Coordinator) checkShieldReport(r *room, points []game.ImpactPoint, out game.Outcome) {
	reported, applied := game.ReportedShields(points), 0
	for _, s := range out.Strikes {
		for _, h := range s.Hits {
			if h.Absorbed {
				applied++
			}
		}
	}
	if reported != applied {
		c.log.Warn().Str("room", r.id).Int("reported", reported).Int("applied", applied).
			Msg("shield report disagrees with server state")
	}
}

// Disconnect drops clientID from its queue, or ends its match.
func (c *Coordinator) Disconnect(clientID string) {
	for n, q := range c.lobbies {
		i := slices.IndexFunc(q, func(e queued) bool { return e.clientID == clientID })
		if i < 0 {
			continue
		}
		c.lobbies[n] = slices.Delete(q, i, i+1)
		c.metrics.LobbyChanged(-1)
		c.log.Info().Str("client", clientID).Int("count", n).Msg("left lobby")
		c.notifyLobby(n)
		return
	}

	roomID, ok := c.roomOf[clientID]
	if !ok {
		return
	}
	r := c.rooms[roomID]
	c.log.Info().Str("client", clientID).Str("room", roomID).Msg("player lost, ending match")
	for _, id := range r.members {
		if id != clientID {
			c.send(id, MsgOpponentDisconnected, nil)
		}
	}
	c.teardown(r, EndDisconnect)
}

func (c *Coordinator) teardown(r *room, reason string) {
	delete(c.rooms, r.id)
	for _, id := range r.members {
		if c.roomOf[id] == r.id {
			delete(c.roomOf, id)
		}
	}
	c.metrics.MatchEnded(reason)
	c.log.Info().Str("room", r.id).Str("reason", reason).Msg("match ended")
}

// Status reports queue sizes and the live room count.
func (c *Coordinator) Status() LobbyStatus {
	st := LobbyStatus{Waiting: make(map[int]int, len(c.lobbies)), Rooms: len(c.rooms)}
	for n, q := range c.lobbies {
		if len(q) > 0 {
			st.Waiting[n] = len(q)
		}
	}
	return st
}

// relay turns a match notification into a room broadcast.
func (c *Coordinator) relay(r *room, ev game.Event) {
	m := r.match
	switch ev.Kind {
	case game.EventShotFired:
		d, _ := m.Dome(ev.Seat)
		c.broadcast(r, MsgShotFired, ShotFired{
			PlayerID:     d.PlayerID,
			PlayerNumber: ev.Seat,
			Power:        ev.Shot.Power,
			Angle:        ev.Shot.Angle,
			Nuke:         ev.Shot.Nuke,
			Digger:       ev.Shot.Digger,
			Spread:       ev.Shot.Spread,
		})
	case game.EventDomeMoved:
		d, _ := m.Dome(ev.Seat)
		c.broadcast(r, MsgDomeMove, DomeMoved{
			RoomID:       r.id,
			PlayerID:     d.PlayerID,
			PlayerNumber: ev.Seat,
			NewX:         d.X,
			NewY:         d.Y,
		})
	case game.EventItemChanged:
		d, _ := m.Dome(ev.Seat)
		c.broadcast(r, MsgItemUpdate, ItemUpdate{
			PlayerNumber: ev.Seat,
			ItemID:       ev.ItemID,
			Action:       ev.Action,
			Player:       d.State(),
			WindSpeed:    m.Wind(),
		})
	case game.EventTurnChanged:
		c.broadcast(r, MsgTurnChange, m.Snapshot())
	case game.EventGameOver:
		msg := GameOver{Draw: m.Draw()}
		if w := m.Winner(); w != nil {
			ps := w.State()
			msg.Winner = &ps
		}
		c.broadcast(r, MsgGameOver, msg)
	}
}

func (c *Coordinator) broadcast(r *room, t string, payload any) {
	frame, err := Encode(t, payload)
	if err != nil {
		c.log.Error().Err(err).Str("room", r.id).Msg("encode broadcast")
		return
	}
	for _, id := range r.members {
		c.out.Send(id, frame)
	}
}

func (c *Coordinator) send(clientID, t string, payload any) {
	frame, err := Encode(t, payload)
	if err != nil {
		c.log.Error().Err(err).Str("client", clientID).Msg("encode message")
		return
	}
	c.out.Send(clientID, frame)
}

// IsIllegalAction reports whether err is one of the match's rule rejections.
func IsIllegalAction(err error) bool {
	for _, target := range []error{
		game.ErrNotYourTurn, game.ErrWrongPhase, game.ErrShotInFlight, game.ErrMatchOver,
		game.ErrNoMovement, game.ErrMoveBlocked, game.ErrUnknownItem, game.ErrSlotOccupied,
		game.ErrInsufficientGold, game.ErrNotActive, game.ErrNotRefundable,
		game.ErrAlreadyShielded, game.ErrUnknownSeat, game.ErrInvalidShot,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
