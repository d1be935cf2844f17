/*
Package gunner
File: gunner.go
Description:

	A headless player. It joins a lobby, keeps a local mirror of its match
	in step with the server's broadcasts, takes its turns, and reports the
	landing of its own shots. Only the shooter reports.
*/
package gunner

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/everforgeworks/domefall/internal/api"
	"github.com/everforgeworks/domefall/internal/game"
)

// Profile is what a gunner asks the lobby for.
type Profile struct {
	Name     string
	Color    string
	DomeType string
	Players  int
}

// Result is how a gunner's session ended.
type Result struct {
	RoomID       string
	Won          bool
	Draw         bool
	Disconnected bool // an opponent left mid-match
	Turns        int  // shots this gunner fired
}

// Gunner plays one match over one connection.
type Gunner struct {
	log     zerolog.Logger
	rules   *game.Rules
	profile Profile
	grid    Grid
	rng     *rand.Rand

	conn   *websocket.Conn
	id     string
	roomID string
	seat   int
	mirror *game.Match
	result Result
}

// New prepares a gunner. rules must match the server's balance file or the
// mirror will disagree with the server about where shots land.
func New(log zerolog.Logger, rules *game.Rules, profile Profile, seed uint64) *Gunner {
	return &Gunner{
		log:     log.With().Str("gunner", profile.Name).Logger(),
		rules:   rules,
		profile: profile,
		grid:    DefaultGrid(),
		rng:     game.NewSeededRand(seed),
	}
}

// SetGrid overrides the aiming lattice.
func (g *Gunner) SetGrid(grid Grid) { g.grid = grid }

// Play dials url, joins a lobby and plays until the match ends.
func (g *Gunner) Play(ctx context.Context, url string) (Result, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return Result{}, fmt.Errorf("dial: %w", err)
	}
	g.conn = conn
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "shutdown"), time.Now().Add(time.Second))
		conn.Close()
	})
	defer stop()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return g.result, ctx.Err()
			}
			return g.result, fmt.Errorf("read: %w", err)
		}
		env, err := api.DecodeEnvelope(data)
		if err != nil {
			g.log.Warn().Err(err).Msg("dropping frame")
			continue
		}
		done, err := g.handle(env)
		if err != nil {
			return g.result, err
		}
		if done {
			return g.result, nil
		}
	}
}

// handle applies one server frame. It reports true once the match is over.
func (g *Gunner) handle(env api.Envelope) (bool, error) {
	switch env.Type {
	case api.MsgWelcome:
		w, err := api.DecodePayload[api.Welcome](env)
		if err != nil {
			return false, err
		}
		g.id = w.PlayerID
		return false, g.send(api.MsgJoinGame, api.JoinGame{
			PlayerName:  g.profile.Name,
			PlayerColor: g.profile.Color,
			PlayerCount: g.profile.Players,
			DomeType:    g.profile.DomeType,
		})

	case api.MsgWaiting:
		w, err := api.DecodePayload[api.Waiting](env)
		if err != nil {
			return false, err
		}
		g.log.Debug().Int("current", w.CurrentPlayers).Int("total", w.TotalPlayers).Msg("waiting")

	case api.MsgGameStart:
		gs, err := api.DecodePayload[api.GameStart](env)
		if err != nil {
			return false, err
		}
		g.roomID = gs.RoomID
		g.result.RoomID = gs.RoomID
		g.mirror = game.Restore(g.rules, gs.Snapshot)
		seat, ok := g.mirror.SeatOf(g.id)
		if !ok {
			return false, errors.New("not seated in the match that started")
		}
		g.seat = seat
		g.log.Info().Str("room", gs.RoomID).Int("seat", seat).Msg("match started")
		return false, g.maybeTakeTurn()

	case api.MsgItemUpdate:
		u, err := api.DecodePayload[api.ItemUpdate](env)
		if err != nil || g.mirror == nil {
			return false, err
		}
		if _, err := g.mirror.Toggle(u.PlayerNumber, u.ItemID); err != nil {
			g.log.Warn().Err(err).Str("item", u.ItemID).Msg("mirror rejected purchase")
		}

	case api.MsgDomeMove:
		mv, err := api.DecodePayload[api.DomeMoved](env)
		if err != nil || g.mirror == nil {
			return false, err
		}
		_ = g.mirror.Place(mv.PlayerNumber, mv.NewX, mv.NewY)

	case api.MsgShotFired:
		sf, err := api.DecodePayload[api.ShotFired](env)
		if err != nil || g.mirror == nil {
			return false, err
		}
		if sf.PlayerNumber != g.seat {
			break
		}
		shot := &game.Shot{
			Seat:   sf.PlayerNumber,
			Power:  sf.Power,
			Angle:  sf.Angle,
			Nuke:   sf.Nuke,
			Digger: sf.Digger,
			Spread: sf.Spread,
		}
		g.result.Turns++
		return false, g.send(api.MsgProjectileImpact, Report(g.mirror, g.roomID, shot))

	case api.MsgTurnChange:
		snap, err := api.DecodePayload[api.TurnChange](env)
		if err != nil || g.mirror == nil {
			return false, err
		}
		g.mirror.Sync(snap)
		return false, g.maybeTakeTurn()

	case api.MsgGameOver:
		over, err := api.DecodePayload[api.GameOver](env)
		if err != nil {
			return true, err
		}
		g.result.Draw = over.Draw
		g.result.Won = over.Winner != nil && over.Winner.ID == g.id
		g.log.Info().Bool("won", g.result.Won).Bool("draw", over.Draw).Msg("match over")
		return true, nil

	case api.MsgOpponentDisconnected:
		g.result.Disconnected = true
		g.log.Info().Msg("opponent disconnected")
		return true, nil

	case api.MsgError:
		msg, _ := api.DecodePayload[api.ErrorMessage](env)
		return true, fmt.Errorf("server: %s", msg.Message)
	}
	return false, nil
}

// maybeTakeTurn buys and fires when the mirror says it is this seat's turn.
func (g *Gunner) maybeTakeTurn() error {
	m := g.mirror
	if m.CurrentSeat() != g.seat {
		return nil
	}
	me, ok := m.Dome(g.seat)
	if !ok {
		return nil
	}
	if !me.Alive() {
		// A dead seat still holds the turn when the rotation keeps corpses.
		// Drop a minimum-power round on the wreck to pass it on.
		g.log.Debug().Msg("passing turn")
		return g.send(api.MsgFire, api.Fire{RoomID: g.roomID, Power: game.MinPower, Angle: 90})
	}

	if item := ChooseItem(m, g.seat); item != "" {
		if err := g.send(api.MsgBuyItem, api.BuyItem{RoomID: g.roomID, ItemID: item}); err != nil {
			return err
		}
	}

	power, angle, ok := Aim(m, g.seat, g.grid, g.rng)
	if !ok {
		power, angle = game.MaxPower, 45
		if t, found := Target(m, g.seat); found && t.X < me.X {
			angle = 135
		}
	}
	g.log.Debug().Float64("power", power).Float64("angle", angle).Float64("wind", m.Wind()).Msg("firing")
	return g.send(api.MsgFire, api.Fire{RoomID: g.roomID, Power: power, Angle: angle})
}

func (g *Gunner) send(t string, payload any) error {
	b, err := api.Encode(t, payload)
	if err != nil {
		return err
	}
	if err := g.conn.WriteMessage(websocket.TextMessage, b); err != nil {
		return fmt.Errorf("write %s: %w", t, err)
	}
	return nil
}
