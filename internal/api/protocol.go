/*
Package api
File: protocol.go
Description:

	The wire protocol. Every frame is a JSON envelope {"type", "payload"}.
	Inbound frames decode into a closed set of message structs; anything else
	is rejected at the boundary before it reaches the Coordinator.
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/everforgeworks/domefall/internal/game"
)

// Message types. The first block is client -> server.
const (
	MsgJoinGame         = "joinGame"
	MsgFire             = "fire"
	MsgDomeMove         = "domeMove"
	MsgProjectileImpact = "projectileImpact"
	MsgBuyItem          = "buyItem"

	MsgWelcome              = "welcome"
	MsgWaiting              = "waiting"
	MsgGameStart            = "gameStart"
	MsgShotFired            = "shotFired"
	MsgItemUpdate           = "itemUpdate"
	MsgTurnChange           = "turnChange"
	MsgGameOver             = "gameOver"
	MsgOpponentDisconnected = "opponentDisconnected"
	MsgError                = "error"
)

var (
	ErrUnknownMessage   = errors.New("unknown message type")
	ErrMalformedPayload = errors.New("malformed payload")
)

// Envelope is the frame every message travels in.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Inbound is implemented by every client -> server message.
type Inbound interface {
	inbound()
}

type JoinGame struct {
	PlayerName  string `json:"playerName"`
	PlayerColor string `json:"playerColor"`
	PlayerCount int    `json:"playerCount"`
	DomeType    string `json:"domeType"`
}

type Fire struct {
	RoomID string  `json:"roomId"`
	Power  float64 `json:"power"`
	Angle  float64 `json:"angle"`
}

type DomeMove struct {
	RoomID       string  `json:"roomId"`
	PlayerNumber int     `json:"playerNumber"`
	NewX         float64 `json:"newX"`
	NewY         float64 `json:"newY"`
}

// ImpactReport is one landing spot as computed by the firing client.
// HitPlayerID names the hardest-hit dome; Hits lists every dome in the blast.
type ImpactReport struct {
	X              float64     `json:"x"`
	Damage         float64     `json:"damage"`
	HitPlayerID    string      `json:"hitPlayerId,omitempty"`
	ShieldAbsorbed bool        `json:"shieldAbsorbed"`
	Hits           []HitReport `json:"hits,omitempty"`
}

// HitReport is one dome caught by a blast.
type HitReport struct {
	PlayerID       string  `json:"playerId"`
	Damage         float64 `json:"damage"`
	ShieldAbsorbed bool    `json:"shieldAbsorbed"`
}

// ProjectileImpact reports a resolved shot. ExtraImpacts carries the
// secondary projectiles of a spread volley.
type ProjectileImpact struct {
	RoomID string `json:"roomId"`
	ImpactReport
	ExtraImpacts []ImpactReport `json:"extraImpacts,omitempty"`
}

type BuyItem struct {
	RoomID string `json:"roomId"`
	ItemID string `json:"itemId"`
}

func (JoinGame) inbound()         {}
func (Fire) inbound()             {}
func (DomeMove) inbound()         {}
func (ProjectileImpact) inbound() {}
func (BuyItem) inbound()          {}

// Points converts the report into impact points, primary first.
func (p ProjectileImpact) Points() []game.ImpactPoint {
	out := make([]game.ImpactPoint, 0, 1+len(p.ExtraImpacts))
	for _, r := range append([]ImpactReport{p.ImpactReport}, p.ExtraImpacts...) {
		pt := game.ImpactPoint{
			X:              r.X,
			Damage:         r.Damage,
			HitPlayerID:    r.HitPlayerID,
			ShieldAbsorbed: r.ShieldAbsorbed,
		}
		for _, h := range r.Hits {
			pt.Hits = append(pt.Hits, game.ReportedHit{
				PlayerID:       h.PlayerID,
				Damage:         h.Damage,
				ShieldAbsorbed: h.ShieldAbsorbed,
			})
		}
		out = append(out, pt)
	}
	return out
}

// Server -> client payloads.

// Welcome tells a fresh connection its player id.
type Welcome struct {
	PlayerID string `json:"playerId"`
}

type Waiting struct {
	CurrentPlayers int `json:"currentPlayers"`
	TotalPlayers   int `json:"totalPlayers"`
}

type GameStart struct {
	RoomID string `json:"roomId"`
	game.Snapshot
}

type ShotFired struct {
	PlayerID     string  `json:"playerId"`
	PlayerNumber int     `json:"playerNumber"`
	Power        float64 `json:"power"`
	Angle        float64 `json:"angle"`
	Nuke         bool    `json:"nuke"`
	Digger       bool    `json:"digger"`
	Spread       bool    `json:"spread"`
}

// DomeMoved is the rebroadcast of an accepted domeMove.
type DomeMoved struct {
	RoomID       string  `json:"roomId"`
	PlayerID     string  `json:"playerId"`
	PlayerNumber int     `json:"playerNumber"`
	NewX         float64 `json:"newX"`
	NewY         float64 `json:"newY"`
}

type ItemUpdate struct {
	PlayerNumber int              `json:"playerNumber"`
	ItemID       string           `json:"itemId"`
	Action       string           `json:"action"`
	Player       game.PlayerState `json:"player"`
	WindSpeed    float64          `json:"windSpeed"`
}

type TurnChange = game.Snapshot

// GameOver carries a nil winner on a draw.
type GameOver struct {
	Winner *game.PlayerState `json:"winner"`
	Draw   bool              `json:"draw"`
}

type ErrorMessage struct {
	Message string `json:"message"`
}

// Encode wraps payload in an envelope. A nil payload is omitted.
func Encode(t string, payload any) ([]byte, error) {
	if t == "" {
		return nil, fmt.Errorf("encode: empty message type")
	}
	env := Envelope{Type: t}
	if payload != nil {
		pb, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", t, err)
		}
		env.Payload = pb
	}
	return json.Marshal(env)
}

// DecodeEnvelope parses the outer frame only.
func DecodeEnvelope(b []byte) (Envelope, error) {
	var env Envelope
	if len(b) == 0 {
		return env, fmt.Errorf("%w: empty frame", ErrMalformedPayload)
	}
	if err := json.Unmarshal(b, &env); err != nil {
		return env, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return env, nil
}

// DecodePayload unmarshals an envelope's payload into T.
func DecodePayload[T any](env Envelope) (T, error) {
	var out T
	if len(env.Payload) == 0 {
		return out, fmt.Errorf("%w: empty payload for %q", ErrMalformedPayload, env.Type)
	}
	if err := json.Unmarshal(env.Payload, &out); err != nil {
		return out, fmt.Errorf("%w: %s: %v", ErrMalformedPayload, env.Type, err)
	}
	return out, nil
}

// DecodeInbound parses a client frame into one of the inbound messages.
func DecodeInbound(b []byte) (Inbound, error) {
	env, err := DecodeEnvelope(b)
	if err != nil {
		return nil, err
	}
	switch env.Type {
	case MsgJoinGame:
		return decodeAs[JoinGame](env)
	case MsgFire:
		return decodeAs[Fire](env)
	case MsgDomeMove:
		return decodeAs[DomeMove](env)
	case MsgProjectileImpact:
		return decodeAs[ProjectileImpact](env)
	case MsgBuyItem:
		return decodeAs[BuyItem](env)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, env.Type)
	}
}

func decodeAs[T Inbound](env Envelope) (Inbound, error) {
	v, err := DecodePayload[T](env)
	if err != nil {
		return nil, err
	}
	return v, nil
}
