package api

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/everforgeworks/domefall/internal/game"
)

// startServer runs a hub and the router behind an httptest server.
func startServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(zerolog.Nop(), DefaultHubConfig(), game.DefaultRules(), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		_ = hub.Run(ctx)
		close(stopped)
	}()

	srv := httptest.NewServer(NewHandlers(hub, zerolog.Nop()).Router())
	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-stopped
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendMsg(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	b, err := Encode(msgType, payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, b))
}

// readUntil skips frames until one of msgType arrives.
func readUntil(t *testing.T, conn *websocket.Conn, msgType string) Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %s", msgType)
		env, err := DecodeEnvelope(data)
		require.NoError(t, err)
		if env.Type == msgType {
			return env
		}
	}
}

func TestHub_MatchOverWebSocket(t *testing.T) {
	_, srv := startServer(t)
	alice := dial(t, srv)
	bob := dial(t, srv)

	sendMsg(t, alice, MsgJoinGame, JoinGame{PlayerName: "Alice", PlayerColor: "#FF0000", PlayerCount: 2})
	w, err := DecodePayload[Waiting](readUntil(t, alice, MsgWaiting))
	require.NoError(t, err)
	assert.Equal(t, 1, w.CurrentPlayers)

	sendMsg(t, bob, MsgJoinGame, JoinGame{PlayerName: "Bob", PlayerColor: "#0000FF", PlayerCount: 2})
	gs, err := DecodePayload[GameStart](readUntil(t, bob, MsgGameStart))
	require.NoError(t, err)
	_ = readUntil(t, alice, MsgGameStart)
	require.Len(t, gs.Players, 2)
	assert.Equal(t, "Alice", gs.Players[0].Name)

	sendMsg(t, alice, MsgFire, Fire{RoomID: gs.RoomID, Power: 70, Angle: 60})
	sf, err := DecodePayload[ShotFired](readUntil(t, bob, MsgShotFired))
	require.NoError(t, err)
	assert.Equal(t, gs.Players[0].ID, sf.PlayerID)

	sendMsg(t, alice, MsgProjectileImpact, ProjectileImpact{
		RoomID:       gs.RoomID,
		ImpactReport: ImpactReport{X: 1100, Damage: 45, HitPlayerID: gs.Players[1].ID},
	})
	tc, err := DecodePayload[TurnChange](readUntil(t, bob, MsgTurnChange))
	require.NoError(t, err)
	assert.Equal(t, 2, tc.CurrentPlayer)
	assert.Equal(t, 55, tc.Players[1].Health)

	require.NoError(t, alice.Close())
	_ = readUntil(t, bob, MsgOpponentDisconnected)
}

func TestHub_WelcomeCarriesPlayerID(t *testing.T) {
	_, srv := startServer(t)
	alice := dial(t, srv)
	bob := dial(t, srv)

	wa, err := DecodePayload[Welcome](readUntil(t, alice, MsgWelcome))
	require.NoError(t, err)
	wb, err := DecodePayload[Welcome](readUntil(t, bob, MsgWelcome))
	require.NoError(t, err)
	assert.NotEmpty(t, wa.PlayerID)
	assert.NotEqual(t, wa.PlayerID, wb.PlayerID)

	sendMsg(t, alice, MsgJoinGame, JoinGame{PlayerCount: 2})
	_ = readUntil(t, alice, MsgWaiting)
	sendMsg(t, bob, MsgJoinGame, JoinGame{PlayerCount: 2})
	gs, err := DecodePayload[GameStart](readUntil(t, alice, MsgGameStart))
	require.NoError(t, err)
	assert.Equal(t, wa.PlayerID, gs.Players[0].ID)
	assert.Equal(t, wb.PlayerID, gs.Players[1].ID)
}

func TestHub_InvalidJoinAndGarbage(t *testing.T) {
	_, srv := startServer(t)
	conn := dial(t, srv)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("garbage")))
	sendMsg(t, conn, MsgJoinGame, JoinGame{PlayerCount: 9})

	msg, err := DecodePayload[ErrorMessage](readUntil(t, conn, MsgError))
	require.NoError(t, err)
	assert.Contains(t, msg.Message, "Invalid player count")
}

func TestHub_StatusThroughLoop(t *testing.T) {
	hub, srv := startServer(t)
	conn := dial(t, srv)
	sendMsg(t, conn, MsgJoinGame, JoinGame{PlayerCount: 4})
	_ = readUntil(t, conn, MsgWaiting)

	st, err := hub.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[int]int{4: 1}, st.Waiting)
}

func TestHub_QueryAfterStop(t *testing.T) {
	hub := NewHub(zerolog.Nop(), HubConfig{}, game.DefaultRules(), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, hub.Run(ctx), context.Canceled)

	_, err := hub.Status(context.Background())
	assert.ErrorIs(t, err, ErrHubStopped)
}

func TestHub_SendEvictsFullBuffer(t *testing.T) {
	hub := NewHub(zerolog.Nop(), HubConfig{SendBuffer: 1}, game.DefaultRules(), nil, nil)
	c := &Client{id: "slow", hub: hub, send: make(chan []byte, 1)}
	hub.clients[c.id] = c
	hub.coord.Join("slow", JoinGame{PlayerCount: 3})

	hub.Send("slow", []byte("x"))
	_, open := <-c.send
	assert.True(t, open, "first buffered frame is still delivered")
	_, open = <-c.send
	assert.False(t, open, "overflow closes the channel")

	hub.flushEvictions()
	assert.Empty(t, hub.clients)
	assert.Empty(t, hub.coord.Status().Waiting)
}
