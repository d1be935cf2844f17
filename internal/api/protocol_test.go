package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/everforgeworks/domefall/internal/game"
)

func TestDecodeInbound_KnownTypes(t *testing.T) {
	cases := []struct {
		frame string
		want  Inbound
	}{
		{
			`{"type":"joinGame","payload":{"playerName":"Ann","playerColor":"#FF0000","playerCount":3,"domeType":"yamazaki"}}`,
			JoinGame{PlayerName: "Ann", PlayerColor: "#FF0000", PlayerCount: 3, DomeType: "yamazaki"},
		},
		{
			`{"type":"fire","payload":{"roomId":"r","power":55.5,"angle":120}}`,
			Fire{RoomID: "r", Power: 55.5, Angle: 120},
		},
		{
			`{"type":"domeMove","payload":{"roomId":"r","playerNumber":2,"newX":300,"newY":410}}`,
			DomeMove{RoomID: "r", PlayerNumber: 2, NewX: 300, NewY: 410},
		},
		{
			`{"type":"buyItem","payload":{"roomId":"r","itemId":"nuke"}}`,
			BuyItem{RoomID: "r", ItemID: "nuke"},
		},
		{
			`{"type":"projectileImpact","payload":{"roomId":"r","x":640,"damage":42,"hitPlayerId":"p2","shieldAbsorbed":false,"extraImpacts":[{"x":600,"damage":0}]}}`,
			ProjectileImpact{
				RoomID:       "r",
				ImpactReport: ImpactReport{X: 640, Damage: 42, HitPlayerID: "p2"},
				ExtraImpacts: []ImpactReport{{X: 600}},
			},
		},
	}
	for _, tc := range cases {
		got, err := DecodeInbound([]byte(tc.frame))
		require.NoError(t, err, tc.frame)
		assert.Equal(t, tc.want, got)
	}
}

func TestDecodeInbound_Rejects(t *testing.T) {
	_, err := DecodeInbound([]byte(`{"type":"teleport","payload":{}}`))
	assert.ErrorIs(t, err, ErrUnknownMessage)

	_, err = DecodeInbound([]byte(`not json`))
	assert.ErrorIs(t, err, ErrMalformedPayload)

	_, err = DecodeInbound(nil)
	assert.ErrorIs(t, err, ErrMalformedPayload)

	_, err = DecodeInbound([]byte(`{"type":"fire"}`))
	assert.ErrorIs(t, err, ErrMalformedPayload)

	_, err = DecodeInbound([]byte(`{"type":"joinGame","payload":{"playerCount":"two"}}`))
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestProjectileImpact_PointsPrimaryFirst(t *testing.T) {
	p := ProjectileImpact{
		ImpactReport: ImpactReport{X: 1, HitPlayerID: "a", ShieldAbsorbed: true},
		ExtraImpacts: []ImpactReport{{X: 2}, {X: 3, Damage: 9}},
	}
	pts := p.Points()
	require.Len(t, pts, 3)
	assert.Equal(t, 1.0, pts[0].X)
	assert.True(t, pts[0].ShieldAbsorbed)
	assert.Equal(t, "a", pts[0].HitPlayerID)
	assert.Equal(t, 9.0, pts[2].Damage)
}

func TestProjectileImpact_DecodesBlastHits(t *testing.T) {
	msg, err := DecodeInbound([]byte(`{"type":"projectileImpact","payload":{
		"roomId":"r","x":100,"damage":50,"hitPlayerId":"a",
		"hits":[{"playerId":"a","damage":50},{"playerId":"b","damage":20,"shieldAbsorbed":true}]}}`))
	require.NoError(t, err)

	pts := msg.(ProjectileImpact).Points()
	require.Len(t, pts, 1)
	assert.Equal(t, []game.ReportedHit{
		{PlayerID: "a", Damage: 50},
		{PlayerID: "b", Damage: 20, ShieldAbsorbed: true},
	}, pts[0].Hits)
}

func TestEncode_Envelope(t *testing.T) {
	b, err := Encode(MsgWaiting, Waiting{CurrentPlayers: 1, TotalPlayers: 4})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"waiting","payload":{"currentPlayers":1,"totalPlayers":4}}`, string(b))

	b, err = Encode(MsgOpponentDisconnected, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"opponentDisconnected"}`, string(b))

	_, err = Encode("", Waiting{})
	assert.Error(t, err)
}

func TestGameOver_DrawHasNullWinner(t *testing.T) {
	b, err := json.Marshal(GameOver{Draw: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"winner":null,"draw":true}`, string(b))
}
